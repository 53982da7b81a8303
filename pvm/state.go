package pvm

// Accumulation state model: service account, partial state, implications,
// ImplicationsPair, and deferred transfers. Grounded on ProbeChain's
// core/state/state_object.go + statedb.go (an account-keyed record with
// scalar fields plus a dirty key/value store, copied in and out of a
// dictionary) generalized from Ethereum's hash-keyed storage trie to a
// flat, sorted C(s,h)-keyed dictionary: there is no trie here, only a
// deterministic encode/decode contract.

const (
	// AuthQueueSize is C_AUTHQUEUESIZE.
	AuthQueueSize = 80
	// MemoSize is C_MEMOSIZE: the fixed width of a deferred transfer's memo.
	MemoSize = 128
	// HashSize is the fixed width of a Gray-Paper hash value.
	HashSize = 32
	// ValidatorKeySize is the fixed width of one validator key.
	ValidatorKeySize = 336

	baseDeposit = 100
	itemDeposit = 10
	byteDeposit = 1

	serviceAccountDiscriminator byte = 0x01
)

// ServiceAccount is the persistent per-service record: a flat
// C(s,h)-keyed dictionary of raw values plus scalar fields.
type ServiceAccount struct {
	Storage   map[[31]byte][]byte
	CodeHash  [HashSize]byte
	Balance   uint64
	MinAccGas uint64
	MinMemoGas uint64
	Octets    uint64
	Gratis    uint64
	Items     uint32
	Created   uint32
	LastAcc   uint32
	Parent    uint32
}

// NewServiceAccount returns an empty account ready to have storage entries
// and scalars assigned.
func NewServiceAccount() *ServiceAccount {
	return &ServiceAccount{Storage: make(map[[31]byte][]byte)}
}

// MinBalance computes a_minbalance = max(0, 100 + 10*items + 1*octets -
// gratis) (Gray Paper §31), the deposit floor WRITE/READ/SOLICIT/FORGET/
// QUERY enforce before mutating storage.
func (a *ServiceAccount) MinBalance() uint64 {
	total := int64(baseDeposit) + itemDeposit*int64(a.Items) + byteDeposit*int64(a.Octets) - int64(a.Gratis)
	if total < 0 {
		return 0
	}
	return uint64(total)
}

// storageEntries returns the account's storage as sorted dictEntry pairs,
// key-encoded as the raw 31-byte C(s,h) key, value-encoded as var{value}.
func (a *ServiceAccount) storageEntries() []dictEntry {
	entries := make([]dictEntry, 0, len(a.Storage))
	for k, v := range a.Storage {
		key := append([]byte{}, k[:]...)
		entries = append(entries, dictEntry{key: key, value: EncodeVarBlob(v)})
	}
	sortDictEntries(entries)
	return entries
}

// EncodeServiceAccount always emits the >=0.7.1 discriminated field order
// (Open Question 3).
func EncodeServiceAccount(a *ServiceAccount) []byte {
	out := []byte{serviceAccountDiscriminator}
	out = append(out, EncodeDictionary(a.storageEntries())...)
	out = append(out, EncodeFixed(a.Octets, 8)...)
	out = append(out, EncodeFixed(uint64(a.Items), 4)...)
	out = append(out, EncodeFixed(a.Gratis, 8)...)
	out = append(out, a.CodeHash[:]...)
	out = append(out, EncodeFixed(a.Balance, 8)...)
	out = append(out, EncodeFixed(a.MinAccGas, 8)...)
	out = append(out, EncodeFixed(a.MinMemoGas, 8)...)
	out = append(out, EncodeFixed(uint64(a.Created), 4)...)
	out = append(out, EncodeFixed(uint64(a.LastAcc), 4)...)
	out = append(out, EncodeFixed(uint64(a.Parent), 4)...)
	return out
}

// DecodeServiceAccount accepts both the discriminated (JAM >=0.7.1) and
// undiscriminated (0.7.0) forms: it peeks the first byte and only treats it
// as a discriminator tag when it is the single recognized value; otherwise it
// falls back to the undiscriminated layout (Open Question 3).
func DecodeServiceAccount(b []byte) (*ServiceAccount, error) {
	if len(b) > 0 && b[0] == serviceAccountDiscriminator {
		return decodeServiceAccountBody(b[1:])
	}
	return decodeServiceAccountBody(b)
}

func decodeServiceAccountBody(b []byte) (*ServiceAccount, error) {
	dictBytes, n, err := DecodeVarBlob(b)
	if err != nil {
		return nil, malformed("serviceAccount: storage dict: %v", err)
	}
	b = b[n:]

	storage, err := decodeCshDict(dictBytes)
	if err != nil {
		return nil, err
	}

	a := &ServiceAccount{Storage: storage}
	var v uint64
	if v, err = readU(&b, 8, "octets"); err != nil {
		return nil, err
	}
	a.Octets = v
	if v, err = readU(&b, 4, "items"); err != nil {
		return nil, err
	}
	a.Items = uint32(v)
	if v, err = readU(&b, 8, "gratis"); err != nil {
		return nil, err
	}
	a.Gratis = v
	if len(b) < HashSize {
		return nil, malformed("serviceAccount: truncated codehash")
	}
	copy(a.CodeHash[:], b[:HashSize])
	b = b[HashSize:]
	if v, err = readU(&b, 8, "balance"); err != nil {
		return nil, err
	}
	a.Balance = v
	if v, err = readU(&b, 8, "minaccgas"); err != nil {
		return nil, err
	}
	a.MinAccGas = v
	if v, err = readU(&b, 8, "minmemogas"); err != nil {
		return nil, err
	}
	a.MinMemoGas = v
	if v, err = readU(&b, 4, "created"); err != nil {
		return nil, err
	}
	a.Created = uint32(v)
	if v, err = readU(&b, 4, "lastacc"); err != nil {
		return nil, err
	}
	a.LastAcc = uint32(v)
	if v, err = readU(&b, 4, "parent"); err != nil {
		return nil, err
	}
	a.Parent = uint32(v)
	return a, nil
}

func readU(b *[]byte, n int, what string) (uint64, error) {
	if len(*b) < n {
		return 0, malformed("serviceAccount: truncated %s", what)
	}
	v, err := DecodeFixed((*b)[:n], n)
	if err != nil {
		return 0, malformed("serviceAccount: %s: %v", what, err)
	}
	*b = (*b)[n:]
	return v, nil
}

// decodeCshDict parses a concatenation of (31-byte key || var{value}) pairs,
// the body of EncodeDictionary applied to storageEntries.
func decodeCshDict(b []byte) (map[[31]byte][]byte, error) {
	out := make(map[[31]byte][]byte)
	for len(b) > 0 {
		if len(b) < 31 {
			return nil, malformed("serviceAccount: truncated C(s,h) key")
		}
		var key [31]byte
		copy(key[:], b[:31])
		b = b[31:]
		value, n, err := DecodeVarBlob(b)
		if err != nil {
			return nil, malformed("serviceAccount: storage value: %v", err)
		}
		b = b[n:]
		out[key] = value
	}
	return out, nil
}

// PartialState is the per-invocation accumulation state: service accounts,
// validator keys, authorization queues, and assignment/management roles.
type PartialState struct {
	Services     map[uint32]*ServiceAccount
	Validators   [][ValidatorKeySize]byte
	AuthQueues   [][AuthQueueSize][HashSize]byte // per-core
	Manager      uint32
	Assigners    []uint32 // per-core
	Delegator    uint32
	Registrar    uint32
	AlwaysAccers map[uint32]uint64 // service-id -> gas
}

// NewPartialState returns an empty PartialState.
func NewPartialState() *PartialState {
	return &PartialState{
		Services:     make(map[uint32]*ServiceAccount),
		AlwaysAccers: make(map[uint32]uint64),
	}
}

// EncodePartialState serializes, in order: service dictionary, validator
// keys, per-core auth queues, manager, per-core assigners, delegator,
// registrar, alwaysaccers dictionary.
func EncodePartialState(s *PartialState) []byte {
	var out []byte

	serviceEntries := make([]dictEntry, 0, len(s.Services))
	for id, acct := range s.Services {
		serviceEntries = append(serviceEntries, dictEntry{key: EncodeFixed(uint64(id), 4), value: EncodeVarBlob(EncodeServiceAccount(acct))})
	}
	out = append(out, EncodeDictionary(serviceEntries)...)

	out = append(out, EncodeNatural(uint64(len(s.Validators)))...)
	for _, v := range s.Validators {
		out = append(out, v[:]...)
	}

	out = append(out, EncodeNatural(uint64(len(s.AuthQueues)))...)
	for _, q := range s.AuthQueues {
		for _, h := range q {
			out = append(out, h[:]...)
		}
	}

	out = append(out, EncodeFixed(uint64(s.Manager), 4)...)

	out = append(out, EncodeNatural(uint64(len(s.Assigners)))...)
	for _, a := range s.Assigners {
		out = append(out, EncodeFixed(uint64(a), 4)...)
	}

	out = append(out, EncodeFixed(uint64(s.Delegator), 4)...)
	out = append(out, EncodeFixed(uint64(s.Registrar), 4)...)

	alwaysEntries := make([]dictEntry, 0, len(s.AlwaysAccers))
	for id, gas := range s.AlwaysAccers {
		alwaysEntries = append(alwaysEntries, dictEntry{key: EncodeFixed(uint64(id), 4), value: EncodeFixed(gas, 8)})
	}
	out = append(out, EncodeDictionary(alwaysEntries)...)

	return out
}

// DecodePartialState is the inverse of EncodePartialState. It returns the
// number of bytes consumed from b so a caller decoding a larger structure
// (Implications) can locate the fields that follow without re-encoding.
func DecodePartialState(b []byte) (*PartialState, int, error) {
	start := len(b)
	s := NewPartialState()

	serviceBody, n, err := DecodeVarBlob(b)
	if err != nil {
		return nil, 0, malformed("partialState: services: %v", err)
	}
	b = b[n:]
	for len(serviceBody) > 0 {
		if len(serviceBody) < 4 {
			return nil, 0, malformed("partialState: truncated service id")
		}
		id, err := DecodeFixed(serviceBody[:4], 4)
		if err != nil {
			return nil, 0, err
		}
		serviceBody = serviceBody[4:]
		acctBytes, n2, err := DecodeVarBlob(serviceBody)
		if err != nil {
			return nil, 0, malformed("partialState: service account: %v", err)
		}
		serviceBody = serviceBody[n2:]
		acct, err := DecodeServiceAccount(acctBytes)
		if err != nil {
			return nil, 0, err
		}
		s.Services[uint32(id)] = acct
	}

	validatorCount, n3, err := DecodeNatural(b)
	if err != nil {
		return nil, 0, malformed("partialState: validator count: %v", err)
	}
	b = b[n3:]
	for i := uint64(0); i < validatorCount; i++ {
		if len(b) < ValidatorKeySize {
			return nil, 0, malformed("partialState: truncated validator key")
		}
		var key [ValidatorKeySize]byte
		copy(key[:], b[:ValidatorKeySize])
		b = b[ValidatorKeySize:]
		s.Validators = append(s.Validators, key)
	}

	queueCount, n4, err := DecodeNatural(b)
	if err != nil {
		return nil, 0, malformed("partialState: auth queue count: %v", err)
	}
	b = b[n4:]
	for i := uint64(0); i < queueCount; i++ {
		var q [AuthQueueSize][HashSize]byte
		for j := 0; j < AuthQueueSize; j++ {
			if len(b) < HashSize {
				return nil, 0, malformed("partialState: truncated auth queue hash")
			}
			copy(q[j][:], b[:HashSize])
			b = b[HashSize:]
		}
		s.AuthQueues = append(s.AuthQueues, q)
	}

	manager, err := readU(&b, 4, "manager")
	if err != nil {
		return nil, 0, err
	}
	s.Manager = uint32(manager)

	assignerCount, n5, err := DecodeNatural(b)
	if err != nil {
		return nil, 0, malformed("partialState: assigner count: %v", err)
	}
	b = b[n5:]
	for i := uint64(0); i < assignerCount; i++ {
		v, err := readU(&b, 4, "assigner")
		if err != nil {
			return nil, 0, err
		}
		s.Assigners = append(s.Assigners, uint32(v))
	}

	delegator, err := readU(&b, 4, "delegator")
	if err != nil {
		return nil, 0, err
	}
	s.Delegator = uint32(delegator)

	registrar, err := readU(&b, 4, "registrar")
	if err != nil {
		return nil, 0, err
	}
	s.Registrar = uint32(registrar)

	alwaysBody, alwaysConsumed, err := DecodeVarBlob(b)
	if err != nil {
		return nil, 0, malformed("partialState: alwaysaccers: %v", err)
	}
	for len(alwaysBody) > 0 {
		if len(alwaysBody) < 4 {
			return nil, 0, malformed("partialState: truncated alwaysaccer id")
		}
		id, err := DecodeFixed(alwaysBody[:4], 4)
		if err != nil {
			return nil, 0, err
		}
		alwaysBody = alwaysBody[4:]
		if len(alwaysBody) < 8 {
			return nil, 0, malformed("partialState: truncated alwaysaccer gas")
		}
		gas, err := DecodeFixed(alwaysBody[:8], 8)
		if err != nil {
			return nil, 0, err
		}
		alwaysBody = alwaysBody[8:]
		s.AlwaysAccers[uint32(id)] = gas
	}
	b = b[alwaysConsumed:]

	return s, start - len(b), nil
}

// DeferredTransfer is a cross-service balance transfer queued for delivery
// after accumulation. Memo is fixed-length, not var{}.
type DeferredTransfer struct {
	From     uint32
	To       uint32
	Amount   uint64
	Memo     [MemoSize]byte
	GasLimit uint64
}

// EncodeDeferredTransfer serializes a transfer in (from, to, amount, memo,
// gasLimit) field order.
func EncodeDeferredTransfer(t *DeferredTransfer) []byte {
	out := EncodeFixed(uint64(t.From), 4)
	out = append(out, EncodeFixed(uint64(t.To), 4)...)
	out = append(out, EncodeFixed(t.Amount, 8)...)
	out = append(out, t.Memo[:]...)
	out = append(out, EncodeFixed(t.GasLimit, 8)...)
	return out
}

// DecodeDeferredTransfer is the inverse of EncodeDeferredTransfer.
func DecodeDeferredTransfer(b []byte) (*DeferredTransfer, int, error) {
	if len(b) < 4+4+8+MemoSize+8 {
		return nil, 0, malformed("deferredTransfer: truncated")
	}
	t := &DeferredTransfer{}
	from, _ := DecodeFixed(b[0:4], 4)
	t.From = uint32(from)
	to, _ := DecodeFixed(b[4:8], 4)
	t.To = uint32(to)
	amount, _ := DecodeFixed(b[8:16], 8)
	t.Amount = amount
	copy(t.Memo[:], b[16:16+MemoSize])
	off := 16 + MemoSize
	gasLimit, _ := DecodeFixed(b[off:off+8], 8)
	t.GasLimit = gasLimit
	return t, off + 8, nil
}

// Provision is a single (service-id, blob) preimage handed to provideImpl,
// sorted into Implications.Provided by ServiceID then Blob (spec section 3).
type Provision struct {
	ServiceID uint32
	Blob      []byte
}

func sortProvisions(p []Provision) {
	// Same insertion sort as sortDictEntries: provision lists in practice are
	// short, so O(n^2) is fine.
	for i := 1; i < len(p); i++ {
		for j := i; j > 0 && provisionLess(p[j], p[j-1]); j-- {
			p[j], p[j-1] = p[j-1], p[j]
		}
	}
}

func provisionLess(a, b Provision) bool {
	if a.ServiceID != b.ServiceID {
		return a.ServiceID < b.ServiceID
	}
	return compareBytes(a.Blob, b.Blob) < 0
}

// Implications is one side (regular or exceptional) of an accumulation
// invocation's outcome: the invoking service id, the resulting partial
// state, the next-free service id, any deferred transfers raised, preimages
// provided (sorted service-id/blob pairs), and an optional yielded hash.
type Implications struct {
	ServiceID  uint32
	State      *PartialState
	NextFreeID uint32
	Transfers  []DeferredTransfer
	Provided   []Provision
	Yield      *[HashSize]byte
}

// NewImplications returns an empty Implications over state, carrying the
// invoking service id and the next-free id a hostNew call should assign.
func NewImplications(serviceID uint32, state *PartialState, nextFreeID uint32) *Implications {
	return &Implications{ServiceID: serviceID, State: state, NextFreeID: nextFreeID}
}

// EncodeImplications serializes serviceId, state, nextFreeId, transfers,
// the optional yield hash, then provided preimages sorted by (serviceId,
// blob).
func EncodeImplications(im *Implications) []byte {
	out := EncodeFixed(uint64(im.ServiceID), 4)
	out = append(out, EncodePartialState(im.State)...)
	out = append(out, EncodeFixed(uint64(im.NextFreeID), 4)...)
	out = append(out, EncodeNatural(uint64(len(im.Transfers)))...)
	for i := range im.Transfers {
		out = append(out, EncodeDeferredTransfer(&im.Transfers[i])...)
	}
	if im.Yield != nil {
		out = append(out, EncodeOptional(true, im.Yield[:])...)
	} else {
		out = append(out, EncodeOptional(false, nil)...)
	}
	sorted := append([]Provision(nil), im.Provided...)
	sortProvisions(sorted)
	out = append(out, EncodeNatural(uint64(len(sorted)))...)
	for _, p := range sorted {
		out = append(out, EncodeFixed(uint64(p.ServiceID), 4)...)
		out = append(out, EncodeVarBlob(p.Blob)...)
	}
	return out
}

// DecodeImplications is the inverse of EncodeImplications. It returns the
// number of bytes consumed from b so DecodeImplicationsPair can locate
// Exceptional without re-encoding Regular.
func DecodeImplications(b []byte) (*Implications, int, error) {
	start := len(b)

	serviceID, err := readU(&b, 4, "implications: serviceId")
	if err != nil {
		return nil, 0, err
	}

	state, n, err := DecodePartialState(b)
	if err != nil {
		return nil, 0, err
	}
	b = b[n:]

	nextFreeID, err := readU(&b, 4, "implications: nextFreeId")
	if err != nil {
		return nil, 0, err
	}

	im := &Implications{ServiceID: uint32(serviceID), State: state, NextFreeID: uint32(nextFreeID)}

	transferCount, n2, err := DecodeNatural(b)
	if err != nil {
		return nil, 0, malformed("implications: transfer count: %v", err)
	}
	b = b[n2:]
	for i := uint64(0); i < transferCount; i++ {
		t, consumed, err := DecodeDeferredTransfer(b)
		if err != nil {
			return nil, 0, err
		}
		im.Transfers = append(im.Transfers, *t)
		b = b[consumed:]
	}

	present, consumed, err := DecodeOptionalTag(b)
	if err != nil {
		return nil, 0, malformed("implications: yield tag: %v", err)
	}
	b = b[consumed:]
	if present {
		if len(b) < HashSize {
			return nil, 0, malformed("implications: truncated yield hash")
		}
		var h [HashSize]byte
		copy(h[:], b[:HashSize])
		im.Yield = &h
		b = b[HashSize:]
	}

	providedCount, n3, err := DecodeNatural(b)
	if err != nil {
		return nil, 0, malformed("implications: provided count: %v", err)
	}
	b = b[n3:]
	for i := uint64(0); i < providedCount; i++ {
		pid, err := readU(&b, 4, "implications: provision serviceId")
		if err != nil {
			return nil, 0, err
		}
		blob, consumed, err := DecodeVarBlob(b)
		if err != nil {
			return nil, 0, err
		}
		b = b[consumed:]
		im.Provided = append(im.Provided, Provision{ServiceID: uint32(pid), Blob: blob})
	}

	return im, start - len(b), nil
}

// ImplicationsPair carries the (regular, exceptional) outcome of an
// accumulation invocation (Glossary "ImplicationsPair"): Regular reflects a
// HALT/host-driven success path, Exceptional the state as of the last
// checkpoint before a PANIC/FAULT/OOG.
type ImplicationsPair struct {
	Regular     *Implications
	Exceptional *Implications
}

// EncodeImplicationsPair serializes Regular then Exceptional.
func EncodeImplicationsPair(p *ImplicationsPair) []byte {
	out := EncodeImplications(p.Regular)
	out = append(out, EncodeImplications(p.Exceptional)...)
	return out
}

// DecodeImplicationsPair is the inverse of EncodeImplicationsPair.
func DecodeImplicationsPair(b []byte) (*ImplicationsPair, error) {
	regular, consumed, err := DecodeImplications(b)
	if err != nil {
		return nil, err
	}
	b = b[consumed:]
	exceptional, _, err := DecodeImplications(b)
	if err != nil {
		return nil, err
	}
	return &ImplicationsPair{Regular: regular, Exceptional: exceptional}, nil
}
