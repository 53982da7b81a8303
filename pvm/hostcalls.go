package pvm

// Host-call tables for accumulation. Grounded on GVM's vm/devices.go
// HardwareDevice table: a small, explicitly-enumerated set of slots
// addressed by a numeric id, each independently implemented, rather than a
// single giant switch. Here the "device" is either a general host function
// (shared with other invocation contexts; an id absent from this table
// surfaces HOST to the outer caller) or an accumulation-only function
// (always handled in place, never surfaced).
//
// Calling convention (not specified beyond the deposit-accounting rule, so
// fixed here and used consistently): omega7 carries a RAM pointer to the
// call's blob argument (a key, value, hash, or memo) and omega8 its length;
// omega9/omega10 carry auxiliary arguments (a target service id, a core index,
// an amount, or a second pointer/length: READ's destination address, WRITE's
// value address and length); the call's result is always written back into
// omega7: a sentinel from the NONE/WHAT/.../HUH set on failure, and on success
// either 0 or the call's non-negative result value (GAS, READ, NEW, QUERY).

// General host-function ids.
const (
	HostGAS               = 0
	HostFETCH             = 1
	HostLOOKUP            = 2
	HostREAD              = 3
	HostWRITE             = 4
	HostINFO              = 5
	HostHISTORICAL_LOOKUP = 6
	HostEXPORT            = 7
	HostMACHINE           = 8
	HostPEEK              = 9
	HostPOKE              = 10
	HostPAGES             = 11
	HostINVOKE            = 12
	HostEXPUNGE           = 13
	HostLOG               = 100
)

// Accumulation-only host-function ids.
const (
	HostBLESS      = 14
	HostASSIGN     = 15
	HostDESIGNATE  = 16
	HostCHECKPOINT = 17
	HostNEW        = 18
	HostUPGRADE    = 19
	HostTRANSFER   = 20
	HostEJECT      = 21
	HostQUERY      = 22
	HostSOLICIT    = 23
	HostFORGET     = 24
	HostYIELD      = 25
	HostPROVIDE    = 26
)

// hostCallEnv is the mutable state an accumulation-only host call may read or
// mutate: the machine (for registers/RAM), the service currently accumulating,
// and the ImplicationsPair being built up.
type hostCallEnv struct {
	m         *Machine
	pair      *ImplicationsPair
	serviceID uint32
}

type accumulationHandler func(env *hostCallEnv)

var generalHostFuncs = map[uint32]accumulationHandler{
	HostGAS:   hostGas,
	HostREAD:  hostRead,
	HostWRITE: hostWrite,
	HostLOG:   hostLog,
}

var accumulationHostFuncs = map[uint32]accumulationHandler{
	HostBLESS:      hostBless,
	HostASSIGN:     hostAssign,
	HostDESIGNATE:  hostDesignate,
	HostCHECKPOINT: hostCheckpoint,
	HostNEW:        hostNew,
	HostUPGRADE:    hostUpgrade,
	HostTRANSFER:   hostTransfer,
	HostEJECT:      hostEject,
	HostQUERY:      hostQuery,
	HostSOLICIT:    hostSolicit,
	HostFORGET:     hostForget,
	HostYIELD:      hostYield,
	HostPROVIDE:    hostProvide,
}

func (e *hostCallEnv) account() *ServiceAccount {
	acct, ok := e.pair.Regular.State.Services[e.serviceID]
	if !ok {
		acct = NewServiceAccount()
		e.pair.Regular.State.Services[e.serviceID] = acct
	}
	return acct
}

func (e *hostCallEnv) setSentinel(s Sentinel) {
	e.m.Registers[7] = uint64(int64(s))
}

func (e *hostCallEnv) blobArg() ([]byte, bool) {
	addr := uint32(e.m.Registers[7])
	length := uint32(e.m.Registers[8])
	b, err := e.m.RAM.Read(addr, length)
	if err != nil {
		return nil, false
	}
	return b, true
}

// checkDeposit enforces Gray Paper §31's deposit floor:
// a_minbalance = max(0, 100 + 10*items + 1*octets - gratis); insufficient
// balance produces the FULL sentinel rather than mutating the account.
func checkDeposit(acct *ServiceAccount) bool {
	return acct.Balance >= acct.MinBalance()
}

func hostGas(env *hostCallEnv) {
	env.m.Registers[7] = uint64(env.m.Gas)
}

func hostRead(env *hostCallEnv) {
	key, ok := env.blobArg()
	if !ok {
		env.setSentinel(SentinelOOB)
		return
	}
	acct := env.account()
	if !checkDeposit(acct) {
		env.setSentinel(SentinelFULL)
		return
	}
	stateKey, err := DeriveStateKey(env.serviceID, KeyForStorage, key, 0)
	if err != nil {
		env.setSentinel(SentinelWHAT)
		return
	}
	value, found := acct.Storage[stateKey]
	if !found {
		env.setSentinel(SentinelNONE)
		return
	}
	destAddr := uint32(env.m.Registers[9])
	if err := env.m.RAM.Write(destAddr, value); err != nil {
		env.setSentinel(SentinelOOB)
		return
	}
	env.m.Registers[7] = uint64(len(value))
}

func hostWrite(env *hostCallEnv) {
	key, ok := env.blobArg()
	if !ok {
		env.setSentinel(SentinelOOB)
		return
	}
	valueAddr := uint32(env.m.Registers[9])
	valueLen := uint32(env.m.Registers[10])
	value, err := env.m.RAM.Read(valueAddr, valueLen)
	if err != nil {
		env.setSentinel(SentinelOOB)
		return
	}
	acct := env.account()
	stateKey, err := DeriveStateKey(env.serviceID, KeyForStorage, key, 0)
	if err != nil {
		env.setSentinel(SentinelWHAT)
		return
	}
	_, existed := acct.Storage[stateKey]
	deltaItems, deltaOctets := int64(0), int64(len(value))-int64(lenIfExists(acct, stateKey))
	if !existed {
		deltaItems = 1
	}
	projected := *acct
	projected.Items = uint32(int64(acct.Items) + deltaItems)
	projected.Octets = uint64(int64(acct.Octets) + deltaOctets)
	if !checkDeposit(&projected) {
		env.setSentinel(SentinelFULL)
		return
	}
	acct.Items = projected.Items
	acct.Octets = projected.Octets
	acct.Storage[stateKey] = value
	env.setSentinel(SentinelOK)
}

func lenIfExists(acct *ServiceAccount, key [31]byte) int {
	if v, ok := acct.Storage[key]; ok {
		return len(v)
	}
	return 0
}

func hostLog(env *hostCallEnv) {
	// Logging/telemetry is an external concern; this call only acknowledges
	// success so a program's log statements never fail.
	env.setSentinel(SentinelOK)
}

func hostBless(env *hostCallEnv) {
	env.pair.Regular.State.Manager = uint32(env.m.Registers[9])
	env.setSentinel(SentinelOK)
}

func hostAssign(env *hostCallEnv) {
	core := int(env.m.Registers[9])
	newAssigner := uint32(env.m.Registers[10])
	if core < 0 || core >= len(env.pair.Regular.State.Assigners) {
		env.setSentinel(SentinelCORE)
		return
	}
	env.pair.Regular.State.Assigners[core] = newAssigner
	env.setSentinel(SentinelOK)
}

func hostDesignate(env *hostCallEnv) {
	keyBytes, ok := env.blobArg()
	if !ok || len(keyBytes) != ValidatorKeySize {
		env.setSentinel(SentinelWHAT)
		return
	}
	idx := int(env.m.Registers[9])
	if idx < 0 || idx >= len(env.pair.Regular.State.Validators) {
		env.setSentinel(SentinelOOB)
		return
	}
	copy(env.pair.Regular.State.Validators[idx][:], keyBytes)
	env.setSentinel(SentinelOK)
}

func hostCheckpoint(env *hostCallEnv) {
	// Snapshots the regular implications into the exceptional slot so a later
	// PANIC/FAULT/OOG can be reported against this checkpoint rather than the
	// invocation's initial state. The snapshot is an encode/decode deep copy so
	// later mutations of Regular's state, transfers or provisions do not reach it.
	snapshot, _, err := DecodeImplications(EncodeImplications(env.pair.Regular))
	if err != nil {
		env.setSentinel(SentinelHUH)
		return
	}
	env.pair.Exceptional = snapshot
	env.setSentinel(SentinelOK)
}

func hostNew(env *hostCallEnv) {
	codeHash, ok := env.blobArg()
	if !ok || len(codeHash) != HashSize {
		env.setSentinel(SentinelWHAT)
		return
	}
	newID := env.pair.Regular.NextFreeID
	acct := NewServiceAccount()
	copy(acct.CodeHash[:], codeHash)
	acct.MinAccGas = env.m.Registers[9]
	acct.MinMemoGas = env.m.Registers[10]
	acct.Parent = env.serviceID
	env.pair.Regular.State.Services[newID] = acct
	env.pair.Regular.NextFreeID = newID + 1
	env.m.Registers[7] = uint64(newID)
}

func hostUpgrade(env *hostCallEnv) {
	codeHash, ok := env.blobArg()
	if !ok || len(codeHash) != HashSize {
		env.setSentinel(SentinelWHAT)
		return
	}
	acct := env.account()
	copy(acct.CodeHash[:], codeHash)
	env.setSentinel(SentinelOK)
}

func hostTransfer(env *hostCallEnv) {
	memo, ok := env.blobArg()
	if !ok {
		env.setSentinel(SentinelOOB)
		return
	}
	t := DeferredTransfer{
		From:     env.serviceID,
		To:       uint32(env.m.Registers[9]),
		Amount:   env.m.Registers[10],
		GasLimit: env.m.Registers[11],
	}
	n := copy(t.Memo[:], memo)
	_ = n // memo is padded (zero-filled) or truncated to MemoSize.
	acct := env.account()
	if acct.Balance < t.Amount {
		env.setSentinel(SentinelCASH)
		return
	}
	acct.Balance -= t.Amount
	env.pair.Regular.Transfers = append(env.pair.Regular.Transfers, t)
	env.setSentinel(SentinelOK)
}

func hostEject(env *hostCallEnv) {
	target := uint32(env.m.Registers[9])
	if _, ok := env.pair.Regular.State.Services[target]; !ok {
		env.setSentinel(SentinelWHO)
		return
	}
	delete(env.pair.Regular.State.Services, target)
	env.setSentinel(SentinelOK)
}

func hostQuery(env *hostCallEnv) {
	acct := env.account()
	if !checkDeposit(acct) {
		env.setSentinel(SentinelFULL)
		return
	}
	env.m.Registers[7] = uint64(acct.Items)
}

func hostSolicit(env *hostCallEnv) {
	acct := env.account()
	projected := *acct
	projected.Items++
	if !checkDeposit(&projected) {
		env.setSentinel(SentinelFULL)
		return
	}
	acct.Items = projected.Items
	env.setSentinel(SentinelOK)
}

func hostForget(env *hostCallEnv) {
	acct := env.account()
	if acct.Items == 0 {
		env.setSentinel(SentinelNONE)
		return
	}
	if !checkDeposit(acct) {
		env.setSentinel(SentinelFULL)
		return
	}
	acct.Items--
	env.setSentinel(SentinelOK)
}

func hostYield(env *hostCallEnv) {
	addr := uint32(env.m.Registers[7])
	b, err := env.m.RAM.Read(addr, HashSize)
	if err != nil {
		env.setSentinel(SentinelOOB)
		return
	}
	var h [HashSize]byte
	copy(h[:], b)
	env.pair.Regular.Yield = &h
	env.setSentinel(SentinelOK)
}

func hostProvide(env *hostCallEnv) {
	blob, ok := env.blobArg()
	if !ok {
		env.setSentinel(SentinelOOB)
		return
	}
	env.pair.Regular.Provided = append(env.pair.Regular.Provided, Provision{ServiceID: env.serviceID, Blob: blob})
	env.setSentinel(SentinelOK)
}
