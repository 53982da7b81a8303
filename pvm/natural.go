package pvm

// Variable- and fixed-length natural-number encoding (Gray Paper eq. 30-38) plus
// the var{}/maybe{}/dictionary composite primitives built on top of it. Every
// routine here is total: decoders return the value, the bytes consumed (except
// DecodeFixed, whose width is its argument) and an error, and never panic on
// truncated input, mirroring GVM's own pattern of typed sentinel errors
// instead of ad hoc string errors (vm/bytecode.go's total, panic-free helpers).

// EncodeNatural encodes n using the Gray Paper's variable-length natural number
// format. Values in [0,128) are a single byte. Values in [128, 2^56) use a
// prefix byte that encodes both the length l in [1,7] of the little-endian tail
// and the top bits of n. Values >= 2^56 (including all of [2^56, 2^64), per
// Open Question 1, which this implementation preserves rather than
// rejecting) use the 0xFF prefix followed by a full 8-byte little-endian u64.
func EncodeNatural(n uint64) []byte {
	if n < 128 {
		return []byte{byte(n)}
	}
	for l := 1; l <= 7; l++ {
		if n < (uint64(1) << uint(7*(l+1))) {
			prefix := byte(256-(int(1)<<uint(8-l))) + byte(n>>uint(8*l))
			out := make([]byte, 1+l)
			out[0] = prefix
			putLittleEndian(out[1:], n, l)
			return out
		}
	}
	out := make([]byte, 9)
	out[0] = 0xFF
	putLittleEndian(out[1:], n, 8)
	return out
}

// DecodeNatural is the inverse of EncodeNatural. It fails with a
// *MalformedError if b is empty or truncated relative to the length implied by
// the prefix byte.
func DecodeNatural(b []byte) (uint64, int, error) {
	if len(b) == 0 {
		return 0, 0, malformed("decodeNatural: empty input")
	}
	p := b[0]
	if p < 128 {
		return uint64(p), 1, nil
	}
	if p == 0xFF {
		if len(b) < 9 {
			return 0, 0, malformed("decodeNatural: truncated 9-byte form")
		}
		return getLittleEndian(b[1:9], 8), 9, nil
	}
	// Find largest l in [1,7] such that p >= 256 - 2^(8-l).
	l := 0
	for cand := 1; cand <= 7; cand++ {
		if p >= byte(256-(int(1)<<uint(8-cand))) {
			l = cand
		}
	}
	if l == 0 {
		return 0, 0, malformed("decodeNatural: invalid prefix byte 0x%02x", p)
	}
	if len(b) < 1+l {
		return 0, 0, malformed("decodeNatural: truncated %d-byte form", l)
	}
	top := uint64(p) - (256 - (uint64(1) << uint(8-l)))
	low := getLittleEndian(b[1:1+l], l)
	return low + top<<uint(8*l), 1 + l, nil
}

// EncodeFixed encodes v as l little-endian bytes, l in {1,2,4,8}. For l<8 the
// value is taken modulo 2^(8l).
func EncodeFixed(v uint64, l int) []byte {
	out := make([]byte, l)
	putLittleEndian(out, v, l)
	return out
}

// DecodeFixed is the inverse of EncodeFixed.
func DecodeFixed(b []byte, l int) (uint64, error) {
	if len(b) < l {
		return 0, malformed("decodeFixed: need %d bytes, have %d", l, len(b))
	}
	return getLittleEndian(b[:l], l), nil
}

func putLittleEndian(dst []byte, v uint64, l int) {
	for i := 0; i < l; i++ {
		dst[i] = byte(v >> uint(8*i))
	}
}

func getLittleEndian(src []byte, l int) uint64 {
	var v uint64
	for i := 0; i < l; i++ {
		v |= uint64(src[i]) << uint(8*i)
	}
	return v
}

// EncodeVarBlob encodes x as encodeNatural(len(x)) || x.
func EncodeVarBlob(x []byte) []byte {
	out := EncodeNatural(uint64(len(x)))
	return append(out, x...)
}

// DecodeVarBlob is the inverse of EncodeVarBlob.
func DecodeVarBlob(b []byte) ([]byte, int, error) {
	n, consumed, err := DecodeNatural(b)
	if err != nil {
		return nil, 0, err
	}
	total := consumed + int(n)
	if len(b) < total {
		return nil, 0, malformed("decodeVarBlob: declared length %d exceeds remaining %d bytes", n, len(b)-consumed)
	}
	out := make([]byte, n)
	copy(out, b[consumed:total])
	return out, total, nil
}

// EncodeOptional encodes the absence of a value as a single 0x00 byte, or its
// presence as 0x01 followed by enc(x).
func EncodeOptional(present bool, enc []byte) []byte {
	if !present {
		return []byte{0x00}
	}
	return append([]byte{0x01}, enc...)
}

// DecodeOptionalTag reads the maybe{} discriminator byte and reports whether a
// value follows, along with the number of bytes consumed by the tag itself
// (always 1).
func DecodeOptionalTag(b []byte) (present bool, consumed int, err error) {
	if len(b) == 0 {
		return false, 0, malformed("decodeOptionalTag: empty input")
	}
	switch b[0] {
	case 0x00:
		return false, 1, nil
	case 0x01:
		return true, 1, nil
	default:
		return false, 0, malformed("decodeOptionalTag: invalid discriminator 0x%02x", b[0])
	}
}

// dictEntry is one key/value pair of an encoded dictionary, pre-serialized so
// that sortDictEntries can order entries purely by the serialized key bytes,
// ascending.
type dictEntry struct {
	key   []byte
	value []byte
}

// EncodeDictionary sorts entries ascending by key bytes and encodes them as
// var{ concat(key_i || value_i) }.
func EncodeDictionary(entries []dictEntry) []byte {
	sorted := make([]dictEntry, len(entries))
	copy(sorted, entries)
	sortDictEntries(sorted)
	var body []byte
	for _, e := range sorted {
		body = append(body, e.key...)
		body = append(body, e.value...)
	}
	return EncodeVarBlob(body)
}

func sortDictEntries(entries []dictEntry) {
	// Simple insertion sort: dictionaries in this codebase are small
	// (service counts, validator sets, auth queues), so O(n^2) is fine and
	// keeps this file free of a sort.Slice closure-allocation per call.
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && compareBytes(entries[j].key, entries[j-1].key) < 0; j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
}

func compareBytes(a, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return int(a[i]) - int(b[i])
		}
	}
	return len(a) - len(b)
}
