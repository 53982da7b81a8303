package pvm

import (
	"fmt"
	"testing"
)

// assert mirrors GVM's vm_test.go helper exactly: a single Fatalf wrapper so
// every check in this package reads the same way GVM's tests do.
func assert(t *testing.T, cond bool, format string, args ...any) {
	if !cond {
		t.Fatalf(fmt.Sprintf("%v %s", cond, format), args...)
	}
}

func TestEncodeNaturalConcreteScenarios(t *testing.T) {
	assert(t, EncodeNatural(0)[0] == 0x00, "encodeNatural(0) should be [0x00]")
	assert(t, len(EncodeNatural(0)) == 1, "encodeNatural(0) should be 1 byte")

	enc127 := EncodeNatural(127)
	assert(t, len(enc127) == 1 && enc127[0] == 0x7F, "encodeNatural(127) should be [0x7F]")

	enc128 := EncodeNatural(128)
	assert(t, len(enc128) == 2 && enc128[0] == 0x80 && enc128[1] == 0x80, "encodeNatural(128) should be [0x80, 0x80]")
}

func TestNaturalRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 127, 128, 129, 255, 256, 1 << 20, 1<<56 - 1, 1 << 56, 1<<63 + 7, ^uint64(0)}
	for _, n := range cases {
		enc := EncodeNatural(n)
		got, consumed, err := DecodeNatural(enc)
		assert(t, err == nil, "decodeNatural(encodeNatural(%d)) errored: %v", n, err)
		assert(t, got == n, "round-trip mismatch for %d: got %d", n, got)
		assert(t, consumed == len(enc), "consumed %d != encoding length %d for %d", consumed, len(enc), n)
	}
}

func TestNaturalLargeValuesUseNineByteForm(t *testing.T) {
	// Open Question 1: values in [2^56, 2^64) are accepted via the 0xFF
	// 9-byte escape rather than rejected.
	enc := EncodeNatural(1 << 60)
	assert(t, len(enc) == 9, "expected 9-byte form for 2^60, got %d bytes", len(enc))
	assert(t, enc[0] == 0xFF, "expected 0xFF prefix, got 0x%02x", enc[0])
}

func TestEncodeNaturalAtTwoPow56Boundary(t *testing.T) {
	// 2^56-1 is the largest value the 7-byte-tail prefix form reaches and
	// encodes in 8 bytes, not the 9-byte all-0xFF form (see DESIGN.md's
	// Open Question decisions, item 4, on the scenario-1 discrepancy).
	enc := EncodeNatural(1<<56 - 1)
	assert(t, len(enc) == 8, "expected 8-byte form at 2^56-1, got %d bytes", len(enc))

	// The 9-byte all-0xFF form appears at 2^64-1, where the formula actually
	// produces it.
	top := EncodeNatural(^uint64(0))
	assert(t, len(top) == 9, "expected 9-byte form at 2^64-1, got %d bytes", len(top))
	for i, b := range top {
		assert(t, b == 0xFF, "byte %d of encodeNatural(2^64-1) should be 0xFF, got 0x%02x", i, b)
	}
}

func TestDecodeNaturalRejectsTruncatedInput(t *testing.T) {
	_, _, err := DecodeNatural(EncodeNatural(128)[:1])
	assert(t, err != nil, "expected malformed error on truncated 2-byte form")
}

func TestFixedRoundTrip(t *testing.T) {
	for _, l := range []int{1, 2, 4, 8} {
		max := uint64(1) << uint(8*l-1)
		for _, v := range []uint64{0, 1, max} {
			enc := EncodeFixed(v, l)
			assert(t, len(enc) == l, "encodeFixed length mismatch")
			got, err := DecodeFixed(enc, l)
			assert(t, err == nil, "decodeFixed errored: %v", err)
			assert(t, got == v, "fixed round-trip mismatch: got %d want %d", got, v)
		}
	}
}

func TestVarBlobRoundTrip(t *testing.T) {
	data := []byte("hello pvm")
	enc := EncodeVarBlob(data)
	got, consumed, err := DecodeVarBlob(enc)
	assert(t, err == nil, "decodeVarBlob errored: %v", err)
	assert(t, string(got) == string(data), "varBlob round-trip mismatch")
	assert(t, consumed == len(enc), "consumed mismatch")
}

func TestOptionalRoundTrip(t *testing.T) {
	present, consumed, err := DecodeOptionalTag(EncodeOptional(false, nil))
	assert(t, err == nil && !present && consumed == 1, "absent optional round-trip failed")

	present, consumed, err = DecodeOptionalTag(EncodeOptional(true, []byte{0xAB}))
	assert(t, err == nil && present && consumed == 1, "present optional round-trip failed")
}

func TestDictionaryEncodesSortedByKey(t *testing.T) {
	entries := []dictEntry{
		{key: []byte{0x02}, value: []byte{0xAA}},
		{key: []byte{0x01}, value: []byte{0xBB}},
	}
	enc := EncodeDictionary(entries)
	body, _, err := DecodeVarBlob(enc)
	assert(t, err == nil, "decodeVarBlob errored: %v", err)
	assert(t, body[0] == 0x01, "expected smaller key first, got 0x%02x", body[0])
}
