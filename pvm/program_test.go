package pvm

import "testing"

func TestDeblobEncodeDecodeRoundTrip(t *testing.T) {
	d := &Deblob{
		Code:        []byte{1, 2, 3, 4, 5},
		Bitmask:     []byte{1, 0, 1, 0, 0},
		JumpTable:   []uint32{10, 20, 30},
		ElementSize: 4,
	}
	enc := EncodeDeblob(d)
	got, err := DecodeDeblob(enc)
	assert(t, err == nil, "DecodeDeblob errored: %v", err)
	assert(t, string(got.Code) == string(d.Code), "code mismatch")
	assert(t, len(got.JumpTable) == len(d.JumpTable), "jump table length mismatch")
	for i := range d.JumpTable {
		assert(t, got.JumpTable[i] == d.JumpTable[i], "jump table entry %d mismatch", i)
	}
	for i := range d.Bitmask {
		assert(t, got.Bitmask[i] == d.Bitmask[i], "bitmask entry %d mismatch", i)
	}
}

func TestBitmaskPackUnpackRoundTrip(t *testing.T) {
	unpacked := []byte{1, 0, 1, 1, 0, 0, 1, 0, 1}
	packed := packBitmask(unpacked)
	got := unpackBitmask(packed, len(unpacked))
	for i := range unpacked {
		assert(t, got[i] == unpacked[i], "bitmask bit %d mismatch", i)
	}
}

func TestDecodePreimageRoundTrip(t *testing.T) {
	deblob := EncodeDeblob(&Deblob{Code: []byte{0x00}, Bitmask: []byte{1}})

	var codeBlob []byte
	codeBlob = append(codeBlob, EncodeFixed(3, 3)...)  // |o|
	codeBlob = append(codeBlob, EncodeFixed(5, 3)...)  // |w|
	codeBlob = append(codeBlob, EncodeFixed(0, 2)...)  // z
	codeBlob = append(codeBlob, EncodeFixed(0, 3)...)  // s
	codeBlob = append(codeBlob, []byte{1, 2, 3}...)    // o
	codeBlob = append(codeBlob, []byte{4, 5, 6, 7, 8}...) // w
	codeBlob = append(codeBlob, EncodeFixed(uint64(len(deblob)), 4)...)
	codeBlob = append(codeBlob, deblob...)

	preimage := append(EncodeNatural(uint64(len("meta"))), []byte("meta")...)
	preimage = append(preimage, codeBlob...)

	metadata, prog, err := DecodePreimage(preimage)
	assert(t, err == nil, "DecodePreimage errored: %v", err)
	assert(t, string(metadata) == "meta", "metadata mismatch")
	assert(t, string(prog.ReadOnlyData) == "\x01\x02\x03", "o mismatch")
	assert(t, string(prog.ReadWriteData) == "\x04\x05\x06\x07\x08", "w mismatch")
	assert(t, prog.ZeroPages == 0, "z mismatch")
	assert(t, prog.StackSize == 0, "s mismatch")
	assert(t, len(prog.Code.Code) == 1 && prog.Code.Code[0] == 0x00, "inner code mismatch")
}
