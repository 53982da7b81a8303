package pvm

// Program codec: deblob decode/encode (code + packed instruction-boundary
// bitmask + jump table) and preimage-wrapped program decode, the Y
// function's input parser.
// Grounded on riscv_memory.go's LoadSegment (length-prefixed region parsing)
// and GVM's compile.go two-pass "collect boundaries, then resolve" shape,
// reused here as "unpack the bitmask fully before the code runs" rather than
// "resolve label references". Decoding does not check jump-table entries
// against the bitmask; jump targets are checked by the interpreter when a
// jump executes.

// Deblob is the decoded form of a program blob: code, the instruction-
// boundary bitmask (one byte per code position, 0 or 1), and the jump table.
type Deblob struct {
	Code        []byte
	Bitmask     []byte
	JumpTable   []uint32
	ElementSize int
}

// DecodeDeblob parses a raw program blob:
// encodeNatural(len(jumpTable)) || encode[1](elementSize) ||
// encodeNatural(len(code)) || jumpTable entries (elementSize bytes each,
// little-endian) || code || packed bitmask (ceil(len(code)/8) bytes,
// LSB-first).
func DecodeDeblob(b []byte) (*Deblob, error) {
	jtLen, n1, err := DecodeNatural(b)
	if err != nil {
		return nil, malformed("deblob: jump table length: %v", err)
	}
	b = b[n1:]

	if len(b) < 1 {
		return nil, malformed("deblob: truncated before element size")
	}
	elementSize := int(b[0])
	b = b[1:]

	codeLen, n2, err := DecodeNatural(b)
	if err != nil {
		return nil, malformed("deblob: code length: %v", err)
	}
	b = b[n2:]

	jumpTable := make([]uint32, jtLen)
	for i := range jumpTable {
		need := elementSize
		if len(b) < need {
			return nil, malformed("deblob: truncated jump table entry %d", i)
		}
		v, err := DecodeFixed(b[:need], need)
		if err != nil {
			return nil, malformed("deblob: jump table entry %d: %v", i, err)
		}
		jumpTable[i] = uint32(v)
		b = b[need:]
	}

	if uint64(len(b)) < codeLen {
		return nil, malformed("deblob: truncated code (need %d, have %d)", codeLen, len(b))
	}
	code := append([]byte{}, b[:codeLen]...)
	b = b[codeLen:]

	maskBytes := int((codeLen + 7) / 8)
	if uint64(len(b)) < uint64(maskBytes) {
		return nil, malformed("deblob: truncated bitmask (need %d, have %d)", maskBytes, len(b))
	}
	bitmask := unpackBitmask(b[:maskBytes], int(codeLen))

	return &Deblob{Code: code, Bitmask: bitmask, JumpTable: jumpTable, ElementSize: elementSize}, nil
}

// EncodeDeblob is the inverse of DecodeDeblob.
func EncodeDeblob(d *Deblob) []byte {
	out := EncodeNatural(uint64(len(d.JumpTable)))
	elementSize := d.ElementSize
	if elementSize == 0 && len(d.JumpTable) > 0 {
		elementSize = 4
	}
	out = append(out, byte(elementSize))
	out = append(out, EncodeNatural(uint64(len(d.Code)))...)
	for _, target := range d.JumpTable {
		out = append(out, EncodeFixed(uint64(target), elementSize)...)
	}
	out = append(out, d.Code...)
	out = append(out, packBitmask(d.Bitmask)...)
	return out
}

// unpackBitmask expands packed (LSB-first, one bit per code position) into
// one byte (0 or 1) per position, truncated to n positions.
func unpackBitmask(packed []byte, n int) []byte {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		byteIdx := i / 8
		bitIdx := uint(i % 8)
		if byteIdx < len(packed) && packed[byteIdx]&(1<<bitIdx) != 0 {
			out[i] = 1
		}
	}
	return out
}

// packBitmask is the inverse of unpackBitmask.
func packBitmask(unpacked []byte) []byte {
	out := make([]byte, (len(unpacked)+7)/8)
	for i, bit := range unpacked {
		if bit != 0 {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

// ProgramBlob is the decoded codeBlob portion of a preimage-wrapped program:
// the E3(|o|) || E3(|w|) || E2(z) || E3(s) || o || w || E4(|c|) || c layout,
// with c itself a Deblob.
type ProgramBlob struct {
	ReadOnlyData  []byte // o
	ReadWriteData []byte // w
	ZeroPages     uint32 // z: count of additional zero-filled WRITE pages after w
	StackSize     uint32 // s
	Code          *Deblob
}

// DecodePreimage parses the full Y-function input: encodeNatural(len(m)) ||
// m || codeBlob. It returns the metadata blob m and the decoded ProgramBlob.
func DecodePreimage(preimage []byte) (metadata []byte, prog *ProgramBlob, err error) {
	mLen, n, err := DecodeNatural(preimage)
	if err != nil {
		return nil, nil, malformed("preimage: metadata length: %v", err)
	}
	rest := preimage[n:]
	if uint64(len(rest)) < mLen {
		return nil, nil, malformed("preimage: truncated metadata (need %d, have %d)", mLen, len(rest))
	}
	metadata = append([]byte{}, rest[:mLen]...)
	rest = rest[mLen:]

	prog, err = decodeProgramBlob(rest)
	if err != nil {
		return nil, nil, err
	}
	return metadata, prog, nil
}

func decodeProgramBlob(b []byte) (*ProgramBlob, error) {
	oLen, err := readFixed3(&b, "o length")
	if err != nil {
		return nil, err
	}
	wLen, err := readFixed3(&b, "w length")
	if err != nil {
		return nil, err
	}
	z, err := readFixedN(&b, 2, "z")
	if err != nil {
		return nil, err
	}
	s, err := readFixed3(&b, "s")
	if err != nil {
		return nil, err
	}

	o, err := takeBytes(&b, int(oLen), "o")
	if err != nil {
		return nil, err
	}
	w, err := takeBytes(&b, int(wLen), "w")
	if err != nil {
		return nil, err
	}

	cLen, err := readFixedN(&b, 4, "code blob length")
	if err != nil {
		return nil, err
	}
	c, err := takeBytes(&b, int(cLen), "code blob")
	if err != nil {
		return nil, err
	}

	deblob, err := DecodeDeblob(c)
	if err != nil {
		return nil, err
	}

	return &ProgramBlob{
		ReadOnlyData:  o,
		ReadWriteData: w,
		ZeroPages:     uint32(z),
		StackSize:     uint32(s),
		Code:          deblob,
	}, nil
}

func readFixed3(b *[]byte, what string) (uint64, error) {
	return readFixedN(b, 3, what)
}

func readFixedN(b *[]byte, n int, what string) (uint64, error) {
	if len(*b) < n {
		return 0, malformed("preimage: truncated %s", what)
	}
	v, err := DecodeFixed((*b)[:n], n)
	if err != nil {
		return 0, malformed("preimage: %s: %v", what, err)
	}
	*b = (*b)[n:]
	return v, nil
}

func takeBytes(b *[]byte, n int, what string) ([]byte, error) {
	if len(*b) < n {
		return nil, malformed("preimage: truncated %s (need %d, have %d)", what, n, len(*b))
	}
	out := append([]byte{}, (*b)[:n]...)
	*b = (*b)[n:]
	return out, nil
}
