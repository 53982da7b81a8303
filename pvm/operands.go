package pvm

// Operand extraction per instruction group. The exact Appendix A bit-layout
// is out of scope; what matters here is the dispatch contract: each group
// has a fixed, total extraction routine so
// handlers in the same group share the same combinator instead of each
// re-parsing raw bytes. Register indices are taken mod NumRegisters so an
// out-of-range encoded index can never index out of bounds; Fskip already
// bounds how many payload bytes exist (instruction length is 1+Fskip).

// NumRegisters is the fixed register-file width.
const NumRegisters = 13

// Operands holds every field any operand group might populate; a given group
// only ever populates the subset it declares.
type Operands struct {
	Ra, Rb, Rd byte
	Imm1       int64
	Imm2       int64
	Offset     int32
}

// signExtend interprets b as a little-endian two's-complement integer of
// len(b) bytes (0..8) and sign-extends it to 64 bits. An empty slice is 0.
func signExtend(b []byte) int64 {
	if len(b) == 0 {
		return 0
	}
	if len(b) > 8 {
		b = b[:8]
	}
	var v uint64
	for i, c := range b {
		v |= uint64(c) << uint(8*i)
	}
	bits := uint(8 * len(b))
	if bits < 64 && v&(1<<(bits-1)) != 0 {
		v |= ^uint64(0) << bits
	}
	return int64(v)
}

// zeroExtend interprets b as little-endian unsigned, zero-extended to 64 bits.
func zeroExtend(b []byte) uint64 {
	var v uint64
	for i, c := range b {
		if i >= 8 {
			break
		}
		v |= uint64(c) << uint(8*i)
	}
	return v
}

func regIndex(b byte) byte {
	return b % NumRegisters
}

func splitNibbleRegs(b byte) (ra, rb byte) {
	return regIndex(b & 0x0F), regIndex(b >> 4)
}

// extractOperands decodes payload (the instruction's bytes after the opcode
// byte, i.e. up to Fskip bytes) according to group.
func extractOperands(group OperandGroup, payload []byte) Operands {
	var o Operands
	switch group {
	case GroupNone:
		// no fields
	case GroupOneImmediate:
		o.Imm1 = signExtend(payload)
	case GroupRegImm64:
		if len(payload) > 0 {
			o.Rd = regIndex(payload[0])
		}
		rest := tail(payload, 1)
		o.Imm1 = int64(zeroExtend(limit(rest, 8)))
	case GroupTwoImmediates:
		half := len(payload) / 2
		o.Imm1 = signExtend(payload[:half])
		o.Imm2 = signExtend(tail(payload, half))
	case GroupOneOffset:
		o.Offset = int32(signExtend(payload))
	case GroupRegImm:
		if len(payload) > 0 {
			o.Rd = regIndex(payload[0])
		}
		o.Imm1 = signExtend(tail(payload, 1))
	case GroupRegTwoImmediates:
		if len(payload) > 0 {
			o.Rd = regIndex(payload[0])
		}
		rest := tail(payload, 1)
		la := immLenByte(rest)
		o.Imm1 = signExtend(limit(tail(rest, 1), la))
		o.Imm2 = signExtend(tail(rest, 1+la))
	case GroupRegImmOffset:
		if len(payload) > 0 {
			o.Rd = regIndex(payload[0])
		}
		rest := tail(payload, 1)
		la := immLenByte(rest)
		o.Imm1 = signExtend(limit(tail(rest, 1), la))
		o.Offset = int32(signExtend(tail(rest, 1+la)))
	case GroupTwoRegs:
		if len(payload) > 0 {
			o.Ra, o.Rb = splitNibbleRegs(payload[0])
		}
	case GroupTwoRegsImm:
		if len(payload) > 0 {
			o.Ra, o.Rb = splitNibbleRegs(payload[0])
		}
		o.Imm1 = signExtend(tail(payload, 1))
	case GroupTwoRegsOffset:
		if len(payload) > 0 {
			o.Ra, o.Rb = splitNibbleRegs(payload[0])
		}
		o.Offset = int32(signExtend(tail(payload, 1)))
	case GroupTwoRegsTwoImmediates:
		if len(payload) > 0 {
			o.Ra, o.Rb = splitNibbleRegs(payload[0])
		}
		rest := tail(payload, 1)
		la := immLenByte(rest)
		o.Imm1 = signExtend(limit(tail(rest, 1), la))
		o.Imm2 = signExtend(tail(rest, 1+la))
	case GroupThreeRegs:
		if len(payload) > 0 {
			o.Ra, o.Rb = splitNibbleRegs(payload[0])
		}
		if len(payload) > 1 {
			o.Rd = regIndex(payload[1])
		}
	}
	return o
}

// immLenByte picks how many of the remaining bytes belong to the first of
// two variable immediates in a group, splitting evenly (leaving the rest for
// the second immediate/offset). A single shared byte budget keeps the
// extraction total even when Fskip truncates the payload short.
func immLenByte(rest []byte) int {
	if len(rest) == 0 {
		return 0
	}
	return (len(rest) - 1) / 2
}

func tail(b []byte, n int) []byte {
	if n >= len(b) {
		return nil
	}
	return b[n:]
}

func limit(b []byte, n int) []byte {
	if n >= len(b) {
		return b
	}
	if n < 0 {
		return nil
	}
	return b[:n]
}
