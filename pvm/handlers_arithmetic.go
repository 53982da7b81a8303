package pvm

import "math/bits"

// Arithmetic, bitwise, and data-movement handlers for the two-registers
// (unary), two-registers+immediate, and three-registers operand groups.
// Grounded on GVM's vm/exec.go arithmeticLogical(vm, arithAddi) pattern: a
// single dispatch site per operand shape, parameterized by a small pure
// uint64/uint32 function, rather than one bespoke switch case per opcode.
// The division-by-zero precondition mirrors GVM's errDivisionByZero
// handling, translated into a PANIC termination. Signed overflow (the most
// negative value divided by -1) is not a PANIC: it follows Go's integer
// division, giving the dividend as quotient and 0 as remainder.

func registerArithmeticHandlers() {
	// Two registers, unary.
	register(COUNT_SET_BITS_64, unaryHandler(func(v uint64) uint64 { return uint64(bits.OnesCount64(v)) }))
	register(COUNT_SET_BITS_32, unaryHandler(func(v uint64) uint64 { return uint64(bits.OnesCount32(uint32(v))) }))
	register(LEADING_ZERO_BITS_64, unaryHandler(func(v uint64) uint64 { return uint64(bits.LeadingZeros64(v)) }))
	register(LEADING_ZERO_BITS_32, unaryHandler(func(v uint64) uint64 { return uint64(bits.LeadingZeros32(uint32(v))) }))
	register(TRAILING_ZERO_BITS_64, unaryHandler(func(v uint64) uint64 { return uint64(bits.TrailingZeros64(v)) }))
	register(TRAILING_ZERO_BITS_32, unaryHandler(func(v uint64) uint64 { return uint64(bits.TrailingZeros32(uint32(v))) }))
	register(SIGN_EXTEND_8, unaryHandler(func(v uint64) uint64 { return uint64(int64(int8(v))) }))
	register(SIGN_EXTEND_16, unaryHandler(func(v uint64) uint64 { return uint64(int64(int16(v))) }))
	register(ZERO_EXTEND_16, unaryHandler(func(v uint64) uint64 { return uint64(uint16(v)) }))
	register(REVERSE_BYTES, unaryHandler(func(v uint64) uint64 { return bits.ReverseBytes64(v) }))

	// Two registers + immediate: ra = f(rb, imm).
	register(ADD_IMM_32, regImm32Handler(func(a, b uint32) uint32 { return a + b }))
	register(AND_IMM, regImmHandler(func(a, b uint64) uint64 { return a & b }))
	register(XOR_IMM, regImmHandler(func(a, b uint64) uint64 { return a ^ b }))
	register(OR_IMM, regImmHandler(func(a, b uint64) uint64 { return a | b }))
	register(MUL_IMM_32, regImm32Handler(func(a, b uint32) uint32 { return a * b }))
	register(SET_LT_U_IMM, regImmHandler(func(a, b uint64) uint64 { return boolU64(a < b) }))
	register(SET_LT_S_IMM, regImmHandler(func(a, b uint64) uint64 { return boolU64(int64(a) < int64(b)) }))
	register(SHLO_L_IMM_32, regImm32Handler(func(a, b uint32) uint32 { return a << (b & 31) }))
	register(SHLO_R_IMM_32, regImm32Handler(func(a, b uint32) uint32 { return a >> (b & 31) }))
	register(SHAR_R_IMM_32, regImm32Handler(func(a, b uint32) uint32 { return uint32(int32(a) >> (b & 31)) }))
	register(NEG_ADD_IMM_32, regImm32Handler(func(a, b uint32) uint32 { return b - a }))
	register(SET_GT_U_IMM, regImmHandler(func(a, b uint64) uint64 { return boolU64(a > b) }))
	register(SET_GT_S_IMM, regImmHandler(func(a, b uint64) uint64 { return boolU64(int64(a) > int64(b)) }))
	register(SHLO_L_IMM_ALT_32, regImm32Handler(func(a, b uint32) uint32 { return b << (a & 31) }))
	register(SHLO_R_IMM_ALT_32, regImm32Handler(func(a, b uint32) uint32 { return b >> (a & 31) }))
	register(SHAR_R_IMM_ALT_32, regImm32Handler(func(a, b uint32) uint32 { return uint32(int32(b) >> (a & 31)) }))
	register(CMOV_IZ_IMM, cmovImmHandler(true))
	register(CMOV_NZ_IMM, cmovImmHandler(false))
	register(ADD_IMM_64, regImmHandler(func(a, b uint64) uint64 { return a + b }))
	register(MUL_IMM_64, regImmHandler(func(a, b uint64) uint64 { return a * b }))
	register(SHLO_L_IMM_64, regImmHandler(func(a, b uint64) uint64 { return a << (b & 63) }))
	register(SHLO_R_IMM_64, regImmHandler(func(a, b uint64) uint64 { return a >> (b & 63) }))
	register(SHAR_R_IMM_64, regImmHandler(func(a, b uint64) uint64 { return uint64(int64(a) >> (b & 63)) }))
	register(NEG_ADD_IMM_64, regImmHandler(func(a, b uint64) uint64 { return b - a }))
	register(SHLO_L_IMM_ALT_64, regImmHandler(func(a, b uint64) uint64 { return b << (a & 63) }))
	register(SHLO_R_IMM_ALT_64, regImmHandler(func(a, b uint64) uint64 { return b >> (a & 63) }))
	register(SHAR_R_IMM_ALT_64, regImmHandler(func(a, b uint64) uint64 { return uint64(int64(b) >> (a & 63)) }))
	register(ROT_R_64_IMM, regImmHandler(func(a, b uint64) uint64 { return bits.RotateLeft64(a, -int(b&63)) }))
	register(ROT_R_64_IMM_ALT, regImmHandler(func(a, b uint64) uint64 { return bits.RotateLeft64(b, -int(a&63)) }))
	register(ROT_R_32_IMM, regImm32Handler(func(a, b uint32) uint32 { return bits.RotateLeft32(a, -int(b&31)) }))
	register(ROT_R_32_IMM_ALT, regImm32Handler(func(a, b uint32) uint32 { return bits.RotateLeft32(b, -int(a&31)) }))

	// Three registers: rd = f(ra, rb).
	register(ADD_32, threeReg32Handler(func(a, b uint32) uint32 { return a + b }))
	register(SUB_32, threeReg32Handler(func(a, b uint32) uint32 { return a - b }))
	register(MUL_32, threeReg32Handler(func(a, b uint32) uint32 { return a * b }))
	register(DIV_U_32, threeRegHandlerChecked(func(a, b uint64) (uint64, bool) {
		if uint32(b) == 0 {
			return 0, false
		}
		return uint64(uint32(a) / uint32(b)), true
	}))
	register(DIV_S_32, threeRegHandlerChecked(func(a, b uint64) (uint64, bool) {
		if int32(b) == 0 {
			return 0, false
		}
		return uint64(uint32(int32(a) / int32(b))), true
	}))
	register(REM_U_32, threeRegHandlerChecked(func(a, b uint64) (uint64, bool) {
		if uint32(b) == 0 {
			return 0, false
		}
		return uint64(uint32(a) % uint32(b)), true
	}))
	register(REM_S_32, threeRegHandlerChecked(func(a, b uint64) (uint64, bool) {
		if int32(b) == 0 {
			return 0, false
		}
		return uint64(uint32(int32(a) % int32(b))), true
	}))
	register(SHLO_L_32, threeReg32Handler(func(a, b uint32) uint32 { return a << (b & 31) }))
	register(SHLO_R_32, threeReg32Handler(func(a, b uint32) uint32 { return a >> (b & 31) }))
	register(SHAR_R_32, threeReg32Handler(func(a, b uint32) uint32 { return uint32(int32(a) >> (b & 31)) }))
	register(ADD_64, threeRegHandler(func(a, b uint64) uint64 { return a + b }))
	register(SUB_64, threeRegHandler(func(a, b uint64) uint64 { return a - b }))
	register(MUL_64, threeRegHandler(func(a, b uint64) uint64 { return a * b }))
	register(DIV_U_64, threeRegHandlerChecked(func(a, b uint64) (uint64, bool) {
		if b == 0 {
			return 0, false
		}
		return a / b, true
	}))
	register(DIV_S_64, threeRegHandlerChecked(func(a, b uint64) (uint64, bool) {
		if int64(b) == 0 {
			return 0, false
		}
		return uint64(int64(a) / int64(b)), true
	}))
	register(REM_U_64, threeRegHandlerChecked(func(a, b uint64) (uint64, bool) {
		if b == 0 {
			return 0, false
		}
		return a % b, true
	}))
	register(REM_S_64, threeRegHandlerChecked(func(a, b uint64) (uint64, bool) {
		if int64(b) == 0 {
			return 0, false
		}
		return uint64(int64(a) % int64(b)), true
	}))
	register(SHLO_L_64, threeRegHandler(func(a, b uint64) uint64 { return a << (b & 63) }))
	register(SHLO_R_64, threeRegHandler(func(a, b uint64) uint64 { return a >> (b & 63) }))
	register(SHAR_R_64, threeRegHandler(func(a, b uint64) uint64 { return uint64(int64(a) >> (b & 63)) }))
	register(AND, threeRegHandler(func(a, b uint64) uint64 { return a & b }))
	register(XOR, threeRegHandler(func(a, b uint64) uint64 { return a ^ b }))
	register(OR, threeRegHandler(func(a, b uint64) uint64 { return a | b }))
	register(MUL_UPPER_S_S, threeRegHandler(func(a, b uint64) uint64 {
		hi, _ := bits.Mul64(a, b)
		if int64(a) < 0 {
			hi -= b
		}
		if int64(b) < 0 {
			hi -= a
		}
		return hi
	}))
	register(MUL_UPPER_U_U, threeRegHandler(func(a, b uint64) uint64 { hi, _ := bits.Mul64(a, b); return hi }))
	register(MUL_UPPER_S_U, threeRegHandler(func(a, b uint64) uint64 {
		hi, _ := bits.Mul64(a, b)
		if int64(a) < 0 {
			hi -= b
		}
		return hi
	}))
	register(SET_LT_U, threeRegHandler(func(a, b uint64) uint64 { return boolU64(a < b) }))
	register(SET_LT_S, threeRegHandler(func(a, b uint64) uint64 { return boolU64(int64(a) < int64(b)) }))
	register(CMOV_IZ, cmovHandler(true))
	register(CMOV_NZ, cmovHandler(false))
	register(ROT_L_64, threeRegHandler(func(a, b uint64) uint64 { return bits.RotateLeft64(a, int(b&63)) }))
	register(ROT_L_32, threeReg32Handler(func(a, b uint32) uint32 { return bits.RotateLeft32(a, int(b&31)) }))
	register(ROT_R_64, threeRegHandler(func(a, b uint64) uint64 { return bits.RotateLeft64(a, -int(b&63)) }))
	register(ROT_R_32, threeReg32Handler(func(a, b uint32) uint32 { return bits.RotateLeft32(a, -int(b&31)) }))
	register(AND_INV, threeRegHandler(func(a, b uint64) uint64 { return a &^ b }))
	register(OR_INV, threeRegHandler(func(a, b uint64) uint64 { return a | ^b }))
	register(XNOR, threeRegHandler(func(a, b uint64) uint64 { return ^(a ^ b) }))
	register(MAX, threeRegHandler(func(a, b uint64) uint64 {
		if int64(a) > int64(b) {
			return a
		}
		return b
	}))
	register(MAX_U, threeRegHandler(func(a, b uint64) uint64 {
		if a > b {
			return a
		}
		return b
	}))
	register(MIN, threeRegHandler(func(a, b uint64) uint64 {
		if int64(a) < int64(b) {
			return a
		}
		return b
	}))
	register(MIN_U, threeRegHandler(func(a, b uint64) uint64 {
		if a < b {
			return a
		}
		return b
	}))
}

func boolU64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func unaryHandler(f func(v uint64) uint64) Handler {
	return func(ctx *StepContext) StepOutcome {
		ctx.Registers[ctx.Operands.Ra] = f(ctx.Registers[ctx.Operands.Rb])
		return continueOutcome
	}
}

func regImmHandler(f func(a, b uint64) uint64) Handler {
	return func(ctx *StepContext) StepOutcome {
		ctx.Registers[ctx.Operands.Ra] = f(ctx.Registers[ctx.Operands.Rb], uint64(ctx.Operands.Imm1))
		return continueOutcome
	}
}

func regImm32Handler(f func(a, b uint32) uint32) Handler {
	return func(ctx *StepContext) StepOutcome {
		v := f(uint32(ctx.Registers[ctx.Operands.Rb]), uint32(ctx.Operands.Imm1))
		ctx.Registers[ctx.Operands.Ra] = uint64(int64(int32(v)))
		return continueOutcome
	}
}

func threeRegHandler(f func(a, b uint64) uint64) Handler {
	return func(ctx *StepContext) StepOutcome {
		ctx.Registers[ctx.Operands.Rd] = f(ctx.Registers[ctx.Operands.Ra], ctx.Registers[ctx.Operands.Rb])
		return continueOutcome
	}
}

func threeReg32Handler(f func(a, b uint32) uint32) Handler {
	return func(ctx *StepContext) StepOutcome {
		v := f(uint32(ctx.Registers[ctx.Operands.Ra]), uint32(ctx.Registers[ctx.Operands.Rb]))
		ctx.Registers[ctx.Operands.Rd] = uint64(int64(int32(v)))
		return continueOutcome
	}
}

// threeRegHandlerChecked is for operations with an arithmetic precondition
// (division/remainder by zero): a violated precondition is a PANIC, raised
// before any register is written.
func threeRegHandlerChecked(f func(a, b uint64) (uint64, bool)) Handler {
	return func(ctx *StepContext) StepOutcome {
		v, ok := f(ctx.Registers[ctx.Operands.Ra], ctx.Registers[ctx.Operands.Rb])
		if !ok {
			return terminalOutcome(ResultPANIC)
		}
		ctx.Registers[ctx.Operands.Rd] = v
		return continueOutcome
	}
}

// cmovImmHandler is the two-registers+immediate conditional move: ra = imm
// when rb is zero (onZero) or non-zero (!onZero), otherwise ra is unchanged.
func cmovImmHandler(onZero bool) Handler {
	return func(ctx *StepContext) StepOutcome {
		cond := ctx.Registers[ctx.Operands.Rb] == 0
		if !onZero {
			cond = !cond
		}
		if cond {
			ctx.Registers[ctx.Operands.Ra] = uint64(ctx.Operands.Imm1)
		}
		return continueOutcome
	}
}

func cmovHandler(onZero bool) Handler {
	return func(ctx *StepContext) StepOutcome {
		test := ctx.Registers[ctx.Operands.Rb]
		cond := test == 0
		if !onZero {
			cond = !cond
		}
		if cond {
			ctx.Registers[ctx.Operands.Rd] = ctx.Registers[ctx.Operands.Ra]
		}
		return continueOutcome
	}
}
