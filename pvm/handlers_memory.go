package pvm

// Load/store handlers, both absolute-address (register+immediate group) and
// base+offset indirect (two-registers+immediate group), plus the
// register+two-immediates indirect-store-of-immediate group. Grounded on
// GVM's vm/exec.go loadpX/storepX helpers (widen-on-load, narrow-on-store
// through a single parameterized width) and on riscv_memory.go's read/write
// helpers for the underlying page-aware access.
//
// A fault observed mid-instruction must not have mutated registers or
// memory, so loads/stores always perform the RAM access first and only
// write back to a register afterward.

func registerMemoryHandlers() {
	register(LOAD_U8, loadAbsHandler(1, false))
	register(LOAD_I8, loadAbsHandler(1, true))
	register(LOAD_U16, loadAbsHandler(2, false))
	register(LOAD_I16, loadAbsHandler(2, true))
	register(LOAD_U32, loadAbsHandler(4, false))
	register(LOAD_I32, loadAbsHandler(4, true))
	register(LOAD_U64, loadAbsHandler(8, false))

	register(STORE_U8R, storeAbsHandler(1))
	register(STORE_U16R, storeAbsHandler(2))
	register(STORE_U32R, storeAbsHandler(4))
	register(STORE_U64R, storeAbsHandler(8))

	register(STORE_IMM_IND_U8, storeImmIndHandler(1))
	register(STORE_IMM_IND_U16, storeImmIndHandler(2))
	register(STORE_IMM_IND_U32, storeImmIndHandler(4))
	register(STORE_IMM_IND_U64, storeImmIndHandler(8))

	register(STORE_IND_U8, storeIndHandler(1))
	register(STORE_IND_U16, storeIndHandler(2))
	register(STORE_IND_U32, storeIndHandler(4))
	register(STORE_IND_U64, storeIndHandler(8))

	register(LOAD_IND_U8, loadIndHandler(1, false))
	register(LOAD_IND_I8, loadIndHandler(1, true))
	register(LOAD_IND_U16, loadIndHandler(2, false))
	register(LOAD_IND_I16, loadIndHandler(2, true))
	register(LOAD_IND_U32, loadIndHandler(4, false))
	register(LOAD_IND_I32, loadIndHandler(4, true))
	register(LOAD_IND_U64, loadIndHandler(8, false))
}

func loadAbsHandler(width int, signed bool) Handler {
	return func(ctx *StepContext) StepOutcome {
		addr := uint32(ctx.Operands.Imm1)
		b, err := ctx.RAM.Read(addr, uint32(width))
		if err != nil {
			return faultOutcome(err.(*Fault).Addr)
		}
		ctx.Registers[ctx.Operands.Rd] = widen(b, width, signed)
		return continueOutcome
	}
}

func storeAbsHandler(width int) Handler {
	return func(ctx *StepContext) StepOutcome {
		addr := uint32(ctx.Operands.Imm1)
		value := EncodeFixed(ctx.Registers[ctx.Operands.Rd], width)
		if err := ctx.RAM.Write(addr, value); err != nil {
			return faultOutcome(err.(*Fault).Addr)
		}
		return continueOutcome
	}
}

func storeImmIndHandler(width int) Handler {
	return func(ctx *StepContext) StepOutcome {
		addr := uint32(ctx.Registers[ctx.Operands.Rd] + uint64(ctx.Operands.Imm1))
		value := EncodeFixed(uint64(ctx.Operands.Imm2), width)
		if err := ctx.RAM.Write(addr, value); err != nil {
			return faultOutcome(err.(*Fault).Addr)
		}
		return continueOutcome
	}
}

func storeIndHandler(width int) Handler {
	return func(ctx *StepContext) StepOutcome {
		addr := uint32(ctx.Registers[ctx.Operands.Ra] + uint64(ctx.Operands.Imm1))
		value := EncodeFixed(ctx.Registers[ctx.Operands.Rb], width)
		if err := ctx.RAM.Write(addr, value); err != nil {
			return faultOutcome(err.(*Fault).Addr)
		}
		return continueOutcome
	}
}

func loadIndHandler(width int, signed bool) Handler {
	return func(ctx *StepContext) StepOutcome {
		addr := uint32(ctx.Registers[ctx.Operands.Rb] + uint64(ctx.Operands.Imm1))
		b, err := ctx.RAM.Read(addr, uint32(width))
		if err != nil {
			return faultOutcome(err.(*Fault).Addr)
		}
		ctx.Registers[ctx.Operands.Ra] = widen(b, width, signed)
		return continueOutcome
	}
}

// widen decodes a width-byte little-endian field and zero- or sign-extends it
// to 64 bits, the register-file's natural width.
func widen(b []byte, width int, signed bool) uint64 {
	if signed {
		return uint64(signExtend(b[:width]))
	}
	return zeroExtend(b[:width])
}
