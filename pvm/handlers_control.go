package pvm

// Control-flow and immediate-load/store handlers: TRAP, FALLTHROUGH, ECALLI,
// LOAD_IMM*, STORE_IMM*, JUMP family. Grounded on GVM's vm/exec.go switch
// cases for Jmp/Jz/.../Const (same "decode operand, then either fall through
// or overwrite PC" shape), translated from stack-machine operands to
// register+immediate/offset operand groups.

func registerControlHandlers() {
	register(TRAP, func(ctx *StepContext) StepOutcome {
		return terminalOutcome(ResultPANIC)
	})

	register(FALLTHROUGH, func(ctx *StepContext) StepOutcome {
		return continueOutcome
	})

	register(ECALLI, func(ctx *StepContext) StepOutcome {
		// The function id a HOST trap carries is read from register omega0 at
		// the point of the trap, not ECALLI's own immediate operand (which the
		// assembler is free to use as an unrelated annotation).
		return hostOutcome(uint32(ctx.Registers[0]))
	})

	register(LOAD_IMM_64, func(ctx *StepContext) StepOutcome {
		ctx.Registers[ctx.Operands.Rd] = uint64(ctx.Operands.Imm1)
		return continueOutcome
	})

	register(STORE_IMM_U8, storeImmHandler(1))
	register(STORE_IMM_U16, storeImmHandler(2))
	register(STORE_IMM_U32, storeImmHandler(4))
	register(STORE_IMM_U64, storeImmHandler(8))

	register(JUMP, func(ctx *StepContext) StepOutcome {
		target := uint32(int64(ctx.PC) + int64(ctx.Operands.Offset))
		return jumpTo(ctx, target)
	})

	register(JUMP_IND, func(ctx *StepContext) StepOutcome {
		target := uint32(ctx.Registers[ctx.Operands.Rd] + uint64(ctx.Operands.Imm1))
		return jumpTo(ctx, target)
	})

	register(LOAD_IMM, func(ctx *StepContext) StepOutcome {
		ctx.Registers[ctx.Operands.Rd] = uint64(ctx.Operands.Imm1)
		return continueOutcome
	})

	register(LOAD_IMM_JUMP_IND, func(ctx *StepContext) StepOutcome {
		ctx.Registers[ctx.Operands.Ra] = uint64(ctx.Operands.Imm1)
		target := uint32(ctx.Registers[ctx.Operands.Rb] + uint64(ctx.Operands.Imm2))
		return jumpTo(ctx, target)
	})

	register(MOVE_REG_IMM, func(ctx *StepContext) StepOutcome {
		ctx.Registers[ctx.Operands.Rd] = uint64(ctx.Operands.Imm1)
		return continueOutcome
	})

	register(SBRK, func(ctx *StepContext) StepOutcome {
		size := uint32(ctx.Registers[ctx.Operands.Rb])
		pages := (size + PageSize - 1) / PageSize
		startAddr := ctx.RAM.HeapPointer()
		startPage := startAddr / PageSize
		if startAddr%PageSize != 0 {
			startPage++
		}
		ctx.RAM.AllocatePages(startPage, pages)
		ctx.Registers[ctx.Operands.Ra] = uint64(startPage * PageSize)
		return continueOutcome
	})

	register(MOVE_REG, func(ctx *StepContext) StepOutcome {
		ctx.Registers[ctx.Operands.Ra] = ctx.Registers[ctx.Operands.Rb]
		return continueOutcome
	})
}

// jumpTo stages a PC change; a jump target that is not a valid instruction
// boundary is a PANIC. Here we only stage the PC change; the interpreter
// checks the target against the unpacked bitmask (isInstructionBoundary,
// with the halt address always allowed) before committing it.
func jumpTo(ctx *StepContext, target uint32) StepOutcome {
	ctx.NextPC = target
	return jumpedOutcome()
}

func storeImmHandler(width int) Handler {
	return func(ctx *StepContext) StepOutcome {
		addr := uint32(ctx.Operands.Imm1)
		value := EncodeFixed(uint64(ctx.Operands.Imm2), width)
		if err := ctx.RAM.Write(addr, value); err != nil {
			f := err.(*Fault)
			return faultOutcome(f.Addr)
		}
		return continueOutcome
	}
}
