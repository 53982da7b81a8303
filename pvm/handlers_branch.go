package pvm

// Conditional branch handlers: register-vs-immediate (operand group
// GroupRegImmOffset, 80-89) and register-vs-register (GroupTwoRegsOffset,
// 170-175). Grounded on GVM's vm/exec.go Jz/Jnz comparison-then-jump shape;
// unlike GVM's stack-based comparison, these branch opcodes compare two
// decoded operands directly and take ctx.Offset relative to the branch
// instruction's own PC, matching JUMP's addressing in handlers_control.go.

func registerBranchHandlers() {
	register(BRANCH_EQ_IMM, branchImmHandler(func(a, b int64) bool { return a == b }))
	register(BRANCH_NE_IMM, branchImmHandler(func(a, b int64) bool { return a != b }))
	register(BRANCH_LT_U_IMM, branchImmHandlerU(func(a, b uint64) bool { return a < b }))
	register(BRANCH_LE_U_IMM, branchImmHandlerU(func(a, b uint64) bool { return a <= b }))
	register(BRANCH_GE_U_IMM, branchImmHandlerU(func(a, b uint64) bool { return a >= b }))
	register(BRANCH_GT_U_IMM, branchImmHandlerU(func(a, b uint64) bool { return a > b }))
	register(BRANCH_LT_S_IMM, branchImmHandler(func(a, b int64) bool { return a < b }))
	register(BRANCH_LE_S_IMM, branchImmHandler(func(a, b int64) bool { return a <= b }))
	register(BRANCH_GE_S_IMM, branchImmHandler(func(a, b int64) bool { return a >= b }))
	register(BRANCH_GT_S_IMM, branchImmHandler(func(a, b int64) bool { return a > b }))

	register(BRANCH_EQ, branchRegHandler(func(a, b uint64) bool { return a == b }))
	register(BRANCH_NE, branchRegHandler(func(a, b uint64) bool { return a != b }))
	register(BRANCH_LT_U, branchRegHandler(func(a, b uint64) bool { return a < b }))
	register(BRANCH_LT_S, branchRegHandler(func(a, b uint64) bool { return int64(a) < int64(b) }))
	register(BRANCH_GE_U, branchRegHandler(func(a, b uint64) bool { return a >= b }))
	register(BRANCH_GE_S, branchRegHandler(func(a, b uint64) bool { return int64(a) >= int64(b) }))
}

// branchImmHandler compares the register operand against the signed
// immediate, taking the branch (jump relative to ctx.PC) on a true result and
// falling through otherwise.
func branchImmHandler(cond func(a, b int64) bool) Handler {
	return func(ctx *StepContext) StepOutcome {
		a := int64(ctx.Registers[ctx.Operands.Rd])
		b := ctx.Operands.Imm1
		if !cond(a, b) {
			return continueOutcome
		}
		target := uint32(int64(ctx.PC) + int64(ctx.Operands.Offset))
		return jumpTo(ctx, target)
	}
}

func branchImmHandlerU(cond func(a, b uint64) bool) Handler {
	return branchImmHandler(func(a, b int64) bool { return cond(uint64(a), uint64(b)) })
}

// branchRegHandler compares two register operands, taking the branch on a
// true result.
func branchRegHandler(cond func(a, b uint64) bool) Handler {
	return func(ctx *StepContext) StepOutcome {
		a := ctx.Registers[ctx.Operands.Ra]
		b := ctx.Registers[ctx.Operands.Rb]
		if !cond(a, b) {
			return continueOutcome
		}
		target := uint32(int64(ctx.PC) + int64(ctx.Operands.Offset))
		return jumpTo(ctx, target)
	}
}
