package pvm

// Opcode dispatch table: a static mapping opcode -> handler with a
// fallback that returns PANIC, built once at package init time. Grounded on
// other_examples' dispatch_table.go ([256]handler + register()/registerRange()
// helpers, built from an EVM opcode space) adapted to a numeric operand-group
// scheme, and on GVM's vm/devices.go pattern of addressing a small table of
// independent handlers by numeric id.

// StepContext is the mutable view handed to a handler for one instruction.
// Handlers read Operands/RAM/Registers and either mutate Registers/RAM and
// return outcomeContinue, or stage the new PC in NextPC and return outcomeJumped, or
// signal termination. A handler observing a fault must not have mutated
// Registers or RAM beforehand.
type StepContext struct {
	Registers *[NumRegisters]uint64
	PC        uint32
	NextPC    uint32 // set by branch/jump handlers before returning outcomeJumped
	RAM       *RAM
	JumpTable []uint32
	Operands  Operands
	Fskip     uint32
	Gas       *int64 // handlers needing an extra charge (e.g. SBRK) must apply it before any side effect
}

// outcomeKind distinguishes the three ways a handler can end a step.
type outcomeKind int

const (
	outcomeContinue outcomeKind = iota
	outcomeJumped               // ctx.NextPC already holds the new PC
	outcomeTerminal
)

// StepOutcome is a handler's verdict for one instruction.
type StepOutcome struct {
	kind      outcomeKind
	Result    ResultCode
	FaultAddr uint32
	HostCallID uint32
}

var continueOutcome = StepOutcome{kind: outcomeContinue}

func jumpedOutcome() StepOutcome { return StepOutcome{kind: outcomeJumped} }

func terminalOutcome(r ResultCode) StepOutcome {
	return StepOutcome{kind: outcomeTerminal, Result: r}
}

func faultOutcome(addr uint32) StepOutcome {
	return StepOutcome{kind: outcomeTerminal, Result: ResultFAULT, FaultAddr: addr}
}

func hostOutcome(id uint32) StepOutcome {
	return StepOutcome{kind: outcomeTerminal, Result: ResultHOST, HostCallID: id}
}

// Handler is one opcode's implementation.
type Handler func(ctx *StepContext) StepOutcome

var dispatchTable [256]Handler

func register(op Opcode, h Handler) {
	if dispatchTable[op] != nil {
		panic("pvm: duplicate opcode registration")
	}
	dispatchTable[op] = h
}

func registerRange(from, to Opcode, factory func(op Opcode) Handler) {
	for i := from; i <= to; i++ {
		register(i, factory(i))
	}
}

// handlerFor returns the handler for op, or the PANIC fallback if op has no
// registered handler.
func handlerFor(op Opcode) Handler {
	if h := dispatchTable[op]; h != nil {
		return h
	}
	return panicHandler
}

func panicHandler(ctx *StepContext) StepOutcome {
	return terminalOutcome(ResultPANIC)
}

func init() {
	registerControlHandlers()
	registerMemoryHandlers()
	registerArithmeticHandlers()
	registerBranchHandlers()
}
