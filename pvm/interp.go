package pvm

// The fetch-decode-execute loop (Ψ): PC advance, Fskip computation, gas
// metering, and termination classification. Grounded on GVM's vm/run.go
// single-step loop (a for-loop that fetches one instruction, dispatches it,
// and classifies panics as typed errors) and vm/exec.go's
// switch-then-advance-pc shape, here generalized so the "switch" is
// registry.go's dispatch table and "advance pc" accounts for Fskip instead
// of a fixed instruction width.

// maxFskip is the Fskip ceiling: Fskip(i) = min(24, ...).
const maxFskip = 24

// codePadding is how many trailing zero bytes / bitmask-1s are conceptually
// appended past the end of code on entry to run, so Fskip and fetch are
// well-defined at and past the tail.
const codePadding = 16

// Machine is the interpreter's full state: register
// file, PC, gas, decoded code/bitmask/jump table, paged RAM, and the most
// recent termination outcome.
type Machine struct {
	Registers [NumRegisters]uint64
	PC        uint32
	Gas       int64

	code      []byte
	bitmask   []byte // unpacked: one byte per code position, 0 or 1
	jumpTable []uint32

	RAM *RAM

	Status       Status
	ResultCode   ResultCode
	FaultAddress uint32
	HasFault     bool
	ExitArg      uint32
	HostCallID   uint32

	// Trace, if set, is called once per terminal transition (HALT, PANIC,
	// OOG, FAULT, HOST) and once per accumulation host-call dispatch. A nil
	// Trace costs one nil check per call site. The core itself never logs;
	// this only gives an external caller a hook to wire its own logger into,
	// mirroring GVM's devices.go response-bus notification shape.
	Trace func(TraceEvent)

	lastFskip uint32 // Fskip of the instruction that last terminated Step, for HOST resumption
}

// TraceEventKind distinguishes the two kinds of event Trace observes.
type TraceEventKind int

const (
	TraceTerminal TraceEventKind = iota
	TraceHostCall
)

// TraceEvent is one notification delivered to Machine.Trace. Fields not
// relevant to Kind are zero.
type TraceEvent struct {
	Kind       TraceEventKind
	PC         uint32
	Result     ResultCode // set when Kind == TraceTerminal
	HostCallID uint32     // set when Kind == TraceHostCall
}

func (m *Machine) trace(ev TraceEvent) {
	if m.Trace != nil {
		m.Trace(ev)
	}
}

// NewMachine constructs an empty, reset Machine.
func NewMachine() *Machine {
	m := &Machine{RAM: NewRAM()}
	m.reset()
	return m
}

// reset restores the Machine to its post-construction state: register
// file zeroed, RAM emptied, gas restored to default, code/bitmask/jump
// table cleared.
func (m *Machine) reset() {
	for i := range m.Registers {
		m.Registers[i] = 0
	}
	m.PC = 0
	m.Gas = 0
	m.code = nil
	m.bitmask = nil
	m.jumpTable = nil
	m.RAM.Reset()
	m.Status = StatusOK
	m.ResultCode = ResultHALT
	m.FaultAddress = 0
	m.HasFault = false
	m.ExitArg = 0
	m.HostCallID = 0
}

// installCode installs the decoded code/bitmask/jump table, padding code and
// bitmask so Fskip stays well-defined at the tail.
func (m *Machine) installCode(code, bitmask []byte, jumpTable []uint32) {
	m.code = append(append([]byte{}, code...), make([]byte, codePadding)...)
	padded := append([]byte{}, bitmask...)
	for i := 0; i < codePadding; i++ {
		padded = append(padded, 1)
	}
	m.bitmask = padded
	m.jumpTable = jumpTable
}

// bitAt returns the bitmask bit at position i, treating anything past the
// padded tail as an infinite run of 1s.
func (m *Machine) bitAt(i uint32) byte {
	if int(i) >= len(m.bitmask) {
		return 1
	}
	return m.bitmask[i]
}

// fskip computes Fskip(i) = min(24, j in N : k[i+1+j] = 1), so a one-byte
// instruction (k[i+1] = 1) has Fskip 0.
func (m *Machine) fskip(i uint32) uint32 {
	for j := uint32(1); j <= maxFskip; j++ {
		if m.bitAt(i+j) == 1 {
			return j - 1
		}
	}
	return maxFskip
}

// codeByteAt returns the code byte at i, or TRAP (0) past the padded tail.
func (m *Machine) codeByteAt(i uint32) byte {
	if int(i) >= len(m.code) {
		return byte(TRAP)
	}
	return m.code[i]
}

// isInstructionBoundary reports whether addr begins an instruction, per the
// unpacked bitmask (used to validate jump targets; an invalid target is a
// PANIC).
func (m *Machine) isInstructionBoundary(addr uint32) bool {
	if int(addr) >= len(m.bitmask) {
		return addr == uint32(len(m.code))
	}
	return m.bitmask[addr] == 1
}

// Step executes exactly one instruction and reports whether the machine
// should keep running (false means a terminal state, one of HALT/PANIC/
// FAULT/HOST/OOG, was just recorded in m.Status/m.ResultCode/...).
func (m *Machine) Step() bool {
	if m.PC == HaltAddr {
		m.terminate(ResultHALT)
		return false
	}
	if m.PC >= uint32(len(m.code)) && m.PC != HaltAddr {
		m.terminate(ResultPANIC)
		return false
	}

	// Gas is charged before any side effect; going negative is OOG, not a
	// partial charge, so this is checked before the instruction's gas is
	// deducted.
	if m.Gas <= 0 {
		m.terminateOOG()
		return false
	}
	m.Gas--

	fs := m.fskip(m.PC)
	m.lastFskip = fs
	op := Opcode(m.codeByteAt(m.PC))
	group := GroupOf(op)
	payloadEnd := m.PC + 1 + fs
	payload := m.slicePayload(m.PC+1, payloadEnd)
	operands := extractOperands(group, payload)

	ctx := &StepContext{
		Registers: &m.Registers,
		PC:        m.PC,
		RAM:       m.RAM,
		JumpTable: m.jumpTable,
		Operands:  operands,
		Fskip:     fs,
		Gas:       &m.Gas,
	}

	outcome := handlerFor(op)(ctx)

	switch outcome.kind {
	case outcomeContinue:
		m.PC += 1 + fs
		return true
	case outcomeJumped:
		if !m.isInstructionBoundary(ctx.NextPC) && ctx.NextPC != HaltAddr {
			m.terminate(ResultPANIC)
			return false
		}
		m.PC = ctx.NextPC
		return true
	case outcomeTerminal:
		if outcome.Result == ResultFAULT {
			m.FaultAddress = outcome.FaultAddr
			m.HasFault = true
		}
		if outcome.Result == ResultHOST {
			m.HostCallID = outcome.HostCallID
		}
		m.terminate(outcome.Result)
		return false
	default:
		m.terminate(ResultPANIC)
		return false
	}
}

// slicePayload returns code bytes in [from, to), reading through the padded
// tail so a payload window overrunning the real code never panics.
func (m *Machine) slicePayload(from, to uint32) []byte {
	if to <= from {
		return nil
	}
	out := make([]byte, to-from)
	for i := range out {
		out[i] = m.codeByteAt(from + uint32(i))
	}
	return out
}

func (m *Machine) terminate(r ResultCode) {
	m.ResultCode = r
	m.trace(TraceEvent{Kind: TraceTerminal, PC: m.PC, Result: r})
	switch r {
	case ResultHALT:
		m.Status = StatusHALT
	case ResultPANIC:
		m.Status = StatusPANIC
	case ResultFAULT:
		m.Status = StatusFAULT
	case ResultHOST:
		m.Status = StatusHOST
	case ResultOOG:
		m.Status = StatusOOG
	}
}

func (m *Machine) terminateOOG() {
	m.Gas = 0
	m.terminate(ResultOOG)
}

// ResumeFromHost advances past the ECALLI instruction that raised the last
// HOST termination and clears it back to StatusOK, letting Run/Step continue.
// Used by the accumulation driver after a host call (general or
// accumulation-only) has been handled in place: advance PC by 1+fskip and
// return to the continue state.
func (m *Machine) ResumeFromHost() {
	m.PC += 1 + m.lastFskip
	m.Status = StatusOK
}

// Run drives Step until a terminal state is reached.
func (m *Machine) Run() {
	for m.Step() {
	}
}

// NSteps drives Step at most n times, stopping early on a terminal state.
// Returns the number of steps actually taken.
func (m *Machine) NSteps(n int) int {
	taken := 0
	for taken < n {
		if !m.Step() {
			taken++
			break
		}
		taken++
	}
	return taken
}

// ExtractResult implements R, reading the
// exit blob from [omega7, omega7+omega8) on HALT. The PANIC marker is
// reported by returning a nil blob and ok=false; callers treat OOG
// identically (handled by the caller inspecting m.ResultCode directly).
func (m *Machine) ExtractResult() (blob []byte, ok bool) {
	if m.ResultCode == ResultOOG {
		return nil, false
	}
	if m.ResultCode != ResultHALT {
		return nil, false
	}
	length := m.Registers[8]
	if length == 0 {
		return []byte{}, true
	}
	addr := uint32(m.Registers[7])
	b, err := m.RAM.Read(addr, uint32(length))
	if err != nil {
		return nil, false
	}
	return b, true
}
