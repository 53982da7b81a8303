package pvm

import "testing"

// TestDeblobOfSingleTrap exercises a one-instruction program (a lone TRAP)
// decoded straight from a raw deblob.
func TestDeblobOfSingleTrap(t *testing.T) {
	blob := []byte{0x00, 0x00, 0x01, 0x00, 0x01}
	d, err := DecodeDeblob(blob)
	assert(t, err == nil, "decodeDeblob errored: %v", err)
	assert(t, len(d.JumpTable) == 0, "expected empty jump table")
	assert(t, d.ElementSize == 0, "expected elementSize 0")
	assert(t, len(d.Code) == 1 && d.Code[0] == 0x00, "expected code=[0x00]")
	assert(t, len(d.Bitmask) == 1 && d.Bitmask[0] == 1, "expected bitmask=[1]")

	m := NewMachine()
	m.Gas = 1000
	err = m.RunBlob(blob)
	assert(t, err == nil, "RunBlob errored: %v", err)
	assert(t, m.ResultCode == ResultPANIC, "expected PANIC (TRAP), got %s", m.ResultCode)
	assert(t, 1000-m.Gas == 1, "expected gasConsumed=1, got %d", 1000-m.Gas)
	assert(t, m.PC == 0, "expected PC=0 after TRAP, got %d", m.PC)
}

// TestHaltPath covers a JUMP_IND to omega0 (the halt address) halting with
// an empty result.
func TestHaltPath(t *testing.T) {
	m := NewMachine()
	m.Registers[0] = uint64(HaltAddr)
	m.Registers[7] = 0x2000
	m.Registers[8] = 0

	// JUMP_IND (opcode 50, GroupRegImm): register byte selects omega0, empty
	// tail immediate is 0, so the target is omega0 + 0 = HaltAddr.
	m.installCode([]byte{50, 0}, []byte{1, 0}, nil)
	m.Gas = 1000
	m.Run()

	assert(t, m.ResultCode == ResultHALT, "expected HALT, got %s", m.ResultCode)
	assert(t, m.PC == HaltAddr, "expected PC at halt address, got 0x%08x", m.PC)
	result, ok := m.ExtractResult()
	assert(t, ok, "ExtractResult should succeed on HALT")
	assert(t, len(result) == 0, "expected empty result blob, got %d bytes", len(result))
}

func TestGasMonotonicityAndOOG(t *testing.T) {
	// Three FALLTHROUGH instructions, each a single no-operand byte.
	m := NewMachine()
	m.installCode([]byte{1, 1, 1}, []byte{1, 1, 1}, nil)
	m.Gas = 2

	prevGas := m.Gas
	for m.Step() {
		assert(t, m.Gas <= prevGas, "gas must never increase: prev=%d now=%d", prevGas, m.Gas)
		prevGas = m.Gas
	}

	assert(t, m.ResultCode == ResultOOG, "expected OOG, got %s", m.ResultCode)
	assert(t, m.Gas <= 0, "expected final gas <= 0, got %d", m.Gas)
	gasConsumed := int64(2) - maxI64(m.Gas, 0)
	assert(t, gasConsumed == 2, "expected gasConsumed == initial gas (2), got %d", gasConsumed)
}

func TestFskipBound(t *testing.T) {
	// A long run of non-boundary bytes forces Fskip to saturate at its
	// ceiling of 24 (Fskip(i) in [0, 24]).
	code := make([]byte, 40)
	bitmask := make([]byte, 40)
	bitmask[0] = 1 // only position 0 begins an instruction

	m := NewMachine()
	m.installCode(code, bitmask, nil)

	for pc := uint32(0); pc < uint32(len(code)); pc++ {
		fs := m.fskip(pc)
		assert(t, fs <= maxFskip, "Fskip(%d) = %d exceeds ceiling %d", pc, fs, maxFskip)
	}
	assert(t, m.fskip(0) == maxFskip, "expected Fskip(0) to saturate at %d, got %d", maxFskip, m.fskip(0))
}

// TestTraceHookObservesTerminalTransition confirms Machine.Trace fires
// exactly once, with the terminating result code, on a run that ends without
// ever reaching a host call.
func TestTraceHookObservesTerminalTransition(t *testing.T) {
	m := NewMachine()
	m.installCode([]byte{0x00}, []byte{1}, nil)
	m.Gas = 10

	var events []TraceEvent
	m.Trace = func(ev TraceEvent) { events = append(events, ev) }
	m.Run()

	assert(t, len(events) == 1, "expected exactly one trace event, got %d", len(events))
	assert(t, events[0].Kind == TraceTerminal, "expected TraceTerminal, got %d", events[0].Kind)
	assert(t, events[0].Result == ResultPANIC, "expected PANIC (TRAP), got %s", events[0].Result)
}

func TestJumpToNonBoundaryPanics(t *testing.T) {
	// JUMP (opcode 40, GroupOneOffset) to a mid-instruction byte is a PANIC
	// a jump target that is not a valid instruction boundary.
	m := NewMachine()
	// code: [JUMP, offsetByte, LOAD_U8-ish continuation byte, ...]; bitmask
	// marks only position 0 as a boundary, so any jump target other than 0
	// or the halt address is invalid.
	m.installCode([]byte{40, 2, 0, 0}, []byte{1, 0, 0, 0}, nil)
	m.Gas = 10
	m.Run()
	assert(t, m.ResultCode == ResultPANIC, "expected PANIC on jump to non-boundary, got %s", m.ResultCode)
}
