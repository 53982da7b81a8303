package pvm

import (
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

// dumpPageLimit bounds how many allocated pages DebugString renders, so a
// machine with a large heap doesn't produce an unbounded dump.
const dumpPageLimit = 8

// DebugString renders a human-readable snapshot of registers, PC, gas,
// status, and up to dumpPageLimit allocated pages, taken in map iteration
// order, so which pages appear is not fixed from call to call. Diagnostic only, never
// consulted by Step/Load/AccumulateInvocation, so it cannot affect
// determinism. Grounded on GVM's vm/run.go debug-mode printCurrentState,
// built here on spew.Sdump rather than hand-rolled formatting.
func (m *Machine) DebugString() string {
	var b strings.Builder
	fmt.Fprintf(&b, "pc=0x%08x gas=%d status=%s result=%s\n", m.PC, m.Gas, m.Status, m.ResultCode)
	b.WriteString(spew.Sdump(m.Registers))

	shown := 0
	for pageIdx := range m.RAM.pages {
		if shown >= dumpPageLimit {
			fmt.Fprintf(&b, "... (%d more pages)\n", len(m.RAM.pages)-shown)
			break
		}
		fmt.Fprintf(&b, "page 0x%05x access=%v\n", pageIdx, m.RAM.access[pageIdx])
		shown++
	}
	return b.String()
}

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusHALT:
		return "HALT"
	case StatusPANIC:
		return "PANIC"
	case StatusFAULT:
		return "FAULT"
	case StatusHOST:
		return "HOST"
	case StatusOOG:
		return "OOG"
	default:
		return "UNKNOWN"
	}
}
