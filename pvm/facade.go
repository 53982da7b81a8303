package pvm

// The Operational API, a thin wrapper over Machine giving external callers
// the language-neutral operation set by name. Grounded on GVM's VM type
// exposing Run/Step/GetRegister-style accessors over the same internal
// state vm/exec.go mutates directly.

// RAMKind selects the memory backend init() installs. Only RAMKindPaged is
// implemented; RAMKindSimple/RAMKindMock are accepted as the same paged
// backend since those variants are test-harness concerns, out of scope here.
type RAMKind int

const (
	RAMKindPaged RAMKind = iota
	RAMKindSimple
	RAMKindMock
)

// Init constructs a fresh Machine. ramKind is accepted for interface parity
// with §6 but only the paged backing store is implemented.
func Init(ramKind RAMKind) *Machine {
	return NewMachine()
}

// Reset restores the Machine to its post-construction state.
func (m *Machine) Reset() {
	m.reset()
}

const registerImageSize = NumRegisters * 8

// ResetGeneric decodes programBlob as a preimage-wrapped program, installs
// the given 104-byte little-endian register image over the loader's
// defaults, and sets gas.
func (m *Machine) ResetGeneric(programPreimage []byte, regs104 []byte, gas int64) error {
	if err := Load(m, programPreimage, nil); err != nil {
		return err
	}
	if err := m.SetRegisters(regs104); err != nil {
		return err
	}
	m.Gas = gas
	return nil
}

// ResetGenericWithMemory is ResetGeneric plus a memory restore: pageMap is a
// sequence of 6-byte (pageIndex: u16 LE, chunkOffset: u32 LE) entries and
// chunks is the concatenation of referenced 4KiB pages in the same order.
func (m *Machine) ResetGenericWithMemory(programPreimage, regs104, pageMap, chunks []byte, gas int64) error {
	if err := m.ResetGeneric(programPreimage, regs104, gas); err != nil {
		return err
	}
	return m.restoreMemory(pageMap, chunks)
}

func (m *Machine) restoreMemory(pageMap, chunks []byte) error {
	const entrySize = 6
	if len(pageMap)%entrySize != 0 {
		return malformed("resetGenericWithMemory: pageMap length %d not a multiple of %d", len(pageMap), entrySize)
	}
	count := len(pageMap) / entrySize
	for i := 0; i < count; i++ {
		entry := pageMap[i*entrySize : (i+1)*entrySize]
		pageIndex, err := DecodeFixed(entry[0:2], 2)
		if err != nil {
			return malformed("resetGenericWithMemory: pageIndex %d: %v", i, err)
		}
		chunkOffset, err := DecodeFixed(entry[2:6], 4)
		if err != nil {
			return malformed("resetGenericWithMemory: chunkOffset %d: %v", i, err)
		}
		if uint64(len(chunks)) < chunkOffset+PageSize {
			return malformed("resetGenericWithMemory: chunk %d out of range", i)
		}
		var data [PageSize]byte
		copy(data[:], chunks[chunkOffset:chunkOffset+PageSize])
		m.RAM.SetPageDump(uint32(pageIndex), data)
	}
	return nil
}

// NextStep executes one instruction and reports whether the machine can keep
// running.
func (m *Machine) NextStep() bool {
	return m.Step()
}

// RunBlob decodes blob as a raw deblob (not preimage-wrapped) and installs it
// without touching the register file or RAM layout, then runs to completion.
func (m *Machine) RunBlob(blob []byte) error {
	d, err := DecodeDeblob(blob)
	if err != nil {
		return err
	}
	m.installCode(d.Code, d.Bitmask, d.JumpTable)
	m.Run()
	return nil
}

// RunProgram runs to completion and reports (gasConsumed, result).
func (m *Machine) RunProgram(initialGas int64) (gasConsumed int64, result ResultCode) {
	m.Gas = initialGas
	m.Run()
	return initialGas - maxI64(m.Gas, 0), m.ResultCode
}

// GetProgramCounter returns the current PC.
func (m *Machine) GetProgramCounter() uint32 { return m.PC }

// SetNextProgramCounter overrides PC directly (used by harnesses staging a
// specific entry point, e.g. accumulation's PC=5 convention).
func (m *Machine) SetNextProgramCounter(pc uint32) { m.PC = pc }

// GetGasLeft returns the remaining gas counter.
func (m *Machine) GetGasLeft() int64 { return m.Gas }

// SetGasLeft overrides the gas counter.
func (m *Machine) SetGasLeft(g int64) { m.Gas = g }

// GetStatus returns the Operational API status enum.
func (m *Machine) GetStatus() Status { return m.Status }

// GetExitArg returns the low 32 bits of omega7 at HALT, or the fault address
// at FAULT.
func (m *Machine) GetExitArg() uint32 {
	if m.ResultCode == ResultFAULT {
		return m.FaultAddress
	}
	return uint32(m.Registers[7])
}

// GetRegister returns register i, i in [0,13).
func (m *Machine) GetRegister(i int) (uint64, error) {
	if i < 0 || i >= NumRegisters {
		return 0, malformed("getRegister: index %d out of range", i)
	}
	return m.Registers[i], nil
}

// SetRegister sets register i, i in [0,13).
func (m *Machine) SetRegister(i int, v uint64) error {
	if i < 0 || i >= NumRegisters {
		return malformed("setRegister: index %d out of range", i)
	}
	m.Registers[i] = v
	return nil
}

// GetRegisters returns the 104-byte little-endian register image.
func (m *Machine) GetRegisters() []byte {
	out := make([]byte, registerImageSize)
	for i, v := range m.Registers {
		putLittleEndian(out[i*8:(i+1)*8], v, 8)
	}
	return out
}

// SetRegisters installs a 104-byte little-endian register image.
func (m *Machine) SetRegisters(regs104 []byte) error {
	if len(regs104) != registerImageSize {
		return malformed("setRegisters: need %d bytes, have %d", registerImageSize, len(regs104))
	}
	for i := 0; i < NumRegisters; i++ {
		m.Registers[i] = getLittleEndian(regs104[i*8:(i+1)*8], 8)
	}
	return nil
}

// GetPageDump returns the given page's raw 4096 bytes.
func (m *Machine) GetPageDump(pageIndex uint32) [PageSize]byte {
	return m.RAM.GetPageDump(pageIndex)
}

// SetMemory is an init-time write that bypasses access checks.
func (m *Machine) SetMemory(addr uint32, data []byte) {
	m.RAM.WriteOctetsDuringInitialization(addr, data)
}

// InitPage allocates pages over [addr, addr+length) with the given access.
func (m *Machine) InitPage(addr, length uint32, access AccessType) {
	m.RAM.InitPage(addr, length, access)
}
