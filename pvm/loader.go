package pvm

// Program loader, the Y function: decode a
// preimage-wrapped program, verify the eq.-767 region-size bound, initialize
// the register file, and populate the RAM region layout
// (read-only zone, heap, stack, argument zone). Grounded on GVM's
// NewVirtualMachine (build all VM state up front before the first step) and
// riscv_memory.go's LoadSegment (length-prefixed region copy into paged
// memory).

// rnp is page alignment: 4096 * ceil(x/4096).
func rnp(x uint64) uint64 {
	return PageSize * ((x + PageSize - 1) / PageSize)
}

// rnq is zone alignment: Z * ceil(x/Z).
func rnq(x uint64) uint64 {
	return Zone * ((x + Zone - 1) / Zone)
}

// Load runs the Y function: decode programPreimage, verify the region-size
// precondition, and populate m (registers + RAM) accordingly. argumentData is
// the initial contents of the argument zone (ω7/ω8 point at it).
func Load(m *Machine, programPreimage, argumentData []byte) error {
	_, prog, err := DecodePreimage(programPreimage)
	if err != nil {
		return err
	}
	return loadProgramBlob(m, prog, argumentData)
}

func loadProgramBlob(m *Machine, prog *ProgramBlob, argumentData []byte) error {
	oLen := uint64(len(prog.ReadOnlyData))
	wLen := uint64(len(prog.ReadWriteData))
	zPad := uint64(prog.ZeroPages) * PageSize
	sLen := uint64(prog.StackSize)
	aLen := uint64(len(argumentData))

	bound := 5*uint64(Zone) + rnq(oLen) + rnq(wLen+zPad) + rnq(sLen) + uint64(InitInputSize)
	if bound > uint64(1)<<32 {
		return malformed("load: region-size precondition exceeded (%d > 2^32)", bound)
	}

	m.reset()

	m.Registers[0] = uint64(HaltAddr)
	m.Registers[1] = uint64(StackEnd)
	m.Registers[7] = uint64(ArgsStart)
	m.Registers[8] = aLen

	// Read-only zone: [Z, Z+rnq(|o|)), READ.
	roStart := uint32(Zone)
	roLen := uint32(rnq(oLen))
	m.RAM.InitPage(roStart, roLen, AccessRead)
	if oLen > 0 {
		m.RAM.WriteOctetsDuringInitialization(roStart, prog.ReadOnlyData)
	}

	// Heap: [2Z+rnq(|o|), 2Z+rnq(|o|)+rnp(|w|)), WRITE, plus z*4096
	// zero-padding pages appended in WRITE.
	heapStart := uint32(2*uint64(Zone) + rnq(oLen))
	heapDataLen := uint32(rnp(wLen))
	m.RAM.InitPage(heapStart, heapDataLen, AccessWrite)
	if wLen > 0 {
		m.RAM.WriteOctetsDuringInitialization(heapStart, prog.ReadWriteData)
	}
	if zPad > 0 {
		m.RAM.InitPage(heapStart+heapDataLen, uint32(zPad), AccessWrite)
	}
	m.RAM.SetHeapPointer(heapStart + heapDataLen + uint32(zPad))

	// Stack: [2^32-2Z-I-rnp(s), 2^32-2Z-I), WRITE.
	stackLen := uint32(rnp(sLen))
	stackStart := StackEnd - stackLen
	m.RAM.InitPage(stackStart, stackLen, AccessWrite)

	// Argument zone: [2^32-Z-I, 2^32-Z-I+rnp(|a|)), READ; extra aligned
	// zero-padding page follows.
	argLen := uint32(rnp(aLen))
	m.RAM.InitPage(ArgsStart, argLen+PageSize, AccessRead)
	if aLen > 0 {
		m.RAM.WriteOctetsDuringInitialization(ArgsStart, argumentData)
	}

	m.installCode(prog.Code.Code, prog.Code.Bitmask, prog.Code.JumpTable)
	m.PC = 0

	return nil
}
