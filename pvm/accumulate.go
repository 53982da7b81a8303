package pvm

// Accumulation driver: decode the ImplicationsPair context, drive the
// interpreter from PC=5, and route HOST traps to the general or
// accumulation-only host-function tables. Grounded on GVM's
// vm/devices.go dispatch-by-slot pattern (generalized in hostcalls.go)
// plumbed through vm/run.go's run-to-completion loop.

// AccumulateEntryPC is the Gray Paper convention for where an accumulate
// invocation begins execution.
const AccumulateEntryPC = 5

// AccumulateArgs is the decoded (timeslot, serviceId, inputLength) triple
// extracted from an accumulate invocation's args blob. Per Open Question 2,
// all three fields use the variable-length natural encoding.
type AccumulateArgs struct {
	Timeslot    uint32
	ServiceID   uint32
	InputLength uint32
}

// DecodeAccumulateArgs parses the (timeslot, serviceId, inputLen) triple.
func DecodeAccumulateArgs(b []byte) (*AccumulateArgs, error) {
	timeslot, n1, err := DecodeNatural(b)
	if err != nil {
		return nil, malformed("accumulateArgs: timeslot: %v", err)
	}
	b = b[n1:]
	serviceID, n2, err := DecodeNatural(b)
	if err != nil {
		return nil, malformed("accumulateArgs: serviceId: %v", err)
	}
	b = b[n2:]
	inputLength, _, err := DecodeNatural(b)
	if err != nil {
		return nil, malformed("accumulateArgs: inputLength: %v", err)
	}
	return &AccumulateArgs{
		Timeslot:    uint32(timeslot),
		ServiceID:   uint32(serviceID),
		InputLength: uint32(inputLength),
	}, nil
}

// AccumulateResult is what accumulateInvocation returns to its caller.
type AccumulateResult struct {
	GasConsumed   int64
	ResultCode    ResultCode
	EncodedResult []byte // R's extracted blob, empty on non-HALT termination
	EncodedContext []byte
}

// AccumulateInvocation runs accumulateInvocation end to end. coreCount,
// validatorCount, and authQueueSize describe the per-core/per-validator fields
// of contextBytes; they are accepted for interface parity but not used: the
// decoded context is not checked against them.
func AccumulateInvocation(gasLimit int64, programPreimage, args, contextBytes []byte, coreCount, validatorCount, authQueueSize int) (*AccumulateResult, error) {
	pair, err := DecodeImplicationsPair(contextBytes)
	if err != nil {
		return nil, err
	}

	parsedArgs, err := DecodeAccumulateArgs(args)
	if err != nil {
		return nil, err
	}

	m := NewMachine()
	if err := Load(m, programPreimage, args); err != nil {
		return nil, err
	}
	m.Gas = gasLimit
	m.PC = AccumulateEntryPC

	env := &hostCallEnv{m: m, pair: pair, serviceID: parsedArgs.ServiceID}

	// Step() returns false the instant it records a terminal state, so a HOST
	// trap is only visible once the loop has already exited; the dispatch
	// must live here, not in the loop body.
	for {
		if m.Step() {
			continue
		}
		if m.Status != StatusHOST {
			break
		}
		id := uint32(m.Registers[0])
		if handler, ok := accumulationHostFuncs[id]; ok {
			m.trace(TraceEvent{Kind: TraceHostCall, PC: m.PC, HostCallID: id})
			handler(env)
			m.ResumeFromHost()
			continue
		}
		if handler, ok := generalHostFuncs[id]; ok {
			m.trace(TraceEvent{Kind: TraceHostCall, PC: m.PC, HostCallID: id})
			handler(env)
			m.ResumeFromHost()
			continue
		}
		// Neither table recognizes id: surface HOST to the outer caller by
		// stopping the loop with Status already set.
		break
	}

	gasConsumed := gasLimit - maxI64(m.Gas, 0)

	var resultBlob []byte
	if m.ResultCode == ResultHALT {
		blob, ok := m.ExtractResult()
		if ok {
			resultBlob = blob
		}
	}

	encodedContext := EncodeImplicationsPair(pair)

	return &AccumulateResult{
		GasConsumed:    gasConsumed,
		ResultCode:     m.ResultCode,
		EncodedResult:  resultBlob,
		EncodedContext: encodedContext,
	}, nil
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
