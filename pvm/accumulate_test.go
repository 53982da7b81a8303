package pvm

import "testing"

// buildAccumulatePreimage wraps a deblob-encoded program (no read-only/
// read-write data, no stack) into the preimage format AccumulateInvocation
// expects, with an empty metadata string.
func buildAccumulatePreimage(code, bitmask []byte) []byte {
	deblob := EncodeDeblob(&Deblob{Code: code, Bitmask: bitmask})

	var codeBlob []byte
	codeBlob = append(codeBlob, EncodeFixed(0, 3)...) // |o|
	codeBlob = append(codeBlob, EncodeFixed(0, 3)...) // |w|
	codeBlob = append(codeBlob, EncodeFixed(0, 2)...) // z
	codeBlob = append(codeBlob, EncodeFixed(0, 3)...) // s
	codeBlob = append(codeBlob, EncodeFixed(uint64(len(deblob)), 4)...)
	codeBlob = append(codeBlob, deblob...)

	return append(EncodeNatural(0), codeBlob...) // empty metadata
}

// TestAccumulateInvocationYield drives a program that loads HostYIELD into
// omega0, issues ECALLI, then jumps to the halt address, and checks that the
// yielded hash lands in the outgoing Regular implications with a positive
// gas charge and a HALT result.
func TestAccumulateInvocationYield(t *testing.T) {
	// Five filler FALLTHROUGH instructions occupy positions 0-4 so the real
	// program starts exactly where AccumulateEntryPC (5) lands: LOAD_IMM_64
	// omega0, 25 (HostYIELD); ECALLI; JUMP to HaltAddr.
	code := []byte{
		1, 1, 1, 1, 1, // filler, never executed (entry PC is 5)
		20, 0, 25, // LOAD_IMM_64 rd=0 imm=25
		10,                         // ECALLI
		40, 0xF7, 0xFF, 0xFE, 0xFF, // JUMP offset=-65545 -> PC(9)+offset = HaltAddr
	}
	bitmask := []byte{1, 1, 1, 1, 1, 1, 0, 0, 1, 1, 0, 0, 0, 0}
	preimage := buildAccumulatePreimage(code, bitmask)

	args := append(append(EncodeNatural(5), EncodeNatural(0)...), EncodeNatural(0)...)

	pair := &ImplicationsPair{
		Regular:     NewImplications(1, NewPartialState(), 1),
		Exceptional: NewImplications(1, NewPartialState(), 1),
	}
	contextBytes := EncodeImplicationsPair(pair)

	result, err := AccumulateInvocation(10000, preimage, args, contextBytes, 1, 1, AuthQueueSize)
	assert(t, err == nil, "AccumulateInvocation errored: %v", err)
	assert(t, result.ResultCode == ResultHALT, "expected HALT, got %s", result.ResultCode)
	assert(t, result.GasConsumed > 0, "expected positive gas consumption, got %d", result.GasConsumed)

	gotPair, err := DecodeImplicationsPair(result.EncodedContext)
	assert(t, err == nil, "DecodeImplicationsPair errored: %v", err)
	assert(t, gotPair.Regular.Yield != nil, "expected Regular.Yield to be set")

	wantPrefix := args
	for i, b := range wantPrefix {
		assert(t, gotPair.Regular.Yield[i] == b, "yielded hash byte %d mismatch: got 0x%02x want 0x%02x", i, gotPair.Regular.Yield[i], b)
	}
	for i := len(wantPrefix); i < HashSize; i++ {
		assert(t, gotPair.Regular.Yield[i] == 0, "expected zero padding at byte %d, got 0x%02x", i, gotPair.Regular.Yield[i])
	}
}

func TestDecodeAccumulateArgsRoundTrip(t *testing.T) {
	b := append(append(EncodeNatural(5), EncodeNatural(7)...), EncodeNatural(0)...)
	got, err := DecodeAccumulateArgs(b)
	assert(t, err == nil, "DecodeAccumulateArgs errored: %v", err)
	assert(t, got.Timeslot == 5, "timeslot mismatch: got %d", got.Timeslot)
	assert(t, got.ServiceID == 7, "serviceId mismatch: got %d", got.ServiceID)
	assert(t, got.InputLength == 0, "inputLength mismatch: got %d", got.InputLength)
}

// TestAccumulateInvocationUnrecognizedHostCallSurfacesHOST checks that a
// host-function id absent from both tables stops the loop with StatusHOST
// rather than panicking or looping forever.
func TestAccumulateInvocationUnrecognizedHostCallSurfacesHOST(t *testing.T) {
	// Five filler FALLTHROUGH instructions occupy positions 0-4 so the real
	// program starts exactly where AccumulateEntryPC (5) lands.
	code := []byte{
		1, 1, 1, 1, 1, // filler, never executed (entry PC is 5)
		20, 0, 99, // LOAD_IMM_64 rd=0 imm=99 (no such host function)
		10, // ECALLI
	}
	bitmask := []byte{1, 1, 1, 1, 1, 1, 0, 0, 1}
	preimage := buildAccumulatePreimage(code, bitmask)
	args := append(append(EncodeNatural(5), EncodeNatural(0)...), EncodeNatural(0)...)

	pair := &ImplicationsPair{
		Regular:     NewImplications(1, NewPartialState(), 1),
		Exceptional: NewImplications(1, NewPartialState(), 1),
	}
	contextBytes := EncodeImplicationsPair(pair)

	result, err := AccumulateInvocation(10000, preimage, args, contextBytes, 1, 1, AuthQueueSize)
	assert(t, err == nil, "AccumulateInvocation errored: %v", err)
	assert(t, result.ResultCode == ResultHOST, "expected HOST, got %s", result.ResultCode)
}
