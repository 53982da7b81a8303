package pvm

import "fmt"

// MalformedError reports a codec decode failure. Every decode routine in this
// package returns one of these (never a bare string error) so callers can use
// errors.As to recover the reason without parsing an error string.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string {
	return "malformed: " + e.Reason
}

func malformed(format string, args ...any) *MalformedError {
	return &MalformedError{Reason: fmt.Sprintf(format, args...)}
}

// Fault reports a page-fault: the page-start address of the lowest offending
// page in a read or write that touched at least one page lacking the required
// access right.
type Fault struct {
	Addr uint32
}

func (e *Fault) Error() string {
	return fmt.Sprintf("page fault at 0x%08x", e.Addr)
}

// Sentinel is a recoverable-by-program error code surfaced in register omega7
// by accumulation host calls. It never terminates execution.
type Sentinel int64

const (
	SentinelOK    Sentinel = 0
	SentinelNONE  Sentinel = -1
	SentinelWHAT  Sentinel = -2
	SentinelOOB   Sentinel = -3
	SentinelWHO   Sentinel = -4
	SentinelFULL  Sentinel = -5
	SentinelCORE  Sentinel = -6
	SentinelCASH  Sentinel = -7
	SentinelLOW   Sentinel = -8
	SentinelHUH   Sentinel = -9
)

// ResultCode classifies how a run of the interpreter ended.
type ResultCode int

const (
	ResultHALT ResultCode = iota
	ResultPANIC
	ResultFAULT
	ResultHOST
	ResultOOG
)

func (r ResultCode) String() string {
	switch r {
	case ResultHALT:
		return "HALT"
	case ResultPANIC:
		return "PANIC"
	case ResultFAULT:
		return "FAULT"
	case ResultHOST:
		return "HOST"
	case ResultOOG:
		return "OOG"
	default:
		return "UNKNOWN"
	}
}

// Status is the externally visible status enum from the Operational API (§6),
// distinct from ResultCode in that it also has an OK value meaning "no run has
// terminated yet".
type Status int

const (
	StatusOK Status = iota
	StatusHALT
	StatusPANIC
	StatusFAULT
	StatusHOST
	StatusOOG
)
