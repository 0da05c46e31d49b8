package gpu

import "fmt"

// QueryError wraps a failed read from the hardware management layer. A query
// failure is terminal for the invocation: without trustworthy ranges the
// builder cannot validate anything.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// ValidationError rejects one field of an OverclockRequest. The engine never
// clamps a rejected value to the nearest valid one: a silently adjusted
// voltage or frequency control is a safety hazard.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ApplyError wraps a mutation the management layer rejected. The remaining
// plan is aborted; a hardware rejection is treated as a genuine constraint,
// not a transient fault, so it is never retried.
type ApplyError struct {
	Op  string
	Err error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("apply %s: %v", e.Op, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }
