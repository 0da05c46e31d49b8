package gpu

import "fmt"

// OperationKind discriminates the variants of ApplyOperation.
type OperationKind int

const (
	OpSetPowerLimit OperationKind = iota
	OpSetLockedClocks
	OpSetGraphicsOffset
	OpSetMemoryOffset
	OpResetClocks
	OpResetPowerLimit
)

func (k OperationKind) String() string {
	switch k {
	case OpSetPowerLimit:
		return "set power limit"
	case OpSetLockedClocks:
		return "set locked clocks"
	case OpSetGraphicsOffset:
		return "set graphics offset"
	case OpSetMemoryOffset:
		return "set memory offset"
	case OpResetClocks:
		return "reset clocks"
	case OpResetPowerLimit:
		return "reset power limit"
	default:
		return "unknown operation"
	}
}

// ApplyOperation is one atomic unit of hardware work. Only the fields that
// match Kind are meaningful.
type ApplyOperation struct {
	Kind OperationKind

	// OpSetLockedClocks
	ClockMinMHz uint32
	ClockMaxMHz uint32

	// OpSetGraphicsOffset / OpSetMemoryOffset
	OffsetMHz int32

	// OpSetPowerLimit, absolute watts after percentage conversion
	PowerLimitW  uint32
	PowerPercent uint32
}

// Describe renders the human-readable form used for dry-run previews and
// history records.
func (op ApplyOperation) Describe() string {
	switch op.Kind {
	case OpSetPowerLimit:
		return fmt.Sprintf("set power limit to %dW (%d%% of default)", op.PowerLimitW, op.PowerPercent)
	case OpSetLockedClocks:
		return fmt.Sprintf("lock gpu clocks to %d-%dMHz", op.ClockMinMHz, op.ClockMaxMHz)
	case OpSetGraphicsOffset:
		return fmt.Sprintf("set graphics offset to %+dMHz", op.OffsetMHz)
	case OpSetMemoryOffset:
		return fmt.Sprintf("set memory offset to %+dMHz", op.OffsetMHz)
	case OpResetClocks:
		return "reset locked clocks and offsets to defaults"
	case OpResetPowerLimit:
		return "reset power limit to default"
	default:
		return op.Kind.String()
	}
}

// ApplyPlan is the validated, ordered sequence of operations derived from one
// request. It is built once, never mutated, and consumed exactly once.
type ApplyPlan struct {
	ops []ApplyOperation
}

func (p ApplyPlan) Operations() []ApplyOperation { return p.ops }

func (p ApplyPlan) Len() int { return len(p.ops) }

func (p ApplyPlan) Empty() bool { return len(p.ops) == 0 }

// PlanStatus classifies the overall outcome of executing a plan. The
// three-way split matters to operators scripting against the tool: a
// partial failure means the GPU is now in a mixed state.
type PlanStatus int

const (
	StatusSuccess PlanStatus = iota
	StatusPartialFailure
	StatusFailure
)

func (s PlanStatus) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusPartialFailure:
		return "partial-failure"
	case StatusFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// OperationOutcome is the result of one attempted operation.
type OperationOutcome struct {
	Operation ApplyOperation
	Err       error
}

func (o OperationOutcome) OK() bool { return o.Err == nil }

// PlanResult aggregates the outcomes of every attempted operation, in order.
// Operations skipped after a failure do not appear.
type PlanResult struct {
	DryRun   bool
	Outcomes []OperationOutcome
	Status   PlanStatus
}

// FirstError returns the error of the first failed operation, or nil.
func (r PlanResult) FirstError() error {
	for _, o := range r.Outcomes {
		if o.Err != nil {
			return o.Err
		}
	}
	return nil
}
