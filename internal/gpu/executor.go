package gpu

import (
	log "github.com/sirupsen/logrus"
)

// Execute runs plan against dev in plan order. In dry-run mode no adapter
// call is made and every operation succeeds; the result is a preview, not a
// verification. In live mode the first failed operation aborts the rest —
// there is no rollback of already-applied operations, since NVML offers no
// transactional semantics, so the mixed state is reported rather than hidden.
func Execute(dev Device, plan ApplyPlan, dryRun bool) PlanResult {
	result := PlanResult{DryRun: dryRun, Status: StatusSuccess}

	if dryRun {
		for _, op := range plan.Operations() {
			log.Debugf("[dry-run] %s", op.Describe())
			result.Outcomes = append(result.Outcomes, OperationOutcome{Operation: op})
		}
		return result
	}

	for _, op := range plan.Operations() {
		err := applyOne(dev, op)
		if err != nil {
			err = &ApplyError{Op: op.Kind.String(), Err: err}
		}
		result.Outcomes = append(result.Outcomes, OperationOutcome{Operation: op, Err: err})

		if err != nil {
			log.Errorf("%s failed: %v", op.Describe(), err)
			if len(result.Outcomes) > 1 {
				result.Status = StatusPartialFailure
			} else {
				result.Status = StatusFailure
			}
			return result
		}
		log.Debugf("%s: ok", op.Describe())
	}

	return result
}

func applyOne(dev Device, op ApplyOperation) error {
	switch op.Kind {
	case OpSetPowerLimit:
		return dev.SetPowerLimit(op.PowerLimitW)
	case OpSetLockedClocks:
		return dev.SetLockedClocks(op.ClockMinMHz, op.ClockMaxMHz)
	case OpSetGraphicsOffset:
		return dev.SetGraphicsOffset(op.OffsetMHz)
	case OpSetMemoryOffset:
		return dev.SetMemoryOffset(op.OffsetMHz)
	case OpResetClocks:
		return dev.ResetClocks()
	case OpResetPowerLimit:
		return dev.ResetPowerLimit()
	default:
		return &ApplyError{Op: op.Kind.String(), Err: errUnknownOperation}
	}
}

var errUnknownOperation = &ValidationError{Field: "plan", Reason: "unknown operation kind"}
