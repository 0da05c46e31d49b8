package gpu

import (
	"fmt"
	"math"
)

// Guard band for the power-limit percentage. Values outside it are rejected
// before the hardware-range check, so a misreported default limit can never
// let an extreme percentage through.
const (
	PowerPercentMin = 50
	PowerPercentMax = 150
)

// BuildPlan validates req against env and produces the ordered plan, or the
// first *ValidationError encountered. The plan order is a safety policy, not
// an artifact of flag order: the power budget is raised or lowered before any
// clock change, and clocks are locked before offsets are applied on top of
// them.
func BuildPlan(req OverclockRequest, env CapabilityEnvelope) (ApplyPlan, error) {
	var ops []ApplyOperation

	if req.PowerPercent != nil {
		op, err := powerLimitOp(*req.PowerPercent, env)
		if err != nil {
			return ApplyPlan{}, err
		}
		ops = append(ops, op)
	}

	if req.LockedClocks != nil {
		if err := validateClockWindow(*req.LockedClocks, env); err != nil {
			return ApplyPlan{}, err
		}
		ops = append(ops, ApplyOperation{
			Kind:        OpSetLockedClocks,
			ClockMinMHz: req.LockedClocks.MinMHz,
			ClockMaxMHz: req.LockedClocks.MaxMHz,
		})
	}

	if req.GraphicsOffsetMHz != nil {
		v := *req.GraphicsOffsetMHz
		if v < env.GraphicsOffsetMinMHz || v > env.GraphicsOffsetMaxMHz {
			return ApplyPlan{}, &ValidationError{
				Field: "graphics offset",
				Reason: fmt.Sprintf("%+dMHz outside supported range [%+d, %+d]MHz",
					v, env.GraphicsOffsetMinMHz, env.GraphicsOffsetMaxMHz),
			}
		}
		ops = append(ops, ApplyOperation{Kind: OpSetGraphicsOffset, OffsetMHz: v})
	}

	if req.MemoryOffsetMHz != nil {
		v := *req.MemoryOffsetMHz
		if v < env.MemoryOffsetMinMHz || v > env.MemoryOffsetMaxMHz {
			return ApplyPlan{}, &ValidationError{
				Field: "memory offset",
				Reason: fmt.Sprintf("%+dMHz outside supported range [%+d, %+d]MHz",
					v, env.MemoryOffsetMinMHz, env.MemoryOffsetMaxMHz),
			}
		}
		ops = append(ops, ApplyOperation{Kind: OpSetMemoryOffset, OffsetMHz: v})
	}

	return ApplyPlan{ops: ops}, nil
}

// BuildResetPlan produces the fixed restore-to-defaults plan. Clocks and
// offsets are cleared before the power budget is restored; the mirror of the
// apply order is the conservative direction.
func BuildResetPlan() ApplyPlan {
	return ApplyPlan{ops: []ApplyOperation{
		{Kind: OpResetClocks},
		{Kind: OpResetPowerLimit},
	}}
}

func validateClockWindow(w ClockWindow, env CapabilityEnvelope) error {
	if w.MinMHz > w.MaxMHz {
		return &ValidationError{
			Field:  "locked clocks",
			Reason: fmt.Sprintf("minimum %dMHz exceeds maximum %dMHz", w.MinMHz, w.MaxMHz),
		}
	}
	if w.MinMHz < env.ClockMinMHz || w.MinMHz > env.ClockMaxMHz {
		return &ValidationError{
			Field: "locked clocks",
			Reason: fmt.Sprintf("minimum %dMHz outside supported range [%d, %d]MHz",
				w.MinMHz, env.ClockMinMHz, env.ClockMaxMHz),
		}
	}
	if w.MaxMHz > env.ClockMaxMHz {
		return &ValidationError{
			Field: "locked clocks",
			Reason: fmt.Sprintf("maximum %dMHz outside supported range [%d, %d]MHz",
				w.MaxMHz, env.ClockMinMHz, env.ClockMaxMHz),
		}
	}
	return nil
}

func powerLimitOp(percent uint32, env CapabilityEnvelope) (ApplyOperation, error) {
	if percent < PowerPercentMin || percent > PowerPercentMax {
		return ApplyOperation{}, &ValidationError{
			Field: "power limit",
			Reason: fmt.Sprintf("%d%% outside accepted range [%d%%, %d%%]",
				percent, PowerPercentMin, PowerPercentMax),
		}
	}

	watts := PowerPercentToWatts(percent, env.PowerDefaultW)
	if watts < env.PowerMinW || watts > env.PowerMaxW {
		return ApplyOperation{}, &ValidationError{
			Field: "power limit",
			Reason: fmt.Sprintf("%d%% of %dW default is %dW, outside supported range [%d, %d]W",
				percent, env.PowerDefaultW, watts, env.PowerMinW, env.PowerMaxW),
		}
	}

	return ApplyOperation{
		Kind:         OpSetPowerLimit,
		PowerLimitW:  watts,
		PowerPercent: percent,
	}, nil
}

// PowerPercentToWatts converts a percentage of the default power limit to
// absolute watts, rounded to the nearest watt.
func PowerPercentToWatts(percent, defaultW uint32) uint32 {
	return uint32(math.Round(float64(defaultW) * float64(percent) / 100.0))
}
