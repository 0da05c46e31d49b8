package gpu

import "fmt"

// CapabilityEnvelope is the hardware-reported tuning envelope of one GPU.
// All ranges are inclusive. It is fetched fresh for every invocation and
// never cached: the driver may change the reported ranges at any time.
type CapabilityEnvelope struct {
	ClockMinMHz uint32
	ClockMaxMHz uint32

	GraphicsOffsetMinMHz int32
	GraphicsOffsetMaxMHz int32

	MemoryOffsetMinMHz int32
	MemoryOffsetMaxMHz int32

	PowerMinW     uint32
	PowerMaxW     uint32
	PowerDefaultW uint32
}

// LiveState is a point-in-time telemetry snapshot of one GPU.
type LiveState struct {
	ClockMHz          uint32
	GraphicsOffsetMHz int32
	MemClockMHz       uint32
	MemoryOffsetMHz   int32
	TemperatureC      uint32
	PowerDrawW        uint32
	PowerLimitW       uint32
}

// PowerLimitPercent reports the current power limit as a percentage of the
// hardware default limit. Returns 0 when the default is unknown.
func (s LiveState) PowerLimitPercent(env CapabilityEnvelope) uint32 {
	if env.PowerDefaultW == 0 {
		return 0
	}
	return uint32(float64(s.PowerLimitW) / float64(env.PowerDefaultW) * 100.0)
}

// ClockWindow is a locked-clock range in MHz.
type ClockWindow struct {
	MinMHz uint32
	MaxMHz uint32
}

func (w ClockWindow) String() string {
	return fmt.Sprintf("%d,%d", w.MinMHz, w.MaxMHz)
}

// OverclockRequest is the operator's intent for one invocation. Every control
// is optional; a nil field means "leave that control unchanged", not "reset".
type OverclockRequest struct {
	LockedClocks      *ClockWindow
	GraphicsOffsetMHz *int32
	MemoryOffsetMHz   *int32
	PowerPercent      *uint32
}

// Empty reports whether the request touches no control at all.
func (r OverclockRequest) Empty() bool {
	return r.LockedClocks == nil &&
		r.GraphicsOffsetMHz == nil &&
		r.MemoryOffsetMHz == nil &&
		r.PowerPercent == nil
}
