package gpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnvelope() CapabilityEnvelope {
	return CapabilityEnvelope{
		ClockMinMHz:          200,
		ClockMaxMHz:          2800,
		GraphicsOffsetMinMHz: -1000,
		GraphicsOffsetMaxMHz: 1000,
		MemoryOffsetMinMHz:   -2000,
		MemoryOffsetMaxMHz:   3000,
		PowerMinW:            400,
		PowerMaxW:            600,
		PowerDefaultW:        575,
	}
}

func uint32Ptr(v uint32) *uint32 { return &v }
func int32Ptr(v int32) *int32    { return &v }

func TestBuildPlanEmptyRequest(t *testing.T) {
	plan, err := BuildPlan(OverclockRequest{}, testEnvelope())

	require.NoError(t, err)
	assert.True(t, plan.Empty())
}

func TestBuildPlanClockWindow(t *testing.T) {
	env := testEnvelope()

	testCases := []struct {
		name      string
		window    ClockWindow
		expectErr bool
	}{
		{name: "window inside range", window: ClockWindow{MinMHz: 1000, MaxMHz: 2000}},
		{name: "window at boundaries", window: ClockWindow{MinMHz: 200, MaxMHz: 2800}},
		{name: "degenerate window", window: ClockWindow{MinMHz: 1500, MaxMHz: 1500}},
		{name: "inverted window", window: ClockWindow{MinMHz: 2000, MaxMHz: 1000}, expectErr: true},
		{name: "min below range", window: ClockWindow{MinMHz: 100, MaxMHz: 2000}, expectErr: true},
		{name: "max above range", window: ClockWindow{MinMHz: 1000, MaxMHz: 3000}, expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			window := tc.window
			plan, err := BuildPlan(OverclockRequest{LockedClocks: &window}, env)

			if tc.expectErr {
				var validationErr *ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Equal(t, "locked clocks", validationErr.Field)
				assert.True(t, plan.Empty(), "no operation may survive a rejection")
				return
			}

			require.NoError(t, err)
			require.Equal(t, 1, plan.Len())
			op := plan.Operations()[0]
			assert.Equal(t, OpSetLockedClocks, op.Kind)
			assert.Equal(t, tc.window.MinMHz, op.ClockMinMHz)
			assert.Equal(t, tc.window.MaxMHz, op.ClockMaxMHz)
		})
	}
}

func TestBuildPlanGraphicsOffset(t *testing.T) {
	env := testEnvelope()

	testCases := []struct {
		name      string
		offset    int32
		expectErr bool
	}{
		{name: "positive offset", offset: 150},
		{name: "negative offset", offset: -200},
		{name: "lower boundary", offset: -1000},
		{name: "upper boundary", offset: 1000},
		{name: "below range", offset: -1001, expectErr: true},
		{name: "above range", offset: 1001, expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := BuildPlan(OverclockRequest{GraphicsOffsetMHz: int32Ptr(tc.offset)}, env)

			if tc.expectErr {
				var validationErr *ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Equal(t, "graphics offset", validationErr.Field)
				return
			}

			require.NoError(t, err)
			require.Equal(t, 1, plan.Len())
			assert.Equal(t, OpSetGraphicsOffset, plan.Operations()[0].Kind)
			assert.Equal(t, tc.offset, plan.Operations()[0].OffsetMHz)
		})
	}
}

func TestBuildPlanMemoryOffset(t *testing.T) {
	env := testEnvelope()

	testCases := []struct {
		name      string
		offset    int32
		expectErr bool
	}{
		{name: "lower boundary", offset: -2000},
		{name: "upper boundary", offset: 3000},
		{name: "below range", offset: -2001, expectErr: true},
		{name: "above range", offset: 3001, expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := BuildPlan(OverclockRequest{MemoryOffsetMHz: int32Ptr(tc.offset)}, env)

			if tc.expectErr {
				var validationErr *ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Equal(t, "memory offset", validationErr.Field)
				return
			}

			require.NoError(t, err)
			require.Equal(t, 1, plan.Len())
			assert.Equal(t, OpSetMemoryOffset, plan.Operations()[0].Kind)
		})
	}
}

func TestBuildPlanPowerLimit(t *testing.T) {
	env := testEnvelope()

	testCases := []struct {
		name        string
		percent     uint32
		expectErr   bool
		expectWatts uint32
	}{
		{name: "100 percent", percent: 100, expectWatts: 575},
		{name: "fractional watts rounded", percent: 77, expectWatts: 443}, // 442.75
		{name: "exact watts", percent: 104, expectWatts: 598},
		{name: "guard band low", percent: 49, expectErr: true},
		{name: "guard band high", percent: 151, expectErr: true},
		{name: "zero percent", percent: 0, expectErr: true},
		{name: "in guard band but above hardware max", percent: 105, expectErr: true}, // 603.75 -> 604 > 600
		{name: "in guard band but below hardware min", percent: 69, expectErr: true},  // 396.75 -> 397 < 400
		{name: "just above hardware min", percent: 70, expectWatts: 403},              // 402.5 -> 403
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := BuildPlan(OverclockRequest{PowerPercent: uint32Ptr(tc.percent)}, env)

			if tc.expectErr {
				var validationErr *ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Equal(t, "power limit", validationErr.Field)
				return
			}

			require.NoError(t, err)
			require.Equal(t, 1, plan.Len())
			op := plan.Operations()[0]
			assert.Equal(t, OpSetPowerLimit, op.Kind)
			assert.Equal(t, tc.expectWatts, op.PowerLimitW)
			assert.Equal(t, tc.percent, op.PowerPercent)
		})
	}
}

// The guard band is checked before the hardware range, so an absurd
// percentage is rejected even if a misreported default would make the
// resulting wattage fall inside the hardware range.
func TestBuildPlanPowerGuardBeforeRange(t *testing.T) {
	env := testEnvelope()
	env.PowerDefaultW = 100
	env.PowerMinW = 100
	env.PowerMaxW = 1000 // 300% of 100W is 300W, inside this range

	_, err := BuildPlan(OverclockRequest{PowerPercent: uint32Ptr(300)}, env)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "power limit", validationErr.Field)
	assert.Contains(t, validationErr.Reason, "accepted range")
}

// Regardless of how the request was assembled, the plan order is fixed:
// power budget first, then locked clocks, then graphics and memory offsets.
func TestBuildPlanOrdering(t *testing.T) {
	env := testEnvelope()
	window := ClockWindow{MinMHz: 1000, MaxMHz: 2000}
	req := OverclockRequest{
		MemoryOffsetMHz:   int32Ptr(500),
		GraphicsOffsetMHz: int32Ptr(100),
		LockedClocks:      &window,
		PowerPercent:      uint32Ptr(90),
	}

	plan, err := BuildPlan(req, env)
	require.NoError(t, err)
	require.Equal(t, 4, plan.Len())

	kinds := make([]OperationKind, 0, plan.Len())
	for _, op := range plan.Operations() {
		kinds = append(kinds, op.Kind)
	}
	assert.Equal(t, []OperationKind{OpSetPowerLimit, OpSetLockedClocks, OpSetGraphicsOffset, OpSetMemoryOffset}, kinds)
}

// 105% of a 575W default is 603.75W, rounded to 604W, above the 600W
// hardware maximum. The offsets are valid but no operation may survive.
func TestBuildPlanRejectsPowerBeforeOtherFields(t *testing.T) {
	env := testEnvelope()
	req := OverclockRequest{
		GraphicsOffsetMHz: int32Ptr(856),
		MemoryOffsetMHz:   int32Ptr(2000),
		PowerPercent:      uint32Ptr(105),
	}

	plan, err := BuildPlan(req, env)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "power limit", validationErr.Field)
	assert.Contains(t, validationErr.Reason, "604")
	assert.True(t, plan.Empty())
}

func TestBuildResetPlan(t *testing.T) {
	plan := BuildResetPlan()

	require.Equal(t, 2, plan.Len())
	assert.Equal(t, OpResetClocks, plan.Operations()[0].Kind)
	assert.Equal(t, OpResetPowerLimit, plan.Operations()[1].Kind)
}

func TestPowerPercentToWatts(t *testing.T) {
	assert.Equal(t, uint32(575), PowerPercentToWatts(100, 575))
	assert.Equal(t, uint32(604), PowerPercentToWatts(105, 575)) // 603.75
	assert.Equal(t, uint32(288), PowerPercentToWatts(50, 575))  // 287.5
	assert.Equal(t, uint32(863), PowerPercentToWatts(150, 575)) // 862.5
	assert.Equal(t, uint32(0), PowerPercentToWatts(100, 0))
}
