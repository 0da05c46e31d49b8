package gpu

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDevice records every mutation in call order and can be told to fail a
// specific operation kind.
type fakeDevice struct {
	calls   []string
	failOn  OperationKind
	failErr error
}

func (f *fakeDevice) Name() (string, error)                 { return "Fake GPU", nil }
func (f *fakeDevice) Architecture() (string, error)         { return "Blackwell", nil }
func (f *fakeDevice) Capabilities() (CapabilityEnvelope, error) {
	return testEnvelope(), nil
}
func (f *fakeDevice) LiveState() (LiveState, error) { return LiveState{}, nil }

func (f *fakeDevice) apply(kind OperationKind, call string) error {
	if f.failOn == kind {
		err := f.failErr
		if err == nil {
			err = errors.New("injected failure")
		}
		return err
	}
	f.calls = append(f.calls, call)
	return nil
}

func (f *fakeDevice) SetLockedClocks(minMHz, maxMHz uint32) error {
	return f.apply(OpSetLockedClocks, fmt.Sprintf("clocks %d,%d", minMHz, maxMHz))
}
func (f *fakeDevice) SetGraphicsOffset(offsetMHz int32) error {
	return f.apply(OpSetGraphicsOffset, fmt.Sprintf("goffset %d", offsetMHz))
}
func (f *fakeDevice) SetMemoryOffset(offsetMHz int32) error {
	return f.apply(OpSetMemoryOffset, fmt.Sprintf("moffset %d", offsetMHz))
}
func (f *fakeDevice) SetPowerLimit(watts uint32) error {
	return f.apply(OpSetPowerLimit, fmt.Sprintf("power %d", watts))
}
func (f *fakeDevice) ResetClocks() error     { return f.apply(OpResetClocks, "reset clocks") }
func (f *fakeDevice) ResetPowerLimit() error { return f.apply(OpResetPowerLimit, "reset power") }

func fullPlan(t *testing.T) ApplyPlan {
	t.Helper()
	window := ClockWindow{MinMHz: 1000, MaxMHz: 2000}
	plan, err := BuildPlan(OverclockRequest{
		LockedClocks:      &window,
		GraphicsOffsetMHz: int32Ptr(100),
		MemoryOffsetMHz:   int32Ptr(500),
		PowerPercent:      uint32Ptr(90),
	}, testEnvelope())
	require.NoError(t, err)
	return plan
}

func TestExecuteDryRunTouchesNothing(t *testing.T) {
	dev := &fakeDevice{failOn: OpSetPowerLimit} // would fail if reached
	plan := fullPlan(t)

	result := Execute(dev, plan, true)

	assert.True(t, result.DryRun)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Len(t, result.Outcomes, plan.Len())
	for _, outcome := range result.Outcomes {
		assert.True(t, outcome.OK())
	}
	assert.Empty(t, dev.calls, "dry run must not touch the device")
	assert.Nil(t, result.FirstError())
}

func TestExecuteAppliesInPlanOrder(t *testing.T) {
	// failOn must be a sentinel: the zero OperationKind is OpSetPowerLimit.
	dev := &fakeDevice{failOn: -1}

	result := Execute(dev, fullPlan(t), false)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, []string{"power 518", "clocks 1000,2000", "goffset 100", "moffset 500"}, dev.calls)
	assert.Nil(t, result.FirstError())
}

func TestExecuteStopsAfterFirstFailure(t *testing.T) {
	dev := &fakeDevice{failOn: OpSetLockedClocks}

	result := Execute(dev, fullPlan(t), false)

	assert.Equal(t, StatusPartialFailure, result.Status)
	require.Len(t, result.Outcomes, 2, "operations after the failure must not be attempted")
	assert.True(t, result.Outcomes[0].OK())
	assert.False(t, result.Outcomes[1].OK())
	assert.Equal(t, []string{"power 518"}, dev.calls, "the applied prefix stays applied, no rollback")

	var applyErr *ApplyError
	require.ErrorAs(t, result.FirstError(), &applyErr)
	assert.Equal(t, OpSetLockedClocks.String(), applyErr.Op)
}

func TestExecuteFirstOperationFailure(t *testing.T) {
	dev := &fakeDevice{failOn: OpSetPowerLimit}

	result := Execute(dev, fullPlan(t), false)

	assert.Equal(t, StatusFailure, result.Status, "nothing applied means failure, not partial failure")
	assert.Len(t, result.Outcomes, 1)
	assert.Empty(t, dev.calls)
}

func TestExecuteEmptyPlan(t *testing.T) {
	dev := &fakeDevice{failOn: -1}

	result := Execute(dev, ApplyPlan{}, false)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Empty(t, result.Outcomes)
	assert.Empty(t, dev.calls)
}

func TestExecuteResetPlan(t *testing.T) {
	dev := &fakeDevice{failOn: -1}

	result := Execute(dev, BuildResetPlan(), false)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, []string{"reset clocks", "reset power"}, dev.calls)
}

func TestExecuteResetPowerFailureIsPartial(t *testing.T) {
	dev := &fakeDevice{failOn: OpResetPowerLimit}

	result := Execute(dev, BuildResetPlan(), false)

	assert.Equal(t, StatusPartialFailure, result.Status)
	assert.Equal(t, []string{"reset clocks"}, dev.calls)
}
