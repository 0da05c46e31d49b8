package gpu

import (
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"nvoc/internal/nvml"
)

const milliwattsPerWatt = 1000

// Locked-clock window parked before issuing the locked-clock reset. Recent
// drivers leave Blackwell cards at the previously locked frequency unless the
// clocks sit at idle when the reset lands.
const (
	idleClockMinMHz = 200
	idleClockMaxMHz = 250
)

// Device is the engine's view of one GPU: capability and telemetry reads plus
// the discrete mutations the plan executor issues. It translates NVML data
// into the internal model and does no validation of its own.
type Device interface {
	Name() (string, error)
	Architecture() (string, error)
	Capabilities() (CapabilityEnvelope, error)
	LiveState() (LiveState, error)

	SetLockedClocks(minMHz, maxMHz uint32) error
	SetGraphicsOffset(offsetMHz int32) error
	SetMemoryOffset(offsetMHz int32) error
	SetPowerLimit(watts uint32) error
	ResetClocks() error
	ResetPowerLimit() error
}

// Session is an initialized NVML library plus one selected device. Close
// shuts the library down; handles are invalid afterwards.
type Session struct {
	manager nvml.Manager
	Device  Device
	Driver  string
}

// Open initializes NVML, enforces the minimum driver version and selects the
// device at index. The caller must Close the session.
func Open(index int, minDriverMajor int) (*Session, error) {
	manager := nvml.New()
	if err := manager.Init(); err != nil {
		return nil, &QueryError{Op: "nvml init", Err: err}
	}

	session, err := openDevice(manager, index, minDriverMajor)
	if err != nil {
		if shutdownErr := manager.Shutdown(); shutdownErr != nil {
			log.Warnf("NVML shutdown after failed open: %v", shutdownErr)
		}
		return nil, err
	}
	return session, nil
}

func openDevice(manager nvml.Manager, index int, minDriverMajor int) (*Session, error) {
	driver, err := manager.DriverVersion()
	if err != nil {
		return nil, &QueryError{Op: "driver version", Err: err}
	}
	if major := driverMajor(driver); major < minDriverMajor {
		return nil, &QueryError{
			Op:  "driver version",
			Err: fmt.Errorf("driver %s too old, need %d or newer: %w", driver, minDriverMajor, nvml.ErrNotSupported),
		}
	}

	count, err := manager.DeviceCount()
	if err != nil {
		return nil, &QueryError{Op: "device count", Err: err}
	}
	if index < 0 || index >= count {
		return nil, &QueryError{
			Op:  "device lookup",
			Err: fmt.Errorf("device index %d out of range, %d device(s) present: %w", index, count, nvml.ErrNotFound),
		}
	}

	dev, err := manager.Device(index)
	if err != nil {
		return nil, &QueryError{Op: "device lookup", Err: err}
	}

	return &Session{
		manager: manager,
		Device:  &adapter{dev: dev},
		Driver:  driver,
	}, nil
}

func (s *Session) Close() {
	if err := s.manager.Shutdown(); err != nil {
		log.Warnf("NVML shutdown: %v", err)
	}
}

func driverMajor(version string) int {
	major, err := strconv.Atoi(strings.SplitN(version, ".", 2)[0])
	if err != nil {
		return 0
	}
	return major
}

// adapter wraps one nvml.Device. Pure translation: each method is a single
// round-trip group with unit conversion, nothing more.
type adapter struct {
	dev nvml.Device
}

func (a *adapter) Name() (string, error) {
	name, err := a.dev.Name()
	if err != nil {
		return "", &QueryError{Op: "device name", Err: err}
	}
	return name, nil
}

func (a *adapter) Architecture() (string, error) {
	arch, err := a.dev.Architecture()
	if err != nil {
		return "", &QueryError{Op: "device architecture", Err: err}
	}
	return arch.String(), nil
}

func (a *adapter) Capabilities() (CapabilityEnvelope, error) {
	var env CapabilityEnvelope

	clockMin, clockMax, err := a.dev.MinMaxClockOfPState(nvml.ClockGraphics, nvml.PState0)
	if err != nil {
		return env, &QueryError{Op: "clock range", Err: err}
	}
	env.ClockMinMHz = clockMin
	env.ClockMaxMHz = clockMax

	graphics, err := a.dev.ClockOffsets(nvml.ClockGraphics)
	if err != nil {
		return env, &QueryError{Op: "graphics offset range", Err: err}
	}
	env.GraphicsOffsetMinMHz = graphics.MinMHz
	env.GraphicsOffsetMaxMHz = graphics.MaxMHz

	memory, err := a.dev.ClockOffsets(nvml.ClockMemory)
	if err != nil {
		return env, &QueryError{Op: "memory offset range", Err: err}
	}
	env.MemoryOffsetMinMHz = memory.MinMHz
	env.MemoryOffsetMaxMHz = memory.MaxMHz

	powerMin, powerMax, err := a.dev.PowerManagementLimitConstraints()
	if err != nil {
		return env, &QueryError{Op: "power limit constraints", Err: err}
	}
	env.PowerMinW = powerMin / milliwattsPerWatt
	env.PowerMaxW = powerMax / milliwattsPerWatt

	powerDefault, err := a.dev.PowerManagementDefaultLimit()
	if err != nil {
		return env, &QueryError{Op: "default power limit", Err: err}
	}
	env.PowerDefaultW = powerDefault / milliwattsPerWatt

	return env, nil
}

func (a *adapter) LiveState() (LiveState, error) {
	var state LiveState

	clock, err := a.dev.ClockInfo(nvml.ClockGraphics)
	if err != nil {
		return state, &QueryError{Op: "graphics clock", Err: err}
	}
	state.ClockMHz = clock

	memClock, err := a.dev.ClockInfo(nvml.ClockMemory)
	if err != nil {
		return state, &QueryError{Op: "memory clock", Err: err}
	}
	state.MemClockMHz = memClock

	graphics, err := a.dev.ClockOffsets(nvml.ClockGraphics)
	if err != nil {
		return state, &QueryError{Op: "graphics offset", Err: err}
	}
	state.GraphicsOffsetMHz = graphics.CurrentMHz

	memory, err := a.dev.ClockOffsets(nvml.ClockMemory)
	if err != nil {
		return state, &QueryError{Op: "memory offset", Err: err}
	}
	state.MemoryOffsetMHz = memory.CurrentMHz

	temp, err := a.dev.Temperature()
	if err != nil {
		return state, &QueryError{Op: "temperature", Err: err}
	}
	state.TemperatureC = temp

	power, err := a.dev.PowerUsage()
	if err != nil {
		return state, &QueryError{Op: "power usage", Err: err}
	}
	state.PowerDrawW = power / milliwattsPerWatt

	limit, err := a.dev.PowerManagementLimit()
	if err != nil {
		return state, &QueryError{Op: "power limit", Err: err}
	}
	state.PowerLimitW = limit / milliwattsPerWatt

	return state, nil
}

func (a *adapter) SetLockedClocks(minMHz, maxMHz uint32) error {
	return a.dev.SetGpuLockedClocks(minMHz, maxMHz)
}

func (a *adapter) SetGraphicsOffset(offsetMHz int32) error {
	return a.dev.SetClockOffset(nvml.ClockGraphics, nvml.PState0, offsetMHz)
}

func (a *adapter) SetMemoryOffset(offsetMHz int32) error {
	return a.dev.SetMemClkVfOffset(offsetMHz)
}

func (a *adapter) SetPowerLimit(watts uint32) error {
	return a.dev.SetPowerManagementLimit(watts * milliwattsPerWatt)
}

// ResetClocks restores dynamic clock behavior: park the locked window at
// idle, lift both clock locks, then zero the graphics and memory offsets.
// Every step is attempted; failures are reported together so the operator
// sees exactly which controls are still off default.
func (a *adapter) ResetClocks() error {
	if err := a.dev.SetGpuLockedClocks(idleClockMinMHz, idleClockMaxMHz); err != nil {
		log.Debugf("Parking clocks at idle before reset failed: %v", err)
	}

	var failed []string
	if err := a.dev.ResetGpuLockedClocks(); err != nil {
		log.Warnf("GPU locked clock reset: %v", err)
		failed = append(failed, "gpu locked clocks")
	}
	if err := a.dev.ResetMemoryLockedClocks(); err != nil {
		log.Warnf("Memory locked clock reset: %v", err)
		failed = append(failed, "memory locked clocks")
	}
	if err := a.dev.SetClockOffset(nvml.ClockGraphics, nvml.PState0, 0); err != nil {
		log.Warnf("Graphics offset reset: %v", err)
		failed = append(failed, "graphics offset")
	}
	if err := a.dev.SetMemClkVfOffset(0); err != nil {
		log.Warnf("Memory offset reset: %v", err)
		failed = append(failed, "memory offset")
	}

	if len(failed) > 0 {
		return fmt.Errorf("reset incomplete, still off default: %s", strings.Join(failed, ", "))
	}
	return nil
}

func (a *adapter) ResetPowerLimit() error {
	defaultMW, err := a.dev.PowerManagementDefaultLimit()
	if err != nil {
		return &QueryError{Op: "default power limit", Err: err}
	}
	return a.dev.SetPowerManagementLimit(defaultMW)
}
