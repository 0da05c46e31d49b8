package nvml

import (
	"errors"
	"fmt"
)

// ClockType selects which clock domain an NVML call targets. Values match
// nvmlClockType_t.
type ClockType int

const (
	ClockGraphics ClockType = 0
	ClockMemory   ClockType = 2
)

// PState is an NVML performance state. Overclocking only ever touches P0.
type PState int

const PState0 PState = 0

// ClockOffsets is the result of an NVML clock-offset query: the offset
// currently programmed plus the range the driver will accept.
type ClockOffsets struct {
	CurrentMHz int32
	MinMHz     int32
	MaxMHz     int32
}

// Architecture identifies the GPU generation, per nvmlDeviceArchitecture_t.
type Architecture uint32

const (
	ArchKepler    Architecture = 2
	ArchMaxwell   Architecture = 3
	ArchPascal    Architecture = 4
	ArchVolta     Architecture = 5
	ArchTuring    Architecture = 6
	ArchAmpere    Architecture = 7
	ArchAda       Architecture = 8
	ArchHopper    Architecture = 9
	ArchBlackwell Architecture = 10
	ArchUnknown   Architecture = 0xffffffff
)

func (a Architecture) String() string {
	switch a {
	case ArchKepler:
		return "Kepler"
	case ArchMaxwell:
		return "Maxwell"
	case ArchPascal:
		return "Pascal"
	case ArchVolta:
		return "Volta"
	case ArchTuring:
		return "Turing"
	case ArchAmpere:
		return "Ampere"
	case ArchAda:
		return "Ada"
	case ArchHopper:
		return "Hopper"
	case ArchBlackwell:
		return "Blackwell"
	default:
		return "Unknown"
	}
}

// Device is one NVML device handle. Power values are milliwatts, the unit
// NVML reports; conversion to watts happens above this layer.
type Device interface {
	Name() (string, error)
	Architecture() (Architecture, error)
	Temperature() (uint32, error)

	PowerUsage() (uint32, error)
	PowerManagementLimit() (uint32, error)
	PowerManagementDefaultLimit() (uint32, error)
	PowerManagementLimitConstraints() (minMW, maxMW uint32, err error)
	SetPowerManagementLimit(limitMW uint32) error

	ClockInfo(ct ClockType) (uint32, error)
	MinMaxClockOfPState(ct ClockType, ps PState) (minMHz, maxMHz uint32, err error)
	ClockOffsets(ct ClockType) (ClockOffsets, error)
	SetClockOffset(ct ClockType, ps PState, offsetMHz int32) error
	SetMemClkVfOffset(offsetMHz int32) error

	SetGpuLockedClocks(minMHz, maxMHz uint32) error
	ResetGpuLockedClocks() error
	ResetMemoryLockedClocks() error
}

// Manager owns the NVML library lifetime and device enumeration.
type Manager interface {
	Init() error
	Shutdown() error
	DriverVersion() (string, error)
	DeviceCount() (int, error)
	Device(index int) (Device, error)
}

// Sentinel errors for the NVML failure classes callers branch on. All other
// return codes surface as opaque errors carrying the NVML code.
var (
	ErrNoPermission = errors.New("insufficient permissions")
	ErrNotSupported = errors.New("operation not supported on this device")
	ErrNotFound     = errors.New("device not found")
	ErrNotLoaded    = errors.New("built without NVML support, rebuild with -tags with_nvml")
)

// nvmlReturn_t codes this layer gives dedicated errors.
const (
	retSuccess      = 0
	retNotSupported = 3
	retNoPermission = 4
	retNotFound     = 6
)

func wrapReturn(op string, code uint32) error {
	if code == retSuccess {
		return nil
	}
	switch code {
	case retNoPermission:
		return fmt.Errorf("%s: %w", op, ErrNoPermission)
	case retNotSupported:
		return fmt.Errorf("%s: %w", op, ErrNotSupported)
	case retNotFound:
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	default:
		return fmt.Errorf("%s failed: nvml error %d", op, code)
	}
}
