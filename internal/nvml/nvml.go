//go:build with_nvml

package nvml

/*
#cgo LDFLAGS: -lnvidia-ml
#include <nvml.h>
*/
import "C"

type nvmlDevice struct {
	handle C.nvmlDevice_t
}

type nvmlManager struct{}

// New returns the NVML-backed manager.
func New() Manager {
	return &nvmlManager{}
}

func (m *nvmlManager) Init() error {
	return wrapReturn("nvmlInit", uint32(C.nvmlInit()))
}

func (m *nvmlManager) Shutdown() error {
	return wrapReturn("nvmlShutdown", uint32(C.nvmlShutdown()))
}

func (m *nvmlManager) DriverVersion() (string, error) {
	var version [C.NVML_SYSTEM_DRIVER_VERSION_BUFFER_SIZE]C.char
	result := C.nvmlSystemGetDriverVersion(&version[0], C.NVML_SYSTEM_DRIVER_VERSION_BUFFER_SIZE)
	if result != C.NVML_SUCCESS {
		return "", wrapReturn("nvmlSystemGetDriverVersion", uint32(result))
	}
	return C.GoString(&version[0]), nil
}

func (m *nvmlManager) DeviceCount() (int, error) {
	var count C.uint
	if result := C.nvmlDeviceGetCount(&count); result != C.NVML_SUCCESS {
		return 0, wrapReturn("nvmlDeviceGetCount", uint32(result))
	}
	return int(count), nil
}

func (m *nvmlManager) Device(index int) (Device, error) {
	var handle C.nvmlDevice_t
	if result := C.nvmlDeviceGetHandleByIndex(C.uint(index), &handle); result != C.NVML_SUCCESS {
		return nil, wrapReturn("nvmlDeviceGetHandleByIndex", uint32(result))
	}
	return &nvmlDevice{handle: handle}, nil
}

func (d *nvmlDevice) Name() (string, error) {
	var name [C.NVML_DEVICE_NAME_BUFFER_SIZE]C.char
	result := C.nvmlDeviceGetName(d.handle, &name[0], C.NVML_DEVICE_NAME_BUFFER_SIZE)
	if result != C.NVML_SUCCESS {
		return "", wrapReturn("nvmlDeviceGetName", uint32(result))
	}
	return C.GoString(&name[0]), nil
}

func (d *nvmlDevice) Architecture() (Architecture, error) {
	var arch C.nvmlDeviceArchitecture_t
	if result := C.nvmlDeviceGetArchitecture(d.handle, &arch); result != C.NVML_SUCCESS {
		return ArchUnknown, wrapReturn("nvmlDeviceGetArchitecture", uint32(result))
	}
	return Architecture(arch), nil
}

func (d *nvmlDevice) Temperature() (uint32, error) {
	var temp C.uint
	if result := C.nvmlDeviceGetTemperature(d.handle, C.NVML_TEMPERATURE_GPU, &temp); result != C.NVML_SUCCESS {
		return 0, wrapReturn("nvmlDeviceGetTemperature", uint32(result))
	}
	return uint32(temp), nil
}

func (d *nvmlDevice) PowerUsage() (uint32, error) {
	var power C.uint
	if result := C.nvmlDeviceGetPowerUsage(d.handle, &power); result != C.NVML_SUCCESS {
		return 0, wrapReturn("nvmlDeviceGetPowerUsage", uint32(result))
	}
	return uint32(power), nil
}

func (d *nvmlDevice) PowerManagementLimit() (uint32, error) {
	var limit C.uint
	if result := C.nvmlDeviceGetPowerManagementLimit(d.handle, &limit); result != C.NVML_SUCCESS {
		return 0, wrapReturn("nvmlDeviceGetPowerManagementLimit", uint32(result))
	}
	return uint32(limit), nil
}

func (d *nvmlDevice) PowerManagementDefaultLimit() (uint32, error) {
	var limit C.uint
	if result := C.nvmlDeviceGetPowerManagementDefaultLimit(d.handle, &limit); result != C.NVML_SUCCESS {
		return 0, wrapReturn("nvmlDeviceGetPowerManagementDefaultLimit", uint32(result))
	}
	return uint32(limit), nil
}

func (d *nvmlDevice) PowerManagementLimitConstraints() (uint32, uint32, error) {
	var minLimit, maxLimit C.uint
	result := C.nvmlDeviceGetPowerManagementLimitConstraints(d.handle, &minLimit, &maxLimit)
	if result != C.NVML_SUCCESS {
		return 0, 0, wrapReturn("nvmlDeviceGetPowerManagementLimitConstraints", uint32(result))
	}
	return uint32(minLimit), uint32(maxLimit), nil
}

func (d *nvmlDevice) SetPowerManagementLimit(limitMW uint32) error {
	result := C.nvmlDeviceSetPowerManagementLimit(d.handle, C.uint(limitMW))
	return wrapReturn("nvmlDeviceSetPowerManagementLimit", uint32(result))
}

func (d *nvmlDevice) ClockInfo(ct ClockType) (uint32, error) {
	var clock C.uint
	result := C.nvmlDeviceGetClockInfo(d.handle, C.nvmlClockType_t(ct), &clock)
	if result != C.NVML_SUCCESS {
		return 0, wrapReturn("nvmlDeviceGetClockInfo", uint32(result))
	}
	return uint32(clock), nil
}

func (d *nvmlDevice) MinMaxClockOfPState(ct ClockType, ps PState) (uint32, uint32, error) {
	var minClock, maxClock C.uint
	result := C.nvmlDeviceGetMinMaxClockOfPState(d.handle, C.nvmlClockType_t(ct), C.nvmlPstates_t(ps), &minClock, &maxClock)
	if result != C.NVML_SUCCESS {
		return 0, 0, wrapReturn("nvmlDeviceGetMinMaxClockOfPState", uint32(result))
	}
	return uint32(minClock), uint32(maxClock), nil
}

func (d *nvmlDevice) ClockOffsets(ct ClockType) (ClockOffsets, error) {
	var info C.nvmlClockOffset_v1_t
	info.version = C.nvmlClockOffset_v1
	info._type = C.nvmlClockType_t(ct)
	info.pstate = C.nvmlPstates_t(PState0)

	if result := C.nvmlDeviceGetClockOffsets(d.handle, &info); result != C.NVML_SUCCESS {
		return ClockOffsets{}, wrapReturn("nvmlDeviceGetClockOffsets", uint32(result))
	}
	return ClockOffsets{
		CurrentMHz: int32(info.clockOffsetMHz),
		MinMHz:     int32(info.minClockOffsetMHz),
		MaxMHz:     int32(info.maxClockOffsetMHz),
	}, nil
}

func (d *nvmlDevice) SetClockOffset(ct ClockType, ps PState, offsetMHz int32) error {
	var info C.nvmlClockOffset_v1_t
	info.version = C.nvmlClockOffset_v1
	info._type = C.nvmlClockType_t(ct)
	info.pstate = C.nvmlPstates_t(ps)
	info.clockOffsetMHz = C.int(offsetMHz)

	result := C.nvmlDeviceSetClockOffsets(d.handle, &info)
	return wrapReturn("nvmlDeviceSetClockOffsets", uint32(result))
}

func (d *nvmlDevice) SetMemClkVfOffset(offsetMHz int32) error {
	result := C.nvmlDeviceSetMemClkVfOffset(d.handle, C.int(offsetMHz))
	return wrapReturn("nvmlDeviceSetMemClkVfOffset", uint32(result))
}

func (d *nvmlDevice) SetGpuLockedClocks(minMHz, maxMHz uint32) error {
	result := C.nvmlDeviceSetGpuLockedClocks(d.handle, C.uint(minMHz), C.uint(maxMHz))
	return wrapReturn("nvmlDeviceSetGpuLockedClocks", uint32(result))
}

func (d *nvmlDevice) ResetGpuLockedClocks() error {
	return wrapReturn("nvmlDeviceResetGpuLockedClocks", uint32(C.nvmlDeviceResetGpuLockedClocks(d.handle)))
}

func (d *nvmlDevice) ResetMemoryLockedClocks() error {
	return wrapReturn("nvmlDeviceResetMemoryLockedClocks", uint32(C.nvmlDeviceResetMemoryLockedClocks(d.handle)))
}
