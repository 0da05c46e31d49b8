//go:build !with_nvml

package nvml

// Stub build for hosts without the NVIDIA driver stack. Every call reports
// ErrNotLoaded so a mistakenly deployed tag-less binary fails loudly instead
// of pretending the hardware accepted anything.

type stubManager struct{}

// New returns the stub manager.
func New() Manager {
	return &stubManager{}
}

func (m *stubManager) Init() error                    { return ErrNotLoaded }
func (m *stubManager) Shutdown() error                { return nil }
func (m *stubManager) DriverVersion() (string, error) { return "", ErrNotLoaded }
func (m *stubManager) DeviceCount() (int, error)      { return 0, ErrNotLoaded }
func (m *stubManager) Device(index int) (Device, error) {
	return nil, ErrNotLoaded
}
