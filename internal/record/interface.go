package record

import (
	"fmt"
	"time"

	"nvoc/internal/util"
)

// Entry is one attempted hardware operation, as written to history storage.
type Entry struct {
	Time        time.Time
	DeviceIndex int
	DeviceName  string
	Command     string // "apply" or "reset"
	Operation   string
	Detail      string
	OK          bool
	Reason      string
}

// Recorder persists operation history. Recording is best-effort: callers log
// failures and move on, the exit code never depends on the recorder.
type Recorder interface {
	Record(entries []Entry) error
	Close() error
}

// New builds the recorder selected by cfg. A "none" history type yields
// (nil, nil); callers skip recording entirely.
func New(cfg util.HistoryConfig) (Recorder, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil

	case "sqlite":
		if cfg.SQLite == nil {
			return nil, fmt.Errorf("sqlite config is nil")
		}
		return NewSQLiteRecorder(cfg.SQLite)

	case "influxdb":
		if cfg.InfluxDB == nil {
			return nil, fmt.Errorf("influxdb config is nil")
		}
		return NewInfluxDBRecorder(cfg.InfluxDB)

	default:
		return nil, fmt.Errorf("unsupported history type: %s", cfg.Type)
	}
}
