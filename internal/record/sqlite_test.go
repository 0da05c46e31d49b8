package record

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nvoc/internal/util"
)

func TestSQLiteRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history", "nvoc.db")

	recorder, err := NewSQLiteRecorder(&util.SQLiteConfig{Path: path})
	require.NoError(t, err)
	defer recorder.Close()

	now := time.Now()
	entries := []Entry{
		{
			Time:        now,
			DeviceIndex: 0,
			DeviceName:  "NVIDIA Test GPU",
			Command:     "apply",
			Operation:   "set power limit",
			Detail:      "set power limit to 518W (90%)",
			OK:          true,
		},
		{
			Time:        now,
			DeviceIndex: 0,
			DeviceName:  "NVIDIA Test GPU",
			Command:     "apply",
			Operation:   "set locked clocks",
			Detail:      "lock clocks to [1000, 2000]MHz",
			OK:          false,
			Reason:      "set locked clocks: insufficient permissions",
		},
	}
	require.NoError(t, recorder.Record(entries))

	var total, failed int
	row := recorder.db.QueryRow("SELECT COUNT(*) FROM operation_history")
	require.NoError(t, row.Scan(&total))
	row = recorder.db.QueryRow("SELECT COUNT(*) FROM operation_history WHERE ok = 0")
	require.NoError(t, row.Scan(&failed))
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, failed)

	var reason string
	row = recorder.db.QueryRow("SELECT reason FROM operation_history WHERE ok = 0")
	require.NoError(t, row.Scan(&reason))
	assert.Equal(t, "set locked clocks: insufficient permissions", reason)
}

func TestSQLiteRecorderEmptyBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nvoc.db")

	recorder, err := NewSQLiteRecorder(&util.SQLiteConfig{Path: path})
	require.NoError(t, err)
	defer recorder.Close()

	assert.NoError(t, recorder.Record(nil))
}

func TestNewRecorderFactory(t *testing.T) {
	recorder, err := New(util.HistoryConfig{Type: "none"})
	require.NoError(t, err)
	assert.Nil(t, recorder)

	path := filepath.Join(t.TempDir(), "nvoc.db")
	recorder, err = New(util.HistoryConfig{Type: "sqlite", SQLite: &util.SQLiteConfig{Path: path}})
	require.NoError(t, err)
	require.NotNil(t, recorder)
	assert.NoError(t, recorder.Close())

	_, err = New(util.HistoryConfig{Type: "postgres"})
	assert.Error(t, err)
}
