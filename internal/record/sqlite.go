package record

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"nvoc/internal/util"
)

const schema = `
CREATE TABLE IF NOT EXISTS operation_history (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	applied_at   TIMESTAMP NOT NULL,
	device_index INTEGER NOT NULL,
	device_name  TEXT NOT NULL,
	command      TEXT NOT NULL,
	operation    TEXT NOT NULL,
	detail       TEXT NOT NULL,
	ok           INTEGER NOT NULL,
	reason       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_history_applied_at ON operation_history(applied_at);
`

type SQLiteRecorder struct {
	db *sql.DB
}

func NewSQLiteRecorder(cfg *util.SQLiteConfig) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0750); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL", cfg.Path)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}

	return &SQLiteRecorder{db: db}, nil
}

func (r *SQLiteRecorder) Record(entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning history transaction: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO operation_history
		(applied_at, device_index, device_name, command, operation, detail, ok, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing history insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(e.Time, e.DeviceIndex, e.DeviceName, e.Command, e.Operation, e.Detail, e.OK, e.Reason); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting history entry: %w", err)
		}
	}

	return tx.Commit()
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
