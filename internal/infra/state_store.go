package infra

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Ensure sqlcipher driver is registered.
	_ "github.com/mutecomm/go-sqlcipher/v4"

	"github.com/eliteGoblin/focusd/cluely_mon/internal/domain"
)

const (
	stateDBName = "state.db"
)

// EncryptedStateStore implements domain.ResultStore using a SQLCipher
// encrypted SQLite database. Only the most recent result is kept.
type EncryptedStateStore struct {
	db             *sql.DB
	dbPath         string
	processManager domain.ProcessManager
}

// NewEncryptedStateStore opens (or creates) the encrypted state database.
// The key is used as the SQLCipher passphrase via PRAGMA key.
func NewEncryptedStateStore(dataDir string, key []byte, pm domain.ProcessManager) (*EncryptedStateStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, stateDBName)
	keyHex := hex.EncodeToString(key)

	dsn := fmt.Sprintf("%s?_pragma_key=x'%s'&_pragma_cipher_page_size=4096", dbPath, keyHex)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open encrypted database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to encrypted database: %w", err)
	}

	s := &EncryptedStateStore{
		db:             db,
		dbPath:         dbPath,
		processManager: pm,
	}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// createTables creates the schema if it doesn't exist.
// Single-row tables are pinned to id = 1.
func (s *EncryptedStateStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS last_result (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		result BLOB NOT NULL,
		severity TEXT NOT NULL,
		observed_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS monitor_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		pid INTEGER NOT NULL,
		interval_ms INTEGER NOT NULL,
		started_at INTEGER NOT NULL,
		app_version TEXT DEFAULT ''
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveResult replaces the stored result.
func (s *EncryptedStateStore) SaveResult(r domain.StoredResult) error {
	blob, err := r.Result.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO last_result (id, result, severity, observed_at)
		VALUES (1, ?, ?, ?)`,
		blob, r.Severity.String(), r.ObservedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

// LastResult returns the stored result, or nil if none was saved.
// Severity is recomputed from the decoded result.
func (s *EncryptedStateStore) LastResult() (*domain.StoredResult, error) {
	var blob []byte
	var observed int64
	err := s.db.QueryRow(`SELECT result, observed_at FROM last_result WHERE id = 1`).Scan(&blob, &observed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read result: %w", err)
	}

	var r domain.DetectionResult
	if err := r.UnmarshalBinary(blob); err != nil {
		return nil, fmt.Errorf("failed to decode stored result: %w", err)
	}

	return &domain.StoredResult{
		Result:     r,
		Severity:   domain.SeverityOf(r),
		ObservedAt: time.Unix(0, observed),
	}, nil
}

// RegisterMonitor records the running monitor process.
func (s *EncryptedStateStore) RegisterMonitor(reg domain.MonitorRegistration) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO monitor_state (id, pid, interval_ms, started_at, app_version)
		VALUES (1, ?, ?, ?, ?)`,
		reg.PID, reg.Interval.Milliseconds(), reg.StartedAt.Unix(), reg.AppVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to register monitor: %w", err)
	}
	return nil
}

// GetMonitor returns the registered monitor, or nil if none.
func (s *EncryptedStateStore) GetMonitor() (*domain.MonitorRegistration, error) {
	var pid int
	var intervalMS, started int64
	var version string
	err := s.db.QueryRow(`SELECT pid, interval_ms, started_at, app_version FROM monitor_state WHERE id = 1`).
		Scan(&pid, &intervalMS, &started, &version)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read monitor state: %w", err)
	}

	return &domain.MonitorRegistration{
		PID:        pid,
		Interval:   time.Duration(intervalMS) * time.Millisecond,
		StartedAt:  time.Unix(started, 0),
		AppVersion: version,
	}, nil
}

// ClearMonitor removes the monitor registration.
func (s *EncryptedStateStore) ClearMonitor() error {
	_, err := s.db.Exec(`DELETE FROM monitor_state`)
	return err
}

// IsMonitorAlive checks if the registered monitor is running via PID.
func (s *EncryptedStateStore) IsMonitorAlive() (bool, error) {
	reg, err := s.GetMonitor()
	if err != nil {
		return false, err
	}
	if reg == nil || s.processManager == nil {
		return false, nil
	}
	return s.processManager.IsRunning(reg.PID), nil
}

// GetStorePath returns the database file path.
func (s *EncryptedStateStore) GetStorePath() string {
	return s.dbPath
}

// Close releases the database connection.
func (s *EncryptedStateStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ensure EncryptedStateStore implements domain.ResultStore.
var _ domain.ResultStore = (*EncryptedStateStore)(nil)
