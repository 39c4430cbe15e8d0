package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/branchgraph/branchgraph/internal/logging"
	_ "github.com/mattn/go-sqlite3"
)

var log = logging.GetLogger("store")

// Store represents a connection to the embedded SQLite database backing
// the entity-relation graph.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.RWMutex
}

// Open opens a database connection, initializes the schema if needed, and
// pre-seeds the main branch.
func Open(path string) (*Store, error) {
	log.Info("opening store", "path", path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Error("failed to create store directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("%w: failed to create store directory: %v", ErrStorage, err)
	}

	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		log.Error("failed to open database", "error", err)
		return nil, fmt.Errorf("%w: failed to open database: %v", ErrStorage, err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		log.Error("failed to ping database", "error", err)
		return nil, fmt.Errorf("%w: failed to ping database: %v", ErrStorage, err)
	}

	s := &Store{db: db, path: path}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.ensureMainBranch(); err != nil {
		db.Close()
		return nil, err
	}

	log.Info("store ready", "path", path)
	return s, nil
}

// initSchema creates all tables, indexes, triggers, and FTS5 configuration
// if they do not already exist.
func (s *Store) initSchema() error {
	log.Info("initializing schema", "version", SchemaVersion)

	s.mu.Lock()
	defer s.mu.Unlock()

	var tableName string
	err := s.db.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='branches'
		LIMIT 1
	`).Scan(&tableName)
	if err == nil && tableName != "" {
		log.Info("schema already initialized")
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: failed to begin schema transaction: %v", ErrStorage, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(CoreSchema); err != nil {
		return fmt.Errorf("%w: failed to create core schema: %v", ErrStorage, err)
	}

	if _, err := tx.Exec(FTS5Schema); err != nil {
		log.Warn("failed to create FTS5 schema (search will degrade to keyword+LIKE)", "error", err)
	}

	if _, err := tx.Exec(`
		INSERT OR REPLACE INTO schema_version (version, applied_at)
		VALUES (?, CURRENT_TIMESTAMP)
	`, SchemaVersion); err != nil {
		return fmt.Errorf("%w: failed to record schema version: %v", ErrStorage, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit schema: %v", ErrStorage, err)
	}

	log.Info("schema initialized", "version", SchemaVersion)
	return nil
}

// ensureMainBranch pre-seeds the main branch with id 1 if absent.
func (s *Store) ensureMainBranch() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO branches (id, name, purpose) VALUES (1, ?, 'default branch')
	`, MainBranch)
	if err != nil {
		return fmt.Errorf("%w: failed to seed main branch: %v", ErrStorage, err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	log.Info("closing store")
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("%w: %v", ErrStorage, err)
		}
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// exec executes a SQL statement under the write mutex.
func (s *Store) exec(query string, args ...interface{}) (sql.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Exec(query, args...)
}

// query executes a SQL query and returns rows under the read mutex.
func (s *Store) query(query string, args ...interface{}) (*sql.Rows, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db.Query(query, args...)
}

// queryRow executes a SQL query and returns a single row under the read
// mutex.
func (s *Store) queryRow(query string, args ...interface{}) *sql.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db.QueryRow(query, args...)
}

// begin starts a new transaction. Callers serialize through the store's
// single-writer connection pool (SetMaxOpenConns(1)), so no additional
// locking is needed around the transaction's lifetime.
func (s *Store) begin() (*sql.Tx, error) {
	return s.db.Begin()
}

// GetSchemaVersion returns the current schema version.
func (s *Store) GetSchemaVersion() (int, error) {
	var version int
	err := s.queryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to get schema version: %v", ErrStorage, err)
	}
	return version, nil
}

// TableExists checks if a table exists in the database.
func (s *Store) TableExists(name string) (bool, error) {
	var count int
	err := s.queryRow(`
		SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?
	`, name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return count > 0, nil
}

// CheckFTSParity counts entities_fts rows with no matching entities row
// (orphaned) and entities rows with no matching entities_fts row (missing),
// the two ways the shadow-row-parity invariant can be violated.
func (s *Store) CheckFTSParity() (orphaned, missing int, err error) {
	row := s.queryRow(`SELECT
		(SELECT COUNT(*) FROM entities_fts f WHERE NOT EXISTS (SELECT 1 FROM entities e WHERE e.id = f.rowid)),
		(SELECT COUNT(*) FROM entities e WHERE NOT EXISTS (SELECT 1 FROM entities_fts f WHERE f.rowid = e.id))`)
	if err := row.Scan(&orphaned, &missing); err != nil {
		return 0, 0, fmt.Errorf("%w: failed to check FTS parity: %v", ErrStorage, err)
	}
	return orphaned, missing, nil
}

// Vacuum runs VACUUM to optimize the database file.
func (s *Store) Vacuum() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("VACUUM")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

// Checkpoint forces a WAL checkpoint.
func (s *Store) Checkpoint() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

// RecordMetric appends a row to store_metrics. Nothing in this repository
// calls it, and no command or core search/similarity logic reads
// store_metrics.
func (s *Store) RecordMetric(operation string, duration time.Duration, rowCount int) {
	_, err := s.exec(`
		INSERT INTO store_metrics (operation, duration_ms, row_count) VALUES (?, ?, ?)
	`, operation, float64(duration.Microseconds())/1000.0, rowCount)
	if err != nil {
		log.Warn("failed to record metric", "error", err, "operation", operation)
	}
}

// Stats returns store-wide statistics.
func (s *Store) Stats() (*Stats, error) {
	stats := &Stats{Path: s.path}

	version, err := s.GetSchemaVersion()
	if err == nil {
		stats.SchemaVersion = version
	}

	s.queryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table'").Scan(&stats.TableCount)
	s.queryRow("SELECT COUNT(*) FROM branches").Scan(&stats.BranchCount)
	s.queryRow("SELECT COUNT(*) FROM entities").Scan(&stats.EntityCount)
	s.queryRow("SELECT COUNT(*) FROM observations").Scan(&stats.ObservationCount)
	s.queryRow("SELECT COUNT(*) FROM relations").Scan(&stats.RelationCount)
	s.queryRow("SELECT COUNT(*) FROM keywords").Scan(&stats.KeywordCount)

	if info, err := os.Stat(s.path); err == nil {
		stats.FileSizeBytes = info.Size()
	}

	return stats, nil
}
