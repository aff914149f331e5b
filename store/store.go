// Package store persists enumeration results to sqlite so captures can be
// compared and queried after the guest is gone.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"govmi/osi"
)

// DB handles database operations for recorded captures.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the capture database at path. Use ":memory:" for
// an ephemeral database.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS captures (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		profile   TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS processes (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		capture_id INTEGER NOT NULL REFERENCES captures(id),
		task_addr  INTEGER NOT NULL,
		asid       INTEGER,
		pid        INTEGER NOT NULL,
		ppid       INTEGER NOT NULL,
		name       TEXT
	);
	CREATE TABLE IF NOT EXISTS threads (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		capture_id INTEGER NOT NULL REFERENCES captures(id),
		tid        INTEGER NOT NULL,
		pid        INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS modules (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		capture_id INTEGER NOT NULL REFERENCES captures(id),
		pid        INTEGER NOT NULL,
		vma_addr   INTEGER NOT NULL,
		base       INTEGER NOT NULL,
		size       INTEGER NOT NULL,
		file       TEXT,
		name       TEXT
	);`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_proc_capture ON processes(capture_id);",
		"CREATE INDEX IF NOT EXISTS idx_proc_pid ON processes(pid);",
		"CREATE INDEX IF NOT EXISTS idx_thread_capture ON threads(capture_id);",
		"CREATE INDEX IF NOT EXISTS idx_module_capture ON modules(capture_id);",
		"CREATE INDEX IF NOT EXISTS idx_module_pid ON modules(pid);",
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// BeginCapture records a new capture row and returns its id.
func (d *DB) BeginCapture(profileName string) (int64, error) {
	res, err := d.db.Exec(
		"INSERT INTO captures (timestamp, profile) VALUES (?, ?)",
		time.Now(), profileName,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert capture: %w", err)
	}
	return res.LastInsertId()
}

// RecordProcesses inserts a complete process enumeration in one transaction.
func (d *DB) RecordProcesses(captureID int64, procs []osi.Proc) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(
		"INSERT INTO processes (capture_id, task_addr, asid, pid, ppid, name) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, p := range procs {
		if _, err := stmt.Exec(captureID, int64(p.TaskAddr), int64(p.ASID), p.PID, p.PPID, p.Name); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert process %d: %w", p.PID, err)
		}
	}
	return tx.Commit()
}

// RecordThreads inserts a complete thread enumeration in one transaction.
func (d *DB) RecordThreads(captureID int64, threads []osi.Thread) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(
		"INSERT INTO threads (capture_id, tid, pid) VALUES (?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, t := range threads {
		if _, err := stmt.Exec(captureID, t.TID, t.PID); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert thread %d: %w", t.TID, err)
		}
	}
	return tx.Commit()
}

// RecordModules inserts a process's complete module list in one transaction.
func (d *DB) RecordModules(captureID int64, pid uint32, mods []osi.Module) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(
		"INSERT INTO modules (capture_id, pid, vma_addr, base, size, file, name) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, m := range mods {
		if _, err := stmt.Exec(captureID, pid, int64(m.VMAAddr), int64(m.Base), int64(m.Size), m.File, m.Name); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert module %s: %w", m.Name, err)
		}
	}
	return tx.Commit()
}

// CountProcesses returns the number of process rows for a capture.
func (d *DB) CountProcesses(captureID int64) (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM processes WHERE capture_id = ?", captureID).Scan(&n)
	return n, err
}
