// Package db stores a history of validation and export runs in sqlite.
// The schema is managed by embedded golang-migrate migrations.
package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/route-sculpture/internal/timeutil"
)

// DB wraps the sqlite handle.
type DB struct {
	*sql.DB
	path  string
	clock timeutil.Clock
}

// Open opens (or creates) the database at path and migrates it to the
// latest schema. Use ":memory:" for a private in-memory database.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if isMemory(path) {
		// every pooled connection would get its own empty database
		sqlDB.SetMaxOpenConns(1)
	}
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if !isMemory(path) {
		if _, err := sqlDB.Exec("PRAGMA journal_mode = WAL"); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("enable WAL: %w", err)
		}
	}

	db := &DB{DB: sqlDB, path: path, clock: timeutil.RealClock{}}
	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// SetClock replaces the clock used to stamp new runs.
func (db *DB) SetClock(c timeutil.Clock) { db.clock = c }

func isMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}
