// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/rigchat/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS entries (
	seq     INTEGER PRIMARY KEY,
	role    TEXT NOT NULL,
	content TEXT NOT NULL
)`

// SQLiteStore keeps the log in the entries table of a SQLite database,
// ordered by seq.
type SQLiteStore struct {
	path string
	db   *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		sqliteSchema,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("initialize database: %w", err)
		}
	}
	return &SQLiteStore{path: path, db: db}, nil
}

// Path returns the database path.
func (s *SQLiteStore) Path() string { return s.path }

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Load reads all entries in order.
func (s *SQLiteStore) Load() ([]model.Entry, error) {
	rows, err := s.db.Query("SELECT role, content FROM entries ORDER BY seq")
	if err != nil {
		return nil, &LoadError{Op: "read", Path: s.path, Err: err}
	}
	defer rows.Close()

	var entries []model.Entry
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, &LoadError{Op: "parse", Path: s.path, Err: err}
		}
		r, err := model.ParseRole(role)
		if err != nil {
			return nil, &LoadError{Op: "parse", Path: s.path, Err: fmt.Errorf("entry %d: %w", len(entries), err)}
		}
		entries = append(entries, model.NewEntry(r, content))
	}
	if err := rows.Err(); err != nil {
		return nil, &LoadError{Op: "read", Path: s.path, Err: err}
	}
	if err := validate(s.path, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Save replaces every row in one transaction.
func (s *SQLiteStore) Save(entries []model.Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM entries"); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	stmt, err := tx.Prepare("INSERT INTO entries (seq, role, content) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		if _, err := stmt.Exec(i, string(e.Role), e.Content); err != nil {
			return fmt.Errorf("insert entry %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
