// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"

	"github.com/jeranaias/rigchat/internal/model"
)

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// ErrUnknownBackend is returned by Open for an unrecognized backend name.
var ErrUnknownBackend = errors.New("unknown storage backend")

// Store loads and saves the conversation log.
type Store interface {
	// Load returns the saved entries in order. A store that has never been
	// saved returns no entries and no error.
	Load() ([]model.Entry, error)
	// Save replaces the saved log with entries.
	Save(entries []model.Entry) error
	// Path returns where the log lives, for messages.
	Path() string
	Close() error
}

// Open returns the store for backend at path.
func Open(backend, path string) (Store, error) {
	switch backend {
	case "", BackendJSON:
		return NewJSONStore(path), nil
	case BackendSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// LoadError describes why a saved log could not be loaded. Op is "read"
// or "parse".
type LoadError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("could not %s file %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// validate checks every loaded role.
func validate(path string, entries []model.Entry) error {
	for i, e := range entries {
		if !e.Role.Valid() {
			return &LoadError{Op: "parse", Path: path, Err: fmt.Errorf("entry %d: unknown role %q", i, e.Role)}
		}
	}
	return nil
}
