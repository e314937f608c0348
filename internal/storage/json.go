// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/util"
)

// JSONStore keeps the log in a single JSON file:
//
//	[{"role":"user","content":"hi"},{"role":"assistant","content":"Hello!"}]
//
// Files holding the older two-element array form ([["user","hi"], ...])
// are read too and rewritten as objects on the next save.
type JSONStore struct {
	path string
}

// NewJSONStore creates a store for the file at path. Nothing is touched on
// disk until Save.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the file path.
func (s *JSONStore) Path() string { return s.path }

// Close is a no-op.
func (s *JSONStore) Close() error { return nil }

// Load reads the file. A missing file is an empty log.
func (s *JSONStore) Load() ([]model.Entry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &LoadError{Op: "read", Path: s.path, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &LoadError{Op: "parse", Path: s.path, Err: err}
	}
	entries := make([]model.Entry, 0, len(raw))
	for i, r := range raw {
		e, err := decodeEntry(r)
		if err != nil {
			return nil, &LoadError{Op: "parse", Path: s.path, Err: fmt.Errorf("entry %d: %w", i, err)}
		}
		entries = append(entries, e)
	}
	if err := validate(s.path, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func decodeEntry(r json.RawMessage) (model.Entry, error) {
	r = bytes.TrimSpace(r)
	if len(r) > 0 && r[0] == '[' {
		var pair []string
		if err := json.Unmarshal(r, &pair); err != nil {
			return model.Entry{}, err
		}
		if len(pair) != 2 {
			return model.Entry{}, fmt.Errorf("expected [role, content], got %d fields", len(pair))
		}
		role, err := model.ParseRole(pair[0])
		if err != nil {
			return model.Entry{}, err
		}
		return model.NewEntry(role, pair[1]), nil
	}
	var e model.Entry
	err := json.Unmarshal(r, &e)
	return e, err
}

// Save writes the whole log atomically with owner-only permissions.
func (s *JSONStore) Save(entries []model.Entry) error {
	if entries == nil {
		entries = []model.Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	if err := util.AtomicWriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}
