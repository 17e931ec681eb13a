// Package store owns the canonical collection of agreements for one
// session, backed by a durable key-value slot.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	slotDirPerm  = 0o755
	slotFilePerm = 0o644
)

// Slot is the durable storage collaborator: one named key holding one
// serialized document. Load returns (nil, nil) when the slot has never been
// written; that is an expected first-run outcome, not an error.
type Slot interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// FileSlot stores the document as <dir>/<key>.json with an atomic
// write-temp-then-rename.
type FileSlot struct {
	path string
}

// NewFileSlot creates a file-backed slot for the given key.
func NewFileSlot(dir, key string) (*FileSlot, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("store: slot directory required")
	}
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("store: slot key required")
	}
	return &FileSlot{path: filepath.Join(dir, key+".json")}, nil
}

// Path returns the backing file path.
func (s *FileSlot) Path() string {
	return s.path
}

func (s *FileSlot) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read slot %s: %w", s.path, err)
	}
	return data, nil
}

func (s *FileSlot) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), slotDirPerm); err != nil {
		return fmt.Errorf("store: ensure slot directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, slotFilePerm); err != nil {
		return fmt.Errorf("store: write slot temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("store: commit slot file: %w", err)
	}
	return nil
}

// Delete removes the backing file. Missing files are not an error.
func (s *FileSlot) Delete() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("store: delete slot %s: %w", s.path, err)
	}
	return nil
}
