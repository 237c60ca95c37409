// Package jsonstore keeps each registry as one JSON document on disk with
// an in-memory authoritative copy. Every mutation happens under the store's
// mutex and is persisted before returning, which serializes writers per
// registry and removes the lost-update window of unlocked read-modify-write.
package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// document is one JSON file. Callers are expected to hold their own lock
// around load/save pairs; document itself only handles IO.
type document struct {
	path string
}

// load decodes the file into v. A missing file is not an error: v keeps its
// zero value and the first save creates the file.
func (d *document) load(v any) error {
	b, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", d.path, err)
	}
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("parse %s: %w", d.path, err)
	}
	return nil
}

// save writes v atomically: marshal to a temp file in the same directory,
// then rename over the target.
func (d *document) save(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", d.path, err)
	}
	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(d.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("tempfile for %s: %w", d.path, err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", d.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", d.path, err)
	}
	if err := os.Rename(tmp.Name(), d.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename %s: %w", d.path, err)
	}
	return nil
}
