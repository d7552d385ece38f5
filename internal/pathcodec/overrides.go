package pathcodec

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Overrides is the user-correction table mapping encoded tokens to the
// paths they should decode to. It is loaded once at startup and the
// backing file is rewritten on every mutation.
type Overrides struct {
	path string

	mu    sync.Mutex
	table map[string]string
}

// LoadOverrides reads the override file at path. A missing file yields an
// empty table, not an error.
func LoadOverrides(path string) (*Overrides, error) {
	o := &Overrides{
		path:  path,
		table: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return o, nil
		}
		return nil, fmt.Errorf("read overrides %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &o.table); err != nil {
		return nil, fmt.Errorf("parse overrides %s: %w", path, err)
	}
	return o, nil
}

// Get returns the corrected path for a token, if one was recorded.
func (o *Overrides) Get(token string) (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	path, ok := o.table[token]
	return path, ok
}

// Set records a correction and rewrites the backing file.
func (o *Overrides) Set(token, path string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.table[token] = path
	return o.save()
}

// Remove deletes a correction and rewrites the backing file. Removing an
// absent token is a no-op.
func (o *Overrides) Remove(token string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.table[token]; !ok {
		return nil
	}
	delete(o.table, token)
	return o.save()
}

// Len returns the number of recorded corrections.
func (o *Overrides) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.table)
}

// save writes the table to disk. Caller holds the lock.
func (o *Overrides) save() error {
	if err := os.MkdirAll(filepath.Dir(o.path), 0755); err != nil {
		return fmt.Errorf("create override dir: %w", err)
	}
	data, err := json.MarshalIndent(o.table, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(o.path, data, 0644); err != nil {
		return fmt.Errorf("write overrides %s: %w", o.path, err)
	}
	return nil
}
