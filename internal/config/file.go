package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

// FileKV stores every key as a top-level entry of one TOML file.
//
// Each operation re-reads the file: other processes (the configure command,
// an editor) may write it at any time. Writes go through a temp file and a
// rename so readers never observe a half-written document.
type FileKV struct {
	path string
	mu   sync.Mutex
}

func NewFileKV(path string) *FileKV {
	return &FileKV{path: path}
}

// Path returns the backing file.
func (f *FileKV) Path() string {
	return f.path
}

func (f *FileKV) Get(_ context.Context, key string, dst any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var doc map[string]toml.Primitive
	meta, err := toml.DecodeFile(f.path, &doc)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", f.path, err)
	}

	prim, ok := doc[key]
	if !ok {
		return false, nil
	}
	if err := meta.PrimitiveDecode(prim, dst); err != nil {
		return true, fmt.Errorf("failed to decode %s from %s: %w", key, f.path, err)
	}
	return true, nil
}

func (f *FileKV) Set(_ context.Context, key string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.readAll()
	if err != nil {
		return err
	}
	doc[key] = value
	return f.writeAll(doc)
}

func (f *FileKV) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.readAll()
	if err != nil {
		return err
	}
	if _, ok := doc[key]; !ok {
		return nil
	}
	delete(doc, key)
	return f.writeAll(doc)
}

func (f *FileKV) readAll() (map[string]any, error) {
	doc := make(map[string]any)
	if _, err := toml.DecodeFile(f.path, &doc); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, nil
		}
		return nil, fmt.Errorf("failed to parse %s: %w", f.path, err)
	}
	return doc, nil
}

func (f *FileKV) writeAll(doc map[string]any) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(doc); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode %s: %w", f.path, err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}
