package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ppiankov/mediator/internal/model"
)

// FileStore keeps one JSON file per record under <dir>/<kind>/.
// Writes go through a temp file and an atomic rename. Updates of the same
// id are serialized by an in-process lock, so a FileStore must not be
// shared between processes.
type FileStore[T any] struct {
	dir   string
	locks sync.Map // id -> *sync.Mutex
}

// NewFileStore creates a file store for one record kind
func NewFileStore[T any](baseDir, kind string) *FileStore[T] {
	return &FileStore[T]{dir: filepath.Join(baseDir, kind)}
}

func (s *FileStore[T]) lock(id string) func() {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *FileStore[T]) path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("%w: bad record id %q", model.ErrInvalidInput, id)
	}
	return filepath.Join(s.dir, id+".json"), nil
}

// Create implements Store
func (s *FileStore[T]) Create(ctx context.Context, id string, rec T) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	defer s.lock(id)()

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: record %s exists", model.ErrConflict, id)
	}
	return s.write(path, rec)
}

// Get implements Store
func (s *FileStore[T]) Get(ctx context.Context, id string) (T, error) {
	var rec T
	path, err := s.path(id)
	if err != nil {
		return rec, err
	}
	return s.read(path)
}

// Update implements Store
func (s *FileStore[T]) Update(ctx context.Context, id string, fn func(rec *T) error) (T, error) {
	var zero T
	path, err := s.path(id)
	if err != nil {
		return zero, err
	}
	defer s.lock(id)()

	rec, err := s.read(path)
	if err != nil {
		return zero, err
	}
	if err := fn(&rec); err != nil {
		return zero, err
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if err := s.write(path, rec); err != nil {
		return zero, err
	}
	return rec, nil
}

// Delete implements Store
func (s *FileStore[T]) Delete(ctx context.Context, id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	defer s.lock(id)()

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// List implements Store. Records are returned in file name order.
func (s *FileStore[T]) List(ctx context.Context) ([]T, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("list records: %w", err)
	}

	out := make([]T, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		rec, err := s.read(filepath.Join(s.dir, e.Name()))
		if err != nil {
			// Deleted between listing and reading
			if errors.Is(err, model.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *FileStore[T]) read(path string) (T, error) {
	var rec T
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return rec, fmt.Errorf("%w: %s", model.ErrNotFound, strings.TrimSuffix(filepath.Base(path), ".json"))
		}
		return rec, fmt.Errorf("read record: %w", err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}

func (s *FileStore[T]) write(path string, rec T) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write record: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close record: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename record: %w", err)
	}
	return nil
}
