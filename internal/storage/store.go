// Package storage persists the video library as a single JSON file.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"
)

const lockTimeout = 5 * time.Second

// Sentinel errors for common storage conditions.
var (
	// ErrStorageCorrupt indicates the library file exists but cannot be parsed.
	ErrStorageCorrupt = errors.New("storage: data corruption detected")
	// ErrLockTimeout indicates a timeout acquiring the library file lock.
	ErrLockTimeout = errors.New("storage: lock acquisition timeout")
)

// StorageError wraps storage errors with operation and entity context.
// Use errors.As() to extract this error type and get operation details.
type StorageError struct {
	// Op is the operation that failed ("read", "write", "lock").
	Op string
	// Entity is the entity involved ("library", "file").
	Entity string
	// Err is the underlying error that occurred.
	Err error
}

// Error returns a string representation of the storage error.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Entity, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *StorageError) Unwrap() error { return e.Err }

// LibraryStore loads and saves the library document.
// A missing file is not an error; a corrupt file is fatal so that a
// possibly-recoverable file is never overwritten with an empty one.
type LibraryStore interface {
	Load(ctx context.Context) (*Library, error)
	Save(ctx context.Context, lib *Library) error
	Close() error
}

// JSONStore implements LibraryStore using a single pretty-printed JSON file.
// The file is replaced wholesale on every save; callers must hold the
// complete desired state in memory before calling Save.
type JSONStore struct {
	path    string
	creator string
	lock    *FileLock
}

// NewJSONStore creates a store for the library file at path. The advisory
// file lock is acquired immediately so two processes cannot mutate the
// same library concurrently.
func NewJSONStore(path, creator string) (*JSONStore, error) {
	s := &JSONStore{
		path:    path,
		creator: creator,
		lock:    NewFileLock(path),
	}

	if err := s.lock.Lock(lockTimeout); err != nil {
		return nil, err
	}

	return s, nil
}

// Load reads the library from disk. A missing file yields a fresh empty
// library for the configured creator. An unparseable file yields
// ErrStorageCorrupt and nothing is written.
func (s *JSONStore) Load(ctx context.Context) (*Library, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewLibrary(s.creator), nil
		}
		return nil, &StorageError{Op: "read", Entity: "library", Err: err}
	}

	lib := &Library{}
	if err := json.Unmarshal(data, lib); err != nil {
		return nil, &StorageError{Op: "read", Entity: "library", Err: ErrStorageCorrupt}
	}

	if lib.Videos == nil {
		lib.Videos = []VideoRecord{}
	}

	return lib, nil
}

// Save stamps last_updated and replaces the library file atomically.
// The temp file is fully serialized and fsynced before the rename, so a
// failed save leaves the previous file untouched.
func (s *JSONStore) Save(ctx context.Context, lib *Library) error {
	now := time.Now()
	lib.LastUpdated = &now

	writer, err := NewAtomicWriter(s.path)
	if err != nil {
		return &StorageError{Op: "write", Entity: "library", Err: err}
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(lib); err != nil {
		writer.Abort()
		return &StorageError{Op: "write", Entity: "library", Err: err}
	}

	if err := writer.Commit(); err != nil {
		return &StorageError{Op: "write", Entity: "library", Err: err}
	}

	log.Printf("storage: saved %d videos to %s", len(lib.Videos), s.path)
	return nil
}

// Close releases the library file lock.
func (s *JSONStore) Close() error {
	return s.lock.Unlock()
}
