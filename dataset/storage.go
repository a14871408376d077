// Package dataset - batch augmentation of a YOLO dataset directory: reads
// image/label pairs, writes the originals and K augmented variants of each.
package dataset

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// ErrNotExist is returned by Storage when a file is missing.
var ErrNotExist = errors.New("file does not exist")

// Storage is where images and labels are read from and written to.
type Storage interface {
	// List returns the names of the regular files in dir, sorted.
	List(dir string) ([]string, error)
	// Read returns the contents of path, or ErrNotExist.
	Read(path string) ([]byte, error)
	// Write stores data at path, replacing any existing file.
	Write(path string, data []byte) error
}

// LocalStorage is Storage on the local filesystem.
type LocalStorage struct{}

// List implements Storage.
func (LocalStorage) List(dir string) ([]string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(ErrNotExist, "directory %s", dir)
		}
		return nil, errors.Wrapf(err, "failed to list %s", dir)
	}

	var names []string
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		names = append(names, file.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Read implements Storage.
func (LocalStorage) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(ErrNotExist, "%s", path)
		}
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return data, nil
}

// Write implements Storage. Parent directories are created as needed.
func (LocalStorage) Write(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// MemoryStorage is an in-memory Storage, safe for concurrent use.
type MemoryStorage struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{files: make(map[string][]byte)}
}

// List implements Storage.
func (m *MemoryStorage) List(dir string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dir = filepath.Clean(dir)
	var names []string
	for p := range m.files {
		if filepath.Dir(p) == dir {
			names = append(names, filepath.Base(p))
		}
	}
	sort.Strings(names)
	return names, nil
}

// Read implements Storage.
func (m *MemoryStorage) Read(path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[filepath.Clean(path)]
	if !ok {
		return nil, errors.Wrapf(ErrNotExist, "%s", path)
	}
	return append([]byte(nil), data...), nil
}

// Write implements Storage.
func (m *MemoryStorage) Write(path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[filepath.Clean(path)] = append([]byte(nil), data...)
	return nil
}

// Len returns the number of stored files.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}
