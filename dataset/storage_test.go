package dataset

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage(t *testing.T) {
	tests := []struct {
		name    string
		storage func(t *testing.T) (Storage, string)
	}{
		{
			name: "local",
			storage: func(t *testing.T) (Storage, string) {
				return LocalStorage{}, t.TempDir()
			},
		},
		{
			name: "memory",
			storage: func(t *testing.T) (Storage, string) {
				return NewMemoryStorage(), "root"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, root := tt.storage(t)
			dir := filepath.Join(root, "labels", "train")

			require.NoError(t, s.Write(filepath.Join(dir, "b.txt"), []byte("b")))
			require.NoError(t, s.Write(filepath.Join(dir, "a.txt"), []byte("a")))
			require.NoError(t, s.Write(filepath.Join(dir, "nested", "c.txt"), []byte("c")))
			require.NoError(t, s.Write(filepath.Join(dir, "a.txt"), []byte("A")))

			names, err := s.List(dir)
			require.NoError(t, err)
			assert.Equal(t, []string{"a.txt", "b.txt"}, names)

			data, err := s.Read(filepath.Join(dir, "a.txt"))
			require.NoError(t, err)
			assert.Equal(t, []byte("A"), data)

			_, err = s.Read(filepath.Join(dir, "missing.txt"))
			assert.ErrorIs(t, err, ErrNotExist)
		})
	}
}

func TestLocalStorageListMissingDir(t *testing.T) {
	_, err := LocalStorage{}.List(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, ErrNotExist)
}
