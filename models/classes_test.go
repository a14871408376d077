package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultClasses(t *testing.T) {
	name, err := DefaultClasses.Name(0)
	require.NoError(t, err)
	assert.Equal(t, "shark", name)

	name, err = DefaultClasses.Name(1)
	require.NoError(t, err)
	assert.Equal(t, "sawfish", name)

	_, err = DefaultClasses.Name(2)
	assert.ErrorIs(t, err, ErrUnknownClass)
	_, err = DefaultClasses.Name(-1)
	assert.ErrorIs(t, err, ErrUnknownClass)

	assert.Equal(t, []OutputClass{{0, "shark"}, {1, "sawfish"}}, DefaultClasses.Classes())
}

func TestNewClassTableValidation(t *testing.T) {
	tests := []struct {
		name    string
		names   map[int]string
		wantErr string
	}{
		{name: "valid", names: map[int]string{0: "a", 5: "b"}},
		{name: "empty table", names: map[int]string{}},
		{name: "negative index", names: map[int]string{-1: "a"}, wantErr: "negative"},
		{name: "empty name", names: map[int]string{0: ""}, wantErr: "empty name"},
		{name: "duplicate name", names: map[int]string{0: "a", 1: "a"}, wantErr: "used by 0 and 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := NewClassTable(tt.names)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.names), table.Len())
		})
	}
}

func TestLoadClassTable(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		want    []OutputClass
		wantErr bool
	}{
		{
			name: "list form",
			doc:  "path: ../datasets/sharks\ntrain: images/train\nnc: 2\nnames: [shark, sawfish]\n",
			want: []OutputClass{{0, "shark"}, {1, "sawfish"}},
		},
		{
			name: "map form",
			doc:  "names:\n  0: shark\n  3: hammerhead\n",
			want: []OutputClass{{0, "shark"}, {3, "hammerhead"}},
		},
		{name: "missing names", doc: "nc: 2\n", wantErr: true},
		{name: "scalar names", doc: "names: shark\n", wantErr: true},
		{name: "empty list", doc: "names: []\n", wantErr: true},
		{name: "invalid yaml", doc: "names: [shark\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := LoadClassTable(strings.NewReader(tt.doc))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, table.Classes())
		})
	}
}
