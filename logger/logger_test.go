package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWritersSplitsByLevel(t *testing.T) {
	var stdout, stderr bytes.Buffer
	log, err := NewWithWriters(Config{Level: "debug", Format: "json"}, &stdout, &stderr)
	require.NoError(t, err)

	log.Debug("dropped box")
	log.Info("augmentation finished")
	log.Warn("skipping image")
	require.NoError(t, log.Sync())

	lines := bytes.Split(bytes.TrimSpace(stdout.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &entry))
	assert.Equal(t, "augmentation finished", entry["msg"])

	assert.Contains(t, stderr.String(), "skipping image")
	assert.NotContains(t, stdout.String(), "skipping image")
}

func TestNewWithWritersLevelFilter(t *testing.T) {
	var stdout, stderr bytes.Buffer
	log, err := NewWithWriters(Config{Level: "warn", Format: "console"}, &stdout, &stderr)
	require.NoError(t, err)

	log.Info("hidden")
	log.Error("shown")
	require.NoError(t, log.Sync())

	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "shown")
}

func TestNewInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "level", cfg: Config{Level: "loud"}},
		{name: "format", cfg: Config{Format: "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.Error(t, err)
		})
	}
}
