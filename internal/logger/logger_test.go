package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_Level(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log := NewWithWriter(&bytes.Buffer{}, tt.level)
			assert.Equal(t, tt.want, log.GetLevel())
		})
	}
}

func TestNewWithWriter_JSONWithTimestamp(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info")

	log.Debug().Msg("hidden")
	log.Info().Str("slug", "centro").Msg("clinic loaded")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "exactly one JSON line expected, got %q", buf.String())
	assert.Equal(t, "clinic loaded", entry["message"])
	assert.Equal(t, "centro", entry["slug"])
	assert.Contains(t, entry, "time")
}
