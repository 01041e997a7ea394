package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xfollowers/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{name: "info level", cfg: &config.LoggingConfig{Level: "info"}},
		{name: "debug level", cfg: &config.LoggingConfig{Level: "debug"}},
		{name: "invalid level", cfg: &config.LoggingConfig{Level: "loud"}, wantErr: true},
		{name: "file output", cfg: &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "xf.log")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":    zerolog.DebugLevel,
		"INFO":     zerolog.InfoLevel,
		"warning":  zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"disabled": zerolog.Disabled,
	}
	for in, want := range tests {
		got, err := parseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseLogLevel("verbose")
	assert.Error(t, err)
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestFieldChainingDoesNotLeak(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter(&buf, zerolog.DebugLevel)

	child := base.WithField("handle", "acme")
	child.WithField("page", 2).Info("first")
	base.Info("second")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "acme", entries[0]["handle"])
	assert.Equal(t, float64(2), entries[0]["page"])
	assert.NotContains(t, entries[1], "handle")
}

func TestStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.DebugLevel)

	l.WithError(errors.New("boom")).WarnWithFields("page failed", map[string]interface{}{
		"status":  503,
		"handles": []string{"a", "b"},
		"ok":      false,
	})

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "warn", entries[0]["level"])
	assert.Equal(t, "boom", entries[0]["error"])
	assert.Equal(t, float64(503), entries[0]["status"])
	assert.Equal(t, false, entries[0]["ok"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.WarnLevel)

	l.Debug("hidden")
	l.Info("hidden")
	l.Error("shown")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "shown", entries[0]["message"])
}

func TestTestLoggerCapturesDerivedLoggers(t *testing.T) {
	tl := NewTestLogger()
	derived := tl.WithField("run_id", "r1").WithError(errors.New("nope"))

	derived.Warn("run failed")
	tl.Info("plain")

	msgs := tl.GetMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "r1", msgs[0].Fields["run_id"])
	assert.EqualError(t, msgs[0].Error, "nope")
	assert.True(t, tl.HasMessage("plain"))
	assert.Len(t, tl.GetMessagesByLevel("WARN"), 1)

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestHelpers(t *testing.T) {
	tl := NewTestLogger()

	LogRequest(tl, "GET", "https://api.example/followers", 503, 12.5)
	LogStorageWarning(tl, "load timeline", errors.New("corrupt"))
	LogStorageWarning(tl, "noop", nil)
	LogRunTransition(tl, "r1", "acme", "done", nil)

	assert.Len(t, tl.GetMessagesByLevel("ERROR"), 1)
	assert.Len(t, tl.GetMessagesByLevel("WARN"), 1)
	assert.True(t, tl.HasMessage("Run finished"))
}
