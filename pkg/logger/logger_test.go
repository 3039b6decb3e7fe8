package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

func TestPackageLevelLogging(t *testing.T) {
	var buf bytes.Buffer
	Initialize(Config{Level: "debug", Format: "json", Output: &buf})

	Debug("debug message", map[string]interface{}{"order_id": 7})
	Error("failed", errors.New("boom"))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)

	assert.Equal(t, "debug", entries[0]["level"])
	assert.Equal(t, "debug message", entries[0]["message"])
	assert.EqualValues(t, 7, entries[0]["order_id"])
	assert.Contains(t, entries[0]["caller"], "logger_test.go")

	assert.Equal(t, "error", entries[1]["level"])
	assert.Equal(t, "boom", entries[1]["error"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Initialize(Config{Level: "warn", Format: "json", Output: &buf})
	t.Cleanup(func() { Initialize(Config{Level: "debug", Format: "json", Output: &bytes.Buffer{}}) })

	Info("hidden")
	Warn("shown")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "shown", entries[0]["message"])
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	Initialize(Config{Level: "debug", Format: "json", Output: &buf})

	l := WithContext(map[string]interface{}{"request_id": "abc"})
	l.Info("scoped")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "abc", entries[0]["request_id"])
	assert.Contains(t, entries[0]["caller"], "logger_test.go")
}

func TestConfigFromEnvironment(t *testing.T) {
	dev := ConfigFromEnvironment("development", "")
	assert.Equal(t, "console", dev.Format)
	assert.Equal(t, "debug", dev.Level)

	prod := ConfigFromEnvironment("production", "")
	assert.Equal(t, "json", prod.Format)
	assert.Equal(t, "info", prod.Level)

	assert.Equal(t, "error", ConfigFromEnvironment("production", "error").Level)
}
