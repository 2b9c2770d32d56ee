package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func decodeEntries(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()

	var entries []map[string]interface{}
	dec := json.NewDecoder(buf)
	for dec.More() {
		var entry map[string]interface{}
		require.NoError(t, dec.Decode(&entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestLoggerWritesJSONEntries(t *testing.T) {
	var buf bytes.Buffer
	logger := New(InfoLevel, &buf)

	logger.Info("started", map[string]interface{}{"port": 8080})

	entries := decodeEntries(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "INFO", entries[0]["level"])
	assert.Equal(t, "started", entries[0]["message"])
	assert.Equal(t, float64(8080), entries[0]["port"])
	assert.NotEmpty(t, entries[0]["timestamp"])
	assert.NotEmpty(t, entries[0]["caller"])
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WarnLevel, &buf)

	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("kept")
	logger.Error("kept too")

	entries := decodeEntries(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "WARN", entries[0]["level"])
	assert.Equal(t, "ERROR", entries[1]["level"])
}

func TestWithFieldsMergesAndDoesNotMutate(t *testing.T) {
	var buf bytes.Buffer
	base := New(InfoLevel, &buf).WithFields(map[string]interface{}{"service": "simplexd"})
	child := base.WithField("job", "abc")

	child.Info("child")
	base.Info("base")

	entries := decodeEntries(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "simplexd", entries[0]["service"])
	assert.Equal(t, "abc", entries[0]["job"])
	assert.Equal(t, "simplexd", entries[1]["service"])
	assert.NotContains(t, entries[1], "job")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	New(InfoLevel, &buf).WithError(fmt.Errorf("boom")).Error("failed")

	entries := decodeEntries(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "boom", entries[0]["error"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, parseLevel("debug"))
	assert.Equal(t, WarnLevel, parseLevel("WARN"))
	assert.Equal(t, InfoLevel, parseLevel("nonsense"))
}

func TestZapAdapterForwardsEntries(t *testing.T) {
	var buf bytes.Buffer
	zl := NewZapLogger(New(InfoLevel, &buf))

	zl.With(zap.String("component", "solver")).Info("step", zap.Int64("iteration", 7))
	zl.Debug("filtered out")

	entries := decodeEntries(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "INFO", entries[0]["level"])
	assert.Equal(t, "step", entries[0]["message"])
	assert.Equal(t, "solver", entries[0]["component"])
	assert.Equal(t, float64(7), entries[0]["iteration"])
}
