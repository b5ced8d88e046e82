package debuglog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LevelOff, "OFF"},
		{LogLevel(42), "UNKNOWN"},
	}

	for _, test := range tests {
		if got := test.level.String(); got != test.expected {
			t.Errorf("LogLevel.String() = %q, want %q", got, test.expected)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"DEBUG", LevelDebug},
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{" info ", LevelInfo},
		{"WARN", LevelWarn},
		{"WARNING", LevelWarn},
		{"ERROR", LevelError},
		{"off", LevelOff},
		{"INVALID", LevelInfo},
		{"", LevelInfo},
	}

	for _, test := range tests {
		if got := ParseLogLevel(test.input); got != test.expected {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", test.input, got, test.expected)
		}
	}
}

func readEntries(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		out = append(out, entry)
	}
	require.NoError(t, sc.Err())
	return out
}

func messages(entries []map[string]any) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e["msg"].(string))
	}
	return out
}

func TestSetupWithLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "test.log")

	require.NoError(t, Setup(LevelInfo, logPath))
	assert.Equal(t, LevelInfo, GetLevel())

	Debugf("debug message")
	Infof("info %s", "message")
	Warnf("warn message")
	Errorf("error message")

	require.NoError(t, Close())

	entries := readEntries(t, logPath)
	assert.Equal(t, []string{"info message", "warn message", "error message"}, messages(entries))
	assert.Equal(t, "INFO", entries[0]["level"])
	assert.Equal(t, "mrkt", entries[0]["logger"])
	assert.Contains(t, entries[0], "ts")
}

func TestSetupWithLevelOff(t *testing.T) {
	require.NoError(t, Setup(LevelOff))
	assert.Equal(t, LevelOff, GetLevel())

	// must not panic without a sink
	Debugf("debug message")
	Errorf("error message")
	WithFields(map[string]interface{}{"k": "v"}).Infof("x")
	assert.NotNil(t, Logger())
}

func TestSetupRejectsUnwritablePath(t *testing.T) {
	dir := t.TempDir()
	// a directory cannot be opened as the log file
	err := Setup(LevelInfo, dir)
	require.Error(t, err)
	_ = Setup(LevelOff)
}

func TestFieldLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "field_test.log")

	require.NoError(t, Setup(LevelDebug, logPath))
	defer Close()

	logger := WithFields(map[string]interface{}{
		"component": "test",
		"action":    "testing",
		"count":     42,
	})
	logger.Infof("test message with fields")
	logger.With("query", "lap").Debugf("with extra")

	require.NoError(t, Close())

	entries := readEntries(t, logPath)
	require.Len(t, entries, 2)
	assert.Equal(t, "test message with fields", entries[0]["msg"])
	assert.Equal(t, "test", entries[0]["component"])
	assert.Equal(t, "testing", entries[0]["action"])
	assert.Equal(t, float64(42), entries[0]["count"])
	assert.Equal(t, "lap", entries[1]["query"])
	assert.NotContains(t, entries[0], "query")
}

func TestSetLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "level.log")
	require.NoError(t, Setup(LevelDebug, logPath))
	defer Close()

	SetLevel(LevelError)
	assert.Equal(t, LevelError, GetLevel())

	Infof("dropped")
	Errorf("kept")
	require.NoError(t, Close())

	assert.Equal(t, []string{"kept"}, messages(readEntries(t, logPath)))
}
