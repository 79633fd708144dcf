package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogFormat(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stderr) })

	Info("Stage finished", "stage", "research", "duration_ms", 42)
	Error("Stage failed", "error", "connection refused")

	out := buf.String()
	assert.Contains(t, out, "INFO: Stage finished stage=research duration_ms=42")
	assert.Contains(t, out, `ERROR: Stage failed error="connection refused"`)
}

func TestDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetDebug(false)
	})

	SetDebug(false)
	Debug("hidden")
	assert.Empty(t, buf.String())

	SetDebug(true)
	Debug("visible", "k", "v")
	assert.Contains(t, buf.String(), "DEBUG: visible k=v")
}

func TestOddKeyvals(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stderr) })

	Warn("odd", "lonely")
	assert.Contains(t, buf.String(), "lonely=<missing>")
}

func TestInitLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "travel.log")

	require.NoError(t, InitLogger(LoggerOptions{FilePath: path, Quiet: true}))
	Info("written to file", "destination", "Paris")
	Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "INFO: written to file destination=Paris")
}
