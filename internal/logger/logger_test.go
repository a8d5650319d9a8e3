package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func reset() {
	SetVerbose(false)
	SetOutput(os.Stderr)
}

func TestVerboseGating(t *testing.T) {
	defer reset()
	var buf bytes.Buffer
	SetOutput(&buf)

	t.Run("silent by default", func(t *testing.T) {
		buf.Reset()
		Debug("hidden %d", 1)
		Info("hidden")
		Warn("hidden")
		Section("hidden")
		assert.Empty(t, buf.String())
	})

	t.Run("verbose prints all levels", func(t *testing.T) {
		buf.Reset()
		SetVerbose(true)
		Debug("d %d", 1)
		Info("i")
		Warn("w")
		Section("s")

		out := buf.String()
		assert.Contains(t, out, "[DEBUG] d 1")
		assert.Contains(t, out, "[INFO] i")
		assert.Contains(t, out, "[WARN] w")
		assert.Contains(t, out, "=== s ===")
	})

	t.Run("errors always print", func(t *testing.T) {
		buf.Reset()
		SetVerbose(false)
		Error("broken: %v", "cause")
		assert.Contains(t, buf.String(), "[ERROR] broken: cause")
	})
}

func TestIsVerbose(t *testing.T) {
	defer reset()
	SetVerbose(true)
	assert.True(t, IsVerbose())
	SetVerbose(false)
	assert.False(t, IsVerbose())
}
