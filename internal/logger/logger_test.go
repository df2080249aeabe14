package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withCapturedOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetVerbose(false)
	})
	return &buf
}

func TestLogger_SilentByDefault(t *testing.T) {
	buf := withCapturedOutput(t)
	SetVerbose(false)

	Debug("fetching page %s", "1001")
	Info("run complete")
	Warn("skipping page %s", "1001")

	assert.Empty(t, buf.String())
}

func TestLogger_VerbosePrintsLevels(t *testing.T) {
	buf := withCapturedOutput(t)
	SetVerbose(true)

	Debug("fetching page %s", "1001")
	Info("run complete")
	Warn("skipping page %s", "1001")

	out := buf.String()
	assert.Contains(t, out, "[DEBUG] fetching page 1001\n")
	assert.Contains(t, out, "[INFO] run complete\n")
	assert.Contains(t, out, "[WARN] skipping page 1001\n")
}

func TestLogger_IsVerbose(t *testing.T) {
	withCapturedOutput(t)

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}
