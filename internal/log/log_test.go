package log

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T, debug bool) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	prevNoColor := color.NoColor
	color.NoColor = true
	SetOutput(&buf)
	SetDebugMode(debug)
	t.Cleanup(func() {
		color.NoColor = prevNoColor
		SetOutput(os.Stderr)
		SetDebugMode(false)
	})
	return &buf
}

func TestDebug_OnlyInDebugMode(t *testing.T) {
	buf := captureOutput(t, false)
	Debug("hidden %d", 1)
	DebugTokenUsage(1, 2, 3)
	assert.Empty(t, buf.String())

	SetDebugMode(true)
	assert.True(t, IsDebugMode())
	Debug("shown %d", 2)
	DebugDuration("LLM request", 1500*time.Millisecond)
	DebugTokenUsage(10, 5, 15)

	out := buf.String()
	assert.Contains(t, out, "[DEBUG] shown 2")
	assert.Contains(t, out, "LLM request took 1.5s")
	assert.Contains(t, out, "prompt=10, completion=5, total=15")
}

func TestDebugToolCall_IndentsJSON(t *testing.T) {
	buf := captureOutput(t, true)
	DebugToolCall("submit_pr", `{"title":"Add login"}`)

	out := buf.String()
	assert.Contains(t, out, "Tool Call: submit_pr")
	assert.Contains(t, out, "\n  \"title\": \"Add login\"")

	buf.Reset()
	DebugToolCall("submit_pr", "not json")
	assert.Contains(t, buf.String(), "not json")
}

func TestWriter_FollowsSetOutput(t *testing.T) {
	buf := captureOutput(t, false)
	assert.Same(t, buf, Writer())
}

func TestDebugConfig(t *testing.T) {
	buf := captureOutput(t, true)
	DebugConfig("Configuration", map[string]string{"remote": "origin"})
	assert.Contains(t, buf.String(), "[DEBUG] Configuration:\n{\n  \"remote\": \"origin\"\n}")
}

func TestLevels(t *testing.T) {
	buf := captureOutput(t, false)
	Warn("careful")
	Error("broken: %v", "disk")
	Hint("try again")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{"Warning: careful", "Error: broken: disk", "Hint: try again"}, lines)
}
