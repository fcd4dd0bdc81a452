package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
)

// maxToolArguments caps how much of a tool call payload is echoed in debug mode
const maxToolArguments = 4000

var (
	debugMode           = false
	output    io.Writer = os.Stderr
)

// SetDebugMode enables or disables debug mode
func SetDebugMode(enabled bool) {
	debugMode = enabled
}

// IsDebugMode reports whether --debug is on
func IsDebugMode() bool {
	return debugMode
}

// SetOutput redirects every log line, mainly for tests
func SetOutput(w io.Writer) {
	output = w
}

// Writer is where log lines go
func Writer() io.Writer {
	return output
}

func emit(attr color.Attribute, prefix, format string, args ...any) {
	color.New(attr).Fprintf(output, prefix+format+"\n", args...)
}

func debugf(attr color.Attribute, format string, args ...any) {
	if debugMode {
		emit(attr, "[DEBUG] ", format, args...)
	}
}

// Debug prints only with --debug
func Debug(format string, args ...any) {
	debugf(color.FgHiBlack, format, args...)
}

// DebugConfig dumps the effective configuration as JSON
func DebugConfig(label string, config any) {
	if !debugMode {
		return
	}
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		debugf(color.FgHiBlack, "%s: (failed to serialize: %v)", label, err)
		return
	}
	debugf(color.FgHiBlack, "%s:\n%s", label, data)
}

// DebugToolCall logs the structured output the model returned, indented when it is JSON
func DebugToolCall(toolName string, arguments string) {
	if !debugMode {
		return
	}
	debugf(color.FgYellow, "Tool Call: %s", toolName)

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, []byte(arguments), "", "  "); err == nil {
		arguments = pretty.String()
	}
	if len(arguments) > maxToolArguments {
		arguments = arguments[:maxToolArguments] + "..."
	}
	fmt.Fprintf(output, "[DEBUG] Arguments:\n%s\n", arguments)
}

// DebugTokenUsage logs provider-reported token usage
func DebugTokenUsage(promptTokens, completionTokens, totalTokens int) {
	debugf(color.FgMagenta, "Token Usage: prompt=%d, completion=%d, total=%d",
		promptTokens, completionTokens, totalTokens)
}

// DebugDuration logs how long an operation took
func DebugDuration(operation string, duration time.Duration) {
	debugf(color.FgBlue, "%s took %v", operation, duration)
}

// Error prints a fatal error for the run
func Error(format string, args ...any) {
	emit(color.FgRed, "Error: ", format, args...)
}

// Hint prints a follow-up suggestion for the previous error
func Hint(format string, args ...any) {
	emit(color.FgYellow, "Hint: ", format, args...)
}

// Warn prints a recoverable problem
func Warn(format string, args ...any) {
	emit(color.FgYellow, "Warning: ", format, args...)
}
