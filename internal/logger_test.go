package internal

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestSetLogLevel(t *testing.T) {
	originalLevel := GetLogLevel()
	defer SetLogLevel(originalLevel)

	SetLogLevel(LogLevelDebug)
	if got := GetLogLevel(); got != LogLevelDebug {
		t.Errorf("SetLogLevel() GetLogLevel() = %v, want LogLevelDebug", got)
	}

	SetLogLevel(LogLevelError)
	if got := GetLogLevel(); got != LogLevelError {
		t.Errorf("SetLogLevel() GetLogLevel() = %v, want LogLevelError", got)
	}

	SetLogLevel(LogLevelWarn)
	if got := GetLogLevel(); got != LogLevelWarn {
		t.Errorf("SetLogLevel() GetLogLevel() = %v, want LogLevelWarn", got)
	}
}

func TestSetVerbose(t *testing.T) {
	originalLevel := GetLogLevel()
	defer SetLogLevel(originalLevel)

	SetVerbose(true)
	if got := GetLogLevel(); got != LogLevelDebug {
		t.Errorf("SetVerbose(true) GetLogLevel() = %v, want LogLevelDebug", got)
	}

	SetVerbose(false)
	if got := GetLogLevel(); got != LogLevelInfo {
		t.Errorf("SetVerbose(false) GetLogLevel() = %v, want LogLevelInfo", got)
	}
}

func TestLogFiltering(t *testing.T) {
	originalLevel := GetLogLevel()
	var buf bytes.Buffer
	SetLogOutput(&buf)
	defer func() {
		SetLogLevel(originalLevel)
		SetLogOutput(os.Stderr)
	}()

	SetLogLevel(LogLevelInfo)
	LogDebug("hidden %d", 1)
	LogInfo("shown %d", 2)
	LogWith("provider", "cursor").Warn("list failed")

	out := buf.String()
	if strings.Contains(out, "hidden 1") {
		t.Errorf("debug message written at info level: %q", out)
	}
	if !strings.Contains(out, "shown 2") {
		t.Errorf("info message missing: %q", out)
	}
	if !strings.Contains(out, "provider=cursor") {
		t.Errorf("LogWith fields missing: %q", out)
	}
}

func TestLogLevels(t *testing.T) {
	if LogLevelError >= LogLevelWarn {
		t.Error("LogLevelError should be less than LogLevelWarn")
	}
	if LogLevelWarn >= LogLevelInfo {
		t.Error("LogLevelWarn should be less than LogLevelInfo")
	}
	if LogLevelInfo >= LogLevelDebug {
		t.Error("LogLevelInfo should be less than LogLevelDebug")
	}
}
