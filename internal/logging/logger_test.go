package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToFile(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "logs", "doro.log")

	logger, err := New(Options{Level: "debug", Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("hello", Args(String("key", "value"), Int("count", 3))...)

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, "hello") {
		t.Errorf("log line missing message: %q", line)
	}
	if !strings.Contains(line, "key=value") {
		t.Errorf("log line missing attribute: %q", line)
	}
	if !strings.Contains(line, "INFO") {
		t.Errorf("log line missing level: %q", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestComponentLoggerPrefix(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "doro.log")

	base, err := New(Options{Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	NewComponentLogger(base, "catalog").Info("loaded")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "[catalog]") {
		t.Errorf("expected component prefix in %q", string(data))
	}
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	cases := map[string]string{
		"debug":   "DEBUG",
		"warn":    "WARN",
		"error":   "ERROR",
		"":        "INFO",
		"verbose": "INFO",
	}
	for input, want := range cases {
		if got := levelLabel(parseLevel(input)); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", input, got, want)
		}
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	if logger.Enabled(nil, 0) {
		t.Error("nop logger should not be enabled")
	}
}
