package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ballpit.log")

	logger, closer, err := newLogger("debug", "json", path, true)
	if err != nil {
		t.Fatal(err)
	}
	if closer == nil {
		t.Fatal("expected a closer for a log file")
	}
	logger.Info("scene loaded", "preset", "pile")

	logCloser = closer
	if err := closeLog(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if logCloser != nil {
		t.Error("closer kept after closeLog")
	}
	if err := closer.Close(); err == nil {
		t.Error("file still open after closeLog")
	}
	if err := closeLog(); err != nil {
		t.Errorf("second closeLog: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"msg":"scene loaded"`) {
		t.Errorf("log file missing record: %q", data)
	}
}

func TestNewLoggerNoFile(t *testing.T) {
	_, closer, err := newLogger("info", "text", "", false)
	if err != nil {
		t.Fatal(err)
	}
	if closer != nil {
		t.Error("closer returned without a log file")
	}
}

func TestNewLoggerInvalid(t *testing.T) {
	tests := []struct {
		name, level, format, path string
	}{
		{"level", "loud", "text", ""},
		{"format", "info", "xml", ""},
		{"path", "info", "text", filepath.Join(t.TempDir(), "missing", "x.log")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, closer, err := newLogger(tt.level, tt.format, tt.path, false); err == nil {
				if closer != nil {
					closer.Close()
				}
				t.Error("expected error")
			}
		})
	}
}
