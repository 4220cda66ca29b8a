package main

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupLogging(t *testing.T) {
	tests := []struct {
		name     string
		debug    bool
		existing int64 // size of a log file left by an earlier run, -1 for none
		wantFile bool
		rotated  int
	}{
		{name: "disabled", debug: false, existing: -1},
		{name: "fresh", debug: true, existing: -1, wantFile: true},
		{name: "append small", debug: true, existing: 128, wantFile: true},
		{name: "rotate oversized", debug: true, existing: maxLogSize + 1, wantFile: true, rotated: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdirTemp(t)
			logPath := filepath.Join(logDir, logFileName)
			if tt.existing >= 0 {
				if err := os.MkdirAll(logDir, 0755); err != nil {
					t.Fatalf("mkdir failed: %v", err)
				}
				if err := os.WriteFile(logPath, make([]byte, tt.existing), 0644); err != nil {
					t.Fatalf("seed log failed: %v", err)
				}
			}

			f := setupLogging(tt.debug)
			if (f != nil) != tt.wantFile {
				t.Fatalf("Expected file=%v, got %v", tt.wantFile, f != nil)
			}
			if f == nil {
				if log.Writer() != io.Discard {
					t.Errorf("Expected io.Discard, got %v", log.Writer())
				}
				if _, err := os.Stat(logDir); !os.IsNotExist(err) {
					t.Error("Expected no logs directory without debug")
				}
				return
			}
			defer f.Close()

			if w := log.Writer(); w == os.Stdout || w == os.Stderr {
				t.Error("Expected logs to stay off the terminal")
			}

			log.Print("marker line")
			data, err := os.ReadFile(logPath)
			if err != nil {
				t.Fatalf("read log failed: %v", err)
			}
			if !strings.Contains(string(data), "marker line") {
				t.Error("Expected marker in log file")
			}
			if int64(len(data)) > maxLogSize {
				t.Errorf("Expected active log under %d bytes, got %d", maxLogSize, len(data))
			}
			if tt.rotated == 0 && tt.existing > 0 && int64(len(data)) <= tt.existing {
				t.Errorf("Expected log appended to %d bytes, got %d", tt.existing, len(data))
			}

			matches, _ := filepath.Glob(filepath.Join(logDir, "stackdemo-*.log"))
			if len(matches) != tt.rotated {
				t.Errorf("Expected %d rotated files, got %v", tt.rotated, matches)
			}
		})
	}
}

// chdirTemp runs the test inside a scratch directory so logs/ never lands in the tree
func chdirTemp(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Cleanup(func() { log.SetOutput(io.Discard) })
}
