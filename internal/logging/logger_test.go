package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGet_NoInitialize(t *testing.T) {
	// Without Initialize, Get must return a usable no-op logger.
	l := Get(CategoryPerception)
	if l == nil {
		t.Fatal("Get returned nil logger")
	}
	l.Infof("should not panic")
}

func TestInitialize_Disabled(t *testing.T) {
	if err := Initialize(Config{Enabled: false}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	Get(CategoryPipeline).Infof("no-op")
}

func TestInitialize_FileOutput(t *testing.T) {
	dir := t.TempDir()
	err := Initialize(Config{
		Enabled: true,
		Level:   "debug",
		Dir:     dir,
	})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	Perception("lexical detector found %d spans", 3)
	Sync()

	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) == 0 {
		t.Fatalf("expected a log file in %s", dir)
	}
	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "lexical detector found 3 spans") {
		t.Errorf("log file missing expected entry, got: %s", data)
	}
}

func TestInitialize_CategoryDisabled(t *testing.T) {
	dir := t.TempDir()
	err := Initialize(Config{
		Enabled:    true,
		Level:      "debug",
		Dir:        dir,
		Categories: map[string]bool{"batch": false},
	})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	Batch("should be suppressed")
	Sync()

	entries, _ := os.ReadDir(dir)
	if len(entries) > 0 {
		data, _ := os.ReadFile(filepath.Join(dir, entries[0].Name()))
		if strings.Contains(string(data), "should be suppressed") {
			t.Error("disabled category was logged")
		}
	}
}

func TestTimer(t *testing.T) {
	if err := Initialize(Config{Enabled: false}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	timer := StartTimer(CategoryPipeline, "test op")
	if d := timer.Stop(); d < 0 {
		t.Errorf("negative duration: %v", d)
	}
}
