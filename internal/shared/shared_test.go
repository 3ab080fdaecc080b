package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateState(t *testing.T) {
	first, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState: %v", err)
	}
	second, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState: %v", err)
	}

	if len(first) != 32 {
		t.Errorf("state length = %d, want 32 hex chars", len(first))
	}
	if first == second {
		t.Error("expected distinct states across calls")
	}
}

func TestGenerateID(t *testing.T) {
	if GenerateID() == GenerateID() {
		t.Error("expected distinct ids across calls")
	}
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	logger.Info("hello")

	if _, err := os.Stat(path); err != nil {
		t.Errorf("log file should exist: %v", err)
	}
}
