package bundle

import (
	"os"
	"testing"
)

func TestTempScopeCleansUpOnClose(t *testing.T) {
	scope := NewTempScope()
	path, err := scope.WriteTemp("tempscope-*", []byte("hello"))
	if err != nil {
		t.Fatalf("WriteTemp: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected temp file to exist before Close: %v", err)
	}

	scope.Close()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be removed after Close, stat err = %v", err)
	}
}

func TestTempScopeIgnoresMissingFileOnClose(t *testing.T) {
	scope := NewTempScope()
	path, err := scope.WriteTemp("tempscope-*", []byte("x"))
	if err != nil {
		t.Fatalf("WriteTemp: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("os.Remove: %v", err)
	}

	// Close must not panic or otherwise surface the already-missing file.
	scope.Close()
}
