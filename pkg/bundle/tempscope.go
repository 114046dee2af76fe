package bundle

import (
	"os"
)

// TempScope collects temporary file paths and guarantees their removal when
// Close is called, regardless of which exit path got there — grounded on the
// original's TempFileHandlerRAII, a forward-list of paths removed in its
// destructor. Per-file removal failures are ignored: a leaked temp file is
// preferable to an operation that fails on cleanup after it already
// succeeded.
type TempScope struct {
	paths []string
}

// NewTempScope returns an empty scope.
func NewTempScope() *TempScope {
	return &TempScope{}
}

// WriteTemp creates a new temp file from pattern (see os.CreateTemp),
// writes data to it, registers it for cleanup, and returns its path.
func (s *TempScope) WriteTemp(pattern string, data []byte) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", &FileIOError{Path: pattern, Err: err}
	}
	path := f.Name()
	s.paths = append(s.paths, path)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", &FileIOError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return "", &FileIOError{Path: path, Err: err}
	}
	return path, nil
}

// Register adds an already-created path to the scope's cleanup list, for
// temp files created outside WriteTemp (e.g. by an external tool).
func (s *TempScope) Register(path string) {
	s.paths = append(s.paths, path)
}

// Close removes every registered path, ignoring individual failures.
func (s *TempScope) Close() {
	for _, p := range s.paths {
		_ = os.Remove(p)
	}
	s.paths = nil
}
