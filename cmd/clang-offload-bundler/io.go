package main

import (
	"io"
	"os"

	"github.com/samcharles93/offloadbundle/pkg/bundle"
)

// readInput opens path, treating "-" as stdin, matching
// Config.InputFileNames semantics. Regular files are mapped read-only via
// bundle.Open (mmap, zero-copy); the returned closer releases that mapping
// and must be called once the bytes are no longer needed.
func readInput(path string) (data []byte, closeInput func() error, err error) {
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
		return data, func() error { return nil }, err
	}
	in, err := bundle.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return in.Data, in.Close, nil
}

// writeOutput writes data to path, treating "-" as stdout.
func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
