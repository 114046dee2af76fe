package bundle

import (
	"os"

	"golang.org/x/sys/unix"
)

// Input is a read-only view of a single input file's bytes, preferring a
// zero-copy mmap mapping and falling back to a full read when mmap is
// unavailable.
type Input struct {
	Data    []byte
	mmapped bool
}

// Open maps path read-only. The returned Input must be closed to release any
// mapping; the large code-object payloads this package handles are exactly
// the case mmap is worth it for. If mmap is unavailable, it falls back to a
// plain read.
func Open(path string) (*Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FileIOError{Path: path, Err: err}
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, &FileIOError{Path: path, Err: err}
	}

	size64 := stat.Size()
	if size64 < 0 || size64 > int64(int(^uint(0)>>1)) {
		return nil, &FileIOError{Path: path, Err: os.ErrInvalid}
	}
	size := int(size64)

	if size > 0 {
		// Prefer mmap where available for zero-copy access to the payload.
		data, mmapErr := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
		if mmapErr == nil {
			return &Input{Data: data, mmapped: true}, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileIOError{Path: path, Err: err}
	}
	return &Input{Data: data}, nil
}

// Close releases the mapping, if any. Closing a nil Input is a no-op.
func (in *Input) Close() error {
	if in == nil || in.Data == nil {
		return nil
	}
	var err error
	if in.mmapped {
		err = unix.Munmap(in.Data)
	}
	in.Data = nil
	in.mmapped = false
	return err
}
