package bundle

import (
	"encoding/binary"
	"io"
)

// binaryEntry is one row of a binary container's header table.
type binaryEntry struct {
	triple string
	offset uint64
	size   uint64
}

// BinaryHandler implements the magic-tagged little-endian binary container
// described in spec.md §4.4:
//
//	MAGIC (24 bytes)
//	N (u64)
//	N * (offset u64, size u64, triple_len u64, triple_bytes)
//	payload bytes
//
// A malformed or absent header is not an error: ReadHeader transitions the
// handler to a benign empty state with zero entries, per spec.md §9.
type BinaryHandler struct {
	cfg *Config

	entries []binaryEntry
	index   map[string]int // triple -> index into entries, for dup detection
	nextIdx int
	curIdx  int

	writeOffsets map[string]binaryEntry
	writePos     uint64
	curTarget    string
}

// NewBinaryHandler builds a BinaryHandler bound to cfg.
func NewBinaryHandler(cfg *Config) *BinaryHandler {
	return &BinaryHandler{cfg: cfg, curIdx: -1}
}

func (h *BinaryHandler) reset() {
	h.entries = nil
	h.index = nil
	h.nextIdx = 0
	h.curIdx = -1
}

func (h *BinaryHandler) ReadHeader(input []byte) error {
	h.reset()

	magicLen := len(MagicBundle)
	if len(input) < magicLen || string(input[:magicLen]) != MagicBundle {
		return nil
	}
	pos := magicLen

	n, ok := readU64At(input, pos)
	if !ok {
		return nil
	}
	pos += 8

	// Every row takes at least 24 bytes; a count the rest of the input cannot
	// hold is a truncated header.
	if n > uint64(len(input)-pos)/24 {
		return nil
	}

	entries := make([]binaryEntry, 0, n)
	index := make(map[string]int, n)

	for i := uint64(0); i < n; i++ {
		offset, ok := readU64At(input, pos)
		if !ok {
			return nil
		}
		pos += 8

		size, ok := readU64At(input, pos)
		if !ok {
			return nil
		}
		pos += 8

		tripleLen, ok := readU64At(input, pos)
		if !ok {
			return nil
		}
		pos += 8

		if tripleLen > uint64(len(input)-pos) {
			return nil
		}
		triple := string(input[pos : pos+int(tripleLen)])
		pos += int(tripleLen)

		// offset 0 would overlap the magic; treat as corrupt.
		if offset == 0 || offset > uint64(len(input)) || size > uint64(len(input))-offset {
			return nil
		}

		e := binaryEntry{triple: triple, offset: offset, size: size}
		if idx, dup := index[triple]; dup {
			// Debug-checked programming error upstream; here the later
			// entry overwrites the earlier one in the lookup, matching
			// spec.md §9 Open Question 3.
			entries[idx] = e
			continue
		}
		index[triple] = len(entries)
		entries = append(entries, e)
	}

	h.entries = entries
	h.index = index
	return nil
}

func (h *BinaryHandler) ReadBundleStart(input []byte) (string, bool, error) {
	if h.nextIdx >= len(h.entries) {
		return "", false, nil
	}
	h.curIdx = h.nextIdx
	h.nextIdx++
	return h.entries[h.curIdx].triple, true, nil
}

func (h *BinaryHandler) ReadBundleEnd(input []byte) error {
	if h.curIdx < 0 || h.curIdx >= len(h.entries) {
		return ErrInternal
	}
	return nil
}

func (h *BinaryHandler) ReadBundle(sink io.Writer, input []byte) error {
	if h.curIdx < 0 || h.curIdx >= len(h.entries) {
		return ErrInternal
	}
	e := h.entries[h.curIdx]
	_, err := sink.Write(input[e.offset : e.offset+e.size])
	return err
}

func (h *BinaryHandler) WriteHeader(sink io.Writer, inputs [][]byte) error {
	targets := h.cfg.TargetNames
	if len(targets) != len(inputs) {
		return ErrInternal
	}

	headerSize := uint64(len(MagicBundle)) + 8
	for _, t := range targets {
		headerSize += 3*8 + uint64(len(t))
	}

	type row struct {
		triple string
		offset uint64
		size   uint64
	}
	rows := make([]row, len(targets))
	running := headerSize
	for i, t := range targets {
		running = alignUp(running, h.cfg.alignment())
		rows[i] = row{triple: t, offset: running, size: uint64(len(inputs[i]))}
		running += uint64(len(inputs[i]))
	}

	if _, err := io.WriteString(sink, MagicBundle); err != nil {
		return err
	}
	if err := writeU64(sink, uint64(len(targets))); err != nil {
		return err
	}
	h.writeOffsets = make(map[string]binaryEntry, len(rows))
	for _, r := range rows {
		if err := writeU64(sink, r.offset); err != nil {
			return err
		}
		if err := writeU64(sink, r.size); err != nil {
			return err
		}
		if err := writeU64(sink, uint64(len(r.triple))); err != nil {
			return err
		}
		if _, err := io.WriteString(sink, r.triple); err != nil {
			return err
		}
		h.writeOffsets[r.triple] = binaryEntry{triple: r.triple, offset: r.offset, size: r.size}
	}
	h.writePos = headerSize
	return nil
}

func (h *BinaryHandler) WriteBundleStart(sink io.Writer, target string) error {
	h.curTarget = target
	e, ok := h.writeOffsets[target]
	if !ok {
		return ErrInternal
	}
	if h.writePos > e.offset {
		return ErrInternal
	}
	if pad := e.offset - h.writePos; pad > 0 {
		if err := writeZeros(sink, pad); err != nil {
			return err
		}
		h.writePos = e.offset
	}
	return nil
}

func (h *BinaryHandler) WriteBundle(sink io.Writer, input []byte) error {
	n, err := sink.Write(input)
	h.writePos += uint64(n)
	return err
}

func (h *BinaryHandler) WriteBundleEnd(sink io.Writer, target string) error {
	return nil
}

func (h *BinaryHandler) listCallback(input []byte) error { return nil }

func readU64At(b []byte, pos int) (uint64, bool) {
	if pos < 0 || pos+8 > len(b) {
		return 0, false
	}
	return binary.LittleEndian.Uint64(b[pos : pos+8]), true
}

func writeU64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeZeros(w io.Writer, n uint64) error {
	const chunk = 4096
	buf := make([]byte, min64(n, chunk))
	for n > 0 {
		toWrite := min64(n, uint64(len(buf)))
		if _, err := w.Write(buf[:toWrite]); err != nil {
			return err
		}
		n -= toWrite
	}
	return nil
}

func alignUp(offset, alignment uint64) uint64 {
	if alignment <= 1 {
		return offset
	}
	rem := offset % alignment
	if rem == 0 {
		return offset
	}
	return offset + (alignment - rem)
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
