package bundle

import (
	"bytes"
	"testing"
)

func TestBinaryHandlerRoundTrip(t *testing.T) {
	cfg := &Config{
		FilesType:       "bc",
		TargetNames:     []string{"host-x86_64-unknown-linux-gnu", "hip-amdgcn-amd-amdhsa-gfx906"},
		HostInputIndex:  0,
		BundleAlignment: 4096,
	}

	hostPayload := []byte("host bitcode bytes")
	hipPayload := []byte("device bitcode bytes, somewhat longer than the host one")
	inputs := [][]byte{hostPayload, hipPayload}

	op := NewBundleOp(cfg)
	packed, err := op.Bundle(inputs)
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}

	if len(packed) < int(cfg.BundleAlignment) {
		t.Fatalf("expected packed output to extend past the first alignment boundary")
	}

	ids, err := op.List(packed)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ids) != 2 || ids[0] != cfg.TargetNames[0] || ids[1] != cfg.TargetNames[1] {
		t.Fatalf("List() = %v, want %v", ids, cfg.TargetNames)
	}

	outs := make([][]byte, 2)
	err = op.Unbundle(packed, func(idx int, payload []byte) error {
		outs[idx] = payload
		return nil
	})
	if err != nil {
		t.Fatalf("Unbundle: %v", err)
	}
	if !bytes.Equal(outs[0], hostPayload) {
		t.Fatalf("host payload = %q, want %q", outs[0], hostPayload)
	}
	if !bytes.Equal(outs[1], hipPayload) {
		t.Fatalf("hip payload = %q, want %q", outs[1], hipPayload)
	}
}

func TestBinaryHandlerAlignment(t *testing.T) {
	h := NewBinaryHandler(&Config{
		TargetNames:     []string{"host-x86_64-unknown-linux-gnu", "hip-amdgcn-amd-amdhsa-gfx906"},
		BundleAlignment: 4096,
	})

	var buf bytes.Buffer
	inputs := [][]byte{[]byte("a"), []byte("b")}
	if err := h.WriteHeader(&buf, inputs); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}

	if off := h.writeOffsets["host-x86_64-unknown-linux-gnu"].offset; off != 4096 {
		t.Fatalf("first offset = %d, want 4096", off)
	}
}

func TestBinaryHandlerMalformedHeaderIsBenign(t *testing.T) {
	h := NewBinaryHandler(&Config{})
	if err := h.ReadHeader([]byte("not a bundle at all")); err != nil {
		t.Fatalf("ReadHeader on garbage input returned an error: %v", err)
	}
	if _, ok, err := h.ReadBundleStart(nil); ok || err != nil {
		t.Fatalf("expected benign empty container, got ok=%v err=%v", ok, err)
	}
}

// TestBinaryHandlerDuplicateTripleOverwrites hand-builds a header with two
// rows naming the same triple, simulating a malformed or hand-edited
// container; WriteHeader never produces one, since Config.TargetNames in
// practice names each target once.
func TestBinaryHandlerDuplicateTripleOverwrites(t *testing.T) {
	triple := "host-x86_64-unknown-linux-gnu"
	payload1 := []byte("first")
	payload2 := []byte("second")

	headerSize := uint64(len(MagicBundle)) + 8 + 2*(3*8+uint64(len(triple)))
	off1 := headerSize
	off2 := off1 + uint64(len(payload1))

	var buf bytes.Buffer
	buf.WriteString(MagicBundle)
	writeU64(&buf, 2)
	writeU64(&buf, off1)
	writeU64(&buf, uint64(len(payload1)))
	writeU64(&buf, uint64(len(triple)))
	buf.WriteString(triple)
	writeU64(&buf, off2)
	writeU64(&buf, uint64(len(payload2)))
	writeU64(&buf, uint64(len(triple)))
	buf.WriteString(triple)
	buf.Write(payload1)
	buf.Write(payload2)

	r := NewBinaryHandler(&Config{})
	if err := r.ReadHeader(buf.Bytes()); err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if len(r.entries) != 1 {
		t.Fatalf("expected duplicate triple to collapse to one entry, got %d", len(r.entries))
	}
	if r.entries[0].offset != off2 {
		t.Fatalf("expected the later entry to win, offset = %d, want %d", r.entries[0].offset, off2)
	}
}
