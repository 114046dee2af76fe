package bundle

import (
	"bytes"
	"errors"
	"testing"
)

func TestUnbundleMissingBundlesError(t *testing.T) {
	cfg := &Config{
		FilesType:       "bc",
		TargetNames:     []string{"host-x86_64-unknown-linux-gnu"},
		HostInputIndex:  0,
		BundleAlignment: 1,
	}
	op := NewBundleOp(cfg)
	packed, err := op.Bundle([][]byte{[]byte("host payload")})
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}

	reqCfg := &Config{
		FilesType:   "bc",
		TargetNames: []string{"host-x86_64-unknown-linux-gnu", "openmp-x86_64-pc-linux-gnu"},
	}
	reqOp := NewBundleOp(reqCfg)
	err = reqOp.Unbundle(packed, func(idx int, payload []byte) error { return nil })

	var missing *MissingBundlesError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingBundlesError, got %v", err)
	}
	if len(missing.Targets) != 1 || missing.Targets[0] != "openmp-x86_64-pc-linux-gnu" {
		t.Fatalf("missing.Targets = %v, want [openmp-x86_64-pc-linux-gnu]", missing.Targets)
	}
}

func TestUnbundleAllowMissingBundlesSuppressesError(t *testing.T) {
	cfg := &Config{
		FilesType:       "bc",
		TargetNames:     []string{"host-x86_64-unknown-linux-gnu"},
		HostInputIndex:  0,
		BundleAlignment: 1,
	}
	op := NewBundleOp(cfg)
	packed, err := op.Bundle([][]byte{[]byte("host payload")})
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}

	reqCfg := &Config{
		FilesType:           "bc",
		TargetNames:         []string{"host-x86_64-unknown-linux-gnu", "openmp-x86_64-pc-linux-gnu"},
		AllowMissingBundles: true,
	}
	reqOp := NewBundleOp(reqCfg)
	emitted := map[int][]byte{}
	err = reqOp.Unbundle(packed, func(idx int, payload []byte) error {
		emitted[idx] = payload
		return nil
	})
	if err != nil {
		t.Fatalf("Unbundle: %v", err)
	}
	// Every requested target gets a callback: the matched host entry with
	// its real payload, and the unmatched openmp entry with an empty one.
	if len(emitted) != 2 {
		t.Fatalf("expected a callback for both targets, got %d", len(emitted))
	}
	if !bytes.Equal(emitted[0], []byte("host payload")) {
		t.Fatalf("host payload = %q, want %q", emitted[0], "host payload")
	}
	if len(emitted[1]) != 0 {
		t.Fatalf("expected an empty payload for the unmatched target, got %q", emitted[1])
	}
}

func TestUnbundleHostFallback(t *testing.T) {
	// A container with no stored entries at all (degenerate, but a
	// recognizable bc magic header with zero bundles).
	cfg := &Config{FilesType: "bc", TargetNames: nil, BundleAlignment: 1}
	op := NewBundleOp(cfg)
	empty, err := op.Bundle(nil)
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}

	// Host fallback is unconditional on "nothing matched" — it does not
	// require AllowNoHost, which only applies to Bundle's handler
	// selection.
	reqCfg := &Config{
		FilesType:   "bc",
		TargetNames: []string{"host-x86_64-unknown-linux-gnu", "openmp-x86_64-pc-linux-gnu"},
	}
	reqOp := NewBundleOp(reqCfg)
	emitted := map[int][]byte{}
	err = reqOp.Unbundle(empty, func(idx int, payload []byte) error {
		emitted[idx] = payload
		return nil
	})
	if err != nil {
		t.Fatalf("Unbundle: %v", err)
	}
	if !bytes.Equal(emitted[0], empty) {
		t.Fatalf("expected host fallback to emit the raw input bytes")
	}
	if len(emitted[1]) != 0 {
		t.Fatalf("expected the non-host target to get an empty payload, got %q", emitted[1])
	}
}

func TestUnbundleMissingHostWithoutFallback(t *testing.T) {
	// An openmp-only container (no host entry at all): requesting exactly
	// that openmp target fully resolves the worklist via a real match, so
	// the "nothing matched" fallback never triggers. With HostInputIndex
	// explicitly set and no host-kind entry ever seen, this hits the
	// MissingHost check.
	cfg := &Config{
		FilesType:       "bc",
		TargetNames:     []string{"openmp-x86_64-pc-linux-gnu"},
		AllowNoHost:     true,
		BundleAlignment: 1,
	}
	op := NewBundleOp(cfg)
	packed, err := op.Bundle([][]byte{[]byte("device payload")})
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}

	reqCfg := &Config{
		FilesType:      "bc",
		TargetNames:    []string{"openmp-x86_64-pc-linux-gnu"},
		HostInputIndex: 0,
	}
	reqOp := NewBundleOp(reqCfg)
	err = reqOp.Unbundle(packed, func(idx int, payload []byte) error { return nil })
	if !errors.Is(err, ErrMissingHost) {
		t.Fatalf("expected ErrMissingHost, got %v", err)
	}
}

func TestUnbundleArchiveMultiMatch(t *testing.T) {
	gfx906 := []string{"hip-amdgcn-amd-amdhsa-gfx906"}
	gfx908 := []string{"hip-amdgcn-amd-amdhsa-gfx908"}

	bundle906Cfg := &Config{FilesType: "bc", TargetNames: gfx906, BundleAlignment: 1, AllowNoHost: true}
	member906, err := NewBundleOp(bundle906Cfg).Bundle([][]byte{[]byte("gfx906 code object")})
	if err != nil {
		t.Fatalf("Bundle member906: %v", err)
	}

	bundle908Cfg := &Config{FilesType: "bc", TargetNames: gfx908, BundleAlignment: 1, AllowNoHost: true}
	member908, err := NewBundleOp(bundle908Cfg).Bundle([][]byte{[]byte("gfx908 code object")})
	if err != nil {
		t.Fatalf("Bundle member908: %v", err)
	}

	archiveData, err := WriteArchive([]ArchiveMember{
		{Name: "libdevice-one.bc", Data: member906},
		{Name: "libdevice-two.bc", Data: member908},
	}, ArchiveKindGNU)
	if err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}

	reqCfg := &Config{
		FilesType:   "bc",
		TargetNames: []string{"hip-amdgcn-amd-amdhsa-gfx906", "hip-amdgcn-amd-amdhsa-gfx908", "host-x86_64-unknown-linux-gnu"},
	}
	results, err := NewBundleOp(reqCfg).UnbundleArchive("lib.a", archiveData)
	if err != nil {
		t.Fatalf("UnbundleArchive: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[2] != nil {
		t.Fatalf("expected the host-kind target to be skipped (nil), got %v", results[2])
	}

	members0, err := ReadArchive(results[0])
	if err != nil {
		t.Fatalf("ReadArchive(results[0]): %v", err)
	}
	// gfx906 in the stored entry's processor-id selects the ".bc" extension
	// per the device-file-extension rule, regardless of what was requested.
	if len(members0) != 1 || members0[0].Name != "libdevice-one-hip-amdgcn-amd-amdhsa-gfx906.bc" {
		t.Fatalf("unexpected gfx906 archive contents: %+v", members0)
	}
}

func TestUnbundleArchiveNoCompatibleTarget(t *testing.T) {
	reqCfg := &Config{
		FilesType:   "bc",
		TargetNames: []string{"hip-amdgcn-amd-amdhsa-gfx906"},
	}
	emptyArchive, err := WriteArchive(nil, ArchiveKindGNU)
	if err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}
	_, err = NewBundleOp(reqCfg).UnbundleArchive("lib.a", emptyArchive)
	var notFound *NoCompatibleTargetError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected *NoCompatibleTargetError, got %v", err)
	}
}
