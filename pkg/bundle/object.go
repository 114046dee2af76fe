package bundle

import (
	"bytes"
	"debug/elf"
	"debug/macho"
	"debug/pe"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// sentinelHostSection is the single zero byte original writes in place of a
// section body for the host entry: the host's own translation unit is the
// object file itself, so the section only has to mark that a host entry
// exists at all.
var sentinelHostSection = []byte{0}

type objSection struct {
	name string
	data []byte
}

// readObjectSections recognizes data as ELF, Mach-O, or PE and returns its
// sections. ok is false when none of the three formats claim the input, at
// which point the caller should fall back to BinaryHandler.
func readObjectSections(data []byte) (secs []objSection, ok bool) {
	if f, err := elf.NewFile(bytes.NewReader(data)); err == nil {
		for _, s := range f.Sections {
			b, derr := s.Data()
			if derr != nil {
				continue
			}
			secs = append(secs, objSection{name: s.Name, data: b})
		}
		return secs, true
	}
	if f, err := macho.NewFile(bytes.NewReader(data)); err == nil {
		for _, s := range f.Sections {
			b, derr := s.Data()
			if derr != nil {
				continue
			}
			secs = append(secs, objSection{name: s.Name, data: b})
		}
		return secs, true
	}
	if f, err := pe.NewFile(bytes.NewReader(data)); err == nil {
		for _, s := range f.Sections {
			b, derr := s.Data()
			if derr != nil {
				continue
			}
			secs = append(secs, objSection{name: s.Name, data: b})
		}
		return secs, true
	}
	return nil, false
}

// sectionName builds the offload section name for a target id: the magic
// prefix followed by the id with every ':' replaced by '_', matching the
// original getBundleSectionNameEncoded.
func sectionName(target string) string {
	return MagicBundle + strings.ReplaceAll(target, ":", "_")
}

// targetFromSectionName reverses sectionName, returning the embedded id and
// whether the section was an offload section at all.
func targetFromSectionName(name string) (string, bool) {
	if !strings.HasPrefix(name, MagicBundle) {
		return "", false
	}
	return strings.TrimPrefix(name, MagicBundle), true
}

// ObjectHandler implements the object-file-section container described in
// spec.md §4.5: every non-host entry is stored as a section named
// "__CLANG_OFFLOAD_BUNDLE__<target>" (':' escaped to '_'); the host entry's
// section holds sentinelHostSection, since the host's own object file is its
// own payload.
//
// The read side enumerates sections directly (ELF/Mach-O/PE, via the
// standard library's debug/* packages). The write side does not synthesize
// object file bytes itself — the host toolchain's own object-copy tool does —
// so WriteHeader/WriteBundleStart/WriteBundle only accumulate state, and
// WriteBundleEnd performs the actual section-add pass once every target has
// been seen.
type ObjectHandler struct {
	cfg *Config

	rawInput []byte
	entries  []objSection
	nextIdx  int
	curIdx   int

	numTargets int
	processed  int
}

// NewObjectHandler builds an ObjectHandler bound to cfg.
func NewObjectHandler(cfg *Config) *ObjectHandler {
	return &ObjectHandler{cfg: cfg, curIdx: -1}
}

func (h *ObjectHandler) ReadHeader(input []byte) error {
	h.rawInput = input
	h.entries = nil
	h.nextIdx = 0
	h.curIdx = -1

	secs, ok := readObjectSections(input)
	if !ok {
		return nil
	}
	for _, s := range secs {
		if _, isOffload := targetFromSectionName(s.name); isOffload {
			h.entries = append(h.entries, s)
		}
	}
	return nil
}

func (h *ObjectHandler) ReadBundleStart(input []byte) (string, bool, error) {
	if h.nextIdx >= len(h.entries) {
		return "", false, nil
	}
	h.curIdx = h.nextIdx
	h.nextIdx++
	id, _ := targetFromSectionName(h.entries[h.curIdx].name)
	return id, true, nil
}

func (h *ObjectHandler) ReadBundleEnd(input []byte) error {
	if h.curIdx < 0 || h.curIdx >= len(h.entries) {
		return ErrInternal
	}
	return nil
}

func (h *ObjectHandler) ReadBundle(sink io.Writer, input []byte) error {
	if h.curIdx < 0 || h.curIdx >= len(h.entries) {
		return ErrInternal
	}
	content := h.entries[h.curIdx].data
	if bytes.Equal(content, sentinelHostSection) {
		content = h.rawInput
	}
	_, err := sink.Write(content)
	return err
}

func (h *ObjectHandler) listCallback(input []byte) error { return nil }

func (h *ObjectHandler) WriteHeader(sink io.Writer, inputs [][]byte) error {
	h.numTargets = len(h.cfg.TargetNames)
	h.processed = 0
	return nil
}

func (h *ObjectHandler) WriteBundleStart(sink io.Writer, target string) error {
	h.processed++
	return nil
}

func (h *ObjectHandler) WriteBundle(sink io.Writer, input []byte) error {
	return nil
}

// WriteBundleEnd runs the external object-copy pass once the final target has
// been seen, adding one section per target to the host object file (the host
// target's section is a temp file holding sentinelHostSection) and producing
// Config.OutputFileNames[0].
func (h *ObjectHandler) WriteBundleEnd(sink io.Writer, target string) error {
	if h.processed != h.numTargets {
		return nil
	}
	if c, ok := sink.(io.Closer); ok {
		c.Close()
	}

	cfg := h.cfg
	if len(cfg.OutputFileNames) == 0 {
		return ErrInternal
	}

	scope := NewTempScope()
	defer scope.Close()

	hostInput := ""
	args := make([]string, 0, 2*len(cfg.TargetNames)+4)
	for i, tgt := range cfg.TargetNames {
		file := cfg.InputFileNames[i]
		if uint(i) == cfg.HostInputIndex {
			hostInput = file
			tmp, err := scope.WriteTemp("offload-host-*", sentinelHostSection)
			if err != nil {
				return err
			}
			file = tmp
		}
		name := sectionName(tgt)
		args = append(args,
			fmt.Sprintf("--add-section=%s=%s", name, file),
			fmt.Sprintf("--set-section-flags=%s=readonly,exclude", name))
	}

	if hostInput == "" {
		if len(cfg.InputFileNames) == 0 {
			return ErrInternal
		}
		hostInput = cfg.InputFileNames[0]
	}

	args = append(args, hostInput, cfg.OutputFileNames[0])

	if cfg.PrintExternalCommands {
		fmt.Fprintf(cfg.diag(), "%s %s\n", cfg.ObjcopyPath, strings.Join(args, " "))
		return nil
	}

	cmd := exec.Command(cfg.ObjcopyPath, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		exitCode := -1
		if ee, ok := err.(*exec.ExitError); ok {
			exitCode = ee.ExitCode()
		}
		return &ToolFailureError{Tool: cfg.ObjcopyPath, ExitCode: exitCode}
	}
	return nil
}

