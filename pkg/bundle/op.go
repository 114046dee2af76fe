package bundle

import (
	"bytes"
	"strings"
)

// selectHandler picks the Handler implementation for cfg.FilesType, peeking
// at sample (normally the first input, or the single input being unbundled)
// to disambiguate the "o" files type between ObjectHandler and BinaryHandler,
// exactly as the original CreateFileHandler/CreateObjectFileHandler dispatch
// does.
func selectHandler(cfg *Config, sample []byte) (Handler, error) {
	if comment, ok := commentByFilesType[cfg.FilesType]; ok {
		if cfg.FilesType == "f95" && !cfg.EnableClassicFlang {
			return nil, &InvalidFilesTypeError{Value: cfg.FilesType}
		}
		return NewTextHandler(cfg, comment), nil
	}

	switch cfg.FilesType {
	case "bc", "gch", "ast":
		return NewBinaryHandler(cfg), nil
	case "o", "a":
		if _, ok := readObjectSections(sample); ok {
			return NewObjectHandler(cfg), nil
		}
		return NewBinaryHandler(cfg), nil
	default:
		return nil, &InvalidFilesTypeError{Value: cfg.FilesType}
	}
}

// BundleOp is the entry point for the four top-level operations: List,
// Bundle, Unbundle, UnbundleArchive. It holds no state beyond its Config and
// is safe to reuse across calls.
type BundleOp struct {
	cfg *Config
}

// NewBundleOp builds a BundleOp bound to cfg.
func NewBundleOp(cfg *Config) *BundleOp {
	return &BundleOp{cfg: cfg}
}

// List returns every bundle entry id stored in input, in storage order.
func (op *BundleOp) List(input []byte) ([]string, error) {
	h, err := selectHandler(op.cfg, input)
	if err != nil {
		return nil, err
	}
	var ids []string
	err = ListIds(h, input, func(id string) error {
		ids = append(ids, id)
		return nil
	})
	return ids, err
}

// Bundle packs inputs (aligned with Config.TargetNames) into a single
// container. The handler is selected from the designated host input, or
// input 0 when Config.AllowNoHost is set.
//
// When ObjectHandler is selected (files type "o" or "a" with an object-file
// reference input), the returned byte slice is empty: the
// ObjectHandler writes its result straight to Config.OutputFileNames[0] via
// the external object-copy tool, since a host object can only be amended by
// the toolchain that produced it.
func (op *BundleOp) Bundle(inputs [][]byte) ([]byte, error) {
	cfg := op.cfg
	if len(inputs) != len(cfg.TargetNames) {
		return nil, ErrInternal
	}

	var ref []byte
	if len(inputs) > 0 {
		ref = inputs[0]
	}
	if cfg.HostInputIndex != NoHostIndex && int(cfg.HostInputIndex) < len(inputs) {
		ref = inputs[cfg.HostInputIndex]
	} else if cfg.HostInputIndex == NoHostIndex && !cfg.AllowNoHost && len(inputs) > 0 {
		return nil, ErrMissingHost
	}

	h, err := selectHandler(cfg, ref)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := h.WriteHeader(&buf, inputs); err != nil {
		return nil, err
	}
	for i, target := range cfg.TargetNames {
		if err := h.WriteBundleStart(&buf, target); err != nil {
			return nil, err
		}
		if err := h.WriteBundle(&buf, inputs[i]); err != nil {
			return nil, err
		}
		if err := h.WriteBundleEnd(&buf, target); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// want is one entry of the Unbundle worklist: a requested target still
// waiting for a compatible stored bundle.
type want struct {
	idx int
	id  TargetId
	raw string
}

// Unbundle splits input back into one payload per Config.TargetNames entry,
// calling emit(idx, payload) for every target in stored order (an empty
// payload for a target that was never satisfied). It implements the
// worklist algorithm from the original UnbundleFiles: each stored bundle is
// checked against every outstanding request in turn, and the first
// compatible match consumes both the stored bundle and the request.
//
// If nothing at all matched, the input is assumed to be the host bundle
// itself: every host-kind request is satisfied with input's raw bytes and
// every other request gets an empty payload, unconditionally — this does
// not consult Config.AllowNoHost, which only governs Bundle's handler
// selection. Otherwise, an outstanding worklist fails with
// MissingBundlesError unless Config.AllowMissingBundles is set; failing
// that, ErrMissingHost is returned when no host-kind entry was seen in the
// container and Config.HostInputIndex was explicitly set. Any remaining
// outstanding request after that gets an empty payload.
func (op *BundleOp) Unbundle(input []byte, emit func(idx int, payload []byte) error) error {
	cfg := op.cfg
	h, err := selectHandler(cfg, input)
	if err != nil {
		return err
	}
	if err := h.ReadHeader(input); err != nil {
		return err
	}

	worklist := make([]want, len(cfg.TargetNames))
	for i, t := range cfg.TargetNames {
		worklist[i] = want{idx: i, id: ParseTargetId(t), raw: t}
	}
	written := make([]bool, len(worklist))
	sawHost := false

	err = forEachBundle(h, input, func(storedRaw string) error {
		storedID := ParseTargetId(storedRaw)
		if storedID.HasHostKind() {
			sawHost = true
		}
		for wi := range worklist {
			if written[wi] {
				continue
			}
			if !Compat(cfg, storedID, worklist[wi].id, nil) {
				continue
			}
			var buf bytes.Buffer
			if err := h.ReadBundle(&buf, input); err != nil {
				return err
			}
			if err := emit(worklist[wi].idx, buf.Bytes()); err != nil {
				return err
			}
			written[wi] = true
			break
		}
		return h.ReadBundleEnd(input)
	})
	if err != nil {
		return err
	}

	matchedAny := false
	for _, w := range written {
		if w {
			matchedAny = true
			break
		}
	}
	if !matchedAny && len(worklist) > 0 {
		for _, w := range worklist {
			if w.id.HasHostKind() {
				if err := emit(w.idx, input); err != nil {
					return err
				}
			} else if err := emit(w.idx, nil); err != nil {
				return err
			}
		}
		return nil
	}

	var missing []string
	for wi, w := range worklist {
		if !written[wi] {
			missing = append(missing, w.raw)
		}
	}
	if len(missing) > 0 && !cfg.AllowMissingBundles {
		return &MissingBundlesError{Targets: missing}
	}
	if !sawHost && cfg.HostInputIndex != NoHostIndex && !cfg.AllowMissingBundles {
		return ErrMissingHost
	}
	for wi, w := range worklist {
		if !written[wi] {
			if err := emit(w.idx, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// stemName strips a trailing "."-extension from an archive member name.
func stemName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return name
}

// deviceFileExtension mirrors the original getDeviceFileExtension: the file
// suffix a per-target archive member is renamed to, derived from the
// *matched stored* entry's processor-id, falling back to the source
// member's own extension when the processor-id names neither family.
func deviceFileExtension(processorID, memberName string) string {
	switch {
	case strings.Contains(processorID, "gfx"):
		return ".bc"
	case strings.Contains(processorID, "sm_"):
		return ".cubin"
	default:
		if i := strings.LastIndexByte(memberName, '.'); i >= 0 {
			return memberName[i:]
		}
		return ""
	}
}

// UnbundleArchive extracts, per requested target in Config.TargetNames, a
// new static library built from the compatible bundles found in every
// member of the source archive (the "multi-match" in spec.md §4.7: a single
// archive member can satisfy more than one requested target, and a single
// target can be satisfied by more than one member). Host-kind targets are
// always skipped — this package doesn't extract host code from archives,
// matching the original's explicit "we don't extract host code yet".
//
// The returned slice is aligned with Config.TargetNames; a nil entry marks a
// host-kind (skipped) target. A target with no compatible bundle gets an
// empty archive when Config.AllowMissingBundles is set.
func (op *BundleOp) UnbundleArchive(archivePath string, archiveData []byte) ([][]byte, error) {
	cfg := op.cfg
	members, err := ReadArchive(archiveData)
	if err != nil {
		return nil, err
	}

	results := make([][]byte, len(cfg.TargetNames))
	matched := make([]bool, len(cfg.TargetNames))
	collected := make([][]ArchiveMember, len(cfg.TargetNames))

	for _, mem := range members {
		h, err := selectHandler(cfg, mem.Data)
		if err != nil {
			continue
		}
		if err := h.ReadHeader(mem.Data); err != nil {
			continue
		}
		stem := stemName(mem.Name)

		err = forEachBundle(h, mem.Data, func(storedRaw string) error {
			storedID := ParseTargetId(storedRaw)
			for ti, reqRaw := range cfg.TargetNames {
				reqID := ParseTargetId(reqRaw)
				if reqID.HasHostKind() {
					continue
				}
				if !Compat(cfg, storedID, reqID, nil) {
					continue
				}
				var buf bytes.Buffer
				if err := h.ReadBundle(&buf, mem.Data); err != nil {
					return err
				}
				name := stem + "-" + strings.ReplaceAll(storedRaw, ":", "_") + deviceFileExtension(storedID.ProcessorID, mem.Name)
				collected[ti] = append(collected[ti], ArchiveMember{Name: name, Data: buf.Bytes()})
				matched[ti] = true
			}
			return h.ReadBundleEnd(mem.Data)
		})
		if err != nil {
			return nil, err
		}
	}

	for ti, reqRaw := range cfg.TargetNames {
		reqID := ParseTargetId(reqRaw)
		if reqID.HasHostKind() {
			continue
		}
		if !matched[ti] && !cfg.AllowMissingBundles {
			return nil, &NoCompatibleTargetError{Target: reqRaw, ArchivePath: archivePath}
		}
		data, werr := WriteArchive(collected[ti], DefaultArchiveKind())
		if werr != nil {
			return nil, werr
		}
		results[ti] = data
	}
	return results, nil
}
