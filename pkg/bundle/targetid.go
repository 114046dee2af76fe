package bundle

import "strings"

// validKinds are the recognized offload kinds, compared exactly by
// ValidKind. The case-insensitive "hip" prefix match applies only to kind
// compatibility (see kindsCompatible).
var validKinds = map[string]bool{
	"host":   true,
	"openmp": true,
	"hip":    true,
	"hipv4":  true,
}

// Triple is the four-tuple machine ABI identifier (arch, vendor, os, env).
// env is always present in canonical form (empty string if omitted in the
// source string).
type Triple struct {
	Arch   string
	Vendor string
	OS     string
	Env    string
}

// String rejoins the tuple with "-" separators. An empty Env still
// contributes a trailing "-".
func (t Triple) String() string {
	return t.Arch + "-" + t.Vendor + "-" + t.OS + "-" + t.Env
}

// Valid reports whether the triple's canonical form is usable: nonempty and
// with a recognized (non-"unknown") architecture.
func (t Triple) Valid() bool {
	if t.String() == "---" {
		return false
	}
	return !strings.EqualFold(t.Arch, "unknown") && t.Arch != ""
}

// ParseTriple normalizes a triple string of shape arch[-vendor[-os[-env]]]
// into its four canonical components, defaulting absent fields to empty.
func ParseTriple(s string) Triple {
	parts := strings.SplitN(s, "-", 4)
	var t Triple
	if len(parts) > 0 {
		t.Arch = parts[0]
	}
	if len(parts) > 1 {
		t.Vendor = parts[1]
	}
	if len(parts) > 2 {
		t.OS = parts[2]
	}
	if len(parts) > 3 {
		t.Env = parts[3]
	}
	return t
}

// TargetId is the parsed form of a bundle entry id:
// kind-triple[:feat1[:feat2...]] where the triple's last component may
// instead be a recognized accelerator processor-id (gfx* or sm_*), in which
// case it and any following feature tags are split off into ProcessorID.
type TargetId struct {
	Kind        string
	Triple      Triple
	ProcessorID string
}

// isProcessorMarker reports whether s begins with a recognized accelerator
// processor marker (gfx* or sm_*). Neither marker is case sensitive in the
// original StringToCudaArch lookup, so neither is this one.
func isProcessorMarker(s string) bool {
	low := strings.ToLower(s)
	return strings.HasPrefix(low, "gfx") || strings.HasPrefix(low, "sm_")
}

// ParseTargetId parses a bundle entry id string per spec.md §4.1.
func ParseTargetId(s string) TargetId {
	head, feats, hasFeats := strings.Cut(s, ":")

	tripleOrGPU, tail, hasDash := cutLast(head, "-")
	var processorID string
	if hasDash && isProcessorMarker(tail) {
		processorID = tail
		if hasFeats {
			processorID += ":" + feats
		}
		head = tripleOrGPU
	}

	kind, tripleStr, _ := strings.Cut(head, "-")

	return TargetId{
		Kind:        kind,
		Triple:      ParseTriple(tripleStr),
		ProcessorID: processorID,
	}
}

// cutLast splits s at the last occurrence of sep, returning the part
// before sep, the part after, and whether sep was found.
func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}

// ValidKind reports whether Kind is one of host, openmp, hip, hipv4.
func (t TargetId) ValidKind() bool {
	return validKinds[t.Kind]
}

// Valid reports whether the id as a whole is usable: valid kind and valid
// triple.
func (t TargetId) Valid() bool {
	return t.ValidKind() && t.Triple.Valid()
}

// HasHostKind reports whether this id names the host offload kind.
func (t TargetId) HasHostKind() bool {
	return t.Kind == "host"
}

// String renders kind-triple-processorid. The trailing hyphen is always
// emitted, even when ProcessorID is empty.
func (t TargetId) String() string {
	return t.Kind + "-" + t.Triple.String() + "-" + t.ProcessorID
}

// Equal reports id equality: equal kind, compatible triples, equal
// processor ids. It does not consult TargetIdMatch — see Compat for the
// asymmetric compatibility relation used by Unbundle.
func (t TargetId) Equal(other TargetId) bool {
	return t.Kind == other.Kind &&
		triplesCompatible(t.Triple, other.Triple) &&
		t.ProcessorID == other.ProcessorID
}
