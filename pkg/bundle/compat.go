package bundle

import (
	"fmt"
	"strings"
)

// TargetIdMatcher decides whether a stored processor-id satisfies a
// requested one. It is external to the core per spec.md §6: equality is
// sufficient but not necessary — if requested carries no processor-id, any
// stored processor-id matches; otherwise both must share the same base
// processor and stored's feature set must be consistent with requested's
// required/forbidden features.
//
// Implementations MUST be called with stored as the first argument and
// requested as the second; the relation is not symmetric in general.
type TargetIdMatcher func(stored, requested string) bool

// DefaultTargetIdMatch is a conservative TargetIdMatcher: exact match, or
// "requested has no processor-id" (any stored processor-id satisfies an
// unconstrained request). It does not attempt feature-tag (+/-) reasoning;
// callers needing that should supply their own TargetIdMatcher.
func DefaultTargetIdMatch(stored, requested string) bool {
	if requested == "" {
		return true
	}
	return stored == requested
}

// triplesCompatible decides whether two triples are compatible: same arch
// family, compatible OS/env, per the toolchain-wide triple-compatibility
// relation referenced in spec.md §6. The core treats this as equality of
// canonical form, which is what every bundle producer/consumer in this
// domain actually emits.
func triplesCompatible(a, b Triple) bool {
	return a.String() == b.String()
}

// Compat decides whether a stored entry satisfies a requested target, per
// spec.md §4.2. match is the external processor-id predicate; pass nil to
// use DefaultTargetIdMatch.
func Compat(cfg *Config, stored, requested TargetId, match TargetIdMatcher) bool {
	if match == nil {
		match = DefaultTargetIdMatch
	}

	result := compat(cfg, stored, requested, match)
	if cfg != nil {
		fmt.Fprintf(cfg.diag(), "CodeObjectCompatibility: stored=%s requested=%s compatible=%t\n",
			stored.String(), requested.String(), result)
	}
	return result
}

func compat(cfg *Config, stored, requested TargetId, match TargetIdMatcher) bool {
	if stored.Equal(requested) {
		return true
	}

	if !kindsCompatible(cfg, stored.Kind, requested.Kind) {
		return false
	}
	if !triplesCompatible(stored.Triple, requested.Triple) {
		return false
	}

	return match(stored.ProcessorID, requested.ProcessorID)
}

// kindsCompatible implements the HIP<->OpenMP cross-kind relation gated by
// Config.HipOpenmpCompatible.
func kindsCompatible(cfg *Config, stored, requested string) bool {
	if stored == requested {
		return true
	}
	if cfg == nil || !cfg.HipOpenmpCompatible {
		return false
	}
	storedHIP := strings.HasPrefix(strings.ToLower(stored), "hip")
	requestedHIP := strings.HasPrefix(strings.ToLower(requested), "hip")
	hipToOpenMP := storedHIP && requested == "openmp"
	openMPToHip := stored == "openmp" && requestedHIP
	return hipToOpenMP || openMPToHip
}
