package bundle

import "io"

// NoHostIndex is the sentinel value for Config.HostInputIndex meaning
// "no host input was designated."
const NoHostIndex = ^uint(0)

// Config is the shared parameter object threaded through every bundle
// operation. It never owns the byte streams it describes — callers open
// InputFileNames/OutputFileNames and pass buffers or readers separately to
// the BundleOp entry points.
type Config struct {
	// InputFileNames are the ordered input paths. "-" denotes stdin.
	InputFileNames []string
	// OutputFileNames are the ordered output paths, aligned with
	// TargetNames for Unbundle/UnbundleArchive. Bundle uses only
	// OutputFileNames[0], as the object-copy output path.
	OutputFileNames []string
	// TargetNames are the ordered bundle entry ids.
	TargetNames []string

	// FilesType selects the handler: i, ii, cui, hipi, d, ll, bc, s, o, a,
	// gch, ast, and f95 when EnableClassicFlang is set.
	FilesType string
	// EnableClassicFlang opts in to the "f95" files type (text, "!" comment).
	EnableClassicFlang bool

	// HostInputIndex is the index into InputFileNames naming the host
	// input, or NoHostIndex if unset.
	HostInputIndex uint

	// BundleAlignment is the alignment, in bytes, of every payload offset
	// in a binary container. Must be a power of 2.
	BundleAlignment uint64

	// HipOpenmpCompatible enables the HIP<->OpenMP cross-kind
	// compatibility described in Compat.
	HipOpenmpCompatible bool
	// AllowMissingBundles suppresses MissingBundlesError/ErrMissingHost on
	// Unbundle, and NoCompatibleTargetError on UnbundleArchive.
	AllowMissingBundles bool
	// AllowNoHost selects input 0 as the handler reference on Bundle when
	// no host input is designated.
	AllowNoHost bool

	// PrintExternalCommands prints the object-copy command instead of
	// executing it.
	PrintExternalCommands bool
	// ObjcopyPath is the path to the external object-copy tool.
	ObjcopyPath string

	// Diagnostics receives "CodeObjectCompatibility" debug lines and
	// handler diagnostics. Defaults to io.Discard if nil.
	Diagnostics io.Writer
}

func (c *Config) diag() io.Writer {
	if c.Diagnostics == nil {
		return io.Discard
	}
	return c.Diagnostics
}

// alignment returns the configured bundle alignment, defaulting to 1 (no
// padding) when unset.
func (c *Config) alignment() uint64 {
	if c.BundleAlignment == 0 {
		return 1
	}
	return c.BundleAlignment
}
