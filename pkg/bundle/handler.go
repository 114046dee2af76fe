package bundle

import "io"

// Handler is the uniform streaming contract implemented by BinaryHandler,
// ObjectHandler, and TextHandler. A handler is a stateful object over a
// single container: read-side methods walk an existing container, write-side
// methods emit one from in-memory inputs. See spec.md §4.3 for the state
// machine every implementation must honor.
type Handler interface {
	// ReadHeader idempotently parses the container header. A malformed
	// header transitions the handler to a benign empty state (no bundles,
	// no error) rather than failing — see spec.md §9.
	ReadHeader(input []byte) error

	// ReadBundleStart advances to the next stored entry, returning its id
	// and true, or false at end-of-container.
	ReadBundleStart(input []byte) (id string, ok bool, err error)

	// ReadBundleEnd finalizes the current entry. The payload need not have
	// been read via ReadBundle first.
	ReadBundleEnd(input []byte) error

	// ReadBundle writes the current entry's payload to sink. Must be
	// called between a matching ReadBundleStart/ReadBundleEnd.
	ReadBundle(sink io.Writer, input []byte) error

	// WriteHeader emits the container header sized for the handler's
	// configured target list against inputs (same length, same order).
	WriteHeader(sink io.Writer, inputs [][]byte) error

	// WriteBundleStart/WriteBundle/WriteBundleEnd emit one entry for the
	// named target, in the order established by WriteHeader.
	WriteBundleStart(sink io.Writer, target string) error
	WriteBundle(sink io.Writer, input []byte) error
	WriteBundleEnd(sink io.Writer, target string) error

	// listCallback is invoked by ListIds once per bundle, after the id has
	// been emitted to the caller. Binary and object handlers do nothing;
	// the text handler uses it to advance past the payload to the next END
	// marker, since text containers carry no header to skip via offsets.
	listCallback(input []byte) error
}

// BundleEntry pairs a parsed TargetId with its payload. In binary
// containers, stored entries additionally carry offset/size — see
// BinaryHandler.
type BundleEntry struct {
	ID      TargetId
	Payload []byte
}

// ListIds reads the header and walks every bundle in input, calling emit
// with each raw id string in storage order. It is the shared implementation
// behind BundleOp.List, mirroring the original FileHandler::listBundleIDs.
func ListIds(h Handler, input []byte, emit func(id string) error) error {
	if err := h.ReadHeader(input); err != nil {
		return err
	}
	return forEachBundle(h, input, func(id string) error {
		if err := emit(id); err != nil {
			return err
		}
		return h.listCallback(input)
	})
}

// forEachBundle drives the read-side state machine, calling fn once per
// bundle id until the container is exhausted.
func forEachBundle(h Handler, input []byte, fn func(id string) error) error {
	for {
		id, ok, err := h.ReadBundleStart(input)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := fn(id); err != nil {
			return err
		}
	}
}
