package bundle

import (
	"bytes"
	"io"
)

// commentByFilesType maps a Config.FilesType value to the line-comment
// string its language uses, matching the original BundleAlignmentMarker
// selection in CreateFileHandler's text-handler branch.
var commentByFilesType = map[string]string{
	"i":    "//",
	"ii":   "//",
	"cui":  "//",
	"hipi": "//",
	"d":    "#",
	"ll":   ";",
	"s":    "#",
	"f95":  "!",
}

// TextHandler implements the comment-delimited text container described in
// spec.md §4.6: each entry is wrapped in a pair of marker lines built from
// the source language's own comment syntax,
//
//	<comment> __CLANG_OFFLOAD_BUNDLE____START__ <target>
//	...payload lines...
//	<comment> __CLANG_OFFLOAD_BUNDLE____END__ <target>
type TextHandler struct {
	cfg     *Config
	comment string

	input []byte
	pos   int

	curStart int
	curEnd   int
}

// NewTextHandler builds a TextHandler for the given comment string (e.g.
// "//", "#", ";", "!").
func NewTextHandler(cfg *Config, comment string) *TextHandler {
	return &TextHandler{cfg: cfg, comment: comment}
}

func (h *TextHandler) startMarker(target string) string {
	return h.comment + " " + MagicBundle + textStartSuffix + target
}

func (h *TextHandler) endMarker(target string) string {
	return h.comment + " " + MagicBundle + textEndSuffix + target
}

func (h *TextHandler) ReadHeader(input []byte) error {
	h.input = input
	h.pos = 0
	return nil
}

// ReadBundleStart scans forward from the current position for the next
// "<comment> __CLANG_OFFLOAD_BUNDLE____START__ <target>" line.
func (h *TextHandler) ReadBundleStart(input []byte) (string, bool, error) {
	marker := []byte(h.comment + " " + MagicBundle + textStartSuffix)
	idx := bytes.Index(h.input[h.pos:], marker)
	if idx < 0 {
		return "", false, nil
	}
	lineStart := h.pos + idx
	rest := lineStart + len(marker)
	lineEnd := bytes.IndexByte(h.input[rest:], '\n')
	if lineEnd < 0 {
		lineEnd = len(h.input) - rest
	}
	target := string(h.input[rest : rest+lineEnd])
	h.curStart = rest + lineEnd
	if h.curStart < len(h.input) {
		h.curStart++ // past the newline
	}
	h.pos = h.curStart
	return target, true, nil
}

// ReadBundleEnd locates the matching END marker and advances past it,
// without requiring the caller to have read the payload first.
func (h *TextHandler) ReadBundleEnd(input []byte) error {
	target, endPos, err := h.findEnd()
	_ = target
	if err != nil {
		return err
	}
	h.pos = endPos
	return nil
}

// findEnd locates the next END marker line, returning its target and the
// position immediately following it.
func (h *TextHandler) findEnd() (string, int, error) {
	marker := []byte(h.comment + " " + MagicBundle + textEndSuffix)
	idx := bytes.Index(h.input[h.pos:], marker)
	if idx < 0 {
		return "", len(h.input), ErrInternal
	}
	lineStart := h.pos + idx
	rest := lineStart + len(marker)
	lineEnd := bytes.IndexByte(h.input[rest:], '\n')
	if lineEnd < 0 {
		lineEnd = len(h.input) - rest
	}
	target := string(h.input[rest : rest+lineEnd])
	end := rest + lineEnd
	if end < len(h.input) {
		end++
	}
	return target, end, nil
}

// ReadBundle writes every line between the current START marker and the
// matching END marker to sink, exclusive of both marker lines.
func (h *TextHandler) ReadBundle(sink io.Writer, input []byte) error {
	_, endPos, err := h.findEnd()
	if err != nil {
		return err
	}
	marker := []byte(h.comment + " " + MagicBundle + textEndSuffix)
	idx := bytes.Index(h.input[h.curStart:], marker)
	if idx < 0 {
		return ErrInternal
	}
	payload := h.input[h.curStart : h.curStart+idx]
	_ = endPos
	_, werr := sink.Write(payload)
	return werr
}

// listCallback advances past the current entry's END marker, since the text
// container has no offset table to skip via and ListIds otherwise would loop
// on the same START marker forever.
func (h *TextHandler) listCallback(input []byte) error {
	_, endPos, err := h.findEnd()
	if err != nil {
		return err
	}
	h.pos = endPos
	return nil
}

func (h *TextHandler) WriteHeader(sink io.Writer, inputs [][]byte) error {
	return nil
}

func (h *TextHandler) WriteBundleStart(sink io.Writer, target string) error {
	_, err := io.WriteString(sink, h.startMarker(target)+"\n")
	return err
}

func (h *TextHandler) WriteBundle(sink io.Writer, input []byte) error {
	if _, err := sink.Write(input); err != nil {
		return err
	}
	if len(input) == 0 || input[len(input)-1] != '\n' {
		if _, err := io.WriteString(sink, "\n"); err != nil {
			return err
		}
	}
	return nil
}

func (h *TextHandler) WriteBundleEnd(sink io.Writer, target string) error {
	_, err := io.WriteString(sink, h.endMarker(target)+"\n")
	return err
}
