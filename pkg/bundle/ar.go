package bundle

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// ArchiveKind selects which ar dialect WriteArchive emits. ReadArchive
// auto-detects either dialect regardless of this setting.
type ArchiveKind int

const (
	// ArchiveKindGNU is the System V / GNU ar format: long names are stored
	// in a "//" string-table member and referenced as "/<offset>".
	ArchiveKindGNU ArchiveKind = iota
	// ArchiveKindDarwin is the BSD ar format: long names use the "#1/<len>"
	// extended-name convention, with the name bytes prefixed onto the
	// member's data.
	ArchiveKindDarwin
)

// DefaultArchiveKind mirrors the original getDefaultArchiveKindForHost:
// Darwin hosts write Darwin-style archives, everyone else writes GNU.
func DefaultArchiveKind() ArchiveKind {
	if runtime.GOOS == "darwin" {
		return ArchiveKindDarwin
	}
	return ArchiveKindGNU
}

const (
	arGlobalMagic = "!<arch>\n"
	arHeaderSize  = 60
	arEndMagic    = "`\n"
)

// ArchiveMember is one file stored in a static library.
type ArchiveMember struct {
	Name string
	Data []byte
}

// ReadArchive parses data as either GNU or BSD/Darwin ar, returning its
// regular members in storage order. Symbol-table ("/" or "/SYM64/") and
// string-table ("//") members are consumed internally and never returned.
func ReadArchive(data []byte) ([]ArchiveMember, error) {
	if len(data) < len(arGlobalMagic) || string(data[:len(arGlobalMagic)]) != arGlobalMagic {
		return nil, ErrMalformedArchive
	}
	pos := len(arGlobalMagic)

	var nameTable string
	var members []ArchiveMember

	for pos < len(data) {
		if pos+arHeaderSize > len(data) {
			return nil, ErrMalformedArchive
		}
		header := data[pos : pos+arHeaderSize]
		pos += arHeaderSize

		if string(header[58:60]) != arEndMagic {
			return nil, ErrMalformedArchive
		}

		rawName := strings.TrimRight(string(header[0:16]), " ")
		sizeStr := strings.TrimSpace(string(header[48:58]))
		size, err := strconv.ParseUint(sizeStr, 10, 64)
		if err != nil {
			return nil, ErrMalformedArchive
		}

		if pos+int(size) > len(data) {
			return nil, ErrMalformedArchive
		}
		body := data[pos : pos+int(size)]
		pos += int(size)
		if size%2 != 0 && pos < len(data) {
			pos++ // padding byte
		}

		switch {
		case rawName == "//":
			nameTable = string(body)
			continue
		case rawName == "/" || rawName == "/SYM64/":
			continue // symbol table, not a real member
		case strings.HasPrefix(rawName, "/"):
			offStr := rawName[1:]
			off, err := strconv.Atoi(offStr)
			if err != nil || off < 0 || off > len(nameTable) {
				return nil, ErrMalformedArchive
			}
			name := nameTable[off:]
			if end := strings.IndexAny(name, "/\n"); end >= 0 {
				name = name[:end]
			}
			members = append(members, ArchiveMember{Name: name, Data: body})
		case strings.HasPrefix(rawName, "#1/"):
			n, err := strconv.Atoi(strings.TrimSpace(rawName[3:]))
			if err != nil || n < 0 || n > len(body) {
				return nil, ErrMalformedArchive
			}
			name := strings.TrimRight(string(body[:n]), "\x00")
			members = append(members, ArchiveMember{Name: name, Data: body[n:]})
		default:
			members = append(members, ArchiveMember{Name: strings.TrimSuffix(rawName, "/"), Data: body})
		}
	}

	return members, nil
}

// WriteArchive serializes members as an ar archive of the given kind. It
// never writes a symbol table: nothing in this domain inspects archive
// members for symbols, only for names, so the extra index would be dead
// weight (see DESIGN.md).
func WriteArchive(members []ArchiveMember, kind ArchiveKind) ([]byte, error) {
	switch kind {
	case ArchiveKindDarwin:
		return writeArchiveDarwin(members)
	default:
		return writeArchiveGNU(members)
	}
}

func writeArchiveGNU(members []ArchiveMember) ([]byte, error) {
	var nameTable strings.Builder
	offsets := make([]int, len(members))
	for i, m := range members {
		if len(m.Name) <= 15 {
			continue
		}
		offsets[i] = nameTable.Len()
		nameTable.WriteString(m.Name)
		nameTable.WriteString("/\n")
	}

	var out []byte
	out = append(out, []byte(arGlobalMagic)...)

	if nameTable.Len() > 0 {
		out = appendArHeader(out, "//", 0, 0, 0, 0, uint64(nameTable.Len()), true)
		out = append(out, []byte(nameTable.String())...)
		if nameTable.Len()%2 != 0 {
			out = append(out, '\n')
		}
	}

	for i, m := range members {
		var nameField string
		if len(m.Name) <= 15 {
			nameField = m.Name + "/"
		} else {
			nameField = "/" + strconv.Itoa(offsets[i])
		}
		out = appendArHeader(out, nameField, 0, 0, 0, 0o100644, uint64(len(m.Data)), false)
		out = append(out, m.Data...)
		if len(m.Data)%2 != 0 {
			out = append(out, '\n')
		}
	}
	return out, nil
}

func writeArchiveDarwin(members []ArchiveMember) ([]byte, error) {
	var out []byte
	out = append(out, []byte(arGlobalMagic)...)

	for _, m := range members {
		size := len(m.Data)
		if len(m.Name) <= 16 && !strings.ContainsAny(m.Name, " /") {
			out = appendArHeader(out, m.Name, 0, 0, 0, 0o100644, uint64(len(m.Data)), false)
			out = append(out, m.Data...)
		} else {
			nameField := fmt.Sprintf("#1/%d", len(m.Name))
			body := append([]byte(m.Name), m.Data...)
			out = appendArHeader(out, nameField, 0, 0, 0, 0o100644, uint64(len(body)), false)
			out = append(out, body...)
			size = len(body)
		}
		if size%2 != 0 {
			out = append(out, '\n')
		}
	}
	return out, nil
}

// appendArHeader appends one fixed 60-byte ar member header. raw, when true,
// writes name without the GNU "/"-pad convention mattering (used for the
// string-table pseudo-member, whose name is always exactly "//").
func appendArHeader(out []byte, name string, mtime, uid, gid uint64, mode uint32, size uint64, raw bool) []byte {
	var h [arHeaderSize]byte
	for i := range h {
		h[i] = ' '
	}
	copy(h[0:16], padField(name, 16))
	copy(h[16:28], padField(strconv.FormatUint(mtime, 10), 12))
	copy(h[28:34], padField(strconv.FormatUint(uid, 10), 6))
	copy(h[34:40], padField(strconv.FormatUint(gid, 10), 6))
	copy(h[40:48], padField(strconv.FormatUint(uint64(mode), 8), 8))
	copy(h[48:58], padField(strconv.FormatUint(size, 10), 10))
	h[58] = '`'
	h[59] = '\n'
	return append(out, h[:]...)
}

// padField left-justifies s within width bytes, space-filling the remainder,
// truncating if s is already too long (callers keep names within the field
// widths the two ar dialects allow).
func padField(s string, width int) []byte {
	b := make([]byte, width)
	for i := range b {
		b[i] = ' '
	}
	n := copy(b, s)
	_ = n
	if len(s) > width {
		return []byte(s[:width])
	}
	return b
}
