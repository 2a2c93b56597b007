// Package ar implements the common-format archive codec (spec.md §3.6,
// §4.3.2, §6.2): a flat list of named members framed by fixed 60-byte
// headers, plus the two distinguished special members (long-name string
// table, symbol table) every linker-facing archive carries. Grounded on
// original binfmt/src/ar.rs's header layout and member-framing pass,
// rendered in the teacher's "buffer entire output, compute offsets as we
// go" style (elf_complete.go's WriteCompleteDynamicELF).
package ar

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lccc-project/lc-binutils/binfmt"
)

// Magic is the 8-byte archive signature every valid ar file starts with.
const Magic = "!<arch>\n"

const headerSize = 60

// Member is one entry in an Archive: a name plus its raw payload. Name is
// always the logical member name — never a `/offset` form or the special
// `//`/empty-string marker names, which this package handles internally.
type Member struct {
	Name    string
	ModTime int64
	UID     int
	GID     int
	Mode    uint32
	Data    []byte
}

// Archive is an ordered list of members (spec.md §3.6). The long-name and
// symbol-table special members are not represented here: ReadArchive
// strips them while resolving names, and WriteArchive regenerates them.
type Archive struct {
	Members []Member
}

var ErrInvalidData = errors.New("ar: invalid archive data")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidData, fmt.Sprintf(format, args...))
}

// longNameMemberName is the name this codec writes for the long-name
// string-table member. spec.md permits either an empty name or `//` for
// this member; `//` is used here to keep it visually distinct from the
// symbol-table member, which uses the empty name.
const longNameMemberName = "//"

type rawHeader struct {
	name    string // as it appears in the header's 16-byte name field, untrimmed of trailing spaces/slash
	modTime int64
	uid, gid int
	mode    uint32
	size    int64
}

func decimalField(b []byte) (int64, error) {
	s := strings.TrimRight(string(b), " ")
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, invalidf("non-decimal field %q", s)
	}
	return v, nil
}

func octalField(b []byte) (uint32, error) {
	s := strings.TrimRight(string(b), " ")
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, invalidf("non-octal mode field %q", s)
	}
	return uint32(v), nil
}

func decodeHeader(h []byte) (rawHeader, error) {
	if len(h) != headerSize {
		return rawHeader{}, invalidf("short member header")
	}
	if h[58] != 0x60 || h[59] != 0x0A {
		return rawHeader{}, invalidf("bad member header magic %02x %02x", h[58], h[59])
	}
	name := string(bytes.TrimRight(h[0:16], " "))
	modTime, err := decimalField(h[16:28])
	if err != nil {
		return rawHeader{}, err
	}
	uid, err := decimalField(h[28:34])
	if err != nil {
		return rawHeader{}, err
	}
	gid, err := decimalField(h[34:40])
	if err != nil {
		return rawHeader{}, err
	}
	mode, err := octalField(h[40:48])
	if err != nil {
		return rawHeader{}, err
	}
	size, err := decimalField(h[48:58])
	if err != nil {
		return rawHeader{}, err
	}
	if size < 0 || uint64(size) > uint64(^uint(0)) {
		return rawHeader{}, invalidf("member size %d exceeds host usize", size)
	}
	return rawHeader{name: name, modTime: modTime, uid: int(uid), gid: int(gid), mode: mode, size: size}, nil
}

func encodeHeader(name string, modTime int64, uid, gid int, mode uint32, size int64) []byte {
	buf := make([]byte, headerSize)
	for i := range buf {
		buf[i] = ' '
	}
	copy(buf[0:16], name)
	copy(buf[16:28], strconv.FormatInt(modTime, 10))
	copy(buf[28:34], strconv.Itoa(uid))
	copy(buf[34:40], strconv.Itoa(gid))
	copy(buf[40:48], strconv.FormatUint(uint64(mode), 8))
	copy(buf[48:58], strconv.FormatInt(size, 10))
	buf[58], buf[59] = 0x60, 0x0A
	return buf
}

// ReadArchive parses buf into an Archive, resolving `/offset`-form names
// against the long-name member and discarding the long-name and
// symbol-table special members from the result (spec.md §4.3.2).
func ReadArchive(buf []byte) (*Archive, error) {
	if len(buf) < len(Magic) || string(buf[:len(Magic)]) != Magic {
		return nil, invalidf("missing %q magic", Magic)
	}
	pos := len(Magic)

	var longNames []byte
	arc := &Archive{}

	for pos < len(buf) {
		if pos+headerSize > len(buf) {
			return nil, invalidf("truncated member header at offset %d", pos)
		}
		rh, err := decodeHeader(buf[pos : pos+headerSize])
		if err != nil {
			return nil, err
		}
		pos += headerSize
		if pos+int(rh.size) > len(buf) {
			return nil, invalidf("member %q payload extends past end of archive", rh.name)
		}
		data := buf[pos : pos+int(rh.size)]
		pos += int(rh.size)
		if rh.size%2 != 0 && pos < len(buf) {
			pos++ // skip the 0x0A pad byte
		}

		switch {
		case rh.name == longNameMemberName || rh.name == "":
			// Ambiguous per spec.md ("empty or //"): treat a non-empty,
			// non-'/'-prefixed first use as the long-name member and an
			// empty name actually holding a symbol count as the symbol
			// table. A long-name member is recognized by containing at
			// least one NUL-terminated string and not looking like a
			// symbol-table's leading big-endian count.
			if longNames == nil && looksLikeLongNameTable(data) {
				longNames = data
				continue
			}
			// Otherwise this is the symbol-table member; spec.md's
			// Archive model doesn't surface it, so it is simply skipped.
			continue
		case strings.HasPrefix(rh.name, "/"):
			offsetStr := rh.name[1:]
			off, err := strconv.Atoi(offsetStr)
			if err != nil || longNames == nil {
				return nil, invalidf("long-name reference %q with no long-name table", rh.name)
			}
			name, err := lookupLongName(longNames, off)
			if err != nil {
				return nil, err
			}
			arc.Members = append(arc.Members, Member{
				Name: name, ModTime: rh.modTime, UID: rh.uid, GID: rh.gid, Mode: rh.mode,
				Data: append([]byte(nil), data...),
			})
		default:
			arc.Members = append(arc.Members, Member{
				Name: rh.name, ModTime: rh.modTime, UID: rh.uid, GID: rh.gid, Mode: rh.mode,
				Data: append([]byte(nil), data...),
			})
		}
	}
	return arc, nil
}

// looksLikeLongNameTable distinguishes the long-name member (a run of
// NUL-terminated strings) from the symbol-table member (a 4-byte
// big-endian count followed by index/name pairs) when both carry a name
// this codec could have written for either. A symbol-table member with a
// plausible small count whose payload is shorter than a single NUL string
// is the telltale; in practice the two members are also distinguished by
// which placeholder name (`//` vs empty) this codec writes, so this is a
// defensive fallback for archives produced by other tools.
func looksLikeLongNameTable(data []byte) bool {
	if len(data) < 4 {
		return len(data) > 0
	}
	count := binary.BigEndian.Uint32(data[:4])
	// A symbol-table member's minimum plausible size is 4 + count*(4+1).
	return uint64(len(data)) < 4+uint64(count)*5
}

func lookupLongName(table []byte, offset int) (string, error) {
	if offset < 0 || offset >= len(table) {
		return "", invalidf("long-name offset %d out of range", offset)
	}
	end := offset
	for end < len(table) && table[end] != 0 {
		end++
	}
	if end == len(table) {
		return "", invalidf("unterminated long-name lookup at offset %d", offset)
	}
	return string(table[offset:end]), nil
}

// WriteArchive serializes arc into an ar image. Any member name longer
// than 15 bytes is indirected through a long-name member written first
// (spec.md §3.6); names that fit are stored inline. No symbol-table
// member is written; use Ranlib to produce an image that carries one.
func WriteArchive(arc *Archive) []byte {
	return writeArchiveWithSymbolTable(arc, nil)
}

func writeArchiveWithSymbolTable(arc *Archive, entries []SymbolTableEntry) []byte {
	var longNames bytes.Buffer
	type placement struct {
		headerName string
	}
	placements := make([]placement, len(arc.Members))
	for i, m := range arc.Members {
		if len(m.Name) > 15 {
			off := longNames.Len()
			longNames.WriteString(m.Name)
			longNames.WriteByte(0)
			placements[i] = placement{headerName: "/" + strconv.Itoa(off)}
		} else {
			placements[i] = placement{headerName: m.Name}
		}
	}

	var out bytes.Buffer
	out.WriteString(Magic)

	if len(entries) > 0 {
		writeMember(&out, symbolTableMemberName, 0, 0, 0, 0, encodeSymbolTable(entries))
	}
	if longNames.Len() > 0 {
		writeMember(&out, longNameMemberName, 0, 0, 0, 0, longNames.Bytes())
	}

	for i, m := range arc.Members {
		writeMember(&out, placements[i].headerName, m.ModTime, m.UID, m.GID, m.Mode, m.Data)
	}

	return out.Bytes()
}

// symbolTableMemberName is the name this codec writes for the symbol
// table special member — the empty name, distinguished on read from the
// long-name member by looksLikeLongNameTable.
const symbolTableMemberName = ""

// SymbolTableEntry is one (member index, symbol name) pair making up an
// archive's symbol-table special member (spec.md §4.3.2).
type SymbolTableEntry struct {
	MemberIndex uint32
	Name        string
}

// BuildSymbolTable enumerates the externally-visible symbols defined by
// arc's members, in member order then symbol order: each member is
// opened through the binfmt registry and its Global/Weak defined symbols
// are indexed. A member that isn't a recognized object format (e.g. a
// linker script, or another archive) is skipped rather than erroring —
// ranlib only indexes what it can read as an object.
func BuildSymbolTable(arc *Archive) []SymbolTableEntry {
	var entries []SymbolTableEntry
	for i, m := range arc.Members {
		codec, ok := binfmt.Identify(m.Data)
		if !ok {
			continue
		}
		bf, err := codec.Read(m.Data)
		if err != nil {
			continue
		}
		for _, sym := range bf.Symbols {
			if !sym.HasValue {
				continue // undefined reference, not a definition this member exports
			}
			if sym.Kind != binfmt.Global && sym.Kind != binfmt.Weak {
				continue
			}
			entries = append(entries, SymbolTableEntry{MemberIndex: uint32(i), Name: sym.Name})
		}
	}
	return entries
}

func encodeSymbolTable(entries []SymbolTableEntry) []byte {
	var buf bytes.Buffer
	var word [4]byte
	binary.BigEndian.PutUint32(word[:], uint32(len(entries)))
	buf.Write(word[:])
	for _, e := range entries {
		binary.BigEndian.PutUint32(word[:], e.MemberIndex)
		buf.Write(word[:])
		buf.WriteString(e.Name)
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

// Ranlib rebuilds buf's symbol-table member from scratch and returns the
// re-encoded archive image (spec.md §4.3.2). ReadArchive always discards
// any existing special members before BuildSymbolTable sees the member
// list, so Ranlib applied to its own output reproduces the same member
// set and the same symbol table: ranlib is idempotent (spec.md §8).
func Ranlib(buf []byte) ([]byte, error) {
	arc, err := ReadArchive(buf)
	if err != nil {
		return nil, err
	}
	entries := BuildSymbolTable(arc)
	return writeArchiveWithSymbolTable(arc, entries), nil
}

func writeMember(out *bytes.Buffer, headerName string, modTime int64, uid, gid int, mode uint32, data []byte) {
	out.Write(encodeHeader(headerName, modTime, uid, gid, mode, int64(len(data))))
	out.Write(data)
	if len(data)%2 != 0 {
		out.WriteByte(0x0A)
	}
}
