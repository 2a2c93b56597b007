package x86

import (
	"encoding/binary"

	"github.com/lccc-project/lc-binutils/internal/addr"
)

// howto implements addr.Howto for an x86-64 ELF relocation type (spec.md
// §4.1, grounded on the same Apply/overflow-check shape as
// arch/clever/howto.go).
type howto struct {
	relnum int
	name   string
	size   int // bits
	pcRel  bool
}

func (h howto) Relnum() uint32   { return uint32(h.relnum) }
func (h howto) Name() string     { return h.name }
func (h howto) SizeBits() int    { return h.size }
func (h howto) PCRelative() bool { return h.pcRel }
func (h howto) IsRelax() bool    { return false }

func (h howto) Apply(symbolValue, relocSiteAddr uint64, destination []byte) (addr.ApplyResult, error) {
	value := symbolValue
	if h.pcRel {
		value -= relocSiteAddr
	}
	n := h.size / 8
	if len(destination) < n {
		return addr.Applied, &addr.OverflowError{Kind: addr.UnsignedOverflow, Howto: h.name}
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], value)
	copy(destination[:n], buf[:n])
	return addr.Applied, nil
}

// howtoEntries are the standard x86-64 ELF relocation types this package
// implements (elf.h's R_X86_64_* constants; a representative subset, see
// DESIGN.md).
var howtoEntries = []howto{
	{relnum: 1, name: "R_X86_64_64", size: 64},
	{relnum: 2, name: "R_X86_64_PC32", size: 32, pcRel: true},
	{relnum: 10, name: "R_X86_64_32", size: 32},
	{relnum: 11, name: "R_X86_64_32S", size: 32},
	{relnum: 12, name: "R_X86_64_16", size: 16},
	{relnum: 13, name: "R_X86_64_PC16", size: 16, pcRel: true},
	{relnum: 14, name: "R_X86_64_8", size: 8},
	{relnum: 15, name: "R_X86_64_PC8", size: 8, pcRel: true},
}

func buildHowtoTable() *addr.HowtoTable {
	entries := make([]addr.Howto, len(howtoEntries))
	codes := make(map[addr.Howto]addr.AbstractCode, len(howtoEntries))
	for i, h := range howtoEntries {
		entries[i] = h
		kind := addr.AbsCode
		if h.pcRel {
			kind = addr.RelCode
		}
		codes[h] = addr.AbstractCode{Kind: kind, Width: h.size}
	}
	return addr.NewHowtoTable(entries, codes)
}
