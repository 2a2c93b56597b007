package holeybytes

import (
	"encoding/binary"

	"github.com/lccc-project/lc-binutils/internal/addr"
)

// howto implements addr.Howto for a HoleyBytes ELF relocation type. The
// relnum values and sizes are taken directly from the original
// Elf64HoleyBytesHowTo table (binfmt/src/elf64/holeybytes.rs) rather than
// invented: relnum is the enum's declaration order, reloc_size its
// reloc_size(), pcrel its pcrel().
type howto struct {
	relnum int
	name   string
	size   int
	pcRel  bool
}

func (h howto) Relnum() uint32   { return uint32(h.relnum) }
func (h howto) Name() string     { return h.name }
func (h howto) SizeBits() int    { return h.size * 8 }
func (h howto) PCRelative() bool { return h.pcRel }
func (h howto) IsRelax() bool    { return h.name == "R_HOLEYBYTES_RELAXREL" }

func (h howto) Apply(symbolValue, relocSiteAddr uint64, destination []byte) (addr.ApplyResult, error) {
	if h.size == 0 {
		return addr.Applied, nil
	}
	value := symbolValue
	if h.pcRel {
		value -= relocSiteAddr
	}
	if len(destination) < h.size {
		return addr.Applied, &addr.OverflowError{Kind: addr.UnsignedOverflow, Howto: h.name}
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], value)
	copy(destination[:h.size], buf[:h.size])
	return addr.Applied, nil
}

var howtoEntries = []howto{
	{relnum: 0, name: "R_HOLEYBYTES_NONE", size: 0},
	{relnum: 1, name: "R_HOLEYBYTES_ABS64", size: 8},
	{relnum: 2, name: "R_HOLEYBYTES_REL16", size: 2, pcRel: true},
	{relnum: 3, name: "R_HOLEYBYTES_REL32", size: 4, pcRel: true},
	{relnum: 9, name: "R_HOLEYBYTES_DYNENT", size: 8},
}

func buildHowtoTable() *addr.HowtoTable {
	entries := make([]addr.Howto, len(howtoEntries))
	codes := make(map[addr.Howto]addr.AbstractCode, len(howtoEntries))
	for i, h := range howtoEntries {
		entries[i] = h
		switch h.name {
		case "R_HOLEYBYTES_ABS64":
			codes[h] = addr.AbstractCode{Kind: addr.AbsCode, Width: 64}
		case "R_HOLEYBYTES_REL16":
			codes[h] = addr.AbstractCode{Kind: addr.RelCode, Width: 16}
		case "R_HOLEYBYTES_REL32":
			codes[h] = addr.AbstractCode{Kind: addr.RelCode, Width: 32}
		case "R_HOLEYBYTES_DYNENT":
			codes[h] = addr.AbstractCode{Kind: addr.DynSymEntryCode, Width: 8}
		}
	}
	return addr.NewHowtoTable(entries, codes)
}
