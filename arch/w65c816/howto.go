package w65c816

import (
	"encoding/binary"

	"github.com/lccc-project/lc-binutils/internal/addr"
)

// howto implements addr.Howto for a 65C816 ELF relocation type, grounded
// on the same shape as arch/clever/howto.go and arch/x86/howto.go.
type howto struct {
	relnum int
	name   string
	size   int
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

// howtoEntries is the representative relocation set this package
// implements (original binfmt/src/elf32/w65.rs names the full R_W65_*
// table; scope decision, see DESIGN.md).
var howtoEntries = []howto{
	{relnum: 1, name: "R_W65_ABS8", size: 8},
	{relnum: 2, name: "R_W65_ABS16", size: 16},
	{relnum: 3, name: "R_W65_ABS24", size: 24},
	{relnum: 4, name: "R_W65_PCR8", size: 8, pcRel: true},
	{relnum: 5, name: "R_W65_PCR16", size: 16, pcRel: true},
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
