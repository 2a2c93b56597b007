package clever

import (
	"encoding/binary"
	"fmt"

	"github.com/lccc-project/lc-binutils/internal/addr"
)

type howto struct {
	relnum  uint32
	name    string
	size    int
	pcRel   bool
	relax   bool
}

func (h howto) Relnum() uint32   { return h.relnum }
func (h howto) Name() string     { return h.name }
func (h howto) SizeBits() int    { return h.size }
func (h howto) PCRelative() bool { return h.pcRel }
func (h howto) IsRelax() bool    { return h.relax }

func (h howto) Apply(symbolValue, relocSiteAddr uint64, destination []byte) (addr.ApplyResult, error) {
	value := symbolValue
	if h.pcRel {
		value = symbolValue - relocSiteAddr
	}
	n := h.size / 8
	if len(destination) < n {
		return addr.Applied, fmt.Errorf("clever: destination too small for %s", h.name)
	}
	signed := int64(value)
	if h.size < 64 {
		lo := -(int64(1) << uint(h.size-1))
		hi := (int64(1) << uint(h.size-1)) - 1
		if signed < lo || signed > hi {
			if !h.relax {
				return addr.Applied, &addr.OverflowError{Howto: h.name, Kind: addr.SignedOverflow, Value: signed}
			}
			return addr.Deferred, nil
		}
	}
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, value)
	copy(destination, buf[:n])
	return addr.Applied, nil
}

var howtoEntries = []howto{
	{relnum: 1, name: "R_CLEVER_ABS8", size: 8},
	{relnum: 2, name: "R_CLEVER_ABS16", size: 16},
	{relnum: 3, name: "R_CLEVER_ABS32", size: 32},
	{relnum: 4, name: "R_CLEVER_ABS64", size: 64},
	{relnum: 5, name: "R_CLEVER_REL8", size: 8, pcRel: true, relax: true},
	{relnum: 6, name: "R_CLEVER_REL16", size: 16, pcRel: true, relax: true},
	{relnum: 7, name: "R_CLEVER_REL32", size: 32, pcRel: true, relax: true},
	{relnum: 8, name: "R_CLEVER_REL64", size: 64, pcRel: true},
	{relnum: 9, name: "R_CLEVER_GOT", size: 64},
	{relnum: 10, name: "R_CLEVER_PLT", size: 32, pcRel: true},
	{relnum: 11, name: "R_CLEVER_DYNSYM32", size: 32},
	{relnum: 12, name: "R_CLEVER_DYNSYM64", size: 64},
}

func buildHowtoTable() *addr.HowtoTable {
	entries := make([]addr.Howto, len(howtoEntries))
	codes := make(map[addr.Howto]addr.AbstractCode, len(howtoEntries))
	for i, h := range howtoEntries {
		entries[i] = h
		switch h.name {
		case "R_CLEVER_ABS8", "R_CLEVER_ABS16", "R_CLEVER_ABS32", "R_CLEVER_ABS64":
			codes[h] = addr.AbstractCode{Kind: addr.AbsCode, Width: h.size}
		case "R_CLEVER_REL8", "R_CLEVER_REL16", "R_CLEVER_REL32", "R_CLEVER_REL64":
			codes[h] = addr.AbstractCode{Kind: addr.RelCode, Width: h.size}
		case "R_CLEVER_GOT":
			codes[h] = addr.AbstractCode{Kind: addr.GotCode}
		case "R_CLEVER_PLT":
			codes[h] = addr.AbstractCode{Kind: addr.PltCode}
		case "R_CLEVER_DYNSYM32", "R_CLEVER_DYNSYM64":
			codes[h] = addr.AbstractCode{Kind: addr.DynSymEntryCode, Width: h.size}
		}
	}
	return addr.NewHowtoTable(entries, codes)
}
