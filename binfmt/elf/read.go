package elf

import (
	"fmt"

	"github.com/lccc-project/lc-binutils/binfmt"
	"github.com/lccc-project/lc-binutils/internal/addr"
)

func sectionTypeOf(sht uint32) binfmt.SectionType {
	switch sht {
	case SHTProgBits:
		return binfmt.ProgBits
	case SHTNoBits:
		return binfmt.NoBits
	case SHTSymTab, SHTDynSym:
		return binfmt.SymbolTable
	case SHTStrTab:
		return binfmt.StringTable
	case SHTRela:
		return binfmt.RelocationAddendTable
	case SHTRel:
		return binfmt.RelocationTable
	case SHTDynamic:
		return binfmt.Dynamic
	default:
		return binfmt.SectionTypeFormatSpecific
	}
}

func kindOf(bind byte) binfmt.SymbolKind {
	switch bind {
	case STBGlobal:
		return binfmt.Global
	case STBWeak:
		return binfmt.Weak
	default:
		return binfmt.Local
	}
}

func symTypeOf(typ byte) binfmt.SymbolType {
	switch typ {
	case STTObject:
		return binfmt.SymObject
	case STTFunc:
		return binfmt.SymFunction
	case STTSection:
		return binfmt.SymSection
	case STTFile:
		return binfmt.SymFile
	case STTCommon:
		return binfmt.SymCommon
	case STTTLS:
		return binfmt.SymTls
	default:
		return binfmt.SymNull
	}
}

type rawSectionHeader struct {
	nameOff          uint32
	shType           uint32
	flags            uint64
	addr             uint64
	offset           uint64
	size             uint64
	link, info       uint32
	align, entsize   uint64
}

func (c *Codec[W]) Read(buf []byte) (*binfmt.BinaryFile, error) {
	if !c.Probe(buf) {
		return nil, binfmt.ErrNotThisFormat
	}
	hdrSize := headerSize[W]()
	if len(buf) < hdrSize {
		return nil, fmt.Errorf("elf: truncated header")
	}
	ws := wordSize[W]()

	p := 16
	etype := c.order.Uint16(buf[p : p+2])
	p += 2
	machine := uint32(c.order.Uint16(buf[p : p+2]))
	p += 2
	p += 4  // e_version
	p += ws // e_entry
	p += ws // e_phoff
	shoff := getW[W](c.order, buf[p:p+ws])
	p += ws
	p += 4 // e_flags
	p += 2 // e_ehsize
	p += 2 // e_phentsize
	p += 2 // e_phnum
	shentsize := c.order.Uint16(buf[p : p+2])
	p += 2
	shnum := c.order.Uint16(buf[p : p+2])
	p += 2
	shstrndx := c.order.Uint16(buf[p : p+2])

	f := &binfmt.BinaryFile{FormatName: c.name, Machine: machine}
	switch etype {
	case ETExec:
		f.Type = binfmt.Exec
	case ETDyn:
		f.Type = binfmt.SharedObject
	default:
		f.Type = binfmt.Relocatable
	}

	shOff := uint64(shoff)
	if uint64(len(buf)) < shOff+uint64(shnum)*uint64(shentsize) {
		return nil, fmt.Errorf("elf: truncated section header table")
	}

	raws := make([]rawSectionHeader, shnum)
	for i := 0; i < int(shnum); i++ {
		entry := buf[shOff+uint64(i)*uint64(shentsize):]
		raws[i] = c.decodeSectionHeader(entry)
	}

	if int(shstrndx) >= len(raws) {
		return nil, fmt.Errorf("elf: e_shstrndx out of range")
	}
	shstrtabRaw := raws[shstrndx]
	shstrtabBytes := buf[shstrtabRaw.offset : shstrtabRaw.offset+shstrtabRaw.size]

	getStr := func(tab []byte, off uint32) string {
		if int(off) >= len(tab) {
			return ""
		}
		end := off
		for end < uint32(len(tab)) && tab[end] != 0 {
			end++
		}
		return string(tab[off:end])
	}

	f.Sections = make([]binfmt.Section, len(raws))
	for i, rsh := range raws {
		name := getStr(shstrtabBytes, rsh.nameOff)
		sec := binfmt.Section{
			Name:  name,
			Align: rsh.align,
			Type:  sectionTypeOf(rsh.shType),
			Link:  int(rsh.link),
			Info:  rsh.info,
		}
		if rsh.shType == SHTNoBits {
			sec.TailSize = rsh.size
		} else if rsh.shType != SHTNull && rsh.size > 0 {
			if uint64(len(buf)) < rsh.offset+rsh.size {
				return nil, fmt.Errorf("elf: section %q extends past end of file", name)
			}
			sec.Content = append([]byte(nil), buf[rsh.offset:rsh.offset+rsh.size]...)
		}
		f.Sections[i] = sec
	}

	// .symtab / .strtab.
	var symtabRaw *rawSectionHeader
	var symtabIdx int
	for i, rsh := range raws {
		if rsh.shType == SHTSymTab {
			symtabRaw = &raws[i]
			symtabIdx = i
			break
		}
	}
	if symtabRaw != nil {
		strtabRaw := raws[symtabRaw.link]
		strBytes := buf[strtabRaw.offset : strtabRaw.offset+strtabRaw.size]
		entSize := uint64(c.symEntrySize())
		symBytes := f.Sections[symtabIdx].Content
		count := uint64(len(symBytes)) / entSize
		f.Symbols = make([]binfmt.Symbol, 0, count)
		for i := uint64(1); i < count; i++ { // skip the null entry at index 0
			rec := symBytes[i*entSize : (i+1)*entSize]
			sym := c.decodeSymbol(rec, strBytes, getStr)
			f.Symbols = append(f.Symbols, sym)
		}
	}

	// .rela*/.rel* tables, resolved against the machine's Howto table and
	// the symbol list just decoded.
	howtos, _, haveArch := howtosForMachine(machine)
	for i, rsh := range raws {
		if rsh.shType != SHTRela && rsh.shType != SHTRel {
			continue
		}
		if !haveArch {
			return nil, fmt.Errorf("elf: relocation section %q present but no architecture registered for machine %#x", f.Sections[i].Name, machine)
		}
		targetIdx := int(rsh.info)
		if targetIdx <= 0 || targetIdx >= len(f.Sections) {
			continue
		}
		relocs, err := c.decodeRelocs(f.Sections[i].Content, rsh.shType == SHTRela, f.Symbols, howtos)
		if err != nil {
			return nil, err
		}
		f.Sections[targetIdx].Relocs = relocs
		// The rela/rel section itself is a derived artifact, not part of
		// the logical section list Write regenerates from Relocs.
		f.Sections[i].Type = binfmt.SectionTypeFormatSpecific
	}

	// Drop the derived sections (.symtab/.strtab/.shstrtab/.rela*) from
	// the logical Sections list: Write regenerates them from Symbols and
	// each Section's Relocs, so keeping them would duplicate content on a
	// write-after-read round trip. Every Symbol.SectionIndex recorded
	// above refers to the pre-filter position, so remap it alongside to
	// the logical position plus one (index 0 stays the null section, the
	// same numbering Write uses for st_shndx).
	oldToNew := make(map[int]int, len(f.Sections))
	logical := make([]binfmt.Section, 0, len(f.Sections))
	for oldIdx, s := range f.Sections {
		switch {
		case s.Name == ".symtab", s.Name == ".strtab", s.Name == ".shstrtab":
			continue
		case len(s.Name) > 5 && s.Name[:5] == ".rela":
			continue
		case s.Name == "":
			continue
		default:
			oldToNew[oldIdx] = len(logical) + 1
			logical = append(logical, s)
		}
	}
	f.Sections = logical
	for i, s := range f.Symbols {
		if newIdx, ok := oldToNew[s.SectionIndex]; ok {
			f.Symbols[i].SectionIndex = newIdx
		} else if s.HasValue {
			f.Symbols[i].SectionIndex = -1
		} else {
			// SHN_UNDEF (section index 0) is itself one of the filtered
			// derived entries (the "" empty-name null section), so it
			// never appears in oldToNew and would otherwise silently
			// leave SectionIndex at its zero value, now pointing at the
			// first real logical section instead of meaning undefined.
			f.Symbols[i].SectionIndex = -1
		}
	}

	return f, nil
}

func (c *Codec[W]) decodeSectionHeader(buf []byte) rawSectionHeader {
	ws := wordSize[W]()
	var rsh rawSectionHeader
	rsh.nameOff = c.order.Uint32(buf[0:4])
	rsh.shType = c.order.Uint32(buf[4:8])
	p := 8
	rsh.flags = uint64(getW[W](c.order, buf[p:p+ws]))
	p += ws
	rsh.addr = uint64(getW[W](c.order, buf[p:p+ws]))
	p += ws
	rsh.offset = uint64(getW[W](c.order, buf[p:p+ws]))
	p += ws
	rsh.size = uint64(getW[W](c.order, buf[p:p+ws]))
	p += ws
	rsh.link = c.order.Uint32(buf[p : p+4])
	p += 4
	rsh.info = c.order.Uint32(buf[p : p+4])
	p += 4
	rsh.align = uint64(getW[W](c.order, buf[p:p+ws]))
	p += ws
	rsh.entsize = uint64(getW[W](c.order, buf[p:p+ws]))
	return rsh
}

func (c *Codec[W]) decodeSymbol(rec []byte, strBytes []byte, getStr func([]byte, uint32) string) binfmt.Symbol {
	var nameOff uint32
	var info byte
	var shndx uint16
	var value, size uint64
	if wordSize[W]() == 8 {
		nameOff = c.order.Uint32(rec[0:4])
		info = rec[4]
		shndx = c.order.Uint16(rec[6:8])
		value = c.order.Uint64(rec[8:16])
		size = c.order.Uint64(rec[16:24])
	} else {
		nameOff = c.order.Uint32(rec[0:4])
		value = uint64(c.order.Uint32(rec[4:8]))
		size = uint64(c.order.Uint32(rec[8:12]))
		info = rec[12]
		shndx = c.order.Uint16(rec[14:16])
	}
	return binfmt.Symbol{
		Name:         getStr(strBytes, nameOff),
		SectionIndex: int(shndx),
		Value:        value,
		HasValue:     shndx != 0,
		Type:         symTypeOf(info & 0xF),
		Kind:         kindOf(info >> 4),
		Size:         size,
		HasSize:      size != 0,
	}
}

func (c *Codec[W]) decodeRelocs(buf []byte, hasAddend bool, symbols []binfmt.Symbol, howtos *addr.HowtoTable) ([]addr.Reloc, error) {
	ws := wordSize[W]()
	entSize := c.relEntrySize(hasAddend)
	count := len(buf) / entSize
	relocs := make([]addr.Reloc, 0, count)
	classShift := uint(8)
	symMask := uint64(0xFF)
	if ws == 8 {
		classShift = 32
		symMask = 0xFFFFFFFF
	}
	for i := 0; i < count; i++ {
		rec := buf[i*entSize:]
		offset := uint64(getW[W](c.order, rec[0:ws]))
		var rInfo uint64
		if ws == 8 {
			rInfo = c.order.Uint64(rec[ws : ws+8])
		} else {
			rInfo = uint64(c.order.Uint32(rec[ws : ws+4]))
		}
		relnum := uint32(rInfo & symMask)
		symIdx := rInfo >> classShift
		var addend int64
		if hasAddend {
			off := 2 * ws
			addend = int64(uint64(getW[W](c.order, rec[off:off+ws])))
		}
		h, ok := howtos.ByRelnum(relnum)
		if !ok {
			return nil, fmt.Errorf("elf: unrecognized relocation type %d", relnum)
		}
		code, ok := howtos.AbstractCodeFor(relnum)
		if !ok {
			return nil, fmt.Errorf("elf: relocation %s has no cross-architecture abstract equivalent", h.Name())
		}
		var symName string
		if symIdx >= 1 && int(symIdx-1) < len(symbols) {
			symName = symbols[symIdx-1].Name
		}
		relocs = append(relocs, addr.Reloc{
			Offset:     offset,
			SymbolName: symName,
			Code:       code,
			Addend:     addend,
			HasAddend:  hasAddend,
		})
	}
	return relocs, nil
}
