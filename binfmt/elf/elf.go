package elf

import (
	"encoding/binary"
	"fmt"

	"github.com/lccc-project/lc-binutils/arch"
	"github.com/lccc-project/lc-binutils/binfmt"
	"github.com/lccc-project/lc-binutils/internal/addr"
)

// Word is the pointer-width-polymorphic field type spec.md §9's "ElfClass
// polymorphizes over pointer width" design note describes: Addr, Offset,
// Size-typed header and section-header fields scale with W (4 bytes for
// ELF32, 8 for ELF64); sh_name/sh_type/sh_link/sh_info/st_name stay a
// fixed 4 bytes in both classes and are handled separately below.
type Word interface{ ~uint32 | ~uint64 }

// Codec is a generic ELF32/64 little/big-endian object-file codec.
// Concrete instantiations (New32LE, New32BE, New64LE, New64BE) register
// themselves with the binfmt registry under a distinct Name().
type Codec[W Word] struct {
	class byte
	data  byte
	order binary.ByteOrder
	name  string
}

func putW[W Word](order binary.ByteOrder, buf []byte, v W) {
	switch any(v).(type) {
	case uint32:
		order.PutUint32(buf, uint32(v))
	case uint64:
		order.PutUint64(buf, uint64(v))
	}
}

func getW[W Word](order binary.ByteOrder, buf []byte) W {
	var zero W
	switch any(zero).(type) {
	case uint32:
		return W(order.Uint32(buf))
	case uint64:
		return W(order.Uint64(buf))
	}
	return zero
}

func wordSize[W Word]() int {
	var zero W
	if _, ok := any(zero).(uint64); ok {
		return 8
	}
	return 4
}

func New32LE() *Codec[uint32] { return &Codec[uint32]{class: EIClass32, data: EIData2LSB, order: binary.LittleEndian, name: "elf32-le"} }
func New32BE() *Codec[uint32] { return &Codec[uint32]{class: EIClass32, data: EIData2MSB, order: binary.BigEndian, name: "elf32-be"} }
func New64LE() *Codec[uint64] { return &Codec[uint64]{class: EIClass64, data: EIData2LSB, order: binary.LittleEndian, name: "elf64-le"} }
func New64BE() *Codec[uint64] { return &Codec[uint64]{class: EIClass64, data: EIData2MSB, order: binary.BigEndian, name: "elf64-be"} }

func init() {
	binfmt.Register(New32LE())
	binfmt.Register(New32BE())
	binfmt.Register(New64LE())
	binfmt.Register(New64BE())
}

func (c *Codec[W]) Name() string { return c.name }

func headerSize[W Word]() int {
	if wordSize[W]() == 8 {
		return 64
	}
	return 52
}

func (c *Codec[W]) Probe(buf []byte) bool {
	if len(buf) < 16 {
		return false
	}
	if buf[0] != 0x7F || buf[1] != 'E' || buf[2] != 'L' || buf[3] != 'F' {
		return false
	}
	return buf[4] == c.class && buf[5] == c.data
}

// howtosForMachine looks up the relocation table for machine by matching
// it against every registered arch.Codec's own howto table — the codec
// doesn't hard-code a machine->howto switch; it defers to whichever
// architecture package registered itself (spec.md §4.3.1, "per-
// architecture howto tables").
func howtosForMachine(machine uint32) (*addr.HowtoTable, string, bool) {
	for _, name := range arch.Names() {
		codec, _ := arch.Lookup(name)
		if machineForArchName(name) == machine {
			return codec.Howtos(), name, true
		}
	}
	return nil, "", false
}

func machineForArchName(name string) uint32 {
	switch name {
	case "clever":
		return EMClever
	case "x86":
		return EMX8664
	case "wc65c816":
		return EMWC65C816
	case "holeybytes":
		return EMHoleyBytes
	default:
		return 0
	}
}

// Write lays out f into a fresh ELF image: header placeholder, section
// contents in declaration order (aligned per Section.Align), a .rela*
// sibling for every section carrying relocations, then .symtab/.strtab/
// .shstrtab and the section-header table, finally patching e_shoff/
// e_shnum/e_shstrndx in the header placeholder (spec.md §4.3.1 write
// steps 1-5; original elf.rs write pass, teacher's WriteCompleteDynamicELF
// staged "lay out then patch" strategy in elf_complete.go).
func (c *Codec[W]) Write(f *binfmt.BinaryFile) ([]byte, error) {
	ws := wordSize[W]()
	hdrSize := headerSize[W]()

	var strtab, shstrtab stringTableBuilder
	strtab.add("") // index 0 is always the empty string
	shstrtab.add("") // the null section's sh_name 0 must name ""

	type laidSection struct {
		binfmt.Section
		nameOff uint32
		offset  uint64
	}

	sections := make([]laidSection, 0, len(f.Sections)+4)
	sections = append(sections, laidSection{Section: binfmt.Section{Name: "", Type: binfmt.SectionTypeFormatSpecific}}) // SHN_UNDEF

	buf := make([]byte, hdrSize)
	cur := uint64(len(buf))

	for _, s := range f.Sections {
		align := s.Align
		if align == 0 {
			align = 1
		}
		if pad := alignUp(cur, align) - cur; pad > 0 {
			buf = append(buf, make([]byte, pad)...)
			cur += pad
		}
		off := cur
		if s.Type != binfmt.NoBits {
			buf = append(buf, s.Content...)
			cur += uint64(len(s.Content))
		}
		sections = append(sections, laidSection{Section: s, nameOff: shstrtab.add(s.Name), offset: off})
	}

	// Every relocation target not already present in f.Symbols is
	// promoted to an undefined Global symbol and appended (spec.md
	// §4.3.1 step 3, "every unresolved symbol referenced by a relocation
	// is promoted to Global/Null and appended if absent") before symbol
	// order is fixed, so encodeRelocs never has to fall back to the null
	// symbol index for a name it can't find.
	allSymbols := promoteUnresolvedRelocSymbols(f.Sections, f.Symbols)

	// Symbol order is fixed once, locals before globals/weaks (spec.md
	// §4.3.1 step 3), and every relocation's symbol index below must
	// refer to this order, not f.Symbols' original order.
	orderedSymbols, symIndex := orderSymbols(allSymbols)

	// .rela<name> sibling sections for every input section carrying
	// relocations (spec.md §4.3.1 step 4). sh_link is patched to the
	// .symtab section-header index once that index is known below.
	relaStart := len(sections)
	for i, s := range f.Sections {
		if len(s.Relocs) == 0 {
			continue
		}
		relaName := ".rela" + s.Name
		relaBytes, err := c.encodeRelocs(s.Relocs, f.Machine, symIndex)
		if err != nil {
			return nil, err
		}
		off := cur
		buf = append(buf, relaBytes...)
		cur += uint64(len(relaBytes))
		sections = append(sections, laidSection{
			Section: binfmt.Section{Name: relaName, Type: binfmt.RelocationAddendTable, Content: relaBytes, Info: uint32(i + 1)},
			nameOff: shstrtab.add(relaName),
			offset:  off,
		})
	}

	// .symtab / .strtab (spec.md §4.3.1 step 3: locals first, then
	// globals/weaks; boundary recorded in sh_info).
	symtabOff := cur
	symBytes, boundary, err := c.encodeSymbols(orderedSymbols, &strtab)
	if err != nil {
		return nil, err
	}
	buf = append(buf, symBytes...)
	cur += uint64(len(symBytes))

	strtabOff := cur
	strtabBytes := strtab.bytes()
	buf = append(buf, strtabBytes...)
	cur += uint64(len(strtabBytes))

	symtabIdx := len(sections)
	for i := relaStart; i < symtabIdx; i++ {
		sections[i].Link = symtabIdx
	}
	sections = append(sections, laidSection{
		Section: binfmt.Section{Name: ".symtab", Type: binfmt.SymbolTable, Content: symBytes, Link: symtabIdx + 1, Info: boundary},
		nameOff: shstrtab.add(".symtab"),
		offset:  symtabOff,
	})
	sections = append(sections, laidSection{
		Section: binfmt.Section{Name: ".strtab", Type: binfmt.StringTable, Content: strtabBytes},
		nameOff: shstrtab.add(".strtab"),
		offset:  strtabOff,
	})

	shstrtabOff := cur
	shstrtabNameOff := shstrtab.add(".shstrtab")
	shstrtabBytes := shstrtab.bytes()
	buf = append(buf, shstrtabBytes...)
	cur += uint64(len(shstrtabBytes))
	shstrndx := len(sections)
	sections = append(sections, laidSection{
		Section: binfmt.Section{Name: ".shstrtab", Type: binfmt.StringTable, Content: shstrtabBytes},
		nameOff: shstrtabNameOff,
		offset:  shstrtabOff,
	})

	// Section-header table.
	shoff := alignUp(cur, uint64(ws))
	if pad := shoff - cur; pad > 0 {
		buf = append(buf, make([]byte, pad)...)
	}
	shentsize := c.sectionHeaderSize()
	for _, ls := range sections {
		entry := c.encodeSectionHeader(ls.nameOff, ls.Section, ls.offset)
		buf = append(buf, entry...)
	}

	// Patch the header placeholder now that layout is complete.
	hdr := c.encodeHeader(f, shoff, uint16(len(sections)), uint16(shstrndx), uint16(shentsize))
	copy(buf[:hdrSize], hdr)

	return buf, nil
}

func alignUp(v, align uint64) uint64 {
	if align <= 1 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}

// stringTableBuilder accumulates a NUL-separated string table, returning
// each string's byte offset.
type stringTableBuilder struct {
	buf     []byte
	offsets map[string]uint32
}

func (s *stringTableBuilder) add(str string) uint32 {
	if s.offsets == nil {
		s.offsets = map[string]uint32{}
	}
	if off, ok := s.offsets[str]; ok {
		return off
	}
	off := uint32(len(s.buf))
	s.buf = append(s.buf, []byte(str)...)
	s.buf = append(s.buf, 0)
	s.offsets[str] = off
	return off
}

func (s *stringTableBuilder) bytes() []byte {
	if len(s.buf) == 0 {
		return []byte{0}
	}
	return s.buf
}

func bindOf(k binfmt.SymbolKind) byte {
	switch k {
	case binfmt.Global:
		return STBGlobal
	case binfmt.Weak:
		return STBWeak
	default:
		return STBLocal
	}
}

func typeOf(t binfmt.SymbolType) byte {
	switch t {
	case binfmt.SymObject:
		return STTObject
	case binfmt.SymFunction:
		return STTFunc
	case binfmt.SymSection:
		return STTSection
	case binfmt.SymFile:
		return STTFile
	case binfmt.SymCommon:
		return STTCommon
	case binfmt.SymTls:
		return STTTLS
	default:
		return STTNoType
	}
}

// promoteUnresolvedRelocSymbols appends an undefined Global/Null symbol
// for every relocation target in sections that isn't already named in
// syms (spec.md §4.3.1 step 3). Appended names are deduplicated and
// ordered by first appearance so the resulting symbol table is
// deterministic across repeated Write calls on the same input.
func promoteUnresolvedRelocSymbols(sections []binfmt.Section, syms []binfmt.Symbol) []binfmt.Symbol {
	known := make(map[string]bool, len(syms))
	for _, s := range syms {
		known[s.Name] = true
	}
	out := append([]binfmt.Symbol(nil), syms...)
	for _, s := range sections {
		for _, r := range s.Relocs {
			if known[r.SymbolName] {
				continue
			}
			known[r.SymbolName] = true
			out = append(out, binfmt.Symbol{
				Name:         r.SymbolName,
				SectionIndex: -1,
				Kind:         binfmt.Global,
				Type:         binfmt.SymNull,
			})
		}
	}
	return out
}

// orderSymbols sorts syms into locals-before-globals/weaks order (spec.md
// §4.3.1 step 3) once, so both the .symtab encoder and every relocation's
// symbol index agree on the same positions.
func orderSymbols(syms []binfmt.Symbol) ([]binfmt.Symbol, map[string]uint32) {
	var locals, globals []binfmt.Symbol
	for _, s := range syms {
		if s.Kind == binfmt.Local {
			locals = append(locals, s)
		} else {
			globals = append(globals, s)
		}
	}
	ordered := append(append([]binfmt.Symbol(nil), locals...), globals...)
	index := make(map[string]uint32, len(ordered))
	for i, s := range ordered {
		index[s.Name] = uint32(i + 1) // entry 0 is the mandatory null symbol
	}
	return ordered, index
}

func (c *Codec[W]) encodeSymbols(ordered []binfmt.Symbol, strtab *stringTableBuilder) ([]byte, uint32, error) {
	localCount := 0
	for _, s := range ordered {
		if s.Kind == binfmt.Local {
			localCount++
		} else {
			break
		}
	}
	entSize := c.symEntrySize()
	buf := make([]byte, entSize) // null entry
	for _, s := range ordered {
		nameOff := strtab.add(s.Name)
		buf = append(buf, c.encodeSymbol(nameOff, s)...)
	}
	return buf, uint32(localCount + 1), nil
}

func (c *Codec[W]) symEntrySize() int {
	if wordSize[W]() == 8 {
		return 24
	}
	return 16
}

func (c *Codec[W]) encodeSymbol(nameOff uint32, s binfmt.Symbol) []byte {
	info := (bindOf(s.Kind) << 4) | (typeOf(s.Type) & 0xF)
	shndx := uint16(0)
	if s.SectionIndex >= 0 {
		shndx = uint16(s.SectionIndex)
	}
	buf := make([]byte, c.symEntrySize())
	if wordSize[W]() == 8 {
		c.order.PutUint32(buf[0:4], nameOff)
		buf[4] = info
		buf[5] = 0
		c.order.PutUint16(buf[6:8], shndx)
		c.order.PutUint64(buf[8:16], s.Value)
		c.order.PutUint64(buf[16:24], s.Size)
	} else {
		c.order.PutUint32(buf[0:4], nameOff)
		c.order.PutUint32(buf[4:8], uint32(s.Value))
		c.order.PutUint32(buf[8:12], uint32(s.Size))
		buf[12] = info
		buf[13] = 0
		c.order.PutUint16(buf[14:16], shndx)
	}
	return buf
}

func (c *Codec[W]) relEntrySize(hasAddend bool) int {
	base := 2 * wordSize[W]()
	if hasAddend {
		return base + wordSize[W]()
	}
	return base
}

// encodeRelocs packs one section's Reloc list into a .rela-style
// table using each relocation's concrete howto relnum, resolved via the
// architecture the BinaryFile's Machine field names (spec.md §4.3.1 step
// 4, "r_info = (symno << class_shift) | relnum").
func (c *Codec[W]) encodeRelocs(relocs []addr.Reloc, machine uint32, symIndex map[string]uint32) ([]byte, error) {
	howtos, archName, ok := howtosForMachine(machine)
	if !ok {
		return nil, fmt.Errorf("elf: no architecture registered for machine %#x", machine)
	}
	classShift := 8
	if wordSize[W]() == 8 {
		classShift = 32
	}
	var out []byte
	for _, r := range relocs {
		h, ok := howtos.FromRelocCode(r.Code)
		if !ok {
			return nil, fmt.Errorf("elf: unsupported relocation for %s: %v", archName, r.Code)
		}
		sym := symIndex[r.SymbolName]
		var rInfo uint64
		if wordSize[W]() == 8 {
			rInfo = uint64(sym)<<uint(classShift) | uint64(h.Relnum())
		} else {
			if sym >= 1<<24 {
				return nil, fmt.Errorf("elf: symbol index %d overflows 24-bit r_info field", sym)
			}
			rInfo = uint64(sym)<<uint(classShift) | uint64(h.Relnum()&0xFF)
		}
		entry := make([]byte, c.relEntrySize(true))
		putW[W](c.order, entry[0:wordSize[W]()], W(r.Offset))
		off := wordSize[W]()
		if wordSize[W]() == 8 {
			c.order.PutUint64(entry[off:off+8], rInfo)
		} else {
			c.order.PutUint32(entry[off:off+4], uint32(rInfo))
		}
		off += wordSize[W]()
		putW[W](c.order, entry[off:off+wordSize[W]()], W(uint64(r.Addend)))
		out = append(out, entry...)
	}
	return out, nil
}

func (c *Codec[W]) sectionHeaderSize() int {
	// sh_name, sh_type, sh_link, sh_info are always 4 bytes; sh_flags,
	// sh_addr, sh_offset, sh_size, sh_addralign, sh_entsize scale with W.
	return 4 + 4 + wordSize[W]() + wordSize[W]() + wordSize[W]() + wordSize[W]() + 4 + 4 + wordSize[W]() + wordSize[W]()
}

func shTypeOf(t binfmt.SectionType) uint32 {
	switch t {
	case binfmt.ProgBits:
		return SHTProgBits
	case binfmt.NoBits:
		return SHTNoBits
	case binfmt.SymbolTable:
		return SHTSymTab
	case binfmt.StringTable:
		return SHTStrTab
	case binfmt.RelocationAddendTable:
		return SHTRela
	case binfmt.RelocationTable:
		return SHTRel
	case binfmt.Dynamic:
		return SHTDynamic
	default:
		return SHTNull
	}
}

func (c *Codec[W]) encodeSectionHeader(nameOff uint32, s binfmt.Section, offset uint64) []byte {
	ws := wordSize[W]()
	buf := make([]byte, c.sectionHeaderSize())
	c.order.PutUint32(buf[0:4], nameOff)
	c.order.PutUint32(buf[4:8], shTypeOf(s.Type))
	p := 8
	putW[W](c.order, buf[p:p+ws], W(0)) // sh_flags: not modeled from Section today
	p += ws
	putW[W](c.order, buf[p:p+ws], W(0)) // sh_addr
	p += ws
	putW[W](c.order, buf[p:p+ws], W(offset))
	p += ws
	putW[W](c.order, buf[p:p+ws], W(s.Size()))
	p += ws
	link := uint32(0)
	if s.Link > 0 {
		link = uint32(s.Link)
	}
	c.order.PutUint32(buf[p:p+4], link)
	p += 4
	c.order.PutUint32(buf[p:p+4], s.Info)
	p += 4
	align := s.Align
	if align == 0 {
		align = 1
	}
	putW[W](c.order, buf[p:p+ws], W(align))
	p += ws
	putW[W](c.order, buf[p:p+ws], W(0)) // sh_entsize
	return buf
}

func (c *Codec[W]) encodeHeader(f *binfmt.BinaryFile, shoff uint64, shnum, shstrndx, shentsize uint16) []byte {
	ws := wordSize[W]()
	hdr := make([]byte, headerSize[W]())
	hdr[0], hdr[1], hdr[2], hdr[3] = 0x7F, 'E', 'L', 'F'
	hdr[4] = c.class
	hdr[5] = c.data
	hdr[6] = EIVersionCurrent
	// hdr[7:16] osabi/abiversion/padding left zero.

	p := 16
	etype := uint16(ETRel)
	switch f.Type {
	case binfmt.Exec:
		etype = ETExec
	case binfmt.SharedObject:
		etype = ETDyn
	}
	c.order.PutUint16(hdr[p:p+2], etype)
	p += 2
	c.order.PutUint16(hdr[p:p+2], uint16(f.Machine))
	p += 2
	c.order.PutUint32(hdr[p:p+4], EIVersionCurrent)
	p += 4
	putW[W](c.order, hdr[p:p+ws], W(0)) // e_entry
	p += ws
	putW[W](c.order, hdr[p:p+ws], W(0)) // e_phoff
	p += ws
	putW[W](c.order, hdr[p:p+ws], W(shoff))
	p += ws
	c.order.PutUint32(hdr[p:p+4], 0) // e_flags
	p += 4
	c.order.PutUint16(hdr[p:p+2], uint16(headerSize[W]()))
	p += 2
	c.order.PutUint16(hdr[p:p+2], 0) // e_phentsize
	p += 2
	c.order.PutUint16(hdr[p:p+2], 0) // e_phnum
	p += 2
	c.order.PutUint16(hdr[p:p+2], shentsize)
	p += 2
	c.order.PutUint16(hdr[p:p+2], shnum)
	p += 2
	c.order.PutUint16(hdr[p:p+2], shstrndx)
	return hdr
}
