// Package elf implements the ELF32/64 little/big-endian object-file
// codec (spec.md §4.3.1, §6.1), grounded on original binfmt/src/elf.rs's
// header layout and read/write passes, reusing the teacher's staged
// "buffer entire output, patch header after laying out sections" write
// strategy from elf_complete.go's WriteCompleteDynamicELF.
package elf

// e_ident indices and EI_CLASS/EI_DATA values (spec.md §6.1).
const (
	EIClassNone = 0
	EIClass32   = 1
	EIClass64   = 2

	EIDataNone = 0
	EIData2LSB = 1
	EIData2MSB = 2

	EIVersionCurrent = 1
)

// e_type values.
const (
	ETNone = 0
	ETRel  = 1
	ETExec = 2
	ETDyn  = 3
)

// Machine constants (spec.md §6.1, non-exhaustive; the set this module's
// arch/* packages need).
const (
	EM386         = 3
	EMX8664       = 62
	EMWC65C816    = 257
	EMClever      = 0x434C
	EMHoleyBytes  = 0xAB1E
)

// Section header sh_type values (spec.md §3.5's SectionType mapped to
// concrete SHT_* constants).
const (
	SHTNull     = 0
	SHTProgBits = 1
	SHTSymTab   = 2
	SHTStrTab   = 3
	SHTRela     = 4
	SHTNoBits   = 8
	SHTRel      = 9
	SHTDynamic  = 6
	SHTDynSym   = 11
)

// Symbol st_info bind/type nibbles.
const (
	STBLocal  = 0
	STBGlobal = 1
	STBWeak   = 2

	STTNoType  = 0
	STTObject  = 1
	STTFunc    = 2
	STTSection = 3
	STTFile    = 4
	STTCommon  = 5
	STTTLS     = 6
)
