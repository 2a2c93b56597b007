// Package x86 implements the encoder/decoder for the x86 instruction
// family (spec.md §4.2.2): real, protected, compatibility and long mode,
// REX-style escape prefixes, and the staged ModR/M builder.
package x86

import "fmt"

// CPUMode is one of the five processor modes spec.md §4.2.2 names.
type CPUMode uint8

const (
	Real CPUMode = iota
	Virtual8086
	Protected
	Compatibility
	Long
)

func (m CPUMode) String() string {
	switch m {
	case Real:
		return "real"
	case Virtual8086:
		return "virtual8086"
	case Protected:
		return "protected"
	case Compatibility:
		return "compatibility"
	case Long:
		return "long"
	default:
		return fmt.Sprintf("CPUMode(%d)", uint8(m))
	}
}

// ModeSet is a bitset of allowed CPUMode values an opcode-table entry
// declares (spec.md §4.2.2, "allowed CPU modes").
type ModeSet uint8

func Modes(modes ...CPUMode) ModeSet {
	var s ModeSet
	for _, m := range modes {
		s |= 1 << uint(m)
	}
	return s
}

func (s ModeSet) Allows(m CPUMode) bool { return s&(1<<uint(m)) != 0 }

var AllModes = Modes(Real, Virtual8086, Protected, Compatibility, Long)

// EncodingPrefix is which escape-prefix family an opcode-table entry may
// use (spec.md §4.2.2): the encoder picks the first that fits the operand
// set and current mode.
type EncodingPrefix uint8

const (
	NoPrefix EncodingPrefix = iota
	Rex
	Rex2
	Vex
	Evex
)

// sizeClass distinguishes the two per-mode operand-size-default families
// this package implements (scope decision, see DESIGN.md): ALU-class
// opcodes (ModR/M register-register and similar) always default to
// 32-bit operands pre-REX regardless of CPU mode, 0x66 selects 16-bit,
// REX.W selects 64-bit; stack-class opcodes (push/pop) default to 16-bit
// in every mode except Long, where the default is forced to 64-bit and
// no 32-bit form exists.
type sizeClass uint8

const (
	aluClass sizeClass = iota
	stackClass
)

// defaultWidth returns the operand width (bits) this opcode class assumes
// with no operand-size-override or REX.W present, in the given mode.
func (c sizeClass) defaultWidth(mode CPUMode) int {
	switch c {
	case aluClass:
		return 32
	case stackClass:
		if mode == Long {
			return 64
		}
		return 16
	default:
		return 32
	}
}
