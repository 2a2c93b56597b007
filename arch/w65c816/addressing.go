package w65c816

import (
	"fmt"

	"github.com/lccc-project/lc-binutils/internal/addr"
)

// AddrMode is the addressing mode an operand uses (original
// arch-ops/src/wc65c816.rs Wc65c816Address plus the bank/direct-page
// AddressPart split spec.md §4.2.4 calls out).
type AddrMode int

const (
	ModeImmediate AddrMode = iota
	ModeDirectPage
	ModeAbsolute
	ModeAbsoluteLong
	ModePCRelShort
	ModePCRelLong
)

// Operand is one 65C816 instruction operand: an address plus the
// addressing mode it's accessed through.
type Operand struct {
	Mode  AddrMode
	Value addr.Address
}

// operandWidth returns the number of bits the operand's address body
// occupies for a given mode (its ModeImmediate case is resolved by the
// caller from the active accumulator/index width, since immediates have
// no width of their own).
func operandWidth(m AddrMode, immBits int) (int, error) {
	switch m {
	case ModeImmediate:
		return immBits, nil
	case ModeDirectPage:
		return 8, nil
	case ModeAbsolute:
		return 16, nil
	case ModeAbsoluteLong:
		return 24, nil
	case ModePCRelShort:
		return 8, nil
	case ModePCRelLong:
		return 16, nil
	default:
		return 0, fmt.Errorf("w65c816: unknown addressing mode %d", m)
	}
}

func pcRelative(m AddrMode) bool {
	return m == ModePCRelShort || m == ModePCRelLong
}
