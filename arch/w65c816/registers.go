// Package w65c816 implements the encoder/decoder for the WDC 65C816
// 8/16-bit hybrid architecture (spec.md §4.2.4): variable-width
// accumulator/index registers gated by the processor status word's M/X
// bits, and bank-relative addressing.
package w65c816

// Register identifies one of the 65C816's registers. Acc, IdxX and IdxY
// are variable-width (8 or 16 bits, selected by Mode.M / Mode.X); the
// rest are fixed width (original arch-ops/src/wc65c816.rs Wc65c816Register).
type Register uint8

const (
	Acc Register = iota
	DBR
	DirectPage
	PBR
	PC
	SP
	IdxX
	IdxY
	Status
)

func (r Register) String() string {
	switch r {
	case Acc:
		return "a"
	case DBR:
		return "dbr"
	case DirectPage:
		return "d"
	case PBR:
		return "pbr"
	case PC:
		return "pc"
	case SP:
		return "s"
	case IdxX:
		return "x"
	case IdxY:
		return "y"
	case Status:
		return "p"
	default:
		return "?"
	}
}

// FixedWidth reports the register's width in bits, or 0 if it is
// variable-width (Acc/IdxX/IdxY), whose width depends on Mode.
func (r Register) FixedWidth() int {
	switch r {
	case DBR, PBR, Status:
		return 8
	case DirectPage, PC, SP:
		return 16
	default:
		return 0
	}
}

// Mode is the emulation/native and M/X width state the processor status
// register carries (spec.md §4.2.4 "mode word"): E selects 8-bit
// emulation mode (forcing M=X=1 regardless of their bits); outside
// emulation mode M and X independently select 8- or 16-bit accumulator
// and index-register width.
type Mode struct {
	E bool // emulation mode
	M bool // true = 8-bit accumulator/memory, false = 16-bit
	X bool // true = 8-bit index registers, false = 16-bit
}

// AccBits returns the current accumulator/memory operand width.
func (m Mode) AccBits() int {
	if m.E || m.M {
		return 8
	}
	return 16
}

// IndexBits returns the current index-register operand width.
func (m Mode) IndexBits() int {
	if m.E || m.X {
		return 8
	}
	return 16
}
