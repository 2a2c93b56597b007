// Package addr defines the Address, Reloc and Howto primitives shared by
// every architecture codec and the object-file layer. It is the narrowest,
// lowest package in the module: everything else depends on it, it depends
// on nothing else in this repository.
package addr

import "fmt"

// Kind discriminates the three Address variants.
type Kind uint8

const (
	// KindAbs is an absolute address or constant.
	KindAbs Kind = iota
	// KindDisp is a PC-relative displacement.
	KindDisp
	// KindSymbol is a symbolic address with an addend, resolved later by
	// a linker.
	KindSymbol
)

func (k Kind) String() string {
	switch k {
	case KindAbs:
		return "abs"
	case KindDisp:
		return "disp"
	case KindSymbol:
		return "symbol"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Address is the sole currency for branch and load targets across every
// codec in this module: Abs(value), Disp(signed byte offset) or
// Symbol{name, addend}.
type Address struct {
	kind   Kind
	abs    uint64 // low 64 bits; full width support tops out at what Go's uint64 carries
	hi     uint64 // high 64 bits for a 128-bit absolute value, 0 otherwise
	disp   int64
	symbol string
	addend int64
}

// Abs constructs an absolute address. Only architectures that need the
// full 128 bits (Clever) populate hi via AbsWide.
func Abs(value uint64) Address {
	return Address{kind: KindAbs, abs: value}
}

// AbsWide constructs a 128-bit absolute address from low/high 64-bit halves.
func AbsWide(lo, hi uint64) Address {
	return Address{kind: KindAbs, abs: lo, hi: hi}
}

// Disp constructs a PC-relative displacement.
func Disp(offset int64) Address {
	return Address{kind: KindDisp, disp: offset}
}

// Symbol constructs a symbolic address with an addend.
func Symbol(name string, addend int64) Address {
	return Address{kind: KindSymbol, symbol: name, addend: addend}
}

// Kind reports which variant this Address holds.
func (a Address) Kind() Kind { return a.kind }

// AbsValue returns the low 64 bits of an absolute address. Valid only when
// Kind() == KindAbs.
func (a Address) AbsValue() uint64 { return a.abs }

// AbsHigh returns the high 64 bits of a 128-bit absolute address.
func (a Address) AbsHigh() uint64 { return a.hi }

// DispValue returns the displacement. Valid only when Kind() == KindDisp.
func (a Address) DispValue() int64 { return a.disp }

// SymbolName returns the symbol name. Valid only when Kind() == KindSymbol.
func (a Address) SymbolName() string { return a.symbol }

// Addend returns the symbolic addend. Valid only when Kind() == KindSymbol.
func (a Address) Addend() int64 { return a.addend }

// Equal reports structural equality, usable as a map key substitute since
// Address itself is comparable (all fields are comparable scalars).
func (a Address) Equal(b Address) bool { return a == b }

func (a Address) String() string {
	switch a.kind {
	case KindAbs:
		if a.hi != 0 {
			return fmt.Sprintf("0x%x%016x", a.hi, a.abs)
		}
		return fmt.Sprintf("0x%x", a.abs)
	case KindDisp:
		return fmt.Sprintf("%+d", a.disp)
	case KindSymbol:
		if a.addend != 0 {
			return fmt.Sprintf("%s%+d", a.symbol, a.addend)
		}
		return a.symbol
	default:
		return "<invalid address>"
	}
}
