package x86

import "fmt"

// sizing resolves the operand-size-override (0x66) and REX.W bits an
// instruction needs to reach a requested operand width, given its
// size-class default in the current mode (spec.md §4.2.2). This is the
// staged-builder's first stage: nothing is written to the instruction
// stream until Encode has a complete, validated prefix/REX plan.
type sizing struct {
	need66  bool
	needRexW bool
}

func resolveSizing(class sizeClass, mode CPUMode, requestedBits int) (sizing, error) {
	def := class.defaultWidth(mode)
	if requestedBits == def {
		return sizing{}, nil
	}
	switch class {
	case aluClass:
		switch requestedBits {
		case 16:
			return sizing{need66: true}, nil
		case 64:
			if mode != Long {
				return sizing{}, fmt.Errorf("x86: 64-bit operand size requires long mode")
			}
			return sizing{needRexW: true}, nil
		default:
			return sizing{}, fmt.Errorf("x86: unreachable operand width %d for this opcode", requestedBits)
		}
	case stackClass:
		if mode == Long {
			if requestedBits == 16 {
				return sizing{need66: true}, nil
			}
			return sizing{}, fmt.Errorf("x86: no %d-bit stack operand form in long mode", requestedBits)
		}
		if requestedBits == 32 || requestedBits == 16 {
			return sizing{need66: true}, nil
		}
		return sizing{}, fmt.Errorf("x86: unreachable operand width %d for this opcode", requestedBits)
	default:
		return sizing{}, fmt.Errorf("x86: unknown size class")
	}
}

// rex computes a REX prefix byte from its four bits. present reports
// whether the byte needs to be emitted at all: only when W or an
// extension bit is set. Nothing forces an otherwise empty REX byte (as
// spl/bpl/sil/dil would need).
type rex struct {
	w, r, x, b bool
}

func (p rex) present() bool { return p.w || p.r || p.x || p.b }

func (p rex) byte() byte {
	b := byte(0x40)
	if p.w {
		b |= 1 << 3
	}
	if p.r {
		b |= 1 << 2
	}
	if p.x {
		b |= 1 << 1
	}
	if p.b {
		b |= 1
	}
	return b
}

// modrmRegDirect builds a single ModR/M byte for the register-direct (mod=11) form
// used by FormRR (spec.md §4.2.2's ModR/M "staged builder": reg and rm
// fields are filled in independently and only combined at the end).
func modrmRegDirect(reg, rm Register) byte {
	return 0xC0 | (reg.Number&7)<<3 | (rm.Number & 7)
}
