package x86

import (
	"fmt"

	"github.com/lccc-project/lc-binutils/arch"
	"github.com/lccc-project/lc-binutils/internal/addr"
)

// Codec implements arch.Codec for the x86 instruction family.
type Codec struct {
	howtos *addr.HowtoTable
}

func New() *Codec { return &Codec{howtos: buildHowtoTable()} }

func init() { arch.Register(New()) }

func (c *Codec) Name() string             { return "x86" }
func (c *Codec) Howtos() *addr.HowtoTable { return c.howtos }

func modeOf(insn arch.SourceInstruction) (CPUMode, error) {
	if insn.Mode == nil {
		return 0, fmt.Errorf("x86: instruction has no CPU mode set")
	}
	m, ok := insn.Mode.(CPUMode)
	if !ok {
		return 0, fmt.Errorf("x86: instruction Mode field is not an x86.CPUMode")
	}
	return m, nil
}

// Encode writes insn to w (spec.md §4.2.2). Operand-size-override (0x66)
// and REX bytes are computed in full before anything is written, matching
// the staged-builder discipline Design Notes §9 asks for: an incomplete
// or contradictory size request is rejected up front rather than partway
// through emission.
func (c *Codec) Encode(w addr.InsnWrite, insn arch.SourceInstruction) error {
	op, ok := insn.Op.(Opcode)
	if !ok {
		return &arch.EncodeError{Arch: c.Name(), Insn: insn.Op.Mnemonic(), Why: "opcode is not an x86.Opcode"}
	}
	mode, err := modeOf(insn)
	if err != nil {
		return &arch.EncodeError{Arch: c.Name(), Insn: op.mnemonic, Why: err.Error()}
	}
	if !op.modes.Allows(mode) {
		return &arch.EncodeError{Arch: c.Name(), Insn: op.mnemonic, Why: fmt.Sprintf("opcode not available in %s mode", mode)}
	}

	switch op.form {
	case FormRR:
		if len(insn.Operands) != 2 {
			return &arch.EncodeError{Arch: c.Name(), Insn: op.mnemonic, Why: "expected 2 register operands"}
		}
		dst, ok1 := insn.Operands[0].(Register)
		src, ok2 := insn.Operands[1].(Register)
		if !ok1 || !ok2 {
			return &arch.EncodeError{Arch: c.Name(), Insn: op.mnemonic, Why: "operands must be x86.Register"}
		}
		if dst.Class != src.Class {
			return &arch.EncodeError{Arch: c.Name(), Insn: op.mnemonic, Why: "operand size mismatch between register operands"}
		}
		sz, err := resolveSizing(op.class, mode, dst.Class.Bits())
		if err != nil {
			return &arch.EncodeError{Arch: c.Name(), Insn: op.mnemonic, Why: err.Error()}
		}
		if sz.need66 {
			if err := w.WriteBytes([]byte{0x66}); err != nil {
				return err
			}
		}
		r := rex{w: sz.needRexW, r: dst.Extended(), b: src.Extended()}
		if r.present() {
			if err := w.WriteBytes([]byte{r.byte()}); err != nil {
				return err
			}
		}
		if err := w.WriteBytes([]byte{op.opcode, modrmRegDirect(dst, src)}); err != nil {
			return err
		}
		return nil

	case FormPushPop:
		if len(insn.Operands) != 1 {
			return &arch.EncodeError{Arch: c.Name(), Insn: op.mnemonic, Why: "expected 1 register operand"}
		}
		reg, ok := insn.Operands[0].(Register)
		if !ok {
			return &arch.EncodeError{Arch: c.Name(), Insn: op.mnemonic, Why: "operand must be x86.Register"}
		}
		sz, err := resolveSizing(op.class, mode, reg.Class.Bits())
		if err != nil {
			return &arch.EncodeError{Arch: c.Name(), Insn: op.mnemonic, Why: err.Error()}
		}
		if sz.need66 {
			if err := w.WriteBytes([]byte{0x66}); err != nil {
				return err
			}
		}
		r := rex{b: reg.Extended()}
		if r.present() {
			if err := w.WriteBytes([]byte{r.byte()}); err != nil {
				return err
			}
		}
		return w.WriteBytes([]byte{op.opcode | (reg.Number & 7)})

	default:
		return &arch.EncodeError{Arch: c.Name(), Insn: op.mnemonic, Why: "unsupported operand form"}
	}
}

// Decode reads one instruction from r, assuming mode (x86 has no
// self-describing mode byte in the instruction stream itself; the caller
// supplies it the way a disassembler knows its target's bitness).
func (c *Codec) Decode(r addr.InsnRead) (arch.SourceInstruction, error) {
	return c.DecodeInMode(r, Protected)
}

// DecodeInMode is Decode parameterized over CPU mode, used directly by
// callers (objdump) that know their target's mode up front.
func (c *Codec) DecodeInMode(r addr.InsnRead, mode CPUMode) (arch.SourceInstruction, error) {
	var have66 bool
	var r64 rex
	for {
		var b [1]byte
		if err := r.ReadBytes(b[:]); err != nil {
			return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: err.Error()}
		}
		switch {
		case b[0] == 0x66:
			have66 = true
			continue
		case b[0] >= 0x40 && b[0] <= 0x4F:
			r64 = rex{
				w: b[0]&(1<<3) != 0,
				r: b[0]&(1<<2) != 0,
				x: b[0]&(1<<1) != 0,
				b: b[0]&1 != 0,
			}
			continue
		default:
			return c.decodeOpcode(r, mode, b[0], have66, r64)
		}
	}
}

func (c *Codec) decodeOpcode(r addr.InsnRead, mode CPUMode, opcodeByte byte, have66 bool, r64 rex) (arch.SourceInstruction, error) {
	if op, ok := lookupByOpcodeByte(opcodeByte, FormRR); ok {
		var mb [1]byte
		if err := r.ReadBytes(mb[:]); err != nil {
			return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: err.Error()}
		}
		modrm := mb[0]
		regNum := (modrm>>3)&7 | boolBit(r64.r)<<3
		rmNum := modrm&7 | boolBit(r64.b)<<3
		bits := requestedBitsFromPrefixes(op.class, mode, have66, r64.w)
		class, err := classFromBits(bits)
		if err != nil {
			return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: err.Error()}
		}
		dst, ok1 := ByClassNumber(class, regNum)
		src, ok2 := ByClassNumber(class, rmNum)
		if !ok1 || !ok2 {
			return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: "unresolvable register encoding"}
		}
		return arch.SourceInstruction{Op: op, Mode: mode, Operands: []any{dst, src}}, nil
	}

	for _, base := range []byte{0x50, 0x58} {
		if opcodeByte >= base && opcodeByte <= base+7 {
			op, ok := lookupByOpcodeByte(base, FormPushPop)
			if !ok {
				break
			}
			regNum := (opcodeByte - base) | boolBit(r64.b)<<3
			bits := requestedBitsFromPrefixes(op.class, mode, have66, r64.w)
			class, err := classFromBits(bits)
			if err != nil {
				return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: err.Error()}
			}
			reg, ok := ByClassNumber(class, regNum)
			if !ok {
				return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: "unresolvable register encoding"}
			}
			return arch.SourceInstruction{Op: op, Mode: mode, Operands: []any{reg}}, nil
		}
	}

	return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: fmt.Sprintf("unknown opcode byte %#x", opcodeByte)}
}

func boolBit(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// requestedBitsFromPrefixes inverts resolveSizing: given which override
// prefixes were present, recover the operand width they select.
func requestedBitsFromPrefixes(class sizeClass, mode CPUMode, have66 bool, haveRexW bool) int {
	def := class.defaultWidth(mode)
	if haveRexW {
		return 64
	}
	if have66 {
		switch class {
		case aluClass:
			return 16
		case stackClass:
			if mode == Long {
				return 16
			}
			if def == 16 {
				return 32
			}
			return 16
		}
	}
	return def
}

func classFromBits(bits int) (RegClass, error) {
	switch bits {
	case 8:
		return ClassByte, nil
	case 16:
		return ClassWord, nil
	case 32:
		return ClassDword, nil
	case 64:
		return ClassQword, nil
	default:
		return 0, fmt.Errorf("x86: unrepresentable operand width %d", bits)
	}
}
