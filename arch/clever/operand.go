package clever

import (
	"fmt"

	"github.com/lccc-project/lc-binutils/internal/addr"
)

// SS is the two-bit Clever size selector: byte/half/single/double, i.e.
// 8/16/32/64 bits (spec.md glossary, "ss").
type SS uint8

const (
	SSByte   SS = 0
	SSHalf   SS = 1
	SSSingle SS = 2
	SSDouble SS = 3
)

// Bits returns the operand width this selector denotes.
func (s SS) Bits() int { return 8 << uint(s) }

// SSFromBits returns the selector for a given bit width (8/16/32/64).
func SSFromBits(bits int) (SS, error) {
	switch bits {
	case 8:
		return SSByte, nil
	case 16:
		return SSHalf, nil
	case 32:
		return SSSingle, nil
	case 64:
		return SSDouble, nil
	default:
		return 0, fmt.Errorf("clever: invalid operand width %d bits", bits)
	}
}

// Operand is the sum of operand kinds an instruction may carry: a plain
// register, a register pair (vector), an indirect memory reference, a
// short or long immediate, or a relocatable address.
type Operand interface {
	isOperand()
}

// RegOperand is a bare register reference, control word tag `00`.
type RegOperand struct {
	Reg Register
	Size SS
}

func (RegOperand) isOperand() {}

// VecPairOperand is a vector register-pair reference, control word tag
// `00` with the pair bit set.
type VecPairOperand struct {
	Reg  Register
	Size SS
}

func (VecPairOperand) isOperand() {}

// IndirectOperand is memory addressed through a base register, optional
// scaled index register (or small absolute index when K is set), control
// word tag `01`.
type IndirectOperand struct {
	Base     Register
	Index    Register
	IndexAbs int8 // used instead of Index when K is true
	K        bool
	Scale    uint8 // 0-7
	Size     SS
}

func (IndirectOperand) isOperand() {}

// ShortImmediate is a 12-bit literal, control word tag `10`.
type ShortImmediate struct {
	Value      int16 // -2048..2047
	PCRelative bool
}

func (ShortImmediate) isOperand() {}

// LongImmediate is a 16/32/64-bit literal or memory-indirect reference,
// control word tag `11`.
type LongImmediate struct {
	Value        addr.Address
	Size         SS // one of SSHalf, SSSingle, SSDouble (16/32/64 bits)
	MemIndirect  bool
	RefSize      SS // meaningful only when MemIndirect
	PCRelative   bool
}

func (LongImmediate) isOperand() {}

// encodeControlWord packs one Clever operand into its 16-bit big-endian
// control word, writing any trailing immediate body that follows it.
func encodeControlWord(w addr.InsnWrite, order addr.ByteOrder, op Operand) error {
	switch o := op.(type) {
	case RegOperand:
		word := uint16(o.Size) << 8
		word |= uint16(o.Reg.Number)
		return writeBE16(w, word)
	case VecPairOperand:
		word := uint16(1)<<11 | uint16(o.Size)<<8
		word |= uint16(o.Reg.Number)
		return writeBE16(w, word)
	case IndirectOperand:
		var word uint16 = 0b01 << 14
		if o.K {
			word |= 1 << 6
			word |= uint16(uint8(o.IndexAbs)&0xF) << 10
		} else {
			word |= uint16(o.Index.Number&0xF) << 10
		}
		word |= uint16(o.Scale&0x7) << 7
		word |= uint16(o.Size&0x3) << 4
		word |= uint16(o.Base.Number & 0xF)
		return writeBE16(w, word)
	case ShortImmediate:
		var word uint16 = 0b10 << 14
		if o.PCRelative {
			word |= 1 << 12
		}
		word |= uint16(o.Value) & 0xFFF
		return writeBE16(w, word)
	case LongImmediate:
		var word uint16 = 0b11 << 14
		if o.MemIndirect {
			word |= 1 << 13
			word |= uint16(o.RefSize&0x3) << 4
		}
		if o.PCRelative {
			word |= 1 << 10
		}
		sizeSel, err := longImmSizeSelector(o.Size)
		if err != nil {
			return err
		}
		word |= uint16(sizeSel) << 8
		if err := writeBE16(w, word); err != nil {
			return err
		}
		return w.WriteAddr(o.Size.Bits(), o.Value, o.PCRelative)
	default:
		return fmt.Errorf("clever: unsupported operand type %T", op)
	}
}

// longImmSizeSelector maps SSHalf/SSSingle/SSDouble to the 2-bit field
// bits 8-9 select (16/32/64); 128-bit vector immediates are the reserved
// fourth value, used only by the vector opcode forms not implemented in
// this representative subset.
func longImmSizeSelector(s SS) (uint8, error) {
	switch s {
	case SSHalf:
		return 0, nil
	case SSSingle:
		return 1, nil
	case SSDouble:
		return 2, nil
	default:
		return 0, fmt.Errorf("clever: long immediate size must be 16/32/64 bits, got %d", s.Bits())
	}
}

func writeBE16(w addr.InsnWrite, v uint16) error {
	return w.WriteBytes([]byte{byte(v >> 8), byte(v)})
}

func readBE16(r addr.InsnRead) (uint16, error) {
	var buf [2]byte
	if err := r.ReadBytes(buf[:]); err != nil {
		return 0, err
	}
	return uint16(buf[0])<<8 | uint16(buf[1]), nil
}

// decodeControlWord reads one 16-bit operand control word and whatever
// trailing body it implies.
func decodeControlWord(r addr.InsnRead) (Operand, error) {
	word, err := readBE16(r)
	if err != nil {
		return nil, err
	}
	switch word >> 14 {
	case 0b00:
		size := SS((word >> 8) & 0x7)
		isPair := (word>>11)&1 == 1
		reg := Register{Number: uint8(word & 0xFF)}
		if isPair {
			return VecPairOperand{Reg: reg, Size: size}, nil
		}
		return RegOperand{Reg: reg, Size: size}, nil
	case 0b01:
		k := (word>>6)&1 == 1
		idxBits := uint8((word >> 10) & 0xF)
		o := IndirectOperand{
			Base:  Register{Number: uint8(word & 0xF)},
			K:     k,
			Scale: uint8((word >> 7) & 0x7),
			Size:  SS((word >> 4) & 0x3),
		}
		if k {
			// sign-extend 4-bit field
			v := int8(idxBits << 4) >> 4
			o.IndexAbs = v
		} else {
			o.Index = Register{Number: idxBits}
		}
		return o, nil
	case 0b10:
		raw := word & 0xFFF
		// sign-extend 12-bit field
		v := int16(raw<<4) >> 4
		return ShortImmediate{Value: v, PCRelative: (word>>12)&1 == 1}, nil
	case 0b11:
		memIndirect := (word>>13)&1 == 1
		pcRel := (word>>10)&1 == 1
		sizeSel := (word >> 8) & 0x3
		size, err := longImmSizeFromSelector(uint8(sizeSel))
		if err != nil {
			return nil, err
		}
		refSize := SS((word >> 4) & 0x3)
		val, err := r.ReadAddr(size.Bits(), pcRel)
		if err != nil {
			return nil, err
		}
		return LongImmediate{Value: val, Size: size, MemIndirect: memIndirect, RefSize: refSize, PCRelative: pcRel}, nil
	default:
		return nil, fmt.Errorf("clever: impossible control word tag")
	}
}

func longImmSizeFromSelector(sel uint8) (SS, error) {
	switch sel {
	case 0:
		return SSHalf, nil
	case 1:
		return SSSingle, nil
	case 2:
		return SSDouble, nil
	default:
		return 0, fmt.Errorf("clever: long immediate selector %d is reserved for vector immediates", sel)
	}
}
