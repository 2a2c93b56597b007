package holeybytes

import (
	"encoding/binary"
	"fmt"

	"github.com/lccc-project/lc-binutils/arch"
	"github.com/lccc-project/lc-binutils/internal/addr"
)

// Per-shape operand structs, named after their original Rust counterparts
// (holeybytes/mod.rs OpsXXX family) — one struct per Shape, carrying
// exactly the fields that shape's fixed byte layout demands.
type (
	OpsRR  struct{ R0, R1 Register }
	OpsRRR struct{ R0, R1, R2 Register }
	OpsRRB struct {
		R0, R1 Register
		Imm    uint8
	}
	OpsRRH struct {
		R0, R1 Register
		Imm    uint16
	}
	OpsRRW struct {
		R0, R1 Register
		Imm    uint32
	}
	OpsRD struct {
		R0  Register
		Imm uint64
	}
	OpsRRD struct {
		R0, R1 Register
		Imm    uint64
	}
	OpsRRA struct {
		R0, R1 Register
		Addr   addr.Address
	}
	OpsRRO struct {
		R0, R1 Register
		Target addr.Address
	}
	OpsRRP struct {
		R0, R1 Register
		Target addr.Address
	}
	OpsA struct{ Addr addr.Address }
	OpsO struct{ Target addr.Address }
)

// Codec implements arch.Codec for HoleyBytes. All multi-byte fields are
// little-endian, a fixed-order write with no relocation-bearing field
// tagging beyond what InsnWrite.WriteAddr already provides (original
// codec.rs HbEncoder.write_instruction).
type Codec struct {
	howtos *addr.HowtoTable
}

func New() *Codec { return &Codec{howtos: buildHowtoTable()} }

func init() { arch.Register(New()) }

func (c *Codec) Name() string             { return "holeybytes" }
func (c *Codec) Howtos() *addr.HowtoTable { return c.howtos }

func (c *Codec) Encode(w addr.InsnWrite, insn arch.SourceInstruction) error {
	op, ok := insn.Op.(Opcode)
	if !ok {
		return &arch.EncodeError{Arch: c.Name(), Insn: insn.Op.Mnemonic(), Why: "opcode is not a holeybytes.Opcode"}
	}
	if err := w.WriteBytes([]byte{op.byte}); err != nil {
		return err
	}
	if op.shape == ShapeN {
		return nil
	}
	if len(insn.Operands) != 1 {
		return &arch.EncodeError{Arch: c.Name(), Insn: op.mnemonic, Why: "expected exactly one operand struct"}
	}
	switch o := insn.Operands[0].(type) {
	case OpsRR:
		if op.shape != ShapeRR {
			break
		}
		return w.WriteBytes([]byte{byte(o.R0), byte(o.R1)})
	case OpsRRR:
		if op.shape != ShapeRRR {
			break
		}
		return w.WriteBytes([]byte{byte(o.R0), byte(o.R1), byte(o.R2)})
	case OpsRRB:
		if op.shape != ShapeRRB {
			break
		}
		return w.WriteBytes([]byte{byte(o.R0), byte(o.R1), o.Imm})
	case OpsRRH:
		if op.shape != ShapeRRH {
			break
		}
		var imm [2]byte
		binary.LittleEndian.PutUint16(imm[:], o.Imm)
		return w.WriteBytes(append([]byte{byte(o.R0), byte(o.R1)}, imm[:]...))
	case OpsRRW:
		if op.shape != ShapeRRW {
			break
		}
		var imm [4]byte
		binary.LittleEndian.PutUint32(imm[:], o.Imm)
		return w.WriteBytes(append([]byte{byte(o.R0), byte(o.R1)}, imm[:]...))
	case OpsRD:
		if op.shape != ShapeRD {
			break
		}
		var imm [8]byte
		binary.LittleEndian.PutUint64(imm[:], o.Imm)
		return w.WriteBytes(append([]byte{byte(o.R0)}, imm[:]...))
	case OpsRRD:
		if op.shape != ShapeRRD {
			break
		}
		var imm [8]byte
		binary.LittleEndian.PutUint64(imm[:], o.Imm)
		return w.WriteBytes(append([]byte{byte(o.R0), byte(o.R1)}, imm[:]...))
	case OpsRRA:
		if op.shape != ShapeRRA {
			break
		}
		if err := w.WriteBytes([]byte{byte(o.R0), byte(o.R1)}); err != nil {
			return err
		}
		return w.WriteAddr(64, o.Addr, false)
	case OpsRRO:
		if op.shape != ShapeRRO {
			break
		}
		if err := w.WriteBytes([]byte{byte(o.R0), byte(o.R1)}); err != nil {
			return err
		}
		return w.WriteAddr(32, o.Target, true)
	case OpsRRP:
		if op.shape != ShapeRRP {
			break
		}
		if err := w.WriteBytes([]byte{byte(o.R0), byte(o.R1)}); err != nil {
			return err
		}
		return w.WriteAddr(16, o.Target, true)
	case OpsA:
		if op.shape != ShapeA {
			break
		}
		return w.WriteAddr(64, o.Addr, false)
	case OpsO:
		if op.shape != ShapeO {
			break
		}
		return w.WriteAddr(32, o.Target, true)
	}
	return &arch.EncodeError{Arch: c.Name(), Insn: op.mnemonic, Why: fmt.Sprintf("operand does not match shape for opcode %s", op.mnemonic)}
}

func (c *Codec) Decode(r addr.InsnRead) (arch.SourceInstruction, error) {
	var b [1]byte
	if err := r.ReadBytes(b[:]); err != nil {
		return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: err.Error()}
	}
	op, ok := lookupByByte(b[0])
	if !ok {
		return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: fmt.Sprintf("unknown opcode byte %#x", b[0])}
	}
	readRegs := func(n int) ([]Register, error) {
		buf := make([]byte, n)
		if err := r.ReadBytes(buf); err != nil {
			return nil, err
		}
		regs := make([]Register, n)
		for i, b := range buf {
			regs[i] = Register(b)
		}
		return regs, nil
	}
	switch op.shape {
	case ShapeN:
		return arch.SourceInstruction{Op: op}, nil
	case ShapeRR:
		regs, err := readRegs(2)
		if err != nil {
			return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: err.Error()}
		}
		return arch.SourceInstruction{Op: op, Operands: []any{OpsRR{regs[0], regs[1]}}}, nil
	case ShapeRRR:
		regs, err := readRegs(3)
		if err != nil {
			return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: err.Error()}
		}
		return arch.SourceInstruction{Op: op, Operands: []any{OpsRRR{regs[0], regs[1], regs[2]}}}, nil
	case ShapeRRB:
		regs, err := readRegs(2)
		if err != nil {
			return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: err.Error()}
		}
		var imm [1]byte
		if err := r.ReadBytes(imm[:]); err != nil {
			return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: err.Error()}
		}
		return arch.SourceInstruction{Op: op, Operands: []any{OpsRRB{regs[0], regs[1], imm[0]}}}, nil
	case ShapeRRH:
		regs, err := readRegs(2)
		if err != nil {
			return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: err.Error()}
		}
		var imm [2]byte
		if err := r.ReadBytes(imm[:]); err != nil {
			return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: err.Error()}
		}
		return arch.SourceInstruction{Op: op, Operands: []any{OpsRRH{regs[0], regs[1], binary.LittleEndian.Uint16(imm[:])}}}, nil
	case ShapeRRW:
		regs, err := readRegs(2)
		if err != nil {
			return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: err.Error()}
		}
		var imm [4]byte
		if err := r.ReadBytes(imm[:]); err != nil {
			return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: err.Error()}
		}
		return arch.SourceInstruction{Op: op, Operands: []any{OpsRRW{regs[0], regs[1], binary.LittleEndian.Uint32(imm[:])}}}, nil
	case ShapeRD:
		regs, err := readRegs(1)
		if err != nil {
			return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: err.Error()}
		}
		var imm [8]byte
		if err := r.ReadBytes(imm[:]); err != nil {
			return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: err.Error()}
		}
		return arch.SourceInstruction{Op: op, Operands: []any{OpsRD{regs[0], binary.LittleEndian.Uint64(imm[:])}}}, nil
	case ShapeRRD:
		regs, err := readRegs(2)
		if err != nil {
			return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: err.Error()}
		}
		var imm [8]byte
		if err := r.ReadBytes(imm[:]); err != nil {
			return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: err.Error()}
		}
		return arch.SourceInstruction{Op: op, Operands: []any{OpsRRD{regs[0], regs[1], binary.LittleEndian.Uint64(imm[:])}}}, nil
	case ShapeRRA:
		regs, err := readRegs(2)
		if err != nil {
			return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: err.Error()}
		}
		a, err := r.ReadAddr(64, false)
		if err != nil {
			return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: err.Error()}
		}
		return arch.SourceInstruction{Op: op, Operands: []any{OpsRRA{regs[0], regs[1], a}}}, nil
	case ShapeRRO:
		regs, err := readRegs(2)
		if err != nil {
			return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: err.Error()}
		}
		a, err := r.ReadAddr(32, true)
		if err != nil {
			return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: err.Error()}
		}
		return arch.SourceInstruction{Op: op, Operands: []any{OpsRRO{regs[0], regs[1], a}}}, nil
	case ShapeRRP:
		regs, err := readRegs(2)
		if err != nil {
			return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: err.Error()}
		}
		a, err := r.ReadAddr(16, true)
		if err != nil {
			return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: err.Error()}
		}
		return arch.SourceInstruction{Op: op, Operands: []any{OpsRRP{regs[0], regs[1], a}}}, nil
	case ShapeA:
		a, err := r.ReadAddr(64, false)
		if err != nil {
			return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: err.Error()}
		}
		return arch.SourceInstruction{Op: op, Operands: []any{OpsA{a}}}, nil
	case ShapeO:
		a, err := r.ReadAddr(32, true)
		if err != nil {
			return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: err.Error()}
		}
		return arch.SourceInstruction{Op: op, Operands: []any{OpsO{a}}}, nil
	default:
		return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: "unsupported shape"}
	}
}
