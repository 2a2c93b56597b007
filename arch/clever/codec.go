package clever

import (
	"encoding/binary"
	"fmt"

	"github.com/lccc-project/lc-binutils/arch"
	"github.com/lccc-project/lc-binutils/internal/addr"
)

// order is fixed: immediates, addresses and vector bodies on Clever are
// always little-endian (spec.md §6.3); only the 16-bit opcode word and
// operand control words are big-endian, handled directly by writeBE16.
var byteOrder = binary.LittleEndian

// Codec implements arch.Codec for the Clever architecture.
type Codec struct {
	howtos *addr.HowtoTable
}

// New constructs the Clever codec.
func New() *Codec {
	return &Codec{howtos: buildHowtoTable()}
}

func init() {
	arch.Register(New())
}

func (c *Codec) Name() string              { return "clever" }
func (c *Codec) Howtos() *addr.HowtoTable  { return c.howtos }

// Encode writes insn to w (spec.md §4.2.1).
func (c *Codec) Encode(w addr.InsnWrite, insn arch.SourceInstruction) error {
	for _, p := range insn.Prefixes {
		if err := validPrefix(p.Mnemonic(), insn.Op.Mnemonic()); err != nil {
			return &arch.EncodeError{Arch: c.Name(), Insn: insn.Op.Mnemonic(), Why: err.Error()}
		}
		prefixOp, ok := lookupByMnemonic(p.Mnemonic())
		if !ok || prefixOp.kind != KindInsn {
			return &arch.EncodeError{Arch: c.Name(), Insn: p.Mnemonic(), Why: "not a valid prefix opcode"}
		}
		if err := writeBE16(w, prefixOp.id<<4); err != nil {
			return err
		}
	}

	mnemonic := insn.Op.Mnemonic()
	if _, isBranch := branchMnemonics[mnemonic]; isBranch {
		if len(insn.Operands) != 1 {
			return &arch.EncodeError{Arch: c.Name(), Insn: mnemonic, Why: "branch opcodes take exactly one operand"}
		}
		branchOp, ok := insn.Operands[0].(BranchOperand)
		if !ok {
			return &arch.EncodeError{Arch: c.Name(), Insn: mnemonic, Why: "operand is not a branch target"}
		}
		if err := encodeBranch(w, byteOrder, mnemonic, branchOp); err != nil {
			return &arch.EncodeError{Arch: c.Name(), Insn: mnemonic, Why: err.Error()}
		}
		return nil
	}

	variants := variantsByMnemonic(mnemonic)
	if len(variants) == 0 {
		return &arch.EncodeError{Arch: c.Name(), Insn: mnemonic, Why: "unknown mnemonic"}
	}

	selected, h, err := selectVariant(variants, insn.Operands)
	if err != nil {
		return &arch.EncodeError{Arch: c.Name(), Insn: mnemonic, Why: err.Error()}
	}

	switch selected.kind {
	case KindNormal:
		if err := writeBE16(w, selected.id<<4|uint16(h)); err != nil {
			return err
		}
		operandsToEncode := insn.Operands
		if selected.embedGPR {
			// The first operand (the GPR) is embedded in h-bits; only
			// the remainder are written as control words.
			operandsToEncode = insn.Operands[1:]
		}
		for _, op := range operandsToEncode {
			clvOp, ok := op.(Operand)
			if !ok {
				return &arch.EncodeError{Arch: c.Name(), Insn: mnemonic, Why: "operand does not implement clever.Operand"}
			}
			if err := encodeControlWord(w, byteOrder, clvOp); err != nil {
				return &arch.EncodeError{Arch: c.Name(), Insn: mnemonic, Why: err.Error()}
			}
		}
		return nil
	case KindRelAddr, KindAbsAddr:
		if len(insn.Operands) != 1 {
			return &arch.EncodeError{Arch: c.Name(), Insn: mnemonic, Why: "address-form opcode takes exactly one operand"}
		}
		a, ok := insn.Operands[0].(addr.Address)
		if !ok {
			return &arch.EncodeError{Arch: c.Name(), Insn: mnemonic, Why: "operand is not an address"}
		}
		if err := writeBE16(w, selected.id<<4); err != nil {
			return err
		}
		return w.WriteAddr(selected.addrWidth, a, selected.kind == KindRelAddr)
	default:
		return &arch.EncodeError{Arch: c.Name(), Insn: mnemonic, Why: "unsupported opcode kind"}
	}
}

// selectVariant picks the table entry matching operands' shape, preferring
// an embedGPR (GPR-specialized) variant when its designated GPR operand is
// in fact a GPR register 0-15 (spec.md §4.2.1).
func selectVariant(variants []Opcode, operands []any) (Opcode, uint8, error) {
	for _, v := range variants {
		if !v.embedGPR {
			continue
		}
		if len(operands) != 2 {
			continue
		}
		reg, ok := operands[0].(RegOperand)
		if !ok || !reg.Reg.IsGPR() {
			continue
		}
		return v, reg.Reg.Number, nil
	}
	for _, v := range variants {
		if v.embedGPR {
			continue
		}
		if v.kind == KindNormal && v.operands == len(operands) {
			return v, 0, nil
		}
	}
	return Opcode{}, 0, fmt.Errorf("no opcode variant matches %d operand(s)", len(operands))
}

// Decode reads one instruction from r.
func (c *Codec) Decode(r addr.InsnRead) (arch.SourceInstruction, error) {
	var prefixes []arch.Opcode
	for {
		word, err := readBE16(r)
		if err != nil {
			return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: err.Error()}
		}
		id := word >> 4
		h := uint8(word & 0xF)

		if op, ok := lookupByID(id); ok && op.kind == KindInsn {
			prefixes = append(prefixes, op)
			continue
		}

		if _, _, _, ok := decodeBranchOpcodeID(id); ok {
			op, branchOp, err := decodeBranch(r, id, h)
			if err != nil {
				return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: err.Error()}
			}
			return arch.SourceInstruction{
				Prefixes: prefixes,
				Op:       op,
				Operands: []any{branchOp},
			}, nil
		}

		op, ok := lookupByID(id)
		if !ok {
			return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: fmt.Sprintf("unknown opcode id %#x", id)}
		}

		switch op.kind {
		case KindNormal:
			var operands []any
			if op.embedGPR {
				operands = append(operands, RegOperand{Reg: Register{Number: h}})
			}
			for i := 0; i < op.operands; i++ {
				cw, err := decodeControlWord(r)
				if err != nil {
					return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: err.Error()}
				}
				operands = append(operands, cw)
			}
			return arch.SourceInstruction{Prefixes: prefixes, Op: op, Operands: operands}, nil
		case KindRelAddr, KindAbsAddr:
			a, err := r.ReadAddr(op.addrWidth, op.kind == KindRelAddr)
			if err != nil {
				return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: err.Error()}
			}
			return arch.SourceInstruction{Prefixes: prefixes, Op: op, Operands: []any{a}}, nil
		default:
			return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: "unsupported opcode kind"}
		}
	}
}

