package clever

import (
	"fmt"

	"github.com/lccc-project/lc-binutils/internal/addr"
)

// BranchOperand is the single operand a conditional branch opcode takes:
// a target Address plus whether the encoder should prefer a narrower
// width, and an optional weight hint (signed 4-bit, -8..7).
type BranchOperand struct {
	Target addr.Address
	Width  int // 16/32/64; 0 lets the encoder pick the narrowest fit
	Weight int8
}

func (BranchOperand) isOperand() {}

// widthSelector and its inverse implement the concrete, self-consistent
// branch opcode-id layout this package uses (see DESIGN.md): opcode12 =
// base(cond) | (cond&0xF)<<4 | (widthSel<<1) | pcRelBit, where base
// steps by 0x40 every 16 conditions across the three ranges spec.md
// names (0x700x, 0x740x, 0x780x).
func widthSelector(bits int) (uint8, error) {
	switch bits {
	case 8:
		return 0, nil
	case 16:
		return 1, nil
	case 32:
		return 2, nil
	case 64:
		return 3, nil
	default:
		return 0, fmt.Errorf("clever: invalid branch address width %d", bits)
	}
}

func widthFromSelector(sel uint8) int {
	return 8 << sel
}

func branchOpcodeID(cond uint8, widthBits int, pcRelative bool) (uint16, error) {
	sel, err := widthSelector(widthBits)
	if err != nil {
		return 0, err
	}
	base := uint16(0x700) + uint16(0x40)*uint16(cond/16)
	pcBit := uint16(0)
	if pcRelative {
		pcBit = 1
	}
	return base | uint16(cond%16)<<4 | uint16(sel)<<1 | pcBit, nil
}

// decodeBranchOpcodeID inverts branchOpcodeID, returning ok=false if id
// does not fall in one of the three branch ranges.
func decodeBranchOpcodeID(id uint16) (cond uint8, widthBits int, pcRelative bool, ok bool) {
	for group := uint16(0); group < 3; group++ {
		base := uint16(0x700) + 0x40*group
		if id < base || id >= base+0x100 {
			continue
		}
		rel := id - base
		cond = uint8(group*16) + uint8(rel>>4)
		sel := uint8((rel >> 1) & 0x3)
		pcRelative = rel&1 == 1
		widthBits = widthFromSelector(sel)
		return cond, widthBits, pcRelative, true
	}
	return 0, 0, false, false
}

// encodeBranch picks the narrowest width that fits the target (ties broken
// in favor of PC-relative for Disp addresses, per spec.md §4.2.1's encoder
// tie-break rule) and writes the opcode word followed by the address body.
func encodeBranch(w addr.InsnWrite, order addr.ByteOrder, mnemonic string, op BranchOperand) error {
	cond, ok := branchMnemonics[mnemonic]
	if !ok {
		return fmt.Errorf("clever: %q is not a branch mnemonic", mnemonic)
	}
	pcRelative := op.Target.Kind() == addr.KindDisp
	width := op.Width
	if width == 0 {
		width = narrowestFit(op.Target)
	}
	id, err := branchOpcodeID(cond, width, pcRelative)
	if err != nil {
		return err
	}
	word := id<<4 | uint16(uint8(op.Weight)&0xF)
	if err := writeBE16(w, word); err != nil {
		return err
	}
	return w.WriteAddr(width, op.Target, pcRelative)
}

func narrowestFit(a addr.Address) int {
	switch a.Kind() {
	case addr.KindDisp:
		v := a.DispValue()
		switch {
		case v >= -128 && v <= 127:
			return 8
		case v >= -32768 && v <= 32767:
			return 16
		case v >= -(1<<31) && v <= (1<<31)-1:
			return 32
		default:
			return 64
		}
	case addr.KindSymbol:
		return 32
	default:
		return 64
	}
}

func decodeBranch(r addr.InsnRead, id uint16, h uint8) (Opcode, BranchOperand, error) {
	cond, width, pcRel, ok := decodeBranchOpcodeID(id)
	if !ok {
		return Opcode{}, BranchOperand{}, fmt.Errorf("clever: opcode id %#x is not a branch", id)
	}
	mnemonic, ok := branchByCondition[cond]
	if !ok {
		return Opcode{}, BranchOperand{}, fmt.Errorf("clever: unknown branch condition %d", cond)
	}
	target, err := r.ReadAddr(width, pcRel)
	if err != nil {
		return Opcode{}, BranchOperand{}, err
	}
	weight := int8(h<<4) >> 4
	return Opcode{mnemonic: mnemonic, kind: KindBranch}, BranchOperand{Target: target, Width: width, Weight: weight}, nil
}
