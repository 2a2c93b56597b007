package w65c816

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/lccc-project/lc-binutils/arch"
	"github.com/lccc-project/lc-binutils/internal/addr"
)

func TestLDAImmediate8Bit(t *testing.T) {
	w := addr.NewWriter(binary.LittleEndian)
	insn := arch.SourceInstruction{
		Op:       Opcode("lda"),
		Mode:     Mode{M: true},
		Operands: []any{Operand{Mode: ModeImmediate, Value: addr.Abs(0x42)}},
	}
	if err := New().Encode(w, insn); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{0xA9, 0x42}
	if !bytes.Equal(w.Bytes(), want) {
		t.Fatalf("got % x want % x", w.Bytes(), want)
	}
}

func TestLDAImmediate16Bit(t *testing.T) {
	w := addr.NewWriter(binary.LittleEndian)
	insn := arch.SourceInstruction{
		Op:       Opcode("lda"),
		Mode:     Mode{M: false},
		Operands: []any{Operand{Mode: ModeImmediate, Value: addr.Abs(0x1234)}},
	}
	if err := New().Encode(w, insn); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{0xA9, 0x34, 0x12}
	if !bytes.Equal(w.Bytes(), want) {
		t.Fatalf("got % x want % x", w.Bytes(), want)
	}
}

func TestJmpAbsoluteLongRoundTrip(t *testing.T) {
	w := addr.NewWriter(binary.LittleEndian)
	insn := arch.SourceInstruction{
		Op:       Opcode("jmp"),
		Operands: []any{Operand{Mode: ModeAbsoluteLong, Value: addr.Abs(0x010203)}},
	}
	c := New()
	if err := c.Encode(w, insn); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{0x5C, 0x03, 0x02, 0x01}
	if !bytes.Equal(w.Bytes(), want) {
		t.Fatalf("got % x want % x", w.Bytes(), want)
	}
	r := addr.NewReader(w.Bytes(), binary.LittleEndian, nil)
	decoded, err := c.Decode(r)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Op.Mnemonic() != "jmp" {
		t.Fatalf("got mnemonic %s want jmp", decoded.Op.Mnemonic())
	}
}

func TestNopNoOperand(t *testing.T) {
	w := addr.NewWriter(binary.LittleEndian)
	if err := New().Encode(w, arch.SourceInstruction{Op: Opcode("nop")}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(w.Bytes(), []byte{0xEA}) {
		t.Fatalf("got % x want ea", w.Bytes())
	}
}

// TestSyntheticLdaRegisterRewritesToTxa covers spec.md §4.2.4's headline
// example: `Lda %X` becomes `Txa`.
func TestSyntheticLdaRegisterRewritesToTxa(t *testing.T) {
	w := addr.NewWriter(binary.LittleEndian)
	insn := arch.SourceInstruction{
		Op:       Opcode("lda"),
		Operands: []any{RegisterOperand{IdxX}},
	}
	if err := New().Encode(w, insn); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(w.Bytes(), []byte{0x8A}) {
		t.Fatalf("got % x want 8a (txa)", w.Bytes())
	}
}

// TestSyntheticPhRegisterRewritesToPha covers spec.md §4.2.4's second
// example: `Ph %A` becomes `Pha`.
func TestSyntheticPhRegisterRewritesToPha(t *testing.T) {
	w := addr.NewWriter(binary.LittleEndian)
	insn := arch.SourceInstruction{
		Op:       Opcode("ph"),
		Operands: []any{RegisterOperand{Acc}},
	}
	if err := New().Encode(w, insn); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(w.Bytes(), []byte{0x48}) {
		t.Fatalf("got % x want 48 (pha)", w.Bytes())
	}
}

// TestSyntheticBrkGainsZeroOperand covers spec.md §4.2.4's third example:
// `Brk` without an operand becomes `Brk 0`.
func TestSyntheticBrkGainsZeroOperand(t *testing.T) {
	w := addr.NewWriter(binary.LittleEndian)
	if err := New().Encode(w, arch.SourceInstruction{Op: Opcode("brk")}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(w.Bytes(), []byte{0x00, 0x00}) {
		t.Fatalf("got % x want 00 00 (brk 0)", w.Bytes())
	}
}

// TestSyntheticTrRegisterPairRewrite covers the two-register `tr` form.
func TestSyntheticTrRegisterPairRewrite(t *testing.T) {
	w := addr.NewWriter(binary.LittleEndian)
	insn := arch.SourceInstruction{
		Op:       Opcode("tr"),
		Operands: []any{RegPairOperand{From: IdxY, To: Acc}},
	}
	if err := New().Encode(w, insn); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(w.Bytes(), []byte{0x98}) {
		t.Fatalf("got % x want 98 (tya)", w.Bytes())
	}
}

// TestSyntheticBrlNarrowsToBra covers the Brl(addr) -> Bra(addr) rewrite.
func TestSyntheticBrlNarrowsToBra(t *testing.T) {
	w := addr.NewWriter(binary.LittleEndian)
	insn := arch.SourceInstruction{
		Op:       Opcode("brl"),
		Operands: []any{Operand{Mode: ModePCRelLong, Value: addr.Abs(0x10)}},
	}
	if err := New().Encode(w, insn); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{0x80, 0x10}
	if !bytes.Equal(w.Bytes(), want) {
		t.Fatalf("got % x want % x (bra)", w.Bytes(), want)
	}
}

// TestSyntheticRewriteDoesNotApplyToRealMnemonics ensures a real mnemonic
// that happens to share a name with a synthetic one (none currently do,
// but "txa" fed straight through) passes unrewritten.
func TestSyntheticRewriteDoesNotApplyToRealMnemonics(t *testing.T) {
	w := addr.NewWriter(binary.LittleEndian)
	if err := New().Encode(w, arch.SourceInstruction{Op: Opcode("txa")}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(w.Bytes(), []byte{0x8A}) {
		t.Fatalf("got % x want 8a", w.Bytes())
	}
}
