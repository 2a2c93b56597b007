package holeybytes

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/lccc-project/lc-binutils/arch"
	"github.com/lccc-project/lc-binutils/internal/addr"
)

func TestAddRRREncode(t *testing.T) {
	op, ok := Lookup("add")
	if !ok {
		t.Fatal("no add opcode")
	}
	w := addr.NewWriter(binary.LittleEndian)
	insn := arch.SourceInstruction{Op: op, Operands: []any{OpsRRR{R0: 1, R1: 2, R2: 3}}}
	if err := New().Encode(w, insn); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{0x10, 1, 2, 3}
	if !bytes.Equal(w.Bytes(), want) {
		t.Fatalf("got % x want % x", w.Bytes(), want)
	}
}

func TestLi64RoundTrip(t *testing.T) {
	op, _ := Lookup("li64")
	c := New()
	w := addr.NewWriter(binary.LittleEndian)
	insn := arch.SourceInstruction{Op: op, Operands: []any{OpsRD{R0: 4, Imm: 0x0102030405060708}}}
	if err := c.Encode(w, insn); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	r := addr.NewReader(w.Bytes(), binary.LittleEndian, nil)
	decoded, err := c.Decode(r)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, ok := decoded.Operands[0].(OpsRD)
	if !ok {
		t.Fatalf("decoded operand has wrong type: %T", decoded.Operands[0])
	}
	if got != (OpsRD{R0: 4, Imm: 0x0102030405060708}) {
		t.Fatalf("got %+v want R0=4 Imm=0x0102030405060708", got)
	}
}

func TestNopIsSingleByte(t *testing.T) {
	op, _ := Lookup("nop")
	w := addr.NewWriter(binary.LittleEndian)
	if err := New().Encode(w, arch.SourceInstruction{Op: op}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(w.Bytes(), []byte{0x00}) {
		t.Fatalf("got % x want 00", w.Bytes())
	}
}
