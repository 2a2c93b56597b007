package x86

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/lccc-project/lc-binutils/arch"
	"github.com/lccc-project/lc-binutils/internal/addr"
)

func mustReg(t *testing.T, name string) Register {
	t.Helper()
	r, ok := Lookup(name)
	if !ok {
		t.Fatalf("no such register %q", name)
	}
	return r
}

func encodeHex(t *testing.T, insn arch.SourceInstruction) []byte {
	t.Helper()
	w := addr.NewWriter(binary.LittleEndian)
	if err := New().Encode(w, insn); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return w.Bytes()
}

// TestS5XorEaxEaxReal is spec.md §8 scenario S5.
func TestS5XorEaxEaxReal(t *testing.T) {
	xor, _ := lookupByMnemonic("xor")
	insn := arch.SourceInstruction{
		Op:       xor,
		Mode:     Real,
		Operands: []any{mustReg(t, "eax"), mustReg(t, "eax")},
	}
	got := encodeHex(t, insn)
	want := []byte{0x31, 0xC0}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % x want % x", got, want)
	}
}

// TestS6XorAxAxReal is spec.md §8 scenario S6.
func TestS6XorAxAxReal(t *testing.T) {
	xor, _ := lookupByMnemonic("xor")
	insn := arch.SourceInstruction{
		Op:       xor,
		Mode:     Real,
		Operands: []any{mustReg(t, "ax"), mustReg(t, "ax")},
	}
	got := encodeHex(t, insn)
	want := []byte{0x66, 0x31, 0xC0}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % x want % x", got, want)
	}
}

// TestS7XorRaxRaxLong is spec.md §8 scenario S7.
func TestS7XorRaxRaxLong(t *testing.T) {
	xor, _ := lookupByMnemonic("xor")
	insn := arch.SourceInstruction{
		Op:       xor,
		Mode:     Long,
		Operands: []any{mustReg(t, "rax"), mustReg(t, "rax")},
	}
	got := encodeHex(t, insn)
	want := []byte{0x48, 0x31, 0xC0}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % x want % x", got, want)
	}
}

// TestS8PushEaxReal is spec.md §8 scenario S8.
func TestS8PushEaxReal(t *testing.T) {
	push, _ := lookupByMnemonic("push")
	insn := arch.SourceInstruction{
		Op:       push,
		Mode:     Real,
		Operands: []any{mustReg(t, "eax")},
	}
	got := encodeHex(t, insn)
	want := []byte{0x66, 0x50}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % x want % x", got, want)
	}
}

// TestS9PushEaxLongIsError is spec.md §8 scenario S9: a 32-bit push has no
// encoding in long mode (stack operand size is 16 or 64 bits only).
func TestS9PushEaxLongIsError(t *testing.T) {
	push, _ := lookupByMnemonic("push")
	insn := arch.SourceInstruction{
		Op:       push,
		Mode:     Long,
		Operands: []any{mustReg(t, "eax")},
	}
	w := addr.NewWriter(binary.LittleEndian)
	if err := New().Encode(w, insn); err == nil {
		t.Fatal("expected error encoding 32-bit push in long mode, got nil")
	}
}

func TestDecodeRoundTripsS5S7S8(t *testing.T) {
	cases := []arch.SourceInstruction{
		{Op: mustOp(t, "xor"), Mode: Real, Operands: []any{mustReg(t, "eax"), mustReg(t, "eax")}},
		{Op: mustOp(t, "xor"), Mode: Long, Operands: []any{mustReg(t, "rax"), mustReg(t, "rax")}},
		{Op: mustOp(t, "push"), Mode: Real, Operands: []any{mustReg(t, "eax")}},
		{Op: mustOp(t, "push"), Mode: Long, Operands: []any{mustReg(t, "rax")}},
	}
	c := New()
	for _, insn := range cases {
		w := addr.NewWriter(binary.LittleEndian)
		if err := c.Encode(w, insn); err != nil {
			t.Fatalf("Encode(%v): %v", insn.Op, err)
		}
		r := addr.NewReader(w.Bytes(), binary.LittleEndian, nil)
		mode := insn.Mode.(CPUMode)
		decoded, err := c.DecodeInMode(r, mode)
		if err != nil {
			t.Fatalf("Decode after encoding %v: %v", insn.Op, err)
		}
		if decoded.Op.Mnemonic() != insn.Op.Mnemonic() {
			t.Fatalf("round trip mnemonic mismatch: got %s want %s", decoded.Op.Mnemonic(), insn.Op.Mnemonic())
		}
		if len(decoded.Operands) != len(insn.Operands) {
			t.Fatalf("round trip operand count mismatch: got %d want %d", len(decoded.Operands), len(insn.Operands))
		}
		for i := range decoded.Operands {
			got := decoded.Operands[i].(Register)
			want := insn.Operands[i].(Register)
			if got != want {
				t.Fatalf("round trip operand %d mismatch: got %v want %v", i, got, want)
			}
		}
	}
}

func mustOp(t *testing.T, mnemonic string) Opcode {
	t.Helper()
	op, ok := lookupByMnemonic(mnemonic)
	if !ok {
		t.Fatalf("no such opcode %q", mnemonic)
	}
	return op
}
