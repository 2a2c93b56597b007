package clever

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/lccc-project/lc-binutils/arch"
	"github.com/lccc-project/lc-binutils/internal/addr"
)

func encodeHex(t *testing.T, insn arch.SourceInstruction) []byte {
	t.Helper()
	w := addr.NewWriter(binary.LittleEndian)
	c := New()
	if err := c.Encode(w, insn); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return w.Bytes()
}

// TestS1NopNoOperand is spec.md §8 scenario S1.
func TestS1NopNoOperand(t *testing.T) {
	got := encodeHex(t, arch.SourceInstruction{Op: Opcode{mnemonic: "nop", kind: KindNormal}})
	want := []byte{0x01, 0x00}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % x want % x", got, want)
	}
}

// TestS2NopWithRegister is spec.md §8 scenario S2.
func TestS2NopWithRegister(t *testing.T) {
	insn := arch.SourceInstruction{
		Op:       Opcode{mnemonic: "nop", kind: KindNormal},
		Operands: []any{RegOperand{Reg: Register{Number: 0}, Size: SSDouble}},
	}
	got := encodeHex(t, insn)
	want := []byte{0x01, 0x10, 0x03, 0x00}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % x want % x", got, want)
	}
}

// TestS3NopWithShortImmediate is spec.md §8 scenario S3.
func TestS3NopWithShortImmediate(t *testing.T) {
	insn := arch.SourceInstruction{
		Op:       Opcode{mnemonic: "nop", kind: KindNormal},
		Operands: []any{ShortImmediate{Value: 1337}},
	}
	got := encodeHex(t, insn)
	want := []byte{0x01, 0x10, 0x85, 0x39}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % x want % x", got, want)
	}
}

// TestS4ConditionalBranch is spec.md §8 scenario S4.
func TestS4ConditionalBranch(t *testing.T) {
	insn := arch.SourceInstruction{
		Op:       Opcode{mnemonic: "jz", kind: KindBranch},
		Operands: []any{BranchOperand{Target: addr.Disp(-32), Width: 16, Weight: 0}},
	}
	got := encodeHex(t, insn)
	want := []byte{0x71, 0x30, 0xe0, 0xff}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % x want % x", got, want)
	}
}

func TestDecodeRoundTripsEncode(t *testing.T) {
	cases := []arch.SourceInstruction{
		{Op: Opcode{mnemonic: "nop", kind: KindNormal}},
		{Op: Opcode{mnemonic: "nop", kind: KindNormal}, Operands: []any{RegOperand{Reg: Register{Number: 5}, Size: SSSingle}}},
		{Op: Opcode{mnemonic: "add", kind: KindNormal}, Operands: []any{
			RegOperand{Reg: Register{Number: 3}, Size: SSDouble},
			RegOperand{Reg: Register{Number: 7}, Size: SSDouble},
		}},
		{Op: Opcode{mnemonic: "jmp", kind: KindBranch}, Operands: []any{BranchOperand{Target: addr.Disp(100), Width: 32, Weight: -3}}},
	}
	c := New()
	for _, insn := range cases {
		w := addr.NewWriter(binary.LittleEndian)
		if err := c.Encode(w, insn); err != nil {
			t.Fatalf("Encode(%v): %v", insn.Op, err)
		}
		r := addr.NewReader(w.Bytes(), binary.LittleEndian, nil)
		decoded, err := c.Decode(r)
		if err != nil {
			t.Fatalf("Decode after encoding %v: %v", insn.Op, err)
		}
		if decoded.Op.Mnemonic() != insn.Op.Mnemonic() {
			t.Fatalf("round trip mnemonic mismatch: got %s want %s", decoded.Op.Mnemonic(), insn.Op.Mnemonic())
		}
	}
}

func TestGPRSpecializationPreferred(t *testing.T) {
	insn := arch.SourceInstruction{
		Op: Opcode{mnemonic: "add", kind: KindNormal},
		Operands: []any{
			RegOperand{Reg: Register{Number: 2}, Size: SSDouble},
			ShortImmediate{Value: 5},
		},
	}
	got := encodeHex(t, insn)
	// opcode id 0x021 (embedGPR add), h = dest reg number 2: word = 0x0212
	if got[0] != 0x02 || got[1] != 0x12 {
		t.Fatalf("expected GPR-specialized AddRD form, got % x", got)
	}
}

func TestPrefixCompositionRejectsInvalidPair(t *testing.T) {
	insn := arch.SourceInstruction{
		Prefixes: []arch.Opcode{Opcode{mnemonic: "lock", kind: KindInsn}},
		Op:       Opcode{mnemonic: "mov", kind: KindNormal},
		Operands: []any{
			RegOperand{Reg: Register{Number: 0}, Size: SSDouble},
			RegOperand{Reg: Register{Number: 1}, Size: SSDouble},
		},
	}
	w := addr.NewWriter(binary.LittleEndian)
	if err := New().Encode(w, insn); err == nil {
		t.Fatal("expected error for lock prefixing mov, got nil")
	}
}
