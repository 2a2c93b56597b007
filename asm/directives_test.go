package asm

import "testing"

// TestAlignIsIdempotent checks spec.md §8's invariant: two consecutive
// .align N directives on the same section behave identically to one.
func TestAlignIsIdempotent(t *testing.T) {
	a := newTestAssembler()
	if err := a.Assemble(".data\n.ascii \"ab\"\n.align 8\n"); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	f := a.Finish()
	sec, _ := f.SectionByName(".data")
	onceLen := len(sec.Content)

	b := newTestAssembler()
	if err := b.Assemble(".data\n.ascii \"ab\"\n.align 8\n.align 8\n"); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	fb := b.Finish()
	secB, _ := fb.SectionByName(".data")
	twiceLen := len(secB.Content)

	if onceLen != twiceLen {
		t.Fatalf("single .align produced %d bytes, double .align produced %d; want equal", onceLen, twiceLen)
	}
	if onceLen%8 != 0 {
		t.Fatalf("aligned length %d is not a multiple of 8", onceLen)
	}
}

func TestAsciz(t *testing.T) {
	a := newTestAssembler()
	if err := a.Assemble(".data\n.asciz \"hi\"\n"); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	f := a.Finish()
	sec, _ := f.SectionByName(".data")
	want := []byte{'h', 'i', 0}
	if len(sec.Content) != len(want) {
		t.Fatalf("got %d bytes, want %d", len(sec.Content), len(want))
	}
	for i := range want {
		if sec.Content[i] != want[i] {
			t.Fatalf("byte %d: got %x want %x", i, sec.Content[i], want[i])
		}
	}
}

func TestUnknownDirectiveWithoutExtensionErrors(t *testing.T) {
	a := newTestAssembler()
	if err := a.Assemble(".nonexistent\n"); err == nil {
		t.Fatal("expected error for unregistered directive")
	}
}
