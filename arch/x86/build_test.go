package x86

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/lccc-project/lc-binutils/asm"
)

// TestBuildInstructionAssemblesXorEaxEax exercises the real pipeline
// spec.md §2 describes (source text -> lexer -> InstructionBuilder ->
// Encode) end to end, rather than constructing arch.SourceInstruction by
// hand as codec_test.go's scenarios do. Same bytes as TestS5XorEaxEaxReal.
func TestBuildInstructionAssemblesXorEaxEax(t *testing.T) {
	a := asm.NewAssembler(New(), binary.LittleEndian, nil, asm.DefaultDialect)
	a.SetInstructionBuilder(BuildInstruction)
	a.SetMode(Real)

	if err := a.Assemble("xor eax, eax\n"); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	f := a.Finish()
	sec, ok := f.SectionByName(".text")
	if !ok {
		t.Fatal("no .text section")
	}
	want := []byte{0x31, 0xC0}
	if !bytes.Equal(sec.Content, want) {
		t.Fatalf("got % x want % x", sec.Content, want)
	}
}

func TestBuildInstructionAcceptsATTStyleRegisters(t *testing.T) {
	a := asm.NewAssembler(New(), binary.LittleEndian, nil, asm.DefaultDialect)
	a.SetInstructionBuilder(BuildInstruction)
	a.SetMode(Long)

	if err := a.Assemble("push %rax\n"); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	f := a.Finish()
	sec, _ := f.SectionByName(".text")
	want := []byte{0x50}
	if !bytes.Equal(sec.Content, want) {
		t.Fatalf("got % x want % x", sec.Content, want)
	}
}

func TestBuildInstructionRejectsUnknownRegister(t *testing.T) {
	a := asm.NewAssembler(New(), binary.LittleEndian, nil, asm.DefaultDialect)
	a.SetInstructionBuilder(BuildInstruction)
	a.SetMode(Long)

	if err := a.Assemble("push notareg\n"); err == nil {
		t.Fatal("expected an error for an unknown register operand")
	}
}

func TestBuildInstructionRejectsUnknownMnemonic(t *testing.T) {
	a := asm.NewAssembler(New(), binary.LittleEndian, nil, asm.DefaultDialect)
	a.SetInstructionBuilder(BuildInstruction)
	a.SetMode(Long)

	if err := a.Assemble("frobnicate eax, eax\n"); err == nil {
		t.Fatal("expected an error for an unknown mnemonic")
	}
}

func TestBuildInstructionRequiresModeToBeSet(t *testing.T) {
	a := asm.NewAssembler(New(), binary.LittleEndian, nil, asm.DefaultDialect)
	a.SetInstructionBuilder(BuildInstruction)

	if err := a.Assemble("xor eax, eax\n"); err == nil {
		t.Fatal("expected an error when no CPU mode has been set")
	}
}
