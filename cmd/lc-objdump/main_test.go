package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lccc-project/lc-binutils/binfmt"
	"github.com/lccc-project/lc-binutils/binfmt/elf"
)

func writeTestObject(t *testing.T, path string) {
	t.Helper()
	bf := &binfmt.BinaryFile{
		Type:    binfmt.Relocatable,
		Machine: elf.EMX8664,
		Sections: []binfmt.Section{
			{Name: ".text", Align: 1, Type: binfmt.ProgBits, Content: []byte{0x90, 0x90}},
		},
		Symbols: []binfmt.Symbol{
			{Name: "foo", SectionIndex: 1, Value: 0, HasValue: true, Kind: binfmt.Global, Type: binfmt.SymFunction},
		},
	}
	data, err := elf.New64LE().Write(bf)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRunDumpsObjectFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "a.o")
	writeTestObject(t, in)

	code := run([]string{in})
	if code != 0 {
		t.Fatalf("run returned %d, want 0", code)
	}
}

func TestRunWithExplicitInputFmt(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "a.o")
	writeTestObject(t, in)

	code := run([]string{"--input-fmt", "elf64-le", in})
	if code != 0 {
		t.Fatalf("run returned %d, want 0", code)
	}
}

func TestRunRejectsUnknownInputFmt(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "a.o")
	writeTestObject(t, in)

	code := run([]string{"--input-fmt", "not-a-format", in})
	if code != 1 {
		t.Fatalf("run returned %d, want 1", code)
	}
}

func TestRunRejectsNoInputFiles(t *testing.T) {
	code := run([]string{})
	if code != 1 {
		t.Fatalf("run returned %d, want 1", code)
	}
}

func TestRunRejectsNonexistentInput(t *testing.T) {
	code := run([]string{"/nonexistent/path.o"})
	if code != 1 {
		t.Fatalf("run returned %d, want 1", code)
	}
}

func TestRunVersionExitsZero(t *testing.T) {
	code := run([]string{"--version"})
	if code != 0 {
		t.Fatalf("--version should exit 0, got %d", code)
	}
}

func TestDumpRejectsUnrecognizedFormat(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "garbage.o")
	if err := os.WriteFile(in, []byte("not an object file"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := dump(in, ""); err == nil {
		t.Fatal("expected an error for unrecognized format")
	}
}
