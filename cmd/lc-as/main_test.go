package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunAssemblesDirectiveOnlySource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.s")
	if err := os.WriteFile(src, []byte(".data\nfoo:\n.long 7\n.global foo\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out.o")

	code := run([]string{"--target", "x86", "-o", out, src})
	if code != 0 {
		t.Fatalf("run returned %d, want 0", code)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("expected output file: %v", err)
	}
}

func TestRunAssemblesRealInstruction(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.s")
	if err := os.WriteFile(src, []byte(".text\nxor eax, eax\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out.o")

	code := run([]string{"--target", "x86", "-o", out, src})
	if code != 0 {
		t.Fatalf("run returned %d, want 0", code)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("expected output file: %v", err)
	}
}

func TestRunRejectsUnknownTarget(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.s")
	os.WriteFile(src, []byte(".text\n"), 0o644)

	code := run([]string{"--target", "not-a-real-arch", src})
	if code != 1 {
		t.Fatalf("run returned %d, want 1", code)
	}
}

func TestRunRejectsNoInputFiles(t *testing.T) {
	code := run([]string{"--target", "x86"})
	if code != 1 {
		t.Fatalf("run returned %d, want 1", code)
	}
}

func TestRunVersionExitsZero(t *testing.T) {
	if code := run([]string{"--version"}); code != 0 {
		t.Fatalf("run returned %d, want 0", code)
	}
}
