package elf

import (
	"bytes"
	"testing"

	"github.com/lccc-project/lc-binutils/binfmt"
	_ "github.com/lccc-project/lc-binutils/arch/x86"
	"github.com/lccc-project/lc-binutils/internal/addr"
)

func TestProbeDistinguishesClassAndEndian(t *testing.T) {
	c32le := New32LE()
	c64be := New64BE()
	buf := []byte{0x7F, 'E', 'L', 'F', EIClass32, EIData2LSB, EIVersionCurrent, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	if !c32le.Probe(buf) {
		t.Fatal("expected elf32-le to probe true")
	}
	if c64be.Probe(buf) {
		t.Fatal("expected elf64-be to probe false")
	}
}

func TestWriteReadRoundTrip64LE(t *testing.T) {
	f := &binfmt.BinaryFile{
		Machine: EMX8664,
		Type:    binfmt.Relocatable,
		Sections: []binfmt.Section{
			{Name: ".text", Align: 16, Type: binfmt.ProgBits, Content: []byte{0x31, 0xC0, 0x90, 0x90}},
			{Name: ".bss", Align: 8, Type: binfmt.NoBits, TailSize: 32},
		},
		Symbols: []binfmt.Symbol{
			{Name: "_start", SectionIndex: 1, Value: 0, HasValue: true, Type: binfmt.SymFunction, Kind: binfmt.Global},
			{Name: "local_helper", SectionIndex: 1, Value: 2, HasValue: true, Type: binfmt.SymFunction, Kind: binfmt.Local},
		},
	}

	c := New64LE()
	out, err := c.Write(f)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !c.Probe(out) {
		t.Fatal("Write produced output that fails to Probe")
	}

	got, err := c.Read(out)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if len(got.Sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(got.Sections))
	}
	if got.Sections[0].Name != ".text" || !bytes.Equal(got.Sections[0].Content, f.Sections[0].Content) {
		t.Fatalf(".text section mismatch: %+v", got.Sections[0])
	}
	if got.Sections[1].Name != ".bss" || got.Sections[1].TailSize != 32 {
		t.Fatalf(".bss section mismatch: %+v", got.Sections[1])
	}
	if len(got.Symbols) != 2 {
		t.Fatalf("got %d symbols, want 2", len(got.Symbols))
	}
	foundStart, foundHelper := false, false
	for _, s := range got.Symbols {
		switch s.Name {
		case "_start":
			foundStart = true
			if s.Kind != binfmt.Global || s.SectionIndex != 1 {
				t.Fatalf("_start mismatch: %+v", s)
			}
		case "local_helper":
			foundHelper = true
			if s.Kind != binfmt.Local || s.Value != 2 {
				t.Fatalf("local_helper mismatch: %+v", s)
			}
		}
	}
	if !foundStart || !foundHelper {
		t.Fatalf("missing symbols in round trip: %+v", got.Symbols)
	}
}

func TestWriteReadRoundTripWithRelocation(t *testing.T) {
	f := &binfmt.BinaryFile{
		Machine: EMX8664,
		Type:    binfmt.Relocatable,
		Sections: []binfmt.Section{
			{
				Name: ".text", Align: 16, Type: binfmt.ProgBits,
				Content: []byte{0xE8, 0, 0, 0, 0},
				Relocs: []addr.Reloc{
					{Offset: 1, SymbolName: "callee", Code: addr.AbstractCode{Kind: addr.RelCode, Width: 32}, Addend: -4, HasAddend: true},
				},
			},
		},
		Symbols: []binfmt.Symbol{
			{Name: "callee", SectionIndex: -1, Kind: binfmt.Global, Type: binfmt.SymFunction},
		},
	}

	c := New64LE()
	out, err := c.Write(f)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := c.Read(out)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got.Sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(got.Sections))
	}
	relocs := got.Sections[0].Relocs
	if len(relocs) != 1 {
		t.Fatalf("got %d relocs, want 1", len(relocs))
	}
	r := relocs[0]
	if r.Offset != 1 || r.SymbolName != "callee" || r.Addend != -4 || !r.HasAddend {
		t.Fatalf("reloc mismatch: %+v", r)
	}
	if r.Code.Kind != addr.RelCode || r.Code.Width != 32 {
		t.Fatalf("reloc code mismatch: %+v", r.Code)
	}
}

// TestWriteRelocationPromotesUnresolvedSymbol covers spec.md §4.3.1 step
// 3's symbol-promotion rule for a relocation whose target was never
// added to f.Symbols at all (unlike TestWriteReadRoundTripWithRelocation,
// which pre-populates "callee" and so never exercises promotion).
func TestWriteRelocationPromotesUnresolvedSymbol(t *testing.T) {
	f := &binfmt.BinaryFile{
		Machine: EMX8664,
		Type:    binfmt.Relocatable,
		Sections: []binfmt.Section{
			{
				Name: ".text", Align: 16, Type: binfmt.ProgBits,
				Content: []byte{0xE8, 0, 0, 0, 0},
				Relocs: []addr.Reloc{
					{Offset: 1, SymbolName: "callee", Code: addr.AbstractCode{Kind: addr.RelCode, Width: 32}, Addend: -4, HasAddend: true},
				},
			},
		},
	}

	c := New64LE()
	out, err := c.Write(f)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := c.Read(out)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	var found *binfmt.Symbol
	for i := range got.Symbols {
		if got.Symbols[i].Name == "callee" {
			found = &got.Symbols[i]
		}
	}
	if found == nil {
		t.Fatalf("expected a promoted %q symbol, got %+v", "callee", got.Symbols)
	}
	if found.Kind != binfmt.Global {
		t.Fatalf("promoted symbol kind = %v, want Global", found.Kind)
	}
	if found.SectionIndex != -1 {
		t.Fatalf("promoted symbol SectionIndex = %d, want -1 (undefined)", found.SectionIndex)
	}

	if len(got.Sections) != 1 || len(got.Sections[0].Relocs) != 1 {
		t.Fatalf("expected 1 section with 1 reloc, got %+v", got.Sections)
	}
	if r := got.Sections[0].Relocs[0]; r.SymbolName != "callee" {
		t.Fatalf("reloc resolved to symbol %q, want %q", r.SymbolName, "callee")
	}
}

// TestWriteReadRoundTripUndefinedSymbolSectionIndex covers spec.md §8
// testable property 4: an undefined symbol's SectionIndex must survive a
// write-then-read round trip as the documented -1 sentinel
// (binfmt/binfmt.go's "SectionIndex int // -1 if undefined"), not a stale
// raw index left over from before derived sections were stripped.
func TestWriteReadRoundTripUndefinedSymbolSectionIndex(t *testing.T) {
	f := &binfmt.BinaryFile{
		Machine: EMX8664,
		Type:    binfmt.Relocatable,
		Sections: []binfmt.Section{
			{Name: ".text", Align: 16, Type: binfmt.ProgBits, Content: []byte{0x90}},
		},
		Symbols: []binfmt.Symbol{
			{Name: "extern_fn", SectionIndex: -1, HasValue: false, Kind: binfmt.Global, Type: binfmt.SymFunction},
		},
	}

	c := New64LE()
	out, err := c.Write(f)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := c.Read(out)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	var found *binfmt.Symbol
	for i := range got.Symbols {
		if got.Symbols[i].Name == "extern_fn" {
			found = &got.Symbols[i]
		}
	}
	if found == nil {
		t.Fatalf("expected %q to survive round trip, got %+v", "extern_fn", got.Symbols)
	}
	if found.SectionIndex != -1 {
		t.Fatalf("undefined symbol SectionIndex = %d, want -1", found.SectionIndex)
	}
	if found.HasValue {
		t.Fatalf("undefined symbol HasValue = true, want false")
	}
}

func TestIdentifyPicksELF64LE(t *testing.T) {
	f := &binfmt.BinaryFile{Machine: EMX8664, Type: binfmt.Relocatable}
	out, err := New64LE().Write(f)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	codec, ok := binfmt.Identify(out)
	if !ok {
		t.Fatal("Identify failed to recognize ELF64LE output")
	}
	if codec.Name() != "elf64-le" {
		t.Fatalf("Identify picked %q, want elf64-le", codec.Name())
	}
}
