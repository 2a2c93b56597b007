package ar

import (
	"bytes"
	"testing"

	"github.com/lccc-project/lc-binutils/binfmt"
	"github.com/lccc-project/lc-binutils/binfmt/elf"
)

func TestS10LongNameMember(t *testing.T) {
	arc := &Archive{Members: []Member{
		{Name: "a-very-long-name.o", Data: []byte{0x00, 0x01, 0x02, 0x03}},
	}}
	out := WriteArchive(arc)

	want := []byte(Magic)
	// Long-name member: header name "//", size 19, payload
	// "a-very-long-name.o\0" (odd, so one 0x0A pad byte follows).
	longNameHeader := make([]byte, headerSize)
	for i := range longNameHeader {
		longNameHeader[i] = ' '
	}
	copy(longNameHeader[0:16], "//")
	copy(longNameHeader[16:28], "0")
	copy(longNameHeader[28:34], "0")
	copy(longNameHeader[34:40], "0")
	copy(longNameHeader[40:48], "0")
	copy(longNameHeader[48:58], "19")
	longNameHeader[58], longNameHeader[59] = 0x60, 0x0A
	want = append(want, longNameHeader...)
	want = append(want, []byte("a-very-long-name.o\x00")...)
	want = append(want, 0x0A)

	memberHeader := make([]byte, headerSize)
	for i := range memberHeader {
		memberHeader[i] = ' '
	}
	copy(memberHeader[0:16], "/0")
	copy(memberHeader[16:28], "0")
	copy(memberHeader[28:34], "0")
	copy(memberHeader[34:40], "0")
	copy(memberHeader[40:48], "0")
	copy(memberHeader[48:58], "4")
	memberHeader[58], memberHeader[59] = 0x60, 0x0A
	want = append(want, memberHeader...)
	want = append(want, 0x00, 0x01, 0x02, 0x03)

	if !bytes.Equal(out, want) {
		t.Fatalf("got % x\nwant % x", out, want)
	}
}

func TestReadWriteRoundTripShortAndLongNames(t *testing.T) {
	arc := &Archive{Members: []Member{
		{Name: "short.o", Data: []byte{1, 2, 3}},
		{Name: "a-very-long-name-that-overflows.o", Data: []byte{4, 5, 6, 7, 8}},
		{Name: "b.o", Data: []byte{}},
	}}
	out := WriteArchive(arc)

	got, err := ReadArchive(out)
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	if len(got.Members) != len(arc.Members) {
		t.Fatalf("got %d members, want %d", len(got.Members), len(arc.Members))
	}
	for i, m := range arc.Members {
		g := got.Members[i]
		if g.Name != m.Name {
			t.Fatalf("member %d: got name %q want %q", i, g.Name, m.Name)
		}
		if !bytes.Equal(g.Data, m.Data) {
			t.Fatalf("member %d (%s): got data % x want % x", i, m.Name, g.Data, m.Data)
		}
	}
}

func TestReadArchiveRejectsMissingMagic(t *testing.T) {
	_, err := ReadArchive([]byte("not an archive"))
	if err == nil {
		t.Fatal("expected error for missing magic")
	}
}

func objectMember(t *testing.T, name string, symbols []binfmt.Symbol) Member {
	t.Helper()
	bf := &binfmt.BinaryFile{
		Type:    binfmt.Relocatable,
		Machine: elf.EMX8664,
		Sections: []binfmt.Section{
			{Name: ".text", Align: 1, Type: binfmt.ProgBits, Content: []byte{0x90}},
		},
		Symbols: symbols,
	}
	data, err := elf.New64LE().Write(bf)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	return Member{Name: name, Data: data}
}

func TestRanlibBuildsSymbolTable(t *testing.T) {
	arc := &Archive{Members: []Member{
		objectMember(t, "a.o", []binfmt.Symbol{
			{Name: "foo", SectionIndex: 1, Value: 0, HasValue: true, Kind: binfmt.Global, Type: binfmt.SymFunction},
			{Name: "local", SectionIndex: 1, Value: 0, HasValue: true, Kind: binfmt.Local, Type: binfmt.SymFunction},
		}),
		objectMember(t, "b.o", []binfmt.Symbol{
			{Name: "bar", SectionIndex: 1, Value: 0, HasValue: true, Kind: binfmt.Weak, Type: binfmt.SymFunction},
		}),
	}}

	entries := BuildSymbolTable(arc)
	if len(entries) != 2 {
		t.Fatalf("got %d symbol-table entries, want 2: %+v", len(entries), entries)
	}
	if entries[0].Name != "foo" || entries[0].MemberIndex != 0 {
		t.Fatalf("entry 0 = %+v, want foo@0", entries[0])
	}
	if entries[1].Name != "bar" || entries[1].MemberIndex != 1 {
		t.Fatalf("entry 1 = %+v, want bar@1", entries[1])
	}
}

func TestRanlibIsIdempotent(t *testing.T) {
	arc := &Archive{Members: []Member{
		objectMember(t, "a.o", []binfmt.Symbol{
			{Name: "foo", SectionIndex: 1, Value: 0, HasValue: true, Kind: binfmt.Global, Type: binfmt.SymFunction},
		}),
	}}
	initial := WriteArchive(arc)

	once, err := Ranlib(initial)
	if err != nil {
		t.Fatalf("Ranlib: %v", err)
	}
	twice, err := Ranlib(once)
	if err != nil {
		t.Fatalf("Ranlib: %v", err)
	}
	if !bytes.Equal(once, twice) {
		t.Fatalf("ranlib is not idempotent:\nonce:  % x\ntwice: % x", once, twice)
	}

	got, err := ReadArchive(once)
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	if len(got.Members) != 1 || got.Members[0].Name != "a.o" {
		t.Fatalf("ranlib image lost its member: %+v", got.Members)
	}
}

func TestReadArchiveRejectsNonDecimalSize(t *testing.T) {
	hdr := make([]byte, headerSize)
	for i := range hdr {
		hdr[i] = ' '
	}
	copy(hdr[0:16], "bad.o")
	copy(hdr[48:58], "notanum")
	hdr[58], hdr[59] = 0x60, 0x0A
	buf := append([]byte(Magic), hdr...)
	if _, err := ReadArchive(buf); err == nil {
		t.Fatal("expected error for non-decimal size field")
	}
}
