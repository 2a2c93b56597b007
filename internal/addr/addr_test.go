package addr

import (
	"encoding/binary"
	"testing"
)

// TestWriteAddrAbsRoundTrip exercises spec.md §8 testable property 3: for
// every Address::Abs(n) fed to WriteAddr(size, _, false) and read back, the
// low size/8 bytes decode as n mod 2^size little-endian.
func TestWriteAddrAbsRoundTrip(t *testing.T) {
	cases := []struct {
		name     string
		sizeBits int
		value    uint64
	}{
		{"byte", 8, 0xAB},
		{"word", 16, 0x1337},
		{"dword", 32, 0xDEADBEEF},
		{"qword", 64, 0x0123456789ABCDEF},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := NewWriter(binary.LittleEndian)
			if err := w.WriteAddr(c.sizeBits, Abs(c.value), false); err != nil {
				t.Fatalf("WriteAddr: %v", err)
			}
			r := NewReader(w.Bytes(), binary.LittleEndian, nil)
			got, err := r.ReadAddr(c.sizeBits, false)
			if err != nil {
				t.Fatalf("ReadAddr: %v", err)
			}
			mask := uint64(1)<<uint(c.sizeBits) - 1
			if c.sizeBits == 64 {
				mask = ^uint64(0)
			}
			if got.AbsValue() != c.value&mask {
				t.Fatalf("round trip mismatch: got %#x want %#x", got.AbsValue(), c.value&mask)
			}
		})
	}
}

func TestWriteAddrSymbolRegistersReloc(t *testing.T) {
	w := NewWriter(binary.LittleEndian)
	if err := w.WriteAddr(32, Symbol("foo", 4), true); err != nil {
		t.Fatalf("WriteAddr: %v", err)
	}
	relocs := w.Relocs()
	if len(relocs) != 1 {
		t.Fatalf("expected exactly one relocation, got %d", len(relocs))
	}
	if relocs[0].SymbolName != "foo" || relocs[0].Addend != 4 {
		t.Fatalf("unexpected relocation: %+v", relocs[0])
	}
	if relocs[0].Code.Kind != RelCode || relocs[0].Code.Width != 32 {
		t.Fatalf("unexpected relocation code: %v", relocs[0].Code)
	}
	if len(w.Bytes()) != 4 {
		t.Fatalf("expected 4 placeholder bytes, got %d", len(w.Bytes()))
	}
}

func TestHowtoTableIsTwoWayInverse(t *testing.T) {
	h := fakeHowto{relnum: 2, name: "R_FAKE_ABS32", size: 32}
	code := AbstractCode{Kind: AbsCode, Width: 32}
	table := NewHowtoTable([]Howto{h}, map[Howto]AbstractCode{h: code})

	got, ok := table.FromRelocCode(code)
	if !ok || got.Relnum() != h.Relnum() {
		t.Fatalf("FromRelocCode did not find howto for %v", code)
	}
	back, ok := table.ByRelnum(got.Relnum())
	if !ok || back.Relnum() != h.Relnum() {
		t.Fatalf("ByRelnum did not invert FromRelocCode")
	}
}

type fakeHowto struct {
	relnum uint32
	name   string
	size   int
}

func (f fakeHowto) Relnum() uint32     { return f.relnum }
func (f fakeHowto) Name() string       { return f.name }
func (f fakeHowto) SizeBits() int      { return f.size }
func (f fakeHowto) PCRelative() bool   { return false }
func (f fakeHowto) IsRelax() bool      { return false }
func (f fakeHowto) Apply(symbolValue, relocSiteAddr uint64, destination []byte) (ApplyResult, error) {
	binary.LittleEndian.PutUint32(destination, uint32(symbolValue))
	return Applied, nil
}
