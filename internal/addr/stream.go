package addr

import (
	"encoding/binary"
	"fmt"
)

// InsnWrite is the capability set every encoder writes through (spec.md
// §4.1). It tracks the current stream offset so callers can compute
// PC-relative relocation sites without threading a separate counter.
type InsnWrite interface {
	// WriteBytes appends raw bytes to the stream.
	WriteBytes(b []byte) error
	// WriteZeroes appends n zero bytes.
	WriteZeroes(n int) error
	// WriteAddr writes an Address occupying sizeBits. Abs addresses are
	// written as literal little-endian bytes (or big-endian, chosen by
	// the target passed at construction). Disp and Symbol addresses
	// MUST also register a relocation — the implementation does so
	// before returning, the caller never has to call WriteReloc itself
	// for the common case.
	WriteAddr(sizeBits int, a Address, pcRelative bool) error
	// WriteReloc registers a relocation at the current offset without
	// writing any bytes for it (bytes, if any, must be written
	// separately by the caller, e.g. zero placeholder bytes).
	WriteReloc(r Reloc) error
	// Offset is the current stream position in bytes from the start of
	// the section this writer is attached to.
	Offset() uint64
}

// InsnRead is the decoder-side counterpart of InsnWrite.
type InsnRead interface {
	// ReadBytes reads exactly len(b) bytes into b.
	ReadBytes(b []byte) error
	// ReadAddr reads sizeBits/8 bytes and returns them as an absolute
	// Address; callers that know the value may be symbolic consult the
	// reader's relocation records (ReadRelocAt) for the decode-time offset.
	ReadAddr(sizeBits int, pcRelative bool) (Address, error)
	// ReadRelocAt reports a relocation previously recorded (by a prior
	// assembly pass, or present in the object file being disassembled)
	// whose offset equals the given stream offset, if any.
	ReadRelocAt(offset uint64) (Reloc, bool)
	// Offset is the current stream position in bytes.
	Offset() uint64
}

// ByteOrder selects the endianness WriteAddr/ReadAddr use for literal Abs
// values. Immediates, addresses and vector bodies on Clever are always
// little-endian (spec.md §6.3); ELF targets vary by configured
// endianness, so Writer/Reader are constructed with an explicit order
// rather than assuming one.
type ByteOrder = binary.ByteOrder

// Writer is a concrete InsnWrite backed by an in-memory growable buffer,
// the shape every architecture encoder in this module uses: buffer the
// whole instruction stream, flush once (spec.md §5 — archive and ELF
// writers never seek backwards on the output sink).
type Writer struct {
	buf    []byte
	order  ByteOrder
	relocs []Reloc
}

// NewWriter constructs a Writer using the given byte order for literal
// Abs values written via WriteAddr.
func NewWriter(order ByteOrder) *Writer {
	return &Writer{order: order}
}

func (w *Writer) WriteBytes(b []byte) error {
	w.buf = append(w.buf, b...)
	return nil
}

func (w *Writer) WriteZeroes(n int) error {
	if n < 0 {
		return fmt.Errorf("addr: negative zero-fill length %d", n)
	}
	for i := 0; i < n; i++ {
		w.buf = append(w.buf, 0)
	}
	return nil
}

func (w *Writer) WriteReloc(r Reloc) error {
	w.relocs = append(w.relocs, r)
	return nil
}

func (w *Writer) Offset() uint64 { return uint64(len(w.buf)) }

// WriteAddr implements InsnWrite. Disp and Symbol addresses register a
// relocation at the current offset; Abs addresses are always written as
// literal bytes, and pcRelative is ignored for them (callers resolve
// PC-relative literals to Disp first).
func (w *Writer) WriteAddr(sizeBits int, a Address, pcRelative bool) error {
	if sizeBits%8 != 0 || sizeBits <= 0 || sizeBits > 128 {
		return fmt.Errorf("addr: invalid address width %d bits", sizeBits)
	}
	n := sizeBits / 8
	switch a.Kind() {
	case KindAbs:
		buf := make([]byte, n)
		writeUint(w.order, buf, a.AbsValue(), a.AbsHigh())
		return w.WriteBytes(buf)
	case KindDisp:
		code := AbstractCode{Kind: RelCode, Width: sizeBits}
		if !pcRelative {
			code.Kind = AbsCode
		}
		if err := w.WriteReloc(Reloc{Offset: w.Offset(), Code: code, Addend: a.DispValue(), HasAddend: true}); err != nil {
			return err
		}
		// The displacement is also written as literal bytes, sign-extended.
		buf := make([]byte, n)
		hi := uint64(0)
		if a.DispValue() < 0 {
			hi = ^uint64(0)
		}
		writeUint(w.order, buf, uint64(a.DispValue()), hi)
		return w.WriteBytes(buf)
	case KindSymbol:
		kind := AbsCode
		if pcRelative {
			kind = RelCode
		}
		if err := w.WriteReloc(Reloc{
			Offset:     w.Offset(),
			SymbolName: a.SymbolName(),
			Code:       AbstractCode{Kind: kind, Width: sizeBits},
			Addend:     a.Addend(),
			HasAddend:  true,
		}); err != nil {
			return err
		}
		return w.WriteZeroes(n)
	default:
		return fmt.Errorf("addr: invalid address kind %v", a.Kind())
	}
}

// Bytes returns the accumulated byte stream.
func (w *Writer) Bytes() []byte { return w.buf }

// Relocs returns the relocations registered so far, in offset order.
func (w *Writer) Relocs() []Reloc { return w.relocs }

func writeUint(order ByteOrder, dst []byte, lo, hi uint64) {
	n := len(dst)
	if n <= 8 {
		var tmp [8]byte
		order.PutUint64(tmp[:], lo)
		if order == ByteOrder(binary.BigEndian) {
			copy(dst, tmp[8-n:])
		} else {
			copy(dst, tmp[:n])
		}
		return
	}
	// Wide (>64-bit) values: only Clever's 128-bit vector immediates
	// reach here. Write low 8 bytes then high bytes in the same order.
	var lotmp, hitmp [8]byte
	order.PutUint64(lotmp[:], lo)
	order.PutUint64(hitmp[:], hi)
	if order == ByteOrder(binary.BigEndian) {
		copy(dst[:n-8], hitmp[:])
		copy(dst[n-8:], lotmp[:])
	} else {
		copy(dst[:8], lotmp[:])
		copy(dst[8:], hitmp[:n-8])
	}
}

// Reader is a concrete InsnRead backed by an in-memory byte slice plus a
// cursor, the decode-side counterpart of Writer.
type Reader struct {
	buf    []byte
	pos    int
	order  ByteOrder
	relocs map[uint64]Reloc
}

// NewReader constructs a Reader over buf. relocs, if non-nil, lets the
// decoder recognize bytes at a given offset as symbolic (used when
// disassembling a relocatable object file rather than a bare instruction
// stream).
func NewReader(buf []byte, order ByteOrder, relocs map[uint64]Reloc) *Reader {
	return &Reader{buf: buf, order: order, relocs: relocs}
}

func (r *Reader) Offset() uint64 { return uint64(r.pos) }

func (r *Reader) ReadBytes(b []byte) error {
	if r.pos+len(b) > len(r.buf) {
		return fmt.Errorf("addr: read past end of stream at offset %d", r.pos)
	}
	copy(b, r.buf[r.pos:r.pos+len(b)])
	r.pos += len(b)
	return nil
}

func (r *Reader) ReadRelocAt(offset uint64) (Reloc, bool) {
	if r.relocs == nil {
		return Reloc{}, false
	}
	rel, ok := r.relocs[offset]
	return rel, ok
}

func (r *Reader) ReadAddr(sizeBits int, pcRelative bool) (Address, error) {
	if sizeBits%8 != 0 || sizeBits <= 0 || sizeBits > 128 {
		return Address{}, fmt.Errorf("addr: invalid address width %d bits", sizeBits)
	}
	if rel, ok := r.ReadRelocAt(r.Offset()); ok && rel.SymbolName != "" {
		n := sizeBits / 8
		if err := r.ReadBytes(make([]byte, n)); err != nil {
			return Address{}, err
		}
		return Symbol(rel.SymbolName, rel.Addend), nil
	}
	n := sizeBits / 8
	buf := make([]byte, n)
	if err := r.ReadBytes(buf); err != nil {
		return Address{}, err
	}
	lo, hi := readUint(r.order, buf)
	if pcRelative {
		return Disp(int64(lo)), nil
	}
	if hi != 0 {
		return AbsWide(lo, hi), nil
	}
	return Abs(lo), nil
}

func readUint(order ByteOrder, src []byte) (lo, hi uint64) {
	n := len(src)
	if n <= 8 {
		var tmp [8]byte
		if order == ByteOrder(binary.BigEndian) {
			copy(tmp[8-n:], src)
		} else {
			copy(tmp[:n], src)
		}
		return order.Uint64(tmp[:]), 0
	}
	var lotmp, hitmp [8]byte
	if order == ByteOrder(binary.BigEndian) {
		copy(hitmp[:], src[:n-8])
		copy(lotmp[:], src[n-8:])
	} else {
		copy(lotmp[:], src[:8])
		copy(hitmp[:n-8], src[8:])
	}
	return order.Uint64(lotmp[:]), order.Uint64(hitmp[:])
}
