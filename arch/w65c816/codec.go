package w65c816

import (
	"fmt"

	"github.com/lccc-project/lc-binutils/arch"
	"github.com/lccc-project/lc-binutils/internal/addr"
)

// Opcode is the arch.Opcode wrapper for a bare mnemonic; addressing mode
// lives on the Operand, not here, since one mnemonic reaches several
// opcode bytes depending on how its operand is addressed.
type Opcode string

func (o Opcode) Mnemonic() string { return string(o) }
func (o Opcode) String() string   { return string(o) }

// Codec implements arch.Codec for the 65C816.
type Codec struct {
	howtos *addr.HowtoTable
}

func New() *Codec { return &Codec{howtos: buildHowtoTable()} }

func init() { arch.Register(New()) }

func (c *Codec) Name() string             { return "wc65c816" }
func (c *Codec) Howtos() *addr.HowtoTable { return c.howtos }

func modeOf(insn arch.SourceInstruction) Mode {
	if m, ok := insn.Mode.(Mode); ok {
		return m
	}
	return Mode{}
}

// Encode writes insn to w (spec.md §4.2.4). The synthetic-instruction
// rewrite (synthetic.go's rewrite, spec.md §4.2.4) runs first so a
// register-operand surface mnemonic like `lda %x` reaches the real
// opcode table as `txa`. Separately, immediate-operand mnemonics
// (accSized/idxSized table entries) pick their body width from the
// active Mode rather than from the operand itself: one real mnemonic
// compiles to an 8-bit or 16-bit encoding depending on processor state
// at assembly time.
func (c *Codec) Encode(w addr.InsnWrite, insn arch.SourceInstruction) error {
	mode := modeOf(insn)
	mnemonic, operands, _ := rewrite(insn.Op.Mnemonic(), insn.Operands)

	if len(operands) == 0 {
		entry, ok := lookup(mnemonic, ModeImmediate)
		if !ok || entry.accSized || entry.idxSized {
			return &arch.EncodeError{Arch: c.Name(), Insn: mnemonic, Why: "no operand-less form"}
		}
		return w.WriteBytes([]byte{entry.byte})
	}

	if len(operands) != 1 {
		return &arch.EncodeError{Arch: c.Name(), Insn: mnemonic, Why: "expected exactly one operand"}
	}
	op, ok := operands[0].(Operand)
	if !ok {
		return &arch.EncodeError{Arch: c.Name(), Insn: mnemonic, Why: "operand is not a w65c816.Operand"}
	}
	entry, ok := lookup(mnemonic, op.Mode)
	if !ok {
		return &arch.EncodeError{Arch: c.Name(), Insn: mnemonic, Why: "no variant for this addressing mode"}
	}
	if err := w.WriteBytes([]byte{entry.byte}); err != nil {
		return err
	}

	bits, err := bodyWidth(entry, op.Mode, mode)
	if err != nil {
		return &arch.EncodeError{Arch: c.Name(), Insn: mnemonic, Why: err.Error()}
	}
	return w.WriteAddr(bits, op.Value, pcRelative(op.Mode))
}

func bodyWidth(entry opcodeEntry, addrMode AddrMode, mode Mode) (int, error) {
	switch {
	case entry.fixedBits != 0:
		return entry.fixedBits, nil
	case entry.accSized:
		return mode.AccBits(), nil
	case entry.idxSized:
		return mode.IndexBits(), nil
	default:
		return operandWidth(addrMode, 0)
	}
}

// reverseTable maps an opcode byte back to its (mnemonic, mode, entry),
// built once from table.
var reverseTable = func() map[byte]struct {
	mnemonic string
	mode     AddrMode
	entry    opcodeEntry
} {
	m := make(map[byte]struct {
		mnemonic string
		mode     AddrMode
		entry    opcodeEntry
	}, len(table))
	for k, v := range table {
		m[v.byte] = struct {
			mnemonic string
			mode     AddrMode
			entry    opcodeEntry
		}{mnemonic: k.mnemonic, mode: k.mode, entry: v}
	}
	return m
}()

// Decode reads one instruction from r, assuming Protected-equivalent
// native mode (M=X=0); callers that track processor state across a
// disassembly pass should use DecodeInMode.
func (c *Codec) Decode(r addr.InsnRead) (arch.SourceInstruction, error) {
	return c.DecodeInMode(r, Mode{})
}

func (c *Codec) DecodeInMode(r addr.InsnRead, mode Mode) (arch.SourceInstruction, error) {
	var b [1]byte
	if err := r.ReadBytes(b[:]); err != nil {
		return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: err.Error()}
	}
	row, ok := reverseTable[b[0]]
	if !ok {
		return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: fmt.Sprintf("unknown opcode byte %#x", b[0])}
	}
	if !row.entry.accSized && !row.entry.idxSized && row.mode == ModeImmediate && row.mnemonic == "nop" {
		return arch.SourceInstruction{Op: Opcode(row.mnemonic)}, nil
	}
	bits, err := bodyWidth(row.entry, row.mode, mode)
	if err != nil {
		return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: err.Error()}
	}
	val, err := r.ReadAddr(bits, pcRelative(row.mode))
	if err != nil {
		return arch.SourceInstruction{}, &arch.DecodeError{Arch: c.Name(), Why: err.Error()}
	}
	return arch.SourceInstruction{
		Op:       Opcode(row.mnemonic),
		Operands: []any{Operand{Mode: row.mode, Value: val}},
	}, nil
}
