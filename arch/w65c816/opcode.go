package w65c816

// opcodeKey identifies one table entry: a mnemonic in one specific
// addressing mode. 65C816 opcodes are a flat 256-entry byte space where
// the addressing mode is baked into the opcode byte itself (no ModR/M-
// style separate field), so the table is keyed on the pair directly.
type opcodeKey struct {
	mnemonic string
	mode     AddrMode
}

// opcodeEntry is one table row: its mnemonic variant and encoded byte.
// accSized/idxSized mark instructions whose operand body width tracks the
// processor's M or X bit (an unrelated mode-dependent sizing mechanism,
// not the spec.md §4.2.4 synthetic-instruction rewrite implemented in
// synthetic.go). fixedBits overrides operandWidth for entries whose body
// is a constant width regardless of addressing mode (e.g. BRK's 8-bit
// signature byte, nominally an "immediate" but not M-sized).
type opcodeEntry struct {
	byte      byte
	accSized  bool
	idxSized  bool
	fixedBits int
}

// table is a representative 65C816 opcode subset (original
// arch-ops/src/wc65c816.rs names the full mnemonic set; this package
// implements enough to exercise every addressing mode and both
// mode-dependent operand-size families — scope decision, see DESIGN.md).
var table = map[opcodeKey]opcodeEntry{
	{"nop", ModeImmediate}: {byte: 0xEA}, // bare, no operand body; see Codec.Encode

	{"lda", ModeImmediate}:    {byte: 0xA9, accSized: true},
	{"lda", ModeDirectPage}:   {byte: 0xA5},
	{"lda", ModeAbsolute}:     {byte: 0xAD},
	{"lda", ModeAbsoluteLong}: {byte: 0xAF},

	{"ldx", ModeImmediate}:  {byte: 0xA2, idxSized: true},
	{"ldx", ModeDirectPage}: {byte: 0xA6},
	{"ldx", ModeAbsolute}:   {byte: 0xAE},

	{"sta", ModeDirectPage}:   {byte: 0x85},
	{"sta", ModeAbsolute}:     {byte: 0x8D},
	{"sta", ModeAbsoluteLong}: {byte: 0x8F},

	{"jmp", ModeAbsolute}:     {byte: 0x4C},
	{"jmp", ModeAbsoluteLong}: {byte: 0x5C},

	{"bra", ModePCRelShort}: {byte: 0x80},
	{"brl", ModePCRelLong}:  {byte: 0x82},

	// BRK's one-byte signature operand (spec.md §4.2.4's "Brk without an
	// operand becomes Brk 0" rewrite target).
	{"brk", ModeImmediate}: {byte: 0x00, fixedBits: 8},

	// Real transfer/push/pull mnemonics that the synthetic rewrite table
	// (synthetic.go) resolves register-operand forms of Lda/Ldx/Ldy/Sta/
	// Stx/Sty/Tr/Ph/Pl into. All are bare, no-operand opcodes (original
	// arch-ops/src/w65.rs w65_synthetic_instructions!).
	{"txa", ModeImmediate}: {byte: 0x8A},
	{"tya", ModeImmediate}: {byte: 0x98},
	{"tsa", ModeImmediate}: {byte: 0x3B}, // TSC
	{"tda", ModeImmediate}: {byte: 0x7B}, // TDC
	{"tax", ModeImmediate}: {byte: 0xAA},
	{"tyx", ModeImmediate}: {byte: 0xBB},
	{"tsx", ModeImmediate}: {byte: 0xBA},
	{"tay", ModeImmediate}: {byte: 0xA8},
	{"txy", ModeImmediate}: {byte: 0x9B},
	{"tas", ModeImmediate}: {byte: 0x1B}, // TCS
	{"tad", ModeImmediate}: {byte: 0x5B}, // TCD
	{"txs", ModeImmediate}: {byte: 0x9A},

	{"pha", ModeImmediate}: {byte: 0x48},
	{"phx", ModeImmediate}: {byte: 0xDA},
	{"phy", ModeImmediate}: {byte: 0x5A},
	{"phd", ModeImmediate}: {byte: 0x0B},
	{"phk", ModeImmediate}: {byte: 0x4B},
	{"php", ModeImmediate}: {byte: 0x08},
	{"pla", ModeImmediate}: {byte: 0x68},
	{"plx", ModeImmediate}: {byte: 0xFA},
	{"ply", ModeImmediate}: {byte: 0x7A},
	{"pld", ModeImmediate}: {byte: 0x2B},
	{"plp", ModeImmediate}: {byte: 0x28},
}

func lookup(mnemonic string, mode AddrMode) (opcodeEntry, bool) {
	e, ok := table[opcodeKey{mnemonic, mode}]
	return e, ok
}
