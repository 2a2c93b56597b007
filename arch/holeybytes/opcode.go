package holeybytes

// Opcode is one HoleyBytes mnemonic: a fixed byte plus the operand Shape
// that byte always carries (original holeybytes/hbbytecode.rs
// instructions.in table, byte-for-byte per-opcode, no mode bits).
type Opcode struct {
	mnemonic string
	byte     byte
	shape    Shape
}

func (o Opcode) Mnemonic() string { return o.mnemonic }
func (o Opcode) String() string   { return o.mnemonic }

// table is a representative HoleyBytes opcode subset spanning every
// Shape this package implements (original instructions.in lists the full
// ~100-entry set; scope decision, see DESIGN.md).
var table = []Opcode{
	{mnemonic: "nop", byte: 0x00, shape: ShapeN},
	{mnemonic: "add", byte: 0x10, shape: ShapeRRR},
	{mnemonic: "sub", byte: 0x11, shape: ShapeRRR},
	{mnemonic: "cp", byte: 0x20, shape: ShapeRR},
	{mnemonic: "li8", byte: 0x30, shape: ShapeRRB},
	{mnemonic: "li16", byte: 0x31, shape: ShapeRRH},
	{mnemonic: "li32", byte: 0x32, shape: ShapeRRW},
	{mnemonic: "li64", byte: 0x33, shape: ShapeRD},
	{mnemonic: "addi64", byte: 0x34, shape: ShapeRRD},
	{mnemonic: "ld", byte: 0x40, shape: ShapeRRA},
	{mnemonic: "jal", byte: 0x50, shape: ShapeRRO},
	{mnemonic: "jmp", byte: 0x51, shape: ShapeO},
	{mnemonic: "jeq", byte: 0x52, shape: ShapeRRP},
	{mnemonic: "call", byte: 0x60, shape: ShapeA},
}

func lookupByMnemonic(m string) (Opcode, bool) {
	for _, o := range table {
		if o.mnemonic == m {
			return o, true
		}
	}
	return Opcode{}, false
}

// Lookup finds an Opcode by its assembler-surface mnemonic, for callers
// outside this package (the assembler front end, tests).
func Lookup(mnemonic string) (Opcode, bool) { return lookupByMnemonic(mnemonic) }

func lookupByByte(b byte) (Opcode, bool) {
	for _, o := range table {
		if o.byte == b {
			return o, true
		}
	}
	return Opcode{}, false
}
