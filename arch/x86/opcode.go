package x86

// OperandForm is the addressing shape an opcode-table entry expects
// (spec.md §4.2.2).
type OperandForm int

const (
	// FormRR: ModR/M reg, ModR/M reg/mem (two operands). Only the
	// register-register form is encoded; memory operands are rejected.
	FormRR OperandForm = iota
	// FormPushPop: a single register operand, encoded via opcode+reg
	// (no ModR/M byte); used by push/pop.
	FormPushPop
)

// Opcode is one x86 mnemonic's table entry: its base opcode byte, the
// operand form it expects, and the size-class governing its operand-size
// defaults across CPU modes (spec.md §4.2.2).
type Opcode struct {
	mnemonic string
	opcode   byte
	form     OperandForm
	class    sizeClass
	modes    ModeSet
}

func (o Opcode) Mnemonic() string { return o.mnemonic }
func (o Opcode) String() string   { return o.mnemonic }

// table is the representative x86 opcode set this package implements:
// enough of spec.md §4.2.2 to satisfy scenarios S5-S9 (xor reg,reg and
// push reg across Real/Protected/Long modes) without the several-hundred
// entry table of the original arch-ops/src/x86.rs (scope decision, see
// DESIGN.md).
var table = []Opcode{
	{mnemonic: "xor", opcode: 0x31, form: FormRR, class: aluClass, modes: AllModes},
	{mnemonic: "add", opcode: 0x01, form: FormRR, class: aluClass, modes: AllModes},
	{mnemonic: "sub", opcode: 0x29, form: FormRR, class: aluClass, modes: AllModes},
	{mnemonic: "and", opcode: 0x21, form: FormRR, class: aluClass, modes: AllModes},
	{mnemonic: "or", opcode: 0x09, form: FormRR, class: aluClass, modes: AllModes},
	{mnemonic: "mov", opcode: 0x89, form: FormRR, class: aluClass, modes: AllModes},
	{mnemonic: "push", opcode: 0x50, form: FormPushPop, class: stackClass, modes: AllModes},
	{mnemonic: "pop", opcode: 0x58, form: FormPushPop, class: stackClass, modes: AllModes},
}

func lookupByMnemonic(mnemonic string) (Opcode, bool) {
	for _, o := range table {
		if o.mnemonic == mnemonic {
			return o, true
		}
	}
	return Opcode{}, false
}

func lookupByOpcodeByte(opcode byte, form OperandForm) (Opcode, bool) {
	for _, o := range table {
		if o.opcode == opcode && o.form == form {
			return o, true
		}
	}
	return Opcode{}, false
}
