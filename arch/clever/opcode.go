package clever

import "fmt"

// OperandKind is the structured operand shape an opcode declares (spec.md
// §4.2.1): how many control words follow, or whether the operand is
// instead folded into the opcode word itself.
type OperandKind int

const (
	// KindNormal(n): n operand control words follow.
	KindNormal OperandKind = iota
	// KindAbsAddr: one absolute address follows, width from the opcode.
	KindAbsAddr
	// KindRelAddr: one PC-relative address follows, width from the opcode.
	KindRelAddr
	// KindInsn: this opcode is a prefix; exactly one non-prefix opcode
	// must follow.
	KindInsn
	// KindBranch: conditional branch; handled by the dedicated branch
	// encoder rather than the generic Normal(n) path.
	KindBranch
)

// Opcode is one Clever mnemonic variant: its numeric id (before the <<4
// shift that folds in h-bits), the operand shape it declares, and for
// KindNormal the number of trailing control words.
type Opcode struct {
	mnemonic  string
	id        uint16 // 12-bit opcode id
	kind      OperandKind
	operands  int  // meaningful for KindNormal
	embedGPR  bool // h-bits carry a destination/source GPR number (spec.md §4.2.1 "GPR specialization")
	addrWidth int  // bits; meaningful for KindAbsAddr/KindRelAddr
}

func (o Opcode) Mnemonic() string { return o.mnemonic }
func (o Opcode) String() string   { return o.mnemonic }

// table is the representative opcode set this package implements: enough
// of spec.md §4.2.1 to satisfy the round-trip property (testable property
// 1) and the concrete scenarios S1-S4, without the several-hundred-entry
// mnemonic list of the original arch-ops/src/clever.rs (scope decision,
// see DESIGN.md). Entries sharing a mnemonic with different `operands`
// counts are the 2-operand/1-operand GPR-specialized pair spec.md's
// "GPR specialization" rule describes (e.g. Add vs AddRD): the encoder
// in codec.go prefers the embedGPR variant whenever the relevant operand
// is a GPR register 0-15.
var table = []Opcode{
	{mnemonic: "nop", id: 0x010, kind: KindNormal, operands: 0},
	{mnemonic: "nop", id: 0x011, kind: KindNormal, operands: 1},
	{mnemonic: "add", id: 0x020, kind: KindNormal, operands: 2},
	{mnemonic: "add", id: 0x021, kind: KindNormal, operands: 1, embedGPR: true},
	{mnemonic: "sub", id: 0x030, kind: KindNormal, operands: 2},
	{mnemonic: "sub", id: 0x031, kind: KindNormal, operands: 1, embedGPR: true},
	{mnemonic: "and", id: 0x040, kind: KindNormal, operands: 2},
	{mnemonic: "or", id: 0x050, kind: KindNormal, operands: 2},
	{mnemonic: "xor", id: 0x060, kind: KindNormal, operands: 2},
	{mnemonic: "mov", id: 0x070, kind: KindNormal, operands: 2},
	{mnemonic: "call", id: 0x080, kind: KindRelAddr, addrWidth: 32},
	{mnemonic: "ret", id: 0x090, kind: KindNormal, operands: 0},
	{mnemonic: "lock", id: 0x0A0, kind: KindInsn},  // prefix
	{mnemonic: "repbc", id: 0x0B0, kind: KindInsn}, // prefix, block instructions only
}

// branchMnemonics maps a branch mnemonic to its 4-bit condition code
// (spec.md §4.2.1's weight/ss/pc-relative bit layout leaves the condition
// encoding itself architecture-defined; this table is this package's
// concrete, self-consistent choice — see DESIGN.md).
var branchMnemonics = map[string]uint8{
	"jmp": 0,
	"jz":  1,
	"jnz": 2,
	"jc":  3,
	"jnc": 4,
	"js":  5,
	"jns": 6,
	"jo":  7,
	"jno": 8,
}

var branchByCondition = func() map[uint8]string {
	m := make(map[uint8]string, len(branchMnemonics))
	for name, cond := range branchMnemonics {
		m[cond] = name
	}
	return m
}()

func lookupByMnemonic(mnemonic string) (Opcode, bool) {
	for _, o := range table {
		if o.mnemonic == mnemonic {
			return o, true
		}
	}
	if _, ok := branchMnemonics[mnemonic]; ok {
		return Opcode{mnemonic: mnemonic, kind: KindBranch}, true
	}
	return Opcode{}, false
}

// variantsByMnemonic returns every table entry sharing mnemonic, in
// declaration order — the candidate set the encoder chooses among by
// operand shape (spec.md §4.2.1 GPR-specialization tie-break).
func variantsByMnemonic(mnemonic string) []Opcode {
	var out []Opcode
	for _, o := range table {
		if o.mnemonic == mnemonic {
			out = append(out, o)
		}
	}
	return out
}

func lookupByID(id uint16) (Opcode, bool) {
	for _, o := range table {
		if o.id == id {
			return o, true
		}
	}
	return Opcode{}, false
}

// prefixPairs is the static table of valid prefix→instruction pairs
// (spec.md §4.2.1's "prefix composition"): which KindInsn opcode may
// precede which other opcode.
var prefixPairs = map[string]map[string]bool{
	"lock":  {"add": true, "sub": true, "and": true, "or": true, "xor": true},
	"repbc": {"mov": true}, // block-copy form of mov in this subset
}

func validPrefix(prefix, insn string) error {
	allowed, ok := prefixPairs[prefix]
	if !ok {
		return fmt.Errorf("clever: %q is not a prefix opcode", prefix)
	}
	if !allowed[insn] {
		return fmt.Errorf("clever: prefix %q may not precede %q", prefix, insn)
	}
	return nil
}
