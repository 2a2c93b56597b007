package w65c816

import "github.com/lccc-project/lc-binutils/internal/addr"

// RegisterOperand is a synthetic-instruction operand: a bare register
// reference such as `%x` or `%a` (spec.md §4.2.4). It never reaches the
// real opcode table directly — rewrite resolves it into the concrete
// mnemonic/Operand pair that does.
type RegisterOperand struct {
	Reg Register
}

// RegPairOperand is the two-register form `tr %x, %a` takes: a single
// synthetic "tr" mnemonic covering every inter-register transfer,
// rewritten to its specific `txa`/`tax`/... mnemonic.
type RegPairOperand struct {
	From, To Register
}

// syntheticKey identifies one rewrite rule: a surface mnemonic paired
// with its operand shape. Keyed directly since RegisterOperand and
// RegPairOperand are both plain comparable structs.
type syntheticKey struct {
	mnemonic string
	operand  any
}

// syntheticRule is what a surface (mnemonic, operand) pair rewrites to.
// A nil operand means the real form takes no operand (e.g. "txa").
type syntheticRule struct {
	mnemonic string
	operand  any
}

// syntheticTable is a representative subset of the original w65.rs
// w65_synthetic_instructions! macro (original arch-ops/src/w65.rs):
// register-operand forms of Lda/Ldx/Ldy/Sta/Stx/Sty/Tr collapse to their
// dedicated transfer mnemonic, Ph/Pl register forms collapse to their
// dedicated push/pull mnemonic, Brk gains an explicit zero operand, and
// Brl narrows to Bra. Every rule's output operand is either nil or an
// Operand naming a real opcode-table entry — never another
// RegisterOperand/RegPairOperand — so the relation terminates in one
// lookup (spec.md §4.2.4's "no rewrite produces another rewritable
// pair").
var syntheticTable = map[syntheticKey]syntheticRule{
	{"lda", RegisterOperand{IdxX}}: {"txa", nil},
	{"lda", RegisterOperand{IdxY}}: {"tya", nil},
	{"lda", RegisterOperand{SP}}:   {"tsa", nil},
	{"lda", RegisterOperand{DirectPage}}: {"tda", nil},

	{"ldx", RegisterOperand{Acc}}: {"tax", nil},
	{"ldx", RegisterOperand{IdxY}}: {"tyx", nil},
	{"ldx", RegisterOperand{SP}}:   {"tsx", nil},

	{"ldy", RegisterOperand{Acc}}:  {"tay", nil},
	{"ldy", RegisterOperand{IdxX}}: {"txy", nil},

	{"sta", RegisterOperand{IdxX}}:       {"tax", nil},
	{"sta", RegisterOperand{IdxY}}:       {"tay", nil},
	{"sta", RegisterOperand{SP}}:         {"tas", nil},
	{"sta", RegisterOperand{DirectPage}}: {"tad", nil},

	{"stx", RegisterOperand{Acc}}: {"txa", nil},
	{"stx", RegisterOperand{IdxY}}: {"txy", nil},
	{"stx", RegisterOperand{SP}}:   {"txs", nil},

	{"sty", RegisterOperand{Acc}}:  {"tya", nil},
	{"sty", RegisterOperand{IdxX}}: {"tyx", nil},

	{"tr", RegPairOperand{IdxX, Acc}}: {"txa", nil},
	{"tr", RegPairOperand{IdxY, Acc}}: {"tya", nil},
	{"tr", RegPairOperand{SP, Acc}}:   {"tsa", nil},
	{"tr", RegPairOperand{DirectPage, Acc}}: {"tda", nil},
	{"tr", RegPairOperand{Acc, IdxX}}: {"tax", nil},
	{"tr", RegPairOperand{IdxY, IdxX}}: {"tyx", nil},
	{"tr", RegPairOperand{SP, IdxX}}:   {"tsx", nil},
	{"tr", RegPairOperand{Acc, IdxY}}:  {"tay", nil},
	{"tr", RegPairOperand{IdxX, IdxY}}: {"txy", nil},

	{"ph", RegisterOperand{Acc}}:   {"pha", nil},
	{"ph", RegisterOperand{IdxX}}:  {"phx", nil},
	{"ph", RegisterOperand{IdxY}}:  {"phy", nil},
	{"ph", RegisterOperand{DirectPage}}: {"phd", nil},
	{"ph", RegisterOperand{PBR}}:   {"phk", nil},
	{"ph", RegisterOperand{Status}}: {"php", nil},

	{"pl", RegisterOperand{Acc}}:   {"pla", nil},
	{"pl", RegisterOperand{IdxX}}:  {"plx", nil},
	{"pl", RegisterOperand{IdxY}}:  {"ply", nil},
	{"pl", RegisterOperand{DirectPage}}: {"pld", nil},
	{"pl", RegisterOperand{Status}}: {"plp", nil},
}

// rewrite resolves a surface (mnemonic, operands) pair that may name a
// synthetic instruction into its real equivalent; ok reports whether any
// rewrite fired (false means pass mnemonic/operands through unchanged).
// Brk-with-no-operand and Brl-with-an-address are handled outside
// syntheticTable since their rule keys don't fit the single-operand-value
// shape the table otherwise uses.
func rewrite(mnemonic string, operands []any) (string, []any, bool) {
	switch {
	case mnemonic == "brk" && len(operands) == 0:
		return "brk", []any{Operand{Mode: ModeImmediate, Value: addr.Abs(0)}}, true
	case mnemonic == "brl" && len(operands) == 1:
		if op, ok := operands[0].(Operand); ok && op.Mode == ModePCRelLong {
			return "bra", []any{Operand{Mode: ModePCRelShort, Value: op.Value}}, true
		}
		return mnemonic, operands, false
	}

	if len(operands) != 1 {
		return mnemonic, operands, false
	}
	rule, ok := syntheticTable[syntheticKey{mnemonic, operands[0]}]
	if !ok {
		return mnemonic, operands, false
	}
	if rule.operand == nil {
		return rule.mnemonic, nil, true
	}
	return rule.mnemonic, []any{rule.operand}, true
}
