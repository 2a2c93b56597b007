package x86

import (
	"fmt"
	"strings"

	"github.com/lccc-project/lc-binutils/arch"
	"github.com/lccc-project/lc-binutils/asm"
)

// BuildInstruction is this package's asm.InstructionBuilder (spec.md §2's
// "per-mnemonic parser" step; §4.4.3 step 3, "pass the mnemonic to the
// target's assemble_insn"). It resolves mnemonic against the opcode
// table and each comma-separated argument against the register table;
// every form this package's table declares (FormRR, FormPushPop) takes
// register operands only, so no expression evaluation is needed here —
// directives like .long/.quad already route through Assembler's own
// evaluator for immediates. Register names may be written bare ("eax")
// or AT&T-style with a leading '%' ("%eax"); both lex as one identifier
// token since '%' is one of DefaultDialect's extra identifier characters.
func BuildInstruction(a *asm.Assembler, mnemonic string, args []asm.Token) (arch.SourceInstruction, error) {
	op, ok := lookupByMnemonic(mnemonic)
	if !ok {
		return arch.SourceInstruction{}, fmt.Errorf("x86: unknown mnemonic %q", mnemonic)
	}

	mode, ok := a.Mode().(CPUMode)
	if !ok {
		return arch.SourceInstruction{}, fmt.Errorf("x86: no CPU mode set; call Assembler.SetMode with an x86.CPUMode before assembling")
	}

	var operands []any
	for _, group := range asm.SplitOnComma(args) {
		if len(group) != 1 || group[0].Kind != asm.TokenIdentifier {
			return arch.SourceInstruction{}, fmt.Errorf("x86: %s: expected a single register operand, got %d tokens", mnemonic, len(group))
		}
		name := strings.TrimPrefix(group[0].Text, "%")
		reg, ok := Lookup(name)
		if !ok {
			return arch.SourceInstruction{}, fmt.Errorf("x86: %s: unknown register %q", mnemonic, group[0].Text)
		}
		operands = append(operands, reg)
	}

	return arch.SourceInstruction{Op: op, Mode: mode, Operands: operands}, nil
}
