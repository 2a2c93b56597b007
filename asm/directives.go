package asm

import (
	"fmt"

	"github.com/lccc-project/lc-binutils/internal/addr"
)

// dispatchDirective handles the uniform directive set spec.md §4.4.3
// names; anything else is forwarded to the target's DirectiveSet, if one
// was registered.
func (a *Assembler) dispatchDirective(name string, args []Token) error {
	switch name {
	case ".text":
		a.switchSection(".text", false)
	case ".rodata":
		a.switchSection(".rodata", false)
	case ".data":
		a.switchSection(".data", false)
	case ".bss":
		a.switchSection(".bss", true)
	case ".section":
		if len(args) == 0 || args[0].Kind != TokenIdentifier {
			return fmt.Errorf("%s requires a section name", name)
		}
		a.switchSection(args[0].Text, false)
	case ".global", ".globl":
		for _, t := range args {
			if t.Kind == TokenIdentifier {
				a.globals[t.Text] = true
			}
		}
	case ".weak":
		for _, t := range args {
			if t.Kind == TokenIdentifier {
				a.weaks[t.Text] = true
			}
		}
	case ".align":
		return a.doAlign(args)
	case ".long":
		return a.doIntegerList(args, 32)
	case ".quad":
		return a.doIntegerList(args, 64)
	case ".space":
		return a.doSpace(args)
	case ".ascii":
		return a.doAscii(args, false)
	case ".asciz":
		return a.doAscii(args, true)
	default:
		if a.directives != nil {
			for _, n := range a.directives.Names() {
				if n == name {
					return a.directives.Handle(a, name, args)
				}
			}
		}
		return fmt.Errorf("unknown directive %q", name)
	}
	return nil
}

func (a *Assembler) evalArgExpr(toks []Token) (Value, error) {
	p := NewExprParser(toks)
	e, err := p.ParseExpression()
	if err != nil {
		return Value{}, err
	}
	return Eval(e, a)
}

// doAlign raises the current section's alignment and pads with zero
// bytes to the next boundary (spec.md §4.4.3). Two consecutive .align N
// directives on the same section are idempotent: the second finds the
// cursor already aligned and emits no padding.
func (a *Assembler) doAlign(args []Token) error {
	v, err := a.evalArgExpr(args)
	if err != nil {
		return fmt.Errorf(".align: %w", err)
	}
	if !v.Resolved || v.Integer == 0 {
		return fmt.Errorf(".align requires a resolved, non-zero alignment")
	}
	align := v.Integer
	if align > a.current.align {
		a.current.align = align
	}
	cur := a.current.offset()
	pad := (align - cur%align) % align
	if pad == 0 {
		return nil
	}
	if a.current.writer != nil {
		return a.current.writer.WriteZeroes(int(pad))
	}
	a.current.noBits += pad
	return nil
}

func (a *Assembler) doIntegerList(args []Token, bits int) error {
	groups := SplitOnComma(args)
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		v, err := a.evalArgExpr(g)
		if err != nil {
			return err
		}
		if a.current.writer == nil {
			return fmt.Errorf("cannot emit data into a NoBits section")
		}
		if v.Resolved {
			buf := make([]byte, bits/8)
			putUintN(a.order, buf, v.Integer)
			if err := a.current.writer.WriteBytes(buf); err != nil {
				return err
			}
			continue
		}
		if err := a.current.writer.WriteAddr(bits, addr.Symbol(v.Symbol, v.Bias), false); err != nil {
			return err
		}
	}
	return nil
}

func (a *Assembler) doSpace(args []Token) error {
	v, err := a.evalArgExpr(args)
	if err != nil {
		return fmt.Errorf(".space: %w", err)
	}
	if !v.Resolved {
		return fmt.Errorf(".space requires a resolved length")
	}
	if a.current.writer != nil {
		return a.current.writer.WriteZeroes(int(v.Integer))
	}
	a.current.noBits += v.Integer
	return nil
}

func (a *Assembler) doAscii(args []Token, nulTerminate bool) error {
	if a.current.writer == nil {
		return fmt.Errorf("cannot emit data into a NoBits section")
	}
	for _, t := range args {
		if t.Kind != TokenString {
			continue
		}
		if err := a.current.writer.WriteBytes([]byte(t.Str)); err != nil {
			return err
		}
		if nulTerminate {
			if err := a.current.writer.WriteBytes([]byte{0}); err != nil {
				return err
			}
		}
	}
	return nil
}

// SplitOnComma splits a run of argument tokens on top-level "," sigils.
// Exported so a target's InstructionBuilder can parse its own
// comma-separated operand list the same way directives do.
func SplitOnComma(toks []Token) [][]Token {
	var groups [][]Token
	var cur []Token
	for _, t := range toks {
		if t.Kind == TokenSigil && t.Text == "," {
			groups = append(groups, cur)
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
	if len(cur) > 0 {
		groups = append(groups, cur)
	}
	return groups
}

func putUintN(order addr.ByteOrder, buf []byte, v uint64) {
	switch len(buf) {
	case 4:
		order.PutUint32(buf, uint32(v))
	case 8:
		order.PutUint64(buf, v)
	}
}
