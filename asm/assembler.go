package asm

import (
	"fmt"

	"github.com/lccc-project/lc-binutils/arch"
	"github.com/lccc-project/lc-binutils/binfmt"
	"github.com/lccc-project/lc-binutils/internal/addr"
)

// sectionBuf is the shared, exclusively-held cell the assembler writes
// through for the current section (spec.md Design Notes §9, "shared
// section handle during assembly"): acquired at section-switch time,
// released (flushed into the owning Section) before another write block
// begins.
type sectionBuf struct {
	name    string
	align   uint64
	noBits  uint64 // accumulated .bss-style zero-fill length; mutually exclusive with writer
	writer  *addr.Writer
	symbols map[string]uint64 // labels recorded at this section's local offsets
}

func newSectionBuf(name string, order addr.ByteOrder, isBSS bool) *sectionBuf {
	sb := &sectionBuf{name: name, align: 1, symbols: map[string]uint64{}}
	if !isBSS {
		sb.writer = addr.NewWriter(order)
	}
	return sb
}

func (sb *sectionBuf) offset() uint64 {
	if sb.writer != nil {
		return sb.writer.Offset()
	}
	return sb.noBits
}

// Assembler drives the token-consumption loop spec.md §4.4.3 describes,
// dispatching mnemonics to codec and directives to the uniform set plus
// whatever names the target's Directives extension declares (grounded on
// the teacher's main driver loop pattern of "one owned cursor, one
// current-section cell", generalized from a single target to the
// arch.Codec interface).
type Assembler struct {
	codec      arch.Codec
	order      addr.ByteOrder
	directives DirectiveSet
	dialect    Dialect

	sections map[string]*sectionBuf
	order_   []string // section declaration order, preserved into the output BinaryFile
	current  *sectionBuf

	globals map[string]bool
	weaks   map[string]bool
	mode    any // current architecture mode override, carried across instructions until changed
	buildFn InstructionBuilder
}

// DirectiveSet is the target-specific directive extension point (spec.md
// §4.4.3, "additional directives are forwarded to the target machine
// which declares the names it handles via directive_names()").
type DirectiveSet interface {
	// Names lists every directive this target handles beyond the core set.
	Names() []string
	// Handle processes one target-specific directive invocation.
	Handle(a *Assembler, name string, args []Token) error
}

// NewAssembler constructs a driver over codec, using order for literal
// address encoding and ds for target-specific directives (nil is valid:
// the core directive set alone).
func NewAssembler(codec arch.Codec, order addr.ByteOrder, ds DirectiveSet, dialect Dialect) *Assembler {
	a := &Assembler{
		codec:      codec,
		order:      order,
		directives: ds,
		dialect:    dialect,
		sections:   map[string]*sectionBuf{},
		globals:    map[string]bool{},
		weaks:      map[string]bool{},
	}
	a.switchSection(".text", false)
	return a
}

func (a *Assembler) switchSection(name string, bss bool) *sectionBuf {
	if sb, ok := a.sections[name]; ok {
		a.current = sb
		return sb
	}
	sb := newSectionBuf(name, a.order, bss)
	a.sections[name] = sb
	a.order_ = append(a.order_, name)
	a.current = sb
	return sb
}

// Assemble tokenizes and assembles src in its entirety.
func (a *Assembler) Assemble(src string) error {
	lex := NewLexer(src, a.dialect)
	var toks []Token
	for {
		t := lex.Next()
		if t.Kind == TokenError {
			return fmt.Errorf("asm: lex error at line %d: %s", t.Line, t.Text)
		}
		toks = append(toks, t)
		if t.Kind == TokenEOF {
			break
		}
	}
	return a.assembleTokens(toks)
}

func (a *Assembler) assembleTokens(toks []Token) error {
	pos := 0
	peek := func() Token {
		if pos < len(toks) {
			return toks[pos]
		}
		return Token{Kind: TokenEOF}
	}
	advance := func() Token {
		t := peek()
		if pos < len(toks) {
			pos++
		}
		return t
	}
	restOfLine := func() []Token {
		var line []Token
		for peek().Kind != TokenLineTerminator && peek().Kind != TokenEOF {
			line = append(line, advance())
		}
		return line
	}

	for {
		for peek().Kind == TokenLineTerminator {
			advance()
		}
		if peek().Kind == TokenEOF {
			break
		}
		tok := advance()
		if tok.Kind != TokenIdentifier {
			return fmt.Errorf("asm: line %d: expected identifier, got %+v", tok.Line, tok)
		}

		if peek().Kind == TokenSigil && peek().Text == ":" {
			advance()
			a.recordLabel(tok.Text)
			continue
		}

		if len(tok.Text) > 0 && tok.Text[0] == '.' {
			args := restOfLine()
			if err := a.dispatchDirective(tok.Text, args); err != nil {
				return fmt.Errorf("asm: line %d: %w", tok.Line, err)
			}
			continue
		}

		args := restOfLine()
		if err := a.assembleInsn(tok.Text, args); err != nil {
			return fmt.Errorf("asm: line %d: %w", tok.Line, err)
		}
	}
	return nil
}

func (a *Assembler) recordLabel(name string) {
	a.current.symbols[name] = a.current.offset()
}

// Resolve implements ExprContext against labels recorded so far in every
// section (cross-section labels resolve to a section-relative offset; the
// link step is responsible for turning that into a final address).
func (a *Assembler) Resolve(name string) (uint64, bool) {
	if v, ok := a.current.symbols[name]; ok {
		return v, true
	}
	for _, sb := range a.sections {
		if v, ok := sb.symbols[name]; ok {
			return v, true
		}
	}
	return 0, false
}

// assembleInsn hands mnemonic and its operand tokens to the target codec.
// Operand lowering from token groups to the architecture's concrete
// operand types is target-specific; this core only resolves the opcode
// and forwards the current mode override.
func (a *Assembler) assembleInsn(mnemonic string, args []Token) error {
	if a.current.writer == nil {
		return fmt.Errorf("cannot assemble an instruction into a NoBits section")
	}
	insn, err := a.buildInstruction(mnemonic, args)
	if err != nil {
		return err
	}
	return a.codec.Encode(a.current.writer, insn)
}

// InstructionBuilder is the per-architecture operand lowering hook,
// registered via SetInstructionBuilder. Without one, assembleInsn can
// only encode bare-mnemonic instructions (no operand tokens).
type InstructionBuilder func(a *Assembler, mnemonic string, args []Token) (arch.SourceInstruction, error)

func (a *Assembler) SetInstructionBuilder(b InstructionBuilder) { a.buildFn = b }

// Mode returns the current architecture mode override (e.g. an x86.CPUMode),
// as last set by SetMode; nil if never set.
func (a *Assembler) Mode() any { return a.mode }

// SetMode sets the architecture mode override carried on every
// subsequent SourceInstruction until changed again. A target's
// InstructionBuilder reads this back via Mode to decide how to encode
// operands (spec.md §4.2.2's per-mode operand-size defaults).
func (a *Assembler) SetMode(mode any) { a.mode = mode }

func (a *Assembler) buildInstruction(mnemonic string, args []Token) (arch.SourceInstruction, error) {
	if a.buildFn != nil {
		return a.buildFn(a, mnemonic, args)
	}
	if len(args) != 0 {
		return arch.SourceInstruction{}, fmt.Errorf("no instruction builder registered for operands to %q", mnemonic)
	}
	return arch.SourceInstruction{Op: bareOpcode(mnemonic), Mode: a.mode}, nil
}

// bareOpcode carries only a mnemonic, for instructions assembled without
// an InstructionBuilder; the target codec resolves it by name.
type bareOpcode string

func (o bareOpcode) Mnemonic() string { return string(o) }
func (o bareOpcode) String() string   { return string(o) }

// Finish closes out every section buffer and returns the assembled
// BinaryFile: one binfmt.Section per declared section, in declaration
// order, each carrying the relocations its Writer accumulated and any
// Global/Weak symbol promotions recorded via .global/.weak.
func (a *Assembler) Finish() *binfmt.BinaryFile {
	f := &binfmt.BinaryFile{Type: binfmt.Relocatable}
	symSection := map[string]int{}
	for i, name := range a.order_ {
		sb := a.sections[name]
		sec := binfmt.Section{Name: name, Align: sb.align}
		if sb.writer != nil {
			sec.Type = binfmt.ProgBits
			sec.Content = sb.writer.Bytes()
			sec.Relocs = sb.writer.Relocs()
		} else {
			sec.Type = binfmt.NoBits
			sec.TailSize = sb.noBits
		}
		f.Sections = append(f.Sections, sec)
		for name := range sb.symbols {
			symSection[name] = i
		}
	}
	for name, idx := range symSection {
		kind := binfmt.Local
		if a.globals[name] {
			kind = binfmt.Global
		} else if a.weaks[name] {
			kind = binfmt.Weak
		}
		f.Symbols = append(f.Symbols, binfmt.Symbol{
			Name: name, SectionIndex: idx + 1, Value: a.sections[a.order_[idx]].symbols[name],
			HasValue: true, Kind: kind, Type: binfmt.SymFunction,
		})
	}
	return f
}
