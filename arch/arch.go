// Package arch defines the shared shape every architecture codec in
// arch/clever, arch/x86, arch/w65c816 and arch/holeybytes implements
// (spec.md §4.2), plus a registry the assembler front end and link driver
// use to look a codec up by name — the Go rendition of the teacher's
// Target interface + GetDefaultTarget/GetRegister dispatch pattern
// (target.go, reg.go in the teacher).
package arch

import (
	"fmt"
	"sort"

	"github.com/lccc-project/lc-binutils/internal/addr"
)

// Opcode identifies one architecture-specific instruction mnemonic variant.
// Each arch/* package defines its own concrete opcode enum and wraps it to
// satisfy this interface.
type Opcode interface {
	fmt.Stringer
	// Mnemonic is the assembler-surface name ("nop", "add", "lda.abs").
	Mnemonic() string
}

// SourceInstruction couples an Opcode with an optional prefix opcode chain,
// an operand list and an optional mode override (spec.md §3.4). Operand is
// left as `any`; each arch package defines its own concrete operand sum and
// asserts it out of this list — Go has no sum types, and a shared operand
// union across four unrelated instruction sets would force every
// architecture's operand kinds into one bloated struct, which is worse
// than the type assertion at the one seam (Encode) that actually needs it.
type SourceInstruction struct {
	Prefixes []Opcode
	Op       Opcode
	Operands []any
	Mode     any // architecture-specific mode override, nil if default
}

// Codec is the three logical services spec.md §4.2 requires of every
// architecture: an opcode table, an encoder and a decoder. The opcode
// table is internal to each arch package and is consulted only through
// Encode and Decode; this interface does not expose it.
type Codec interface {
	// Name identifies the architecture ("clever", "x86", "wc65c816",
	// "holeybytes").
	Name() string
	// Encode writes insn to w, or returns an EncodeError describing why
	// no template matches.
	Encode(w addr.InsnWrite, insn SourceInstruction) error
	// Decode reads one instruction from r.
	Decode(r addr.InsnRead) (SourceInstruction, error)
	// Howtos returns this architecture's relocation table.
	Howtos() *addr.HowtoTable
}

// EncodeError reports that no opcode-table entry matches a SourceInstruction
// in the given mode (spec.md §7, "Encoding error").
type EncodeError struct {
	Arch string
	Insn string
	Mode string
	Why  string
}

func (e *EncodeError) Error() string {
	if e.Mode != "" {
		return fmt.Sprintf("%s: cannot encode `%s` in mode %s: %s", e.Arch, e.Insn, e.Mode, e.Why)
	}
	return fmt.Sprintf("%s: cannot encode `%s`: %s", e.Arch, e.Insn, e.Why)
}

// DecodeError reports that a byte stream could not be decoded into a
// SourceInstruction.
type DecodeError struct {
	Arch string
	Why  string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: cannot decode instruction: %s", e.Arch, e.Why)
}

var registry = map[string]Codec{}

// Register adds a Codec to the shared registry, keyed by its Name().
// Architecture packages call this from an init() so that importing them
// for side effect (as cmd/lc-as does via a blank import) makes the codec
// available to the assembler driver without a hand-maintained switch.
func Register(c Codec) {
	registry[c.Name()] = c
}

// Lookup finds a previously Registered Codec by name.
func Lookup(name string) (Codec, bool) {
	c, ok := registry[name]
	return c, ok
}

// Names returns every registered architecture name, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
