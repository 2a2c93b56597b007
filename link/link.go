// Package link implements the link-state data model spec.md §3.7/§4.5
// describes: an ordered collection of input files (objects, archives,
// and group markers), a symbol-definition table, and a section-name
// registry. It stops at the shapes the link driver consumes — output
// placement, symbol resolution order and relocation processing are
// explicitly out of scope (spec.md §4.5, "specified elsewhere").
// Grounded on original lcld/src/link.rs's LinkState/InputFile/InputId/
// SectionId/GroupId model, rendered without indexmap (not in this
// module's dependency surface) as a slice-plus-map ordered collection —
// the same "buffer then index" shape the teacher's elf_complete.go uses
// for section layout.
package link

import (
	"fmt"
	"os"

	"github.com/lccc-project/lc-binutils/binfmt"
	"github.com/lccc-project/lc-binutils/binfmt/ar"
)

// InputId identifies one entry added to a LinkState, in insertion order.
type InputId uint32

// SectionId identifies one output section a LinkState has allocated.
type SectionId uint32

// DiscardSection is the sentinel output section: every input section
// mapped to it contributes nothing to the link (spec.md §4.5).
const DiscardSection SectionId = ^SectionId(0)

// GroupId identifies a begin/end group span. NoGroup marks an input not
// enclosed by any group.
type GroupId uint32

// NoGroup is the sentinel GroupId for an input outside any group.
const NoGroup GroupId = ^GroupId(0)

// InputKind discriminates the concrete payload an InputFile carries.
type InputKind int

const (
	// KindUnopened: path recorded, not yet read from disk.
	KindUnopened InputKind = iota
	// KindObject: successfully identified and decoded as a binfmt.BinaryFile.
	KindObject
	// KindArchive: successfully identified and decoded as an ar.Archive.
	KindArchive
	// KindGroupStart marks the position of a begin_group() call.
	KindGroupStart
	// KindGroupEnd marks the position of an end_group() call, carrying
	// the InputId of its matching KindGroupStart.
	KindGroupEnd
)

// InputFile is one entry in a LinkState's input list (spec.md §3.7).
// Exactly one of Path/Object/Archive is meaningful, selected by Kind.
type InputFile struct {
	Kind InputKind

	// Path is set for KindUnopened and remains after Open for diagnostics.
	Path string
	// AsNeeded mirrors the --as-needed linker flag: an unreferenced
	// AsNeeded input contributes no symbols to the final link. This core
	// only records the flag; enforcing it is the link driver's job.
	AsNeeded bool

	Object  *binfmt.BinaryFile
	Archive *ar.Archive

	// GroupStart is valid only for KindGroupEnd: the InputId of the
	// begin_group() this end_group() matches.
	GroupStart InputId
}

// Open lazily reads Path, identifies its format via the binfmt registry,
// and decodes it into Object or Archive (spec.md §4.5: "lazily opens it
// on first access ... identifying the format via the binfmt registry").
// A no-op on anything already opened or on a marker entry.
func (f *InputFile) Open() error {
	if f.Kind != KindUnopened {
		return nil
	}
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return fmt.Errorf("link: opening %s: %w", f.Path, err)
	}
	if arc, err := ar.ReadArchive(raw); err == nil {
		f.Archive = arc
		f.Kind = KindArchive
		return nil
	}
	codec, ok := binfmt.Identify(raw)
	if !ok {
		return fmt.Errorf("link: %s: unrecognized object file format", f.Path)
	}
	bf, err := codec.Read(raw)
	if err != nil {
		return fmt.Errorf("link: %s: %w", f.Path, err)
	}
	f.Object = bf
	f.Kind = KindObject
	return nil
}

// SymbolDef records where a linked symbol's definition came from.
type SymbolDef struct {
	// Input is the InputId of the object that defines the symbol.
	// Meaningless when Undefined is true.
	Input     InputId
	Undefined bool
}

// LinkState is the ordered collection of inputs and the symbol/section
// registries the link driver resolves against (spec.md §3.7).
type LinkState struct {
	inputOrder []InputId
	inputs     map[InputId]*InputFile

	symbolDefs map[string]SymbolDef

	sectionOrder []string
	sectionIDs   map[string]SectionId
	sections     map[SectionId]binfmt.Section

	nextInputID   InputId
	nextSectionID SectionId

	groupStack []InputId
}

// New constructs an empty LinkState.
func New() *LinkState {
	return &LinkState{
		inputs:     map[InputId]*InputFile{},
		symbolDefs: map[string]SymbolDef{},
		sectionIDs: map[string]SectionId{},
		sections:   map[SectionId]binfmt.Section{},
	}
}

// BeginGroup pushes a group-start marker input and returns its InputId
// (spec.md §4.5: begin_group()/end_group() bracket a span the resolver
// iterates to convergence).
func (s *LinkState) BeginGroup() InputId {
	id := s.allocInput(&InputFile{Kind: KindGroupStart})
	s.groupStack = append(s.groupStack, id)
	return id
}

// EndGroup pushes the matching group-end marker. It is fatal (panics, as
// the teacher's matching Rust `expect` does) to call EndGroup with no
// preceding unmatched BeginGroup — spec.md §3.7's invariant that every
// GroupEnd matches exactly one preceding GroupBegin.
func (s *LinkState) EndGroup() InputId {
	n := len(s.groupStack)
	if n == 0 {
		panic("link: end_group called with no matching begin_group")
	}
	start := s.groupStack[n-1]
	s.groupStack = s.groupStack[:n-1]
	return s.allocInput(&InputFile{Kind: KindGroupEnd, GroupStart: start})
}

// AddInput assigns file a fresh InputId, records it, and opens it
// immediately, returning the id together with any open error. Opening is
// not deferred to first access.
func (s *LinkState) AddInput(file *InputFile) (InputId, error) {
	id := s.allocInput(file)
	if err := file.Open(); err != nil {
		return id, err
	}
	return id, nil
}

func (s *LinkState) allocInput(file *InputFile) InputId {
	id := s.nextInputID
	s.nextInputID++
	s.inputs[id] = file
	s.inputOrder = append(s.inputOrder, id)
	return id
}

// Input looks up a previously added InputFile by id.
func (s *LinkState) Input(id InputId) (*InputFile, bool) {
	f, ok := s.inputs[id]
	return f, ok
}

// Inputs returns every input in insertion order.
func (s *LinkState) Inputs() []InputId {
	return append([]InputId(nil), s.inputOrder...)
}

// SectionID returns the SectionId allocated for name, allocating one on
// first reference.
func (s *LinkState) SectionID(name string) SectionId {
	if id, ok := s.sectionIDs[name]; ok {
		return id
	}
	id := s.nextSectionID
	s.nextSectionID++
	s.sectionIDs[name] = id
	s.sectionOrder = append(s.sectionOrder, name)
	return id
}

// Section returns the output section registered for id, if any.
func (s *LinkState) Section(id SectionId) (binfmt.Section, bool) {
	sec, ok := s.sections[id]
	return sec, ok
}

// SetSection installs or replaces the output section registered for id.
// Writing DiscardSection is permitted but meaningless: the link driver
// is responsible for never copying anything into it.
func (s *LinkState) SetSection(id SectionId, sec binfmt.Section) {
	s.sections[id] = sec
}

// DefineSymbol records that name is defined by the given input, or marks
// it undefined. A later call for the same name overwrites the prior
// definition — first-definition-wins policy is the link driver's
// responsibility, not this data model's.
func (s *LinkState) DefineSymbol(name string, def SymbolDef) {
	s.symbolDefs[name] = def
}

// SymbolDef looks up a recorded symbol definition.
func (s *LinkState) SymbolDef(name string) (SymbolDef, bool) {
	def, ok := s.symbolDefs[name]
	return def, ok
}
