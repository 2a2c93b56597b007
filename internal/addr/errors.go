package addr

import "fmt"

// RelocError reports that an abstract relocation code has no concrete
// Howto for an architecture (spec.md §7, "Relocation error").
type RelocError struct {
	Arch string
	Code AbstractCode
}

func (e *RelocError) Error() string {
	return fmt.Sprintf("%s: no relocation howto for %v", e.Arch, e.Code)
}
