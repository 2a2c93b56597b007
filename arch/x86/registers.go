package x86

import "fmt"

// RegClass determines the encoded size and printable prefix of a Register
// (spec.md §3.3).
type RegClass uint8

const (
	ClassByte RegClass = iota
	ClassWord
	ClassDword
	ClassQword
	ClassXMM
)

func (c RegClass) Bits() int {
	switch c {
	case ClassByte:
		return 8
	case ClassWord:
		return 16
	case ClassDword:
		return 32
	case ClassQword:
		return 64
	case ClassXMM:
		return 128
	default:
		return 0
	}
}

// Register is an x86 register: its class (which determines encoded size)
// and its 4-bit encoding number (0-15; numbers 8-15 require a REX/VEX/EVEX
// extension bit to be reachable).
type Register struct {
	Name    string
	Class   RegClass
	Number  uint8
}

func (r Register) String() string { return r.Name }

// Extended reports whether this register's number needs the REX.R/X/B (or
// VEX/EVEX equivalent) extension bit to be encoded.
func (r Register) Extended() bool { return r.Number >= 8 }

var registersByName = map[string]Register{}

func defReg(name string, class RegClass, number uint8) {
	registersByName[name] = Register{Name: name, Class: class, Number: number}
}

func init() {
	qwordNames := []string{"rax", "rcx", "rdx", "rbx", "rsp", "rbp", "rsi", "rdi",
		"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15"}
	for i, n := range qwordNames {
		defReg(n, ClassQword, uint8(i))
	}
	dwordNames := []string{"eax", "ecx", "edx", "ebx", "esp", "ebp", "esi", "edi",
		"r8d", "r9d", "r10d", "r11d", "r12d", "r13d", "r14d", "r15d"}
	for i, n := range dwordNames {
		defReg(n, ClassDword, uint8(i))
	}
	wordNames := []string{"ax", "cx", "dx", "bx", "sp", "bp", "si", "di",
		"r8w", "r9w", "r10w", "r11w", "r12w", "r13w", "r14w", "r15w"}
	for i, n := range wordNames {
		defReg(n, ClassWord, uint8(i))
	}
	byteNames := []string{"al", "cl", "dl", "bl", "spl", "bpl", "sil", "dil",
		"r8b", "r9b", "r10b", "r11b", "r12b", "r13b", "r14b", "r15b"}
	for i, n := range byteNames {
		defReg(n, ClassByte, uint8(i))
	}
	for i := 0; i < 16; i++ {
		defReg(fmt.Sprintf("xmm%d", i), ClassXMM, uint8(i))
	}
}

// Lookup finds a register by its assembler-surface name.
func Lookup(name string) (Register, bool) {
	r, ok := registersByName[name]
	return r, ok
}

// ByClassNumber finds the register of the given class and encoding number,
// used by the decoder to turn ModR/M fields back into a Register.
func ByClassNumber(class RegClass, number uint8) (Register, bool) {
	for _, r := range registersByName {
		if r.Class == class && r.Number == number {
			return r, true
		}
	}
	return Register{}, false
}
