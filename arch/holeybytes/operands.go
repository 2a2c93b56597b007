// Package holeybytes implements the encoder/decoder for the HoleyBytes
// virtual machine architecture (spec.md §4.2.5): a flat, fixed-order
// byte-packed instruction encoding with no ModR/M-style tagging — each
// opcode's operand shape is fixed by its mnemonic alone (original
// arch-ops/src/holeybytes/{hbbytecode,mod,codec}.rs).
package holeybytes

// Shape is one of the fixed operand layouts HoleyBytes opcodes use
// (original holeybytes/mod.rs "OpsXXX" family). The letters name each
// trailing field: R=register (1 byte), A=absolute address (8 bytes),
// O=32-bit PC-relative offset, P=16-bit PC-relative offset, B/H/W/D=
// 1/2/4/8-byte immediate.
type Shape int

const (
	ShapeN Shape = iota
	ShapeRR
	ShapeRRR
	ShapeRRB
	ShapeRRH
	ShapeRRW
	ShapeRD
	ShapeRRD
	ShapeRRA
	ShapeRRO
	ShapeRRP
	ShapeA
	ShapeO
)

// Register is a HoleyBytes register number (0-255, flat register file).
type Register uint8
