// Package program parses agent instruction text into executable opcode
// sequences. The alphabet is closed by construction: input is upper-cased,
// filtered to {S, N, C, L} and truncated to MaxLength, so parsing cannot
// fail. Anything that survives filtering but is not a known opcode executes
// as a no-op.
package program

import "strings"

// Opcode is a single agent instruction.
type Opcode byte

const (
	// OpStep moves the agent along the node's outgoing edge.
	OpStep Opcode = 'S'
	// OpNop consumes one position without moving.
	OpNop Opcode = 'N'
	// OpCond gates the immediately following opcode on another non-finished
	// agent sharing the node.
	OpCond Opcode = 'C'
	// OpLoop declares that the graph contains a loop, ending the run.
	OpLoop Opcode = 'L'
)

// MaxLength is the hard cap on program length.
const MaxLength = 10

const alphabet = "SNCL"

// Program is an immutable bounded opcode sequence. The zero value is the
// empty program.
type Program struct {
	ops []Opcode
}

// Parse sanitizes raw instruction text and returns the resulting program.
// Input collaborators filter incrementally already; Parse re-validates
// defensively so hand-fed strings behave identically.
func Parse(raw string) Program {
	clean := Sanitize(raw)
	ops := make([]Opcode, len(clean))
	for i := 0; i < len(clean); i++ {
		ops[i] = Opcode(clean[i])
	}
	return Program{ops: ops}
}

// FromOpcodes builds a program directly from opcodes, bypassing
// sanitization. Unknown opcodes are legal and execute as no-ops.
func FromOpcodes(ops ...Opcode) Program {
	cp := make([]Opcode, len(ops))
	copy(cp, ops)
	return Program{ops: cp}
}

// Sanitize upper-cases raw text, strips every character outside the
// instruction alphabet and truncates to MaxLength.
func Sanitize(raw string) string {
	var sb strings.Builder
	for _, r := range strings.ToUpper(raw) {
		if strings.ContainsRune(alphabet, r) {
			sb.WriteRune(r)
			if sb.Len() == MaxLength {
				break
			}
		}
	}
	return sb.String()
}

// Len returns the number of opcodes.
func (p Program) Len() int {
	return len(p.ops)
}

// At returns the opcode at position i, or false when i is out of range.
func (p Program) At(i int) (Opcode, bool) {
	if i < 0 || i >= len(p.ops) {
		return 0, false
	}
	return p.ops[i], true
}

func (p Program) String() string {
	b := make([]byte, len(p.ops))
	for i, op := range p.ops {
		b[i] = byte(op)
	}
	return string(b)
}
