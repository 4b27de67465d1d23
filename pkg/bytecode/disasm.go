package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of the whole chunk. It only
// reads the chunk.
func (c *Chunk) Disassemble(name string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "== %s ==\n", name)
	for offset := 0; offset < len(c.code); {
		line, next := c.DisassembleInstruction(offset)
		sb.WriteString(line)
		sb.WriteByte('\n')
		offset = next
	}

	return sb.String()
}

// DisassembleInstruction formats the instruction at offset and returns it
// along with the offset of the following instruction.
func (c *Chunk) DisassembleInstruction(offset int) (string, int) {
	if offset < 0 || offset >= len(c.code) {
		return "<end of code>", len(c.code)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%04d ", offset)
	if offset > 0 && c.lines[offset] == c.lines[offset-1] {
		sb.WriteString("   | ")
	} else {
		fmt.Fprintf(&sb, "%4d ", c.lines[offset])
	}

	op := Opcode(c.code[offset])
	info, ok := opcodeInfoTable[op]
	if !ok {
		fmt.Fprintf(&sb, "Unknown opcode %d", byte(op))
		return sb.String(), offset + 1
	}

	if offset+info.OperandLen >= len(c.code) && info.OperandLen > 0 {
		fmt.Fprintf(&sb, "%-16s <truncated>", info.Name)
		return sb.String(), len(c.code)
	}

	switch info.Operand {
	case OperandConstant, OperandClosure:
		idx := int(c.code[offset+1])
		fmt.Fprintf(&sb, "%-16s %4d '%s'", info.Name, idx, c.constantText(idx))
		return sb.String(), offset + 2

	case OperandByte:
		fmt.Fprintf(&sb, "%-16s %4d", info.Name, c.code[offset+1])
		return sb.String(), offset + 2

	case OperandJump:
		jump := int(c.readUint16(offset + 1))
		sign := 1
		if op == OpLoop {
			sign = -1
		}
		fmt.Fprintf(&sb, "%-16s %4d -> %d", info.Name, offset, offset+3+sign*jump)
		return sb.String(), offset + 3

	default:
		sb.WriteString(info.Name)
		return sb.String(), offset + 1
	}
}

// readUint16 reads a big-endian uint16 from the code at the given offset.
func (c *Chunk) readUint16(offset int) uint16 {
	if offset+1 >= len(c.code) {
		return 0
	}
	return uint16(c.code[offset])<<8 | uint16(c.code[offset+1])
}

// constantText renders a pool entry for a listing, truncating long strings.
func (c *Chunk) constantText(idx int) string {
	v, ok := c.Constant(idx)
	if !ok {
		return "<bad constant>"
	}
	s := v.String()
	if len(s) > 40 {
		s = s[:37] + "..."
	}
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}

// InstructionCount returns the number of instructions in the chunk.
// Note: This iterates through all code, so it's O(n).
func (c *Chunk) InstructionCount() int {
	count := 0
	for offset := 0; offset < len(c.code); count++ {
		_, offset = c.DisassembleInstruction(offset)
	}
	return count
}
