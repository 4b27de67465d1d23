package bytecode

import (
	"strings"
	"testing"

	"github.com/chazu/lox/pkg/value"
)

func TestDisassembleEmpty(t *testing.T) {
	c := NewChunk()

	if got := c.Disassemble("empty"); got != "== empty ==\n" {
		t.Errorf("Disassemble = %q", got)
	}
}

func TestDisassembleConstantAndReturn(t *testing.T) {
	c := NewChunk()
	c.WriteConstant(value.Number(1.2), 123)
	c.WriteOp(OpReturn, 123)

	want := "== test ==\n" +
		"0000  123 OP_CONSTANT         0 '1.2'\n" +
		"0002    | OP_RETURN\n"
	if got := c.Disassemble("test"); got != want {
		t.Errorf("Disassemble =\n%s\nwant\n%s", got, want)
	}
}

func TestDisassembleOperands(t *testing.T) {
	c := NewChunk()
	c.WriteOp(OpGetLocal, 1)
	c.Write(3, 1)
	c.WriteOp(OpCall, 2)
	c.Write(2, 2)
	placeholder, _ := c.EmitJump(OpJumpIfFalse, 3)
	c.WriteOp(OpPop, 3)
	c.PatchJump(placeholder)
	c.EmitLoop(0, 4)

	lines := strings.Split(strings.TrimSpace(c.Disassemble("ops")), "\n")
	want := []string{
		"== ops ==",
		"0000    1 OP_GET_LOCAL        3",
		"0002    2 OP_CALL             2",
		"0004    3 OP_JUMP_IF_FALSE    4 -> 8",
		"0007    | OP_POP",
		"0008    4 OP_LOOP             8 -> 0",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), strings.Join(lines, "\n"))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestDisassembleGlobalsAndClosure(t *testing.T) {
	c := NewChunk()
	idx, _ := c.AddConstant(value.String("greeting"))
	c.WriteOp(OpDefineGlobal, 1)
	c.Write(byte(idx), 1)
	c.WriteOp(OpClosure, 2)
	c.Write(byte(idx), 2)

	out := c.Disassemble("globals")
	if !strings.Contains(out, "OP_DEFINE_GLOBAL    0 'greeting'") {
		t.Errorf("missing global name:\n%s", out)
	}
	if !strings.Contains(out, "OP_CLOSURE          0 'greeting'") {
		t.Errorf("missing closure constant:\n%s", out)
	}
}

func TestDisassembleUnknownAndTruncated(t *testing.T) {
	c := NewChunk()
	c.Write(0xEE, 1)
	c.WriteOp(OpConstant, 1)

	out := c.Disassemble("bad")
	if !strings.Contains(out, "Unknown opcode 238") {
		t.Errorf("missing unknown opcode:\n%s", out)
	}
	if !strings.Contains(out, "OP_CONSTANT      <truncated>") {
		t.Errorf("missing truncation marker:\n%s", out)
	}
}

func TestDisassembleDoesNotMutate(t *testing.T) {
	c := NewChunk()
	c.WriteConstant(value.String("a\nb"), 1)
	c.WriteOp(OpPrint, 1)

	before, _ := c.Serialize()
	c.Disassemble("x")
	c.InstructionCount()
	after, _ := c.Serialize()

	if string(before) != string(after) {
		t.Error("disassembly changed the chunk")
	}
}

func TestDisassembleEscapesConstants(t *testing.T) {
	c := NewChunk()
	c.WriteConstant(value.String("a\nb"), 1)

	line, next := c.DisassembleInstruction(0)
	if !strings.Contains(line, `'a\nb'`) {
		t.Errorf("line = %q", line)
	}
	if next != 2 {
		t.Errorf("next = %d, want 2", next)
	}
}

func TestInstructionCount(t *testing.T) {
	c := NewChunk()
	c.WriteConstant(value.Number(1), 1)
	c.WriteConstant(value.Number(2), 1)
	c.WriteOp(OpAdd, 1)
	c.WriteOp(OpReturn, 1)

	if got := c.InstructionCount(); got != 4 {
		t.Errorf("InstructionCount() = %d, want 4", got)
	}
}
