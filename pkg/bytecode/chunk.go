package bytecode

import (
	"errors"
	"math"

	"github.com/chazu/lox/pkg/value"
)

const (
	// MaxCodeSize bounds the code section of a single chunk.
	MaxCodeSize = 1 << 24

	// MaxConstants bounds the constant pool of a single chunk.
	MaxConstants = 1 << 24

	// MaxConstantIndex is the largest index a one-byte constant operand holds.
	MaxConstantIndex = math.MaxUint8

	// MaxJump is the largest distance a two-byte jump operand holds.
	MaxJump = math.MaxUint16

	minCapacity = 8
)

var (
	// ErrChunkTooLarge is returned when the code section cannot grow further.
	ErrChunkTooLarge = errors.New("bytecode: chunk exceeds maximum code size")

	// ErrTooManyConstants is returned when a constant cannot be added or addressed.
	ErrTooManyConstants = errors.New("bytecode: too many constants in one chunk")

	// ErrChunkReleased is returned when writing to a chunk after Free.
	ErrChunkReleased = errors.New("bytecode: chunk has been released")

	// ErrJumpTooLarge is returned when a jump distance does not fit in two bytes.
	ErrJumpTooLarge = errors.New("bytecode: too much code to jump over")

	// ErrOffsetOutOfRange is returned when patching outside the code section.
	ErrOffsetOutOfRange = errors.New("bytecode: offset out of range")
)

// Chunk is the compiled code of one function or script: instruction bytes,
// the source line of every byte, and the literal constants the instructions
// refer to.
//
// Code and lines are only ever appended together, so Count() always equals
// the number of line entries. The zero value is an empty, usable chunk.
type Chunk struct {
	code      []byte
	lines     []int
	constants []value.Value
	released  bool
}

// NewChunk creates a new empty chunk.
func NewChunk() *Chunk {
	return &Chunk{}
}

// Init resets the chunk to empty, making a released chunk usable again.
func (c *Chunk) Init() {
	c.code = nil
	c.lines = nil
	c.constants = nil
	c.released = false
}

// Free drops all storage held by the chunk. Writes fail with
// ErrChunkReleased until Init is called.
func (c *Chunk) Free() {
	c.Init()
	c.released = true
}

// Released reports whether Free has been called since the last Init.
func (c *Chunk) Released() bool {
	return c.released
}

// Write appends one instruction or operand byte along with the source line
// that produced it.
func (c *Chunk) Write(b byte, line int) error {
	if c.released {
		return ErrChunkReleased
	}
	if len(c.code) == cap(c.code) {
		if err := c.grow(); err != nil {
			return err
		}
	}
	c.code = append(c.code, b)
	c.lines = append(c.lines, line)
	return nil
}

// grow doubles the shared capacity of code and lines.
func (c *Chunk) grow() error {
	if len(c.code) >= MaxCodeSize {
		return ErrChunkTooLarge
	}
	newCap := cap(c.code) * 2
	if newCap < minCapacity {
		newCap = minCapacity
	}
	if newCap > MaxCodeSize {
		newCap = MaxCodeSize
	}

	code := make([]byte, len(c.code), newCap)
	copy(code, c.code)
	lines := make([]int, len(c.lines), newCap)
	copy(lines, c.lines)

	c.code = code
	c.lines = lines
	return nil
}

// WriteOp appends a single opcode byte.
func (c *Chunk) WriteOp(op Opcode, line int) error {
	return c.Write(byte(op), line)
}

// AddConstant appends v to the constant pool and returns its index. Equal
// values are not merged: every call gets a fresh index.
func (c *Chunk) AddConstant(v value.Value) (int, error) {
	if c.released {
		return 0, ErrChunkReleased
	}
	if len(c.constants) >= MaxConstants {
		return 0, ErrTooManyConstants
	}
	c.constants = append(c.constants, v)
	return len(c.constants) - 1, nil
}

// WriteConstant adds v to the pool and emits OpConstant with its index. When
// the index does not fit in one byte it returns ErrTooManyConstants without
// emitting code; v stays in the pool.
func (c *Chunk) WriteConstant(v value.Value, line int) (int, error) {
	idx, err := c.AddConstant(v)
	if err != nil {
		return 0, err
	}
	if idx > MaxConstantIndex {
		return idx, ErrTooManyConstants
	}
	if err := c.WriteOp(OpConstant, line); err != nil {
		return idx, err
	}
	return idx, c.Write(byte(idx), line)
}

// EmitJump emits a jump instruction with a placeholder distance.
// Returns the offset of the placeholder for PatchJump.
func (c *Chunk) EmitJump(op Opcode, line int) (int, error) {
	if err := c.WriteOp(op, line); err != nil {
		return 0, err
	}
	if err := c.Write(0xFF, line); err != nil {
		return 0, err
	}
	if err := c.Write(0xFF, line); err != nil {
		return 0, err
	}
	return len(c.code) - 2, nil
}

// PatchJump backpatches the placeholder at offset so the jump lands on the
// current end of the code section.
func (c *Chunk) PatchJump(offset int) error {
	if offset < 0 || offset+1 >= len(c.code) {
		return ErrOffsetOutOfRange
	}
	// Distance is measured from the byte after the operand.
	jump := len(c.code) - offset - 2
	if jump > MaxJump {
		return ErrJumpTooLarge
	}
	c.code[offset] = byte(jump >> 8)
	c.code[offset+1] = byte(jump)
	return nil
}

// EmitLoop emits a backward jump to loopStart.
func (c *Chunk) EmitLoop(loopStart int, line int) error {
	if loopStart < 0 || loopStart > len(c.code) {
		return ErrOffsetOutOfRange
	}
	// The VM has read the whole instruction when it applies the distance.
	jump := len(c.code) + 3 - loopStart
	if jump > MaxJump {
		return ErrJumpTooLarge
	}
	if err := c.WriteOp(OpLoop, line); err != nil {
		return err
	}
	if err := c.Write(byte(jump>>8), line); err != nil {
		return err
	}
	return c.Write(byte(jump), line)
}

// PatchByte overwrites one already-written byte in place.
func (c *Chunk) PatchByte(offset int, b byte) error {
	if offset < 0 || offset >= len(c.code) {
		return ErrOffsetOutOfRange
	}
	c.code[offset] = b
	return nil
}

// Code returns the code section. Callers must not modify it.
func (c *Chunk) Code() []byte {
	return c.code
}

// Lines returns the line of every code byte. Callers must not modify it.
func (c *Chunk) Lines() []int {
	return c.lines
}

// Constants returns the constant pool. Callers must not modify it.
func (c *Chunk) Constants() []value.Value {
	return c.constants
}

// Count returns the number of bytes in the code section.
func (c *Chunk) Count() int {
	return len(c.code)
}

// Capacity returns the allocated size of the code section.
func (c *Chunk) Capacity() int {
	return cap(c.code)
}

// ConstantCount returns the number of constants in the pool.
func (c *Chunk) ConstantCount() int {
	return len(c.constants)
}

// Constant returns the constant at index, or false if it is out of range.
func (c *Chunk) Constant(index int) (value.Value, bool) {
	if index < 0 || index >= len(c.constants) {
		return value.Value{}, false
	}
	return c.constants[index], true
}

// LineAt returns the source line of the byte at offset, or 0 if out of range.
func (c *Chunk) LineAt(offset int) int {
	if offset < 0 || offset >= len(c.lines) {
		return 0
	}
	return c.lines[offset]
}
