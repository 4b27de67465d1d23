// Package bytecode holds compiled Lox code: opcodes, the Chunk container that
// pairs every code byte with its source line, and the tools that read chunks
// back out.
//
// # Architecture Overview
//
//   - Opcodes: one-byte instructions with zero to two operand bytes. The
//     operand shape of each opcode is recorded in a table that the
//     disassembler and the decoders share.
//
//   - Chunk: a growable code array, a parallel line array of the same length,
//     and a constant pool. Code and lines only ever grow together, so
//     len(Code()) == len(Lines()) holds after every call.
//
//   - Disassembler: renders a chunk in the classic listing format, one
//     instruction per line, with "|" marking a repeated source line.
//
//   - Encodings: Serialize/Deserialize use the "LXBC" binary file format;
//     MarshalChunk/UnmarshalChunk use canonical CBOR so equal chunks hash to
//     equal ContentHash values.
//
// # Limits
//
// A chunk holds at most MaxCodeSize bytes and MaxConstants constants. Writes
// past either limit return an error and leave the chunk unchanged. OP_CONSTANT
// carries a one-byte index, so WriteConstant emits no code for an index above
// MaxConstantIndex; the constant itself has already been added to the pool by
// then. Jump operands are 16 bits wide.
//
// # Example
//
//	c := bytecode.NewChunk()
//	c.WriteConstant(value.Number(1.2), 123)
//	c.WriteOp(bytecode.OpReturn, 123)
//	fmt.Print(c.Disassemble("test chunk"))
//
// Output:
//
//	== test chunk ==
//	0000  123 OP_CONSTANT         0 '1.2'
//	0002    | OP_RETURN
package bytecode
