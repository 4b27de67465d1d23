package bytecode

import "fmt"

// Opcode is the first byte of every instruction. The operand bytes that
// follow, if any, are fixed by the opcode.
type Opcode byte

const (
	OpConstant     Opcode = iota // Push constant: OpConstant <index:u8>
	OpReturn                     // Return from the current function
	OpNegate                     // Negate top of stack
	OpPrint                      // Pop and print
	OpJump                       // Unconditional forward jump: OpJump <offset:u16>
	OpJumpIfFalse                // Jump if top is falsey: OpJumpIfFalse <offset:u16>
	OpLoop                       // Backward jump: OpLoop <offset:u16>
	OpCall                       // Call: OpCall <argc:u8>
	OpClosure                    // Make closure: OpClosure <fn:u8> then <isLocal:u8 index:u8> per upvalue
	OpCloseUpvalue               // Hoist top-of-stack local into its upvalue
	OpAdd                        // Pop two, push sum
	OpSubtract                   // Pop two, push difference
	OpMultiply                   // Pop two, push product
	OpDivide                     // Pop two, push quotient
	OpNil                        // Push nil
	OpTrue                       // Push true
	OpFalse                      // Push false
	OpPop                        // Pop top of stack
	OpGetLocal                   // Push local: OpGetLocal <slot:u8>
	OpSetLocal                   // Store local: OpSetLocal <slot:u8>
	OpGetGlobal                  // Push global: OpGetGlobal <name:u8>
	OpGetUpvalue                 // Push upvalue: OpGetUpvalue <slot:u8>
	OpSetUpvalue                 // Store upvalue: OpSetUpvalue <slot:u8>
	OpDefineGlobal               // Define global: OpDefineGlobal <name:u8>
	OpSetGlobal                  // Store global: OpSetGlobal <name:u8>
	OpNot                        // Logical not
	OpEqual                      // Pop two, push equality
	OpGreater                    // Pop two, push a > b
	OpLess                       // Pop two, push a < b
	OpClass                      // Push new class: OpClass <name:u8>
	OpSetProperty                // Store field: OpSetProperty <name:u8>
	OpGetProperty                // Push field: OpGetProperty <name:u8>
)

// OperandKind says how the disassembler should read an instruction's operands.
type OperandKind uint8

const (
	OperandNone     OperandKind = iota
	OperandConstant             // u8 index into the constant pool
	OperandByte                 // u8 slot or count
	OperandJump                 // u16 big-endian distance
	OperandClosure              // u8 constant index plus upvalue pairs
)

// OpcodeInfo provides metadata about each opcode for debugging and validation.
type OpcodeInfo struct {
	Name       string      // Human-readable name
	OperandLen int         // Fixed operand bytes following the opcode
	Operand    OperandKind // How the operand bytes are interpreted
}

var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpConstant:     {"OP_CONSTANT", 1, OperandConstant},
	OpReturn:       {"OP_RETURN", 0, OperandNone},
	OpNegate:       {"OP_NEGATE", 0, OperandNone},
	OpPrint:        {"OP_PRINT", 0, OperandNone},
	OpJump:         {"OP_JUMP", 2, OperandJump},
	OpJumpIfFalse:  {"OP_JUMP_IF_FALSE", 2, OperandJump},
	OpLoop:         {"OP_LOOP", 2, OperandJump},
	OpCall:         {"OP_CALL", 1, OperandByte},
	OpClosure:      {"OP_CLOSURE", 1, OperandClosure},
	OpCloseUpvalue: {"OP_CLOSE_UPVALUE", 0, OperandNone},
	OpAdd:          {"OP_ADDITION", 0, OperandNone},
	OpSubtract:     {"OP_SUBTRACTION", 0, OperandNone},
	OpMultiply:     {"OP_MULTIPLY", 0, OperandNone},
	OpDivide:       {"OP_DIVIDE", 0, OperandNone},
	OpNil:          {"OP_NIL", 0, OperandNone},
	OpTrue:         {"OP_TRUE", 0, OperandNone},
	OpFalse:        {"OP_FALSE", 0, OperandNone},
	OpPop:          {"OP_POP", 0, OperandNone},
	OpGetLocal:     {"OP_GET_LOCAL", 1, OperandByte},
	OpSetLocal:     {"OP_SET_LOCAL", 1, OperandByte},
	OpGetGlobal:    {"OP_GET_GLOBAL", 1, OperandConstant},
	OpGetUpvalue:   {"OP_GET_UPVALUE", 1, OperandByte},
	OpSetUpvalue:   {"OP_SET_UPVALUE", 1, OperandByte},
	OpDefineGlobal: {"OP_DEFINE_GLOBAL", 1, OperandConstant},
	OpSetGlobal:    {"OP_SET_GLOBAL", 1, OperandConstant},
	OpNot:          {"OP_NOT", 0, OperandNone},
	OpEqual:        {"OP_EQUAL", 0, OperandNone},
	OpGreater:      {"OP_GREATER", 0, OperandNone},
	OpLess:         {"OP_LESS", 0, OperandNone},
	OpClass:        {"OP_CLASS", 1, OperandConstant},
	OpSetProperty:  {"OP_SET_PROPERTY", 1, OperandConstant},
	OpGetProperty:  {"OP_GET_PROPERTY", 1, OperandConstant},
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns an OpcodeInfo named "UNKNOWN(0xNN)" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// IsValid reports whether op is a defined opcode.
func (op Opcode) IsValid() bool {
	_, ok := opcodeInfoTable[op]
	return ok
}

// String returns the human-readable name of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// OperandLen returns the number of fixed operand bytes for this opcode.
// OpClosure carries a further two bytes per captured upvalue, which only the
// function constant it references can size.
func (op Opcode) OperandLen() int {
	return GetOpcodeInfo(op).OperandLen
}

// InstructionLen returns the fixed length of an instruction (1 + operand bytes).
func (op Opcode) InstructionLen() int {
	return 1 + op.OperandLen()
}

// IsJump returns true if this opcode carries a jump distance.
func (op Opcode) IsJump() bool {
	return op == OpJump || op == OpJumpIfFalse || op == OpLoop
}

// AllOpcodes returns every defined opcode in encoding order.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := OpConstant; op <= OpGetProperty; op++ {
		opcodes = append(opcodes, op)
	}
	return opcodes
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}
