package bytecode

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/chazu/lox/pkg/value"
)

// FormatVersion is the current binary chunk format version.
// Increment when making incompatible changes to the format.
const FormatVersion uint16 = 1

// Magic bytes for chunk files: "LXBC" (LoX ByteCode)
var Magic = []byte{'L', 'X', 'B', 'C'}

// Serialize encodes the chunk to bytes for storage/transport.
// Format:
//
//	[magic:4] [version:2]
//	[code_len:4] [code:...] [lines:code_len*4]
//	[const_count:4] [constants:...]
//
// Each constant is a kind byte followed by its payload: nothing for nil, one
// byte for bool, eight bytes of IEEE-754 bits for number, and a u32 length
// plus bytes for string.
func (c *Chunk) Serialize() ([]byte, error) {
	if c.released {
		return nil, ErrChunkReleased
	}

	estimatedSize := 14 + len(c.code)*5 + len(c.constants)*16
	buf := make([]byte, 0, estimatedSize)

	buf = append(buf, Magic...)
	buf = binary.BigEndian.AppendUint16(buf, FormatVersion)

	// Code and lines
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(c.code)))
	buf = append(buf, c.code...)
	for _, line := range c.lines {
		buf = binary.BigEndian.AppendUint32(buf, uint32(int32(line)))
	}

	// Constants
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(c.constants)))
	for i, v := range c.constants {
		buf = append(buf, byte(v.Kind))
		switch v.Kind {
		case value.KindNil:
		case value.KindBool:
			if v.Bool {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		case value.KindNumber:
			buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(v.Number))
		case value.KindString:
			buf = binary.BigEndian.AppendUint32(buf, uint32(len(v.Str)))
			buf = append(buf, v.Str...)
		default:
			return nil, fmt.Errorf("constant %d has unknown kind %d", i, v.Kind)
		}
	}

	return buf, nil
}

// Deserialize decodes a chunk from bytes.
func Deserialize(data []byte) (*Chunk, error) {
	if len(data) < 6 {
		return nil, fmt.Errorf("bytecode too short: need at least 6 bytes, got %d", len(data))
	}
	if string(data[0:4]) != string(Magic) {
		return nil, fmt.Errorf("invalid bytecode magic: expected %q, got %q", Magic, data[0:4])
	}
	version := binary.BigEndian.Uint16(data[4:6])
	if version > FormatVersion {
		return nil, fmt.Errorf("bytecode version %d is newer than supported version %d", version, FormatVersion)
	}
	pos := 6

	// Code section
	if pos+4 > len(data) {
		return nil, fmt.Errorf("unexpected end of bytecode reading code length at pos %d", pos)
	}
	codeLen := int(binary.BigEndian.Uint32(data[pos:]))
	pos += 4
	if codeLen > MaxCodeSize {
		return nil, fmt.Errorf("code length %d: %w", codeLen, ErrChunkTooLarge)
	}
	if pos+codeLen*5 > len(data) {
		return nil, fmt.Errorf("unexpected end of bytecode reading code section: need %d bytes at pos %d", codeLen*5, pos)
	}

	c := &Chunk{
		code:  make([]byte, codeLen),
		lines: make([]int, codeLen),
	}
	copy(c.code, data[pos:pos+codeLen])
	pos += codeLen
	for i := range c.lines {
		c.lines[i] = int(int32(binary.BigEndian.Uint32(data[pos:])))
		pos += 4
	}

	// Constants
	if pos+4 > len(data) {
		return nil, fmt.Errorf("unexpected end of bytecode reading constant count")
	}
	constCount := int(binary.BigEndian.Uint32(data[pos:]))
	pos += 4
	if constCount > MaxConstants {
		return nil, fmt.Errorf("constant count %d: %w", constCount, ErrTooManyConstants)
	}

	for i := 0; i < constCount; i++ {
		if pos >= len(data) {
			return nil, fmt.Errorf("unexpected end of bytecode reading constant %d kind", i)
		}
		kind := value.Kind(data[pos])
		pos++

		var v value.Value
		switch kind {
		case value.KindNil:
			v = value.Nil()
		case value.KindBool:
			if pos >= len(data) {
				return nil, fmt.Errorf("unexpected end of bytecode reading constant %d", i)
			}
			v = value.Bool(data[pos] != 0)
			pos++
		case value.KindNumber:
			if pos+8 > len(data) {
				return nil, fmt.Errorf("unexpected end of bytecode reading constant %d", i)
			}
			v = value.Number(math.Float64frombits(binary.BigEndian.Uint64(data[pos:])))
			pos += 8
		case value.KindString:
			if pos+4 > len(data) {
				return nil, fmt.Errorf("unexpected end of bytecode reading constant %d length", i)
			}
			strLen := int(binary.BigEndian.Uint32(data[pos:]))
			pos += 4
			if strLen > len(data)-pos {
				return nil, fmt.Errorf("unexpected end of bytecode reading constant %d", i)
			}
			v = value.String(string(data[pos : pos+strLen]))
			pos += strLen
		default:
			return nil, fmt.Errorf("constant %d has unknown kind %d", i, kind)
		}
		c.constants = append(c.constants, v)
	}

	if pos != len(data) {
		return nil, fmt.Errorf("%d trailing bytes after constants", len(data)-pos)
	}

	return c, nil
}
