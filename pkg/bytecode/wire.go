package bytecode

import (
	"crypto/sha256"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/lox/pkg/value"
)

// wireChunk is the CBOR shape of a Chunk.
type wireChunk struct {
	Code      []byte        `cbor:"1,keyasint"`
	Lines     []int         `cbor:"2,keyasint"`
	Constants []value.Value `cbor:"3,keyasint"`
}

// cborEncMode uses canonical mode so equal chunks encode to equal bytes.
var cborEncMode cbor.EncMode

// cborDecMode accepts arrays as long as the largest chunk allows.
var cborDecMode cbor.DecMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em

	dm, err := cbor.DecOptions{MaxArrayElements: max(MaxCodeSize, MaxConstants)}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR dec mode: %v", err))
	}
	cborDecMode = dm
}

// MarshalChunk serializes a Chunk to canonical CBOR bytes.
func MarshalChunk(c *Chunk) ([]byte, error) {
	if c.released {
		return nil, ErrChunkReleased
	}
	return cborEncMode.Marshal(wireChunk{
		Code:      c.code,
		Lines:     c.lines,
		Constants: c.constants,
	})
}

// UnmarshalChunk deserializes a Chunk from CBOR bytes.
func UnmarshalChunk(data []byte) (*Chunk, error) {
	var w wireChunk
	if err := cborDecMode.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal chunk: %w", err)
	}
	if len(w.Code) != len(w.Lines) {
		return nil, fmt.Errorf("bytecode: unmarshal chunk: %d code bytes but %d lines", len(w.Code), len(w.Lines))
	}
	if len(w.Code) > MaxCodeSize {
		return nil, ErrChunkTooLarge
	}
	if len(w.Constants) > MaxConstants {
		return nil, ErrTooManyConstants
	}
	return &Chunk{
		code:      w.Code,
		lines:     w.Lines,
		constants: w.Constants,
	}, nil
}

// ContentHash returns the SHA-256 of the chunk's canonical CBOR encoding.
func ContentHash(c *Chunk) ([32]byte, error) {
	data, err := MarshalChunk(c)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(data), nil
}
