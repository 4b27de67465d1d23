package bytecode

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/chazu/lox/pkg/value"
)

func sampleChunk(t *testing.T) *Chunk {
	t.Helper()
	c := NewChunk()
	mustOK(t, c.WriteOp(OpNil, 1))
	_, err := c.WriteConstant(value.Number(math.Pi), 2)
	mustOK(t, err)
	_, err = c.WriteConstant(value.String("hello\nworld"), 3)
	mustOK(t, err)
	_, err = c.WriteConstant(value.Bool(true), 3)
	mustOK(t, err)
	_, err = c.WriteConstant(value.Nil(), 4)
	mustOK(t, err)
	_, err = c.WriteConstant(value.Number(math.Pi), 5)
	mustOK(t, err)
	mustOK(t, c.WriteOp(OpReturn, 5))
	return c
}

func mustOK(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func assertSameChunk(t *testing.T, got, want *Chunk) {
	t.Helper()
	if !bytes.Equal(got.Code(), want.Code()) {
		t.Errorf("code = %v, want %v", got.Code(), want.Code())
	}
	if len(got.Lines()) != len(want.Lines()) {
		t.Fatalf("lines = %v, want %v", got.Lines(), want.Lines())
	}
	for i := range want.Lines() {
		if got.Lines()[i] != want.Lines()[i] {
			t.Errorf("lines[%d] = %d, want %d", i, got.Lines()[i], want.Lines()[i])
		}
	}
	if got.ConstantCount() != want.ConstantCount() {
		t.Fatalf("constants = %v, want %v", got.Constants(), want.Constants())
	}
	for i, v := range want.Constants() {
		if !got.Constants()[i].Equal(v) {
			t.Errorf("constant[%d] = %v, want %v", i, got.Constants()[i], v)
		}
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	c := sampleChunk(t)

	data, err := c.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if !bytes.HasPrefix(data, Magic) {
		t.Errorf("missing magic: %q", data[:4])
	}

	got, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	assertSameChunk(t, got, c)

	// A decoded chunk keeps accepting writes.
	if err := got.WriteOp(OpPop, 9); err != nil {
		t.Errorf("Write after Deserialize: %v", err)
	}
	if got.Count() != len(got.Lines()) {
		t.Errorf("code %d lines %d", got.Count(), len(got.Lines()))
	}
}

func TestSerializeEmpty(t *testing.T) {
	data, err := NewChunk().Serialize()
	if err != nil {
		t.Fatal(err)
	}
	got, err := Deserialize(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.Count() != 0 || got.ConstantCount() != 0 {
		t.Errorf("round trip of empty chunk not empty: %d code, %d constants", got.Count(), got.ConstantCount())
	}
}

func TestSerializeReleased(t *testing.T) {
	c := NewChunk()
	c.Free()
	if _, err := c.Serialize(); !errors.Is(err, ErrChunkReleased) {
		t.Errorf("err = %v, want ErrChunkReleased", err)
	}
}

func TestDeserializeErrors(t *testing.T) {
	good, err := sampleChunk(t).Serialize()
	if err != nil {
		t.Fatal(err)
	}

	newer := append([]byte{}, good...)
	newer[5] = 99

	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"short", []byte("LX"), "too short"},
		{"magic", []byte("NOPE\x00\x01\x00\x00\x00\x00"), "invalid bytecode magic"},
		{"version", newer, "newer than supported"},
		{"truncated code", good[:12], "code section"},
		{"truncated constants", good[:len(good)-3], "unexpected end"},
		{"trailing", append(append([]byte{}, good...), 0), "trailing"},
	}

	for _, tt := range tests {
		_, err := Deserialize(tt.data)
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: err = %v, want containing %q", tt.name, err, tt.want)
		}
	}
}
