package value

import (
	"math"
	"testing"
)

func TestValueString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Nil(), "nil"},
		{Bool(true), "true"},
		{Bool(false), "false"},
		{Number(1.2), "1.2"},
		{Number(3), "3"},
		{Number(-0.5), "-0.5"},
		{String("hi"), "hi"},
		{Value{Kind: Kind(9)}, "<Kind(9)>"},
	}

	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestValueEqual(t *testing.T) {
	tests := []struct {
		a, b Value
		want bool
	}{
		{Nil(), Nil(), true},
		{Bool(true), Bool(true), true},
		{Bool(true), Bool(false), false},
		{Number(1), Number(1), true},
		{Number(1), Number(2), false},
		{String("a"), String("a"), true},
		{String("a"), String("b"), false},
		{Number(0), Bool(false), false},
		{Nil(), String(""), false},
		{Number(math.NaN()), Number(math.NaN()), false},
	}

	for _, tt := range tests {
		if got := tt.a.Equal(tt.b); got != tt.want {
			t.Errorf("%v.Equal(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestKindString(t *testing.T) {
	if KindNumber.String() != "number" {
		t.Errorf("KindNumber.String() = %q", KindNumber.String())
	}
	if !Nil().IsNil() || Number(0).IsNil() {
		t.Error("IsNil mismatch")
	}
}
