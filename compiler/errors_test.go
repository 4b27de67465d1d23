package compiler

import "testing"

func TestLexErrorsCollectsAll(t *testing.T) {
	source := "var a = @;\nprint \"ok\";\n  # \"open"

	errs := LexErrors(source)
	if len(errs) != 3 {
		t.Fatalf("got %d errors, want 3: %v", len(errs), errs)
	}

	want := []struct {
		line, col int
		msg       string
	}{
		{1, 9, "Unexpected character."},
		{3, 3, "Unexpected character."},
		{3, 5, "Unterminated String."},
	}
	for i, w := range want {
		e := errs[i]
		if e.Line != w.line || e.Column != w.col || e.Message != w.msg {
			t.Errorf("errs[%d] = %d:%d %q, want %d:%d %q", i, e.Line, e.Column, e.Message, w.line, w.col, w.msg)
		}
	}

	for i, length := range []int{1, 1, 0} {
		if errs[i].Length != length {
			t.Errorf("errs[%d].Length = %d, want %d", i, errs[i].Length, length)
		}
	}

	if got := errs[0].Error(); got != "1:9: Unexpected character." {
		t.Errorf("Error() = %q", got)
	}
}

func TestLexErrorsClean(t *testing.T) {
	if errs := LexErrors("fun f() { return 1; }"); len(errs) != 0 {
		t.Errorf("got %d errors, want 0: %v", len(errs), errs)
	}
}

func TestPosition(t *testing.T) {
	source := "ab\ncde\n\nf"
	tests := []struct {
		offset    int
		line, col int
	}{
		{0, 1, 1},
		{1, 1, 2},
		{2, 1, 3},
		{3, 2, 1},
		{5, 2, 3},
		{7, 3, 1},
		{8, 4, 1},
		{100, 4, 2},
		{-1, 1, 1},
	}

	for _, tc := range tests {
		line, col := Position(source, tc.offset)
		if line != tc.line || col != tc.col {
			t.Errorf("Position(%d) = %d:%d, want %d:%d", tc.offset, line, col, tc.line, tc.col)
		}
	}
}
