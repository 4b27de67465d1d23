package compiler

import (
	"fmt"
	"strings"
)

// LexError is a lexical error lifted out of a TokenError token.
type LexError struct {
	Line    int // 1-based
	Column  int // 1-based, in bytes
	Offset  int
	Length  int // bytes covered; 0 for an unterminated string
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// LexErrors scans source and returns every lexical error in order. The
// scanner keeps going after each error, so one pass reports them all.
func LexErrors(source string) []*LexError {
	var errs []*LexError
	s := NewScanner(source)
	for {
		tok := s.ScanToken()
		if tok.Type == TokenEOF {
			return errs
		}
		if tok.Type != TokenError {
			continue
		}
		line, col := Position(source, tok.Start)
		length := s.current - tok.Start
		if tok.Lexeme == msgUnterminatedString {
			length = 0
		}
		errs = append(errs, &LexError{
			Line:    line,
			Column:  col,
			Offset:  tok.Start,
			Length:  length,
			Message: tok.Lexeme,
		})
	}
}

// Position converts a byte offset into a 1-based line and column.
// Offsets past the end are clamped to the end of source.
func Position(source string, offset int) (line, column int) {
	if offset > len(source) {
		offset = len(source)
	}
	if offset < 0 {
		offset = 0
	}
	prefix := source[:offset]
	line = strings.Count(prefix, "\n") + 1
	column = offset - (strings.LastIndexByte(prefix, '\n') + 1) + 1
	return line, column
}
