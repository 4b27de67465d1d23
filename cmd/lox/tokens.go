package main

import (
	"fmt"
	"io"
	"os"

	"github.com/chazu/lox/compiler"
)

func (e *env) tokens(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(e.stderr, "Usage: lox tokens FILE")
		return 2
	}

	source, err := os.ReadFile(args[0])
	if err != nil {
		return e.fail("%v", err)
	}

	if printTokens(e.stdout, string(source)) > 0 {
		return 1
	}
	return 0
}

// printTokens writes one line per token in the classic scanner dump format and
// returns the number of error tokens seen.
func printTokens(w io.Writer, source string) int {
	s := compiler.NewScanner(source)
	line := -1
	errors := 0
	for {
		tok := s.ScanToken()
		if tok.Line != line {
			fmt.Fprintf(w, "%4d ", tok.Line)
			line = tok.Line
		} else {
			fmt.Fprintf(w, "   | ")
		}
		fmt.Fprintf(w, "%-13s '%s'\n", tok.Type, tok.Lexeme)

		switch tok.Type {
		case compiler.TokenError:
			errors++
		case compiler.TokenEOF:
			return errors
		}
	}
}
