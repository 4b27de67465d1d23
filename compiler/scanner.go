package compiler

import "unicode/utf8"

// ---------------------------------------------------------------------------
// Scanner: on-demand tokenizer for Lox source
// ---------------------------------------------------------------------------

const (
	msgUnterminatedString = "Unterminated String."
	msgUnexpectedChar     = "Unexpected character."
	msgNotInitialized     = "Scanner not initialized."
)

// Scanner produces one token per ScanToken call. It keeps no state between
// tokens beyond its cursors, so a Scanner must not be shared between
// goroutines; independent scanners over the same source are fine.
type Scanner struct {
	source    string
	start     int // offset of the token being scanned
	current   int // offset of the next unconsumed byte
	line      int // newlines consumed so far, plus one
	startLine int // line at start
	ready     bool
}

// NewScanner creates a scanner positioned at the beginning of source.
func NewScanner(source string) *Scanner {
	s := &Scanner{}
	s.Init(source)
	return s
}

// Init binds the scanner to source and resets its cursors.
func (s *Scanner) Init(source string) {
	s.source = source
	s.start = 0
	s.current = 0
	s.line = 1
	s.startLine = 1
	s.ready = true
}

// Line returns the scanner's current line counter.
func (s *Scanner) Line() int {
	return s.line
}

// ScanToken returns the next token. Lexical errors come back as TokenError
// tokens carrying a message; once the input is exhausted every call returns
// TokenEOF.
func (s *Scanner) ScanToken() Token {
	if !s.ready {
		s.Init("")
		return s.errorToken(msgNotInitialized)
	}

	s.skipWhitespace()
	s.start = s.current
	s.startLine = s.line

	if s.isAtEnd() {
		return s.makeToken(TokenEOF)
	}

	c := s.advance()
	if isAlpha(c) {
		return s.readIdentifier()
	}
	if isDigit(c) {
		return s.readNumber()
	}

	switch c {
	case '(':
		return s.makeToken(TokenLeftParen)
	case ')':
		return s.makeToken(TokenRightParen)
	case '{':
		return s.makeToken(TokenLeftBrace)
	case '}':
		return s.makeToken(TokenRightBrace)
	case ';':
		return s.makeToken(TokenSemicolon)
	case ',':
		return s.makeToken(TokenComma)
	case '.':
		return s.makeToken(TokenDot)
	case '-':
		return s.makeToken(TokenMinus)
	case '+':
		return s.makeToken(TokenPlus)
	case '/':
		return s.makeToken(TokenSlash)
	case '*':
		return s.makeToken(TokenStar)
	case '!':
		return s.makeToken(s.pick('=', TokenBangEqual, TokenBang))
	case '=':
		return s.makeToken(s.pick('=', TokenEqualEqual, TokenEqual))
	case '<':
		return s.makeToken(s.pick('=', TokenLessEqual, TokenLess))
	case '>':
		return s.makeToken(s.pick('=', TokenGreaterEqual, TokenGreater))
	case '"':
		return s.readString()
	}

	// Consume the whole character so one bad rune yields one error token.
	if c >= utf8.RuneSelf {
		_, size := utf8.DecodeRuneInString(s.source[s.start:])
		s.current = s.start + size
	}
	return s.errorToken(msgUnexpectedChar)
}

func (s *Scanner) isAtEnd() bool {
	return s.current >= len(s.source)
}

func (s *Scanner) advance() byte {
	s.current++
	return s.source[s.current-1]
}

func (s *Scanner) peek() byte {
	if s.isAtEnd() {
		return 0
	}
	return s.source[s.current]
}

func (s *Scanner) peekNext() byte {
	if s.current+1 >= len(s.source) {
		return 0
	}
	return s.source[s.current+1]
}

// match consumes the next byte if it equals expected.
func (s *Scanner) match(expected byte) bool {
	if s.isAtEnd() || s.source[s.current] != expected {
		return false
	}
	s.current++
	return true
}

// pick returns matched if the next byte is expected (consuming it), else bare.
func (s *Scanner) pick(expected byte, matched, bare TokenType) TokenType {
	if s.match(expected) {
		return matched
	}
	return bare
}

func (s *Scanner) makeToken(typ TokenType) Token {
	return Token{
		Type:   typ,
		Lexeme: s.source[s.start:s.current],
		Start:  s.start,
		Line:   s.startLine,
	}
}

func (s *Scanner) errorToken(message string) Token {
	return Token{
		Type:   TokenError,
		Lexeme: message,
		Start:  s.start,
		Line:   s.startLine,
	}
}

// skipWhitespace skips blanks, newlines and // comments.
func (s *Scanner) skipWhitespace() {
	for {
		switch s.peek() {
		case ' ', '\r', '\t':
			s.current++
		case '\n':
			s.line++
			s.current++
		case '/':
			if s.peekNext() != '/' {
				return
			}
			for s.peek() != '\n' && !s.isAtEnd() {
				s.current++
			}
		default:
			return
		}
	}
}

func (s *Scanner) readIdentifier() Token {
	for isAlpha(s.peek()) || isDigit(s.peek()) {
		s.current++
	}
	return s.makeToken(LookupKeyword(s.source[s.start:s.current]))
}

// readNumber scans digits with an optional fraction. A '.' not followed by a
// digit is left for the next token.
func (s *Scanner) readNumber() Token {
	for isDigit(s.peek()) {
		s.current++
	}
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.current++ // consume .
		for isDigit(s.peek()) {
			s.current++
		}
	}
	return s.makeToken(TokenNumber)
}

// readString scans to the closing quote. Newlines are allowed inside.
func (s *Scanner) readString() Token {
	for s.peek() != '"' && !s.isAtEnd() {
		if s.peek() == '\n' {
			s.line++
		}
		s.current++
	}

	if s.isAtEnd() {
		return s.errorToken(msgUnterminatedString)
	}

	s.current++ // closing "
	return s.makeToken(TokenString)
}

// Helper functions

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// Tokenize scans source to the end and returns every token, including error
// tokens. The last token is always TokenEOF.
func Tokenize(source string) []Token {
	s := NewScanner(source)
	var tokens []Token
	for {
		tok := s.ScanToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			break
		}
	}
	return tokens
}
