package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Token types for the Lox scanner
// ---------------------------------------------------------------------------

// TokenType represents the lexical category of a token.
type TokenType int

const (
	// Single-character tokens
	TokenLeftParen TokenType = iota
	TokenRightParen
	TokenLeftBrace
	TokenRightBrace
	TokenComma
	TokenDot
	TokenMinus
	TokenPlus
	TokenSemicolon
	TokenSlash
	TokenStar

	// One or two character tokens
	TokenBang
	TokenBangEqual
	TokenEqual
	TokenEqualEqual
	TokenGreater
	TokenGreaterEqual
	TokenLess
	TokenLessEqual

	// Literals
	TokenIdentifier
	TokenString
	TokenNumber

	// Keywords
	TokenAnd
	TokenClass
	TokenElse
	TokenFalse
	TokenFor
	TokenFun
	TokenIf
	TokenNil
	TokenOr
	TokenPrint
	TokenReturn
	TokenSuper
	TokenThis
	TokenTrue
	TokenVar
	TokenWhile

	// Special tokens
	TokenError
	TokenEOF
)

var tokenNames = map[TokenType]string{
	TokenLeftParen:    "LEFT_PAREN",
	TokenRightParen:   "RIGHT_PAREN",
	TokenLeftBrace:    "LEFT_BRACE",
	TokenRightBrace:   "RIGHT_BRACE",
	TokenComma:        "COMMA",
	TokenDot:          "DOT",
	TokenMinus:        "MINUS",
	TokenPlus:         "PLUS",
	TokenSemicolon:    "SEMICOLON",
	TokenSlash:        "SLASH",
	TokenStar:         "STAR",
	TokenBang:         "BANG",
	TokenBangEqual:    "BANG_EQUAL",
	TokenEqual:        "EQUAL",
	TokenEqualEqual:   "EQUAL_EQUAL",
	TokenGreater:      "GREATER",
	TokenGreaterEqual: "GREATER_EQUAL",
	TokenLess:         "LESS",
	TokenLessEqual:    "LESS_EQUAL",
	TokenIdentifier:   "IDENTIFIER",
	TokenString:       "STRING",
	TokenNumber:       "NUMBER",
	TokenAnd:          "AND",
	TokenClass:        "CLASS",
	TokenElse:         "ELSE",
	TokenFalse:        "FALSE",
	TokenFor:          "FOR",
	TokenFun:          "FUN",
	TokenIf:           "IF",
	TokenNil:          "NIL",
	TokenOr:           "OR",
	TokenPrint:        "PRINT",
	TokenReturn:       "RETURN",
	TokenSuper:        "SUPER",
	TokenThis:         "THIS",
	TokenTrue:         "TRUE",
	TokenVar:          "VAR",
	TokenWhile:        "WHILE",
	TokenError:        "ERROR",
	TokenEOF:          "EOF",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", t)
}

// IsKeyword reports whether t is one of the reserved words.
func (t TokenType) IsKeyword() bool {
	return t >= TokenAnd && t <= TokenWhile
}

// Token is a single lexical token.
//
// Lexeme is a substring of the scanned source and shares its backing memory;
// callers that need the text to outlive the source should copy it. For
// TokenError the lexeme is the error message instead.
type Token struct {
	Type   TokenType
	Lexeme string
	Start  int // byte offset of the token in the source
	Line   int // line on which the token starts (1-based)
}

func (t Token) String() string {
	if t.Type == TokenEOF {
		return "EOF"
	}
	if t.Type == TokenError {
		return fmt.Sprintf("ERROR(%s)", t.Lexeme)
	}
	if len(t.Lexeme) > 20 {
		return fmt.Sprintf("%s(%q...)", t.Type, t.Lexeme[:20])
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Lexeme)
}

// Reserved words mapped to their token types. Lookups are exact: the whole
// candidate lexeme must equal the keyword.
var keywords = map[string]TokenType{
	"and":    TokenAnd,
	"class":  TokenClass,
	"else":   TokenElse,
	"false":  TokenFalse,
	"for":    TokenFor,
	"fun":    TokenFun,
	"if":     TokenIf,
	"nil":    TokenNil,
	"or":     TokenOr,
	"print":  TokenPrint,
	"return": TokenReturn,
	"super":  TokenSuper,
	"this":   TokenThis,
	"true":   TokenTrue,
	"var":    TokenVar,
	"while":  TokenWhile,
}

// Keywords returns the reserved words in no particular order.
func Keywords() []string {
	words := make([]string, 0, len(keywords))
	for w := range keywords {
		words = append(words, w)
	}
	return words
}

// LookupKeyword returns the keyword token type for word, or TokenIdentifier.
func LookupKeyword(word string) TokenType {
	if typ, ok := keywords[word]; ok {
		return typ
	}
	return TokenIdentifier
}
