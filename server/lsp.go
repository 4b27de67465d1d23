// Package server implements a language server for Lox source files.
package server

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode/utf16"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/lox/compiler"
)

const lspName = "lox-lsp"

var log = commonlog.GetLogger("lox.server")

// LspServer publishes scanner diagnostics and answers hover and completion
// requests for open documents.
type LspServer struct {
	mu   sync.Mutex
	docs map[string]string // URI → full document content

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates a new LSP server.
func NewLSP(version string) *LspServer {
	s := &LspServer{
		docs:    make(map[string]string),
		version: version,
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Info("Lox LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{}
	capabilities.HoverProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	s.mu.Lock()
	s.docs = make(map[string]string)
	s.mu.Unlock()
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.mu.Lock()
			s.docs[string(uri)] = whole.Text
			s.mu.Unlock()

			s.publishDiagnostics(ctx, uri, whole.Text)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	// Clear diagnostics for the closed document
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (s *LspServer) document(uri protocol.DocumentUri) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.docs[string(uri)]
	return text, ok
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	prefix := extractPrefix(text, params.Position)
	if prefix == "" {
		return nil, nil
	}

	return complete(text, prefix), nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	return hover(text, params.Position), nil
}

// complete offers keywords and identifiers already used in the document
// that start with prefix. Keywords come first.
func complete(text, prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem

	keywords := compiler.Keywords()
	sort.Strings(keywords)
	for _, kw := range keywords {
		if strings.HasPrefix(kw, prefix) && kw != prefix {
			kind := protocol.CompletionItemKindKeyword
			detail := "keyword"
			kwCopy := kw
			items = append(items, protocol.CompletionItem{
				Label:      kw,
				Kind:       &kind,
				Detail:     &detail,
				InsertText: &kwCopy,
			})
		}
	}

	seen := make(map[string]bool)
	var names []string
	for _, tok := range compiler.Tokenize(text) {
		if tok.Type != compiler.TokenIdentifier || seen[tok.Lexeme] {
			continue
		}
		seen[tok.Lexeme] = true
		if strings.HasPrefix(tok.Lexeme, prefix) && tok.Lexeme != prefix {
			names = append(names, tok.Lexeme)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		kind := protocol.CompletionItemKindVariable
		detail := "identifier"
		nameCopy := name
		items = append(items, protocol.CompletionItem{
			Label:      name,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &nameCopy,
		})
	}

	// Limit results
	const maxItems = 100
	if len(items) > maxItems {
		items = items[:maxItems]
	}

	return items
}

// hover describes the token under the cursor.
func hover(text string, pos protocol.Position) *protocol.Hover {
	offset, ok := offsetAt(text, pos)
	if !ok {
		return nil
	}

	tok, ok := tokenAt(text, offset)
	if !ok {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**", tok.Type)
	if tok.Type.IsKeyword() {
		b.WriteString(" (keyword)")
	}
	fmt.Fprintf(&b, "\n\n`%s` on line %d\n", tok.Lexeme, tok.Line)

	start := positionAt(text, tok.Start)
	end := positionAt(text, tok.Start+len(tok.Lexeme))
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: b.String(),
		},
		Range: &protocol.Range{Start: start, End: end},
	}
}

// tokenAt returns the non-error token whose lexeme covers offset.
func tokenAt(text string, offset int) (compiler.Token, bool) {
	s := compiler.NewScanner(text)
	for {
		tok := s.ScanToken()
		switch {
		case tok.Type == compiler.TokenEOF:
			return compiler.Token{}, false
		case tok.Start > offset:
			return compiler.Token{}, false
		case tok.Type == compiler.TokenError:
			continue
		case offset < tok.Start+len(tok.Lexeme):
			return tok, true
		}
	}
}

// --- Diagnostics ---

// diagnostics converts every lexical error in text into an LSP diagnostic.
func diagnostics(text string) []protocol.Diagnostic {
	diags := []protocol.Diagnostic{}
	for _, e := range compiler.LexErrors(text) {
		severity := protocol.DiagnosticSeverityError
		source := lspName
		diags = append(diags, protocol.Diagnostic{
			Range: protocol.Range{
				Start: positionAt(text, e.Offset),
				End:   positionAt(text, e.Offset+e.Length),
			},
			Severity: &severity,
			Source:   &source,
			Message:  e.Message,
		})
	}
	return diags
}

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	diags := diagnostics(text)
	if len(diags) > 0 {
		log.Debugf("%s: %d diagnostics", uri, len(diags))
	}

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diags,
	})
}

// --- Text position helpers ---
//
// LSP positions count characters in UTF-16 code units; the scanner works in
// byte offsets.

// positionAt converts a byte offset into a zero-based LSP position.
func positionAt(text string, offset int) protocol.Position {
	line, _ := compiler.Position(text, offset)
	if offset > len(text) {
		offset = len(text)
	}
	if offset < 0 {
		offset = 0
	}
	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1

	units := 0
	for _, r := range text[lineStart:offset] {
		units += utf16Len(r)
	}
	return protocol.Position{
		Line:      protocol.UInteger(line - 1),
		Character: protocol.UInteger(units),
	}
}

// offsetAt converts an LSP position into a byte offset. Characters past the
// end of the line clamp to the line end; a position inside a surrogate pair
// maps to the start of its character.
func offsetAt(text string, pos protocol.Position) (int, bool) {
	offset := 0
	for line := protocol.UInteger(0); line < pos.Line; line++ {
		nl := strings.IndexByte(text[offset:], '\n')
		if nl < 0 {
			return 0, false
		}
		offset += nl + 1
	}

	lineEnd := strings.IndexByte(text[offset:], '\n')
	if lineEnd < 0 {
		lineEnd = len(text) - offset
	}

	units := 0
	for i, r := range text[offset : offset+lineEnd] {
		n := utf16Len(r)
		if units+n > int(pos.Character) {
			return offset + i, true
		}
		units += n
	}
	return offset + lineEnd, true
}

func utf16Len(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}

// extractPrefix returns the identifier fragment before the cursor for completion.
func extractPrefix(text string, pos protocol.Position) string {
	col, ok := offsetAt(text, pos)
	if !ok {
		return ""
	}
	lineStart := strings.LastIndexByte(text[:col], '\n') + 1

	// Walk backwards from cursor to find the start of the identifier
	start := col
	for start > lineStart && isIdentByte(text[start-1]) {
		start--
	}

	if start == col {
		return ""
	}

	return text[start:col]
}

func isIdentByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}

func boolPtr(b bool) *bool {
	return &b
}
