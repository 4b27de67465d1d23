package store

import (
	"crypto/sha256"
	"errors"
	"path/filepath"
	"testing"

	"github.com/chazu/lox/compiler"
	"github.com/chazu/lox/pkg/bytecode"
	"github.com/chazu/lox/pkg/value"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache", "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func buildChunk(t *testing.T, n float64) *bytecode.Chunk {
	t.Helper()
	c := bytecode.NewChunk()
	if _, err := c.WriteConstant(value.Number(n), 1); err != nil {
		t.Fatal(err)
	}
	if _, err := c.WriteConstant(value.String("hi"), 1); err != nil {
		t.Fatal(err)
	}
	if err := c.WriteOp(bytecode.OpReturn, 2); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestPutGetChunk(t *testing.T) {
	s := openTestStore(t)
	c := buildChunk(t, 1.5)

	hash, err := s.PutChunk("main", c)
	if err != nil {
		t.Fatalf("PutChunk: %v", err)
	}
	want, _ := bytecode.ContentHash(c)
	if hash != want {
		t.Errorf("PutChunk hash = %x, want %x", hash, want)
	}

	got, err := s.GetChunk(hash)
	if err != nil {
		t.Fatalf("GetChunk: %v", err)
	}
	if string(got.Code()) != string(c.Code()) {
		t.Errorf("code = %v, want %v", got.Code(), c.Code())
	}
	if len(got.Lines()) != got.Count() || got.LineAt(4) != 2 {
		t.Errorf("lines = %v", got.Lines())
	}
	if v, ok := got.Constant(1); !ok || !v.Equal(value.String("hi")) {
		t.Errorf("Constant(1) = %v, %v", v, ok)
	}
}

func TestPutGetLargeChunk(t *testing.T) {
	s := openTestStore(t)

	c := bytecode.NewChunk()
	const codeLen = 150000
	for i := 0; i < codeLen; i++ {
		if err := c.WriteOp(bytecode.OpNil, i+1); err != nil {
			t.Fatal(err)
		}
	}

	hash, err := s.PutChunk("big", c)
	if err != nil {
		t.Fatalf("PutChunk: %v", err)
	}
	got, err := s.GetChunk(hash)
	if err != nil {
		t.Fatalf("GetChunk: %v", err)
	}
	if got.Count() != codeLen || got.LineAt(codeLen-1) != codeLen {
		t.Errorf("Count() = %d, last line = %d, want %d", got.Count(), got.LineAt(codeLen-1), codeLen)
	}
	if _, _, err := s.GetChunkByName("big"); err != nil {
		t.Errorf("GetChunkByName: %v", err)
	}
}

func TestGetChunkByNameLatest(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.PutChunk("main", buildChunk(t, 1)); err != nil {
		t.Fatal(err)
	}
	second, err := s.PutChunk("main", buildChunk(t, 2))
	if err != nil {
		t.Fatal(err)
	}

	c, entry, err := s.GetChunkByName("main")
	if err != nil {
		t.Fatalf("GetChunkByName: %v", err)
	}
	if entry.Hash != second {
		t.Errorf("entry hash = %s, want latest", entry.HashString())
	}
	if entry.ID == "" || entry.Name != "main" {
		t.Errorf("entry = %+v", entry)
	}
	if v, _ := c.Constant(0); !v.Equal(value.Number(2)) {
		t.Errorf("Constant(0) = %v, want 2", v)
	}

	entries, err := s.ListChunks()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("ListChunks() returned %d entries, want 2", len(entries))
	}
}

func TestStoreNotFound(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.GetChunk([32]byte{1}); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetChunk err = %v, want ErrNotFound", err)
	}
	if _, _, err := s.GetChunkByName("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetChunkByName err = %v, want ErrNotFound", err)
	}
	if _, err := s.GetReport([32]byte{2}); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetReport err = %v, want ErrNotFound", err)
	}
}

func TestPutChunkReleased(t *testing.T) {
	s := openTestStore(t)
	c := buildChunk(t, 1)
	c.Free()

	if _, err := s.PutChunk("gone", c); !errors.Is(err, bytecode.ErrChunkReleased) {
		t.Errorf("err = %v, want ErrChunkReleased", err)
	}
}

func TestReportRoundTrip(t *testing.T) {
	s := openTestStore(t)

	source := "var s = \"open\n@"
	hash := sha256.Sum256([]byte(source))
	report := &Report{
		Path:       "main.lox",
		TokenCount: len(compiler.Tokenize(source)),
		Errors:     compiler.LexErrors(source),
	}

	if err := s.PutReport(hash, report); err != nil {
		t.Fatalf("PutReport: %v", err)
	}
	got, err := s.GetReport(hash)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}

	if got.Path != report.Path || got.TokenCount != report.TokenCount {
		t.Errorf("report = %+v, want %+v", got, report)
	}
	if len(got.Errors) != len(report.Errors) {
		t.Fatalf("got %d errors, want %d", len(got.Errors), len(report.Errors))
	}
	for i := range report.Errors {
		if *got.Errors[i] != *report.Errors[i] {
			t.Errorf("error %d = %+v, want %+v", i, got.Errors[i], report.Errors[i])
		}
	}

	// Overwrite replaces.
	if err := s.PutReport(hash, &Report{Path: "other.lox"}); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetReport(hash)
	if got.Path != "other.lox" || len(got.Errors) != 0 {
		t.Errorf("after overwrite report = %+v", got)
	}
}

func TestStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	hash, err := s.PutChunk("persist", buildChunk(t, 7))
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, err := s.GetChunk(hash); err != nil {
		t.Errorf("GetChunk after reopen: %v", err)
	}
}
