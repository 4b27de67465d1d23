// Package store caches compiled chunks and lexical check reports in SQLite.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/lox/compiler"
	"github.com/chazu/lox/pkg/bytecode"
)

// ErrNotFound indicates the requested entry doesn't exist.
var ErrNotFound = errors.New("store: not found")

var log = commonlog.GetLogger("lox.store")

// Report is the cached result of scanning one source file.
type Report struct {
	Path       string               `cbor:"1,keyasint"`
	TokenCount int                  `cbor:"2,keyasint"`
	Errors     []*compiler.LexError `cbor:"3,keyasint,omitempty"`
}

// ChunkEntry describes a stored chunk.
type ChunkEntry struct {
	ID      string
	Name    string
	Hash    [32]byte
	Created time.Time
}

// HashString returns the hex form of the entry's content hash.
func (e ChunkEntry) HashString() string {
	return hex.EncodeToString(e.Hash[:])
}

// Store is a SQLite-backed cache.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	id      TEXT PRIMARY KEY,
	hash    TEXT NOT NULL,
	name    TEXT NOT NULL,
	data    BLOB NOT NULL,
	created INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS chunks_name ON chunks (name, created);
CREATE INDEX IF NOT EXISTS chunks_hash ON chunks (hash);
CREATE TABLE IF NOT EXISTS scan_reports (
	source_hash TEXT PRIMARY KEY,
	data        BLOB NOT NULL,
	created     INTEGER NOT NULL
);`

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	log.Debugf("opened cache %s", path)
	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// PutChunk stores a chunk under name and returns its content hash.
// Every call records a new entry, so one name keeps its history.
func (s *Store) PutChunk(name string, c *bytecode.Chunk) ([32]byte, error) {
	data, err := bytecode.MarshalChunk(c)
	if err != nil {
		return [32]byte{}, fmt.Errorf("encoding chunk: %w", err)
	}
	hash := sha256.Sum256(data)

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		"INSERT INTO chunks (id, hash, name, data, created) VALUES (?, ?, ?, ?, ?)",
		uuid.NewString(), hex.EncodeToString(hash[:]), name, data, time.Now().UnixNano(),
	)
	if err != nil {
		return [32]byte{}, fmt.Errorf("saving chunk: %w", err)
	}

	log.Infof("stored chunk %q (%d bytes)", name, c.Count())
	return hash, nil
}

// GetChunk loads the chunk with the given content hash.
func (s *Store) GetChunk(hash [32]byte) (*bytecode.Chunk, error) {
	var data []byte
	err := s.db.QueryRow("SELECT data FROM chunks WHERE hash = ? LIMIT 1", hex.EncodeToString(hash[:])).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying chunk: %w", err)
	}
	return bytecode.UnmarshalChunk(data)
}

// GetChunkByName loads the most recently stored chunk with the given name.
func (s *Store) GetChunkByName(name string) (*bytecode.Chunk, ChunkEntry, error) {
	var (
		entry   ChunkEntry
		hashHex string
		created int64
		data    []byte
	)
	err := s.db.QueryRow(
		"SELECT id, hash, created, data FROM chunks WHERE name = ? ORDER BY created DESC LIMIT 1",
		name,
	).Scan(&entry.ID, &hashHex, &created, &data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ChunkEntry{}, ErrNotFound
		}
		return nil, ChunkEntry{}, fmt.Errorf("querying chunk: %w", err)
	}

	raw, err := hex.DecodeString(hashHex)
	if err != nil || len(raw) != len(entry.Hash) {
		return nil, ChunkEntry{}, fmt.Errorf("corrupt hash %q for chunk %q", hashHex, name)
	}
	copy(entry.Hash[:], raw)
	entry.Name = name
	entry.Created = time.Unix(0, created)

	c, err := bytecode.UnmarshalChunk(data)
	if err != nil {
		return nil, ChunkEntry{}, err
	}
	return c, entry, nil
}

// ListChunks returns all stored chunk entries, newest first.
func (s *Store) ListChunks() ([]ChunkEntry, error) {
	rows, err := s.db.Query("SELECT id, name, hash, created FROM chunks ORDER BY created DESC")
	if err != nil {
		return nil, fmt.Errorf("listing chunks: %w", err)
	}
	defer rows.Close()

	var entries []ChunkEntry
	for rows.Next() {
		var (
			e       ChunkEntry
			hashHex string
			created int64
		)
		if err := rows.Scan(&e.ID, &e.Name, &hashHex, &created); err != nil {
			return nil, fmt.Errorf("scanning chunk row: %w", err)
		}
		if raw, err := hex.DecodeString(hashHex); err == nil {
			copy(e.Hash[:], raw)
		}
		e.Created = time.Unix(0, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PutReport caches a scan report for the source with the given hash.
func (s *Store) PutReport(sourceHash [32]byte, r *Report) error {
	data, err := cbor.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO scan_reports (source_hash, data, created) VALUES (?, ?, ?)",
		hex.EncodeToString(sourceHash[:]), data, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("saving report: %w", err)
	}
	return nil
}

// GetReport returns the cached report for the source with the given hash.
func (s *Store) GetReport(sourceHash [32]byte) (*Report, error) {
	var data []byte
	err := s.db.QueryRow(
		"SELECT data FROM scan_reports WHERE source_hash = ?", hex.EncodeToString(sourceHash[:]),
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying report: %w", err)
	}

	var r Report
	if err := cbor.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}
	return &r, nil
}
