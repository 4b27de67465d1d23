package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/lox/pkg/bytecode"
	"github.com/chazu/lox/pkg/store"
	"github.com/chazu/lox/server"
)

func readChunkFile(path string) (*bytecode.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := bytecode.Deserialize(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func (e *env) disasm(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(e.stderr, "Usage: lox disasm FILE.lxbc")
		return 2
	}

	c, err := readChunkFile(args[0])
	if err != nil {
		return e.fail("%v", err)
	}
	name := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	fmt.Fprint(e.stdout, c.Disassemble(name))
	return 0
}

// storeCommand handles the `lox store` subcommand.
// Usage:
//
//	lox store put NAME FILE.lxbc   Save a serialized chunk under NAME
//	lox store show NAME            Disassemble the latest chunk saved as NAME
//	lox store list                 List cached chunks
func (e *env) storeCommand(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(e.stderr, "Usage: lox store [put|show|list] ...")
		return 2
	}

	st, err := store.Open(e.manifest.CachePath())
	if err != nil {
		return e.fail("%v", err)
	}
	defer st.Close()

	switch args[0] {
	case "put":
		if len(args) != 3 {
			fmt.Fprintln(e.stderr, "Usage: lox store put NAME FILE.lxbc")
			return 2
		}
		c, err := readChunkFile(args[2])
		if err != nil {
			return e.fail("%v", err)
		}
		hash, err := st.PutChunk(args[1], c)
		if err != nil {
			return e.fail("%v", err)
		}
		fmt.Fprintf(e.stdout, "%s %x\n", args[1], hash)
	case "show":
		if len(args) != 2 {
			fmt.Fprintln(e.stderr, "Usage: lox store show NAME")
			return 2
		}
		c, entry, err := st.GetChunkByName(args[1])
		if err != nil {
			return e.fail("%s: %v", args[1], err)
		}
		fmt.Fprintf(e.stdout, "; %s %s\n", entry.HashString(), entry.Created.Format("2006-01-02 15:04:05"))
		fmt.Fprint(e.stdout, c.Disassemble(entry.Name))
	case "list":
		entries, err := st.ListChunks()
		if err != nil {
			return e.fail("%v", err)
		}
		for _, entry := range entries {
			fmt.Fprintf(e.stdout, "%-20s %s %s\n", entry.Name, entry.HashString()[:12], entry.ID)
		}
	default:
		fmt.Fprintf(e.stderr, "Unknown store subcommand: %s\n", args[0])
		return 2
	}
	return 0
}

func (e *env) lsp() int {
	log.Info("starting language server on stdio")
	if err := server.NewLSP(version).Run(); err != nil {
		return e.fail("language server: %v", err)
	}
	return 0
}
