package main

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/chazu/lox/compiler"
	"github.com/chazu/lox/pkg/store"
)

// maxParallelScans bounds how many files are read and scanned at once.
const maxParallelScans = 8

func (e *env) check(args []string) int {
	files, err := e.checkTargets(args)
	if err != nil {
		return e.fail("%v", err)
	}
	if len(files) == 0 {
		fmt.Fprintln(e.stderr, "No source files to check")
		return 0
	}

	var cache *store.Store
	if e.useCache {
		cache, err = store.Open(e.manifest.CachePath())
		if err != nil {
			log.Warningf("cache disabled: %v", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	reports, err := checkFiles(context.Background(), files, cache)
	if err != nil {
		return e.fail("%v", err)
	}

	failed := 0
	for _, r := range reports {
		for _, le := range r.Errors {
			fmt.Fprintf(e.stdout, "%s:%s\n", r.Path, le.Error())
		}
		if len(r.Errors) > 0 {
			failed++
		}
	}
	if failed > 0 {
		fmt.Fprintf(e.stderr, "%d of %d files have lexical errors\n", failed, len(reports))
		return 1
	}
	return 0
}

// checkTargets expands the command line into source files, falling back to
// the manifest's source directories.
func (e *env) checkTargets(args []string) ([]string, error) {
	if len(args) == 0 {
		return e.manifest.SourceFiles()
	}

	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && e.manifest.HasSourceExtension(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// checkFiles scans every file concurrently, one Scanner per file, and returns
// the reports in the order of files. Reports are served from and saved to
// cache when it is non-nil.
func checkFiles(ctx context.Context, files []string, cache *store.Store) ([]*store.Report, error) {
	reports := make([]*store.Report, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelScans)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := checkFile(path, cache)
			if err != nil {
				return err
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func checkFile(path string, cache *store.Store) (*store.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	hash := sha256.Sum256(data)

	if cache != nil {
		r, err := cache.GetReport(hash)
		if err == nil {
			log.Debugf("cache hit for %s", path)
			r.Path = path
			return r, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			log.Warningf("reading cached report for %s: %v", path, err)
		}
	}

	source := string(data)
	r := &store.Report{
		Path:       path,
		TokenCount: len(compiler.Tokenize(source)),
		Errors:     compiler.LexErrors(source),
	}

	if cache != nil {
		if err := cache.PutReport(hash, r); err != nil {
			log.Warningf("caching report for %s: %v", path, err)
		}
	}
	return r, nil
}
