// Package manifest handles lox.toml project configuration.
package manifest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the name of the project configuration file.
const FileName = "lox.toml"

// Manifest represents a lox.toml project configuration.
type Manifest struct {
	Project Project     `toml:"project"`
	Source  Source      `toml:"source"`
	Cache   CacheConfig `toml:"cache"`
	Log     LogConfig   `toml:"log"`

	// Dir is the directory containing the lox.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configures source file locations.
type Source struct {
	Dirs       []string `toml:"dirs"`
	Extensions []string `toml:"extensions"`
}

// CacheConfig configures the scan/chunk cache database.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the configuration used when no lox.toml exists.
func Default(dir string) *Manifest {
	m := &Manifest{Dir: dir}
	m.applyDefaults()
	return m
}

func (m *Manifest) applyDefaults() {
	if len(m.Source.Dirs) == 0 {
		m.Source.Dirs = []string{"src"}
	}
	if len(m.Source.Extensions) == 0 {
		m.Source.Extensions = []string{".lox"}
	}
	if m.Cache.Path == "" {
		m.Cache.Path = filepath.Join(".lox", "cache.db")
	}
}

// Load parses a lox.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	m.applyDefaults()
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}

	return &m, nil
}

func (m *Manifest) validate() error {
	for _, ext := range m.Source.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("source extension %q must start with '.'", ext)
		}
	}
	if m.Log.Verbosity < 0 {
		return fmt.Errorf("log verbosity %d must not be negative", m.Log.Verbosity)
	}
	return nil
}

// FindAndLoad walks up from startDir to find a lox.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// SourceDirPaths returns absolute paths for the configured source directories.
func (m *Manifest) SourceDirPaths() []string {
	var paths []string
	for _, d := range m.Source.Dirs {
		paths = append(paths, m.resolve(d))
	}
	return paths
}

// CachePath returns the absolute path of the cache database.
func (m *Manifest) CachePath() string {
	return m.resolve(m.Cache.Path)
}

// LogFile returns the absolute log file path, or "" to log to stderr.
func (m *Manifest) LogFile() string {
	if m.Log.File == "" {
		return ""
	}
	return m.resolve(m.Log.File)
}

// HasSourceExtension reports whether path ends in a configured extension.
func (m *Manifest) HasSourceExtension(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range m.Source.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// SourceFiles walks the source directories and returns every matching file,
// sorted. Missing source directories are skipped.
func (m *Manifest) SourceFiles() ([]string, error) {
	var files []string
	for _, dir := range m.SourceDirPaths() {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && m.HasSourceExtension(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", dir, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}
