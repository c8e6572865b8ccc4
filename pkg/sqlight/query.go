package sqlight

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	// ErrInvalidConstruction reports a Sql value that was not built through
	// Raw, Template or TemplateAt.
	ErrInvalidConstruction = errors.New("Sql must be built with Raw, Template or TemplateAt")
	// ErrMissingTemplateDir reports a templated statement resolved before any
	// template directory was supplied.
	ErrMissingTemplateDir = errors.New("no template directory configured")
)

// templateCacheSize bounds the process-wide template cache. Template files are
// assumed immutable, so an evicted entry re-reads byte-identical text.
const templateCacheSize = 128

type templateKey struct {
	filename string
	dir      string
}

var templateCache, _ = lru.New[templateKey, string](templateCacheSize)

func readTemplate(filename, dir string) (string, error) {
	key := templateKey{filename: filename, dir: dir}
	if text, ok := templateCache.Get(key); ok {
		return text, nil
	}

	raw, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(string(raw))
	templateCache.Add(key, text)

	return text, nil
}

type sqlKind int

const (
	sqlInvalid sqlKind = iota
	sqlRaw
	sqlTemplate
)

// Sql represents a SQL statement: either literal text or a named template file
// resolved against a directory at execution time.
//
// The zero value is invalid and fails with ErrInvalidConstruction when
// resolved; use one of the constructors.
type Sql struct {
	kind     sqlKind
	text     string
	filename string
	dir      string
}

// Raw builds a Sql from literal statement text.
func Raw(query string) *Sql {
	return &Sql{kind: sqlRaw, text: query}
}

// Template builds a Sql resolving filename against a directory supplied later,
// either via SetTemplateDirIfAbsent or by the handle's configured default.
func Template(filename string) *Sql {
	return &Sql{kind: sqlTemplate, filename: filename}
}

// TemplateAt builds a Sql resolving filename against an explicit directory.
// The directory is final: a handle default never overrides it.
func TemplateAt(filename, dir string) *Sql {
	return &Sql{kind: sqlTemplate, filename: filename, dir: dir}
}

// HasTemplateDir reports whether a templated statement knows its directory.
// It is always false for raw statements.
func (s *Sql) HasTemplateDir() bool {
	return s.kind == sqlTemplate && s.dir != ""
}

// SetTemplateDirIfAbsent supplies a deferred template directory. It never
// overrides a directory that is already set and is a no-op for raw statements.
func (s *Sql) SetTemplateDirIfAbsent(dir string) {
	if s.kind == sqlTemplate && s.dir == "" {
		s.dir = dir
	}
}

// Query returns the resolved statement text. A template file is read once per
// (filename, directory) pair, with surrounding whitespace trimmed, and cached
// for the process lifetime.
func (s *Sql) Query() (string, error) {
	switch s.kind {
	case sqlRaw:
		return s.text, nil
	case sqlTemplate:
		if s.dir == "" {
			return "", fmt.Errorf("%w: %s", ErrMissingTemplateDir, s.filename)
		}

		return readTemplate(s.filename, s.dir)
	default:
		return "", ErrInvalidConstruction
	}
}
