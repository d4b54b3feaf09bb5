package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ppiankov/docparity/internal/canon"
	"github.com/ppiankov/docparity/internal/model"
)

// Column is one positional cell after the entity key
type Column struct {
	Name string
	Kind model.Kind
}

// Schema is the ordered layout of a table in one document
type Schema struct {
	Columns  []Column
	Entities []string // Closed whitelist of entity keys; optional for markup
}

// Arity returns the number of cells expected after the entity key
func (s Schema) Arity() int {
	return len(s.Columns)
}

func (s Schema) whitelist() map[string]bool {
	if len(s.Entities) == 0 {
		return nil
	}
	allowed := make(map[string]bool, len(s.Entities))
	for _, e := range s.Entities {
		allowed[e] = true
	}
	return allowed
}

// Records maps entity key -> field name -> raw token
type Records map[string]map[string]string

// Extraction is the result of scanning one region for one table
type Extraction struct {
	Records Records
	Order   []string // Entity keys in document order
	Rows    int      // Candidate rows seen
	Skipped int      // Rows dropped for arity, shape or duplicate keys
}

// Lookup returns the raw token of an entity field
func (e Extraction) Lookup(entity, field string) (string, bool) {
	fields, ok := e.Records[entity]
	if !ok {
		return "", false
	}
	raw, ok := fields[field]
	return raw, ok
}

func newExtraction() Extraction {
	return Extraction{Records: make(Records)}
}

// add records a row whose cells already match the schema arity
func (e *Extraction) add(key string, cells []string, schema Schema) {
	if _, dup := e.Records[key]; dup {
		e.Skipped++
		return
	}
	if !conforms(cells, schema) {
		e.Skipped++
		return
	}

	fields := make(map[string]string, schema.Arity())
	for i, col := range schema.Columns {
		fields[col.Name] = cells[i]
	}
	e.Records[key] = fields
	e.Order = append(e.Order, key)
}

// conforms checks that numeric columns hold numbers
func conforms(cells []string, schema Schema) bool {
	for i, col := range schema.Columns {
		switch col.Kind {
		case model.KindPercentage:
			if _, err := canon.ParseDecimal(cells[i]); err != nil {
				return false
			}
		case model.KindInteger:
			if _, err := canon.ParseInteger(cells[i]); err != nil {
				return false
			}
		}
	}
	return true
}

// Dialect extracts entity records from one document format
type Dialect interface {
	// Name returns the dialect name used in claim sets
	Name() string

	// CanHandle checks if this dialect fits the given document path
	CanHandle(path string) bool

	// Extract scans a region for rows matching the schema
	Extract(region Region, schema Schema) Extraction
}

// Registry manages the available dialects
type Registry struct {
	dialects []Dialect
	fallback Dialect
}

// NewRegistry creates a registry with the built-in dialects
func NewRegistry() *Registry {
	registry := &Registry{}

	registry.Register(NewMarkupDialect())
	registry.Register(NewMacroDialect())

	registry.fallback = registry.dialects[0]

	return registry
}

// Register registers a new dialect
func (r *Registry) Register(d Dialect) {
	r.dialects = append(r.dialects, d)
}

// Lookup finds a dialect by name
func (r *Registry) Lookup(name string) (Dialect, bool) {
	for _, d := range r.dialects {
		if d.Name() == name {
			return d, true
		}
	}
	return nil, false
}

// Find returns the first dialect that can handle path, or the markup fallback
func (r *Registry) Find(path string) Dialect {
	for _, d := range r.dialects {
		if d.CanHandle(path) {
			return d
		}
	}
	return r.fallback
}

// Resolve picks a dialect by explicit name, or by path when name is empty
func (r *Registry) Resolve(name, path string) (Dialect, error) {
	if name == "" {
		return r.Find(path), nil
	}
	d, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown dialect %q", name)
	}
	return d, nil
}

func hasExtension(path string, exts ...string) bool {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
