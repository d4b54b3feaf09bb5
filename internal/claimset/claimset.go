// Package claimset loads and checks the declarative description of what to
// reconcile: claim groups, table layouts, probes and derived-value laws.
package claimset

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/ppiankov/docparity/internal/model"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

//go:embed default.yaml
var defaultYAML []byte

// DefaultSource names the built-in claim set in errors and logs
const DefaultSource = "builtin:default.yaml"

// Placeholder is a column that occupies a cell without being compared
const Placeholder = "_"

// SchemaError reports a claim set that is malformed or inconsistent
type SchemaError struct {
	Source string
	Err    error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("claim set %s: %v", e.Source, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// Schema returns the embedded JSON Schema of claim sets
func Schema() []byte {
	return schemaJSON
}

// DefaultYAML returns the built-in claim set as written
func DefaultYAML() []byte {
	return defaultYAML
}

// Default parses the built-in claim set
func Default() (*model.ClaimSet, error) {
	return Parse(defaultYAML, DefaultSource)
}

// Load reads a claim set from a path or any afs URL.
// An empty location returns the built-in set.
func Load(ctx context.Context, location string) (*model.ClaimSet, error) {
	if location == "" {
		return Default()
	}

	data, err := Read(ctx, location)
	if err != nil {
		return nil, err
	}
	return Parse(data, location)
}

// Read returns the unparsed claim set at location, or the built-in one when
// location is empty
func Read(ctx context.Context, location string) ([]byte, error) {
	if location == "" {
		return DefaultYAML(), nil
	}

	fs := afs.New()
	ok, err := fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("check claim set %s: %w", location, err)
	}
	if !ok {
		return nil, fmt.Errorf("claim set %s: not found", location)
	}

	data, err := fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("read claim set %s: %w", location, err)
	}
	return data, nil
}

// Parse validates data against the schema, decodes it strictly and checks
// cross references. JSON input is accepted as YAML.
func Parse(data []byte, source string) (*model.ClaimSet, error) {
	if err := validateSchema(data); err != nil {
		return nil, &SchemaError{Source: source, Err: err}
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var set model.ClaimSet
	if err := dec.Decode(&set); err != nil {
		return nil, &SchemaError{Source: source, Err: fmt.Errorf("decode: %w", err)}
	}

	if err := Check(&set); err != nil {
		return nil, &SchemaError{Source: source, Err: err}
	}
	return &set, nil
}

func validateSchema(data []byte) error {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if raw == nil {
		return errors.New("empty document")
	}

	// The validator only understands values shaped like encoding/json output
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("convert: %w", err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("convert: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(schemaJSON)); err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	return schema.Validate(doc)
}

// Check verifies the references a schema cannot express: unique names,
// known entity sets, declared columns and law operands that resolve.
func Check(set *model.ClaimSet) error {
	c := checker{
		set:    set,
		tables: make(map[string]model.Table),
		probes: make(map[string]bool),
	}

	for _, side := range model.Sides {
		if d := set.Dialects.For(side); d != "" && d != "markup" && d != "macro" {
			c.fail("dialects.%s: unknown dialect %q", side, d)
		}
	}

	// Laws may reference tables and probes of any section
	for _, sec := range set.Sections {
		for _, t := range sec.Tables {
			if _, dup := c.tables[t.Name]; dup {
				c.fail("table %q declared twice", t.Name)
			}
			c.tables[t.Name] = t
		}
		for _, p := range sec.Probes {
			if p.Name == "" {
				continue
			}
			if c.probes[p.Name] {
				c.fail("probe %q declared twice", p.Name)
			}
			c.probes[p.Name] = true
		}
	}

	for _, sec := range set.Sections {
		for _, p := range sec.Probes {
			c.probe(sec.Title, p)
		}
		for _, t := range sec.Tables {
			c.table(sec.Title, t)
		}
		for i, law := range sec.Laws {
			c.law(fmt.Sprintf("%s: law %d", sec.Title, i+1), law)
		}
	}

	return errors.Join(c.errs...)
}

type checker struct {
	set    *model.ClaimSet
	tables map[string]model.Table
	probes map[string]bool
	errs   []error
}

func (c *checker) fail(format string, args ...any) {
	c.errs = append(c.errs, fmt.Errorf(format, args...))
}

func (c *checker) entitySet(where, name string) {
	if name == "" {
		return
	}
	if _, ok := c.set.EntitySets[name]; !ok {
		c.fail("%s: unknown entity set %q", where, name)
	}
}

func (c *checker) probe(section string, p model.Probe) {
	where := fmt.Sprintf("%s: probe %q", section, p.Description)
	for _, side := range model.Sides {
		rule := p.For(side)
		if rule == nil {
			continue
		}
		if rule.Pattern == "" {
			if rule.Value == "" && p.Value == "" {
				c.fail("%s: %s side states no value", where, side)
			}
			continue
		}
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			c.fail("%s: %s pattern: %v", where, side, err)
			continue
		}
		if re.NumSubexp() > 1 {
			c.fail("%s: %s pattern has %d groups, want at most 1", where, side, re.NumSubexp())
		}
	}
}

func (c *checker) table(section string, t model.Table) {
	where := fmt.Sprintf("%s: table %q", section, t.Name)
	c.entitySet(where, t.Entities)

	names := make(map[string]bool, len(t.Fields))
	for _, f := range t.Fields {
		if names[f.Name] {
			c.fail("%s: field %q declared twice", where, f.Name)
		}
		names[f.Name] = true
	}

	for _, side := range model.Sides {
		layout := t.For(side)
		if layout == nil {
			continue
		}

		seen := make(map[string]bool, len(layout.Columns))
		for _, col := range layout.Columns {
			if col == Placeholder {
				continue
			}
			if !names[col] {
				c.fail("%s: %s column %q is not a declared field", where, side, col)
			}
			if seen[col] {
				c.fail("%s: %s column %q repeated", where, side, col)
			}
			seen[col] = true
		}

		dialect := layout.Dialect
		if dialect == "" {
			dialect = c.set.Dialects.For(side)
		}
		if dialect == "macro" && t.Entities == "" {
			c.fail("%s: %s side uses the macro dialect and needs an entity set", where, side)
		}
	}
}

func (c *checker) law(where string, law model.Law) {
	c.entitySet(where, law.Entities)
	if law.Side != "" && !law.Side.Valid() {
		c.fail("%s: unknown side %q", where, law.Side)
	}

	operands := map[string]*model.Operand{
		"parts":      law.Parts,
		"counts":     law.Counts,
		"minuend":    law.Minuend,
		"subtrahend": law.Subtrahend,
		"expected":   law.Expected,
		"reported":   law.Reported,
	}
	for _, role := range []string{"parts", "counts", "minuend", "subtrahend", "expected", "reported"} {
		if op := operands[role]; op != nil {
			c.operand(where+": "+role, op)
		}
	}
}

func (c *checker) operand(where string, op *model.Operand) {
	switch {
	case op.Table != "":
		t, ok := c.tables[op.Table]
		if !ok {
			c.fail("%s: unknown table %q", where, op.Table)
			return
		}
		for _, f := range op.Fields {
			if _, ok := t.Field(f); !ok {
				c.fail("%s: table %q has no field %q", where, op.Table, f)
			}
		}
		if op.Side != "" && t.For(op.Side) == nil {
			c.fail("%s: table %q is not laid out on the %s side", where, op.Table, op.Side)
		}
	case op.Probe != "":
		if !c.probes[op.Probe] {
			c.fail("%s: unknown probe %q", where, op.Probe)
		}
	}
}
