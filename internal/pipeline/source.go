package pipeline

import (
	"github.com/ppiankov/docparity/internal/canon"
	"github.com/ppiankov/docparity/internal/model"
)

type tableKey struct {
	side model.Side
	name string
}

type probeKey struct {
	side model.Side
	name string
}

// source holds the extractions of one run and serves canonical values to
// the comparator and the validator
type source struct {
	canon  *canon.Canonicalizer
	set    *model.ClaimSet
	tables map[tableKey]*tableResult
	probes map[probeAt]model.Value
	byName map[probeKey]model.Value
}

func newSource(c *canon.Canonicalizer, set *model.ClaimSet) *source {
	return &source{
		canon:  c,
		set:    set,
		tables: make(map[tableKey]*tableResult),
		probes: make(map[probeAt]model.Value),
		byName: make(map[probeKey]model.Value),
	}
}

func (s *source) addTable(res *tableResult) {
	s.tables[tableKey{side: res.side, name: res.table.Name}] = res
}

func (s *source) addProbe(res *probeResult) {
	s.probes[res.at] = res.value
	if res.name != "" {
		s.byName[probeKey{side: res.at.side, name: res.name}] = res.value
	}
}

func (s *source) probeValue(at probeAt) model.Value {
	if v, ok := s.probes[at]; ok {
		return v
	}
	return model.NotFound
}

// Field returns the canonical value of an entity field, or model.NotFound
func (s *source) Field(side model.Side, table, entity, field string) model.Value {
	res, ok := s.tables[tableKey{side: side, name: table}]
	if !ok {
		return model.NotFound
	}
	raw, ok := res.extraction.Lookup(entity, field)
	if !ok {
		return model.NotFound
	}

	kind := model.KindText
	if f, ok := res.table.Field(field); ok {
		kind = f.Kind
	}
	return s.canon.Canonicalize(raw, kind)
}

// Probe returns the canonical value of a named probe, or model.NotFound
func (s *source) Probe(side model.Side, name string) model.Value {
	if v, ok := s.byName[probeKey{side: side, name: name}]; ok {
		return v
	}
	return model.NotFound
}

// entities returns the rows compared for a table: the declared entity set,
// or every reference entity followed by candidate-only ones
func (s *source) entities(t model.Table) []string {
	if t.Entities != "" {
		return s.set.EntitySets[t.Entities]
	}

	seen := make(map[string]bool)
	var out []string
	for _, side := range model.Sides {
		res, ok := s.tables[tableKey{side: side, name: t.Name}]
		if !ok {
			continue
		}
		for _, e := range res.extraction.Order {
			if !seen[e] {
				seen[e] = true
				out = append(out, e)
			}
		}
	}
	return out
}
