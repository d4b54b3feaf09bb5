package model

import "strings"

// ClaimSet declares every claim group and derived-value law checked in a run
type ClaimSet struct {
	Version    int                 `yaml:"version" json:"version"`
	Labels     Labels              `yaml:"labels" json:"labels"`
	Dialects   Dialects            `yaml:"dialects" json:"dialects"`
	EntitySets map[string][]string `yaml:"entity_sets" json:"entity_sets,omitempty"`
	Sections   []Section           `yaml:"sections" json:"sections"`
}

// Labels are the human names of the two documents
type Labels struct {
	Reference string `yaml:"reference" json:"reference"`
	Candidate string `yaml:"candidate" json:"candidate"`
}

// For returns the label of a side, falling back to the side name
func (l Labels) For(side Side) string {
	label := l.Reference
	if side == SideCandidate {
		label = l.Candidate
	}
	if label == "" {
		return string(side)
	}
	return label
}

// Dialects names the record extractor used for each side
type Dialects struct {
	Reference string `yaml:"reference" json:"reference,omitempty"`
	Candidate string `yaml:"candidate" json:"candidate,omitempty"`
}

// For returns the dialect configured for a side
func (d Dialects) For(side Side) string {
	if side == SideCandidate {
		return d.Candidate
	}
	return d.Reference
}

// Section is one numbered claim group of the report
type Section struct {
	Title  string   `yaml:"title" json:"title"`
	Probes []Probe  `yaml:"probes" json:"probes,omitempty"`
	Tables []Table  `yaml:"tables" json:"tables,omitempty"`
	Laws   []Law    `yaml:"laws" json:"laws,omitempty"`
	Notes  []string `yaml:"notes" json:"notes,omitempty"`
}

// Bound is a start/end anchor pair. An empty Start keeps the current beginning.
type Bound struct {
	Start string `yaml:"start" json:"start,omitempty"`
	End   string `yaml:"end" json:"end,omitempty"`
}

// Probe states a single value found by phrase or pattern rather than by table
type Probe struct {
	Name        string     `yaml:"name" json:"name,omitempty"`
	Description string     `yaml:"description" json:"description"`
	Kind        Kind       `yaml:"kind" json:"kind"`
	Value       string     `yaml:"value" json:"value,omitempty"` // Stated value when a phrase matches
	Reference   *ProbeSide `yaml:"reference" json:"reference,omitempty"`
	Candidate   *ProbeSide `yaml:"candidate" json:"candidate,omitempty"`
}

// For returns the probe rule of one side
func (p Probe) For(side Side) *ProbeSide {
	if side == SideCandidate {
		return p.Candidate
	}
	return p.Reference
}

// ProbeSide is how a probe is located in one document
type ProbeSide struct {
	Regions []Bound  `yaml:"regions" json:"regions,omitempty"`
	Phrases []string `yaml:"phrases" json:"phrases,omitempty"`
	Pattern string   `yaml:"pattern" json:"pattern,omitempty"` // First capture group is the raw value
	Value   string   `yaml:"value" json:"value,omitempty"`     // Overrides Probe.Value for this side
}

// Table is a claim group extracted as entity records from both documents
type Table struct {
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description" json:"description,omitempty"` // Template with {entity} and {field}
	Entities    string     `yaml:"entities" json:"entities,omitempty"`       // Entity set name
	Fields      []Field    `yaml:"fields" json:"fields"`
	Reference   *TableSide `yaml:"reference" json:"reference,omitempty"`
	Candidate   *TableSide `yaml:"candidate" json:"candidate,omitempty"`
}

// For returns the table layout of one side
func (t Table) For(side Side) *TableSide {
	if side == SideCandidate {
		return t.Candidate
	}
	return t.Reference
}

// Field returns the declared field with the given name
func (t Table) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Field is one compared column of a table
type Field struct {
	Name  string `yaml:"name" json:"name"`
	Label string `yaml:"label" json:"label,omitempty"`
	Kind  Kind   `yaml:"kind" json:"kind"`
}

// DisplayName returns the label used in descriptions
func (f Field) DisplayName() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// TableSide is the layout of a table in one document
type TableSide struct {
	Regions []Bound  `yaml:"regions" json:"regions,omitempty"`
	Columns []string `yaml:"columns" json:"columns"` // Ordered cells after the entity key
	Dialect string   `yaml:"dialect" json:"dialect,omitempty"`
}

// LawKind names a derived-value law
type LawKind string

const (
	LawRatio       LawKind = "ratio"       // reported == round(sum(counts)/denominator*100, 1)
	LawSum         LawKind = "sum"         // sum(parts) == total
	LawSubtraction LawKind = "subtraction" // reported == round(minuend - subtrahend, 1)
	LawEquality    LawKind = "equality"    // reported == expected
)

// Law is an arithmetic relationship among extracted fields
type Law struct {
	Kind        LawKind  `yaml:"kind" json:"kind"`
	Description string   `yaml:"description" json:"description"` // Template with {entity} and {side}
	Side        Side     `yaml:"side" json:"side,omitempty"`     // Default side for operands
	Sides       []Side   `yaml:"sides" json:"sides,omitempty"`   // Evaluate once per side
	Entities    string   `yaml:"entities" json:"entities,omitempty"`
	Entity      string   `yaml:"entity" json:"entity,omitempty"`
	Parts       *Operand `yaml:"parts" json:"parts,omitempty"`
	Total       *int     `yaml:"total" json:"total,omitempty"`
	Counts      *Operand `yaml:"counts" json:"counts,omitempty"`
	Denominator int      `yaml:"denominator" json:"denominator,omitempty"`
	Minuend     *Operand `yaml:"minuend" json:"minuend,omitempty"`
	Subtrahend  *Operand `yaml:"subtrahend" json:"subtrahend,omitempty"`
	Expected    *Operand `yaml:"expected" json:"expected,omitempty"`
	Reported    *Operand `yaml:"reported" json:"reported,omitempty"`
}

// Operand addresses one input of a law. With a Denominator it is itself a
// ratio expression over the summed fields.
type Operand struct {
	Side        Side     `yaml:"side" json:"side,omitempty"`
	Table       string   `yaml:"table" json:"table,omitempty"`
	Probe       string   `yaml:"probe" json:"probe,omitempty"`
	Fields      []string `yaml:"fields" json:"fields,omitempty"`
	Entity      string   `yaml:"entity" json:"entity,omitempty"`
	Denominator int      `yaml:"denominator" json:"denominator,omitempty"`
	Value       string   `yaml:"value" json:"value,omitempty"` // Literal operand
}

// Describe expands {entity}, {field} and {side} in a description template
func Describe(template, entity, field, side string) string {
	return strings.NewReplacer(
		"{entity}", entity,
		"{field}", field,
		"{side}", side,
	).Replace(template)
}
