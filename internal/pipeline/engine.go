package pipeline

import (
	"context"
	"fmt"

	"github.com/ppiankov/docparity/internal/canon"
	"github.com/ppiankov/docparity/internal/claimset"
	"github.com/ppiankov/docparity/internal/compare"
	"github.com/ppiankov/docparity/internal/extract"
	"github.com/ppiankov/docparity/internal/model"
	"github.com/ppiankov/docparity/internal/report"
	"github.com/ppiankov/docparity/internal/validate"
	"github.com/ppiankov/docparity/internal/worker"
	"github.com/rs/zerolog"
)

// Engine reconciles two loaded documents against a claim set.
// It never touches the filesystem and never aborts on a missing value.
type Engine struct {
	registry            *extract.Registry
	canon               *canon.Canonicalizer
	parallelism         int
	failOnIndeterminate bool
	reportSkippedRows   bool
	logger              zerolog.Logger
}

// NewEngine creates an engine from the engine config block
func NewEngine(cfg model.EngineConfig, logger zerolog.Logger) (*Engine, error) {
	rounding, err := canon.ParseRounding(cfg.Rounding)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	parallelism := cfg.Parallelism
	if parallelism <= 0 {
		parallelism = 1
	}

	return &Engine{
		registry:            extract.NewRegistry(),
		canon:               canon.New(rounding),
		parallelism:         parallelism,
		failOnIndeterminate: cfg.FailOnIndeterminate,
		reportSkippedRows:   cfg.ReportSkippedRows,
		logger:              logger,
	}, nil
}

// Reconcile extracts every declared table and probe from both documents,
// then evaluates the sections in order. The verdict order depends only on
// the claim set, never on parallelism.
func (e *Engine) Reconcile(ctx context.Context, ref, cand model.Document, set *model.ClaimSet) (*model.Report, error) {
	docs := map[model.Side]model.Document{
		model.SideReference: ref,
		model.SideCandidate: cand,
	}

	src, err := e.extractAll(ctx, docs, set)
	if err != nil {
		return nil, err
	}

	comparator := compare.NewComparator(set.Labels)
	validator := validate.NewValidator(e.canon, set.Labels, set.EntitySets)

	jobs := make([]worker.Job, len(set.Sections))
	for i := range set.Sections {
		jobs[i] = &sectionJob{
			engine:     e,
			set:        set,
			index:      i,
			src:        src,
			comparator: comparator,
			validator:  validator,
		}
	}

	results := worker.Run(ctx, e.parallelism, jobs)
	if len(results) != len(jobs) {
		return nil, fmt.Errorf("evaluate sections: %w", ctx.Err())
	}

	agg := report.NewAggregator(set.Labels, e.failOnIndeterminate)
	for _, r := range results {
		res := r.(*sectionResult)
		for _, v := range res.verdicts {
			agg.Accumulate(v)
		}
		for _, note := range res.notes {
			agg.AddNote(note)
		}
	}

	rep := agg.Finalize()
	e.logger.Debug().
		Int("matches", rep.MatchCount).
		Int("mismatches", rep.MismatchCount).
		Int("indeterminate", rep.IndeterminateCount).
		Bool("failed", rep.Failed).
		Msg("reconciliation finished")

	return rep, nil
}

// extractAll runs one job per table side and probe side
func (e *Engine) extractAll(ctx context.Context, docs map[model.Side]model.Document, set *model.ClaimSet) (*source, error) {
	src := newSource(e.canon, set)

	var jobs []worker.Job
	for si, sec := range set.Sections {
		for _, t := range sec.Tables {
			for _, side := range model.Sides {
				layout := t.For(side)
				if layout == nil {
					continue
				}
				jobs = append(jobs, &tableJob{
					engine:   e,
					doc:      docs[side],
					side:     side,
					table:    t,
					dialect:  firstNonEmpty(layout.Dialect, set.Dialects.For(side)),
					entities: set.EntitySets[t.Entities],
				})
			}
		}
		for pi, p := range sec.Probes {
			for _, side := range model.Sides {
				if p.For(side) == nil {
					continue
				}
				jobs = append(jobs, &probeJob{
					engine: e,
					doc:    docs[side],
					side:   side,
					probe:  p,
					at:     probeAt{section: si, probe: pi, side: side},
				})
			}
		}
	}

	results := worker.Run(ctx, e.parallelism, jobs)
	if len(results) != len(jobs) {
		return nil, fmt.Errorf("extract: %w", ctx.Err())
	}

	for _, r := range results {
		switch res := r.(type) {
		case *tableResult:
			if res.err != nil {
				return nil, res.err
			}
			src.addTable(res)
		case *probeResult:
			src.addProbe(res)
		}
	}

	return src, nil
}

// schemaFor builds the extraction schema of one table side
func schemaFor(t model.Table, layout *model.TableSide, entities []string) extract.Schema {
	schema := extract.Schema{Entities: entities}
	for _, col := range layout.Columns {
		kind := model.KindText
		if f, ok := t.Field(col); ok {
			kind = f.Kind
		}
		schema.Columns = append(schema.Columns, extract.Column{Name: col, Kind: kind})
	}
	return schema
}

type tableJob struct {
	engine   *Engine
	doc      model.Document
	side     model.Side
	table    model.Table
	dialect  string
	entities []string
}

type tableResult struct {
	side       model.Side
	table      model.Table
	extraction extract.Extraction
	found      bool
	err        error
}

func (r *tableResult) GetError() error {
	return r.err
}

func (j *tableJob) Execute(ctx context.Context) worker.Result {
	layout := j.table.For(j.side)
	res := &tableResult{side: j.side, table: j.table}

	dialect, err := j.engine.registry.Resolve(j.dialect, j.doc.Source)
	if err != nil {
		res.err = fmt.Errorf("table %s (%s): %w", j.table.Name, j.side, err)
		return res
	}

	region := extract.Narrow(extract.Whole(j.doc.Text), layout.Regions...)
	res.found = region.Found
	res.extraction = dialect.Extract(region, schemaFor(j.table, layout, j.entities))

	j.engine.logger.Debug().
		Str("table", j.table.Name).
		Str("side", string(j.side)).
		Str("dialect", dialect.Name()).
		Bool("region_found", region.Found).
		Int("rows", res.extraction.Rows).
		Int("records", len(res.extraction.Order)).
		Int("skipped", res.extraction.Skipped).
		Msg("table extracted")

	return res
}

type probeAt struct {
	section int
	probe   int
	side    model.Side
}

type probeJob struct {
	engine *Engine
	doc    model.Document
	side   model.Side
	probe  model.Probe
	at     probeAt
}

type probeResult struct {
	at    probeAt
	name  string
	value model.Value
}

func (r *probeResult) GetError() error {
	return nil
}

func (j *probeJob) Execute(ctx context.Context) worker.Result {
	rule := j.probe.For(j.side)
	res := &probeResult{at: j.at, name: j.probe.Name, value: model.NotFound}

	region := extract.Narrow(extract.Whole(j.doc.Text), rule.Regions...)
	raw, found, err := extract.FindProbe(region, *rule, j.probe.Value)
	switch {
	case err != nil:
		// A broken pattern cannot decide the claim
		res.value = model.Value{Kind: j.probe.Kind, Found: true, Problem: err.Error()}
	case found:
		res.value = j.engine.canon.Canonicalize(raw, j.probe.Kind)
	}

	j.engine.logger.Debug().
		Str("probe", j.probe.Description).
		Str("side", string(j.side)).
		Bool("found", found).
		Msg("probe evaluated")

	return res
}

type sectionJob struct {
	engine     *Engine
	set        *model.ClaimSet
	index      int
	src        *source
	comparator *compare.Comparator
	validator  *validate.Validator
}

type sectionResult struct {
	verdicts []model.Verdict
	notes    []string
}

func (r *sectionResult) GetError() error {
	return nil
}

// Execute evaluates probes, then tables, then laws, then notes
func (j *sectionJob) Execute(ctx context.Context) worker.Result {
	sec := j.set.Sections[j.index]
	res := &sectionResult{}

	for pi, p := range sec.Probes {
		if p.Reference == nil || p.Candidate == nil {
			continue // Law operand only
		}
		res.verdicts = append(res.verdicts, j.comparator.Compare(model.Claim{
			Section:     sec.Title,
			Description: p.Description,
			Kind:        p.Kind,
			A:           j.src.probeValue(probeAt{section: j.index, probe: pi, side: model.SideReference}),
			B:           j.src.probeValue(probeAt{section: j.index, probe: pi, side: model.SideCandidate}),
		}))
	}

	for _, t := range sec.Tables {
		res.notes = append(res.notes, j.tableNotes(t)...)
		if t.Reference == nil || t.Candidate == nil {
			continue
		}
		if len(j.src.entities(t)) == 0 {
			res.verdicts = append(res.verdicts, j.emptyTable(sec.Title, t))
			continue
		}
		for _, claim := range j.tableClaims(sec.Title, t) {
			res.verdicts = append(res.verdicts, j.comparator.Compare(claim))
		}
	}

	for _, law := range sec.Laws {
		res.verdicts = append(res.verdicts, j.validator.Validate(sec.Title, law, j.src)...)
	}

	res.notes = append(res.notes, sec.Notes...)

	j.engine.logger.Debug().
		Str("section", sec.Title).
		Int("verdicts", len(res.verdicts)).
		Msg("section evaluated")

	return res
}

// tableClaims pairs every entity field compared on both sides
func (j *sectionJob) tableClaims(section string, t model.Table) []model.Claim {
	fields := comparedFields(t)
	template := t.Description
	if template == "" {
		template = "{entity} {field}"
	}

	var claims []model.Claim
	for _, entity := range j.src.entities(t) {
		for _, f := range fields {
			claims = append(claims, model.Claim{
				Section:     section,
				Description: model.Describe(template, entity, f.DisplayName(), ""),
				Kind:        f.Kind,
				A:           j.src.Field(model.SideReference, t.Name, entity, f.Name),
				B:           j.src.Field(model.SideCandidate, t.Name, entity, f.Name),
			})
		}
	}
	return claims
}

// emptyTable stands in for a compared table that yielded no rows on either side
func (j *sectionJob) emptyTable(section string, t model.Table) model.Verdict {
	reason := fmt.Sprintf("table %s: no rows extracted", t.Name)
	for _, side := range model.Sides {
		if res, ok := j.src.tables[tableKey{side: side, name: t.Name}]; ok && !res.found {
			reason = fmt.Sprintf("%s table %s: region not found", j.set.Labels.For(side), t.Name)
			break
		}
	}

	return model.Verdict{
		Section:     section,
		Description: "table " + t.Name,
		Outcome:     model.OutcomeIndeterminate,
		Scope:       model.ScopeCrossDocument,
		Left:        model.Observation{Label: j.set.Labels.For(model.SideReference), Value: model.NotFound},
		Right:       model.Observation{Label: j.set.Labels.For(model.SideCandidate), Value: model.NotFound},
		Reason:      reason,
	}
}

func (j *sectionJob) tableNotes(t model.Table) []string {
	if !j.engine.reportSkippedRows {
		return nil
	}

	var notes []string
	for _, side := range model.Sides {
		res, ok := j.src.tables[tableKey{side: side, name: t.Name}]
		if !ok {
			continue
		}
		label := j.set.Labels.For(side)
		switch {
		case !res.found:
			notes = append(notes, fmt.Sprintf("%s table %s: region not found", label, t.Name))
		case res.extraction.Skipped > 0:
			notes = append(notes, fmt.Sprintf("%s table %s: skipped %d of %d rows",
				label, t.Name, res.extraction.Skipped, res.extraction.Rows))
		}
	}
	return notes
}

// comparedFields returns the fields laid out in both documents, in declaration order
func comparedFields(t model.Table) []model.Field {
	in := func(layout *model.TableSide, name string) bool {
		for _, col := range layout.Columns {
			if col == name {
				return true
			}
		}
		return false
	}

	var fields []model.Field
	for _, f := range t.Fields {
		if f.Name == claimset.Placeholder {
			continue
		}
		if in(t.Reference, f.Name) && in(t.Candidate, f.Name) {
			fields = append(fields, f)
		}
	}
	return fields
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
