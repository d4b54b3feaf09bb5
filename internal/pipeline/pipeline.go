package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ppiankov/docparity/internal/model"
	"github.com/ppiankov/docparity/internal/report"
	"github.com/rs/zerolog"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
)

// Pipeline loads a document pair and reconciles it with one claim set
type Pipeline struct {
	loader   *Loader
	engine   *Engine
	set      *model.ClaimSet
	renderer *report.Renderer
	config   *model.Config
	logger   zerolog.Logger
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, set *model.ClaimSet, logger zerolog.Logger) (*Pipeline, error) {
	engine, err := NewEngine(cfg.Engine, logger)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		loader:   NewLoader(cfg.Load, logger),
		engine:   engine,
		set:      set,
		renderer: report.NewRenderer(cfg.Output.ShowMatches),
		config:   cfg,
		logger:   logger,
	}, nil
}

// ReconcilePaths loads both documents and reconciles them.
// Load failures are returned as *LoadError before any claim is evaluated.
func (p *Pipeline) ReconcilePaths(ctx context.Context, reference, candidate string) (*model.Report, error) {
	start := time.Now()

	ref, cand, err := p.loader.LoadPair(ctx, reference, candidate)
	if err != nil {
		return nil, err
	}

	rep, err := p.engine.Reconcile(ctx, ref, cand, p.set)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	p.logger.Info().
		Str("reference", reference).
		Str("candidate", candidate).
		Int("mismatches", rep.MismatchCount).
		Int("indeterminate", rep.IndeterminateCount).
		Dur("took", time.Since(start)).
		Msg("reconciled")

	return rep, nil
}

// RenderReport writes the report to w in the configured format, plus the
// optional JSON and Markdown copies named in the output config
func (p *Pipeline) RenderReport(ctx context.Context, w io.Writer, rep *model.Report) error {
	if err := p.renderer.Render(w, rep, p.config.Output.Format); err != nil {
		return fmt.Errorf("render %s: %w", p.config.Output.Format, err)
	}

	extras := []struct {
		format string
		path   string
	}{
		{"json", p.config.Output.JSON},
		{"markdown", p.config.Output.Markdown},
	}

	fs := afs.New()
	for _, extra := range extras {
		if extra.path == "" {
			continue
		}

		var buf bytes.Buffer
		if err := p.renderer.Render(&buf, rep, extra.format); err != nil {
			return fmt.Errorf("render %s: %w", extra.format, err)
		}
		if err := fs.Upload(ctx, extra.path, file.DefaultFileOsMode, &buf); err != nil {
			return fmt.Errorf("write %s: %w", extra.path, err)
		}
		p.logger.Debug().Str("path", extra.path).Msgf("wrote %s report", extra.format)
	}

	return nil
}
