package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/docparity/internal/model"
)

// Pair is one reference/candidate document pair listed in a manifest
type Pair struct {
	Reference string
	Candidate string
}

// String renders the pair as it appears in a manifest
func (p Pair) String() string {
	return p.Reference + " " + p.Candidate
}

// Reconciler defines the interface for reconciling one document pair
type Reconciler interface {
	ReconcilePaths(ctx context.Context, reference, candidate string) (*model.Report, error)
}

// PairJob represents one reconciliation job
type PairJob struct {
	Pair       Pair
	Reconciler Reconciler
}

// Execute executes the reconciliation job
func (j *PairJob) Execute(ctx context.Context) Result {
	report, err := j.Reconciler.ReconcilePaths(ctx, j.Pair.Reference, j.Pair.Candidate)
	return &PairResult{
		Pair:   j.Pair,
		Report: report,
		Error:  err,
	}
}

// PairResult represents the result of a reconciliation job
type PairResult struct {
	Pair   Pair
	Report *model.Report
	Error  error
}

// GetError returns the error from the reconciliation
func (r *PairResult) GetError() error {
	return r.Error
}

// Failed reports whether the pair errored or its report failed
func (r *PairResult) Failed() bool {
	return r.Error != nil || (r.Report != nil && r.Report.Failed)
}

// BatchProcessor reconciles multiple document pairs concurrently
type BatchProcessor struct {
	reconciler  Reconciler
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(reconciler Reconciler, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		reconciler:  reconciler,
		concurrency: concurrency,
	}
}

// ProcessPairs reconciles pairs concurrently; results keep manifest order
func (b *BatchProcessor) ProcessPairs(ctx context.Context, pairs []Pair) []*PairResult {
	if len(pairs) == 0 {
		return []*PairResult{}
	}

	jobs := make([]Job, len(pairs))
	for i, pair := range pairs {
		jobs[i] = &PairJob{
			Pair:       pair,
			Reconciler: b.reconciler,
		}
	}

	results := Run(ctx, b.concurrency, jobs)

	pairResults := make([]*PairResult, len(results))
	for i, result := range results {
		pairResults[i] = result.(*PairResult)
	}

	return pairResults
}

// ProcessFile reads pairs from a manifest and reconciles them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*PairResult, error) {
	pairs, err := ReadPairsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	return b.ProcessPairs(ctx, pairs), nil
}

// ReadPairsFromFile reads a manifest: one "reference candidate" pair per line.
// Fields are separated by a tab, or by whitespace when the line has no tab.
// Blank lines and # comments are skipped; repeated pairs are read once.
func ReadPairsFromFile(filePath string) ([]Pair, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var pairs []Pair
	seen := make(map[Pair]bool)

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var fields []string
		if strings.Contains(line, "\t") {
			for _, f := range strings.Split(line, "\t") {
				if f = strings.TrimSpace(f); f != "" {
					fields = append(fields, f)
				}
			}
		} else {
			fields = strings.Fields(line)
		}

		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected 2 documents, got %d", lineNo, len(fields))
		}

		pair := Pair{Reference: fields[0], Candidate: fields[1]}
		if !seen[pair] {
			seen[pair] = true
			pairs = append(pairs, pair)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return pairs, nil
}
