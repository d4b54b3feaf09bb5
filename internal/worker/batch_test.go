package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/docparity/internal/model"
)

// MockReconciler implements Reconciler interface
type MockReconciler struct {
	ShouldError bool
	FailFor     string // Candidate whose report fails
}

func (m *MockReconciler) ReconcilePaths(ctx context.Context, reference, candidate string) (*model.Report, error) {
	time.Sleep(10 * time.Millisecond) // Simulate work
	if m.ShouldError {
		return nil, errors.New("load error")
	}
	return &model.Report{
		ReferenceLabel: reference,
		CandidateLabel: candidate,
		Failed:         candidate == m.FailFor,
	}, nil
}

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBatchProcessor_ProcessPairs(t *testing.T) {
	processor := NewBatchProcessor(&MockReconciler{FailFor: "b.tex"}, 2)

	pairs := []Pair{
		{Reference: "a.html", Candidate: "a.tex"},
		{Reference: "b.html", Candidate: "b.tex"},
		{Reference: "c.html", Candidate: "c.tex"},
	}

	results := processor.ProcessPairs(context.Background(), pairs)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	for i, res := range results {
		if res.Pair != pairs[i] {
			t.Errorf("expected manifest order, got %v at %d", res.Pair, i)
		}
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.Pair, res.Error)
		}
	}

	if results[0].Failed() || !results[1].Failed() || results[2].Failed() {
		t.Errorf("expected only the second pair to fail")
	}
}

func TestBatchProcessor_ProcessPairs_Error(t *testing.T) {
	processor := NewBatchProcessor(&MockReconciler{ShouldError: true}, 2)

	results := processor.ProcessPairs(context.Background(), []Pair{{Reference: "a", Candidate: "b"}})

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].GetError() == nil {
		t.Error("expected error result")
	}
	if !results[0].Failed() {
		t.Error("expected errored pair to count as failed")
	}
}

func TestBatchProcessor_ProcessPairs_Empty(t *testing.T) {
	processor := NewBatchProcessor(&MockReconciler{}, 2)

	results := processor.ProcessPairs(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestReadPairsFromFile(t *testing.T) {
	path := writeManifest(t, `site/index.html paper/main.tex
# comment
   
site/v2.html	paper/with space.tex
site/index.html   paper/main.tex
`)

	pairs, err := ReadPairsFromFile(path)
	if err != nil {
		t.Fatalf("ReadPairsFromFile failed: %v", err)
	}

	expected := []Pair{
		{Reference: "site/index.html", Candidate: "paper/main.tex"},
		{Reference: "site/v2.html", Candidate: "paper/with space.tex"},
	}
	if len(pairs) != len(expected) {
		t.Fatalf("expected %d pairs, got %d: %v", len(expected), len(pairs), pairs)
	}
	for i, pair := range pairs {
		if pair != expected[i] {
			t.Errorf("expected %v at index %d, got %v", expected[i], i, pair)
		}
	}
}

func TestReadPairsFromFile_BadLine(t *testing.T) {
	path := writeManifest(t, "a.html a.tex\nonly-one.html\n")

	_, err := ReadPairsFromFile(path)
	if err == nil {
		t.Fatal("expected error for a line with one document")
	}
	if got := err.Error(); got != "line 2: expected 2 documents, got 1" {
		t.Errorf("unexpected error %q", got)
	}
}

func TestReadPairsFromFile_NonExistent(t *testing.T) {
	_, err := ReadPairsFromFile("non_existent_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := writeManifest(t, "a.html a.tex\n# comment\n\nb.html b.tex\n")

	processor := NewBatchProcessor(&MockReconciler{}, 2)

	results, err := processor.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessFile_Empty(t *testing.T) {
	path := writeManifest(t, "")

	results, err := NewBatchProcessor(&MockReconciler{}, 2).ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected 0 results for empty manifest, got %d", len(results))
	}
}
