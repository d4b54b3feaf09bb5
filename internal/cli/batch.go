package cli

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/ppiankov/docparity/internal/model"
	"github.com/ppiankov/docparity/internal/report"
	"github.com/ppiankov/docparity/internal/worker"
	"github.com/spf13/cobra"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <manifest>",
	Short: "Reconcile many document pairs from a manifest in parallel",
	Long: `Batch reconciles every pair listed in a manifest:
- One "reference candidate" pair per line, tab or space separated
- Blank lines and # comments are skipped
- Pairs run concurrently with a configurable worker count
- Optionally writes a JSON and Markdown report per pair

Exit status is 1 when any pair fails or cannot be loaded.

Example:
  docparity batch pairs.txt
  docparity batch pairs.txt --concurrency 4 --output-dir ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "", "directory for per-pair JSON and Markdown reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "batch-timeout", 10*time.Minute, "total timeout for batch processing")
	addEngineFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	manifest := args[0]
	stderr := cmd.ErrOrStderr()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  docparity batch\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Manifest:     %s\n", manifest)
	fmt.Fprintf(stderr, "  Workers:      %d\n", concurrency)
	if outputDir != "" {
		fmt.Fprintf(stderr, "  Output dir:   %s\n", outputDir)
	}
	fmt.Fprintf(stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(stderr, "\n")

	p, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}

	processor := worker.NewBatchProcessor(p, concurrency)
	results, err := processor.ProcessFile(ctx, manifest)
	if err != nil {
		return fmt.Errorf("process manifest: %w", err)
	}

	renderer := report.NewRenderer(cfg.Output.ShowMatches)
	fs := afs.New()

	table := tablewriter.NewTable(stderr)
	table.Header("Reference", "Candidate", "Result", "Mismatches", "Indeterminate")

	failed := 0
	for i, result := range results {
		if result.Failed() {
			failed++
		}

		if result.Error != nil {
			if err := table.Append(result.Pair.Reference, result.Pair.Candidate, "ERROR", "-", "-"); err != nil {
				return err
			}
			fmt.Fprintf(stderr, "✗ %s: %v\n", result.Pair, result.Error)
			continue
		}

		rep := result.Report
		if err := table.Append(result.Pair.Reference, result.Pair.Candidate, resultWord(rep),
			strconv.Itoa(rep.MismatchCount), strconv.Itoa(rep.IndeterminateCount)); err != nil {
			return err
		}

		if outputDir == "" {
			continue
		}
		slug := fmt.Sprintf("%03d-%s", i+1, sanitizeFilename(result.Pair.Candidate))
		for _, out := range []struct{ format, ext string }{{"json", ".json"}, {"markdown", ".md"}} {
			path := filepath.Join(outputDir, slug+out.ext)
			if err := writeReport(ctx, fs, renderer, rep, out.format, path); err != nil {
				fmt.Fprintf(stderr, "✗ %s: %v\n", result.Pair, err)
			}
		}
	}

	if err := table.Render(); err != nil {
		return err
	}

	// Summary
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Total:     %d pairs\n", len(results))
	fmt.Fprintf(stderr, "  Passed:    %d\n", len(results)-failed)
	fmt.Fprintf(stderr, "  Failed:    %d\n", failed)
	fmt.Fprintf(stderr, "\n")

	if failed > 0 {
		return ErrFailed
	}
	return nil
}

// writeReport renders rep in format and stores it at path
func writeReport(ctx context.Context, fs afs.Service, renderer *report.Renderer, rep *model.Report, format, path string) error {
	var buf bytes.Buffer
	if err := renderer.Render(&buf, rep, format); err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}
	if err := fs.Upload(ctx, path, file.DefaultFileOsMode, &buf); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func resultWord(rep *model.Report) string {
	if rep.Failed {
		return "FAILED"
	}
	return "PASSED"
}

// sanitizeFilename turns a document location into a safe file name stem
func sanitizeFilename(s string) string {
	s = strings.TrimRight(s, "/")
	s = filepath.Base(filepath.ToSlash(s))
	s = strings.TrimSuffix(s, filepath.Ext(s))

	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(s)

	// Limit length
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" || s == "." {
		s = "report"
	}

	return s
}
