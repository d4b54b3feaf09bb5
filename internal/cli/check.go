package cli

import (
	"context"
	"errors"

	"github.com/ppiankov/docparity/internal/claimset"
	"github.com/ppiankov/docparity/internal/logging"
	"github.com/ppiankov/docparity/internal/model"
	"github.com/ppiankov/docparity/internal/pipeline"
	"github.com/spf13/cobra"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Reconcile one webpage with its manuscript",
	Long: `Check loads both documents, evaluates every claim in the claim set and
prints the report.

Documents can be local paths or any URL the loader understands.

Example:
  docparity check -r site/index.html -c paper/main.tex
  docparity check -r site/index.html -c paper/main.tex --claims claims.yaml
  docparity check -r site/index.html -c paper/main.tex -f json --md report.md`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	addDocumentFlags(checkCmd)
	addEngineFlags(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := requireDocuments(cfg); err != nil {
		return err
	}

	ctx := cmd.Context()
	p, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}

	rep, err := p.ReconcilePaths(ctx, cfg.Documents.Reference, cfg.Documents.Candidate)
	if err != nil {
		return err
	}

	if err := p.RenderReport(ctx, cmd.OutOrStdout(), rep); err != nil {
		return err
	}

	if rep.Failed {
		return ErrFailed
	}
	return nil
}

func requireDocuments(cfg *model.Config) error {
	if cfg.Documents.Reference == "" || cfg.Documents.Candidate == "" {
		return errors.New("both --reference and --candidate are required")
	}
	return nil
}

// buildPipeline loads the configured claim set and wires a pipeline around it
func buildPipeline(ctx context.Context, cfg *model.Config) (*pipeline.Pipeline, error) {
	set, err := claimset.Load(ctx, cfg.Claims)
	if err != nil {
		return nil, err
	}

	return pipeline.NewPipeline(cfg, set, *logging.Default())
}
