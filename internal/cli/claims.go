package cli

import (
	"fmt"

	"github.com/ppiankov/docparity/internal/claimset"
	"github.com/ppiankov/docparity/internal/model"
	"github.com/spf13/cobra"
)

// claimsCmd represents the claims command
var claimsCmd = &cobra.Command{
	Use:   "claims",
	Short: "Inspect and validate claim sets",
	Long: `A claim set declares which tables, phrases and arithmetic laws a run checks,
and where each one lives in the two documents.

Without --claims every command uses the built-in set.`,
}

var claimsValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a claim set against the schema and its cross references",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := claimset.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		probes, tables, laws := countClaims(set)
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %d sections, %d tables, %d probes, %d laws\n",
			args[0], len(set.Sections), tables, probes, laws)
		return nil
	},
}

var claimsShowCmd = &cobra.Command{
	Use:   "show [file]",
	Short: "Print a claim set (default: the built-in set)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		location := cfg.Claims
		if len(args) == 1 {
			location = args[0]
		}

		data, err := claimset.Read(cmd.Context(), location)
		if err != nil {
			return err
		}
		if location != "" {
			if _, err := claimset.Parse(data, location); err != nil {
				return err
			}
		}

		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var claimsSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema claim sets are validated against",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := cmd.OutOrStdout().Write(claimset.Schema())
		return err
	},
}

func countClaims(set *model.ClaimSet) (probes, tables, laws int) {
	for _, section := range set.Sections {
		probes += len(section.Probes)
		tables += len(section.Tables)
		laws += len(section.Laws)
	}
	return probes, tables, laws
}

func init() {
	rootCmd.AddCommand(claimsCmd)
	claimsCmd.AddCommand(claimsValidateCmd)
	claimsCmd.AddCommand(claimsShowCmd)
	claimsCmd.AddCommand(claimsSchemaCmd)

	claimsShowCmd.Flags().String("claims", "", "claim set file or URL")
}
