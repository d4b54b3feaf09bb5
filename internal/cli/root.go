package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/ppiankov/docparity/internal/logging"
	"github.com/ppiankov/docparity/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Process exit statuses
const (
	ExitOK     = 0
	ExitFailed = 1 // The report failed
	ExitFatal  = 2 // Bad input, configuration or I/O
)

// ErrFailed is returned by commands whose reconciliation report failed
var ErrFailed = errors.New("reconciliation failed")

var version = "0.1.0"

var (
	cfgFile   string
	verbose   bool
	quiet     bool
	configErr error
	runID     string
)

// flagKeys maps command-line flags onto configuration keys
var flagKeys = map[string]string{
	"reference":             "documents.reference",
	"candidate":             "documents.candidate",
	"claims":                "claims",
	"format":                "output.format",
	"json":                  "output.json",
	"md":                    "output.markdown",
	"show-matches":          "output.show_matches",
	"parallelism":           "engine.parallelism",
	"rounding":              "engine.rounding",
	"fail-on-indeterminate": "engine.fail_on_indeterminate",
	"report-skipped-rows":   "engine.report_skipped_rows",
	"timeout":               "load.timeout",
	"retries":               "load.retries",
	"debounce":              "watch.debounce",
	"min-interval":          "watch.min_interval",
	"log-level":             "log.level",
	"log-format":            "log.format",
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "docparity",
	Short: "docparity - reconcile a results webpage with its manuscript",
	Long: `docparity checks that the numbers a project webpage reports agree with the
numbers in its LaTeX manuscript.

It extracts the tables and phrases named in a claim set from both documents,
compares every value after normalization, and re-derives computed fields
(percentages, sums, gaps) from the raw counts they come from.

Exit status is 0 when every check passes, 1 when the report fails and 2 on
bad input or I/O errors.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(cmd); err != nil {
			return err
		}
		configureLogging()
		return nil
	},
}

// Execute runs the root command and returns the process exit status
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return exitCode(rootCmd.ExecuteContext(ctx), os.Stderr)
}

// exitCode maps a command error onto an exit status, reporting fatal errors on w
func exitCode(err error, w io.Writer) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrFailed):
		return ExitFailed
	default:
		fmt.Fprintf(w, "Error: %v\n", err)
		return ExitFatal
	}
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "docparity v%s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.docparity/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	flags.BoolVarP(&quiet, "quiet", "q", false, "log errors only")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json, auto)")

	rootCmd.AddCommand(versionCmd)
}

// addEngineFlags registers the flags shared by every reconciling command
func addEngineFlags(cmd *cobra.Command) {
	defaults := model.DefaultConfig()

	flags := cmd.Flags()
	flags.String("claims", "", "claim set file or URL (default: built-in set)")
	flags.StringP("format", "f", defaults.Output.Format, "report format (text, json, markdown)")
	flags.Bool("show-matches", defaults.Output.ShowMatches, "list matching claims in text reports")
	flags.IntP("parallelism", "p", defaults.Engine.Parallelism, "claim groups evaluated concurrently")
	flags.String("rounding", defaults.Engine.Rounding, "rounding mode for derived values (half_up, half_even)")
	flags.Bool("fail-on-indeterminate", defaults.Engine.FailOnIndeterminate, "treat claims that could not be evaluated as failures")
	flags.Bool("report-skipped-rows", defaults.Engine.ReportSkippedRows, "add a note for tables with missing regions or skipped rows")
	flags.Duration("timeout", defaults.Load.Timeout, "timeout for loading each document")
	flags.Uint("retries", defaults.Load.Retries, "retries for transient load failures")
}

// addDocumentFlags registers the document pair flags
func addDocumentFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("reference", "r", "", "reference document (results webpage)")
	flags.StringP("candidate", "c", "", "candidate document (LaTeX manuscript)")
	flags.String("json", "", "also write a JSON report to this path")
	flags.String("md", "", "also write a Markdown report to this path")
}

// bindFlags binds the flags of the running command to their configuration keys.
// Several commands share flag names, so this runs per invocation.
func bindFlags(cmd *cobra.Command) error {
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		err = viper.BindPFlag(key, f)
	})
	return err
}

// initConfig reads in config file and ENV variables
func initConfig() {
	// .env is optional
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".docparity"))
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match DOCPARITY_*
	viper.SetEnvPrefix("DOCPARITY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	configErr = setDefaults(model.DefaultConfig())
	if configErr != nil {
		return
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			configErr = fmt.Errorf("read config: %w", err)
		}
	}
}

// setDefaults registers every leaf of cfg as a viper default, so environment
// variables resolve for keys no config file mentions
func setDefaults(cfg *model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode defaults: %w", err)
	}

	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("decode defaults: %w", err)
	}

	setDefaultTree("", tree)
	return nil
}

func setDefaultTree(prefix string, tree map[string]any) {
	for name, value := range tree {
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		if sub, ok := value.(map[string]any); ok {
			setDefaultTree(key, sub)
			continue
		}
		viper.SetDefault(key, value)
	}
}

// loadConfig resolves the effective configuration
// (flags > DOCPARITY_* env > config file > defaults)
func loadConfig() (*model.Config, error) {
	if configErr != nil {
		return nil, configErr
	}

	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// configureLogging builds the process-wide logger and tags it with a fresh run id
func configureLogging() {
	level := viper.GetString("log.level")
	switch {
	case verbose:
		level = "debug"
	case quiet:
		level = "error"
	}

	runID = uuid.NewString()
	logger := logging.Configure(level, viper.GetString("log.format")).
		With().Str("run_id", runID).Logger()
	logging.SetDefault(logger)

	if file := viper.ConfigFileUsed(); file != "" && configErr == nil {
		logger.Debug().Str("file", file).Msg("using config file")
	}
}
