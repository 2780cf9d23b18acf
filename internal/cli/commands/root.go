package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"rfm-segmentation/internal/cli/ui"
	"rfm-segmentation/internal/config"
	apperrors "rfm-segmentation/internal/errors"
	"rfm-segmentation/internal/observability"
)

const version = "1.0.0"

// options holds the flags shared by every subcommand. A flag only
// overrides the environment when it was set explicitly.
type options struct {
	input    string
	dsn      string
	table    string
	output   string
	clean    bool
	clusters int
	seed     uint64
	maxIter  int
	nInit    int
	elbowMin int
	elbowMax int
	logLevel string
}

// NewRootCmd builds the rfm command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:     "rfm",
		Short:   "RFM customer segmentation",
		Version: version,
		Long: `Segment customers by Recency, Frequency and Monetary value.

Reads a transaction export (CSV or SQL table), scores every customer into
quintile tiers, assigns a rule-based segment and a k-means cluster, and
writes the labeled table together with a markdown summary.`,
		Example: `  # Segment a cleaned export and write artifacts to data/processed
  $ rfm run --input data/processed/cleaned_data.csv

  # Clean a raw retail export first
  $ rfm run --input data/raw/data.csv --clean

  # Inspect the elbow curve before choosing a cluster count
  $ rfm elbow --input data/processed/cleaned_data.csv --max-k 12

  # Summarize a previous run
  $ rfm summary --from data/processed/rfm_segments.csv`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetVersionTemplate(fmt.Sprintf("rfm version %s\n", version))
	rootCmd.SetUsageTemplate(usageTemplate())
	rootCmd.SetHelpTemplate(usageTemplate())

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.input, "input", "i", "", "transaction CSV (env RFM_INPUT)")
	flags.StringVar(&opts.dsn, "dsn", "", "mysql://, mariadb:// or postgres:// source (env RFM_SOURCE_DSN)")
	flags.StringVar(&opts.table, "table", "", "source table when --dsn is set (env RFM_SOURCE_TABLE)")
	flags.StringVarP(&opts.output, "output", "o", "", "artifact directory (env RFM_OUTPUT_DIR)")
	flags.BoolVar(&opts.clean, "clean", false, "clean a raw export before segmenting (env RFM_CLEAN)")
	flags.IntVarP(&opts.clusters, "clusters", "k", 0, "k-means cluster count (env RFM_CLUSTERS)")
	flags.Uint64Var(&opts.seed, "seed", 0, "random seed for k-means (env RFM_SEED)")
	flags.IntVar(&opts.maxIter, "max-iter", 0, "k-means iteration cap (env RFM_MAX_ITER)")
	flags.IntVar(&opts.nInit, "n-init", 0, "k-means restarts (env RFM_N_INIT)")
	flags.IntVar(&opts.elbowMin, "min-k", 0, "first K of the elbow sweep (env RFM_ELBOW_MIN_K)")
	flags.IntVar(&opts.elbowMax, "max-k", 0, "last K of the elbow sweep (env RFM_ELBOW_MAX_K)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn or error")

	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newElbowCmd(opts))
	rootCmd.AddCommand(newSummaryCmd(opts))

	return rootCmd
}

// Execute runs the root command with the process arguments.
func Execute() error {
	return NewRootCmd().Execute()
}

// setup loads the configuration, applies explicitly set flags and builds a
// text logger on stderr.
func setup(cmd *cobra.Command, opts *options) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	flags := cmd.Flags()
	p := &cfg.Pipeline
	if flags.Changed("input") {
		p.InputPath = opts.input
		p.SourceDSN = ""
	}
	if flags.Changed("dsn") {
		p.SourceDSN = opts.dsn
	}
	if flags.Changed("table") {
		p.SourceTable = opts.table
	}
	if flags.Changed("output") {
		p.OutputDir = opts.output
	}
	if flags.Changed("clean") {
		p.Clean = opts.clean
	}
	if flags.Changed("clusters") {
		p.ClusterCount = opts.clusters
	}
	if flags.Changed("seed") {
		p.Seed = opts.seed
	}
	if flags.Changed("max-iter") {
		p.MaxIter = opts.maxIter
	}
	if flags.Changed("n-init") {
		p.NInit = opts.nInit
	}
	if flags.Changed("min-k") {
		p.ElbowMinK = opts.elbowMin
	}
	if flags.Changed("max-k") {
		p.ElbowMaxK = opts.elbowMax
	}
	cfg.Logger = config.LoggerConfig{Level: opts.logLevel, Format: "text"}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, observability.NewLoggerTo(cmd.ErrOrStderr(), cfg.Logger), nil
}

// Describe renders err for the terminal. Pipeline failures show their
// code and the offending column, metric or customer.
func Describe(err error) string {
	appErr := apperrors.FromPipeline(err)
	if appErr.Code == apperrors.CodeInternal {
		return err.Error()
	}
	if appErr.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", appErr.Code, appErr.Message, appErr.Details)
	}
	return fmt.Sprintf("%s: %s", appErr.Code, appErr.Message)
}

func usageTemplate() string {
	return `{{if .Long}}{{.Long}}

{{end}}` + ui.Styles.Bold.Render("USAGE") + `
  {{.UseLine}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}

{{if .HasExample}}` + ui.Styles.Bold.Render("EXAMPLES") + `
{{.Example}}

{{end}}{{if .HasAvailableSubCommands}}` + ui.Styles.Bold.Render("COMMANDS") + `{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

{{end}}{{if .HasAvailableLocalFlags}}` + ui.Styles.Bold.Render("OPTIONS") + `
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableInheritedFlags}}` + ui.Styles.Bold.Render("GLOBAL OPTIONS") + `
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableSubCommands}}Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`
}
