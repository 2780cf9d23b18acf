package commands

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"rfm-segmentation/internal/cli/ui"
	"rfm-segmentation/internal/models"
	"rfm-segmentation/internal/report"
	"rfm-segmentation/internal/services"
)

func newRunCmd(opts *options) *cobra.Command {
	var skipClustering bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "segment customers and write the labeled table",
		Long: `Run the full pipeline: aggregate transactions per customer, score each
metric into quintile tiers, classify segments, cluster with k-means and
sweep the elbow curve. Writes rfm_segments.csv, a timestamped JSON export,
elbow.csv and rfm_summary.md into the output directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			if skipClustering {
				cfg.Pipeline.SkipClustering = true
			}

			analytics := services.NewAnalytics(cfg.Pipeline, logger)

			var bar *progressbar.ProgressBar
			analytics.OnElbowStart = func(steps int) {
				bar = newProgressBar(cmd, steps, "elbow sweep")
			}
			analytics.OnElbowPoint = func(models.ElbowPoint) { _ = bar.Add(1) }

			snap, err := analytics.Refresh(cmd.Context())
			if bar != nil {
				_ = bar.Finish()
			}
			if err != nil {
				return err
			}

			arts, err := report.WriteAll(cmd.Context(), logger, cfg.Pipeline.OutputDir, snap.Result, snap.Info, snap.Elbow)
			if err != nil {
				return fmt.Errorf("write artifacts: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.RunBox(snap.Info))
			if snap.Clean != nil {
				ui.PrintInfo(out, "cleaning kept %d of %d rows", snap.Clean.Kept, snap.Clean.Input)
			}
			fmt.Fprintln(out, ui.SegmentTable(snap.Segments))
			if len(snap.Clusters) > 0 {
				fmt.Fprintln(out, ui.ClusterTable(snap.Clusters))
			}
			for _, w := range snap.Warnings {
				ui.PrintWarning(out, "%s", w)
			}

			ui.PrintSuccess(out, "labeled table: %s", arts.SegmentsCSV)
			ui.PrintSuccess(out, "json export:   %s", arts.SegmentsJSON)
			ui.PrintSuccess(out, "summary:       %s", arts.Insights)
			if arts.ElbowCSV != "" {
				ui.PrintSuccess(out, "elbow curve:   %s", arts.ElbowCSV)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipClustering, "skip-clustering", false, "only run the rule-based segmentation (env RFM_SKIP_CLUSTERING)")
	return cmd
}

func newProgressBar(cmd *cobra.Command, steps int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(steps,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
