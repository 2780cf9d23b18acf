package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"rfm-segmentation/internal/cli/ui"
	"rfm-segmentation/internal/report"
	"rfm-segmentation/internal/rfm"
)

func newSummaryCmd(opts *options) *cobra.Command {
	var (
		from     string
		markdown bool
		write    bool
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "summarize a labeled customer table",
		Long: `Read a labeled table written by "rfm run" and print customer counts and
revenue per segment, plus cluster sizes when the table carries cluster
labels. The source transactions are not read again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			if from == "" {
				from = filepath.Join(cfg.Pipeline.OutputDir, report.SegmentsFile)
			}

			customers, err := report.ReadCustomersFile(from)
			if err != nil {
				return fmt.Errorf("read %s: %w", from, err)
			}

			out := cmd.OutOrStdout()
			insights := report.Insights(customers)

			if markdown {
				fmt.Fprint(out, insights)
			} else {
				ui.PrintInfo(out, "%d customers from %s", len(customers), from)
				fmt.Fprintln(out, ui.SegmentTable(rfm.SegmentSummaries(customers)))
				if clusters := rfm.ClusterSummaries(customers); len(clusters) > 0 {
					fmt.Fprintln(out, ui.ClusterTable(clusters))
				}
			}

			if write {
				path := filepath.Join(filepath.Dir(from), report.InsightsFile)
				if err := os.WriteFile(path, []byte(insights), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
				ui.PrintSuccess(out, "summary: %s", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "labeled table (default <output>/rfm_segments.csv)")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "print the markdown summary instead of tables")
	cmd.Flags().BoolVar(&write, "write", false, "write rfm_summary.md next to the table")
	return cmd
}
