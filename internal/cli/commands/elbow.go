package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"rfm-segmentation/internal/cli/ui"
	"rfm-segmentation/internal/models"
	"rfm-segmentation/internal/report"
	"rfm-segmentation/internal/rfm"
	"rfm-segmentation/internal/services"
)

func newElbowCmd(opts *options) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "elbow",
		Short: "print the k-means inertia curve",
		Long: `Cluster the standardized RFM metrics for every K in the sweep range and
print the inertia of each. The curve is advisory: pick the cluster count
where the decrease flattens and pass it to "rfm run --clusters".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd, opts)
			if err != nil {
				return err
			}

			analytics := services.NewAnalytics(cfg.Pipeline, logger)
			table, _, err := analytics.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("load transactions: %w", err)
			}

			customers, _, err := rfm.Aggregate(table)
			if err != nil {
				return fmt.Errorf("aggregate: %w", err)
			}

			p := cfg.Pipeline
			bar := newProgressBar(cmd, p.ElbowMaxK-p.ElbowMinK+1, "elbow sweep")
			curve, err := rfm.StandardizedElbow(customers, p.ElbowMinK, p.ElbowMaxK, analytics.ClusterOptions(),
				func(models.ElbowPoint) { _ = bar.Add(1) })
			_ = bar.Finish()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.ElbowTable(curve))

			if save {
				path := filepath.Join(p.OutputDir, report.ElbowFile)
				if err := saveElbow(path, curve); err != nil {
					return err
				}
				ui.PrintSuccess(out, "elbow curve: %s", path)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "also write elbow.csv into the output directory")
	return cmd
}

func saveElbow(path string, curve []models.ElbowPoint) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create folder: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	if err := report.WriteElbowCSV(file, curve); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}
