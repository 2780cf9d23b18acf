package report

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"rfm-segmentation/internal/models"
	"rfm-segmentation/internal/rfm"
)

const (
	SegmentsFile = "rfm_segments.csv"
	ElbowFile    = "elbow.csv"
	InsightsFile = "rfm_summary.md"
	jsonName     = "rfm_segments"
)

// Artifacts lists the files one WriteAll call produced. ElbowCSV is empty
// when no elbow curve was given.
type Artifacts struct {
	SegmentsCSV  string `json:"segments_csv"`
	SegmentsJSON string `json:"segments_json"`
	ElbowCSV     string `json:"elbow_csv,omitempty"`
	Insights     string `json:"insights"`
}

// Document is the JSON form of a run.
type Document struct {
	Run       models.RunInfo          `json:"run"`
	Segments  []models.SegmentSummary `json:"segments"`
	Clusters  []models.ClusterSummary `json:"clusters,omitempty"`
	Elbow     []models.ElbowPoint     `json:"elbow,omitempty"`
	Customers []models.CustomerRFM    `json:"customers"`
}

// WriteAll writes every artifact of a run into dir concurrently. The files
// are independent; the first failure cancels the rest and is returned.
func WriteAll(ctx context.Context, logger *slog.Logger, dir string, res *rfm.Result, info models.RunInfo, elbow []models.ElbowPoint) (Artifacts, error) {
	arts := Artifacts{
		SegmentsCSV:  filepath.Join(dir, SegmentsFile),
		SegmentsJSON: TimestampedFilename(dir, jsonName),
		Insights:     filepath.Join(dir, InsightsFile),
	}
	if len(elbow) > 0 {
		arts.ElbowCSV = filepath.Join(dir, ElbowFile)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return writeFile(arts.SegmentsCSV, func(w io.Writer) error {
			return WriteCustomersCSV(w, res.Customers)
		})
	})

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return ExportJSON(arts.SegmentsJSON, Document{
			Run:       info,
			Segments:  rfm.SegmentSummaries(res.Customers),
			Clusters:  rfm.ClusterSummaries(res.Customers),
			Elbow:     elbow,
			Customers: res.Customers,
		})
	})

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return writeFile(arts.Insights, func(w io.Writer) error {
			_, err := io.WriteString(w, Insights(res.Customers))
			return err
		})
	})

	if arts.ElbowCSV != "" {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return writeFile(arts.ElbowCSV, func(w io.Writer) error {
				return WriteElbowCSV(w, elbow)
			})
		})
	}

	if err := g.Wait(); err != nil {
		return Artifacts{}, err
	}

	logger.Info("artifacts written",
		"dir", dir,
		"segments_csv", arts.SegmentsCSV,
		"segments_json", arts.SegmentsJSON,
		"insights", arts.Insights,
		"elbow_csv", arts.ElbowCSV,
	)

	return arts, nil
}
