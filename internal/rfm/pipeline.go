package rfm

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"rfm-segmentation/internal/models"
)

// Options is the explicit configuration of one pipeline run.
type Options struct {
	Cluster        ClusterOptions
	SkipClustering bool
}

// Result is the fully labeled customer table of one run.
type Result struct {
	RunID         string
	ReferenceDate time.Time
	Transactions  int
	Customers     []models.CustomerRFM
	Clustering    *Clustering
	Warnings      []error
}

// Run aggregates, scores and classifies the table and, unless skipped,
// clusters the same customers. Any error other than a convergence warning
// aborts the run and no result is returned.
func Run(table models.TransactionTable, opts Options) (*Result, error) {
	customers, reference, err := Aggregate(table)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	if err := Score(customers); err != nil {
		return nil, fmt.Errorf("score: %w", err)
	}

	if err := ClassifyAll(customers); err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	res := &Result{
		RunID:         uuid.NewString(),
		ReferenceDate: reference,
		Transactions:  len(table.Rows),
		Customers:     customers,
	}

	if opts.SkipClustering {
		return res, nil
	}

	clustering, err := Cluster(customers, opts.Cluster)
	if err != nil {
		return nil, fmt.Errorf("cluster: %w", err)
	}
	res.Clustering = clustering
	if clustering.Warning != nil {
		res.Warnings = append(res.Warnings, clustering.Warning)
	}

	return res, nil
}

// Info summarizes the run for logs and the dashboard.
func (r *Result) Info(duration time.Duration) models.RunInfo {
	info := models.RunInfo{
		RunID:         r.RunID,
		ReferenceDate: r.ReferenceDate,
		Customers:     len(r.Customers),
		Transactions:  r.Transactions,
		CompletedAt:   time.Now().UTC(),
		Duration:      duration.String(),
	}
	if r.Clustering != nil {
		info.ClusterCount = r.Clustering.K
		info.Inertia = r.Clustering.Inertia
		info.Iterations = r.Clustering.Iterations
		info.Converged = r.Clustering.Converged
	}
	return info
}
