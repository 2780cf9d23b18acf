package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Segment string

const (
	SegmentChampions   Segment = "Champions"
	SegmentLoyal       Segment = "Loyal Customers"
	SegmentBigSpenders Segment = "Big Spenders"
	SegmentNew         Segment = "New Customers"
	SegmentPromising   Segment = "Promising"
	SegmentAtRisk      Segment = "At Risk"
	SegmentHibernating Segment = "Hibernating"
	SegmentOthers      Segment = "Others"
)

// Segments lists every segment in rule order.
var Segments = []Segment{
	SegmentChampions,
	SegmentLoyal,
	SegmentBigSpenders,
	SegmentNew,
	SegmentPromising,
	SegmentAtRisk,
	SegmentHibernating,
	SegmentOthers,
}

func (s Segment) Valid() bool {
	for _, v := range Segments {
		if v == s {
			return true
		}
	}
	return false
}

// CustomerRFM is one row of the labeled output table. JSON keys double as
// the exported column names.
type CustomerRFM struct {
	CustomerID   string          `json:"CustomerID"`
	Recency      int             `json:"Recency"`
	Frequency    int             `json:"Frequency"`
	Monetary     decimal.Decimal `json:"Monetary"`
	RScore       int             `json:"R_score"`
	FScore       int             `json:"F_score"`
	MScore       int             `json:"M_score"`
	RFMScore     string          `json:"RFM_Score"`
	Segment      Segment         `json:"Segment"`
	ClusterLabel *int            `json:"ClusterLabel,omitempty"`
}

// OutputColumns is the header of the labeled CSV artifact.
func OutputColumns() []string {
	return []string{
		"CustomerID",
		"Recency",
		"Frequency",
		"Monetary",
		"R_score",
		"F_score",
		"M_score",
		"RFM_Score",
		"Segment",
		"ClusterLabel",
	}
}

type SegmentSummary struct {
	Segment   Segment         `json:"segment"`
	Customers int             `json:"customers"`
	Revenue   decimal.Decimal `json:"revenue"`
	Share     float64         `json:"share"`
}

type ClusterSummary struct {
	Label         int             `json:"label"`
	Customers     int             `json:"customers"`
	MeanRecency   float64         `json:"mean_recency"`
	MeanFrequency float64         `json:"mean_frequency"`
	MeanMonetary  float64         `json:"mean_monetary"`
	Revenue       decimal.Decimal `json:"revenue"`
}

type ElbowPoint struct {
	K       int     `json:"k"`
	Inertia float64 `json:"inertia"`
}

// RunInfo describes one pipeline execution.
type RunInfo struct {
	RunID         string    `json:"run_id"`
	ReferenceDate time.Time `json:"reference_date"`
	Customers     int       `json:"customers"`
	Transactions  int       `json:"transactions"`
	ClusterCount  int       `json:"cluster_count"`
	Inertia       float64   `json:"inertia"`
	Iterations    int       `json:"iterations"`
	Converged     bool      `json:"converged"`
	CompletedAt   time.Time `json:"completed_at"`
	Duration      string    `json:"duration"`
}
