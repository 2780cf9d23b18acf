package rfm

import (
	"errors"
	"slices"
	"testing"

	"rfm-segmentation/internal/models"
)

func TestRun_LabelsEveryCustomer(t *testing.T) {
	table := syntheticTable(t, 60)

	res, err := Run(table, Options{Cluster: ClusterOptions{K: 5, Seed: 42}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.RunID == "" {
		t.Error("RunID should be set")
	}
	if res.Transactions != len(table.Rows) {
		t.Errorf("Transactions = %d, want %d", res.Transactions, len(table.Rows))
	}
	if len(res.Customers) != 60 {
		t.Fatalf("expected 60 customers, got %d", len(res.Customers))
	}
	if res.Clustering == nil || res.Clustering.K != 5 {
		t.Fatalf("expected a k=5 clustering, got %+v", res.Clustering)
	}

	for _, c := range res.Customers {
		if !c.Segment.Valid() {
			t.Errorf("%s: invalid segment %q", c.CustomerID, c.Segment)
		}
		for _, s := range []int{c.RScore, c.FScore, c.MScore} {
			if s < 1 || s > 5 {
				t.Errorf("%s: score %d out of range", c.CustomerID, s)
			}
		}
		if len(c.RFMScore) != 3 {
			t.Errorf("%s: RFMScore = %q", c.CustomerID, c.RFMScore)
		}
		if c.ClusterLabel == nil || *c.ClusterLabel < 0 || *c.ClusterLabel >= 5 {
			t.Errorf("%s: cluster label %v outside [0,5)", c.CustomerID, c.ClusterLabel)
		}
	}
}

func TestRun_ReproducibleClusters(t *testing.T) {
	table := syntheticTable(t, 45)
	opts := Options{Cluster: ClusterOptions{K: 4, Seed: 7}}

	first, err := Run(table, opts)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	second, err := Run(table, opts)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	labels := func(r *Result) []int {
		out := make([]int, len(r.Customers))
		for i, c := range r.Customers {
			out[i] = *c.ClusterLabel
		}
		return out
	}
	if !slices.Equal(labels(first), labels(second)) {
		t.Error("two runs with identical input, K and seed disagree on cluster labels")
	}
	if first.RunID == second.RunID {
		t.Error("each run should get its own RunID")
	}
}

func TestRun_SkipClustering(t *testing.T) {
	res, err := Run(syntheticTable(t, 20), Options{SkipClustering: true})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Clustering != nil {
		t.Error("expected no clustering")
	}
	for _, c := range res.Customers {
		if c.ClusterLabel != nil {
			t.Errorf("%s: unexpected cluster label", c.CustomerID)
		}
	}
}

func TestRun_ConvergenceWarningIsNotFatal(t *testing.T) {
	res, err := Run(syntheticTable(t, 60), Options{Cluster: ClusterOptions{K: 5, Seed: 1, MaxIter: 1, NInit: 1}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Clustering == nil || res.Clustering.Converged {
		t.Fatalf("expected an unconverged clustering, got %+v", res.Clustering)
	}
	if res.Clustering.Warning == nil {
		t.Error("Clustering.Warning should be set when the iteration cap is hit")
	}

	var warning *ConvergenceWarning
	found := false
	for _, w := range res.Warnings {
		if errors.As(w, &warning) {
			found = true
		}
	}
	if !found {
		t.Fatalf("Warnings = %v, want a *ConvergenceWarning", res.Warnings)
	}
	if warning.K != 5 || warning.Iterations != 1 {
		t.Errorf("warning = %+v, want K=5 Iterations=1", warning)
	}

	for _, c := range res.Customers {
		if c.ClusterLabel == nil {
			t.Errorf("%s: missing cluster label", c.CustomerID)
		}
	}
}

func TestRun_FatalErrorsReturnNoResult(t *testing.T) {
	tests := []struct {
		name   string
		table  models.TransactionTable
		target any
	}{
		{
			name:   "missing column",
			table:  models.TransactionTable{Columns: []string{models.ColumnCustomerID}},
			target: new(*MissingColumnError),
		},
		{
			name:   "too few customers to bin",
			table:  newTable(newTx(t, "1001", baseDate, "10"), newTx(t, "1002", baseDate, "20")),
			target: new(*BinningError),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Run(tt.table, Options{})
			if res != nil {
				t.Error("expected nil result on failure")
			}
			if !errors.As(err, tt.target) {
				t.Errorf("error %v does not match %T", err, tt.target)
			}
		})
	}
}

func TestRun_TooManyClusters(t *testing.T) {
	res, err := Run(syntheticTable(t, 10), Options{Cluster: ClusterOptions{K: 11}})

	var ive *InvalidValueError
	if !errors.As(err, &ive) {
		t.Fatalf("expected InvalidValueError, got %v", err)
	}
	if res != nil {
		t.Error("expected nil result on failure")
	}
}

func TestResult_Info(t *testing.T) {
	res, err := Run(syntheticTable(t, 12), Options{Cluster: ClusterOptions{K: 3, Seed: 42}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	info := res.Info(0)
	if info.RunID != res.RunID || info.Customers != 12 || info.ClusterCount != 3 {
		t.Errorf("unexpected info: %+v", info)
	}
	if !info.ReferenceDate.Equal(baseDate) {
		t.Errorf("ReferenceDate = %v, want %v", info.ReferenceDate, baseDate)
	}
}
