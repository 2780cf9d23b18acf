package rfm

import (
	"fmt"
	"strings"
)

// MissingColumnError reports required input columns absent from the table.
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column(s): %s", strings.Join(e.Columns, ", "))
}

// InvalidValueError reports a value that violates the input contract.
// Row is the zero-based data row, or -1 when the value is not tied to a row.
type InvalidValueError struct {
	Row    int
	Column string
	Value  string
	Reason string
}

func (e *InvalidValueError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("invalid %s %q: %s", e.Column, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q at row %d: %s", e.Column, e.Value, e.Row, e.Reason)
}

// BinningError reports a metric that cannot be split into five quantile tiers.
type BinningError struct {
	Metric    string
	Distinct  int
	Customers int
}

func (e *BinningError) Error() string {
	return fmt.Sprintf("cannot form %d quantile tiers for %s: %d distinct value(s) across %d customer(s)",
		tierCount, e.Metric, e.Distinct, e.Customers)
}

// DomainError reports a score outside 1..5 reaching the classifier.
type DomainError struct {
	CustomerID string
	Score      string
	Value      int
}

func (e *DomainError) Error() string {
	if e.CustomerID == "" {
		return fmt.Sprintf("%s=%d out of range [1,%d]", e.Score, e.Value, tierCount)
	}
	return fmt.Sprintf("%s=%d out of range [1,%d] for customer %q", e.Score, e.Value, tierCount, e.CustomerID)
}

// ConvergenceWarning is attached to a clustering result that hit the
// iteration cap. It is never returned as a fatal error.
type ConvergenceWarning struct {
	K          int
	Iterations int
}

func (w *ConvergenceWarning) Error() string {
	return fmt.Sprintf("k-means with k=%d did not converge within %d iterations", w.K, w.Iterations)
}
