package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"rfm-segmentation/internal/config"
	"rfm-segmentation/internal/ingest"
	"rfm-segmentation/internal/models"
	"rfm-segmentation/internal/observability"
	"rfm-segmentation/internal/rfm"
)

// Snapshot is the immutable outcome of one segmentation run. Readers share
// it; a refresh swaps in a new one.
type Snapshot struct {
	Result   *rfm.Result
	Info     models.RunInfo
	Segments []models.SegmentSummary
	Clusters []models.ClusterSummary
	Elbow    []models.ElbowPoint
	Clean    *ingest.CleanStats
	Warnings []string

	byID map[string]int
}

type Analytics struct {
	mu       sync.RWMutex
	snapshot *Snapshot
	cfg      config.PipelineConfig
	runs     atomic.Int64
	failures atomic.Int64
	logger   *slog.Logger

	// OnElbowStart, when set, is called with the number of K values the
	// elbow sweep will run once the range is capped.
	OnElbowStart func(steps int)
	// OnElbowPoint, when set, is called as each K of the elbow sweep
	// finishes.
	OnElbowPoint func(models.ElbowPoint)
}

func NewAnalytics(cfg config.PipelineConfig, logger *slog.Logger) *Analytics {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analytics{
		cfg:    cfg,
		logger: logger,
	}
}

// Refresh reads the configured source and recomputes every customer from
// scratch. On failure the previous snapshot stays in place.
func (a *Analytics) Refresh(ctx context.Context) (*Snapshot, error) {
	ctx, span := observability.StartSpan(ctx, "segmentation.refresh")
	defer span.End(a.logger)

	table, stats, err := a.Load(ctx)
	if err != nil {
		span.SetError(err)
		a.recordFailure()
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	snap, err := a.compute(ctx, table, stats)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	span.SetTag("customers", strconv.Itoa(snap.Info.Customers))
	return snap, nil
}

// Load reads the configured source into a transaction table. Stats are
// returned only when cleaning is enabled.
func (a *Analytics) Load(ctx context.Context) (models.TransactionTable, *ingest.CleanStats, error) {
	ctx, span := observability.StartSpan(ctx, "segmentation.load")
	defer span.End(a.logger)

	var (
		raw *ingest.RawTable
		err error
	)
	if a.cfg.SourceDSN != "" {
		span.SetTag("source", "sql")
		raw, err = a.readSQL(ctx)
	} else {
		span.SetTag("source", "csv")
		span.SetTag("path", a.cfg.InputPath)
		raw, err = ingest.ReadCSV(a.cfg.InputPath)
	}
	if err != nil {
		span.SetError(err)
		return models.TransactionTable{}, nil, err
	}

	if a.cfg.Clean {
		table, stats, err := ingest.Clean(raw)
		if err != nil {
			span.SetError(err)
			return models.TransactionTable{}, nil, err
		}
		a.logger.Info("transactions cleaned",
			"input", stats.Input,
			"kept", stats.Kept,
			"missing_customer", stats.MissingCustomer,
			"bad_quantity", stats.BadQuantity,
			"bad_date", stats.BadDate,
			"bad_price", stats.BadPrice,
		)
		return table, &stats, nil
	}

	table, err := ingest.Parse(ctx, raw)
	if err != nil {
		span.SetError(err)
		return models.TransactionTable{}, nil, err
	}
	return table, nil, nil
}

func (a *Analytics) readSQL(ctx context.Context) (*ingest.RawTable, error) {
	db, err := ingest.Open(ctx, a.cfg.SourceDSN)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return ingest.ReadSQL(ctx, db, a.cfg.SourceTable)
}

// Compute runs the pipeline and the elbow sweep over table and publishes
// the result.
func (a *Analytics) Compute(ctx context.Context, table models.TransactionTable) (*Snapshot, error) {
	return a.compute(ctx, table, nil)
}

func (a *Analytics) compute(ctx context.Context, table models.TransactionTable, clean *ingest.CleanStats) (*Snapshot, error) {
	start := time.Now()

	_, span := observability.StartSpan(ctx, "segmentation.compute")
	defer span.End(a.logger)

	opts := rfm.Options{
		Cluster:        a.ClusterOptions(),
		SkipClustering: a.cfg.SkipClustering,
	}

	res, err := rfm.Run(table, opts)
	if err != nil {
		span.SetError(err)
		a.recordFailure()
		return nil, err
	}

	for _, w := range res.Warnings {
		a.logger.Warn("pipeline warning", "run_id", res.RunID, "warning", w)
	}

	elbow, err := a.elbow(res.Customers)
	if err != nil {
		span.SetError(err)
		a.recordFailure()
		return nil, fmt.Errorf("elbow: %w", err)
	}

	duration := time.Since(start)
	snap := newSnapshot(res, elbow, duration)
	snap.Clean = clean
	a.publish(snap)

	observability.PipelineDuration.Observe(duration.Seconds())
	observability.PipelineRuns.WithLabelValues("ok").Inc()

	a.logger.Info("segmentation complete",
		"run_id", res.RunID,
		"transactions", res.Transactions,
		"customers", len(res.Customers),
		"reference_date", res.ReferenceDate,
		"inertia", snap.Info.Inertia,
		"duration", duration,
	)

	return snap, nil
}

func (a *Analytics) ClusterOptions() rfm.ClusterOptions {
	return rfm.ClusterOptions{
		K:       a.cfg.ClusterCount,
		Seed:    a.cfg.Seed,
		MaxIter: a.cfg.MaxIter,
		NInit:   a.cfg.NInit,
	}
}

// elbow sweeps the configured range, capped at the number of customers.
// A range that ends up empty yields no curve.
func (a *Analytics) elbow(customers []models.CustomerRFM) ([]models.ElbowPoint, error) {
	if a.cfg.SkipClustering {
		return nil, nil
	}
	minK, maxK := a.cfg.ElbowMinK, min(a.cfg.ElbowMaxK, len(customers))
	if minK == 0 && a.cfg.ElbowMaxK == 0 {
		minK, maxK = rfm.DefaultElbowMinK, min(rfm.DefaultElbowMaxK, len(customers))
	}
	if maxK < minK {
		a.logger.Warn("elbow sweep skipped",
			"min_k", minK,
			"max_k", a.cfg.ElbowMaxK,
			"customers", len(customers),
		)
		return nil, nil
	}
	if a.OnElbowStart != nil {
		a.OnElbowStart(maxK - minK + 1)
	}
	return rfm.StandardizedElbow(customers, minK, maxK, a.ClusterOptions(), a.OnElbowPoint)
}

// SetResult publishes a run computed elsewhere.
func (a *Analytics) SetResult(res *rfm.Result, elbow []models.ElbowPoint, duration time.Duration) *Snapshot {
	snap := newSnapshot(res, elbow, duration)
	a.publish(snap)
	return snap
}

func newSnapshot(res *rfm.Result, elbow []models.ElbowPoint, duration time.Duration) *Snapshot {
	snap := &Snapshot{
		Result:   res,
		Info:     res.Info(duration),
		Segments: rfm.SegmentSummaries(res.Customers),
		Clusters: rfm.ClusterSummaries(res.Customers),
		Elbow:    elbow,
		byID:     make(map[string]int, len(res.Customers)),
	}
	for i, c := range res.Customers {
		snap.byID[c.CustomerID] = i
	}
	for _, w := range res.Warnings {
		snap.Warnings = append(snap.Warnings, w.Error())
	}
	return snap
}

func (a *Analytics) publish(snap *Snapshot) {
	for _, seg := range models.Segments {
		observability.SegmentCustomers.WithLabelValues(string(seg)).Set(0)
	}
	for _, s := range snap.Segments {
		observability.SegmentCustomers.WithLabelValues(string(s.Segment)).Set(float64(s.Customers))
	}
	observability.ClusterInertia.Set(snap.Info.Inertia)

	a.mu.Lock()
	a.snapshot = snap
	a.mu.Unlock()

	a.runs.Add(1)
}

func (a *Analytics) recordFailure() {
	a.failures.Add(1)
	observability.PipelineRuns.WithLabelValues("error").Inc()
}

// Snapshot returns the current result, or nil before the first run.
func (a *Analytics) Snapshot() *Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot
}

func (a *Analytics) Ready() bool {
	return a.Snapshot() != nil
}

func (a *Analytics) Info() models.RunInfo {
	if snap := a.Snapshot(); snap != nil {
		return snap.Info
	}
	return models.RunInfo{}
}

func (a *Analytics) Segments() []models.SegmentSummary {
	if snap := a.Snapshot(); snap != nil {
		return snap.Segments
	}
	return nil
}

func (a *Analytics) Clusters() []models.ClusterSummary {
	if snap := a.Snapshot(); snap != nil {
		return snap.Clusters
	}
	return nil
}

func (a *Analytics) Elbow() []models.ElbowPoint {
	if snap := a.Snapshot(); snap != nil {
		return snap.Elbow
	}
	return nil
}

// Customers lists customers in CustomerID order, optionally restricted to
// one segment. limit <= 0 means no limit.
func (a *Analytics) Customers(segment models.Segment, limit int) []models.CustomerRFM {
	snap := a.Snapshot()
	if snap == nil {
		return nil
	}

	result := make([]models.CustomerRFM, 0)
	for _, c := range snap.Result.Customers {
		if segment != "" && c.Segment != segment {
			continue
		}
		result = append(result, c)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result
}

func (a *Analytics) Customer(id string) (models.CustomerRFM, bool) {
	snap := a.Snapshot()
	if snap == nil {
		return models.CustomerRFM{}, false
	}
	i, ok := snap.byID[id]
	if !ok {
		return models.CustomerRFM{}, false
	}
	return snap.Result.Customers[i], true
}

// Utility method for monitoring
func (a *Analytics) Stats() map[string]any {
	stats := map[string]any{
		"runs":     a.runs.Load(),
		"failures": a.failures.Load(),
		"ready":    false,
	}

	snap := a.Snapshot()
	if snap == nil {
		return stats
	}

	stats["ready"] = true
	stats["run_id"] = snap.Info.RunID
	stats["customers"] = snap.Info.Customers
	stats["transactions"] = snap.Info.Transactions
	stats["reference_date"] = snap.Info.ReferenceDate
	stats["last_processed"] = snap.Info.CompletedAt
	stats["segments"] = len(snap.Segments)
	stats["clusters"] = len(snap.Clusters)
	stats["warnings"] = snap.Warnings
	if snap.Clean != nil {
		stats["clean"] = snap.Clean
	}
	return stats
}
