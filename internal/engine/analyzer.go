package engine

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aovlift/aovlift/internal/logger"
	"github.com/aovlift/aovlift/internal/models"
)

// Stage tracks orchestrator progress. Failed is terminal and reachable from
// any stage on malformed input; sparse data never fails a run.
type Stage int

const (
	StagePending Stage = iota
	StageClusteringDone
	StageAffinityDone
	StageSynthesized
	StageComplete
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StagePending:
		return "pending"
	case StageClusteringDone:
		return "clustering_done"
	case StageAffinityDone:
		return "affinity_done"
	case StageSynthesized:
		return "synthesized"
	case StageComplete:
		return "complete"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Analyzer sequences the cluster, affinity and opportunity engines over one
// order snapshot. Each Run is a stateless batch computation: inputs are read
// only, outputs are freshly built, and nothing is shared between invocations.
type Analyzer struct {
	cfg   *models.Config
	log   *logger.Logger
	stage Stage
}

func NewAnalyzer(cfg *models.Config, log *logger.Logger) *Analyzer {
	return &Analyzer{cfg: cfg, log: log, stage: StagePending}
}

// Stage reports the orchestrator state after the last Run.
func (a *Analyzer) Stage() Stage {
	return a.stage
}

// Run executes the full pipeline. The cluster and affinity engines have no
// data dependency on each other and run concurrently; the synthesizer joins
// on both. On failure the returned result carries the error reason and no
// partial statistics, so callers never act on half-computed numbers.
func (a *Analyzer) Run(ctx context.Context, orders []models.Order) (*models.AnalysisResult, error) {
	a.stage = StagePending

	if err := models.ValidateOrders(orders); err != nil {
		return a.fail(err)
	}
	if err := ctx.Err(); err != nil {
		return a.fail(fmt.Errorf("analysis cancelled: %w", err))
	}

	summary, currency := a.summarize(orders)

	var clusters []models.Cluster
	var affinities []models.AffinityPair

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		clusters, err = ComputeClusters(orders, ClusterConfig{
			BandCount: a.cfg.ClusterBandCount,
			Currency:  currency,
		})
		if err != nil {
			return err
		}
		return gctx.Err()
	})
	g.Go(func() error {
		var err error
		affinities, err = ComputeAffinity(orders, AffinityConfig{
			MinConfidence: a.cfg.MinConfidence,
			MaxPairs:      a.cfg.MaxAffinityPairs,
			MinPairOrders: a.cfg.MinPairOrders,
			Workers:       a.cfg.AffinityWorkers,
		})
		if err != nil {
			return err
		}
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return a.fail(err)
	}

	a.stage = StageClusteringDone
	a.log.Infof("clustering done: %d bands over %d orders", len(clusters), len(orders))
	a.stage = StageAffinityDone
	a.log.Infof("affinity done: %d pairs survived filtering", len(affinities))

	if err := ctx.Err(); err != nil {
		return a.fail(fmt.Errorf("analysis cancelled after affinity stage: %w", err))
	}

	opportunities := Synthesize(clusters, affinities, PriceContext{
		Currency:      currency,
		TotalOrders:   summary.TotalOrders,
		TotalRevenue:  summary.TotalRevenue,
		AvgOrderValue: summary.AverageOrderValue,
	}, DefaultSynthesizerConfig(a.cfg.MinConfidence))
	a.stage = StageSynthesized

	result := &models.AnalysisResult{
		Summary:           summary,
		Clusters:          clusters,
		ProductAffinities: affinities,
		Opportunities:     opportunities,
		Warnings:          a.collectWarnings(orders, affinities),
	}
	a.stage = StageComplete
	a.log.Infof("analysis complete: %d clusters, %d affinities, %d opportunities",
		len(result.Clusters), len(result.ProductAffinities), len(result.Opportunities))
	return result, nil
}

func (a *Analyzer) fail(err error) (*models.AnalysisResult, error) {
	a.stage = StageFailed
	a.log.Errorf("analysis failed: %v", err)
	return &models.AnalysisResult{
		Clusters:          []models.Cluster{},
		ProductAffinities: []models.AffinityPair{},
		Opportunities:     []models.Opportunity{},
		Warnings:          []string{err.Error()},
	}, err
}

func (a *Analyzer) summarize(orders []models.Order) (models.Summary, string) {
	summary := models.Summary{TotalOrders: len(orders)}
	currency := ""
	var earliest, latest time.Time
	for i := range orders {
		summary.TotalRevenue += orders[i].TotalPrice
		if currency == "" {
			currency = orders[i].Currency
		}
		created := orders[i].CreatedAt
		if earliest.IsZero() || created.Before(earliest) {
			earliest = created
		}
		if created.After(latest) {
			latest = created
		}
	}
	if summary.TotalOrders > 0 {
		summary.AverageOrderValue = summary.TotalRevenue / float64(summary.TotalOrders)
	}
	summary.Period = a.period(earliest, latest)
	return summary, currency
}

// period prefers the configured date range; without one it falls back to the
// span actually observed in the snapshot.
func (a *Analyzer) period(earliest, latest time.Time) string {
	start, end := a.cfg.StartDate, a.cfg.EndDate
	if start.IsZero() {
		start = earliest
	}
	if end.IsZero() {
		end = latest
	}
	if start.IsZero() && end.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s – %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
}

// collectWarnings attaches human-readable notes for sparse snapshots so a UI
// can render an empty state instead of reading zeros as healthy data with no
// findings.
func (a *Analyzer) collectWarnings(orders []models.Order, affinities []models.AffinityPair) []string {
	var warnings []string
	if len(orders) == 0 {
		warnings = append(warnings, "no orders in the selected period; analysis produced an empty result")
		return warnings
	}

	multiItem := 0
	for i := range orders {
		if len(orders[i].DistinctProducts()) >= 2 {
			multiItem++
		}
	}
	if multiItem == 0 {
		warnings = append(warnings, "no multi-item orders found; product affinity analysis has no co-purchase signal")
	} else if len(affinities) == 0 {
		warnings = append(warnings, "no product pairs passed the confidence and sample-size filters")
	}
	return warnings
}
