package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/aovlift/aovlift/internal/models"
)

type ClusterConfig struct {
	BandCount int
	Currency  string
}

// percentageTolerance is the allowed floating drift when cluster percentages
// are checked against 100.
const percentageTolerance = 0.1

// ComputeClusters partitions orders into value bands using quantile binning,
// so bands stay populated even when the value distribution is heavily skewed.
// If the snapshot has fewer distinct totals than the requested band count the
// bands collapse; an empty snapshot yields an empty cluster set.
func ComputeClusters(orders []models.Order, cfg ClusterConfig) ([]models.Cluster, error) {
	if err := models.ValidateOrders(orders); err != nil {
		return nil, err
	}

	n := len(orders)
	if n == 0 {
		return []models.Cluster{}, nil
	}

	bandCount := cfg.BandCount
	if bandCount <= 0 {
		bandCount = models.DefaultClusterBandCount
	}

	totals := make([]float64, n)
	for i := range orders {
		totals[i] = orders[i].TotalPrice
	}
	sort.Float64s(totals)

	cuts := quantileCuts(totals, bandCount)

	// A total equal to a cut point belongs to the band below it, so band i
	// covers (cuts[i-1], cuts[i]] and the last band is open-ended.
	bands := len(cuts) + 1
	counts := make([]int, bands)
	revenue := make([]float64, bands)
	for i := range orders {
		idx := bandIndex(cuts, orders[i].TotalPrice)
		counts[idx]++
		revenue[idx] += orders[i].TotalPrice
	}

	symbol := currencySymbol(cfg.Currency)
	clusters := make([]models.Cluster, 0, bands)
	for i := 0; i < bands; i++ {
		lower := 0.0
		if i > 0 {
			lower = cuts[i-1]
		}

		c := models.Cluster{
			MinValue:     lower,
			OrderCount:   counts[i],
			Percentage:   float64(counts[i]) / float64(n) * 100,
			TotalRevenue: revenue[i],
		}
		if counts[i] > 0 {
			c.AvgOrderValue = revenue[i] / float64(counts[i])
		}
		if i < len(cuts) {
			upper := cuts[i]
			c.MaxValue = &upper
			c.Name = bandLabel(symbol, lower, &upper, i == 0)
		} else {
			c.Name = bandLabel(symbol, lower, nil, i == 0)
		}
		clusters = append(clusters, c)
	}

	if err := verifyClusterInvariants(clusters, n); err != nil {
		return nil, err
	}
	return clusters, nil
}

// quantileCuts picks band boundaries from the sorted totals at evenly spaced
// quantiles. Duplicate boundaries collapse and a boundary equal to the maximum
// is dropped so no band can come out empty.
func quantileCuts(sorted []float64, bandCount int) []float64 {
	n := len(sorted)
	maxVal := sorted[n-1]

	var cuts []float64
	for i := 1; i < bandCount; i++ {
		cut := sorted[i*n/bandCount]
		if cut >= maxVal {
			break
		}
		if len(cuts) > 0 && cut <= cuts[len(cuts)-1] {
			continue
		}
		cuts = append(cuts, cut)
	}
	return cuts
}

// bandIndex counts the cut points strictly below the value, which lands a
// value equal to a cut point in the lower band.
func bandIndex(cuts []float64, value float64) int {
	return sort.SearchFloat64s(cuts, value)
}

func verifyClusterInvariants(clusters []models.Cluster, totalOrders int) error {
	countSum := 0
	pctSum := 0.0
	for _, c := range clusters {
		if c.OrderCount == 0 {
			return &models.ComputationError{
				Stage:  "clustering",
				Reason: fmt.Sprintf("band %q is empty", c.Name),
			}
		}
		countSum += c.OrderCount
		pctSum += c.Percentage
	}
	if countSum != totalOrders {
		return &models.ComputationError{
			Stage:  "clustering",
			Reason: fmt.Sprintf("band counts sum to %d, want %d", countSum, totalOrders),
		}
	}
	if math.Abs(pctSum-100) >= percentageTolerance {
		return &models.ComputationError{
			Stage:  "clustering",
			Reason: fmt.Sprintf("band percentages sum to %.4f, want 100", pctSum),
		}
	}
	return nil
}
