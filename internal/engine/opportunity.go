package engine

import (
	"fmt"
	"sort"

	"github.com/aovlift/aovlift/internal/models"
)

type SynthesizerConfig struct {
	MinConfidence      float64
	NearThresholdShare float64 // order share that makes a band free-shipping material
	BundleLiftCutoff   float64 // lift at which a pair graduates from cross-sell to bundle
	UpsellSkewPoints   float64 // order-share minus revenue-share gap that flags an upsell
}

func DefaultSynthesizerConfig(minConfidence float64) SynthesizerConfig {
	return SynthesizerConfig{
		MinConfidence:      minConfidence,
		NearThresholdShare: 0.20,
		BundleLiftCutoff:   2.0,
		UpsellSkewPoints:   15,
	}
}

// PriceContext carries the snapshot-level aggregates the heuristics need.
type PriceContext struct {
	Currency      string
	TotalOrders   int
	TotalRevenue  float64
	AvgOrderValue float64
}

// Synthesize turns cluster and affinity facts into ranked AOV opportunities
// using deterministic rules. Empty inputs produce an empty set, never an
// error: sparse data is a valid, uninteresting result.
func Synthesize(clusters []models.Cluster, affinities []models.AffinityPair, priceCtx PriceContext, cfg SynthesizerConfig) []models.Opportunity {
	symbol := currencySymbol(priceCtx.Currency)

	var opps []models.Opportunity
	if o := freeShippingOpportunity(clusters, priceCtx, cfg, symbol); o != nil {
		opps = append(opps, *o)
	}
	opps = append(opps, pairOpportunities(affinities, cfg)...)
	if o := upsellOpportunity(clusters, priceCtx, cfg, symbol); o != nil {
		opps = append(opps, *o)
	}

	for i := range opps {
		opps[i].Priority = priorityTier(opps[i].ConfidenceScore)
	}

	sort.Slice(opps, func(i, j int) bool {
		if opps[i].Priority != opps[j].Priority {
			return opps[i].Priority < opps[j].Priority
		}
		if opps[i].ConfidenceScore != opps[j].ConfidenceScore {
			return opps[i].ConfidenceScore > opps[j].ConfidenceScore
		}
		return opps[i].Title < opps[j].Title
	})

	if opps == nil {
		opps = []models.Opportunity{}
	}
	return opps
}

func priorityTier(score float64) int {
	switch {
	case score >= 0.75:
		return 1
	case score >= 0.5:
		return 2
	default:
		return 3
	}
}

// freeShippingOpportunity looks for the biggest non-top band holding at least
// the configured share of orders and proposes a free-shipping minimum just
// above its upper bound, nudging that segment to spend up to the threshold.
func freeShippingOpportunity(clusters []models.Cluster, priceCtx PriceContext, cfg SynthesizerConfig, symbol string) *models.Opportunity {
	var best *models.Cluster
	for i := range clusters {
		c := &clusters[i]
		if c.MaxValue == nil {
			continue
		}
		if c.Percentage < cfg.NearThresholdShare*100 {
			continue
		}
		if best == nil || c.Percentage > best.Percentage {
			best = c
		}
	}
	if best == nil {
		return nil
	}

	threshold := niceThresholdAbove(*best.MaxValue)
	uplift := round2(float64(best.OrderCount) * (threshold - best.AvgOrderValue))
	score := clamp01(0.35 + best.Percentage/100)

	return &models.Opportunity{
		Type:  models.OpportunityFreeShipping,
		Title: fmt.Sprintf("Offer free shipping over %s%s", symbol, formatMoney(threshold)),
		Description: fmt.Sprintf(
			"%.1f%% of orders (%d of %d) land in the %s band. A free-shipping minimum of %s%s sits just above that band and gives those shoppers a concrete reason to add one more item.",
			best.Percentage, best.OrderCount, priceCtx.TotalOrders, best.Name, symbol, formatMoney(threshold)),
		PotentialImpact: fmt.Sprintf(
			"If the %d orders in this band reached %s%s, revenue would rise by roughly %s%s per period.",
			best.OrderCount, symbol, formatMoney(threshold), symbol, formatMoney(uplift)),
		ConfidenceScore: round2(score),
		DataSupport: map[string]interface{}{
			"cluster_name":        best.Name,
			"order_count":         best.OrderCount,
			"percentage":          best.Percentage,
			"avg_order_value":     best.AvgOrderValue,
			"cluster_max_value":   *best.MaxValue,
			"suggested_threshold": threshold,
		},
	}
}

// pairOpportunities emits bundles for strongly lifted pairs and cross-sell
// placements for moderately lifted ones.
func pairOpportunities(affinities []models.AffinityPair, cfg SynthesizerConfig) []models.Opportunity {
	var opps []models.Opportunity
	for _, pair := range affinities {
		support := map[string]interface{}{
			"product_a_id":        pair.ProductAID,
			"product_b_id":        pair.ProductBID,
			"co_occurrence_count": pair.CoOccurrenceCount,
			"confidence":          pair.Confidence,
			"lift":                pair.Lift,
		}

		switch {
		case pair.Lift >= cfg.BundleLiftCutoff:
			score := clamp01(0.5*minf(pair.Lift/4, 1) + 0.5*minf(float64(pair.CoOccurrenceCount)/20, 1))
			opps = append(opps, models.Opportunity{
				Type:  models.OpportunityBundle,
				Title: fmt.Sprintf("Bundle %q with %q", pair.ProductATitle, pair.ProductBTitle),
				Description: fmt.Sprintf(
					"These products were bought together in %d orders, %.1fx more often than chance. A discounted bundle converts that existing behaviour into a larger basket.",
					pair.CoOccurrenceCount, pair.Lift),
				PotentialImpact: fmt.Sprintf(
					"%.0f%% of shoppers who buy %q already add %q; a bundle offer captures the rest.",
					pair.Confidence*100, pair.ProductATitle, pair.ProductBTitle),
				ConfidenceScore: round2(score),
				DataSupport:     support,
			})
		case pair.Lift > 1 && pair.Confidence >= cfg.MinConfidence:
			score := clamp01(0.4*minf(pair.Lift/cfg.BundleLiftCutoff, 1) +
				0.3*minf(float64(pair.CoOccurrenceCount)/20, 1) +
				0.3*pair.Confidence)
			opps = append(opps, models.Opportunity{
				Type:  models.OpportunityCrossSell,
				Title: fmt.Sprintf("Recommend %q to buyers of %q", pair.ProductBTitle, pair.ProductATitle),
				Description: fmt.Sprintf(
					"Shoppers buying %q pick up %q in %.0f%% of cases (lift %.2f). A \"frequently bought together\" placement surfaces the pairing without discounting either product.",
					pair.ProductATitle, pair.ProductBTitle, pair.Confidence*100, pair.Lift),
				PotentialImpact: fmt.Sprintf(
					"Cross-sell placement on %d qualifying orders per period.",
					pair.CoOccurrenceCount),
				ConfidenceScore: round2(score),
				DataSupport:     support,
			})
		}
	}
	return opps
}

// upsellOpportunity flags a low-value band whose share of orders far exceeds
// its share of revenue, which marks the segment with the most headroom.
func upsellOpportunity(clusters []models.Cluster, priceCtx PriceContext, cfg SynthesizerConfig, symbol string) *models.Opportunity {
	if priceCtx.TotalRevenue <= 0 {
		return nil
	}

	var best *models.Cluster
	bestSkew := 0.0
	for i := range clusters {
		c := &clusters[i]
		if c.MaxValue == nil {
			continue
		}
		revenueShare := c.TotalRevenue / priceCtx.TotalRevenue * 100
		skew := c.Percentage - revenueShare
		if skew >= cfg.UpsellSkewPoints && skew > bestSkew {
			best = c
			bestSkew = skew
		}
	}
	if best == nil {
		return nil
	}

	gap := round2(priceCtx.AvgOrderValue - best.AvgOrderValue)
	score := clamp01(0.3 + bestSkew/30*0.5)

	return &models.Opportunity{
		Type:  models.OpportunityUpsell,
		Title: fmt.Sprintf("Upsell shoppers in the %s band", best.Name),
		Description: fmt.Sprintf(
			"The %s band holds %.1f%% of orders but only %.1f%% of revenue. Targeted add-on prompts at checkout move these orders toward the store average of %s%s.",
			best.Name, best.Percentage, best.Percentage-bestSkew, symbol, formatMoney(priceCtx.AvgOrderValue)),
		PotentialImpact: fmt.Sprintf(
			"Each converted order in this band is worth ~%s%s more; %d orders qualify.",
			symbol, formatMoney(gap), best.OrderCount),
		ConfidenceScore: round2(score),
		DataSupport: map[string]interface{}{
			"cluster_name":     best.Name,
			"order_count":      best.OrderCount,
			"order_share":      best.Percentage,
			"revenue_share":    best.Percentage - bestSkew,
			"avg_order_value":  best.AvgOrderValue,
			"store_avg_order":  priceCtx.AvgOrderValue,
			"share_gap_points": bestSkew,
		},
	}
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
