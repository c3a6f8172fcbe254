package engine

import (
	"runtime"
	"sort"
	"sync"

	"github.com/aovlift/aovlift/internal/models"
)

type AffinityConfig struct {
	MinConfidence float64
	MaxPairs      int
	MinPairOrders int
	Workers       int
}

// pairKey is an unordered product pair keyed with the lexically smaller id
// first. Canonical A/B direction is decided later from standalone frequency.
type pairKey struct {
	low, high string
}

func makePairKey(a, b string) pairKey {
	if a < b {
		return pairKey{low: a, high: b}
	}
	return pairKey{low: b, high: a}
}

// ComputeAffinity runs market-basket analysis over the snapshot. Only orders
// with at least two distinct products contribute co-occurrence counts, but
// every order counts toward each product's standalone frequency, which feeds
// the confidence and lift denominators.
func ComputeAffinity(orders []models.Order, cfg AffinityConfig) ([]models.AffinityPair, error) {
	if err := models.ValidateOrders(orders); err != nil {
		return nil, err
	}

	totalOrders := len(orders)
	if totalOrders == 0 {
		return []models.AffinityPair{}, nil
	}

	freq := make(map[string]int)
	titles := make(map[string]string)
	var multiItem [][]string
	for i := range orders {
		products := orders[i].DistinctProducts()
		for _, id := range products {
			freq[id]++
		}
		for _, item := range orders[i].LineItems {
			if _, ok := titles[item.ProductID]; !ok {
				titles[item.ProductID] = item.ProductTitle
			}
		}
		if len(products) >= 2 {
			multiItem = append(multiItem, products)
		}
	}

	coCounts := countPairs(multiItem, cfg.Workers)

	pairs := make([]models.AffinityPair, 0, len(coCounts))
	for key, co := range coCounts {
		if co < cfg.MinPairOrders {
			continue
		}

		// Canonical direction: the product seen in more orders leads, ties
		// broken by the lower product id, so each unordered pair is emitted
		// exactly once with one consistent confidence value.
		a, b := key.low, key.high
		if freq[b] > freq[a] {
			a, b = b, a
		}

		confidence := float64(co) / float64(freq[a])
		supportB := float64(freq[b]) / float64(totalOrders)
		if supportB == 0 {
			continue
		}
		lift := confidence / supportB

		if confidence < cfg.MinConfidence {
			continue
		}

		pairs = append(pairs, models.AffinityPair{
			ProductAID:        a,
			ProductATitle:     titles[a],
			ProductBID:        b,
			ProductBTitle:     titles[b],
			CoOccurrenceCount: co,
			Confidence:        confidence,
			Lift:              lift,
		})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Lift != pairs[j].Lift {
			return pairs[i].Lift > pairs[j].Lift
		}
		if pairs[i].CoOccurrenceCount != pairs[j].CoOccurrenceCount {
			return pairs[i].CoOccurrenceCount > pairs[j].CoOccurrenceCount
		}
		if pairs[i].ProductAID != pairs[j].ProductAID {
			return pairs[i].ProductAID < pairs[j].ProductAID
		}
		return pairs[i].ProductBID < pairs[j].ProductBID
	})

	maxPairs := cfg.MaxPairs
	if maxPairs <= 0 {
		maxPairs = models.DefaultMaxAffinityPairs
	}
	if len(pairs) > maxPairs {
		pairs = pairs[:maxPairs]
	}
	return pairs, nil
}

// countPairs tallies pair co-occurrence across worker partitions. Each worker
// builds a partial count map over its slice of baskets; the partial maps merge
// by summation, which is order-independent, so the result is deterministic
// regardless of scheduling.
func countPairs(baskets [][]string, workers int) map[pairKey]int {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(baskets) {
		workers = len(baskets)
	}
	if workers <= 1 {
		return countPairsSerial(baskets)
	}

	partials := make([]map[pairKey]int, workers)
	chunk := (len(baskets) + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > len(baskets) {
			end = len(baskets)
		}
		wg.Add(1)
		go func(w int, part [][]string) {
			defer wg.Done()
			partials[w] = countPairsSerial(part)
		}(w, baskets[start:end])
	}
	wg.Wait()

	merged := make(map[pairKey]int)
	for _, partial := range partials {
		for key, count := range partial {
			merged[key] += count
		}
	}
	return merged
}

func countPairsSerial(baskets [][]string) map[pairKey]int {
	counts := make(map[pairKey]int)
	for _, products := range baskets {
		for i := 0; i < len(products); i++ {
			for j := i + 1; j < len(products); j++ {
				counts[makePairKey(products[i], products[j])]++
			}
		}
	}
	return counts
}
