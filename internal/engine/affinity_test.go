package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aovlift/aovlift/internal/models"
)

func orderWithProducts(id string, productIDs ...string) models.Order {
	order := models.Order{ID: id, TotalPrice: 10 * float64(len(productIDs)), Currency: "USD"}
	for _, pid := range productIDs {
		order.LineItems = append(order.LineItems, models.LineItem{
			ProductID:    pid,
			ProductTitle: "Product " + pid,
			Quantity:     1,
			UnitPrice:    10,
		})
	}
	return order
}

func defaultAffinityConfig() AffinityConfig {
	return AffinityConfig{
		MinConfidence: 0.3,
		MaxPairs:      20,
		MinPairOrders: 3,
		Workers:       1,
	}
}

func TestComputeAffinity_WorkedExample(t *testing.T) {
	// 10 orders: 6 contain {A,B}, 4 contain {A} alone.
	var orders []models.Order
	for i := 0; i < 6; i++ {
		orders = append(orders, orderWithProducts(fmt.Sprintf("ab-%d", i), "A", "B"))
	}
	for i := 0; i < 4; i++ {
		orders = append(orders, orderWithProducts(fmt.Sprintf("a-%d", i), "A"))
	}

	pairs, err := ComputeAffinity(orders, defaultAffinityConfig())
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	pair := pairs[0]
	assert.Equal(t, "A", pair.ProductAID, "A has the higher standalone frequency")
	assert.Equal(t, "B", pair.ProductBID)
	assert.Equal(t, 6, pair.CoOccurrenceCount)
	assert.InDelta(t, 0.6, pair.Confidence, 1e-9) // 6 of 10 orders with A
	assert.InDelta(t, 1.0, pair.Lift, 1e-9)       // support(B) is also 0.6
}

func TestComputeAffinity_PerfectAttachment(t *testing.T) {
	// every order containing A also contains B; B is in exactly half of all
	// orders → confidence(A→B) = 1.0 and lift = 2.0
	var orders []models.Order
	for i := 0; i < 5; i++ {
		orders = append(orders, orderWithProducts(fmt.Sprintf("ab-%d", i), "A", "B"))
	}
	for i := 0; i < 5; i++ {
		orders = append(orders, orderWithProducts(fmt.Sprintf("c-%d", i), "C"))
	}

	pairs, err := ComputeAffinity(orders, defaultAffinityConfig())
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	pair := pairs[0]
	assert.Equal(t, "A", pair.ProductAID, "equal frequency ties break to the lower product id")
	assert.InDelta(t, 1.0, pair.Confidence, 1e-9)
	assert.InDelta(t, 2.0, pair.Lift, 1e-9)
}

func TestComputeAffinity_PairEmittedOnce(t *testing.T) {
	var orders []models.Order
	for i := 0; i < 8; i++ {
		orders = append(orders, orderWithProducts(fmt.Sprintf("o-%d", i), "X", "Y", "Z"))
	}

	pairs, err := ComputeAffinity(orders, defaultAffinityConfig())
	require.NoError(t, err)

	seen := make(map[pairKey]bool)
	for _, pair := range pairs {
		key := makePairKey(pair.ProductAID, pair.ProductBID)
		assert.False(t, seen[key], "pair %s/%s emitted twice", pair.ProductAID, pair.ProductBID)
		seen[key] = true
		assert.GreaterOrEqual(t, pair.Confidence, 0.0)
		assert.LessOrEqual(t, pair.Confidence, 1.0)
		assert.Greater(t, pair.Lift, 0.0)
	}
}

func TestComputeAffinity_QuantityDoesNotAffectCounting(t *testing.T) {
	order := orderWithProducts("o-1", "A", "B")
	order.LineItems = append(order.LineItems, models.LineItem{
		ProductID: "A", ProductTitle: "Product A", Quantity: 3, UnitPrice: 10,
	})

	var orders []models.Order
	for i := 0; i < 3; i++ {
		o := order
		o.ID = fmt.Sprintf("o-%d", i)
		orders = append(orders, o)
	}

	pairs, err := ComputeAffinity(orders, defaultAffinityConfig())
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, 3, pairs[0].CoOccurrenceCount, "duplicate line items count once per order")
}

func TestComputeAffinity_FiltersLowSampleAndLowConfidence(t *testing.T) {
	var orders []models.Order
	// C/D co-occur only twice, below the sample-size floor of 3
	orders = append(orders, orderWithProducts("cd-1", "C", "D"))
	orders = append(orders, orderWithProducts("cd-2", "C", "D"))
	// A/B co-occur 3 times but A appears in many orders alone → low confidence
	for i := 0; i < 3; i++ {
		orders = append(orders, orderWithProducts(fmt.Sprintf("ab-%d", i), "A", "B"))
	}
	for i := 0; i < 20; i++ {
		orders = append(orders, orderWithProducts(fmt.Sprintf("a-%d", i), "A"))
	}

	pairs, err := ComputeAffinity(orders, defaultAffinityConfig())
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestComputeAffinity_SortedByLiftThenCount(t *testing.T) {
	var orders []models.Order
	// strong pair: P/Q always together, rare otherwise
	for i := 0; i < 4; i++ {
		orders = append(orders, orderWithProducts(fmt.Sprintf("pq-%d", i), "P", "Q"))
	}
	// weaker pair: R/S together often but R and S are everywhere
	for i := 0; i < 6; i++ {
		orders = append(orders, orderWithProducts(fmt.Sprintf("rs-%d", i), "R", "S"))
	}
	for i := 0; i < 10; i++ {
		orders = append(orders, orderWithProducts(fmt.Sprintf("r-%d", i), "R"))
		orders = append(orders, orderWithProducts(fmt.Sprintf("s-%d", i), "S"))
	}

	pairs, err := ComputeAffinity(orders, defaultAffinityConfig())
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(pairs), 2)

	for i := 1; i < len(pairs); i++ {
		if pairs[i-1].Lift == pairs[i].Lift {
			assert.GreaterOrEqual(t, pairs[i-1].CoOccurrenceCount, pairs[i].CoOccurrenceCount)
		} else {
			assert.Greater(t, pairs[i-1].Lift, pairs[i].Lift)
		}
	}
	assert.Equal(t, "P", pairs[0].ProductAID)
}

func TestComputeAffinity_TruncatesToMaxPairs(t *testing.T) {
	var orders []models.Order
	// five products always bought together → C(5,2) = 10 pairs
	for i := 0; i < 5; i++ {
		orders = append(orders, orderWithProducts(fmt.Sprintf("o-%d", i), "A", "B", "C", "D", "E"))
	}

	cfg := defaultAffinityConfig()
	cfg.MaxPairs = 4

	pairs, err := ComputeAffinity(orders, cfg)
	require.NoError(t, err)
	assert.Len(t, pairs, 4)
}

func TestComputeAffinity_EmptyOrderSet(t *testing.T) {
	pairs, err := ComputeAffinity(nil, defaultAffinityConfig())
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestComputeAffinity_NoMultiItemOrders(t *testing.T) {
	var orders []models.Order
	for i := 0; i < 10; i++ {
		orders = append(orders, orderWithProducts(fmt.Sprintf("o-%d", i), "A"))
	}

	pairs, err := ComputeAffinity(orders, defaultAffinityConfig())
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestComputeAffinity_ParallelMatchesSerial(t *testing.T) {
	var orders []models.Order
	products := []string{"A", "B", "C", "D", "E", "F", "G"}
	for i := 0; i < 200; i++ {
		a := products[i%len(products)]
		b := products[(i+1+i%3)%len(products)]
		orders = append(orders, orderWithProducts(fmt.Sprintf("o-%d", i), a, b))
	}

	serialCfg := defaultAffinityConfig()
	serialCfg.Workers = 1
	parallelCfg := defaultAffinityConfig()
	parallelCfg.Workers = 8

	serial, err := ComputeAffinity(orders, serialCfg)
	require.NoError(t, err)
	parallel, err := ComputeAffinity(orders, parallelCfg)
	require.NoError(t, err)

	assert.Equal(t, serial, parallel, "partitioned counting must merge to identical results")
}

func TestComputeAffinity_Deterministic(t *testing.T) {
	var orders []models.Order
	for i := 0; i < 50; i++ {
		orders = append(orders, orderWithProducts(fmt.Sprintf("o-%d", i), "A", "B", "C"))
	}

	first, err := ComputeAffinity(orders, defaultAffinityConfig())
	require.NoError(t, err)
	second, err := ComputeAffinity(orders, defaultAffinityConfig())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
