package factories

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aovlift/aovlift/internal/models"
)

func TestCreateCatalog(t *testing.T) {
	factory := NewOrderFactory(42)
	catalog := factory.CreateCatalog(25)

	require.Len(t, catalog, 25)
	seen := make(map[string]bool)
	for _, p := range catalog {
		assert.NotEmpty(t, p.ID)
		assert.NotEmpty(t, p.Title)
		assert.Greater(t, p.Price, 0.0)
		assert.False(t, seen[p.ID], "duplicate product id %s", p.ID)
		seen[p.ID] = true
	}
}

func TestCreateOrders_ProducesValidOrders(t *testing.T) {
	factory := NewOrderFactory(7)
	catalog := factory.CreateCatalog(20)

	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, -3, 0)
	orders := factory.CreateOrders(catalog, 300, 0.35, start, end)

	require.Len(t, orders, 300)
	require.NoError(t, models.ValidateOrders(orders))

	for i := range orders {
		order := &orders[i]
		assert.NotEmpty(t, order.LineItems)
		assert.Equal(t, "USD", order.Currency)
		assert.False(t, order.CreatedAt.Before(start), "order %s created before range", order.ID)
		assert.False(t, order.CreatedAt.After(end), "order %s created after range", order.ID)

		// no duplicate products within one basket
		ids := order.DistinctProducts()
		assert.Len(t, order.LineItems, len(ids))

		var total float64
		for _, item := range order.LineItems {
			total += item.UnitPrice * float64(item.Quantity)
		}
		assert.InDelta(t, total, order.TotalPrice, 0.01)
	}
}

func TestCreateOrders_BundleBiasSeedsCoPurchaseSignal(t *testing.T) {
	factory := NewOrderFactory(11)
	catalog := factory.CreateCatalog(10)

	end := time.Now()
	orders := factory.CreateOrders(catalog, 500, 0.6, end.AddDate(0, -1, 0), end)

	multiItem := 0
	for i := range orders {
		if len(orders[i].DistinctProducts()) >= 2 {
			multiItem++
		}
	}
	assert.Greater(t, multiItem, 100, "about half the baskets should hold several products")
}

// Ids come from cuid and differ between runs, so determinism is checked on
// everything else: titles, prices, basket shapes, totals and timestamps.
func TestCreateOrders_SameSeedSameShape(t *testing.T) {
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, -3, 0)

	first := NewOrderFactory(99)
	second := NewOrderFactory(99)

	catalogA := first.CreateCatalog(15)
	catalogB := second.CreateCatalog(15)
	require.Len(t, catalogB, len(catalogA))
	for i := range catalogA {
		assert.Equal(t, catalogA[i].Title, catalogB[i].Title)
		assert.Equal(t, catalogA[i].Price, catalogB[i].Price)
	}

	ordersA := first.CreateOrders(catalogA, 100, 0.35, start, end)
	ordersB := second.CreateOrders(catalogB, 100, 0.35, start, end)
	require.Len(t, ordersB, len(ordersA))
	for i := range ordersA {
		assert.Equal(t, ordersA[i].TotalPrice, ordersB[i].TotalPrice)
		assert.Equal(t, ordersA[i].CreatedAt, ordersB[i].CreatedAt)
		require.Len(t, ordersB[i].LineItems, len(ordersA[i].LineItems))
		for j := range ordersA[i].LineItems {
			assert.Equal(t, ordersA[i].LineItems[j].ProductTitle, ordersB[i].LineItems[j].ProductTitle)
			assert.Equal(t, ordersA[i].LineItems[j].Quantity, ordersB[i].LineItems[j].Quantity)
			assert.Equal(t, ordersA[i].LineItems[j].UnitPrice, ordersB[i].LineItems[j].UnitPrice)
		}
	}
}

func TestCreateOrders_EmptyCatalog(t *testing.T) {
	factory := NewOrderFactory(1)
	assert.Nil(t, factory.CreateOrders(nil, 10, 0.35, time.Now().AddDate(0, -1, 0), time.Now()))
}
