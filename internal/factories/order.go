package factories

import (
	"math"
	"math/rand"
	"time"

	"github.com/jaswdr/faker"
	"github.com/lucsky/cuid"

	"github.com/aovlift/aovlift/internal/models"
)

// Product is a synthetic catalog entry used when seeding demo order sets.
type Product struct {
	ID    string
	Title string
	Price float64
}

// OrderFactory builds reproducible synthetic order snapshots. The same seed
// produces the same catalog, basket shapes and totals, which keeps demo
// analysis output stable across runs.
type OrderFactory struct {
	fake faker.Faker
	rng  *rand.Rand
}

func NewOrderFactory(seed int64) *OrderFactory {
	return &OrderFactory{
		fake: faker.NewWithSeed(rand.NewSource(seed)),
		rng:  rand.New(rand.NewSource(seed)),
	}
}

var productAdjectives = []string{
	"Classic", "Organic", "Premium", "Everyday", "Compact",
	"Deluxe", "Essential", "Artisan", "Heavy-Duty", "Travel",
}

var productNouns = []string{
	"Water Bottle", "Yoga Mat", "Coffee Grinder", "Desk Lamp", "Backpack",
	"Notebook", "Phone Stand", "Candle Set", "Throw Blanket", "Cutting Board",
	"Tote Bag", "Wall Clock", "Plant Pot", "Headphone Case", "Key Organizer",
}

func (of *OrderFactory) CreateCatalog(count int) []Product {
	products := make([]Product, count)
	for i := 0; i < count; i++ {
		adjective := productAdjectives[of.rng.Intn(len(productAdjectives))]
		noun := productNouns[i%len(productNouns)]
		products[i] = Product{
			ID:    cuid.New(),
			Title: adjective + " " + noun,
			Price: of.fake.Float64(2, 5, 120),
		}
	}
	return products
}

// CreateOrders generates a snapshot with a deliberate co-purchase signal: a
// bundleBias share of multi-item baskets anchors on adjacent catalog pairs,
// so the affinity engine has something real to find.
func (of *OrderFactory) CreateOrders(catalog []Product, count int, bundleBias float64, start, end time.Time) []models.Order {
	if len(catalog) == 0 || count <= 0 {
		return nil
	}

	orders := make([]models.Order, 0, count)
	for i := 0; i < count; i++ {
		basket := of.pickBasket(catalog, bundleBias)

		order := models.Order{
			ID:        cuid.New(),
			Currency:  "USD",
			CreatedAt: of.fake.Time().TimeBetween(start, end),
		}
		for _, product := range basket {
			quantity := 1
			if of.rng.Float64() < 0.2 {
				quantity = 2
			}
			order.LineItems = append(order.LineItems, models.LineItem{
				ProductID:    product.ID,
				ProductTitle: product.Title,
				Quantity:     quantity,
				UnitPrice:    product.Price,
			})
			order.TotalPrice += product.Price * float64(quantity)
		}
		order.TotalPrice = math.Round(order.TotalPrice*100) / 100
		orders = append(orders, order)
	}
	return orders
}

func (of *OrderFactory) pickBasket(catalog []Product, bundleBias float64) []Product {
	// roughly half the baskets are single-item, mirroring typical stores
	size := 1
	switch r := of.rng.Float64(); {
	case r < 0.5:
		size = 1
	case r < 0.8:
		size = 2
	case r < 0.95:
		size = 3
	default:
		size = 4
	}

	if size >= 2 && len(catalog) >= 2 && of.rng.Float64() < bundleBias {
		// anchor on an adjacent catalog pair to seed a co-purchase pattern
		anchor := of.rng.Intn(len(catalog) - 1)
		basket := []Product{catalog[anchor], catalog[anchor+1]}
		for len(basket) < size {
			basket = append(basket, catalog[of.rng.Intn(len(catalog))])
		}
		return dedupe(basket)
	}

	basket := make([]Product, 0, size)
	for len(basket) < size {
		basket = append(basket, catalog[of.rng.Intn(len(catalog))])
	}
	return dedupe(basket)
}

func dedupe(products []Product) []Product {
	seen := make(map[string]struct{}, len(products))
	out := products[:0]
	for _, p := range products {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}
