package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aovlift/aovlift/internal/models"
)

// PostgresSource loads orders and their line items from the ingestion
// schema's orders / order_line_items tables.
type PostgresSource struct {
	pool *pgxpool.Pool
}

func NewPostgresSource(ctx context.Context, connString string) (*PostgresSource, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresSource{pool: pool}, nil
}

func (p *PostgresSource) LoadOrders(ctx context.Context, start, end time.Time) ([]models.Order, error) {
	orders, index, err := p.loadOrderRows(ctx, start, end)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}
	if err := p.loadLineItems(ctx, start, end, orders, index); err != nil {
		return nil, err
	}
	return orders, nil
}

func (p *PostgresSource) loadOrderRows(ctx context.Context, start, end time.Time) ([]models.Order, map[string]int, error) {
	query := `
        SELECT id, total_price, currency, created_at
        FROM orders
        WHERE ($1::timestamptz IS NULL OR created_at >= $1)
          AND ($2::timestamptz IS NULL OR created_at <= $2)
        ORDER BY created_at, id
    `

	rows, err := p.pool.Query(ctx, query, nullableTime(start), nullableTime(end))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	index := make(map[string]int)
	for rows.Next() {
		var order models.Order
		if err := rows.Scan(&order.ID, &order.TotalPrice, &order.Currency, &order.CreatedAt); err != nil {
			return nil, nil, fmt.Errorf("failed to scan order row: %w", err)
		}
		index[order.ID] = len(orders)
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating order rows: %w", err)
	}
	return orders, index, nil
}

func (p *PostgresSource) loadLineItems(ctx context.Context, start, end time.Time, orders []models.Order, index map[string]int) error {
	query := `
        SELECT li.order_id, li.product_id, li.product_title, li.quantity, li.unit_price
        FROM order_line_items li
        JOIN orders o ON o.id = li.order_id
        WHERE ($1::timestamptz IS NULL OR o.created_at >= $1)
          AND ($2::timestamptz IS NULL OR o.created_at <= $2)
        ORDER BY li.order_id, li.product_id
    `

	rows, err := p.pool.Query(ctx, query, nullableTime(start), nullableTime(end))
	if err != nil {
		return fmt.Errorf("failed to query line items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID string
		var item models.LineItem
		if err := rows.Scan(&orderID, &item.ProductID, &item.ProductTitle, &item.Quantity, &item.UnitPrice); err != nil {
			return fmt.Errorf("failed to scan line item row: %w", err)
		}
		if i, ok := index[orderID]; ok {
			orders[i].LineItems = append(orders[i].LineItems, item)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating line item rows: %w", err)
	}
	return nil
}

func (p *PostgresSource) Close() error {
	p.pool.Close()
	return nil
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
