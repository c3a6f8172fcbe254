package output

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/aovlift/aovlift/internal/models"
)

// PostgresOutput buffers analysis records per topic and flushes them in a
// single transaction on Close, using COPY for the per-row topics so a full
// result lands atomically.
type PostgresOutput struct {
	db            *sql.DB
	results       []ResultRecord
	clusters      []ClusterRecord
	affinities    []AffinityRecord
	opportunities []OpportunityRecord
}

func NewPostgresOutput(config models.DatabaseConfig) (*PostgresOutput, error) {
	db, err := sql.Open("postgres", config.ConnString())
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error pinging database: %w", err)
	}
	return &PostgresOutput{db: db}, nil
}

func (p *PostgresOutput) WriteMessage(topic string, msg []byte) error {
	record, err := newRecord(topic)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(msg, record); err != nil {
		return fmt.Errorf("failed to decode %s record: %w", topic, err)
	}

	switch r := record.(type) {
	case *ResultRecord:
		p.results = append(p.results, *r)
	case *ClusterRecord:
		p.clusters = append(p.clusters, *r)
	case *AffinityRecord:
		p.affinities = append(p.affinities, *r)
	case *OpportunityRecord:
		p.opportunities = append(p.opportunities, *r)
	}
	return nil
}

func (p *PostgresOutput) Close() error {
	defer p.db.Close()
	return p.execTx(func(tx *sql.Tx) error {
		if err := p.insertResults(tx); err != nil {
			return err
		}
		if err := p.copyClusters(tx); err != nil {
			return err
		}
		if err := p.copyAffinities(tx); err != nil {
			return err
		}
		return p.copyOpportunities(tx)
	})
}

func (p *PostgresOutput) execTx(fn func(*sql.Tx) error) error {
	tx, err := p.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r) // re-throw panic after rollback
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx failed: %v, rollback failed: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (p *PostgresOutput) insertResults(tx *sql.Tx) error {
	for _, r := range p.results {
		_, err := tx.Exec(`
            INSERT INTO analysis_results (
                run_id, generated_at, total_orders, total_revenue,
                average_order_value, period, payload
            ) VALUES ($1, $2, $3, $4, $5, $6, $7)
        `,
			r.RunID,
			time.Unix(r.GeneratedAt, 0),
			r.TotalOrders,
			r.TotalRevenue,
			r.AverageOrderValue,
			r.Period,
			json.RawMessage(r.Payload),
		)
		if err != nil {
			return fmt.Errorf("failed to insert analysis result %s: %w", r.RunID, err)
		}
	}
	return nil
}

func (p *PostgresOutput) copyClusters(tx *sql.Tx) error {
	if len(p.clusters) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(pq.CopyIn("order_clusters",
		"run_id", "generated_at", "cluster_name", "min_value", "max_value",
		"order_count", "percentage", "avg_order_value", "total_revenue"))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range p.clusters {
		_, err = stmt.Exec(
			c.RunID,
			time.Unix(c.GeneratedAt, 0),
			c.ClusterName,
			c.MinValue,
			nullableFloat(c.MaxValue),
			c.OrderCount,
			c.Percentage,
			c.AvgOrderValue,
			c.TotalRevenue,
		)
		if err != nil {
			return fmt.Errorf("failed to copy cluster %q: %w", c.ClusterName, err)
		}
	}
	return stmt.Close()
}

func (p *PostgresOutput) copyAffinities(tx *sql.Tx) error {
	if len(p.affinities) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(pq.CopyIn("product_affinities",
		"run_id", "generated_at", "product_a_id", "product_a_title",
		"product_b_id", "product_b_title", "co_occurrence_count",
		"confidence", "lift"))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range p.affinities {
		_, err = stmt.Exec(
			a.RunID,
			time.Unix(a.GeneratedAt, 0),
			a.ProductAID,
			a.ProductATitle,
			a.ProductBID,
			a.ProductBTitle,
			a.CoOccurrenceCount,
			a.Confidence,
			a.Lift,
		)
		if err != nil {
			return fmt.Errorf("failed to copy affinity %s/%s: %w", a.ProductAID, a.ProductBID, err)
		}
	}
	return stmt.Close()
}

func (p *PostgresOutput) copyOpportunities(tx *sql.Tx) error {
	if len(p.opportunities) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(pq.CopyIn("aov_opportunities",
		"run_id", "generated_at", "opportunity_type", "title", "description",
		"potential_impact", "priority", "confidence_score", "data_support"))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range p.opportunities {
		_, err = stmt.Exec(
			o.RunID,
			time.Unix(o.GeneratedAt, 0),
			o.OpportunityType,
			o.Title,
			o.Description,
			o.PotentialImpact,
			o.Priority,
			o.ConfidenceScore,
			o.DataSupport,
		)
		if err != nil {
			return fmt.Errorf("failed to copy opportunity %q: %w", o.Title, err)
		}
	}
	return stmt.Close()
}

func nullableFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
