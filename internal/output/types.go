package output

import (
	"fmt"

	"github.com/xitongsys/parquet-go/schema"
)

// Topic names double as Kafka topics, file/parquet folder names and Postgres
// table keys.
const (
	TopicResults       = "analysis_results"
	TopicClusters      = "order_clusters"
	TopicAffinities    = "product_affinities"
	TopicOpportunities = "aov_opportunities"
)

// ResultRecord is the run-level envelope. Payload holds the full serialized
// AnalysisResult so downstream consumers get the exact wire shape.
type ResultRecord struct {
	RunID             string  `json:"run_id" parquet:"name=run_id,type=BYTE_ARRAY,convertedtype=UTF8"`
	GeneratedAt       int64   `json:"generated_at" parquet:"name=generated_at,type=INT64"`
	TotalOrders       int64   `json:"total_orders" parquet:"name=total_orders,type=INT64"`
	TotalRevenue      float64 `json:"total_revenue" parquet:"name=total_revenue,type=DOUBLE"`
	AverageOrderValue float64 `json:"average_order_value" parquet:"name=average_order_value,type=DOUBLE"`
	Period            string  `json:"period" parquet:"name=period,type=BYTE_ARRAY,convertedtype=UTF8"`
	Payload           string  `json:"payload" parquet:"name=payload,type=BYTE_ARRAY,convertedtype=UTF8"`
}

type ClusterRecord struct {
	RunID         string   `json:"run_id" parquet:"name=run_id,type=BYTE_ARRAY,convertedtype=UTF8"`
	GeneratedAt   int64    `json:"generated_at" parquet:"name=generated_at,type=INT64"`
	ClusterName   string   `json:"cluster_name" parquet:"name=cluster_name,type=BYTE_ARRAY,convertedtype=UTF8"`
	MinValue      float64  `json:"min_value" parquet:"name=min_value,type=DOUBLE"`
	MaxValue      *float64 `json:"max_value" parquet:"name=max_value,type=DOUBLE,repetitiontype=OPTIONAL"`
	OrderCount    int64    `json:"order_count" parquet:"name=order_count,type=INT64"`
	Percentage    float64  `json:"percentage" parquet:"name=percentage,type=DOUBLE"`
	AvgOrderValue float64  `json:"avg_order_value" parquet:"name=avg_order_value,type=DOUBLE"`
	TotalRevenue  float64  `json:"total_revenue" parquet:"name=total_revenue,type=DOUBLE"`
}

type AffinityRecord struct {
	RunID             string  `json:"run_id" parquet:"name=run_id,type=BYTE_ARRAY,convertedtype=UTF8"`
	GeneratedAt       int64   `json:"generated_at" parquet:"name=generated_at,type=INT64"`
	ProductAID        string  `json:"product_a_id" parquet:"name=product_a_id,type=BYTE_ARRAY,convertedtype=UTF8"`
	ProductATitle     string  `json:"product_a_title" parquet:"name=product_a_title,type=BYTE_ARRAY,convertedtype=UTF8"`
	ProductBID        string  `json:"product_b_id" parquet:"name=product_b_id,type=BYTE_ARRAY,convertedtype=UTF8"`
	ProductBTitle     string  `json:"product_b_title" parquet:"name=product_b_title,type=BYTE_ARRAY,convertedtype=UTF8"`
	CoOccurrenceCount int64   `json:"co_occurrence_count" parquet:"name=co_occurrence_count,type=INT64"`
	Confidence        float64 `json:"confidence" parquet:"name=confidence,type=DOUBLE"`
	Lift              float64 `json:"lift" parquet:"name=lift,type=DOUBLE"`
}

type OpportunityRecord struct {
	RunID           string  `json:"run_id" parquet:"name=run_id,type=BYTE_ARRAY,convertedtype=UTF8"`
	GeneratedAt     int64   `json:"generated_at" parquet:"name=generated_at,type=INT64"`
	OpportunityType string  `json:"opportunity_type" parquet:"name=opportunity_type,type=BYTE_ARRAY,convertedtype=UTF8"`
	Title           string  `json:"title" parquet:"name=title,type=BYTE_ARRAY,convertedtype=UTF8"`
	Description     string  `json:"description" parquet:"name=description,type=BYTE_ARRAY,convertedtype=UTF8"`
	PotentialImpact string  `json:"potential_impact" parquet:"name=potential_impact,type=BYTE_ARRAY,convertedtype=UTF8"`
	Priority        int64   `json:"priority" parquet:"name=priority,type=INT64"`
	ConfidenceScore float64 `json:"confidence_score" parquet:"name=confidence_score,type=DOUBLE"`
	DataSupport     string  `json:"data_support" parquet:"name=data_support,type=BYTE_ARRAY,convertedtype=UTF8"`
}

func GetSchema(topic string) (*schema.SchemaHandler, error) {
	var sh *schema.SchemaHandler
	var err error

	switch topic {
	case TopicResults:
		sh, err = schema.NewSchemaHandlerFromStruct(new(ResultRecord))
	case TopicClusters:
		sh, err = schema.NewSchemaHandlerFromStruct(new(ClusterRecord))
	case TopicAffinities:
		sh, err = schema.NewSchemaHandlerFromStruct(new(AffinityRecord))
	case TopicOpportunities:
		sh, err = schema.NewSchemaHandlerFromStruct(new(OpportunityRecord))
	default:
		return nil, fmt.Errorf("unknown topic: %s", topic)
	}

	if err != nil {
		return nil, fmt.Errorf("error creating schema for %s: %w", topic, err)
	}
	return sh, nil
}

// newRecord returns a fresh record value for a topic, used when a sink needs
// to round-trip a message back into its typed form.
func newRecord(topic string) (interface{}, error) {
	switch topic {
	case TopicResults:
		return new(ResultRecord), nil
	case TopicClusters:
		return new(ClusterRecord), nil
	case TopicAffinities:
		return new(AffinityRecord), nil
	case TopicOpportunities:
		return new(OpportunityRecord), nil
	default:
		return nil, fmt.Errorf("unknown topic: %s", topic)
	}
}
