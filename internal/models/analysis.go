package models

// Cluster is a contiguous band of order values with its aggregates. Bands
// partition the order set: every order falls in exactly one band. MaxValue is
// nil for the open-ended top band.
type Cluster struct {
	Name          string   `json:"cluster_name"`
	MinValue      float64  `json:"min_value"`
	MaxValue      *float64 `json:"max_value"`
	OrderCount    int      `json:"order_count"`
	Percentage    float64  `json:"percentage"`
	AvgOrderValue float64  `json:"avg_order_value"`
	TotalRevenue  float64  `json:"total_revenue"`
}

// AffinityPair is one canonicalized product pair with its market-basket
// statistics. Product A is the side with the higher standalone order
// frequency; confidence is P(B|A) for that direction only.
type AffinityPair struct {
	ProductAID        string  `json:"product_a_id"`
	ProductATitle     string  `json:"product_a_title"`
	ProductBID        string  `json:"product_b_id"`
	ProductBTitle     string  `json:"product_b_title"`
	CoOccurrenceCount int     `json:"co_occurrence_count"`
	Confidence        float64 `json:"confidence"`
	Lift              float64 `json:"lift"`
}

type OpportunityType string

const (
	OpportunityFreeShipping OpportunityType = "free-shipping-threshold"
	OpportunityBundle       OpportunityType = "bundle"
	OpportunityUpsell       OpportunityType = "upsell"
	OpportunityCrossSell    OpportunityType = "cross-sell"
)

// Opportunity is a ranked, evidence-backed AOV recommendation. DataSupport
// carries the exact counts the heuristic used, so downstream consumers can
// audit the suggestion instead of trusting a black box.
type Opportunity struct {
	Type            OpportunityType        `json:"opportunity_type"`
	Title           string                 `json:"title"`
	Description     string                 `json:"description"`
	PotentialImpact string                 `json:"potential_impact"`
	Priority        int                    `json:"priority"`
	ConfidenceScore float64                `json:"confidence_score"`
	DataSupport     map[string]interface{} `json:"data_support"`
}

type Summary struct {
	TotalOrders       int     `json:"totalOrders"`
	TotalRevenue      float64 `json:"totalRevenue"`
	AverageOrderValue float64 `json:"averageOrderValue"`
	Period            string  `json:"period"`
}

// AnalysisResult is the root output of one analysis run. The field names and
// numeric semantics are a stable contract with downstream rendering and
// storage and must not change shape.
type AnalysisResult struct {
	Summary           Summary        `json:"summary"`
	Clusters          []Cluster      `json:"clusters"`
	ProductAffinities []AffinityPair `json:"productAffinities"`
	Opportunities     []Opportunity  `json:"opportunities"`
	Warnings          []string       `json:"warnings,omitempty"`
}
