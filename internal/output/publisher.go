package output

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lucsky/cuid"

	"github.com/aovlift/aovlift/internal/models"
)

// Publisher fans a finished analysis out over a destination: the full result
// envelope plus one record per cluster, affinity pair and opportunity.
type Publisher struct {
	dest Destination
	now  func() time.Time
}

func NewPublisher(dest Destination) *Publisher {
	return &Publisher{dest: dest, now: time.Now}
}

func (p *Publisher) Publish(result *models.AnalysisResult) (string, error) {
	runID := cuid.New()
	generatedAt := p.now().Unix()

	payload, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to marshal analysis result: %w", err)
	}

	envelope := ResultRecord{
		RunID:             runID,
		GeneratedAt:       generatedAt,
		TotalOrders:       int64(result.Summary.TotalOrders),
		TotalRevenue:      result.Summary.TotalRevenue,
		AverageOrderValue: result.Summary.AverageOrderValue,
		Period:            result.Summary.Period,
		Payload:           string(payload),
	}
	if err := p.send(TopicResults, envelope); err != nil {
		return "", err
	}

	for _, c := range result.Clusters {
		record := ClusterRecord{
			RunID:         runID,
			GeneratedAt:   generatedAt,
			ClusterName:   c.Name,
			MinValue:      c.MinValue,
			MaxValue:      c.MaxValue,
			OrderCount:    int64(c.OrderCount),
			Percentage:    c.Percentage,
			AvgOrderValue: c.AvgOrderValue,
			TotalRevenue:  c.TotalRevenue,
		}
		if err := p.send(TopicClusters, record); err != nil {
			return "", err
		}
	}

	for _, pair := range result.ProductAffinities {
		record := AffinityRecord{
			RunID:             runID,
			GeneratedAt:       generatedAt,
			ProductAID:        pair.ProductAID,
			ProductATitle:     pair.ProductATitle,
			ProductBID:        pair.ProductBID,
			ProductBTitle:     pair.ProductBTitle,
			CoOccurrenceCount: int64(pair.CoOccurrenceCount),
			Confidence:        pair.Confidence,
			Lift:              pair.Lift,
		}
		if err := p.send(TopicAffinities, record); err != nil {
			return "", err
		}
	}

	for _, opp := range result.Opportunities {
		support, err := json.Marshal(opp.DataSupport)
		if err != nil {
			return "", fmt.Errorf("failed to marshal data support: %w", err)
		}
		record := OpportunityRecord{
			RunID:           runID,
			GeneratedAt:     generatedAt,
			OpportunityType: string(opp.Type),
			Title:           opp.Title,
			Description:     opp.Description,
			PotentialImpact: opp.PotentialImpact,
			Priority:        int64(opp.Priority),
			ConfidenceScore: opp.ConfidenceScore,
			DataSupport:     string(support),
		}
		if err := p.send(TopicOpportunities, record); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func (p *Publisher) send(topic string, record interface{}) error {
	msg, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal %s record: %w", topic, err)
	}
	if err := p.dest.WriteMessage(topic, msg); err != nil {
		return fmt.Errorf("failed to write %s record: %w", topic, err)
	}
	return nil
}
