package output

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aovlift/aovlift/internal/models"
)

type capturedMessage struct {
	topic string
	msg   []byte
}

type captureDestination struct {
	messages []capturedMessage
	writeErr error
	closed   bool
}

func (c *captureDestination) WriteMessage(topic string, msg []byte) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.messages = append(c.messages, capturedMessage{topic: topic, msg: msg})
	return nil
}

func (c *captureDestination) Close() error {
	c.closed = true
	return nil
}

func (c *captureDestination) byTopic(topic string) [][]byte {
	var out [][]byte
	for _, m := range c.messages {
		if m.topic == topic {
			out = append(out, m.msg)
		}
	}
	return out
}

func floatPtr(v float64) *float64 { return &v }

func sampleResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		Summary: models.Summary{
			TotalOrders:       120,
			TotalRevenue:      5400,
			AverageOrderValue: 45,
			Period:            "2025-01-01 – 2025-03-31",
		},
		Clusters: []models.Cluster{
			{Name: "$0–$30", MinValue: 0, MaxValue: floatPtr(30), OrderCount: 80, Percentage: 66.7, AvgOrderValue: 22, TotalRevenue: 1760},
			{Name: "$30.01+", MinValue: 30, OrderCount: 40, Percentage: 33.3, AvgOrderValue: 91, TotalRevenue: 3640},
		},
		ProductAffinities: []models.AffinityPair{
			{ProductAID: "p1", ProductATitle: "Coffee Grinder", ProductBID: "p2", ProductBTitle: "Filter Pack", CoOccurrenceCount: 14, Confidence: 0.7, Lift: 2.8},
		},
		Opportunities: []models.Opportunity{
			{
				Type:            models.OpportunityBundle,
				Title:           "Bundle Coffee Grinder with Filter Pack",
				Description:     "These products are bought together far more often than chance.",
				PotentialImpact: "Higher attach rate on grinder orders",
				Priority:        1,
				ConfidenceScore: 0.82,
				DataSupport:     map[string]interface{}{"lift": 2.8, "co_occurrence_count": 14},
			},
		},
	}
}

func TestPublisher_FansOutPerTopic(t *testing.T) {
	dest := &captureDestination{}
	pub := NewPublisher(dest)

	runID, err := pub.Publish(sampleResult())
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	assert.Len(t, dest.byTopic(TopicResults), 1)
	assert.Len(t, dest.byTopic(TopicClusters), 2)
	assert.Len(t, dest.byTopic(TopicAffinities), 1)
	assert.Len(t, dest.byTopic(TopicOpportunities), 1)
	assert.Len(t, dest.messages, 5)
}

func TestPublisher_EnvelopeCarriesFullResult(t *testing.T) {
	dest := &captureDestination{}
	pub := NewPublisher(dest)
	pub.now = func() time.Time { return time.Unix(1740000000, 0) }

	result := sampleResult()
	runID, err := pub.Publish(result)
	require.NoError(t, err)

	envelopes := dest.byTopic(TopicResults)
	require.Len(t, envelopes, 1)

	var envelope ResultRecord
	require.NoError(t, json.Unmarshal(envelopes[0], &envelope))
	assert.Equal(t, runID, envelope.RunID)
	assert.Equal(t, int64(1740000000), envelope.GeneratedAt)
	assert.Equal(t, int64(120), envelope.TotalOrders)
	assert.Equal(t, 5400.0, envelope.TotalRevenue)
	assert.Equal(t, "2025-01-01 – 2025-03-31", envelope.Period)

	// the payload must round-trip to the exact result that was published
	var decoded models.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(envelope.Payload), &decoded))
	assert.Equal(t, result.Summary, decoded.Summary)
	assert.Equal(t, result.Clusters, decoded.Clusters)
	assert.Equal(t, result.ProductAffinities, decoded.ProductAffinities)
}

func TestPublisher_ClusterRecordsKeepOpenBandNull(t *testing.T) {
	dest := &captureDestination{}
	pub := NewPublisher(dest)

	_, err := pub.Publish(sampleResult())
	require.NoError(t, err)

	records := dest.byTopic(TopicClusters)
	require.Len(t, records, 2)

	var bounded, open ClusterRecord
	require.NoError(t, json.Unmarshal(records[0], &bounded))
	require.NoError(t, json.Unmarshal(records[1], &open))

	require.NotNil(t, bounded.MaxValue)
	assert.Equal(t, 30.0, *bounded.MaxValue)
	assert.Nil(t, open.MaxValue, "open-ended band serializes max_value as null")
}

func TestPublisher_OpportunityDataSupportSerialized(t *testing.T) {
	dest := &captureDestination{}
	pub := NewPublisher(dest)

	_, err := pub.Publish(sampleResult())
	require.NoError(t, err)

	records := dest.byTopic(TopicOpportunities)
	require.Len(t, records, 1)

	var record OpportunityRecord
	require.NoError(t, json.Unmarshal(records[0], &record))
	assert.Equal(t, "bundle", record.OpportunityType)
	assert.Equal(t, int64(1), record.Priority)

	var support map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(record.DataSupport), &support))
	assert.Equal(t, 2.8, support["lift"])
}

func TestPublisher_SharedRunID(t *testing.T) {
	dest := &captureDestination{}
	pub := NewPublisher(dest)

	runID, err := pub.Publish(sampleResult())
	require.NoError(t, err)

	for _, m := range dest.messages {
		var record struct {
			RunID string `json:"run_id"`
		}
		require.NoError(t, json.Unmarshal(m.msg, &record))
		assert.Equal(t, runID, record.RunID, "all records of one run share its id")
	}
}

func TestPublisher_PropagatesWriteFailure(t *testing.T) {
	dest := &captureDestination{writeErr: errors.New("broker unavailable")}
	pub := NewPublisher(dest)

	_, err := pub.Publish(sampleResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")
}

func TestGetSchema_KnownTopics(t *testing.T) {
	for _, topic := range []string{TopicResults, TopicClusters, TopicAffinities, TopicOpportunities} {
		sh, err := GetSchema(topic)
		require.NoError(t, err, "topic %s", topic)
		assert.NotNil(t, sh)
	}

	_, err := GetSchema("nonsense")
	assert.Error(t, err)
}
