package dealscore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crestview-group/underwriting-cli/internal/comps"
	"github.com/crestview-group/underwriting-cli/internal/sentiment"
)

func ip(v int) *int { return &v }

func TestCompose_AllLayers(t *testing.T) {
	financial := Layer1Result{Composite: f(60)}
	sent := sentiment.Result{Score: ip(4)}
	compMetrics := comps.MetricBreakdown{Composite: f(70)}

	res := Compose(evenWeights, financial, sent, compMetrics)
	require.NotNil(t, res.Score)
	// Sentiment +4 rescales to (4+10)*5 = 70.
	// (60*40 + 70*20 + 70*40) / 100 = 66.
	assert.InDelta(t, 66, *res.Score, 0.001)
	assert.Equal(t, comps.ConfidenceHigh, res.Confidence)
	assert.Contains(t, res.Rationale, "financial 60")
	assert.Contains(t, res.Rationale, "sentiment +4")
	assert.Contains(t, res.Rationale, "comps 70")
}

func TestCompose_SentimentRescale(t *testing.T) {
	tests := []struct {
		sentScore int
		want      float64
	}{
		{-10, 0},
		{0, 50},
		{10, 100},
	}

	for _, tt := range tests {
		res := Compose(evenWeights, Layer1Result{}, sentiment.Result{Score: ip(tt.sentScore)}, comps.MetricBreakdown{})
		require.NotNil(t, res.Score)
		assert.InDelta(t, tt.want, *res.Score, 0.001)
	}
}

func TestCompose_MissingLayersExcluded(t *testing.T) {
	// No sentiment data: its weight drops out instead of dragging the
	// average toward a default.
	res := Compose(evenWeights, Layer1Result{Composite: f(80)}, sentiment.Result{}, comps.MetricBreakdown{Composite: f(80)})
	require.NotNil(t, res.Score)
	assert.InDelta(t, 80, *res.Score, 0.001)
	assert.Equal(t, comps.ConfidenceMedium, res.Confidence)
	assert.NotContains(t, res.Rationale, "sentiment")
}

func TestCompose_SingleLayerLowConfidence(t *testing.T) {
	res := Compose(evenWeights, Layer1Result{}, sentiment.Result{Score: ip(2)}, comps.MetricBreakdown{})
	require.NotNil(t, res.Score)
	assert.Equal(t, comps.ConfidenceLow, res.Confidence)
}

func TestCompose_NoLayers(t *testing.T) {
	res := Compose(evenWeights, Layer1Result{}, sentiment.Result{}, comps.MetricBreakdown{})
	assert.Nil(t, res.Score)
	assert.Equal(t, comps.ConfidenceLow, res.Confidence)
	assert.Equal(t, "no layer produced a score", res.Rationale)
}

func TestCompose_RetainsLayerDetail(t *testing.T) {
	financial := Layer1Result{Composite: f(55)}
	res := Compose(evenWeights, financial, sentiment.Result{}, comps.MetricBreakdown{})
	require.NotNil(t, res.Financial)
	assert.InDelta(t, 55, *res.Financial.Composite, 0.001)
	require.NotNil(t, res.Sentiment)
	require.NotNil(t, res.Comps)
}
