package dealscore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crestview-group/underwriting-cli/internal/model"
)

func f(v float64) *float64 { return &v }

var evenWeights = model.ScoreWeights{
	LayerFinancial: 40, LayerSentiment: 20, LayerComps: 40,
	MetricCapRate: 40, MetricOpex: 30, MetricOccupancy: 30,
}

func TestScoreLayer1_BandInterpolation(t *testing.T) {
	tests := []struct {
		name    string
		capRate float64
		want    float64
	}{
		{"below band clamps low", 0.030, 25},
		{"at first anchor", 0.040, 25},
		{"midpoint interpolates", 0.045, 37.5},
		{"at middle anchor", 0.050, 50},
		{"upper midpoint", 0.065, 82.5},
		{"above band clamps high", 0.085, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ScoreLayer1(Layer1Inputs{CapRate: f(tt.capRate)}, evenWeights)
			require.NotNil(t, res.CapRate)
			assert.InDelta(t, tt.want, res.CapRate.Score, 0.001)
		})
	}
}

func TestScoreLayer1_OpexBandDescends(t *testing.T) {
	lean := ScoreLayer1(Layer1Inputs{OpexRatio: f(0.30)}, evenWeights)
	heavy := ScoreLayer1(Layer1Inputs{OpexRatio: f(0.65)}, evenWeights)

	require.NotNil(t, lean.OpexRatio)
	require.NotNil(t, heavy.OpexRatio)
	assert.InDelta(t, 90, lean.OpexRatio.Score, 0.001)
	assert.InDelta(t, 25, heavy.OpexRatio.Score, 0.001)

	mid := ScoreLayer1(Layer1Inputs{OpexRatio: f(0.45)}, evenWeights)
	require.NotNil(t, mid.OpexRatio)
	assert.InDelta(t, 60, mid.OpexRatio.Score, 0.001)
}

func TestScoreLayer1_OccupancyBand(t *testing.T) {
	res := ScoreLayer1(Layer1Inputs{EconomicOccupancy: f(0.925)}, evenWeights)
	require.NotNil(t, res.EconomicOccupancy)
	assert.InDelta(t, 80, res.EconomicOccupancy.Score, 0.001)
}

func TestScoreLayer1_CompositeWeightsPopulatedOnly(t *testing.T) {
	in := Layer1Inputs{
		CapRate:   f(0.050), // 50
		OpexRatio: f(0.40),  // 70
	}
	res := ScoreLayer1(in, evenWeights)
	require.NotNil(t, res.Composite)
	// (50*40 + 70*30) / 70
	assert.InDelta(t, 58.571, *res.Composite, 0.01)
	assert.Nil(t, res.EconomicOccupancy)
}

func TestScoreLayer1_NoInputs(t *testing.T) {
	res := ScoreLayer1(Layer1Inputs{}, evenWeights)
	assert.Nil(t, res.CapRate)
	assert.Nil(t, res.OpexRatio)
	assert.Nil(t, res.EconomicOccupancy)
	assert.Nil(t, res.Composite)
}
