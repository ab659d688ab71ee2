package comps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crestview-group/underwriting-cli/internal/model"
)

func equalWeightComps(comps ...model.NormalizedComp) []model.ScoredComp {
	out := make([]model.ScoredComp, len(comps))
	for idx, c := range comps {
		out[idx] = model.ScoredComp{Comp: c, Relevance: 1.0}
	}
	return out
}

func TestScoreMetrics_CapRateSpread(t *testing.T) {
	subject := &model.SubjectProperty{CapRate: f(0.055)}
	set := equalWeightComps(
		model.NormalizedComp{CapRate: f(0.050)},
		model.NormalizedComp{CapRate: f(0.050)},
		model.NormalizedComp{CapRate: f(0.050)},
	)

	bd := ScoreMetrics(subject, set)
	require.NotNil(t, bd.CapRate)
	// +50 bps over the comp average at 40 points per 100 bps.
	assert.InDelta(t, 70, bd.CapRate.Score, 0.001)
	assert.Contains(t, bd.CapRate.Rationale, "3 comps")
}

func TestScoreMetrics_CapRateNeedsThreeComps(t *testing.T) {
	subject := &model.SubjectProperty{CapRate: f(0.055)}
	set := equalWeightComps(
		model.NormalizedComp{CapRate: f(0.050)},
		model.NormalizedComp{CapRate: f(0.052)},
		model.NormalizedComp{PricePerUnit: f(200000)}, // no cap rate
	)

	bd := ScoreMetrics(subject, set)
	assert.Nil(t, bd.CapRate)
}

func TestScoreMetrics_PricePerUnitInverted(t *testing.T) {
	subject := &model.SubjectProperty{PricePerUnit: f(200000)}
	set := equalWeightComps(
		model.NormalizedComp{PricePerUnit: f(250000)},
		model.NormalizedComp{PricePerUnit: f(250000)},
	)

	bd := ScoreMetrics(subject, set)
	require.NotNil(t, bd.PricePerUnit)
	// Paying 20% under the comp set scores 40 points above center.
	assert.InDelta(t, 90, bd.PricePerUnit.Score, 0.001)

	// Paying over the comp set scores below center.
	expensive := &model.SubjectProperty{PricePerUnit: f(300000)}
	bd = ScoreMetrics(expensive, set)
	require.NotNil(t, bd.PricePerUnit)
	assert.InDelta(t, 10, bd.PricePerUnit.Score, 0.001)
}

func TestScoreMetrics_VintageAgainstMedian(t *testing.T) {
	subject := &model.SubjectProperty{YearBuilt: i(2015)}
	set := equalWeightComps(
		model.NormalizedComp{YearBuilt: i(2005)},
		model.NormalizedComp{YearBuilt: i(2010)},
		model.NormalizedComp{YearBuilt: i(2012)},
	)

	bd := ScoreMetrics(subject, set)
	require.NotNil(t, bd.Vintage)
	// Five years newer than the 2010 median at 6 points per year.
	assert.InDelta(t, 80, bd.Vintage.Score, 0.001)
}

func TestScoreMetrics_ScoresClamped(t *testing.T) {
	subject := &model.SubjectProperty{CapRate: f(0.09)}
	set := equalWeightComps(
		model.NormalizedComp{CapRate: f(0.045)},
		model.NormalizedComp{CapRate: f(0.045)},
		model.NormalizedComp{CapRate: f(0.045)},
	)

	bd := ScoreMetrics(subject, set)
	require.NotNil(t, bd.CapRate)
	assert.InDelta(t, 100, bd.CapRate.Score, 0.001)
}

func TestScoreMetrics_RelevanceWeighting(t *testing.T) {
	subject := &model.SubjectProperty{CapRate: f(0.055)}
	set := []model.ScoredComp{
		{Comp: model.NormalizedComp{CapRate: f(0.050)}, Relevance: 0.9},
		{Comp: model.NormalizedComp{CapRate: f(0.050)}, Relevance: 0.9},
		{Comp: model.NormalizedComp{CapRate: f(0.070)}, Relevance: 0.1},
	}

	bd := ScoreMetrics(subject, set)
	require.NotNil(t, bd.CapRate)
	// Weighted average (0.9*0.05*2 + 0.1*0.07) / 1.9 ≈ 5.11%, so the
	// outlier barely moves it.
	assert.Greater(t, bd.CapRate.Score, 50.0)
}

func TestScoreMetrics_ConfidenceTiers(t *testing.T) {
	full := &model.SubjectProperty{
		CapRate:      f(0.055),
		PricePerUnit: f(200000),
		YearBuilt:    i(2015),
	}
	set := equalWeightComps(
		model.NormalizedComp{CapRate: f(0.05), PricePerUnit: f(210000), YearBuilt: i(2012)},
		model.NormalizedComp{CapRate: f(0.05), PricePerUnit: f(190000), YearBuilt: i(2014)},
		model.NormalizedComp{CapRate: f(0.05), PricePerUnit: f(205000), YearBuilt: i(2016)},
	)

	bd := ScoreMetrics(full, set)
	assert.Equal(t, ConfidenceHigh, bd.Confidence)
	require.NotNil(t, bd.Composite)

	// Without a subject cap rate only 65 of 100 weight is backed.
	noCap := &model.SubjectProperty{PricePerUnit: f(200000), YearBuilt: i(2015)}
	bd = ScoreMetrics(noCap, set)
	assert.Nil(t, bd.CapRate)
	assert.Equal(t, ConfidenceMedium, bd.Confidence)

	// Vintage alone is 25 of 100.
	vintageOnly := &model.SubjectProperty{YearBuilt: i(2015)}
	bd = ScoreMetrics(vintageOnly, set)
	assert.Equal(t, ConfidenceLow, bd.Confidence)
	require.NotNil(t, bd.Composite)
	assert.InDelta(t, bd.Vintage.Score, *bd.Composite, 0.001)
}

func TestScoreMetrics_EmptyCompSet(t *testing.T) {
	subject := &model.SubjectProperty{CapRate: f(0.055), PricePerUnit: f(200000), YearBuilt: i(2015)}

	bd := ScoreMetrics(subject, nil)
	assert.Nil(t, bd.CapRate)
	assert.Nil(t, bd.PricePerUnit)
	assert.Nil(t, bd.Vintage)
	assert.Nil(t, bd.Composite)
	assert.Equal(t, ConfidenceLow, bd.Confidence)
}
