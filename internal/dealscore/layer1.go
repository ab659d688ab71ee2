// Package dealscore composes financial, sentiment, and comp-relative scores
// into the final deal score.
package dealscore

import (
	"fmt"

	"github.com/crestview-group/underwriting-cli/internal/comps"
	"github.com/crestview-group/underwriting-cli/internal/model"
)

// anchor is one point on a benchmark band; scores interpolate linearly
// between anchors and clamp at the ends.
type anchor struct {
	value float64
	score float64
}

// Benchmark bands for the three Layer-1 financial ratios, calibrated to
// stabilized multifamily.
var (
	capRateBands = []anchor{
		{0.040, 25},
		{0.050, 50},
		{0.060, 75},
		{0.070, 90},
	}
	// Lower opex ratio is better, so the band descends.
	opexRatioBands = []anchor{
		{0.30, 90},
		{0.40, 70},
		{0.50, 50},
		{0.65, 25},
	}
	economicOccBands = []anchor{
		{0.80, 30},
		{0.85, 50},
		{0.90, 70},
		{0.95, 90},
	}
)

// Layer1Inputs are the financial ratios Layer 1 scores. All optional; a
// missing ratio drops its metric from the layer.
type Layer1Inputs struct {
	CapRate           *float64
	OpexRatio         *float64
	EconomicOccupancy *float64
}

// Layer1Result is the financial-ratio layer output.
type Layer1Result struct {
	CapRate           *comps.MetricScore `json:"cap_rate,omitempty"`
	OpexRatio         *comps.MetricScore `json:"opex_ratio,omitempty"`
	EconomicOccupancy *comps.MetricScore `json:"economic_occupancy,omitempty"`
	Composite         *float64           `json:"composite,omitempty"`
}

// ScoreLayer1 scores the financial ratios against their benchmark bands,
// weighting the populated metrics per the user's metric weights. Metrics
// without data are excluded, never defaulted.
func ScoreLayer1(in Layer1Inputs, weights model.ScoreWeights) Layer1Result {
	var res Layer1Result

	if in.CapRate != nil {
		res.CapRate = &comps.MetricScore{
			Score:     interpolate(capRateBands, *in.CapRate),
			Rationale: fmt.Sprintf("going-in cap rate %.2f%%", *in.CapRate*100),
		}
	}
	if in.OpexRatio != nil {
		res.OpexRatio = &comps.MetricScore{
			Score:     interpolate(opexRatioBands, *in.OpexRatio),
			Rationale: fmt.Sprintf("opex ratio %.1f%% of GSR", *in.OpexRatio*100),
		}
	}
	if in.EconomicOccupancy != nil {
		res.EconomicOccupancy = &comps.MetricScore{
			Score:     interpolate(economicOccBands, *in.EconomicOccupancy),
			Rationale: fmt.Sprintf("economic occupancy %.1f%%", *in.EconomicOccupancy*100),
		}
	}

	weighted := 0.0
	populated := 0
	if res.CapRate != nil {
		weighted += res.CapRate.Score * float64(weights.MetricCapRate)
		populated += weights.MetricCapRate
	}
	if res.OpexRatio != nil {
		weighted += res.OpexRatio.Score * float64(weights.MetricOpex)
		populated += weights.MetricOpex
	}
	if res.EconomicOccupancy != nil {
		weighted += res.EconomicOccupancy.Score * float64(weights.MetricOccupancy)
		populated += weights.MetricOccupancy
	}
	if populated > 0 {
		composite := weighted / float64(populated)
		res.Composite = &composite
	}
	return res
}

// interpolate maps a value through ascending anchors.
func interpolate(bands []anchor, v float64) float64 {
	if v <= bands[0].value {
		return bands[0].score
	}
	last := bands[len(bands)-1]
	if v >= last.value {
		return last.score
	}
	for i := 1; i < len(bands); i++ {
		if v <= bands[i].value {
			lo, hi := bands[i-1], bands[i]
			frac := (v - lo.value) / (hi.value - lo.value)
			return lo.score + frac*(hi.score-lo.score)
		}
	}
	return last.score
}
