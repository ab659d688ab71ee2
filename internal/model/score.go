package model

import "github.com/rotisserie/eris"

// ScoreWeights holds a user's configurable deal-score weights. Both the three
// layer weights and the three Layer-1 metric weights must sum to exactly 100.
type ScoreWeights struct {
	UserID string `json:"user_id,omitempty"`

	// Layer weights
	LayerFinancial int `json:"layer_financial"`
	LayerSentiment int `json:"layer_sentiment"`
	LayerComps     int `json:"layer_comps"`

	// Layer-1 metric weights
	MetricCapRate   int `json:"metric_cap_rate"`
	MetricOpex      int `json:"metric_opex"`
	MetricOccupancy int `json:"metric_occupancy"`
}

// Validate rejects weight sets whose sums are not exactly 100, naming the
// actual sum in the error.
func (w ScoreWeights) Validate() error {
	if sum := w.LayerFinancial + w.LayerSentiment + w.LayerComps; sum != 100 {
		return eris.Errorf("weights: layer weights must sum to 100, got %d", sum)
	}
	if sum := w.MetricCapRate + w.MetricOpex + w.MetricOccupancy; sum != 100 {
		return eris.Errorf("weights: layer-1 metric weights must sum to 100, got %d", sum)
	}
	return nil
}
