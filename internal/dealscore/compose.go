package dealscore

import (
	"fmt"
	"strings"

	"github.com/crestview-group/underwriting-cli/internal/comps"
	"github.com/crestview-group/underwriting-cli/internal/model"
	"github.com/crestview-group/underwriting-cli/internal/sentiment"
)

// Result is the composed deal score. Recomputed on demand; a snapshot may be
// cached on the property record but this output is authoritative.
type Result struct {
	Score      *float64         `json:"score,omitempty"`
	Confidence comps.Confidence `json:"confidence"`
	Rationale  string           `json:"rationale"`

	Financial *Layer1Result          `json:"financial,omitempty"`
	Sentiment *sentiment.Result      `json:"sentiment,omitempty"`
	Comps     *comps.MetricBreakdown `json:"comps,omitempty"`
}

// Compose combines the three layers under the user's layer weights. Layers
// without data are excluded from the weighted average rather than defaulted;
// confidence reports how much of the possible weight was actually backed.
// Weights must already be validated.
func Compose(weights model.ScoreWeights, financial Layer1Result, sent sentiment.Result, compMetrics comps.MetricBreakdown) Result {
	res := Result{
		Financial: &financial,
		Sentiment: &sent,
		Comps:     &compMetrics,
	}

	weighted := 0.0
	populated := 0
	var parts []string

	if financial.Composite != nil {
		weighted += *financial.Composite * float64(weights.LayerFinancial)
		populated += weights.LayerFinancial
		parts = append(parts, fmt.Sprintf("financial %.0f", *financial.Composite))
	}
	if sent.Score != nil {
		// Sentiment lives on [-10, +10]; rescale to 0-100 for composition.
		scaled := float64(*sent.Score+10) * 5
		weighted += scaled * float64(weights.LayerSentiment)
		populated += weights.LayerSentiment
		parts = append(parts, fmt.Sprintf("sentiment %+d", *sent.Score))
	}
	if compMetrics.Composite != nil {
		weighted += *compMetrics.Composite * float64(weights.LayerComps)
		populated += weights.LayerComps
		parts = append(parts, fmt.Sprintf("comps %.0f", *compMetrics.Composite))
	}

	if populated == 0 {
		res.Confidence = comps.ConfidenceLow
		res.Rationale = "no layer produced a score"
		return res
	}

	score := weighted / float64(populated)
	res.Score = &score
	res.Confidence = confidenceFor(populated)
	res.Rationale = strings.Join(parts, ", ")
	return res
}

func confidenceFor(populated int) comps.Confidence {
	switch {
	case populated >= 100:
		return comps.ConfidenceHigh
	case populated >= 60:
		return comps.ConfidenceMedium
	default:
		return comps.ConfidenceLow
	}
}
