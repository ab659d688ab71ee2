package comps

import (
	"fmt"
	"math"
	"sort"

	"github.com/crestview-group/underwriting-cli/internal/model"
)

// Fixed relative weights for the three comp-based sub-metrics.
const (
	weightCapRate      = 35
	weightPricePerUnit = 40
	weightVintage      = 25
)

// minCapRateComps is the floor below which the cap-rate sub-metric reports
// insufficient data instead of a score.
const minCapRateComps = 3

// MetricScore is one sub-metric result: a 0-100 score plus the rationale
// behind it.
type MetricScore struct {
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale"`
}

// Confidence grades how much of the possible metric weight was backed by
// data.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// MetricBreakdown is the full comp-based scoring output. Sub-metrics are nil
// when their inputs were insufficient, never defaulted.
type MetricBreakdown struct {
	CapRate      *MetricScore `json:"cap_rate,omitempty"`
	PricePerUnit *MetricScore `json:"price_per_unit,omitempty"`
	Vintage      *MetricScore `json:"vintage,omitempty"`
	Composite    *float64     `json:"composite,omitempty"`
	Confidence   Confidence   `json:"confidence"`
}

// ScoreMetrics computes the three comp-relative sub-metrics against
// relevance-weighted comp averages and composes them. Missing sub-metrics
// drop out of the composite; confidence reflects how much weight had data.
func ScoreMetrics(subject *model.SubjectProperty, comps []model.ScoredComp) MetricBreakdown {
	bd := MetricBreakdown{
		CapRate:      scoreCapRate(subject, comps),
		PricePerUnit: scorePricePerUnit(subject, comps),
		Vintage:      scoreVintage(subject, comps),
	}

	weighted := 0.0
	populated := 0
	if bd.CapRate != nil {
		weighted += bd.CapRate.Score * weightCapRate
		populated += weightCapRate
	}
	if bd.PricePerUnit != nil {
		weighted += bd.PricePerUnit.Score * weightPricePerUnit
		populated += weightPricePerUnit
	}
	if bd.Vintage != nil {
		weighted += bd.Vintage.Score * weightVintage
		populated += weightVintage
	}

	if populated > 0 {
		composite := weighted / float64(populated)
		bd.Composite = &composite
	}
	bd.Confidence = confidenceFor(populated, weightCapRate+weightPricePerUnit+weightVintage)
	return bd
}

func confidenceFor(populated, total int) Confidence {
	frac := float64(populated) / float64(total)
	switch {
	case frac >= 1.0:
		return ConfidenceHigh
	case frac >= 0.6:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// scoreCapRate scores the cap-rate spread against the relevance-weighted
// comp average: +40 points per 100bps of positive spread (a wider cap than
// the comp set means a cheaper entry), centered at 50.
func scoreCapRate(subject *model.SubjectProperty, comps []model.ScoredComp) *MetricScore {
	if subject.CapRate == nil {
		return nil
	}

	var sum, weight float64
	n := 0
	for _, sc := range comps {
		if sc.Comp.CapRate == nil {
			continue
		}
		sum += *sc.Comp.CapRate * sc.Relevance
		weight += sc.Relevance
		n++
	}
	if n < minCapRateComps || weight <= 0 {
		return nil
	}

	avg := sum / weight
	spreadBps := (*subject.CapRate - avg) * 10000
	score := clamp(50 + spreadBps*40/100)
	return &MetricScore{
		Score: score,
		Rationale: fmt.Sprintf("subject cap rate %.2f%% vs %.2f%% weighted comp average (%+.0f bps, %d comps)",
			*subject.CapRate*100, avg*100, spreadBps, n),
	}
}

// scorePricePerUnit scores percentage deviation from the weighted-average
// price per unit, inverted: paying under the comp set scores above 50, at
// ±40 points per ±20% deviation.
func scorePricePerUnit(subject *model.SubjectProperty, comps []model.ScoredComp) *MetricScore {
	if subject.PricePerUnit == nil || *subject.PricePerUnit <= 0 {
		return nil
	}

	var sum, weight float64
	n := 0
	for _, sc := range comps {
		if sc.Comp.PricePerUnit == nil || *sc.Comp.PricePerUnit <= 0 {
			continue
		}
		sum += *sc.Comp.PricePerUnit * sc.Relevance
		weight += sc.Relevance
		n++
	}
	if n == 0 || weight <= 0 {
		return nil
	}

	avg := sum / weight
	deviation := (*subject.PricePerUnit - avg) / avg
	score := clamp(50 - deviation*40/0.20)
	return &MetricScore{
		Score: score,
		Rationale: fmt.Sprintf("subject price/unit $%.0f vs $%.0f weighted comp average (%+.1f%%, %d comps)",
			*subject.PricePerUnit, avg, deviation*100, n),
	}
}

// scoreVintage scores the subject's year against the comp median year at 6
// points per year. Comp years substitute renovation for build the same way
// the relevance axis does.
func scoreVintage(subject *model.SubjectProperty, comps []model.ScoredComp) *MetricScore {
	subjectYear := effectiveYear(subject.YearBuilt, subject.YearRenovated, nil)
	if subjectYear == 0 {
		return nil
	}

	var years []int
	for _, sc := range comps {
		if sc.Comp.YearBuilt == nil {
			continue
		}
		years = append(years, effectiveYear(sc.Comp.YearBuilt, sc.Comp.YearRenovated, &subjectYear))
	}
	if len(years) == 0 {
		return nil
	}

	median := medianInt(years)
	score := clamp(50 + float64(subjectYear-median)*6)
	return &MetricScore{
		Score: score,
		Rationale: fmt.Sprintf("subject vintage %d vs comp median %d (%d comps)",
			subjectYear, median, len(years)),
	}
}

func medianInt(values []int) int {
	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func clamp(v float64) float64 {
	return math.Min(100, math.Max(0, v))
}
