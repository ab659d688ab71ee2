// Package sentiment aggregates qualitative market signals into a single
// directional score.
package sentiment

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/crestview-group/underwriting-cli/internal/model"
)

// typeWeights reflect each category's typical predictive value for deal
// outcomes. Supply is the strongest forward indicator for multifamily;
// uncategorized commentary barely moves the needle.
var typeWeights = map[model.SignalType]float64{
	model.SignalSupplyPipeline: 1.0,
	model.SignalRentGrowth:     0.9,
	model.SignalOccupancy:      0.85,
	model.SignalCapRates:       0.8,
	model.SignalEmployment:     0.7,
	model.SignalDemographics:   0.6,
	model.SignalGeneral:        0.4,
}

var magnitudeWeights = map[model.SignalMagnitude]float64{
	model.MagnitudeStrong:   1.0,
	model.MagnitudeModerate: 0.6,
	model.MagnitudeSlight:   0.3,
}

// Geographic rings.
const (
	geoExact    = 1.0
	geoMetro    = 0.5
	geoNational = 0.15
)

// defaultRecency applies to signals whose source document carries no
// parseable publication date: a moderate weight, never the most- or
// least-recent extreme.
const defaultRecency = 0.5

// Result is the aggregated sentiment for one geography. Score is nil when
// no signals exist at all; an all-neutral set scores 0 with a distinct
// rationale, so "no data" and "no trend" stay distinguishable.
type Result struct {
	Score       *int   `json:"score,omitempty"`
	Rationale   string `json:"rationale"`
	SignalCount int    `json:"signal_count"`
}

// Aggregate scores a signal set for a subject geography as of now. Each
// non-neutral signal votes with its direction scaled by geography, category,
// recency, and magnitude weights; the mean vote scales to [-10, +10].
func Aggregate(signals []model.MarketSentimentSignal, submarket, metro string, now time.Time) Result {
	if len(signals) == 0 {
		return Result{Rationale: "no market signals available"}
	}

	var voteSum float64
	nonNeutral := 0
	byType := make(map[model.SignalType]float64)

	for _, sig := range signals {
		direction := directionValue(sig.Direction)
		if direction == 0 {
			continue
		}
		vote := direction *
			geoWeight(sig, submarket, metro) *
			typeWeights[sig.SignalType] *
			recencyWeight(sig.PublishedAt, now) *
			magnitudeWeights[sig.Magnitude]
		voteSum += vote
		nonNeutral++
		byType[sig.SignalType] += vote
	}

	if nonNeutral == 0 {
		zero := 0
		return Result{
			Score:       &zero,
			Rationale:   "no directional trend across market signals",
			SignalCount: len(signals),
		}
	}

	raw := voteSum / float64(nonNeutral) * 10
	score := int(math.Round(math.Min(10, math.Max(-10, raw))))
	return Result{
		Score:       &score,
		Rationale:   rationale(score, byType),
		SignalCount: len(signals),
	}
}

func directionValue(d model.SignalDirection) float64 {
	switch d {
	case model.DirectionPositive:
		return 1
	case model.DirectionNegative:
		return -1
	default:
		// Neutral and mixed signals carry no direction.
		return 0
	}
}

// geoWeight places the signal in one of three concentric rings around the
// subject.
func geoWeight(sig model.MarketSentimentSignal, submarket, metro string) float64 {
	if submarket != "" && strings.EqualFold(strings.TrimSpace(sig.Submarket), strings.TrimSpace(submarket)) {
		return geoExact
	}
	if metro != "" && strings.EqualFold(strings.TrimSpace(sig.Metro), strings.TrimSpace(metro)) {
		return geoMetro
	}
	return geoNational
}

// recencyWeight is a staircase over document age.
func recencyWeight(publishedAt *time.Time, now time.Time) float64 {
	if publishedAt == nil {
		return defaultRecency
	}
	age := now.Sub(*publishedAt)
	switch {
	case age < 3*30*24*time.Hour:
		return 1.0
	case age < 6*30*24*time.Hour:
		return 0.75
	case age < 12*30*24*time.Hour:
		return 0.5
	default:
		return 0.25
	}
}

// rationale names the signal categories with the largest absolute
// contribution, strongest first.
func rationale(score int, byType map[model.SignalType]float64) string {
	type contribution struct {
		sigType model.SignalType
		vote    float64
	}
	contribs := make([]contribution, 0, len(byType))
	for t, v := range byType {
		contribs = append(contribs, contribution{t, v})
	}
	sort.Slice(contribs, func(i, j int) bool {
		return math.Abs(contribs[i].vote) > math.Abs(contribs[j].vote)
	})
	if len(contribs) > 4 {
		contribs = contribs[:4]
	}

	parts := make([]string, 0, len(contribs))
	for _, c := range contribs {
		direction := "positive"
		if c.vote < 0 {
			direction = "negative"
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", c.sigType, direction))
	}

	tone := "balanced"
	if score > 0 {
		tone = "favorable"
	} else if score < 0 {
		tone = "unfavorable"
	}
	return fmt.Sprintf("%s market sentiment driven by %s", tone, strings.Join(parts, ", "))
}
