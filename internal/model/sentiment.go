package model

import "time"

// SignalDirection is the directional read of a market observation.
type SignalDirection string

const (
	DirectionPositive SignalDirection = "positive"
	DirectionNegative SignalDirection = "negative"
	DirectionNeutral  SignalDirection = "neutral"
	DirectionMixed    SignalDirection = "mixed"
)

// SignalMagnitude grades how strong the observation is.
type SignalMagnitude string

const (
	MagnitudeStrong   SignalMagnitude = "strong"
	MagnitudeModerate SignalMagnitude = "moderate"
	MagnitudeSlight   SignalMagnitude = "slight"
)

// SignalType categorizes what the observation is about. The sentiment
// aggregator weights categories by their typical predictive value.
type SignalType string

const (
	SignalSupplyPipeline SignalType = "supply_pipeline"
	SignalRentGrowth     SignalType = "rent_growth"
	SignalOccupancy      SignalType = "occupancy"
	SignalCapRates       SignalType = "cap_rates"
	SignalEmployment     SignalType = "employment"
	SignalDemographics   SignalType = "demographics"
	SignalGeneral        SignalType = "general"
)

// MarketSentimentSignal is a directional, typed, geographically scoped
// qualitative observation extracted from a market-research document.
// Immutable after creation; cascade-deletes with its source document.
type MarketSentimentSignal struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	UserID     string `json:"user_id"`
	OrgID      string `json:"org_id,omitempty"`

	Direction  SignalDirection `json:"direction"`
	Magnitude  SignalMagnitude `json:"magnitude"`
	SignalType SignalType      `json:"signal_type"`
	Submarket  string          `json:"submarket,omitempty"`
	Metro      string          `json:"metro,omitempty"`
	// PublishedAt is the source document's publication date; nil when the
	// date could not be parsed.
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Narrative   string     `json:"narrative,omitempty"`
}
