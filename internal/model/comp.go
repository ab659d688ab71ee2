package model

import "time"

// NormalizedComp is a persisted comparable-sale record derived from a raw
// tabular row plus column mapping, normalization, and cross-field repair.
// Cap rate and occupancy are always stored as decimals (0.055, 0.95).
type NormalizedComp struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	UserID     string `json:"user_id"`
	OrgID      string `json:"org_id,omitempty"`

	// Geography
	PropertyName string `json:"property_name"`
	Address      string `json:"address,omitempty"`
	Submarket    string `json:"submarket,omitempty"`
	County       string `json:"county,omitempty"`
	Metro        string `json:"metro,omitempty"`
	State        string `json:"state,omitempty"`

	// Property descriptors
	PropertyType  string   `json:"property_type,omitempty"`
	YearBuilt     *int     `json:"year_built,omitempty"`
	YearRenovated *int     `json:"year_renovated,omitempty"`
	Units         *int     `json:"units,omitempty"`
	AvgUnitSF     *float64 `json:"avg_unit_sf,omitempty"`

	// Transaction financials
	SalePrice        *float64   `json:"sale_price,omitempty"`
	PricePerUnit     *float64   `json:"price_per_unit,omitempty"`
	PricePerSF       *float64   `json:"price_per_sf,omitempty"`
	CapRate          *float64   `json:"cap_rate,omitempty"`
	CapRateQualifier string     `json:"cap_rate_qualifier,omitempty"`
	Occupancy        *float64   `json:"occupancy,omitempty"`
	SaleDate         *time.Time `json:"sale_date,omitempty"`

	// Parties
	Buyer  string `json:"buyer,omitempty"`
	Seller string `json:"seller,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

// NormalizedPipelineProject is a persisted development-pipeline record.
type NormalizedPipelineProject struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	UserID     string `json:"user_id"`

	Name             string     `json:"name"`
	Submarket        string     `json:"submarket,omitempty"`
	Metro            string     `json:"metro,omitempty"`
	Units            *int       `json:"units,omitempty"`
	Developer        string     `json:"developer,omitempty"`
	Stage            string     `json:"stage,omitempty"`
	ExpectedDelivery *time.Time `json:"expected_delivery,omitempty"`
	Notes            string     `json:"notes,omitempty"`
}

// SubjectProperty is the read-only projection of a property that the
// relevance engine and metric scorer consume. Not separately persisted.
type SubjectProperty struct {
	UserID        string   `json:"user_id"`
	PropertyType  string   `json:"property_type,omitempty"`
	YearBuilt     *int     `json:"year_built,omitempty"`
	YearRenovated *int     `json:"year_renovated,omitempty"`
	Units         *int     `json:"units,omitempty"`
	Submarket     string   `json:"submarket,omitempty"`
	County        string   `json:"county,omitempty"`
	Metro         string   `json:"metro,omitempty"`
	CapRate       *float64 `json:"cap_rate,omitempty"`
	PricePerUnit  *float64 `json:"price_per_unit,omitempty"`
}

// ScoredComp pairs a comp with its relevance to a subject property.
// Ephemeral: produced fresh per scoring request, never persisted.
type ScoredComp struct {
	Comp      NormalizedComp `json:"comp"`
	Relevance float64        `json:"relevance"`
}
