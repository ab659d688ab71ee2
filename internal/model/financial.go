package model

import "time"

// PeriodType identifies the span of a financial statement period.
type PeriodType string

const (
	PeriodT12 PeriodType = "t12"
	PeriodT3  PeriodType = "t3"
	PeriodY1  PeriodType = "y1"
)

// FinancialPeriod holds canonical line items for one statement period.
// LineItems is keyed by taxonomy canonical keys (gsr, noi, total_opex, ...);
// labels that matched no taxonomy key are preserved in Unmapped for diagnosis.
type FinancialPeriod struct {
	ID         string     `json:"id"`
	DocumentID string     `json:"document_id"`
	PeriodType PeriodType `json:"period_type"`
	FiscalYear int        `json:"fiscal_year,omitempty"`

	LineItems map[string]float64 `json:"line_items"`
	Unmapped  []string           `json:"unmapped,omitempty"`

	// Derived metrics. Nil when GSR <= 0 (undefined, not zero).
	EconomicOccupancy *float64 `json:"economic_occupancy,omitempty"`
	OpexRatio         *float64 `json:"opex_ratio,omitempty"`
}

// RentRollUnit is one unit row from a rent roll.
type RentRollUnit struct {
	UnitNumber  string     `json:"unit_number"`
	UnitType    string     `json:"unit_type,omitempty"`
	SquareFeet  *float64   `json:"square_feet,omitempty"`
	MarketRent  *float64   `json:"market_rent,omitempty"`
	InPlaceRent *float64   `json:"in_place_rent,omitempty"`
	Occupied    bool       `json:"occupied"`
	LeaseEnd    *time.Time `json:"lease_end,omitempty"`
}

// RentRollSummary holds metrics derived from a parsed rent roll.
type RentRollSummary struct {
	UnitCount            int      `json:"unit_count"`
	OccupiedCount        int      `json:"occupied_count"`
	PhysicalOccupancyPct float64  `json:"physical_occupancy_pct"`
	AvgMarketRent        *float64 `json:"avg_market_rent,omitempty"`
	AvgInPlaceRent       *float64 `json:"avg_in_place_rent,omitempty"`
	LossToLeasePct       *float64 `json:"loss_to_lease_pct,omitempty"`
}
