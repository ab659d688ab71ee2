package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crestview-group/underwriting-cli/internal/model"
	"github.com/crestview-group/underwriting-cli/internal/tabular"
)

var compMapping = ColumnMapping{
	"Property Name": "property_name",
	"Submarket":     "submarket",
	"Units":         "units",
	"Sale Price":    "sale_price",
	"Cap Rate":      "cap_rate",
	"Occ %":         "occupancy",
	"Sale Date":     "sale_date",
	"Year Built":    "year_built",
	"Broker":        FieldIgnore,
}

func TestCompFromRaw(t *testing.T) {
	rec := tabular.RawRecord{
		"Property Name": "Oakwood Flats",
		"Submarket":     "Buckhead",
		"Units":         "220",
		"Sale Price":    "$54.5M",
		"Cap Rate":      "5.25%",
		"Occ %":         "94",
		"Sale Date":     "2024-11-01",
		"Year Built":    "1987 (reno 2019)",
		"Broker":        "should be dropped",
	}

	comp, warnings := CompFromRaw(rec, compMapping)
	assert.Empty(t, warnings)

	assert.Equal(t, "Oakwood Flats", comp.PropertyName)
	assert.Equal(t, "Buckhead", comp.Submarket)
	require.NotNil(t, comp.Units)
	assert.Equal(t, 220, *comp.Units)
	require.NotNil(t, comp.SalePrice)
	assert.InDelta(t, 54500000, *comp.SalePrice, 0.5)
	require.NotNil(t, comp.CapRate)
	assert.InDelta(t, 0.0525, *comp.CapRate, 1e-9)
	require.NotNil(t, comp.Occupancy)
	assert.InDelta(t, 0.94, *comp.Occupancy, 1e-9)
	require.NotNil(t, comp.YearBuilt)
	assert.Equal(t, 1987, *comp.YearBuilt)
	require.NotNil(t, comp.SaleDate)
	assert.Equal(t, 2024, comp.SaleDate.Year())
}

func TestCompFromRaw_UnparseableWarnsAndStaysNil(t *testing.T) {
	rec := tabular.RawRecord{
		"Property Name": "Bad Data Manor",
		"Sale Price":    "call broker",
		"Cap Rate":      "-",
	}

	comp, warnings := CompFromRaw(rec, compMapping)
	assert.Nil(t, comp.SalePrice)
	assert.Nil(t, comp.CapRate) // sentinel, silent
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "sale_price")
}

func TestCompFromSemantic(t *testing.T) {
	rec := map[string]any{
		"property_name": " Oakwood Flats ",
		"units":         float64(220),
		"sale_price":    float64(54500000),
		"cap_rate":      0.0525,
		"occupancy":     0.94,
		"sale_date":     "2024-11-01",
	}

	comp, warnings := CompFromSemantic(rec)
	assert.Empty(t, warnings)
	assert.Equal(t, "Oakwood Flats", comp.PropertyName)
	require.NotNil(t, comp.Units)
	assert.Equal(t, 220, *comp.Units)
	require.NotNil(t, comp.CapRate)
	assert.InDelta(t, 0.0525, *comp.CapRate, 1e-9)
}

func TestCompFromSemantic_PercentSlippedThrough(t *testing.T) {
	rec := map[string]any{
		"cap_rate": float64(5.25), // service returned a percentage
	}

	comp, warnings := CompFromSemantic(rec)
	require.NotNil(t, comp.CapRate)
	assert.InDelta(t, 0.0525, *comp.CapRate, 1e-9)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "looks like a percentage")
}

var rentRollMapping = ColumnMapping{
	"Unit":        "unit_number",
	"Floorplan":   "unit_type",
	"SF":          "square_feet",
	"Market Rent": "market_rent",
	"Lease Rent":  "in_place_rent",
	"Status":      "status",
	"Tenant":      "tenant",
}

func TestRentRollUnitFromRaw_OccupancyPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		rec      tabular.RawRecord
		occupied bool
	}{
		{"status vacant wins over rent", tabular.RawRecord{"Unit": "101", "Status": "Vacant", "Lease Rent": "1500"}, false},
		{"status model counts vacant", tabular.RawRecord{"Unit": "102", "Status": "MODEL"}, false},
		{"status occupied", tabular.RawRecord{"Unit": "103", "Status": "Current"}, true},
		{"tenant presence", tabular.RawRecord{"Unit": "104", "Tenant": "J. Smith"}, true},
		{"in-place rent presence", tabular.RawRecord{"Unit": "105", "Lease Rent": "1400"}, true},
		{"nothing means vacant", tabular.RawRecord{"Unit": "106", "Market Rent": "1600"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit, warnings := RentRollUnitFromRaw(tt.rec, rentRollMapping)
			assert.Empty(t, warnings)
			assert.Equal(t, tt.occupied, unit.Occupied)
		})
	}
}

func TestSummarizeRentRoll(t *testing.T) {
	units := []model.RentRollUnit{
		{UnitNumber: "101", Occupied: true, MarketRent: f(1600), InPlaceRent: f(1500)},
		{UnitNumber: "102", Occupied: false, MarketRent: f(1500)},
	}

	s := SummarizeRentRoll(units)
	assert.Equal(t, 2, s.UnitCount)
	assert.Equal(t, 1, s.OccupiedCount)
	assert.InDelta(t, 50.0, s.PhysicalOccupancyPct, 0.001)

	// Market rent averages every unit; in-place only occupied ones.
	require.NotNil(t, s.AvgMarketRent)
	assert.InDelta(t, 1550.0, *s.AvgMarketRent, 0.001)
	require.NotNil(t, s.AvgInPlaceRent)
	assert.InDelta(t, 1500.0, *s.AvgInPlaceRent, 0.001)
	require.NotNil(t, s.LossToLeasePct)
	assert.InDelta(t, (1550.0-1500.0)/1550.0*100, *s.LossToLeasePct, 0.001)
}

func TestSummarizeRentRoll_NoOccupiedUnits(t *testing.T) {
	units := []model.RentRollUnit{
		{UnitNumber: "101", MarketRent: f(1500)},
		{UnitNumber: "102", MarketRent: f(1700)},
	}

	s := SummarizeRentRoll(units)
	assert.Equal(t, 0, s.OccupiedCount)
	assert.InDelta(t, 0, s.PhysicalOccupancyPct, 0.001)
	require.NotNil(t, s.AvgMarketRent)
	assert.Nil(t, s.AvgInPlaceRent)
	assert.Nil(t, s.LossToLeasePct)
}

func TestSummarizeRentRoll_Empty(t *testing.T) {
	s := SummarizeRentRoll(nil)
	assert.Equal(t, 0, s.UnitCount)
	assert.Nil(t, s.AvgMarketRent)
	assert.Nil(t, s.LossToLeasePct)
}

func TestDeriveFinancialMetrics(t *testing.T) {
	fp := &model.FinancialPeriod{
		LineItems: map[string]float64{
			"gsr":         1000000,
			"vacancy":     50000,
			"concessions": 20000,
			"bad_debt":    10000,
			"total_opex":  400000,
		},
	}
	DeriveFinancialMetrics(fp)

	require.NotNil(t, fp.EconomicOccupancy)
	assert.InDelta(t, 0.92, *fp.EconomicOccupancy, 1e-9)
	require.NotNil(t, fp.OpexRatio)
	assert.InDelta(t, 0.40, *fp.OpexRatio, 1e-9)
}

func TestDeriveFinancialMetrics_NoGSR(t *testing.T) {
	fp := &model.FinancialPeriod{
		LineItems: map[string]float64{"total_opex": 400000},
	}
	DeriveFinancialMetrics(fp)
	assert.Nil(t, fp.EconomicOccupancy)
	assert.Nil(t, fp.OpexRatio)

	// Zero GSR is undefined, not 100% vacancy.
	fp = &model.FinancialPeriod{LineItems: map[string]float64{"gsr": 0}}
	DeriveFinancialMetrics(fp)
	assert.Nil(t, fp.EconomicOccupancy)
}
