package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crestview-group/underwriting-cli/internal/model"
)

func TestInstructionsFor(t *testing.T) {
	// Market research outranks any marketing subtype.
	assert.Equal(t, marketResearchInstructions, InstructionsFor(model.DocTypeMarketResearch, model.PDFSubtypeOM))
	assert.Equal(t, omInstructions, InstructionsFor(model.DocTypeMarketingPDF, model.PDFSubtypeOM))
	assert.Equal(t, bovInstructions, InstructionsFor(model.DocTypeMarketingPDF, model.PDFSubtypeBOV))
	assert.Equal(t, genericInstructions, InstructionsFor(model.DocTypeUnknown, model.PDFSubtypeUnspecified))
}

func TestTruncateText(t *testing.T) {
	long := strings.Repeat("x", 100)
	got := TruncateText(long, 50)
	assert.Len(t, got, 50+len(truncationMarker))
	assert.True(t, strings.HasSuffix(got, "[TRUNCATED]"))

	assert.Equal(t, long, TruncateText(long, 0))
	assert.Equal(t, long, TruncateText(long, 200))
}

func TestFinancialPeriodFromSemantic(t *testing.T) {
	obj := map[string]any{
		"financials": map[string]any{
			"period_type": "t12",
			"fiscal_year": float64(2024),
			"line_items": map[string]any{
				"gsr":        float64(1000000),
				"vacancy":    float64(50000),
				"total_opex": float64(400000),
				"noi":        nil,
			},
		},
	}

	fp, warnings := FinancialPeriodFromSemantic(obj)
	require.NotNil(t, fp)
	assert.Empty(t, warnings)
	assert.Equal(t, model.PeriodT12, fp.PeriodType)
	assert.Equal(t, 2024, fp.FiscalYear)
	assert.InDelta(t, 1000000, fp.LineItems["gsr"], 0.001)
	_, hasNOI := fp.LineItems["noi"]
	assert.False(t, hasNOI, "null line items stay absent")

	require.NotNil(t, fp.EconomicOccupancy)
	assert.InDelta(t, 0.95, *fp.EconomicOccupancy, 1e-9)
}

func TestFinancialPeriodFromSemantic_Absent(t *testing.T) {
	fp, warnings := FinancialPeriodFromSemantic(map[string]any{"property_name": "Oakwood"})
	assert.Nil(t, fp)
	assert.Empty(t, warnings)
}

func TestFinancialPeriodFromSemantic_UnknownPeriodType(t *testing.T) {
	obj := map[string]any{
		"financials": map[string]any{
			"period_type": "trailing-9",
			"line_items":  map[string]any{"gsr": float64(100)},
		},
	}

	fp, warnings := FinancialPeriodFromSemantic(obj)
	require.NotNil(t, fp)
	assert.Equal(t, model.PeriodT12, fp.PeriodType)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "trailing-9")
}

func TestSignalsFromSemantic(t *testing.T) {
	obj := map[string]any{
		"published_date": "2026-03-01",
		"metro":          "Atlanta",
		"submarket":      "Buckhead",
		"signals": []any{
			map[string]any{
				"direction":   "positive",
				"magnitude":   "strong",
				"signal_type": "rent_growth",
				"narrative":   "effective rents up 4% year over year",
			},
			map[string]any{
				"direction":   "negative",
				"magnitude":   "moderate",
				"signal_type": "supply_pipeline",
				"submarket":   "Midtown",
				"narrative":   "8,000 units under construction",
			},
		},
	}

	signals, warnings := SignalsFromSemantic(obj)
	assert.Empty(t, warnings)
	require.Len(t, signals, 2)

	// Document-level geography and date fill signal gaps.
	assert.Equal(t, "Buckhead", signals[0].Submarket)
	assert.Equal(t, "Atlanta", signals[0].Metro)
	require.NotNil(t, signals[0].PublishedAt)
	assert.Equal(t, 2026, signals[0].PublishedAt.Year())

	// A signal's own submarket wins over the document's.
	assert.Equal(t, "Midtown", signals[1].Submarket)
	assert.Equal(t, model.SignalSupplyPipeline, signals[1].SignalType)
}

func TestSignalsFromSemantic_InvalidSignalsDropped(t *testing.T) {
	obj := map[string]any{
		"signals": []any{
			map[string]any{"direction": "bullish", "magnitude": "strong", "signal_type": "rent_growth"},
			map[string]any{"direction": "positive", "magnitude": "overwhelming", "signal_type": "rent_growth"},
			map[string]any{"direction": "positive", "magnitude": "strong", "signal_type": "vibes"},
		},
	}

	signals, warnings := SignalsFromSemantic(obj)
	// Bad direction and bad magnitude drop the signal; an unknown type only
	// downgrades to general.
	require.Len(t, signals, 1)
	assert.Equal(t, model.SignalGeneral, signals[0].SignalType)
	assert.Len(t, warnings, 2)
}

func TestSignalsFromSemantic_MissingArray(t *testing.T) {
	signals, warnings := SignalsFromSemantic(map[string]any{"metro": "Atlanta"})
	assert.Nil(t, signals)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "missing signals array")
}
