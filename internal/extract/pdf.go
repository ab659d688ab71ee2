package extract

import (
	"fmt"
	"strings"

	"github.com/crestview-group/underwriting-cli/internal/model"
)

// truncationMarker is appended when source text is cut at the length cap.
const truncationMarker = "\n\n[TRUNCATED]"

// TruncateText caps source text for the semantic service, appending a
// marker so the model knows the document continues.
func TruncateText(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	return text[:maxChars] + truncationMarker
}

const omInstructions = `You extract structured data from a multifamily offering memorandum. Return a single JSON object:
{
  "property_name": string, "address": string, "submarket": string, "metro": string, "state": string,
  "property_type": string, "year_built": number, "year_renovated": number, "units": number, "avg_unit_sf": number,
  "asking_price": number, "cap_rate": number (decimal, e.g. 0.055), "occupancy": number (decimal),
  "financials": {"period_type": "t12"|"t3"|"y1", "fiscal_year": number, "line_items": {"gsr": number, "vacancy": number, "concessions": number, "bad_debt": number, "other_income": number, "total_opex": number, "noi": number}}
}
Use null for anything the document does not state. Never guess.`

const bovInstructions = `You extract structured data from a broker opinion of value. These documents present multiple pricing scenarios. Return a single JSON object:
{
  "property_name": string, "address": string, "submarket": string, "metro": string, "state": string,
  "property_type": string, "year_built": number, "units": number,
  "scenarios": [{"label": string, "value": number, "cap_rate": number (decimal), "price_per_unit": number}],
  "financials": {"period_type": "t12"|"t3"|"y1", "fiscal_year": number, "line_items": {"gsr": number, "vacancy": number, "total_opex": number, "noi": number}}
}
Use null for anything the document does not state. Never guess.`

const genericInstructions = `You extract structured data from a commercial real-estate document of unknown type. Return a single JSON object with any of these keys the document supports:
property_name, address, submarket, metro, state, property_type, year_built, units, asking_price, cap_rate (decimal), occupancy (decimal), financials.
Use null for anything the document does not state. Never guess.`

const marketResearchInstructions = `You extract directional market signals from a real-estate market research report. Return a single JSON object:
{
  "published_date": "YYYY-MM-DD" or null,
  "metro": string, "submarket": string,
  "signals": [{
    "direction": "positive"|"negative"|"neutral"|"mixed",
    "magnitude": "strong"|"moderate"|"slight",
    "signal_type": "supply_pipeline"|"rent_growth"|"occupancy"|"cap_rates"|"employment"|"demographics"|"general",
    "submarket": string or null, "metro": string or null,
    "narrative": string
  }]
}
Every signal must be grounded in a specific statement from the report.`

// InstructionsFor selects the extraction instruction set for a PDF subtype.
func InstructionsFor(docType model.DocumentType, subtype model.PDFSubtype) string {
	if docType == model.DocTypeMarketResearch {
		return marketResearchInstructions
	}
	switch subtype {
	case model.PDFSubtypeOM:
		return omInstructions
	case model.PDFSubtypeBOV:
		return bovInstructions
	default:
		return genericInstructions
	}
}

// FinancialPeriodFromSemantic converts the "financials" object of a PDF
// extraction into a FinancialPeriod. Returns nil when absent.
func FinancialPeriodFromSemantic(obj map[string]any) (*model.FinancialPeriod, []string) {
	finRaw, ok := obj["financials"].(map[string]any)
	if !ok {
		return nil, nil
	}

	var warnings []string
	fp := &model.FinancialPeriod{
		PeriodType: model.PeriodT12,
		LineItems:  make(map[string]float64),
	}

	switch pt := stringField(finRaw, "period_type"); pt {
	case "", string(model.PeriodT12):
	case string(model.PeriodT3):
		fp.PeriodType = model.PeriodT3
	case string(model.PeriodY1):
		fp.PeriodType = model.PeriodY1
	default:
		warnings = append(warnings, fmt.Sprintf("unexpected period_type %q, assuming t12", pt))
	}

	if y := intField(finRaw, "fiscal_year", &warnings); y != nil {
		fp.FiscalYear = *y
	}

	items, ok := finRaw["line_items"].(map[string]any)
	if !ok {
		warnings = append(warnings, "financials present but line_items missing or malformed")
		return fp, warnings
	}
	for key, v := range items {
		if v == nil {
			continue
		}
		f := floatField(items, key, &warnings)
		if f != nil {
			fp.LineItems[key] = *f
		}
	}

	DeriveFinancialMetrics(fp)
	return fp, warnings
}

var validDirections = map[string]model.SignalDirection{
	"positive": model.DirectionPositive,
	"negative": model.DirectionNegative,
	"neutral":  model.DirectionNeutral,
	"mixed":    model.DirectionMixed,
}

var validMagnitudes = map[string]model.SignalMagnitude{
	"strong":   model.MagnitudeStrong,
	"moderate": model.MagnitudeModerate,
	"slight":   model.MagnitudeSlight,
}

var validSignalTypes = map[string]model.SignalType{
	"supply_pipeline": model.SignalSupplyPipeline,
	"rent_growth":     model.SignalRentGrowth,
	"occupancy":       model.SignalOccupancy,
	"cap_rates":       model.SignalCapRates,
	"employment":      model.SignalEmployment,
	"demographics":    model.SignalDemographics,
	"general":         model.SignalGeneral,
}

// SignalsFromSemantic converts a market-research extraction into sentiment
// signals. Signals violating the direction/magnitude invariants are dropped
// with a warning; geography and publication date fall back to the
// document-level values when a signal omits its own.
func SignalsFromSemantic(obj map[string]any) ([]model.MarketSentimentSignal, []string) {
	var warnings []string

	docMetro := stringField(obj, "metro")
	docSubmarket := stringField(obj, "submarket")
	publishedAt := dateField(obj, "published_date", &warnings)

	rawSignals, ok := obj["signals"].([]any)
	if !ok {
		return nil, append(warnings, "market research extraction missing signals array")
	}

	var signals []model.MarketSentimentSignal
	for i, rs := range rawSignals {
		m, ok := rs.(map[string]any)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("signal %d is not an object", i))
			continue
		}

		direction, ok := validDirections[strings.ToLower(stringField(m, "direction"))]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("signal %d has invalid direction %q", i, stringField(m, "direction")))
			continue
		}
		magnitude, ok := validMagnitudes[strings.ToLower(stringField(m, "magnitude"))]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("signal %d has invalid magnitude %q", i, stringField(m, "magnitude")))
			continue
		}
		sigType, ok := validSignalTypes[strings.ToLower(stringField(m, "signal_type"))]
		if !ok {
			sigType = model.SignalGeneral
		}

		sig := model.MarketSentimentSignal{
			Direction:   direction,
			Magnitude:   magnitude,
			SignalType:  sigType,
			Submarket:   stringField(m, "submarket"),
			Metro:       stringField(m, "metro"),
			PublishedAt: publishedAt,
			Narrative:   stringField(m, "narrative"),
		}
		if sig.Submarket == "" {
			sig.Submarket = docSubmarket
		}
		if sig.Metro == "" {
			sig.Metro = docMetro
		}
		signals = append(signals, sig)
	}
	return signals, warnings
}
