package extract

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/crestview-group/underwriting-cli/internal/model"
	"github.com/crestview-group/underwriting-cli/internal/tabular"
)

// applyMapping projects a raw record onto canonical field names, dropping
// ignored columns.
func applyMapping(rec tabular.RawRecord, mapping ColumnMapping) map[string]string {
	out := make(map[string]string, len(rec))
	for header, val := range rec {
		field, ok := mapping[header]
		if !ok || field == FieldIgnore {
			continue
		}
		out[field] = val
	}
	return out
}

// CompFromRaw converts one raw comp-tracker row into a NormalizedComp using
// the deterministic normalizer. Unparseable cells leave the field nil and
// produce a warning; sentinels normalize to nil silently.
func CompFromRaw(rec tabular.RawRecord, mapping ColumnMapping) (model.NormalizedComp, []string) {
	fields := applyMapping(rec, mapping)
	var warnings []string
	warn := func(field, raw string, err error) {
		warnings = append(warnings, fmt.Sprintf("unparseable %s %q: %v", field, raw, err))
	}

	comp := model.NormalizedComp{
		PropertyName:     fields["property_name"],
		Address:          fields["address"],
		Submarket:        fields["submarket"],
		County:           fields["county"],
		Metro:            fields["metro"],
		State:            fields["state"],
		PropertyType:     fields["property_type"],
		CapRateQualifier: fields["cap_rate_qualifier"],
		Buyer:            fields["buyer"],
		Seller:           fields["seller"],
		Notes:            fields["notes"],
	}

	comp.YearBuilt = ParseYear(fields["year_built"])
	comp.YearRenovated = ParseYear(fields["year_renovated"])

	var err error
	if comp.Units, err = ParseCount(fields["units"]); err != nil {
		warn("units", fields["units"], err)
	}
	if comp.AvgUnitSF, err = ParseFloat(fields["avg_unit_sf"]); err != nil {
		warn("avg_unit_sf", fields["avg_unit_sf"], err)
	}
	if comp.SalePrice, err = ParseMoney(fields["sale_price"]); err != nil {
		warn("sale_price", fields["sale_price"], err)
	}
	if comp.PricePerUnit, err = ParseMoney(fields["price_per_unit"]); err != nil {
		warn("price_per_unit", fields["price_per_unit"], err)
	}
	if comp.PricePerSF, err = ParseMoney(fields["price_per_sf"]); err != nil {
		warn("price_per_sf", fields["price_per_sf"], err)
	}
	if comp.CapRate, err = ParseCapRate(fields["cap_rate"]); err != nil {
		warn("cap_rate", fields["cap_rate"], err)
	}
	if comp.Occupancy, err = ParseOccupancy(fields["occupancy"]); err != nil {
		warn("occupancy", fields["occupancy"], err)
	}
	if comp.SaleDate, err = ParseDate(fields["sale_date"]); err != nil {
		warn("sale_date", fields["sale_date"], err)
	}

	return comp, warnings
}

// CompFromSemantic converts one semantic-service record into a
// NormalizedComp. Values arrive typed; shape violations warn rather than
// silently passing through.
func CompFromSemantic(rec map[string]any) (model.NormalizedComp, []string) {
	var warnings []string
	comp := model.NormalizedComp{
		PropertyName:     stringField(rec, "property_name"),
		Address:          stringField(rec, "address"),
		Submarket:        stringField(rec, "submarket"),
		County:           stringField(rec, "county"),
		Metro:            stringField(rec, "metro"),
		State:            stringField(rec, "state"),
		PropertyType:     stringField(rec, "property_type"),
		CapRateQualifier: stringField(rec, "cap_rate_qualifier"),
		Buyer:            stringField(rec, "buyer"),
		Seller:           stringField(rec, "seller"),
		Notes:            stringField(rec, "notes"),
	}

	comp.YearBuilt = intField(rec, "year_built", &warnings)
	comp.YearRenovated = intField(rec, "year_renovated", &warnings)
	comp.Units = intField(rec, "units", &warnings)
	comp.AvgUnitSF = floatField(rec, "avg_unit_sf", &warnings)
	comp.SalePrice = floatField(rec, "sale_price", &warnings)
	comp.PricePerUnit = floatField(rec, "price_per_unit", &warnings)
	comp.PricePerSF = floatField(rec, "price_per_sf", &warnings)
	comp.CapRate = rateField(rec, "cap_rate", capRateDecimalCutoff, &warnings)
	comp.Occupancy = rateField(rec, "occupancy", occupancyDecimalCutoff, &warnings)
	comp.SaleDate = dateField(rec, "sale_date", &warnings)

	return comp, warnings
}

// PipelineFromRaw converts one raw pipeline-tracker row.
func PipelineFromRaw(rec tabular.RawRecord, mapping ColumnMapping) (model.NormalizedPipelineProject, []string) {
	fields := applyMapping(rec, mapping)
	var warnings []string

	proj := model.NormalizedPipelineProject{
		Name:      fields["name"],
		Submarket: fields["submarket"],
		Metro:     fields["metro"],
		Developer: fields["developer"],
		Stage:     fields["stage"],
		Notes:     fields["notes"],
	}

	var err error
	if proj.Units, err = ParseCount(fields["units"]); err != nil {
		warnings = append(warnings, fmt.Sprintf("unparseable units %q: %v", fields["units"], err))
	}
	if proj.ExpectedDelivery, err = ParseDate(fields["expected_delivery"]); err != nil {
		warnings = append(warnings, fmt.Sprintf("unparseable expected_delivery %q: %v", fields["expected_delivery"], err))
	}

	return proj, warnings
}

// PipelineFromSemantic converts one semantic-service pipeline record.
func PipelineFromSemantic(rec map[string]any) (model.NormalizedPipelineProject, []string) {
	var warnings []string
	proj := model.NormalizedPipelineProject{
		Name:      stringField(rec, "name"),
		Submarket: stringField(rec, "submarket"),
		Metro:     stringField(rec, "metro"),
		Developer: stringField(rec, "developer"),
		Stage:     stringField(rec, "stage"),
		Notes:     stringField(rec, "notes"),
	}
	proj.Units = intField(rec, "units", &warnings)
	proj.ExpectedDelivery = dateField(rec, "expected_delivery", &warnings)
	return proj, warnings
}

var vacantStatuses = []string{"vacant", "vac", "v", "down", "model"}

// RentRollUnitFromRaw converts one raw rent-roll row. Occupancy comes from
// the status column when present, else from tenant/in-place-rent presence.
func RentRollUnitFromRaw(rec tabular.RawRecord, mapping ColumnMapping) (model.RentRollUnit, []string) {
	fields := applyMapping(rec, mapping)
	var warnings []string
	warn := func(field, raw string, err error) {
		warnings = append(warnings, fmt.Sprintf("unparseable %s %q: %v", field, raw, err))
	}

	unit := model.RentRollUnit{
		UnitNumber: fields["unit_number"],
		UnitType:   fields["unit_type"],
	}

	var err error
	if unit.SquareFeet, err = ParseFloat(fields["square_feet"]); err != nil {
		warn("square_feet", fields["square_feet"], err)
	}
	if unit.MarketRent, err = ParseMoney(fields["market_rent"]); err != nil {
		warn("market_rent", fields["market_rent"], err)
	}
	if unit.InPlaceRent, err = ParseMoney(fields["in_place_rent"]); err != nil {
		warn("in_place_rent", fields["in_place_rent"], err)
	}
	if unit.LeaseEnd, err = ParseDate(fields["lease_end"]); err != nil {
		warn("lease_end", fields["lease_end"], err)
	}

	unit.Occupied = occupiedFromFields(fields, unit.InPlaceRent)
	return unit, warnings
}

func occupiedFromFields(fields map[string]string, inPlaceRent *float64) bool {
	if status, ok := fields["status"]; ok && status != "" {
		s := strings.ToLower(strings.TrimSpace(status))
		for _, v := range vacantStatuses {
			if s == v {
				return false
			}
		}
		return true
	}
	if tenant, ok := fields["tenant"]; ok && strings.TrimSpace(tenant) != "" {
		return true
	}
	return inPlaceRent != nil && *inPlaceRent > 0
}

// --- semantic value accessors ---

func stringField(rec map[string]any, key string) string {
	if v, ok := rec[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func floatField(rec map[string]any, key string, warnings *[]string) *float64 {
	v, ok := rec[key]
	if !ok || v == nil {
		return nil
	}
	switch n := v.(type) {
	case float64:
		return &n
	case string:
		if IsSentinel(n) {
			return nil
		}
		if f, err := strconv.ParseFloat(strings.ReplaceAll(n, ",", ""), 64); err == nil {
			return &f
		}
	}
	*warnings = append(*warnings, fmt.Sprintf("unexpected %s value %v", key, v))
	return nil
}

func intField(rec map[string]any, key string, warnings *[]string) *int {
	f := floatField(rec, key, warnings)
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}

// rateField guards the decimal invariant on the semantic path too: the
// service is told to return decimals, but a percentage slipping through is
// exactly the double-conversion bug class, so magnitudes over the cutoff
// get converted (once) with a warning.
func rateField(rec map[string]any, key string, cutoff float64, warnings *[]string) *float64 {
	f := floatField(rec, key, warnings)
	if f == nil {
		return nil
	}
	if *f >= cutoff {
		*warnings = append(*warnings, fmt.Sprintf("%s %v looks like a percentage, converted to decimal", key, *f))
		v := *f / 100
		return &v
	}
	return f
}

func dateField(rec map[string]any, key string, warnings *[]string) *time.Time {
	s := stringField(rec, key)
	if s == "" || IsSentinel(s) {
		return nil
	}
	t, err := ParseDate(s)
	if err != nil {
		*warnings = append(*warnings, fmt.Sprintf("unexpected %s value %q", key, s))
		return nil
	}
	return t
}
