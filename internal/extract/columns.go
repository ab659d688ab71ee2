package extract

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/crestview-group/underwriting-cli/internal/model"
)

// FieldIgnore is the mapping sentinel for columns that carry no target data.
const FieldIgnore = ""

// ColumnMapping maps an original header string to a canonical field name, or
// FieldIgnore. Produced once per document, not per row.
type ColumnMapping map[string]string

// fieldVocab pairs one canonical field with the header substrings that
// identify it. Order matters: earlier fields win ties.
type fieldVocab struct {
	field string
	terms []string
}

// Comp-tracker canonical fields.
var compHeaderVocab = []fieldVocab{
	{"property_name", []string{"property name", "property", "project", "asset name"}},
	{"address", []string{"address", "street"}},
	{"submarket", []string{"submarket"}},
	{"county", []string{"county"}},
	{"metro", []string{"metro", "msa", "market"}},
	{"state", []string{"state"}},
	{"property_type", []string{"property type", "asset type", "style", "type"}},
	{"year_built", []string{"year built", "yr built", "vintage", "built"}},
	{"year_renovated", []string{"year renovated", "yr renovated", "renovated", "reno"}},
	{"units", []string{"unit count", "# units", "no. units", "units"}},
	{"avg_unit_sf", []string{"avg unit sf", "average unit sf", "unit size", "sf/unit", "avg sf"}},
	{"price_per_unit", []string{"price per unit", "price/unit", "price / unit", "$/unit", "ppu"}},
	{"price_per_sf", []string{"price per sf", "price/sf", "price / sf", "$/sf", "psf"}},
	{"sale_price", []string{"sale price", "sales price", "purchase price", "total price", "price"}},
	{"cap_rate_qualifier", []string{"cap rate type", "cap rate basis", "cap qualifier"}},
	{"cap_rate", []string{"cap rate", "going-in cap", "going in cap", "cap"}},
	{"occupancy", []string{"occupancy", "% occupied", "occupied %", "occ", "leased"}},
	{"sale_date", []string{"sale date", "date sold", "closing date", "close date", "date of sale"}},
	{"buyer", []string{"buyer", "purchaser"}},
	{"seller", []string{"seller"}},
	{"notes", []string{"notes", "comments", "remarks"}},
}

// Rent-roll canonical fields.
var rentRollHeaderVocab = []fieldVocab{
	{"unit_number", []string{"unit #", "unit no", "unit number", "apt", "unit"}},
	{"unit_type", []string{"unit type", "floorplan", "floor plan", "plan", "type"}},
	{"square_feet", []string{"square feet", "square ft", "sq ft", "sqft", "unit sf", "size", "sf"}},
	{"market_rent", []string{"market rent", "asking rent", "scheduled rent", "market"}},
	{"in_place_rent", []string{"in-place rent", "in place rent", "lease rent", "actual rent", "current rent", "rent"}},
	{"tenant", []string{"tenant", "resident"}},
	{"status", []string{"occupancy status", "status", "occupied", "vacant"}},
	{"lease_end", []string{"lease end", "lease expiration", "lease exp", "expiration"}},
}

// Pipeline-tracker canonical fields.
var pipelineHeaderVocab = []fieldVocab{
	{"name", []string{"project name", "property name", "project", "name", "development"}},
	{"submarket", []string{"submarket"}},
	{"metro", []string{"metro", "msa", "market"}},
	{"units", []string{"unit count", "# units", "units planned", "units"}},
	{"developer", []string{"developer", "sponsor", "builder"}},
	{"stage", []string{"stage", "phase", "status"}},
	{"expected_delivery", []string{"expected delivery", "delivery date", "est completion", "completion", "delivery"}},
	{"notes", []string{"notes", "comments", "remarks"}},
}

func vocabForType(docType model.DocumentType) ([]fieldVocab, error) {
	switch docType {
	case model.DocTypeSalesCompTracker:
		return compHeaderVocab, nil
	case model.DocTypeRentRoll:
		return rentRollHeaderVocab, nil
	case model.DocTypePipelineTracker:
		return pipelineHeaderVocab, nil
	default:
		return nil, eris.Errorf("extract: no column vocabulary for document type %q", docType)
	}
}

// KnownFields returns the set of canonical field names for a document type.
func KnownFields(docType model.DocumentType) map[string]bool {
	vocab, err := vocabForType(docType)
	if err != nil {
		return nil
	}
	fields := make(map[string]bool, len(vocab))
	for _, fv := range vocab {
		fields[fv.field] = true
	}
	return fields
}

// FallbackColumnMapping maps headers to canonical fields deterministically
// by longest-substring match against the type's header vocabulary. The same
// two-tier design as the line-item taxonomy matcher, applied to column
// headers instead of row labels. Headers matching nothing map to FieldIgnore.
func FallbackColumnMapping(headers []string, docType model.DocumentType) (ColumnMapping, error) {
	vocab, err := vocabForType(docType)
	if err != nil {
		return nil, err
	}

	mapping := make(ColumnMapping, len(headers))
	claimed := make(map[string]bool)
	for _, header := range headers {
		if header == "" {
			continue
		}
		field := matchHeader(header, vocab, claimed)
		mapping[header] = field
		if field != FieldIgnore {
			claimed[field] = true
		}
	}
	return mapping, nil
}

// matchHeader finds the canonical field whose longest vocabulary term is a
// substring of the normalized header. An exact term match outranks any
// substring hit; already-claimed fields are skipped so "Market Rent" and
// "Rent" land on different fields.
func matchHeader(header string, vocab []fieldVocab, claimed map[string]bool) string {
	h := normalizeHeader(header)
	best := FieldIgnore
	bestLen := 0
	for _, fv := range vocab {
		if claimed[fv.field] {
			continue
		}
		for _, term := range fv.terms {
			if h == term {
				return fv.field
			}
			if strings.Contains(h, term) && len(term) > bestLen {
				best = fv.field
				bestLen = len(term)
			}
		}
	}
	return best
}

func normalizeHeader(h string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(h))), " ")
}
