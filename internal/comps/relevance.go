// Package comps scores comparable sales against a subject property and
// selects the usable comp set.
package comps

import (
	"strings"

	"github.com/crestview-group/underwriting-cli/internal/model"
)

// neutralScore applies when an axis cannot be evaluated because either side
// lacks the data. Unknown is neutral, never penalized.
const neutralScore = 0.5

// Relevance scores how comparable a sale is to the subject property, in
// [0,1]. The four axis scores multiply rather than average: a comp that
// fails badly on any one dimension is not a usable reference no matter how
// well the others line up.
func Relevance(subject *model.SubjectProperty, comp *model.NormalizedComp) float64 {
	return GeographyScore(subject, comp) *
		PropertyTypeScore(subject.PropertyType, comp.PropertyType) *
		VintageScore(subject, comp) *
		SizeScore(subject.Units, comp.Units)
}

// AxisScores returns the four axis components individually, for rationale
// output and debugging. Their product is Relevance.
func AxisScores(subject *model.SubjectProperty, comp *model.NormalizedComp) (geo, ptype, vintage, size float64) {
	return GeographyScore(subject, comp),
		PropertyTypeScore(subject.PropertyType, comp.PropertyType),
		VintageScore(subject, comp),
		SizeScore(subject.Units, comp.Units)
}

// --- geography ---

// Geography tiers, highest hit wins. The 0.50 floor keeps a same-user comp
// with no geographic signal at all usable rather than zeroing the product.
const (
	geoExactSubmarket   = 1.0
	geoPartialSubmarket = 0.85
	geoSameCounty       = 0.75
	geoSameMetro        = 0.65
	geoFloor            = 0.50
)

// GeographyScore applies tiered geographic matching.
func GeographyScore(subject *model.SubjectProperty, comp *model.NormalizedComp) float64 {
	subSub := normGeo(subject.Submarket)
	compSub := normGeo(comp.Submarket)
	if subSub != "" && compSub != "" {
		if subSub == compSub {
			return geoExactSubmarket
		}
		if strings.Contains(subSub, compSub) || strings.Contains(compSub, subSub) {
			return geoPartialSubmarket
		}
	}

	if subCounty, compCounty := normGeo(subject.County), normGeo(comp.County); subCounty != "" && subCounty == compCounty {
		return geoSameCounty
	}
	if subMetro, compMetro := normGeo(subject.Metro), normGeo(comp.Metro); subMetro != "" && subMetro == compMetro {
		return geoSameMetro
	}
	return geoFloor
}

func normGeo(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}

// --- property type ---

// typeGroup clusters raw property-type strings.
type typeGroup string

const (
	groupGarden   typeGroup = "garden"
	groupMidRise  typeGroup = "mid-rise"
	groupHighRise typeGroup = "high-rise"
	groupWrap     typeGroup = "wrap"
	groupTownhome typeGroup = "townhome"
	groupSenior   typeGroup = "senior"
	groupStudent  typeGroup = "student"
)

// typeGroupTerms is ordered: more specific terms first so "senior garden"
// lands on senior, not garden.
var typeGroupTerms = []struct {
	group typeGroup
	terms []string
}{
	{groupSenior, []string{"senior", "55+", "age restricted", "age-restricted", "assisted"}},
	{groupStudent, []string{"student"}},
	{groupTownhome, []string{"townhome", "townhouse", "row house", "rowhouse"}},
	{groupWrap, []string{"wrap", "podium"}},
	{groupHighRise, []string{"high-rise", "high rise", "highrise", "tower"}},
	{groupMidRise, []string{"mid-rise", "mid rise", "midrise"}},
	{groupGarden, []string{"garden", "low-rise", "low rise", "lowrise", "walk-up", "walkup"}},
}

// typeAdjacency is directional: garden buyers consider wrap and townhome
// product, but a high-rise buyer does not look at garden deals.
var typeAdjacency = map[typeGroup][]typeGroup{
	groupGarden:   {groupWrap, groupTownhome},
	groupWrap:     {groupGarden, groupMidRise},
	groupMidRise:  {groupWrap, groupHighRise},
	groupHighRise: {groupMidRise},
	groupTownhome: {groupGarden},
	groupSenior:   {groupGarden},
	groupStudent:  {groupMidRise},
}

func classifyType(raw string) (typeGroup, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", false
	}
	for _, tg := range typeGroupTerms {
		for _, term := range tg.terms {
			if strings.Contains(s, term) {
				return tg.group, true
			}
		}
	}
	return "", false
}

// PropertyTypeScore compares property types through the group clusters and
// the directional adjacency table.
func PropertyTypeScore(subjectType, compType string) float64 {
	subNorm := strings.ToLower(strings.TrimSpace(subjectType))
	compNorm := strings.ToLower(strings.TrimSpace(compType))
	if subNorm == "" || compNorm == "" {
		return neutralScore
	}
	if subNorm == compNorm {
		return 1.0
	}

	subGroup, subOK := classifyType(subjectType)
	compGroup, compOK := classifyType(compType)
	if !subOK || !compOK {
		return neutralScore
	}
	if subGroup == compGroup {
		return 0.8
	}
	for _, adj := range typeAdjacency[subGroup] {
		if adj == compGroup {
			return 0.5
		}
	}
	return 0.2
}

// --- vintage ---

// vintageBracket buckets a year-built into fixed historical brackets, newest
// first.
func vintageBracket(year int) int {
	switch {
	case year >= 2020:
		return 0 // new
	case year >= 2010:
		return 1 // recent
	case year >= 2000:
		return 2
	case year >= 1990:
		return 3
	case year >= 1980:
		return 4
	default:
		return 5 // pre-1980
	}
}

var bracketDistanceScores = []float64{1.0, 0.7, 0.4}

const farBracketScore = 0.15

// VintageScore compares construction eras by bracket distance. A renovation
// year substitutes for the comp's build year when it lands closer to the
// subject's vintage.
func VintageScore(subject *model.SubjectProperty, comp *model.NormalizedComp) float64 {
	subjectYear := effectiveYear(subject.YearBuilt, subject.YearRenovated, nil)
	if subjectYear == 0 || comp.YearBuilt == nil {
		return neutralScore
	}
	compYear := effectiveYear(comp.YearBuilt, comp.YearRenovated, &subjectYear)

	dist := vintageBracket(subjectYear) - vintageBracket(compYear)
	if dist < 0 {
		dist = -dist
	}
	if dist < len(bracketDistanceScores) {
		return bracketDistanceScores[dist]
	}
	return farBracketScore
}

// effectiveYear picks between build and renovation year. With a target, the
// renovation year wins only when it is closer to the target; without one, the
// later year wins.
func effectiveYear(built, renovated *int, target *int) int {
	if built == nil {
		if renovated != nil {
			return *renovated
		}
		return 0
	}
	if renovated == nil || *renovated == 0 {
		return *built
	}
	if target == nil {
		if *renovated > *built {
			return *renovated
		}
		return *built
	}
	if abs(*renovated-*target) < abs(*built-*target) {
		return *renovated
	}
	return *built
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// --- size ---

// SizeScore tiers the unit-count deviation between comp and subject.
func SizeScore(subjectUnits, compUnits *int) float64 {
	if subjectUnits == nil || compUnits == nil || *subjectUnits <= 0 || *compUnits <= 0 {
		return neutralScore
	}
	dev := float64(*compUnits-*subjectUnits) / float64(*subjectUnits)
	if dev < 0 {
		dev = -dev
	}
	switch {
	case dev <= 0.25:
		return 1.0
	case dev <= 0.50:
		return 0.75
	case dev <= 0.75:
		return 0.5
	default:
		return 0.25
	}
}
