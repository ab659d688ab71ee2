package comps

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crestview-group/underwriting-cli/internal/model"
)

func f(v float64) *float64 { return &v }
func i(v int) *int         { return &v }

func TestRelevance_IsProductOfAxes(t *testing.T) {
	subject := &model.SubjectProperty{
		Submarket:    "Buckhead",
		Metro:        "Atlanta",
		PropertyType: "Garden",
		YearBuilt:    i(2015),
		Units:        i(200),
	}
	comp := &model.NormalizedComp{
		Submarket:    "Midtown",
		Metro:        "Atlanta",
		PropertyType: "Mid-Rise",
		YearBuilt:    i(1998),
		Units:        i(450),
	}

	geo, ptype, vintage, size := AxisScores(subject, comp)
	rel := Relevance(subject, comp)
	assert.InDelta(t, geo*ptype*vintage*size, rel, 1e-9)
	assert.GreaterOrEqual(t, rel, 0.0)
	assert.LessOrEqual(t, rel, 1.0)
}

func TestGeographyScore_Tiers(t *testing.T) {
	tests := []struct {
		name    string
		subject model.SubjectProperty
		comp    model.NormalizedComp
		want    float64
	}{
		{
			"exact submarket",
			model.SubjectProperty{Submarket: "Buckhead"},
			model.NormalizedComp{Submarket: "buckhead"},
			1.0,
		},
		{
			"partial submarket containment",
			model.SubjectProperty{Submarket: "North Buckhead"},
			model.NormalizedComp{Submarket: "Buckhead"},
			0.85,
		},
		{
			"same county",
			model.SubjectProperty{Submarket: "Buckhead", County: "Fulton"},
			model.NormalizedComp{Submarket: "Decatur", County: "Fulton"},
			0.75,
		},
		{
			"same metro only",
			model.SubjectProperty{Submarket: "Buckhead", County: "Fulton", Metro: "Atlanta"},
			model.NormalizedComp{Submarket: "Marietta", County: "Cobb", Metro: "Atlanta"},
			0.65,
		},
		{
			"no geographic overlap",
			model.SubjectProperty{Submarket: "Buckhead", Metro: "Atlanta"},
			model.NormalizedComp{Submarket: "Plano", Metro: "Dallas"},
			0.50,
		},
		{
			"no data at all",
			model.SubjectProperty{},
			model.NormalizedComp{},
			0.50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, GeographyScore(&tt.subject, &tt.comp), 1e-9)
		})
	}
}

func TestPropertyTypeScore(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		comp    string
		want    float64
	}{
		{"identical strings", "Garden", "garden", 1.0},
		{"same group different strings", "Garden", "Low-Rise Walk-Up", 0.8},
		{"adjacent garden to wrap", "Garden", "Wrap", 0.5},
		{"adjacent mid-rise to high-rise", "Mid-Rise", "High-Rise Tower", 0.5},
		{"non-adjacent high-rise to garden", "High-Rise", "Garden", 0.2},
		{"unknown comp type", "Garden", "Mixed Portfolio", 0.5},
		{"missing subject type", "", "Garden", 0.5},
		{"senior lands on senior not garden", "Senior Garden", "Age-Restricted", 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PropertyTypeScore(tt.subject, tt.comp), 1e-9)
		})
	}
}

func TestPropertyTypeScore_AdjacencyIsDirectional(t *testing.T) {
	// Garden buyers look at townhome product; townhome buyers look back at
	// garden. But high-rise does not reach garden in either one hop.
	assert.InDelta(t, 0.5, PropertyTypeScore("Garden", "Townhome"), 1e-9)
	assert.InDelta(t, 0.5, PropertyTypeScore("Townhome", "Garden"), 1e-9)
	assert.InDelta(t, 0.2, PropertyTypeScore("High-Rise", "Garden"), 1e-9)
	assert.InDelta(t, 0.2, PropertyTypeScore("Garden", "High-Rise"), 1e-9)
}

func TestVintageScore(t *testing.T) {
	tests := []struct {
		name    string
		subject model.SubjectProperty
		comp    model.NormalizedComp
		want    float64
	}{
		{
			"same bracket",
			model.SubjectProperty{YearBuilt: i(2021)},
			model.NormalizedComp{YearBuilt: i(2023)},
			1.0,
		},
		{
			"one bracket apart",
			model.SubjectProperty{YearBuilt: i(2021)},
			model.NormalizedComp{YearBuilt: i(2015)},
			0.7,
		},
		{
			"two brackets apart",
			model.SubjectProperty{YearBuilt: i(2021)},
			model.NormalizedComp{YearBuilt: i(2005)},
			0.4,
		},
		{
			"far apart",
			model.SubjectProperty{YearBuilt: i(2021)},
			model.NormalizedComp{YearBuilt: i(1975)},
			0.15,
		},
		{
			"renovation pulls comp into subject bracket",
			model.SubjectProperty{YearBuilt: i(2021)},
			model.NormalizedComp{YearBuilt: i(1985), YearRenovated: i(2021)},
			1.0,
		},
		{
			"renovation ignored when build year is closer",
			model.SubjectProperty{YearBuilt: i(1985)},
			model.NormalizedComp{YearBuilt: i(1984), YearRenovated: i(2020)},
			1.0,
		},
		{
			"missing subject year is neutral",
			model.SubjectProperty{},
			model.NormalizedComp{YearBuilt: i(2015)},
			0.5,
		},
		{
			"missing comp year is neutral",
			model.SubjectProperty{YearBuilt: i(2015)},
			model.NormalizedComp{},
			0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, VintageScore(&tt.subject, &tt.comp), 1e-9)
		})
	}
}

func TestSizeScore(t *testing.T) {
	tests := []struct {
		name    string
		subject *int
		comp    *int
		want    float64
	}{
		{"within 25 percent", i(200), i(240), 1.0},
		{"within 50 percent", i(200), i(290), 0.75},
		{"within 75 percent", i(200), i(340), 0.5},
		{"beyond 75 percent", i(200), i(500), 0.25},
		{"smaller comp within 25 percent", i(200), i(160), 1.0},
		{"missing comp units", i(200), nil, 0.5},
		{"zero subject units", i(0), i(100), 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SizeScore(tt.subject, tt.comp), 1e-9)
		})
	}
}
