package main

import (
	"github.com/spf13/cobra"

	"github.com/crestview-group/underwriting-cli/internal/model"
)

// subjectFlags holds the flag values describing the subject property for the
// comps and score commands.
type subjectFlags struct {
	user         string
	propertyType string
	submarket    string
	county       string
	metro        string
	yearBuilt    int
	yearRenov    int
	units        int
	capRate      float64
	pricePerUnit float64
}

// register binds the subject flags onto a command.
func (sf *subjectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&sf.user, "user", "", "owning user ID (required)")
	cmd.Flags().StringVar(&sf.propertyType, "property-type", "", "subject property type (e.g. garden, mid-rise)")
	cmd.Flags().StringVar(&sf.submarket, "submarket", "", "subject submarket")
	cmd.Flags().StringVar(&sf.county, "county", "", "subject county")
	cmd.Flags().StringVar(&sf.metro, "metro", "", "subject metro")
	cmd.Flags().IntVar(&sf.yearBuilt, "year-built", 0, "subject year built")
	cmd.Flags().IntVar(&sf.yearRenov, "year-renovated", 0, "subject year renovated")
	cmd.Flags().IntVar(&sf.units, "units", 0, "subject unit count")
	cmd.Flags().Float64Var(&sf.capRate, "cap-rate", 0, "subject going-in cap rate (decimal, e.g. 0.055)")
	cmd.Flags().Float64Var(&sf.pricePerUnit, "price-per-unit", 0, "subject price per unit")
	_ = cmd.MarkFlagRequired("user")
}

// subject builds the SubjectProperty from whichever flags were set.
func (sf *subjectFlags) subject() *model.SubjectProperty {
	s := &model.SubjectProperty{
		UserID:       sf.user,
		PropertyType: sf.propertyType,
		Submarket:    sf.submarket,
		County:       sf.county,
		Metro:        sf.metro,
	}
	if sf.yearBuilt > 0 {
		s.YearBuilt = &sf.yearBuilt
	}
	if sf.yearRenov > 0 {
		s.YearRenovated = &sf.yearRenov
	}
	if sf.units > 0 {
		s.Units = &sf.units
	}
	if sf.capRate > 0 {
		s.CapRate = &sf.capRate
	}
	if sf.pricePerUnit > 0 {
		s.PricePerUnit = &sf.pricePerUnit
	}
	return s
}
