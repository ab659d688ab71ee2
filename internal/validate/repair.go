// Package validate applies cross-field consistency checks and repairs to
// normalized records before they are persisted.
package validate

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/crestview-group/underwriting-cli/internal/config"
	"github.com/crestview-group/underwriting-cli/internal/model"
)

// Repairer runs cross-field validation over normalized comps. All repairs are
// derivations from fields already present in the row; nothing is ever
// invented.
type Repairer struct {
	cfg config.RepairConfig
}

// NewRepairer builds a Repairer from configuration, filling zero values with
// the standard thresholds.
func NewRepairer(cfg config.RepairConfig) *Repairer {
	if cfg.DefaultUnitSF <= 0 {
		cfg.DefaultUnitSF = 900
	}
	if cfg.MinPlausiblePPU <= 0 {
		cfg.MinPlausiblePPU = 20000
	}
	if cfg.MaxPlausiblePPU <= 0 {
		cfg.MaxPlausiblePPU = 2000000
	}
	if cfg.UnitMismatchPrice <= 0 {
		cfg.UnitMismatchPrice = 10000
	}
	if cfg.UnitMismatchUnits <= 0 {
		cfg.UnitMismatchUnits = 10
	}
	return &Repairer{cfg: cfg}
}

// RepairComp validates and repairs one comp in place, returning warnings for
// every change or anomaly. Checks run in a fixed order so later derivations
// see the results of earlier repairs.
func (r *Repairer) RepairComp(comp *model.NormalizedComp) []string {
	var warnings []string
	warnings = append(warnings, r.repairUnitMismatch(comp)...)
	warnings = append(warnings, r.deriveMissingPrices(comp)...)
	warnings = append(warnings, r.checkPlausibility(comp)...)
	return warnings
}

// repairUnitMismatch catches the $/SF-in-the-price-column mistake: a
// multi-unit property cannot sell for pocket change, so a tiny "sale price"
// on a property with real unit count is a per-SF figure that landed in the
// wrong column. The value moves to price_per_sf and the true sale price is
// rebuilt from unit count and average unit size.
func (r *Repairer) repairUnitMismatch(comp *model.NormalizedComp) []string {
	if comp.SalePrice == nil || comp.Units == nil {
		return nil
	}
	if *comp.SalePrice >= r.cfg.UnitMismatchPrice || *comp.SalePrice <= 0 || *comp.Units <= r.cfg.UnitMismatchUnits {
		return nil
	}

	perSF := *comp.SalePrice
	unitSF := r.cfg.DefaultUnitSF
	warnings := []string{fmt.Sprintf("sale price %.2f with %d units treated as price per SF", perSF, *comp.Units)}
	if comp.AvgUnitSF != nil && *comp.AvgUnitSF > 0 {
		unitSF = *comp.AvgUnitSF
	} else {
		warnings = append(warnings, fmt.Sprintf("avg unit SF missing, assumed %.0f SF", unitSF))
	}

	rebuilt := perSF * unitSF * float64(*comp.Units)
	perUnit := rebuilt / float64(*comp.Units)

	comp.PricePerSF = &perSF
	comp.SalePrice = &rebuilt
	comp.PricePerUnit = &perUnit

	zap.L().Debug("validate: repaired unit mismatch",
		zap.String("property", comp.PropertyName),
		zap.Float64("price_per_sf", perSF),
		zap.Float64("sale_price", rebuilt),
	)
	return warnings
}

// deriveMissingPrices fills price_per_unit and price_per_sf from sale price
// when absent or implausibly small, and sale price from price_per_unit when
// the tracker only carried the per-unit figure. A stored per-unit price below
// the plausibility floor is a units mixup (a total that landed per-unit, or
// vice versa), so the sale-price derivation replaces it rather than letting
// it stand with only an advisory.
func (r *Repairer) deriveMissingPrices(comp *model.NormalizedComp) []string {
	var warnings []string

	if comp.SalePrice == nil && comp.PricePerUnit != nil && comp.Units != nil && *comp.Units > 0 {
		total := *comp.PricePerUnit * float64(*comp.Units)
		comp.SalePrice = &total
		warnings = append(warnings, "sale price derived from price per unit")
	}

	if comp.SalePrice != nil && comp.Units != nil && *comp.Units > 0 {
		ppu := *comp.SalePrice / float64(*comp.Units)
		if comp.PricePerUnit == nil {
			comp.PricePerUnit = &ppu
		} else if *comp.PricePerUnit < r.cfg.MinPlausiblePPU && ppu != *comp.PricePerUnit {
			warnings = append(warnings, fmt.Sprintf("price per unit %.0f below plausibility floor, re-derived from sale price as %.0f", *comp.PricePerUnit, ppu))
			comp.PricePerUnit = &ppu
		}
		if comp.PricePerSF == nil && comp.AvgUnitSF != nil && *comp.AvgUnitSF > 0 {
			psf := *comp.SalePrice / (float64(*comp.Units) * *comp.AvgUnitSF)
			comp.PricePerSF = &psf
		}
	}

	return warnings
}

// checkPlausibility flags per-unit prices outside the plausible band. The
// value stands; the warning is advisory so a reviewer can decide.
func (r *Repairer) checkPlausibility(comp *model.NormalizedComp) []string {
	if comp.PricePerUnit == nil {
		return nil
	}
	ppu := *comp.PricePerUnit
	if ppu < r.cfg.MinPlausiblePPU || ppu > r.cfg.MaxPlausiblePPU {
		return []string{fmt.Sprintf("price per unit %.0f outside plausible range [%.0f, %.0f]", ppu, r.cfg.MinPlausiblePPU, r.cfg.MaxPlausiblePPU)}
	}
	return nil
}
