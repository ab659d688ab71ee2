package extract

import (
	"github.com/crestview-group/underwriting-cli/internal/model"
)

// DeriveFinancialMetrics computes economic occupancy and opex ratio for a
// financial period in place. Both are undefined (nil) when GSR is missing
// or non-positive — never zero.
func DeriveFinancialMetrics(fp *model.FinancialPeriod) {
	gsr, ok := fp.LineItems["gsr"]
	if !ok || gsr <= 0 {
		fp.EconomicOccupancy = nil
		fp.OpexRatio = nil
		return
	}

	collected := gsr -
		fp.LineItems["vacancy"] -
		fp.LineItems["concessions"] -
		fp.LineItems["bad_debt"] -
		fp.LineItems["non_revenue_units"]
	econOcc := collected / gsr
	fp.EconomicOccupancy = &econOcc

	if opex, ok := fp.LineItems["total_opex"]; ok {
		ratio := opex / gsr
		fp.OpexRatio = &ratio
	}
}

// SummarizeRentRoll derives portfolio metrics from parsed rent-roll units.
//
// Physical occupancy is occupied units over all units, as a 0-100
// percentage. Average market rent covers every unit with a market rent,
// occupied or not. Loss to lease compares the average in-place rent of
// occupied units against the average market rent:
//
//	loss_to_lease_pct = (avg_market - avg_in_place_occupied) / avg_market * 100
//
// Vacant units contribute no in-place rent and are excluded from that
// average; with no occupied units (or no market rents) loss to lease is
// undefined.
func SummarizeRentRoll(units []model.RentRollUnit) model.RentRollSummary {
	summary := model.RentRollSummary{UnitCount: len(units)}
	if len(units) == 0 {
		return summary
	}

	var marketSum, inPlaceSum float64
	var marketN, inPlaceN int
	for _, u := range units {
		if u.Occupied {
			summary.OccupiedCount++
		}
		if u.MarketRent != nil {
			marketSum += *u.MarketRent
			marketN++
		}
		if u.Occupied && u.InPlaceRent != nil {
			inPlaceSum += *u.InPlaceRent
			inPlaceN++
		}
	}

	summary.PhysicalOccupancyPct = float64(summary.OccupiedCount) / float64(summary.UnitCount) * 100

	if marketN > 0 {
		avgMarket := marketSum / float64(marketN)
		summary.AvgMarketRent = &avgMarket

		if inPlaceN > 0 {
			avgInPlace := inPlaceSum / float64(inPlaceN)
			summary.AvgInPlaceRent = &avgInPlace
			if avgMarket > 0 {
				ltl := (avgMarket - avgInPlace) / avgMarket * 100
				summary.LossToLeasePct = &ltl
			}
		}
	}

	return summary
}
