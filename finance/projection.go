// Package finance rolls per-role, per-year reductions and time-phased
// location savings into yearly cash flows, sizes the investment program,
// and computes the discounted-cash-flow metrics (NPV, IRR, ROI, payback).
package finance

import (
	"math"

	"contact-waterfall/models"
)

// Projection is the yearly financial roll-up of a cascade.
type Projection struct {
	Yearly         []models.YearlyProjection
	TotalNPV       float64
	TotalSaving    float64
	TotalReduction float64
}

// Project builds the per-year projection. Role-based reductions and
// location savings stay separate all the way down: location changes cost
// per FTE, not headcount, so its savings are added to the cash flow but
// never to the FTE reduction.
//
// Both the baseline and the post-reduction cost are inflated by wage
// inflation before differencing, so the saving itself grows with wages.
func Project(roles []models.Role, impact map[string]models.RoleImpact, locationYearly []float64, params models.Params, totalFTE float64) Projection {
	horizon := params.HorizonYears

	var baseCost float64
	for _, r := range roles {
		baseCost += r.Headcount * r.CostPerFTE
	}

	yearly := make([]models.YearlyProjection, 0, horizon)
	var cum, totalNPV, totalSaving float64

	for yr := 0; yr < horizon; yr++ {
		var reduction, saving float64
		for _, r := range roles {
			ri, ok := impact[r.Name]
			if !ok || yr >= len(ri.Yearly) {
				continue
			}
			reduction += ri.Yearly[yr]
			saving += ri.Yearly[yr] * r.CostPerFTE
		}
		if yr < len(locationYearly) {
			saving += locationYearly[yr]
		}

		inflation := math.Pow(1+params.WageInflation, float64(yr+1))
		inflatedCost := baseCost * inflation
		futureCost := (baseCost - saving) * inflation
		net := inflatedCost - futureCost
		cum += net

		discount := 1 / math.Pow(1+params.DiscountRate, float64(yr+1))
		npv := net * discount

		yearly = append(yearly, models.YearlyProjection{
			Year:         yr + 1,
			FTEReduction: math.Round(reduction),
			FinalFTE:     totalFTE - math.Round(reduction),
			AnnualSaving: math.Round(net),
			CumSaving:    math.Round(cum),
			NPV:          math.Round(npv),
			InflatedCost: math.Round(inflatedCost),
			FutureCost:   math.Round(futureCost),
		})
		totalNPV += math.Round(npv)
		totalSaving += math.Round(net)
	}

	proj := Projection{Yearly: yearly, TotalNPV: totalNPV, TotalSaving: totalSaving}
	if len(yearly) > 0 {
		proj.TotalReduction = yearly[len(yearly)-1].FTEReduction
	}
	return proj
}
