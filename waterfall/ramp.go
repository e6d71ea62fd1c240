package waterfall

import "math"

// SCurve returns the benefit accrual fraction for a month offset from
// go-live (1-based: month 1 is the first month of benefits). The logistic
// curve is tuned so roughly 30% accrues by ramp/4, 70% by 2·ramp/3 and 95%
// at ramp, then rescaled so it starts at exactly 0 and ends at ~1.
func SCurve(monthsSinceGoLive, rampMonths int) float64 {
	if monthsSinceGoLive <= 0 {
		return 0.0
	}
	if rampMonths <= 0 || monthsSinceGoLive >= rampMonths {
		return 1.0
	}

	midpoint := float64(rampMonths) * 0.45
	k := 6.0 / float64(rampMonths)
	logistic := func(t float64) float64 {
		return 1.0 / (1.0 + math.Exp(-k*(t-midpoint)))
	}

	raw := logistic(float64(monthsSinceGoLive))
	floor := logistic(0)
	ceiling := logistic(float64(rampMonths))
	scaled := (raw - floor) / math.Max(ceiling-floor, 0.001)
	return math.Min(1.0, math.Max(0.0, scaled))
}

// YearlyFactors converts a start month, optional benefit end month
// (0 = horizon end) and ramp duration into one benefit fraction per horizon
// year: the average S-curve value over that year's active months, scaled by
// activeMonths/12. Months outside the active window contribute zero, which
// produces fractional first and last years.
func YearlyFactors(startMonth, benefitEndMonth, horizonYears, rampMonths int) []float64 {
	totalMonths := horizonYears * 12
	if benefitEndMonth <= 0 || benefitEndMonth > totalMonths {
		benefitEndMonth = totalMonths
	}

	factors := make([]float64, 0, horizonYears)
	for yr := 0; yr < horizonYears; yr++ {
		yrStart := yr*12 + 1
		yrEnd := (yr + 1) * 12

		var monthSum float64
		activeMonths := 0
		for m := yrStart; m <= yrEnd; m++ {
			if m < startMonth || m > benefitEndMonth {
				continue
			}
			monthSum += SCurve(m-startMonth+1, rampMonths)
			activeMonths++
		}

		if activeMonths > 0 {
			avgRamp := monthSum / float64(activeMonths)
			factors = append(factors, round4(avgRamp*float64(activeMonths)/12))
		} else {
			factors = append(factors, 0.0)
		}
	}
	return factors
}
