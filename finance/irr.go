package finance

import "math"

const (
	irrGuess   = 0.10
	irrMaxIter = 100
	irrRateLo  = -0.5
	irrRateHi  = 10.0
)

// IRR estimates the internal rate of return of a cash-flow vector
// (index 0 = year 0) by damped Newton-Raphson and returns it as a
// percentage. The rate step is clamped per iteration to keep the search
// out of the pole at -1. A zero vector returns 0.
func IRR(cashflows []float64) float64 {
	if len(cashflows) == 0 {
		return 0
	}
	allZero := true
	for _, cf := range cashflows {
		if cf != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return 0
	}

	rate := irrGuess
	for iter := 0; iter < irrMaxIter; iter++ {
		var npv, dnpv float64
		for t, cf := range cashflows {
			ft := float64(t)
			npv += cf / math.Pow(1+rate, ft)
			dnpv += -ft * cf / math.Pow(1+rate, ft+1)
		}
		if math.Abs(dnpv) < 1e-10 {
			break
		}
		rate = clamp(rate-npv/dnpv, irrRateLo, irrRateHi)
		if math.Abs(npv) < 1 {
			break
		}
	}
	return math.Round(rate*1000) / 10
}
