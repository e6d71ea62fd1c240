package finance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"contact-waterfall/finance"
)

func TestIRRZeroAndEmpty(t *testing.T) {
	assert.Zero(t, finance.IRR(nil))
	assert.Zero(t, finance.IRR([]float64{0, 0, 0}))
}

func TestIRRHandComputed(t *testing.T) {
	tests := map[string]struct {
		cashflows []float64
		expected  float64
		delta     float64
	}{
		// -100 then +110: exactly 10%.
		"SimpleTenPercent": {
			cashflows: []float64{-100, 110},
			expected:  10.0,
			delta:     0.2,
		},
		// -1000 then 500/500/500: ~23.4%.
		"ThreeYearPositive": {
			cashflows: []float64{-1000, 500, 500, 500},
			expected:  23.4,
			delta:     0.5,
		},
		// Break-even: 0%.
		"BreakEven": {
			cashflows: []float64{-1000, 1000},
			expected:  0.0,
			delta:     0.2,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, finance.IRR(tc.cashflows), tc.delta)
		})
	}
}

func TestIRRStaysInClampedRange(t *testing.T) {
	cases := [][]float64{
		{-1, 10000, 10000},           // absurdly profitable
		{-10000, 1, 1, 1},            // deeply unprofitable
		{-1000, 3000, -2500, 1000},   // sign changes
		{-1000000, 250000, 250000},   // partial recovery
	}
	for _, cf := range cases {
		irr := finance.IRR(cf)
		assert.GreaterOrEqual(t, irr, -50.0)
		assert.LessOrEqual(t, irr, 1000.0)
	}
}
