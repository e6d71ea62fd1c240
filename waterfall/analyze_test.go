package waterfall_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"contact-waterfall/waterfall"
)

func TestAnalyzeBaseOnly(t *testing.T) {
	res := waterfall.Analyze(testInputs(), waterfall.Options{})
	assert.Nil(t, res.Scenarios)
	assert.Nil(t, res.Sensitivity)
	assert.Greater(t, res.TotalNPV, 0.0)
}

func TestAnalyzeScenarios(t *testing.T) {
	res := waterfall.Analyze(testInputs(), waterfall.Options{Scenarios: true})

	assert.Len(t, res.Scenarios, 3)
	base := res.Scenarios["base"]
	conservative := res.Scenarios["conservative"]
	aggressive := res.Scenarios["aggressive"]

	assert.Equal(t, "Base Case", base.Label)
	assert.Equal(t, res.TotalNPV, base.NPV)

	// Lower adoption and slower ramp must not beat the base case; higher
	// adoption and faster ramp must not fall below it.
	assert.LessOrEqual(t, conservative.TotalSaving, base.TotalSaving)
	assert.GreaterOrEqual(t, aggressive.TotalSaving, base.TotalSaving)
	assert.Greater(t, conservative.Investment, base.Investment)
	assert.Less(t, aggressive.Investment, base.Investment)
	assert.False(t, conservative.Estimated)
	assert.False(t, aggressive.Estimated)
}

func TestAnalyzeScenariosDoNotMutateBase(t *testing.T) {
	in := testInputs()
	withScenarios := waterfall.Analyze(in, waterfall.Options{Scenarios: true})
	without := waterfall.Analyze(in, waterfall.Options{})

	assert.Equal(t, without.TotalNPV, withScenarios.TotalNPV)
	assert.Equal(t, without.TotalReduction, withScenarios.TotalReduction)
	assert.Equal(t, 0.80, in.Initiatives[0].Adoption, "input initiatives must be untouched")
}

func TestAnalyzeSensitivity(t *testing.T) {
	res := waterfall.Analyze(testInputs(), waterfall.Options{Sensitivity: true})

	assert.Len(t, res.Sensitivity, 6)
	labels := make(map[string]bool)
	for _, row := range res.Sensitivity {
		labels[row.Variable] = true
		assert.GreaterOrEqual(t, row.Swing, 0.0)
		assert.Equal(t, res.TotalNPV, row.BaseNPV)
	}
	for _, want := range []string{
		"Volume Growth", "Wage Inflation", "Discount Rate",
		"Attrition Rate", "Adoption Speed", "Redeployment %",
	} {
		assert.True(t, labels[want], "missing variable %s", want)
	}

	// Tornado order: largest swing first.
	for i := 1; i < len(res.Sensitivity); i++ {
		assert.GreaterOrEqual(t, res.Sensitivity[i-1].Swing, res.Sensitivity[i].Swing)
	}
}

func TestAnalyzeSensitivityDirections(t *testing.T) {
	res := waterfall.Analyze(testInputs(), waterfall.Options{Sensitivity: true})

	for _, row := range res.Sensitivity {
		switch row.Variable {
		case "Discount Rate":
			// Higher discount rate lowers NPV.
			assert.LessOrEqual(t, row.HighNPV, row.LowNPV, "discount rate direction")
		case "Adoption Speed":
			// Higher adoption raises NPV.
			assert.GreaterOrEqual(t, row.HighNPV, row.LowNPV, "adoption direction")
		}
	}
}
