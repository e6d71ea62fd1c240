package waterfall

import (
	"math"
	"sort"

	"contact-waterfall/finance"
	"contact-waterfall/models"
)

// Options selects the optional analysis layers on top of the base run.
type Options struct {
	Scenarios   bool
	Sensitivity bool
}

// sensitivity variables perturbed ±20% around the base case. Adoption is
// an initiative field rather than a parameter, so it is flagged and
// handled separately.
var sensitivityVars = []struct {
	Label string
	Param string
}{
	{"Volume Growth", "volumeGrowth"},
	{"Wage Inflation", "wageInflation"},
	{"Discount Rate", "discountRate"},
	{"Attrition Rate", "attritionMonthly"},
	{"Adoption Speed", "_adoption"},
	{"Redeployment %", "redeploymentPct"},
}

const sensitivitySwing = 0.20

// Analyze runs the base cascade and, when requested, layers conservative
// and aggressive scenarios plus single-variable sensitivity on top. Each
// variant is a fresh RunCore call over copied inputs; the base result is
// never recomputed or mutated.
func Analyze(in models.Inputs, opts Options) *models.RunResult {
	base := RunCore(in)
	if opts.Scenarios {
		base.Scenarios = computeScenarios(in, base)
	}
	if opts.Sensitivity {
		base.Sensitivity = runSensitivity(in, base.TotalNPV)
	}
	return base
}

// computeScenarios builds the three-point scenario set. Conservative slows
// adoption and the ramp and raises costs; aggressive does the opposite.
// Investment scaling stays a simple multiplier on the base investment,
// since cost structure does not change with adoption.
func computeScenarios(in models.Inputs, base *models.RunResult) map[string]models.Scenario {
	scenarios := make(map[string]models.Scenario, 3)

	yr3 := 0.0
	if n := len(base.Yearly); n > 0 {
		yr3 = base.Yearly[n-1].AnnualSaving
	}
	scenarios["base"] = models.Scenario{
		Label:        "Base Case",
		Description:  "Expected values from diagnostic",
		NPV:          math.Round(base.TotalNPV),
		FTEReduction: math.Round(base.TotalReduction),
		Investment:   math.Round(base.TotalInvestment),
		IRRPct:       base.IRRPct,
		AnnualSaving: math.Round(yr3),
		TotalSaving:  math.Round(base.TotalSaving),
	}

	variants := []struct {
		name         string
		adoptionMult float64
		investMult   float64
		rampMult     float64
	}{
		{"conservative", 0.70, 1.15, 1.50},
		{"aggressive", 1.30, 0.90, 0.60},
	}

	for _, v := range variants {
		scenarios[v.name] = runScenario(in, base, v.name, v.adoptionMult, v.investMult, v.rampMult, yr3)
	}
	return scenarios
}

func runScenario(in models.Inputs, base *models.RunResult, name string, adoptionMult, investMult, rampMult, baseYr3 float64) (sc models.Scenario) {
	label := "Conservative"
	desc := "Lower adoption, higher costs"
	if adoptionMult > 1 {
		label = "Aggressive"
		desc = "Higher adoption, lower costs"
	}
	adjInvest := math.Round(base.TotalInvestment * investMult)

	// A failed variant degrades to a scaled estimate of the base case
	// instead of dropping the scenario.
	defer func() {
		if r := recover(); r != nil {
			sc = models.Scenario{
				Label: label, Description: "Estimated",
				NPV:          math.Round(base.TotalNPV * adoptionMult),
				FTEReduction: math.Round(base.TotalReduction * adoptionMult),
				Investment:   adjInvest,
				AnnualSaving: math.Round(baseYr3 * adoptionMult),
				TotalSaving:  math.Round(base.TotalSaving * adoptionMult),
				Estimated:    true,
			}
		}
	}()

	variant := in
	variant.Initiatives = copyInitiatives(in.Initiatives)
	for i := range variant.Initiatives {
		adoption := variant.Initiatives[i].Adoption
		if adoption == 0 {
			adoption = 0.80
		}
		variant.Initiatives[i].Adoption = math.Min(1.0, adoption*adoptionMult)
		ramp := variant.Initiatives[i].RampMonths
		if ramp <= 0 {
			ramp = 12
		}
		scaled := int(math.Round(float64(ramp) * rampMult))
		if scaled < 2 {
			scaled = 2
		}
		variant.Initiatives[i].RampMonths = scaled
	}

	res := RunCore(variant)
	yr3 := 0.0
	if n := len(res.Yearly); n > 0 {
		yr3 = res.Yearly[n-1].AnnualSaving
	}
	cashflows := make([]float64, 0, len(res.Yearly)+1)
	cashflows = append(cashflows, -adjInvest)
	for _, y := range res.Yearly {
		cashflows = append(cashflows, y.AnnualSaving)
	}

	return models.Scenario{
		Label:        label,
		Description:  desc,
		NPV:          math.Round(res.TotalNPV),
		FTEReduction: math.Round(res.TotalReduction),
		Investment:   adjInvest,
		IRRPct:       finance.IRR(cashflows),
		AnnualSaving: math.Round(yr3),
		TotalSaving:  math.Round(res.TotalSaving),
	}
}

// runSensitivity perturbs each driver ±20% and records the NPV swing,
// sorted largest first for tornado display.
func runSensitivity(in models.Inputs, baseNPV float64) []models.SensitivityRow {
	if math.Abs(baseNPV) < 1 {
		return nil
	}

	rows := make([]models.SensitivityRow, 0, len(sensitivityVars))
	for _, v := range sensitivityVars {
		rows = append(rows, sensitivityRow(in, baseNPV, v.Label, v.Param))
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Swing > rows[j].Swing })
	return rows
}

func sensitivityRow(in models.Inputs, baseNPV float64, label, param string) (row models.SensitivityRow) {
	defer func() {
		if r := recover(); r != nil {
			// Heuristic swing when the perturbed run fails: rate-type
			// drivers move NPV more than volume-type ones.
			sp := 10.0
			if param == "discountRate" || param == "wageInflation" {
				sp = 15.0
			}
			row = models.SensitivityRow{
				Variable: label,
				Swing:    math.Round(baseNPV * sp / 50),
				LowNPV:   math.Round(baseNPV * (1 - sp/100)),
				HighNPV:  math.Round(baseNPV * (1 + sp/100)),
				BaseNPV:  math.Round(baseNPV),
				SwingPct: sp * 2,
				Estimated: true,
			}
		}
	}()

	var lowNPV, highNPV float64
	if param == "_adoption" {
		low := in
		low.Initiatives = copyInitiatives(in.Initiatives)
		high := in
		high.Initiatives = copyInitiatives(in.Initiatives)
		for i := range low.Initiatives {
			adoption := low.Initiatives[i].Adoption
			if adoption == 0 {
				adoption = 0.80
			}
			low.Initiatives[i].Adoption = adoption * (1 - sensitivitySwing)
			high.Initiatives[i].Adoption = math.Min(1.0, adoption*(1+sensitivitySwing))
		}
		lowNPV = RunCore(low).TotalNPV
		highNPV = RunCore(high).TotalNPV
	} else {
		low := in
		low.Params = perturbParam(in.Params, param, 1-sensitivitySwing)
		high := in
		high.Params = perturbParam(in.Params, param, 1+sensitivitySwing)
		lowNPV = RunCore(low).TotalNPV
		highNPV = RunCore(high).TotalNPV
	}

	swing := math.Abs(highNPV - lowNPV)
	return models.SensitivityRow{
		Variable: label,
		Swing:    math.Round(swing),
		LowNPV:   math.Round(lowNPV),
		HighNPV:  math.Round(highNPV),
		BaseNPV:  math.Round(baseNPV),
		SwingPct: round1(swing / math.Max(math.Abs(baseNPV), 1) * 100),
	}
}

func perturbParam(p models.Params, param string, mult float64) models.Params {
	switch param {
	case "volumeGrowth":
		p.VolumeGrowth *= mult
	case "wageInflation":
		p.WageInflation *= mult
	case "discountRate":
		p.DiscountRate *= mult
	case "attritionMonthly":
		p.AttritionMonthly *= mult
	case "redeploymentPct":
		p.RedeploymentPct *= mult
	}
	return p
}

func copyInitiatives(inits []models.Initiative) []models.Initiative {
	out := make([]models.Initiative, len(inits))
	copy(out, inits)
	return out
}
