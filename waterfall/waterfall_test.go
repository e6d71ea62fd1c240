package waterfall_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"contact-waterfall/models"
	"contact-waterfall/waterfall"
)

func testInputs() models.Inputs {
	params := models.Params{}
	params.ApplyDefaults()
	params.VolumeAnnualizationFactor = 1 // annual extract

	return models.Inputs{
		Queues: []models.Queue{
			{
				Intent: "order status", Channel: "Voice", Volume: 600000,
				CSAT: 0.80, FCR: 0.80, AHTMinutes: 5, ACWMinutes: 1,
				TransferRate: 0.15, EscalationRate: 0.05, RepeatRate: 0.10,
				Complexity: 0.20,
			},
			{
				Intent: "billing complaint", Channel: "Voice", Volume: 300000,
				CSAT: 0.60, FCR: 0.65, AHTMinutes: 9, ACWMinutes: 2,
				TransferRate: 0.25, EscalationRate: 0.12, RepeatRate: 0.15,
				Complexity: 0.60,
			},
			{
				Intent: "password reset", Channel: "Chat", Volume: 200000,
				CSAT: 0.85, FCR: 0.90, AHTMinutes: 4, ACWMinutes: 0.5,
				TransferRate: 0.05, EscalationRate: 0.02, RepeatRate: 0.05,
				Complexity: 0.15,
			},
		},
		Roles: []models.Role{
			{Name: "Agent L1", Headcount: 800, CostPerFTE: 50000},
			{Name: "Agent L2 / Specialist", Headcount: 150, CostPerFTE: 70000},
			{Name: "Team Lead", Headcount: 50, CostPerFTE: 90000},
		},
		Params: params,
		Initiatives: []models.Initiative{
			{
				ID: "AI01", Name: "Conversational bot", Layer: "AI & Automation",
				Lever: models.LeverDeflection, Impact: 0.40, Adoption: 0.80,
				Channels: []string{"Voice", "Chat"}, Roles: []string{"Agent L1"},
				Effort: "high", RampMonths: 12, StartMonth: 1, Enabled: true, Score: 90,
			},
			{
				ID: "AI05", Name: "Agent assist", Layer: "AI & Automation",
				Lever: models.LeverAHTReduction, Impact: 0.35, Adoption: 0.75,
				Channels: []string{"Voice"}, Roles: []string{"Agent L1", "Agent L2 / Specialist"},
				Effort: "medium", RampMonths: 9, StartMonth: 2, Enabled: true, Score: 80,
			},
			{
				ID: "OP02", Name: "Routing redesign", Layer: "Operating Model",
				Lever: models.LeverTransferReduction, Impact: 0.50, Adoption: 0.85,
				Channels: []string{"Voice"}, Roles: []string{"Agent L1"},
				Effort: "low", RampMonths: 6, StartMonth: 1, Enabled: true, Score: 70,
			},
			{
				ID: "LS01", Name: "Nearshore migration", Layer: "Location Strategy",
				Lever: models.LeverCostReduction, Impact: 0.50, Adoption: 0.80,
				Channels: []string{"Voice"}, Roles: []string{"Agent L1"},
				Effort: "high", RampMonths: 18, StartMonth: 6, Enabled: true, Score: 60,
			},
			{
				ID: "XX99", Name: "Disabled thing", Layer: "AI & Automation",
				Lever: models.LeverDeflection, Impact: 0.90, Adoption: 1.0,
				Channels: []string{"Voice"}, Enabled: false, Score: 99,
			},
		},
	}
}

func TestRunCoreBasics(t *testing.T) {
	res := waterfall.RunCore(testInputs())

	assert.NotEmpty(t, res.RunID)
	assert.Len(t, res.Outcomes, 4, "disabled initiatives are excluded")
	assert.Len(t, res.Yearly, 3)
	assert.Greater(t, res.TotalNPV, 0.0)
	assert.Greater(t, res.TotalReduction, 0.0)
	assert.Greater(t, res.TotalInvestment, 0.0)
	assert.Empty(t, res.Degraded)
}

func TestRunCoreNetNeverExceedsGross(t *testing.T) {
	res := waterfall.RunCore(testInputs())
	for _, o := range res.Outcomes {
		if o.Lever == models.LeverCostReduction {
			continue
		}
		assert.LessOrEqual(t, o.FTEImpact, o.GrossFTE+0.05,
			"%s: net must never exceed gross", o.ID)
	}
}

func TestRunCoreCascadeOrder(t *testing.T) {
	res := waterfall.RunCore(testInputs())

	// Layer order first (AI → Operating Model → Location), deflection
	// before AHT within the AI layer.
	ids := make([]string, len(res.Outcomes))
	for i, o := range res.Outcomes {
		ids[i] = o.ID
	}
	assert.Equal(t, []string{"AI01", "AI05", "OP02", "LS01"}, ids)
}

func TestRunCorePerInitiativeCaps(t *testing.T) {
	in := testInputs()
	// One massive initiative over a small role set.
	in.Initiatives = []models.Initiative{{
		ID: "AI01", Name: "Mega bot", Layer: "AI & Automation",
		Lever: models.LeverDeflection, Impact: 0.95, Adoption: 1.0,
		Channels: []string{"Voice", "Chat"}, Roles: []string{"Agent L1"},
		RampMonths: 12, StartMonth: 1, Enabled: true, Score: 90,
	}}
	res := waterfall.RunCore(in)

	o := res.Outcomes[0]
	// Deflection lever cap: 18% of the 800 affected FTE.
	assert.LessOrEqual(t, o.FTEImpact, 0.18*800+0.1)
	assert.LessOrEqual(t, o.FTEImpact, 0.20*800+0.1, "absolute cap")
}

func TestRunCorePerRoleCap(t *testing.T) {
	in := testInputs()
	// Many aggressive initiatives against one role: the 45% saturation cap
	// must hold across the whole cascade.
	in.Initiatives = nil
	for i := 0; i < 8; i++ {
		in.Initiatives = append(in.Initiatives, models.Initiative{
			ID: string(rune('A'+i)) + "01", Name: "Init", Layer: "AI & Automation",
			Lever: models.LeverDeflection, Impact: 0.90, Adoption: 1.0,
			Channels: []string{"Voice", "Chat"}, Roles: []string{"Agent L1"},
			RampMonths: 2, StartMonth: 1, Enabled: true, Score: float64(90 - i),
		})
	}
	res := waterfall.RunCore(in)

	ri := res.RoleImpact["Agent L1"]
	for yr, v := range ri.Yearly {
		assert.LessOrEqual(t, v, 800*0.45+0.5, "year %d exceeds 45%% of baseline", yr+1)
	}
}

func TestRunCorePoolCeilingHolds(t *testing.T) {
	in := testInputs()
	// Two deflection initiatives that together want more than the pool.
	in.Initiatives = []models.Initiative{
		{
			ID: "AI01", Name: "Bot A", Layer: "AI & Automation",
			Lever: models.LeverDeflection, Impact: 0.90, Adoption: 1.0,
			Channels: []string{"Voice", "Chat"}, Roles: []string{"Agent L1"},
			RampMonths: 2, StartMonth: 1, Enabled: true, Score: 90,
		},
		{
			ID: "AI02", Name: "Bot B", Layer: "AI & Automation",
			Lever: models.LeverDeflection, Impact: 0.90, Adoption: 1.0,
			Channels: []string{"Voice", "Chat"}, Roles: []string{"Agent L2 / Specialist"},
			RampMonths: 2, StartMonth: 1, Enabled: true, Score: 80,
		},
	}
	res := waterfall.RunCore(in)

	u := res.Utilization[models.LeverDeflection]
	assert.LessOrEqual(t, u.ConsumedFTE, u.CeilingFTE+0.1,
		"consumption can never exceed the pool ceiling")
	total := res.Outcomes[0].PoolConsumed + res.Outcomes[1].PoolConsumed
	assert.LessOrEqual(t, total, u.CeilingFTE+0.2)
}

func TestRunCoreLocationSeparation(t *testing.T) {
	res := waterfall.RunCore(testInputs())

	var loc *models.Outcome
	for i := range res.Outcomes {
		if res.Outcomes[i].ID == "LS01" {
			loc = &res.Outcomes[i]
		}
	}
	assert.NotNil(t, loc)
	assert.Zero(t, loc.FTEImpact, "location moves cost, not headcount")
	assert.Greater(t, loc.AnnualSaving, 0.0)

	// Location savings appear in the projection but not in FTE reduction.
	assert.Greater(t, res.LayerSaving["Location Strategy"], 0.0)
	assert.Zero(t, res.LayerFTE["Location Strategy"])
}

func TestRunCoreUnknownLeverProducesNothing(t *testing.T) {
	in := testInputs()
	in.Initiatives = []models.Initiative{{
		ID: "XX01", Name: "Mystery", Layer: "AI & Automation",
		Lever: models.Lever("synergy"), Impact: 0.50, Adoption: 0.80,
		Channels: []string{"Voice"}, Roles: []string{"Agent L1"},
		RampMonths: 6, StartMonth: 1, Enabled: true, Score: 50,
	}}
	res := waterfall.RunCore(in)

	assert.Zero(t, res.Outcomes[0].FTEImpact)
	assert.Zero(t, res.Outcomes[0].AnnualSaving)
	assert.Zero(t, res.TotalReduction)
	assert.NotEmpty(t, res.AuditTrail)
	assert.True(t, res.AuditTrail[0].UnknownLever)
	assert.NotEmpty(t, res.Degraded, "unknown lever must be surfaced, not absorbed")
}

func TestRunCoreNoAffectedRoles(t *testing.T) {
	in := testInputs()
	in.Initiatives = []models.Initiative{{
		ID: "AI01", Name: "Ghost roles", Layer: "AI & Automation",
		Lever: models.LeverDeflection, Impact: 0.40, Adoption: 0.80,
		Channels: []string{"Voice"}, Roles: []string{"Wizard"},
		RampMonths: 6, StartMonth: 1, Enabled: true, Score: 50,
	}}
	res := waterfall.RunCore(in)

	assert.Zero(t, res.Outcomes[0].FTEImpact)
	assert.Equal(t, "No affected roles", res.Outcomes[0].Mechanism)
}

func TestRunCorePure(t *testing.T) {
	in := testInputs()
	first := waterfall.RunCore(in)
	second := waterfall.RunCore(in)

	// Identical inputs give identical results apart from the run ID.
	assert.Equal(t, first.TotalNPV, second.TotalNPV)
	assert.Equal(t, first.TotalReduction, second.TotalReduction)
	assert.Equal(t, first.Outcomes, second.Outcomes)
	assert.NotEqual(t, first.RunID, second.RunID)

	// The inputs themselves are untouched.
	assert.Equal(t, 600000.0, in.Queues[0].Volume)
	assert.Equal(t, 0.80, in.Initiatives[0].Adoption)
}

func TestRunCoreContributionsSumToHundred(t *testing.T) {
	res := waterfall.RunCore(testInputs())

	var total float64
	for _, o := range res.Outcomes {
		assert.GreaterOrEqual(t, o.ContributionPct, 0.0)
		assert.LessOrEqual(t, o.ContributionPct, 100.0)
		total += o.ContributionPct
	}
	assert.InDelta(t, 100.0, total, 1.0)
}

func TestRunCoreYearlyProjectionShape(t *testing.T) {
	res := waterfall.RunCore(testInputs())

	var prevCum float64
	for i, y := range res.Yearly {
		assert.Equal(t, i+1, y.Year)
		assert.GreaterOrEqual(t, y.CumSaving, prevCum, "cumulative saving must not shrink")
		prevCum = y.CumSaving
		assert.Greater(t, y.InflatedCost, y.FutureCost, "reduction must lower the cost base")
	}
	// Ramping: year 1 saving below steady state.
	assert.Less(t, res.Yearly[0].AnnualSaving, res.Yearly[2].AnnualSaving)
}

func TestRunCoreInvestmentSized(t *testing.T) {
	res := waterfall.RunCore(testInputs())

	assert.Len(t, res.InvestmentItems, 4)
	assert.Len(t, res.InvestmentYearly, 3)
	s := res.InvestmentSummary
	assert.InDelta(t, s.TotalTech+s.ChangeMgmt+s.Training+s.Contingency, s.GrandTotal, 3.0)
	assert.Equal(t, s.GrandTotal, res.TotalInvestment)
}

func TestRunCoreSingleQueueHandComputed(t *testing.T) {
	params := models.Params{VolumeAnnualizationFactor: 1}

	in := models.Inputs{
		Queues: []models.Queue{{
			Intent: "order status", Channel: "Voice", BusinessUnit: "Retail",
			Volume: 10000, CSAT: 0.78, FCR: 0.80,
			AHTMinutes: 5, ACWMinutes: 1, Complexity: 0.20,
		}},
		Roles:  []models.Role{{Name: "Tier 1 Agent", Headcount: 100, CostPerFTE: 55000}},
		Params: params,
		Initiatives: []models.Initiative{{
			ID: "AI01", Name: "Chatbot deflection", Layer: "AI & Automation",
			Lever: models.LeverDeflection, Impact: 0.30, Adoption: 0.80,
			Channels: []string{"Voice"}, Roles: []string{"Tier 1 Agent"},
			Enabled: true, Score: 90,
		}},
	}

	res := waterfall.RunCore(in)
	assert.Len(t, res.Outcomes, 1)
	out := res.Outcomes[0]

	// 10,000 contacts × 0.799 eligible × min(0.30, 0.850 containment)
	// × 0.80 adoption = 1,918 deflected; × 300s AHT = 160 hrs / 1,456
	// net hrs ≈ 0.11 FTE.
	assert.Equal(t, 0.1, out.GrossFTE)
	assert.Equal(t, 0.1, out.FTEImpact, "well under every cap, so net equals gross")
	assert.False(t, out.PoolCapped, "deflection pool ceiling far exceeds 0.1 FTE")
	assert.False(t, out.SafetyCapped)
	assert.Equal(t, 5500.0, out.AnnualSaving)
	assert.Empty(t, res.Degraded)
}
