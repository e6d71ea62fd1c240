package gross_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"contact-waterfall/enrich"
	"contact-waterfall/gross"
	"contact-waterfall/models"
)

func annualParams() models.Params {
	p := models.Params{}
	p.ApplyDefaults()
	p.VolumeAnnualizationFactor = 1
	return p
}

// simpleQueue: complexity 0.20 enriches to repeatability 0.85, auth 0.20,
// emotion 0.10, containment 0.85, eligible 0.799.
func simpleQueue(volume float64) []models.EnrichedQueue {
	return enrich.Enrich([]models.Queue{{
		Intent: "order status", Channel: "Voice", Volume: volume,
		CSAT: 0.80, FCR: 0.80, AHTMinutes: 5, ACWMinutes: 1,
		TransferRate: 0.15, EscalationRate: 0.05, RepeatRate: 0.10,
		Complexity: 0.20,
	}})
}

func singleRole() []models.Role {
	return []models.Role{{Name: "Agent L1", Headcount: 100, CostPerFTE: 55000}}
}

func TestDeflectionHandComputed(t *testing.T) {
	init := models.Initiative{
		ID: "AI01", Lever: models.LeverDeflection,
		Impact: 0.30, Adoption: 0.80,
		Channels: []string{"Voice"}, Roles: []string{"Agent L1"},
	}

	g := gross.Compute(init, simpleQueue(120000), singleRole(), annualParams())

	// effectiveRate = 0.799 × min(0.30, 0.85) × 0.80 = 0.19176
	// contacts = 120000 × 0.19176 = 23011
	// hours = 23011 × 300s / 3600 = 1917.6
	// FTE = 1917.6 / (2080 × 0.70) = 1.317
	assert.InDelta(t, 23011, g.Contacts, 1.0)
	assert.InDelta(t, 1.3, g.FTE, 0.05)
	assert.InDelta(t, 1.317*55000, g.Saving, 150)
	assert.False(t, g.IsLocation)
	assert.Contains(t, g.Mechanism, "Deflection")
}

func TestDeflectionContainmentNotDoubleCounted(t *testing.T) {
	queues := simpleQueue(120000)
	eligible := queues[0].DeflectionEligiblePct

	init := models.Initiative{
		ID: "AI01", Lever: models.LeverDeflection,
		Impact: 0.30, Adoption: 0.80,
		Channels: []string{"Voice"}, Roles: []string{"Agent L1"},
	}
	g := gross.Compute(init, queues, singleRole(), annualParams())

	// With impact below containment, deflected contacts must be exactly
	// volume × eligible × impact × adoption. Multiplying containment in
	// again would shrink this by another 15%.
	expected := 120000 * eligible * 0.30 * 0.80
	assert.InDelta(t, expected, g.Contacts, 1.0)
}

func TestDeflectionImpactCappedByContainment(t *testing.T) {
	queues := simpleQueue(120000)
	containment := queues[0].ContainmentFeasibility

	capped := models.Initiative{
		ID: "AI01", Lever: models.LeverDeflection,
		Impact: 0.99, Adoption: 1.0,
		Channels: []string{"Voice"}, Roles: []string{"Agent L1"},
	}
	atCap := models.Initiative{
		ID: "AI02", Lever: models.LeverDeflection,
		Impact: containment, Adoption: 1.0,
		Channels: []string{"Voice"}, Roles: []string{"Agent L1"},
	}

	g1 := gross.Compute(capped, queues, singleRole(), annualParams())
	g2 := gross.Compute(atCap, queues, singleRole(), annualParams())
	assert.Equal(t, g2.Contacts, g1.Contacts, "impact above containment must clip to containment")
}

func TestAHTReduction(t *testing.T) {
	init := models.Initiative{
		ID: "AI05", Lever: models.LeverAHTReduction,
		Impact: 0.40, Adoption: 0.80,
		Channels: []string{"Voice"}, Roles: []string{"Agent L1"},
	}
	g := gross.Compute(init, simpleQueue(120000), singleRole(), annualParams())

	// reducible 152.25s/contact × 0.40 × 0.80 = 48.72s
	// seconds = 120000 × 48.72 = 5,846,400; hours = 1624; FTE = 1.115
	assert.InDelta(t, 5846400, g.Seconds, 2000)
	assert.InDelta(t, 1.1, g.FTE, 0.05)
}

func TestEscalationUsesFullDownstreamTime(t *testing.T) {
	init := models.Initiative{
		ID: "OP01", Lever: models.LeverEscalationReduction,
		Impact: 0.50, Adoption: 0.80,
		Channels: []string{"Voice"}, Roles: []string{"Agent L1"},
	}
	g := gross.Compute(init, simpleQueue(120000), singleRole(), annualParams())

	// prevented = 120000 × 0.05 × 0.50(share at cx 0.20) × 0.50 × 0.80 = 1200
	// hours = 1200 × 900s / 3600 = 300; FTE = 0.206
	assert.InDelta(t, 1200, g.Contacts, 1.0)
	assert.InDelta(t, 0.2, g.FTE, 0.05)
}

func TestTransferUsesLateralOverheadOnly(t *testing.T) {
	init := models.Initiative{
		ID: "OP02", Lever: models.LeverTransferReduction,
		Impact: 0.50, Adoption: 0.80,
		Channels: []string{"Voice"}, Roles: []string{"Agent L1"},
	}
	g := gross.Compute(init, simpleQueue(120000), singleRole(), annualParams())

	// share = max(0.15, 0.55 − 0.20×0.40) = 0.47
	// prevented = 120000 × 0.15 × 0.47 × 0.50 × 0.80 = 3384
	// hours = 3384 × 180s / 3600 = 169.2; FTE = 0.116
	assert.InDelta(t, 3384, g.Contacts, 1.0)
	assert.InDelta(t, 0.1, g.FTE, 0.05)
}

func TestRepeatUsesObservedRate(t *testing.T) {
	init := models.Initiative{
		ID: "OP03", Lever: models.LeverRepeatReduction,
		Impact: 0.50, Adoption: 0.80,
		Channels: []string{"Voice"}, Roles: []string{"Agent L1"},
	}
	g := gross.Compute(init, simpleQueue(120000), singleRole(), annualParams())

	// eliminated = 120000 × 0.10 × 0.50 × 0.80 = 4800 (below the 70% cap of 8400)
	assert.InDelta(t, 4800, g.Contacts, 1.0)
	assert.NotContains(t, g.Mechanism, "FCR-derived")
}

func TestRepeatFallsBackToFCRGap(t *testing.T) {
	sparse := enrich.Enrich([]models.Queue{{
		Intent: "order status", Channel: "Voice", Volume: 120000,
		FCR: 0.70, AHTMinutes: 5, ACWMinutes: 1,
		RepeatRate: 0.005, Complexity: 0.20,
	}})
	init := models.Initiative{
		ID: "OP03", Lever: models.LeverRepeatReduction,
		Impact: 0.50, Adoption: 0.80,
		Channels: []string{"Voice"}, Roles: []string{"Agent L1"},
	}
	g := gross.Compute(init, sparse, singleRole(), annualParams())

	assert.Contains(t, g.Mechanism, "FCR-derived")
	// fallback rate = max(0.05, 0.30×0.60) = 0.18
	// eliminated = 120000 × 0.18 × 0.50 × 0.80 = 8640
	assert.InDelta(t, 8640, g.Contacts, 1.0)
}

func TestLocationProducesSavingOnly(t *testing.T) {
	init := models.Initiative{
		ID: "LS01", Lever: models.LeverCostReduction,
		Impact: 0.60, Adoption: 0.80,
		Channels: []string{"Voice"}, Roles: []string{"Agent L1"},
	}
	g := gross.Compute(init, simpleQueue(120000), singleRole(), annualParams())

	assert.True(t, g.IsLocation)
	assert.Zero(t, g.FTE, "location never reduces headcount")
	assert.Greater(t, g.FTEMigrated, 0.0)
	assert.Greater(t, g.Saving, 0.0)
	// saving = migrated × cost × 35% arbitrage
	assert.InDelta(t, g.FTEMigrated*55000*0.35, g.Saving, g.Saving*0.01)
}

func TestLocationZeroWhenNothingMigratable(t *testing.T) {
	digital := enrich.Enrich([]models.Queue{{
		Intent: "order status", Channel: "Chat", Volume: 120000,
		FCR: 0.80, AHTMinutes: 5, ACWMinutes: 1, Complexity: 0.20,
	}})
	init := models.Initiative{
		ID: "LS01", Lever: models.LeverCostReduction,
		Impact: 0.60, Adoption: 0.80,
		Channels: []string{"Chat"}, Roles: []string{"Agent L1"},
	}
	g := gross.Compute(init, digital, singleRole(), annualParams())

	assert.Zero(t, g.FTEMigrated)
	assert.Zero(t, g.Saving)
}

func TestShrinkageCappedByGap(t *testing.T) {
	init := models.Initiative{
		ID: "OP04", Lever: models.LeverShrinkageReduction,
		Impact: 0.90, Adoption: 1.0,
		Channels: []string{"Voice"}, Roles: []string{"Agent L1"},
	}
	g := gross.Compute(init, simpleQueue(120000), singleRole(), annualParams())

	// 0.30 × 0.90 × 1.0 = 0.27 exceeds the 0.08 gap, so the gap wins:
	// 100 FTE × 0.08 = 8 FTE
	assert.InDelta(t, 8.0, g.FTE, 0.1)
}

func TestUnknownLeverUsesGenericHaircut(t *testing.T) {
	init := models.Initiative{
		ID: "XX01", Lever: models.Lever("moonshot"),
		Impact: 0.40, Adoption: 0.80,
		Channels: []string{"Voice"}, Roles: []string{"Agent L1"},
	}
	g := gross.Compute(init, simpleQueue(120000), singleRole(), annualParams())

	// 100 × 0.40 × 0.80 × 0.75 = 24
	assert.InDelta(t, 24.0, g.FTE, 0.1)
	assert.Contains(t, g.Mechanism, "Generic")
}

func TestNoChannelOverlapFallsBackToAllQueues(t *testing.T) {
	init := models.Initiative{
		ID: "AI01", Lever: models.LeverDeflection,
		Impact: 0.30, Adoption: 0.80,
		Channels: []string{"Carrier Pigeon"}, Roles: []string{"Agent L1"},
	}
	g := gross.Compute(init, simpleQueue(120000), singleRole(), annualParams())
	assert.Greater(t, g.Contacts, 0.0, "unmatched channels must fall back to the whole book")
}

func TestAdoptionDefaultsTo80Pct(t *testing.T) {
	explicit := models.Initiative{
		ID: "AI01", Lever: models.LeverDeflection, Impact: 0.30, Adoption: 0.80,
		Channels: []string{"Voice"}, Roles: []string{"Agent L1"},
	}
	zero := explicit
	zero.Adoption = 0

	g1 := gross.Compute(explicit, simpleQueue(120000), singleRole(), annualParams())
	g2 := gross.Compute(zero, simpleQueue(120000), singleRole(), annualParams())
	assert.Equal(t, g1.FTE, g2.FTE)
}
