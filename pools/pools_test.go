package pools_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"contact-waterfall/enrich"
	"contact-waterfall/models"
	"contact-waterfall/pools"
)

func testParams() models.Params {
	p := models.Params{VolumeAnnualizationFactor: 1}
	p.ApplyDefaults()
	p.VolumeAnnualizationFactor = 1 // annual extract
	return p
}

func testQueues() []models.EnrichedQueue {
	return enrich.Enrich([]models.Queue{
		{
			Intent: "order status", Channel: "Voice", Volume: 120000,
			CSAT: 0.80, FCR: 0.80, AHTMinutes: 5, ACWMinutes: 1,
			TransferRate: 0.15, EscalationRate: 0.05, RepeatRate: 0.10,
			Complexity: 0.20,
		},
		{
			Intent: "billing complaint", Channel: "Voice", Volume: 60000,
			CSAT: 0.60, FCR: 0.65, AHTMinutes: 9, ACWMinutes: 2,
			TransferRate: 0.25, EscalationRate: 0.12, RepeatRate: 0.15,
			Complexity: 0.60,
		},
	})
}

func testRoles() []models.Role {
	return []models.Role{
		{Name: "Agent L1", Headcount: 800, CostPerFTE: 50000},
		{Name: "Agent L2 / Specialist", Headcount: 200, CostPerFTE: 70000},
	}
}

func TestComputeBuildsAllPools(t *testing.T) {
	set := pools.Compute(testQueues(), testRoles(), testParams())

	levers := []models.Lever{
		models.LeverDeflection, models.LeverAHTReduction,
		models.LeverTransferReduction, models.LeverEscalationReduction,
		models.LeverRepeatReduction, models.LeverCostReduction,
		models.LeverShrinkageReduction,
	}
	assert.Len(t, set.Pools, len(levers))
	for _, lv := range levers {
		p, ok := set.Pools[lv]
		assert.True(t, ok, "missing pool for %s", lv)
		assert.GreaterOrEqual(t, p.CeilingFTE, 0.0)
		assert.Equal(t, p.CeilingFTE, p.RemainingFTE, "%s remaining must start at ceiling", lv)
	}
}

func TestComputeDeterministic(t *testing.T) {
	a := pools.Compute(testQueues(), testRoles(), testParams())
	b := pools.Compute(testQueues(), testRoles(), testParams())
	for lv, pa := range a.Pools {
		assert.Equal(t, pa.CeilingFTE, b.Pools[lv].CeilingFTE, "%s ceiling must be deterministic", lv)
		assert.Equal(t, pa.CeilingSaving, b.Pools[lv].CeilingSaving)
	}
	assert.Equal(t, a.Summary, b.Summary)
}

func TestSummaryTotalsMatchPools(t *testing.T) {
	set := pools.Compute(testQueues(), testRoles(), testParams())

	var fte, saving float64
	for _, p := range set.Pools {
		fte += p.CeilingFTE
		saving += p.CeilingSaving
	}
	assert.InDelta(t, fte, set.Summary.TotalPoolFTE, 0.5)
	assert.InDelta(t, saving, set.Summary.TotalPoolSaving, 1.0)
	assert.Equal(t, 1000.0, set.Summary.TotalFTE)
	assert.Equal(t, 180000.0, set.Summary.TotalVolume)
	// 800*50k + 200*70k over 1000 = 54000
	assert.Equal(t, 54000.0, set.Summary.WeightedCostPerFTE)
}

func TestShrinkagePoolGap(t *testing.T) {
	params := testParams()
	set := pools.Compute(testQueues(), testRoles(), params)

	// 1000 FTE × (0.30 − 0.22) = 80 FTE
	p := set.Pools[models.LeverShrinkageReduction]
	assert.InDelta(t, 80.0, p.CeilingFTE, 0.1)
	assert.InDelta(t, 0.08, p.ShrinkageGap, 0.001)
}

func TestShrinkagePoolZeroWhenAtTarget(t *testing.T) {
	params := testParams()
	params.Shrinkage = 0.20
	params.TargetShrinkage = 0.22
	set := pools.Compute(testQueues(), testRoles(), params)
	assert.Zero(t, set.Pools[models.LeverShrinkageReduction].CeilingFTE)
}

func TestLocationPoolScalesByMigratableShare(t *testing.T) {
	set := pools.Compute(testQueues(), testRoles(), testParams())
	p := set.Pools[models.LeverCostReduction]

	assert.Greater(t, p.MigratableShare, 0.0)
	assert.Less(t, p.MigratableShare, 1.0)
	// Both roles are migratable; the ceiling is 1000 × share.
	assert.InDelta(t, 1000*p.MigratableShare, p.CeilingFTE, 0.5)
	assert.Equal(t, 0.35, p.CostArbitrage)
}

func TestConsumeWithinPool(t *testing.T) {
	set := pools.Compute(testQueues(), testRoles(), testParams())
	p := set.Pools[models.LeverDeflection]
	before := p.RemainingFTE

	c := set.Consume(models.LeverDeflection, before/2, 1000, 0)
	assert.False(t, c.Capped)
	assert.False(t, c.UnknownLever)
	assert.InDelta(t, before/2, c.ConsumedFTE, 0.1)
	assert.InDelta(t, before/2, p.RemainingFTE, 0.1)
}

func TestConsumeCappedAtRemaining(t *testing.T) {
	set := pools.Compute(testQueues(), testRoles(), testParams())
	p := set.Pools[models.LeverDeflection]
	ceiling := p.RemainingFTE

	c := set.Consume(models.LeverDeflection, ceiling*3, 0, 0)
	assert.True(t, c.Capped)
	assert.InDelta(t, ceiling, c.ConsumedFTE, 0.1)
	assert.LessOrEqual(t, p.RemainingFTE, 0.1)

	// Second consumer gets nothing.
	c2 := set.Consume(models.LeverDeflection, 10, 0, 0)
	assert.True(t, c2.Capped)
	assert.True(t, c2.PoolExhausted)
	assert.Zero(t, c2.ConsumedFTE)
}

func TestConsumeProportionalDeduction(t *testing.T) {
	set := pools.Compute(testQueues(), testRoles(), testParams())
	p := set.Pools[models.LeverDeflection]
	ceiling := p.RemainingFTE
	contactsBefore := p.RemainingContacts

	// Ask for double the pool with an oversized contact count: contacts are
	// deducted at the cap ratio, not in full.
	c := set.Consume(models.LeverDeflection, ceiling*2, contactsBefore*2, 0)
	assert.True(t, c.Capped)
	assert.InDelta(t, contactsBefore, c.ConsumedContacts, 1.0)
	assert.LessOrEqual(t, p.RemainingContacts, 1.0)
}

func TestConsumeUnknownLeverFailsClosed(t *testing.T) {
	set := pools.Compute(testQueues(), testRoles(), testParams())

	c := set.Consume(models.Lever("growth_hacking"), 50, 0, 0)
	assert.True(t, c.UnknownLever)
	assert.True(t, c.Capped)
	assert.Zero(t, c.ConsumedFTE)
	assert.NotEmpty(t, set.Warnings)

	// No pool was touched.
	for lv, p := range set.Pools {
		assert.Equal(t, p.CeilingFTE, p.RemainingFTE, "%s must be untouched", lv)
	}
}

func TestEmptySetGrantsNothing(t *testing.T) {
	set := pools.Empty()
	assert.Len(t, set.Pools, 7)

	c := set.Consume(models.LeverDeflection, 100, 0, 0)
	assert.Zero(t, c.ConsumedFTE)
	assert.True(t, c.Capped)
}

func TestUtilization(t *testing.T) {
	set := pools.Compute(testQueues(), testRoles(), testParams())
	ceiling := set.Pools[models.LeverDeflection].CeilingFTE
	set.Consume(models.LeverDeflection, ceiling/2, 0, 0)

	u := set.Utilization()[models.LeverDeflection]
	assert.Equal(t, ceiling, u.CeilingFTE)
	assert.InDelta(t, ceiling/2, u.ConsumedFTE, 0.1)
	assert.InDelta(t, 50.0, u.UtilizationPct, 1.0)
}

func TestRepeatFallbackRate(t *testing.T) {
	// Observed repeat rates below the floor switch to the FCR-gap proxy.
	lowRepeat := enrich.Enrich([]models.Queue{{
		Intent: "order status", Channel: "Voice", Volume: 1000,
		FCR: 0.70, RepeatRate: 0.01, Complexity: 0.20,
	}})
	rate, useFallback := pools.RepeatFallbackRate(lowRepeat)
	assert.True(t, useFallback)
	// max(0.05, (1-0.70)*0.60) = 0.18
	assert.InDelta(t, 0.18, rate, 0.001)

	reliable := enrich.Enrich([]models.Queue{{
		Intent: "order status", Channel: "Voice", Volume: 1000,
		FCR: 0.70, RepeatRate: 0.10, Complexity: 0.20,
	}})
	_, useFallback = pools.RepeatFallbackRate(reliable)
	assert.False(t, useFallback)
}

func TestReducibleRepeatsCappedAt70Pct(t *testing.T) {
	// Huge FCR gap: reduction is clipped to 70% of repeats.
	reducible := pools.ReducibleRepeats(10000, 0.10, 0.10, 0.20)
	assert.InDelta(t, 10000*0.10*0.70, reducible, 0.1)

	// FCR already above target: nothing to reduce.
	assert.Zero(t, pools.ReducibleRepeats(10000, 0.10, 0.95, 0.20))
}

func TestPreventableEscalationShare(t *testing.T) {
	assert.InDelta(t, 0.50, pools.PreventableEscalationShare(0.20), 0.001)
	assert.InDelta(t, 0.10, pools.PreventableEscalationShare(1.0), 0.001, "floor at 10%")
}

func TestBreakdownOrdering(t *testing.T) {
	set := pools.Compute(testQueues(), testRoles(), testParams())
	b := set.Pools[models.LeverDeflection].Breakdown
	assert.NotEmpty(t, b)
	for i := 1; i < len(b); i++ {
		assert.GreaterOrEqual(t, b[i-1].Amount, b[i].Amount, "breakdown must be sorted by amount")
	}
}
