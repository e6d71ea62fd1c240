package waterfall

import (
	"math"
	"sort"

	"contact-waterfall/models"
	"contact-waterfall/pools"
)

// Per-lever FTE reduction caps, benchmarked to realistic transformation
// levels: no single initiative removes more than this share of the FTE it
// touches, regardless of pool headroom.
var initiativeFTECaps = map[models.Lever]float64{
	models.LeverDeflection:          0.18,
	models.LeverAHTReduction:        0.12,
	models.LeverEscalationReduction: 0.10,
	models.LeverTransferReduction:   0.12,
	models.LeverRepeatReduction:     0.12,
	models.LeverShrinkageReduction:  0.10,
	models.LeverCostReduction:       0.15,
}

const (
	defaultLeverCap = 0.12
	// absoluteSingleInitCap: no single initiative removes more than 20% of
	// the FTE it touches.
	absoluteSingleInitCap = 0.20
	// perRoleMaxReduction: no role loses more than 45% of its headcount
	// across the entire cascade.
	perRoleMaxReduction = 0.45
)

// roleLedger tracks one role's baseline, running allocation and per-year
// phased reduction during the cascade.
type roleLedger struct {
	baseline  float64
	cost      float64
	allocated float64 // cumulative across all initiatives so far
	yearly    []float64
}

// allocCtx is the single allocation context threaded through the cascade by
// pointer: remaining pool capacity and role headroom are always explicit
// inputs and outputs of each step, never ambient state.
type allocCtx struct {
	pools   *pools.Set
	ledger  map[string]*roleLedger
	horizon int
	audit   []models.AuditEntry
}

func newAllocCtx(ps *pools.Set, roles []models.Role, horizon int) *allocCtx {
	ledger := make(map[string]*roleLedger, len(roles))
	for _, r := range roles {
		ledger[r.Name] = &roleLedger{
			baseline: r.Headcount,
			cost:     r.CostPerFTE,
			yearly:   make([]float64, horizon),
		}
	}
	return &allocCtx{pools: ps, ledger: ledger, horizon: horizon}
}

// roleHeadroom is the FTE still allocatable across the given roles before
// any of them hits the 45% cap.
func (c *allocCtx) roleHeadroom(affected []models.Role) float64 {
	var avail float64
	for _, r := range affected {
		l := c.ledger[r.Name]
		avail += math.Max(0, l.baseline*perRoleMaxReduction-l.allocated)
	}
	return avail
}

// distribute adds a netted reduction to the affected roles pro-rata by
// headcount share, both to the running allocation and to each phased year.
func (c *allocCtx) distribute(affected []models.Role, totalAffected, red float64, factors []float64) {
	for _, r := range affected {
		share := r.Headcount / totalAffected
		l := c.ledger[r.Name]
		l.allocated += red * share
		for yr := 0; yr < c.horizon && yr < len(factors); yr++ {
			l.yearly[yr] += red * factors[yr] * share
		}
	}
}

// clampYearly enforces the per-role cap on the phased yearly values. The
// running-allocation check already prevents overshoot; this guards the
// invariant against rounding drift.
func (c *allocCtx) clampYearly() {
	for _, l := range c.ledger {
		cap := l.baseline * perRoleMaxReduction
		for i, v := range l.yearly {
			l.yearly[i] = math.Min(v, cap)
		}
	}
}

// roleImpactRaw exports the ledger at full precision for the financial
// roll-up.
func (c *allocCtx) roleImpactRaw() map[string]models.RoleImpact {
	out := make(map[string]models.RoleImpact, len(c.ledger))
	for name, l := range c.ledger {
		yearly := make([]float64, len(l.yearly))
		copy(yearly, l.yearly)
		out[name] = models.RoleImpact{Baseline: l.baseline, Yearly: yearly}
	}
	return out
}

// roleImpact exports the ledger in output form, yearly values rounded to
// whole FTE.
func (c *allocCtx) roleImpact() map[string]models.RoleImpact {
	out := make(map[string]models.RoleImpact, len(c.ledger))
	for name, l := range c.ledger {
		yearly := make([]float64, len(l.yearly))
		for i, v := range l.yearly {
			yearly[i] = math.Round(v)
		}
		out[name] = models.RoleImpact{Baseline: l.baseline, Yearly: yearly}
	}
	return out
}

func leverCap(lever models.Lever) float64 {
	if cap, ok := initiativeFTECaps[lever]; ok {
		return cap
	}
	return defaultLeverCap
}

// sortForCascade orders enabled initiatives deterministically: layer
// (AI & Automation → Operating Model → Location Strategy), then lever
// priority, then score descending, with ID as the final tiebreak. The most
// valuable, earliest-executing levers claim pool capacity first, matching
// how a transformation program actually sequences.
func sortForCascade(enabled []models.Initiative) []models.Initiative {
	layerOrder := map[string]int{
		"AI & Automation":   0,
		"Operating Model":   1,
		"Location Strategy": 2,
	}
	sorted := make([]models.Initiative, len(enabled))
	copy(sorted, enabled)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		la, aok := layerOrder[a.Layer]
		lb, bok := layerOrder[b.Layer]
		if !aok {
			la = 9
		}
		if !bok {
			lb = 9
		}
		if la != lb {
			return la < lb
		}
		if a.Lever.CascadeOrder() != b.Lever.CascadeOrder() {
			return a.Lever.CascadeOrder() < b.Lever.CascadeOrder()
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.ID < b.ID
	})
	return sorted
}
