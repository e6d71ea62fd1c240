// Package pools computes the finite opportunity ceiling for each benefit
// lever from enriched queue data, and tracks consumption of those ceilings
// during the waterfall cascade. A pool is a hard cap: netting can never
// grant more than what remains.
package pools

import (
	"fmt"
	"math"
	"sort"

	"contact-waterfall/models"
)

// Extra handling time per prevented event, used to convert event counts to
// hours at pool-ceiling time.
const (
	transferExtraSec   = 180 // 3 min per unnecessary transfer
	escalationExtraSec = 300 // 5 min per unnecessary escalation
)

// repeatRateFloor marks observed repeat rates as unreliable. Short CCaaS
// sampling windows under-report repeats (a customer rarely calls twice in
// one month), so below this the FCR gap stands in for the repeat rate.
const repeatRateFloor = 0.02

// breakdownLimit caps the audit breakdown per pool to the top contributors.
const breakdownLimit = 20

// migratableRoles are the only roles that can move to lower-cost locations.
var migratableRoles = map[string]bool{
	"Agent L1":                 true,
	"Agent L2 / Specialist":    true,
	"Back-Office / Processing": true,
}

// Set holds the computed pools plus the mutable remaining state consumed by
// the cascade. It is rebuilt fresh for every run.
type Set struct {
	Pools    map[models.Lever]*models.Pool
	Summary  models.PoolSummary
	Warnings []string
}

// Consumption reports what a single Consume call actually granted.
type Consumption struct {
	ConsumedFTE      float64
	ConsumedContacts float64
	ConsumedSeconds  float64
	PoolRemainingFTE float64
	Capped           bool
	PoolExhausted    bool
	UnknownLever     bool
}

// Compute builds all opportunity pools from enriched queues. It is a pure
// function of its inputs: identical inputs yield identical ceilings.
//
// Params.VolumeAnnualizationFactor must already be set (ApplyDefaults gives
// 12 for monthly extracts); it is never inferred from capacity.
func Compute(enriched []models.EnrichedQueue, roles []models.Role, params models.Params) *Set {
	annualization := params.VolumeAnnualizationFactor
	netProdHours := params.NetProductiveHours()

	var totalVolume, totalFTE float64
	for _, q := range enriched {
		totalVolume += q.Volume * annualization
	}
	for _, r := range roles {
		totalFTE += r.Headcount
	}

	weightedCost := weightedCostPerFTE(roles, 55000)

	// Volume-weighted average handle time, used to convert contact counts to
	// hours for the deflection and repeat pools.
	var ahtWeighted float64
	for _, q := range enriched {
		ahtWeighted += q.AHTMinutes * 60 * q.Volume * annualization
	}
	avgAHTSec := ahtWeighted / math.Max(totalVolume, 1)

	set := &Set{Pools: make(map[models.Lever]*models.Pool, 7)}

	set.Pools[models.LeverDeflection] = deflectionPool(enriched, annualization, totalVolume, avgAHTSec, netProdHours, weightedCost)
	set.Pools[models.LeverAHTReduction] = ahtPool(enriched, annualization, netProdHours, weightedCost)
	set.Pools[models.LeverTransferReduction] = transferPool(enriched, annualization, netProdHours, weightedCost)
	set.Pools[models.LeverEscalationReduction] = escalationPool(enriched, annualization, netProdHours, weightedCost)
	set.Pools[models.LeverRepeatReduction] = repeatPool(enriched, annualization, totalVolume, avgAHTSec, netProdHours, weightedCost)
	set.Pools[models.LeverCostReduction] = locationPool(enriched, roles, params, annualization, totalVolume, weightedCost)
	set.Pools[models.LeverShrinkageReduction] = shrinkagePool(totalFTE, params, weightedCost)

	var poolFTE, poolSaving float64
	for _, p := range set.Pools {
		poolFTE += p.CeilingFTE
		poolSaving += p.CeilingSaving
	}
	set.Summary = models.PoolSummary{
		TotalPoolFTE:       round1(poolFTE),
		TotalPoolSaving:    math.Round(poolSaving),
		TotalFTE:           totalFTE,
		TotalVolume:        totalVolume,
		NetProductiveHrs:   round1(netProdHours),
		WeightedCostPerFTE: math.Round(weightedCost),
		Shrinkage:          round3(params.Shrinkage),
		Annualization:      annualization,
	}
	return set
}

// Consume nets a request against the remaining pool for the lever. The
// grant is capped at remaining FTE; contacts, seconds and saving are
// deducted proportionally by the cap ratio. Unknown levers fail closed:
// zero consumption and a recorded warning, never a guess.
func (s *Set) Consume(lever models.Lever, fte, contacts, seconds float64) Consumption {
	pool, ok := s.Pools[lever]
	if !ok {
		s.Warnings = append(s.Warnings, fmt.Sprintf("consume: unknown lever %q, nothing granted", lever))
		return Consumption{Capped: true, UnknownLever: true}
	}

	if pool.RemainingFTE <= 0 {
		return Consumption{Capped: true, PoolExhausted: true}
	}

	actualFTE := math.Min(fte, pool.RemainingFTE)
	capRatio := actualFTE / math.Max(fte, 0.001)

	pool.RemainingFTE = round1(pool.RemainingFTE - actualFTE)
	if pool.CeilingContacts > 0 && contacts > 0 {
		pool.RemainingContacts = math.Max(0, math.Round(pool.RemainingContacts-contacts*capRatio))
	}
	if pool.CeilingSeconds > 0 && seconds > 0 {
		pool.RemainingSeconds = math.Max(0, math.Round(pool.RemainingSeconds-seconds*capRatio))
	}
	if pool.CeilingSaving > 0 {
		perFTE := pool.CeilingSaving / math.Max(pool.CeilingFTE, 0.1)
		pool.RemainingSaving = math.Max(0, math.Round(pool.RemainingSaving-actualFTE*perFTE))
	}

	return Consumption{
		ConsumedFTE:      round1(actualFTE),
		ConsumedContacts: math.Round(contacts * capRatio),
		ConsumedSeconds:  math.Round(seconds * capRatio),
		PoolRemainingFTE: pool.RemainingFTE,
		Capped:           capRatio < 0.95,
		PoolExhausted:    pool.RemainingFTE <= 0.5,
	}
}

// Utilization reports ceiling/consumed/remaining per lever.
func (s *Set) Utilization() map[models.Lever]models.PoolUtilization {
	out := make(map[models.Lever]models.PoolUtilization, len(s.Pools))
	for lever, p := range s.Pools {
		consumed := p.CeilingFTE - p.RemainingFTE
		out[lever] = models.PoolUtilization{
			CeilingFTE:     p.CeilingFTE,
			ConsumedFTE:    round1(consumed),
			RemainingFTE:   round1(p.RemainingFTE),
			UtilizationPct: round1(consumed / math.Max(p.CeilingFTE, 0.1) * 100),
		}
	}
	return out
}

// Empty returns a pool set whose ceilings are all zero. Used when pool
// computation fails: every initiative nets to zero, which under-counts but
// never over-grants.
func Empty() *Set {
	set := &Set{Pools: make(map[models.Lever]*models.Pool, 7)}
	for _, lever := range []models.Lever{
		models.LeverDeflection, models.LeverAHTReduction,
		models.LeverTransferReduction, models.LeverEscalationReduction,
		models.LeverRepeatReduction, models.LeverCostReduction,
		models.LeverShrinkageReduction,
	} {
		set.Pools[lever] = &models.Pool{Lever: lever, Unit: "fte"}
	}
	return set
}

// ── Individual pool builders ──

// deflectionPool: achievable self-service ceiling, not just eligible
// contacts — eligibility is multiplied by containment feasibility.
func deflectionPool(enriched []models.EnrichedQueue, ann, totalVolume, avgAHTSec, netProdHours, weightedCost float64) *models.Pool {
	var contacts float64
	var breakdown []models.PoolContribution
	for _, q := range enriched {
		annualVol := q.Volume * ann
		achievable := annualVol * q.DeflectionEligiblePct * q.ContainmentFeasibility
		if achievable > 0 {
			breakdown = append(breakdown, models.PoolContribution{
				Intent: q.Intent, Channel: q.Channel, Volume: annualVol,
				Amount: math.Round(achievable),
			})
		}
		contacts += achievable
	}

	fte := contactsToFTE(contacts, avgAHTSec, netProdHours)
	return &models.Pool{
		Lever:             models.LeverDeflection,
		Unit:              "contacts",
		CeilingContacts:   math.Round(contacts),
		RemainingContacts: math.Round(contacts),
		CeilingPct:        round4(contacts / math.Max(totalVolume, 1)),
		CeilingFTE:        round1(fte),
		RemainingFTE:      round1(fte),
		CeilingSaving:     math.Round(fte * weightedCost),
		RemainingSaving:   math.Round(fte * weightedCost),
		Breakdown:         topContributors(breakdown),
	}
}

func ahtPool(enriched []models.EnrichedQueue, ann, netProdHours, weightedCost float64) *models.Pool {
	var seconds float64
	var breakdown []models.PoolContribution
	for _, q := range enriched {
		annualVol := q.Volume * ann
		volReducible := annualVol * q.AHTDecomp.ReducibleSec
		if volReducible > 0 {
			breakdown = append(breakdown, models.PoolContribution{
				Intent: q.Intent, Channel: q.Channel, Volume: annualVol,
				Amount: round1(volReducible / 3600), // hours
			})
		}
		seconds += volReducible
	}

	fte := seconds / 3600 / math.Max(netProdHours, 1)
	return &models.Pool{
		Lever:            models.LeverAHTReduction,
		Unit:             "seconds",
		CeilingSeconds:   math.Round(seconds),
		RemainingSeconds: math.Round(seconds),
		CeilingFTE:       round1(fte),
		RemainingFTE:     round1(fte),
		CeilingSaving:    math.Round(fte * weightedCost),
		RemainingSaving:  math.Round(fte * weightedCost),
		Breakdown:        topContributors(breakdown),
	}
}

func transferPool(enriched []models.EnrichedQueue, ann, netProdHours, weightedCost float64) *models.Pool {
	var prevented float64
	var breakdown []models.PoolContribution
	for _, q := range enriched {
		annualVol := q.Volume * ann
		prev := annualVol * q.TransferClass.PreventableRate
		if prev > 0 {
			breakdown = append(breakdown, models.PoolContribution{
				Intent: q.Intent, Channel: q.Channel, Volume: annualVol,
				Amount: math.Round(prev),
			})
		}
		prevented += prev
	}

	fte := prevented * transferExtraSec / 3600 / math.Max(netProdHours, 1)
	return &models.Pool{
		Lever:             models.LeverTransferReduction,
		Unit:              "transfers",
		CeilingContacts:   math.Round(prevented),
		RemainingContacts: math.Round(prevented),
		CeilingFTE:        round1(fte),
		RemainingFTE:      round1(fte),
		CeilingSaving:     math.Round(fte * weightedCost),
		RemainingSaving:   math.Round(fte * weightedCost),
		Breakdown:         topContributors(breakdown),
	}
}

func escalationPool(enriched []models.EnrichedQueue, ann, netProdHours, weightedCost float64) *models.Pool {
	var prevented float64
	var breakdown []models.PoolContribution
	for _, q := range enriched {
		annualVol := q.Volume * ann
		prev := annualVol * q.EscalationRate * PreventableEscalationShare(q.Complexity)
		if prev > 0 {
			breakdown = append(breakdown, models.PoolContribution{
				Intent: q.Intent, Channel: q.Channel, Volume: annualVol,
				Amount: math.Round(prev),
			})
		}
		prevented += prev
	}

	fte := prevented * escalationExtraSec / 3600 / math.Max(netProdHours, 1)
	return &models.Pool{
		Lever:             models.LeverEscalationReduction,
		Unit:              "escalations",
		CeilingContacts:   math.Round(prevented),
		RemainingContacts: math.Round(prevented),
		CeilingFTE:        round1(fte),
		RemainingFTE:      round1(fte),
		CeilingSaving:     math.Round(fte * weightedCost),
		RemainingSaving:   math.Round(fte * weightedCost),
		Breakdown:         topContributors(breakdown),
	}
}

func repeatPool(enriched []models.EnrichedQueue, ann, totalVolume, avgAHTSec, netProdHours, weightedCost float64) *models.Pool {
	fallbackRepeat, useFallback := RepeatFallbackRate(enriched)

	var contacts float64
	var breakdown []models.PoolContribution
	for _, q := range enriched {
		annualVol := q.Volume * ann
		repeatRate := q.RepeatRate
		if useFallback {
			repeatRate = fallbackRepeat
		}
		reducible := ReducibleRepeats(annualVol, repeatRate, q.FCR, q.Complexity)
		if reducible > 0 {
			breakdown = append(breakdown, models.PoolContribution{
				Intent: q.Intent, Channel: q.Channel, Volume: annualVol,
				Amount: math.Round(reducible),
			})
		}
		contacts += reducible
	}

	fte := contactsToFTE(contacts, avgAHTSec, netProdHours)
	return &models.Pool{
		Lever:             models.LeverRepeatReduction,
		Unit:              "contacts",
		CeilingContacts:   math.Round(contacts),
		RemainingContacts: math.Round(contacts),
		CeilingFTE:        round1(fte),
		RemainingFTE:      round1(fte),
		CeilingSaving:     math.Round(fte * weightedCost),
		RemainingSaving:   math.Round(fte * weightedCost),
		Breakdown:         topContributors(breakdown),
	}
}

// locationPool sizes the migratable FTE and its arbitrage saving. The
// location lever changes cost per FTE, not headcount, so its "saving" is
// the primary ceiling and FTE is the migration volume cap.
func locationPool(enriched []models.EnrichedQueue, roles []models.Role, params models.Params, ann, totalVolume, weightedCost float64) *models.Pool {
	var migratableVol float64
	for _, q := range enriched {
		migratableVol += q.Volume * ann * q.MigrationReadiness
	}
	migratableShare := migratableVol / math.Max(totalVolume, 1)

	var migratableFTE float64
	for _, r := range roles {
		if migratableRoles[r.Name] {
			migratableFTE += r.Headcount
		}
	}
	adjusted := migratableFTE * migratableShare
	saving := adjusted * weightedCost * params.LocationArbitrage

	return &models.Pool{
		Lever:           models.LeverCostReduction,
		Unit:            "fte",
		CeilingFTE:      round1(adjusted),
		RemainingFTE:    round1(adjusted),
		CeilingSaving:   math.Round(saving),
		RemainingSaving: math.Round(saving),
		MigratableShare: round3(migratableShare),
		CostArbitrage:   params.LocationArbitrage,
	}
}

func shrinkagePool(totalFTE float64, params models.Params, weightedCost float64) *models.Pool {
	gap := math.Max(0, params.Shrinkage-params.TargetShrinkage)
	fte := totalFTE * gap

	return &models.Pool{
		Lever:            models.LeverShrinkageReduction,
		Unit:             "fte",
		CeilingFTE:       round1(fte),
		RemainingFTE:     round1(fte),
		CeilingSaving:    math.Round(fte * weightedCost),
		RemainingSaving:  math.Round(fte * weightedCost),
		CurrentShrinkage: round3(params.Shrinkage),
		TargetShrinkage:  round3(params.TargetShrinkage),
		ShrinkageGap:     round3(gap),
	}
}

// ── Shared formula helpers (also used by the gross impact calculator) ──

// PreventableEscalationShare: inverse of complexity with a 10% floor.
func PreventableEscalationShare(complexity float64) float64 {
	return math.Max(0.10, 0.60-complexity*0.50)
}

// RepeatFallbackRate returns the FCR-derived repeat rate and whether it
// should replace observed repeat rates (volume-weighted repeat below the
// reliability floor).
func RepeatFallbackRate(enriched []models.EnrichedQueue) (float64, bool) {
	var totalVol, weightedRepeat, weightedFCR float64
	for _, q := range enriched {
		totalVol += q.Volume
		weightedRepeat += q.RepeatRate * q.Volume
		weightedFCR += q.FCR * q.Volume
	}
	if totalVol == 0 {
		return 0, false
	}
	if weightedRepeat/totalVol >= repeatRateFloor {
		return 0, false
	}
	// Not every non-FCR contact is a repeat; 60% is the industry proxy.
	return math.Max(0.05, (1-weightedFCR/totalVol)*0.60), true
}

// ReducibleRepeats: repeats fixable by closing the FCR gap, capped at 70% of
// the queue's repeats (some recontacts are legitimate).
func ReducibleRepeats(volume, repeatRate, fcr, complexity float64) float64 {
	fcrTarget := 0.90 - complexity*0.15
	fcrGap := math.Max(0, fcrTarget-fcr)
	reducible := volume * repeatRate * math.Min(1.0, fcrGap/math.Max(repeatRate, 0.01))
	return math.Min(reducible, volume*repeatRate*0.70)
}

func contactsToFTE(contacts, avgAHTSec, netProdHours float64) float64 {
	hours := contacts * avgAHTSec / 3600
	return hours / math.Max(netProdHours, 1)
}

func weightedCostPerFTE(roles []models.Role, fallback float64) float64 {
	var totalFTE, totalCost float64
	for _, r := range roles {
		totalFTE += r.Headcount
		totalCost += r.Headcount * r.CostPerFTE
	}
	if totalFTE == 0 {
		return fallback
	}
	return totalCost / totalFTE
}

func topContributors(breakdown []models.PoolContribution) []models.PoolContribution {
	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].Amount != breakdown[j].Amount {
			return breakdown[i].Amount > breakdown[j].Amount
		}
		return breakdown[i].Intent < breakdown[j].Intent
	})
	if len(breakdown) > breakdownLimit {
		breakdown = breakdown[:breakdownLimit]
	}
	return breakdown
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
