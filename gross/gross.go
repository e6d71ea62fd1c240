// Package gross computes the uncapped, lever-specific impact of one
// initiative. Instead of a single generic formula (FTE × impact × adoption),
// each lever has its own physics:
//
//	deflection:  contacts removed → hours saved → FTE
//	aht:         seconds saved per contact × volume → hours → FTE
//	transfer:    transfers avoided × extra time per transfer → FTE
//	escalation:  escalations avoided × full downstream handle time → FTE
//	repeat:      repeat contacts eliminated × AHT → FTE
//	location:    FTE migrated × cost arbitrage (no workload reduction)
//	shrinkage:   shrinkage points recovered × affected FTE
//
// Every branch returns a mechanism string so the derivation is auditable.
package gross

import (
	"fmt"
	"math"

	"contact-waterfall/models"
	"contact-waterfall/pools"
)

// Extra handling time avoided per prevented event. A prevented escalation
// avoids the full L2/L3 handle time; a prevented transfer only the lateral
// re-handling overhead.
const (
	escalationExtraSec = 900 // 15 min
	transferExtraSec   = 180 // 3 min
)

// fallbackCostPerFTE is used when an initiative targets no known roles.
const fallbackCostPerFTE = 55000

// Compute dispatches on the initiative's lever. Queues must already be
// annualized (volume × annualization factor) so gross impacts and pool
// ceilings use identical volume scaling.
func Compute(init models.Initiative, queues []models.EnrichedQueue, roles []models.Role, params models.Params) models.GrossImpact {
	matching := matchingQueues(init, queues)
	affectedFTE, weightedCost := affectedRoles(init, roles)
	netHours := params.NetProductiveHours()

	impact := init.Impact
	adoption := init.Adoption
	if adoption == 0 {
		adoption = 0.80
	}

	switch init.Lever {
	case models.LeverDeflection:
		return deflection(matching, weightedCost, netHours, impact, adoption)
	case models.LeverAHTReduction:
		return ahtReduction(matching, weightedCost, netHours, impact, adoption)
	case models.LeverEscalationReduction:
		return escalation(matching, weightedCost, netHours, impact, adoption)
	case models.LeverTransferReduction:
		return transfer(matching, weightedCost, netHours, impact, adoption)
	case models.LeverRepeatReduction:
		return repeat(matching, weightedCost, netHours, impact, adoption)
	case models.LeverCostReduction:
		return location(matching, affectedFTE, weightedCost, impact, adoption, params)
	case models.LeverShrinkageReduction:
		return shrinkage(affectedFTE, weightedCost, impact, adoption, params)
	}
	return Generic(affectedFTE, weightedCost, impact, adoption)
}

// deflection caps the initiative's stated effectiveness at what is
// physically feasible per intent: effective = eligible × min(impact,
// containment) × adoption. Eligibility is containment-free (set at
// enrichment), so containment is counted exactly once, here.
func deflection(queues []models.EnrichedQueue, cost, netHours, impact, adoption float64) models.GrossImpact {
	var totalDeflected float64
	var detail []string

	for _, q := range queues {
		effectiveRate := q.DeflectionEligiblePct * math.Min(impact, q.ContainmentFeasibility) * adoption
		contacts := q.Volume * effectiveRate
		totalDeflected += contacts
		if contacts > 10 && len(detail) < 5 {
			detail = append(detail, fmt.Sprintf("%s/%s: %.0f × %.1f%% = %.0f",
				q.Intent, q.Channel, q.Volume, effectiveRate*100, contacts))
		}
	}

	avgAHTSec := avgAHTSeconds(queues)
	hoursSaved := totalDeflected * avgAHTSec / 3600
	fte := hoursSaved / math.Max(netHours, 1)

	return models.GrossImpact{
		FTE:      round1(fte),
		Contacts: math.Round(totalDeflected),
		Saving:   math.Round(fte * cost),
		Mechanism: fmt.Sprintf("Deflection: %.0f contacts × %.0fs AHT → %.0f hrs → %.1f FTE",
			totalDeflected, avgAHTSec, hoursSaved, fte),
		MechanismDetail: detail,
		EligibleVolume:  totalVolume(queues),
	}
}

func ahtReduction(queues []models.EnrichedQueue, cost, netHours, impact, adoption float64) models.GrossImpact {
	var totalSeconds float64
	var detail []string

	for _, q := range queues {
		reducibleSec := q.AHTDecomp.ReducibleSec
		if reducibleSec == 0 {
			// Unenriched fallback: 35% of AHT (search + wrap + talk efficiency).
			reducibleSec = q.AHTMinutes * 60 * 0.35
		}
		secondsPerContact := reducibleSec * impact * adoption
		saved := q.Volume * secondsPerContact
		totalSeconds += saved
		if saved > 100 && len(detail) < 5 {
			detail = append(detail, fmt.Sprintf("%s: %.0f × %.1fs = %.0fhrs",
				q.Intent, q.Volume, secondsPerContact, saved/3600))
		}
	}

	hoursSaved := totalSeconds / 3600
	fte := hoursSaved / math.Max(netHours, 1)
	vol := totalVolume(queues)

	return models.GrossImpact{
		FTE:     round1(fte),
		Seconds: math.Round(totalSeconds),
		Saving:  math.Round(fte * cost),
		Mechanism: fmt.Sprintf("AHT: %.0f hrs saved across %.0f contacts → %.1f FTE",
			hoursSaved, vol, fte),
		MechanismDetail: detail,
		EligibleVolume:  vol,
	}
}

func escalation(queues []models.EnrichedQueue, cost, netHours, impact, adoption float64) models.GrossImpact {
	var prevented float64
	for _, q := range queues {
		share := pools.PreventableEscalationShare(q.Complexity)
		prevented += q.Volume * q.EscalationRate * share * impact * adoption
	}

	hoursSaved := prevented * escalationExtraSec / 3600
	fte := hoursSaved / math.Max(netHours, 1)

	return models.GrossImpact{
		FTE:      round1(fte),
		Contacts: math.Round(prevented),
		Saving:   math.Round(fte * cost),
		Mechanism: fmt.Sprintf("Escalation: %.0f prevented × 15min = %.0fhrs → %.1f FTE",
			prevented, hoursSaved, fte),
		EligibleVolume: totalVolume(queues),
	}
}

// transfer uses its own complexity-derived preventable share rather than the
// enrichment's transfer classification; the pool and gross sides were
// deliberately decoupled so an unenriched run still produces a number.
func transfer(queues []models.EnrichedQueue, cost, netHours, impact, adoption float64) models.GrossImpact {
	var prevented float64
	for _, q := range queues {
		share := math.Max(0.15, 0.55-q.Complexity*0.40)
		prevented += q.Volume * q.TransferRate * share * impact * adoption
	}

	hoursSaved := prevented * transferExtraSec / 3600
	fte := hoursSaved / math.Max(netHours, 1)

	return models.GrossImpact{
		FTE:      round1(fte),
		Contacts: math.Round(prevented),
		Saving:   math.Round(fte * cost),
		Mechanism: fmt.Sprintf("Transfer: %.0f prevented × 3min = %.0fhrs → %.1f FTE",
			prevented, hoursSaved, fte),
		EligibleVolume: totalVolume(queues),
	}
}

func repeat(queues []models.EnrichedQueue, cost, netHours, impact, adoption float64) models.GrossImpact {
	fallbackRate, useFallback := pools.RepeatFallbackRate(queues)

	var eliminated float64
	for _, q := range queues {
		repeatRate := q.RepeatRate
		if useFallback {
			repeatRate = fallbackRate
		}
		eliminable := q.Volume * repeatRate * impact * adoption
		// Some recontacts are legitimate; at most 70% of repeats are fixable.
		eliminable = math.Min(eliminable, q.Volume*repeatRate*0.70)
		eliminated += eliminable
	}

	avgAHTSec := avgAHTSeconds(queues)
	hoursSaved := eliminated * avgAHTSec / 3600
	fte := hoursSaved / math.Max(netHours, 1)

	mechanism := fmt.Sprintf("Repeat: %.0f contacts eliminated → %.0fhrs → %.1f FTE",
		eliminated, hoursSaved, fte)
	if useFallback {
		mechanism += fmt.Sprintf(" (using FCR-derived %.0f%% rate — raw data too sparse)", fallbackRate*100)
	}

	return models.GrossImpact{
		FTE:            round1(fte),
		Contacts:       math.Round(eliminated),
		Saving:         math.Round(fte * cost),
		Mechanism:      mechanism,
		EligibleVolume: totalVolume(queues),
	}
}

// location moves people, not work: gross FTE stays zero and only the cost
// saving is reported.
func location(queues []models.EnrichedQueue, affectedFTE, cost, impact, adoption float64, params models.Params) models.GrossImpact {
	var migratableShare float64
	if vol := totalVolume(queues); vol > 0 {
		var migratable float64
		for _, q := range queues {
			migratable += q.Volume * q.MigrationReadiness
		}
		migratableShare = migratable / vol
	}

	migrated := affectedFTE * migratableShare * impact * adoption
	saving := migrated * cost * params.LocationArbitrage

	return models.GrossImpact{
		Saving:      math.Round(saving),
		FTEMigrated: round1(migrated),
		Mechanism: fmt.Sprintf("Location: %.1f FTE migrated × %.0f%% arbitrage = $%.0f/yr",
			migrated, params.LocationArbitrage*100, saving),
		EligibleVolume: totalVolume(queues),
		IsLocation:     true,
	}
}

func shrinkage(affectedFTE, cost, impact, adoption float64, params models.Params) models.GrossImpact {
	reduction := params.Shrinkage * impact * adoption
	maxReduction := math.Max(0, params.Shrinkage-params.TargetShrinkage)
	reduction = math.Min(reduction, maxReduction)

	freed := affectedFTE * reduction
	return models.GrossImpact{
		FTE:    round1(freed),
		Saving: math.Round(freed * cost),
		Mechanism: fmt.Sprintf("Shrinkage: %.1f%% reduction on %.0f FTE → %.1f FTE",
			reduction*100, affectedFTE, freed),
	}
}

// Generic is the conservative fallback for unknown levers and for
// initiatives whose lever-specific computation failed: a 25% haircut on the
// raw impact (pools provide the primary ceiling).
func Generic(affectedFTE, cost, impact, adoption float64) models.GrossImpact {
	fte := affectedFTE * impact * adoption * 0.75
	return models.GrossImpact{
		FTE:    round1(fte),
		Saving: math.Round(fte * cost),
		Mechanism: fmt.Sprintf("Generic: %.0f FTE × %.0f%% × %.0f%% × 75%% haircut = %.1f FTE",
			affectedFTE, impact*100, adoption*100, fte),
	}
}

func matchingQueues(init models.Initiative, queues []models.EnrichedQueue) []models.EnrichedQueue {
	channels := make(map[string]bool, len(init.Channels))
	for _, ch := range init.Channels {
		channels[ch] = true
	}
	var matching []models.EnrichedQueue
	for _, q := range queues {
		if channels[q.Channel] {
			matching = append(matching, q)
		}
	}
	if len(matching) == 0 {
		return queues // no channel overlap: fall back to the whole book
	}
	return matching
}

// AffectedRoles returns the headcount an initiative touches and its
// headcount-weighted cost per FTE.
func affectedRoles(init models.Initiative, roles []models.Role) (fte, weightedCost float64) {
	targets := make(map[string]bool, len(init.Roles))
	for _, name := range init.Roles {
		targets[name] = true
	}
	var cost float64
	for _, r := range roles {
		if targets[r.Name] {
			fte += r.Headcount
			cost += r.Headcount * r.CostPerFTE
		}
	}
	if fte == 0 {
		return 0, fallbackCostPerFTE
	}
	return fte, cost / fte
}

func totalVolume(queues []models.EnrichedQueue) float64 {
	var vol float64
	for _, q := range queues {
		vol += q.Volume
	}
	return vol
}

func avgAHTSeconds(queues []models.EnrichedQueue) float64 {
	var weighted, vol float64
	for _, q := range queues {
		weighted += q.AHTMinutes * 60 * q.Volume
		vol += q.Volume
	}
	return weighted / math.Max(vol, 1)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
