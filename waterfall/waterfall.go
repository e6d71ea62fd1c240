// Package waterfall runs the transformation cascade: enriched queues feed
// finite opportunity pools, enabled initiatives consume them in
// deterministic order under safety caps, and the netted reductions roll up
// into a phased financial projection.
package waterfall

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"contact-waterfall/enrich"
	"contact-waterfall/finance"
	"contact-waterfall/gross"
	"contact-waterfall/models"
	"contact-waterfall/pools"
)

// RunCore executes one full cascade over the given inputs. It is a pure
// function of Inputs: it never mutates its arguments and carries no state
// between calls, so the orchestrator can invoke it any number of times
// with perturbed copies. Every fallback taken is recorded in
// RunResult.Degraded rather than absorbed silently.
func RunCore(in models.Inputs) *models.RunResult {
	params := in.Params
	params.ApplyDefaults()
	horizon := params.HorizonYears
	totalFTE := in.TotalFTE()

	res := &models.RunResult{RunID: uuid.NewString()}

	enriched := enrich.Enrich(in.Queues)
	res.IntentSummary = enrich.Summary(enriched)

	ps := computePools(enriched, in.Roles, params, res)
	res.PoolSummary = ps.Summary

	// Gross impact and pools must see identical volume scaling, so the
	// queue copies handed to the physics are annualized with the same
	// factor the pools used.
	annualQueues := make([]models.EnrichedQueue, len(enriched))
	copy(annualQueues, enriched)
	for i := range annualQueues {
		annualQueues[i].Volume = math.Round(annualQueues[i].Volume * params.VolumeAnnualizationFactor)
	}

	var enabled []models.Initiative
	for _, init := range in.Initiatives {
		if init.Enabled {
			enabled = append(enabled, init)
		}
	}
	sorted := sortForCascade(enabled)

	ctx := newAllocCtx(ps, in.Roles, horizon)
	outcomes := make([]models.Outcome, 0, len(sorted))
	locationYearly := make([]float64, horizon)

	for _, init := range sorted {
		affected, totAff := affectedRoles(init, in.Roles)
		if totAff == 0 {
			outcomes = append(outcomes, models.Outcome{
				ID: init.ID, Name: init.Name, Layer: init.Layer, Lever: init.Lever,
				Mechanism: "No affected roles",
			})
			continue
		}

		g := computeGross(init, annualQueues, in.Roles, params, affected, totAff, res)

		if g.IsLocation {
			outcomes = append(outcomes, runLocation(init, g, ctx, in.Queues, locationYearly))
			continue
		}

		outcomes = append(outcomes, runInitiative(init, g, ctx, affected, totAff, in.Queues))
	}

	ctx.clampYearly()
	res.Degraded = append(res.Degraded, ps.Warnings...)
	res.RoleImpact = ctx.roleImpact()
	res.AuditTrail = ctx.audit
	res.Utilization = ps.Utilization()
	res.Pools = ps.Pools

	proj := finance.Project(in.Roles, ctx.roleImpactRaw(), locationYearly, params, totalFTE)
	res.Yearly = proj.Yearly
	res.TotalNPV = math.Round(proj.TotalNPV)
	res.TotalSaving = math.Round(proj.TotalSaving)
	res.TotalReduction = proj.TotalReduction

	inv := finance.SizeInvestment(enabled, in.Tech, params, totalFTE)
	res.InvestmentItems = inv.Items
	res.InvestmentYearly = inv.Yearly
	res.InvestmentSummary = inv.Summary
	res.TotalInvestment = inv.Total

	if inv.Total > 0 {
		res.ROIPct = round1((res.TotalNPV - inv.Total) / math.Max(inv.Total, 1) * 100)
		res.ROIGrossPct = round1((res.TotalSaving - inv.Total) / math.Max(inv.Total, 1) * 100)
	}
	// Payback against the steady-state year, not the ramping first year.
	if n := len(proj.Yearly); n > 0 {
		if steady := proj.Yearly[n-1].AnnualSaving; steady > 0 {
			res.PaybackMonths = round1(inv.Total / steady * 12)
		}
	}
	cashflows := make([]float64, 0, horizon+1)
	cashflows = append(cashflows, -inv.Total)
	for _, y := range proj.Yearly {
		cashflows = append(cashflows, y.AnnualSaving)
	}
	res.IRRPct = finance.IRR(cashflows)

	applyContributions(outcomes)
	res.Outcomes = outcomes
	res.LayerFTE, res.LayerSaving = layerRollup(outcomes)

	return res
}

// computePools builds the pool set, falling back to a zero-ceiling set
// (every later consumption nets to zero) if pool construction panics on
// degenerate input.
func computePools(enriched []models.EnrichedQueue, roles []models.Role, params models.Params, res *models.RunResult) (ps *pools.Set) {
	defer func() {
		if r := recover(); r != nil {
			ps = pools.Empty()
			res.Degraded = append(res.Degraded, fmt.Sprintf("pool computation failed (%v); all pools zeroed", r))
		}
	}()
	return pools.Compute(enriched, roles, params)
}

// computeGross evaluates the lever physics, replacing a panicking lever
// with the generic haircut formula and flagging the run as degraded.
func computeGross(init models.Initiative, queues []models.EnrichedQueue, roles []models.Role, params models.Params, affected []models.Role, totAff float64, res *models.RunResult) (g models.GrossImpact) {
	defer func() {
		if r := recover(); r != nil {
			var weightedCost float64
			for _, ro := range affected {
				weightedCost += ro.Headcount * ro.CostPerFTE
			}
			weightedCost /= math.Max(totAff, 1)
			adoption := init.Adoption
			if adoption == 0 {
				adoption = 0.80
			}
			g = gross.Generic(totAff, weightedCost, init.Impact, adoption)
			res.Degraded = append(res.Degraded, fmt.Sprintf("gross impact for %s failed (%v); generic formula used", init.ID, r))
		}
	}()
	return gross.Compute(init, queues, roles, params)
}

// runLocation handles cost-arbitrage initiatives: they consume the
// location pool to prevent over-migration, produce time-phased cost
// savings, and never touch the role ledger. FTEImpact stays zero.
func runLocation(init models.Initiative, g models.GrossImpact, ctx *allocCtx, rawQueues []models.Queue, locationYearly []float64) models.Outcome {
	startM, benefitEnd, rampM := schedule(init)
	factors := YearlyFactors(startM, benefitEnd, ctx.horizon, rampM)

	migrated := g.FTEMigrated
	saving := g.Saving
	poolCapped := false

	if migrated > 0 {
		c := ctx.pools.Consume(models.LeverCostReduction, migrated, 0, 0)
		poolCapped = c.Capped
		if c.ConsumedFTE < migrated {
			saving *= c.ConsumedFTE / migrated
			migrated = c.ConsumedFTE
		}
	}
	saving = math.Round(saving)

	for yr := 0; yr < ctx.horizon && yr < len(factors); yr++ {
		locationYearly[yr] += saving * factors[yr]
	}

	ctx.audit = append(ctx.audit, models.AuditEntry{
		ID: init.ID, Name: init.Name, Lever: init.Lever,
		Saving: saving, Mechanism: g.Mechanism, PoolCapped: poolCapped,
	})

	return models.Outcome{
		ID: init.ID, Name: init.Name, Layer: init.Layer, Lever: init.Lever,
		AnnualSaving:      saving,
		Mechanism:         g.Mechanism,
		GrossSaving:       g.Saving,
		PoolConsumed:      round1(migrated),
		PoolCapped:        poolCapped,
		YearlyFactors:     factors,
		StartMonth:        startM,
		EndMonth:          endMonth(benefitEnd, ctx.horizon),
		RampCompleteMonth: startM + rampM,
		LinkedQueues:      linkedQueues(init, rawQueues),
	}
}

// runInitiative nets one workload initiative against its pool and the
// safety caps, then phases the result onto the affected roles.
func runInitiative(init models.Initiative, g models.GrossImpact, ctx *allocCtx, affected []models.Role, totAff float64, rawQueues []models.Queue) models.Outcome {
	c := ctx.pools.Consume(init.Lever, g.FTE, g.Contacts, g.Seconds)
	netFTE := c.ConsumedFTE
	if c.UnknownLever {
		ctx.audit = append(ctx.audit, models.AuditEntry{
			ID: init.ID, Name: init.Name, Lever: init.Lever,
			GrossFTE: round1(g.FTE), Mechanism: "Unknown lever: no benefit granted",
			UnknownLever: true,
		})
		return models.Outcome{
			ID: init.ID, Name: init.Name, Layer: init.Layer, Lever: init.Lever,
			GrossFTE: round1(g.FTE), Mechanism: "Unknown lever: no benefit granted",
		}
	}

	red := math.Min(netFTE, leverCap(init.Lever)*totAff)
	red = math.Min(red, absoluteSingleInitCap*totAff)
	red = math.Min(red, ctx.roleHeadroom(affected))
	red = math.Max(0, red)

	startM, benefitEnd, rampM := schedule(init)
	factors := YearlyFactors(startM, benefitEnd, ctx.horizon, rampM)
	ctx.distribute(affected, totAff, red, factors)

	var weightedCost float64
	for _, r := range affected {
		weightedCost += r.Headcount * r.CostPerFTE
	}
	weightedCost /= math.Max(totAff, 1)

	safetyCapped := red < g.FTE*0.95
	saving := math.Round(red * weightedCost)

	ctx.audit = append(ctx.audit, models.AuditEntry{
		ID: init.ID, Name: init.Name, Lever: init.Lever,
		GrossFTE: round1(g.FTE), NetFTE: round1(red), Saving: saving,
		Mechanism: g.Mechanism, PoolCapped: c.Capped, SafetyCapped: safetyCapped,
	})

	return models.Outcome{
		ID: init.ID, Name: init.Name, Layer: init.Layer, Lever: init.Lever,
		FTEImpact:         round1(red),
		AnnualSaving:      saving,
		EffectiveImpact:   round4(red / math.Max(totAff, 1)),
		Mechanism:         g.Mechanism,
		GrossFTE:          round1(g.FTE),
		GrossSaving:       math.Round(g.FTE * weightedCost),
		PoolConsumed:      round1(red),
		PoolCapped:        c.Capped,
		SafetyCapped:      safetyCapped,
		YearlyFactors:     factors,
		StartMonth:        startM,
		EndMonth:          endMonth(benefitEnd, ctx.horizon),
		RampCompleteMonth: startM + rampM,
		LinkedQueues:      linkedQueues(init, rawQueues),
	}
}

func schedule(init models.Initiative) (startM, benefitEnd, rampM int) {
	startM = init.StartMonth
	if startM < 1 {
		startM = 1
	}
	rampM = init.RampMonths
	if rampM <= 0 {
		rampM = 12
	}
	return startM, init.BenefitEndMonth, rampM
}

func endMonth(benefitEnd, horizon int) int {
	if benefitEnd > 0 {
		return benefitEnd
	}
	return horizon * 12
}

func affectedRoles(init models.Initiative, roles []models.Role) ([]models.Role, float64) {
	want := make(map[string]bool, len(init.Roles))
	for _, r := range init.Roles {
		want[r] = true
	}
	var affected []models.Role
	var total float64
	for _, r := range roles {
		if want[r.Name] {
			affected = append(affected, r)
			total += r.Headcount
		}
	}
	return affected, total
}

func linkedQueues(init models.Initiative, queues []models.Queue) int {
	chans := make(map[string]bool, len(init.Channels))
	for _, c := range init.Channels {
		chans[c] = true
	}
	n := 0
	for _, q := range queues {
		if chans[q.Channel] {
			n++
		}
	}
	return n
}

// applyContributions sets each outcome's share of the total annual saving,
// clamped to [0, 100].
func applyContributions(outcomes []models.Outcome) {
	var total float64
	for _, o := range outcomes {
		if o.AnnualSaving > 0 {
			total += o.AnnualSaving
		}
	}
	if total <= 0 {
		return
	}
	for i := range outcomes {
		pct := outcomes[i].AnnualSaving / total * 100
		outcomes[i].ContributionPct = math.Min(100, math.Max(0, round1(pct)))
	}
}

func layerRollup(outcomes []models.Outcome) (map[string]float64, map[string]float64) {
	fte := map[string]float64{"AI & Automation": 0, "Operating Model": 0, "Location Strategy": 0}
	saving := map[string]float64{"AI & Automation": 0, "Operating Model": 0, "Location Strategy": 0}
	for _, o := range outcomes {
		if _, ok := fte[o.Layer]; !ok {
			continue
		}
		fte[o.Layer] += o.FTEImpact
		saving[o.Layer] += o.AnnualSaving
	}
	for k, v := range fte {
		fte[k] = round1(v)
	}
	for k, v := range saving {
		saving[k] = math.Round(v)
	}
	return fte, saving
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
