package finance

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"contact-waterfall/models"
)

// Reference costs are calibrated for a ~3,000 FTE operation. Smaller or
// larger operations scale by the square root of the headcount ratio,
// clamped to [0.30, 2.0]; implementation effort keeps a fixed component.
const (
	minSizeScale = 0.30
	maxSizeScale = 2.0
)

// initiativePlatform maps initiative IDs to the platform category they
// deploy. Existing coverage of that category discounts the tech cost.
var initiativePlatform = map[string]string{
	"AI01": "chatbot", "AI04": "chatbot", "AI09": "chatbot", "AI10": "chatbot",
	"AI14": "chatbot", "AI25": "chatbot", "AI18": "chatbot",
	"AI02": "agent assist", "AI05": "agent assist", "AI27": "agent assist",
	"AI06": "speech analytics", "AI15": "speech analytics", "AI21": "speech analytics",
	"AI07": "qa tool",
	"AI08": "knowledge base", "AI19": "knowledge base",
	"AI12": "wfm", "OP04": "wfm", "OP11": "wfm",
	"AI22": "crm", "AI16": "crm",
	"AI13": "rpa", "AI28": "rpa",
	"AI03": "ccaas platform", "AI23": "ccaas platform", "AI24": "ccaas platform", "AI11": "ccaas platform",
	"OP16": "bi/reporting", "OP09": "bi/reporting",
}

// platformFamilies groups initiatives that share a platform license. The
// first costed member of a family pays full price; later members pay
// marginal configuration cost only.
var platformFamilies = map[string][]string{
	"conv_ai":   {"AI01", "AI04", "AI09", "AI10", "AI14", "AI25", "AI18"},
	"assist_ai": {"AI02", "AI05", "AI27", "AI06"},
	"analytics": {"AI07", "AI21", "AI15"},
	"knowledge": {"AI08", "AI19"},
	"wfm":       {"AI12", "OP04", "OP11"},
	"crm_ext":   {"AI22", "AI16"},
	"rpa":       {"AI13", "AI28"},
	"ccaas":     {"AI03", "AI23", "AI24", "AI11"},
}

var initiativeFamily = func() map[string]string {
	m := make(map[string]string)
	for fam, ids := range platformFamilies {
		for _, id := range ids {
			m[id] = fam
		}
	}
	return m
}()

var effortDefaults = map[string]models.TechCost{
	"low":    {TechCost: 50000, ImplCost: 25000, AnnualCost: 15000},
	"medium": {TechCost: 100000, ImplCost: 50000, AnnualCost: 30000},
	"high":   {TechCost: 250000, ImplCost: 125000, AnnualCost: 75000},
}

// Investment is the fully sized investment program.
type Investment struct {
	Items       []models.InvestmentItem
	Yearly      []models.InvestmentYear
	Summary     models.InvestmentSummary
	TechOneTime float64
	AnnualMaint float64
	Total       float64
}

// SizeInvestment costs the enabled initiatives: size-scaled reference
// costs, discounted for existing stack coverage, pooled within platform
// families, plus change-management, training and contingency add-ons.
func SizeInvestment(enabled []models.Initiative, tech models.TechInvestment, params models.Params, totalFTE float64) Investment {
	refFTE := params.InvestmentRefFTE
	if refFTE < 1 {
		refFTE = 1
	}
	sizeScale := clamp(math.Sqrt(totalFTE/refFTE), minSizeScale, maxSizeScale)
	implScale := math.Max(0.50, 0.40+0.60*sizeScale)

	stackCov := stackCoverage(tech.Stack)

	// Highest score first so the strongest initiative anchors each
	// platform family at full cost.
	byScore := make([]models.Initiative, len(enabled))
	copy(byScore, enabled)
	sort.SliceStable(byScore, func(a, b int) bool { return byScore[a].Score > byScore[b].Score })

	familyCosted := make(map[string]bool)
	items := make([]models.InvestmentItem, 0, len(byScore))
	var techInv, annMaint float64

	for _, init := range byScore {
		rawTech, rawImpl, rawAnnual, fromOverride := referenceCosts(init, tech)

		sTech := rawTech * sizeScale
		sImpl := rawImpl * implScale
		sAnnual := rawAnnual * sizeScale

		discount := coverageDiscount(initiativePlatform[init.ID], stackCov)
		sTech *= 1.0 - discount
		sAnnual *= 1.0 - discount*0.50

		pooled := false
		if fam, ok := initiativeFamily[init.ID]; ok {
			if familyCosted[fam] {
				sTech *= 0.25
				sAnnual *= 0.40
				pooled = true
			} else {
				familyCosted[fam] = true
			}
		}

		oneTime := math.Round(sTech + sImpl)
		recurring := math.Round(sAnnual)
		techInv += oneTime
		annMaint += recurring

		items = append(items, models.InvestmentItem{
			ID:           init.ID,
			Name:         init.Name,
			Layer:        init.Layer,
			OneTime:      oneTime,
			Recurring:    recurring,
			RawOneTime:   math.Round(rawTech + rawImpl),
			RawRecurring: math.Round(rawAnnual),
			Source:       sourceLabel(fromOverride, sizeScale, discount, pooled),
		})
	}

	// Back to portfolio order for reporting.
	order := make(map[string]int, len(enabled))
	for idx, init := range enabled {
		order[init.ID] = idx
	}
	sort.SliceStable(items, func(a, b int) bool {
		return order[items[a].ID] < order[items[b].ID]
	})

	cm := techInv * params.ChangeMgmtPct
	tr := techInv * params.TrainingPct
	ct := techInv * params.ContingencyPct
	total := techInv + cm + tr + ct

	horizon := params.HorizonYears
	yearly := make([]models.InvestmentYear, 0, horizon)
	for yr := 1; yr <= horizon; yr++ {
		spread := oneTimeSpread(yr)
		yearly = append(yearly, models.InvestmentYear{
			Year:        yr,
			OneTime:     math.Round(techInv * spread),
			Recurring:   math.Round(annMaint),
			ChangeMgmt:  math.Round(cm / float64(horizon)),
			Training:    math.Round(tr / float64(horizon)),
			Contingency: math.Round(ct / float64(horizon)),
			Total:       math.Round(techInv*spread + annMaint + (cm+tr+ct)/float64(horizon)),
		})
	}

	return Investment{
		Items:  items,
		Yearly: yearly,
		Summary: models.InvestmentSummary{
			TotalTech:       math.Round(techInv),
			ChangeMgmt:      math.Round(cm),
			Training:        math.Round(tr),
			Contingency:     math.Round(ct),
			GrandTotal:      math.Round(total),
			AnnualRecurring: math.Round(annMaint),
		},
		TechOneTime: math.Round(techInv),
		AnnualMaint: math.Round(annMaint),
		Total:       math.Round(total),
	}
}

// referenceCosts resolves an initiative's raw costs: explicit override
// first, then the caller-supplied effort defaults, then built-ins.
func referenceCosts(init models.Initiative, tech models.TechInvestment) (techCost, implCost, annual float64, fromOverride bool) {
	if tc, ok := tech.Costs[init.ID]; ok {
		techCost = tc.TechCost
		if techCost == 0 {
			techCost = tc.TotalOneTime * 0.65
		}
		implCost = tc.ImplCost
		if implCost == 0 && tc.TotalOneTime > 0 {
			implCost = tc.TotalOneTime * 0.35
		}
		return techCost, implCost, tc.AnnualCost, true
	}

	effort := strings.ToLower(init.Effort)
	d, ok := tech.CostDefaults[effort]
	if !ok {
		d, ok = effortDefaults[effort]
		if !ok {
			d = effortDefaults["medium"]
		}
	}
	return d.TechCost, d.ImplCost, d.AnnualCost, false
}

// stackCoverage keeps the best coverage per category among platforms that
// are actually live or on the way.
func stackCoverage(stack []models.TechStackEntry) map[string]float64 {
	cov := make(map[string]float64)
	for _, ts := range stack {
		status := strings.ToLower(ts.Status)
		if status != "active" && status != "deploying" && status != "pilot" {
			continue
		}
		cat := strings.ToLower(strings.TrimSpace(ts.Category))
		c := ts.Coverage / 100.0
		if c > cov[cat] {
			cov[cat] = c
		}
	}
	return cov
}

func coverageDiscount(platform string, cov map[string]float64) float64 {
	if platform == "" {
		return 0
	}
	c := cov[platform]
	switch {
	case c >= 0.70:
		return 0.50
	case c >= 0.40:
		return 0.25
	default:
		return 0
	}
}

// oneTimeSpread phases one-time spend 60/30/10 over the first three
// years; later years carry recurring cost only.
func oneTimeSpread(year int) float64 {
	switch year {
	case 1:
		return 0.60
	case 2:
		return 0.30
	case 3:
		return 0.10
	default:
		return 0
	}
}

func sourceLabel(fromOverride bool, sizeScale, discount float64, pooled bool) string {
	src := "Default estimate"
	if fromOverride {
		src = "Cost override"
	}
	var adj []string
	if sizeScale < 0.95 {
		adj = append(adj, fmt.Sprintf("size×%.2f", sizeScale))
	}
	if discount > 0 {
		adj = append(adj, fmt.Sprintf("stack-%.0f%%", discount*100))
	}
	if pooled {
		adj = append(adj, "pooled")
	}
	if len(adj) > 0 {
		src += " (" + strings.Join(adj, ", ") + ")"
	}
	return src
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
