package formatter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"contact-waterfall/models"
)

// ReportData holds prepared run output used by all formatters
type ReportData struct {
	Result *models.RunResult
	Levers []models.Lever
	Roles  []string
	Layers []string
}

// prepareReportData fixes deterministic iteration orders for the maps in
// the result so every formatter renders identically across runs.
func prepareReportData(res *models.RunResult) *ReportData {
	levers := make([]models.Lever, 0, len(res.Pools))
	for lv := range res.Pools {
		levers = append(levers, lv)
	}
	sort.Slice(levers, func(i, j int) bool {
		if levers[i].CascadeOrder() != levers[j].CascadeOrder() {
			return levers[i].CascadeOrder() < levers[j].CascadeOrder()
		}
		return levers[i] < levers[j]
	})

	roles := make([]string, 0, len(res.RoleImpact))
	for name := range res.RoleImpact {
		roles = append(roles, name)
	}
	sort.Strings(roles)

	layers := make([]string, 0, len(res.LayerFTE))
	for name := range res.LayerFTE {
		layers = append(layers, name)
	}
	sort.Strings(layers)

	return &ReportData{Result: res, Levers: levers, Roles: roles, Layers: layers}
}

// FormatText returns the text representation of a run
func FormatText(res *models.RunResult) string {
	data := prepareReportData(res)
	r := data.Result
	var sb strings.Builder

	fmt.Fprintf(&sb, "Run %s\n", r.RunID)
	fmt.Fprintf(&sb, "\n== Intent Profile ==\n")
	fmt.Fprintf(&sb, "Total volume: %.0f ; deflectable: %.0f (%.1f%%) ; migratable: %.0f (%.1f%%)\n",
		r.IntentSummary.TotalVolume, r.IntentSummary.DeflectableVolume, r.IntentSummary.DeflectablePct,
		r.IntentSummary.MigratableVolume, r.IntentSummary.MigratablePct)
	fmt.Fprintf(&sb, "Avg containment: %.2f ; avg emotional risk: %.2f\n",
		r.IntentSummary.AvgContainment, r.IntentSummary.AvgEmotionalRisk)

	fmt.Fprintf(&sb, "\n== Opportunity Pools ==\n")
	for _, lv := range data.Levers {
		u := r.Utilization[lv]
		fmt.Fprintf(&sb, "%-22s ceiling=%.1f consumed=%.1f remaining=%.1f (%.1f%%)\n",
			lv, u.CeilingFTE, u.ConsumedFTE, u.RemainingFTE, u.UtilizationPct)
	}

	fmt.Fprintf(&sb, "\n== Initiatives ==\n")
	for _, o := range r.Outcomes {
		flags := ""
		if o.PoolCapped {
			flags += " [pool-capped]"
		}
		if o.SafetyCapped {
			flags += " [safety-capped]"
		}
		fmt.Fprintf(&sb, "%-6s %-40s fte=%.1f saving=$%.0f (%.1f%%)%s\n",
			o.ID, o.Name, o.FTEImpact, o.AnnualSaving, o.ContributionPct, flags)
		fmt.Fprintf(&sb, "       %s\n", o.Mechanism)
	}

	fmt.Fprintf(&sb, "\n== Role Impact ==\n")
	for _, name := range data.Roles {
		ri := r.RoleImpact[name]
		var years []string
		for i, v := range ri.Yearly {
			years = append(years, fmt.Sprintf("Y%d=%.0f", i+1, v))
		}
		fmt.Fprintf(&sb, "%-28s baseline=%.0f ; %s\n", name, ri.Baseline, strings.Join(years, ", "))
	}

	fmt.Fprintf(&sb, "\n== Layer Roll-up ==\n")
	for _, layer := range data.Layers {
		fmt.Fprintf(&sb, "%-20s fte=%.1f saving=$%.0f\n", layer, r.LayerFTE[layer], r.LayerSaving[layer])
	}

	fmt.Fprintf(&sb, "\n== Financials ==\n")
	for _, y := range r.Yearly {
		fmt.Fprintf(&sb, "Year %d: reduction=%.0f FTE ; saving=$%.0f ; cumulative=$%.0f ; NPV=$%.0f\n",
			y.Year, y.FTEReduction, y.AnnualSaving, y.CumSaving, y.NPV)
	}
	fmt.Fprintf(&sb, "Total NPV: $%.0f ; total saving: $%.0f ; reduction: %.0f FTE\n",
		r.TotalNPV, r.TotalSaving, r.TotalReduction)
	fmt.Fprintf(&sb, "Investment: $%.0f ; ROI: %.1f%% ; payback: %.1f months ; IRR: %.1f%%\n",
		r.TotalInvestment, r.ROIPct, r.PaybackMonths, r.IRRPct)

	if len(r.Scenarios) > 0 {
		fmt.Fprintf(&sb, "\n== Scenarios ==\n")
		for _, key := range []string{"base", "conservative", "aggressive"} {
			sc, ok := r.Scenarios[key]
			if !ok {
				continue
			}
			fmt.Fprintf(&sb, "%-14s NPV=$%.0f ; reduction=%.0f FTE ; investment=$%.0f ; IRR=%.1f%%\n",
				sc.Label, sc.NPV, sc.FTEReduction, sc.Investment, sc.IRRPct)
		}
	}

	if len(r.Sensitivity) > 0 {
		fmt.Fprintf(&sb, "\n== Sensitivity (±20%%) ==\n")
		for _, row := range r.Sensitivity {
			fmt.Fprintf(&sb, "%-16s swing=$%.0f (%.1f%%) ; low=$%.0f ; high=$%.0f\n",
				row.Variable, row.Swing, row.SwingPct, row.LowNPV, row.HighNPV)
		}
	}

	if len(r.Degraded) > 0 {
		fmt.Fprintf(&sb, "\n== Degraded Paths ==\n")
		for _, d := range r.Degraded {
			fmt.Fprintf(&sb, "  ⚠️  %s\n", d)
		}
	}

	return sb.String()
}

// FormatJSON returns the JSON representation of a run
func FormatJSON(res *models.RunResult) string {
	jsonBytes, _ := json.MarshalIndent(res, "", "  ")
	return string(jsonBytes)
}

// FormatCSV returns the CSV representation of a run: one row per
// initiative outcome, with the audit flags flattened.
func FormatCSV(res *models.RunResult) string {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	writer.Write([]string{
		"ID", "Name", "Layer", "Lever", "FTE Impact", "Annual Saving",
		"Effective Impact", "Contribution %", "Gross FTE", "Pool Consumed",
		"Pool Capped", "Safety Capped", "Start Month", "Ramp Complete", "Mechanism",
	})

	for _, o := range res.Outcomes {
		writer.Write([]string{
			o.ID,
			o.Name,
			o.Layer,
			string(o.Lever),
			fmt.Sprintf("%.1f", o.FTEImpact),
			fmt.Sprintf("%.0f", o.AnnualSaving),
			fmt.Sprintf("%.4f", o.EffectiveImpact),
			fmt.Sprintf("%.1f", o.ContributionPct),
			fmt.Sprintf("%.1f", o.GrossFTE),
			fmt.Sprintf("%.1f", o.PoolConsumed),
			yesNo(o.PoolCapped),
			yesNo(o.SafetyCapped),
			fmt.Sprintf("%d", o.StartMonth),
			fmt.Sprintf("%d", o.RampCompleteMonth),
			o.Mechanism,
		})
	}

	writer.Flush()
	return sb.String()
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
