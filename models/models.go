package models

import "gopkg.in/yaml.v3"

// Queue represents one intent/channel queue from the normalized operational
// dataset. Volumes are raw per-period counts; annualization happens in the
// pool engine using Params.VolumeAnnualizationFactor.
// It is shared across packages and never mutated after parsing.
type Queue struct {
	Intent         string
	Channel        string
	BusinessUnit   string
	Volume         float64
	CSAT           float64
	FCR            float64
	AHTMinutes     float64
	ACWMinutes     float64
	TransferRate   float64
	EscalationRate float64
	RepeatRate     float64
	Complexity     float64 // 0.0 = trivial, 1.0 = extremely complex
}

// AHTDecomposition splits total handle time into components. Only
// ReducibleSec feeds AHT-reduction math; the rest is audit detail.
type AHTDecomposition struct {
	TalkSec        float64 `json:"talk_sec"`
	HoldSec        float64 `json:"hold_sec"`
	SearchSec      float64 `json:"search_sec"`
	OtherSec       float64 `json:"other_sec"`
	WrapSec        float64 `json:"wrap_sec"`
	TotalHandleSec float64 `json:"total_handle_sec"`
	ReducibleSec   float64 `json:"reducible_sec"`
}

// TransferClassification splits a queue's transfer rate into preventable
// (routing/knowledge failures) and structural (genuinely needs a specialist).
type TransferClassification struct {
	TotalRate        float64 `json:"total_rate"`
	PreventableRate  float64 `json:"preventable_rate"`
	StructuralRate   float64 `json:"structural_rate"`
	PreventableShare float64 `json:"preventable_share"`
}

// EnrichedQueue is a Queue plus the derived behavioral attributes computed
// once per run by the enrich package. Never mutated after enrichment.
type EnrichedQueue struct {
	Queue

	Repeatability          float64
	EmotionalRisk          float64
	AuthRequired           float64
	ContainmentFeasibility float64
	// DeflectionEligiblePct deliberately excludes containment; containment is
	// applied at gross-impact time as min(impact, containment) so it is never
	// counted twice.
	DeflectionEligiblePct float64

	AHTDecomp     AHTDecomposition
	TransferClass TransferClassification

	MigrationReadiness float64
}

// Role is a read-only workforce record. Reductions are tracked in the role
// ledger, never subtracted from Headcount in place.
type Role struct {
	Name       string
	Headcount  float64
	CostPerFTE float64
}

// Params is the run parameter set. VolumeAnnualizationFactor must be set
// explicitly by the operator; it is never inferred from capacity.
type Params struct {
	HorizonYears              int     `yaml:"horizon"`
	DiscountRate              float64 `yaml:"discountRate"`
	WageInflation             float64 `yaml:"wageInflation"`
	Shrinkage                 float64 `yaml:"shrinkage"`
	TargetShrinkage           float64 `yaml:"targetShrinkage"`
	GrossHoursPerYear         float64 `yaml:"grossHoursPerYear"`
	VolumeAnnualizationFactor float64 `yaml:"volumeAnnualizationFactor"`
	LocationArbitrage         float64 `yaml:"locationArbitrage"`
	RedeploymentPct           float64 `yaml:"redeploymentPct"`
	AttritionMonthly          float64 `yaml:"attritionMonthly"`
	VolumeGrowth              float64 `yaml:"volumeGrowth"`
	ChangeMgmtPct             float64 `yaml:"changeMgmtPct"`
	TrainingPct               float64 `yaml:"trainingPct"`
	ContingencyPct            float64 `yaml:"contingencyPct"`
	InvestmentRefFTE          float64 `yaml:"investmentRefFTE"`

	// explicitZeros records keys a config source deliberately set to
	// zero, so ApplyDefaults can tell "shrinkage: 0" from an absent key.
	explicitZeros map[string]bool
}

// UnmarshalYAML decodes the params and records which keys the document
// explicitly set to zero. A zero-valued key present in the document is a
// real setting; ApplyDefaults must not overwrite it.
func (p *Params) UnmarshalYAML(value *yaml.Node) error {
	type rawParams Params
	var raw rawParams
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*p = Params(raw)

	var doc map[string]float64
	if err := value.Decode(&doc); err != nil {
		return nil
	}
	for key, v := range doc {
		if v == 0 {
			p.MarkExplicitZero(key)
		}
	}
	return nil
}

// MarkExplicitZero pins a zero-valued parameter so ApplyDefaults leaves it
// alone. Keys use the YAML field names.
func (p *Params) MarkExplicitZero(key string) {
	if p.explicitZeros == nil {
		p.explicitZeros = make(map[string]bool)
	}
	p.explicitZeros[key] = true
}

func (p *Params) zeroed(key string) bool { return p.explicitZeros[key] }

// NetProductiveHours is the working hours one FTE delivers per year after
// shrinkage.
func (p Params) NetProductiveHours() float64 {
	return p.GrossHoursPerYear * (1 - p.Shrinkage)
}

// ApplyDefaults fills absent fields with standard defaults. A field is
// absent when it is zero and was not explicitly pinned to zero by its
// config source; horizon, gross hours, annualization and reference FTE
// always default on zero since zero is never a usable value for them. The
// annualization default of 12 assumes monthly extracts, the most common
// CCaaS export cadence.
func (p *Params) ApplyDefaults() {
	if p.HorizonYears <= 0 {
		p.HorizonYears = 3
	}
	if p.DiscountRate == 0 && !p.zeroed("discountRate") {
		p.DiscountRate = 0.10
	}
	if p.WageInflation == 0 && !p.zeroed("wageInflation") {
		p.WageInflation = 0.03
	}
	if p.Shrinkage == 0 && !p.zeroed("shrinkage") {
		p.Shrinkage = 0.30
	}
	if p.TargetShrinkage == 0 && !p.zeroed("targetShrinkage") {
		p.TargetShrinkage = 0.22
	}
	if p.GrossHoursPerYear == 0 {
		p.GrossHoursPerYear = 2080
	}
	if p.VolumeAnnualizationFactor == 0 {
		p.VolumeAnnualizationFactor = 12
	}
	if p.LocationArbitrage == 0 && !p.zeroed("locationArbitrage") {
		p.LocationArbitrage = 0.35
	}
	if p.ChangeMgmtPct == 0 && !p.zeroed("changeMgmtPct") {
		p.ChangeMgmtPct = 0.10
	}
	if p.TrainingPct == 0 && !p.zeroed("trainingPct") {
		p.TrainingPct = 0.05
	}
	if p.ContingencyPct == 0 && !p.zeroed("contingencyPct") {
		p.ContingencyPct = 0.10
	}
	if p.InvestmentRefFTE == 0 {
		p.InvestmentRefFTE = 3000
	}
}

// Lever identifies the benefit mechanism an initiative works through.
type Lever string

const (
	LeverDeflection          Lever = "deflection"
	LeverAHTReduction        Lever = "aht_reduction"
	LeverEscalationReduction Lever = "escalation_reduction"
	LeverTransferReduction   Lever = "transfer_reduction"
	LeverRepeatReduction     Lever = "repeat_reduction"
	LeverCostReduction       Lever = "cost_reduction"
	LeverShrinkageReduction  Lever = "shrinkage_reduction"
)

// Known reports whether the lever is one the engine models. Unknown levers
// survive parsing (portfolios may carry custom levers) but fail closed in
// the cascade.
func (l Lever) Known() bool {
	switch l {
	case LeverDeflection, LeverAHTReduction, LeverEscalationReduction,
		LeverTransferReduction, LeverRepeatReduction, LeverCostReduction,
		LeverShrinkageReduction:
		return true
	}
	return false
}

// CascadeOrder returns the lever's processing priority within a layer.
// Deflection first (removes whole contacts), then handle-time levers, then
// structural levers. Unknown levers sort last.
func (l Lever) CascadeOrder() int {
	switch l {
	case LeverDeflection:
		return 0
	case LeverAHTReduction:
		return 1
	case LeverRepeatReduction:
		return 2
	case LeverTransferReduction:
		return 3
	case LeverEscalationReduction:
		return 4
	case LeverShrinkageReduction:
		return 5
	case LeverCostReduction:
		return 6
	}
	return 9
}

// Initiative is one portfolio entry. Enablement, score and ordering inputs
// are decided upstream; the engine trusts them as given.
type Initiative struct {
	ID              string   `yaml:"id"`
	Name            string   `yaml:"name"`
	Layer           string   `yaml:"layer"`
	Lever           Lever    `yaml:"lever"`
	Impact          float64  `yaml:"impact"`
	Adoption        float64  `yaml:"adoption"`
	Channels        []string `yaml:"channels"`
	Roles           []string `yaml:"roles"`
	Effort          string   `yaml:"effort"` // low | medium | high
	RampMonths      int      `yaml:"ramp"`
	StartMonth      int      `yaml:"startMonth"`
	BenefitEndMonth int      `yaml:"benefitEndMonth"` // 0 = runs to horizon end
	Enabled         bool     `yaml:"enabled"`
	Score           float64  `yaml:"score"`
}

// PoolContribution is one queue's share of a pool ceiling, retained for
// audit display only.
type PoolContribution struct {
	Intent  string  `json:"intent"`
	Channel string  `json:"channel"`
	Volume  float64 `json:"volume"`
	Amount  float64 `json:"amount"` // native pool unit
}

// Pool is one finite benefit ceiling. Remaining fields start equal to the
// ceilings and only decrease during a run.
type Pool struct {
	Lever Lever  `json:"lever"`
	Unit  string `json:"unit"`

	CeilingFTE   float64 `json:"ceiling_fte"`
	RemainingFTE float64 `json:"remaining_fte"`

	CeilingContacts   float64 `json:"ceiling_contacts,omitempty"`
	RemainingContacts float64 `json:"remaining_contacts,omitempty"`
	CeilingSeconds    float64 `json:"ceiling_seconds,omitempty"`
	RemainingSeconds  float64 `json:"remaining_seconds,omitempty"`

	CeilingSaving   float64 `json:"ceiling_saving"`
	RemainingSaving float64 `json:"remaining_saving"`

	// Lever-specific context carried for reporting.
	CeilingPct       float64 `json:"ceiling_pct,omitempty"`       // deflection: share of total volume
	MigratableShare  float64 `json:"migratable_share,omitempty"`  // location
	CostArbitrage    float64 `json:"cost_arbitrage,omitempty"`    // location
	CurrentShrinkage float64 `json:"current_shrinkage,omitempty"` // shrinkage
	TargetShrinkage  float64 `json:"target_shrinkage,omitempty"`  // shrinkage
	ShrinkageGap     float64 `json:"shrinkage_gap,omitempty"`     // shrinkage

	Breakdown []PoolContribution `json:"breakdown,omitempty"`
}

// PoolSummary aggregates the computed pools for reporting.
type PoolSummary struct {
	TotalPoolFTE       float64 `json:"total_pool_fte"`
	TotalPoolSaving    float64 `json:"total_pool_saving"`
	TotalFTE           float64 `json:"total_fte"`
	TotalVolume        float64 `json:"total_volume"`
	NetProductiveHrs   float64 `json:"net_prod_hours"`
	WeightedCostPerFTE float64 `json:"weighted_cost_per_fte"`
	Shrinkage          float64 `json:"shrinkage"`
	Annualization      float64 `json:"annualization_factor"`
}

// GrossImpact is the uncapped, lever-specific impact of one initiative.
type GrossImpact struct {
	FTE             float64  `json:"gross_fte"`
	Contacts        float64  `json:"gross_contacts"`
	Seconds         float64  `json:"gross_seconds"`
	Saving          float64  `json:"gross_saving"`
	FTEMigrated     float64  `json:"gross_fte_migrated,omitempty"`
	Mechanism       string   `json:"mechanism"`
	MechanismDetail []string `json:"mechanism_detail,omitempty"`
	EligibleVolume  float64  `json:"eligible_volume"`
	IsLocation      bool     `json:"-"`
}

// Outcome is the netted, capped, time-phased result attached to one
// initiative after the cascade.
type Outcome struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Layer             string    `json:"layer"`
	Lever             Lever     `json:"lever"`
	FTEImpact         float64   `json:"fteImpact"`
	AnnualSaving      float64   `json:"annualSaving"`
	EffectiveImpact   float64   `json:"effectiveImpact"`
	Mechanism         string    `json:"mechanism"`
	GrossFTE          float64   `json:"grossFTE"`
	GrossSaving       float64   `json:"grossSaving"`
	PoolConsumed      float64   `json:"poolConsumed"`
	PoolCapped        bool      `json:"poolCapped"`
	SafetyCapped      bool      `json:"safetyCapped"`
	YearlyFactors     []float64 `json:"yearlyFactors"`
	StartMonth        int       `json:"startMonth"`
	EndMonth          int       `json:"endMonth"`
	RampCompleteMonth int       `json:"rampCompleteMonth"`
	LinkedQueues      int       `json:"linkedQueues"`
	ContributionPct   float64   `json:"contributionPct"`
}

// AuditEntry records one cascade step in processing order.
type AuditEntry struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Lever        Lever   `json:"lever"`
	GrossFTE     float64 `json:"gross_fte"`
	NetFTE       float64 `json:"net_fte"`
	Saving       float64 `json:"saving"`
	Mechanism    string  `json:"mechanism"`
	PoolCapped   bool    `json:"pool_capped"`
	SafetyCapped bool    `json:"safety_capped"`
	UnknownLever bool    `json:"unknown_lever,omitempty"`
}

// RoleImpact is one role's ledger after the cascade: baseline headcount and
// the accumulated reduction per horizon year.
type RoleImpact struct {
	Baseline float64   `json:"baseline"`
	Yearly   []float64 `json:"yearly"`
}

// YearlyProjection is one year of the financial roll-up.
type YearlyProjection struct {
	Year         int     `json:"year"`
	FTEReduction float64 `json:"fteReduction"`
	FinalFTE     float64 `json:"finalFTE"`
	AnnualSaving float64 `json:"annualSaving"`
	CumSaving    float64 `json:"cumSaving"`
	NPV          float64 `json:"npv"`
	InflatedCost float64 `json:"inflatedCost"`
	FutureCost   float64 `json:"futureCost"`
}

// PoolUtilization is the per-lever consumption report.
type PoolUtilization struct {
	CeilingFTE     float64 `json:"ceiling_fte"`
	ConsumedFTE    float64 `json:"consumed_fte"`
	RemainingFTE   float64 `json:"remaining_fte"`
	UtilizationPct float64 `json:"utilization_pct"`
}

// InvestmentItem is one initiative's sized cost line.
type InvestmentItem struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Layer        string  `json:"layer"`
	OneTime      float64 `json:"oneTime"`
	Recurring    float64 `json:"recurring"`
	RawOneTime   float64 `json:"rawOneTime"`
	RawRecurring float64 `json:"rawRecurring"`
	Source       string  `json:"source"`
}

// InvestmentYear is the per-year investment schedule.
type InvestmentYear struct {
	Year        int     `json:"year"`
	OneTime     float64 `json:"oneTime"`
	Recurring   float64 `json:"recurring"`
	ChangeMgmt  float64 `json:"changeMgmt"`
	Training    float64 `json:"training"`
	Contingency float64 `json:"contingency"`
	Total       float64 `json:"total"`
}

// InvestmentSummary totals the investment model.
type InvestmentSummary struct {
	TotalTech       float64 `json:"totalTech"`
	ChangeMgmt      float64 `json:"changeMgmt"`
	Training        float64 `json:"training"`
	Contingency     float64 `json:"contingency"`
	GrandTotal      float64 `json:"grandTotal"`
	AnnualRecurring float64 `json:"annualRecurring"`
}

// Scenario is one what-if variant of the full run.
type Scenario struct {
	Label        string  `json:"label"`
	Description  string  `json:"description"`
	NPV          float64 `json:"npv"`
	FTEReduction float64 `json:"fteReduction"`
	Investment   float64 `json:"investment"`
	IRRPct       float64 `json:"irr"`
	AnnualSaving float64 `json:"annualSaving"`
	TotalSaving  float64 `json:"totalSaving"`
	Estimated    bool    `json:"estimated,omitempty"`
}

// SensitivityRow is one ±20% single-variable perturbation result.
type SensitivityRow struct {
	Variable  string  `json:"variable"`
	Swing     float64 `json:"swing"`
	LowNPV    float64 `json:"lowNPV"`
	HighNPV   float64 `json:"highNPV"`
	BaseNPV   float64 `json:"baseNPV"`
	SwingPct  float64 `json:"swingPct"`
	Estimated bool    `json:"estimated,omitempty"`
}

// IntentSummary aggregates the enriched queue profile for display.
type IntentSummary struct {
	TotalVolume       float64 `json:"totalVolume"`
	DeflectableVolume float64 `json:"deflectableVolume"`
	DeflectablePct    float64 `json:"deflectablePct"`
	AvgContainment    float64 `json:"avgContainment"`
	AvgEmotionalRisk  float64 `json:"avgEmotionalRisk"`
	MigratableVolume  float64 `json:"migratableVolume"`
	MigratablePct     float64 `json:"migratablePct"`
}

// TechCost is a per-initiative technology cost override.
type TechCost struct {
	TechCost     float64 `yaml:"techCost"`
	ImplCost     float64 `yaml:"implCost"`
	AnnualCost   float64 `yaml:"annualCost"`
	TotalOneTime float64 `yaml:"totalOneTime"`
}

// TechStackEntry describes existing platform coverage used to discount
// technology investment.
type TechStackEntry struct {
	Category string  `yaml:"category"`
	Coverage float64 `yaml:"coverage"` // percent, 0-100
	Status   string  `yaml:"status"`   // active | deploying | pilot | retired
}

// TechInvestment bundles cost overrides, effort-level defaults and the
// existing stack coverage table.
type TechInvestment struct {
	Costs        map[string]TechCost `yaml:"costs"`
	CostDefaults map[string]TechCost `yaml:"costDefaults"`
	Stack        []TechStackEntry    `yaml:"techStack"`
}

// Inputs is everything one run consumes. The engine never mutates it; the
// orchestrator copies initiative slices before perturbing them for
// scenarios and sensitivity.
type Inputs struct {
	Queues      []Queue
	Roles       []Role
	Params      Params
	Initiatives []Initiative
	Tech        TechInvestment
}

// TotalFTE sums role headcount.
func (in Inputs) TotalFTE() float64 {
	var total float64
	for _, r := range in.Roles {
		total += r.Headcount
	}
	return total
}

// RunResult is the complete output of one core run.
type RunResult struct {
	RunID string `json:"runId"`

	IntentSummary IntentSummary             `json:"intentSummary"`
	PoolSummary   PoolSummary               `json:"poolSummary"`
	Pools         map[Lever]*Pool           `json:"pools"`
	Utilization   map[Lever]PoolUtilization `json:"poolUtilization"`
	Outcomes      []Outcome                 `json:"outcomes"`
	RoleImpact    map[string]RoleImpact     `json:"roleImpact"`
	LayerFTE      map[string]float64        `json:"layerFTE"`
	LayerSaving   map[string]float64        `json:"layerSaving"`
	AuditTrail    []AuditEntry              `json:"auditTrail"`

	Yearly         []YearlyProjection `json:"yearly"`
	TotalNPV       float64            `json:"totalNPV"`
	TotalSaving    float64            `json:"totalSaving"`
	TotalReduction float64            `json:"totalReduction"`

	InvestmentItems   []InvestmentItem  `json:"investmentItems"`
	InvestmentYearly  []InvestmentYear  `json:"investmentYearly"`
	InvestmentSummary InvestmentSummary `json:"investmentSummary"`
	TotalInvestment   float64           `json:"totalInvestment"`
	ROIPct            float64           `json:"roi"`
	ROIGrossPct       float64           `json:"roiGross"`
	PaybackMonths     float64           `json:"payback"`
	IRRPct            float64           `json:"irr"`

	Scenarios   map[string]Scenario `json:"scenarios,omitempty"`
	Sensitivity []SensitivityRow    `json:"sensitivity,omitempty"`

	// Degraded lists the fallback paths taken during this run. Empty for a
	// fully-modeled result.
	Degraded []string `json:"degraded,omitempty"`
}
