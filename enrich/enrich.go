// Package enrich derives per-queue behavioral attributes from complexity
// heuristics and intent-name keyword overrides. These attributes feed the
// opportunity pool ceilings and the lever-specific gross impact formulas.
// When detailed telemetry is unavailable, complexity is the best available
// proxy for how a queue behaves.
package enrich

import (
	"math"
	"strings"

	"contact-waterfall/models"
)

var highEmotionKeywords = []string{
	"complaint", "dispute", "cancel", "fraud", "bereavement",
	"hardship", "escalat", "threat", "legal",
}

var moderateEmotionKeywords = []string{
	"refund", "billing", "overcharge", "disconnect", "terminate", "close account",
}

var noAuthKeywords = []string{
	"faq", "general", "product info", "hours", "location",
	"status check", "tracking", "pricing",
}

var highAuthKeywords = []string{
	"account change", "password", "transaction", "transfer",
	"payment", "address change", "personal detail",
}

// digitalChannels require no migration; they are already off voice.
var digitalChannels = map[string]bool{
	"Chat":             true,
	"Email":            true,
	"App/Self-Service": true,
	"SMS/WhatsApp":     true,
	"Social Media":     true,
}

// Enrich computes the derived intent profile for every queue. It is a pure
// function: the input slice is not modified.
func Enrich(queues []models.Queue) []models.EnrichedQueue {
	enriched := make([]models.EnrichedQueue, 0, len(queues))
	for _, q := range queues {
		enriched = append(enriched, enrichOne(q))
	}
	return enriched
}

func enrichOne(q models.Queue) models.EnrichedQueue {
	eq := models.EnrichedQueue{Queue: q}

	repeatability := repeatabilityFromComplexity(q.Complexity)
	// Observed repeat data beats the heuristic: a measurably repeat-heavy
	// queue is more deflectable than its complexity tier suggests.
	if q.RepeatRate > 0.15 {
		repeatability = math.Min(1.0, repeatability+0.15)
	}

	emotionalRisk := emotionalRisk(q.Complexity, q.Intent)
	authRequired := authRequired(q.Complexity, q.Intent)

	eq.Repeatability = round3(repeatability)
	eq.EmotionalRisk = round3(emotionalRisk)
	eq.AuthRequired = round3(authRequired)
	eq.ContainmentFeasibility = containmentFeasibility(repeatability, emotionalRisk, authRequired, q.Complexity)

	// Eligible = repeatable AND not auth-blocked. Containment is applied
	// later, at gross-impact time, as min(impact, containment).
	eq.DeflectionEligiblePct = round3(repeatability * (1 - authRequired*0.30))

	eq.AHTDecomp = decomposeAHT(q.AHTMinutes, q.ACWMinutes, q.Complexity)
	eq.TransferClass = classifyTransfers(q.TransferRate, q.EscalationRate, q.Complexity)
	eq.MigrationReadiness = migrationReadiness(q.Channel, q.Complexity, emotionalRisk, authRequired)

	return eq
}

// repeatabilityFromComplexity: higher complexity means fewer simple repeat
// queries.
func repeatabilityFromComplexity(complexity float64) float64 {
	switch {
	case complexity <= 0.20:
		return 0.85
	case complexity <= 0.35:
		return 0.65
	case complexity <= 0.50:
		return 0.45
	case complexity <= 0.70:
		return 0.25
	}
	return 0.10
}

// emotionalRisk estimates how emotionally charged an intent is. Complaints
// and disputes are high regardless of complexity.
func emotionalRisk(complexity float64, intent string) float64 {
	name := strings.ToLower(intent)
	if containsAny(name, highEmotionKeywords) {
		return 0.85
	}
	if containsAny(name, moderateEmotionKeywords) {
		return 0.60
	}
	switch {
	case complexity <= 0.25:
		return 0.10
	case complexity <= 0.45:
		return 0.25
	case complexity <= 0.65:
		return 0.45
	}
	return 0.65
}

// authRequired estimates whether authentication is needed, which blocks
// self-service deflection.
func authRequired(complexity float64, intent string) float64 {
	name := strings.ToLower(intent)
	if containsAny(name, noAuthKeywords) {
		return 0.10
	}
	if containsAny(name, highAuthKeywords) {
		return 0.90
	}
	switch {
	case complexity <= 0.25:
		return 0.20
	case complexity <= 0.50:
		return 0.50
	}
	return 0.75
}

// containmentFeasibility estimates how likely a virtual agent can fully
// resolve the intent. Repeatability matters most; authentication above 0.80
// is a hard penalty that halves the result.
func containmentFeasibility(repeatability, emotionalRisk, authRequired, complexity float64) float64 {
	base := repeatability*0.40 + (1-emotionalRisk)*0.25 + (1-authRequired)*0.25 + (1-complexity)*0.10
	if authRequired > 0.80 {
		base *= 0.50
	}
	return round3(clamp01(base))
}

// decomposeAHT splits handle time into talk/hold/search/other using
// complexity-tier percentages benchmarked against COPC splits. Wrap is the
// reported ACW, unmodified. ReducibleSec covers full search time, 80% of
// wrap (auto-summarization), 15% of talk (AI-assisted resolution) and 30%
// of hold (faster lookups).
func decomposeAHT(ahtMinutes, acwMinutes, complexity float64) models.AHTDecomposition {
	ahtSec := ahtMinutes * 60
	acwSec := acwMinutes * 60

	var talkPct, holdPct, searchPct float64
	switch {
	case complexity <= 0.25:
		talkPct, holdPct, searchPct = 0.55, 0.05, 0.25
	case complexity <= 0.50:
		talkPct, holdPct, searchPct = 0.55, 0.10, 0.20
	case complexity <= 0.70:
		talkPct, holdPct, searchPct = 0.55, 0.15, 0.18
	default:
		talkPct, holdPct, searchPct = 0.50, 0.20, 0.15
	}
	otherPct := math.Max(0, 1.0-talkPct-holdPct-searchPct)

	return models.AHTDecomposition{
		TalkSec:        round1(ahtSec * talkPct),
		HoldSec:        round1(ahtSec * holdPct),
		SearchSec:      round1(ahtSec * searchPct),
		OtherSec:       round1(ahtSec * otherPct),
		WrapSec:        round1(acwSec),
		TotalHandleSec: round1(ahtSec + acwSec),
		ReducibleSec: round1(ahtSec*searchPct +
			acwSec*0.80 +
			ahtSec*talkPct*0.15 +
			ahtSec*holdPct*0.30),
	}
}

// classifyTransfers splits transfers into preventable and structural.
// Low-complexity intents with transfers are mostly routing errors; high
// escalation implies genuine complexity, so the preventable share shrinks.
func classifyTransfers(transferRate, escalationRate, complexity float64) models.TransferClassification {
	if transferRate <= 0 {
		return models.TransferClassification{}
	}

	var preventableShare float64
	switch {
	case complexity <= 0.30:
		preventableShare = 0.75
	case complexity <= 0.55:
		preventableShare = 0.50
	case complexity <= 0.75:
		preventableShare = 0.30
	default:
		preventableShare = 0.15
	}
	if escalationRate > 0.15 {
		preventableShare *= 0.70
	}

	return models.TransferClassification{
		TotalRate:        round4(transferRate),
		PreventableRate:  round4(transferRate * preventableShare),
		StructuralRate:   round4(transferRate * (1 - preventableShare)),
		PreventableShare: round3(preventableShare),
	}
}

// migrationReadiness scores how ready an intent is for digital channel
// migration. Already-digital channels score 0; IVR is partially digital.
func migrationReadiness(channel string, complexity, emotionalRisk, authRequired float64) float64 {
	if digitalChannels[channel] {
		return 0.0
	}
	if channel == "IVR" {
		return round3(0.20 * (1 - complexity))
	}

	base := 0.80
	base -= complexity * 0.30
	base -= emotionalRisk * 0.25
	base -= authRequired * 0.15
	return round3(clamp01(base))
}

// Summary aggregates intent profiles into volume-weighted statistics.
func Summary(enriched []models.EnrichedQueue) models.IntentSummary {
	var totalVol float64
	for _, q := range enriched {
		totalVol += q.Volume
	}
	if totalVol == 0 {
		return models.IntentSummary{}
	}

	var deflectable, migratable, containment, emotion float64
	for _, q := range enriched {
		deflectable += q.Volume * q.DeflectionEligiblePct
		migratable += q.Volume * q.MigrationReadiness
		containment += q.ContainmentFeasibility * q.Volume
		emotion += q.EmotionalRisk * q.Volume
	}

	return models.IntentSummary{
		TotalVolume:       math.Round(totalVol),
		DeflectableVolume: math.Round(deflectable),
		DeflectablePct:    round1(deflectable / totalVol * 100),
		AvgContainment:    round3(containment / totalVol),
		AvgEmotionalRisk:  round3(emotion / totalVol),
		MigratableVolume:  math.Round(migratable),
		MigratablePct:     round1(migratable / totalVol * 100),
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	return math.Min(1.0, math.Max(0.0, v))
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
