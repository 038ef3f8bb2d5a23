package analytics

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Viru154/SEIRA/internal/config"
	"github.com/Viru154/SEIRA/internal/domain"
)

// Engine computes sub-scores, the composite IAR, ROI and the recommendation
// verdict for one category. Configuration is validated at construction;
// malformed weights abort the run before any recommendation is written.
type Engine struct {
	cfg config.ScoringConfig
}

// NewEngine validates the scoring configuration and constructs the engine.
func NewEngine(cfg config.ScoringConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Score produces the Recommendation for one category's metrics against the
// run's global ticket total. Identical inputs yield byte-identical text.
func (e *Engine) Score(metrics domain.CategoryMetrics, globalTotal int, runID string) domain.Recommendation {
	frequency := FrequencyScore(metrics.TotalTickets, globalTotal)
	complexity := ComplexityScore(metrics.ComplexityMean)
	impact := ImpactScore(metrics.AnnualHours)
	feasibility := FeasibilityScore(metrics.RepetitivenessScore, metrics.UniformityScore, metrics.ResolutionRate)

	iar := round2(clamp(
		frequency*e.cfg.WeightFrequency+
			complexity*e.cfg.WeightComplexity+
			impact*e.cfg.WeightImpact+
			feasibility*e.cfg.WeightFeasibility,
		0, 100))

	level := LevelFor(iar)
	roi := e.estimateROI(metrics.AnnualHours)

	return domain.Recommendation{
		Category:           metrics.Category,
		FrequencyScore:     frequency,
		ComplexityScore:    complexity,
		ImpactScore:        impact,
		FeasibilityScore:   feasibility,
		IARScore:           iar,
		Level:              level,
		ROI:                roi,
		RecommendationText: recommendationText(metrics.Category, iar, level, roi),
		Rationale:          rationaleText(level, metrics.TotalTickets, roi),
		SuggestedApproach:  SuggestApproach(metrics.Category, metrics.Urgency.Critical, metrics.Sentiment.Negative),
		Priority:           PriorityFor(level, iar),
		TotalTickets:       metrics.TotalTickets,
		RunID:              runID,
		ComputedAt:         time.Now().UTC(),
	}
}

// FrequencyScore scores the category's share of the global ticket volume.
// The 10% boundary uses strict comparison: exactly 10% share takes the
// scaled branch, not the flat 100.
func FrequencyScore(totalTickets, globalTotal int) float64 {
	if globalTotal == 0 {
		return 0
	}
	share := float64(totalTickets) / float64(globalTotal)
	score := share * 100
	switch {
	case share > 0.10:
		score = 100
	case share > 0.05:
		score = math.Min(score*1.5, 100)
	default:
		score = math.Min(score*2.0, 100)
	}
	return round2(math.Min(score, 100))
}

// ComplexityScore inverts mean complexity: simple categories automate best.
func ComplexityScore(complexityMean float64) float64 {
	return round2(clamp(100-complexityMean, 0, 100))
}

// ImpactScore maps annual hours spent in the category onto 0-100 through a
// piecewise scale.
func ImpactScore(annualHours float64) float64 {
	if annualHours <= 0 {
		return 0
	}
	var score float64
	switch {
	case annualHours < 100:
		score = (annualHours / 100) * 20
	case annualHours < 500:
		score = 20 + ((annualHours-100)/400)*30
	case annualHours < 1000:
		score = 50 + ((annualHours-500)/500)*25
	default:
		score = 75 + math.Min(((annualHours-1000)/2000)*25, 25)
	}
	return round2(math.Min(score, 100))
}

// FeasibilityScore combines repetitiveness (40%), uniformity (30%) and the
// resolution rate (30%, rescaled to 0-100).
func FeasibilityScore(repetitiveness, uniformity, resolutionRate float64) float64 {
	score := repetitiveness*0.40 + uniformity*0.30 + (resolutionRate*100)*0.30
	return round2(math.Min(score, 100))
}

// LevelFor maps an IAR value onto its recommendation band. Upper edges are
// inclusive, so the bands partition [0,100] with no gap or overlap.
func LevelFor(iar float64) domain.RecommendationLevel {
	switch {
	case iar <= 30:
		return domain.LevelNotRecommended
	case iar <= 60:
		return domain.LevelEvaluate
	case iar <= 80:
		return domain.LevelRecommended
	default:
		return domain.LevelHighlyRecommended
	}
}

// PriorityFor derives the 1-10 priority from the level band and the IAR's
// position inside it, linearly interpolated and truncated.
func PriorityFor(level domain.RecommendationLevel, iar float64) int {
	switch level {
	case domain.LevelHighlyRecommended:
		return 9 + minInt(int((iar-80)/2), 1)
	case domain.LevelRecommended:
		return 6 + minInt(int((iar-60)/6), 2)
	case domain.LevelEvaluate:
		return 3 + minInt(int((iar-30)/10), 2)
	default:
		return 1 + minInt(int(iar/15), 1)
	}
}

// estimateROI projects savings from automating the category's annual hours.
func (e *Engine) estimateROI(annualHours float64) domain.ROI {
	savings := annualHours * e.cfg.HourlyCostUSD * e.cfg.AutomationFactor
	maintenance := e.cfg.ImplementationCostUSD * e.cfg.MaintenancePct
	netAnnual := savings - maintenance

	roiPercent := 0.0
	if e.cfg.ImplementationCostUSD > 0 {
		roiPercent = netAnnual / e.cfg.ImplementationCostUSD * 100
	}

	payback := domain.PaybackNever
	if monthlyNet := netAnnual / 12; monthlyNet > 0 {
		payback = int(e.cfg.ImplementationCostUSD / monthlyNet)
	}

	return domain.ROI{
		AnnualSavingsUSD:     round2(savings),
		MaintenanceAnnualUSD: round2(maintenance),
		ROIPercent:           round2(roiPercent),
		PaybackMonths:        payback,
	}
}

// recommendationText renders the deterministic per-level verdict. Regression
// tests compare these strings byte for byte.
func recommendationText(category string, iar float64, level domain.RecommendationLevel, roi domain.ROI) string {
	switch level {
	case domain.LevelHighlyRecommended:
		return fmt.Sprintf("HIGHLY RECOMMENDED: automate '%s'. With an IAR of %.2f/100 this category shows excellent automation potential. Estimated ROI of %.1f%% with payback in %d months.",
			category, iar, roi.ROIPercent, roi.PaybackMonths)
	case domain.LevelRecommended:
		return fmt.Sprintf("RECOMMENDED: consider automation for '%s'. With an IAR of %.2f/100 this category is a good candidate. Estimated ROI: %.1f%% in %d months.",
			category, iar, roi.ROIPercent, roi.PaybackMonths)
	case domain.LevelEvaluate:
		return fmt.Sprintf("EVALUATE: automation of '%s' needs closer study. An IAR of %.2f/100 indicates moderate potential. Projected ROI is %.1f%%, payback in %d months.",
			category, iar, roi.ROIPercent, roi.PaybackMonths)
	default:
		return fmt.Sprintf("NOT RECOMMENDED: do not automate '%s' at this time. With an IAR of %.2f/100 automation is not a priority.",
			category, iar)
	}
}

func rationaleText(level domain.RecommendationLevel, totalTickets int, roi domain.ROI) string {
	switch level {
	case domain.LevelHighlyRecommended:
		return fmt.Sprintf("This category holds %d tickets, a high volume. Projected annual savings are $%.2f. Automation would significantly reduce the operational load.",
			totalTickets, roi.AnnualSavingsUSD)
	case domain.LevelRecommended:
		return fmt.Sprintf("With %d tickets there is enough volume to justify the investment. A pilot is advised before full rollout.",
			totalTickets)
	case domain.LevelEvaluate:
		return fmt.Sprintf("Although the category holds %d tickets, other factors suggest caution. Consider partial or semi-automated solutions first.",
			totalTickets)
	default:
		return fmt.Sprintf("The %d tickets in this category do not justify the investment. Consider improving manual processes or documentation instead.",
			totalTickets)
	}
}

// SuggestApproach maps the category name and its urgency/sentiment profile
// onto an automation approach.
func SuggestApproach(category string, criticalCount, negativeCount int) string {
	name := strings.ToLower(category)
	switch {
	case strings.Contains(name, "consulta") || strings.Contains(name, "información") || strings.Contains(name, "informacion"):
		return "Chatbot / smart FAQ"
	case strings.Contains(name, "pago") || strings.Contains(name, "envío") || strings.Contains(name, "envio") || strings.Contains(name, "pedido"):
		return "RPA + systems integration"
	case strings.Contains(name, "técnico") || strings.Contains(name, "tecnico") || strings.Contains(name, "error"):
		return "Expert system + automated diagnosis"
	case strings.Contains(name, "devolución") || strings.Contains(name, "devolucion") || strings.Contains(name, "garantía") || strings.Contains(name, "garantia"):
		return "Workflow automation + ML"
	case negativeCount > criticalCount:
		return "Empathetic chatbot + smart escalation"
	default:
		return "NLP + automatic classification"
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
