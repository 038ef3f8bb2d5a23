package analytics

import (
	"math"
	"strings"
	"testing"

	"github.com/Viru154/SEIRA/internal/config"
	"github.com/Viru154/SEIRA/internal/domain"
	"github.com/Viru154/SEIRA/pkg/util"
)

func defaultScoring() config.ScoringConfig {
	return config.ScoringConfig{
		WeightFrequency:       0.30,
		WeightComplexity:      0.25,
		WeightImpact:          0.25,
		WeightFeasibility:     0.20,
		AutomationFactor:      0.70,
		HourlyCostUSD:         25,
		ImplementationCostUSD: 10000,
		MaintenancePct:        0.15,
	}
}

func TestNewEngineRejectsBadWeights(t *testing.T) {
	cfg := defaultScoring()
	cfg.WeightFrequency = 0.50

	_, err := NewEngine(cfg)
	if err == nil {
		t.Fatal("expected weight-sum validation to fail")
	}
	if !util.IsFatalConfig(err) {
		t.Fatalf("expected CONFIG_INVALID, got %v", err)
	}
}

func TestFrequencyScore(t *testing.T) {
	cases := []struct {
		name         string
		total, globl int
		want         float64
	}{
		{"zero global", 100, 0, 0},
		{"above ten percent", 15001, 150000, 100},
		{"exactly ten percent takes scaled branch", 15000, 150000, 15},
		{"eight percent", 12000, 150000, 12},
		{"four percent doubles", 6000, 150000, 8},
		{"dominant category", 14000, 15000, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FrequencyScore(tc.total, tc.globl); got != tc.want {
				t.Fatalf("FrequencyScore(%d, %d) = %v, want %v", tc.total, tc.globl, got, tc.want)
			}
		})
	}
}

func TestComplexityScore(t *testing.T) {
	if got := ComplexityScore(45); got != 55 {
		t.Fatalf("ComplexityScore(45) = %v, want 55", got)
	}
	if got := ComplexityScore(150); got != 0 {
		t.Fatalf("ComplexityScore(150) = %v, want clamp to 0", got)
	}
}

func TestImpactScore(t *testing.T) {
	cases := []struct {
		hours float64
		want  float64
	}{
		{0, 0},
		{50, 10},
		{100, 20},
		{300, 35},
		{750, 62.5},
		{1000, 75},
		{3000, 100},
		{10000, 100},
	}
	for _, tc := range cases {
		if got := ImpactScore(tc.hours); got != tc.want {
			t.Errorf("ImpactScore(%v) = %v, want %v", tc.hours, got, tc.want)
		}
	}
}

func TestFeasibilityScore(t *testing.T) {
	// 0.4*80 + 0.3*60 + 0.3*(0.9*100) = 32 + 18 + 27 = 77.
	if got := FeasibilityScore(80, 60, 0.9); got != 77 {
		t.Fatalf("FeasibilityScore = %v, want 77", got)
	}
}

func TestLevelBandsPartition(t *testing.T) {
	cases := []struct {
		iar  float64
		want domain.RecommendationLevel
	}{
		{0, domain.LevelNotRecommended},
		{30, domain.LevelNotRecommended},
		{30.01, domain.LevelEvaluate},
		{60, domain.LevelEvaluate},
		{60.01, domain.LevelRecommended},
		{80, domain.LevelRecommended},
		{80.01, domain.LevelHighlyRecommended},
		{100, domain.LevelHighlyRecommended},
	}
	for _, tc := range cases {
		if got := LevelFor(tc.iar); got != tc.want {
			t.Errorf("LevelFor(%v) = %q, want %q", tc.iar, got, tc.want)
		}
	}
}

func TestPriorityBands(t *testing.T) {
	cases := []struct {
		iar  float64
		want int
	}{
		{10, 1},
		{25, 2},
		{35, 3},
		{55, 5},
		{65, 6},
		{79, 8},
		{81, 9},
		{95, 10},
	}
	for _, tc := range cases {
		level := LevelFor(tc.iar)
		if got := PriorityFor(level, tc.iar); got != tc.want {
			t.Errorf("PriorityFor(%v) = %d, want %d", tc.iar, got, tc.want)
		}
	}
}

func TestScoreComposition(t *testing.T) {
	engine, err := NewEngine(defaultScoring())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	metrics := domain.CategoryMetrics{
		Category:            "pagos",
		TotalTickets:        12000,
		ComplexityMean:      45,
		RepetitivenessScore: 80,
		UniformityScore:     60,
		ResolutionRate:      0.9,
		AnnualHours:         750,
	}
	rec := engine.Score(metrics, 150000, "run-1")

	if rec.FrequencyScore != 12 || rec.ComplexityScore != 55 ||
		rec.ImpactScore != 62.5 || rec.FeasibilityScore != 77 {
		t.Fatalf("sub-scores = %v/%v/%v/%v",
			rec.FrequencyScore, rec.ComplexityScore, rec.ImpactScore, rec.FeasibilityScore)
	}

	want := 0.30*12 + 0.25*55 + 0.25*62.5 + 0.20*77
	if math.Abs(rec.IARScore-want) > 0.01 {
		t.Fatalf("IARScore = %v, want %v", rec.IARScore, want)
	}
	if rec.Level != domain.LevelEvaluate {
		t.Errorf("Level = %q, want EVALUATE for IAR %.2f", rec.Level, rec.IARScore)
	}
	if rec.Priority < 3 || rec.Priority > 5 {
		t.Errorf("Priority = %d, want within the EVALUATE band 3-5", rec.Priority)
	}
	if rec.RunID != "run-1" || rec.TotalTickets != 12000 {
		t.Errorf("metadata = %q/%d", rec.RunID, rec.TotalTickets)
	}
}

func TestScoreTextDeterministic(t *testing.T) {
	engine, err := NewEngine(defaultScoring())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	metrics := domain.CategoryMetrics{
		Category:            "envíos",
		TotalTickets:        20000,
		ComplexityMean:      30,
		RepetitivenessScore: 90,
		UniformityScore:     85,
		ResolutionRate:      0.95,
		AnnualHours:         1500,
	}

	first := engine.Score(metrics, 150000, "run-1")
	second := engine.Score(metrics, 150000, "run-1")
	if first.RecommendationText != second.RecommendationText {
		t.Fatal("recommendation text differs between identical inputs")
	}
	if first.Rationale != second.Rationale {
		t.Fatal("rationale differs between identical inputs")
	}
	if !strings.Contains(first.RecommendationText, "envíos") {
		t.Errorf("text does not name the category: %q", first.RecommendationText)
	}
}

func TestROIPaybackSentinel(t *testing.T) {
	engine, err := NewEngine(defaultScoring())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	// 10 annual hours: savings 10*25*0.7 = 175, maintenance 1500, net < 0.
	low := engine.Score(domain.CategoryMetrics{Category: "rara", TotalTickets: 5, AnnualHours: 10}, 100, "run-1")
	if low.ROI.PaybackMonths != domain.PaybackNever {
		t.Fatalf("PaybackMonths = %d, want sentinel %d", low.ROI.PaybackMonths, domain.PaybackNever)
	}
	if low.ROI.AnnualSavingsUSD != 175 {
		t.Errorf("AnnualSavingsUSD = %v, want 175", low.ROI.AnnualSavingsUSD)
	}

	// 2000 annual hours: savings 35000, net 33500, payback trunc(10000/2791.67) = 3.
	high := engine.Score(domain.CategoryMetrics{Category: "pagos", TotalTickets: 500, AnnualHours: 2000}, 1000, "run-1")
	if high.ROI.PaybackMonths != 3 {
		t.Fatalf("PaybackMonths = %d, want 3", high.ROI.PaybackMonths)
	}
	if high.ROI.ROIPercent != 335 {
		t.Errorf("ROIPercent = %v, want 335", high.ROI.ROIPercent)
	}
}

func TestSuggestApproach(t *testing.T) {
	cases := []struct {
		category string
		want     string
	}{
		{"Consultas de información", "Chatbot / smart FAQ"},
		{"Problemas de pago", "RPA + systems integration"},
		{"Soporte técnico", "Expert system + automated diagnosis"},
		{"Devoluciones y garantías", "Workflow automation + ML"},
		{"Otros", "NLP + automatic classification"},
	}
	for _, tc := range cases {
		if got := SuggestApproach(tc.category, 0, 0); got != tc.want {
			t.Errorf("SuggestApproach(%q) = %q, want %q", tc.category, got, tc.want)
		}
	}
}
