package analytics

import (
	"testing"

	"github.com/Viru154/SEIRA/internal/domain"
)

func hoursPtr(v float64) *float64 { return &v }

func TestAggregateMetrics(t *testing.T) {
	samples := []Sample{
		{
			Analysis: domain.Analysis{
				Valid:           true,
				ComplexityScore: 40,
				Urgency:         domain.UrgencyHigh,
				Sentiment:       domain.SentimentNegative,
				Keywords:        []domain.Keyword{{Word: "pago"}, {Word: "error"}},
			},
			Resolved:        true,
			ResolutionHours: hoursPtr(2.5),
		},
		{
			Analysis: domain.Analysis{
				Valid:           true,
				ComplexityScore: 60,
				Urgency:         domain.UrgencyLow,
				Sentiment:       domain.SentimentNeutral,
				Keywords:        []domain.Keyword{{Word: "pago"}},
			},
		},
		{
			Analysis: domain.Analysis{Valid: false},
		},
	}

	metrics := Aggregate("pagos", samples, "run-1")
	if metrics == nil {
		t.Fatal("expected metrics")
	}

	if metrics.TotalTickets != 3 {
		t.Errorf("TotalTickets = %d, want 3", metrics.TotalTickets)
	}
	if metrics.ComplexityMean != 50 {
		t.Errorf("ComplexityMean = %v, want 50", metrics.ComplexityMean)
	}
	if metrics.ComplexityStd != 10 {
		t.Errorf("ComplexityStd = %v, want 10 (population)", metrics.ComplexityStd)
	}
	if metrics.UniformityScore != 80 {
		t.Errorf("UniformityScore = %v, want 100-2*10 = 80", metrics.UniformityScore)
	}
	if metrics.ResolutionRate != 0.3333 {
		t.Errorf("ResolutionRate = %v, want 0.3333", metrics.ResolutionRate)
	}
	if metrics.Urgency.High != 1 || metrics.Urgency.Low != 1 {
		t.Errorf("Urgency counts = %+v", metrics.Urgency)
	}
	if metrics.Sentiment.Negative != 1 || metrics.Sentiment.Neutral != 1 {
		t.Errorf("Sentiment counts = %+v", metrics.Sentiment)
	}

	// 2.5 recorded + 3.0 (low estimate) + 3.0 (invalid defaults to low).
	if metrics.AnnualHours != 8.5 {
		t.Errorf("AnnualHours = %v, want 8.5", metrics.AnnualHours)
	}
	if metrics.AvgResolutionHours != 2.83 {
		t.Errorf("AvgResolutionHours = %v, want 2.83", metrics.AvgResolutionHours)
	}
	if metrics.RunID != "run-1" {
		t.Errorf("RunID = %q", metrics.RunID)
	}
}

func TestAggregateRepetitiveness(t *testing.T) {
	kw := func(words ...string) []domain.Keyword {
		out := make([]domain.Keyword, len(words))
		for i, w := range words {
			out[i] = domain.Keyword{Word: w}
		}
		return out
	}
	samples := []Sample{
		{Analysis: domain.Analysis{Valid: true, Keywords: kw("pago")}},
		{Analysis: domain.Analysis{Valid: true, Keywords: kw("pago")}},
		{Analysis: domain.Analysis{Valid: true, Keywords: kw("pago", "error")}},
	}

	metrics := Aggregate("pagos", samples, "run-1")
	if metrics == nil {
		t.Fatal("expected metrics")
	}
	// "pago" repeats 3 times, "error" once: 1 of 2 distinct keywords.
	if metrics.RepetitivenessScore != 50 {
		t.Errorf("RepetitivenessScore = %v, want 50", metrics.RepetitivenessScore)
	}
	if len(metrics.TopKeywords) != 2 || metrics.TopKeywords[0].Word != "pago" {
		t.Errorf("TopKeywords = %v, want pago first", metrics.TopKeywords)
	}
}

func TestAggregateNoValidAnalyses(t *testing.T) {
	samples := []Sample{
		{Analysis: domain.Analysis{Valid: false}},
		{Analysis: domain.Analysis{Valid: false}},
	}
	if metrics := Aggregate("vacía", samples, "run-1"); metrics != nil {
		t.Fatalf("expected nil metrics, got %+v", metrics)
	}
	if metrics := Aggregate("vacía", nil, "run-1"); metrics != nil {
		t.Fatalf("expected nil metrics for empty input, got %+v", metrics)
	}
}
