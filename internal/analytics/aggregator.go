package analytics

import (
	"math"
	"sort"

	"github.com/Viru154/SEIRA/internal/domain"
)

// Sample pairs one ticket's analysis with the resolution facts scoring
// needs. The aggregator consumes a closed set of samples for one category;
// it never runs mid-batch.
type Sample struct {
	Analysis        domain.Analysis
	Resolved        bool
	ResolutionHours *float64
}

// Estimated handling hours per urgency level, used for tickets without a
// recorded resolution time.
var urgencyHours = map[domain.Urgency]float64{
	domain.UrgencyCritical: 0.5,
	domain.UrgencyHigh:     1.0,
	domain.UrgencyMedium:   2.0,
	domain.UrgencyLow:      3.0,
}

// minRepetitions is the occurrence threshold above which a keyword counts as
// repetitive across the category.
const minRepetitions = 3

// Aggregate computes CategoryMetrics over one category's closed sample set.
// A category with zero valid analyses yields nil; the caller logs and skips
// it without aborting the run.
func Aggregate(category string, samples []Sample, runID string) *domain.CategoryMetrics {
	valid := make([]domain.Analysis, 0, len(samples))
	for _, sample := range samples {
		if sample.Analysis.Valid {
			valid = append(valid, sample.Analysis)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	mean, std := complexityStats(valid)

	metrics := &domain.CategoryMetrics{
		Category:            category,
		TotalTickets:        len(samples),
		ComplexityMean:      round2(mean),
		ComplexityStd:       round2(std),
		ResolutionRate:      resolutionRate(samples),
		RepetitivenessScore: round2(repetitiveness(valid)),
		UniformityScore:     round2(math.Max(100-std*2, 0)),
		TopKeywords:         topKeywords(valid, 10),
		RunID:               runID,
	}

	for _, analysis := range valid {
		switch analysis.Urgency {
		case domain.UrgencyLow:
			metrics.Urgency.Low++
		case domain.UrgencyMedium:
			metrics.Urgency.Medium++
		case domain.UrgencyHigh:
			metrics.Urgency.High++
		case domain.UrgencyCritical:
			metrics.Urgency.Critical++
		}
		switch analysis.Sentiment {
		case domain.SentimentPositive:
			metrics.Sentiment.Positive++
		case domain.SentimentNeutral:
			metrics.Sentiment.Neutral++
		case domain.SentimentNegative:
			metrics.Sentiment.Negative++
		}
	}

	metrics.AnnualHours = round2(annualHours(samples))
	if metrics.TotalTickets > 0 {
		metrics.AvgResolutionHours = round2(metrics.AnnualHours / float64(metrics.TotalTickets))
	}
	return metrics
}

// complexityStats returns the mean and population standard deviation of the
// valid complexity scores.
func complexityStats(analyses []domain.Analysis) (mean, std float64) {
	sum := 0.0
	for _, a := range analyses {
		sum += a.ComplexityScore
	}
	mean = sum / float64(len(analyses))

	variance := 0.0
	for _, a := range analyses {
		d := a.ComplexityScore - mean
		variance += d * d
	}
	variance /= float64(len(analyses))
	return mean, math.Sqrt(variance)
}

func resolutionRate(samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	resolved := 0
	for _, sample := range samples {
		if sample.Resolved {
			resolved++
		}
	}
	return round4(float64(resolved) / float64(len(samples)))
}

// repetitiveness is the percentage of distinct keywords occurring at least
// minRepetitions times across the category; 0 when there are no keywords.
func repetitiveness(analyses []domain.Analysis) float64 {
	counts := keywordCounts(analyses)
	if len(counts) == 0 {
		return 0
	}
	repeated := 0
	for _, count := range counts {
		if count >= minRepetitions {
			repeated++
		}
	}
	return float64(repeated) / float64(len(counts)) * 100
}

func topKeywords(analyses []domain.Analysis, topN int) []domain.Keyword {
	counts := keywordCounts(analyses)
	if len(counts) == 0 {
		return nil
	}
	keywords := make([]domain.Keyword, 0, len(counts))
	for word, count := range counts {
		keywords = append(keywords, domain.Keyword{Word: word, Frequency: float64(count)})
	}
	sort.Slice(keywords, func(i, j int) bool {
		if keywords[i].Frequency != keywords[j].Frequency {
			return keywords[i].Frequency > keywords[j].Frequency
		}
		return keywords[i].Word < keywords[j].Word
	})
	if len(keywords) > topN {
		keywords = keywords[:topN]
	}
	return keywords
}

// keywordCounts counts each keyword once per analysis it appears in.
func keywordCounts(analyses []domain.Analysis) map[string]int {
	counts := make(map[string]int)
	for _, analysis := range analyses {
		for _, keyword := range analysis.Keywords {
			counts[keyword.Word]++
		}
	}
	return counts
}

// annualHours sums recorded resolution hours where tickets carry them and
// falls back to the per-urgency estimate otherwise.
func annualHours(samples []Sample) float64 {
	total := 0.0
	for _, sample := range samples {
		if sample.ResolutionHours != nil {
			total += *sample.ResolutionHours
			continue
		}
		urgency := sample.Analysis.Urgency
		if urgency == "" {
			urgency = domain.UrgencyLow
		}
		total += urgencyHours[urgency]
	}
	return total
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
