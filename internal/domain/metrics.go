package domain

// UrgencyCounts is the per-category urgency histogram.
type UrgencyCounts struct {
	Low      int `json:"low"`
	Medium   int `json:"medium"`
	High     int `json:"high"`
	Critical int `json:"critical"`
}

// SentimentCounts is the per-category sentiment histogram.
type SentimentCounts struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// CategoryMetrics aggregates one category's analyses for one run. Recomputed
// wholesale per run, never incrementally mutated.
type CategoryMetrics struct {
	Category            string
	TotalTickets        int
	ComplexityMean      float64
	ComplexityStd       float64
	Urgency             UrgencyCounts
	Sentiment           SentimentCounts
	ResolutionRate      float64
	RepetitivenessScore float64
	UniformityScore     float64
	TopKeywords         []Keyword
	AnnualHours         float64
	AvgResolutionHours  float64
	RunID               string
}
