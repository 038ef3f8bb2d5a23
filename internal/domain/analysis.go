package domain

import "time"

// Sentiment enumerates lexicon-derived tone.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Urgency enumerates the urgency resolved from lexicon hits and the
// declared ticket priority.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Keyword is one ranked keyword with its weight. Frequency holds the raw
// document frequency in streaming mode and the TF-IDF rank position weight
// after corpus re-ranking.
type Keyword struct {
	Word      string  `json:"word"`
	Frequency float64 `json:"frequency"`
}

// EntityGroups holds recognized spans grouped by type, deduplicated per group.
// All groups are empty when the fallback backend produced the analysis.
type EntityGroups struct {
	Persons       []string `json:"persons,omitempty"`
	Organizations []string `json:"organizations,omitempty"`
	Locations     []string `json:"locations,omitempty"`
	Dates         []string `json:"dates,omitempty"`
	Money         []string `json:"money,omitempty"`
	Emails        []string `json:"emails,omitempty"`
	URLs          []string `json:"urls,omitempty"`
	Phones        []string `json:"phones,omitempty"`
	References    []string `json:"references,omitempty"`
}

// Count returns the total number of recognized spans across all groups.
func (e EntityGroups) Count() int {
	return len(e.Persons) + len(e.Organizations) + len(e.Locations) +
		len(e.Dates) + len(e.Money) + len(e.Emails) + len(e.URLs) +
		len(e.Phones) + len(e.References)
}

// Analysis is the per-ticket output of feature extraction. There is at most
// one per ticket; re-processing replaces the record wholesale.
type Analysis struct {
	TicketID         int64
	CleanedText      string
	Keywords         []Keyword
	Entities         EntityGroups
	ComplexityScore  float64
	Sentiment        Sentiment
	Urgency          Urgency
	DetectedCategory string
	Confidence       float64
	Degraded         bool
	WordCount        int
	ProcessedAt      time.Time
	ProcessingTimeMS float64
	Valid            bool
}
