package domain

import "time"

// RecommendationLevel enumerates the IAR bands. The bands partition [0,100]
// with inclusive upper edges: (..30], (30..60], (60..80], (80..100].
type RecommendationLevel string

const (
	LevelNotRecommended    RecommendationLevel = "NOT_RECOMMENDED"
	LevelEvaluate          RecommendationLevel = "EVALUATE"
	LevelRecommended       RecommendationLevel = "RECOMMENDED"
	LevelHighlyRecommended RecommendationLevel = "HIGHLY_RECOMMENDED"
)

// PaybackNever is the sentinel payback period for categories whose monthly
// net benefit never repays the implementation cost.
const PaybackNever = 999

// ROI estimates the financial return of automating a category.
type ROI struct {
	AnnualSavingsUSD     float64 `json:"annual_savings_usd"`
	MaintenanceAnnualUSD float64 `json:"maintenance_annual_usd"`
	ROIPercent           float64 `json:"roi_percent"`
	PaybackMonths        int     `json:"payback_months"`
}

// Recommendation is the scored automation verdict for one category in one
// run. A run's set is replaced atomically; readers never see a mix of runs.
type Recommendation struct {
	Category           string
	FrequencyScore     float64
	ComplexityScore    float64
	ImpactScore        float64
	FeasibilityScore   float64
	IARScore           float64
	Level              RecommendationLevel
	ROI                ROI
	RecommendationText string
	Rationale          string
	SuggestedApproach  string
	Priority           int
	TotalTickets       int
	RunID              string
	ComputedAt         time.Time
}
