package nlp

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Viru154/SEIRA/internal/domain"
)

const (
	// minValidTokens is the validity gate: shorter texts produce a zeroed,
	// invalid analysis instead of an error.
	minValidTokens = 3

	// topKeywords caps the per-document keyword list.
	topKeywords = 10

	confidenceFull     = 0.8
	confidenceFallback = 0.5
)

// Extractor turns raw ticket text into an Analysis. The language backend is
// injected once at construction and never swapped per call.
type Extractor struct {
	backend LanguageBackend
}

// NewExtractor constructs an extractor over the given backend.
func NewExtractor(backend LanguageBackend) *Extractor {
	return &Extractor{backend: backend}
}

// Degraded reports whether the extractor runs on the fallback backend.
func (e *Extractor) Degraded() bool {
	return e.backend.Degraded()
}

// BackendName identifies the active backend for logging.
func (e *Extractor) BackendName() string {
	return e.backend.Name()
}

// Tokenize exposes the backend tokenizer for corpus-level reranking over
// already-normalized text.
func (e *Extractor) Tokenize(cleaned string) []string {
	return e.backend.Tokens(cleaned)
}

// Extract computes all analysis fields for one ticket. It never fails: text
// below the validity gate yields a zeroed analysis with Valid=false.
func (e *Extractor) Extract(ticket domain.Ticket) domain.Analysis {
	start := time.Now()
	raw := ticket.Text()
	cleaned := Normalize(raw)
	words := strings.Fields(cleaned)

	if len(words) < minValidTokens {
		return domain.Analysis{
			TicketID:         ticket.ID,
			Sentiment:        domain.SentimentNeutral,
			Urgency:          domain.UrgencyLow,
			DetectedCategory: ticket.Category,
			Degraded:         e.backend.Degraded(),
			ProcessedAt:      time.Now().UTC(),
			ProcessingTimeMS: elapsedMS(start),
			Valid:            false,
		}
	}

	tokens := e.backend.Tokens(cleaned)
	entities := e.backend.Entities(raw)

	confidence := confidenceFull
	if e.backend.Degraded() {
		confidence = confidenceFallback
	}

	return domain.Analysis{
		TicketID:         ticket.ID,
		CleanedText:      cleaned,
		Keywords:         FrequencyKeywords(tokens, topKeywords),
		Entities:         entities,
		ComplexityScore:  complexityScore(words, cleaned, entities.Count()),
		Sentiment:        classifySentiment(words),
		Urgency:          classifyUrgency(tokens, ticket.Priority),
		DetectedCategory: ticket.Category,
		Confidence:       confidence,
		Degraded:         e.backend.Degraded(),
		WordCount:        len(words),
		ProcessedAt:      time.Now().UTC(),
		ProcessingTimeMS: elapsedMS(start),
		Valid:            true,
	}
}

// FrequencyKeywords ranks tokens by raw frequency, ties broken
// alphabetically so output is deterministic.
func FrequencyKeywords(tokens []string, topN int) []domain.Keyword {
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[string]int, len(tokens))
	for _, token := range tokens {
		counts[token]++
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

// complexityScore combines text volume, lexical variety, sentence count and
// entity density into a 0-100 score.
func complexityScore(words []string, cleaned string, entityCount int) float64 {
	wordCount := len(words)
	unique := make(map[string]struct{}, wordCount)
	for _, word := range words {
		unique[word] = struct{}{}
	}
	sentences := SentenceCount(cleaned)

	score := 30*math.Min(float64(wordCount)/100, 1) +
		30*(float64(len(unique))/math.Max(float64(wordCount), 1)) +
		20*math.Min(float64(sentences)/10, 1) +
		20*math.Min(float64(entityCount)/5, 1)
	return round2(math.Min(score, 100))
}

// classifyUrgency merges urgency-lexicon hits on lemmatized tokens with the
// declared ticket priority. The two signals are combined, not independent:
// a single lexicon hit and a high declared priority land on the same level.
func classifyUrgency(tokens []string, declared domain.TicketPriority) domain.Urgency {
	matches := 0
	seen := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		if _, ok := urgencyTerms[token]; ok {
			matches++
		}
	}

	declaredHigh := declared == domain.TicketPriorityHigh || declared == domain.TicketPriorityCritical
	switch {
	case matches >= 3:
		return domain.UrgencyCritical
	case matches == 2:
		return domain.UrgencyHigh
	case matches == 1 || declaredHigh:
		return domain.UrgencyHigh
	case declared == domain.TicketPriorityMedium:
		return domain.UrgencyMedium
	default:
		return domain.UrgencyLow
	}
}

// classifySentiment scores the cleaned-text word set against the positive
// and negative lexicons; the sign decides, ties are neutral.
func classifySentiment(words []string) domain.Sentiment {
	wordSet := make(map[string]struct{}, len(words))
	for _, word := range words {
		wordSet[strings.Trim(word, ".,;:¿?¡!-")] = struct{}{}
	}

	positive, negative := 0, 0
	for word := range wordSet {
		if _, ok := positiveTerms[word]; ok {
			positive++
		}
		if _, ok := negativeTerms[word]; ok {
			negative++
		}
	}

	switch {
	case negative > positive:
		return domain.SentimentNegative
	case positive > negative:
		return domain.SentimentPositive
	default:
		return domain.SentimentNeutral
	}
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
