package nlp

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Viru154/SEIRA/internal/domain"
)

// LanguageBackend is the pluggable language capability behind the feature
// extractor. The active implementation is chosen once at construction and
// recorded on every Analysis it produces.
type LanguageBackend interface {
	// Name identifies the backend for logging.
	Name() string
	// Degraded reports whether this is the reduced-capability fallback.
	Degraded() bool
	// Tokens returns lemmatized, stopword- and length-filtered tokens
	// from cleaned text.
	Tokens(cleaned string) []string
	// Entities extracts typed spans from the raw (uncleaned) text.
	Entities(raw string) domain.EntityGroups
}

// SpanishBackend is the full in-process backend: suffix lemmatization,
// stopword filtering and pattern-based entity recognition tuned for
// Spanish-language support tickets.
type SpanishBackend struct{}

// NewSpanishBackend constructs the full backend.
func NewSpanishBackend() *SpanishBackend {
	return &SpanishBackend{}
}

func (b *SpanishBackend) Name() string   { return "spanish" }
func (b *SpanishBackend) Degraded() bool { return false }

// Tokens lemmatizes and filters the cleaned text.
func (b *SpanishBackend) Tokens(cleaned string) []string {
	words := strings.Fields(cleaned)
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		word = strings.Trim(word, ".,;:¿?¡!-")
		if len([]rune(word)) <= 2 || IsStopword(word) {
			continue
		}
		tokens = append(tokens, Lemmatize(word))
	}
	return tokens
}

// Lemmatize applies light Spanish suffix reduction, enough to map plural and
// derived forms onto the lexicon's singular entries.
func Lemmatize(word string) string {
	switch {
	case strings.HasSuffix(word, "ciones"):
		return strings.TrimSuffix(word, "ciones") + "ción"
	case strings.HasSuffix(word, "siones"):
		return strings.TrimSuffix(word, "siones") + "sión"
	case strings.HasSuffix(word, "es") && len([]rune(word)) > 4:
		return strings.TrimSuffix(word, "es")
	case strings.HasSuffix(word, "s") && len([]rune(word)) > 3:
		return strings.TrimSuffix(word, "s")
	}
	return word
}

var (
	capWord = `[A-ZÁÉÍÓÚÑ][a-záéíóúñü]+`

	rePerson = regexp.MustCompile(`(?:[Ss]r\.?|[Ss]ra\.?|[Ss]rta\.?|[Dd]on|[Dd]oña|[Dd]r\.?|[Dd]ra\.?)\s+(` + capWord + `(?:\s+` + capWord + `)?)`)
	reOrg    = regexp.MustCompile(`(` + capWord + `(?:\s+` + capWord + `)*)\s+(?:S\.A\.|S\.L\.|Inc\.?|Ltda\.?|Corp\.?)`)
	reOrgKw  = regexp.MustCompile(`(?:empresa|tienda|banco|proveedor)\s+(` + capWord + `(?:\s+` + capWord + `)*)`)
	reLoc    = regexp.MustCompile(`(?:en|desde|hacia)\s+(` + capWord + `)`)
	reDate   = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{1,2}\s+de\s+(?:enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|octubre|noviembre|diciembre)`)
	reMoney  = regexp.MustCompile(`\$\s?\d+(?:[.,]\d+)?|\d+(?:[.,]\d+)?\s?(?:USD|usd|EUR|eur|€|dólares|dolares|pesos|quetzales)`)

	reRawEmail = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	reRawURL   = regexp.MustCompile(`https?://\S+`)
	reRawPhone = regexp.MustCompile(`\+?\d[\d\s-]{6,}\d`)
	reRef      = regexp.MustCompile(`(?:#|[Nn][oº]\.?\s?|[Oo]rden\s+|[Pp]edido\s+|[Tt]icket\s+)(\d{4,})`)
)

// Entities runs pattern-based recognition over the raw text, before cleaning
// strips case, digits and currency symbols. Contact spans (emails, URLs,
// phones) and order references are captured here for the same reason: the
// normalizer removes them.
func (b *SpanishBackend) Entities(raw string) domain.EntityGroups {
	return domain.EntityGroups{
		Persons:       captureGroup(rePerson, raw),
		Organizations: dedupSorted(append(captureGroup(reOrg, raw), captureGroup(reOrgKw, raw)...)),
		Locations:     captureGroup(reLoc, raw),
		Dates:         matchAll(reDate, raw),
		Money:         matchAll(reMoney, raw),
		Emails:        matchAll(reRawEmail, raw),
		URLs:          matchAll(reRawURL, raw),
		Phones:        matchAll(reRawPhone, raw),
		References:    captureGroup(reRef, raw),
	}
}

func captureGroup(re *regexp.Regexp, text string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return dedupSorted(out)
}

func matchAll(re *regexp.Regexp, text string) []string {
	return dedupSorted(re.FindAllString(text, -1))
}

// dedupSorted deduplicates and sorts so entity groups are deterministic
// regardless of match order.
func dedupSorted(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// FallbackBackend is the reduced-capability variant used when the full
// backend is unavailable: whitespace tokenization with a length filter, no
// lemmatization, no entities.
type FallbackBackend struct{}

// NewFallbackBackend constructs the fallback.
func NewFallbackBackend() *FallbackBackend {
	return &FallbackBackend{}
}

func (b *FallbackBackend) Name() string   { return "fallback" }
func (b *FallbackBackend) Degraded() bool { return true }

// Tokens splits on whitespace and drops short words.
func (b *FallbackBackend) Tokens(cleaned string) []string {
	words := strings.Fields(cleaned)
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		word = strings.Trim(word, ".,;:¿?¡!-")
		if len([]rune(word)) <= 2 {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// Entities returns no spans; entity recognition needs the full backend.
func (b *FallbackBackend) Entities(string) domain.EntityGroups {
	return domain.EntityGroups{}
}
