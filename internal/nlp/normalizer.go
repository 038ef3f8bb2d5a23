package nlp

import (
	"regexp"
	"strings"
)

var (
	reURL        = regexp.MustCompile(`https?://\S+`)
	reEmail      = regexp.MustCompile(`\S+@\S+`)
	rePhone      = regexp.MustCompile(`\+?\d{1,3}[-.\s]?\(?\d{1,4}\)?[-.\s]?\d{1,4}[-.\s]?\d{1,9}`)
	reLongID     = regexp.MustCompile(`\d{6,}`)
	reMention    = regexp.MustCompile(`[@#]\w+`)
	reCharset    = regexp.MustCompile(`[^a-záéíóúñü\s.,;:¿?¡!-]`)
	reWhitespace = regexp.MustCompile(`\s+`)
)

// Normalize lower-cases the text, strips URLs, email addresses, phone-like
// number sequences, long numeric IDs, mentions and hashtags, drops symbols
// outside accented letters and sentence punctuation, and collapses
// whitespace. It is pure, total and idempotent, and never grows its input.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	text := strings.ToLower(raw)
	text = reURL.ReplaceAllString(text, "")
	text = reEmail.ReplaceAllString(text, "")
	text = rePhone.ReplaceAllString(text, "")
	text = reLongID.ReplaceAllString(text, "")
	text = reMention.ReplaceAllString(text, "")
	text = reCharset.ReplaceAllString(text, "")
	text = reWhitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

var reSentence = regexp.MustCompile(`[.!?¡¿]+`)

// SentenceCount counts non-empty sentence segments in cleaned text.
func SentenceCount(cleaned string) int {
	count := 0
	for _, segment := range reSentence.Split(cleaned, -1) {
		if strings.TrimSpace(segment) != "" {
			count++
		}
	}
	return count
}
