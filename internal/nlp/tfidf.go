package nlp

import (
	"math"
	"sort"

	"github.com/Viru154/SEIRA/internal/domain"
)

// TFIDF re-ranks per-document keywords against the whole batch corpus using
// term-frequency/inverse-document-frequency over unigrams and bigrams.
// Used only when the corpus is closed; streaming extraction keeps raw
// frequency ranking.
type TFIDF struct {
	// MinDF drops terms appearing in fewer documents.
	MinDF int
	// MaxDFRatio drops terms appearing in more than this fraction of
	// documents.
	MaxDFRatio float64
	// TopN caps the per-document keyword list.
	TopN int
}

// NewTFIDF returns a ranker with the batch-mode defaults: document frequency
// between 2 and 80%, top 10 terms per document.
func NewTFIDF() *TFIDF {
	return &TFIDF{MinDF: 2, MaxDFRatio: 0.80, TopN: topKeywords}
}

// Rerank computes the TF-IDF top-N keyword list for each document. Input is
// one lemmatized token slice per document; output is index-aligned. A
// document whose terms all fall outside the frequency bounds gets an empty
// list.
func (t *TFIDF) Rerank(docs [][]string) [][]domain.Keyword {
	n := len(docs)
	if n == 0 {
		return nil
	}

	termDocs := make([]map[string]int, n)
	df := make(map[string]int)
	for i, tokens := range docs {
		counts := make(map[string]int, len(tokens)*2)
		for j, token := range tokens {
			counts[token]++
			if j+1 < len(tokens) {
				counts[token+" "+tokens[j+1]]++
			}
		}
		termDocs[i] = counts
		for term := range counts {
			df[term]++
		}
	}

	maxDF := int(math.Floor(t.MaxDFRatio * float64(n)))
	if maxDF < 1 {
		maxDF = 1
	}

	out := make([][]domain.Keyword, n)
	for i, counts := range termDocs {
		total := 0
		for _, count := range counts {
			total += count
		}
		if total == 0 {
			continue
		}

		keywords := make([]domain.Keyword, 0, len(counts))
		for term, count := range counts {
			d := df[term]
			if d < t.MinDF || d > maxDF {
				continue
			}
			tf := float64(count) / float64(total)
			idf := math.Log(float64(1+n)/float64(1+d)) + 1
			keywords = append(keywords, domain.Keyword{
				Word:      term,
				Frequency: tf * idf,
			})
		}
		sort.Slice(keywords, func(a, b int) bool {
			if keywords[a].Frequency != keywords[b].Frequency {
				return keywords[a].Frequency > keywords[b].Frequency
			}
			return keywords[a].Word < keywords[b].Word
		})
		if len(keywords) > t.TopN {
			keywords = keywords[:t.TopN]
		}
		out[i] = keywords
	}
	return out
}
