package curation

import (
	"math"
	"strings"
	"unicode"

	"message-orchestrator/internal/domain"
)

// Keyword-rule weights. The per-preference weights accumulate and the total
// is capped at ruleCap, then normalized back to [0,1] by dividing by ruleCap,
// so long preference lists cannot inflate the score without bound.
const (
	exactMatchWeight  = 2.0
	expansionPerMatch = 0.5
	expansionCap      = 1.5
	fallbackWeight    = 0.8
	ruleCap           = 3.0
)

// LexicalScorer computes term-overlap relevance between a message and the
// user's preferences: keyword rules (exact phrase, synonym expansion, word
// fallback) blended with a two-document tf-idf cosine similarity.
type LexicalScorer struct {
	synonyms      domain.SynonymTable
	keywordWeight float64
	tfidfWeight   float64
}

// NewLexicalScorer creates a LexicalScorer. The two weights form a convex
// blend of the keyword-rule score and the tf-idf cosine.
func NewLexicalScorer(synonyms domain.SynonymTable, keywordWeight, tfidfWeight float64) *LexicalScorer {
	if synonyms == nil {
		synonyms = domain.DefaultSynonymTable()
	}
	return &LexicalScorer{
		synonyms:      synonyms,
		keywordWeight: keywordWeight,
		tfidfWeight:   tfidfWeight,
	}
}

// Score returns a lexical relevance value in [0, 1]. Empty preferences
// score 0 by definition.
func (s *LexicalScorer) Score(msg domain.Message, preferences []string) float64 {
	if len(preferences) == 0 {
		return 0
	}

	text := strings.ToLower(msg.SearchText())
	ruleScore := s.keywordRuleScore(text, preferences)
	tfidfScore := tfidfCosine(text, strings.ToLower(strings.Join(preferences, " ")))

	return s.keywordWeight*(ruleScore/ruleCap) + s.tfidfWeight*tfidfScore
}

// keywordRuleScore evaluates each preference in order: exact substring match
// first, then synonym expansion, then a fallback over the preference's own
// words longer than 3 characters.
func (s *LexicalScorer) keywordRuleScore(text string, preferences []string) float64 {
	score := 0.0

	for _, pref := range preferences {
		prefLower := strings.ToLower(strings.TrimSpace(pref))
		if prefLower == "" {
			continue
		}

		if strings.Contains(text, prefLower) {
			score += exactMatchWeight
			continue
		}

		if keywords := s.synonyms.Expansions(prefLower); len(keywords) > 0 {
			matches := 0
			for _, kw := range keywords {
				if strings.Contains(text, kw) {
					matches++
				}
			}
			if matches > 0 {
				score += math.Min(float64(matches)*expansionPerMatch, expansionCap)
				continue
			}
		}

		var relevant []string
		for _, word := range strings.Fields(prefLower) {
			if len(word) > 3 {
				relevant = append(relevant, word)
			}
		}
		if len(relevant) > 0 {
			matches := 0
			for _, word := range relevant {
				if strings.Contains(text, word) {
					matches++
				}
			}
			if matches > 0 {
				score += (float64(matches) / float64(len(relevant))) * fallbackWeight
			}
		}
	}

	return math.Min(score, ruleCap)
}

// tfidfCosine treats the message text and the concatenated preference text
// as a two-document corpus and returns the cosine similarity of their
// tf-idf vectors (unigrams and bigrams, stopwords removed, smoothed idf,
// l2-normalized).
func tfidfCosine(messageText, preferenceText string) float64 {
	docA := ngrams(tokenize(preferenceText))
	docB := ngrams(tokenize(messageText))
	if len(docA) == 0 || len(docB) == 0 {
		return 0
	}

	tfA := termCounts(docA)
	tfB := termCounts(docB)

	// Smoothed idf over the two-document corpus: ln((1+n)/(1+df)) + 1.
	const n = 2.0
	idf := func(term string) float64 {
		df := 0.0
		if tfA[term] > 0 {
			df++
		}
		if tfB[term] > 0 {
			df++
		}
		return math.Log((1+n)/(1+df)) + 1
	}

	weigh := func(tf map[string]int) map[string]float64 {
		vec := make(map[string]float64, len(tf))
		norm := 0.0
		for term, count := range tf {
			w := float64(count) * idf(term)
			vec[term] = w
			norm += w * w
		}
		if norm == 0 {
			return vec
		}
		norm = math.Sqrt(norm)
		for term := range vec {
			vec[term] /= norm
		}
		return vec
	}

	vecA := weigh(tfA)
	vecB := weigh(tfB)

	dot := 0.0
	for term, wa := range vecA {
		if wb, ok := vecB[term]; ok {
			dot += wa * wb
		}
	}
	return dot
}

// tokenize lower-cases and splits on non-alphanumeric runs, dropping
// one-character tokens and english stopwords.
func tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() >= 2 {
			token := current.String()
			if _, stop := englishStopwords[token]; !stop {
				tokens = append(tokens, token)
			}
		}
		current.Reset()
	}

	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// ngrams returns the unigrams plus space-joined bigrams of the token stream.
func ngrams(tokens []string) []string {
	terms := make([]string, 0, 2*len(tokens))
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}

func termCounts(terms []string) map[string]int {
	counts := make(map[string]int, len(terms))
	for _, t := range terms {
		counts[t]++
	}
	return counts
}

var englishStopwords = map[string]struct{}{
	"about": {}, "above": {}, "after": {}, "again": {}, "all": {}, "also": {},
	"am": {}, "an": {}, "and": {}, "any": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "because": {}, "been": {}, "before": {}, "being": {}, "below": {},
	"between": {}, "both": {}, "but": {}, "by": {}, "can": {}, "could": {},
	"did": {}, "do": {}, "does": {}, "doing": {}, "down": {}, "during": {},
	"each": {}, "few": {}, "for": {}, "from": {}, "further": {}, "had": {},
	"has": {}, "have": {}, "having": {}, "he": {}, "her": {}, "here": {},
	"hers": {}, "him": {}, "his": {}, "how": {}, "if": {}, "in": {},
	"into": {}, "is": {}, "it": {}, "its": {}, "just": {}, "me": {},
	"more": {}, "most": {}, "my": {}, "no": {}, "nor": {}, "not": {},
	"now": {}, "of": {}, "off": {}, "on": {}, "once": {}, "only": {},
	"or": {}, "other": {}, "our": {}, "out": {}, "over": {}, "own": {},
	"same": {}, "she": {}, "should": {}, "so": {}, "some": {}, "such": {},
	"than": {}, "that": {}, "the": {}, "their": {}, "them": {}, "then": {},
	"there": {}, "these": {}, "they": {}, "this": {}, "those": {},
	"through": {}, "to": {}, "too": {}, "under": {}, "until": {}, "up": {},
	"very": {}, "was": {}, "we": {}, "were": {}, "what": {}, "when": {},
	"where": {}, "which": {}, "while": {}, "who": {}, "whom": {}, "why": {},
	"will": {}, "with": {}, "would": {}, "you": {}, "your": {}, "yours": {},
}
