package curation

import (
	"testing"

	"message-orchestrator/internal/domain"

	"github.com/stretchr/testify/assert"
)

func newTestLexicalScorer() *LexicalScorer {
	return NewLexicalScorer(nil, 0.7, 0.3)
}

func TestLexicalScorer_EmptyPreferences(t *testing.T) {
	s := newTestLexicalScorer()
	msg := domain.Message{Title: "quantum mechanics introduction"}

	assert.Equal(t, 0.0, s.Score(msg, nil))
	assert.Equal(t, 0.0, s.Score(msg, []string{}))
}

func TestLexicalScorer_ExactMatch(t *testing.T) {
	s := newTestLexicalScorer()
	msg := domain.Message{Title: "A physics lecture for beginners"}

	score := s.Score(msg, []string{"physics"})
	// Exact match contributes 2.0/3.0 through the keyword-rule side alone.
	assert.GreaterOrEqual(t, score, 0.7*(2.0/3.0))
	assert.LessOrEqual(t, score, 1.0)
}

func TestLexicalScorer_ExactMatchIsCaseInsensitive(t *testing.T) {
	s := newTestLexicalScorer()

	upper := s.Score(domain.Message{Title: "PHYSICS Olympiad"}, []string{"physics"})
	lower := s.Score(domain.Message{Title: "physics olympiad"}, []string{"physics"})
	assert.Equal(t, lower, upper)
}

func TestLexicalScorer_SynonymExpansion(t *testing.T) {
	s := newTestLexicalScorer()
	// No literal "physics", but two expansion keywords (quantum, mechanics).
	msg := domain.Message{Title: "quantum mechanics problem set"}

	score := s.Score(msg, []string{"physics"})
	assert.Greater(t, score, 0.0)

	// Two expansion matches score lower than an exact match.
	exact := s.Score(domain.Message{Title: "physics problem set"}, []string{"physics"})
	assert.Greater(t, exact, score)
}

func TestLexicalScorer_ExpansionCap(t *testing.T) {
	s := newTestLexicalScorer()
	// Five expansion keywords present, but the contribution caps at 1.5,
	// the same as three matches.
	scoreMany := s.keywordRuleScore("quantum mechanics thermodynamics relativity particle", []string{"physics"})
	scoreThree := s.keywordRuleScore("quantum mechanics thermodynamics", []string{"physics"})
	assert.Equal(t, 1.5, scoreThree)
	assert.Equal(t, scoreThree, scoreMany)
}

func TestLexicalScorer_WordFallback(t *testing.T) {
	s := newTestLexicalScorer()
	// "rust compiler" is not in the synonym table; only words > 3 chars
	// participate in the fallback.
	full := s.keywordRuleScore("the rust compiler released today", []string{"rust compiler"})
	half := s.keywordRuleScore("a rust conference", []string{"rust compiler"})
	none := s.keywordRuleScore("cooking recipes", []string{"rust compiler"})

	assert.InDelta(t, 0.8, full, 1e-9)
	assert.InDelta(t, 0.4, half, 1e-9)
	assert.Equal(t, 0.0, none)
}

func TestLexicalScorer_RuleCap(t *testing.T) {
	s := newTestLexicalScorer()
	// Two exact matches would be 4.0 uncapped.
	score := s.keywordRuleScore("physics and technology news", []string{"physics", "technology"})
	assert.Equal(t, 3.0, score)
}

func TestLexicalScorer_ScoreRange(t *testing.T) {
	s := newTestLexicalScorer()
	msgs := []domain.Message{
		{Title: "physics technology business job opportunities study materials"},
		{Title: "completely unrelated gardening talk"},
		{},
	}
	prefs := []string{"physics", "technology", "business"}

	for _, msg := range msgs {
		score := s.Score(msg, prefs)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}

func TestTFIDFCosine(t *testing.T) {
	// Identical documents have similarity 1.
	assert.InDelta(t, 1.0, tfidfCosine("quantum physics", "quantum physics"), 1e-9)

	// Disjoint documents have similarity 0.
	assert.Equal(t, 0.0, tfidfCosine("cooking recipes", "quantum physics"))

	// Partial overlap lands strictly between.
	partial := tfidfCosine("quantum physics lecture", "quantum chemistry")
	assert.Greater(t, partial, 0.0)
	assert.Less(t, partial, 1.0)

	// Empty or stopword-only sides are 0.
	assert.Equal(t, 0.0, tfidfCosine("", "quantum physics"))
	assert.Equal(t, 0.0, tfidfCosine("the and of", "quantum physics"))
}

func TestTokenize(t *testing.T) {
	tokens := tokenize("The quick-brown FOX, jumps! a 42")
	// Stopwords and one-character tokens are dropped, case folded.
	assert.Equal(t, []string{"quick", "brown", "fox", "jumps", "42"}, tokens)
}

func TestNgrams(t *testing.T) {
	terms := ngrams([]string{"quantum", "physics", "lecture"})
	assert.Equal(t, []string{
		"quantum", "physics", "lecture",
		"quantum physics", "physics lecture",
	}, terms)
}
