package curation

import (
	"context"
	"fmt"
	"math"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"message-orchestrator/internal/domain"
)

// SemanticScorer computes embedding-space cosine similarity between a
// message and the user's preferences. The encoder is a black box
// (text in, fixed-length vector out); identical text yields an identical
// vector, so vectors are memoized in a small LRU.
type SemanticScorer struct {
	encoder domain.VectorEncoder
	cache   *lru.Cache[string, []float32]
}

// NewSemanticScorer creates a SemanticScorer. cacheSize <= 0 disables the
// embedding cache.
func NewSemanticScorer(encoder domain.VectorEncoder, cacheSize int) *SemanticScorer {
	var cache *lru.Cache[string, []float32]
	if cacheSize > 0 {
		// lru.New only fails for a non-positive size.
		cache, _ = lru.New[string, []float32](cacheSize)
	}
	return &SemanticScorer{
		encoder: encoder,
		cache:   cache,
	}
}

// Score returns the cosine similarity between the message text and the
// space-joined preference document, typically in [-1, 1]. Empty message
// text or empty preferences return 0 without touching the encoder.
func (s *SemanticScorer) Score(ctx context.Context, msg domain.Message, preferences []string) (float64, error) {
	if len(preferences) == 0 {
		return 0, nil
	}
	text := msg.SearchText()
	if text == "" {
		return 0, nil
	}

	msgVec, err := s.embed(ctx, text)
	if err != nil {
		return 0, err
	}
	prefVec, err := s.embed(ctx, strings.Join(preferences, " "))
	if err != nil {
		return 0, err
	}

	return cosineSimilarity(msgVec, prefVec), nil
}

// ScorePerPreference returns each preference's own similarity against the
// message, for diagnostics. It is not used for the primary ranking.
func (s *SemanticScorer) ScorePerPreference(ctx context.Context, msg domain.Message, preferences []string) (map[string]float64, error) {
	text := msg.SearchText()
	if text == "" || len(preferences) == 0 {
		return map[string]float64{}, nil
	}

	msgVec, err := s.embed(ctx, text)
	if err != nil {
		return nil, err
	}

	similarities := make(map[string]float64, len(preferences))
	for _, pref := range preferences {
		prefVec, err := s.embed(ctx, pref)
		if err != nil {
			return nil, err
		}
		similarities[pref] = cosineSimilarity(msgVec, prefVec)
	}
	return similarities, nil
}

func (s *SemanticScorer) embed(ctx context.Context, text string) ([]float32, error) {
	if s.cache != nil {
		if vec, ok := s.cache.Get(text); ok {
			return vec, nil
		}
	}

	vectors, err := s.encoder.Encode(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode text: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("encoder returned no embedding")
	}

	if s.cache != nil {
		s.cache.Add(text, vectors[0])
	}
	return vectors[0], nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
