package curation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"message-orchestrator/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockEncoder serves canned vectors and counts calls.
type mockEncoder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	calls   int
	err     error
}

func (m *mockEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, ok := m.vectors[text]
		if !ok {
			vec = []float32{1, 0, 0}
		}
		out[i] = vec
	}
	return out, nil
}

func (m *mockEncoder) Version() string { return "mock" }

func (m *mockEncoder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestSemanticScorer_Score(t *testing.T) {
	enc := &mockEncoder{vectors: map[string][]float32{
		"quantum lecture": {1, 0, 0},
		"physics":         {1, 0, 0},
	}}
	s := NewSemanticScorer(enc, 16)

	score, err := s.Score(context.Background(), domain.Message{Title: "quantum lecture"}, []string{"physics"})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-6)
}

func TestSemanticScorer_OrthogonalVectors(t *testing.T) {
	enc := &mockEncoder{vectors: map[string][]float32{
		"cooking tips": {0, 1, 0},
		"physics":      {1, 0, 0},
	}}
	s := NewSemanticScorer(enc, 16)

	score, err := s.Score(context.Background(), domain.Message{Title: "cooking tips"}, []string{"physics"})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, score, 1e-6)
}

func TestSemanticScorer_NegativeSimilarityAllowed(t *testing.T) {
	enc := &mockEncoder{vectors: map[string][]float32{
		"opposite": {-1, 0, 0},
		"physics":  {1, 0, 0},
	}}
	s := NewSemanticScorer(enc, 16)

	score, err := s.Score(context.Background(), domain.Message{Title: "opposite"}, []string{"physics"})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, score, 1e-6)
}

func TestSemanticScorer_ShortCircuits(t *testing.T) {
	enc := &mockEncoder{}
	s := NewSemanticScorer(enc, 16)

	// Empty preferences and empty message text never reach the encoder.
	score, err := s.Score(context.Background(), domain.Message{Title: "something"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)

	score, err = s.Score(context.Background(), domain.Message{}, []string{"physics"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)

	assert.Equal(t, 0, enc.callCount())
}

func TestSemanticScorer_EncoderErrorPropagates(t *testing.T) {
	enc := &mockEncoder{err: errors.New("embedder down")}
	s := NewSemanticScorer(enc, 16)

	_, err := s.Score(context.Background(), domain.Message{Title: "text"}, []string{"physics"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "embedder down")
}

func TestSemanticScorer_CachesVectors(t *testing.T) {
	enc := &mockEncoder{vectors: map[string][]float32{}}
	s := NewSemanticScorer(enc, 16)

	msg := domain.Message{Title: "repeated text"}
	prefs := []string{"physics"}

	_, err := s.Score(context.Background(), msg, prefs)
	require.NoError(t, err)
	first := enc.callCount()

	_, err = s.Score(context.Background(), msg, prefs)
	require.NoError(t, err)

	// Both texts are cached after the first run.
	assert.Equal(t, first, enc.callCount())
	assert.Equal(t, 2, first)
}

func TestSemanticScorer_CacheDisabled(t *testing.T) {
	enc := &mockEncoder{vectors: map[string][]float32{}}
	s := NewSemanticScorer(enc, 0)

	msg := domain.Message{Title: "repeated text"}
	prefs := []string{"physics"}

	_, err := s.Score(context.Background(), msg, prefs)
	require.NoError(t, err)
	_, err = s.Score(context.Background(), msg, prefs)
	require.NoError(t, err)

	// Every embed hits the encoder without the cache.
	assert.Equal(t, 4, enc.callCount())
}

func TestSemanticScorer_ScorePerPreference(t *testing.T) {
	enc := &mockEncoder{vectors: map[string][]float32{
		"quantum lecture": {1, 0, 0},
		"physics":         {1, 0, 0},
		"business":        {0, 1, 0},
	}}
	s := NewSemanticScorer(enc, 16)

	similarities, err := s.ScorePerPreference(context.Background(),
		domain.Message{Title: "quantum lecture"}, []string{"physics", "business"})
	require.NoError(t, err)
	require.Len(t, similarities, 2)
	assert.InDelta(t, 1.0, similarities["physics"], 1e-6)
	assert.InDelta(t, 0.0, similarities["business"], 1e-6)
}

func TestCosineSimilarity_ZeroAndMismatched(t *testing.T) {
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1, 1}, []float32{1}))
	assert.Equal(t, 0.0, cosineSimilarity(nil, nil))
}
