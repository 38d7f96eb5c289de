package curation

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"message-orchestrator/internal/domain"
)

// Options configures the hybrid score combination.
type Options struct {
	LexicalWeight  float64
	SemanticWeight float64
	KeywordBonus   float64 // per exact preference match
	MaxBonus       float64 // cap on the summed bonus
	Concurrency    int     // parallel per-message scoring; <= 1 is sequential
}

// DefaultOptions returns the standard weights.
func DefaultOptions() Options {
	return Options{
		LexicalWeight:  0.4,
		SemanticWeight: 0.6,
		KeywordBonus:   0.2,
		MaxBonus:       0.5,
		Concurrency:    4,
	}
}

// Curator combines the lexical and semantic scorers into one hybrid ranking
// and partitions messages into important and regular. Scorers are injected
// so each run (and each test) gets independently configurable instances.
type Curator struct {
	lexical  *LexicalScorer
	semantic *SemanticScorer
	opts     Options
	logger   *slog.Logger
}

// NewCurator creates a Curator.
func NewCurator(lexical *LexicalScorer, semantic *SemanticScorer, opts Options, logger *slog.Logger) *Curator {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Curator{
		lexical:  lexical,
		semantic: semantic,
		opts:     opts,
		logger:   logger,
	}
}

// Curate scores every message against the preferences and partitions the
// result. The input slice is never mutated; no message is dropped or
// duplicated. Scoring failures degrade the affected score to 0 and are
// reported on the result instead of aborting the run.
func (c *Curator) Curate(ctx context.Context, messages []domain.Message, preferences []string, threshold float64, topK int) domain.CurationResult {
	if len(preferences) == 0 || len(messages) == 0 {
		regular := make([]domain.ScoredMessage, len(messages))
		for i, msg := range messages {
			regular[i] = domain.ScoredMessage{Message: msg}
		}
		return domain.CurationResult{
			Important: []domain.ScoredMessage{},
			Regular:   regular,
			Stats:     zeroStats(len(messages)),
		}
	}

	start := time.Now()
	scored := make([]domain.ScoredMessage, len(messages))
	failures := make([]*domain.ScoringFailure, len(messages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)
	for i, msg := range messages {
		g.Go(func() error {
			scored[i], failures[i] = c.scoreOne(gctx, msg, preferences)
			return nil
		})
	}
	// Scoring goroutines never return errors; failures degrade scores.
	_ = g.Wait()

	// Stable sort: equal scores keep the merged input order so reruns are
	// bit-for-bit identical.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].HybridScore > scored[j].HybridScore
	})

	important := make([]domain.ScoredMessage, 0, len(scored))
	regular := make([]domain.ScoredMessage, 0, len(scored))
	for _, msg := range scored {
		if msg.HybridScore >= threshold {
			important = append(important, msg)
		} else {
			regular = append(regular, msg)
		}
	}

	// Overflow beyond topK is moved to the front of regular, order
	// preserved, so the cap never discards messages.
	if topK > 0 && len(important) > topK {
		regular = append(append([]domain.ScoredMessage{}, important[topK:]...), regular...)
		important = important[:topK]
	}

	result := domain.CurationResult{
		Important: important,
		Regular:   regular,
		Stats:     c.stats(important, regular, preferences),
	}
	for _, f := range failures {
		if f != nil {
			result.Failures = append(result.Failures, *f)
		}
	}

	c.logger.Info("curation_completed",
		slog.Int("messages", len(messages)),
		slog.Int("important", len(important)),
		slog.Int("regular", len(regular)),
		slog.Int("scoring_failures", len(result.Failures)),
		slog.Float64("threshold", threshold),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return result
}

// ExplainSemantic returns per-preference semantic similarities for one
// message, used by the preview endpoint for explainability.
func (c *Curator) ExplainSemantic(ctx context.Context, msg domain.Message, preferences []string) (map[string]float64, error) {
	return c.semantic.ScorePerPreference(ctx, msg, preferences)
}

func (c *Curator) scoreOne(ctx context.Context, msg domain.Message, preferences []string) (domain.ScoredMessage, *domain.ScoringFailure) {
	out := domain.ScoredMessage{Message: msg}
	var failure *domain.ScoringFailure

	out.LexicalScore = c.lexical.Score(msg, preferences)

	semantic, err := c.semantic.Score(ctx, msg, preferences)
	if err != nil {
		// Embedding unavailable: this message's semantic signal degrades
		// to 0, the run continues.
		failure = &domain.ScoringFailure{
			MessageID: msg.ID,
			Stage:     "semantic",
			Reason:    err.Error(),
		}
		semantic = 0
	}
	out.SemanticScore = semantic

	out.KeywordBonus = c.keywordBonus(msg, preferences)
	out.HybridScore = c.opts.LexicalWeight*out.LexicalScore +
		c.opts.SemanticWeight*out.SemanticScore +
		out.KeywordBonus

	return out, failure
}

func (c *Curator) keywordBonus(msg domain.Message, preferences []string) float64 {
	text := strings.ToLower(msg.SearchText())
	bonus := 0.0
	for _, pref := range preferences {
		if pref == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(pref)) {
			bonus += c.opts.KeywordBonus
		}
	}
	return math.Min(bonus, c.opts.MaxBonus)
}

func (c *Curator) stats(important, regular []domain.ScoredMessage, preferences []string) domain.CurationStats {
	stats := domain.CurationStats{
		TotalImportant:     len(important),
		TotalRegular:       len(regular),
		PreferencesMatched: map[string]int{},
	}
	if len(important) == 0 {
		return stats
	}

	var sumLex, sumSem, sumHybrid float64
	for _, msg := range important {
		sumLex += msg.LexicalScore
		sumSem += msg.SemanticScore
		sumHybrid += msg.HybridScore
	}
	n := float64(len(important))
	stats.AvgLexicalScore = sumLex / n
	stats.AvgSemanticScore = sumSem / n
	stats.AvgHybridScore = sumHybrid / n

	// Preference match counts use title and content only, deliberately
	// narrower than the keyword-bonus text extraction.
	for _, pref := range preferences {
		prefLower := strings.ToLower(pref)
		if prefLower == "" {
			continue
		}
		count := 0
		for _, msg := range important {
			if strings.Contains(strings.ToLower(msg.Content), prefLower) ||
				strings.Contains(strings.ToLower(msg.Title), prefLower) {
				count++
			}
		}
		if count > 0 {
			stats.PreferencesMatched[pref] = count
		}
	}
	return stats
}

func zeroStats(regularCount int) domain.CurationStats {
	return domain.CurationStats{
		TotalRegular:       regularCount,
		PreferencesMatched: map[string]int{},
	}
}
