package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"message-orchestrator/internal/domain"
)

// FetchMessagesInput selects the sources for one aggregation run.
// Duplicate platforms are collapsed; Params entries are optional and keyed
// by platform.
type FetchMessagesInput struct {
	Sources []domain.Platform
	Params  map[domain.Platform]domain.FetchParams
}

// FetchMessagesOutput carries the merged messages plus the isolated
// per-source failures. Errors are advisory: a partially failed run is still
// a successful run.
type FetchMessagesOutput struct {
	Messages []domain.Message
	Errors   []domain.SourceError
}

// FetchMessagesUsecase fans out to all selected source adapters
// concurrently and merges their results.
type FetchMessagesUsecase interface {
	Execute(ctx context.Context, input FetchMessagesInput) (*FetchMessagesOutput, error)
}

type fetchMessagesUsecase struct {
	adapters      map[domain.Platform]domain.SourceAdapter
	sourceTimeout time.Duration
	logger        *slog.Logger
}

// NewFetchMessagesUsecase creates a FetchMessagesUsecase. sourceTimeout
// bounds every individual fetch; a source exceeding it fails alone without
// delaying or cancelling its siblings.
func NewFetchMessagesUsecase(
	adapters map[domain.Platform]domain.SourceAdapter,
	sourceTimeout time.Duration,
	logger *slog.Logger,
) FetchMessagesUsecase {
	return &fetchMessagesUsecase{
		adapters:      adapters,
		sourceTimeout: sourceTimeout,
		logger:        logger,
	}
}

func (u *fetchMessagesUsecase) Execute(ctx context.Context, input FetchMessagesInput) (*FetchMessagesOutput, error) {
	selected := dedupePlatforms(input.Sources)
	if len(selected) == 0 {
		return &FetchMessagesOutput{Messages: []domain.Message{}}, nil
	}

	var sourceErrors []domain.SourceError
	known := make([]domain.Platform, 0, len(selected))
	for _, platform := range selected {
		if _, ok := u.adapters[platform]; ok {
			known = append(known, platform)
		} else {
			sourceErrors = append(sourceErrors, domain.SourceError{
				Platform: platform,
				Reason:   "unknown source",
			})
		}
	}
	// Partial recognition degrades gracefully; a fully unrecognized set is
	// the one condition where no correct result is possible.
	if len(known) == 0 {
		return nil, fmt.Errorf("no recognized sources in %v", input.Sources)
	}

	type fetchOutcome struct {
		platform domain.Platform
		messages []domain.Message
		err      error
	}

	start := time.Now()
	outcomes := make(chan fetchOutcome, len(known))
	for _, platform := range known {
		adapter := u.adapters[platform]
		params := input.Params[platform]
		go func() {
			fetchCtx, cancel := context.WithTimeout(ctx, u.sourceTimeout)
			defer cancel()
			messages, err := adapter.Fetch(fetchCtx, params)
			outcomes <- fetchOutcome{platform: platform, messages: messages, err: err}
		}()
	}

	// Single join point: nothing is released until every source finished
	// or failed.
	byPlatform := make(map[domain.Platform][]domain.Message, len(known))
	for range known {
		outcome := <-outcomes
		if outcome.err != nil {
			reason := outcome.err.Error()
			if errors.Is(outcome.err, context.DeadlineExceeded) {
				reason = "timeout"
			}
			u.logger.Warn("source_fetch_failed",
				slog.String("platform", string(outcome.platform)),
				slog.String("reason", reason))
			sourceErrors = append(sourceErrors, domain.SourceError{
				Platform: outcome.platform,
				Reason:   reason,
			})
			continue
		}
		byPlatform[outcome.platform] = outcome.messages
	}

	// Concatenate in selection order (not arrival order) so ties in the
	// timestamp sort are deterministic across runs.
	var merged []domain.Message
	for _, platform := range known {
		merged = append(merged, byPlatform[platform]...)
	}

	// Newest first; empty or unparsable timestamps compare lowest and
	// land at the end instead of failing.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp > merged[j].Timestamp
	})

	// Failure order follows selection order too.
	sort.SliceStable(sourceErrors, func(i, j int) bool {
		return platformIndex(selected, sourceErrors[i].Platform) < platformIndex(selected, sourceErrors[j].Platform)
	})

	u.logger.Info("fetch_fanout_completed",
		slog.Int("sources", len(known)),
		slog.Int("messages", len(merged)),
		slog.Int("failures", len(sourceErrors)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	if merged == nil {
		merged = []domain.Message{}
	}
	return &FetchMessagesOutput{Messages: merged, Errors: sourceErrors}, nil
}

func dedupePlatforms(platforms []domain.Platform) []domain.Platform {
	seen := make(map[domain.Platform]bool, len(platforms))
	out := make([]domain.Platform, 0, len(platforms))
	for _, p := range platforms {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func platformIndex(platforms []domain.Platform, target domain.Platform) int {
	for i, p := range platforms {
		if p == target {
			return i
		}
	}
	return len(platforms)
}
