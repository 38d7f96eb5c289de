package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"message-orchestrator/internal/domain"
	"message-orchestrator/internal/usecase"

	"github.com/google/uuid"
)

const (
	runTimeout     = 5 * time.Minute
	initialBackoff = 1 * time.Minute
	maxBackoff     = 30 * time.Minute
)

// DigestWorker periodically re-runs aggregation for every stored profile
// and saves newly surfaced important messages as a digest.
type DigestWorker struct {
	preferenceRepo   domain.PreferenceRepository
	savedRepo        domain.SavedMessageRepository
	txManager        domain.TransactionManager
	aggregateUsecase usecase.AggregateMessagesUsecase
	interval         time.Duration
	maxPerUser       int
	threshold        float64
	topK             int
	logger           *slog.Logger
	stopChan         chan struct{}
	running          atomic.Bool
	backoff          time.Duration
}

func NewDigestWorker(
	preferenceRepo domain.PreferenceRepository,
	savedRepo domain.SavedMessageRepository,
	txManager domain.TransactionManager,
	aggregateUsecase usecase.AggregateMessagesUsecase,
	interval time.Duration,
	maxPerUser int,
	threshold float64,
	topK int,
	logger *slog.Logger,
) *DigestWorker {
	return &DigestWorker{
		preferenceRepo:   preferenceRepo,
		savedRepo:        savedRepo,
		txManager:        txManager,
		aggregateUsecase: aggregateUsecase,
		interval:         interval,
		maxPerUser:       maxPerUser,
		threshold:        threshold,
		topK:             topK,
		logger:           logger,
		stopChan:         make(chan struct{}),
	}
}

func (w *DigestWorker) Start() {
	w.logger.Info("digest_worker_started", slog.Duration("interval", w.interval))
	go w.run()
}

func (w *DigestWorker) Stop() {
	w.logger.Info("digest_worker_stopping")
	close(w.stopChan)
}

func (w *DigestWorker) run() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.RunOnce()
			if w.backoff > 0 {
				ticker.Reset(w.backoff)
			} else {
				ticker.Reset(w.interval)
			}
		}
	}
}

// RunOnce executes a single digest pass over all profiles. A pass already
// in progress makes this a no-op, so ticks never overlap.
func (w *DigestWorker) RunOnce() {
	if !w.running.CompareAndSwap(false, true) {
		w.logger.Warn("digest_run_skipped_overlap")
		return
	}
	defer w.running.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	profiles, err := w.preferenceRepo.ListWithPreferences(ctx)
	if err != nil {
		w.backoff = w.nextBackoff(w.backoff)
		w.logger.Error("digest_list_profiles_failed",
			slog.String("error", err.Error()),
			slog.Duration("backoff", w.backoff))
		return
	}
	w.backoff = 0

	saved := 0
	for _, profile := range profiles {
		n, err := w.digestProfile(ctx, profile)
		if err != nil {
			w.logger.Warn("digest_profile_failed",
				slog.String("user_id", profile.UserID),
				slog.String("error", err.Error()))
			continue
		}
		saved += n
	}

	w.logger.Info("digest_run_completed",
		slog.Int("profiles", len(profiles)),
		slog.Int("saved", saved))
}

func (w *DigestWorker) digestProfile(ctx context.Context, profile domain.UserProfile) (int, error) {
	platforms := profile.Platforms
	if len(platforms) == 0 {
		platforms = []domain.Platform{domain.PlatformTelegram, domain.PlatformTwitter, domain.PlatformReddit}
	}

	output, err := w.aggregateUsecase.Execute(ctx, usecase.AggregateMessagesInput{
		Sources:     platforms,
		Preferences: profile.Preferences,
		Curate:      true,
		Threshold:   w.threshold,
		TopK:        w.topK,
	})
	if err != nil {
		return 0, fmt.Errorf("aggregation failed: %w", err)
	}
	if output.Curation == nil || len(output.Curation.Important) == 0 {
		return 0, nil
	}

	// Filter before the transaction so the write set is known up front.
	var fresh []domain.ScoredMessage
	for _, msg := range output.Curation.Important {
		if len(fresh) >= w.maxPerUser {
			break
		}
		exists, err := w.savedRepo.Exists(ctx, profile.UserID, msg.ID)
		if err != nil {
			return 0, fmt.Errorf("exists check failed: %w", err)
		}
		if !exists {
			fresh = append(fresh, msg)
		}
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	// One transaction per profile: a digest batch lands fully or not at all.
	err = w.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		now := time.Now()
		for _, msg := range fresh {
			saved := &domain.SavedMessage{
				ID:      uuid.New(),
				UserID:  profile.UserID,
				Message: msg,
				Source:  "digest",
				SavedAt: now,
			}
			if err := w.savedRepo.Save(txCtx, saved); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("saving digest failed: %w", err)
	}

	return len(fresh), nil
}

func (w *DigestWorker) nextBackoff(current time.Duration) time.Duration {
	if current == 0 {
		return initialBackoff
	}
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
