package usecase

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"message-orchestrator/internal/domain"
	"message-orchestrator/internal/infra/logger"
	"message-orchestrator/internal/usecase/curation"
)

// AggregateMessagesInput runs the full pipeline: fan-out fetch, then
// optional curation against the given preferences.
type AggregateMessagesInput struct {
	Sources     []domain.Platform
	Params      map[domain.Platform]domain.FetchParams
	Preferences []string
	Curate      bool
	Threshold   float64
	TopK        int
}

// AggregateMessagesOutput is the caller-facing result: always well-formed,
// with error detail attached as metadata rather than raised.
type AggregateMessagesOutput struct {
	RunID        string
	Messages     []domain.Message
	SourceErrors []domain.SourceError
	Curation     *domain.CurationResult
}

// AggregateMessagesUsecase composes the fetch orchestrator and the hybrid
// curator.
type AggregateMessagesUsecase interface {
	Execute(ctx context.Context, input AggregateMessagesInput) (*AggregateMessagesOutput, error)
}

type aggregateMessagesUsecase struct {
	fetcher FetchMessagesUsecase
	curator *curation.Curator
	logger  *slog.Logger
}

// NewAggregateMessagesUsecase creates an AggregateMessagesUsecase.
func NewAggregateMessagesUsecase(
	fetcher FetchMessagesUsecase,
	curator *curation.Curator,
	log *slog.Logger,
) AggregateMessagesUsecase {
	return &aggregateMessagesUsecase{
		fetcher: fetcher,
		curator: curator,
		logger:  log,
	}
}

func (u *aggregateMessagesUsecase) Execute(ctx context.Context, input AggregateMessagesInput) (*AggregateMessagesOutput, error) {
	runID := uuid.New().String()
	ctx = logger.WithRunID(ctx, runID)
	log := logger.WithContext(ctx, u.logger)

	fetched, err := u.fetcher.Execute(ctx, FetchMessagesInput{
		Sources: input.Sources,
		Params:  input.Params,
	})
	if err != nil {
		return nil, err
	}

	out := &AggregateMessagesOutput{
		RunID:        runID,
		Messages:     fetched.Messages,
		SourceErrors: fetched.Errors,
	}

	if input.Curate {
		result := u.curator.Curate(ctx, fetched.Messages, input.Preferences, input.Threshold, input.TopK)
		out.Curation = &result
	}

	log.Info("aggregation_run_completed",
		slog.Int("messages", len(out.Messages)),
		slog.Int("source_errors", len(out.SourceErrors)),
		slog.Bool("curated", input.Curate))

	return out, nil
}
