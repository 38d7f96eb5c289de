package di

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"message-orchestrator/internal/adapter/embedding"
	"message-orchestrator/internal/adapter/msg_http"
	"message-orchestrator/internal/adapter/repository"
	"message-orchestrator/internal/adapter/source"
	"message-orchestrator/internal/domain"
	"message-orchestrator/internal/infra/config"
	"message-orchestrator/internal/infra/httpclient"
	"message-orchestrator/internal/usecase"
	"message-orchestrator/internal/usecase/curation"
	"message-orchestrator/internal/worker"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	// Repositories
	PreferenceRepo domain.PreferenceRepository
	SavedRepo      domain.SavedMessageRepository

	// Pipeline
	Curator          *curation.Curator
	FetchUsecase     usecase.FetchMessagesUsecase
	AggregateUsecase usecase.AggregateMessagesUsecase

	// Worker (nil when the digest is disabled)
	DigestWorker *worker.DigestWorker

	// HTTP
	Handler *msg_http.Handler
}

// NewApplicationComponents wires all dependencies from config and database pool.
func NewApplicationComponents(cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger) (*ApplicationComponents, error) {
	// Repositories
	preferenceRepo := repository.NewPreferenceRepository(pool)
	savedRepo := repository.NewSavedMessageRepository(pool)
	txManager := repository.NewPostgresTransactionManager(pool)

	// Shared HTTP client with connection pooling for the source adapters
	sourceHTTP := httpclient.NewPooledClient(time.Duration(cfg.Sources.TimeoutSec) * time.Second)

	// Source adapters
	adapters := source.NewRegistry(
		source.NewTelegramAdapter("", cfg.Sources.TelegramBotToken, cfg.Sources.DefaultLimit, sourceHTTP, log),
		source.NewTwitterAdapter("", cfg.Sources.TwitterBearer, cfg.Sources.DefaultLimit, sourceHTTP, log),
		source.NewRedditAdapter("", cfg.Sources.RedditUserAgent, cfg.Sources.DefaultLimit, sourceHTTP, log),
	)

	// Synonym table: built-in unless an external file is configured.
	// Loading errors are fatal here, never at scoring time.
	synonyms := domain.DefaultSynonymTable()
	if cfg.Lexical.SynonymsPath != "" {
		loaded, err := domain.LoadSynonymTable(cfg.Lexical.SynonymsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load synonym table: %w", err)
		}
		synonyms = loaded
	}

	// Scoring pipeline
	encoder := embedding.NewOllamaEmbedder(cfg.Embedder.URL, cfg.Embedder.Model, cfg.Embedder.Timeout)
	lexical := curation.NewLexicalScorer(synonyms, cfg.Lexical.KeywordWeight, cfg.Lexical.TFIDFWeight)
	semantic := curation.NewSemanticScorer(encoder, cfg.Embedder.CacheSize)
	curator := curation.NewCurator(lexical, semantic, curation.Options{
		LexicalWeight:  cfg.Curation.LexicalWeight,
		SemanticWeight: cfg.Curation.SemanticWeight,
		KeywordBonus:   cfg.Curation.KeywordBonus,
		MaxBonus:       cfg.Curation.MaxBonus,
		Concurrency:    cfg.Curation.Concurrency,
	}, log)

	// Usecases
	fetchUsecase := usecase.NewFetchMessagesUsecase(adapters,
		time.Duration(cfg.Sources.TimeoutSec)*time.Second, log)
	aggregateUsecase := usecase.NewAggregateMessagesUsecase(fetchUsecase, curator, log)

	// Worker
	var digestWorker *worker.DigestWorker
	if cfg.Digest.Enabled {
		digestWorker = worker.NewDigestWorker(
			preferenceRepo, savedRepo, txManager, aggregateUsecase,
			time.Duration(cfg.Digest.IntervalMin)*time.Minute,
			cfg.Digest.MaxSaved,
			cfg.Curation.Threshold, cfg.Curation.TopK,
			log,
		)
	}

	// HTTP handler
	handler := msg_http.NewHandler(
		aggregateUsecase, curator, preferenceRepo, savedRepo,
		msg_http.CurationDefaults{
			Threshold: cfg.Curation.Threshold,
			TopK:      cfg.Curation.TopK,
		},
		pool.Ping,
	)

	return &ApplicationComponents{
		PreferenceRepo:   preferenceRepo,
		SavedRepo:        savedRepo,
		Curator:          curator,
		FetchUsecase:     fetchUsecase,
		AggregateUsecase: aggregateUsecase,
		DigestWorker:     digestWorker,
		Handler:          handler,
	}, nil
}
