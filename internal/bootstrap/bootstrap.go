package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/insurly/claim-processor/internal/config"
	"github.com/insurly/claim-processor/internal/core/ports"
	"github.com/insurly/claim-processor/internal/core/usecase"
	archivefs "github.com/insurly/claim-processor/internal/infrastructure/archive/localfs"
	"github.com/insurly/claim-processor/internal/infrastructure/export/excel"
	"github.com/insurly/claim-processor/internal/infrastructure/extractor/pdftext"
	"github.com/insurly/claim-processor/internal/infrastructure/llm/ollama"
	"github.com/insurly/claim-processor/internal/infrastructure/queue/nats"
	"github.com/insurly/claim-processor/internal/infrastructure/repository/postgres"
	"github.com/insurly/claim-processor/internal/infrastructure/resilience"
	"github.com/insurly/claim-processor/internal/observability/logging"
	"github.com/insurly/claim-processor/internal/observability/metrics"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	ProcessUC ports.ClaimProcessor
	QueryUC   ports.ClaimReader
	Exporter  *excel.Service
	Metrics   *metrics.HTTPServerMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger := logging.NewJSONLogger("claim-processor", cfg.LogLevel)
	slog.SetDefault(logger)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewClaimRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	// NATS is optional; with no URL configured the pipeline simply skips
	// event publishing.
	var events ports.EventPublisher
	var publisher *nats.Publisher
	executor := resilience.NewExecutor(resilience.PipelineConfig(cfg.LLMBreakerEnabled))
	if cfg.NATSURL != "" {
		publisher, err = nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init event publisher: %w", err)
		}
		events = publisher
	}

	var archive ports.DocumentArchive
	if cfg.ArchiveDir != "" {
		archive, err = archivefs.New(cfg.ArchiveDir)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init document archive: %w", err)
		}
	}

	ollamaClient := ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaModel, ollama.Options{
		ResilienceExecutor: executor,
	})
	classifier := ollama.NewClassifier(ollamaClient)
	fields := ollama.NewFieldExtractor(ollamaClient)
	texts := pdftext.New(cfg.MaxFileSizeBytes)

	serverMetrics := metrics.NewHTTPServerMetrics("api")
	pipelineMetrics := metrics.NewPipelineMetrics("api", serverMetrics.Registry())

	processUC := usecase.NewProcessClaimUseCase(
		texts,
		classifier,
		fields,
		repo,
		events,
		archive,
		pipelineMetrics,
		usecase.Validator{
			MissingDocPenalty:  cfg.MissingDocPenalty,
			DiscrepancyPenalty: cfg.DiscrepancyPenalty,
			CompliancePenalty:  cfg.CompliancePenalty,
		},
		usecase.Decider{
			RejectThreshold:  cfg.RejectThreshold,
			PendingThreshold: cfg.PendingThreshold,
		},
		usecase.Policy{
			RequestTimeout:           time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
			MaxConcurrentExtractions: cfg.MaxConcurrentExtractions,
		},
		logger,
	)
	queryUC := usecase.NewClaimQueryUseCase(repo)
	exporter := excel.NewService(queryUC, logger)

	return &App{
		Config: cfg,
		Logger: logger,

		ProcessUC: processUC,
		QueryUC:   queryUC,
		Exporter:  exporter,
		Metrics:   serverMetrics,

		closeFn: func() {
			if publisher != nil {
				publisher.Close()
			}
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
