// Package bootstrap wires configuration, adapters and usecases into a
// runnable application.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/gluteintel/progress-tracker/internal/config"
	"github.com/gluteintel/progress-tracker/internal/core/ports"
	"github.com/gluteintel/progress-tracker/internal/core/usecase"
	"github.com/gluteintel/progress-tracker/internal/expert"
	openaillm "github.com/gluteintel/progress-tracker/internal/infrastructure/llm/openai"
	"github.com/gluteintel/progress-tracker/internal/infrastructure/queue/nats"
	"github.com/gluteintel/progress-tracker/internal/infrastructure/repository/postgres"
	"github.com/gluteintel/progress-tracker/internal/infrastructure/resilience"
	"github.com/gluteintel/progress-tracker/internal/infrastructure/uploads/localfs"
	"github.com/gluteintel/progress-tracker/internal/infrastructure/vision/clip"
)

type App struct {
	Config config.Config

	Store ports.SessionStore
	Area  ports.UploadArea
	Queue ports.ChainQueue

	UploadUC  ports.ImageIngestor
	ChainUC   ports.SessionChainer
	CompareUC ports.SessionComparer
	AuditUC   ports.SessionAuditor
	ReportUC  ports.SessionReporter

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewSessionRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	area, err := localfs.New(cfg.UploadsPath, cfg.LogsPath)
	if err != nil {
		return nil, fmt.Errorf("init upload area: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init chain queue: %w", err)
	}

	clipClient := clip.New(cfg.ClipURL, executor)
	poseClassifier := clip.NewPoseClassifier(clipClient)
	tagger := clip.NewShapeTagger(clipClient)

	generator, err := openaillm.NewGenerator(openaillm.Settings{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		Model:       cfg.OpenAIModel,
		Temperature: cfg.PlanTemperature,
		MaxTokens:   cfg.PlanMaxTokens,
		RateRPS:     cfg.PlanRateLimitRPS,
		RateBurst:   cfg.PlanRateBurst,
	})
	if err != nil {
		return nil, fmt.Errorf("init plan generator: %w", err)
	}

	catalog, err := expert.LoadCatalog(cfg.ExpertCatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load expert catalog: %w", err)
	}

	defaults := usecase.ChainDefaults{
		FitnessLevel: cfg.DefaultFitnessLevel,
		Goal:         cfg.DefaultGoal,
		Expert:       cfg.DefaultExpert,
		TopK:         cfg.ClipTopK,
	}

	uploadUC := usecase.NewUploadImagesUseCase(area, poseClassifier)
	chainUC := usecase.NewChainSessionUseCase(area, repo, tagger, generator, catalog, defaults)
	compareUC := usecase.NewCompareImagesUseCase(area, tagger, generator, catalog, defaults)
	auditUC := usecase.NewAuditSessionUseCase(area, repo)
	reportUC := usecase.NewReportSessionUseCase(area, repo)

	return &App{
		Config: cfg,
		Store:  repo,
		Area:   area,
		Queue:  queue,

		UploadUC:  uploadUC,
		ChainUC:   chainUC,
		CompareUC: compareUC,
		AuditUC:   auditUC,
		ReportUC:  reportUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
