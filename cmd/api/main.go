package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"alfredoptarigan/team-diagnostic/internal/config"
	"alfredoptarigan/team-diagnostic/internal/handlers"
	"alfredoptarigan/team-diagnostic/internal/logging"
	"alfredoptarigan/team-diagnostic/internal/pipedrive"
	"alfredoptarigan/team-diagnostic/internal/repositories"
	"alfredoptarigan/team-diagnostic/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Server.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	db, err := config.InitDatabase(cfg, logger)
	if err != nil {
		return err
	}

	startupRepo := repositories.NewStartupRepository(db)
	founderRepo := repositories.NewFounderRepository(db)
	surveyRepo := repositories.NewSurveyRepository(db)
	transcriptRepo := repositories.NewTranscriptRepository(db)
	reportRepo := repositories.NewReportRepository(db)

	storageService := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storageService.EnsureUploadDir(); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	if err := cfg.Auth.Validate(); err != nil {
		logger.Warn("Admin login is not configured", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// transcript indexing and search are optional
	var (
		embedder services.Embedder
		store    services.VectorStore
		indexer  = services.NewNoopIndexer()
	)
	if cfg.IndexingEnabled() {
		embedder, store, indexer, err = initIndexing(ctx, cfg, transcriptRepo, logger)
		if err != nil {
			logger.Warn("Transcript indexing disabled", zap.Error(err))
			embedder, store, indexer = nil, nil, services.NewNoopIndexer()
		}
	} else {
		logger.Info("Transcript indexing disabled; QDRANT_URL or GEMINI_API_KEY is not set")
	}

	crm := pipedrive.NewClient(cfg.Pipedrive, logger)
	if err := cfg.Pipedrive.Validate(); err != nil {
		logger.Warn("Pipedrive is not configured; CRM routes will fail", zap.Error(err))
	}

	prompts := services.NewPromptBuilder()
	invoker := services.NewModelInvoker(cfg, logger)
	logger.Info("Model invoker ready", zap.String("model", invoker.ModelIdentifier()))

	analysisService := services.NewAnalysisService(
		services.NewAggregator(startupRepo, founderRepo, surveyRepo, transcriptRepo, cfg.Analysis),
		prompts,
		invoker,
		services.NewResponseValidator(invoker, prompts, cfg.LLM.SummaryMaxOutputTokens, logger),
		reportRepo,
		cfg.LLM.MaxOutputTokens,
		logger,
	)
	authService := services.NewAuthService(cfg.Auth)
	transcriptService := services.NewTranscriptService(
		founderRepo,
		transcriptRepo,
		storageService,
		services.NewTextExtractor(),
		indexer,
		embedder,
		store,
		cfg.Storage.MaxFileSize,
		logger,
	)

	app := handlers.NewApp(ctx, cfg, logger)
	handlers.RegisterRoutes(app, handlers.Handlers{
		Auth:      handlers.NewAuthHandler(authService),
		Startups:  handlers.NewStartupHandler(services.NewStartupService(startupRepo, crm, storageService, store, logger)),
		Founders:  handlers.NewFounderHandler(services.NewFounderService(startupRepo, founderRepo, storageService, store, logger)),
		Surveys:   handlers.NewSurveyHandler(services.NewSurveyService(founderRepo, startupRepo, surveyRepo, cfg, logger)),
		Uploads:   handlers.NewUploadHandler(transcriptService, cfg.Storage.MaxFileSize),
		Analysis:  handlers.NewAnalysisHandler(analysisService),
		Pipedrive: handlers.NewPipedriveHandler(crm),
		Stats:     services.NewStatsService(startupRepo, founderRepo, reportRepo),
	}, authService)

	indexer.Start(ctx)

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down server")
		indexer.Stop()
		if err := app.Shutdown(); err != nil {
			logger.Error("Server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("Server starting", zap.String("addr", addr), zap.String("env", cfg.Server.Env))

	if err := app.Listen(addr); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func initIndexing(
	ctx context.Context,
	cfg *config.Config,
	transcriptRepo repositories.TranscriptRepository,
	logger *zap.Logger,
) (services.Embedder, services.VectorStore, services.Indexer, error) {
	gemini, err := services.NewGeminiService(cfg.Gemini, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize Gemini embeddings: %w", err)
	}

	store, err := services.NewQdrantService(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize Qdrant: %w", err)
	}
	if err := store.InitCollection(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize Qdrant collection: %w", err)
	}

	indexer := services.NewIndexWorker(
		transcriptRepo,
		gemini,
		store,
		services.NewTextChunker(cfg.Worker.ChunkSize, cfg.Worker.ChunkOverlap),
		cfg.Worker.Concurrency,
		cfg.Worker.PollInterval,
		logger,
	)
	return gemini, store, indexer, nil
}
