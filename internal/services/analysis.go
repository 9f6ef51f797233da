package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"alfredoptarigan/team-diagnostic/internal/apperrors"
	"alfredoptarigan/team-diagnostic/internal/models"
	"alfredoptarigan/team-diagnostic/internal/repositories"
)

// AnalysisStage names a step of one report generation run.
type AnalysisStage string

const (
	StageIdle        AnalysisStage = "idle"
	StageAggregating AnalysisStage = "aggregating"
	StagePrompting   AnalysisStage = "prompting"
	StageInvoking    AnalysisStage = "invoking"
	StageValidating  AnalysisStage = "validating"
	StageDone        AnalysisStage = "done"
	StageFailed      AnalysisStage = "failed"
)

type AnalysisService interface {
	Generate(ctx context.Context, startupID uuid.UUID, createdBy string) (*models.DiagnosticReport, error)
	Preview(ctx context.Context, startupID uuid.UUID) (*models.PromptPreview, error)
	Latest(ctx context.Context, startupID uuid.UUID) (*models.DiagnosticReport, error)
	History(ctx context.Context, startupID uuid.UUID) ([]models.DiagnosticReport, error)
}

type analysisService struct {
	aggregator      Aggregator
	prompts         *PromptBuilder
	invoker         ModelInvoker
	validator       ResponseValidator
	reportRepo      repositories.ReportRepository
	maxOutputTokens int
	logger          *zap.Logger
}

func NewAnalysisService(
	aggregator Aggregator,
	prompts *PromptBuilder,
	invoker ModelInvoker,
	validator ResponseValidator,
	reportRepo repositories.ReportRepository,
	maxOutputTokens int,
	logger *zap.Logger,
) AnalysisService {
	return &analysisService{
		aggregator:      aggregator,
		prompts:         prompts,
		invoker:         invoker,
		validator:       validator,
		reportRepo:      reportRepo,
		maxOutputTokens: maxOutputTokens,
		logger:          logger.Named("analysis"),
	}
}

// Generate runs the whole pipeline once. Nothing is written unless every stage
// succeeds; a failed or canceled run leaves no trace and can simply be retried.
func (s *analysisService) Generate(ctx context.Context, startupID uuid.UUID, createdBy string) (*models.DiagnosticReport, error) {
	log := s.logger.With(zap.String("startup_id", startupID.String()), zap.String("model", s.invoker.ModelIdentifier()))
	started := time.Now()

	fail := func(stage AnalysisStage, err error) (*models.DiagnosticReport, error) {
		log.Warn("Analysis failed",
			zap.String("stage", string(stage)),
			zap.String("kind", string(apperrors.KindOf(err))),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err),
		)
		return nil, err
	}

	log.Info("Analysis started", zap.String("stage", string(StageAggregating)))
	bundle, err := s.aggregator.Aggregate(ctx, startupID)
	if err != nil {
		return fail(StageAggregating, err)
	}

	log.Debug("Building prompt", zap.String("stage", string(StagePrompting)),
		zap.Int("founders", len(bundle.Founders)),
		zap.Int("responses", len(bundle.Responses)),
		zap.Int("transcripts", len(bundle.Transcripts)),
	)
	systemPrompt, userPrompt := s.prompts.BuildAnalysisPrompt(bundle)

	log.Info("Invoking model", zap.String("stage", string(StageInvoking)))
	raw, err := s.invoker.Complete(ctx, CompletionRequest{
		SystemPrompt:    systemPrompt,
		UserPrompt:      userPrompt,
		JSONMode:        true,
		MaxOutputTokens: s.maxOutputTokens,
		Purpose:         "analysis",
	})
	if err != nil {
		return fail(StageInvoking, err)
	}

	log.Info("Validating model response", zap.String("stage", string(StageValidating)))
	validated, err := s.validator.Validate(ctx, raw)
	if err != nil {
		return fail(StageValidating, err)
	}

	// The caller may have gone away during the model call; do not store a report nobody asked for.
	if err := ctx.Err(); err != nil {
		return fail(StageValidating, apperrors.Wrap(apperrors.KindCanceled, "analysis canceled by caller", err))
	}

	report := &models.DiagnosticReport{
		StartupID:        startupID,
		AnalysisJSON:     datatypes.JSON(validated.Analysis),
		ExecutiveSummary: validated.ExecutiveSummary,
	}
	if createdBy != "" {
		report.CreatedBy = &createdBy
	}
	if err := s.reportRepo.Create(ctx, report); err != nil {
		return fail(StageDone, err)
	}

	log.Info("Analysis completed",
		zap.String("stage", string(StageDone)),
		zap.String("report_id", report.ID.String()),
		zap.Bool("summary_fetched", validated.SummaryFetched),
		zap.Float64("decision_risk_score", validated.RiskScore),
		zap.Duration("elapsed", time.Since(started)),
	)
	return report, nil
}

func (s *analysisService) Preview(ctx context.Context, startupID uuid.UUID) (*models.PromptPreview, error) {
	bundle, err := s.aggregator.Aggregate(ctx, startupID)
	if err != nil {
		return nil, err
	}
	systemPrompt, userPrompt := s.prompts.BuildAnalysisPrompt(bundle)
	return &models.PromptPreview{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Founders:     len(bundle.Founders),
		Responses:    len(bundle.Responses),
		Transcripts:  len(bundle.Transcripts),
	}, nil
}

func (s *analysisService) Latest(ctx context.Context, startupID uuid.UUID) (*models.DiagnosticReport, error) {
	return s.reportRepo.FindLatestByStartup(ctx, startupID)
}

func (s *analysisService) History(ctx context.Context, startupID uuid.UUID) ([]models.DiagnosticReport, error) {
	return s.reportRepo.ListByStartup(ctx, startupID)
}
