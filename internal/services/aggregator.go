package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"alfredoptarigan/team-diagnostic/internal/apperrors"
	"alfredoptarigan/team-diagnostic/internal/config"
	"alfredoptarigan/team-diagnostic/internal/models"
	"alfredoptarigan/team-diagnostic/internal/repositories"
)

// AnalysisBundle is everything the prompt needs about one startup. Responses and
// transcripts are unordered sets; consumers group them by founder.
type AnalysisBundle struct {
	Startup     models.Startup
	Founders    []models.Founder
	Responses   []repositories.ResponseRow
	Transcripts []repositories.TranscriptRow
}

type Aggregator interface {
	Aggregate(ctx context.Context, startupID uuid.UUID) (*AnalysisBundle, error)
}

type aggregator struct {
	startupRepo    repositories.StartupRepository
	founderRepo    repositories.FounderRepository
	surveyRepo     repositories.SurveyRepository
	transcriptRepo repositories.TranscriptRepository
	minimums       config.AnalysisConfig
}

func NewAggregator(
	startupRepo repositories.StartupRepository,
	founderRepo repositories.FounderRepository,
	surveyRepo repositories.SurveyRepository,
	transcriptRepo repositories.TranscriptRepository,
	minimums config.AnalysisConfig,
) Aggregator {
	return &aggregator{
		startupRepo:    startupRepo,
		founderRepo:    founderRepo,
		surveyRepo:     surveyRepo,
		transcriptRepo: transcriptRepo,
		minimums:       minimums,
	}
}

// Aggregate performs reads only. A startup without founders is a precondition
// failure and never reaches the model.
func (a *aggregator) Aggregate(ctx context.Context, startupID uuid.UUID) (*AnalysisBundle, error) {
	startup, err := a.startupRepo.FindByID(ctx, startupID)
	if err != nil {
		return nil, err
	}

	founders, err := a.founderRepo.ListByStartup(ctx, startupID)
	if err != nil {
		return nil, err
	}
	if len(founders) == 0 {
		return nil, apperrors.New(apperrors.KindNoFounders, "no founders found for this startup")
	}

	founderIDs := make([]uuid.UUID, 0, len(founders))
	for _, f := range founders {
		founderIDs = append(founderIDs, f.ID)
	}

	responses, err := a.surveyRepo.ListRowsForFounders(ctx, founderIDs)
	if err != nil {
		return nil, err
	}
	if len(responses) < a.minimums.MinSurveyResponses {
		return nil, apperrors.New(apperrors.KindInsufficientData,
			fmt.Sprintf("at least %d survey responses are required, found %d", a.minimums.MinSurveyResponses, len(responses)))
	}

	transcripts, err := a.transcriptRepo.ListRowsForFounders(ctx, founderIDs)
	if err != nil {
		return nil, err
	}
	if len(transcripts) < a.minimums.MinTranscripts {
		return nil, apperrors.New(apperrors.KindInsufficientData,
			fmt.Sprintf("at least %d interview transcripts are required, found %d", a.minimums.MinTranscripts, len(transcripts)))
	}

	return &AnalysisBundle{
		Startup:     *startup,
		Founders:    founders,
		Responses:   responses,
		Transcripts: transcripts,
	}, nil
}
