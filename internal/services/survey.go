package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/team-diagnostic/internal/apperrors"
	"alfredoptarigan/team-diagnostic/internal/config"
	"alfredoptarigan/team-diagnostic/internal/models"
	"alfredoptarigan/team-diagnostic/internal/repositories"
)

type SurveyService interface {
	// Resolve returns what the public survey form needs for a token.
	Resolve(ctx context.Context, token string) (*models.SurveyView, error)
	// Save stores answers for a token. With submit set it also completes the survey,
	// after which the token is no longer accepted.
	Save(ctx context.Context, token string, req models.SurveySaveRequest) (models.SurveyStatus, error)
	Send(ctx context.Context, founderID uuid.UUID) (*models.SurveyLinkResponse, error)
	Reset(ctx context.Context, founderID uuid.UUID) (*models.SurveyLinkResponse, error)
	Comparison(ctx context.Context, startupID uuid.UUID) (*models.SurveyComparison, error)
}

type surveyService struct {
	founderRepo   repositories.FounderRepository
	startupRepo   repositories.StartupRepository
	surveyRepo    repositories.SurveyRepository
	tokenTTL      time.Duration
	publicBaseURL string
	now           func() time.Time
	logger        *zap.Logger
}

func NewSurveyService(
	founderRepo repositories.FounderRepository,
	startupRepo repositories.StartupRepository,
	surveyRepo repositories.SurveyRepository,
	cfg *config.Config,
	logger *zap.Logger,
) SurveyService {
	return &surveyService{
		founderRepo:   founderRepo,
		startupRepo:   startupRepo,
		surveyRepo:    surveyRepo,
		tokenTTL:      cfg.Survey.TokenTTL,
		publicBaseURL: strings.TrimRight(cfg.Server.PublicBaseURL, "/"),
		now:           time.Now,
		logger:        logger.Named("survey"),
	}
}

// founderForToken applies the same rejections to every public path.
func (s *surveyService) founderForToken(ctx context.Context, token string) (*models.Founder, error) {
	parsed, err := uuid.Parse(token)
	if err != nil {
		return nil, apperrors.NotFound("survey token")
	}

	founder, err := s.founderRepo.FindByToken(ctx, parsed)
	if err != nil {
		return nil, err
	}
	if founder.TokenExpired(s.now()) {
		return nil, repositories.ErrSurveyTokenExpired()
	}
	if founder.SurveyStatus == models.SurveyCompleted {
		return nil, repositories.ErrSurveyTokenUsed()
	}
	return founder, nil
}

func (s *surveyService) Resolve(ctx context.Context, token string) (*models.SurveyView, error) {
	founder, err := s.founderForToken(ctx, token)
	if err != nil {
		return nil, err
	}

	startup, err := s.startupRepo.FindByID(ctx, founder.StartupID)
	if err != nil {
		return nil, err
	}

	questions, err := s.surveyRepo.CurrentQuestions(ctx)
	if err != nil {
		return nil, err
	}

	responses, err := s.surveyRepo.ListByFounder(ctx, founder.ID)
	if err != nil {
		return nil, err
	}

	return &models.SurveyView{
		FounderID:    founder.ID,
		FounderName:  founder.FullName,
		CompanyName:  startup.CompanyName,
		SurveyStatus: founder.SurveyStatus,
		ExpiresAt:    founder.SurveyTokenExpiresAt,
		Questions:    questions,
		Responses:    responses,
	}, nil
}

func (s *surveyService) Save(ctx context.Context, token string, req models.SurveySaveRequest) (models.SurveyStatus, error) {
	founder, err := s.founderForToken(ctx, token)
	if err != nil {
		return "", err
	}

	questions, err := s.surveyRepo.CurrentQuestions(ctx)
	if err != nil {
		return "", err
	}

	current := make(map[uuid.UUID]struct{}, len(questions))
	required := make([]uuid.UUID, 0, len(questions))
	for _, q := range questions {
		current[q.ID] = struct{}{}
		required = append(required, q.ID)
	}
	for _, a := range req.Responses {
		if _, ok := current[a.QuestionID]; !ok {
			return "", apperrors.Validation("unknown survey question", map[string]string{
				"question_id": a.QuestionID.String(),
			})
		}
	}

	if !req.Submit {
		if err := s.surveyRepo.UpsertResponses(ctx, founder.ID, founder.SurveyToken, req.Responses, s.now()); err != nil {
			return "", err
		}
		return founder.SurveyStatus, nil
	}

	if err := s.surveyRepo.CompleteSurvey(ctx, founder.ID, founder.SurveyToken, req.Responses, required, s.now()); err != nil {
		return "", err
	}

	s.logger.Info("Survey submitted",
		zap.String("founder_id", founder.ID.String()),
		zap.Int("questions", len(required)),
	)
	return models.SurveyCompleted, nil
}

func (s *surveyService) Send(ctx context.Context, founderID uuid.UUID) (*models.SurveyLinkResponse, error) {
	founder, err := s.founderRepo.MarkSurveySent(ctx, founderID, s.now().Add(s.tokenTTL))
	if err != nil {
		return nil, err
	}
	s.logger.Info("Survey link issued", zap.String("founder_id", founder.ID.String()))
	return s.link(founder), nil
}

func (s *surveyService) Reset(ctx context.Context, founderID uuid.UUID) (*models.SurveyLinkResponse, error) {
	founder, err := s.founderRepo.ResetSurvey(ctx, founderID, uuid.New(), s.now().Add(s.tokenTTL))
	if err != nil {
		return nil, err
	}
	s.logger.Info("Survey reset", zap.String("founder_id", founder.ID.String()))
	return s.link(founder), nil
}

func (s *surveyService) link(founder *models.Founder) *models.SurveyLinkResponse {
	return &models.SurveyLinkResponse{
		FounderID: founder.ID,
		SurveyURL: fmt.Sprintf("%s/survey/%s", s.publicBaseURL, founder.SurveyToken),
		ExpiresAt: founder.SurveyTokenExpiresAt,
	}
}

// Comparison averages each completed founder's answers per dimension.
func (s *surveyService) Comparison(ctx context.Context, startupID uuid.UUID) (*models.SurveyComparison, error) {
	if _, err := s.startupRepo.FindByID(ctx, startupID); err != nil {
		return nil, err
	}

	founders, err := s.founderRepo.ListByStartup(ctx, startupID)
	if err != nil {
		return nil, err
	}

	var completed []models.Founder
	ids := make([]uuid.UUID, 0, len(founders))
	for _, f := range founders {
		if f.SurveyStatus == models.SurveyCompleted {
			completed = append(completed, f)
			ids = append(ids, f.ID)
		}
	}

	rows, err := s.surveyRepo.ListRowsForFounders(ctx, ids)
	if err != nil {
		return nil, err
	}

	type sum struct {
		total float64
		count int
	}
	sums := make(map[uuid.UUID]map[string]*sum, len(completed))
	dimensionSet := make(map[string]struct{})
	for _, row := range rows {
		byDimension, ok := sums[row.FounderID]
		if !ok {
			byDimension = make(map[string]*sum)
			sums[row.FounderID] = byDimension
		}
		acc, ok := byDimension[row.Dimension]
		if !ok {
			acc = &sum{}
			byDimension[row.Dimension] = acc
		}
		acc.total += float64(row.ResponseValue)
		acc.count++
		dimensionSet[row.Dimension] = struct{}{}
	}

	comparison := &models.SurveyComparison{
		Founders:   make([]models.FounderDimensionScores, 0, len(completed)),
		Dimensions: make([]string, 0, len(dimensionSet)),
	}
	for d := range dimensionSet {
		comparison.Dimensions = append(comparison.Dimensions, d)
	}
	sort.Strings(comparison.Dimensions)

	for _, f := range completed {
		scores := models.FounderDimensionScores{
			FounderID:   f.ID,
			FounderName: f.FullName,
			Dimensions:  make(map[string]float64),
		}
		for dimension, acc := range sums[f.ID] {
			scores.Dimensions[dimension] = acc.total / float64(acc.count)
		}
		comparison.Founders = append(comparison.Founders, scores)
	}

	return comparison, nil
}
