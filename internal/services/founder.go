package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/team-diagnostic/internal/models"
	"alfredoptarigan/team-diagnostic/internal/repositories"
)

type FounderService interface {
	Create(ctx context.Context, startupID uuid.UUID, req models.FounderRequest) (*models.Founder, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Founder, error)
	ListByStartup(ctx context.Context, startupID uuid.UUID) ([]models.Founder, error)
	Update(ctx context.Context, id uuid.UUID, req models.FounderRequest) (*models.Founder, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type founderService struct {
	startupRepo repositories.StartupRepository
	founderRepo repositories.FounderRepository
	storage     StorageService
	store       VectorStore
	logger      *zap.Logger
}

func NewFounderService(
	startupRepo repositories.StartupRepository,
	founderRepo repositories.FounderRepository,
	storage StorageService,
	store VectorStore,
	logger *zap.Logger,
) FounderService {
	return &founderService{
		startupRepo: startupRepo,
		founderRepo: founderRepo,
		storage:     storage,
		store:       store,
		logger:      logger.Named("founders"),
	}
}

// applyFounderRequest copies the profile fields. Omitted booleans become false on
// create and are left unchanged on update.
func applyFounderRequest(f *models.Founder, req models.FounderRequest) {
	f.FullName = strings.TrimSpace(req.FullName)
	f.Role = req.Role
	f.Email = strings.TrimSpace(req.Email)
	f.EquityPercentage = req.EquityPercentage
	f.YearsKnownCofounders = req.YearsKnownCofounders
	setBool(&f.FullTimeStatus, req.FullTimeStatus)
	setBool(&f.PriorStartupExperience, req.PriorStartupExperience)
	setBool(&f.PreviouslyWorkedTogether, req.PreviouslyWorkedTogether)
	setBool(&f.IsCEO, req.IsCEO)
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func (s *founderService) Create(ctx context.Context, startupID uuid.UUID, req models.FounderRequest) (*models.Founder, error) {
	if _, err := s.startupRepo.FindByID(ctx, startupID); err != nil {
		return nil, err
	}

	founder := &models.Founder{StartupID: startupID}
	applyFounderRequest(founder, req)
	if err := s.founderRepo.Create(ctx, founder); err != nil {
		return nil, err
	}
	return founder, nil
}

func (s *founderService) Get(ctx context.Context, id uuid.UUID) (*models.Founder, error) {
	return s.founderRepo.FindByID(ctx, id)
}

func (s *founderService) ListByStartup(ctx context.Context, startupID uuid.UUID) ([]models.Founder, error) {
	if _, err := s.startupRepo.FindByID(ctx, startupID); err != nil {
		return nil, err
	}
	return s.founderRepo.ListByStartup(ctx, startupID)
}

func (s *founderService) Update(ctx context.Context, id uuid.UUID, req models.FounderRequest) (*models.Founder, error) {
	founder, err := s.founderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	applyFounderRequest(founder, req)
	if err := s.founderRepo.Update(ctx, founder); err != nil {
		return nil, err
	}
	return founder, nil
}

func (s *founderService) Delete(ctx context.Context, id uuid.UUID) error {
	fileURLs, err := s.founderRepo.Delete(ctx, id)
	if err != nil {
		return err
	}

	for _, f := range fileURLs {
		if err := s.storage.DeleteFile(f); err != nil {
			s.logger.Warn("Failed to delete transcript file", zap.String("file", f), zap.Error(err))
		}
	}
	if s.store != nil {
		if err := s.store.DeleteFounder(ctx, id); err != nil {
			s.logger.Warn("Failed to delete transcript vectors", zap.String("founder_id", id.String()), zap.Error(err))
		}
	}
	return nil
}
