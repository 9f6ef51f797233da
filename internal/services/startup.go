package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/team-diagnostic/internal/apperrors"
	"alfredoptarigan/team-diagnostic/internal/models"
	"alfredoptarigan/team-diagnostic/internal/pipedrive"
	"alfredoptarigan/team-diagnostic/internal/repositories"
)

// DealSource is the part of the CRM client used to import and refresh startups.
type DealSource interface {
	Deal(ctx context.Context, dealID int64) (*pipedrive.Deal, error)
	Stages(ctx context.Context, pipelineID int64) ([]pipedrive.Stage, error)
	Organization(ctx context.Context, orgID int64) (*pipedrive.Organization, error)
}

type StartupService interface {
	Create(ctx context.Context, req models.StartupRequest) (*models.Startup, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Startup, error)
	List(ctx context.Context) ([]models.Startup, error)
	Update(ctx context.Context, id uuid.UUID, req models.StartupRequest) (*models.Startup, error)
	// Delete removes the startup and everything under it, locally only. The CRM deal
	// it may have been imported from is left alone.
	Delete(ctx context.Context, id uuid.UUID) error
	ImportDeal(ctx context.Context, req models.ImportDealRequest) (*models.Startup, error)
	SyncFromPipedrive(ctx context.Context, id uuid.UUID) (*models.Startup, error)
}

type startupService struct {
	startupRepo repositories.StartupRepository
	deals       DealSource
	storage     StorageService
	store       VectorStore
	logger      *zap.Logger
}

// NewStartupService wires startup management. store may be nil when transcript
// search is not configured.
func NewStartupService(
	startupRepo repositories.StartupRepository,
	deals DealSource,
	storage StorageService,
	store VectorStore,
	logger *zap.Logger,
) StartupService {
	return &startupService{
		startupRepo: startupRepo,
		deals:       deals,
		storage:     storage,
		store:       store,
		logger:      logger.Named("startups"),
	}
}

func applyStartupRequest(s *models.Startup, req models.StartupRequest) {
	s.CompanyName = strings.TrimSpace(req.CompanyName)
	s.Industry = req.Industry
	s.Stage = req.Stage
	s.Geography = req.Geography
	s.RaiseAmount = req.RaiseAmount
	s.PlannedCloseDate = req.PlannedCloseDate
	s.BoardStructureDescription = req.BoardStructureDescription
	s.DealPartner = req.DealPartner
}

func (s *startupService) Create(ctx context.Context, req models.StartupRequest) (*models.Startup, error) {
	startup := &models.Startup{}
	applyStartupRequest(startup, req)
	if err := s.startupRepo.Create(ctx, startup); err != nil {
		return nil, err
	}
	return startup, nil
}

func (s *startupService) Get(ctx context.Context, id uuid.UUID) (*models.Startup, error) {
	return s.startupRepo.FindWithFounders(ctx, id)
}

func (s *startupService) List(ctx context.Context) ([]models.Startup, error) {
	return s.startupRepo.List(ctx)
}

func (s *startupService) Update(ctx context.Context, id uuid.UUID, req models.StartupRequest) (*models.Startup, error) {
	startup, err := s.startupRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	applyStartupRequest(startup, req)
	if err := s.startupRepo.Update(ctx, startup); err != nil {
		return nil, err
	}
	return startup, nil
}

func (s *startupService) Delete(ctx context.Context, id uuid.UUID) error {
	fileURLs, err := s.startupRepo.Delete(ctx, id)
	if err != nil {
		return err
	}

	for _, f := range fileURLs {
		if err := s.storage.DeleteFile(f); err != nil {
			s.logger.Warn("Failed to delete transcript file", zap.String("file", f), zap.Error(err))
		}
	}
	if s.store != nil {
		if err := s.store.DeleteStartup(ctx, id); err != nil {
			s.logger.Warn("Failed to delete transcript vectors", zap.String("startup_id", id.String()), zap.Error(err))
		}
	}

	s.logger.Info("Startup deleted", zap.String("startup_id", id.String()), zap.Int("files", len(fileURLs)))
	return nil
}

func (s *startupService) ImportDeal(ctx context.Context, req models.ImportDealRequest) (*models.Startup, error) {
	existing, err := s.startupRepo.FindByPipedriveDealID(ctx, req.DealID)
	if err == nil {
		return nil, apperrors.Newf(apperrors.KindConflict, "startup %s already exists for this deal", existing.ID)
	}
	if !apperrors.Is(err, apperrors.KindNotFound) {
		return nil, err
	}

	deal, err := s.deals.Deal(ctx, req.DealID)
	if err != nil {
		return nil, err
	}

	dealID := req.DealID
	startup := &models.Startup{
		CompanyName:     s.companyName(ctx, deal),
		PipedriveDealID: &dealID,
	}

	pipelineID := firstNonZero(deal.PipelineID, deref(req.PipelineID))
	stageID := firstNonZero(deref(req.StageID), deal.StageID)
	s.applyDeal(ctx, startup, deal, pipelineID, stageID)

	if err := s.startupRepo.Create(ctx, startup); err != nil {
		// a concurrent import of the same deal won the unique index
		if apperrors.Is(err, apperrors.KindConflict) {
			return nil, apperrors.Wrap(apperrors.KindConflict, "a startup already exists for this deal", err)
		}
		return nil, err
	}

	s.logger.Info("Startup imported from Pipedrive",
		zap.String("startup_id", startup.ID.String()),
		zap.Int64("deal_id", dealID),
	)
	return startup, nil
}

func (s *startupService) SyncFromPipedrive(ctx context.Context, id uuid.UUID) (*models.Startup, error) {
	startup, err := s.startupRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if startup.PipedriveDealID == nil {
		return nil, apperrors.New(apperrors.KindValidation, "this startup was not imported from Pipedrive")
	}

	deal, err := s.deals.Deal(ctx, *startup.PipedriveDealID)
	if err != nil {
		return nil, err
	}

	if name := s.organizationName(ctx, deal); name != "" {
		startup.CompanyName = name
	}
	pipelineID := firstNonZero(deal.PipelineID, deref(startup.PipedrivePipelineID))
	stageID := firstNonZero(deal.StageID, deref(startup.PipedriveStageID))
	s.applyDeal(ctx, startup, deal, pipelineID, stageID)

	if err := s.startupRepo.Update(ctx, startup); err != nil {
		return nil, err
	}

	s.logger.Info("Startup synced from Pipedrive", zap.String("startup_id", startup.ID.String()))
	return startup, nil
}

// applyDeal copies the deal fields onto the startup. Fields the deal does not carry
// keep their current value.
func (s *startupService) applyDeal(ctx context.Context, startup *models.Startup, deal *pipedrive.Deal, pipelineID, stageID int64) {
	if pipelineID != 0 {
		startup.PipedrivePipelineID = &pipelineID
	}
	if stageID != 0 {
		startup.PipedriveStageID = &stageID
		stage := s.stageName(ctx, pipelineID, stageID)
		startup.Stage = &stage
	}
	if orgID := deal.Organization(); orgID > 0 {
		startup.PipedriveOrgID = &orgID
	}
	if v := deal.Value.Ptr(); v != nil {
		startup.RaiseAmount = v
	}
	if deal.OwnerName != "" {
		owner := deal.OwnerName
		startup.DealPartner = &owner
	}
	if t := pipedrive.ParseTime(deal.AddTime); t != nil {
		startup.PipedriveDealCreatedAt = t
	}
	if t := pipedrive.ParseTime(deal.UpdateTime); t != nil {
		startup.PipedriveDealUpdatedAt = t
	}
}

// companyName prefers the organization name, then the deal title.
func (s *startupService) companyName(ctx context.Context, deal *pipedrive.Deal) string {
	if name := s.organizationName(ctx, deal); name != "" {
		return name
	}
	if strings.TrimSpace(deal.Title) != "" {
		return deal.Title
	}
	return "Unknown Company"
}

func (s *startupService) organizationName(ctx context.Context, deal *pipedrive.Deal) string {
	orgID := deal.Organization()
	if orgID <= 0 {
		return ""
	}
	org, err := s.deals.Organization(ctx, orgID)
	if err != nil {
		s.logger.Warn("Could not fetch organization name", zap.Int64("org_id", orgID), zap.Error(err))
		return ""
	}
	return strings.TrimSpace(org.Name)
}

// stageName looks the stage up in its pipeline and falls back to "Stage N".
func (s *startupService) stageName(ctx context.Context, pipelineID, stageID int64) string {
	fallback := fmt.Sprintf("Stage %d", stageID)
	if pipelineID == 0 {
		return fallback
	}
	stages, err := s.deals.Stages(ctx, pipelineID)
	if err != nil {
		s.logger.Warn("Could not fetch stage name", zap.Int64("pipeline_id", pipelineID), zap.Error(err))
		return fallback
	}
	for _, st := range stages {
		if st.ID == stageID && st.Name != "" {
			return st.Name
		}
	}
	return fallback
}

func firstNonZero(values ...int64) int64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func deref(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
