package services

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"alfredoptarigan/team-diagnostic/internal/apperrors"
	"alfredoptarigan/team-diagnostic/internal/jsonutil"
	"alfredoptarigan/team-diagnostic/internal/models"
	"alfredoptarigan/team-diagnostic/internal/pipedrive"
	"alfredoptarigan/team-diagnostic/internal/repositories"
	"alfredoptarigan/team-diagnostic/internal/testhelpers"
)

type fakeDeals struct {
	mu     sync.Mutex
	deals  map[int64]*pipedrive.Deal
	orgs   map[int64]*pipedrive.Organization
	stages map[int64][]pipedrive.Stage
	calls  int
}

func (f *fakeDeals) Deal(ctx context.Context, dealID int64) (*pipedrive.Deal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	d, ok := f.deals[dealID]
	if !ok {
		return nil, apperrors.NotFound("pipedrive deal")
	}
	copied := *d
	return &copied, nil
}

func (f *fakeDeals) Stages(ctx context.Context, pipelineID int64) ([]pipedrive.Stage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	stages, ok := f.stages[pipelineID]
	if !ok {
		return nil, errors.New("pipeline unavailable")
	}
	return stages, nil
}

func (f *fakeDeals) Organization(ctx context.Context, orgID int64) (*pipedrive.Organization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	org, ok := f.orgs[orgID]
	if !ok {
		return nil, apperrors.NotFound("pipedrive organization")
	}
	return org, nil
}

func (f *fakeDeals) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestStartupService(t *testing.T, db *gorm.DB, deals DealSource) (StartupService, StorageService) {
	t.Helper()
	storage := NewStorageService(t.TempDir())
	require.NoError(t, storage.EnsureUploadDir())
	return NewStartupService(repositories.NewStartupRepository(db), deals, storage, nil, zap.NewNop()), storage
}

func TestStartupService_DeleteCascadesLocallyOnly(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	deals := &fakeDeals{}
	svc, storage := newTestStartupService(t, db, deals)
	ctx := context.Background()

	startup := testhelpers.CreateStartup(t, db, "Acme")
	dealID := int64(42)
	require.NoError(t, db.Model(startup).Update("pipedrive_deal_id", dealID).Error)
	founder := testhelpers.CreateFounder(t, db, startup.ID, "alice")

	stored, err := storage.SaveFile("interview.txt", []byte("notes"))
	require.NoError(t, err)
	testhelpers.CreateTranscript(t, db, founder.ID, "notes", &stored)

	require.NoError(t, svc.Delete(ctx, startup.ID))

	assert.Zero(t, deals.callCount())
	_, statErr := os.Stat(storage.GetFilePath(stored))
	assert.True(t, os.IsNotExist(statErr))

	var founders int64
	require.NoError(t, db.Model(&models.Founder{}).Where("startup_id = ?", startup.ID).Count(&founders).Error)
	assert.Zero(t, founders)

	_, err = svc.Get(ctx, startup.ID)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(svc.Delete(ctx, startup.ID)))
}

func TestStartupService_ImportDeal(t *testing.T) {
	owner := "Dana Partner"
	tests := []struct {
		name        string
		deal        pipedrive.Deal
		req         models.ImportDealRequest
		wantName    string
		wantStage   string
		wantRaise   *float64
		wantPartner *string
	}{
		{
			name: "organization name and stage lookup",
			deal: pipedrive.Deal{
				ID: 10, Title: "Acme seed", PipelineID: 1, StageID: 3,
				OrgID:     jsonutil.FlexibleID(7),
				Value:     jsonutil.FlexibleFloat{Value: 1500000, Valid: true},
				OwnerName: owner,
				AddTime:   "2026-01-05 10:00:00",
			},
			req:         models.ImportDealRequest{DealID: 10},
			wantName:    "Acme Robotics",
			wantStage:   "Due Diligence",
			wantRaise:   ptrFloat(1500000),
			wantPartner: &owner,
		},
		{
			name:      "deal title when the organization is missing",
			deal:      pipedrive.Deal{ID: 11, Title: "Beta pre-seed", PipelineID: 1, StageID: 99, OrgID: jsonutil.FlexibleID(404)},
			req:       models.ImportDealRequest{DealID: 11},
			wantName:  "Beta pre-seed",
			wantStage: "Stage 99",
		},
		{
			name:      "unknown company and requested stage",
			deal:      pipedrive.Deal{ID: 12, PipelineID: 2, StageID: 5},
			req:       models.ImportDealRequest{DealID: 12, StageID: ptrInt(6)},
			wantName:  "Unknown Company",
			wantStage: "Stage 6",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testhelpers.NewTestDB(t)
			deal := tt.deal
			deals := &fakeDeals{
				deals:  map[int64]*pipedrive.Deal{deal.ID: &deal},
				orgs:   map[int64]*pipedrive.Organization{7: {ID: 7, Name: "Acme Robotics"}},
				stages: map[int64][]pipedrive.Stage{1: {{ID: 3, Name: "Due Diligence", PipelineID: 1}}},
			}
			svc, _ := newTestStartupService(t, db, deals)

			startup, err := svc.ImportDeal(context.Background(), tt.req)
			require.NoError(t, err)

			assert.Equal(t, tt.wantName, startup.CompanyName)
			require.NotNil(t, startup.Stage)
			assert.Equal(t, tt.wantStage, *startup.Stage)
			require.NotNil(t, startup.PipedriveDealID)
			assert.Equal(t, deal.ID, *startup.PipedriveDealID)
			assert.Equal(t, tt.wantRaise, startup.RaiseAmount)
			assert.Equal(t, tt.wantPartner, startup.DealPartner)
		})
	}
}

func TestStartupService_ImportDealTwiceConflicts(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	deals := &fakeDeals{deals: map[int64]*pipedrive.Deal{20: {ID: 20, Title: "Gamma"}}}
	svc, _ := newTestStartupService(t, db, deals)
	ctx := context.Background()

	_, err := svc.ImportDeal(ctx, models.ImportDealRequest{DealID: 20})
	require.NoError(t, err)

	_, err = svc.ImportDeal(ctx, models.ImportDealRequest{DealID: 20})
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

// staleDealLookup misses every existing row, as a lookup that ran before a
// concurrent import committed would.
type staleDealLookup struct {
	repositories.StartupRepository
}

func (r *staleDealLookup) FindByPipedriveDealID(ctx context.Context, dealID int64) (*models.Startup, error) {
	return nil, apperrors.NotFound("startup")
}

func TestStartupService_ImportDealRaceConflicts(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	deals := &fakeDeals{deals: map[int64]*pipedrive.Deal{21: {ID: 21, Title: "Gamma"}}}
	storage := NewStorageService(t.TempDir())
	repo := &staleDealLookup{StartupRepository: repositories.NewStartupRepository(db)}
	svc := NewStartupService(repo, deals, storage, nil, zap.NewNop())
	ctx := context.Background()

	_, err := svc.ImportDeal(ctx, models.ImportDealRequest{DealID: 21})
	require.NoError(t, err)

	_, err = svc.ImportDeal(ctx, models.ImportDealRequest{DealID: 21})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	assert.Equal(t, http.StatusConflict, apperrors.HTTPStatus(apperrors.KindOf(err)))

	var count int64
	require.NoError(t, db.Model(&models.Startup{}).Where("pipedrive_deal_id = ?", 21).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestStartupService_ImportUnknownDeal(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc, _ := newTestStartupService(t, db, &fakeDeals{})

	_, err := svc.ImportDeal(context.Background(), models.ImportDealRequest{DealID: 1})
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestStartupService_SyncFromPipedrive(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	deal := &pipedrive.Deal{ID: 30, Title: "Delta", PipelineID: 1, StageID: 3, OrgID: jsonutil.FlexibleID(7)}
	deals := &fakeDeals{
		deals:  map[int64]*pipedrive.Deal{30: deal},
		orgs:   map[int64]*pipedrive.Organization{7: {ID: 7, Name: "Delta Labs"}},
		stages: map[int64][]pipedrive.Stage{1: {{ID: 3, Name: "Term Sheet"}, {ID: 4, Name: "Closed"}}},
	}
	svc, _ := newTestStartupService(t, db, deals)
	ctx := context.Background()

	startup, err := svc.ImportDeal(ctx, models.ImportDealRequest{DealID: 30})
	require.NoError(t, err)

	deal.StageID = 4
	deals.orgs[7] = &pipedrive.Organization{ID: 7, Name: "Delta Labs Inc"}

	synced, err := svc.SyncFromPipedrive(ctx, startup.ID)
	require.NoError(t, err)
	assert.Equal(t, "Delta Labs Inc", synced.CompanyName)
	require.NotNil(t, synced.Stage)
	assert.Equal(t, "Closed", *synced.Stage)

	manual, err := svc.Create(ctx, models.StartupRequest{CompanyName: "Manual Co"})
	require.NoError(t, err)
	_, err = svc.SyncFromPipedrive(ctx, manual.ID)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestStartupService_Update(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc, _ := newTestStartupService(t, db, &fakeDeals{})
	ctx := context.Background()

	created, err := svc.Create(ctx, models.StartupRequest{CompanyName: "  Epsilon  "})
	require.NoError(t, err)
	assert.Equal(t, "Epsilon", created.CompanyName)

	industry := "Climate"
	updated, err := svc.Update(ctx, created.ID, models.StartupRequest{CompanyName: "Epsilon Energy", Industry: &industry})
	require.NoError(t, err)
	assert.Equal(t, "Epsilon Energy", updated.CompanyName)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Industry)
	assert.Equal(t, "Climate", *got.Industry)
}

func ptrFloat(v float64) *float64 { return &v }
func ptrInt(v int64) *int64       { return &v }
