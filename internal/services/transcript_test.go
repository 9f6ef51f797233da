package services

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"alfredoptarigan/team-diagnostic/internal/apperrors"
	"alfredoptarigan/team-diagnostic/internal/models"
	"alfredoptarigan/team-diagnostic/internal/repositories"
	"alfredoptarigan/team-diagnostic/internal/testhelpers"
)

type recordingIndexer struct {
	mu       sync.Mutex
	enqueued []uuid.UUID
}

func (r *recordingIndexer) Start(ctx context.Context) {}
func (r *recordingIndexer) Stop()                     {}
func (r *recordingIndexer) Enqueue(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enqueued = append(r.enqueued, id)
}

func newTestTranscriptService(t *testing.T, db *gorm.DB, indexer Indexer, maxFileSize int64) (TranscriptService, StorageService) {
	t.Helper()
	storage := NewStorageService(t.TempDir())
	require.NoError(t, storage.EnsureUploadDir())

	svc := NewTranscriptService(
		repositories.NewFounderRepository(db),
		repositories.NewTranscriptRepository(db),
		storage,
		NewTextExtractor(),
		indexer,
		nil,
		nil,
		maxFileSize,
		zap.NewNop(),
	)
	return svc, storage
}

func TestTranscriptService_UploadBatchPartialSuccess(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	indexer := &recordingIndexer{}
	svc, storage := newTestTranscriptService(t, db, indexer, 1<<20)
	ctx := context.Background()

	startup := testhelpers.CreateStartup(t, db, "Acme")
	founder := testhelpers.CreateFounder(t, db, startup.ID, "alice")

	resp, err := svc.UploadBatch(ctx, founder.ID, []UploadFile{
		{FileName: "first-interview.txt", Data: []byte("We split the work by product and sales.")},
		{FileName: "old-notes.doc", Data: []byte{0xd0, 0xcf, 0x11, 0xe0}},
		{FileName: "second-interview.txt", Data: []byte("Disagreements get settled by the CEO.")},
	}, "partner@fund.test")
	require.NoError(t, err)

	assert.Equal(t, models.OutcomePartialSuccess, resp.Outcome)
	assert.Equal(t, 2, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)
	require.Len(t, resp.Results, 3)

	assert.Equal(t, "first-interview.txt", resp.Results[0].FileName)
	assert.Equal(t, models.UploadSucceeded, resp.Results[0].Status)
	assert.Equal(t, models.UploadFailed, resp.Results[1].Status)
	assert.Contains(t, resp.Results[1].Error, ".docx or PDF")
	assert.Nil(t, resp.Results[1].TranscriptID)
	assert.Equal(t, models.UploadSucceeded, resp.Results[2].Status)

	transcripts, err := svc.List(ctx, founder.ID)
	require.NoError(t, err)
	require.Len(t, transcripts, 2)
	for _, tr := range transcripts {
		require.NotNil(t, tr.FileURL)
		_, statErr := os.Stat(storage.GetFilePath(*tr.FileURL))
		assert.NoError(t, statErr)
		require.NotNil(t, tr.UploadedBy)
		assert.Equal(t, "partner@fund.test", *tr.UploadedBy)
	}

	assert.ElementsMatch(t, []uuid.UUID{*resp.Results[0].TranscriptID, *resp.Results[2].TranscriptID}, indexer.enqueued)

	var reloaded models.Founder
	require.NoError(t, db.First(&reloaded, "id = ?", founder.ID).Error)
	assert.Equal(t, models.InterviewCompleted, reloaded.InterviewStatus)
}

// statusWriteFails breaks only the interview status update.
type statusWriteFails struct {
	repositories.FounderRepository
}

func (r *statusWriteFails) UpdateInterviewStatus(ctx context.Context, id uuid.UUID, status models.InterviewStatus) error {
	return errors.New("database is read-only")
}

func TestTranscriptService_UploadSucceedsWhenStatusUpdateFails(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	indexer := &recordingIndexer{}
	storage := NewStorageService(t.TempDir())
	require.NoError(t, storage.EnsureUploadDir())
	svc := NewTranscriptService(
		&statusWriteFails{FounderRepository: repositories.NewFounderRepository(db)},
		repositories.NewTranscriptRepository(db),
		storage,
		NewTextExtractor(),
		indexer,
		nil,
		nil,
		1<<20,
		zap.NewNop(),
	)
	ctx := context.Background()

	startup := testhelpers.CreateStartup(t, db, "Acme")
	founder := testhelpers.CreateFounder(t, db, startup.ID, "alice")

	resp, err := svc.UploadBatch(ctx, founder.ID, []UploadFile{
		{FileName: "interview.txt", Data: []byte("We split the work by product and sales.")},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeSuccess, resp.Outcome)
	assert.Equal(t, 1, resp.Succeeded)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, models.UploadSucceeded, resp.Results[0].Status)
	require.NotNil(t, resp.Results[0].TranscriptID)
	assert.Equal(t, []uuid.UUID{*resp.Results[0].TranscriptID}, indexer.enqueued)

	transcripts, err := svc.List(ctx, founder.ID)
	require.NoError(t, err)
	require.Len(t, transcripts, 1)
	assert.Equal(t, *resp.Results[0].TranscriptID, transcripts[0].ID)
}

func TestTranscriptService_UploadBatchAllFail(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc, _ := newTestTranscriptService(t, db, NewNoopIndexer(), 16)
	ctx := context.Background()

	startup := testhelpers.CreateStartup(t, db, "Acme")
	founder := testhelpers.CreateFounder(t, db, startup.ID, "alice")

	resp, err := svc.UploadBatch(ctx, founder.ID, []UploadFile{
		{FileName: "long.txt", Data: []byte("this transcript is longer than sixteen bytes")},
		{FileName: "slides.pptx", Data: []byte("x")},
		{FileName: "blank.txt", Data: []byte("   \n  ")},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeFailed, resp.Outcome)
	assert.Equal(t, 3, resp.Failed)
	assert.Contains(t, resp.Results[0].Error, "byte limit")
	assert.Contains(t, resp.Results[1].Error, "unsupported file type")
	assert.Contains(t, resp.Results[2].Error, "no text content")

	var reloaded models.Founder
	require.NoError(t, db.First(&reloaded, "id = ?", founder.ID).Error)
	assert.Equal(t, models.InterviewPending, reloaded.InterviewStatus)
}

func TestTranscriptService_UploadBatchPreconditions(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc, _ := newTestTranscriptService(t, db, NewNoopIndexer(), 1<<20)

	_, err := svc.UploadBatch(context.Background(), uuid.New(), []UploadFile{{FileName: "a.txt", Data: []byte("hi")}}, "")
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	startup := testhelpers.CreateStartup(t, db, "Acme")
	founder := testhelpers.CreateFounder(t, db, startup.ID, "alice")
	_, err = svc.UploadBatch(context.Background(), founder.ID, nil, "")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestTranscriptService_Delete(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc, storage := newTestTranscriptService(t, db, NewNoopIndexer(), 1<<20)
	ctx := context.Background()

	startup := testhelpers.CreateStartup(t, db, "Acme")
	alice := testhelpers.CreateFounder(t, db, startup.ID, "alice")
	bob := testhelpers.CreateFounder(t, db, startup.ID, "bob")

	resp, err := svc.UploadBatch(ctx, alice.ID, []UploadFile{{FileName: "a.txt", Data: []byte("hello")}}, "")
	require.NoError(t, err)
	transcriptID := *resp.Results[0].TranscriptID

	transcripts, err := svc.List(ctx, alice.ID)
	require.NoError(t, err)
	path := storage.GetFilePath(*transcripts[0].FileURL)

	// a transcript is only reachable through its own founder
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(svc.Delete(ctx, bob.ID, transcriptID)))

	require.NoError(t, svc.Delete(ctx, alice.ID, transcriptID))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	remaining, err := svc.List(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestTranscriptService_SearchNotConfigured(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc, _ := newTestTranscriptService(t, db, NewNoopIndexer(), 1<<20)

	_, err := svc.Search(context.Background(), uuid.New(), "pricing", 5)
	assert.Equal(t, apperrors.KindUpstreamConfig, apperrors.KindOf(err))

	_, err = svc.Search(context.Background(), uuid.New(), "  ", 5)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}
