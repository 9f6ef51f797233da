package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/team-diagnostic/internal/apperrors"
	"alfredoptarigan/team-diagnostic/internal/models"
	"alfredoptarigan/team-diagnostic/internal/repositories"
)

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 20
)

// UploadFile is one file of an upload batch. ReadErr is set when the transport could
// not read the file, which fails only that item.
type UploadFile struct {
	FileName string
	Data     []byte
	ReadErr  error
}

type TranscriptService interface {
	// UploadBatch processes files one at a time in the given order. One file failing
	// does not stop the others.
	UploadBatch(ctx context.Context, founderID uuid.UUID, files []UploadFile, uploadedBy string) (*models.UploadBatchResponse, error)
	List(ctx context.Context, founderID uuid.UUID) ([]models.InterviewTranscript, error)
	Delete(ctx context.Context, founderID, transcriptID uuid.UUID) error
	Search(ctx context.Context, founderID uuid.UUID, query string, limit int) ([]models.TranscriptSearchHit, error)
}

type transcriptService struct {
	founderRepo    repositories.FounderRepository
	transcriptRepo repositories.TranscriptRepository
	storage        StorageService
	extractor      TextExtractor
	indexer        Indexer
	embedder       Embedder
	store          VectorStore
	maxFileSize    int64
	logger         *zap.Logger
}

// NewTranscriptService wires the upload flow. embedder and store may be nil when
// transcript search is not configured.
func NewTranscriptService(
	founderRepo repositories.FounderRepository,
	transcriptRepo repositories.TranscriptRepository,
	storage StorageService,
	extractor TextExtractor,
	indexer Indexer,
	embedder Embedder,
	store VectorStore,
	maxFileSize int64,
	logger *zap.Logger,
) TranscriptService {
	return &transcriptService{
		founderRepo:    founderRepo,
		transcriptRepo: transcriptRepo,
		storage:        storage,
		extractor:      extractor,
		indexer:        indexer,
		embedder:       embedder,
		store:          store,
		maxFileSize:    maxFileSize,
		logger:         logger.Named("transcripts"),
	}
}

func (s *transcriptService) UploadBatch(ctx context.Context, founderID uuid.UUID, files []UploadFile, uploadedBy string) (*models.UploadBatchResponse, error) {
	if len(files) == 0 {
		return nil, apperrors.Validation("no files uploaded", map[string]string{"files": "at least one file is required"})
	}
	if _, err := s.founderRepo.FindByID(ctx, founderID); err != nil {
		return nil, err
	}

	results := make([]models.UploadItemResult, len(files))
	for i, f := range files {
		results[i] = models.UploadItemResult{FileName: f.FileName, Status: models.UploadPending}
	}

	resp := &models.UploadBatchResponse{Results: results}
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.Wrap(apperrors.KindCanceled, "upload canceled by caller", err)
		}

		results[i].Status = models.UploadInProgress
		transcriptID, err := s.uploadOne(ctx, founderID, f, uploadedBy)
		if err != nil {
			results[i].Status = models.UploadFailed
			results[i].Error = uploadErrorMessage(err)
			resp.Failed++
			s.logger.Warn("Transcript upload failed",
				zap.String("founder_id", founderID.String()),
				zap.String("file_name", f.FileName),
				zap.Error(err),
			)
			continue
		}

		results[i].Status = models.UploadSucceeded
		results[i].TranscriptID = &transcriptID
		resp.Succeeded++
		s.indexer.Enqueue(transcriptID)
	}

	switch {
	case resp.Failed == 0:
		resp.Outcome = models.OutcomeSuccess
	case resp.Succeeded > 0:
		resp.Outcome = models.OutcomePartialSuccess
	default:
		resp.Outcome = models.OutcomeFailed
	}

	s.logger.Info("Transcript batch processed",
		zap.String("founder_id", founderID.String()),
		zap.String("outcome", string(resp.Outcome)),
		zap.Int("succeeded", resp.Succeeded),
		zap.Int("failed", resp.Failed),
	)
	return resp, nil
}

func (s *transcriptService) uploadOne(ctx context.Context, founderID uuid.UUID, f UploadFile, uploadedBy string) (uuid.UUID, error) {
	if f.ReadErr != nil {
		return uuid.Nil, f.ReadErr
	}
	if int64(len(f.Data)) > s.maxFileSize {
		return uuid.Nil, apperrors.Newf(apperrors.KindValidation, "file exceeds the %d byte limit", s.maxFileSize)
	}

	text, err := s.extractor.Extract(f.FileName, f.Data)
	if err != nil {
		return uuid.Nil, err
	}

	storedName, err := s.storage.SaveFile(f.FileName, f.Data)
	if err != nil {
		return uuid.Nil, err
	}

	fileName := f.FileName
	transcript := &models.InterviewTranscript{
		FounderID: founderID,
		RawText:   text,
		FileURL:   &storedName,
		FileName:  &fileName,
	}
	if uploadedBy != "" {
		transcript.UploadedBy = &uploadedBy
	}

	if err := s.transcriptRepo.Create(ctx, transcript); err != nil {
		if delErr := s.storage.DeleteFile(storedName); delErr != nil {
			s.logger.Warn("Failed to remove orphaned upload", zap.String("file", storedName), zap.Error(delErr))
		}
		return uuid.Nil, err
	}

	// the transcript is stored; a stale interview status must not report it as failed
	if err := s.founderRepo.UpdateInterviewStatus(ctx, founderID, models.InterviewCompleted); err != nil {
		s.logger.Warn("Failed to mark interview completed",
			zap.String("founder_id", founderID.String()),
			zap.String("transcript_id", transcript.ID.String()),
			zap.Error(err),
		)
	}

	return transcript.ID, nil
}

// uploadErrorMessage exposes validation messages and hides internal details.
func uploadErrorMessage(err error) string {
	if appErr, ok := apperrors.As(err); ok && appErr.Kind == apperrors.KindValidation {
		return appErr.Message
	}
	return "failed to store transcript"
}

func (s *transcriptService) List(ctx context.Context, founderID uuid.UUID) ([]models.InterviewTranscript, error) {
	if _, err := s.founderRepo.FindByID(ctx, founderID); err != nil {
		return nil, err
	}
	return s.transcriptRepo.ListByFounder(ctx, founderID)
}

func (s *transcriptService) Delete(ctx context.Context, founderID, transcriptID uuid.UUID) error {
	transcript, err := s.transcriptRepo.FindByID(ctx, transcriptID)
	if err != nil {
		return err
	}
	if transcript.FounderID != founderID {
		return apperrors.NotFound("transcript")
	}

	if err := s.transcriptRepo.Delete(ctx, transcriptID); err != nil {
		return err
	}

	if transcript.FileURL != nil {
		if err := s.storage.DeleteFile(*transcript.FileURL); err != nil {
			s.logger.Warn("Failed to delete transcript file", zap.String("file", *transcript.FileURL), zap.Error(err))
		}
	}
	if s.store != nil {
		if err := s.store.DeleteTranscript(ctx, transcriptID); err != nil {
			s.logger.Warn("Failed to delete transcript vectors", zap.String("transcript_id", transcriptID.String()), zap.Error(err))
		}
	}
	return nil
}

func (s *transcriptService) Search(ctx context.Context, founderID uuid.UUID, query string, limit int) ([]models.TranscriptSearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.Validation("search query is required", map[string]string{"q": "required"})
	}
	if s.embedder == nil || s.store == nil {
		return nil, apperrors.New(apperrors.KindUpstreamConfig,
			"transcript search is not configured; set QDRANT_URL and GEMINI_API_KEY")
	}
	if _, err := s.founderRepo.FindByID(ctx, founderID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	embedding, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := s.store.SearchFounder(ctx, embedding, founderID, limit)
	if err != nil {
		return nil, apperrors.ClassifyUpstream(err, 0)
	}

	hits := make([]models.TranscriptSearchHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, models.TranscriptSearchHit{
			TranscriptID: r.TranscriptID,
			Score:        r.Score,
			Text:         r.Text,
		})
	}
	return hits, nil
}
