package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/team-diagnostic/internal/apperrors"
	"alfredoptarigan/team-diagnostic/internal/models"
)

// TranscriptRow is a transcript joined with its founder.
type TranscriptRow struct {
	ID          uuid.UUID
	FounderID   uuid.UUID
	FounderName string
	StartupID   uuid.UUID
	RawText     string
}

type TranscriptRepository interface {
	Create(ctx context.Context, transcript *models.InterviewTranscript) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.InterviewTranscript, error)
	ListByFounder(ctx context.Context, founderID uuid.UUID) ([]models.InterviewTranscript, error)
	ListRowsForFounders(ctx context.Context, founderIDs []uuid.UUID) ([]TranscriptRow, error)
	FindRow(ctx context.Context, id uuid.UUID) (*TranscriptRow, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindUnindexed(ctx context.Context, limit int) ([]models.InterviewTranscript, error)
	MarkIndexed(ctx context.Context, id uuid.UUID, at time.Time) error
}

type transcriptRepository struct {
	db *gorm.DB
}

func NewTranscriptRepository(db *gorm.DB) TranscriptRepository {
	return &transcriptRepository{db: db}
}

func (r *transcriptRepository) Create(ctx context.Context, transcript *models.InterviewTranscript) error {
	if err := r.db.WithContext(ctx).Create(transcript).Error; err != nil {
		return fmt.Errorf("failed to create transcript: %w", err)
	}
	return nil
}

func (r *transcriptRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.InterviewTranscript, error) {
	var transcript models.InterviewTranscript
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&transcript).Error; err != nil {
		return nil, translate(err, "transcript", "find")
	}
	return &transcript, nil
}

func (r *transcriptRepository) ListByFounder(ctx context.Context, founderID uuid.UUID) ([]models.InterviewTranscript, error) {
	var transcripts []models.InterviewTranscript
	err := r.db.WithContext(ctx).
		Where("founder_id = ?", founderID).
		Order("uploaded_at DESC").
		Find(&transcripts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}
	return transcripts, nil
}

func (r *transcriptRepository) rowQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("interview_transcripts AS t").
		Select("t.id AS id, t.founder_id AS founder_id, f.full_name AS founder_name, f.startup_id AS startup_id, t.raw_text AS raw_text").
		Joins("JOIN founders AS f ON f.id = t.founder_id")
}

func (r *transcriptRepository) ListRowsForFounders(ctx context.Context, founderIDs []uuid.UUID) ([]TranscriptRow, error) {
	var rows []TranscriptRow
	if len(founderIDs) == 0 {
		return rows, nil
	}

	err := r.rowQuery(ctx).
		Where("t.founder_id IN ?", founderIDs).
		Order("f.created_at ASC, t.uploaded_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}
	return rows, nil
}

func (r *transcriptRepository) FindRow(ctx context.Context, id uuid.UUID) (*TranscriptRow, error) {
	var rows []TranscriptRow
	if err := r.rowQuery(ctx).Where("t.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find transcript: %w", err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NotFound("transcript")
	}
	return &rows[0], nil
}

func (r *transcriptRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.InterviewTranscript{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete transcript: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("transcript")
	}
	return nil
}

func (r *transcriptRepository) FindUnindexed(ctx context.Context, limit int) ([]models.InterviewTranscript, error) {
	var transcripts []models.InterviewTranscript
	err := r.db.WithContext(ctx).
		Where("indexed_at IS NULL").
		Order("uploaded_at ASC").
		Limit(limit).
		Find(&transcripts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find unindexed transcripts: %w", err)
	}
	return transcripts, nil
}

func (r *transcriptRepository) MarkIndexed(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.InterviewTranscript{}).
		Where("id = ?", id).
		Update("indexed_at", at)
	if result.Error != nil {
		return fmt.Errorf("failed to mark transcript indexed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("transcript")
	}
	return nil
}
