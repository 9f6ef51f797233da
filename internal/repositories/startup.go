package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"alfredoptarigan/team-diagnostic/internal/apperrors"
	"alfredoptarigan/team-diagnostic/internal/models"
)

type StartupRepository interface {
	Create(ctx context.Context, startup *models.Startup) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Startup, error)
	FindWithFounders(ctx context.Context, id uuid.UUID) (*models.Startup, error)
	FindByPipedriveDealID(ctx context.Context, dealID int64) (*models.Startup, error)
	List(ctx context.Context) ([]models.Startup, error)
	Update(ctx context.Context, startup *models.Startup) error
	// Delete removes the startup with its founders, survey responses, transcripts and
	// reports in one transaction. It returns the stored file references of the deleted
	// transcripts so the caller can remove the blobs.
	Delete(ctx context.Context, id uuid.UUID) ([]string, error)
	Count(ctx context.Context) (int64, error)
}

type startupRepository struct {
	db *gorm.DB
}

func NewStartupRepository(db *gorm.DB) StartupRepository {
	return &startupRepository{db: db}
}

func (r *startupRepository) Create(ctx context.Context, startup *models.Startup) error {
	return translate(r.db.WithContext(ctx).Create(startup).Error, "startup", "create")
}

func (r *startupRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Startup, error) {
	var startup models.Startup
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&startup).Error; err != nil {
		return nil, translate(err, "startup", "find")
	}
	return &startup, nil
}

func (r *startupRepository) FindWithFounders(ctx context.Context, id uuid.UUID) (*models.Startup, error) {
	var startup models.Startup
	err := r.db.WithContext(ctx).
		Preload("Founders", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&startup).Error
	if err != nil {
		return nil, translate(err, "startup", "find")
	}
	return &startup, nil
}

func (r *startupRepository) FindByPipedriveDealID(ctx context.Context, dealID int64) (*models.Startup, error) {
	var startup models.Startup
	if err := r.db.WithContext(ctx).Where("pipedrive_deal_id = ?", dealID).First(&startup).Error; err != nil {
		return nil, translate(err, "startup", "find")
	}
	return &startup, nil
}

func (r *startupRepository) List(ctx context.Context) ([]models.Startup, error) {
	var startups []models.Startup
	err := r.db.WithContext(ctx).
		Preload("Founders", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Order("created_at DESC").
		Find(&startups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list startups: %w", err)
	}
	return startups, nil
}

func (r *startupRepository) Update(ctx context.Context, startup *models.Startup) error {
	result := r.db.WithContext(ctx).Model(startup).Select("*").Omit("id", "created_at", clause.Associations).Updates(startup)
	if result.Error != nil {
		return fmt.Errorf("failed to update startup: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("startup")
	}
	return nil
}

func (r *startupRepository) Delete(ctx context.Context, id uuid.UUID) ([]string, error) {
	var fileURLs []string

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var startup models.Startup
		if err := tx.Select("id").Where("id = ?", id).First(&startup).Error; err != nil {
			return translate(err, "startup", "find")
		}

		founderIDs := tx.Model(&models.Founder{}).Select("id").Where("startup_id = ?", id)

		if err := tx.Model(&models.InterviewTranscript{}).
			Where("founder_id IN (?) AND file_url IS NOT NULL", founderIDs).
			Pluck("file_url", &fileURLs).Error; err != nil {
			return fmt.Errorf("failed to collect transcript files: %w", err)
		}

		if err := tx.Where("startup_id = ?", id).Delete(&models.DiagnosticReport{}).Error; err != nil {
			return fmt.Errorf("failed to delete reports: %w", err)
		}
		if err := tx.Where("founder_id IN (?)", founderIDs).Delete(&models.InterviewTranscript{}).Error; err != nil {
			return fmt.Errorf("failed to delete transcripts: %w", err)
		}
		if err := tx.Where("founder_id IN (?)", founderIDs).Delete(&models.SurveyResponse{}).Error; err != nil {
			return fmt.Errorf("failed to delete survey responses: %w", err)
		}
		if err := tx.Where("startup_id = ?", id).Delete(&models.Founder{}).Error; err != nil {
			return fmt.Errorf("failed to delete founders: %w", err)
		}
		if err := tx.Where("id = ?", id).Delete(&models.Startup{}).Error; err != nil {
			return fmt.Errorf("failed to delete startup: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return fileURLs, nil
}

func (r *startupRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Startup{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count startups: %w", err)
	}
	return n, nil
}
