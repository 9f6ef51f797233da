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

type FounderRepository interface {
	Create(ctx context.Context, founder *models.Founder) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Founder, error)
	FindByToken(ctx context.Context, token uuid.UUID) (*models.Founder, error)
	ListByStartup(ctx context.Context, startupID uuid.UUID) ([]models.Founder, error)
	Update(ctx context.Context, founder *models.Founder) error
	// Delete removes the founder with its survey responses and transcripts and returns
	// the stored file references of the deleted transcripts.
	Delete(ctx context.Context, id uuid.UUID) ([]string, error)
	MarkSurveySent(ctx context.Context, id uuid.UUID, expiresAt time.Time) (*models.Founder, error)
	// ResetSurvey deletes every response of the founder and issues a fresh token.
	ResetSurvey(ctx context.Context, id uuid.UUID, token uuid.UUID, expiresAt time.Time) (*models.Founder, error)
	UpdateInterviewStatus(ctx context.Context, id uuid.UUID, status models.InterviewStatus) error
	CountBySurveyStatus(ctx context.Context) (map[models.SurveyStatus]int64, error)
	CountByInterviewStatus(ctx context.Context, status models.InterviewStatus) (int64, error)
}

type founderRepository struct {
	db *gorm.DB
}

func NewFounderRepository(db *gorm.DB) FounderRepository {
	return &founderRepository{db: db}
}

func (r *founderRepository) Create(ctx context.Context, founder *models.Founder) error {
	if err := r.db.WithContext(ctx).Create(founder).Error; err != nil {
		return fmt.Errorf("failed to create founder: %w", err)
	}
	return nil
}

func (r *founderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Founder, error) {
	var founder models.Founder
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&founder).Error; err != nil {
		return nil, translate(err, "founder", "find")
	}
	return &founder, nil
}

func (r *founderRepository) FindByToken(ctx context.Context, token uuid.UUID) (*models.Founder, error) {
	var founder models.Founder
	if err := r.db.WithContext(ctx).Where("survey_token = ?", token).First(&founder).Error; err != nil {
		return nil, translate(err, "survey token", "find")
	}
	return &founder, nil
}

func (r *founderRepository) ListByStartup(ctx context.Context, startupID uuid.UUID) ([]models.Founder, error) {
	var founders []models.Founder
	err := r.db.WithContext(ctx).
		Where("startup_id = ?", startupID).
		Order("created_at ASC").
		Find(&founders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list founders: %w", err)
	}
	return founders, nil
}

// Update writes the editable profile fields. Statuses and the token are owned by the
// survey and transcript flows and are left untouched.
func (r *founderRepository) Update(ctx context.Context, founder *models.Founder) error {
	result := r.db.WithContext(ctx).Model(founder).
		Select(
			"full_name", "role", "email", "equity_percentage", "full_time_status",
			"years_known_cofounders", "prior_startup_experience", "previously_worked_together",
			"is_ceo", "updated_at",
		).
		Updates(founder)
	if result.Error != nil {
		return fmt.Errorf("failed to update founder: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("founder")
	}
	return nil
}

func (r *founderRepository) Delete(ctx context.Context, id uuid.UUID) ([]string, error) {
	var fileURLs []string

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.InterviewTranscript{}).
			Where("founder_id = ? AND file_url IS NOT NULL", id).
			Pluck("file_url", &fileURLs).Error; err != nil {
			return fmt.Errorf("failed to collect transcript files: %w", err)
		}
		if err := tx.Where("founder_id = ?", id).Delete(&models.InterviewTranscript{}).Error; err != nil {
			return fmt.Errorf("failed to delete transcripts: %w", err)
		}
		if err := tx.Where("founder_id = ?", id).Delete(&models.SurveyResponse{}).Error; err != nil {
			return fmt.Errorf("failed to delete survey responses: %w", err)
		}

		result := tx.Where("id = ?", id).Delete(&models.Founder{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete founder: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.NotFound("founder")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fileURLs, nil
}

func (r *founderRepository) MarkSurveySent(ctx context.Context, id uuid.UUID, expiresAt time.Time) (*models.Founder, error) {
	var founder models.Founder

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&founder).Error; err != nil {
			return translate(err, "founder", "find")
		}

		updates := map[string]interface{}{
			"survey_token_expires_at": expiresAt,
			"updated_at":              time.Now(),
		}
		// a completed survey keeps its status; re-sending only extends the link
		if founder.SurveyStatus != models.SurveyCompleted {
			updates["survey_status"] = models.SurveySent
		}

		if err := tx.Model(&models.Founder{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to mark survey sent: %w", err)
		}
		return tx.Where("id = ?", id).First(&founder).Error
	})
	if err != nil {
		return nil, err
	}
	return &founder, nil
}

func (r *founderRepository) ResetSurvey(ctx context.Context, id uuid.UUID, token uuid.UUID, expiresAt time.Time) (*models.Founder, error) {
	var founder models.Founder

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&founder).Error; err != nil {
			return translate(err, "founder", "find")
		}
		if err := tx.Where("founder_id = ?", id).Delete(&models.SurveyResponse{}).Error; err != nil {
			return fmt.Errorf("failed to delete survey responses: %w", err)
		}

		updates := map[string]interface{}{
			"survey_token":            token,
			"survey_token_expires_at": expiresAt,
			"survey_status":           models.SurveySent,
			"survey_completed_at":     nil,
			"updated_at":              time.Now(),
		}
		if err := tx.Model(&models.Founder{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to reset survey: %w", err)
		}
		return tx.Where("id = ?", id).First(&founder).Error
	})
	if err != nil {
		return nil, err
	}
	return &founder, nil
}

func (r *founderRepository) UpdateInterviewStatus(ctx context.Context, id uuid.UUID, status models.InterviewStatus) error {
	result := r.db.WithContext(ctx).Model(&models.Founder{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"interview_status": status,
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update interview status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("founder")
	}
	return nil
}

func (r *founderRepository) CountBySurveyStatus(ctx context.Context) (map[models.SurveyStatus]int64, error) {
	var rows []struct {
		SurveyStatus models.SurveyStatus
		Count        int64
	}
	err := r.db.WithContext(ctx).Model(&models.Founder{}).
		Select("survey_status, COUNT(*) AS count").
		Group("survey_status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count founders: %w", err)
	}

	counts := map[models.SurveyStatus]int64{
		models.SurveyPending:   0,
		models.SurveySent:      0,
		models.SurveyCompleted: 0,
	}
	for _, row := range rows {
		counts[row.SurveyStatus] = row.Count
	}
	return counts, nil
}

func (r *founderRepository) CountByInterviewStatus(ctx context.Context, status models.InterviewStatus) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Founder{}).Where("interview_status = ?", status).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count founders: %w", err)
	}
	return n, nil
}
