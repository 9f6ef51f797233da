package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"alfredoptarigan/team-diagnostic/internal/apperrors"
	"alfredoptarigan/team-diagnostic/internal/models"
)

// ResponseRow is a survey response joined with its question and founder.
type ResponseRow struct {
	FounderID     uuid.UUID
	FounderName   string
	QuestionID    uuid.UUID
	Dimension     string
	QuestionText  string
	ResponseValue int
}

type SurveyRepository interface {
	// CurrentQuestions returns the active questions of the greatest version that has any.
	CurrentQuestions(ctx context.Context) ([]models.SurveyQuestion, error)
	// PublishQuestionSet inserts a new version and deactivates every older question.
	PublishQuestionSet(ctx context.Context, questions []models.SurveyQuestion) (int, error)
	// UpsertResponses stores answers while the founder's survey is still open under token.
	UpsertResponses(ctx context.Context, founderID, token uuid.UUID, answers []models.SurveyAnswer, now time.Time) error
	// CompleteSurvey upserts the answers, checks that every question in required has a
	// response, and marks the founder completed, all in one transaction. Like
	// UpsertResponses it fails once the survey is completed or the token expired.
	CompleteSurvey(ctx context.Context, founderID, token uuid.UUID, answers []models.SurveyAnswer, required []uuid.UUID, completedAt time.Time) error
	ListByFounder(ctx context.Context, founderID uuid.UUID) ([]models.SurveyResponse, error)
	ListRowsForFounders(ctx context.Context, founderIDs []uuid.UUID) ([]ResponseRow, error)
}

type surveyRepository struct {
	db *gorm.DB
}

func NewSurveyRepository(db *gorm.DB) SurveyRepository {
	return &surveyRepository{db: db}
}

func (r *surveyRepository) CurrentQuestions(ctx context.Context) ([]models.SurveyQuestion, error) {
	var version int
	err := r.db.WithContext(ctx).Model(&models.SurveyQuestion{}).
		Where("active = ?", true).
		Select("COALESCE(MAX(version), 0)").
		Scan(&version).Error
	if err != nil {
		return nil, fmt.Errorf("failed to resolve question version: %w", err)
	}

	var questions []models.SurveyQuestion
	if version == 0 {
		return questions, nil
	}

	err = r.db.WithContext(ctx).
		Where("version = ? AND active = ?", version, true).
		Order("question_order ASC").
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, nil
}

func (r *surveyRepository) PublishQuestionSet(ctx context.Context, questions []models.SurveyQuestion) (int, error) {
	if len(questions) == 0 {
		return 0, apperrors.Validation("question set is empty", nil)
	}

	var version int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current int
		if err := tx.Model(&models.SurveyQuestion{}).Select("COALESCE(MAX(version), 0)").Scan(&current).Error; err != nil {
			return fmt.Errorf("failed to resolve question version: %w", err)
		}
		version = current + 1

		if err := tx.Model(&models.SurveyQuestion{}).
			Where("version < ? AND active = ?", version, true).
			Update("active", false).Error; err != nil {
			return fmt.Errorf("failed to deactivate old questions: %w", err)
		}

		for i := range questions {
			questions[i].ID = uuid.Nil
			questions[i].Version = version
			questions[i].Active = true
		}
		if err := tx.Create(&questions).Error; err != nil {
			return fmt.Errorf("failed to insert questions: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return version, nil
}

// ErrSurveyTokenExpired and ErrSurveyTokenUsed are the rejections of a token that no
// longer accepts answers.
func ErrSurveyTokenExpired() *apperrors.Error {
	return apperrors.New(apperrors.KindTokenExpired, "this survey link has expired; ask the fund for a new one")
}

func ErrSurveyTokenUsed() *apperrors.Error {
	return apperrors.New(apperrors.KindTokenUsed, "this survey has already been submitted")
}

func (r *surveyRepository) UpsertResponses(ctx context.Context, founderID, token uuid.UUID, answers []models.SurveyAnswer, now time.Time) error {
	if len(answers) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := claimOpenSurvey(tx, founderID, token, now); err != nil {
			return err
		}
		return upsertResponses(tx, founderID, answers)
	})
}

// claimOpenSurvey locks the founder row for the rest of the transaction and fails
// unless the survey is still open under token. A write that committed between the
// caller's token lookup and this point is seen here.
func claimOpenSurvey(tx *gorm.DB, founderID, token uuid.UUID, now time.Time) error {
	result := tx.Model(&models.Founder{}).
		Where("id = ? AND survey_token = ? AND survey_status <> ?", founderID, token, models.SurveyCompleted).
		Update("updated_at", now)
	if result.Error != nil {
		return fmt.Errorf("failed to lock founder survey: %w", result.Error)
	}

	var founder models.Founder
	if err := tx.Where("id = ? AND survey_token = ?", founderID, token).First(&founder).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("survey token")
		}
		return fmt.Errorf("failed to load founder survey: %w", err)
	}
	if result.RowsAffected == 0 || founder.SurveyStatus == models.SurveyCompleted {
		return ErrSurveyTokenUsed()
	}
	if founder.TokenExpired(now) {
		return ErrSurveyTokenExpired()
	}
	return nil
}

func upsertResponses(db *gorm.DB, founderID uuid.UUID, answers []models.SurveyAnswer) error {
	if len(answers) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([]models.SurveyResponse, 0, len(answers))
	for _, a := range answers {
		rows = append(rows, models.SurveyResponse{
			FounderID:     founderID,
			QuestionID:    a.QuestionID,
			ResponseValue: a.ResponseValue,
			SubmittedAt:   now,
		})
	}

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "founder_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"response_value", "submitted_at"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to save survey responses: %w", err)
	}
	return nil
}

func (r *surveyRepository) CompleteSurvey(ctx context.Context, founderID, token uuid.UUID, answers []models.SurveyAnswer, required []uuid.UUID, completedAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := claimOpenSurvey(tx, founderID, token, completedAt); err != nil {
			return err
		}
		if err := upsertResponses(tx, founderID, answers); err != nil {
			return err
		}

		if len(required) > 0 {
			var answered int64
			if err := tx.Model(&models.SurveyResponse{}).
				Where("founder_id = ? AND question_id IN ?", founderID, required).
				Count(&answered).Error; err != nil {
				return fmt.Errorf("failed to count survey responses: %w", err)
			}
			if answered < int64(len(required)) {
				return apperrors.Newf(apperrors.KindValidation,
					"survey incomplete: %d of %d questions answered", answered, len(required))
			}
		}

		result := tx.Model(&models.Founder{}).
			Where("id = ? AND survey_status <> ?", founderID, models.SurveyCompleted).
			Updates(map[string]interface{}{
				"survey_status":       models.SurveyCompleted,
				"survey_completed_at": completedAt,
				"updated_at":          completedAt,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to complete survey: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.NotFound("founder")
		}
		return nil
	})
}

func (r *surveyRepository) ListByFounder(ctx context.Context, founderID uuid.UUID) ([]models.SurveyResponse, error) {
	var responses []models.SurveyResponse
	if err := r.db.WithContext(ctx).Where("founder_id = ?", founderID).Find(&responses).Error; err != nil {
		return nil, fmt.Errorf("failed to list survey responses: %w", err)
	}
	return responses, nil
}

func (r *surveyRepository) ListRowsForFounders(ctx context.Context, founderIDs []uuid.UUID) ([]ResponseRow, error) {
	var rows []ResponseRow
	if len(founderIDs) == 0 {
		return rows, nil
	}

	err := r.db.WithContext(ctx).
		Table("survey_responses AS r").
		Select(`r.founder_id AS founder_id, f.full_name AS founder_name, r.question_id AS question_id,
			q.dimension AS dimension, q.question_text AS question_text, r.response_value AS response_value`).
		Joins("JOIN survey_questions AS q ON q.id = r.question_id").
		Joins("JOIN founders AS f ON f.id = r.founder_id").
		Where("r.founder_id IN ?", founderIDs).
		Order("f.created_at ASC, q.question_order ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list survey responses: %w", err)
	}
	return rows, nil
}
