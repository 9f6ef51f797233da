package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SurveyQuestion struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Version       int       `gorm:"not null;index" json:"version"`
	Dimension     string    `gorm:"type:text;not null" json:"dimension"`
	QuestionText  string    `gorm:"type:text;not null" json:"question_text"`
	QuestionOrder int       `gorm:"not null" json:"question_order"`
	Active        bool      `gorm:"not null" json:"active"`
	CreatedAt     time.Time `json:"created_at"`
}

func (SurveyQuestion) TableName() string {
	return "survey_questions"
}

func (q *SurveyQuestion) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// SurveyResponse is unique per (founder, question); later saves overwrite the value.
type SurveyResponse struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FounderID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_survey_responses_founder_question" json:"founder_id"`
	QuestionID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_survey_responses_founder_question" json:"question_id"`
	ResponseValue int       `gorm:"not null" json:"response_value"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

func (SurveyResponse) TableName() string {
	return "survey_responses"
}

func (r *SurveyResponse) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
