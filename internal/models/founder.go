package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SurveyStatus string

const (
	SurveyPending   SurveyStatus = "pending"
	SurveySent      SurveyStatus = "sent"
	SurveyCompleted SurveyStatus = "completed"
)

type InterviewStatus string

const (
	InterviewPending   InterviewStatus = "pending"
	InterviewCompleted InterviewStatus = "completed"
)

type Founder struct {
	ID                       uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	StartupID                uuid.UUID       `gorm:"type:uuid;not null;index" json:"startup_id"`
	FullName                 string          `gorm:"type:text;not null" json:"full_name"`
	Role                     *string         `gorm:"type:text" json:"role"`
	Email                    string          `gorm:"type:text;not null" json:"email"`
	EquityPercentage         *float64        `gorm:"type:numeric(5,2)" json:"equity_percentage"`
	FullTimeStatus           bool            `gorm:"not null" json:"full_time_status"`
	YearsKnownCofounders     *int            `json:"years_known_cofounders"`
	PriorStartupExperience   bool            `gorm:"not null" json:"prior_startup_experience"`
	PreviouslyWorkedTogether bool            `gorm:"not null" json:"previously_worked_together"`
	IsCEO                    bool            `gorm:"column:is_ceo;not null" json:"is_ceo"`
	SurveyStatus             SurveyStatus    `gorm:"type:text;not null" json:"survey_status"`
	InterviewStatus          InterviewStatus `gorm:"type:text;not null" json:"interview_status"`
	SurveyToken              uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"survey_token"`
	SurveyTokenExpiresAt     *time.Time      `json:"survey_token_expires_at"`
	SurveyCompletedAt        *time.Time      `json:"survey_completed_at"`
	CreatedAt                time.Time       `json:"created_at"`
	UpdatedAt                time.Time       `json:"updated_at"`
}

func (Founder) TableName() string {
	return "founders"
}

// BeforeCreate assigns the identifiers and initial statuses. The survey token is a
// random v4 UUID owned by exactly one founder.
func (f *Founder) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.SurveyToken == uuid.Nil {
		f.SurveyToken = uuid.New()
	}
	if f.SurveyStatus == "" {
		f.SurveyStatus = SurveyPending
	}
	if f.InterviewStatus == "" {
		f.InterviewStatus = InterviewPending
	}
	return nil
}

// TokenExpired reports whether the survey link has passed its expiry at now.
func (f *Founder) TokenExpired(now time.Time) bool {
	return f.SurveyTokenExpiresAt != nil && now.After(*f.SurveyTokenExpiresAt)
}
