package models

import (
	"time"

	"github.com/google/uuid"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type StartupRequest struct {
	CompanyName               string   `json:"company_name" validate:"required,min=1"`
	Industry                  *string  `json:"industry"`
	Stage                     *string  `json:"stage"`
	Geography                 *string  `json:"geography"`
	RaiseAmount               *float64 `json:"raise_amount" validate:"omitempty,gt=0"`
	PlannedCloseDate          *string  `json:"planned_close_date" validate:"omitempty,datetime=2006-01-02"`
	BoardStructureDescription *string  `json:"board_structure_description"`
	DealPartner               *string  `json:"deal_partner"`
}

type ImportDealRequest struct {
	DealID     int64  `json:"deal_id" validate:"required,gt=0"`
	PipelineID *int64 `json:"pipeline_id"`
	StageID    *int64 `json:"stage_id"`
}

// FounderRequest uses pointers for the booleans so an omitted field takes its
// default rather than false.
type FounderRequest struct {
	FullName                 string   `json:"full_name" validate:"required,min=1"`
	Role                     *string  `json:"role"`
	Email                    string   `json:"email" validate:"required,email"`
	EquityPercentage         *float64 `json:"equity_percentage" validate:"omitempty,min=0,max=100"`
	FullTimeStatus           *bool    `json:"full_time_status"`
	YearsKnownCofounders     *int     `json:"years_known_cofounders" validate:"omitempty,min=0"`
	PriorStartupExperience   *bool    `json:"prior_startup_experience"`
	PreviouslyWorkedTogether *bool    `json:"previously_worked_together"`
	IsCEO                    *bool    `json:"is_ceo"`
}

type SurveyAnswer struct {
	QuestionID    uuid.UUID `json:"question_id" validate:"required"`
	ResponseValue int       `json:"response_value" validate:"required,min=1,max=10"`
}

type SurveySaveRequest struct {
	Responses []SurveyAnswer `json:"responses" validate:"required,min=1,dive"`
	Submit    bool           `json:"submit"`
}

type SurveyView struct {
	FounderID    uuid.UUID        `json:"founder_id"`
	FounderName  string           `json:"founder_name"`
	CompanyName  string           `json:"company_name"`
	SurveyStatus SurveyStatus     `json:"survey_status"`
	ExpiresAt    *time.Time       `json:"expires_at"`
	Questions    []SurveyQuestion `json:"questions"`
	Responses    []SurveyResponse `json:"responses"`
}

type SurveyLinkResponse struct {
	FounderID uuid.UUID  `json:"founder_id"`
	SurveyURL string     `json:"survey_url"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type FounderDimensionScores struct {
	FounderID   uuid.UUID          `json:"founder_id"`
	FounderName string             `json:"founder_name"`
	Dimensions  map[string]float64 `json:"dimensions"`
}

type SurveyComparison struct {
	Founders   []FounderDimensionScores `json:"founders"`
	Dimensions []string                 `json:"dimensions"`
}

type UploadStatus string

const (
	UploadPending    UploadStatus = "pending"
	UploadInProgress UploadStatus = "in_progress"
	UploadSucceeded  UploadStatus = "succeeded"
	UploadFailed     UploadStatus = "failed"
)

type UploadOutcome string

const (
	OutcomeSuccess        UploadOutcome = "success"
	OutcomePartialSuccess UploadOutcome = "partial_success"
	OutcomeFailed         UploadOutcome = "failed"
)

type UploadItemResult struct {
	FileName     string       `json:"file_name"`
	Status       UploadStatus `json:"status"`
	TranscriptID *uuid.UUID   `json:"transcript_id,omitempty"`
	Error        string       `json:"error,omitempty"`
}

type UploadBatchResponse struct {
	Outcome   UploadOutcome      `json:"outcome"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	Results   []UploadItemResult `json:"results"`
}

type PromptPreview struct {
	SystemPrompt string `json:"system_prompt"`
	UserPrompt   string `json:"user_prompt"`
	Founders     int    `json:"founders"`
	Responses    int    `json:"survey_responses"`
	Transcripts  int    `json:"interview_transcripts"`
}

type TranscriptSearchHit struct {
	TranscriptID string  `json:"transcript_id"`
	Score        float32 `json:"score"`
	Text         string  `json:"text"`
}

type DashboardStats struct {
	Startups            int64                  `json:"startups"`
	Founders            int64                  `json:"founders"`
	FoundersBySurvey    map[SurveyStatus]int64 `json:"founders_by_survey_status"`
	CompletedInterviews int64                  `json:"completed_interviews"`
	Reports             int64                  `json:"reports"`
}
