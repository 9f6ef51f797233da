package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InterviewTranscript struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FounderID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"founder_id"`
	RawText    string     `gorm:"type:text;not null" json:"raw_text"`
	FileURL    *string    `gorm:"type:text" json:"file_url"`
	FileName   *string    `gorm:"type:text" json:"file_name"`
	UploadedAt time.Time  `gorm:"autoCreateTime" json:"uploaded_at"`
	UploadedBy *string    `gorm:"type:text" json:"uploaded_by"`
	IndexedAt  *time.Time `json:"indexed_at"`
}

func (InterviewTranscript) TableName() string {
	return "interview_transcripts"
}

func (t *InterviewTranscript) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
