package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DiagnosticReport is insert-only; a regenerated report is a new row.
type DiagnosticReport struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	StartupID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"startup_id"`
	AnalysisJSON     datatypes.JSON `gorm:"not null" json:"analysis_json"`
	ExecutiveSummary string         `gorm:"type:text;not null" json:"executive_summary"`
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`
	CreatedBy        *string        `gorm:"type:text" json:"created_by"`
}

func (DiagnosticReport) TableName() string {
	return "diagnostic_reports"
}

func (r *DiagnosticReport) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
