package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Startup struct {
	ID                        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyName               string     `gorm:"type:text;not null" json:"company_name"`
	Industry                  *string    `gorm:"type:text" json:"industry"`
	Stage                     *string    `gorm:"type:text" json:"stage"`
	Geography                 *string    `gorm:"type:text" json:"geography"`
	RaiseAmount               *float64   `gorm:"type:numeric" json:"raise_amount"`
	PlannedCloseDate          *string    `gorm:"type:date" json:"planned_close_date"`
	BoardStructureDescription *string    `gorm:"type:text" json:"board_structure_description"`
	DealPartner               *string    `gorm:"type:text" json:"deal_partner"`
	PipedriveDealID           *int64     `gorm:"uniqueIndex" json:"pipedrive_deal_id"`
	PipedriveOrgID            *int64     `json:"pipedrive_org_id"`
	PipedrivePipelineID       *int64     `json:"pipedrive_pipeline_id"`
	PipedriveStageID          *int64     `json:"pipedrive_stage_id"`
	PipedriveDealCreatedAt    *time.Time `json:"pipedrive_deal_created_at"`
	PipedriveDealUpdatedAt    *time.Time `json:"pipedrive_deal_updated_at"`
	CreatedAt                 time.Time  `json:"created_at"`
	UpdatedAt                 time.Time  `json:"updated_at"`

	// Relations
	Founders []Founder `gorm:"foreignKey:StartupID" json:"founders,omitempty"`
}

func (Startup) TableName() string {
	return "startups"
}

func (s *Startup) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
