package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/team-diagnostic/internal/models"
)

// ReportRepository is append-only: reports are never updated after insert.
type ReportRepository interface {
	Create(ctx context.Context, report *models.DiagnosticReport) error
	FindLatestByStartup(ctx context.Context, startupID uuid.UUID) (*models.DiagnosticReport, error)
	ListByStartup(ctx context.Context, startupID uuid.UUID) ([]models.DiagnosticReport, error)
	Count(ctx context.Context) (int64, error)
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *models.DiagnosticReport) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

func (r *reportRepository) FindLatestByStartup(ctx context.Context, startupID uuid.UUID) (*models.DiagnosticReport, error) {
	var report models.DiagnosticReport
	err := r.db.WithContext(ctx).
		Where("startup_id = ?", startupID).
		Order("created_at DESC").
		First(&report).Error
	if err != nil {
		return nil, translate(err, "report", "find")
	}
	return &report, nil
}

func (r *reportRepository) ListByStartup(ctx context.Context, startupID uuid.UUID) ([]models.DiagnosticReport, error) {
	var reports []models.DiagnosticReport
	err := r.db.WithContext(ctx).
		Where("startup_id = ?", startupID).
		Order("created_at DESC").
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

func (r *reportRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.DiagnosticReport{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return n, nil
}
