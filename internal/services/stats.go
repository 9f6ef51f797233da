package services

import (
	"context"

	"alfredoptarigan/team-diagnostic/internal/models"
	"alfredoptarigan/team-diagnostic/internal/repositories"
)

type StatsService interface {
	Dashboard(ctx context.Context) (*models.DashboardStats, error)
}

type statsService struct {
	startupRepo repositories.StartupRepository
	founderRepo repositories.FounderRepository
	reportRepo  repositories.ReportRepository
}

func NewStatsService(
	startupRepo repositories.StartupRepository,
	founderRepo repositories.FounderRepository,
	reportRepo repositories.ReportRepository,
) StatsService {
	return &statsService{
		startupRepo: startupRepo,
		founderRepo: founderRepo,
		reportRepo:  reportRepo,
	}
}

func (s *statsService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	startups, err := s.startupRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	bySurvey, err := s.founderRepo.CountBySurveyStatus(ctx)
	if err != nil {
		return nil, err
	}
	var founders int64
	for _, n := range bySurvey {
		founders += n
	}

	interviews, err := s.founderRepo.CountByInterviewStatus(ctx, models.InterviewCompleted)
	if err != nil {
		return nil, err
	}

	reports, err := s.reportRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &models.DashboardStats{
		Startups:            startups,
		Founders:            founders,
		FoundersBySurvey:    bySurvey,
		CompletedInterviews: interviews,
		Reports:             reports,
	}, nil
}
