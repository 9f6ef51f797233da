package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/team-diagnostic/internal/models"
	"alfredoptarigan/team-diagnostic/internal/repositories"
	"alfredoptarigan/team-diagnostic/internal/testhelpers"
)

func TestStatsService_Dashboard(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	ctx := context.Background()

	acme := testhelpers.CreateStartup(t, db, "Acme")
	testhelpers.CreateStartup(t, db, "Beta")
	alice := testhelpers.CreateFounder(t, db, acme.ID, "alice")
	bob := testhelpers.CreateFounder(t, db, acme.ID, "bob")
	testhelpers.CreateFounder(t, db, acme.ID, "carol")

	require.NoError(t, db.Model(alice).Updates(map[string]any{
		"survey_status":    models.SurveyCompleted,
		"interview_status": models.InterviewCompleted,
	}).Error)
	require.NoError(t, db.Model(bob).Update("survey_status", models.SurveySent).Error)
	require.NoError(t, db.Create(&models.DiagnosticReport{
		StartupID:        acme.ID,
		AnalysisJSON:     []byte(`{}`),
		ExecutiveSummary: "Strong but concentrated.",
	}).Error)

	svc := NewStatsService(
		repositories.NewStartupRepository(db),
		repositories.NewFounderRepository(db),
		repositories.NewReportRepository(db),
	)
	stats, err := svc.Dashboard(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 2, stats.Startups)
	assert.EqualValues(t, 3, stats.Founders)
	assert.EqualValues(t, 1, stats.FoundersBySurvey[models.SurveyPending])
	assert.EqualValues(t, 1, stats.FoundersBySurvey[models.SurveySent])
	assert.EqualValues(t, 1, stats.FoundersBySurvey[models.SurveyCompleted])
	assert.EqualValues(t, 1, stats.CompletedInterviews)
	assert.EqualValues(t, 1, stats.Reports)
}
