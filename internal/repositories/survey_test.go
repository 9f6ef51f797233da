package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/team-diagnostic/internal/apperrors"
	"alfredoptarigan/team-diagnostic/internal/models"
	"alfredoptarigan/team-diagnostic/internal/testhelpers"
)

func TestSurveyRepository_UpsertOverwrites(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	repo := NewSurveyRepository(db)
	ctx := context.Background()

	startup := testhelpers.CreateStartup(t, db, "Acme")
	founder := testhelpers.CreateFounder(t, db, startup.ID, "alice")
	questions := testhelpers.SeedQuestions(t, db, 1, "vision")

	require.NoError(t, repo.UpsertResponses(ctx, founder.ID, founder.SurveyToken, []models.SurveyAnswer{
		{QuestionID: questions[0].ID, ResponseValue: 3},
	}, time.Now()))
	require.NoError(t, repo.UpsertResponses(ctx, founder.ID, founder.SurveyToken, []models.SurveyAnswer{
		{QuestionID: questions[0].ID, ResponseValue: 9},
	}, time.Now()))

	responses, err := repo.ListByFounder(ctx, founder.ID)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, 9, responses[0].ResponseValue)
}

func TestSurveyRepository_CurrentQuestions(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	repo := NewSurveyRepository(db)
	ctx := context.Background()

	none, err := repo.CurrentQuestions(ctx)
	require.NoError(t, err)
	assert.Empty(t, none)

	testhelpers.SeedQuestions(t, db, 1, "vision", "roles")
	version, err := repo.PublishQuestionSet(ctx, []models.SurveyQuestion{
		{Dimension: "commitment", QuestionText: "Second?", QuestionOrder: 2},
		{Dimension: "conflict", QuestionText: "First?", QuestionOrder: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	current, err := repo.CurrentQuestions(ctx)
	require.NoError(t, err)
	require.Len(t, current, 2)
	assert.Equal(t, "conflict", current[0].Dimension)
	assert.Equal(t, "commitment", current[1].Dimension)
	for _, q := range current {
		assert.Equal(t, 2, q.Version)
	}

	var activeOld int64
	require.NoError(t, db.Model(&models.SurveyQuestion{}).Where("version = 1 AND active = ?", true).Count(&activeOld).Error)
	assert.Zero(t, activeOld)
}

func TestSurveyRepository_CompleteSurvey(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	repo := NewSurveyRepository(db)
	ctx := context.Background()

	startup := testhelpers.CreateStartup(t, db, "Acme")
	founder := testhelpers.CreateFounder(t, db, startup.ID, "alice")
	questions := testhelpers.SeedQuestions(t, db, 1, "vision", "roles")
	required := []uuid.UUID{questions[0].ID, questions[1].ID}

	t.Run("incomplete answers are rejected and nothing is persisted", func(t *testing.T) {
		err := repo.CompleteSurvey(ctx, founder.ID, founder.SurveyToken, []models.SurveyAnswer{
			{QuestionID: questions[0].ID, ResponseValue: 5},
		}, required, time.Now())
		assert.True(t, apperrors.Is(err, apperrors.KindValidation))

		responses, err := repo.ListByFounder(ctx, founder.ID)
		require.NoError(t, err)
		assert.Empty(t, responses)
	})

	t.Run("complete answers mark the founder completed", func(t *testing.T) {
		err := repo.CompleteSurvey(ctx, founder.ID, founder.SurveyToken, []models.SurveyAnswer{
			{QuestionID: questions[0].ID, ResponseValue: 5},
			{QuestionID: questions[1].ID, ResponseValue: 6},
		}, required, time.Now())
		require.NoError(t, err)

		var got models.Founder
		require.NoError(t, db.First(&got, "id = ?", founder.ID).Error)
		assert.Equal(t, models.SurveyCompleted, got.SurveyStatus)
		assert.NotNil(t, got.SurveyCompletedAt)
	})

	t.Run("writes after completion are rejected", func(t *testing.T) {
		err := repo.UpsertResponses(ctx, founder.ID, founder.SurveyToken, []models.SurveyAnswer{
			{QuestionID: questions[0].ID, ResponseValue: 1},
		}, time.Now())
		assert.True(t, apperrors.Is(err, apperrors.KindTokenUsed))

		err = repo.CompleteSurvey(ctx, founder.ID, founder.SurveyToken, []models.SurveyAnswer{
			{QuestionID: questions[0].ID, ResponseValue: 1},
			{QuestionID: questions[1].ID, ResponseValue: 1},
		}, required, time.Now())
		assert.True(t, apperrors.Is(err, apperrors.KindTokenUsed))

		responses, err := repo.ListByFounder(ctx, founder.ID)
		require.NoError(t, err)
		for _, r := range responses {
			assert.NotEqual(t, 1, r.ResponseValue)
		}
	})
}

func TestSurveyRepository_WritesRequireOpenToken(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	repo := NewSurveyRepository(db)
	ctx := context.Background()

	startup := testhelpers.CreateStartup(t, db, "Acme")
	founder := testhelpers.CreateFounder(t, db, startup.ID, "alice")
	questions := testhelpers.SeedQuestions(t, db, 1, "vision")
	answers := []models.SurveyAnswer{{QuestionID: questions[0].ID, ResponseValue: 4}}

	t.Run("a stale token is not found", func(t *testing.T) {
		err := repo.UpsertResponses(ctx, founder.ID, uuid.New(), answers, time.Now())
		assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	})

	t.Run("an expired token is rejected", func(t *testing.T) {
		expired := time.Now().Add(-time.Hour)
		require.NoError(t, db.Model(&models.Founder{}).Where("id = ?", founder.ID).
			Update("survey_token_expires_at", expired).Error)

		err := repo.UpsertResponses(ctx, founder.ID, founder.SurveyToken, answers, time.Now())
		assert.True(t, apperrors.Is(err, apperrors.KindTokenExpired))

		err = repo.CompleteSurvey(ctx, founder.ID, founder.SurveyToken, answers, []uuid.UUID{questions[0].ID}, time.Now())
		assert.True(t, apperrors.Is(err, apperrors.KindTokenExpired))

		responses, err := repo.ListByFounder(ctx, founder.ID)
		require.NoError(t, err)
		assert.Empty(t, responses)
	})
}

func TestSurveyRepository_ListRowsForFounders(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	repo := NewSurveyRepository(db)

	startup := testhelpers.CreateStartup(t, db, "Acme")
	founder := testhelpers.CreateFounder(t, db, startup.ID, "alice")
	questions := testhelpers.SeedQuestions(t, db, 1, "vision")
	testhelpers.CreateResponse(t, db, founder.ID, questions[0].ID, 8)

	rows, err := repo.ListRowsForFounders(context.Background(), []uuid.UUID{founder.ID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "alice", rows[0].FounderName)
	assert.Equal(t, "vision", rows[0].Dimension)
	assert.Equal(t, 8, rows[0].ResponseValue)
	assert.Equal(t, founder.ID, rows[0].FounderID)
}
