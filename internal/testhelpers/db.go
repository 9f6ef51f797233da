// Package testhelpers provides fixtures shared by package tests.
package testhelpers

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"alfredoptarigan/team-diagnostic/internal/config"
	"alfredoptarigan/team-diagnostic/internal/models"
)

// NewTestDB opens a migrated SQLite database that lives for the duration of the test.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func CreateStartup(t *testing.T, db *gorm.DB, name string) *models.Startup {
	t.Helper()
	industry := "Fintech"
	startup := &models.Startup{CompanyName: name, Industry: &industry}
	require.NoError(t, db.WithContext(context.Background()).Create(startup).Error)
	return startup
}

func CreateFounder(t *testing.T, db *gorm.DB, startupID uuid.UUID, name string) *models.Founder {
	t.Helper()
	founder := &models.Founder{
		StartupID:      startupID,
		FullName:       name,
		Email:          name + "@example.com",
		FullTimeStatus: true,
	}
	require.NoError(t, db.Create(founder).Error)
	// keep created_at strictly ordered for deterministic listings
	time.Sleep(2 * time.Millisecond)
	return founder
}

// SeedQuestions inserts one active question set of the given version. Each entry of
// dimensions yields one question.
func SeedQuestions(t *testing.T, db *gorm.DB, version int, dimensions ...string) []models.SurveyQuestion {
	t.Helper()
	questions := make([]models.SurveyQuestion, 0, len(dimensions))
	for i, dim := range dimensions {
		questions = append(questions, models.SurveyQuestion{
			Version:       version,
			Dimension:     dim,
			QuestionText:  "How aligned are you on " + dim + "?",
			QuestionOrder: i + 1,
			Active:        true,
		})
	}
	require.NoError(t, db.Create(&questions).Error)
	return questions
}

func CreateResponse(t *testing.T, db *gorm.DB, founderID, questionID uuid.UUID, value int) {
	t.Helper()
	require.NoError(t, db.Create(&models.SurveyResponse{
		FounderID:     founderID,
		QuestionID:    questionID,
		ResponseValue: value,
		SubmittedAt:   time.Now(),
	}).Error)
}

func CreateTranscript(t *testing.T, db *gorm.DB, founderID uuid.UUID, text string, fileURL *string) *models.InterviewTranscript {
	t.Helper()
	name := "interview.txt"
	transcript := &models.InterviewTranscript{
		FounderID: founderID,
		RawText:   text,
		FileURL:   fileURL,
		FileName:  &name,
	}
	require.NoError(t, db.Create(transcript).Error)
	return transcript
}
