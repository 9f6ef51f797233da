package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"alfredoptarigan/team-diagnostic/internal/config"
	"alfredoptarigan/team-diagnostic/internal/logging"
	"alfredoptarigan/team-diagnostic/internal/models"
	"alfredoptarigan/team-diagnostic/internal/repositories"
)

type questionFile struct {
	Questions []struct {
		Dimension string `yaml:"dimension"`
		Text      string `yaml:"text"`
	} `yaml:"questions"`
}

func main() {
	path := flag.String("file", "./scripts/survey_questions.yaml", "question set to publish")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Server.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	questions, err := loadQuestions(*path)
	if err != nil {
		logger.Fatal("Failed to read question set", zap.String("file", *path), zap.Error(err))
	}

	db, err := config.InitDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	version, err := repositories.NewSurveyRepository(db).PublishQuestionSet(context.Background(), questions)
	if err != nil {
		logger.Fatal("Failed to publish question set", zap.Error(err))
	}

	logger.Info("Question set published",
		zap.Int("version", version),
		zap.Int("questions", len(questions)),
	)
}

func loadQuestions(path string) ([]models.SurveyQuestion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file questionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	questions := make([]models.SurveyQuestion, 0, len(file.Questions))
	for i, q := range file.Questions {
		dimension := strings.TrimSpace(q.Dimension)
		text := strings.TrimSpace(q.Text)
		if dimension == "" || text == "" {
			return nil, fmt.Errorf("question %d needs both dimension and text", i+1)
		}
		questions = append(questions, models.SurveyQuestion{
			Dimension:     dimension,
			QuestionText:  text,
			QuestionOrder: i + 1,
		})
	}
	return questions, nil
}
