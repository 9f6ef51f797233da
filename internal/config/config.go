package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Qdrant    QdrantConfig
	Gemini    GeminiConfig
	Azure     AzureOpenAIConfig
	LLM       LLMConfig
	Storage   StorageConfig
	Worker    WorkerConfig
	Auth      AuthConfig
	Survey    SurveyConfig
	Pipedrive PipedriveConfig
	Analysis  AnalysisConfig
}

type ServerConfig struct {
	Port          string `env:"PORT" env-default:"3000"`
	Env           string `env:"ENV" env-default:"development"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" env-default:"http://localhost:3000"`
	CORSOrigins   string `env:"CORS_ORIGINS" env-default:"*"`
}

type DatabaseConfig struct {
	Host     string `env:"DB_HOST" env-default:"localhost"`
	Port     string `env:"DB_PORT" env-default:"5432"`
	User     string `env:"DB_USER" env-default:"postgres"`
	Password string `env:"DB_PASSWORD" env-default:"postgres"`
	DBName   string `env:"DB_NAME" env-default:"team_diagnostic"`
	SSLMode  string `env:"DB_SSLMODE" env-default:"disable"`
}

type QdrantConfig struct {
	URL        string `env:"QDRANT_URL"`
	APIKey     string `env:"QDRANT_API_KEY"`
	Collection string `env:"QDRANT_COLLECTION" env-default:"founder_transcripts"`
}

type GeminiConfig struct {
	APIKey     string        `env:"GEMINI_API_KEY"`
	Model      string        `env:"GEMINI_MODEL" env-default:"gemini-2.5-flash"`
	EmbedModel string        `env:"GEMINI_EMBED_MODEL" env-default:"text-embedding-004"`
	Timeout    time.Duration `env:"GEMINI_TIMEOUT" env-default:"120s"`
	// BaseURL overrides the public Gemini API endpoint, e.g. for a proxy.
	BaseURL string `env:"GEMINI_BASE_URL"`
}

// AzureOpenAIConfig describes a single chat deployment on an Azure OpenAI resource.
type AzureOpenAIConfig struct {
	Endpoint   string        `env:"AZURE_OPENAI_ENDPOINT"`
	APIKey     string        `env:"AZURE_OPENAI_API_KEY"`
	Deployment string        `env:"AZURE_OPENAI_DEPLOYMENT" env-default:"gpt-4o"`
	APIVersion string        `env:"AZURE_OPENAI_API_VERSION" env-default:"2025-04-01-preview"`
	Timeout    time.Duration `env:"AZURE_OPENAI_TIMEOUT" env-default:"120s"`
}

type LLMConfig struct {
	Provider               string `env:"LLM_PROVIDER" env-default:"azure"`
	MaxOutputTokens        int    `env:"LLM_MAX_OUTPUT_TOKENS" env-default:"16000"`
	SummaryMaxOutputTokens int    `env:"LLM_SUMMARY_MAX_OUTPUT_TOKENS" env-default:"16000"`
}

type StorageConfig struct {
	UploadPath  string `env:"UPLOAD_PATH" env-default:"./uploads"`
	MaxFileSize int64  `env:"MAX_FILE_SIZE" env-default:"10485760"`
}

type WorkerConfig struct {
	Concurrency  int           `env:"WORKER_CONCURRENCY" env-default:"2"`
	PollInterval time.Duration `env:"WORKER_POLL_INTERVAL" env-default:"30s"`
	ChunkSize    int           `env:"INDEX_CHUNK_SIZE" env-default:"1000"`
	ChunkOverlap int           `env:"INDEX_CHUNK_OVERLAP" env-default:"200"`
}

type AuthConfig struct {
	AdminEmail        string        `env:"ADMIN_EMAIL"`
	AdminPasswordHash string        `env:"ADMIN_PASSWORD_HASH"`
	JWTSecret         string        `env:"JWT_SECRET"`
	TokenTTL          time.Duration `env:"JWT_TTL" env-default:"12h"`
}

type SurveyConfig struct {
	TokenTTL time.Duration `env:"SURVEY_TOKEN_TTL" env-default:"720h"`
}

type PipedriveConfig struct {
	APIToken      string        `env:"PIPEDRIVE_API_TOKEN"`
	CompanyDomain string        `env:"PIPEDRIVE_COMPANY_DOMAIN"`
	BaseURL       string        `env:"PIPEDRIVE_BASE_URL"`
	Timeout       time.Duration `env:"PIPEDRIVE_TIMEOUT" env-default:"30s"`
}

// AnalysisConfig holds the minimum inputs required before a report is generated.
type AnalysisConfig struct {
	MinSurveyResponses int `env:"ANALYSIS_MIN_SURVEY_RESPONSES" env-default:"1"`
	MinTranscripts     int `env:"ANALYSIS_MIN_TRANSCRIPTS" env-default:"0"`
}

// Load reads .env (if present) and the process environment into a Config.
func Load() (*Config, error) {
	// A missing .env file is fine; the environment may already be populated.
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Storage.MaxFileSize <= 0 {
		return errors.New("MAX_FILE_SIZE must be positive")
	}
	if c.Worker.Concurrency < 1 {
		return errors.New("WORKER_CONCURRENCY must be at least 1")
	}
	if c.Analysis.MinSurveyResponses < 0 || c.Analysis.MinTranscripts < 0 {
		return errors.New("analysis minimums must not be negative")
	}
	switch strings.ToLower(c.LLM.Provider) {
	case "azure", "gemini":
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q (expected azure or gemini)", c.LLM.Provider)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

// IndexingEnabled reports whether both the vector store and the embedding model are configured.
func (c *Config) IndexingEnabled() bool {
	return c.Qdrant.URL != "" && c.Gemini.APIKey != ""
}

var placeholderMarkers = []string{"your-resource", "your_resource", "example", "<", "changeme", "placeholder", "xxx"}

// IsPlaceholder reports whether a configured value was left at a template default.
func IsPlaceholder(value string) bool {
	lower := strings.ToLower(strings.TrimSpace(value))
	if lower == "" {
		return true
	}
	for _, marker := range placeholderMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Validate reports why the Azure deployment cannot be called. The returned message
// names the variable to fix and never includes the key itself.
func (a AzureOpenAIConfig) Validate() error {
	if strings.TrimSpace(a.APIKey) == "" {
		return errors.New("AZURE_OPENAI_API_KEY is not set")
	}
	if IsPlaceholder(a.Endpoint) {
		return errors.New("AZURE_OPENAI_ENDPOINT is not configured; set it to your resource URL, e.g. https://<resource>.openai.azure.com")
	}
	if !strings.HasPrefix(strings.ToLower(a.Endpoint), "https://") && !strings.HasPrefix(strings.ToLower(a.Endpoint), "http://") {
		return errors.New("AZURE_OPENAI_ENDPOINT must be an absolute http(s) URL")
	}
	if strings.TrimSpace(a.Deployment) == "" {
		return errors.New("AZURE_OPENAI_DEPLOYMENT is not set")
	}
	if a.Timeout <= 0 {
		return errors.New("AZURE_OPENAI_TIMEOUT must be positive")
	}
	return nil
}

func (g GeminiConfig) Validate() error {
	if IsPlaceholder(g.APIKey) {
		return errors.New("GEMINI_API_KEY is not set")
	}
	if strings.TrimSpace(g.Model) == "" {
		return errors.New("GEMINI_MODEL is not set")
	}
	if g.Timeout <= 0 {
		return errors.New("GEMINI_TIMEOUT must be positive")
	}
	return nil
}

func (p PipedriveConfig) Validate() error {
	if strings.TrimSpace(p.APIToken) == "" {
		return errors.New("PIPEDRIVE_API_TOKEN is not set")
	}
	if p.BaseURL == "" && (p.CompanyDomain == "" || p.CompanyDomain == "your-company-domain") {
		return errors.New(`PIPEDRIVE_COMPANY_DOMAIN is not set (e.g. "yourcompany" for yourcompany.pipedrive.com)`)
	}
	return nil
}

// APIBaseURL returns the versioned Pipedrive API root.
func (p PipedriveConfig) APIBaseURL() string {
	if p.BaseURL != "" {
		return strings.TrimRight(p.BaseURL, "/")
	}
	return fmt.Sprintf("https://%s.pipedrive.com/api/v1", p.CompanyDomain)
}

func (a AuthConfig) Validate() error {
	if a.AdminEmail == "" || a.AdminPasswordHash == "" {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD_HASH must be set")
	}
	if len(a.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	return nil
}
