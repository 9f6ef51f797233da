package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"alfredoptarigan/team-diagnostic/internal/config"
	"alfredoptarigan/team-diagnostic/internal/services"
)

// Handlers groups every route handler the API mounts.
type Handlers struct {
	Auth      *AuthHandler
	Startups  *StartupHandler
	Founders  *FounderHandler
	Surveys   *SurveyHandler
	Uploads   *UploadHandler
	Analysis  *AnalysisHandler
	Pipedrive *PipedriveHandler
	Stats     services.StatsService
}

// NewApp builds the fiber app with the shared middleware and error handler. Every
// request context derives from base, so canceling base aborts in-flight work.
func NewApp(base context.Context, cfg *config.Config, log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Team Diagnostic API",
		// analysis requests wait on the model; the invoker enforces its own timeout
		ReadTimeout:  30 * time.Second,
		WriteTimeout: modelTimeout(cfg) + 30*time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize) * MaxFilesPerUpload,
		ErrorHandler: NewErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(RequestContext(base))
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	return app
}

// RequestContext gives each request a context that is canceled when base is, or
// when the handler returns.
func RequestContext(base context.Context) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithCancel(base)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func modelTimeout(cfg *config.Config) time.Duration {
	if strings.EqualFold(cfg.LLM.Provider, "gemini") {
		return cfg.Gemini.Timeout
	}
	return cfg.Azure.Timeout
}

// RegisterRoutes mounts the public and admin routes under /api/v1.
func RegisterRoutes(app *fiber.App, h Handlers, auth services.AuthService) {
	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})
	api.Post("/auth/login", h.Auth.HandleLogin)
	api.Get("/survey/:token", h.Surveys.HandleResolve)
	api.Post("/survey/:token", h.Surveys.HandleSave)

	admin := api.Group("", RequireAdmin(auth))

	admin.Get("/startups", h.Startups.HandleList)
	admin.Post("/startups", h.Startups.HandleCreate)
	admin.Post("/startups/import-pipedrive", h.Startups.HandleImport)
	admin.Get("/startups/:id", h.Startups.HandleGet)
	admin.Put("/startups/:id", h.Startups.HandleUpdate)
	admin.Delete("/startups/:id", h.Startups.HandleDelete)
	admin.Post("/startups/:id/sync-pipedrive", h.Startups.HandleSync)
	admin.Get("/startups/:id/founders", h.Founders.HandleListByStartup)
	admin.Post("/startups/:id/founders", h.Founders.HandleCreate)
	admin.Get("/startups/:id/survey-comparison", h.Surveys.HandleComparison)
	admin.Post("/startups/:id/analysis", h.Analysis.HandleGenerate)
	admin.Get("/startups/:id/prompt", h.Analysis.HandlePreview)
	admin.Get("/startups/:id/reports/latest", h.Analysis.HandleLatest)
	admin.Get("/startups/:id/reports", h.Analysis.HandleHistory)

	admin.Get("/founders/:id", h.Founders.HandleGet)
	admin.Put("/founders/:id", h.Founders.HandleUpdate)
	admin.Delete("/founders/:id", h.Founders.HandleDelete)
	admin.Post("/founders/:id/send-survey", h.Surveys.HandleSend)
	admin.Post("/founders/:id/reset-survey", h.Surveys.HandleReset)
	admin.Post("/founders/:id/transcripts", h.Uploads.HandleUpload)
	admin.Get("/founders/:id/transcripts", h.Uploads.HandleList)
	admin.Get("/founders/:id/transcripts/search", h.Uploads.HandleSearch)
	admin.Delete("/founders/:id/transcripts/:transcript_id", h.Uploads.HandleDelete)

	admin.Get("/pipedrive/pipelines", h.Pipedrive.HandlePipelines)
	admin.Get("/pipedrive/pipelines/:id/stages", h.Pipedrive.HandleStages)
	admin.Get("/pipedrive/pipelines/:id/deals", h.Pipedrive.HandlePipelineDeals)
	admin.Get("/pipedrive/pipelines/:id/companies", h.Pipedrive.HandlePipelineCompanies)
	admin.Get("/pipedrive/companies", h.Pipedrive.HandleCompanies)
	admin.Get("/pipedrive/companies/:id", h.Pipedrive.HandleCompany)
	admin.Get("/pipedrive/deals/:id", h.Pipedrive.HandleDeal)

	admin.Get("/stats", func(c *fiber.Ctx) error {
		stats, err := h.Stats.Dashboard(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(stats)
	})
}
