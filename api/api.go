package api

import (
	"net/http"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/corelens-ai/corelens/pkg/assistant"
	"github.com/corelens-ai/corelens/pkg/dataset"
	"github.com/corelens-ai/corelens/pkg/dictionary"
	"github.com/corelens-ai/corelens/pkg/explorer"
	"github.com/corelens-ai/corelens/pkg/insights"
	"github.com/corelens-ai/corelens/pkg/quality"
	"github.com/corelens-ai/corelens/pkg/registry"
	"github.com/corelens-ai/corelens/pkg/storage"
)

// Services carries the platform services the server routes to.
// Insights and Assistant are optional; their endpoints return 503 when nil.
// MCP is an optional net/http handler mounted at /mcp.
type Services struct {
	Store      storage.Store
	Datasets   *dataset.Service
	Quality    *quality.Service
	Dictionary *dictionary.Service
	Explorer   *explorer.Service
	Insights   *insights.Service
	Registry   *registry.Service
	Assistant  *assistant.Service
	MCP        http.Handler
}

// Server is the API server for the corelens platform.
type Server struct {
	config Config
	svcs   Services
	logger *zap.Logger
	app    *fiber.App
}

// NewServer creates a new API server. Services are injected to allow sharing
// with other components and with tests.
func NewServer(config Config, svcs Services, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	bodyLimit := config.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = defaultBodyLimit
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             bodyLimit,
	})

	s := &Server{
		config: config,
		svcs:   svcs,
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)

	app.Post("/datasets", s.handleUploadDataset)
	app.Get("/datasets", s.handleListDatasets)
	app.Get("/datasets/:id", s.handleGetDataset)
	app.Delete("/datasets/:id", s.handleDeleteDataset)

	app.Get("/datasets/:id/quality", s.handleQualityReport)

	app.Get("/datasets/:id/dictionary", s.handleListDictionary)
	app.Get("/datasets/:id/dictionary/search", s.handleSearchDictionary)
	app.Put("/datasets/:id/dictionary/:column", s.handleUpsertDictionary)

	app.Post("/datasets/:id/insights", s.handleGenerateInsight)
	app.Get("/datasets/:id/insights", s.handleListInsights)
	app.Get("/insights/:id", s.handleGetInsight)

	app.Post("/explorer/query", s.handleExplorerQuery)

	app.Post("/models", s.handleCreateModel)
	app.Get("/models", s.handleListModels)
	app.Get("/models/:id", s.handleGetModel)

	app.Post("/recipes", s.handleCreateRecipe)
	app.Get("/recipes", s.handleListRecipes)
	app.Get("/recipes/:id", s.handleGetRecipe)

	app.Post("/recipes/:id/runs", s.handleCreateRun)
	app.Get("/recipes/:id/runs", s.handleListRuns)
	app.Get("/runs/:id", s.handleGetRun)
	app.Post("/runs/:id/start", s.handleStartRun)
	app.Post("/runs/:id/complete", s.handleCompleteRun)
	app.Post("/runs/:id/fail", s.handleFailRun)

	app.Post("/chat", s.handleChat)

	if svcs.MCP != nil {
		app.All("/mcp", adaptor.HTTPHandler(svcs.MCP))
	}

	return s
}

// App exposes the underlying fiber app for in-process testing.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
