package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/corelens-ai/corelens/pkg/explorer"
	"github.com/corelens-ai/corelens/pkg/llm"
	"github.com/corelens-ai/corelens/pkg/storage"
)

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// jsonError maps service errors onto HTTP statuses: storage.ErrNotFound is
// 404, everything else 500.
func (s *Server) jsonError(c *fiber.Ctx, err error) error {
	var notFound storage.ErrNotFound
	if errors.As(err, &notFound) {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: notFound.Error()})
	}

	s.logger.Error("request failed",
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: err.Error()})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: message})
}

// handleUploadDataset ingests a CSV uploaded as multipart form data.
// The "file" part carries the CSV; an optional "name" field overrides the
// dataset name (default: the filename without extension).
func (s *Server) handleUploadDataset(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "multipart file field required")
	}

	name := c.FormValue("name")
	if name == "" {
		name = trimExt(fileHeader.Filename)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return s.jsonError(c, err)
	}
	defer file.Close()

	ds, err := s.svcs.Datasets.Ingest(c.Context(), name, fileHeader.Filename, file)
	if err != nil {
		return badRequest(c, err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(ds)
}

func (s *Server) handleListDatasets(c *fiber.Ctx) error {
	datasets, err := s.svcs.Store.ListDatasets(c.Context())
	if err != nil {
		return s.jsonError(c, err)
	}

	return c.JSON(map[string]any{
		"count":    len(datasets),
		"datasets": datasets,
	})
}

func (s *Server) handleGetDataset(c *fiber.Ctx) error {
	ds, err := s.svcs.Store.GetDataset(c.Context(), c.Params("id"))
	if err != nil {
		return s.jsonError(c, err)
	}

	return c.JSON(ds)
}

func (s *Server) handleDeleteDataset(c *fiber.Ctx) error {
	if err := s.svcs.Datasets.Delete(c.Context(), c.Params("id")); err != nil {
		return s.jsonError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// handleQualityReport evaluates the dataset's quality on demand.
func (s *Server) handleQualityReport(c *fiber.Ctx) error {
	report, err := s.svcs.Quality.Evaluate(c.Context(), c.Params("id"))
	if err != nil {
		return s.jsonError(c, err)
	}

	return c.JSON(report)
}

// handleExplorerQuery runs a read-only SQL statement.
func (s *Server) handleExplorerQuery(c *fiber.Ctx) error {
	var req struct {
		SQL string `json:"sql"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}
	if req.SQL == "" {
		return badRequest(c, "sql field required")
	}

	result, err := s.svcs.Explorer.Query(c.Context(), req.SQL)
	if err != nil {
		var readOnly explorer.ErrNotReadOnly
		if errors.As(err, &readOnly) {
			return badRequest(c, readOnly.Error())
		}
		return badRequest(c, err.Error())
	}

	return c.JSON(result)
}

// parsePositiveInt parses a positive integer query parameter, returning the
// fallback when absent.
func parsePositiveInt(raw string, fallback int) (int, bool) {
	if raw == "" {
		return fallback, true
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}

func trimExt(filename string) string {
	for i := len(filename) - 1; i >= 0; i-- {
		if filename[i] == '.' {
			return filename[:i]
		}
		if filename[i] == '/' || filename[i] == '\\' {
			break
		}
	}
	return filename
}
