package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/corelens-ai/corelens/pkg/dictionary"
	"github.com/corelens-ai/corelens/pkg/storage"
)

func (s *Server) handleListDictionary(c *fiber.Ctx) error {
	entries, err := s.svcs.Dictionary.List(c.Context(), c.Params("id"))
	if err != nil {
		return s.jsonError(c, err)
	}

	return c.JSON(map[string]any{
		"count":   len(entries),
		"entries": entries,
	})
}

// handleUpsertDictionary updates (or fills in) the description and tags for
// one column of a dataset.
func (s *Server) handleUpsertDictionary(c *fiber.Ctx) error {
	var req struct {
		Description string   `json:"description"`
		Tags        []string `json:"tags"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}

	entry, err := s.svcs.Dictionary.Upsert(c.Context(), c.Params("id"), c.Params("column"), req.Description, req.Tags)
	if err != nil {
		var notFound storage.ErrNotFound
		if errors.As(err, &notFound) {
			return s.jsonError(c, err)
		}
		// Unknown column and similar validation failures.
		return badRequest(c, err.Error())
	}

	return c.JSON(entry)
}

// handleSearchDictionary handles GET /datasets/:id/dictionary/search.
// Query parameters:
//   - query (required): the search text
//   - limit (optional, default 10): number of results to return
func (s *Server) handleSearchDictionary(c *fiber.Ctx) error {
	query := c.Query("query")
	if query == "" {
		return badRequest(c, "query parameter is required")
	}

	limit, ok := parsePositiveInt(c.Query("limit"), dictionary.DefaultSearchLimit)
	if !ok {
		return badRequest(c, "limit must be a positive integer")
	}

	results, err := s.svcs.Dictionary.Search(c.Context(), c.Params("id"), query, limit)
	if err != nil {
		return s.jsonError(c, err)
	}

	return c.JSON(map[string]any{
		"query":   query,
		"count":   len(results),
		"results": results,
	})
}
