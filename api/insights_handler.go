package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/corelens-ai/corelens/pkg/llm"
)

// handleGenerateInsight runs the LLM over the dataset profile and persists
// the resulting markdown insight. Generation is synchronous.
func (s *Server) handleGenerateInsight(c *fiber.Ctx) error {
	if s.svcs.Insights == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(llm.ErrorResponse{
			Error: "insight generation is not configured: an LLM provider is required",
		})
	}

	insight, err := s.svcs.Insights.Generate(c.Context(), c.Params("id"))
	if err != nil {
		return s.jsonError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(insight)
}

func (s *Server) handleListInsights(c *fiber.Ctx) error {
	insights, err := s.svcs.Store.ListInsights(c.Context(), c.Params("id"))
	if err != nil {
		return s.jsonError(c, err)
	}

	return c.JSON(map[string]any{
		"count":    len(insights),
		"insights": insights,
	})
}

func (s *Server) handleGetInsight(c *fiber.Ctx) error {
	insight, err := s.svcs.Store.GetInsight(c.Context(), c.Params("id"))
	if err != nil {
		return s.jsonError(c, err)
	}

	return c.JSON(insight)
}
