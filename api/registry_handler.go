package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/corelens-ai/corelens/pkg/llm"
	"github.com/corelens-ai/corelens/pkg/registry"
)

func (s *Server) handleCreateModel(c *fiber.Ctx) error {
	var req struct {
		Name    string `json:"name"`
		Task    string `json:"task"`
		Version string `json:"version"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}
	if req.Name == "" {
		return badRequest(c, "name field required")
	}

	model, err := s.svcs.Registry.CreateModel(c.Context(), req.Name, req.Task, req.Version)
	if err != nil {
		return s.jsonError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(model)
}

func (s *Server) handleListModels(c *fiber.Ctx) error {
	models, err := s.svcs.Registry.ListModels(c.Context())
	if err != nil {
		return s.jsonError(c, err)
	}

	return c.JSON(map[string]any{
		"count":  len(models),
		"models": models,
	})
}

func (s *Server) handleGetModel(c *fiber.Ctx) error {
	model, err := s.svcs.Registry.GetModel(c.Context(), c.Params("id"))
	if err != nil {
		return s.jsonError(c, err)
	}

	return c.JSON(model)
}

func (s *Server) handleCreateRecipe(c *fiber.Ctx) error {
	var req struct {
		Name       string         `json:"name"`
		ModelID    string         `json:"model_id"`
		Definition map[string]any `json:"definition"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}
	if req.Name == "" {
		return badRequest(c, "name field required")
	}

	recipe, err := s.svcs.Registry.CreateRecipe(c.Context(), req.Name, req.ModelID, req.Definition)
	if err != nil {
		return s.jsonError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(recipe)
}

func (s *Server) handleListRecipes(c *fiber.Ctx) error {
	recipes, err := s.svcs.Registry.ListRecipes(c.Context())
	if err != nil {
		return s.jsonError(c, err)
	}

	return c.JSON(map[string]any{
		"count":   len(recipes),
		"recipes": recipes,
	})
}

func (s *Server) handleGetRecipe(c *fiber.Ctx) error {
	recipe, err := s.svcs.Registry.GetRecipe(c.Context(), c.Params("id"))
	if err != nil {
		return s.jsonError(c, err)
	}

	return c.JSON(recipe)
}

func (s *Server) handleCreateRun(c *fiber.Ctx) error {
	run, err := s.svcs.Registry.CreateRun(c.Context(), c.Params("id"))
	if err != nil {
		return s.jsonError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(run)
}

func (s *Server) handleListRuns(c *fiber.Ctx) error {
	runs, err := s.svcs.Registry.ListRuns(c.Context(), c.Params("id"))
	if err != nil {
		return s.jsonError(c, err)
	}

	return c.JSON(map[string]any{
		"count": len(runs),
		"runs":  runs,
	})
}

func (s *Server) handleGetRun(c *fiber.Ctx) error {
	run, err := s.svcs.Registry.GetRun(c.Context(), c.Params("id"))
	if err != nil {
		return s.jsonError(c, err)
	}

	return c.JSON(run)
}

func (s *Server) handleStartRun(c *fiber.Ctx) error {
	run, err := s.svcs.Registry.StartRun(c.Context(), c.Params("id"))
	if err != nil {
		return s.runError(c, err)
	}

	return c.JSON(run)
}

// handleCompleteRun marks a run succeeded, recording any metrics from the
// request body.
func (s *Server) handleCompleteRun(c *fiber.Ctx) error {
	var req struct {
		Metrics map[string]float64 `json:"metrics"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON body")
		}
	}

	run, err := s.svcs.Registry.CompleteRun(c.Context(), c.Params("id"), req.Metrics)
	if err != nil {
		return s.runError(c, err)
	}

	return c.JSON(run)
}

func (s *Server) handleFailRun(c *fiber.Ctx) error {
	var req struct {
		Error string `json:"error"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON body")
		}
	}

	run, err := s.svcs.Registry.FailRun(c.Context(), c.Params("id"), req.Error)
	if err != nil {
		return s.runError(c, err)
	}

	return c.JSON(run)
}

// runError adds a 409 mapping for lifecycle violations on top of jsonError.
func (s *Server) runError(c *fiber.Ctx, err error) error {
	var invalid registry.ErrInvalidTransition
	if errors.As(err, &invalid) {
		return c.Status(fiber.StatusConflict).JSON(llm.ErrorResponse{Error: invalid.Error()})
	}

	return s.jsonError(c, err)
}
