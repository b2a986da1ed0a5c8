package rest

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"yqhp/pipeline-engine/internal/pipeline"
)

// healthCheck handles GET /health
func (s *Server) healthCheck(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// listSteps handles GET /api/v1/steps
func (s *Server) listSteps(c *fiber.Ctx) error {
	entries := s.runner.Registry().List()

	steps := make([]StepInfo, len(entries))
	for i, e := range entries {
		steps[i] = StepInfo{Name: e.Name, Description: e.Step.Description()}
	}

	return c.JSON(StepsResponse{Steps: steps, Total: len(steps)})
}

// runPipeline handles POST /api/v1/pipelines/:name/run
func (s *Server) runPipeline(c *fiber.Ctx) error {
	name := c.Params("name")

	var req RunRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error:   "invalid_request",
				Message: "Failed to parse request body: " + err.Error(),
			})
		}
	}

	result, err := s.runner.RunNamedWithContext(c.UserContext(), name, req.ContextArg, req.Parser, req.Context)
	if err != nil {
		switch {
		case pipeline.IsNotFoundError(err):
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error:   "pipeline_not_found",
				Message: err.Error(),
			})
		case result == nil:
			// 加载或上下文解析失败，流水线没有运行
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error:   "invalid_pipeline_input",
				Message: err.Error(),
			})
		default:
			s.log.Warn("pipeline run failed", zap.String("pipeline", name), zap.String("run_id", result.RunID), zap.Error(err))
			return c.Status(fiber.StatusUnprocessableEntity).JSON(NewRunResponse(result))
		}
	}

	return c.JSON(NewRunResponse(result))
}
