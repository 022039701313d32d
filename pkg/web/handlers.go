// Package web provides HTTP handlers and REST API endpoints for process management.
package web

import (
	"net/http"
	"time"

	"github.com/dukex/bizflow/pkg/engine"
	"github.com/dukex/bizflow/pkg/models"
	"github.com/dukex/bizflow/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	processService *services.Process
	taskService    *services.Task
	orgService     *services.Org
	journal        *services.Journal
	engine         *engine.Engine
	validator      *validator.Validate
}

func NewAPIHandlers(
	processService *services.Process,
	taskService *services.Task,
	orgService *services.Org,
	journal *services.Journal,
	engine *engine.Engine,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		processService: processService,
		taskService:    taskService,
		orgService:     orgService,
		journal:        journal,
		engine:         engine,
		validator:      validator,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, ok := h.processService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "bizflow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if ok {
		status = "healthy"
		message = "bizflow API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetProcesses(c fiber.Ctx) error {
	processes, err := h.processService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	summaries := make([]ProcessSummary, 0, len(processes))
	for _, process := range processes {
		summaries = append(summaries, TransformProcessSummary(process))
	}

	return c.JSON(fiber.Map{
		"processes":   summaries,
		"total_count": len(summaries),
	})
}

// GetProcess returns the definition together with its instances.
func (h *APIHandlers) GetProcess(c fiber.Ctx) error {
	process, err := h.journal.Process(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(process)
}

func (h *APIHandlers) CreateProcess(c fiber.Ctx) error {
	var process models.BusinessProcess
	if err := c.Bind().JSON(&process); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	created, err := h.processService.Save(c.Context(), &process)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// UpdateProcess replaces the definition stored under the path id.
func (h *APIHandlers) UpdateProcess(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Process ID is required")
	}

	var process models.BusinessProcess
	if err := c.Bind().JSON(&process); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	process.ID = id

	updated, err := h.processService.Save(c.Context(), &process)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteProcess(c fiber.Ctx) error {
	err := h.processService.Delete(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) StartProcess(c fiber.Ctx) error {
	var req StartProcessRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	instance, err := h.engine.StartProcess(c.Context(), c.Params("id"), req.Initiator)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(instance)
}

// ImportProcesses loads a process document. ?mode=replace swaps the whole collection.
func (h *APIHandlers) ImportProcesses(c fiber.Ctx) error {
	mode := services.ImportMode(c.Query("mode", string(services.ImportMerge)))

	imported, err := h.processService.ImportDocument(c.Context(), c.Body(), mode)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"processes":   imported,
		"total_count": len(imported),
		"mode":        mode,
	})
}

func (h *APIHandlers) ExportProcesses(c fiber.Ctx) error {
	document, err := h.processService.Export(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(document)
}
