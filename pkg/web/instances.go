package web

import (
	"github.com/dukex/bizflow/pkg/models"
	"github.com/dukex/bizflow/pkg/services"
	"github.com/gofiber/fiber/v3"
)

func (h *APIHandlers) GetInstances(c fiber.Ctx) error {
	filter := services.InstanceFilter{
		ProcessID: c.Query("process_id"),
		Status:    models.InstanceStatus(c.Query("status")),
	}

	views, err := h.journal.Instances(c.Context(), filter)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"instances":   views,
		"total_count": len(views),
	})
}

func (h *APIHandlers) GetInstance(c fiber.Ctx) error {
	view, err := h.journal.Instance(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(view)
}

func (h *APIHandlers) PauseInstance(c fiber.Ctx) error {
	var req PauseInstanceRequest

	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	instance, err := h.engine.Pause(c.Context(), c.Params("id"), req.Reason)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(instance)
}

// ResumeInstance reactivates a paused instance and advances it when its task was finished meanwhile.
func (h *APIHandlers) ResumeInstance(c fiber.Ctx) error {
	instance, err := h.engine.Resume(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(instance)
}
