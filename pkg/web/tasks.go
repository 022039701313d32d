package web

import (
	"github.com/gofiber/fiber/v3"
)

// GetTasks lists the tasks of an assignee or of an instance.
func (h *APIHandlers) GetTasks(c fiber.Ctx) error {
	assigneeID := c.Query("assignee_id")
	instanceID := c.Query("instance_id")

	switch {
	case assigneeID != "":
		tasks, err := h.taskService.ListByAssignee(c.Context(), assigneeID)
		if err != nil {
			return handleServiceError(c, err)
		}

		return c.JSON(fiber.Map{"tasks": tasks, "total_count": len(tasks)})
	case instanceID != "":
		tasks, err := h.taskService.ListByInstance(c.Context(), instanceID)
		if err != nil {
			return handleServiceError(c, err)
		}

		return c.JSON(fiber.Map{"tasks": tasks, "total_count": len(tasks)})
	default:
		return badRequest(c, "assignee_id or instance_id is required")
	}
}

func (h *APIHandlers) GetTask(c fiber.Ctx) error {
	task, err := h.taskService.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(task)
}

func (h *APIHandlers) CreateTask(c fiber.Ctx) error {
	var req CreateTaskRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.taskService.Create(c.Context(), req.NewTask())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// UpdateTaskStatus moves a task to a new status. Process tasks announce the change
// so the owning instance can advance.
func (h *APIHandlers) UpdateTaskStatus(c fiber.Ctx) error {
	var req UpdateTaskStatusRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	task, err := h.taskService.UpdateStatusLabel(c.Context(), c.Params("id"), req.Status)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(task)
}

func (h *APIHandlers) DeleteTask(c fiber.Ctx) error {
	err := h.taskService.Delete(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
