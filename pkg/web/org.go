package web

import (
	"github.com/dukex/bizflow/pkg/models"
	"github.com/gofiber/fiber/v3"
)

func (h *APIHandlers) GetPositions(c fiber.Ctx) error {
	positions, err := h.orgService.Positions(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"positions": positions, "total_count": len(positions)})
}

func (h *APIHandlers) GetPosition(c fiber.Ctx) error {
	position, err := h.orgService.Position(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(position)
}

func (h *APIHandlers) SavePosition(c fiber.Ctx) error {
	var position models.OrgPosition
	if err := c.Bind().JSON(&position); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	position.ID = c.Params("id")

	saved, err := h.orgService.SavePosition(c.Context(), &position)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(saved)
}

func (h *APIHandlers) DeletePosition(c fiber.Ctx) error {
	err := h.orgService.DeletePosition(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetPositionChain returns the position followed by its managers.
func (h *APIHandlers) GetPositionChain(c fiber.Ctx) error {
	chain, err := h.orgService.Chain(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"chain": chain})
}

func (h *APIHandlers) GetUsers(c fiber.Ctx) error {
	users, err := h.orgService.Users(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"users": users, "total_count": len(users)})
}

func (h *APIHandlers) GetUser(c fiber.Ctx) error {
	user, err := h.orgService.User(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(user)
}

func (h *APIHandlers) SaveUser(c fiber.Ctx) error {
	var user models.User
	if err := c.Bind().JSON(&user); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	user.ID = c.Params("id")

	saved, err := h.orgService.SaveUser(c.Context(), &user)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(saved)
}
