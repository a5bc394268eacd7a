package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/inkraft/inkraft-go/internal/middleware"
	"github.com/inkraft/inkraft-go/internal/service"
)

type UserHandler struct {
	base
	trust *service.TrustService
}

func NewUserHandler(trust *service.TrustService, o Options) *UserHandler {
	return &UserHandler{base: newBase(o), trust: trust}
}

// Trust handles GET /api/users/:id/trust
func (h *UserHandler) Trust(c fiber.Ctx) error {
	userID, errMsg := middleware.ValidateUserID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	resp, err := h.trust.Lookup(ctx, userID)
	if err != nil {
		return h.writeServiceError(c, err, "User not found")
	}
	return c.JSON(resp)
}
