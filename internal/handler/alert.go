package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/inkraft/inkraft-go/internal/middleware"
	"github.com/inkraft/inkraft-go/internal/model"
	"github.com/inkraft/inkraft-go/internal/service"
	"github.com/inkraft/inkraft-go/internal/validation"
)

type AlertHandler struct {
	base
	svc *service.AlertService
}

func NewAlertHandler(svc *service.AlertService, o Options) *AlertHandler {
	return &AlertHandler{base: newBase(o), svc: svc}
}

// RequestCategory handles POST /api/categories/requests
func (h *AlertHandler) RequestCategory(c fiber.Ctx) error {
	var req model.CategoryRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if err := validation.Struct(req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", validation.Message(err))
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	id, err := h.svc.RequestCategory(ctx, middleware.IdentityFrom(c), req)
	if err != nil {
		return h.writeServiceError(c, err, "Not found")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "alertId": id})
}

// List handles GET /api/admin/alerts
func (h *AlertHandler) List(c fiber.Ctx) error {
	filter := model.AlertFilter{Status: c.Query("status"), Type: c.Query("type")}
	var errMsg string
	if filter.Page, errMsg = queryInt(c, "page", service.MaxPage); errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	if filter.Limit, errMsg = queryInt(c, "limit", service.MaxPage); errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	page, err := h.svc.List(ctx, middleware.IdentityFrom(c), filter)
	if err != nil {
		return h.writeServiceError(c, err, "Not found")
	}
	return c.JSON(page)
}

// Resolve handles PATCH /api/admin/alerts/:id/resolve
func (h *AlertHandler) Resolve(c fiber.Ctx) error {
	alertID, errMsg := middleware.ValidateAlertID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	alert, err := h.svc.Resolve(ctx, middleware.IdentityFrom(c), alertID)
	if err != nil {
		return h.writeServiceError(c, err, "Alert not found")
	}
	return c.JSON(fiber.Map{"success": true, "alert": alert})
}
