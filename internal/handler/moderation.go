package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/inkraft/inkraft-go/internal/middleware"
	"github.com/inkraft/inkraft-go/internal/model"
	"github.com/inkraft/inkraft-go/internal/service"
	"github.com/inkraft/inkraft-go/internal/validation"
)

type ModerationHandler struct {
	base
	svc *service.ModerationService
}

func NewModerationHandler(svc *service.ModerationService, o Options) *ModerationHandler {
	return &ModerationHandler{base: newBase(o), svc: svc}
}

// NullifyVotes handles DELETE /api/admin/posts/:id/votes
func (h *ModerationHandler) NullifyVotes(c fiber.Ctx) error {
	postID, errMsg := middleware.ValidatePostID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	var req model.NullifyRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		}
	}
	if err := validation.Struct(req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", validation.Message(err))
	}
	userID := ""
	if req.UserID != "" {
		userID, _ = middleware.ValidateUserID(req.UserID)
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	n, err := h.svc.NullifyVotes(ctx, middleware.IdentityFrom(c), postID, userID, middleware.ValidateReason(req.Reason))
	if err != nil {
		return h.writeServiceError(c, err, "Post not found")
	}
	return c.JSON(model.NullifyResponse{Success: true, NullifiedCount: n})
}

// UpdateTrust handles PATCH /api/admin/users/:id/trust
func (h *ModerationHandler) UpdateTrust(c fiber.Ctx) error {
	userID, errMsg := middleware.ValidateUserID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	var req model.TrustActionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if req.Action != "freeze" && req.Action != "unfreeze" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_ACTION", "action must be freeze or unfreeze")
	}
	if err := validation.Struct(req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", validation.Message(err))
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	msg, err := h.svc.ApplyTrustAction(ctx, middleware.IdentityFrom(c), userID, req.Action, middleware.ValidateReason(req.Reason))
	if err != nil {
		return h.writeServiceError(c, err, "User not found")
	}
	return c.JSON(fiber.Map{"success": true, "message": msg})
}

// History handles GET /api/admin/moderation
func (h *ModerationHandler) History(c fiber.Ctx) error {
	var filter model.ModerationFilter
	var errMsg string

	switch action := c.Query("action"); action {
	case "", model.ActionNullifyVotes, model.ActionFreezeTrust, model.ActionUnfreezeTrust:
		filter.Action = action
	default:
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "action must be one of: nullify_votes, freeze_trust, unfreeze_trust")
	}
	if raw := c.Query("postId"); raw != "" {
		if filter.PostID, errMsg = middleware.ValidatePostID(raw); errMsg != "" {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
		}
	}
	if raw := c.Query("userId"); raw != "" {
		if filter.UserID, errMsg = middleware.ValidateUserID(raw); errMsg != "" {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
		}
	}
	if filter.Page, errMsg = queryInt(c, "page", service.MaxPage); errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	if filter.Limit, errMsg = queryInt(c, "limit", service.MaxPage); errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	page, err := h.svc.History(ctx, middleware.IdentityFrom(c), filter)
	if err != nil {
		return h.writeServiceError(c, err, "Not found")
	}
	return c.JSON(page)
}
