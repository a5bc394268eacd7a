package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/inkraft/inkraft-go/internal/middleware"
	"github.com/inkraft/inkraft-go/internal/model"
	"github.com/inkraft/inkraft-go/internal/service"
	"github.com/inkraft/inkraft-go/internal/validation"
)

type PostHandler struct {
	base
	votes  *service.VoteService
	scores *service.ScoreService
}

func NewPostHandler(votes *service.VoteService, scores *service.ScoreService, o Options) *PostHandler {
	return &PostHandler{base: newBase(o), votes: votes, scores: scores}
}

// Vote handles POST /api/posts/:id/vote
func (h *PostHandler) Vote(c fiber.Ctx) error {
	postID, errMsg := middleware.ValidatePostID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	var req model.VoteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if err := validation.Struct(req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", validation.Message(err))
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	resp, err := h.votes.Cast(ctx, middleware.IdentityFrom(c), postID, req.Direction)
	if err != nil {
		return h.writeServiceError(c, err, "Post not found")
	}
	return c.JSON(resp)
}

// Score handles GET /api/posts/:id/score
func (h *PostHandler) Score(c fiber.Ctx) error {
	postID, errMsg := middleware.ValidatePostID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	score, err := h.scores.Score(ctx, postID)
	if err != nil {
		return h.writeServiceError(c, err, "Post not found")
	}
	return c.JSON(model.ScoreResponse{PostID: postID, Score: score})
}

// Recompute handles POST /api/admin/posts/:id/score
func (h *PostHandler) Recompute(c fiber.Ctx) error {
	postID, errMsg := middleware.ValidatePostID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	score, err := h.scores.Recompute(ctx, postID)
	if err != nil {
		return h.writeServiceError(c, err, "Post not found")
	}
	return c.JSON(model.ScoreResponse{PostID: postID, Score: score})
}
