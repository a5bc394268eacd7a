package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/inkraft/inkraft-go/internal/handler"
	"github.com/inkraft/inkraft-go/internal/metrics"
	"github.com/inkraft/inkraft-go/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Health     *handler.HealthHandler
	Post       *handler.PostHandler
	User       *handler.UserHandler
	Moderation *handler.ModerationHandler
	Alert      *handler.AlertHandler
}

// Limiters holds the per-route rate limiters. A nil limiter is not applied.
type Limiters struct {
	Read            *middleware.RateLimiter
	Vote            *middleware.RateLimiter
	CategoryRequest *middleware.RateLimiter
}

// Options configures the middleware stack.
type Options struct {
	Log         zerolog.Logger
	Metrics     *metrics.Metrics
	Auth        *middleware.SessionAuth
	Limiters    Limiters
	CORSOrigins string
	IPHashSalt  string
}

func limit(rl *middleware.RateLimiter) fiber.Handler {
	if rl == nil {
		return func(c fiber.Ctx) error { return c.Next() }
	}
	return rl.Handler()
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, o Options) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger(o.Log, o.IPHashSalt))
	if o.Metrics != nil {
		app.Use(handler.MetricsMiddleware(o.Metrics))
	}
	app.Use(middleware.NewCORS(o.CORSOrigins))

	// Health and metrics (no auth needed)
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	if o.Metrics != nil {
		app.Get("/metrics", handler.MetricsHandler(o.Metrics))
	}

	// API routes
	api := app.Group("/api", o.Auth.Authenticate())

	// Post routes
	api.Post("/posts/:id/vote", middleware.RequireSession(), limit(o.Limiters.Vote), h.Post.Vote)
	api.Get("/posts/:id/score", limit(o.Limiters.Read), h.Post.Score)

	// User routes
	api.Get("/users/:id/trust", limit(o.Limiters.Read), h.User.Trust)

	// Category routes
	api.Post("/categories/requests", middleware.RequireSession(), limit(o.Limiters.CategoryRequest), h.Alert.RequestCategory)

	// Admin routes
	admin := api.Group("/admin", middleware.RequireAdmin())
	admin.Delete("/posts/:id/votes", h.Moderation.NullifyVotes)
	admin.Post("/posts/:id/score", h.Post.Recompute)
	admin.Patch("/users/:id/trust", h.Moderation.UpdateTrust)
	admin.Get("/alerts", h.Alert.List)
	admin.Patch("/alerts/:id/resolve", h.Alert.Resolve)
	admin.Get("/moderation", h.Moderation.History)
}
