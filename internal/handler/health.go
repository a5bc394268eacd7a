package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db      Pinger
	rdb     *redis.Client
	version string
	startAt time.Time
}

func NewHealthHandler(db Pinger, rdb *redis.Client, version string) *HealthHandler {
	return &HealthHandler{
		db:      db,
		rdb:     rdb,
		version: version,
		startAt: time.Now(),
	}
}

// Live handles GET /health/live.
func (h *HealthHandler) Live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready handles GET /health/ready and reports the state of each dependency.
// The database is required; Redis is optional and only degrades the status.
func (h *HealthHandler) Ready(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	dbCheck := checkDB(ctx, h.db)
	redisCheck := checkRedis(ctx, h.rdb)

	overallStatus := "healthy"
	status := fiber.StatusOK
	if dbCheck["status"] != "up" {
		overallStatus = "unhealthy"
		status = fiber.StatusServiceUnavailable
	} else if redisCheck["status"] == "down" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbCheck,
			"redis":    redisCheck,
		},
		"uptime_seconds": int(time.Since(h.startAt).Seconds()),
		"version":        h.version,
	})
}

func checkDB(ctx context.Context, db Pinger) fiber.Map {
	if db == nil {
		return fiber.Map{"status": "down", "error": "not configured"}
	}

	start := time.Now()
	err := db.Ping(ctx)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return fiber.Map{
			"status":     "down",
			"latency_ms": latency,
			"error":      "connection failed",
		}
	}
	return fiber.Map{
		"status":     "up",
		"latency_ms": latency,
	}
}

func checkRedis(ctx context.Context, rdb *redis.Client) fiber.Map {
	if rdb == nil {
		return fiber.Map{
			"status": "disabled",
		}
	}

	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return fiber.Map{
			"status":     "down",
			"latency_ms": latency,
			"error":      "connection failed",
		}
	}
	return fiber.Map{
		"status":     "up",
		"latency_ms": latency,
	}
}
