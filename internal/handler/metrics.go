package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/inkraft/inkraft-go/internal/metrics"
)

// MetricsMiddleware records request duration and in-flight count.
func MetricsMiddleware(m *metrics.Metrics) fiber.Handler {
	return func(c fiber.Ctx) error {
		// Don't instrument the /metrics endpoint itself
		if c.Path() == "/metrics" {
			return c.Next()
		}

		// Copy path and method into owned strings BEFORE c.Next(): Fiber
		// returns slices backed by the fasthttp buffer which handlers may
		// reuse.
		path := string([]byte(c.Path()))
		method := string([]byte(c.Method()))
		endpoint := sanitizeEndpoint(path)

		m.RequestsInFlight.Inc()
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		if fe, ok := err.(*fiber.Error); ok {
			status = strconv.Itoa(fe.Code)
		}

		m.RequestDuration.WithLabelValues(endpoint, method, status).Observe(duration)
		m.RequestsInFlight.Dec()

		return err
	}
}

// sanitizeEndpoint replaces ids in the path with placeholders to bound label
// cardinality.
func sanitizeEndpoint(path string) string {
	parts := strings.Split(path, "/")
	for i := 1; i < len(parts); i++ {
		switch parts[i-1] {
		case "posts", "users", "alerts":
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

// MetricsHandler serves the Prometheus /metrics endpoint via Fiber.
func MetricsHandler(m *metrics.Metrics) fiber.Handler {
	httpHandler := fasthttpadaptor.NewFastHTTPHandler(
		promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry}),
	)
	return func(c fiber.Ctx) error {
		httpHandler(c.RequestCtx())
		return nil
	}
}
