package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/inkraft/inkraft-go/internal/repository"
	"github.com/inkraft/inkraft-go/internal/service"
)

func TestSanitizeEndpoint(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/api/posts/3f0c9a52-7a4e-4d39-9a51-1d1c1f6f0a01/vote", "/api/posts/:id/vote"},
		{"/api/users/abc/trust", "/api/users/:id/trust"},
		{"/api/admin/users/abc/trust", "/api/admin/users/:id/trust"},
		{"/api/admin/alerts/abc/resolve", "/api/admin/alerts/:id/resolve"},
		{"/api/admin/alerts", "/api/admin/alerts"},
		{"/health/ready", "/health/ready"},
	}
	for _, tt := range tests {
		if got := sanitizeEndpoint(tt.in); got != tt.want {
			t.Errorf("sanitizeEndpoint(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteServiceError(t *testing.T) {
	b := newBase(Options{Log: zerolog.Nop()})

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"unauthenticated", service.ErrUnauthenticated, 401, "UNAUTHENTICATED", ""},
		{"forbidden", service.ErrForbidden, 403, "FORBIDDEN", ""},
		{"invalid input", pkgerrors.Wrap(service.ErrInvalidInput, "direction must be upvote or downvote"), 400, "INVALID_FIELD", "direction must be upvote or downvote"},
		{"bare invalid input", service.ErrInvalidInput, 400, "INVALID_FIELD", "Invalid input"},
		{"wrapped not found", pkgerrors.Wrapf(repository.ErrNotFound, "load post %s", "x"), 404, "NOT_FOUND", "Thing not found"},
		{"conflict", repository.ErrConflict, 409, "CONFLICT", ""},
		{"unavailable", fmt.Errorf("%w: dial tcp", repository.ErrUnavailable), 500, "INTERNAL_ERROR", "Internal server error"},
		{"deadline", context.DeadlineExceeded, 500, "INTERNAL_ERROR", "Internal server error"},
		{"unknown", errors.New("boom"), 500, "INTERNAL_ERROR", "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c fiber.Ctx) error {
				return b.writeServiceError(c, tt.err, "Thing not found")
			})

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			var body struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.StatusCode != tt.wantStatus || body.Error.Code != tt.wantCode {
				t.Errorf("got %d %s, want %d %s", resp.StatusCode, body.Error.Code, tt.wantStatus, tt.wantCode)
			}
			if tt.wantMsg != "" && body.Error.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", body.Error.Message, tt.wantMsg)
			}
		})
	}
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestReadyReportsDatabaseDown(t *testing.T) {
	h := NewHealthHandler(downPinger{}, nil, "test")
	app := fiber.New()
	app.Get("/health/ready", h.Ready)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/health/ready", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "unhealthy" {
		t.Errorf("status field = %v, want unhealthy", body["status"])
	}
}

func TestQueryInt(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    int
		wantErr bool
	}{
		{"absent", "", 0, false},
		{"valid", "?page=3", 3, false},
		{"at upper bound", "?page=100", 100, false},
		{"zero", "?page=0", 0, true},
		{"negative", "?page=-1", 0, true},
		{"not a number", "?page=abc", 0, true},
		{"above upper bound", "?page=101", 0, true},
		{"overflows int", "?page=99999999999999999999", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got int
			var msg string
			app := fiber.New()
			app.Get("/", func(c fiber.Ctx) error {
				got, msg = queryInt(c, "page", 100)
				return c.SendStatus(fiber.StatusNoContent)
			})
			if _, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/"+tt.query, nil)); err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if (msg != "") != tt.wantErr {
				t.Errorf("queryInt error = %q, wantErr %v", msg, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("queryInt = %d, want %d", got, tt.want)
			}
		})
	}
}
