package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/inkraft/inkraft-go/internal/model"
)

const (
	testSecret = "test-secret"
	testCookie = "inkraft_session"
	testUserID = "9b6f7c10-2c1b-4e8e-8d2c-5b8f0e7a000a"
)

func newTestAuth() *SessionAuth {
	return NewSessionAuth(testSecret, testCookie, zerolog.Nop())
}

func TestVerify(t *testing.T) {
	auth := newTestAuth()

	valid, _ := auth.IssueToken(testUserID, model.RoleAdmin, time.Hour)
	expired, _ := auth.IssueToken(testUserID, model.RoleUser, -time.Minute)
	badRole, _ := auth.IssueToken(testUserID, "superuser", time.Hour)
	badSubject, _ := auth.IssueToken("alice", model.RoleUser, time.Hour)
	otherKey, _ := NewSessionAuth("other-secret", testCookie, zerolog.Nop()).IssueToken(testUserID, model.RoleUser, time.Hour)
	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  testUserID,
		"role": model.RoleUser,
	}).SignedString([]byte(testSecret))

	tests := []struct {
		name     string
		token    string
		wantRole string
		wantErr  error
	}{
		{"valid admin", valid, model.RoleAdmin, nil},
		{"expired", expired, "", ErrSessionExpired},
		{"unknown role", badRole, "", ErrInvalidSession},
		{"subject not a uuid", badSubject, "", ErrInvalidSession},
		{"wrong key", otherKey, "", ErrInvalidSession},
		{"no expiry", noExpiry, "", ErrInvalidSession},
		{"garbage", "not.a.token", "", ErrInvalidSession},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := auth.Verify(tt.token)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Verify error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if id.ID != testUserID || id.Role != tt.wantRole {
				t.Errorf("identity = %+v", id)
			}
		})
	}
}

func newAuthApp(auth *SessionAuth, guard fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(auth.Authenticate())
	app.Get("/whoami", guard, func(c fiber.Ctx) error {
		id := IdentityFrom(c)
		if id == nil {
			return c.JSON(fiber.Map{"id": ""})
		}
		return c.JSON(fiber.Map{"id": id.ID, "role": id.Role})
	})
	return app
}

func TestGuards(t *testing.T) {
	auth := newTestAuth()
	userToken, _ := auth.IssueToken(testUserID, model.RoleUser, time.Hour)
	adminToken, _ := auth.IssueToken(testUserID, model.RoleAdmin, time.Hour)

	tests := []struct {
		name       string
		guard      fiber.Handler
		bearer     string
		cookie     string
		wantStatus int
		wantCode   string
	}{
		{"session: anonymous", RequireSession(), "", "", 401, "UNAUTHENTICATED"},
		{"session: bearer", RequireSession(), userToken, "", 200, ""},
		{"session: cookie", RequireSession(), "", userToken, 200, ""},
		{"session: bad token", RequireSession(), "junk", "", 401, "UNAUTHENTICATED"},
		{"admin: anonymous", RequireAdmin(), "", "", 401, "UNAUTHENTICATED"},
		{"admin: user", RequireAdmin(), userToken, "", 403, "FORBIDDEN"},
		{"admin: admin", RequireAdmin(), adminToken, "", 200, ""},
		{"admin: admin cookie", RequireAdmin(), "", adminToken, 200, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newAuthApp(auth, tt.guard)
			req := httptest.NewRequest(fiber.MethodGet, "/whoami", nil)
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			if tt.cookie != "" {
				req.Header.Set("Cookie", testCookie+"="+tt.cookie)
			}

			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantCode == "" {
				return
			}
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Code != tt.wantCode {
				t.Errorf("error code = %q, want %q", body.Error.Code, tt.wantCode)
			}
		})
	}
}

func TestAuthenticateAllowsAnonymous(t *testing.T) {
	app := newAuthApp(newTestAuth(), func(c fiber.Ctx) error { return c.Next() })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/whoami", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("anonymous status = %d, want 200", resp.StatusCode)
	}
}
