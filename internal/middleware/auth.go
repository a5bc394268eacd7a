package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/inkraft/inkraft-go/internal/model"
)

var (
	ErrInvalidSession = errors.New("invalid session")
	ErrSessionExpired = errors.New("session expired")
)

type identityKey struct{}

// sessionClaims is the payload of a session token: sub, role and exp.
type sessionClaims struct {
	Role string `json:"role"`
	jwt.StandardClaims
}

// SessionAuth resolves the caller's identity from an HS256 session token,
// carried in the session cookie or an Authorization: Bearer header.
type SessionAuth struct {
	secret []byte
	cookie string
	log    zerolog.Logger
}

func NewSessionAuth(secret, cookie string, log zerolog.Logger) *SessionAuth {
	return &SessionAuth{secret: []byte(secret), cookie: cookie, log: log}
}

// IssueToken signs a session token for userID valid for ttl.
func (a *SessionAuth) IssueToken(userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Role: role,
		StandardClaims: jwt.StandardClaims{
			Subject:   userID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	})
	return token.SignedString(a.secret)
}

// Verify checks a session token and returns the identity it carries.
func (a *SessionAuth) Verify(tokenString string) (*model.Identity, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if ve, ok := err.(*jwt.ValidationError); ok && ve.Errors&jwt.ValidationErrorExpired != 0 {
		return nil, ErrSessionExpired
	}
	if err != nil || !token.Valid {
		return nil, errors.Wrap(ErrInvalidSession, "verify token")
	}
	if claims.ExpiresAt == 0 {
		return nil, errors.Wrap(ErrInvalidSession, "token has no expiry")
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidSession, "subject is not a user id")
	}
	switch claims.Role {
	case model.RoleUser, model.RoleAdmin:
	default:
		return nil, errors.Wrapf(ErrInvalidSession, "unknown role %q", claims.Role)
	}
	return &model.Identity{ID: id.String(), Role: claims.Role}, nil
}

func (a *SessionAuth) tokenFrom(c fiber.Ctx) string {
	if authz := c.Get(fiber.HeaderAuthorization); authz != "" {
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Cookies(a.cookie)
}

// Authenticate attaches the caller's identity to the request when a session
// token is present. Requests without one pass through anonymously; a token
// that fails verification is rejected with 401.
func (a *SessionAuth) Authenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		raw := a.tokenFrom(c)
		if raw == "" {
			return c.Next()
		}
		id, err := a.Verify(raw)
		if err != nil {
			a.log.Debug().Err(err).Str("request_id", RequestID(c)).Msg("auth: session rejected")
			msg := "Invalid session"
			if errors.Is(err, ErrSessionExpired) {
				msg = "Session expired"
			}
			return ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", msg)
		}
		c.Locals(identityKey{}, id)
		return c.Next()
	}
}

// IdentityFrom returns the authenticated caller, or nil for anonymous
// requests.
func IdentityFrom(c fiber.Ctx) *model.Identity {
	id, _ := c.Locals(identityKey{}).(*model.Identity)
	return id
}

// RequireSession rejects anonymous requests with 401.
func RequireSession() fiber.Handler {
	return func(c fiber.Ctx) error {
		if IdentityFrom(c) == nil {
			return ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "Authentication required")
		}
		return c.Next()
	}
}

// RequireAdmin rejects anonymous requests with 401 and non-admins with 403.
func RequireAdmin() fiber.Handler {
	return func(c fiber.Ctx) error {
		id := IdentityFrom(c)
		if id == nil {
			return ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "Authentication required")
		}
		if !id.IsAdmin() {
			return ErrorResponse(c, fiber.StatusForbidden, "FORBIDDEN", "Admin access required")
		}
		return c.Next()
	}
}
