package http

import (
	"errors"
	"strings"
	"time"

	"portal-compare/internal/comparison/adapter/metrics"
	"portal-compare/internal/comparison/adapter/security"
	apperrors "portal-compare/internal/shared/errors"
	"portal-compare/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

var errNoToken = errors.New("no session token provided")

// Middleware bundles the request pipeline of the HTTP API.
type Middleware struct {
	tokens     *security.SessionTokenService
	cookieName string
	access     *zap.Logger
	metrics    *metrics.Collector
}

// NewMiddleware creates the middleware set. access and collector may be nil.
func NewMiddleware(tokens *security.SessionTokenService, cookieName string, access *zap.Logger, collector *metrics.Collector) *Middleware {
	if access == nil {
		access = zap.NewNop()
	}
	return &Middleware{
		tokens:     tokens,
		cookieName: cookieName,
		access:     access,
		metrics:    collector,
	}
}

// CORS allows browser clients to call the API with the session cookie.
func (m *Middleware) CORS(allowOrigins string) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Request-ID",
		ExposeHeaders:    "X-Request-ID," + HeaderSessionToken,
		AllowCredentials: allowOrigins != "*",
		MaxAge:           86400,
	})
}

// SecurityHeaders adds security headers.
func (m *Middleware) SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "no-referrer")
		c.Set("Cache-Control", "no-store")
		return c.Next()
	}
}

// RequestID propagates or assigns the request id and stores it in the user
// context for logging.
func (m *Middleware) RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.SetUserContext(utils.WithRequestID(c.UserContext(), id))
		return c.Next()
	}
}

// AccessLog writes one structured line per request and records HTTP metrics.
// Query strings are not logged.
func (m *Middleware) AccessLog() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// Render now so the logged status is the one sent.
			if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		elapsed := time.Since(start)
		status := c.Response().StatusCode()
		route := c.Route().Path

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("route", route),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", elapsed),
			zap.String("request_id", c.GetRespHeader(requestIDHeader)),
		}
		switch {
		case status >= 500:
			m.access.Error("request failed", append(fields, zap.Error(err))...)
		case status >= 400:
			m.access.Warn("request rejected", fields...)
		default:
			m.access.Info("request served", fields...)
		}

		if m.metrics != nil {
			m.metrics.HTTPRequest(c.Method(), route, status, elapsed)
		}
		return nil
	}
}

// RequireSession accepts a session token from the Authorization header or the
// session cookie and checks that it was issued for the :sessionID route
// parameter.
func (m *Middleware) RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := m.extractToken(c)
		if err != nil {
			return apperrors.NewAuthenticationError("session token required").WithCode("TOKEN_MISSING")
		}

		claims, err := m.tokens.ValidateToken(token)
		if err != nil {
			return toAppError(err)
		}
		if claims.SessionID() != c.Params("sessionID") {
			return apperrors.NewAuthenticationError("session token does not match session").WithCode("TOKEN_MISMATCH")
		}

		c.SetUserContext(utils.WithSessionID(c.UserContext(), claims.SessionID()))
		return c.Next()
	}
}

func (m *Middleware) extractToken(c *fiber.Ctx) (string, error) {
	if auth := c.Get(fiber.HeaderAuthorization); auth != "" {
		if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
			return strings.TrimSpace(auth[7:]), nil
		}
		return "", errNoToken
	}
	if token := c.Cookies(m.cookieName); token != "" {
		return token, nil
	}
	return "", errNoToken
}
