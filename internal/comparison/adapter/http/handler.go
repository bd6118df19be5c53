package http

import (
	"strings"
	"time"

	"portal-compare/internal/comparison/adapter/security"
	"portal-compare/internal/comparison/domain/model"
	"portal-compare/internal/comparison/domain/service"
	"portal-compare/internal/comparison/usecase"
	apperrors "portal-compare/internal/shared/errors"

	"github.com/gofiber/fiber/v2"
)

// HeaderSessionToken carries the renewed token on authenticated responses.
const HeaderSessionToken = "X-Session-Token"

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name     string
	Secure   bool
	SameSite string
}

// ComparisonHTTPHandler serves the session and comparison API.
type ComparisonHTTPHandler struct {
	sessions    usecase.SessionUsecaseInterface
	comparisons usecase.ComparisonUsecaseInterface
	tokens      *security.SessionTokenService
	cookie      CookieConfig
	validator   *requestValidator
}

// NewComparisonHTTPHandler creates the handler.
func NewComparisonHTTPHandler(
	sessions usecase.SessionUsecaseInterface,
	comparisons usecase.ComparisonUsecaseInterface,
	tokens *security.SessionTokenService,
	cookie CookieConfig,
) *ComparisonHTTPHandler {
	return &ComparisonHTTPHandler{
		sessions:    sessions,
		comparisons: comparisons,
		tokens:      tokens,
		cookie:      cookie,
		validator:   newRequestValidator(),
	}
}

// RegisterRoutes mounts the API on router. Everything below a session id
// requires that session's token, and each authenticated request is answered
// with a fresh one so the token expires with the session's idle timeout.
func (h *ComparisonHTTPHandler) RegisterRoutes(router fiber.Router, m *Middleware) {
	router.Post("/sessions", h.CreateSession)

	auth := m.RequireSession()
	renew := h.renewToken
	const session = "/sessions/:sessionID"
	router.Get(session, auth, renew, h.GetSession)
	router.Delete(session, auth, renew, h.DeleteSession)
	router.Get(session+"/objects", auth, renew, h.ListObjects)

	router.Get(session+"/mappings", auth, renew, h.GetMappings)
	router.Post(session+"/mappings/auto", auth, renew, h.AutoMatch)
	router.Put(session+"/mappings/:keyA", auth, renew, h.SetMapping)
	router.Delete(session+"/mappings/:keyA", auth, renew, h.RemoveMapping)

	router.Get(session+"/compare/objects/:objectType", auth, renew, h.CompareObjectType)
	router.Get(session+"/compare/custom/:keyA/:keyB", auth, renew, h.CompareCustomObjects)
	router.Post(session+"/compare/properties", auth, renew, h.CompareProperties)
	router.Get(session+"/compare/associations/:fromObject/:toObject", auth, renew, h.CompareAssociations)

	router.Post(session+"/cache/refresh", auth, renew, h.RefreshCache)
	router.Get(session+"/cache", auth, renew, h.CacheStatus)
}

// CreateSession validates both tokens, opens a session and returns its
// bearer token. The token is also set as an HTTP-only cookie.
func (h *ComparisonHTTPHandler) CreateSession(c *fiber.Ctx) error {
	var req CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body").WithCause(err)
	}
	if appErr := h.validator.Struct(&req); appErr != nil {
		return appErr
	}

	sess, err := h.sessions.CreateSession(c.UserContext(), usecase.CreateSessionInput{
		PortalAName:  req.PortalA.Name,
		PortalAToken: req.PortalA.Token,
		PortalBName:  req.PortalB.Name,
		PortalBToken: req.PortalB.Token,
	})
	if err != nil {
		return err
	}

	token, err := h.tokens.GenerateToken(sess.ID)
	if err != nil {
		return apperrors.NewInternalError("failed to issue session token").WithCause(err)
	}
	h.setCookie(c, token, h.tokens.TTL())

	return c.Status(fiber.StatusCreated).JSON(newSessionResponse(sess, token, h.tokens.TTL()))
}

// GetSession returns the session without credentials.
func (h *ComparisonHTTPHandler) GetSession(c *fiber.Ctx) error {
	sess, err := h.sessions.GetSession(c.UserContext(), c.Params("sessionID"))
	if err != nil {
		return err
	}
	return c.JSON(SessionResponse{Session: sess})
}

// DeleteSession ends the session and clears the cookie.
func (h *ComparisonHTTPHandler) DeleteSession(c *fiber.Ctx) error {
	if err := h.sessions.DeleteSession(c.UserContext(), c.Params("sessionID")); err != nil {
		return err
	}
	c.Response().Header.Del(HeaderSessionToken)
	h.setCookie(c, "", -time.Hour)
	return c.SendStatus(fiber.StatusNoContent)
}

// renewToken re-issues the session token in the cookie and in the
// X-Session-Token header before the route runs.
func (h *ComparisonHTTPHandler) renewToken(c *fiber.Ctx) error {
	token, err := h.tokens.GenerateToken(c.Params("sessionID"))
	if err != nil {
		return apperrors.NewInternalError("failed to issue session token").WithCause(err)
	}
	c.Set(HeaderSessionToken, token)
	h.setCookie(c, token, h.tokens.TTL())
	return c.Next()
}

// ListObjects returns both object catalogs.
func (h *ComparisonHTTPHandler) ListObjects(c *fiber.Ctx) error {
	catalog, err := h.comparisons.ListObjects(c.UserContext(), c.Params("sessionID"))
	if err != nil {
		return err
	}
	return c.JSON(catalog)
}

// GetMappings returns the mapping and what is still unmatched.
func (h *ComparisonHTTPHandler) GetMappings(c *fiber.Ctx) error {
	overview, err := h.comparisons.MatchingOverview(c.UserContext(), c.Params("sessionID"))
	if err != nil {
		return err
	}
	return c.JSON(overview)
}

// AutoMatch runs the name matcher over custom objects.
func (h *ComparisonHTTPHandler) AutoMatch(c *fiber.Ctx) error {
	res, err := h.comparisons.AutoMatchCustomObjects(c.UserContext(), c.Params("sessionID"))
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// SetMapping stores a manual mapping for :keyA.
func (h *ComparisonHTTPHandler) SetMapping(c *fiber.Ctx) error {
	var req SetMappingRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body").WithCause(err)
	}
	if appErr := h.validator.Struct(&req); appErr != nil {
		return appErr
	}

	keyA := c.Params("keyA")
	if err := h.sessions.SetCustomMapping(c.UserContext(), c.Params("sessionID"), keyA, req.KeyB); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"key_a": keyA, "key_b": req.KeyB, "source": model.MappingSourceManual})
}

// RemoveMapping deletes the mapping of :keyA.
func (h *ComparisonHTTPHandler) RemoveMapping(c *fiber.Ctx) error {
	if err := h.sessions.RemoveCustomMapping(c.UserContext(), c.Params("sessionID"), c.Params("keyA")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CompareObjectType compares all properties of :objectType.
func (h *ComparisonHTTPHandler) CompareObjectType(c *fiber.Ctx) error {
	result, err := h.comparisons.CompareObjectType(c.UserContext(), c.Params("sessionID"), c.Params("objectType"))
	return h.respond(c, result, err)
}

// CompareCustomObjects compares two mapped custom objects.
func (h *ComparisonHTTPHandler) CompareCustomObjects(c *fiber.Ctx) error {
	result, err := h.comparisons.CompareCustomObjects(c.UserContext(), c.Params("sessionID"), c.Params("keyA"), c.Params("keyB"))
	return h.respond(c, result, err)
}

// CompareProperties compares two individual properties.
func (h *ComparisonHTTPHandler) CompareProperties(c *fiber.Ctx) error {
	var req ComparePropertiesRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body").WithCause(err)
	}
	if appErr := h.validator.Struct(&req); appErr != nil {
		return appErr
	}

	result, err := h.comparisons.CompareProperties(c.UserContext(), c.Params("sessionID"), req.RefA, req.RefB)
	return h.respond(c, result, err)
}

// CompareAssociations compares the association types of an object pair.
func (h *ComparisonHTTPHandler) CompareAssociations(c *fiber.Ctx) error {
	result, err := h.comparisons.CompareAssociations(c.UserContext(), c.Params("sessionID"), c.Params("fromObject"), c.Params("toObject"))
	return h.respond(c, result, err)
}

// RefreshCache marks cached snapshots stale, or re-fetches one object type
// right away with ?eager=true.
func (h *ComparisonHTTPHandler) RefreshCache(c *fiber.Ctx) error {
	objectType := c.Query("object_type")
	eager := c.QueryBool("eager", false)

	n, err := h.sessions.RefreshCache(c.UserContext(), c.Params("sessionID"), objectType, eager)
	if err != nil {
		return err
	}
	return c.JSON(RefreshResponse{Refreshed: n, ObjectType: objectType, Eager: eager && objectType != ""})
}

// CacheStatus lists the cached entities of the session.
func (h *ComparisonHTTPHandler) CacheStatus(c *fiber.Ctx) error {
	status, err := h.sessions.CacheStatus(c.UserContext(), c.Params("sessionID"))
	if err != nil {
		return err
	}
	return c.JSON(status)
}

func (h *ComparisonHTTPHandler) respond(c *fiber.Ctx, result *model.ComparisonResult, err error) error {
	if err != nil {
		return err
	}
	opts, err := filterOptions(c)
	if err != nil {
		return err
	}
	filtered, err := h.comparisons.Filter(result, opts)
	if err != nil {
		return err
	}
	return c.JSON(filtered)
}

// filterOptions reads ?status=different,only_in_a&hide_identical=true&filter=<cel>.
func filterOptions(c *fiber.Ctx) (service.FilterOptions, error) {
	opts := service.FilterOptions{
		HideIdentical: c.QueryBool("hide_identical", false),
		Expression:    strings.TrimSpace(c.Query("filter")),
	}
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status := model.DiffStatus(strings.TrimSpace(part))
			if !status.Valid() {
				return opts, apperrors.NewValidationError("unknown status: " + string(status)).WithCode("INVALID_STATUS")
			}
			opts.Statuses = append(opts.Statuses, status)
		}
	}
	return opts, nil
}

func (h *ComparisonHTTPHandler) setCookie(c *fiber.Ctx, token string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		Secure:   h.cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cookie.SameSite,
	})
}
