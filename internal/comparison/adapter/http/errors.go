package http

import (
	"errors"

	"portal-compare/internal/comparison/adapter/security"
	"portal-compare/internal/comparison/domain/model"
	apperrors "portal-compare/internal/shared/errors"

	"github.com/gofiber/fiber/v2"
)

const component = "comparison-http"

// toAppError maps domain errors onto transport errors. Order matters: an
// invalid reference may wrap an upstream "not found".
func toAppError(err error) *apperrors.AppError {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}

	var appErr *apperrors.AppError
	switch {
	case errors.Is(err, model.ErrSessionNotFound):
		appErr = apperrors.NewNotFoundError("session").WithCode("SESSION_NOT_FOUND")
	case errors.Is(err, model.ErrUnmappedCustomObject):
		appErr = apperrors.NewConflictError(err.Error()).WithCode("UNMAPPED_CUSTOM_OBJECT")
	case errors.Is(err, model.ErrInvalidReference):
		appErr = apperrors.NewAppError(apperrors.ErrorTypeNotFound, err.Error(), fiber.StatusNotFound).WithCode("INVALID_REFERENCE")
		var ref *model.InvalidReferenceError
		if errors.As(err, &ref) {
			appErr.WithDetail("portal", string(ref.Portal)).WithDetail("object_type", ref.ObjectType)
			if ref.Property != "" {
				appErr.WithDetail("property", ref.Property)
			}
		}
	case errors.Is(err, model.ErrInvalidFilter):
		appErr = apperrors.NewValidationError(err.Error()).WithCode("INVALID_FILTER")
	case errors.Is(err, model.ErrInvalidMapping):
		appErr = apperrors.NewValidationError(err.Error()).WithCode("INVALID_MAPPING")
	case errors.Is(err, model.ErrUpstreamAuth):
		appErr = apperrors.NewUpstreamError("portal rejected the access token").WithCode("UPSTREAM_AUTH")
	case errors.Is(err, model.ErrRateLimited):
		appErr = apperrors.NewRateLimitedError("portal rate limit exceeded").WithCode("UPSTREAM_RATE_LIMITED")
	case errors.Is(err, model.ErrUpstreamNotFound):
		appErr = apperrors.NewUpstreamError("portal resource not found").WithCode("UPSTREAM_NOT_FOUND")
	case errors.Is(err, model.ErrTransport):
		appErr = apperrors.NewUpstreamError("portal is unreachable").WithCode("UPSTREAM_TRANSPORT")
	case errors.Is(err, security.ErrTokenExpired):
		appErr = apperrors.NewAuthenticationError("session token expired").WithCode("TOKEN_EXPIRED")
	case errors.Is(err, security.ErrTokenInvalid), errors.Is(err, security.ErrTokenSignatureInvalid):
		appErr = apperrors.NewAuthenticationError("invalid session token").WithCode("TOKEN_INVALID")
	default:
		appErr = apperrors.NewInternalError("internal server error")
	}

	var upstream *model.UpstreamFetchError
	if errors.As(err, &upstream) {
		appErr.WithDetail("portal", string(upstream.Portal)).WithDetail("operation", upstream.Operation)
		if upstream.PortalName != "" {
			appErr.WithDetail("portal_name", upstream.PortalName)
		}
	}
	return appErr.WithCause(err).WithComponent(component)
}

// ErrorHandler is the fiber error handler of the service. It renders every
// error as {"error": AppError}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"error": apperrors.NewAppError(httpErrorType(fe.Code), fe.Message, fe.Code),
		})
	}
	appErr := toAppError(err)
	return c.Status(appErr.HTTPCode).JSON(fiber.Map{"error": appErr})
}

func httpErrorType(code int) apperrors.ErrorType {
	switch code {
	case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
		return apperrors.ErrorTypeNotFound
	case fiber.StatusUnauthorized:
		return apperrors.ErrorTypeAuthentication
	case fiber.StatusTooManyRequests:
		return apperrors.ErrorTypeRateLimited
	default:
		if code >= 500 {
			return apperrors.ErrorTypeInternal
		}
		return apperrors.ErrorTypeValidation
	}
}
