package http

import (
	"reflect"
	"strings"
	"time"

	"portal-compare/internal/comparison/domain/model"
	"portal-compare/internal/comparison/usecase"
	apperrors "portal-compare/internal/shared/errors"

	"github.com/go-playground/validator/v10"
)

// PortalInput names a portal and carries its private app token.
type PortalInput struct {
	Name  string `json:"name" validate:"max=100"`
	Token string `json:"token" validate:"required,min=8,max=512"`
}

// CreateSessionRequest opens a comparison session.
type CreateSessionRequest struct {
	PortalA PortalInput `json:"portal_a"`
	PortalB PortalInput `json:"portal_b"`
}

// SetMappingRequest maps a portal A custom object to a portal B one.
type SetMappingRequest struct {
	KeyB string `json:"key_b" validate:"required,max=64"`
}

// ComparePropertiesRequest names the two properties to compare. Each ref may
// point at either portal.
type ComparePropertiesRequest struct {
	RefA usecase.PropertyRef `json:"ref_a"`
	RefB usecase.PropertyRef `json:"ref_b"`
}

// SessionResponse is the public view of a session. Credentials never leave
// the process; only names and fingerprints do.
type SessionResponse struct {
	Session   *model.Session `json:"session"`
	Token     string         `json:"token,omitempty"`
	ExpiresIn int64          `json:"expires_in,omitempty"`
}

// RefreshResponse reports how many cache entries were invalidated.
type RefreshResponse struct {
	Refreshed  int    `json:"refreshed"`
	ObjectType string `json:"object_type,omitempty"`
	Eager      bool   `json:"eager"`
}

func newSessionResponse(sess *model.Session, token string, ttl time.Duration) SessionResponse {
	return SessionResponse{Session: sess, Token: token, ExpiresIn: int64(ttl.Seconds())}
}

// requestValidator wraps validator.Validate and reports JSON field names.
type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() *requestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &requestValidator{validate: v}
}

// Struct validates s and converts failures to a validation AppError.
func (rv *requestValidator) Struct(s interface{}) *apperrors.AppError {
	err := rv.validate.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewValidationError("invalid request").WithCause(err)
	}

	out := apperrors.NewValidationErrors()
	for _, fe := range verrs {
		// Namespace starts with the Go type name of the request.
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		out.Add(field, validationMessage(fe), nil)
	}
	return out.ToAppError()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	default:
		return fe.Field() + " is invalid"
	}
}
