package security

import (
	"errors"
	"time"

	"portal-compare/internal/comparison/config"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenInvalid          = errors.New("token is invalid")
	ErrTokenExpired          = errors.New("token is expired")
	ErrTokenSignatureInvalid = errors.New("token signature is invalid")
)

// SessionClaims binds a bearer token to one comparison session. The subject
// is the session id.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// SessionID returns the session the token was issued for.
func (c *SessionClaims) SessionID() string {
	return c.Subject
}

// SessionTokenService issues and validates HS256 session tokens.
type SessionTokenService struct {
	secretKey []byte
	issuer    string
	ttl       time.Duration
	now       func() time.Time
}

// NewSessionTokenService creates a token service from the module config.
func NewSessionTokenService(cfg *config.Config) (*SessionTokenService, error) {
	if cfg.SessionSigningKey == "" {
		return nil, errors.New("session signing key cannot be empty")
	}
	if cfg.SessionIssuer == "" {
		return nil, errors.New("session issuer cannot be empty")
	}
	if cfg.SessionTTL <= 0 {
		return nil, errors.New("session TTL must be positive")
	}

	return &SessionTokenService{
		secretKey: []byte(cfg.SessionSigningKey),
		issuer:    cfg.SessionIssuer,
		ttl:       cfg.SessionTTL,
		now:       time.Now,
	}, nil
}

// SetClock replaces time.Now, mostly for tests.
func (s *SessionTokenService) SetClock(now func() time.Time) {
	s.now = now
}

// TTL is the lifetime of issued tokens.
func (s *SessionTokenService) TTL() time.Duration {
	return s.ttl
}

// GenerateToken issues a token for sessionID. The session store still decides
// whether the session is alive.
func (s *SessionTokenService) GenerateToken(sessionID string) (string, error) {
	if sessionID == "" {
		return "", errors.New("session id cannot be empty")
	}
	now := s.now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// ValidateToken checks signature, issuer and lifetime of a token.
func (s *SessionTokenService) ValidateToken(tokenString string) (*SessionClaims, error) {
	if tokenString == "" {
		return nil, ErrTokenInvalid
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenSignatureInvalid
		}
		return s.secretKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(s.now))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, ErrTokenSignatureInvalid):
			return nil, ErrTokenSignatureInvalid
		default:
			return nil, ErrTokenInvalid
		}
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
