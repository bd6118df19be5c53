package model

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

const redacted = "[REDACTED]"

// Credential is an opaque access token for one portal. Every formatting and
// encoding path redacts the secret; only Reveal returns it.
type Credential struct {
	secret string
}

// NewCredential wraps a raw access token.
func NewCredential(secret string) Credential {
	return Credential{secret: secret}
}

// Reveal returns the raw secret. Only the fetch adapter should call it.
func (c Credential) Reveal() string {
	return c.secret
}

// IsZero reports whether the credential carries no secret.
func (c Credential) IsZero() bool {
	return c.secret == ""
}

func (c Credential) String() string {
	return redacted
}

func (c Credential) GoString() string {
	return "model.Credential{" + redacted + "}"
}

func (c Credential) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

func (c Credential) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

// Fingerprint returns a short BLAKE2b digest of the secret, stable for the
// process lifetime and safe to log.
func (c Credential) Fingerprint() string {
	if c.secret == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(c.secret))
	return hex.EncodeToString(sum[:6])
}

// Portal identifies one side of a comparison.
type Portal string

const (
	PortalA Portal = "a"
	PortalB Portal = "b"
)

// Valid reports whether p names one of the two compared portals.
func (p Portal) Valid() bool {
	return p == PortalA || p == PortalB
}

// Other returns the opposite side.
func (p Portal) Other() Portal {
	if p == PortalA {
		return PortalB
	}
	return PortalA
}

// PortalRef is the credential handle and display name of one portal.
type PortalRef struct {
	Name        string     `json:"name"`
	Credential  Credential `json:"-"`
	Fingerprint string     `json:"fingerprint"`
}

// NewPortalRef builds a PortalRef and derives its fingerprint.
func NewPortalRef(name string, cred Credential) PortalRef {
	return PortalRef{
		Name:        name,
		Credential:  cred,
		Fingerprint: cred.Fingerprint(),
	}
}
