package domain

import (
	"time"

	"tokengate/internal/common/clock"
	"tokengate/internal/common/constants"
	"tokengate/internal/common/crypto"
	commonerrors "tokengate/internal/common/errors"
)

// SessionMetadata carries opaque device and network attributes recorded
// alongside a token. Nothing here is validated; values pass through from
// the transport layer and are replaced wholesale on each refresh.
type SessionMetadata struct {
	UserAgent      string
	LastIP         string
	ASN            int
	ASOrganization string
	Timezone       string
	Continent      string
	Country        string
	Region         string
	RegionCode     string
	City           string
	PostalCode     string
	Longitude      string
	Latitude       string
}

// Token is a persisted session credential. ID is the lookup key, Value is
// the bearer secret presented by the client; the two are independent and
// both default to freshly generated values.
type Token struct {
	ID     string
	UserID string
	Value  string

	// Code and CodeAttempts are reserved for out-of-band verification
	// flows and stay zero for refresh tokens.
	Code         string
	CodeAttempts int

	Metadata SessionMetadata

	// IsEmailToken marks a token minted for a non-refresh purpose. Such
	// tokens must never be accepted as refresh credentials.
	IsEmailToken bool

	// ExpiresAt is the optional deadline; the zero value means none.
	ExpiresAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TokenParams enumerates every permitted field of a Token. Construction
// goes through NewToken so defaults are computed per call and the expiry
// invariant runs over the fully assembled value.
type TokenParams struct {
	ID           string
	UserID       string
	Value        string
	Code         string
	CodeAttempts int
	Metadata     SessionMetadata
	IsEmailToken bool
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewToken builds a Token from params. A non-zero ExpiresAt strictly before
// the current clock reading fails with ErrInvalidToken: expiration is
// checked once at minting or reconstruction, never lazily on reads.
func NewToken(p TokenParams, gen crypto.IDGenerator, clk clock.Clock) (Token, error) {
	now := clk.Now()

	if !p.ExpiresAt.IsZero() && p.ExpiresAt.Before(now) {
		return Token{}, commonerrors.ErrInvalidToken
	}

	id := p.ID
	if id == "" {
		generated, err := gen.NewID()
		if err != nil {
			return Token{}, err
		}
		id = generated
	}

	value := p.Value
	if value == "" {
		generated, err := gen.NewSecret(constants.TokenSecretBytes)
		if err != nil {
			return Token{}, err
		}
		value = generated
	}

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	return Token{
		ID:           id,
		UserID:       p.UserID,
		Value:        value,
		Code:         p.Code,
		CodeAttempts: p.CodeAttempts,
		Metadata:     p.Metadata,
		IsEmailToken: p.IsEmailToken,
		ExpiresAt:    p.ExpiresAt,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}
