package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tokengate/internal/common/clock"
	"tokengate/internal/common/crypto"
	commonerrors "tokengate/internal/common/errors"
	"tokengate/internal/observability/metrics"
)

// TokenIssuer mints short-lived signed access tokens. It holds the only
// reference to the signing secret in the service layer.
type TokenIssuer struct {
	secret   []byte
	resolver ClaimsResolver
	gen      crypto.IDGenerator
	clk      clock.Clock
	ttl      time.Duration
}

func NewTokenIssuer(
	secret []byte,
	resolver ClaimsResolver,
	gen crypto.IDGenerator,
	clk clock.Clock,
	ttl time.Duration,
) *TokenIssuer {
	return &TokenIssuer{
		secret:   secret,
		resolver: resolver,
		gen:      gen,
		clk:      clk,
		ttl:      ttl,
	}
}

func (i *TokenIssuer) IssueAccessToken(ctx context.Context, userID string) (string, error) {
	claims, err := i.resolver.ResolveClaims(ctx, userID)
	if err != nil {
		return "", commonerrors.ErrInternalError.WithCause(err)
	}

	jti, err := i.gen.NewID()
	if err != nil {
		return "", commonerrors.ErrInternalError.WithCause(err)
	}

	now := i.clk.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":          userID,
		"roles":       claims.Roles,
		"permissions": claims.Permissions,
		"exp":         now.Add(i.ttl).Unix(),
		"iat":         now.Unix(),
		"jti":         jti,
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", commonerrors.ErrInternalError.WithCause(err)
	}

	metrics.AccessTokensIssued.Inc()
	return signed, nil
}
