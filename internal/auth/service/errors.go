package service

import (
	"errors"
	"net/http"

	commonerrors "tokengate/internal/common/errors"
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password. The two failure modes must stay indistinguishable to the
	// caller.
	ErrInvalidCredentials = commonerrors.NewDomainError(
		"INVALID_CREDENTIALS",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"invalid email or password",
	)

	// ErrInvalidRefreshToken covers an unknown refresh token value and a
	// token minted for a different purpose, again indistinguishably.
	ErrInvalidRefreshToken = commonerrors.NewDomainError(
		"INVALID_REFRESH_TOKEN",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"invalid token",
	)

	ErrServiceUnavailable = commonerrors.NewDomainError(
		"SERVICE_UNAVAILABLE",
		commonerrors.CategoryExternal,
		http.StatusServiceUnavailable,
		"service temporarily unavailable",
	)
)

func mapInfrastructureError(err error) error {
	if errors.Is(err, commonerrors.ErrCircuitOpen) {
		return ErrServiceUnavailable.WithCause(err)
	}
	return err
}
