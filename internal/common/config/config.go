package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"tokengate/internal/common/constants"
	commonerrors "tokengate/internal/common/errors"
)

type AuthConfig struct {
	HTTPPort    string
	DatabaseURL string

	// JWTSecret signs access tokens; JWTExpiration is their lifetime.
	JWTSecret     string
	JWTExpiration time.Duration

	// RefreshTokenExpiration is the lifetime of a freshly minted refresh
	// token. When RenewRefreshTokenExpiration is set, each successful
	// refresh pushes the deadline out by the same amount; otherwise the
	// original deadline is kept.
	RefreshTokenExpiration      time.Duration
	RenewRefreshTokenExpiration bool

	RequestTimeout time.Duration

	CircuitBreakerThreshold int32
	CircuitBreakerTimeout   time.Duration
	CircuitBreakerReset     time.Duration
}

func LoadAuthConfig() (AuthConfig, error) {
	jwtSecret, err := mustEnv("JWT_SECRET")
	if err != nil {
		return AuthConfig{}, err
	}

	if err := validateJWTSecret(jwtSecret); err != nil {
		return AuthConfig{}, err
	}

	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return AuthConfig{}, err
	}

	jwtExpirationMinutes := getIntEnv("JWT_EXPIRATION_MINUTES", constants.DefaultAccessTokenTTLMinutes)
	refreshExpirationDays := getIntEnv("REFRESH_TOKEN_EXPIRATION_DAYS", constants.DefaultRefreshTokenTTLDays)

	return AuthConfig{
		HTTPPort:                    getEnv("AUTH_HTTP_PORT", constants.DefaultAuthHTTPPort),
		DatabaseURL:                 databaseURL,
		JWTSecret:                   jwtSecret,
		JWTExpiration:               time.Duration(jwtExpirationMinutes) * time.Minute,
		RefreshTokenExpiration:      time.Duration(refreshExpirationDays) * 24 * time.Hour,
		RenewRefreshTokenExpiration: getBoolEnv("RENEW_REFRESH_TOKEN_EXPIRATION", false),
		RequestTimeout:              getDurationEnv("AUTH_REQUEST_TIMEOUT", constants.DefaultAuthRequestTimeout),
		CircuitBreakerThreshold:     int32(getIntEnv("CIRCUIT_BREAKER_THRESHOLD", constants.DefaultCircuitBreakerThreshold)),
		CircuitBreakerTimeout:       getDurationEnv("CIRCUIT_BREAKER_TIMEOUT", constants.DefaultCircuitBreakerTimeout),
		CircuitBreakerReset:         getDurationEnv("CIRCUIT_BREAKER_RESET", constants.DefaultCircuitBreakerReset),
	}, nil
}

func validateJWTSecret(secret string) error {
	if len(secret) < constants.JWTSecretMinLength {
		return fmt.Errorf("%w: got %d bytes", commonerrors.ErrInvalidJWTSecret, len(secret))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func mustEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", commonerrors.ErrMissingRequiredEnv, key)
	}
	return v, nil
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getIntEnv(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getBoolEnv(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
