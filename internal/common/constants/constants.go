package constants

import "time"

const (
	PasswordMinLength  = 8
	PasswordMaxLength  = 72
	EmailMaxLength     = 254
	JWTSecretMinLength = 32

	// TokenSecretBytes is the entropy of a bearer secret; hex encoding
	// doubles it to a 128-character string.
	TokenSecretBytes = 64

	DefaultMaxRequestSize = 1 << 20

	TokenCleanupInterval = time.Hour

	RateLimitCleanupInterval = 10 * time.Minute

	RateLimitLoginRequestsPerSecond   = 1.0
	RateLimitLoginBurst               = 5
	RateLimitRefreshRequestsPerSecond = 2.0
	RateLimitRefreshBurst             = 10
	RateLimitGeneralRequestsPerSecond = 10.0
	RateLimitGeneralBurst             = 20

	ServerReadHeaderTimeout = 5 * time.Second
	ServerReadTimeout       = 10 * time.Second
	ServerWriteTimeout      = 30 * time.Second
	ServerIdleTimeout       = 120 * time.Second

	ShutdownTimeout = 30 * time.Second
	DrainTimeout    = 10 * time.Second

	DefaultAuthHTTPPort = "8081"

	DefaultCircuitBreakerThreshold = 500
	DefaultCircuitBreakerTimeout   = 15 * time.Second
	DefaultCircuitBreakerReset     = 10 * time.Second

	DefaultAuthRequestTimeout = 5 * time.Second

	DefaultAccessTokenTTLMinutes = 15
	DefaultRefreshTokenTTLDays   = 30

	DBPoolMetricsInterval = 30 * time.Second
	DBQueryTimeout        = 5 * time.Second

	DBPoolMaxConns          = 25
	DBPoolMinConns          = 5
	DBPoolMaxConnLifetime   = time.Hour
	DBPoolMaxConnIdleTime   = 30 * time.Minute
	DBPoolHealthCheckPeriod = time.Minute
	DBConnectTimeout        = 5 * time.Second
	DBConnectAttempts       = 10
	DBConnectRetryDelay     = time.Second

	LoggerMaxSize    = 100
	LoggerMaxBackups = 3
	LoggerMaxAge     = 28
)

type TraceIDKeyType string

const TraceIDKey TraceIDKeyType = "trace_id"
