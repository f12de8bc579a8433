package bootstrap

import (
	"os"

	"github.com/jackc/pgx/v4/pgxpool"

	authhttp "tokengate/internal/auth/http"
	"tokengate/internal/auth/repository"
	"tokengate/internal/auth/service"
	"tokengate/internal/common/clock"
	"tokengate/internal/common/config"
	"tokengate/internal/common/constants"
	"tokengate/internal/common/crypto"
	"tokengate/internal/common/db"
	"tokengate/internal/common/logger"
	"tokengate/internal/common/resilience"
)

// App holds the assembled auth service and the shared infrastructure it
// runs on. Close releases the database pool.
type App struct {
	Log     *logger.Logger
	Config  config.AuthConfig
	Pool    *pgxpool.Pool
	Tokens  repository.TokenRepository
	Auth    *service.AuthService
	Handler *authhttp.Handler
}

func NewAuthApp(serviceName string) (*App, error) {
	log, err := logger.New(os.Getenv("LOG_DIR"), serviceName, os.Getenv("LOG_LEVEL"))
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadAuthConfig()
	if err != nil {
		return nil, err
	}

	pool := db.NewPool(log, cfg.DatabaseURL)
	db.StartPoolMetrics(pool, constants.DBPoolMetricsInterval)

	users := repository.NewPgUserRepository(pool)
	tokens := repository.NewPgTokenRepository(pool, log)

	clk := clock.NewRealClock()
	gen := crypto.NewUUIDGenerator()
	verifier := service.NewPasswordVerifier(&crypto.BcryptHasher{})

	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Threshold:  cfg.CircuitBreakerThreshold,
		Timeout:    cfg.CircuitBreakerTimeout,
		ResetAfter: cfg.CircuitBreakerReset,
		Name:       "auth_db",
		Logger:     log,
	})

	issuer := service.NewTokenIssuer(
		[]byte(cfg.JWTSecret),
		service.NewStaticClaimsResolver(),
		gen,
		clk,
		cfg.JWTExpiration,
	)

	auth := service.NewAuthService(
		users,
		tokens,
		verifier,
		issuer,
		gen,
		clk,
		breaker,
		log,
		service.AuthServiceConfig{
			RefreshTokenTTL:             cfg.RefreshTokenExpiration,
			RenewRefreshTokenExpiration: cfg.RenewRefreshTokenExpiration,
		},
	)

	handler := authhttp.NewHandler(auth, log, authhttp.HandlerConfig{
		RequestTimeout:  cfg.RequestTimeout,
		RefreshTokenTTL: cfg.RefreshTokenExpiration,
	})

	return &App{
		Log:     log,
		Config:  cfg,
		Pool:    pool,
		Tokens:  tokens,
		Auth:    auth,
		Handler: handler,
	}, nil
}

func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}
