package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"tokengate/internal/common/constants"
	"tokengate/internal/common/logger"
)

// NewPool connects to the user and token store. Startup blocks until the
// database answers or the attempt budget runs out; the service is useless
// without it.
func NewPool(log *logger.Logger, databaseURL string) *pgxpool.Pool {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		log.Fatalf("failed to parse database url: %v", err)
	}

	cfg.MaxConns = constants.DBPoolMaxConns
	cfg.MinConns = constants.DBPoolMinConns
	cfg.MaxConnLifetime = constants.DBPoolMaxConnLifetime
	cfg.MaxConnIdleTime = constants.DBPoolMaxConnIdleTime
	cfg.HealthCheckPeriod = constants.DBPoolHealthCheckPeriod
	cfg.ConnConfig.ConnectTimeout = constants.DBConnectTimeout
	cfg.ConnConfig.RuntimeParams = map[string]string{
		"application_name": "tokengate",
	}

	for attempt := 1; attempt <= constants.DBConnectAttempts; attempt++ {
		pool, err := pgxpool.ConnectConfig(context.Background(), cfg)
		if err == nil {
			log.Infof("database connection pool initialized: max=%d, min=%d", cfg.MaxConns, cfg.MinConns)
			return pool
		}

		log.Warnf("failed to connect to database (attempt %d/%d): %v", attempt, constants.DBConnectAttempts, err)

		if attempt < constants.DBConnectAttempts {
			time.Sleep(constants.DBConnectRetryDelay)
		}
	}

	log.Fatalf("failed to connect to database after %d attempts", constants.DBConnectAttempts)
	return nil
}
