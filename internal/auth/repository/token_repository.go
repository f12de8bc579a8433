package repository

import (
	"context"
	"time"

	pgx "github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"tokengate/internal/auth/domain"
	"tokengate/internal/common/db"
	"tokengate/internal/common/logger"
)

type TokenRepository interface {
	FindByValue(ctx context.Context, value string) (domain.Token, error)
	// Save is an idempotent upsert keyed by token id. Concurrent saves on
	// the same id resolve last-write-wins.
	Save(ctx context.Context, token domain.Token) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type PgTokenRepository struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

func NewPgTokenRepository(pool *pgxpool.Pool, log *logger.Logger) *PgTokenRepository {
	return &PgTokenRepository{pool: pool, log: log}
}

func (r *PgTokenRepository) FindByValue(ctx context.Context, value string) (domain.Token, error) {
	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		`SELECT id, user_id, value, code, code_attempts,
		        user_agent, last_ip, asn, as_organization, timezone,
		        continent, country, region, region_code, city,
		        postal_code, longitude, latitude,
		        is_email_token, expires_at, created_at, updated_at
		 FROM tokens
		 WHERE value = $1`,
		value,
	)

	var token domain.Token
	var expiresAt *time.Time
	err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.Value,
		&token.Code,
		&token.CodeAttempts,
		&token.Metadata.UserAgent,
		&token.Metadata.LastIP,
		&token.Metadata.ASN,
		&token.Metadata.ASOrganization,
		&token.Metadata.Timezone,
		&token.Metadata.Continent,
		&token.Metadata.Country,
		&token.Metadata.Region,
		&token.Metadata.RegionCode,
		&token.Metadata.City,
		&token.Metadata.PostalCode,
		&token.Metadata.Longitude,
		&token.Metadata.Latitude,
		&token.IsEmailToken,
		&expiresAt,
		&token.CreatedAt,
		&token.UpdatedAt,
	)
	if err := db.HandleQueryError(err, ErrTokenNotFound, "find token by value", start); err != nil {
		return domain.Token{}, err
	}
	if expiresAt != nil {
		token.ExpiresAt = *expiresAt
	}
	return token, nil
}

func (r *PgTokenRepository) Save(ctx context.Context, token domain.Token) error {
	start := time.Now()

	var expiresAt *time.Time
	if !token.ExpiresAt.IsZero() {
		t := token.ExpiresAt
		expiresAt = &t
	}

	// The upsert is idempotent, so transient connection failures are safe
	// to retry here.
	err := db.RetryWithBackoff(ctx, r.log, db.DefaultRetryConfig, func() error {
		_, err := r.pool.Exec(
			ctx,
			`INSERT INTO tokens (id, user_id, value, code, code_attempts,
			                     user_agent, last_ip, asn, as_organization, timezone,
			                     continent, country, region, region_code, city,
			                     postal_code, longitude, latitude,
			                     is_email_token, expires_at, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			         $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
			 ON CONFLICT (id) DO UPDATE SET
			     user_id = EXCLUDED.user_id,
			     value = EXCLUDED.value,
			     code = EXCLUDED.code,
			     code_attempts = EXCLUDED.code_attempts,
			     user_agent = EXCLUDED.user_agent,
			     last_ip = EXCLUDED.last_ip,
			     asn = EXCLUDED.asn,
			     as_organization = EXCLUDED.as_organization,
			     timezone = EXCLUDED.timezone,
			     continent = EXCLUDED.continent,
			     country = EXCLUDED.country,
			     region = EXCLUDED.region,
			     region_code = EXCLUDED.region_code,
			     city = EXCLUDED.city,
			     postal_code = EXCLUDED.postal_code,
			     longitude = EXCLUDED.longitude,
			     latitude = EXCLUDED.latitude,
			     is_email_token = EXCLUDED.is_email_token,
			     expires_at = EXCLUDED.expires_at,
			     updated_at = EXCLUDED.updated_at`,
			token.ID,
			token.UserID,
			token.Value,
			token.Code,
			token.CodeAttempts,
			token.Metadata.UserAgent,
			token.Metadata.LastIP,
			token.Metadata.ASN,
			token.Metadata.ASOrganization,
			token.Metadata.Timezone,
			token.Metadata.Continent,
			token.Metadata.Country,
			token.Metadata.Region,
			token.Metadata.RegionCode,
			token.Metadata.City,
			token.Metadata.PostalCode,
			token.Metadata.Longitude,
			token.Metadata.Latitude,
			token.IsEmailToken,
			expiresAt,
			token.CreatedAt,
			token.UpdatedAt,
		)
		return err
	})
	return db.HandleExecError(err, "save token", start)
}

func (r *PgTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	start := time.Now()
	res, err := r.pool.Exec(
		ctx,
		`DELETE FROM tokens WHERE expires_at IS NOT NULL AND expires_at < NOW()`,
	)
	if err != nil {
		return 0, db.HandleExecError(err, "delete expired tokens", start)
	}
	db.MeasureQueryDuration("delete expired tokens", start)
	return res.RowsAffected(), nil
}

var ErrTokenNotFound = pgx.ErrNoRows
