package service

import (
	"context"
	"errors"
	"time"

	"tokengate/internal/auth/domain"
	"tokengate/internal/auth/repository"
	"tokengate/internal/common/clock"
	"tokengate/internal/common/crypto"
	commonerrors "tokengate/internal/common/errors"
	"tokengate/internal/common/logger"
	"tokengate/internal/common/resilience"
	"tokengate/internal/observability/metrics"
)

// TokenPair is the result of a successful authentication or refresh: a
// signed access token and the opaque refresh token value.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type AuthServiceConfig struct {
	RefreshTokenTTL             time.Duration
	RenewRefreshTokenExpiration bool
}

// AuthService owns the two credential flows: exchanging email and password
// for a token pair, and exchanging a refresh token for a renewed pair.
type AuthService struct {
	users    repository.UserRepository
	tokens   repository.TokenRepository
	verifier *PasswordVerifier
	issuer   *TokenIssuer
	gen      crypto.IDGenerator
	clk      clock.Clock
	breaker  resilience.CircuitBreakerInterface
	log      *logger.Logger
	config   AuthServiceConfig
}

func NewAuthService(
	users repository.UserRepository,
	tokens repository.TokenRepository,
	verifier *PasswordVerifier,
	issuer *TokenIssuer,
	gen crypto.IDGenerator,
	clk clock.Clock,
	breaker resilience.CircuitBreakerInterface,
	log *logger.Logger,
	config AuthServiceConfig,
) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		verifier: verifier,
		issuer:   issuer,
		gen:      gen,
		clk:      clk,
		breaker:  breaker,
		log:      log,
		config:   config,
	}
}

// Authenticate verifies the email and password and, only when both check
// out, mints a fresh token pair and persists the refresh token. An unknown
// email and a wrong password produce the same error; nothing is persisted
// on any failure path.
func (s *AuthService) Authenticate(
	ctx context.Context,
	rawEmail string,
	rawPassword string,
	metadata domain.SessionMetadata,
) (TokenPair, error) {
	email, err := domain.NewEmail(rawEmail)
	if err != nil {
		return TokenPair{}, err
	}

	password, err := domain.NewPassword(rawPassword)
	if err != nil {
		return TokenPair{}, err
	}

	var user domain.User
	err = s.breaker.Call(ctx, func(ctx context.Context) error {
		found, err := s.users.FindByEmail(ctx, email.String())
		if err != nil {
			return err
		}
		user = found
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			metrics.AuthFailures.Inc()
			s.log.WithFields(ctx, logger.Fields{"action": "authenticate"}).
				Warn("credential verification failed")
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, mapInfrastructureError(err)
	}

	if !s.verifier.IsValid(password.String(), user.PasswordHash) {
		metrics.AuthFailures.Inc()
		s.log.WithFields(ctx, logger.Fields{"action": "authenticate"}).
			Warn("credential verification failed")
		return TokenPair{}, ErrInvalidCredentials
	}

	accessToken, err := s.issuer.IssueAccessToken(ctx, string(user.ID))
	if err != nil {
		return TokenPair{}, err
	}

	refreshToken, err := domain.NewToken(domain.TokenParams{
		UserID:    string(user.ID),
		Metadata:  metadata,
		ExpiresAt: s.clk.Now().Add(s.config.RefreshTokenTTL),
	}, s.gen, s.clk)
	if err != nil {
		return TokenPair{}, err
	}

	err = s.breaker.Call(ctx, func(ctx context.Context) error {
		return s.tokens.Save(ctx, refreshToken)
	})
	if err != nil {
		return TokenPair{}, mapInfrastructureError(err)
	}

	metrics.RefreshTokensIssued.Inc()
	s.log.WithFields(ctx, logger.Fields{
		"action":  "authenticate",
		"user_id": refreshToken.UserID,
	}).Info("token pair issued")

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken.Value,
	}, nil
}

// Refresh exchanges a stored refresh token for a new access token. The
// refresh token keeps its identity and secret value; only its metadata,
// and optionally its expiration, are rewritten. A token minted for email
// verification is rejected the same way as an unknown one.
func (s *AuthService) Refresh(
	ctx context.Context,
	refreshValue string,
	metadata domain.SessionMetadata,
) (TokenPair, error) {
	if refreshValue == "" {
		metrics.RefreshTokensRejected.Inc()
		return TokenPair{}, ErrInvalidRefreshToken
	}

	var stored domain.Token
	err := s.breaker.Call(ctx, func(ctx context.Context) error {
		found, err := s.tokens.FindByValue(ctx, refreshValue)
		if err != nil {
			return err
		}
		stored = found
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			metrics.RefreshTokensRejected.Inc()
			s.log.WithFields(ctx, logger.Fields{"action": "refresh"}).
				Warn("refresh token rejected")
			return TokenPair{}, ErrInvalidRefreshToken
		}
		return TokenPair{}, mapInfrastructureError(err)
	}

	if stored.IsEmailToken {
		metrics.RefreshTokensRejected.Inc()
		s.log.WithFields(ctx, logger.Fields{"action": "refresh"}).
			Warn("refresh token rejected")
		return TokenPair{}, ErrInvalidRefreshToken
	}

	expiresAt := stored.ExpiresAt
	if s.config.RenewRefreshTokenExpiration {
		expiresAt = s.clk.Now().Add(s.config.RefreshTokenTTL)
	}

	updated, err := domain.NewToken(domain.TokenParams{
		ID:        stored.ID,
		UserID:    stored.UserID,
		Value:     stored.Value,
		Metadata:  metadata,
		ExpiresAt: expiresAt,
		CreatedAt: stored.CreatedAt,
	}, s.gen, s.clk)
	if err != nil {
		if errors.Is(err, commonerrors.ErrInvalidToken) {
			metrics.RefreshTokensRejected.Inc()
			s.log.WithFields(ctx, logger.Fields{
				"action":  "refresh",
				"user_id": stored.UserID,
			}).Warn("refresh token expired")
		}
		return TokenPair{}, err
	}

	accessToken, err := s.issuer.IssueAccessToken(ctx, stored.UserID)
	if err != nil {
		return TokenPair{}, err
	}

	if s.config.RenewRefreshTokenExpiration {
		metrics.RefreshTokensRenewed.Inc()
	}

	err = s.breaker.Call(ctx, func(ctx context.Context) error {
		return s.tokens.Save(ctx, updated)
	})
	if err != nil {
		return TokenPair{}, mapInfrastructureError(err)
	}

	metrics.RefreshTokensUsed.Inc()
	s.log.WithFields(ctx, logger.Fields{
		"action":  "refresh",
		"user_id": updated.UserID,
	}).Info("access token refreshed")

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: updated.Value,
	}, nil
}
