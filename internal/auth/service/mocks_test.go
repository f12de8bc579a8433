package service

import (
	"context"
	"time"

	"tokengate/internal/auth/domain"
	"tokengate/internal/auth/repository"
	"tokengate/internal/common/clock"
	"tokengate/internal/common/logger"
	"tokengate/internal/common/resilience"
)

type mockUserRepository struct {
	findByEmail func(ctx context.Context, email string) (domain.User, error)
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return m.findByEmail(ctx, email)
}

type mockTokenRepository struct {
	findByValue func(ctx context.Context, value string) (domain.Token, error)
	save        func(ctx context.Context, token domain.Token) error
}

func (m *mockTokenRepository) FindByValue(ctx context.Context, value string) (domain.Token, error) {
	return m.findByValue(ctx, value)
}

func (m *mockTokenRepository) Save(ctx context.Context, token domain.Token) error {
	return m.save(ctx, token)
}

func (m *mockTokenRepository) DeleteExpired(_ context.Context) (int64, error) {
	return 0, nil
}

type mockHasher struct {
	compare func(hash string, password string) error
}

func (m *mockHasher) Hash(_ string) (string, error) {
	return "", nil
}

func (m *mockHasher) Compare(hash string, password string) error {
	return m.compare(hash, password)
}

type mockIDGenerator struct {
	id     string
	secret string
}

func (m *mockIDGenerator) NewID() (string, error) {
	return m.id, nil
}

func (m *mockIDGenerator) NewSecret(_ int) (string, error) {
	return m.secret, nil
}

// passthroughBreaker runs calls directly so tests exercise the service
// logic, not the breaker.
type passthroughBreaker struct{}

func (passthroughBreaker) Call(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type failingBreaker struct {
	err error
}

func (b *failingBreaker) Call(_ context.Context, _ func(context.Context) error) error {
	return b.err
}

const testJWTSecret = "0123456789abcdef0123456789abcdef"

type testServiceDeps struct {
	users   *mockUserRepository
	tokens  *mockTokenRepository
	hasher  *mockHasher
	gen     *mockIDGenerator
	clk     *clock.MockClock
	breaker resilience.CircuitBreakerInterface
	config  AuthServiceConfig
}

func defaultTestDeps() *testServiceDeps {
	return &testServiceDeps{
		users: &mockUserRepository{
			findByEmail: func(_ context.Context, _ string) (domain.User, error) {
				return domain.User{}, repository.ErrUserNotFound
			},
		},
		tokens: &mockTokenRepository{
			findByValue: func(_ context.Context, _ string) (domain.Token, error) {
				return domain.Token{}, repository.ErrTokenNotFound
			},
			save: func(_ context.Context, _ domain.Token) error {
				return nil
			},
		},
		hasher: &mockHasher{
			compare: func(_ string, _ string) error {
				return nil
			},
		},
		gen:     &mockIDGenerator{id: "generated-id", secret: "generated-secret"},
		clk:     clock.NewMockClock(time.Now()),
		breaker: passthroughBreaker{},
		config: AuthServiceConfig{
			RefreshTokenTTL:             30 * 24 * time.Hour,
			RenewRefreshTokenExpiration: false,
		},
	}
}

func newTestService(deps *testServiceDeps) *AuthService {
	log, _ := logger.New("", "test", "CRITICAL")

	issuer := NewTokenIssuer(
		[]byte(testJWTSecret),
		NewStaticClaimsResolver(),
		deps.gen,
		deps.clk,
		15*time.Minute,
	)

	return NewAuthService(
		deps.users,
		deps.tokens,
		NewPasswordVerifier(deps.hasher),
		issuer,
		deps.gen,
		deps.clk,
		deps.breaker,
		log,
		deps.config,
	)
}
