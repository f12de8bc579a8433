package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tokengate/internal/auth/domain"
	"tokengate/internal/auth/repository"
	commonerrors "tokengate/internal/common/errors"
	"tokengate/internal/common/jwtverify"
)

func knownUser() domain.User {
	return domain.User{
		ID:           "user-1",
		Email:        "user@example.com",
		PasswordHash: "$2a$12$stored-hash",
		IsActive:     true,
	}
}

func TestAuthenticateSuccess(t *testing.T) {
	deps := defaultTestDeps()
	deps.users.findByEmail = func(_ context.Context, email string) (domain.User, error) {
		if email != "user@example.com" {
			t.Errorf("expected normalized email, got %q", email)
		}
		return knownUser(), nil
	}

	var saved domain.Token
	deps.tokens.save = func(_ context.Context, token domain.Token) error {
		saved = token
		return nil
	}

	svc := newTestService(deps)
	metadata := domain.SessionMetadata{UserAgent: "cli/1.0", LastIP: "10.0.0.1"}

	pair, err := svc.Authenticate(context.Background(), " User@Example.COM ", "password-123", metadata)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if pair.AccessToken == "" {
		t.Error("expected non-empty access token")
	}
	if pair.RefreshToken != saved.Value {
		t.Errorf("returned refresh token %q does not match persisted value %q", pair.RefreshToken, saved.Value)
	}

	if saved.UserID != "user-1" {
		t.Errorf("expected persisted token for user-1, got %q", saved.UserID)
	}
	if saved.Metadata != metadata {
		t.Errorf("expected metadata persisted, got %+v", saved.Metadata)
	}

	wantExpiry := deps.clk.Now().Add(deps.config.RefreshTokenTTL)
	if !saved.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("expected expiry %v, got %v", wantExpiry, saved.ExpiresAt)
	}
}

func TestAuthenticateAccessTokenClaims(t *testing.T) {
	deps := defaultTestDeps()
	deps.users.findByEmail = func(_ context.Context, _ string) (domain.User, error) {
		return knownUser(), nil
	}
	deps.clk.SetTime(time.Now())

	svc := newTestService(deps)

	pair, err := svc.Authenticate(context.Background(), "user@example.com", "password-123", domain.SessionMetadata{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := jwtverify.ParseToken(pair.AccessToken, []byte(testJWTSecret))
	if err != nil {
		t.Fatalf("access token failed verification: %v", err)
	}

	if claims.UserID != "user-1" {
		t.Errorf("expected id claim user-1, got %q", claims.UserID)
	}
	if len(claims.Roles) != 2 || claims.Roles[0] != "admin" || claims.Roles[1] != "moderator" {
		t.Errorf("unexpected roles claim: %v", claims.Roles)
	}
	if len(claims.Permissions) != 1 || claims.Permissions[0] != "read_user" {
		t.Errorf("unexpected permissions claim: %v", claims.Permissions)
	}
}

func TestAuthenticateUnknownEmailAndWrongPasswordIndistinguishable(t *testing.T) {
	unknownDeps := defaultTestDeps()
	unknownDeps.users.findByEmail = func(_ context.Context, _ string) (domain.User, error) {
		return domain.User{}, repository.ErrUserNotFound
	}

	wrongDeps := defaultTestDeps()
	wrongDeps.users.findByEmail = func(_ context.Context, _ string) (domain.User, error) {
		return knownUser(), nil
	}
	wrongDeps.hasher.compare = func(_ string, _ string) error {
		return bcrypt.ErrMismatchedHashAndPassword
	}

	_, errUnknown := newTestService(unknownDeps).
		Authenticate(context.Background(), "nobody@example.com", "password-123", domain.SessionMetadata{})
	_, errWrong := newTestService(wrongDeps).
		Authenticate(context.Background(), "user@example.com", "wrong-password", domain.SessionMetadata{})

	if !errors.Is(errUnknown, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", errUnknown)
	}
	if !errors.Is(errWrong, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", errWrong)
	}
	if errUnknown.Error() != errWrong.Error() {
		t.Errorf("failure modes are distinguishable: %q vs %q", errUnknown, errWrong)
	}
}

func TestAuthenticateFailurePersistsNothing(t *testing.T) {
	deps := defaultTestDeps()
	deps.users.findByEmail = func(_ context.Context, _ string) (domain.User, error) {
		return knownUser(), nil
	}
	deps.hasher.compare = func(_ string, _ string) error {
		return bcrypt.ErrMismatchedHashAndPassword
	}

	saveCalled := false
	deps.tokens.save = func(_ context.Context, _ domain.Token) error {
		saveCalled = true
		return nil
	}

	_, err := newTestService(deps).
		Authenticate(context.Background(), "user@example.com", "wrong-password", domain.SessionMetadata{})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if saveCalled {
		t.Error("failed authentication must not persist a token")
	}
}

func TestAuthenticateRejectsMalformedInputBeforeLookup(t *testing.T) {
	deps := defaultTestDeps()
	lookupCalled := false
	deps.users.findByEmail = func(_ context.Context, _ string) (domain.User, error) {
		lookupCalled = true
		return domain.User{}, repository.ErrUserNotFound
	}
	svc := newTestService(deps)

	if _, err := svc.Authenticate(context.Background(), "not-an-email", "password-123", domain.SessionMetadata{}); !errors.Is(err, domain.ErrInvalidEmail) {
		t.Errorf("expected ErrInvalidEmail, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "user@example.com", "short", domain.SessionMetadata{}); !errors.Is(err, domain.ErrInvalidPassword) {
		t.Errorf("expected ErrInvalidPassword, got %v", err)
	}
	if lookupCalled {
		t.Error("malformed credentials must not reach the repository")
	}
}

func TestAuthenticateCircuitOpenMapsToServiceUnavailable(t *testing.T) {
	deps := defaultTestDeps()
	deps.breaker = &failingBreaker{err: commonerrors.ErrCircuitOpen}

	_, err := newTestService(deps).
		Authenticate(context.Background(), "user@example.com", "password-123", domain.SessionMetadata{})
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
}

func storedRefreshToken(deps *testServiceDeps) domain.Token {
	return domain.Token{
		ID:        "token-1",
		UserID:    "user-1",
		Value:     "stored-value",
		Metadata:  domain.SessionMetadata{UserAgent: "old-agent", LastIP: "10.0.0.1", City: "Hamburg"},
		ExpiresAt: deps.clk.Now().Add(72 * time.Hour),
		CreatedAt: deps.clk.Now().Add(-24 * time.Hour),
		UpdatedAt: deps.clk.Now().Add(-24 * time.Hour),
	}
}

func TestRefreshKeepsIdentityAndSecret(t *testing.T) {
	deps := defaultTestDeps()
	stored := storedRefreshToken(deps)
	deps.tokens.findByValue = func(_ context.Context, value string) (domain.Token, error) {
		if value != stored.Value {
			t.Errorf("expected lookup by presented value, got %q", value)
		}
		return stored, nil
	}

	var saved domain.Token
	deps.tokens.save = func(_ context.Context, token domain.Token) error {
		saved = token
		return nil
	}

	newMetadata := domain.SessionMetadata{UserAgent: "new-agent", LastIP: "10.0.0.2", City: "Berlin"}

	pair, err := newTestService(deps).Refresh(context.Background(), stored.Value, newMetadata)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if pair.RefreshToken != stored.Value {
		t.Errorf("refresh must not rotate the secret: got %q, want %q", pair.RefreshToken, stored.Value)
	}
	if saved.ID != stored.ID {
		t.Errorf("expected same token id, got %q", saved.ID)
	}
	if saved.UserID != stored.UserID {
		t.Errorf("expected same user id, got %q", saved.UserID)
	}
	if !saved.CreatedAt.Equal(stored.CreatedAt) {
		t.Errorf("expected CreatedAt preserved, got %v", saved.CreatedAt)
	}
	if saved.Metadata != newMetadata {
		t.Errorf("expected metadata replaced wholesale, got %+v", saved.Metadata)
	}
	if !saved.ExpiresAt.Equal(stored.ExpiresAt) {
		t.Errorf("expiry must be unchanged when renewal is off: got %v, want %v", saved.ExpiresAt, stored.ExpiresAt)
	}
}

func TestRefreshRenewsExpirationWhenConfigured(t *testing.T) {
	deps := defaultTestDeps()
	deps.config.RenewRefreshTokenExpiration = true
	stored := storedRefreshToken(deps)
	deps.tokens.findByValue = func(_ context.Context, _ string) (domain.Token, error) {
		return stored, nil
	}

	var saved domain.Token
	deps.tokens.save = func(_ context.Context, token domain.Token) error {
		saved = token
		return nil
	}

	if _, err := newTestService(deps).Refresh(context.Background(), stored.Value, domain.SessionMetadata{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantExpiry := deps.clk.Now().Add(deps.config.RefreshTokenTTL)
	if !saved.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("expected extended expiry %v, got %v", wantExpiry, saved.ExpiresAt)
	}
}

func TestRefreshRejectsUnknownToken(t *testing.T) {
	deps := defaultTestDeps()
	deps.tokens.findByValue = func(_ context.Context, _ string) (domain.Token, error) {
		return domain.Token{}, repository.ErrTokenNotFound
	}

	_, err := newTestService(deps).Refresh(context.Background(), "no-such-value", domain.SessionMetadata{})
	if !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestRefreshRejectsEmailToken(t *testing.T) {
	deps := defaultTestDeps()
	stored := storedRefreshToken(deps)
	stored.IsEmailToken = true
	deps.tokens.findByValue = func(_ context.Context, _ string) (domain.Token, error) {
		return stored, nil
	}

	saveCalled := false
	deps.tokens.save = func(_ context.Context, _ domain.Token) error {
		saveCalled = true
		return nil
	}

	_, err := newTestService(deps).Refresh(context.Background(), stored.Value, domain.SessionMetadata{})
	if !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
	if saveCalled {
		t.Error("rejected refresh must not persist anything")
	}
}

func TestRefreshRejectsExpiredToken(t *testing.T) {
	deps := defaultTestDeps()
	stored := storedRefreshToken(deps)
	deps.tokens.findByValue = func(_ context.Context, _ string) (domain.Token, error) {
		return stored, nil
	}

	saveCalled := false
	deps.tokens.save = func(_ context.Context, _ domain.Token) error {
		saveCalled = true
		return nil
	}

	// The stored deadline passes before the refresh arrives.
	deps.clk.Advance(100 * time.Hour)

	_, err := newTestService(deps).Refresh(context.Background(), stored.Value, domain.SessionMetadata{})
	if !errors.Is(err, commonerrors.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if saveCalled {
		t.Error("expired refresh must not persist anything")
	}
}

func TestRefreshRejectsEmptyValue(t *testing.T) {
	deps := defaultTestDeps()
	lookupCalled := false
	deps.tokens.findByValue = func(_ context.Context, _ string) (domain.Token, error) {
		lookupCalled = true
		return domain.Token{}, repository.ErrTokenNotFound
	}

	_, err := newTestService(deps).Refresh(context.Background(), "", domain.SessionMetadata{})
	if !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
	if lookupCalled {
		t.Error("empty value must not reach the repository")
	}
}

func TestRefreshCircuitOpenMapsToServiceUnavailable(t *testing.T) {
	deps := defaultTestDeps()
	deps.breaker = &failingBreaker{err: commonerrors.ErrCircuitOpen}

	_, err := newTestService(deps).Refresh(context.Background(), "stored-value", domain.SessionMetadata{})
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
}
