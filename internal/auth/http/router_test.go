package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tokengate/internal/auth/domain"
	"tokengate/internal/auth/repository"
	"tokengate/internal/auth/service"
	"tokengate/internal/common/clock"
	commonhttp "tokengate/internal/common/http"
	"tokengate/internal/common/logger"
)

type stubUserRepository struct {
	user domain.User
}

func (r *stubUserRepository) FindByEmail(_ context.Context, email string) (domain.User, error) {
	if email != r.user.Email {
		return domain.User{}, repository.ErrUserNotFound
	}
	return r.user, nil
}

type stubTokenRepository struct {
	stored map[string]domain.Token
}

func (r *stubTokenRepository) FindByValue(_ context.Context, value string) (domain.Token, error) {
	token, ok := r.stored[value]
	if !ok {
		return domain.Token{}, repository.ErrTokenNotFound
	}
	return token, nil
}

func (r *stubTokenRepository) Save(_ context.Context, token domain.Token) error {
	r.stored[token.Value] = token
	return nil
}

func (r *stubTokenRepository) DeleteExpired(_ context.Context) (int64, error) {
	return 0, nil
}

type stubHasher struct {
	password string
}

func (h *stubHasher) Hash(_ string) (string, error) {
	return "", nil
}

func (h *stubHasher) Compare(_ string, password string) error {
	if password != h.password {
		return bcrypt.ErrMismatchedHashAndPassword
	}
	return nil
}

type stubIDGenerator struct {
	counter int
}

func (g *stubIDGenerator) NewID() (string, error) {
	g.counter++
	return "id-" + strings.Repeat("0", g.counter), nil
}

func (g *stubIDGenerator) NewSecret(_ int) (string, error) {
	g.counter++
	return "secret-" + strings.Repeat("0", g.counter), nil
}

type directBreaker struct{}

func (directBreaker) Call(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func newTestHandler(t *testing.T) (*Handler, *stubTokenRepository) {
	t.Helper()

	log, err := logger.New("", "test", "CRITICAL")
	if err != nil {
		t.Fatalf("failed to build logger: %v", err)
	}

	users := &stubUserRepository{user: domain.User{
		ID:           "user-1",
		Email:        "user@example.com",
		PasswordHash: "stored-hash",
		IsActive:     true,
	}}
	tokens := &stubTokenRepository{stored: make(map[string]domain.Token)}
	gen := &stubIDGenerator{}
	clk := clock.NewMockClock(time.Now())

	issuer := service.NewTokenIssuer(
		[]byte("0123456789abcdef0123456789abcdef"),
		service.NewStaticClaimsResolver(),
		gen,
		clk,
		15*time.Minute,
	)

	auth := service.NewAuthService(
		users,
		tokens,
		service.NewPasswordVerifier(&stubHasher{password: "password-123"}),
		issuer,
		gen,
		clk,
		directBreaker{},
		log,
		service.AuthServiceConfig{RefreshTokenTTL: 30 * 24 * time.Hour},
	)

	handler := NewHandler(auth, log, HandlerConfig{
		RequestTimeout:  5 * time.Second,
		RefreshTokenTTL: 30 * 24 * time.Hour,
	})
	return handler, tokens
}

func newTestMux(t *testing.T) (*http.ServeMux, *stubTokenRepository) {
	t.Helper()
	handler, tokens := newTestHandler(t)
	mux := http.NewServeMux()
	handler.Register(mux, commonhttp.NewStrictRateLimiter())
	return mux, tokens
}

func doLogin(t *testing.T, mux *http.ServeMux, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestLoginSuccess(t *testing.T) {
	mux, tokens := newTestMux(t)

	rec := doLogin(t, mux, `{"email":"user@example.com","password":"password-123"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp tokenPairResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Errorf("expected both tokens in response, got %+v", resp)
	}

	if _, ok := tokens.stored[resp.RefreshToken]; !ok {
		t.Error("expected refresh token persisted under its value")
	}

	cookie := findCookie(rec.Result().Cookies(), "refresh_token")
	if cookie == nil {
		t.Fatal("expected refresh_token cookie")
	}
	if cookie.Value != resp.RefreshToken {
		t.Errorf("cookie value %q does not match response token %q", cookie.Value, resp.RefreshToken)
	}
	if !cookie.HttpOnly {
		t.Error("expected HttpOnly refresh cookie")
	}

	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Error("token responses must not be cacheable")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doLogin(t, mux, `{"email":"user@example.com","password":"wrong-password"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestLoginUnknownEmailSameStatusAsWrongPassword(t *testing.T) {
	mux, _ := newTestMux(t)

	unknown := doLogin(t, mux, `{"email":"nobody@example.com","password":"password-123"}`)
	wrong := doLogin(t, mux, `{"email":"user@example.com","password":"wrong-password"}`)

	if unknown.Code != wrong.Code {
		t.Errorf("status codes differ: %d vs %d", unknown.Code, wrong.Code)
	}
	if unknown.Body.String() != wrong.Body.String() {
		t.Errorf("response bodies differ: %q vs %q", unknown.Body.String(), wrong.Body.String())
	}
}

func TestLoginRejectsMalformedJSON(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doLogin(t, mux, `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLoginMethodNotAllowed(t *testing.T) {
	mux, _ := newTestMux(t)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/login", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestRefreshWithBody(t *testing.T) {
	mux, _ := newTestMux(t)

	login := doLogin(t, mux, `{"email":"user@example.com","password":"password-123"}`)
	var loginResp tokenPairResponse
	if err := json.Unmarshal(login.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}

	body := `{"refreshToken":"` + loginResp.RefreshToken + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp tokenPairResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode refresh response: %v", err)
	}
	if resp.RefreshToken != loginResp.RefreshToken {
		t.Errorf("refresh must return the same token value: got %q, want %q", resp.RefreshToken, loginResp.RefreshToken)
	}
	if resp.AccessToken == "" {
		t.Error("expected a new access token")
	}
}

func TestRefreshWithCookieFallback(t *testing.T) {
	mux, _ := newTestMux(t)

	login := doLogin(t, mux, `{"email":"user@example.com","password":"password-123"}`)
	cookie := findCookie(login.Result().Cookies(), "refresh_token")
	if cookie == nil {
		t.Fatal("expected refresh_token cookie from login")
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(`{}`))
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRefreshMissingToken(t *testing.T) {
	mux, _ := newTestMux(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRefreshUnknownToken(t *testing.T) {
	mux, _ := newTestMux(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(`{"refreshToken":"no-such-token"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSessionMetadataFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.Header.Set("User-Agent", "cli/1.0")
	req.Header.Set("X-Real-IP", "203.0.113.7")
	req.Header.Set("X-Client-ASN", "64512")
	req.Header.Set("X-Client-Country", "DE")
	req.Header.Set("X-Client-City", "Hamburg")

	metadata := sessionMetadataFromRequest(req)

	if metadata.UserAgent != "cli/1.0" {
		t.Errorf("unexpected user agent %q", metadata.UserAgent)
	}
	if metadata.LastIP != "203.0.113.7" {
		t.Errorf("unexpected ip %q", metadata.LastIP)
	}
	if metadata.ASN != 64512 {
		t.Errorf("unexpected ASN %d", metadata.ASN)
	}
	if metadata.Country != "DE" || metadata.City != "Hamburg" {
		t.Errorf("unexpected geo attributes: %+v", metadata)
	}
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}
