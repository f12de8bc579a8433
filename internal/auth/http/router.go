package http

import (
	"net/http"
	"strconv"
	"time"

	"tokengate/internal/auth/domain"
	"tokengate/internal/auth/service"
	commonhttp "tokengate/internal/common/http"
	"tokengate/internal/common/logger"
)

const refreshCookieName = "refresh_token"

type HandlerConfig struct {
	RequestTimeout  time.Duration
	RefreshTokenTTL time.Duration
}

type Handler struct {
	auth   *service.AuthService
	errors *commonhttp.ErrorHandler
	log    *logger.Logger
	config HandlerConfig
}

func NewHandler(auth *service.AuthService, log *logger.Logger, config HandlerConfig) *Handler {
	return &Handler{
		auth:   auth,
		errors: commonhttp.NewErrorHandler(log),
		log:    log,
		config: config,
	}
}

func (h *Handler) Register(mux *http.ServeMux, limiter *commonhttp.StrictRateLimiter) {
	post := commonhttp.RequireMethod(http.MethodPost)
	timeout := commonhttp.WithTimeout(h.config.RequestTimeout)

	register := func(path string, handler http.HandlerFunc) {
		mux.Handle(path, limiter.MiddlewareForPath(path)(handler))
	}

	register("/api/auth/login", post(timeout(h.handleLogin)))
	register("/api/auth/refresh", post(timeout(h.handleRefresh)))
	mux.HandleFunc("/health", commonhttp.HealthHandler(h.log))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		commonhttp.WriteErrorEnvelope(w, http.StatusBadRequest, commonhttp.CodeInvalidJSON, "invalid request body", nil, "")
		return
	}

	pair, err := h.auth.Authenticate(r.Context(), req.Email, req.Password, sessionMetadataFromRequest(r))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	h.writeTokenPair(w, pair)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := refreshTokenFromRequest(r)
	if refreshToken == "" {
		commonhttp.WriteErrorEnvelope(w, http.StatusBadRequest, commonhttp.CodeMissingRefreshToken, "refresh token is required", nil, "")
		return
	}

	pair, err := h.auth.Refresh(r.Context(), refreshToken, sessionMetadataFromRequest(r))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	h.writeTokenPair(w, pair)
}

// writeTokenPair sends the tokens and forbids caching them anywhere along
// the way.
func (h *Handler) writeTokenPair(w http.ResponseWriter, pair service.TokenPair) {
	h.setRefreshCookie(w, pair.RefreshToken)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	commonhttp.WriteJSON(w, http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// refreshTokenFromRequest prefers the JSON body and falls back to the
// cookie set on a previous response.
func refreshTokenFromRequest(r *http.Request) string {
	var req refreshRequest
	if err := commonhttp.DecodeJSON(r, &req); err == nil && req.RefreshToken != "" {
		return req.RefreshToken
	}
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func (h *Handler) setRefreshCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     "/api/auth",
		MaxAge:   int(h.config.RefreshTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// sessionMetadataFromRequest collects device and geo attributes forwarded
// by the edge proxy. Absent headers leave zero values; nothing here is
// trusted for authorization decisions.
func sessionMetadataFromRequest(r *http.Request) domain.SessionMetadata {
	asn, _ := strconv.Atoi(r.Header.Get("X-Client-ASN"))

	return domain.SessionMetadata{
		UserAgent:      r.UserAgent(),
		LastIP:         commonhttp.GetClientIP(r),
		ASN:            asn,
		ASOrganization: r.Header.Get("X-Client-AS-Organization"),
		Timezone:       r.Header.Get("X-Client-Timezone"),
		Continent:      r.Header.Get("X-Client-Continent"),
		Country:        r.Header.Get("X-Client-Country"),
		Region:         r.Header.Get("X-Client-Region"),
		RegionCode:     r.Header.Get("X-Client-Region-Code"),
		City:           r.Header.Get("X-Client-City"),
		PostalCode:     r.Header.Get("X-Client-Postal-Code"),
		Longitude:      r.Header.Get("X-Client-Longitude"),
		Latitude:       r.Header.Get("X-Client-Latitude"),
	}
}
