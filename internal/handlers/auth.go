package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Zllawi/bassmaStore/internal/platform/auth"
	"github.com/Zllawi/bassmaStore/internal/platform/httpx"
	"github.com/Zllawi/bassmaStore/internal/services"
)

const refreshCookieName = "rt"

// AuthMiddleware narrows the auth middleware surface the handlers mount.
type AuthMiddleware interface {
	RequireAuth() func(http.Handler) http.Handler
	RequireRole(roles ...string) func(http.Handler) http.Handler
}

// AuthHandlers exposes registration, login, and token refresh endpoints.
type AuthHandlers struct {
	users         services.UserService
	guard         AuthMiddleware
	secureCookies bool
}

// NewAuthHandlers constructs the authentication handler set. secureCookies
// should be true whenever the API is served over TLS.
func NewAuthHandlers(users services.UserService, guard AuthMiddleware, secureCookies bool) *AuthHandlers {
	return &AuthHandlers{users: users, guard: guard, secureCookies: secureCookies}
}

// Routes registers the auth endpoints.
func (h *AuthHandlers) Routes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/refresh", h.refresh)
	r.Post("/forgot", h.forgot)
	r.Post("/reset", h.reset)

	r.Group(func(protected chi.Router) {
		protected.Use(h.guard.RequireAuth())
		protected.Post("/logout", h.logout)
	})
}

type registerRequest struct {
	Name               string `json:"name"`
	Email              string `json:"email"`
	Password           string `json:"password"`
	Phone              string `json:"phone"`
	City               string `json:"city"`
	Region             string `json:"region"`
	AddressDescription string `json:"addressDescription"`
}

type authResponse struct {
	User        userPayload `json:"user"`
	AccessToken string      `json:"accessToken"`
}

func (h *AuthHandlers) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.users == nil {
		httpx.WriteError(ctx, w, httpx.NewError("auth_unavailable", "authentication service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req registerRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	result, err := h.users.Register(ctx, services.RegisterCommand{
		Name:               req.Name,
		Email:              req.Email,
		Password:           req.Password,
		Phone:              req.Phone,
		City:               req.City,
		Region:             req.Region,
		AddressDescription: req.AddressDescription,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	h.setRefreshCookie(w, result)
	writeJSON(w, http.StatusCreated, authResponse{User: buildUserPayload(result.User), AccessToken: result.AccessToken})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.users == nil {
		httpx.WriteError(ctx, w, httpx.NewError("auth_unavailable", "authentication service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req loginRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	result, err := h.users.Login(ctx, services.LoginCommand{Email: req.Email, Password: req.Password})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	h.setRefreshCookie(w, result)
	writeJSON(w, http.StatusOK, authResponse{User: buildUserPayload(result.User), AccessToken: result.AccessToken})
}

func (h *AuthHandlers) refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.users == nil {
		httpx.WriteError(ctx, w, httpx.NewError("auth_unavailable", "authentication service is unavailable", http.StatusServiceUnavailable))
		return
	}

	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_refresh_token", "refresh cookie is missing", http.StatusUnauthorized))
		return
	}

	result, err := h.users.Refresh(ctx, cookie.Value)
	if err != nil {
		h.clearRefreshCookie(w)
		writeServiceError(ctx, w, err)
		return
	}

	h.setRefreshCookie(w, result)
	writeJSON(w, http.StatusOK, authResponse{User: buildUserPayload(result.User), AccessToken: result.AccessToken})
}

func (h *AuthHandlers) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	if err := h.users.Logout(ctx, identity.UserID); err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	h.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// forgot acknowledges the request without sending anything. Password recovery
// was never wired to a mail provider.
func (h *AuthHandlers) forgot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	_ = decodeJSONBody(r, &req)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AuthHandlers) reset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	_ = decodeJSONBody(r, &req)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AuthHandlers) setRefreshCookie(w http.ResponseWriter, result services.AuthResult) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    result.RefreshToken,
		Path:     "/api/v1/auth",
		MaxAge:   int(result.RefreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandlers) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/api/v1/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}
