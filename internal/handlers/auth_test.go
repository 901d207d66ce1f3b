package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/Zllawi/bassmaStore/internal/domain"
	"github.com/Zllawi/bassmaStore/internal/platform/auth"
	"github.com/Zllawi/bassmaStore/internal/services"
)

func newAuthRouter(users services.UserService, guard AuthMiddleware) chi.Router {
	if guard == nil {
		guard = &fakeGuard{}
	}
	r := chi.NewRouter()
	r.Route("/api/v1/auth", NewAuthHandlers(users, guard, false).Routes)
	return r
}

func sampleAuthResult() services.AuthResult {
	return services.AuthResult{
		User: domain.User{
			ID:    "user-1",
			Name:  "Amira",
			Email: "amira@example.com",
			Role:  domain.RoleUser,
		},
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		RefreshTTL:   7 * 24 * time.Hour,
	}
}

func refreshCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == refreshCookieName {
			return cookie
		}
	}
	t.Fatal("refresh cookie not set")
	return nil
}

func TestRegisterSetsRefreshCookie(t *testing.T) {
	users := &stubUserService{
		registerFn: func(_ context.Context, cmd services.RegisterCommand) (services.AuthResult, error) {
			if cmd.Email != "amira@example.com" {
				t.Fatalf("email = %q", cmd.Email)
			}
			return sampleAuthResult(), nil
		},
	}
	router := newAuthRouter(users, nil)

	body := `{"name":"Amira","email":"amira@example.com","password":"hunter2"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	cookie := refreshCookie(t, rec)
	if cookie.Value != "refresh-token" || !cookie.HttpOnly {
		t.Fatalf("cookie = %+v", cookie)
	}
	if cookie.MaxAge != int((7 * 24 * time.Hour).Seconds()) {
		t.Fatalf("cookie MaxAge = %d", cookie.MaxAge)
	}

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload["accessToken"] != "access-token" {
		t.Fatalf("payload = %+v", payload)
	}
	if _, ok := payload["user"]; !ok {
		t.Fatalf("payload missing user: %+v", payload)
	}
}

func TestRegisterValidationErrorListsFields(t *testing.T) {
	users := &stubUserService{
		registerFn: func(context.Context, services.RegisterCommand) (services.AuthResult, error) {
			vErr := &services.ValidationError{}
			vErr.Add("name", "must be at least 2 characters")
			vErr.Add("email", "must be a valid email address")
			return services.AuthResult{}, vErr
		},
	}
	router := newAuthRouter(users, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`{"name":"x"}`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var payload struct {
		Error  string              `json:"error"`
		Fields []map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload.Error != "validation_failed" || len(payload.Fields) != 2 {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestRegisterDuplicateEmailConflict(t *testing.T) {
	users := &stubUserService{
		registerFn: func(context.Context, services.RegisterCommand) (services.AuthResult, error) {
			return services.AuthResult{}, services.ErrEmailTaken
		},
	}
	router := newAuthRouter(users, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`{"email":"x@y.z"}`)))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	users := &stubUserService{
		loginFn: func(context.Context, services.LoginCommand) (services.AuthResult, error) {
			return services.AuthResult{}, services.ErrInvalidCredentials
		},
	}
	router := newAuthRouter(users, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"a@b.c","password":"nope"}`)))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRefreshRequiresCookie(t *testing.T) {
	users := &stubUserService{
		refreshFn: func(context.Context, string) (services.AuthResult, error) {
			t.Fatal("refresh should not be called without a cookie")
			return services.AuthResult{}, nil
		},
	}
	router := newAuthRouter(users, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRefreshRotatesCookie(t *testing.T) {
	result := sampleAuthResult()
	result.RefreshToken = "rotated-token"
	users := &stubUserService{
		refreshFn: func(_ context.Context, token string) (services.AuthResult, error) {
			if token != "old-token" {
				t.Fatalf("token = %q", token)
			}
			return result, nil
		},
	}
	router := newAuthRouter(users, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: "old-token"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	if cookie := refreshCookie(t, rec); cookie.Value != "rotated-token" {
		t.Fatalf("cookie = %+v", cookie)
	}
}

func TestRefreshRevokedTokenClearsCookie(t *testing.T) {
	users := &stubUserService{
		refreshFn: func(context.Context, string) (services.AuthResult, error) {
			return services.AuthResult{}, services.ErrInvalidRefreshToken
		},
	}
	router := newAuthRouter(users, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: "revoked"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if cookie := refreshCookie(t, rec); cookie.MaxAge != -1 {
		t.Fatalf("cookie not cleared: %+v", cookie)
	}
}

func TestLogoutBumpsTokenVersion(t *testing.T) {
	var loggedOut string
	users := &stubUserService{
		logoutFn: func(_ context.Context, userID string) error {
			loggedOut = userID
			return nil
		},
	}
	guard := &fakeGuard{identity: &auth.Identity{UserID: "user-1", Role: auth.RoleUser}}
	router := newAuthRouter(users, guard)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if loggedOut != "user-1" {
		t.Fatalf("loggedOut = %q", loggedOut)
	}
	if cookie := refreshCookie(t, rec); cookie.MaxAge != -1 {
		t.Fatalf("cookie not cleared: %+v", cookie)
	}
}

func TestForgotIsAcknowledgedNoOp(t *testing.T) {
	router := newAuthRouter(&stubUserService{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/forgot", strings.NewReader(`{"email":"a@b.c"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
