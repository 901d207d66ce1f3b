package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Zllawi/bassmaStore/internal/platform/httpx"
)

// TokenVerifier validates a bearer access token and returns the identity it encodes.
type TokenVerifier interface {
	VerifyAccessToken(token string) (Identity, error)
}

// Authenticator guards routes with bearer token authentication.
type Authenticator struct {
	verifier TokenVerifier
}

// NewAuthenticator constructs an Authenticator backed by the provided verifier.
func NewAuthenticator(verifier TokenVerifier) (*Authenticator, error) {
	if verifier == nil {
		return nil, errors.New("authenticator: token verifier is required")
	}
	return &Authenticator{verifier: verifier}, nil
}

// RequireAuth rejects requests without a valid bearer access token and stores
// the identity on the request context.
func (a *Authenticator) RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if a == nil || a.verifier == nil {
				httpx.WriteError(ctx, w, httpx.NewError("auth_unavailable", "authentication unavailable", http.StatusServiceUnavailable))
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
				return
			}

			identity, err := a.verifier.VerifyAccessToken(token)
			if err != nil {
				code := "unauthenticated"
				message := "invalid access token"
				if errors.Is(err, ErrExpiredToken) {
					code = "token_expired"
					message = "access token expired"
				}
				httpx.WriteError(ctx, w, httpx.NewError(code, message, http.StatusUnauthorized))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, &identity)))
		})
	}
}

// RequireRole rejects authenticated requests lacking any of the listed roles.
// It must be mounted after RequireAuth.
func (a *Authenticator) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			identity, ok := IdentityFromContext(ctx)
			if !ok || identity == nil {
				httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
				return
			}
			for _, role := range roles {
				if identity.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.WriteError(ctx, w, httpx.NewError("forbidden", "insufficient permissions", http.StatusForbidden))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
