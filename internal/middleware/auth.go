package middleware

import (
	"net/http"
	"strings"

	"github.com/2beens/ironlog/internal/auth"

	log "github.com/sirupsen/logrus"
)

type AuthMiddlewareHandler struct {
	verifier     auth.TokenVerifier
	allowedPaths map[string]bool
}

func NewAuthMiddlewareHandler(verifier auth.TokenVerifier) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		verifier: verifier,
		allowedPaths: map[string]bool{
			"/api/health":  true,
			"/api/version": true,
			// registration runs before the user profile exists; the handler
			// itself checks the bearer token when one is present
			"/api/auth/register": true,
		},
	}
}

// BearerToken extracts the token from the Authorization header, or returns
// an empty string when the header is missing or malformed.
func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, DELETE, OPTIONS")
				w.WriteHeader(http.StatusOK)
				return
			}

			// only the api surface is guarded; anything else falls
			// through to the not-found handler
			if h.allowedPaths[r.URL.Path] || !strings.HasPrefix(r.URL.Path, "/api/") {
				next.ServeHTTP(w, r)
				return
			}

			token := BearerToken(r)
			if token == "" {
				log.Tracef("[missing token] [auth middleware] unauthorized => %s", r.URL.Path)
				http.Error(w, "no can do", http.StatusUnauthorized)
				return
			}

			principal, err := h.verifier.Verify(r.Context(), token)
			if err != nil {
				log.Tracef("[invalid token] [auth middleware] unauthorized => %s: %s", r.URL.Path, err)
				http.Error(w, "no can do", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(
				auth.ContextWithPrincipal(r.Context(), principal),
			))
		})
	}
}
