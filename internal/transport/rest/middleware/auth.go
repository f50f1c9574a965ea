package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"moduo/internal/model"
	"moduo/internal/service"
)

type contextKey string

const UserKey contextKey = "user"

// AuthMiddleware resolves the bearer token to a synced user before any
// handler runs.
type AuthMiddleware struct {
	authSvc *service.AuthService
}

func NewAuthMiddleware(authSvc *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authSvc: authSvc}
}

// RequireUser validates the identity token from the Authorization header
// and puts the resolved user on the request context.
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
			return
		}

		user, err := m.authSvc.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
				return
			}
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUser extracts the authenticated user from context.
func GetUser(ctx context.Context) *model.User {
	if v := ctx.Value(UserKey); v != nil {
		return v.(*model.User)
	}
	return nil
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
