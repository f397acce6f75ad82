package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/genixhq/genix/internal/auth"
)

type contextKey struct{}

// AdminID returns the authenticated admin stored by RequireAdmin.
func AdminID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(contextKey{}).(uuid.UUID)
	return id, ok
}

// RequireAdmin rejects requests that do not carry a bearer token for an admin profile.
func RequireAdmin(authz *auth.Authorizer, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			adminID, err := authz.RequireAdmin(r.Context(), token)
			switch {
			case err == nil:
			case errors.Is(err, auth.ErrNotAdmin):
				writeAuthError(w, http.StatusUnauthorized, "Unauthorized - Admin access required")
				return
			case errors.Is(err, auth.ErrUnauthorized):
				writeAuthError(w, http.StatusUnauthorized, "Unauthorized")
				return
			default:
				logger.Error("admin check failed", zap.Error(err))
				writeAuthError(w, http.StatusInternalServerError, "Failed to verify admin access")

				return
			}

			ctx := context.WithValue(r.Context(), contextKey{}, adminID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
