package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/genixhq/genix/internal/auth"
	"github.com/genixhq/genix/internal/http/middleware"
)

const testSecret = "test-secret-key"

func signedToken(t *testing.T, subject string) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	return token
}

func setupTestRouter(roles auth.RoleStore) chi.Router {
	authz := auth.NewAuthorizer(auth.NewVerifier(testSecret, ""), roles)

	router := chi.NewRouter()
	router.Use(middleware.RequireAdmin(authz, zap.NewNop()))
	router.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.AdminID(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		_, _ = w.Write([]byte(id.String()))
	})

	return router
}

func TestRequireAdmin(t *testing.T) {
	adminID := uuid.New()

	tests := []struct {
		name       string
		header     string
		setup      func(m *auth.MockRoleStore)
		wantStatus int
		wantBody   string
	}{
		{
			name:   "Admin",
			header: "Bearer " + signedToken(t, adminID.String()),
			setup: func(m *auth.MockRoleStore) {
				m.EXPECT().GetRole(gomock.Any(), adminID).Return("admin", nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   adminID.String(),
		},
		{
			name:   "LowercaseScheme",
			header: "bearer " + signedToken(t, adminID.String()),
			setup: func(m *auth.MockRoleStore) {
				m.EXPECT().GetRole(gomock.Any(), adminID).Return("admin", nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   adminID.String(),
		},
		{
			name:       "NoHeader",
			setup:      func(m *auth.MockRoleStore) {},
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"Unauthorized"}`,
		},
		{
			name:       "InvalidFormat",
			header:     "InvalidFormat token",
			setup:      func(m *auth.MockRoleStore) {},
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"Unauthorized"}`,
		},
		{
			name:       "InvalidToken",
			header:     "Bearer invalid-token",
			setup:      func(m *auth.MockRoleStore) {},
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"Unauthorized"}`,
		},
		{
			name:   "NotAdmin",
			header: "Bearer " + signedToken(t, adminID.String()),
			setup: func(m *auth.MockRoleStore) {
				m.EXPECT().GetRole(gomock.Any(), adminID).Return("developer", nil)
			},
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"Unauthorized - Admin access required"}`,
		},
		{
			name:   "RoleLookupFails",
			header: "Bearer " + signedToken(t, adminID.String()),
			setup: func(m *auth.MockRoleStore) {
				m.EXPECT().GetRole(gomock.Any(), adminID).Return("", errors.New("db down"))
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Failed to verify admin access"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			roles := auth.NewMockRoleStore(ctrl)
			tt.setup(roles)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/test", nil)

			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			setupTestRouter(roles).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)

			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantBody, w.Body.String())
			} else {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
		})
	}
}
