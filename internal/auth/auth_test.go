package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/genixhq/genix/internal/auth"
)

const testSecret = "test-secret-key"

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.RegisteredClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	return token
}

func validClaims(subject string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   subject,
		Audience:  jwt.ClaimStrings{"authenticated"},
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
}

func TestVerifier_Verify(t *testing.T) {
	userID := uuid.New()

	expired := validClaims(userID.String())
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noExpiry := validClaims(userID.String())
	noExpiry.ExpiresAt = nil

	wrongAudience := validClaims(userID.String())
	wrongAudience.Audience = jwt.ClaimStrings{"anon"}

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{name: "Valid", token: signToken(t, testSecret, jwt.SigningMethodHS256, validClaims(userID.String()))},
		{name: "Empty", token: "", wantErr: true},
		{name: "Garbage", token: "invalid-token", wantErr: true},
		{name: "WrongSecret", token: signToken(t, "other", jwt.SigningMethodHS256, validClaims(userID.String())), wantErr: true},
		{name: "WrongAlgorithm", token: signToken(t, testSecret, jwt.SigningMethodHS512, validClaims(userID.String())), wantErr: true},
		{name: "Expired", token: signToken(t, testSecret, jwt.SigningMethodHS256, expired), wantErr: true},
		{name: "NoExpiry", token: signToken(t, testSecret, jwt.SigningMethodHS256, noExpiry), wantErr: true},
		{name: "WrongAudience", token: signToken(t, testSecret, jwt.SigningMethodHS256, wrongAudience), wantErr: true},
		{name: "NonUUIDSubject", token: signToken(t, testSecret, jwt.SigningMethodHS256, validClaims("user-123")), wantErr: true},
	}

	verifier := auth.NewVerifier(testSecret, "authenticated")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := verifier.Verify(tt.token)
			if tt.wantErr {
				require.ErrorIs(t, err, auth.ErrUnauthorized)
				assert.Equal(t, uuid.Nil, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, userID, got)
		})
	}
}

func TestVerifier_NoSecretRejectsEverything(t *testing.T) {
	token := signToken(t, testSecret, jwt.SigningMethodHS256, validClaims(uuid.NewString()))

	_, err := auth.NewVerifier("", "").Verify(token)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestAuthorizer_RequireAdmin(t *testing.T) {
	userID := uuid.New()
	token := signToken(t, testSecret, jwt.SigningMethodHS256, validClaims(userID.String()))
	storeErr := errors.New("connection reset")

	tests := []struct {
		name    string
		token   string
		setup   func(m *auth.MockRoleStore)
		wantErr error
	}{
		{
			name:  "Admin",
			token: token,
			setup: func(m *auth.MockRoleStore) {
				m.EXPECT().GetRole(gomock.Any(), userID).Return("admin", nil)
			},
		},
		{
			name:  "Developer",
			token: token,
			setup: func(m *auth.MockRoleStore) {
				m.EXPECT().GetRole(gomock.Any(), userID).Return("developer", nil)
			},
			wantErr: auth.ErrNotAdmin,
		},
		{
			name:  "NoProfile",
			token: token,
			setup: func(m *auth.MockRoleStore) {
				m.EXPECT().GetRole(gomock.Any(), userID).Return("", nil)
			},
			wantErr: auth.ErrNotAdmin,
		},
		{
			name:    "BadToken",
			token:   "invalid-token",
			setup:   func(m *auth.MockRoleStore) {},
			wantErr: auth.ErrUnauthorized,
		},
		{
			name:  "StoreError",
			token: token,
			setup: func(m *auth.MockRoleStore) {
				m.EXPECT().GetRole(gomock.Any(), userID).Return("", storeErr)
			},
			wantErr: storeErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			roles := auth.NewMockRoleStore(ctrl)
			tt.setup(roles)

			authorizer := auth.NewAuthorizer(auth.NewVerifier(testSecret, ""), roles)

			got, err := authorizer.RequireAdmin(context.Background(), tt.token)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, userID, got)
		})
	}
}
