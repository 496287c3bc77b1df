package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, subject string, expiry time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": expiry.Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestAuthenticate(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	middleware := NewMiddleware(testSecret, log)

	var seenUserID string
	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID = UserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name           string
		header         string
		expectedStatus int
		expectedUser   string
	}{
		{
			name:           "valid token",
			header:         "Bearer " + signToken(t, testSecret, "user-1", time.Now().Add(time.Hour)),
			expectedStatus: http.StatusOK,
			expectedUser:   "user-1",
		},
		{
			name:           "missing header",
			header:         "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "not a bearer token",
			header:         "Basic abc123",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "wrong secret",
			header:         "Bearer " + signToken(t, "other-secret", "user-1", time.Now().Add(time.Hour)),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "expired token",
			header:         "Bearer " + signToken(t, testSecret, "user-1", time.Now().Add(-time.Hour)),
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seenUserID = ""
			req := httptest.NewRequest("GET", "/api/stocks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedUser != "" {
				assert.Equal(t, tt.expectedUser, seenUserID)
			}
		})
	}
}

func TestUserIDMissing(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	assert.Empty(t, UserID(req.Context()))
}
