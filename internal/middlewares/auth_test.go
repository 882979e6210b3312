package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Bessima/fieldops/internal/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware(t *testing.T) {
	auth := handlers.NewAuthHandler(&handlers.JWTConfig{SecretKey: "secret", TokenTTL: time.Hour})
	token, err := auth.IssueToken("reviewer-1", "")
	require.NoError(t, err)

	var reviewer string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims := handlers.GetReviewerFromContext(r.Context()); claims != nil {
			reviewer = claims.Reviewer()
		}
		w.WriteHeader(http.StatusNoContent)
	})
	protected := AuthMiddleware(auth)(next)

	testCases := []struct {
		name     string
		prepare  func(r *http.Request)
		wantCode int
		wantWho  string
	}{
		{
			name:     "bearer header",
			prepare:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
			wantCode: http.StatusNoContent,
			wantWho:  "reviewer-1",
		},
		{
			name:     "cookie",
			prepare:  func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "access_token", Value: token}) },
			wantCode: http.StatusNoContent,
			wantWho:  "reviewer-1",
		},
		{
			name:     "missing",
			prepare:  func(r *http.Request) {},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "invalid",
			prepare:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer broken") },
			wantCode: http.StatusUnauthorized,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reviewer = ""
			request := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
			tc.prepare(request)
			recorder := httptest.NewRecorder()

			protected.ServeHTTP(recorder, request)

			assert.Equal(t, tc.wantCode, recorder.Code)
			assert.Equal(t, tc.wantWho, reviewer)
		})
	}
}
