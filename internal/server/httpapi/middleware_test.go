package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/jumptrack/internal/server/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireAuth(t *testing.T) {
	secret := []byte("test-secret")
	s := &Server{jwtSecret: secret}

	token, err := auth.GenerateToken("u-1", "a@b.c", secret, time.Hour)
	require.NoError(t, err)
	otherSecret, err := auth.GenerateToken("u-1", "a@b.c", []byte("other"), time.Hour)
	require.NoError(t, err)
	expired, err := auth.GenerateToken("u-1", "a@b.c", secret, -time.Minute)
	require.NoError(t, err)

	var gotAC *AuthContext
	handler := s.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		gotAC, _ = authFromContext(r.Context())
		respondData(w, map[string]bool{"ok": true})
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic dXNlcg==", http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
		{"wrong key", "Bearer " + otherSecret, http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"garbage", "Bearer not.a.jwt", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotAC = nil
			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				require.NotNil(t, gotAC)
				assert.Equal(t, "u-1", gotAC.UserID)
				assert.Equal(t, "a@b.c", gotAC.Email)
			} else {
				assert.Nil(t, gotAC)
				e := decodeEnvelope(t, rec)
				assert.Equal(t, "unauthorized", e.Error)
			}
		})
	}
}
