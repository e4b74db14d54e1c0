package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/jumptrack/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var e envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e
}

func TestRespondError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"validation", fmt.Errorf("%w: nickname too long", common.ErrorValidation), http.StatusBadRequest, "validation error: nickname too long"},
		{"invalid token", common.ErrInvalidToken, http.StatusUnauthorized, "unauthorized"},
		{"unauthorized", common.ErrorUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"not found", common.ErrorNotFound, http.StatusNotFound, "not found"},
		{"conflict", fmt.Errorf("%w: email already registered", common.ErrorAlreadyExists), http.StatusConflict, "already exists: email already registered"},
		{"upstream", common.ErrUpstreamUnavailable, http.StatusServiceUnavailable, "identity provider unavailable"},
		{"internal", fmt.Errorf("pq: connection refused"), http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			e := decodeEnvelope(t, rec)
			assert.False(t, e.Success)
			assert.Equal(t, tt.wantMsg, e.Error)
			assert.Nil(t, e.Data)
		})
	}
}

func TestRespondError_CredentialFailuresLookIdentical(t *testing.T) {
	// expired, tampered, and wrong-password failures must be one message
	recs := make([]*httptest.ResponseRecorder, 0, 2)
	for _, err := range []error{common.ErrInvalidToken, common.ErrorUnauthorized} {
		rec := httptest.NewRecorder()
		respondError(rec, err)
		recs = append(recs, rec)
	}
	assert.Equal(t, recs[0].Body.String(), recs[1].Body.String())
	assert.Equal(t, recs[0].Code, recs[1].Code)
}

func TestRespondData_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	respondData(rec, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusOK, rec.Code)
	e := decodeEnvelope(t, rec)
	assert.True(t, e.Success)
	assert.Empty(t, e.Error)
	assert.Equal(t, map[string]any{"status": "ok"}, e.Data)
}
