package httpapi

import (
	"database/sql"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/jumptrack/internal/logging"
	"github.com/dmitrijs2005/jumptrack/internal/server/auth"
	"github.com/dmitrijs2005/jumptrack/internal/server/config"
	"github.com/dmitrijs2005/jumptrack/internal/server/oauth"
	"github.com/dmitrijs2005/jumptrack/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/jumptrack/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer wires real services and real PostgreSQL repositories over a
// sqlmock connection.
func newTestServer(t *testing.T) (http.Handler, sqlmock.Sqlmock, *config.Config) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		SecretKey:     "test-secret",
		TokenValidity: time.Hour,
		InviteBaseURL: "https://jumptrack.example.com/invite",
	}

	log := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	rm := repomanager.NewPostgresRepositoryManager()
	verifier := oauth.NewVerifier(oauth.NewKeyCache())

	userService := services.NewUserService(db, rm, verifier, cfg)
	leaderboardService := services.NewLeaderboardService(db, rm)
	syncService := services.NewSyncService(db, rm, leaderboardService, cfg)
	friendService := services.NewFriendService(db, rm, cfg)
	equipmentService := services.NewEquipmentService(db, rm)

	srv := NewServer(log, cfg, userService, syncService, friendService, leaderboardService, equipmentService)
	return srv.Routes(), mock, cfg
}

func doJSON(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h, _, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	e := decodeEnvelope(t, rec)
	assert.True(t, e.Success)
}

func TestRegister_EndToEnd(t *testing.T) {
	h, mock, cfg := newTestServer(t)

	now := time.Now()
	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	rec := doJSON(t, h, http.MethodPost, "/auth/register", "",
		`{"email":"Rider@Example.com","password":"secret123","nickname":"Rider"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	e := decodeEnvelope(t, rec)
	require.True(t, e.Success)
	data := e.Data.(map[string]any)
	assert.Equal(t, true, data["isNewUser"])

	user := data["user"].(map[string]any)
	assert.Equal(t, "rider@example.com", user["email"])
	assert.Equal(t, "Rider", user["nickname"])

	claims, err := auth.ParseToken(data["token"].(string), []byte(cfg.SecretKey))
	require.NoError(t, err)
	assert.Equal(t, user["id"], claims.Subject)
}

func TestRegister_DuplicateEmailConflict(t *testing.T) {
	h, mock, _ := newTestServer(t)

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users`).WillReturnError(sql.ErrNoRows)

	rec := doJSON(t, h, http.MethodPost, "/auth/register", "",
		`{"email":"a@b.c","password":"secret123"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegister_ValidationErrors(t *testing.T) {
	h, _, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"email":`},
		{"short password", `{"email":"a@b.c","password":"123"}`},
		{"bad email", `{"email":"nope","password":"secret123"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/auth/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			e := decodeEnvelope(t, rec)
			assert.False(t, e.Success)
		})
	}
}

func TestLogin_UnknownAccountIs401(t *testing.T) {
	h, mock, _ := newTestServer(t)

	mock.ExpectQuery(`(?s)^SELECT\s+.*\s+FROM\s+users\s+WHERE\s+email`).WillReturnError(sql.ErrNoRows)

	rec := doJSON(t, h, http.MethodPost, "/auth/login", "",
		`{"email":"ghost@b.c","password":"secret123"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	e := decodeEnvelope(t, rec)
	assert.Equal(t, "unauthorized", e.Error)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h, _, _ := newTestServer(t)

	paths := []struct{ method, path string }{
		{http.MethodGet, "/users/me"},
		{http.MethodPatch, "/users/me"},
		{http.MethodPost, "/sync/sessions"},
		{http.MethodGet, "/sync/sessions"},
		{http.MethodGet, "/friends"},
		{http.MethodPost, "/friends/invite"},
		{http.MethodGet, "/leaderboard/global"},
		{http.MethodGet, "/equipment"},
		{http.MethodPut, "/equipment"},
		{http.MethodPatch, "/equipment/helmet"},
	}
	for _, p := range paths {
		rec := doJSON(t, h, p.method, p.path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", p.method, p.path)
	}
}

func TestLeaderboard_InvalidPeriod(t *testing.T) {
	h, _, cfg := newTestServer(t)

	token, err := auth.GenerateToken("u-1", "a@b.c", []byte(cfg.SecretKey), time.Hour)
	require.NoError(t, err)

	rec := doJSON(t, h, http.MethodGet, "/leaderboard/global?period=decade", token, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSyncSessions_RequiresArray(t *testing.T) {
	h, _, cfg := newTestServer(t)

	token, err := auth.GenerateToken("u-1", "a@b.c", []byte(cfg.SecretKey), time.Hour)
	require.NoError(t, err)

	rec := doJSON(t, h, http.MethodPost, "/sync/sessions", token, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	e := decodeEnvelope(t, rec)
	assert.Contains(t, e.Error, "sessions array is required")
}

func TestAcceptInvite_RequiresCode(t *testing.T) {
	h, _, cfg := newTestServer(t)

	token, err := auth.GenerateToken("u-1", "a@b.c", []byte(cfg.SecretKey), time.Hour)
	require.NoError(t, err)

	rec := doJSON(t, h, http.MethodPost, "/friends/accept", token, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetUser_NotFound(t *testing.T) {
	h, mock, cfg := newTestServer(t)

	token, err := auth.GenerateToken("u-1", "a@b.c", []byte(cfg.SecretKey), time.Hour)
	require.NoError(t, err)

	mock.ExpectQuery(`(?s)^SELECT\s+.*\s+FROM\s+users\s+WHERE\s+id`).WillReturnError(sql.ErrNoRows)

	rec := doJSON(t, h, http.MethodGet, "/users/550e8400-e29b-41d4-a716-446655440000", token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRefresh_RoundTrip(t *testing.T) {
	h, mock, cfg := newTestServer(t)

	token, err := auth.GenerateToken("u-1", "a@b.c", []byte(cfg.SecretKey), time.Hour)
	require.NoError(t, err)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "email", "google_sub", "apple_sub", "password_hash",
		"nickname", "avatar_index", "created_at", "updated_at"}).
		AddRow("u-1", "a@b.c", nil, nil, nil, "Skier", 0, now, now)
	mock.ExpectQuery(`(?s)^SELECT\s+.*\s+FROM\s+users\s+WHERE\s+id`).WillReturnRows(rows)

	rec := doJSON(t, h, http.MethodPost, "/auth/refresh", token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	e := decodeEnvelope(t, rec)
	data := e.Data.(map[string]any)
	claims, err := auth.ParseToken(data["token"].(string), []byte(cfg.SecretKey))
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
}

func TestGetUser_HidesEmail(t *testing.T) {
	h, mock, cfg := newTestServer(t)

	token, err := auth.GenerateToken("u-1", "a@b.c", []byte(cfg.SecretKey), time.Hour)
	require.NoError(t, err)

	now := time.Now()
	userRows := sqlmock.NewRows([]string{"id", "email", "google_sub", "apple_sub", "password_hash",
		"nickname", "avatar_index", "created_at", "updated_at"}).
		AddRow("u-2", "friend@b.c", nil, nil, nil, "Anna", 4, now, now)
	mock.ExpectQuery(`(?s)^SELECT\s+.*\s+FROM\s+users\s+WHERE\s+id`).WillReturnRows(userRows)
	mock.ExpectQuery(`(?s)^\s*SELECT\s+COUNT\(\*\),\s*COALESCE.*FROM\s+synced_sessions`).
		WillReturnRows(sqlmock.NewRows([]string{"c", "j", "s", "a"}).AddRow(2, 9, 840.0, int64(700)))
	mock.ExpectQuery(`^SELECT\s+COALESCE\(MAX\(score\),\s*0\)\s+FROM\s+synced_jumps`).
		WillReturnRows(sqlmock.NewRows([]string{"best"}).AddRow(333.0))

	rec := doJSON(t, h, http.MethodGet, "/users/u-2", token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	e := decodeEnvelope(t, rec)
	data := e.Data.(map[string]any)
	user := data["user"].(map[string]any)
	assert.Equal(t, "Anna", user["nickname"])
	assert.NotContains(t, user, "email")

	stats := data["stats"].(map[string]any)
	assert.Equal(t, float64(9), stats["totalJumps"])
}

func TestSyncEquipment_RequiresItemsObject(t *testing.T) {
	h, _, cfg := newTestServer(t)

	token, err := auth.GenerateToken("u-1", "a@b.c", []byte(cfg.SecretKey), time.Hour)
	require.NoError(t, err)

	rec := doJSON(t, h, http.MethodPut, "/equipment", token, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	e := decodeEnvelope(t, rec)
	assert.Contains(t, e.Error, "items object is required")
}

func TestGetEquipment_KeyedByItemID(t *testing.T) {
	h, mock, cfg := newTestServer(t)

	token, err := auth.GenerateToken("u-1", "a@b.c", []byte(cfg.SecretKey), time.Hour)
	require.NoError(t, err)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"equipment_id", "owned", "shop_url", "updated_at"}).
		AddRow("helmet", true, nil, now).
		AddRow("goggles", false, "https://shop.example.com/goggles", now)
	mock.ExpectQuery(`^SELECT\s+equipment_id,\s*owned,\s*shop_url,\s*updated_at\s+FROM\s+user_equipment\s+WHERE\s+user_id`).
		WithArgs("u-1").
		WillReturnRows(rows)

	rec := doJSON(t, h, http.MethodGet, "/equipment", token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	e := decodeEnvelope(t, rec)
	items := e.Data.(map[string]any)["items"].(map[string]any)
	helmet := items["helmet"].(map[string]any)
	assert.Equal(t, true, helmet["owned"])
	assert.Nil(t, helmet["shopUrl"])
	goggles := items["goggles"].(map[string]any)
	assert.Equal(t, "https://shop.example.com/goggles", goggles["shopUrl"])
}

func TestPatchEquipment_CreatesMissingItem(t *testing.T) {
	h, mock, cfg := newTestServer(t)

	token, err := auth.GenerateToken("u-1", "a@b.c", []byte(cfg.SecretKey), time.Hour)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(`^SELECT\s+equipment_id,\s*owned,\s*shop_url,\s*updated_at\s+FROM\s+user_equipment\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+equipment_id\s*=\s*\$2`).
		WithArgs("u-1", "helmet").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`(?s)^\s*INSERT\s+INTO\s+user_equipment.*ON\s+CONFLICT\s+\(user_id,\s*equipment_id\)\s+DO\s+UPDATE`).
		WithArgs("u-1", "helmet", true, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec := doJSON(t, h, http.MethodPatch, "/equipment/helmet", token, `{"owned":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	e := decodeEnvelope(t, rec)
	data := e.Data.(map[string]any)
	assert.Equal(t, "helmet", data["equipmentId"])
	assert.Equal(t, true, data["owned"])
	assert.Nil(t, data["shopUrl"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPatchEquipment_RejectsBadID(t *testing.T) {
	h, _, cfg := newTestServer(t)

	token, err := auth.GenerateToken("u-1", "a@b.c", []byte(cfg.SecretKey), time.Hour)
	require.NoError(t, err)

	rec := doJSON(t, h, http.MethodPatch, "/equipment/Not-Valid", token, `{"owned":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
