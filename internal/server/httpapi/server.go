package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/jumptrack/internal/logging"
	"github.com/dmitrijs2005/jumptrack/internal/server/config"
	"github.com/dmitrijs2005/jumptrack/internal/server/services"
)

// Server holds the handlers for the public JSON API.
type Server struct {
	log         logging.Logger
	jwtSecret   []byte
	users       *services.UserService
	sync        *services.SyncService
	friends     *services.FriendService
	leaderboard *services.LeaderboardService
	equipment   *services.EquipmentService
}

func NewServer(log logging.Logger, cfg *config.Config,
	users *services.UserService, sync *services.SyncService,
	friends *services.FriendService, leaderboard *services.LeaderboardService,
	equipment *services.EquipmentService) *Server {
	return &Server{
		log:         log,
		jwtSecret:   []byte(cfg.SecretKey),
		users:       users,
		sync:        sync,
		friends:     friends,
		leaderboard: leaderboard,
		equipment:   equipment,
	}
}

// Routes wires every endpoint onto a ServeMux.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/google", s.handleGoogleAuth)
	mux.HandleFunc("POST /auth/apple", s.handleAppleAuth)
	mux.HandleFunc("POST /auth/refresh", s.handleRefresh)

	mux.HandleFunc("GET /users/me", s.requireAuth(s.handleGetMe))
	mux.HandleFunc("PATCH /users/me", s.requireAuth(s.handleUpdateMe))
	mux.HandleFunc("GET /users/{id}", s.requireAuth(s.handleGetUser))

	mux.HandleFunc("POST /sync/sessions", s.requireAuth(s.handleSyncSessions))
	mux.HandleFunc("GET /sync/sessions", s.requireAuth(s.handleListSessions))
	mux.HandleFunc("GET /sync/sessions/{id}", s.requireAuth(s.handleGetSession))
	mux.HandleFunc("POST /sync/sessions/{id}/track", s.requireAuth(s.handleTrackUpload))

	mux.HandleFunc("GET /friends", s.requireAuth(s.handleListFriends))
	mux.HandleFunc("POST /friends/invite", s.requireAuth(s.handleCreateInvite))
	mux.HandleFunc("POST /friends/accept", s.requireAuth(s.handleAcceptInvite))
	mux.HandleFunc("DELETE /friends/{id}", s.requireAuth(s.handleRemoveFriend))

	mux.HandleFunc("GET /equipment", s.requireAuth(s.handleGetEquipment))
	mux.HandleFunc("PUT /equipment", s.requireAuth(s.handleSyncEquipment))
	mux.HandleFunc("PATCH /equipment/{id}", s.requireAuth(s.handlePatchEquipment))

	mux.HandleFunc("GET /leaderboard/friends", s.requireAuth(s.handleFriendLeaderboard))
	mux.HandleFunc("GET /leaderboard/global", s.requireAuth(s.handleGlobalLeaderboard))

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondData(w, map[string]string{"status": "ok"})
}
