package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/jumptrack/internal/server/models"
)

func requestPeriod(r *http.Request) models.LeaderboardPeriod {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = string(models.PeriodWeek)
	}
	return models.LeaderboardPeriod(period)
}

func (s *Server) handleFriendLeaderboard(w http.ResponseWriter, r *http.Request) {
	ac, _ := authFromContext(r.Context())

	board, err := s.leaderboard.FriendBoard(r.Context(), ac.UserID, requestPeriod(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, toBoardDTO(board))
}

func (s *Server) handleGlobalLeaderboard(w http.ResponseWriter, r *http.Request) {
	ac, _ := authFromContext(r.Context())

	board, err := s.leaderboard.GlobalBoard(r.Context(), ac.UserID, requestPeriod(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, toBoardDTO(board))
}
