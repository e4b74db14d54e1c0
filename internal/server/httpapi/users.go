package httpapi

import "net/http"

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	ac, _ := authFromContext(r.Context())

	user, stats, err := s.users.GetProfile(r.Context(), ac.UserID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondData(w, map[string]any{
		"user":  toUserDTO(user),
		"stats": toStatsDTO(stats),
	})
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	ac, _ := authFromContext(r.Context())

	var req struct {
		Nickname    *string `json:"nickname"`
		AvatarIndex *int    `json:"avatarIndex"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := s.users.UpdateProfile(r.Context(), ac.UserID, req.Nickname, req.AvatarIndex)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, map[string]any{"user": toUserDTO(user)})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, stats, err := s.users.GetProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, map[string]any{"user": toPublicUserDTO(user), "stats": toStatsDTO(stats)})
}
