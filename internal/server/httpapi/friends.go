package httpapi

import "net/http"

func (s *Server) handleListFriends(w http.ResponseWriter, r *http.Request) {
	ac, _ := authFromContext(r.Context())

	friends, err := s.friends.List(r.Context(), ac.UserID)
	if err != nil {
		respondError(w, err)
		return
	}

	out := []*friendDTO{}
	for _, f := range friends {
		out = append(out, toFriendDTO(f))
	}
	respondData(w, map[string]any{"friends": out})
}

func (s *Server) handleCreateInvite(w http.ResponseWriter, r *http.Request) {
	ac, _ := authFromContext(r.Context())

	invite, err := s.friends.CreateInvite(r.Context(), ac.UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, map[string]any{
		"code":      invite.Code,
		"link":      invite.Link,
		"expiresAt": invite.ExpiresAt,
	})
}

func (s *Server) handleAcceptInvite(w http.ResponseWriter, r *http.Request) {
	ac, _ := authFromContext(r.Context())

	var req struct {
		Code string `json:"code"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Code == "" {
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Error: "code is required"})
		return
	}

	friend, err := s.friends.AcceptInvite(r.Context(), ac.UserID, req.Code)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, map[string]any{"friend": toFriendDTO(friend)})
}

func (s *Server) handleRemoveFriend(w http.ResponseWriter, r *http.Request) {
	ac, _ := authFromContext(r.Context())

	if err := s.friends.Remove(r.Context(), ac.UserID, r.PathValue("id")); err != nil {
		respondError(w, err)
		return
	}
	respondData(w, map[string]any{"ok": true})
}
