package httpapi

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/jumptrack/internal/server/models"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Nickname string `json:"nickname"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.users.Register(r.Context(), req.Email, req.Password, req.Nickname)
	if err != nil {
		respondError(w, err)
		return
	}

	s.log.Info(r.Context(), "user registered", "user_id", result.User.ID)
	respondData(w, toAuthResponseDTO(result))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, toAuthResponseDTO(result))
}

func (s *Server) handleGoogleAuth(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDToken string `json:"idToken"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.users.OAuthLogin(r.Context(), models.ProviderGoogle, req.IDToken, "")
	if err != nil {
		respondError(w, err)
		return
	}
	if result.IsNewUser {
		s.log.Info(r.Context(), "user created via oauth", "provider", "google", "user_id", result.User.ID)
	}
	respondData(w, toAuthResponseDTO(result))
}

func (s *Server) handleAppleAuth(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDToken   string `json:"idToken"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	name := strings.TrimSpace(req.FirstName + " " + req.LastName)

	result, err := s.users.OAuthLogin(r.Context(), models.ProviderApple, req.IDToken, name)
	if err != nil {
		respondError(w, err)
		return
	}
	if result.IsNewUser {
		s.log.Info(r.Context(), "user created via oauth", "provider", "apple", "user_id", result.User.ID)
	}
	respondData(w, toAuthResponseDTO(result))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, envelope{Success: false, Error: "unauthorized"})
		return
	}

	result, err := s.users.Refresh(r.Context(), token)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, toAuthResponseDTO(result))
}
