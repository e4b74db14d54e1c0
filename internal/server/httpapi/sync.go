package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/jumptrack/internal/server/models"
	"github.com/dmitrijs2005/jumptrack/internal/server/services"
)

type syncSessionReq struct {
	Session struct {
		ID             string     `json:"id"`
		StartedAt      time.Time  `json:"startedAt"`
		EndedAt        *time.Time `json:"endedAt"`
		ResortName     string     `json:"resortName"`
		TotalJumps     int        `json:"totalJumps"`
		MaxAirtimeMs   int64      `json:"maxAirtimeMs"`
		TotalVerticalM float64    `json:"totalVerticalM"`
	} `json:"session"`
	Jumps []struct {
		ID                 string   `json:"id"`
		RunID              string   `json:"runId"`
		TakeoffTimestampUs int64    `json:"takeoffTimestampUs"`
		LandingTimestampUs int64    `json:"landingTimestampUs"`
		AirtimeMs          int64    `json:"airtimeMs"`
		DistanceM          float64  `json:"distanceM"`
		HeightM            float64  `json:"heightM"`
		SpeedKmh           float64  `json:"speedKmh"`
		LandingGForce      float64  `json:"landingGForce"`
		LatTakeoff         *float64 `json:"latTakeoff"`
		LonTakeoff         *float64 `json:"lonTakeoff"`
		LatLanding         *float64 `json:"latLanding"`
		LonLanding         *float64 `json:"lonLanding"`
		AltitudeTakeoff    *float64 `json:"altitudeTakeoff"`
		TrickLabel         string   `json:"trickLabel"`
	} `json:"jumps"`
}

func (r *syncSessionReq) toSessionSync() *services.SessionSync {
	out := &services.SessionSync{
		Session: &models.SyncedSession{
			ID:             r.Session.ID,
			StartedAt:      r.Session.StartedAt,
			EndedAt:        r.Session.EndedAt,
			ResortName:     r.Session.ResortName,
			TotalJumps:     r.Session.TotalJumps,
			MaxAirtimeMs:   r.Session.MaxAirtimeMs,
			TotalVerticalM: r.Session.TotalVerticalM,
		},
	}
	for _, j := range r.Jumps {
		out.Jumps = append(out.Jumps, &models.SyncedJump{
			ID:                 j.ID,
			RunID:              j.RunID,
			TakeoffTimestampUs: j.TakeoffTimestampUs,
			LandingTimestampUs: j.LandingTimestampUs,
			AirtimeMs:          j.AirtimeMs,
			DistanceM:          j.DistanceM,
			HeightM:            j.HeightM,
			SpeedKmh:           j.SpeedKmh,
			LandingGForce:      j.LandingGForce,
			LatTakeoff:         j.LatTakeoff,
			LonTakeoff:         j.LonTakeoff,
			LatLanding:         j.LatLanding,
			LonLanding:         j.LonLanding,
			AltitudeTakeoff:    j.AltitudeTakeoff,
			TrickLabel:         j.TrickLabel,
		})
	}
	return out
}

func (s *Server) handleSyncSessions(w http.ResponseWriter, r *http.Request) {
	ac, _ := authFromContext(r.Context())

	var req struct {
		Sessions []*syncSessionReq `json:"sessions"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Sessions == nil {
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Error: "sessions array is required"})
		return
	}

	batch := make([]*services.SessionSync, 0, len(req.Sessions))
	for _, entry := range req.Sessions {
		batch = append(batch, entry.toSessionSync())
	}

	result, err := s.sync.Sync(r.Context(), ac.UserID, batch)
	if err != nil {
		respondError(w, err)
		return
	}

	type issueDTO struct {
		ID    string `json:"id,omitempty"`
		Error string `json:"error"`
	}
	issues := []issueDTO{}
	for _, e := range result.Errors {
		issues = append(issues, issueDTO{ID: e.ID, Error: e.Err})
	}
	synced := result.Synced
	if synced == nil {
		synced = []string{}
	}
	respondData(w, map[string]any{"synced": synced, "errors": issues})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ac, _ := authFromContext(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	sessions, total, err := s.sync.ListSessions(r.Context(), ac.UserID, limit, offset)
	if err != nil {
		respondError(w, err)
		return
	}

	out := []*sessionDTO{}
	for _, ses := range sessions {
		out = append(out, toSessionDTO(ses))
	}
	respondData(w, map[string]any{"sessions": out, "total": total})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	ac, _ := authFromContext(r.Context())
	sessionID := r.PathValue("id")

	session, jumps, err := s.sync.GetSession(r.Context(), ac.UserID, sessionID)
	if err != nil {
		respondError(w, err)
		return
	}

	jumpsOut := []*jumpDTO{}
	for _, j := range jumps {
		jumpsOut = append(jumpsOut, toJumpDTO(j))
	}

	data := map[string]any{
		"session": toSessionDTO(session),
		"jumps":   jumpsOut,
	}
	if session.TrackKey != "" {
		url, err := s.sync.GetTrackDownloadURL(r.Context(), ac.UserID, sessionID)
		if err != nil {
			respondError(w, err)
			return
		}
		data["trackUrl"] = url
	}
	respondData(w, data)
}

func (s *Server) handleTrackUpload(w http.ResponseWriter, r *http.Request) {
	ac, _ := authFromContext(r.Context())

	key, url, err := s.sync.GetTrackUploadURL(r.Context(), ac.UserID, r.PathValue("id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, map[string]any{"key": key, "uploadUrl": url})
}
