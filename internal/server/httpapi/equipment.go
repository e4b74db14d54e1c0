package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/jumptrack/internal/server/services"
)

func (s *Server) handleGetEquipment(w http.ResponseWriter, r *http.Request) {
	ac, _ := authFromContext(r.Context())

	items, err := s.equipment.List(r.Context(), ac.UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, map[string]any{"items": toEquipmentMapDTO(items)})
}

func (s *Server) handleSyncEquipment(w http.ResponseWriter, r *http.Request) {
	ac, _ := authFromContext(r.Context())

	var req struct {
		Items map[string]struct {
			Owned   bool    `json:"owned"`
			ShopURL *string `json:"shopUrl"`
		} `json:"items"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Items == nil {
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Error: "items object is required"})
		return
	}

	items := make(map[string]services.EquipmentState, len(req.Items))
	for id, state := range req.Items {
		items[id] = services.EquipmentState{Owned: state.Owned, ShopURL: state.ShopURL}
	}

	n, err := s.equipment.BulkUpsert(r.Context(), ac.UserID, items)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, map[string]any{"synced": n})
}

func (s *Server) handlePatchEquipment(w http.ResponseWriter, r *http.Request) {
	ac, _ := authFromContext(r.Context())

	// shopUrl needs three states: absent, explicit null (clear the link) and
	// a value, so it stays raw until presence is known.
	var req struct {
		Owned   *bool           `json:"owned"`
		ShopURL json.RawMessage `json:"shopUrl"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	patch := services.EquipmentPatch{Owned: req.Owned}
	if len(req.ShopURL) > 0 {
		patch.ShopURLSet = true
		if err := json.Unmarshal(req.ShopURL, &patch.ShopURL); err != nil {
			writeJSON(w, http.StatusBadRequest, envelope{Success: false, Error: "invalid json body"})
			return
		}
	}

	item, err := s.equipment.Patch(r.Context(), ac.UserID, r.PathValue("id"), patch)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, map[string]any{
		"equipmentId": item.EquipmentID,
		"owned":       item.Owned,
		"shopUrl":     item.ShopURL,
	})
}
