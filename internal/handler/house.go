package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ellisbray/homebase/internal/model"
	"github.com/ellisbray/homebase/internal/store"
	ws "github.com/ellisbray/homebase/internal/websocket"
)

type HouseHandler struct {
	houseStore  *store.HouseStore
	periodStore *store.PeriodStore
	hub         *ws.Hub
	logger      *slog.Logger
}

func NewHouseHandler(hs *store.HouseStore, ps *store.PeriodStore, hub *ws.Hub, logger *slog.Logger) *HouseHandler {
	return &HouseHandler{houseStore: hs, periodStore: ps, hub: hub, logger: logger}
}

type houseRequest struct {
	Name string `json:"name"`
}

// Create handles POST /api/houses. Staff only.
func (h *HouseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req houseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	house, err := h.houseStore.Create(req.Name)
	if err != nil {
		h.logger.Error("create house", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create house")
		return
	}

	writeJSON(w, http.StatusCreated, house)
}

// List handles GET /api/houses.
func (h *HouseHandler) List(w http.ResponseWriter, r *http.Request) {
	houses, err := h.houseStore.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list houses")
		return
	}
	if houses == nil {
		houses = []model.House{}
	}
	writeJSON(w, http.StatusOK, houses)
}

// Get handles GET /api/houses/{id}, returning the house and its shared
// period when one is configured.
func (h *HouseHandler) Get(w http.ResponseWriter, r *http.Request) {
	house, ok := h.loadHouse(w, r)
	if !ok {
		return
	}

	period, err := h.periodStore.GetHousePeriod(house.ID)
	if err != nil {
		h.logger.Error("get house period", "house_id", house.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get house period")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"house":  house,
		"period": period,
	})
}

type housePeriodRequest struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"` // 2006-01-02
	EndDate   string `json:"end_date"`
}

// SetPeriod handles PUT /api/houses/{id}/period. Staff only. The house holds
// a single shared period; setting a new one replaces the old.
func (h *HouseHandler) SetPeriod(w http.ResponseWriter, r *http.Request) {
	house, ok := h.loadHouse(w, r)
	if !ok {
		return
	}

	var req housePeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	start, err := time.ParseInLocation("2006-01-02", req.StartDate, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date")
		return
	}
	end, err := time.ParseInLocation("2006-01-02", req.EndDate, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_date")
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end_date must not precede start_date")
		return
	}

	// Periods are stored as inclusive day bounds.
	end = time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, time.UTC)

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "House Period " + start.Format("January 2006")
	}

	period, err := h.periodStore.ReplaceHousePeriod(house.ID, name, start, end)
	if err != nil {
		h.logger.Error("replace house period", "house_id", house.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to set house period")
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(ws.PeriodEvent(house.ID, period.ID))
	}

	writeJSON(w, http.StatusOK, period)
}

// Delete handles DELETE /api/houses/{id}. Staff only.
func (h *HouseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	house, ok := h.loadHouse(w, r)
	if !ok {
		return
	}

	if err := h.houseStore.Delete(house.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete house")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *HouseHandler) loadHouse(w http.ResponseWriter, r *http.Request) (*model.House, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}

	house, err := h.houseStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get house")
		return nil, false
	}
	if house == nil {
		writeError(w, http.StatusNotFound, "house not found")
		return nil, false
	}
	return house, true
}
