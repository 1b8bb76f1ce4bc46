package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ellisbray/homebase/internal/model"
	"github.com/ellisbray/homebase/internal/store"
)

type UserHandler struct {
	userStore *store.UserStore
	logger    *slog.Logger
}

func NewUserHandler(us *store.UserStore, logger *slog.Logger) *UserHandler {
	return &UserHandler{userStore: us, logger: logger}
}

// List handles GET /api/users. Staff only. Filters to residents by default;
// pass ?role= to select another role.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	if role == "" {
		role = model.RoleResident
	}

	users, err := h.userStore.ListByRole(role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// Get handles GET /api/users/{id}. Staff only.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type userPeriodRequest struct {
	StartDate string `json:"start_date"` // 2006-01-02
	EndDate   string `json:"end_date"`
}

// SetPeriod handles PUT /api/users/{id}/period. Staff only. Sets the user's
// personal work-period window; the resolver materializes the period on the
// next summary.
func (h *UserHandler) SetPeriod(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}

	var req userPeriodRequest
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
	end = time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, time.UTC)

	if err := h.userStore.SetPeriod(user.ID, start, end); err != nil {
		h.logger.Error("set user period", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to set period")
		return
	}

	updated, err := h.userStore.GetByID(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reload user")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type userHouseRequest struct {
	HouseID *int64 `json:"house_id"`
}

// SetHouse handles PUT /api/users/{id}/house. Staff only. A null house_id
// detaches the user from their house.
func (h *UserHandler) SetHouse(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}

	var req userHouseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := h.userStore.SetHouse(user.ID, req.HouseID); err != nil {
		h.logger.Error("set user house", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to set house")
		return
	}

	updated, err := h.userStore.GetByID(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reload user")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/users/{id}. Staff only.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}

	if err := h.userStore.Delete(user.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) loadUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}

	user, err := h.userStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get user")
		return nil, false
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return nil, false
	}
	return user, true
}
