package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ellisbray/homebase/internal/auth"
	"github.com/ellisbray/homebase/internal/balance"
	"github.com/ellisbray/homebase/internal/model"
	"github.com/ellisbray/homebase/internal/notify"
	"github.com/ellisbray/homebase/internal/store"
	"github.com/ellisbray/homebase/internal/upload"
	ws "github.com/ellisbray/homebase/internal/websocket"
)

const maxPhotoBytes = 10 << 20 // 10 MiB

type ChoreHandler struct {
	choreStore  *store.ChoreStore
	userStore   *store.UserStore
	periodStore *store.PeriodStore
	pushStore   *store.PushStore
	svc         *balance.Service
	uploads     *upload.Store
	notifier    *notify.Service
	hub         *ws.Hub
	logger      *slog.Logger
}

func NewChoreHandler(
	cs *store.ChoreStore,
	us *store.UserStore,
	ps *store.PeriodStore,
	pushSt *store.PushStore,
	svc *balance.Service,
	uploads *upload.Store,
	notifier *notify.Service,
	hub *ws.Hub,
	logger *slog.Logger,
) *ChoreHandler {
	return &ChoreHandler{
		choreStore:  cs,
		userStore:   us,
		periodStore: ps,
		pushStore:   pushSt,
		svc:         svc,
		uploads:     uploads,
		notifier:    notifier,
		hub:         hub,
		logger:      logger,
	}
}

func (h *ChoreHandler) broadcast(evt ws.Event) {
	if h.hub != nil {
		h.hub.Broadcast(evt)
	}
}

type choreRequest struct {
	HouseID     int64  `json:"house_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	AssignedTo  *int64 `json:"assigned_to"`
	Minutes     int    `json:"minutes"`
}

// Create handles POST /api/chores. Staff only.
func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req choreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Minutes <= 0 {
		writeError(w, http.StatusBadRequest, "minutes must be positive")
		return
	}

	if req.AssignedTo != nil {
		user, err := h.userStore.GetByID(*req.AssignedTo)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to check assignee")
			return
		}
		if user == nil {
			writeError(w, http.StatusBadRequest, "assignee not found")
			return
		}
	}

	chore, err := h.choreStore.Create(req.HouseID, req.Title, req.Description, req.AssignedTo, req.Minutes)
	if err != nil {
		h.logger.Error("create chore", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create chore")
		return
	}

	h.broadcast(ws.ChoreEvent("created", chore.ID))

	writeJSON(w, http.StatusCreated, chore)
}

// List handles GET /api/chores. Residents see their own assignments; staff
// see everything, optionally filtered by assignee.
func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	var chores []model.Chore
	var err error

	if !auth.IsStaff(r.Context()) {
		chores, err = h.choreStore.ListByAssignee(auth.UserID(r.Context()))
	} else {
		chores, err = h.choreStore.List()
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list chores")
		return
	}
	if chores == nil {
		chores = []model.Chore{}
	}
	writeJSON(w, http.StatusOK, chores)
}

// Get handles GET /api/chores/{id}.
func (h *ChoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	chore, ok := h.loadChore(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, chore)
}

// Update handles PUT /api/chores/{id}. Staff only.
func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadChore(w, r)
	if !ok {
		return
	}

	var req choreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Minutes <= 0 {
		writeError(w, http.StatusBadRequest, "minutes must be positive")
		return
	}

	chore, err := h.choreStore.Update(existing.ID, req.Title, req.Description, req.AssignedTo, req.Minutes)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update chore")
		return
	}

	h.broadcast(ws.ChoreEvent("updated", chore.ID))

	writeJSON(w, http.StatusOK, chore)
}

// Delete handles DELETE /api/chores/{id}. Staff only.
func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadChore(w, r)
	if !ok {
		return
	}

	if existing.PhotoKey != nil {
		if err := h.uploads.DeletePhoto(r.Context(), *existing.PhotoKey); err != nil {
			h.logger.Warn("delete chore photo", "chore_id", existing.ID, "error", err)
		}
	}

	if err := h.choreStore.Delete(existing.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete chore")
		return
	}

	h.broadcast(ws.ChoreEvent("deleted", existing.ID))

	w.WriteHeader(http.StatusNoContent)
}

// Submit handles POST /api/chores/{id}/submit. The assignee uploads a proof
// photo (multipart field "photo") and the chore moves to reviewing.
func (h *ChoreHandler) Submit(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadChore(w, r)
	if !ok {
		return
	}

	callerID := auth.UserID(r.Context())
	if existing.AssignedTo == nil || *existing.AssignedTo != callerID {
		writeError(w, http.StatusForbidden, "chore is not assigned to you")
		return
	}
	if existing.Status != model.ChoreStatusPending && existing.Status != model.ChoreStatusRejected {
		writeError(w, http.StatusConflict, "chore is not open for submission")
		return
	}

	var photoKey *string
	if h.uploads.Enabled() {
		if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		file, header, err := r.FormFile("photo")
		if err != nil {
			writeError(w, http.StatusBadRequest, "photo is required")
			return
		}
		defer file.Close()

		key, err := h.uploads.SavePhoto(r.Context(), existing.ID, file, header.Size, header.Header.Get("Content-Type"))
		if err != nil {
			h.logger.Error("save chore photo", "chore_id", existing.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save photo")
			return
		}
		photoKey = &key
	}

	chore, err := h.choreStore.SetStatus(existing.ID, model.ChoreStatusReviewing, photoKey)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to submit chore")
		return
	}

	h.broadcast(ws.ChoreEvent("submitted", chore.ID))
	h.notifyManagers(r, chore)

	writeJSON(w, http.StatusOK, chore)
}

type reviewRequest struct {
	Approve bool `json:"approve"`
	// Minutes overrides the chore's configured credit when positive.
	Minutes int `json:"minutes"`
}

// Review handles POST /api/chores/{id}/review. Staff only. Approval logs the
// minutes against the assignee's active work period; rejection reopens the
// chore for resubmission.
func (h *ChoreHandler) Review(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadChore(w, r)
	if !ok {
		return
	}

	if existing.Status != model.ChoreStatusReviewing {
		writeError(w, http.StatusConflict, "chore is not awaiting review")
		return
	}
	if existing.AssignedTo == nil {
		writeError(w, http.StatusConflict, "chore has no assignee")
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if !req.Approve {
		chore, err := h.choreStore.SetStatus(existing.ID, model.ChoreStatusRejected, nil)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to reject chore")
			return
		}
		h.broadcast(ws.ChoreEvent("rejected", chore.ID))
		h.notifyAssignee(r, chore, "Chore rejected", "Your submission for \""+chore.Title+"\" needs another look.")
		writeJSON(w, http.StatusOK, chore)
		return
	}

	minutes := existing.Minutes
	if req.Minutes > 0 {
		minutes = req.Minutes
	}

	assigneeID := *existing.AssignedTo
	now := time.Now().UTC()

	ledger, period, err := h.svc.Resolver().Resolve(assigneeID, now)
	if err != nil {
		h.logger.Error("resolve period for approval", "user_id", assigneeID, "error", err)
		writeError(w, http.StatusConflict, "assignee has no active work period")
		return
	}

	if _, err := h.periodStore.CreateChoreLog(assigneeID, &existing.ID, period.ID, now, minutes); err != nil {
		h.logger.Error("create chore log", "chore_id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record minutes")
		return
	}
	if err := h.periodStore.AddCompletedMinutes(ledger.ID, minutes); err != nil {
		h.logger.Error("add completed minutes", "chore_id", existing.ID, "error", err)
	}

	chore, err := h.choreStore.SetStatus(existing.ID, model.ChoreStatusApproved, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to approve chore")
		return
	}

	h.broadcast(ws.ChoreEvent("approved", chore.ID))
	h.notifyAssignee(r, chore, "Chore approved", "\""+chore.Title+"\" earned you "+balance.FormatHours(minutes)+" hours.")

	// Refresh the balance so connected clients update and the low-balance
	// check runs against the new total.
	if summary, err := h.svc.Summary(r.Context(), assigneeID, now); err == nil {
		h.broadcast(ws.BalanceEvent(assigneeID, summary.NetMinutes))
	}

	writeJSON(w, http.StatusOK, chore)
}

// Photo handles GET /api/chores/{id}/photo, streaming the stored proof photo.
func (h *ChoreHandler) Photo(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadChore(w, r)
	if !ok {
		return
	}
	if existing.PhotoKey == nil {
		writeError(w, http.StatusNotFound, "chore has no photo")
		return
	}

	body, contentType, err := h.uploads.OpenPhoto(r.Context(), *existing.PhotoKey)
	if err != nil {
		h.logger.Error("open chore photo", "chore_id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load photo")
		return
	}
	defer body.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	io.Copy(w, body)
}

func (h *ChoreHandler) loadChore(w http.ResponseWriter, r *http.Request) (*model.Chore, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}

	chore, err := h.choreStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get chore")
		return nil, false
	}
	if chore == nil {
		writeError(w, http.StatusNotFound, "chore not found")
		return nil, false
	}
	return chore, true
}

func (h *ChoreHandler) notifyAssignee(r *http.Request, chore *model.Chore, title, body string) {
	if h.notifier == nil || chore.AssignedTo == nil {
		return
	}
	h.sendPush(r, *chore.AssignedTo, notify.Payload{
		Title: title,
		Body:  body,
		URL:   "/chores",
		Tag:   "chore_review",
	})
}

func (h *ChoreHandler) notifyManagers(r *http.Request, chore *model.Chore) {
	if h.notifier == nil {
		return
	}
	managers, err := h.userStore.ListManagersByHouse(chore.HouseID)
	if err != nil {
		h.logger.Error("list managers for submission", "house_id", chore.HouseID, "error", err)
		return
	}
	for _, m := range managers {
		h.sendPush(r, m.ID, notify.Payload{
			Title: "Chore submitted",
			Body:  "\"" + chore.Title + "\" is awaiting review.",
			URL:   "/chores",
			Tag:   "chore_submitted",
		})
	}
}

func (h *ChoreHandler) sendPush(r *http.Request, userID int64, payload notify.Payload) {
	subs, err := h.pushStore.ListByUser(userID)
	if err != nil {
		h.logger.Error("list push subscriptions", "user_id", userID, "error", err)
		return
	}
	for i := range subs {
		if err := h.notifier.Send(r.Context(), &subs[i], payload); err != nil {
			if errors.Is(err, notify.ErrExpired) {
				h.pushStore.DeleteByEndpoint(subs[i].Endpoint)
				continue
			}
			h.logger.Warn("send push", "user_id", userID, "error", err)
		}
	}
}
