package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ellisbray/homebase/internal/auth"
	"github.com/ellisbray/homebase/internal/balance"
)

type SummaryHandler struct {
	svc    *balance.Service
	logger *slog.Logger
}

func NewSummaryHandler(svc *balance.Service, logger *slog.Logger) *SummaryHandler {
	return &SummaryHandler{svc: svc, logger: logger}
}

// summaryResponse is the wire shape of a balance summary. The formatted
// fields are what clients render directly; the raw minute counts travel
// alongside for anything that wants to do its own math.
type summaryResponse struct {
	UserID       int64  `json:"user_id"`
	WorkPeriodID int64  `json:"work_period_id"`
	PeriodStart  string `json:"period_start"`
	PeriodEnd    string `json:"period_end"`

	WeekStatus     string `json:"week_status"`
	MonthStatus    string `json:"month_status"`
	PeriodStatus   string `json:"period_status"`
	CurrentBalance string `json:"current_balance"`

	PreviousBalance  string `json:"previous_balance"`
	BeginningBalance string `json:"beginning_balance"`

	DaysPassed    int    `json:"days_passed"`
	DaysRemaining int    `json:"days_remaining"`
	NextDeadline  string `json:"next_deadline"`

	PeriodMinutes   int `json:"period_minutes"`
	ExpectedMinutes int `json:"expected_minutes"`
	NetMinutes      int `json:"net_minutes"`

	Gated bool `json:"gated"`
}

// Get handles GET /api/users/{id}/summary. Residents may only view their own
// summary; staff may view anyone's.
func (h *SummaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if !auth.IsStaff(r.Context()) && auth.UserID(r.Context()) != id {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	summary, err := h.svc.Summary(r.Context(), id, time.Now().UTC())
	if errors.Is(err, balance.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if errors.Is(err, balance.ErrNoActivePeriod) {
		writeError(w, http.StatusNotFound, "no active work period")
		return
	}
	if err != nil {
		h.logger.Error("compute summary", "user_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute summary")
		return
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		UserID:           summary.UserID,
		WorkPeriodID:     summary.WorkPeriodID,
		PeriodStart:      summary.PeriodStart.Format("2006-01-02"),
		PeriodEnd:        summary.PeriodEnd.Format("2006-01-02"),
		WeekStatus:       summary.WeekStatus(),
		MonthStatus:      summary.MonthStatus(),
		PeriodStatus:     summary.PeriodStatus(),
		CurrentBalance:   balance.FormatHours(summary.NetMinutes),
		PreviousBalance:  balance.FormatHours(summary.PreviousBalance),
		BeginningBalance: balance.FormatHours(summary.BeginningBalance),
		DaysPassed:       summary.DaysPassed,
		DaysRemaining:    summary.DaysRemaining,
		NextDeadline:     summary.NextDeadline(),
		PeriodMinutes:    summary.PeriodMinutes,
		ExpectedMinutes:  summary.ExpectedMinutes,
		NetMinutes:       summary.NetMinutes,
		Gated:            summary.Gated,
	})
}
