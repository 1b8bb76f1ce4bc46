package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ellisbray/homebase/internal/balance"
	"github.com/ellisbray/homebase/internal/model"
	"github.com/ellisbray/homebase/internal/notify"
	"github.com/ellisbray/homebase/internal/store"
)

// WeeklyReport pushes each resident a summary of the hours they logged over
// the trailing seven days. It fires once in the configured weekday/hour
// window; the runner ticks more often, so a same-day guard suppresses
// repeats.
type WeeklyReport struct {
	users   *store.UserStore
	periods *store.PeriodStore
	subs    *store.PushStore
	sender  balance.Sender
	logger  *slog.Logger

	weekday time.Weekday
	hour    int

	mu      sync.Mutex
	lastRun time.Time
}

func NewWeeklyReport(users *store.UserStore, periods *store.PeriodStore, subs *store.PushStore, sender balance.Sender, weekday time.Weekday, hour int, logger *slog.Logger) *WeeklyReport {
	return &WeeklyReport{
		users:   users,
		periods: periods,
		subs:    subs,
		sender:  sender,
		logger:  logger,
		weekday: weekday,
		hour:    hour,
	}
}

func (j *WeeklyReport) Name() string { return "weekly_report" }

func (j *WeeklyReport) Run(ctx context.Context) error {
	now := time.Now()
	if now.Weekday() != j.weekday || now.Hour() != j.hour {
		return nil
	}

	j.mu.Lock()
	if sameDay(j.lastRun, now) {
		j.mu.Unlock()
		return nil
	}
	j.lastRun = now
	j.mu.Unlock()

	return j.report(ctx, now)
}

func (j *WeeklyReport) report(ctx context.Context, now time.Time) error {
	residents, err := j.users.ListByRole(model.RoleResident)
	if err != nil {
		return fmt.Errorf("list residents: %w", err)
	}

	since := startOfDay(now).AddDate(0, 0, -7)
	var failed int
	for _, user := range residents {
		minutes, err := j.periods.SumLogMinutes(user.ID, since, now)
		if err != nil {
			j.logger.Error("weekly sum failed", "user_id", user.ID, "error", err)
			failed++
			continue
		}

		hours := balance.FormatHours(minutes)
		j.logger.Info("weekly report", "user_id", user.ID, "name", user.Name, "hours", hours)

		j.push(ctx, user.ID, notify.Payload{
			Title: "Weekly Hours",
			Body:  fmt.Sprintf("You completed %s hours this week.", hours),
			URL:   "/summary",
			Tag:   "weekly-report",
		})
	}

	if failed > 0 {
		return fmt.Errorf("%d resident(s) skipped", failed)
	}
	return nil
}

func (j *WeeklyReport) push(ctx context.Context, userID int64, payload notify.Payload) {
	subs, err := j.subs.ListByUser(userID)
	if err != nil {
		j.logger.Error("list subscriptions", "user_id", userID, "error", err)
		return
	}

	for i := range subs {
		sub := &subs[i]
		if err := j.sender.Send(ctx, sub, payload); err != nil {
			if errors.Is(err, notify.ErrExpired) {
				j.subs.DeleteByEndpoint(sub.Endpoint)
				continue
			}
			j.logger.Error("send weekly report", "user_id", userID, "error", err)
		}
	}
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
