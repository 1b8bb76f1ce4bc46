package balance

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ellisbray/homebase/internal/model"
	"github.com/ellisbray/homebase/internal/notify"
	"github.com/ellisbray/homebase/internal/store"
)

// LowBalanceThreshold is the net-minutes floor below which a resident is
// alerted: more than seven hours behind.
const LowBalanceThreshold = -7 * 60

// Sender delivers one push payload to one subscription.
type Sender interface {
	Send(ctx context.Context, sub *model.PushSubscription, payload notify.Payload) error
}

// Alerter emits low-balance notifications. Alerts fire once per
// (user, period, type): the sent-alert ledger is checked before sending and
// written after, so a fresh deficit in a later period alerts again while
// repeat summaries within a period stay quiet.
type Alerter struct {
	subs    *store.PushStore
	sender  Sender
	onAlert func(userID int64, netMinutes int)
	logger  *slog.Logger
}

// NewAlerter creates an alerter. onAlert, when non-nil, is invoked after a
// low-balance alert is recorded (used for live event broadcast).
func NewAlerter(subs *store.PushStore, sender Sender, onAlert func(userID int64, netMinutes int), logger *slog.Logger) *Alerter {
	return &Alerter{subs: subs, sender: sender, onAlert: onAlert, logger: logger}
}

// LowBalance evaluates the alert condition and sends at most one
// notification. Failures are logged, never returned: a push problem must not
// fail the summary that triggered it.
func (a *Alerter) LowBalance(ctx context.Context, user *model.User, workPeriodID int64, netMinutes int) {
	if user.Role != model.RoleResident {
		return
	}
	if netMinutes >= LowBalanceThreshold {
		return
	}

	sent, err := a.subs.WasAlertSent(user.ID, workPeriodID, model.AlertTypeLowBalance)
	if err != nil {
		a.logger.Error("check alert ledger", "user_id", user.ID, "error", err)
		return
	}
	if sent {
		return
	}

	payload := notify.Payload{
		Title: "Work Hours Behind",
		Body:  "You are " + FormatHours(-netMinutes) + " hours behind on your work period.",
		URL:   "/summary",
		Tag:   "low-balance",
	}
	a.send(ctx, user.ID, payload)

	if err := a.subs.RecordAlertSent(user.ID, workPeriodID, model.AlertTypeLowBalance); err != nil {
		a.logger.Error("record alert", "user_id", user.ID, "error", err)
		return
	}

	if a.onAlert != nil {
		a.onAlert(user.ID, netMinutes)
	}
}

// send pushes the payload to every subscription the user has, pruning ones
// the push service reports as gone.
func (a *Alerter) send(ctx context.Context, userID int64, payload notify.Payload) {
	subs, err := a.subs.ListByUser(userID)
	if err != nil {
		a.logger.Error("list subscriptions", "user_id", userID, "error", err)
		return
	}
	if len(subs) == 0 {
		a.logger.Debug("no push subscriptions", "user_id", userID)
		return
	}

	for i := range subs {
		sub := &subs[i]
		if err := a.sender.Send(ctx, sub, payload); err != nil {
			if errors.Is(err, notify.ErrExpired) {
				if err := a.subs.DeleteByEndpoint(sub.Endpoint); err != nil {
					a.logger.Error("prune subscription", "endpoint", sub.Endpoint, "error", err)
				}
				continue
			}
			a.logger.Error("send alert", "user_id", userID, "error", err)
		}
	}
}
