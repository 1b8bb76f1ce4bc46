package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ellisbray/homebase/internal/store"
)

// CarryOver sweeps ended work periods and writes forward each user's surplus
// as that ledger row's carry-over balance. Deficits are not propagated.
//
// The sweep is idempotent: carry-over is an overwrite of a value derived
// entirely from immutable logs, and a period is only marked processed once
// every ledger row in it has been handled, so a partial failure is retried on
// the next tick.
type CarryOver struct {
	periods *store.PeriodStore
	logger  *slog.Logger
}

func NewCarryOver(periods *store.PeriodStore, logger *slog.Logger) *CarryOver {
	return &CarryOver{periods: periods, logger: logger}
}

func (j *CarryOver) Name() string { return "carry_over" }

func (j *CarryOver) Run(ctx context.Context) error {
	return j.sweep(time.Now().UTC())
}

func (j *CarryOver) sweep(now time.Time) error {
	periods, err := j.periods.ListEndedUnprocessed(now)
	if err != nil {
		return fmt.Errorf("list ended periods: %w", err)
	}

	var failed int
	for _, period := range periods {
		ok, err := j.processPeriod(period.ID)
		if err != nil {
			j.logger.Error("carry over period failed", "period_id", period.ID, "error", err)
			failed++
			continue
		}
		if !ok {
			failed++
			continue
		}
		if err := j.periods.MarkCarryOverProcessed(period.ID, now); err != nil {
			j.logger.Error("mark processed failed", "period_id", period.ID, "error", err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d period(s) incomplete", failed)
	}
	return nil
}

// processPeriod applies carry-over for every ledger row in the period. One
// user's failure is logged and skipped so the rest still get their balance;
// the period is left unprocessed in that case and retried later.
func (j *CarryOver) processPeriod(periodID int64) (bool, error) {
	totals, err := j.periods.SumLogMinutesByUser(periodID)
	if err != nil {
		return false, fmt.Errorf("sum logs: %w", err)
	}
	ledgers, err := j.periods.ListUserWorkPeriodsByPeriod(periodID)
	if err != nil {
		return false, fmt.Errorf("list ledgers: %w", err)
	}

	allOK := true
	for _, ledger := range ledgers {
		extra := totals[ledger.UserID] - ledger.RequiredMinutes
		if extra <= 0 {
			continue
		}
		if err := j.periods.SetCarryOver(ledger.ID, extra); err != nil {
			j.logger.Error("set carry over failed", "user_id", ledger.UserID, "period_id", periodID, "error", err)
			allOK = false
		}
	}
	return allOK, nil
}
