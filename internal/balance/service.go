package balance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ellisbray/homebase/internal/store"
)

// Config selects between the two reporting policies the summary supports.
// When RequirePriorBalanceCleared is on, a user whose previous period closed
// with a non-zero balance sees only the beginning balance and period
// boundaries until that balance is cleared.
type Config struct {
	RequirePriorBalanceCleared bool
}

// Service computes balance summaries: it resolves the active period,
// aggregates logged minutes, runs the calculator, and conditionally fires the
// low-balance alert.
type Service struct {
	users    *store.UserStore
	periods  *store.PeriodStore
	resolver *Resolver
	alerter  *Alerter
	cfg      Config
	logger   *slog.Logger
}

// NewService creates a summary service. alerter may be nil when push is not
// configured; summaries still compute, nothing is sent.
func NewService(users *store.UserStore, periods *store.PeriodStore, alerter *Alerter, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		users:    users,
		periods:  periods,
		resolver: NewResolver(users, periods),
		alerter:  alerter,
		cfg:      cfg,
		logger:   logger,
	}
}

// Resolver exposes the underlying period resolver, used by the chore-approval
// flow to attribute logs to the right period.
func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// Summary produces the full balance picture for a user at now.
func (s *Service) Summary(ctx context.Context, userID int64, now time.Time) (*Summary, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	ledger, period, err := s.resolver.Resolve(userID, now)
	if err != nil {
		return nil, err
	}

	prevLedger, _, err := s.periods.GetPreviousUserWorkPeriod(userID, period.StartDate)
	if err != nil {
		return nil, fmt.Errorf("load previous period: %w", err)
	}
	previousBalance := 0
	if prevLedger != nil {
		previousBalance = prevLedger.CarryOverMinutes
	}

	if s.cfg.RequirePriorBalanceCleared && prevLedger != nil && prevLedger.CarryOverMinutes != 0 {
		return &Summary{
			UserID:           userID,
			WorkPeriodID:     period.ID,
			PeriodStart:      period.StartDate,
			PeriodEnd:        period.EndDate,
			BeginningBalance: ledger.CarryOverMinutes,
			PreviousBalance:  previousBalance,
			DaysPassed:       DaysPassed(*period, now),
			DaysRemaining:    period.LengthDays() - DaysPassed(*period, now),
			Gated:            true,
		}, nil
	}

	periodMinutes, err := s.periods.SumLogMinutes(userID, period.StartDate, now)
	if err != nil {
		return nil, fmt.Errorf("sum period minutes: %w", err)
	}
	weekStart, weekEnd := WeekRange(now)
	weekMinutes, err := s.periods.SumLogMinutes(userID, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("sum week minutes: %w", err)
	}
	monthStart, monthEnd := MonthRange(now)
	monthMinutes, err := s.periods.SumLogMinutes(userID, monthStart, monthEnd)
	if err != nil {
		return nil, fmt.Errorf("sum month minutes: %w", err)
	}

	summary := Compute(Input{
		Period:        *period,
		Ledger:        *ledger,
		Now:           now,
		PeriodMinutes: periodMinutes,
		WeekMinutes:   weekMinutes,
		MonthMinutes:  monthMinutes,
	})
	summary.PreviousBalance = previousBalance

	if s.alerter != nil {
		s.alerter.LowBalance(ctx, user, period.ID, summary.NetMinutes)
	}

	return &summary, nil
}
