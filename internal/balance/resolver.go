package balance

import (
	"errors"
	"fmt"
	"time"

	"github.com/ellisbray/homebase/internal/model"
	"github.com/ellisbray/homebase/internal/store"
)

// Reportable resolution failures, surfaced to callers as 404-class conditions.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrNoActivePeriod = errors.New("no active work period")
)

// Resolver determines or creates the applicable work period and per-user
// ledger row for a user at a given instant.
//
// Resolution order:
//  1. an existing ledger row whose period contains now
//  2. the user's personal period window, if set on the user record
//  3. the house's shared period, when the user belongs to a house
//  4. a personal period defaulted to the current calendar month and
//     persisted onto the user
//
// Repeated calls within the same period return the same ledger row; the
// find-or-create goes through the unique-constraint upsert in the store, so
// concurrent resolutions cannot create duplicates.
type Resolver struct {
	users   *store.UserStore
	periods *store.PeriodStore
}

func NewResolver(users *store.UserStore, periods *store.PeriodStore) *Resolver {
	return &Resolver{users: users, periods: periods}
}

func (r *Resolver) Resolve(userID int64, now time.Time) (*model.UserWorkPeriod, *model.WorkPeriod, error) {
	ledger, period, err := r.periods.GetActiveUserWorkPeriod(userID, now)
	if err != nil {
		return nil, nil, fmt.Errorf("lookup active period: %w", err)
	}
	if ledger != nil {
		return ledger, period, nil
	}

	user, err := r.users.GetByID(userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, nil, ErrUserNotFound
	}

	if user.PeriodStart != nil && user.PeriodEnd != nil {
		return r.resolvePersonal(user.ID, *user.PeriodStart, *user.PeriodEnd, now)
	}

	if user.HouseID != nil {
		return r.resolveHouse(user.ID, *user.HouseID, now)
	}

	// No personal window and no house: default a personal period covering
	// the current calendar month and remember it on the user record.
	start, end := MonthRange(now)
	if err := r.users.SetPeriod(user.ID, start, end); err != nil {
		return nil, nil, fmt.Errorf("persist default period: %w", err)
	}
	return r.resolvePersonal(user.ID, start, end, now)
}

// resolvePersonal finds or creates the user-owned period for the window and
// its ledger row. Required minutes are one hour per day in range; completed
// and carry-over start at zero.
func (r *Resolver) resolvePersonal(userID int64, start, end time.Time, now time.Time) (*model.UserWorkPeriod, *model.WorkPeriod, error) {
	start = startOfDay(start)
	end = endOfDay(end)

	period, err := r.periods.FindPersonalPeriod(userID, start, end)
	if err != nil {
		return nil, nil, fmt.Errorf("find personal period: %w", err)
	}
	if period == nil {
		name := fmt.Sprintf("Work Period %s", start.Format("January 2006"))
		period, err = r.periods.CreateWorkPeriod(name, start, end, &userID, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("create personal period: %w", err)
		}
	}

	required := period.LengthDays() * MinutesPerDay
	ledger, err := r.periods.EnsureUserWorkPeriod(userID, period.ID, required)
	if err != nil {
		return nil, nil, fmt.Errorf("ensure ledger row: %w", err)
	}
	return ledger, period, nil
}

// resolveHouse attaches the user to the house's shared period. The house path
// carries no pre-computed requirement; the ledger accrues from logs only.
func (r *Resolver) resolveHouse(userID, houseID int64, now time.Time) (*model.UserWorkPeriod, *model.WorkPeriod, error) {
	period, err := r.periods.GetHousePeriod(houseID)
	if err != nil {
		return nil, nil, fmt.Errorf("load house period: %w", err)
	}
	if period == nil {
		return nil, nil, ErrNoActivePeriod
	}
	if !period.Contains(now) {
		return nil, nil, ErrNoActivePeriod
	}

	ledger, err := r.periods.EnsureUserWorkPeriod(userID, period.ID, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("ensure ledger row: %w", err)
	}
	return ledger, period, nil
}
