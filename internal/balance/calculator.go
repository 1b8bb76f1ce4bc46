package balance

import (
	"strconv"
	"time"

	"github.com/ellisbray/homebase/internal/model"
)

// MinutesPerDay is the flat expectation: one hour of logged work per elapsed
// calendar day of the period.
const MinutesPerDay = 60

// Summary is the computed balance picture for one user at one instant.
type Summary struct {
	UserID       int64     `json:"user_id"`
	WorkPeriodID int64     `json:"work_period_id"`
	PeriodStart  time.Time `json:"period_start"`
	PeriodEnd    time.Time `json:"period_end"`

	WeekMinutes     int `json:"week_minutes"`
	MonthMinutes    int `json:"month_minutes"`
	PeriodMinutes   int `json:"period_minutes"`
	ExpectedMinutes int `json:"expected_minutes"`
	NetMinutes      int `json:"net_minutes"`

	// BeginningBalance is the carry-over inherited into this period.
	// PreviousBalance is the prior period's closing carry-over, zero when no
	// prior ledger row exists.
	BeginningBalance int `json:"beginning_balance"`
	PreviousBalance  int `json:"previous_balance"`

	DaysPassed    int `json:"days_passed"`
	DaysRemaining int `json:"days_remaining"`

	// Gated is set when the prior-balance policy suppresses current-period
	// progress; only the beginning balance and boundaries are meaningful.
	Gated bool `json:"gated"`
}

// Input carries the aggregates the calculator needs. Keeping it as plain
// numbers keeps the computation pure and independent of the store.
type Input struct {
	Period        model.WorkPeriod
	Ledger        model.UserWorkPeriod
	Now           time.Time
	PeriodMinutes int
	WeekMinutes   int
	MonthMinutes  int
}

// Compute derives the full summary from resolved inputs.
func Compute(in Input) Summary {
	days := DaysPassed(in.Period, in.Now)
	expected := days * MinutesPerDay
	length := in.Period.LengthDays()

	remaining := length - days
	if remaining < 0 {
		remaining = 0
	}

	return Summary{
		UserID:           in.Ledger.UserID,
		WorkPeriodID:     in.Period.ID,
		PeriodStart:      in.Period.StartDate,
		PeriodEnd:        in.Period.EndDate,
		WeekMinutes:      in.WeekMinutes,
		MonthMinutes:     in.MonthMinutes,
		PeriodMinutes:    in.PeriodMinutes,
		ExpectedMinutes:  expected,
		NetMinutes:       in.Ledger.CarryOverMinutes + in.PeriodMinutes - expected,
		BeginningBalance: in.Ledger.CarryOverMinutes,
		DaysPassed:       days,
		DaysRemaining:    remaining,
	}
}

// DaysPassed returns the 1-based day of the period at now, clamped to
// [1, period length] so instants before the start or after the end still
// produce a sane expectation.
func DaysPassed(p model.WorkPeriod, now time.Time) int {
	start := startOfDay(p.StartDate.In(now.Location()))
	day := int(startOfDay(now).Sub(start).Hours()/24) + 1

	length := p.LengthDays()
	if day < 1 {
		return 1
	}
	if day > length {
		return length
	}
	return day
}

// FormatHours renders minutes as hours with one decimal place. Negative
// values carry an explicit leading minus on the absolute value.
func FormatHours(minutes int) string {
	abs := minutes
	if abs < 0 {
		abs = -abs
	}
	s := strconv.FormatFloat(float64(abs)/60, 'f', 1, 64)
	if minutes < 0 && s != "0.0" {
		return "-" + s
	}
	return s
}

// WeekStatus is the formatted hour total for the calendar week containing now.
func (s Summary) WeekStatus() string { return FormatHours(s.WeekMinutes) }

// MonthStatus is the formatted hour total for the calendar month containing now.
func (s Summary) MonthStatus() string { return FormatHours(s.MonthMinutes) }

// PeriodStatus pairs logged hours with the elapsed day of the period,
// e.g. "0.0 / 1" on day one with nothing logged.
func (s Summary) PeriodStatus() string {
	return FormatHours(s.PeriodMinutes) + " / " + strconv.Itoa(s.DaysPassed)
}

// NextDeadline is the period end formatted for display.
func (s Summary) NextDeadline() string { return s.PeriodEnd.Format("2006-01-02") }

// --- Calendar helpers ---

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// WeekRange returns the inclusive bounds of the calendar week containing t.
// Weeks start on Sunday.
func WeekRange(t time.Time) (time.Time, time.Time) {
	start := startOfDay(t).AddDate(0, 0, -int(t.Weekday()))
	return start, endOfDay(start.AddDate(0, 0, 6))
}

// MonthRange returns the inclusive bounds of the calendar month containing t.
func MonthRange(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, endOfDay(start.AddDate(0, 1, -1))
}
