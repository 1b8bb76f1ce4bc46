package balance

import (
	"testing"
	"time"

	"github.com/ellisbray/homebase/internal/model"
)

func testPeriod(start, end time.Time) model.WorkPeriod {
	return model.WorkPeriod{ID: 1, Name: "test", StartDate: start, EndDate: end}
}

func TestDaysPassed(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)
	p := testPeriod(start, end)

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"first day", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), 1},
		{"mid period", time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC), 10},
		{"last day", time.Date(2026, 3, 31, 1, 0, 0, 0, time.UTC), 31},
		{"before start clamps to 1", time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC), 1},
		{"after end clamps to length", time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC), 31},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysPassed(p, tt.now); got != tt.want {
				t.Errorf("DaysPassed = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFormatHours(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{0, "0.0"},
		{90, "1.5"},
		{60, "1.0"},
		{-210, "-3.5"},
		{-30, "-0.5"},
		{45, "0.8"},
		{1860, "31.0"},
	}
	for _, tt := range tests {
		if got := FormatHours(tt.minutes); got != tt.want {
			t.Errorf("FormatHours(%d) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

func TestCompute(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	s := Compute(Input{
		Period:        testPeriod(start, end),
		Ledger:        model.UserWorkPeriod{UserID: 7, CarryOverMinutes: 120},
		Now:           now,
		PeriodMinutes: 300,
		WeekMinutes:   90,
		MonthMinutes:  300,
	})

	if s.DaysPassed != 10 {
		t.Errorf("DaysPassed = %d, want 10", s.DaysPassed)
	}
	if s.ExpectedMinutes != 600 {
		t.Errorf("ExpectedMinutes = %d, want 600", s.ExpectedMinutes)
	}
	// carry-over 120 + logged 300 - expected 600
	if s.NetMinutes != -180 {
		t.Errorf("NetMinutes = %d, want -180", s.NetMinutes)
	}
	if s.BeginningBalance != 120 {
		t.Errorf("BeginningBalance = %d, want 120", s.BeginningBalance)
	}
	if s.DaysRemaining != 21 {
		t.Errorf("DaysRemaining = %d, want 21", s.DaysRemaining)
	}
}

func TestStatusFormatting(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	s := Compute(Input{
		Period: testPeriod(start, end),
		Ledger: model.UserWorkPeriod{UserID: 7},
		Now:    now,
	})

	if got := s.PeriodStatus(); got != "0.0 / 1" {
		t.Errorf("PeriodStatus = %q, want %q", got, "0.0 / 1")
	}
	if got := s.WeekStatus(); got != "0.0" {
		t.Errorf("WeekStatus = %q, want %q", got, "0.0")
	}
	if got := s.NextDeadline(); got != "2026-03-31" {
		t.Errorf("NextDeadline = %q, want %q", got, "2026-03-31")
	}
}

func TestWeekRangeStartsSunday(t *testing.T) {
	// Wednesday 2026-03-11
	now := time.Date(2026, 3, 11, 15, 0, 0, 0, time.UTC)
	start, end := WeekRange(now)

	if start.Weekday() != time.Sunday {
		t.Errorf("week start weekday = %v, want Sunday", start.Weekday())
	}
	if got := start.Format("2006-01-02"); got != "2026-03-08" {
		t.Errorf("week start = %s, want 2026-03-08", got)
	}
	if got := end.Format("2006-01-02"); got != "2026-03-14" {
		t.Errorf("week end = %s, want 2026-03-14", got)
	}
}

func TestMonthRange(t *testing.T) {
	now := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	start, end := MonthRange(now)

	if got := start.Format("2006-01-02"); got != "2026-02-01" {
		t.Errorf("month start = %s, want 2026-02-01", got)
	}
	if got := end.Format("2006-01-02"); got != "2026-02-28" {
		t.Errorf("month end = %s, want 2026-02-28", got)
	}
}
