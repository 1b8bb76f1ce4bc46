package model

import "time"

// WorkPeriod is a named inclusive date range against which required work is
// measured. A period is owned by a single user (personal period) or shared by
// a house, never both.
type WorkPeriod struct {
	ID                   int64      `json:"id"`
	Name                 string     `json:"name"`
	StartDate            time.Time  `json:"start_date"`
	EndDate              time.Time  `json:"end_date"`
	UserID               *int64     `json:"user_id"`
	HouseID              *int64     `json:"house_id"`
	CarryOverProcessedAt *time.Time `json:"carry_over_processed_at"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// Contains reports whether t falls inside the period's inclusive date range.
// Comparison is by calendar day in t's location.
func (p WorkPeriod) Contains(t time.Time) bool {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	start := time.Date(p.StartDate.Year(), p.StartDate.Month(), p.StartDate.Day(), 0, 0, 0, 0, t.Location())
	end := time.Date(p.EndDate.Year(), p.EndDate.Month(), p.EndDate.Day(), 0, 0, 0, 0, t.Location())
	return !day.Before(start) && !day.After(end)
}

// LengthDays returns the inclusive day count of the period.
func (p WorkPeriod) LengthDays() int {
	start := time.Date(p.StartDate.Year(), p.StartDate.Month(), p.StartDate.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(p.EndDate.Year(), p.EndDate.Month(), p.EndDate.Day(), 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours()/24) + 1
}

// UserWorkPeriod is the durable per-user-per-period ledger. Exactly one row
// exists per (user, work period) pair; the unique constraint backs the atomic
// find-or-create in the period store.
type UserWorkPeriod struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"user_id"`
	WorkPeriodID     int64     `json:"work_period_id"`
	RequiredMinutes  int       `json:"required_minutes"`
	CompletedMinutes int       `json:"completed_minutes"`
	CarryOverMinutes int       `json:"carry_over_minutes"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ChoreLog is an immutable record of logged work. Entries are written when a
// chore submission is approved and are only ever read back as aggregates.
type ChoreLog struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	ChoreID      *int64    `json:"chore_id"`
	WorkPeriodID int64     `json:"work_period_id"`
	Date         time.Time `json:"date"`
	Minutes      int       `json:"minutes"`
	CreatedAt    time.Time `json:"created_at"`
}
