package model

import "time"

// Alert type constants
const (
	AlertTypeLowBalance  = "low_balance"
	AlertTypeWeeklyHours = "weekly_hours"
)

type PushSubscription struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Endpoint   string    `json:"endpoint"`
	P256dhKey  string    `json:"p256dh_key"`
	AuthKey    string    `json:"auth_key"`
	DeviceName string    `json:"device_name"`
	CreatedAt  time.Time `json:"created_at"`
}

// SentAlert is the dedup ledger for one-shot notifications. The unique
// (user_id, work_period_id, alert_type) triple scopes dedup to a period, so a
// fresh deficit in a later period alerts again.
type SentAlert struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	WorkPeriodID int64     `json:"work_period_id"`
	AlertType    string    `json:"alert_type"`
	CreatedAt    time.Time `json:"created_at"`
}
