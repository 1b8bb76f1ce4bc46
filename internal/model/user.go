package model

import "time"

// User roles. Residents are the front-line role measured against work
// periods; managers and admins supervise and are never alerted.
const (
	RoleResident = "resident"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
)

type User struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	HouseID     *int64     `json:"house_id"`
	PeriodStart *time.Time `json:"period_start"`
	PeriodEnd   *time.Time `json:"period_end"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
