package model

import "time"

// Chore lifecycle statuses.
const (
	ChoreStatusPending   = "pending"
	ChoreStatusReviewing = "reviewing"
	ChoreStatusApproved  = "approved"
	ChoreStatusRejected  = "rejected"
)

type Chore struct {
	ID          int64     `json:"id"`
	HouseID     int64     `json:"house_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AssignedTo  *int64    `json:"assigned_to"`
	Minutes     int       `json:"minutes"`
	Status      string    `json:"status"`
	PhotoKey    *string   `json:"photo_key"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
