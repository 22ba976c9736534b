package models

import "time"

type Player struct {
	ID        string    `json:"id"`       // uuid, server-assigned
	Nickname  string    `json:"nickname"` // unique per active session
	Score     int       `json:"score"`    // monotonically non-decreasing
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
