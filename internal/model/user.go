package model

import "time"

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	Avatar       string    `json:"avatar,omitempty"`
	XPPoints     int       `json:"xp_points"`
	Level        int       `json:"level"`
	FamilyID     *int64    `json:"family_id,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
