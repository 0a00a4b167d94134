package models

import (
	"time"
)

// Role is the closed set of account roles
type Role string

const (
	RoleCitizen   Role = "citizen"
	RoleAuthority Role = "authority"
)

// ParseRole converts a raw string into a Role
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleCitizen, RoleAuthority:
		return r, true
	}
	return "", false
}

func (r Role) String() string {
	return string(r)
}

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserUpdate carries the administrative update path; nil fields are left unchanged
type UserUpdate struct {
	Name *string
	Role *Role
}

// DailyCount is a number of events on one calendar day
type DailyCount struct {
	Date  time.Time `json:"date"`
	Count int64     `json:"count"`
}

// UserStats summarizes the user directory
type UserStats struct {
	Total         int64        `json:"total"`
	Citizens      int64        `json:"citizens"`
	Authorities   int64        `json:"authorities"`
	Registrations []DailyCount `json:"registrations"`
}
