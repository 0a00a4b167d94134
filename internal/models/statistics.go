package models

import (
	"time"
)

// Summary holds the headline counters of the complaint store
type Summary struct {
	Total      int64   `json:"total"`
	Pending    int64   `json:"pending"`
	InProgress int64   `json:"in_progress"`
	Resolved   int64   `json:"resolved"`
	Resolution float64 `json:"resolution_percentage"`
}

// CategoryCount is the number of complaints in one category
type CategoryCount struct {
	Category Category `json:"category"`
	Count    int64    `json:"count"`
}

// StateCount is the number of complaints in one state
type StateCount struct {
	State State `json:"state"`
	Count int64 `json:"count"`
}

// GeneralStats is the full general summary view
type GeneralStats struct {
	Summary    Summary              `json:"summary"`
	Categories []CategoryCount      `json:"categories"`
	States     []StateCount         `json:"states"`
	Timeline   []DailyCount         `json:"timeline"`
	Recent     []*Complaint         `json:"-"`
	Users      *UserStats           `json:"users"`
	FollowUps  []TransitionActivity `json:"followups"`
}

// Period is a calendar window used by the period report
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// ParsePeriod accepts both the Spanish route names and their English equivalents
func ParsePeriod(s string) (Period, bool) {
	switch s {
	case "dia", "day":
		return PeriodDay, true
	case "semana", "week":
		return PeriodWeek, true
	case "mes", "month":
		return PeriodMonth, true
	case "ano", "año", "year":
		return PeriodYear, true
	}
	return "", false
}

// PeriodStats summarizes complaints created inside the current period
type PeriodStats struct {
	Period     Period          `json:"period"`
	Since      time.Time       `json:"since"`
	Total      int64           `json:"total"`
	States     []StateCount    `json:"states"`
	Categories []CategoryCount `json:"categories"`
}

// RankingEntry is one authority row of the ranking view
type RankingEntry struct {
	AuthorityID        string   `json:"authority_id"`
	Name               string   `json:"name"`
	Email              string   `json:"email"`
	Touched            int64    `json:"complaints_handled"`
	Resolved           int64    `json:"complaints_resolved"`
	AvgResolutionHours *float64 `json:"avg_resolution_hours"`
}

// HeatPoint is one cell of the heat map
type HeatPoint struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Category  Category `json:"category"`
	State     State    `json:"state"`
	Count     int64    `json:"count"`
}
