package models

import (
	"math"
	"time"
)

// Category classifies the civic issue a complaint reports
type Category string

const (
	CategoryPothole   Category = "pothole"
	CategoryLighting  Category = "lighting"
	CategoryTrash     Category = "trash"
	CategoryWater     Category = "water"
	CategorySecurity  Category = "security"
	CategoryTransport Category = "transport"
	CategoryOther     Category = "other"
)

// Categories lists every category in display order
var Categories = []Category{
	CategoryPothole, CategoryLighting, CategoryTrash, CategoryWater,
	CategorySecurity, CategoryTransport, CategoryOther,
}

// ParseCategory converts a raw string into a Category
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// State is the lifecycle position of a complaint
type State string

const (
	StatePending    State = "pending"
	StateInProgress State = "in_progress"
	StateResolved   State = "resolved"
)

// States lists every state in lifecycle order
var States = []State{StatePending, StateInProgress, StateResolved}

// ParseState converts a raw string into a State
func ParseState(s string) (State, bool) {
	for _, st := range States {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Coordinates is a geographic point. A complaint either has one or has none.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// NewCoordinates builds the optional location of a complaint from two
// independently optional inputs. Both nil yields nil; exactly one nil is rejected.
func NewCoordinates(lat, lng *float64) (*Coordinates, error) {
	if lat == nil && lng == nil {
		return nil, nil
	}
	if lat == nil || lng == nil {
		return nil, NewValidationError("coordinates", "latitude and longitude must be sent together or not at all")
	}

	ve := &ValidationError{}
	if !finite(*lat) || *lat < -90 || *lat > 90 {
		ve.Fields = append(ve.Fields, FieldError{Field: "latitude", Message: "must be between -90 and 90"})
	}
	if !finite(*lng) || *lng < -180 || *lng > 180 {
		ve.Fields = append(ve.Fields, FieldError{Field: "longitude", Message: "must be between -180 and 180"})
	}
	if len(ve.Fields) > 0 {
		return nil, ve
	}

	return &Coordinates{Latitude: *lat, Longitude: *lng}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Complaint is a citizen-submitted report tracked through the state lifecycle
type Complaint struct {
	ID          string
	SubmitterID string
	Title       string
	Description string
	Category    Category
	Location    *Coordinates
	Address     string
	PhotoURL    *string
	State       State
	CreatedAt   time.Time

	// Read-model fields joined from users
	SubmitterName  string
	SubmitterEmail string
}

// NewComplaint is the input of the create operation
type NewComplaint struct {
	SubmitterID string
	Title       string
	Description string
	Category    Category
	Address     string
	Location    *Coordinates
	PhotoURL    *string
}
