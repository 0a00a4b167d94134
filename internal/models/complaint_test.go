package models

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func TestNewCoordinates(t *testing.T) {
	tests := []struct {
		name      string
		lat, lng  *float64
		wantNil   bool
		wantField string
	}{
		{name: "both absent", lat: nil, lng: nil, wantNil: true},
		{name: "both present", lat: ptr(19.43), lng: ptr(-99.13)},
		{name: "boundary values", lat: ptr(-90), lng: ptr(180)},
		{name: "only latitude", lat: ptr(19.43), lng: nil, wantField: "coordinates"},
		{name: "only longitude", lat: nil, lng: ptr(-99.13), wantField: "coordinates"},
		{name: "latitude out of range", lat: ptr(90.5), lng: ptr(0), wantField: "latitude"},
		{name: "longitude out of range", lat: ptr(0), lng: ptr(-180.01), wantField: "longitude"},
		{name: "latitude NaN", lat: ptr(math.NaN()), lng: ptr(10), wantField: "latitude"},
		{name: "longitude infinite", lat: ptr(10), lng: ptr(math.Inf(-1)), wantField: "longitude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coords, err := NewCoordinates(tt.lat, tt.lng)

			if tt.wantField != "" {
				require.Error(t, err)
				assert.Nil(t, coords)
				ve, ok := AsValidationError(err)
				require.True(t, ok)
				assert.Equal(t, tt.wantField, ve.Fields[0].Field)
				assert.True(t, errors.Is(err, ErrBadRequest))
				return
			}

			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, coords)
				return
			}
			require.NotNil(t, coords)
			assert.Equal(t, *tt.lat, coords.Latitude)
			assert.Equal(t, *tt.lng, coords.Longitude)
		})
	}
}

func TestNewCoordinates_ReportsBothRangeErrors(t *testing.T) {
	_, err := NewCoordinates(ptr(-91), ptr(181))

	ve, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Len(t, ve.Fields, 2)
}

func TestParseEnums(t *testing.T) {
	c, ok := ParseCategory("lighting")
	assert.True(t, ok)
	assert.Equal(t, CategoryLighting, c)

	_, ok = ParseCategory("graffiti")
	assert.False(t, ok)

	s, ok := ParseState("in_progress")
	assert.True(t, ok)
	assert.Equal(t, StateInProgress, s)

	_, ok = ParseState("closed")
	assert.False(t, ok)

	r, ok := ParseRole("authority")
	assert.True(t, ok)
	assert.Equal(t, RoleAuthority, r)

	_, ok = ParseRole("admin")
	assert.False(t, ok)
}

func TestParsePeriod(t *testing.T) {
	tests := map[string]Period{
		"dia": PeriodDay, "day": PeriodDay,
		"semana": PeriodWeek, "week": PeriodWeek,
		"mes": PeriodMonth, "month": PeriodMonth,
		"ano": PeriodYear, "year": PeriodYear,
	}
	for in, want := range tests {
		got, ok := ParsePeriod(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParsePeriod("decade")
	assert.False(t, ok)
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Fields: []FieldError{
		{Field: "title", Message: "is required"},
		{Field: "address", Message: "is too short"},
	}}
	assert.Equal(t, "validation failed: title: is required; address: is too short", err.Error())
	assert.Equal(t, "validation failed", (&ValidationError{}).Error())
}
