package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validSession() *Session {
	return &Session{
		HorseID:         "h1",
		RiderID:         "r1",
		Date:            time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC),
		WorkType:        WorkFlat,
		DurationMinutes: 45,
	}
}

func TestSession_Validate(t *testing.T) {
	assert.NoError(t, validSession().Validate())

	tests := []struct {
		name   string
		mutate func(*Session)
		want   string
	}{
		{"missing horse", func(s *Session) { s.HorseID = "" }, "horse is required"},
		{"missing rider", func(s *Session) { s.RiderID = "" }, "rider is required"},
		{"unknown work type", func(s *Session) { s.WorkType = "dressage" }, "unknown work type"},
		{"zero duration", func(s *Session) { s.DurationMinutes = 0 }, "duration must be"},
		{"too long", func(s *Session) { s.DurationMinutes = MaxSessionMinutes + 1 }, "duration must be"},
		{"missing date", func(s *Session) { s.Date = time.Time{} }, "date is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSession()
			tt.mutate(s)
			err := s.Validate()
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestWorkType_Label(t *testing.T) {
	assert.Equal(t, "flatwork", WorkFlat.Label())
	assert.Equal(t, "pole work", WorkPoles.Label())
	assert.Equal(t, "mystery", WorkType("mystery").Label())
	assert.False(t, WorkType("mystery").Valid())
	for _, wt := range WorkTypes {
		assert.True(t, wt.Valid(), wt)
	}
	assert.Equal(t, "flat, jumping, poles, hack, lunge, groundwork, conditioning, other", WorkTypeCodes())
}

func TestHorse_BelongsTo(t *testing.T) {
	h := &Horse{ID: "h1", BarnID: "b1"}
	assert.True(t, h.BelongsTo("b1"))
	assert.False(t, h.BelongsTo("b2"))
	assert.False(t, h.BelongsTo(""))

	var nilHorse *Horse
	assert.False(t, nilHorse.BelongsTo("b1"))
}
