package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	VenueID    int64  `json:"venueId" validate:"required,gt=0"`
	Zone       string `json:"zone" validate:"omitempty,timezone"`
	Recurrence string `json:"recurrence" validate:"rrule"`
}

func TestValidateUsesJSONNames(t *testing.T) {
	errs := Validate(sample{Zone: "Mars/Olympus", Recurrence: "FREQ=NEVER"})
	assert.Equal(t, "required", errs["venueId"])
	assert.Equal(t, "timezone", errs["zone"])
	assert.Equal(t, "rrule", errs["recurrence"])

	assert.Nil(t, Validate(sample{VenueID: 1, Zone: "Asia/Kolkata", Recurrence: "FREQ=WEEKLY;BYDAY=MO"}))
}

func TestFirstIsStable(t *testing.T) {
	errs := Validate(sample{Zone: "Mars/Olympus", Recurrence: "FREQ=NEVER"})
	for i := 0; i < 20; i++ {
		field, tag := First(errs)
		assert.Equal(t, "recurrence", field)
		assert.Equal(t, "rrule", tag)
	}

	field, tag := First(nil)
	assert.Empty(t, field)
	assert.Empty(t, tag)
}
