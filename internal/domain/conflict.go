package domain

import "time"

type ConflictStatus string

const (
	ConflictActive   ConflictStatus = "active"
	ConflictInactive ConflictStatus = "inactive"
)

// Conflict is a vendor blackout period. A nil CourtID blocks the whole venue.
// Recurrence, when set, is an RRULE whose first occurrence is [StartTime, EndTime).
type Conflict struct {
	ID         int64          `json:"id" gorm:"primaryKey"`
	VenueID    int64          `json:"venue_id" gorm:"index;not null"`
	CourtID    *int64         `json:"court_id,omitempty" gorm:"index"`
	StartTime  time.Time      `json:"start_time" gorm:"not null"`
	EndTime    time.Time      `json:"end_time" gorm:"not null"`
	Status     ConflictStatus `json:"status" gorm:"type:varchar(16);index"`
	Reason     string         `json:"reason,omitempty"`
	Recurrence string         `json:"recurrence,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func (c Conflict) IsRecurring() bool {
	return c.Recurrence != ""
}
