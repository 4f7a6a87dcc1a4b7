package domain

import (
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingPendingPayment BookingStatus = "PENDING_PAYMENT"
	BookingConfirmed      BookingStatus = "CONFIRMED"
	BookingCancelled      BookingStatus = "CANCELLED"
	BookingCompleted      BookingStatus = "COMPLETED"
	BookingNoShow         BookingStatus = "NO_SHOW"
)

// ParseBookingStatus normalizes case and accepts the short PENDING alias.
func ParseBookingStatus(s string) (BookingStatus, bool) {
	st := BookingStatus(strings.ToUpper(strings.TrimSpace(s)))
	if st == "PENDING" {
		st = BookingPendingPayment
	}
	return st, st.IsValid()
}

func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingPendingPayment, BookingConfirmed, BookingCancelled, BookingCompleted, BookingNoShow:
		return true
	}
	return false
}

// IsTerminal reports whether only notes may still change.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

// CanTransitionTo encodes the vendor-side lifecycle.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case BookingPendingPayment:
		return next == BookingConfirmed || next == BookingCancelled
	case BookingConfirmed:
		return next == BookingCompleted || next == BookingCancelled || next == BookingNoShow
	case BookingNoShow:
		return next == BookingCompleted
	}
	return false
}

type BookingType string

const (
	BookingSimple     BookingType = "SIMPLE"
	BookingMatch      BookingType = "MATCH"
	BookingTournament BookingType = "TOURNAMENT"
	BookingDirect     BookingType = "DIRECT"
)

func ParseBookingType(s string) (BookingType, bool) {
	t := BookingType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case BookingSimple, BookingMatch, BookingTournament, BookingDirect:
		return t, true
	}
	return t, false
}

type Booking struct {
	ID            int64         `json:"id" gorm:"primaryKey"`
	VenueID       int64         `json:"venue_id" gorm:"index;not null"`
	VendorID      int64         `json:"vendor_id" gorm:"index;not null"`
	CourtID       *int64        `json:"court_id,omitempty" gorm:"index"`
	CustomerID    *int64        `json:"customer_id,omitempty" gorm:"index"`
	StartTime     time.Time     `json:"start_time" gorm:"index;not null"`
	EndTime       time.Time     `json:"end_time" gorm:"not null"`
	Duration      int           `json:"duration"`
	TotalAmount   float64       `json:"total_amount"`
	Status        BookingStatus `json:"status" gorm:"type:varchar(32);index"`
	BookingType   BookingType   `json:"booking_type" gorm:"type:varchar(32)"`
	CustomerName  string        `json:"customer_name,omitempty"`
	CustomerPhone string        `json:"customer_phone,omitempty"`
	CustomerEmail string        `json:"customer_email,omitempty"`
	Notes         string        `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	CancelledAt   *time.Time    `json:"cancelled_at,omitempty"`

	CancellationReason string `json:"cancellation_reason,omitempty" gorm:"type:text"`

	Venue  *Venue  `json:"venue,omitempty" gorm:"foreignKey:VenueID"`
	Vendor *Vendor `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`
	Court  *Court  `json:"court,omitempty" gorm:"foreignKey:CourtID"`
}
