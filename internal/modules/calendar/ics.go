package calendar

import (
	"context"
	"fmt"

	"courtbook/internal/domain"

	ical "github.com/arran4/golang-ical"
)

// ICS renders the venue's bookings in the requested window as an iCalendar
// feed. Cancelled bookings are already excluded by the repository.
func (s *Service) ICS(ctx context.Context, scope domain.TenantScope, q Query) (string, error) {
	venue, rng, err := s.resolve(ctx, scope, q)
	if err != nil {
		return "", err
	}
	rows, err := s.bookings.ForVenueRange(ctx, venue.ID, rng.Start, rng.End)
	if err != nil {
		return "", err
	}

	courts := make(map[int64]string, len(venue.Courts))
	for _, c := range venue.Courts {
		courts[c.ID] = c.Name
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//courtbook//vendor calendar//EN")
	cal.SetXWRCalName(venue.Name)
	cal.SetXWRTimezone(venue.Timezone)

	for i := range rows {
		b := &rows[i]
		ev := cal.AddEvent(fmt.Sprintf("booking-%d@courtbook", b.ID))
		ev.SetDtStampTime(b.UpdatedAt.UTC())
		ev.SetCreatedTime(b.CreatedAt.UTC())
		ev.SetStartAt(b.StartTime.UTC())
		ev.SetEndAt(b.EndTime.UTC())
		ev.SetSummary(summary(b, courts))
		ev.SetLocation(venue.Name)
		if b.Notes != "" {
			ev.SetDescription(b.Notes)
		}
		ev.SetStatus(icsStatus(b.Status))
	}
	return cal.Serialize(), nil
}

func summary(b *domain.Booking, courts map[int64]string) string {
	where := "All courts"
	if b.CourtID != nil {
		if name, ok := courts[*b.CourtID]; ok {
			where = name
		} else {
			where = fmt.Sprintf("Court %d", *b.CourtID)
		}
	}
	who := b.CustomerName
	if who == "" {
		who = string(b.BookingType)
	}
	if who == "" {
		return where
	}
	return fmt.Sprintf("%s: %s", where, who)
}

func icsStatus(s domain.BookingStatus) ical.ObjectStatus {
	switch s {
	case domain.BookingPendingPayment:
		return ical.ObjectStatusTentative
	case domain.BookingCancelled:
		return ical.ObjectStatusCancelled
	}
	return ical.ObjectStatusConfirmed
}
