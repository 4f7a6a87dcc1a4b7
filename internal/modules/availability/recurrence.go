package availability

import (
	"fmt"
	"time"

	"courtbook/internal/domain"
	"courtbook/internal/pkg/timerange"

	"github.com/teambition/rrule-go"
)

// maxOccurrences bounds how many recurring instances one conflict may contribute
// to a single window.
const maxOccurrences = 512

// ValidateRecurrence parses an RRULE body such as "FREQ=WEEKLY;BYDAY=MO".
func ValidateRecurrence(rule string) error {
	if rule == "" {
		return nil
	}
	if _, err := rrule.StrToRRule(rule); err != nil {
		return fmt.Errorf("invalid recurrence %q: %w", rule, err)
	}
	return nil
}

// ConflictRanges returns the blocked instants of c that meet window. Recurring
// conflicts keep the wall clock of their first occurrence in loc.
func ConflictRanges(c domain.Conflict, loc *time.Location, window timerange.Range) ([]timerange.Range, error) {
	first := timerange.New(c.StartTime, c.EndTime)
	if !c.IsRecurring() {
		if first.Overlaps(window) {
			return []timerange.Range{first}, nil
		}
		return nil, nil
	}

	r, err := rrule.StrToRRule(c.Recurrence)
	if err != nil {
		return nil, fmt.Errorf("conflict %d: %w", c.ID, err)
	}
	r.DTStart(c.StartTime.In(loc))

	var set rrule.Set
	set.RRule(r)

	dur := first.Duration()
	from := window.Start.Add(-dur).In(loc)
	to := window.End.In(loc)

	occ := set.Between(from, to, true)
	if len(occ) > maxOccurrences {
		occ = occ[:maxOccurrences]
	}

	out := make([]timerange.Range, 0, len(occ))
	for _, start := range occ {
		rng := timerange.New(start.UTC(), start.Add(dur).UTC())
		if rng.Overlaps(window) {
			out = append(out, rng)
		}
	}
	return out, nil
}
