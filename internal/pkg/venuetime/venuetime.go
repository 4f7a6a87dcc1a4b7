// Package venuetime converts between stored UTC instants and the wall-clock time
// of a venue's IANA zone. An unknown or empty zone degrades to UTC.
package venuetime

import (
	"errors"
	"strings"
	"sync"
	"time"
)

const (
	LocalLayout = "2006-01-02T15:04"
	DateLayout  = "2006-01-02"

	searchWindow     = 25 * time.Hour
	searchIterations = 100
)

var ErrMalformedLocal = errors.New("malformed local date-time")

var acceptedLayouts = []string{
	LocalLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

var zones sync.Map // zone name -> *time.Location

// Location resolves an IANA zone. ok is false for empty or unknown names, in which
// case UTC is returned.
func Location(zone string) (*time.Location, bool) {
	zone = strings.TrimSpace(zone)
	if zone == "" {
		return time.UTC, false
	}
	if loc, ok := zones.Load(zone); ok {
		return loc.(*time.Location), true
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return time.UTC, false
	}
	zones.Store(zone, loc)
	return loc, true
}

// ValidZone reports whether zone names a loadable IANA zone.
func ValidZone(zone string) bool {
	_, ok := Location(zone)
	return ok
}

// ToLocal formats t as venue-local wall-clock time.
func ToLocal(t time.Time, zone string) string {
	loc, _ := Location(zone)
	return t.In(loc).Format(LocalLayout)
}

// LocalDate is the venue-local calendar date of t.
func LocalDate(t time.Time, zone string) string {
	loc, _ := Location(zone)
	return t.In(loc).Format(DateLayout)
}

// FromLocal maps a venue-local wall-clock string back to a UTC instant.
//
// Resolution runs in three stages: the string read as UTC, then a single offset
// correction, then a bounded binary search over ±25h comparing formatted strings.
// Local times that do not exist (spring-forward gaps) resolve to the first instant
// after the gap. Ambiguous fall-back times resolve to whichever instant the search
// reaches first.
func FromLocal(local, zone string) (time.Time, error) {
	naive, err := parseLocal(local)
	if err != nil {
		return time.Time{}, err
	}

	loc, ok := Location(zone)
	if !ok {
		return naive, nil
	}

	target := naive.Format(LocalLayout)
	if format(naive, loc) == target {
		return naive, nil
	}

	shown := naive.In(loc)
	shownAsUTC := time.Date(shown.Year(), shown.Month(), shown.Day(), shown.Hour(), shown.Minute(), 0, 0, time.UTC)
	candidate := naive.Add(-shownAsUTC.Sub(naive))
	if format(candidate, loc) == target {
		return candidate, nil
	}

	return search(naive, target, loc), nil
}

func search(naive time.Time, target string, loc *time.Location) time.Time {
	lo := naive.Add(-searchWindow).Unix() / 60
	hi := naive.Add(searchWindow).Unix() / 60

	for i := 0; i < searchIterations && lo <= hi; i++ {
		mid := lo + (hi-lo)/2
		got := format(minuteInstant(mid), loc)
		switch {
		case got == target:
			return minuteInstant(mid)
		case got < target:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return minuteInstant(lo)
}

func parseLocal(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range acceptedLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.Truncate(time.Minute), nil
		}
	}
	return time.Time{}, ErrMalformedLocal
}

func format(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(LocalLayout)
}

func minuteInstant(unixMinutes int64) time.Time {
	return time.Unix(unixMinutes*60, 0).UTC()
}
