// Package calendar lays bookings out on the vendor dashboard's hour grid and
// exports them as iCalendar feeds.
package calendar

import (
	"math"
	"sort"
	"time"

	"courtbook/internal/domain"
	"courtbook/internal/pkg/timerange"
	"courtbook/internal/pkg/venuetime"
)

const DefaultHourWidthPx = 120

type Grid struct {
	StartHour   int
	EndHour     int
	HourWidthPx float64
}

func (g Grid) normalized() Grid {
	if g.EndHour <= 0 || g.EndHour > 24 {
		g.EndHour = 24
	}
	if g.StartHour < 0 || g.StartHour >= g.EndHour {
		g.StartHour = 0
	}
	if g.HourWidthPx <= 0 {
		g.HourWidthPx = DefaultHourWidthPx
	}
	return g
}

// Block is the part of one booking drawn inside one hour cell.
type Block struct {
	BookingID         int64   `json:"bookingId"`
	CourtID           *int64  `json:"courtId"`
	Date              string  `json:"date"`
	Hour              int     `json:"hour"`
	Status            string  `json:"status"`
	LeftOffsetPercent float64 `json:"leftOffsetPercent"`
	WidthPercent      float64 `json:"widthPercent"`
	LeftPx            float64 `json:"leftPx"`
	WidthPx           float64 `json:"widthPx"`
	Continues         bool    `json:"continues"`
}

type Day struct {
	Date   string  `json:"date"`
	Blocks []Block `json:"blocks"`
}

// Layout emits one block per booking per hour cell it touches within rng,
// using the venue-local wall clock of zone. Court-less bookings are repeated
// on every court row when courts is non-empty; bookings on unknown courts are
// skipped.
func Layout(bookings []domain.Booking, courts []domain.Court, rng timerange.Range, zone string, grid Grid) []Block {
	grid = grid.normalized()
	loc, _ := venuetime.Location(zone)

	known := make(map[int64]bool, len(courts))
	for _, c := range courts {
		known[c.ID] = true
	}

	var out []Block
	for i := range bookings {
		b := &bookings[i]
		span, ok := timerange.New(b.StartTime, b.EndTime).Clip(rng)
		if !ok {
			continue
		}

		for _, courtID := range rows(b.CourtID, courts, known) {
			out = append(out, hourBlocks(b, courtID, span, loc, grid)...)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].Hour != out[j].Hour {
			return out[i].Hour < out[j].Hour
		}
		return out[i].BookingID < out[j].BookingID
	})
	return out
}

func rows(courtID *int64, courts []domain.Court, known map[int64]bool) []*int64 {
	if len(courts) == 0 {
		return []*int64{courtID}
	}
	if courtID == nil {
		out := make([]*int64, 0, len(courts))
		for i := range courts {
			out = append(out, &courts[i].ID)
		}
		return out
	}
	if !known[*courtID] {
		return nil
	}
	return []*int64{courtID}
}

func hourBlocks(b *domain.Booking, courtID *int64, span timerange.Range, loc *time.Location, grid Grid) []Block {
	var out []Block

	start := span.Start.In(loc)
	slot := time.Date(start.Year(), start.Month(), start.Day(), start.Hour(), 0, 0, 0, loc)
	// Zones with non-whole-hour offsets still start cells on the local hour.
	for slot.After(start) {
		slot = slot.Add(-time.Hour)
	}

	for ; slot.Before(span.End); slot = slot.Add(time.Hour) {
		local := slot.In(loc)
		if local.Hour() < grid.StartHour || local.Hour() >= grid.EndHour {
			continue
		}
		slotEnd := slot.Add(time.Hour)

		offset := math.Max(0, span.Start.Sub(slot).Minutes())
		dur := math.Min(60-offset, span.End.Sub(maxTime(span.Start, slot)).Minutes())
		if dur <= 0 {
			continue
		}

		left := round2(offset / 60 * 100)
		width := round2(dur / 60 * 100)
		out = append(out, Block{
			BookingID:         b.ID,
			CourtID:           courtID,
			Date:              local.Format(venuetime.DateLayout),
			Hour:              local.Hour(),
			Status:            string(b.Status),
			LeftOffsetPercent: left,
			WidthPercent:      width,
			LeftPx:            round2(left / 100 * grid.HourWidthPx),
			WidthPx:           round2(width / 100 * grid.HourWidthPx),
			Continues:         span.End.After(slotEnd),
		})
	}
	return out
}

// GroupByDay buckets blocks under every venue-local date touched by rng.
func GroupByDay(blocks []Block, rng timerange.Range, zone string) []Day {
	loc, _ := venuetime.Location(zone)

	byDate := make(map[string][]Block)
	for _, b := range blocks {
		byDate[b.Date] = append(byDate[b.Date], b)
	}

	var days []Day
	if !rng.IsEmpty() {
		first := rng.Start.In(loc)
		last := venuetime.LocalDate(rng.End.Add(-time.Nanosecond), zone)
		for d := time.Date(first.Year(), first.Month(), first.Day(), 12, 0, 0, 0, loc); ; d = d.AddDate(0, 0, 1) {
			key := d.Format(venuetime.DateLayout)
			days = append(days, Day{Date: key, Blocks: nonNil(byDate[key])})
			if key >= last {
				break
			}
		}
	}
	return days
}

func nonNil(b []Block) []Block {
	if b == nil {
		return []Block{}
	}
	return b
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
