package timerange

import (
	"sort"
	"time"
)

// Range is a half-open interval [Start, End).
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func New(start, end time.Time) Range {
	return Range{Start: start, End: end}
}

// Valid reports whether both bounds are set and End is not before Start.
func (r Range) Valid() bool {
	return !r.Start.IsZero() && !r.End.IsZero() && !r.End.Before(r.Start)
}

func (r Range) IsEmpty() bool {
	return !r.End.After(r.Start)
}

func (r Range) Duration() time.Duration {
	if r.IsEmpty() {
		return 0
	}
	return r.End.Sub(r.Start)
}

// Overlaps is the half-open test a.start < b.end && a.end > b.start.
// Touching endpoints and empty ranges never overlap.
func Overlaps(a, b Range) bool {
	if a.IsEmpty() || b.IsEmpty() {
		return false
	}
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

func (r Range) Overlaps(other Range) bool {
	return Overlaps(r, other)
}

// Clip returns r restricted to bounds; ok is false when nothing remains.
func (r Range) Clip(bounds Range) (Range, bool) {
	out := r
	if out.Start.Before(bounds.Start) {
		out.Start = bounds.Start
	}
	if out.End.After(bounds.End) {
		out.End = bounds.End
	}
	if out.IsEmpty() {
		return Range{}, false
	}
	return out, true
}

// Merge sorts and coalesces overlapping or touching ranges. Empty ranges are dropped.
func Merge(ranges []Range) []Range {
	in := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		if !r.IsEmpty() {
			in = append(in, r)
		}
	}
	sort.Slice(in, func(i, j int) bool { return in[i].Start.Before(in[j].Start) })

	out := make([]Range, 0, len(in))
	for _, r := range in {
		if len(out) == 0 {
			out = append(out, r)
			continue
		}
		last := &out[len(out)-1]
		if !r.Start.After(last.End) {
			if r.End.After(last.End) {
				last.End = r.End
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// Subtract returns the parts of window not covered by busy.
func Subtract(window Range, busy []Range) []Range {
	if window.IsEmpty() {
		return []Range{}
	}

	clipped := make([]Range, 0, len(busy))
	for _, b := range busy {
		if c, ok := b.Clip(window); ok {
			clipped = append(clipped, c)
		}
	}

	cur := window.Start
	out := make([]Range, 0)
	for _, b := range Merge(clipped) {
		if b.Start.After(cur) {
			out = append(out, Range{Start: cur, End: b.Start})
		}
		if b.End.After(cur) {
			cur = b.End
		}
	}
	if cur.Before(window.End) {
		out = append(out, Range{Start: cur, End: window.End})
	}
	return out
}

// AnyOverlap reports whether r overlaps any of others.
func AnyOverlap(r Range, others []Range) bool {
	for _, o := range others {
		if Overlaps(r, o) {
			return true
		}
	}
	return false
}
