package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Date is a calendar day. It is its own value type so that it can be
// used as a map key and compared without timezone or monotonic-clock
// surprises.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// DailyHistory stores one measurement per day for a maximum number of
// days. Only the maximum value per day is kept.
//
// DailyHistory is not safe for concurrent use; the owning Plant
// serializes access.
type DailyHistory struct {
	maxDays  int
	days     []Date
	maxByDay map[Date]float64
	max      *float64
}

// NewDailyHistory creates an empty history retaining at most maxDays
// calendar days. maxDays must be positive; smaller values are clamped
// to one day.
func NewDailyHistory(maxDays int) *DailyHistory {
	if maxDays < 1 {
		maxDays = 1
	}
	return &DailyHistory{
		maxDays:  maxDays,
		maxByDay: make(map[Date]float64),
	}
}

// Add records a measurement for the day of ts. A zero ts means now.
// Measurements for days older than the most recently opened day are
// dropped with a warning and never mutate the history.
func (h *DailyHistory) Add(value float64, ts time.Time) {
	if math.IsNaN(value) {
		return
	}
	h.add(ts, &value)
}

// AddRaw records a raw sensor state for the day of ts. Non-numeric
// states open a new day if needed but never contribute an aggregate,
// so Max stays untouched until a numeric value arrives.
func (h *DailyHistory) AddRaw(state string, ts time.Time) {
	v, err := strconv.ParseFloat(strings.TrimSpace(state), 64)
	if err != nil || math.IsNaN(v) {
		h.add(ts, nil)
		return
	}
	h.add(ts, &v)
}

func (h *DailyHistory) add(ts time.Time, value *float64) {
	if ts.IsZero() {
		ts = time.Now()
	}
	day := DateOf(ts)

	if len(h.days) == 0 {
		h.addDay(day, value)
	} else {
		current := h.days[len(h.days)-1]
		switch {
		case day == current:
			if value != nil {
				if cur, ok := h.maxByDay[day]; !ok || *value > cur {
					h.maxByDay[day] = *value
				}
			}
		case current.Before(day):
			h.addDay(day, value)
		default:
			log.Warn().
				Stringer("day", day).
				Stringer("current_day", current).
				Msg("received old measurement, not storing it")
			return
		}
	}

	h.recomputeMax()
}

// addDay opens a new day, evicting the oldest one if the history is
// already at capacity.
func (h *DailyHistory) addDay(day Date, value *float64) {
	if len(h.days) == h.maxDays {
		oldest := h.days[0]
		h.days = h.days[1:]
		delete(h.maxByDay, oldest)
	}
	h.days = append(h.days, day)
	if value != nil {
		h.maxByDay[day] = *value
	}
}

func (h *DailyHistory) recomputeMax() {
	var max *float64
	for _, v := range h.maxByDay {
		if max == nil || v > *max {
			v := v
			max = &v
		}
	}
	h.max = max
}

// Max returns the maximum across all retained per-day aggregates, or
// nil while no numeric sample is retained.
func (h *DailyHistory) Max() *float64 {
	return h.max
}

// Days returns the retained days, oldest first.
func (h *DailyHistory) Days() []Date {
	out := make([]Date, len(h.days))
	copy(out, h.days)
	return out
}
