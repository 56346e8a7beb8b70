package domain

import (
	"testing"
	"time"
)

func day(n int) time.Time {
	return time.Date(2026, time.March, n, 12, 0, 0, 0, time.Local)
}

func TestDailyHistory_SlidingWindow(t *testing.T) {
	h := NewDailyHistory(3)

	h.Add(10, day(1))
	h.Add(15, day(1))
	h.Add(5, day(2))
	h.Add(20, day(3))
	h.Add(3, day(4))

	days := h.Days()
	want := []Date{DateOf(day(2)), DateOf(day(3)), DateOf(day(4))}
	if len(days) != len(want) {
		t.Fatalf("retained %d days, want %d", len(days), len(want))
	}
	for i := range want {
		if days[i] != want[i] {
			t.Errorf("day[%d] = %v, want %v", i, days[i], want[i])
		}
	}

	if max := h.Max(); max == nil || *max != 20 {
		t.Errorf("Max() = %v, want 20", max)
	}
}

func TestDailyHistory_SameDayKeepsMaximum(t *testing.T) {
	h := NewDailyHistory(3)

	h.Add(10, day(1))
	h.Add(4, day(1))
	if max := h.Max(); max == nil || *max != 10 {
		t.Errorf("Max() = %v, want 10 after lower same-day value", max)
	}

	h.Add(25, day(1))
	if max := h.Max(); max == nil || *max != 25 {
		t.Errorf("Max() = %v, want 25 after higher same-day value", max)
	}
}

func TestDailyHistory_RejectsOutOfOrder(t *testing.T) {
	h := NewDailyHistory(3)

	h.Add(10, day(2))
	h.Add(99, day(1))

	if got := len(h.Days()); got != 1 {
		t.Fatalf("retained %d days, want 1", got)
	}
	if max := h.Max(); max == nil || *max != 10 {
		t.Errorf("Max() = %v, want 10 (old measurement must not count)", max)
	}
}

func TestDailyHistory_EvictsExactlyOldest(t *testing.T) {
	h := NewDailyHistory(2)

	h.Add(1, day(1))
	h.Add(2, day(2))
	h.Add(3, day(3))

	days := h.Days()
	if len(days) != 2 {
		t.Fatalf("retained %d days, want 2", len(days))
	}
	if days[0] != DateOf(day(2)) || days[1] != DateOf(day(3)) {
		t.Errorf("retained days = %v, want day2 and day3", days)
	}
	if max := h.Max(); max == nil || *max != 3 {
		t.Errorf("Max() = %v, want 3", max)
	}
}

func TestDailyHistory_EvictionCanLowerMax(t *testing.T) {
	h := NewDailyHistory(2)

	h.Add(100, day(1))
	h.Add(2, day(2))
	h.Add(3, day(3)) // evicts day1 and its aggregate

	if max := h.Max(); max == nil || *max != 3 {
		t.Errorf("Max() = %v, want 3 after evicting the 100 aggregate", max)
	}
}

func TestDailyHistory_NonNumericOpensDayWithoutAggregate(t *testing.T) {
	h := NewDailyHistory(3)

	h.AddRaw("not-a-number", day(1))
	if h.Max() != nil {
		t.Errorf("Max() = %v, want nil after non-numeric sample", h.Max())
	}
	if got := len(h.Days()); got != 1 {
		t.Fatalf("retained %d days, want 1 (day opened)", got)
	}

	h.AddRaw("42", day(2))
	if max := h.Max(); max == nil || *max != 42 {
		t.Errorf("Max() = %v, want 42 once a numeric value arrives", max)
	}
}

func TestDailyHistory_NonNumericSameDayIgnored(t *testing.T) {
	h := NewDailyHistory(3)

	h.Add(10, day(1))
	h.AddRaw("unavailable", day(1))

	if max := h.Max(); max == nil || *max != 10 {
		t.Errorf("Max() = %v, want 10", max)
	}
	if got := len(h.Days()); got != 1 {
		t.Errorf("retained %d days, want 1", got)
	}
}

func TestDailyHistory_ZeroTimestampMeansNow(t *testing.T) {
	h := NewDailyHistory(3)

	h.Add(7, time.Time{})

	days := h.Days()
	if len(days) != 1 {
		t.Fatalf("retained %d days, want 1", len(days))
	}
	if days[0] != DateOf(time.Now()) {
		t.Errorf("day = %v, want today", days[0])
	}
}

func TestNewDailyHistory_ClampsLength(t *testing.T) {
	h := NewDailyHistory(0)

	h.Add(1, day(1))
	h.Add(2, day(2))

	if got := len(h.Days()); got != 1 {
		t.Errorf("retained %d days, want 1", got)
	}
}
