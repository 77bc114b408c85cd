package posttime

import (
	"errors"
	"testing"
	"time"
)

func fixedClock(year int, month time.Month, day, hour, minute int) Clock {
	t := time.Date(year, month, day, hour, minute, 0, 0, KST)
	return func() time.Time { return t }
}

func TestResolve(t *testing.T) {
	cases := []struct {
		name  string
		now   Clock
		label string
		want  time.Time
	}{
		{
			name:  "year rollover",
			now:   fixedClock(2025, time.January, 3, 10, 0),
			label: "12-30 09:00",
			want:  time.Date(2024, time.December, 30, 9, 0, 0, 0, KST),
		},
		{
			name:  "same year",
			now:   fixedClock(2025, time.June, 15, 10, 0),
			label: "06-10 09:00",
			want:  time.Date(2025, time.June, 10, 9, 0, 0, 0, KST),
		},
		{
			name:  "later the same day rolls back a year",
			now:   fixedClock(2025, time.June, 15, 8, 0),
			label: "06-15 09:00",
			want:  time.Date(2024, time.June, 15, 9, 0, 0, 0, KST),
		},
		{
			name:  "exactly now is not in the future",
			now:   fixedClock(2025, time.June, 15, 9, 0),
			label: "06-15 09:00",
			want:  time.Date(2025, time.June, 15, 9, 0, 0, 0, KST),
		},
		{
			name:  "surrounding whitespace",
			now:   fixedClock(2025, time.June, 15, 10, 0),
			label: "  06-15   07:05 ",
			want:  time.Date(2025, time.June, 15, 7, 5, 0, 0, KST),
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := NewResolver(c.now, nil)
			got, err := r.Resolve(c.label)
			if err != nil {
				t.Fatalf("Resolve(%q) error: %v", c.label, err)
			}
			if !got.Equal(c.want) {
				t.Errorf("Resolve(%q) = %v, want %v", c.label, got, c.want)
			}
			if epoch := r.ResolveEpoch(c.label); epoch != c.want.Unix() {
				t.Errorf("ResolveEpoch(%q) = %d, want %d", c.label, epoch, c.want.Unix())
			}
		})
	}
}

func TestResolve_UTCClock(t *testing.T) {
	// 2025-01-02T20:00Z is already 2025-01-03 05:00 in Seoul
	now := time.Date(2025, time.January, 2, 20, 0, 0, 0, time.UTC)
	r := NewResolver(func() time.Time { return now }, nil)

	got, err := r.Resolve("01-03 04:00")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2025, time.January, 3, 4, 0, 0, 0, KST)
	if !got.Equal(want) {
		t.Errorf("Resolve = %v, want %v", got, want)
	}
}

func TestResolve_Malformed(t *testing.T) {
	r := NewResolver(fixedClock(2025, time.June, 15, 10, 0), nil)

	for _, label := range []string{
		"",
		"06-15",
		"06/15 09:00",
		"aa-15 09:00",
		"06-15 9h00",
		"06-15 09:xx",
	} {
		if _, err := r.Resolve(label); !errors.Is(err, ErrMalformedTimestamp) {
			t.Errorf("Resolve(%q) error = %v, want ErrMalformedTimestamp", label, err)
		}
		if got := r.ResolveEpoch(label); got != 0 {
			t.Errorf("ResolveEpoch(%q) = %d, want 0", label, got)
		}
	}
}

func TestRecencyPartitioning(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, KST)
	r := NewResolver(func() time.Time { return now }, nil)

	yesterday := time.Date(2025, time.June, 14, 23, 59, 0, 0, KST).Unix()
	todayEarly := time.Date(2025, time.June, 15, 0, 0, 0, 0, KST).Unix()
	todayLate := time.Date(2025, time.June, 15, 23, 0, 0, 0, KST).Unix()
	tomorrow := time.Date(2025, time.June, 16, 0, 30, 0, 0, KST).Unix()
	windowStart := now.Add(-RecentWindow).Unix()
	beforeWindow := now.Add(-RecentWindow - time.Second).Unix()

	today := map[int64]bool{
		yesterday:  false,
		todayEarly: true,
		todayLate:  true,
		tomorrow:   false,
		0:          false,
	}
	for ts, want := range today {
		if got := r.IsPostedToday(ts); got != want {
			t.Errorf("IsPostedToday(%v) = %v, want %v", time.Unix(ts, 0).In(KST), got, want)
		}
	}

	recent := map[int64]bool{
		yesterday:    true,
		todayEarly:   true,
		now.Unix():   true,
		windowStart:  true,
		beforeWindow: false,
		todayLate:    false,
		tomorrow:     false,
		0:            false,
	}
	for ts, want := range recent {
		if got := r.IsPostedRecently(ts); got != want {
			t.Errorf("IsPostedRecently(%v) = %v, want %v", time.Unix(ts, 0).In(KST), got, want)
		}
	}
}
