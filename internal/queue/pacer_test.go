package queue

import (
	"testing"
	"time"
)

func TestNextStartDelay(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	minDelay := 3 * time.Minute

	cases := []struct {
		name          string
		lastCompleted time.Time
		minDelay      time.Duration
		want          time.Duration
	}{
		{"nothing finished yet", time.Time{}, minDelay, 0},
		{"window fully open", now.Add(-time.Minute), minDelay, 2 * time.Minute},
		{"window just closed", now.Add(-3 * time.Minute), minDelay, 0},
		{"window long closed", now.Add(-time.Hour), minDelay, 0},
		{"pacing disabled", now.Add(-time.Second), 0, 0},
	}
	for _, tc := range cases {
		got := NextStartDelay(tc.lastCompleted, tc.minDelay, now)
		if got != tc.want {
			t.Fatalf("%s: NextStartDelay() = %v, want %v", tc.name, got, tc.want)
		}
	}
}
