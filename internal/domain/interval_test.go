package domain

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 14, hour, minute, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	testCases := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     time.Time
		want                           bool
	}{
		{"identical", at(10, 0), at(11, 0), at(10, 0), at(11, 0), true},
		{"contained", at(10, 0), at(12, 0), at(10, 30), at(11, 0), true},
		{"partial left", at(9, 0), at(10, 30), at(10, 0), at(11, 0), true},
		{"partial right", at(10, 30), at(12, 0), at(10, 0), at(11, 0), true},
		{"adjacent before", at(9, 0), at(10, 0), at(10, 0), at(11, 0), false},
		{"adjacent after", at(11, 0), at(12, 0), at(10, 0), at(11, 0), false},
		{"disjoint before", at(7, 0), at(8, 0), at(10, 0), at(11, 0), false},
		{"disjoint after", at(13, 0), at(14, 0), at(10, 0), at(11, 0), false},
		{"half hour collision", at(18, 30), at(19, 30), at(17, 0), at(19, 0), true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd))
			// Overlap is symmetric.
			assert.Equal(t, tc.want, Overlaps(tc.bStart, tc.bEnd, tc.aStart, tc.aEnd))
		})
	}
}

// Randomized intervals against a minute-by-minute reference oracle.
func TestOverlaps_Property(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	oracle := func(a1, a2, b1, b2 int) bool {
		for m := a1; m < a2; m++ {
			if m >= b1 && m < b2 {
				return true
			}
		}
		return false
	}

	day := at(0, 0)
	for i := 0; i < 1000; i++ {
		a1 := rng.Intn(24 * 60)
		a2 := a1 + 1 + rng.Intn(180)
		b1 := rng.Intn(24 * 60)
		b2 := b1 + 1 + rng.Intn(180)

		got := Overlaps(
			day.Add(time.Duration(a1)*time.Minute), day.Add(time.Duration(a2)*time.Minute),
			day.Add(time.Duration(b1)*time.Minute), day.Add(time.Duration(b2)*time.Minute),
		)
		assert.Equal(t, oracle(a1, a2, b1, b2), got, "a=[%d,%d) b=[%d,%d)", a1, a2, b1, b2)
	}
}
