package schedule

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantumToTime(t *testing.T) {
	cfg := DefaultConfig()

	cases := map[int]string{
		1:  "08:00",
		2:  "08:30",
		3:  "09:00",
		20: "17:30",
		21: "18:00",
	}
	for q, want := range cases {
		assert.Equal(t, want, cfg.QuantumToTime(q), "quantum %d", q)
	}
}

func TestQuantumToTimeCustomDay(t *testing.T) {
	cfg := Config{DayQuanta: 8, QuantumMinutes: 45, DayStart: 22 * time.Hour}

	assert.Equal(t, "22:00", cfg.QuantumToTime(1))
	assert.Equal(t, "22:45", cfg.QuantumToTime(2))
	assert.Equal(t, "00:15", cfg.QuantumToTime(4))
}

func TestTimeToQuantum(t *testing.T) {
	cfg := DefaultConfig()

	q, err := cfg.TimeToQuantum("09:00")
	require.NoError(t, err)
	assert.Equal(t, 3, q)

	for q := 1; q <= cfg.DayQuanta; q++ {
		back, err := cfg.TimeToQuantum(cfg.QuantumToTime(q))
		require.NoError(t, err)
		assert.Equal(t, q, back)
	}

	for _, bad := range []string{"07:30", "09:10", "18:00", "nope"} {
		_, err := cfg.TimeToQuantum(bad)
		assert.Error(t, err, bad)
	}
}

func TestConfigCheck(t *testing.T) {
	require.NoError(t, DefaultConfig().Check())

	assert.Error(t, Config{DayQuanta: 0, QuantumMinutes: 30}.Check())
	assert.Error(t, Config{DayQuanta: 10, QuantumMinutes: 0}.Check())
	assert.Error(t, Config{DayQuanta: 10, QuantumMinutes: 30, DayStart: 25 * time.Hour}.Check())
}

func TestValidateBounds(t *testing.T) {
	cfg := DefaultConfig()

	for start := 1; start <= cfg.DayQuanta+2; start++ {
		for duration := 1; duration <= cfg.DayQuanta+1; duration++ {
			err := cfg.Validate(start, duration, nil)
			if start+duration-1 > cfg.DayQuanta {
				require.ErrorIs(t, err, ErrOutOfBounds, "start=%d duration=%d", start, duration)
			} else {
				require.NoError(t, err, "start=%d duration=%d", start, duration)
			}
		}
	}
}

func TestValidateHugeValues(t *testing.T) {
	cfg := DefaultConfig()
	existing := []Booking{{AppointmentID: 1, Start: 5, Duration: 2}}

	tests := []struct {
		name     string
		start    int
		duration int
	}{
		{"max start", math.MaxInt, 2},
		{"max start and duration", math.MaxInt, math.MaxInt},
		{"max duration", 2, math.MaxInt},
		{"max duration from first quantum", 1, math.MaxInt},
		{"min start", math.MinInt, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, bookings := range [][]Booking{nil, existing} {
				err := cfg.Validate(tt.start, tt.duration, bookings)
				require.ErrorIs(t, err, ErrOutOfBounds)

				var oob *OutOfBoundsError
				require.True(t, errors.As(err, &oob))
				assert.GreaterOrEqual(t, oob.Requested.End, oob.Requested.Start)
			}
		})
	}
}

func TestOccupiedSaturates(t *testing.T) {
	assert.Equal(t, Interval{Start: 3, End: math.MaxInt}, Occupied(3, math.MaxInt))
	assert.Equal(t, Interval{Start: 3, End: 4}, Occupied(3, 2))
}

func TestFreeQuartersIgnoresHugeBookingWrap(t *testing.T) {
	cfg := DefaultConfig()

	free := cfg.FreeQuarters(1, []Booking{{AppointmentID: 1, Start: 10, Duration: math.MaxInt}})

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, free)
}

func TestValidateRejectsStartBeforeDay(t *testing.T) {
	err := DefaultConfig().Validate(0, 2, nil)

	var oob *OutOfBoundsError
	require.True(t, errors.As(err, &oob))
	assert.Equal(t, Interval{Start: 0, End: 1}, oob.Requested)
}

func TestValidateRejectsNonPositiveDuration(t *testing.T) {
	assert.ErrorIs(t, DefaultConfig().Validate(1, 0, nil), ErrInvalidDuration)
}

func TestValidateOverlap(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		existing Booking
		start    int
		duration int
		overlap  bool
	}{
		{"adjacent after", Booking{AppointmentID: 1, Start: 1, Duration: 2}, 3, 2, false},
		{"adjacent before", Booking{AppointmentID: 1, Start: 3, Duration: 2}, 1, 2, false},
		{"touching endpoint", Booking{AppointmentID: 1, Start: 1, Duration: 3}, 3, 3, true},
		{"contained", Booking{AppointmentID: 1, Start: 4, Duration: 6}, 5, 1, true},
		{"containing", Booking{AppointmentID: 1, Start: 5, Duration: 1}, 4, 6, true},
		{"same", Booking{AppointmentID: 1, Start: 7, Duration: 2}, 7, 2, true},
		{"unresolved service", Booking{AppointmentID: 1, Start: 7, Duration: 0}, 7, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cfg.Validate(tt.start, tt.duration, []Booking{tt.existing})
			if !tt.overlap {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrOverlap)

			var oe *OverlapError
			require.True(t, errors.As(err, &oe))
			assert.Equal(t, tt.existing.AppointmentID, oe.AppointmentID)
			assert.Equal(t, Occupied(tt.existing.Start, tt.existing.Duration), oe.Busy)
		})
	}
}

func TestValidateOverlapIsSymmetric(t *testing.T) {
	cfg := DefaultConfig()

	for aStart := 1; aStart <= 10; aStart++ {
		for bStart := 1; bStart <= 10; bStart++ {
			a := Booking{AppointmentID: 1, Start: aStart, Duration: 3}
			b := Booking{AppointmentID: 2, Start: bStart, Duration: 2}

			errB := cfg.Validate(b.Start, b.Duration, []Booking{a})
			errA := cfg.Validate(a.Start, a.Duration, []Booking{b})

			assert.Equal(t, errors.Is(errB, ErrOverlap), errors.Is(errA, ErrOverlap),
				"a=%d b=%d", aStart, bStart)
		}
	}
}

func TestFreeQuartersEmptyDay(t *testing.T) {
	cfg := DefaultConfig()

	got := cfg.FreeQuarters(2, nil)

	want := make([]int, 0, 19)
	for q := 1; q <= 19; q++ {
		want = append(want, q)
	}
	assert.Equal(t, want, got)
}

func TestFreeQuartersExcludesBusy(t *testing.T) {
	cfg := DefaultConfig()

	got := cfg.FreeQuarters(2, []Booking{{AppointmentID: 1, Start: 5, Duration: 2}})

	assert.Contains(t, got, 3)
	assert.Contains(t, got, 7)
	assert.NotContains(t, got, 4)
	assert.NotContains(t, got, 5)
	assert.NotContains(t, got, 6)
	assert.Len(t, got, 16)
}

func TestFreeQuartersMatchesValidate(t *testing.T) {
	cfg := DefaultConfig()
	existing := []Booking{
		{AppointmentID: 1, Start: 2, Duration: 3},
		{AppointmentID: 2, Start: 10, Duration: 1},
		{AppointmentID: 3, Start: 18, Duration: 5}, // runs past the day, clamped
		{AppointmentID: 4, Start: 14, Duration: 0},
	}

	for duration := 1; duration <= 5; duration++ {
		free := cfg.FreeQuarters(duration, existing)
		var want []int
		for s := 1; s <= cfg.DayQuanta; s++ {
			if cfg.Validate(s, duration, existing) == nil {
				want = append(want, s)
			}
		}
		assert.ElementsMatch(t, want, free, "duration %d", duration)
		assert.IsIncreasing(t, append([]int{0}, free...))
	}
}

func TestFreeQuartersIsIdempotent(t *testing.T) {
	cfg := DefaultConfig()
	existing := []Booking{{AppointmentID: 1, Start: 5, Duration: 2}}

	assert.Equal(t, cfg.FreeQuarters(3, existing), cfg.FreeQuarters(3, existing))
}

func TestFreeQuartersDegenerateDurations(t *testing.T) {
	cfg := DefaultConfig()

	assert.Empty(t, cfg.FreeQuarters(0, nil))
	assert.Empty(t, cfg.FreeQuarters(21, nil))
	assert.Equal(t, []int{1}, cfg.FreeQuarters(20, nil))
}

func TestConflicts(t *testing.T) {
	existing := []Booking{
		{AppointmentID: 1, Start: 1, Duration: 4},
		{AppointmentID: 2, Start: 3, Duration: 2},
		{AppointmentID: 3, Start: 6, Duration: 1},
		{AppointmentID: 4, Start: 1, Duration: 0},
	}

	pairs := Conflicts(existing)

	require.Len(t, pairs, 1)
	assert.Equal(t, int64(1), pairs[0][0].AppointmentID)
	assert.Equal(t, int64(2), pairs[0][1].AppointmentID)
}
