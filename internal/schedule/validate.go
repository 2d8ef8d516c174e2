package schedule

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrOutOfBounds     = errors.New("appointment exceeds working hours")
	ErrOverlap         = errors.New("appointment overlaps with an existing appointment")
	ErrInvalidDuration = errors.New("duration must be positive")
)

// Interval is a closed range of quanta.
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Occupied returns the interval reserved by an appointment. An end past
// math.MaxInt saturates instead of wrapping.
func Occupied(start, duration int) Interval {
	if start > 0 && duration-1 > math.MaxInt-start {
		return Interval{Start: start, End: math.MaxInt}
	}
	return Interval{Start: start, End: start + duration - 1}
}

// Overlaps treats quanta as indivisible, so intervals sharing an endpoint overlap.
func (i Interval) Overlaps(o Interval) bool {
	return !(i.Start > o.End || i.End < o.Start)
}

// Booking is an existing appointment as seen by the validator. Duration is the
// current duration of its service; zero means the service could not be resolved.
type Booking struct {
	AppointmentID int64
	Start         int
	Duration      int
}

func (b Booking) resolved() bool {
	return b.Duration > 0
}

type OutOfBoundsError struct {
	Requested Interval
	DayQuanta int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("%s: quanta %d-%d do not fit in 1-%d",
		ErrOutOfBounds, e.Requested.Start, e.Requested.End, e.DayQuanta)
}

func (e *OutOfBoundsError) Unwrap() error { return ErrOutOfBounds }

type OverlapError struct {
	Requested     Interval
	AppointmentID int64
	Busy          Interval
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%s: master is busy from quarter %d to %d (appointment %d)",
		ErrOverlap, e.Busy.Start, e.Busy.End, e.AppointmentID)
}

func (e *OverlapError) Unwrap() error { return ErrOverlap }

// Validate decides whether an appointment of the given duration may start at
// start, given the other appointments of the same master on the same day.
func (c Config) Validate(start, duration int, existing []Booking) error {
	if duration <= 0 {
		return ErrInvalidDuration
	}

	// no addition here, so huge inputs cannot wrap into range
	if start < 1 || start > c.DayQuanta || duration > c.DayQuanta-start+1 {
		return &OutOfBoundsError{Requested: Occupied(start, duration), DayQuanta: c.DayQuanta}
	}
	requested := Occupied(start, duration)

	for _, b := range existing {
		if !b.resolved() {
			continue
		}
		busy := Occupied(b.Start, b.Duration)
		if requested.Overlaps(busy) {
			return &OverlapError{Requested: requested, AppointmentID: b.AppointmentID, Busy: busy}
		}
	}

	return nil
}

// Conflicts returns every pair of bookings whose intervals overlap. It is used
// to audit a day after service durations changed.
func Conflicts(existing []Booking) [][2]Booking {
	var out [][2]Booking
	for i := 0; i < len(existing); i++ {
		if !existing[i].resolved() {
			continue
		}
		a := Occupied(existing[i].Start, existing[i].Duration)
		for j := i + 1; j < len(existing); j++ {
			if !existing[j].resolved() {
				continue
			}
			if a.Overlaps(Occupied(existing[j].Start, existing[j].Duration)) {
				out = append(out, [2]Booking{existing[i], existing[j]})
			}
		}
	}
	return out
}
