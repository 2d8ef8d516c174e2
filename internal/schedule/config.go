package schedule

import (
	"errors"
	"fmt"
	"time"
)

// Config describes how a working day is split into quanta.
type Config struct {
	DayQuanta      int           // number of quanta in a working day
	QuantumMinutes int           // length of one quantum
	DayStart       time.Duration // offset of quantum 1 from midnight
}

// DefaultConfig is the salon's reference day: 20 half-hour quanta from 08:00.
func DefaultConfig() Config {
	return Config{
		DayQuanta:      20,
		QuantumMinutes: 30,
		DayStart:       8 * time.Hour,
	}
}

// Check reports whether the day layout is usable.
func (c Config) Check() error {
	if c.DayQuanta <= 0 {
		return errors.New("day quanta must be positive")
	}
	if c.QuantumMinutes <= 0 {
		return errors.New("quantum minutes must be positive")
	}
	if c.DayStart < 0 || c.DayStart >= 24*time.Hour {
		return fmt.Errorf("day start %s is outside of a day", c.DayStart)
	}
	return nil
}

// Contains reports whether q is a quantum of the working day.
func (c Config) Contains(q int) bool {
	return q >= 1 && q <= c.DayQuanta
}

// QuantumToTime returns the wall-clock label of the start of quantum q.
// Quanta outside the day are not clamped: the label keeps moving by
// QuantumMinutes per step and wraps around midnight.
func (c Config) QuantumToTime(q int) string {
	offset := c.DayStart + time.Duration(q-1)*time.Duration(c.QuantumMinutes)*time.Minute
	minutes := int(offset/time.Minute) % (24 * 60)
	if minutes < 0 {
		minutes += 24 * 60
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// TimeToQuantum parses an "HH:MM" label back into the quantum starting at it.
func (c Config) TimeToQuantum(label string) (int, error) {
	t, err := time.Parse("15:04", label)
	if err != nil {
		return 0, fmt.Errorf("parse time %q: %w", label, err)
	}
	offset := time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute - c.DayStart
	step := time.Duration(c.QuantumMinutes) * time.Minute
	if offset < 0 || offset%step != 0 {
		return 0, fmt.Errorf("time %s is not aligned to a %d minute quantum", label, c.QuantumMinutes)
	}
	q := int(offset/step) + 1
	if !c.Contains(q) {
		return 0, fmt.Errorf("time %s is outside of the working day", label)
	}
	return q, nil
}

// Labels returns the label of every quantum of the day, index 0 being quantum 1.
func (c Config) Labels() []string {
	out := make([]string, c.DayQuanta)
	for q := 1; q <= c.DayQuanta; q++ {
		out[q-1] = c.QuantumToTime(q)
	}
	return out
}
