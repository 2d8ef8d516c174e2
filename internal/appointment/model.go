package appointment

import (
	"fmt"
	"time"
)

type AppointmentStatus string

const (
	StatusBooked     AppointmentStatus = "booked"
	StatusInProgress AppointmentStatus = "in_progress"
	StatusCompleted  AppointmentStatus = "completed"
)

// Valid reports whether st is a known status. Any known status may follow any other.
func (st AppointmentStatus) Valid() bool {
	switch st {
	case StatusBooked, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// DateLayout is the wire and lock-key form of an appointment day.
const DateLayout = "2006-01-02"

type Appointment struct {
	ID           int64
	ClientID     int64
	ServiceID    int64
	Date         time.Time // calendar day, time of day is zero
	StartQuantum int
	Status       AppointmentStatus
	IsPaid       bool
	CreatedAt    time.Time
}

// AppointmentDetail is an appointment joined with the names and price a
// client or master sees.
type AppointmentDetail struct {
	Appointment
	MasterID       int64
	MasterFullName string
	ServiceTitle   string
	ServicePrice   float64
	ClientFullName string
	StartTime      string // HH:MM label of StartQuantum
}

// Filter narrows ListAppointmentDetails; zero fields match everything.
type Filter struct {
	ClientID int64
	MasterID int64
}

// Update is a partial update of the mutable appointment fields.
type Update struct {
	Status *AppointmentStatus
	IsPaid *bool
}

type Payment struct {
	ID            int64
	AppointmentID int64
	Amount        float64
	CreatedAt     time.Time
}

// PaymentDetail is a payment as listed for the master who received it.
type PaymentDetail struct {
	PaymentID      int64
	AppointmentID  int64
	Date           time.Time
	StartQuantum   int
	StartTime      string
	ServiceTitle   string
	ClientFullName string
	Amount         float64
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *int64
	Payload       []byte
	CreatedAt     time.Time
}

// DayKey identifies one master's working day.
type DayKey struct {
	MasterID int64
	Date     time.Time
}

// Day is the wire form of the key's date.
func (k DayKey) Day() string {
	return k.Date.Format(DateLayout)
}

func (k DayKey) String() string {
	return fmt.Sprintf("master %d on %s", k.MasterID, k.Day())
}
