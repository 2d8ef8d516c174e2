package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/hackgods/salon-scheduling/internal/schedule"
)

var (
	ErrClientNotFound      = errors.New("client not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	// ListDayBookings returns every appointment of the master on date, each
	// with the current duration of its own service.
	ListDayBookings(ctx context.Context, masterID int64, date time.Time) ([]schedule.Booking, error)
	// ListBookedDays returns the master/day pairs that have appointments in [from, to].
	ListBookedDays(ctx context.Context, from, to time.Time) ([]DayKey, error)

	CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error)
	GetAppointmentByID(ctx context.Context, id int64) (*Appointment, error)
	GetAppointmentDetail(ctx context.Context, id int64) (*AppointmentDetail, error)
	ListAppointmentDetails(ctx context.Context, f Filter) ([]AppointmentDetail, error)
	UpdateAppointment(ctx context.Context, id int64, u Update) (*Appointment, error)
	DeleteAppointment(ctx context.Context, id int64) error

	CreatePayment(ctx context.Context, p Payment) (*Payment, error)
	ListPaymentsByMaster(ctx context.Context, masterID int64) ([]PaymentDetail, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
