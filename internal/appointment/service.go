package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/salon-scheduling/internal/catalog"
	redisclient "github.com/hackgods/salon-scheduling/internal/redis"
	"github.com/hackgods/salon-scheduling/internal/schedule"
	"github.com/hackgods/salon-scheduling/internal/user"
)

const (
	EventAppointmentCreated = "APPOINTMENT_CREATED"
	EventAppointmentUpdated = "APPOINTMENT_UPDATED"
	EventAppointmentDeleted = "APPOINTMENT_DELETED"
	EventPaymentRecorded    = "PAYMENT_RECORDED"
	EventOverlapDetected    = "OVERLAP_DETECTED"
)

var (
	ErrDayBeingBooked = errors.New("master's day is currently being booked, please retry")
	ErrInvalidStatus  = errors.New("invalid appointment status")
	ErrInvalidDate    = errors.New("invalid appointment date")
)

// ServiceLookup resolves the service being booked and, through it, the master.
type ServiceLookup interface {
	GetServiceByID(ctx context.Context, id int64) (*catalog.Service, error)
}

type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (*user.User, error)
}

type Service struct {
	repo     Repository
	services ServiceLookup
	users    UserLookup
	locker   redisclient.Locker
	sched    schedule.Config
	log      *zap.Logger
}

func NewService(repo Repository, services ServiceLookup, users UserLookup, locker redisclient.Locker, sched schedule.Config, log *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		services: services,
		users:    users,
		locker:   locker,
		sched:    sched,
		log:      log,
	}
}

// Schedule returns the day layout the service books against.
func (s *Service) Schedule() schedule.Config {
	return s.sched
}

type BookInput struct {
	ClientID     int64
	ServiceID    int64
	Date         time.Time
	StartQuantum int
	Status       AppointmentStatus // empty means booked
	IsPaid       bool
}

// BookAppointment validates and stores an appointment. Reading the master's
// day, validating and inserting happen under one lock per master and day so
// concurrent bookings cannot both pass validation.
func (s *Service) BookAppointment(ctx context.Context, in BookInput) (*AppointmentDetail, error) {
	if in.Status == "" {
		in.Status = StatusBooked
	}
	if !in.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, in.Status)
	}
	if in.Date.IsZero() {
		return nil, ErrInvalidDate
	}
	day := truncateDay(in.Date)

	if _, err := s.users.GetUserByID(ctx, in.ClientID); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("load client: %w", err)
	}

	svc, err := s.services.GetServiceByID(ctx, in.ServiceID)
	if err != nil {
		if errors.Is(err, catalog.ErrServiceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load service: %w", err)
	}

	var created *Appointment

	err = s.locker.WithDayLock(ctx, svc.MasterID, day.Format(DateLayout), func(lockCtx context.Context) error {
		existing, err := s.repo.ListDayBookings(lockCtx, svc.MasterID, day)
		if err != nil {
			return fmt.Errorf("list day bookings: %w", err)
		}

		if err := s.sched.Validate(in.StartQuantum, svc.DurationQuanta, existing); err != nil {
			return err
		}

		appt, err := s.repo.CreateAppointment(lockCtx, Appointment{
			ClientID:     in.ClientID,
			ServiceID:    svc.ID,
			Date:         day,
			StartQuantum: in.StartQuantum,
			Status:       in.Status,
			IsPaid:       in.IsPaid,
		})
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		created = appt

		s.logEvent(lockCtx, &appt.ID, EventAppointmentCreated, map[string]any{
			"master_id":  svc.MasterID,
			"service_id": svc.ID,
			"client_id":  in.ClientID,
			"date":       day.Format(DateLayout),
			"start":      in.StartQuantum,
			"end":        in.StartQuantum + svc.DurationQuanta - 1,
		})

		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrDayBeingBooked
		}
		if errors.Is(err, schedule.ErrOverlap) || errors.Is(err, schedule.ErrOutOfBounds) {
			s.log.Info("booking rejected",
				zap.Int64("master_id", svc.MasterID),
				zap.Int64("service_id", svc.ID),
				zap.String("date", day.Format(DateLayout)),
				zap.Int("start", in.StartQuantum),
				zap.Error(err),
			)
		}
		return nil, err
	}

	return s.GetAppointment(ctx, created.ID)
}

// FreeQuarters lists the start quanta at which the service can still be
// booked on date.
func (s *Service) FreeQuarters(ctx context.Context, serviceID int64, date time.Time) ([]int, error) {
	svc, err := s.services.GetServiceByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, catalog.ErrServiceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load service: %w", err)
	}

	existing, err := s.repo.ListDayBookings(ctx, svc.MasterID, truncateDay(date))
	if err != nil {
		return nil, fmt.Errorf("list day bookings: %w", err)
	}

	return s.sched.FreeQuarters(svc.DurationQuanta, existing), nil
}

// GetAppointment retrieves a fully hydrated appointment by ID
func (s *Service) GetAppointment(ctx context.Context, id int64) (*AppointmentDetail, error) {
	detail, err := s.repo.GetAppointmentDetail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	detail.StartTime = s.sched.QuantumToTime(detail.StartQuantum)
	return detail, nil
}

func (s *Service) ListAppointments(ctx context.Context) ([]AppointmentDetail, error) {
	return s.list(ctx, Filter{})
}

func (s *Service) ListClientAppointments(ctx context.Context, clientID int64) ([]AppointmentDetail, error) {
	return s.list(ctx, Filter{ClientID: clientID})
}

// ListMasterAppointments returns every appointment of every service the
// master offers. An unknown master simply has none.
func (s *Service) ListMasterAppointments(ctx context.Context, masterID int64) ([]AppointmentDetail, error) {
	return s.list(ctx, Filter{MasterID: masterID})
}

func (s *Service) list(ctx context.Context, f Filter) ([]AppointmentDetail, error) {
	details, err := s.repo.ListAppointmentDetails(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	for i := range details {
		details[i].StartTime = s.sched.QuantumToTime(details[i].StartQuantum)
	}
	return details, nil
}

// UpdateAppointment changes status and payment flag. Statuses may follow each
// other in any order; the interval is never touched.
func (s *Service) UpdateAppointment(ctx context.Context, id int64, u Update) (*AppointmentDetail, error) {
	if u.Status != nil && !u.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *u.Status)
	}

	updated, err := s.repo.UpdateAppointment(ctx, id, u)
	if err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	s.logEvent(ctx, &updated.ID, EventAppointmentUpdated, map[string]any{
		"status":  updated.Status,
		"is_paid": updated.IsPaid,
	})

	return s.GetAppointment(ctx, updated.ID)
}

func (s *Service) DeleteAppointment(ctx context.Context, id int64) error {
	if err := s.repo.DeleteAppointment(ctx, id); err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return err
		}
		return fmt.Errorf("delete appointment: %w", err)
	}

	// the appointment row is gone, so the event keeps the id only in its payload
	s.logEvent(ctx, nil, EventAppointmentDeleted, map[string]any{
		"appointment_id": id,
	})
	return nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID *int64, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn("failed to marshal event payload", zap.String("event", eventType), zap.Error(err))
		data = nil
	}

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: appointmentID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Warn("failed to insert event log", zap.String("event", eventType), zap.Error(err))
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
