// Package memory keeps users, services, appointments and payments in process
// memory. It satisfies the same repositories as the Postgres store and mirrors
// its joins, orderings and cascades.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hackgods/salon-scheduling/internal/appointment"
	"github.com/hackgods/salon-scheduling/internal/catalog"
	"github.com/hackgods/salon-scheduling/internal/schedule"
	"github.com/hackgods/salon-scheduling/internal/user"
)

type Store struct {
	mu sync.RWMutex

	nextID       int64
	users        map[int64]user.User
	logins       map[string]int64
	services     map[int64]catalog.Service
	appointments map[int64]appointment.Appointment
	payments     map[int64]appointment.Payment
	events       []appointment.EventLog

	now func() time.Time
}

func New() *Store {
	return &Store{
		users:        make(map[int64]user.User),
		logins:       make(map[string]int64),
		services:     make(map[int64]catalog.Service),
		appointments: make(map[int64]appointment.Appointment),
		payments:     make(map[int64]appointment.Payment),
		now:          time.Now,
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Users

func (s *Store) CreateUser(ctx context.Context, u user.User) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.logins[u.Login]; taken {
		return nil, user.ErrLoginTaken
	}

	u.ID = s.id()
	u.CreatedAt = s.now()
	s.users[u.ID] = u
	s.logins[u.Login] = u.ID
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return &u, nil
}

func (s *Store) GetUserByLogin(ctx context.Context, login string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.logins[login]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	u := s.users[id]
	return &u, nil
}

func (s *Store) ListMasters(ctx context.Context) ([]user.Master, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[int64]int)
	for _, svc := range s.services {
		counts[svc.MasterID]++
	}

	var result []user.Master
	for _, u := range s.users {
		if u.Role == user.RoleClient {
			continue
		}
		result = append(result, user.Master{User: u, ServicesCount: counts[u.ID]})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Services

func (s *Store) CreateService(ctx context.Context, svc catalog.Service) (*catalog.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc.ID = s.id()
	s.services[svc.ID] = svc
	return &svc, nil
}

func (s *Store) GetServiceByID(ctx context.Context, id int64) (*catalog.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	svc, ok := s.services[id]
	if !ok {
		return nil, catalog.ErrServiceNotFound
	}
	return &svc, nil
}

func (s *Store) ListServices(ctx context.Context) ([]catalog.ServiceWithMaster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []catalog.ServiceWithMaster
	for _, svc := range s.sortedServices() {
		m, ok := s.users[svc.MasterID]
		if !ok {
			continue
		}
		result = append(result, catalog.ServiceWithMaster{
			Service:           svc,
			MasterFullName:    m.FullName,
			MasterRole:        m.Role,
			MasterPhoneNumber: m.PhoneNumber,
		})
	}
	return result, nil
}

func (s *Store) ListServicesByMaster(ctx context.Context, masterID int64) ([]catalog.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []catalog.Service
	for _, svc := range s.sortedServices() {
		if svc.MasterID == masterID {
			result = append(result, svc)
		}
	}
	return result, nil
}

func (s *Store) UpdateService(ctx context.Context, svc catalog.Service) (*catalog.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.services[svc.ID]; !ok {
		return nil, catalog.ErrServiceNotFound
	}
	s.services[svc.ID] = svc
	return &svc, nil
}

// DeleteService removes the service with its appointments and their payments.
func (s *Store) DeleteService(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.services[id]; !ok {
		return catalog.ErrServiceNotFound
	}
	delete(s.services, id)

	for apptID, a := range s.appointments {
		if a.ServiceID == id {
			s.deleteAppointmentLocked(apptID)
		}
	}
	return nil
}

func (s *Store) sortedServices() []catalog.Service {
	out := make([]catalog.Service, 0, len(s.services))
	for _, svc := range s.services {
		out = append(out, svc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Appointments

func (s *Store) ListDayBookings(ctx context.Context, masterID int64, date time.Time) ([]schedule.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []schedule.Booking
	for _, a := range s.sortedAppointments() {
		svc, ok := s.services[a.ServiceID]
		if !ok || svc.MasterID != masterID || !sameDay(a.Date, date) {
			continue
		}
		result = append(result, schedule.Booking{
			AppointmentID: a.ID,
			Start:         a.StartQuantum,
			Duration:      svc.DurationQuanta,
		})
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Start < result[j].Start })
	return result, nil
}

func (s *Store) ListBookedDays(ctx context.Context, from, to time.Time) ([]appointment.DayKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[appointment.DayKey]bool)
	var result []appointment.DayKey
	for _, a := range s.appointments {
		svc, ok := s.services[a.ServiceID]
		if !ok || a.Date.Before(from) || a.Date.After(to) {
			continue
		}
		k := appointment.DayKey{MasterID: svc.MasterID, Date: a.Date}
		if !seen[k] {
			seen[k] = true
			result = append(result, k)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].MasterID < result[j].MasterID
	})
	return result, nil
}

func (s *Store) CreateAppointment(ctx context.Context, a appointment.Appointment) (*appointment.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = s.id()
	a.CreatedAt = s.now()
	s.appointments[a.ID] = a
	return &a, nil
}

func (s *Store) GetAppointmentByID(ctx context.Context, id int64) (*appointment.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.appointments[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	return &a, nil
}

func (s *Store) GetAppointmentDetail(ctx context.Context, id int64) (*appointment.AppointmentDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.appointments[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	d, ok := s.detailLocked(a)
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	return &d, nil
}

func (s *Store) ListAppointmentDetails(ctx context.Context, f appointment.Filter) ([]appointment.AppointmentDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []appointment.AppointmentDetail
	for _, a := range s.sortedAppointments() {
		d, ok := s.detailLocked(a)
		if !ok {
			continue
		}
		if f.ClientID != 0 && d.ClientID != f.ClientID {
			continue
		}
		if f.MasterID != 0 && d.MasterID != f.MasterID {
			continue
		}
		result = append(result, d)
	}
	return result, nil
}

func (s *Store) UpdateAppointment(ctx context.Context, id int64, u appointment.Update) (*appointment.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.appointments[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	if u.Status != nil {
		a.Status = *u.Status
	}
	if u.IsPaid != nil {
		a.IsPaid = *u.IsPaid
	}
	s.appointments[id] = a
	return &a, nil
}

func (s *Store) DeleteAppointment(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.appointments[id]; !ok {
		return appointment.ErrAppointmentNotFound
	}
	s.deleteAppointmentLocked(id)
	return nil
}

func (s *Store) deleteAppointmentLocked(id int64) {
	delete(s.appointments, id)
	for pid, p := range s.payments {
		if p.AppointmentID == id {
			delete(s.payments, pid)
		}
	}
}

// detailLocked joins an appointment with its service, master and client. It
// reports false when any of them is missing.
func (s *Store) detailLocked(a appointment.Appointment) (appointment.AppointmentDetail, bool) {
	svc, ok := s.services[a.ServiceID]
	if !ok {
		return appointment.AppointmentDetail{}, false
	}
	m, ok := s.users[svc.MasterID]
	if !ok {
		return appointment.AppointmentDetail{}, false
	}
	c, ok := s.users[a.ClientID]
	if !ok {
		return appointment.AppointmentDetail{}, false
	}
	return appointment.AppointmentDetail{
		Appointment:    a,
		MasterID:       svc.MasterID,
		MasterFullName: m.FullName,
		ServiceTitle:   svc.Title,
		ServicePrice:   svc.Price,
		ClientFullName: c.FullName,
	}, true
}

// sortedAppointments orders by date, start quantum and id.
func (s *Store) sortedAppointments() []appointment.Appointment {
	out := make([]appointment.Appointment, 0, len(s.appointments))
	for _, a := range s.appointments {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].StartQuantum != out[j].StartQuantum {
			return out[i].StartQuantum < out[j].StartQuantum
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Payments

func (s *Store) CreatePayment(ctx context.Context, p appointment.Payment) (*appointment.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.appointments[p.AppointmentID]; !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	p.ID = s.id()
	p.CreatedAt = s.now()
	s.payments[p.ID] = p
	return &p, nil
}

func (s *Store) ListPaymentsByMaster(ctx context.Context, masterID int64) ([]appointment.PaymentDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []appointment.PaymentDetail
	for _, p := range s.payments {
		a, ok := s.appointments[p.AppointmentID]
		if !ok {
			continue
		}
		d, ok := s.detailLocked(a)
		if !ok || d.MasterID != masterID {
			continue
		}
		result = append(result, appointment.PaymentDetail{
			PaymentID:      p.ID,
			AppointmentID:  a.ID,
			Date:           a.Date,
			StartQuantum:   a.StartQuantum,
			ServiceTitle:   d.ServiceTitle,
			ClientFullName: d.ClientFullName,
			Amount:         p.Amount,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		if result[i].StartQuantum != result[j].StartQuantum {
			return result[i].StartQuantum < result[j].StartQuantum
		}
		return result[i].PaymentID < result[j].PaymentID
	})
	return result, nil
}

// Events

func (s *Store) InsertEvent(ctx context.Context, ev appointment.EventLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev.ID = int64(len(s.events) + 1)
	s.events = append(s.events, ev)
	return nil
}

// Events returns a copy of the event log, oldest first.
func (s *Store) Events() []appointment.EventLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]appointment.EventLog(nil), s.events...)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
