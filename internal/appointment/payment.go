package appointment

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var ErrInvalidAmount = errors.New("payment amount must be positive")

// RecordPayment stores a payment against an existing appointment. An
// appointment may receive several payments; is_paid is managed separately.
func (s *Service) RecordPayment(ctx context.Context, appointmentID int64, amount float64) (*Payment, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	if _, err := s.repo.GetAppointmentByID(ctx, appointmentID); err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	p, err := s.repo.CreatePayment(ctx, Payment{AppointmentID: appointmentID, Amount: amount})
	if err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}

	s.logEvent(ctx, &appointmentID, EventPaymentRecorded, map[string]any{
		"payment_id": p.ID,
		"amount":     p.Amount,
	})
	s.log.Info("payment recorded", zap.Int64("appointment_id", appointmentID), zap.Float64("amount", amount))

	return p, nil
}

func (s *Service) ListMasterPayments(ctx context.Context, masterID int64) ([]PaymentDetail, error) {
	payments, err := s.repo.ListPaymentsByMaster(ctx, masterID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	for i := range payments {
		payments[i].StartTime = s.sched.QuantumToTime(payments[i].StartQuantum)
	}
	return payments, nil
}
