package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/salon-scheduling/internal/schedule"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

const appointmentColumns = `a.id, a.client_id, a.service_id, a.date, a.quarter, a.status, a.is_paid, a.created_at`

const detailQuery = `
	SELECT ` + appointmentColumns + `,
	       s.master_id, m.full_name, s.title, s.price::float8, c.full_name
	FROM appointments a
	JOIN services s ON s.id = a.service_id
	JOIN users m ON m.id = s.master_id
	JOIN users c ON c.id = a.client_id
`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.ClientID,
		&a.ServiceID,
		&a.Date,
		&a.StartQuantum,
		&a.Status,
		&a.IsPaid,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func scanDetail(row pgx.Row) (*AppointmentDetail, error) {
	var d AppointmentDetail

	err := row.Scan(
		&d.ID,
		&d.ClientID,
		&d.ServiceID,
		&d.Date,
		&d.StartQuantum,
		&d.Status,
		&d.IsPaid,
		&d.CreatedAt,
		&d.MasterID,
		&d.MasterFullName,
		&d.ServiceTitle,
		&d.ServicePrice,
		&d.ClientFullName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &d, nil
}

func (r *PgRepository) ListDayBookings(ctx context.Context, masterID int64, date time.Time) ([]schedule.Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.quarter, s.duration_quarters
		FROM appointments a
		JOIN services s ON s.id = a.service_id
		WHERE s.master_id = $1
		  AND a.date = $2
		ORDER BY a.quarter, a.id
	`, masterID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []schedule.Booking
	for rows.Next() {
		var b schedule.Booking
		if err := rows.Scan(&b.AppointmentID, &b.Start, &b.Duration); err != nil {
			return nil, err
		}
		result = append(result, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) ListBookedDays(ctx context.Context, from, to time.Time) ([]DayKey, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT s.master_id, a.date
		FROM appointments a
		JOIN services s ON s.id = a.service_id
		WHERE a.date BETWEEN $1 AND $2
		ORDER BY a.date, s.master_id
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DayKey
	for rows.Next() {
		var k DayKey
		if err := rows.Scan(&k.MasterID, &k.Date); err != nil {
			return nil, err
		}
		result = append(result, k)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments AS a (client_id, service_id, date, quarter, status, is_paid)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+appointmentColumns+`
	`, a.ClientID, a.ServiceID, a.Date, a.StartQuantum, a.Status, a.IsPaid)

	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id int64) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		WHERE a.id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentDetail(ctx context.Context, id int64) (*AppointmentDetail, error) {
	row := r.pool.QueryRow(ctx, detailQuery+` WHERE a.id = $1`, id)
	return scanDetail(row)
}

func (r *PgRepository) ListAppointmentDetails(ctx context.Context, f Filter) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx, detailQuery+`
		WHERE ($1::bigint = 0 OR a.client_id = $1)
		  AND ($2::bigint = 0 OR s.master_id = $2)
		ORDER BY a.date, a.quarter, a.id
	`, f.ClientID, f.MasterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AppointmentDetail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) UpdateAppointment(ctx context.Context, id int64, u Update) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments AS a
		SET status = COALESCE($2::varchar, a.status),
		    is_paid = COALESCE($3::boolean, a.is_paid)
		WHERE a.id = $1
		RETURNING `+appointmentColumns+`
	`, id, u.Status, u.IsPaid)

	return scanAppointment(row)
}

func (r *PgRepository) DeleteAppointment(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) CreatePayment(ctx context.Context, p Payment) (*Payment, error) {
	var created Payment
	err := r.pool.QueryRow(ctx, `
		INSERT INTO payments (appointment_id, amount)
		VALUES ($1, $2)
		RETURNING id, appointment_id, amount::float8, created_at
	`, p.AppointmentID, p.Amount).Scan(
		&created.ID,
		&created.AppointmentID,
		&created.Amount,
		&created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}
	return &created, nil
}

func (r *PgRepository) ListPaymentsByMaster(ctx context.Context, masterID int64) ([]PaymentDetail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, a.id, a.date, a.quarter, s.title, c.full_name, p.amount::float8
		FROM payments p
		JOIN appointments a ON a.id = p.appointment_id
		JOIN services s ON s.id = a.service_id
		JOIN users c ON c.id = a.client_id
		WHERE s.master_id = $1
		ORDER BY a.date, a.quarter, p.id
	`, masterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PaymentDetail
	for rows.Next() {
		var p PaymentDetail
		if err := rows.Scan(
			&p.PaymentID,
			&p.AppointmentID,
			&p.Date,
			&p.StartQuantum,
			&p.ServiceTitle,
			&p.ClientFullName,
			&p.Amount,
		); err != nil {
			return nil, err
		}
		result = append(result, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
