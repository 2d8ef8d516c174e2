package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanService(row pgx.Row) (*Service, error) {
	var s Service
	err := row.Scan(
		&s.ID,
		&s.Title,
		&s.DurationQuanta,
		&s.Price,
		&s.MasterID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *PgRepository) CreateService(ctx context.Context, s Service) (*Service, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO services (title, duration_quarters, price, master_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, title, duration_quarters, price::float8, master_id
	`, s.Title, s.DurationQuanta, s.Price, s.MasterID)

	created, err := scanService(row)
	if err != nil {
		return nil, fmt.Errorf("insert service: %w", err)
	}
	return created, nil
}

func (r *PgRepository) GetServiceByID(ctx context.Context, id int64) (*Service, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, title, duration_quarters, price::float8, master_id
		FROM services
		WHERE id = $1
	`, id)
	return scanService(row)
}

func (r *PgRepository) ListServices(ctx context.Context) ([]ServiceWithMaster, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.title, s.duration_quarters, s.price::float8, s.master_id,
		       u.full_name, u.role, u.phone_number
		FROM services s
		JOIN users u ON u.id = s.master_id
		ORDER BY s.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ServiceWithMaster
	for rows.Next() {
		var s ServiceWithMaster
		if err := rows.Scan(
			&s.ID,
			&s.Title,
			&s.DurationQuanta,
			&s.Price,
			&s.MasterID,
			&s.MasterFullName,
			&s.MasterRole,
			&s.MasterPhoneNumber,
		); err != nil {
			return nil, err
		}
		result = append(result, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) ListServicesByMaster(ctx context.Context, masterID int64) ([]Service, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, duration_quarters, price::float8, master_id
		FROM services
		WHERE master_id = $1
		ORDER BY id
	`, masterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) UpdateService(ctx context.Context, s Service) (*Service, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE services
		SET title = $2,
		    duration_quarters = $3,
		    price = $4,
		    master_id = $5
		WHERE id = $1
		RETURNING id, title, duration_quarters, price::float8, master_id
	`, s.ID, s.Title, s.DurationQuanta, s.Price, s.MasterID)
	return scanService(row)
}

func (r *PgRepository) DeleteService(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrServiceNotFound
	}
	return nil
}
