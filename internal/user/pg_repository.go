package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Login,
		&u.PasswordHash,
		&u.FullName,
		&u.PhoneNumber,
		&u.Role,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *PgRepository) CreateUser(ctx context.Context, u User) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (login, password_hash, full_name, phone_number, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, login, password_hash, full_name, phone_number, role, created_at
	`, u.Login, u.PasswordHash, u.FullName, u.PhoneNumber, u.Role)

	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrLoginTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

func (r *PgRepository) GetUserByID(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, login, password_hash, full_name, phone_number, role, created_at
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

func (r *PgRepository) GetUserByLogin(ctx context.Context, login string) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, login, password_hash, full_name, phone_number, role, created_at
		FROM users
		WHERE login = $1
	`, login)
	return scanUser(row)
}

func (r *PgRepository) ListMasters(ctx context.Context) ([]Master, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.login, u.password_hash, u.full_name, u.phone_number, u.role, u.created_at,
		       COUNT(s.id)
		FROM users u
		LEFT JOIN services s ON s.master_id = u.id
		WHERE u.role <> 'CLIENT'
		GROUP BY u.id
		ORDER BY u.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Master
	for rows.Next() {
		var m Master
		if err := rows.Scan(
			&m.ID,
			&m.Login,
			&m.PasswordHash,
			&m.FullName,
			&m.PhoneNumber,
			&m.Role,
			&m.CreatedAt,
			&m.ServicesCount,
		); err != nil {
			return nil, err
		}
		result = append(result, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
