package postgres

import (
	"context"
	"errors"

	"github.com/adeolu/servicehub/internal/domain/user"
	"github.com/adeolu/servicehub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// Upsert registers a user in a single atomic statement: two concurrent
// registers with the same email cannot both insert. The no-op DO UPDATE makes
// RETURNING yield the existing row; xmax = 0 only holds for a fresh insert.
func (r *UsersRepo) Upsert(ctx context.Context, u user.User) (saved user.User, created bool, err error) {
	err = r.observe("users.upsert", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO users (id, name, email, image_url, created_at)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
			 RETURNING id, name, email, image_url, created_at, (xmax = 0) AS inserted`,
			u.ID, u.Name, u.Email, u.ImageURL, u.CreatedAt,
		).Scan(&saved.ID, &saved.Name, &saved.Email, &saved.ImageURL, &saved.CreatedAt, &created)
	})

	if err != nil {
		return user.User{}, false, err
	}

	return saved, created, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_email", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT id, name, email, image_url, created_at
			 FROM users
			 WHERE email = $1`,
			email,
		).Scan(
			&u.ID,
			&u.Name,
			&u.Email,
			&u.ImageURL,
			&u.CreatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}
