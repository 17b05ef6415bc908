package postgres

import (
	"context"
	"errors"

	"github.com/adeolu/servicehub/internal/domain/booking"
	"github.com/adeolu/servicehub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingColumns = `id, service_id, service_title, user_email, user_name, user_image,
	provider_email, status, note, scheduled_at, created_at, updated_at`

type BookingsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewBookingsRepo(pool *pgxpool.Pool, prom *observability.Prom) *BookingsRepo {
	return &BookingsRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *BookingsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func scanBooking(row pgx.Row) (booking.Booking, error) {
	var b booking.Booking

	err := row.Scan(
		&b.ID,
		&b.ServiceID,
		&b.ServiceTitle,
		&b.UserEmail,
		&b.UserName,
		&b.UserImage,
		&b.ProviderEmail,
		&b.Status,
		&b.Note,
		&b.ScheduledAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)

	return b, err
}

func (r *BookingsRepo) Create(ctx context.Context, b booking.Booking) error {
	return r.observe("bookings.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO bookings (id, service_id, service_title, user_email, user_name, user_image,
				provider_email, status, note, scheduled_at, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			b.ID, b.ServiceID, b.ServiceTitle, b.UserEmail, b.UserName, b.UserImage,
			b.ProviderEmail, b.Status, b.Note, b.ScheduledAt, b.CreatedAt, b.UpdatedAt,
		)
		return err
	})
}

func (r *BookingsRepo) ListByUser(ctx context.Context, userEmail string) ([]booking.Booking, error) {
	return r.list(ctx, "bookings.list_by_user",
		`SELECT `+bookingColumns+`
		 FROM bookings
		 WHERE user_email = $1
		 ORDER BY created_at DESC, id DESC`, userEmail)
}

// ListByProvider backs the provider's to-do view.
func (r *BookingsRepo) ListByProvider(ctx context.Context, providerEmail string) ([]booking.Booking, error) {
	return r.list(ctx, "bookings.list_by_provider",
		`SELECT `+bookingColumns+`
		 FROM bookings
		 WHERE provider_email = $1
		 ORDER BY created_at DESC, id DESC`, providerEmail)
}

func (r *BookingsRepo) list(ctx context.Context, op, query string, args ...interface{}) (out []booking.Booking, err error) {
	var rows pgx.Rows

	err = r.observe(op, func() error {
		rows, err = r.pool.Query(ctx, query, args...)
		return err
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	out = make([]booking.Booking, 0)

	for rows.Next() {
		b, scanErr := scanBooking(rows)

		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, b)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return out, nil
}

func (r *BookingsRepo) GetByID(ctx context.Context, id string) (booking.Booking, error) {
	var b booking.Booking
	var err error

	obsErr := r.observe("bookings.get_by_id", func() error {
		b, err = scanBooking(r.pool.QueryRow(ctx,
			`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
		return err
	})

	if obsErr != nil {
		if errors.Is(obsErr, pgx.ErrNoRows) {
			return booking.Booking{}, booking.ErrNotFound
		}
		return booking.Booking{}, obsErr
	}

	return b, nil
}

// UpdateStatus is a compare-and-swap on the current status: if the booking
// moved since the caller read it, zero rows match and the caller gets a
// conflict instead of silently clobbering the newer state.
func (r *BookingsRepo) UpdateStatus(ctx context.Context, id string, from, to booking.Status) (booking.Booking, error) {
	var b booking.Booking
	var err error

	obsErr := r.observe("bookings.update_status", func() error {
		b, err = scanBooking(r.pool.QueryRow(ctx,
			`UPDATE bookings
				SET status = $3, updated_at = NOW()
			 WHERE id = $1 AND status = $2
			 RETURNING `+bookingColumns,
			id, from, to,
		))
		return err
	})

	if obsErr != nil {
		if errors.Is(obsErr, pgx.ErrNoRows) {
			return booking.Booking{}, booking.ErrStatusConflict
		}
		return booking.Booking{}, obsErr
	}

	return b, nil
}
