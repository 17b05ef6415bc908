package postgres

import (
	"context"
	"errors"

	"github.com/adeolu/servicehub/internal/domain/service"
	"github.com/adeolu/servicehub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const serviceColumns = `id, title, description, category, price, image_url,
	provider_id, provider_name, provider_email, provider_image, created_at`

type ServicesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewServicesRepo(pool *pgxpool.Pool, prom *observability.Prom) *ServicesRepo {
	return &ServicesRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *ServicesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func scanService(row pgx.Row) (service.Service, error) {
	var s service.Service

	err := row.Scan(
		&s.ID,
		&s.Title,
		&s.Description,
		&s.Category,
		&s.Price,
		&s.ImageURL,
		&s.ProviderID,
		&s.ProviderName,
		&s.ProviderEmail,
		&s.ProviderImage,
		&s.CreatedAt,
	)

	return s, err
}

func (r *ServicesRepo) Create(ctx context.Context, s service.Service) error {
	return r.observe("services.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO services (id, title, description, category, price, image_url,
				provider_id, provider_name, provider_email, provider_image, created_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			s.ID, s.Title, s.Description, s.Category, s.Price, s.ImageURL,
			s.ProviderID, s.ProviderName, s.ProviderEmail, s.ProviderImage, s.CreatedAt,
		)
		return err
	})
}

// ListAll returns every service, newest first.
func (r *ServicesRepo) ListAll(ctx context.Context) ([]service.Service, error) {
	return r.list(ctx, "services.list_all",
		`SELECT `+serviceColumns+`
		 FROM services
		 ORDER BY created_at DESC, id DESC`)
}

// ListFeatured returns the newest services capped at limit.
func (r *ServicesRepo) ListFeatured(ctx context.Context, limit int) ([]service.Service, error) {
	return r.list(ctx, "services.list_featured",
		`SELECT `+serviceColumns+`
		 FROM services
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`, limit)
}

func (r *ServicesRepo) ListByProvider(ctx context.Context, providerEmail string) ([]service.Service, error) {
	return r.list(ctx, "services.list_by_provider",
		`SELECT `+serviceColumns+`
		 FROM services
		 WHERE provider_email = $1
		 ORDER BY created_at DESC, id DESC`, providerEmail)
}

func (r *ServicesRepo) list(ctx context.Context, op, query string, args ...interface{}) (out []service.Service, err error) {
	var rows pgx.Rows

	err = r.observe(op, func() error {
		rows, err = r.pool.Query(ctx, query, args...)
		return err
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	out = make([]service.Service, 0)

	for rows.Next() {
		s, scanErr := scanService(rows)

		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, s)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return out, nil
}

func (r *ServicesRepo) GetByID(ctx context.Context, id string) (service.Service, error) {
	var s service.Service
	var err error

	obsErr := r.observe("services.get_by_id", func() error {
		s, err = scanService(r.pool.QueryRow(ctx,
			`SELECT `+serviceColumns+` FROM services WHERE id = $1`, id))
		return err
	})

	if obsErr != nil {
		if errors.Is(obsErr, pgx.ErrNoRows) {
			return service.Service{}, service.ErrNotFound
		}
		return service.Service{}, obsErr
	}

	return s, nil
}

// UpdateOwned applies a partial update in one conditional statement: only the
// row owned by providerEmail can match, so there is no read-check-write window.
func (r *ServicesRepo) UpdateOwned(ctx context.Context, id, providerEmail string, req service.UpdateServiceRequest) (service.Service, error) {
	var s service.Service
	var err error

	obsErr := r.observe("services.update_owned", func() error {
		s, err = scanService(r.pool.QueryRow(ctx,
			`UPDATE services
				SET title = COALESCE($3, title),
					description = COALESCE($4, description),
					category = COALESCE($5, category),
					price = COALESCE($6, price),
					image_url = COALESCE($7, image_url)
			 WHERE id = $1 AND provider_email = $2
			 RETURNING `+serviceColumns,
			id, providerEmail,
			req.Title, req.Description, req.Category, req.Price, req.ImageURL,
		))
		return err
	})

	if obsErr != nil {
		if errors.Is(obsErr, pgx.ErrNoRows) {
			return service.Service{}, service.ErrNotFound
		}
		return service.Service{}, obsErr
	}

	return s, nil
}

// DeleteOwned deletes in one conditional statement. When nothing matched, a
// follow-up read splits "absent" from "owned by someone else".
func (r *ServicesRepo) DeleteOwned(ctx context.Context, id, providerEmail string) error {
	var tag pgconn.CommandTag

	err := r.observe("services.delete_owned", func() error {
		var execErr error
		tag, execErr = r.pool.Exec(ctx,
			`DELETE FROM services WHERE id = $1 AND provider_email = $2`,
			id, providerEmail)
		return execErr
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() > 0 {
		return nil
	}

	var owner string

	err = r.observe("services.delete_owned.owner_check", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT provider_email FROM services WHERE id = $1`, id).Scan(&owner)
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return service.ErrNotFound
	}

	if err != nil {
		return err
	}

	return service.ErrNotOwner
}
