package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adeolu/servicehub/internal/domain/booking"
	"github.com/adeolu/servicehub/internal/domain/service"
	"github.com/adeolu/servicehub/internal/domain/user"
	"github.com/adeolu/servicehub/internal/http/handlers"
	"github.com/google/uuid"
)

// Fake implementation of the handlers.BookingsStore interface

type fakeBookingsRepo struct {
	createFn         func(ctx context.Context, b booking.Booking) error
	listByUserFn     func(ctx context.Context, userEmail string) ([]booking.Booking, error)
	listByProviderFn func(ctx context.Context, providerEmail string) ([]booking.Booking, error)
	getFn            func(ctx context.Context, id string) (booking.Booking, error)
	updateStatusFn   func(ctx context.Context, id string, from, to booking.Status) (booking.Booking, error)
}

func (f *fakeBookingsRepo) Create(ctx context.Context, b booking.Booking) error {
	if f.createFn != nil {
		return f.createFn(ctx, b)
	}
	return nil
}

func (f *fakeBookingsRepo) ListByUser(ctx context.Context, userEmail string) ([]booking.Booking, error) {
	if f.listByUserFn != nil {
		return f.listByUserFn(ctx, userEmail)
	}
	return []booking.Booking{}, nil
}

func (f *fakeBookingsRepo) ListByProvider(ctx context.Context, providerEmail string) ([]booking.Booking, error) {
	if f.listByProviderFn != nil {
		return f.listByProviderFn(ctx, providerEmail)
	}
	return []booking.Booking{}, nil
}

func (f *fakeBookingsRepo) GetByID(ctx context.Context, id string) (booking.Booking, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return booking.Booking{}, booking.ErrNotFound
}

func (f *fakeBookingsRepo) UpdateStatus(ctx context.Context, id string, from, to booking.Status) (booking.Booking, error) {
	if f.updateStatusFn != nil {
		return f.updateStatusFn(ctx, id, from, to)
	}
	return booking.Booking{}, booking.ErrStatusConflict
}

func seedBooking(userEmail, providerEmail string, status booking.Status) booking.Booking {
	now := time.Now().UTC()
	return booking.Booking{
		ID:            uuid.NewString(),
		ServiceID:     uuid.NewString(),
		ServiceTitle:  "Deep Clean",
		UserEmail:     userEmail,
		UserName:      "A",
		ProviderEmail: providerEmail,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// BookService tests

func TestBookServiceStampsIdentityAndPending(t *testing.T) {
	caller := seedUser("a@x.com")
	svc := seedService("provider@x.com")

	users := &fakeUserStore{
		getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
			return caller, nil
		},
	}

	services := &fakeServicesRepo{
		getFn: func(ctx context.Context, id string) (service.Service, error) {
			if id == svc.ID {
				return svc, nil
			}
			return service.Service{}, service.ErrNotFound
		},
	}

	var created booking.Booking

	repo := &fakeBookingsRepo{
		createFn: func(ctx context.Context, b booking.Booking) error {
			created = b
			return nil
		},
	}

	h := handlers.NewBookingsHandler(repo, users, services)
	r := setupAuthedRouter(http.MethodPost, "/bookservice", caller.Email, h.BookService)

	w := doJSON(r, http.MethodPost, "/bookservice", `{"serviceId":"`+svc.ID+`"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, want 201, body=%s", w.Code, w.Body.String())
	}

	if created.Status != booking.StatusPending {
		t.Fatalf("got status %q, want pending", created.Status)
	}

	if created.UserEmail != caller.Email {
		t.Fatalf("got userEmail %q, want %q", created.UserEmail, caller.Email)
	}

	if created.ProviderEmail != svc.ProviderEmail {
		t.Fatalf("got providerEmail %q, want %q (stamped from the service)", created.ProviderEmail, svc.ProviderEmail)
	}
}

func TestBookServiceAbsentServiceIs404(t *testing.T) {
	caller := seedUser("a@x.com")

	users := &fakeUserStore{
		getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
			return caller, nil
		},
	}

	services := &fakeServicesRepo{
		getFn: func(ctx context.Context, id string) (service.Service, error) {
			return service.Service{}, service.ErrNotFound
		},
	}

	h := handlers.NewBookingsHandler(&fakeBookingsRepo{}, users, services)
	r := setupAuthedRouter(http.MethodPost, "/bookservice", caller.Email, h.BookService)

	w := doJSON(r, http.MethodPost, "/bookservice", `{"serviceId":"`+uuid.NewString()+`"}`)

	if w.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404", w.Code)
	}
}

// listing tests

func TestMyBookingsFiltersByCaller(t *testing.T) {
	mine := seedBooking("a@x.com", "p@x.com", booking.StatusPending)

	repo := &fakeBookingsRepo{
		listByUserFn: func(ctx context.Context, userEmail string) ([]booking.Booking, error) {
			if userEmail != "a@x.com" {
				return []booking.Booking{}, nil
			}
			return []booking.Booking{mine}, nil
		},
	}

	h := handlers.NewBookingsHandler(repo, &fakeUserStore{}, &fakeServicesRepo{})

	for caller, wantCount := range map[string]int{"a@x.com": 1, "b@x.com": 0} {
		r := setupAuthedRouter(http.MethodGet, "/mybookings", caller, h.MyBookings)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/mybookings", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, want 200", w.Code)
		}

		var got []booking.Booking
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
			t.Fatalf("bad body: %v", err)
		}

		if len(got) != wantCount {
			t.Fatalf("caller %s got %d bookings, want %d", caller, len(got), wantCount)
		}
	}
}

func TestServiceTodoFiltersByProvider(t *testing.T) {
	incoming := seedBooking("a@x.com", "p@x.com", booking.StatusPending)

	repo := &fakeBookingsRepo{
		listByProviderFn: func(ctx context.Context, providerEmail string) ([]booking.Booking, error) {
			if providerEmail != "p@x.com" {
				return []booking.Booking{}, nil
			}
			return []booking.Booking{incoming}, nil
		},
	}

	h := handlers.NewBookingsHandler(repo, &fakeUserStore{}, &fakeServicesRepo{})
	r := setupAuthedRouter(http.MethodGet, "/servicetodo", "p@x.com", h.ServiceTodo)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/servicetodo", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}

	var got []booking.Booking
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad body: %v", err)
	}

	if len(got) != 1 || got[0].ID != incoming.ID {
		t.Fatalf("expected the provider's incoming booking, got %+v", got)
	}
}

// UpdateStatus tests

func TestUpdateStatus(t *testing.T) {
	pending := seedBooking("u@x.com", "p@x.com", booking.StatusPending)
	completed := seedBooking("u@x.com", "p@x.com", booking.StatusCompleted)

	lookup := map[string]booking.Booking{
		pending.ID:   pending,
		completed.ID: completed,
	}

	repo := &fakeBookingsRepo{
		getFn: func(ctx context.Context, id string) (booking.Booking, error) {
			b, ok := lookup[id]
			if !ok {
				return booking.Booking{}, booking.ErrNotFound
			}
			return b, nil
		},
		updateStatusFn: func(ctx context.Context, id string, from, to booking.Status) (booking.Booking, error) {
			b := lookup[id]
			if b.Status != from {
				return booking.Booking{}, booking.ErrStatusConflict
			}
			b.Status = to
			return b, nil
		},
	}

	tests := []struct {
		name           string
		caller         string
		id             string
		body           string
		wantStatusCode int
	}{
		{"provider_accepts_pending", "p@x.com", pending.ID, `{"status":"accepted"}`, http.StatusOK},
		{"provider_rejects_pending", "p@x.com", pending.ID, `{"status":"rejected"}`, http.StatusOK},
		{"user_cancels_pending", "u@x.com", pending.ID, `{"status":"cancelled"}`, http.StatusOK},
		{"user_cannot_accept", "u@x.com", pending.ID, `{"status":"accepted"}`, http.StatusForbidden},
		{"stranger_is_403", "x@x.com", pending.ID, `{"status":"accepted"}`, http.StatusForbidden},
		{"completed_is_terminal", "p@x.com", completed.ID, `{"status":"rejected"}`, http.StatusConflict},
		{"unknown_status_is_400", "p@x.com", pending.ID, `{"status":"archived"}`, http.StatusBadRequest},
		{"absent_booking_is_404", "p@x.com", uuid.NewString(), `{"status":"accepted"}`, http.StatusNotFound},
		{"malformed_id_is_404", "p@x.com", "nope", `{"status":"accepted"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewBookingsHandler(repo, &fakeUserStore{}, &fakeServicesRepo{})
			r := setupAuthedRouter(http.MethodPut, "/updatestatus/:id", tt.caller, h.UpdateStatus)

			w := doJSON(r, http.MethodPut, "/updatestatus/"+tt.id, tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestUpdateStatusCompareAndSwapConflict(t *testing.T) {
	pending := seedBooking("u@x.com", "p@x.com", booking.StatusPending)

	repo := &fakeBookingsRepo{
		getFn: func(ctx context.Context, id string) (booking.Booking, error) {
			return pending, nil
		},
		updateStatusFn: func(ctx context.Context, id string, from, to booking.Status) (booking.Booking, error) {
			// the booking moved between the read and the write
			return booking.Booking{}, booking.ErrStatusConflict
		},
	}

	h := handlers.NewBookingsHandler(repo, &fakeUserStore{}, &fakeServicesRepo{})
	r := setupAuthedRouter(http.MethodPut, "/updatestatus/:id", "p@x.com", h.UpdateStatus)

	w := doJSON(r, http.MethodPut, "/updatestatus/"+pending.ID, `{"status":"accepted"}`)

	if w.Code != http.StatusConflict {
		t.Fatalf("got status %d, want 409, body=%s", w.Code, w.Body.String())
	}
}
