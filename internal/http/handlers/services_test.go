package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adeolu/servicehub/internal/cache"
	"github.com/adeolu/servicehub/internal/domain/service"
	"github.com/adeolu/servicehub/internal/domain/user"
	"github.com/adeolu/servicehub/internal/http/handlers"
	"github.com/google/uuid"
)

// Fake implementation of the handlers.ServicesStore interface

type fakeServicesRepo struct {
	createFn         func(ctx context.Context, s service.Service) error
	listAllFn        func(ctx context.Context) ([]service.Service, error)
	listFeaturedFn   func(ctx context.Context, limit int) ([]service.Service, error)
	listByProviderFn func(ctx context.Context, providerEmail string) ([]service.Service, error)
	getFn            func(ctx context.Context, id string) (service.Service, error)
	updateOwnedFn    func(ctx context.Context, id, providerEmail string, req service.UpdateServiceRequest) (service.Service, error)
	deleteOwnedFn    func(ctx context.Context, id, providerEmail string) error
}

func (f *fakeServicesRepo) Create(ctx context.Context, s service.Service) error {
	if f.createFn != nil {
		return f.createFn(ctx, s)
	}
	return nil
}

func (f *fakeServicesRepo) ListAll(ctx context.Context) ([]service.Service, error) {
	if f.listAllFn != nil {
		return f.listAllFn(ctx)
	}
	return []service.Service{}, nil
}

func (f *fakeServicesRepo) ListFeatured(ctx context.Context, limit int) ([]service.Service, error) {
	if f.listFeaturedFn != nil {
		return f.listFeaturedFn(ctx, limit)
	}
	return []service.Service{}, nil
}

func (f *fakeServicesRepo) ListByProvider(ctx context.Context, providerEmail string) ([]service.Service, error) {
	if f.listByProviderFn != nil {
		return f.listByProviderFn(ctx, providerEmail)
	}
	return []service.Service{}, nil
}

func (f *fakeServicesRepo) GetByID(ctx context.Context, id string) (service.Service, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return service.Service{}, service.ErrNotFound
}

func (f *fakeServicesRepo) UpdateOwned(ctx context.Context, id, providerEmail string, req service.UpdateServiceRequest) (service.Service, error) {
	if f.updateOwnedFn != nil {
		return f.updateOwnedFn(ctx, id, providerEmail, req)
	}
	return service.Service{}, service.ErrNotFound
}

func (f *fakeServicesRepo) DeleteOwned(ctx context.Context, id, providerEmail string) error {
	if f.deleteOwnedFn != nil {
		return f.deleteOwnedFn(ctx, id, providerEmail)
	}
	return service.ErrNotFound
}

func seedService(providerEmail string) service.Service {
	return service.Service{
		ID:            uuid.NewString(),
		Title:         "Deep Clean",
		ProviderID:    uuid.NewString(),
		ProviderName:  "A",
		ProviderEmail: providerEmail,
		CreatedAt:     time.Now().UTC(),
	}
}

// AddService tests

func TestAddServiceStampsProviderIdentity(t *testing.T) {
	provider := seedUser("a@x.com")

	users := &fakeUserStore{
		getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
			return provider, nil
		},
	}

	var created service.Service

	repo := &fakeServicesRepo{
		createFn: func(ctx context.Context, s service.Service) error {
			created = s
			return nil
		},
	}

	h := handlers.NewServicesHandler(repo, users, nil, nil)
	r := setupAuthedRouter(http.MethodPost, "/addservice", provider.Email, h.AddService)

	// providerEmail in the body must be ignored
	w := doJSON(r, http.MethodPost, "/addservice", `{"title":"Deep Clean","providerEmail":"evil@x.com"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, want 201, body=%s", w.Code, w.Body.String())
	}

	if created.ProviderEmail != provider.Email {
		t.Fatalf("got providerEmail %q, want %q", created.ProviderEmail, provider.Email)
	}

	if created.ProviderName != provider.Name || created.ProviderID != provider.ID {
		t.Fatalf("provider identity not stamped from the user record: %+v", created)
	}
}

func TestAddServiceUnknownCallerIs404(t *testing.T) {
	users := &fakeUserStore{
		getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
			return user.User{}, user.ErrNotFound
		},
	}

	h := handlers.NewServicesHandler(&fakeServicesRepo{}, users, nil, nil)
	r := setupAuthedRouter(http.MethodPost, "/addservice", "ghost@x.com", h.AddService)

	w := doJSON(r, http.MethodPost, "/addservice", `{"title":"Deep Clean"}`)

	if w.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404", w.Code)
	}
}

// Featured tests

func TestFeaturedServicesLimitAndCache(t *testing.T) {
	calls := 0

	repo := &fakeServicesRepo{
		listFeaturedFn: func(ctx context.Context, limit int) ([]service.Service, error) {
			calls++
			if limit != 6 {
				t.Fatalf("got limit %d, want 6", limit)
			}
			out := make([]service.Service, 0, limit)
			for i := 0; i < limit; i++ {
				out = append(out, seedService("a@x.com"))
			}
			return out, nil
		},
	}

	h := handlers.NewServicesHandler(repo, &fakeUserStore{}, cache.NewMemory(time.Minute), nil)
	r := setupRouter(http.MethodGet, "/featuredservices", h.FeaturedServices)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/featuredservices", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, want 200", w.Code)
		}

		var got []service.Service
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
			t.Fatalf("bad body: %v", err)
		}

		if len(got) > 6 {
			t.Fatalf("featured returned %d items, want at most 6", len(got))
		}
	}

	if calls != 1 {
		t.Fatalf("store hit %d times, want 1 (second read should come from cache)", calls)
	}
}

// GetServiceByID tests

func TestGetServiceByID(t *testing.T) {
	known := seedService("a@x.com")

	repo := &fakeServicesRepo{
		getFn: func(ctx context.Context, id string) (service.Service, error) {
			if id == known.ID {
				return known, nil
			}
			return service.Service{}, service.ErrNotFound
		},
	}

	h := handlers.NewServicesHandler(repo, &fakeUserStore{}, nil, nil)
	r := setupRouter(http.MethodGet, "/services/:id", h.GetServiceByID)

	tests := []struct {
		name           string
		id             string
		wantStatusCode int
	}{
		{"found", known.ID, http.StatusOK},
		{"absent", uuid.NewString(), http.StatusNotFound},
		{"malformed_id", "not-a-uuid", http.StatusNotFound},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/services/"+tt.id, nil))

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d", w.Code, tt.wantStatusCode)
			}
		})
	}
}

// Update tests

func TestUpdateServiceOwnership(t *testing.T) {
	owned := seedService("owner@x.com")

	repo := &fakeServicesRepo{
		updateOwnedFn: func(ctx context.Context, id, providerEmail string, req service.UpdateServiceRequest) (service.Service, error) {
			if id == owned.ID && providerEmail == owned.ProviderEmail {
				updated := owned
				if req.Title != nil {
					updated.Title = *req.Title
				}
				return updated, nil
			}
			// zero rows matched
			return service.Service{}, service.ErrNotFound
		},
	}

	tests := []struct {
		name           string
		caller         string
		id             string
		body           string
		wantStatusCode int
	}{
		{"owner_updates", "owner@x.com", owned.ID, `{"title":"New Title"}`, http.StatusOK},
		{"non_owner_gets_400", "other@x.com", owned.ID, `{"title":"New Title"}`, http.StatusBadRequest},
		{"empty_patch_is_400", "owner@x.com", owned.ID, `{}`, http.StatusBadRequest},
		{"malformed_id_is_400", "owner@x.com", "nope", `{"title":"New Title"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewServicesHandler(repo, &fakeUserStore{}, nil, nil)
			r := setupAuthedRouter(http.MethodPatch, "/services/:id", tt.caller, h.UpdateService)

			w := doJSON(r, http.MethodPatch, "/services/"+tt.id, tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

// Delete tests

func TestDeleteService(t *testing.T) {
	owned := seedService("owner@x.com")

	repo := &fakeServicesRepo{
		deleteOwnedFn: func(ctx context.Context, id, providerEmail string) error {
			if id != owned.ID {
				return service.ErrNotFound
			}
			if providerEmail != owned.ProviderEmail {
				return service.ErrNotOwner
			}
			return nil
		},
	}

	tests := []struct {
		name           string
		caller         string
		id             string
		wantStatusCode int
	}{
		{"owner_deletes", "owner@x.com", owned.ID, http.StatusOK},
		{"non_owner_is_403", "other@x.com", owned.ID, http.StatusForbidden},
		{"absent_is_404", uuid.NewString(), uuid.NewString(), http.StatusNotFound},
		{"malformed_id_is_404", "owner@x.com", "nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewServicesHandler(repo, &fakeUserStore{}, nil, nil)
			r := setupAuthedRouter(http.MethodDelete, "/services/:id", tt.caller, h.DeleteService)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/services/"+tt.id, nil))

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestDeleteServiceInvalidatesFeaturedCache(t *testing.T) {
	owned := seedService("owner@x.com")
	store := cache.NewMemory(time.Minute)

	repo := &fakeServicesRepo{
		listFeaturedFn: func(ctx context.Context, limit int) ([]service.Service, error) {
			return []service.Service{owned}, nil
		},
		deleteOwnedFn: func(ctx context.Context, id, providerEmail string) error {
			return nil
		},
	}

	h := handlers.NewServicesHandler(repo, &fakeUserStore{}, store, nil)

	// prime the cache
	r := setupRouter(http.MethodGet, "/featuredservices", h.FeaturedServices)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/featuredservices", nil))

	if _, ok := store.Get(context.Background(), "services:featured"); !ok {
		t.Fatal("expected featured cache to be primed")
	}

	rd := setupAuthedRouter(http.MethodDelete, "/services/:id", "owner@x.com", h.DeleteService)
	wd := httptest.NewRecorder()
	rd.ServeHTTP(wd, httptest.NewRequest(http.MethodDelete, "/services/"+owned.ID, nil))

	if wd.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", wd.Code)
	}

	if _, ok := store.Get(context.Background(), "services:featured"); ok {
		t.Fatal("expected featured cache to be invalidated after delete")
	}
}

// ETag behaviour on the public list

func TestListServicesETagRevalidation(t *testing.T) {
	repo := &fakeServicesRepo{
		listAllFn: func(ctx context.Context) ([]service.Service, error) {
			return []service.Service{}, nil
		},
	}

	h := handlers.NewServicesHandler(repo, &fakeUserStore{}, nil, nil)
	r := setupRouter(http.MethodGet, "/allservices", h.ListServices)

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/allservices", nil))

	etag := first.Header().Get("ETag")

	if first.Code != http.StatusOK || etag == "" {
		t.Fatalf("got status %d etag %q, want 200 with an ETag", first.Code, etag)
	}

	req := httptest.NewRequest(http.MethodGet, "/allservices", nil)
	req.Header.Set("If-None-Match", etag)

	second := httptest.NewRecorder()
	r.ServeHTTP(second, req)

	if second.Code != http.StatusNotModified {
		t.Fatalf("got status %d, want 304", second.Code)
	}
}
