package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/adeolu/servicehub/internal/cache"
	"github.com/adeolu/servicehub/internal/config"
	"github.com/adeolu/servicehub/internal/domain/service"
	"github.com/adeolu/servicehub/internal/domain/user"
	"github.com/adeolu/servicehub/internal/http/middlewares"
	"github.com/adeolu/servicehub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	featuredLimit    = 6
	featuredCacheKey = "services:featured"
)

type ServicesStore interface {
	Create(ctx context.Context, s service.Service) error
	ListAll(ctx context.Context) ([]service.Service, error)
	ListFeatured(ctx context.Context, limit int) ([]service.Service, error)
	ListByProvider(ctx context.Context, providerEmail string) ([]service.Service, error)
	GetByID(ctx context.Context, id string) (service.Service, error)
	UpdateOwned(ctx context.Context, id, providerEmail string, req service.UpdateServiceRequest) (service.Service, error)
	DeleteOwned(ctx context.Context, id, providerEmail string) error
}

type ServicesHandler struct {
	repo  ServicesStore
	users UserStore
	cache cache.Store
	prom  *observability.Prom
}

func NewServicesHandler(repo ServicesStore, users UserStore, c cache.Store, prom *observability.Prom) *ServicesHandler {
	return &ServicesHandler{
		repo:  repo,
		users: users,
		cache: c,
		prom:  prom,
	}
}

// AddService stamps the provider identity from the caller's own user record;
// nothing provider-shaped is trusted from the request body.
func (h *ServicesHandler) AddService(ctx *gin.Context) {
	var req service.CreateServiceRequest

	if !BindJSON(ctx, &req) {
		return
	}

	email, ok := middlewares.EmailFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	provider, err := h.users.GetByEmail(cctx, email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not add service")
		return
	}

	s := service.NewFromCreateRequest(req, provider)

	if err := h.repo.Create(cctx, s); err != nil {
		RespondInternal(ctx, "Could not add service")
		return
	}

	h.invalidateFeatured(cctx)

	ctx.JSON(http.StatusCreated, s)
}

func (h *ServicesHandler) ListServices(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	services, err := h.repo.ListAll(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list services")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, services)
}

// FeaturedServices serves the landing-page list through the cache; a hit skips
// the store round trip entirely.
func (h *ServicesHandler) FeaturedServices(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if h.cache != nil {
		if raw, ok := h.cache.Get(cctx, featuredCacheKey); ok {
			h.countCache(true)
			ctx.Data(http.StatusOK, "application/json; charset=utf-8", raw)
			return
		}
		h.countCache(false)
	}

	services, err := h.repo.ListFeatured(cctx, featuredLimit)

	if err != nil {
		RespondInternal(ctx, "Could not list featured services")
		return
	}

	if h.cache != nil {
		if raw, marshalErr := json.Marshal(services); marshalErr == nil {
			h.cache.Set(cctx, featuredCacheKey, raw)
		}
	}

	ctx.JSON(http.StatusOK, services)
}

func (h *ServicesHandler) GetServiceByID(ctx *gin.Context) {
	id := ctx.Param("id")

	if uuid.Validate(id) != nil {
		RespondNotFound(ctx, "Service not found")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	s, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			RespondNotFound(ctx, "Service not found")
			return
		}

		RespondInternal(ctx, "Could not fetch service")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, s)
}

func (h *ServicesHandler) MyServices(ctx *gin.Context) {
	email, ok := middlewares.EmailFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	services, err := h.repo.ListByProvider(cctx, email)

	if err != nil {
		RespondInternal(ctx, "Could not list services")
		return
	}

	ctx.JSON(http.StatusOK, services)
}

// UpdateService: the ownership constraint lives inside the single UPDATE, so a
// non-owner matches zero rows and gets a 400, never a partial write.
func (h *ServicesHandler) UpdateService(ctx *gin.Context) {
	var req service.UpdateServiceRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if req.Empty() {
		RespondBadRequest(ctx, "No changes provided", nil)
		return
	}

	email, ok := middlewares.EmailFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	id := ctx.Param("id")

	if uuid.Validate(id) != nil {
		RespondBadRequest(ctx, "No changes applied", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	s, err := h.repo.UpdateOwned(cctx, id, email, req)

	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			RespondBadRequest(ctx, "No changes applied", nil)
			return
		}

		RespondInternal(ctx, "Could not update service")
		return
	}

	h.invalidateFeatured(cctx)

	ctx.JSON(http.StatusOK, s)
}

func (h *ServicesHandler) DeleteService(ctx *gin.Context) {
	email, ok := middlewares.EmailFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	id := ctx.Param("id")

	if uuid.Validate(id) != nil {
		RespondNotFound(ctx, "Service not found")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.repo.DeleteOwned(cctx, id, email)

	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			RespondNotFound(ctx, "Service not found")
			return
		}

		if errors.Is(err, service.ErrNotOwner) {
			RespondForbidden(ctx, "Cannot delete others' services")
			return
		}

		RespondInternal(ctx, "Could not delete service")
		return
	}

	h.invalidateFeatured(cctx)

	ctx.JSON(http.StatusOK, gin.H{"message": "Service deleted"})
}

func (h *ServicesHandler) invalidateFeatured(ctx context.Context) {
	if h.cache != nil {
		h.cache.Delete(ctx, featuredCacheKey)
	}
}

func (h *ServicesHandler) countCache(hit bool) {
	if h.prom == nil {
		return
	}

	if hit {
		h.prom.CacheHits.WithLabelValues("featured_services").Inc()
		return
	}

	h.prom.CacheMisses.WithLabelValues("featured_services").Inc()
}
