package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/adeolu/servicehub/internal/config"
	"github.com/adeolu/servicehub/internal/domain/booking"
	"github.com/adeolu/servicehub/internal/domain/service"
	"github.com/adeolu/servicehub/internal/domain/user"
	"github.com/adeolu/servicehub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookingsStore interface {
	Create(ctx context.Context, b booking.Booking) error
	ListByUser(ctx context.Context, userEmail string) ([]booking.Booking, error)
	ListByProvider(ctx context.Context, providerEmail string) ([]booking.Booking, error)
	GetByID(ctx context.Context, id string) (booking.Booking, error)
	UpdateStatus(ctx context.Context, id string, from, to booking.Status) (booking.Booking, error)
}

type ServiceReader interface {
	GetByID(ctx context.Context, id string) (service.Service, error)
}

type BookingsHandler struct {
	repo     BookingsStore
	users    UserStore
	services ServiceReader
}

func NewBookingsHandler(repo BookingsStore, users UserStore, services ServiceReader) *BookingsHandler {
	return &BookingsHandler{
		repo:     repo,
		users:    users,
		services: services,
	}
}

// BookService stamps the caller's identity and the booked service's provider
// email at creation, so the provider to-do view needs no join later.
func (h *BookingsHandler) BookService(ctx *gin.Context) {
	var req booking.CreateBookingRequest

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

	caller, err := h.users.GetByEmail(cctx, email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not book service")
		return
	}

	svc, err := h.services.GetByID(cctx, req.ServiceID)

	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			RespondNotFound(ctx, "Service not found")
			return
		}

		RespondInternal(ctx, "Could not book service")
		return
	}

	b := booking.NewFromCreateRequest(req, caller, svc)

	if err := h.repo.Create(cctx, b); err != nil {
		RespondInternal(ctx, "Could not book service")
		return
	}

	ctx.JSON(http.StatusCreated, b)
}

func (h *BookingsHandler) MyBookings(ctx *gin.Context) {
	email, ok := middlewares.EmailFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	bookings, err := h.repo.ListByUser(cctx, email)

	if err != nil {
		RespondInternal(ctx, "Could not list bookings")
		return
	}

	ctx.JSON(http.StatusOK, bookings)
}

// ServiceTodo is the provider-side view of incoming bookings.
func (h *BookingsHandler) ServiceTodo(ctx *gin.Context) {
	email, ok := middlewares.EmailFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	bookings, err := h.repo.ListByProvider(cctx, email)

	if err != nil {
		RespondInternal(ctx, "Could not list bookings")
		return
	}

	ctx.JSON(http.StatusOK, bookings)
}

// UpdateStatus drives the booking lifecycle. The caller must be the booking's
// provider (accept/reject/complete) or its user (cancel); the write itself is
// a compare-and-swap on the status the caller saw.
func (h *BookingsHandler) UpdateStatus(ctx *gin.Context) {
	var req booking.UpdateStatusRequest

	if !BindJSON(ctx, &req) {
		return
	}

	email, ok := middlewares.EmailFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	id := ctx.Param("id")

	if uuid.Validate(id) != nil {
		RespondNotFound(ctx, "Booking not found")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	b, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			RespondNotFound(ctx, "Booking not found")
			return
		}

		RespondInternal(ctx, "Could not update status")
		return
	}

	var actors []booking.Actor

	if email == b.ProviderEmail {
		actors = append(actors, booking.ActorProvider)
	}

	if email == b.UserEmail {
		actors = append(actors, booking.ActorUser)
	}

	if len(actors) == 0 {
		RespondForbidden(ctx, "Cannot update others' bookings")
		return
	}

	transitionErr := booking.ErrWrongActor

	for _, actor := range actors {
		transitionErr = booking.Transition(b.Status, req.Status, actor)

		if transitionErr == nil {
			break
		}
	}

	if transitionErr != nil {
		if errors.Is(transitionErr, booking.ErrWrongActor) {
			RespondForbidden(ctx, "Caller may not set this status")
			return
		}

		RespondConflict(ctx, "illegal_transition", "Booking cannot move from "+string(b.Status)+" to "+string(req.Status))
		return
	}

	updated, err := h.repo.UpdateStatus(cctx, id, b.Status, req.Status)

	if err != nil {
		if errors.Is(err, booking.ErrStatusConflict) {
			RespondConflict(ctx, "status_conflict", "Booking status changed, retry with the current state")
			return
		}

		RespondInternal(ctx, "Could not update status")
		return
	}

	ctx.JSON(http.StatusOK, updated)
}
