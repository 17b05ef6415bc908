package booking

import (
	"errors"
	"time"

	"github.com/adeolu/servicehub/internal/domain/service"
	"github.com/adeolu/servicehub/internal/domain/user"
	"github.com/google/uuid"
)

type Booking struct {
	ID            string     `json:"id"`
	ServiceID     string     `json:"serviceId"`
	ServiceTitle  string     `json:"serviceTitle"`
	UserEmail     string     `json:"userEmail"`
	UserName      string     `json:"userName"`
	UserImage     *string    `json:"userImage,omitempty"`
	ProviderEmail string     `json:"providerEmail"`
	Status        Status     `json:"status"`
	Note          string     `json:"note,omitempty"`
	ScheduledAt   *time.Time `json:"scheduledAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

var ErrNotFound = errors.New("booking not found")

// ErrStatusConflict signals the booking moved out from under a transition.
var ErrStatusConflict = errors.New("booking status changed concurrently")

type CreateBookingRequest struct {
	ServiceID   string     `json:"serviceId" binding:"required,uuid"`
	Note        string     `json:"note" binding:"omitempty,max=1000"`
	ScheduledAt *time.Time `json:"scheduledAt" binding:"omitempty"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status" binding:"required,oneof=pending accepted rejected completed cancelled"`
}

// NewFromCreateRequest stamps caller identity and the booked service's provider
// so that the provider's to-do view can be answered by a single filter.
func NewFromCreateRequest(req CreateBookingRequest, caller user.User, svc service.Service) Booking {
	now := time.Now().UTC()

	return Booking{
		ID:            uuid.NewString(),
		ServiceID:     svc.ID,
		ServiceTitle:  svc.Title,
		UserEmail:     caller.Email,
		UserName:      caller.Name,
		UserImage:     caller.ImageURL,
		ProviderEmail: svc.ProviderEmail,
		Status:        StatusPending,
		Note:          req.Note,
		ScheduledAt:   req.ScheduledAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
