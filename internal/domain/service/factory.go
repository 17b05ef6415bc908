package service

import (
	"time"

	"github.com/adeolu/servicehub/internal/domain/user"
	"github.com/google/uuid"
)

// NewFromCreateRequest stamps the provider identity from the authenticated
// user's own record, never from the request body.
func NewFromCreateRequest(req CreateServiceRequest, provider user.User) Service {
	return Service{
		ID:            uuid.NewString(),
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		Price:         req.Price,
		ImageURL:      req.ImageURL,
		ProviderID:    provider.ID,
		ProviderName:  provider.Name,
		ProviderEmail: provider.Email,
		ProviderImage: provider.ImageURL,
		CreatedAt:     time.Now().UTC(),
	}
}
