package service

import (
	"errors"
	"time"
)

type Service struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Category      string    `json:"category,omitempty"`
	Price         float64   `json:"price"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	ProviderID    string    `json:"providerId"`
	ProviderName  string    `json:"providerName"`
	ProviderEmail string    `json:"providerEmail"`
	ProviderImage *string   `json:"providerImage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

var ErrNotFound = errors.New("service not found")

// ErrNotOwner signals the row exists but belongs to a different provider.
var ErrNotOwner = errors.New("service owned by another provider")

type CreateServiceRequest struct {
	Title       string  `json:"title" binding:"required,min=3,max=120"`
	Description string  `json:"description" binding:"omitempty,max=2000"`
	Category    string  `json:"category" binding:"omitempty,max=80"`
	Price       float64 `json:"price" binding:"omitempty,min=0"`
	ImageURL    string  `json:"imageUrl" binding:"omitempty,url"`
}

// Partial update: nil means "leave as is". Provider identity fields are never
// updatable; providerEmail is fixed at creation.
type UpdateServiceRequest struct {
	Title       *string  `json:"title" binding:"omitempty,min=3,max=120"`
	Description *string  `json:"description" binding:"omitempty,max=2000"`
	Category    *string  `json:"category" binding:"omitempty,max=80"`
	Price       *float64 `json:"price" binding:"omitempty,min=0"`
	ImageURL    *string  `json:"imageUrl" binding:"omitempty,url"`
}

func (r UpdateServiceRequest) Empty() bool {
	return r.Title == nil && r.Description == nil && r.Category == nil && r.Price == nil && r.ImageURL == nil
}
