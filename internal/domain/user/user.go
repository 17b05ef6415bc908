package user

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	ImageURL  *string   `json:"imageUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

var ErrNotFound = errors.New("user not found")

type RegisterRequest struct {
	Name     string  `json:"name" binding:"required,min=1,max=120"`
	Email    string  `json:"email" binding:"required,email"`
	ImageURL *string `json:"imageUrl" binding:"omitempty,url"`
}

type LoginRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// A factory to build a User from the incoming DTO

func NewFromRegisterRequest(req RegisterRequest) User {
	return User{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		ImageURL:  req.ImageURL,
		CreatedAt: time.Now().UTC(),
	}
}
