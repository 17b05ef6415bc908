package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/adeolu/servicehub/internal/config"
	"github.com/adeolu/servicehub/internal/domain/user"
	"github.com/adeolu/servicehub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type UserStore interface {
	Upsert(ctx context.Context, u user.User) (user.User, bool, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type TokenIssuer interface {
	IssueToken(email string) (string, error)
}

type AuthHandler struct {
	users UserStore
	jwt   TokenIssuer
}

func NewAuthHandler(users UserStore, jwt TokenIssuer) *AuthHandler {
	return &AuthHandler{
		users: users,
		jwt:   jwt,
	}
}

// Register is an idempotent sign-in: a known email gets its existing record
// back with a fresh token (200), a new email gets inserted (201). The upsert
// is a single statement, so two concurrent registers cannot both insert.
func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	u, created, err := h.users.Upsert(cctx, user.NewFromRegisterRequest(req))

	if err != nil {
		RespondInternal(ctx, "Could not register user")
		return
	}

	token, err := h.jwt.IssueToken(u.Email)

	if err != nil {
		RespondInternal(ctx, "Could not generate token")
		return
	}

	status := http.StatusOK

	if created {
		status = http.StatusCreated
	}

	ctx.JSON(status, gin.H{
		"token": token,
		"user":  u,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not log in")
		return
	}

	token, err := h.jwt.IssueToken(foundUser.Email)

	if err != nil {
		RespondInternal(ctx, "Could not generate token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  foundUser,
	})
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	email, ok := middlewares.EmailFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.GetByEmail(cctx, email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not fetch user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}
