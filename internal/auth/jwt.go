package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMissingBearer = errors.New("missing or malformed bearer header")
	ErrInvalidToken  = errors.New("invalid token")
)

type Claims struct {
	Email string `json:"email"`
	JTI   string `json:"jti"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// IssueToken signs a token carrying the caller's email. The email is the only
// identity the rest of the system trusts.
func (m *Manager) IssueToken(email string) (string, error) {
	now := time.Now().UTC()

	claims := Claims{
		Email: email,
		JTI:   uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			Subject:   email,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) VerifyToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256

		_, ok := t.Method.(*jwt.SigningMethodHMAC)

		if !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)

	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Email == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// VerifyHeader takes a raw Authorization header value. An absent or non-Bearer
// header is distinguished from a cryptographically bad token so the HTTP layer
// can answer 401 vs 403.
func (m *Manager) VerifyHeader(header string) (*Claims, error) {
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, ErrMissingBearer
	}

	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))

	if raw == "" {
		return nil, ErrMissingBearer
	}

	claims, err := m.VerifyToken(raw)

	if err != nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
