package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"taste-fit/internal/repository"
)

// AuthService emite y valida tokens JWT para el dashboard admin del stub.
type AuthService struct {
	secret []byte
	ttl    time.Duration
	users  repository.AdminUserRepository
}

// Claims son los claims del token de admin.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("token invalid")
)

func NewAuthService(secret string, users repository.AdminUserRepository) *AuthService {
	return &AuthService{
		secret: []byte(secret),
		ttl:    24 * time.Hour,
		users:  users,
	}
}

// SeedAdmin registra el usuario admin inicial si no existe.
func (s *AuthService) SeedAdmin(ctx context.Context, email, password string) error {
	if _, ok, err := s.users.GetByEmail(ctx, email); err != nil {
		return err
	} else if ok {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.Put(ctx, repository.AdminUser{
		UserID:       "admin-seed",
		Email:        email,
		PasswordHash: string(hash),
		Role:         repository.RoleAdmin,
	})
}

// Login verifica credenciales y emite el token con expiracion de 24h.
func (s *AuthService) Login(ctx context.Context, email, password string) (token string, user repository.AdminUser, err error) {
	u, ok, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", repository.AdminUser{}, err
	}
	if !ok || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", repository.AdminUser{}, NewProblem(http.StatusUnauthorized, "Invalid credentials")
	}

	now := time.Now().UTC()
	claims := Claims{
		UserID: u.UserID,
		Email:  u.Email,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", repository.AdminUser{}, err
	}
	return signed, u, nil
}

// Verify valida el token y devuelve el usuario asociado.
func (s *AuthService) Verify(ctx context.Context, token string) (repository.AdminUser, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return repository.AdminUser{}, ErrTokenInvalid
	}
	u, ok, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return repository.AdminUser{}, err
	}
	if !ok {
		return repository.AdminUser{}, ErrTokenInvalid
	}
	return u, nil
}
