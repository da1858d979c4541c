package repository

import (
	"context"
	"strings"
	"sync"
)

// AdminUser es un usuario del dashboard interno.
type AdminUser struct {
	UserID       string
	Email        string
	PasswordHash string
	Role         string
}

// Roles del dashboard.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// AdminUserRepository guarda los usuarios del dashboard.
type AdminUserRepository interface {
	GetByEmail(ctx context.Context, email string) (AdminUser, bool, error)
	GetByID(ctx context.Context, userID string) (AdminUser, bool, error)
	Put(ctx context.Context, u AdminUser) error
}

type memoryAdminUserRepository struct {
	mu    sync.RWMutex
	users map[string]AdminUser
}

// NewMemoryAdminUserRepository crea el repositorio en memoria del stub.
func NewMemoryAdminUserRepository() AdminUserRepository {
	return &memoryAdminUserRepository{users: make(map[string]AdminUser)}
}

func (r *memoryAdminUserRepository) GetByEmail(ctx context.Context, email string) (AdminUser, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[strings.ToLower(strings.TrimSpace(email))]
	return u, ok, nil
}

func (r *memoryAdminUserRepository) GetByID(ctx context.Context, userID string) (AdminUser, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.UserID == userID {
			return u, true, nil
		}
	}
	return AdminUser{}, false, nil
}

func (r *memoryAdminUserRepository) Put(ctx context.Context, u AdminUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[strings.ToLower(strings.TrimSpace(u.Email))] = u
	return nil
}
