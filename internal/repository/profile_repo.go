package repository

import (
	"context"
	"sync"
	"time"

	"taste-fit/internal/domain"
)

// StoredProfile es el perfil con metadatos de persistencia del stub.
type StoredProfile struct {
	domain.PreferenceProfile
	ProfileID string
	UpdatedAt time.Time
}

// ProfileRepository guarda perfiles de preferencias por sesion.
type ProfileRepository interface {
	GetBySession(ctx context.Context, sessionID string) (StoredProfile, bool, error)
	Put(ctx context.Context, p StoredProfile) error
	List(ctx context.Context, from, to time.Time) ([]StoredProfile, error)
	Delete(ctx context.Context, sessionID, consumerID string) (int, error)
}

type memoryProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string]StoredProfile
}

// NewMemoryProfileRepository crea el repositorio en memoria del stub.
func NewMemoryProfileRepository() ProfileRepository {
	return &memoryProfileRepository{profiles: make(map[string]StoredProfile)}
}

func (r *memoryProfileRepository) GetBySession(ctx context.Context, sessionID string) (StoredProfile, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[sessionID]
	return p, ok, nil
}

func (r *memoryProfileRepository) Put(ctx context.Context, p StoredProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.SessionID] = p
	return nil
}

func (r *memoryProfileRepository) List(ctx context.Context, from, to time.Time) ([]StoredProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []StoredProfile
	for _, p := range r.profiles {
		if !from.IsZero() && p.UpdatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && p.UpdatedAt.After(to) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *memoryProfileRepository) Delete(ctx context.Context, sessionID, consumerID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deleted := 0
	for key, p := range r.profiles {
		if matchIdentity(p.SessionID, p.ConsumerID, sessionID, consumerID) {
			delete(r.profiles, key)
			deleted++
		}
	}
	return deleted, nil
}

func matchIdentity(recordSession, recordConsumer, sessionID, consumerID string) bool {
	if sessionID != "" && recordSession != sessionID {
		return false
	}
	if consumerID != "" && recordConsumer != consumerID {
		return false
	}
	return sessionID != "" || consumerID != ""
}
