package repository

import (
	"context"
	"sync"
	"time"
)

// StoredEvent es un evento de analytics persistido por el stub.
type StoredEvent struct {
	EventID    string
	EventName  string
	EventTime  time.Time
	ActorType  string
	SessionID  string
	ConsumerID string
	Source     string
	ProductID  string
	VariantID  string
	Metadata   map[string]any
}

// EventRepository guarda eventos de analytics.
type EventRepository interface {
	Create(ctx context.Context, e StoredEvent) error
	CountByName(ctx context.Context, name string, from, to time.Time) (int, error)
	Delete(ctx context.Context, sessionID, consumerID string) (int, error)
}

type memoryEventRepository struct {
	mu     sync.RWMutex
	events []StoredEvent
}

// NewMemoryEventRepository crea el repositorio en memoria del stub.
func NewMemoryEventRepository() EventRepository {
	return &memoryEventRepository{}
}

func (r *memoryEventRepository) Create(ctx context.Context, e StoredEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *memoryEventRepository) CountByName(ctx context.Context, name string, from, to time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, e := range r.events {
		if e.EventName != name {
			continue
		}
		if !from.IsZero() && e.EventTime.Before(from) {
			continue
		}
		if !to.IsZero() && e.EventTime.After(to) {
			continue
		}
		count++
	}
	return count, nil
}

func (r *memoryEventRepository) Delete(ctx context.Context, sessionID, consumerID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.events[:0]
	deleted := 0
	for _, e := range r.events {
		if matchIdentity(e.SessionID, e.ConsumerID, sessionID, consumerID) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	r.events = kept
	return deleted, nil
}
