package repository

import (
	"context"
	"sync"
	"time"

	"taste-fit/internal/domain"
)

// StoredResponse es una respuesta de cata persistida; append-only e inmutable.
type StoredResponse struct {
	domain.TastingResponse
	ResponseID string
	CreatedAt  time.Time
}

// ResponseFilter acota listados por producto y rango de fechas.
type ResponseFilter struct {
	ProductID string
	From      time.Time
	To        time.Time
}

// ResponseRepository guarda respuestas de cata.
type ResponseRepository interface {
	Create(ctx context.Context, r StoredResponse) error
	List(ctx context.Context, filter ResponseFilter) ([]StoredResponse, error)
	Delete(ctx context.Context, sessionID, consumerID string) (int, error)
}

type memoryResponseRepository struct {
	mu        sync.RWMutex
	responses []StoredResponse
}

// NewMemoryResponseRepository crea el repositorio en memoria del stub.
func NewMemoryResponseRepository() ResponseRepository {
	return &memoryResponseRepository{}
}

func (r *memoryResponseRepository) Create(ctx context.Context, resp StoredResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, resp)
	return nil
}

func (r *memoryResponseRepository) List(ctx context.Context, filter ResponseFilter) ([]StoredResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []StoredResponse
	for _, resp := range r.responses {
		if filter.ProductID != "" && resp.ProductID != filter.ProductID {
			continue
		}
		if !filter.From.IsZero() && resp.CreatedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && resp.CreatedAt.After(filter.To) {
			continue
		}
		out = append(out, resp)
	}
	return out, nil
}

func (r *memoryResponseRepository) Delete(ctx context.Context, sessionID, consumerID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.responses[:0]
	deleted := 0
	for _, resp := range r.responses {
		var consumer string
		if resp.ConsumerID != nil {
			consumer = *resp.ConsumerID
		}
		if matchIdentity(resp.SessionID, consumer, sessionID, consumerID) {
			deleted++
			continue
		}
		kept = append(kept, resp)
	}
	r.responses = kept
	return deleted, nil
}
