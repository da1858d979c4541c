package survey

import (
	"context"
	"net/http"

	"taste-fit/internal/api"
	"taste-fit/internal/domain"
)

// HTTPResponseSender crea respuestas de cata contra el backend.
type HTTPResponseSender struct {
	client *api.Client
}

func NewHTTPResponseSender(client *api.Client) *HTTPResponseSender {
	return &HTTPResponseSender{client: client}
}

func (s *HTTPResponseSender) Create(ctx context.Context, r domain.TastingResponse) error {
	_, err := s.client.Call(ctx, http.MethodPost, "/api/affective/response", r, nil, api.DefaultAttempts)
	return err
}
