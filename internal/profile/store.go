package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"taste-fit/internal/api"
	"taste-fit/internal/domain"
)

// Store es la vista cliente del perfil de preferencias guardado en el backend.
type Store struct {
	client *api.Client
}

func NewStore(client *api.Client) *Store {
	return &Store{client: client}
}

// Fetch trae el perfil de la sesion. Un perfil ausente es un resultado
// normal (nil, nil): el caso comun de una sesion nueva es "todavia no hay
// perfil" y el formulario arranca vacio.
func (s *Store) Fetch(ctx context.Context, sessionID string) (*domain.PreferenceProfile, error) {
	path := "/api/affective/profile?session_id=" + url.QueryEscape(sessionID)
	body, err := s.client.Call(ctx, http.MethodGet, path, nil, nil, api.DefaultAttempts)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Profile *domain.PreferenceProfile `json:"profile"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	return payload.Profile, nil
}

// Upsert sobreescribe el perfil completo de la sesion.
func (s *Store) Upsert(ctx context.Context, p domain.PreferenceProfile) error {
	_, err := s.client.Call(ctx, http.MethodPost, "/api/affective/profile", p, nil, api.DefaultAttempts)
	return err
}
