package session

import (
	"fmt"

	"github.com/google/uuid"

	"taste-fit/internal/localstore"
)

// StoreKey es la clave bajo la que se persiste el session id anonimo.
const StoreKey = "taste_fit_session_id"

// GetOrCreateSessionID devuelve el identificador anonimo del navegador,
// generandolo y persistiendolo la primera vez. Check-then-write: dos tabs
// compitiendo en la primera llamada solo sobreescriben la misma clave con
// valores estadisticamente equivalentes.
func GetOrCreateSessionID(store localstore.Store) (string, error) {
	if id, ok := store.Get(StoreKey); ok && id != "" {
		return id, nil
	}
	id := uuid.NewString()
	if err := store.Set(StoreKey, id); err != nil {
		return "", fmt.Errorf("persist session id: %w", err)
	}
	return id, nil
}
