package telemetry

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"taste-fit/internal/api"
	"taste-fit/internal/domain"
)

// Nombres de eventos emitidos por el widget.
const (
	EventFormViewed    = "affective_form_viewed"
	EventFormOpened    = "affective_form_opened"
	EventFormSubmitted = "affective_form_submitted"
	EventProductViewed = "product_viewed"
)

// Emitter envia eventos de analytics fire-and-forget. Los fallos se tragan:
// la telemetria nunca bloquea ni rompe el flujo principal.
type Emitter struct {
	client *api.Client
	logger *zap.Logger
}

func NewEmitter(client *api.Client, logger *zap.Logger) *Emitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Emitter{client: client, logger: logger}
}

// Emit envia el evento y descarta cualquier error.
func (e *Emitter) Emit(ctx context.Context, event domain.Event) {
	if e == nil || e.client == nil {
		return
	}
	if _, err := e.client.Call(ctx, http.MethodPost, "/api/events", event, nil, api.DefaultAttempts); err != nil {
		e.logger.Debug("telemetry event dropped",
			zap.String("event_name", event.EventName),
			zap.Error(err),
		)
	}
}
