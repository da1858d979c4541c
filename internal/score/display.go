package score

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"taste-fit/internal/api"
	"taste-fit/internal/domain"
)

// State es el estado del display de fit score.
type State int

const (
	StateLoading State = iota
	StateNoProfile
	StateScored
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateNoProfile:
		return "no-profile"
	case StateScored:
		return "scored"
	}
	return "unknown"
}

// Direction es el indicador direccional de una fila del desglose.
type Direction string

const (
	DirectionHigher  Direction = "product higher than preference"
	DirectionLower   Direction = "product lower than preference"
	DirectionAligned Direction = "aligned"
)

// DirectionFor clasifica el delta de un atributo: mas de un punto por encima
// o por debajo de la preferencia, o alineado.
func DirectionFor(delta int) Direction {
	switch {
	case delta > 1:
		return DirectionHigher
	case delta < -1:
		return DirectionLower
	default:
		return DirectionAligned
	}
}

// Message devuelve la frase cualitativa para un score. Los umbrales son
// politica de presentacion del cliente, no contrato del servidor; en los
// bordes exactos (85, 70, 50) gana el nivel superior.
func Message(score int) string {
	switch {
	case score >= 85:
		return "This coffee is right in your sweet spot"
	case score >= 70:
		return "Strong alignment with your taste preferences"
	case score >= 50:
		return "Some attributes match, others differ from your usual"
	default:
		return "This coffee explores different territory for you"
	}
}

// Workflow es la interfaz minima que el display necesita del widget para
// refrescarse tras un envio exitoso.
type Workflow interface {
	OnSubmitSuccess(fn func())
}

// Display pide y muestra el fit score calculado contra el vector sensorial
// de un producto. Ciclo de vida independiente del workflow de encuesta; el
// score nunca se cachea del lado cliente.
type Display struct {
	client    *api.Client
	logger    *zap.Logger
	sessionID string

	state  State
	result *domain.FitScore
}

func NewDisplay(client *api.Client, logger *zap.Logger, sessionID string) *Display {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Display{
		client:    client,
		logger:    logger,
		sessionID: sessionID,
		state:     StateLoading,
	}
}

// Refresh re-pide el score al backend. Un fallo de red colapsa al estado
// sin-perfil: la causa comun es una sesion que todavia no envio nada, asi
// que no hay error que mostrarle al usuario.
func (d *Display) Refresh(ctx context.Context, productSensory map[domain.Attribute]int) {
	d.state = StateLoading
	d.result = nil

	body := map[string]any{
		"session_id":      d.sessionID,
		"product_sensory": productSensory,
	}
	data, err := d.client.Call(ctx, http.MethodPost, "/api/affective/taste-fit", body, nil, api.DefaultAttempts)
	if err != nil {
		d.logger.Debug("score fetch failed", zap.Error(err))
		d.state = StateNoProfile
		return
	}

	var result domain.FitScore
	if err := json.Unmarshal(data, &result); err != nil {
		d.logger.Debug("score decode failed", zap.Error(err))
		d.state = StateNoProfile
		return
	}
	if !result.ProfileExists {
		d.state = StateNoProfile
		return
	}
	d.result = &result
	d.state = StateScored
}

// Attach suscribe el display a la senal de envio exitoso del workflow. El
// refresco real lo dispara el dueño del loop de eventos via el callback.
func (d *Display) Attach(w Workflow, refresh func()) {
	if w == nil || refresh == nil {
		return
	}
	w.OnSubmitSuccess(refresh)
}

// State devuelve el estado actual del display.
func (d *Display) State() State { return d.state }

// Result devuelve el ultimo score si el estado es StateScored.
func (d *Display) Result() (domain.FitScore, bool) {
	if d.state != StateScored || d.result == nil {
		return domain.FitScore{}, false
	}
	return *d.result, true
}

// Message devuelve la frase cualitativa del ultimo score.
func (d *Display) Message() string {
	if d.result == nil {
		return ""
	}
	return Message(d.result.Score)
}
