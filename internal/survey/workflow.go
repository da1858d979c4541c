package survey

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"taste-fit/internal/domain"
	"taste-fit/internal/telemetry"
)

// State es el estado explicito del workflow. Reemplaza la marana de flags
// booleanos sueltos: un estado nombrado no puede ser "submitting" y "error"
// a la vez.
type State int

const (
	StateLoading State = iota
	StateIdle
	StateSubmitting
	StateSubmitted
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateSubmitted:
		return "submitted"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Mensajes de validacion visibles para el usuario.
const (
	MsgMissingRatings       = "Please rate all attributes before submitting."
	MsgMissingOverallLiking = "Please rate your overall liking."
)

// ValidationError es un fallo de validacion local; nunca llega a la red.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ErrSubmissionInFlight se devuelve si Submit se invoca con otro envio en curso.
var ErrSubmissionInFlight = errors.New("submission already in flight")

// ProfileStore es la dependencia de perfiles del workflow.
type ProfileStore interface {
	Fetch(ctx context.Context, sessionID string) (*domain.PreferenceProfile, error)
	Upsert(ctx context.Context, p domain.PreferenceProfile) error
}

// ResponseSender crea el registro de respuesta de cata.
type ResponseSender interface {
	Create(ctx context.Context, r domain.TastingResponse) error
}

// EventEmitter emite telemetria fire-and-forget.
type EventEmitter interface {
	Emit(ctx context.Context, event domain.Event)
}

// Workflow es la maquina de estados del widget de encuesta: seleccion de
// modo, calificaciones por atributo, tags, consentimiento, validacion y
// envio en dos llamadas secuenciales.
type Workflow struct {
	logger    *zap.Logger
	profiles  ProfileStore
	responses ResponseSender
	events    EventEmitter

	sessionID    string
	productID    string
	variantID    string
	tastingNotes []string

	state     State
	errMsg    string
	prefilled bool

	mode             domain.Mode
	ratings          map[domain.Attribute]int
	overallLiking    *int
	standoutTags     []string
	fitTags          []string
	notes            string
	consentAnalytics bool
	consentMarketing bool

	subscribers []func()
}

// NewWorkflow arma el workflow para un producto/variante. Arranca en
// StateLoading hasta que Load intente el prefill.
func NewWorkflow(
	logger *zap.Logger,
	profiles ProfileStore,
	responses ResponseSender,
	events EventEmitter,
	sessionID, productID, variantID string,
	tastingNotes []string,
) *Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workflow{
		logger:       logger,
		profiles:     profiles,
		responses:    responses,
		events:       events,
		sessionID:    sessionID,
		productID:    productID,
		variantID:    variantID,
		tastingNotes: tastingNotes,
		state:        StateLoading,
		mode:         domain.ModePreferenceOnly,
		ratings:      make(map[domain.Attribute]int),
		// Defaults de consentimiento salvo que el prefill los pise.
		consentAnalytics: true,
		consentMarketing: false,
	}
}

// Load intenta el prefill desde el perfil guardado y emite el evento de
// widget visto. Un fallo de prefill se traga: para una sesion nueva el caso
// normal es "todavia no hay perfil" y el formulario queda vacio.
func (w *Workflow) Load(ctx context.Context) {
	if p, err := w.profiles.Fetch(ctx, w.sessionID); err != nil {
		w.logger.Debug("profile prefill skipped", zap.Error(err))
	} else if p != nil {
		w.ratings[domain.AttrAroma] = p.AromaPref
		w.ratings[domain.AttrFlavor] = p.FlavorPref
		w.ratings[domain.AttrAftertaste] = p.AftertastePref
		w.ratings[domain.AttrAcidity] = p.AcidityPref
		w.ratings[domain.AttrSweetness] = p.SweetnessPref
		w.ratings[domain.AttrMouthfeel] = p.MouthfeelPref
		w.consentAnalytics = p.ConsentAnalytics
		w.consentMarketing = p.ConsentMarketing
		w.prefilled = true
	}

	if w.events != nil {
		w.events.Emit(ctx, domain.Event{
			EventName: telemetry.EventFormViewed,
			SessionID: w.sessionID,
			ProductID: w.productID,
		})
	}
	w.state = StateIdle
	w.errMsg = ""
}

// SetMode cambia el modo. Limpia el estado de display (submitted/error) pero
// preserva las calificaciones ya ingresadas.
func (w *Workflow) SetMode(ctx context.Context, mode domain.Mode) {
	if !mode.Valid() || w.state == StateSubmitting {
		return
	}
	w.mode = mode
	w.state = StateIdle
	w.errMsg = ""

	if w.events != nil {
		w.events.Emit(ctx, domain.Event{
			EventName: telemetry.EventFormOpened,
			SessionID: w.sessionID,
			ProductID: w.productID,
			Metadata:  map[string]any{"mode": string(mode)},
		})
	}
}

// SetRating fija la calificacion de un atributo. Valores fuera de 1..9 se
// rechazan: una calificacion esta completa o no existe.
func (w *Workflow) SetRating(attr domain.Attribute, value int) bool {
	if !domain.ValidRating(value) {
		return false
	}
	w.ratings[attr] = value
	return true
}

// Rating devuelve la calificacion del atributo y si esta fijada.
func (w *Workflow) Rating(attr domain.Attribute) (int, bool) {
	v, ok := w.ratings[attr]
	return v, ok
}

// SetOverallLiking fija la septima calificacion requerida en modo tasted.
func (w *Workflow) SetOverallLiking(value int) bool {
	if !domain.ValidRating(value) {
		return false
	}
	v := value
	w.overallLiking = &v
	return true
}

// OverallLiking devuelve el overall liking si esta fijado.
func (w *Workflow) OverallLiking() (int, bool) {
	if w.overallLiking == nil {
		return 0, false
	}
	return *w.overallLiking, true
}

// StandoutTagOptions lista las opciones visibles de "Standout Notes".
func (w *Workflow) StandoutTagOptions() []string {
	return domain.StandoutTagOptions(w.tastingNotes)
}

// CanSelectStandout reporta si el control del tag esta habilitado: deshabilitado
// solo cuando el tope esta alcanzado y el tag no esta ya seleccionado.
func (w *Workflow) CanSelectStandout(tag string) bool {
	return contains(w.standoutTags, tag) || len(w.standoutTags) < domain.MaxStandoutTags
}

// ToggleStandoutTag alterna un tag de "Standout Notes". Deseleccionar siempre
// funciona; seleccionar por encima del tope de 5 es un no-op.
func (w *Workflow) ToggleStandoutTag(tag string) bool {
	w.standoutTags, _ = toggle(w.standoutTags, tag, domain.MaxStandoutTags)
	return contains(w.standoutTags, tag)
}

// CanSelectFit reporta si el control de fit feedback esta habilitado.
func (w *Workflow) CanSelectFit(tag string) bool {
	return contains(w.fitTags, tag) || len(w.fitTags) < domain.MaxFitTags
}

// ToggleFitTag alterna un tag de "Fit Feedback" con tope de 3.
func (w *Workflow) ToggleFitTag(tag string) bool {
	w.fitTags, _ = toggle(w.fitTags, tag, domain.MaxFitTags)
	return contains(w.fitTags, tag)
}

// StandoutTags devuelve la seleccion actual.
func (w *Workflow) StandoutTags() []string { return append([]string(nil), w.standoutTags...) }

// FitTags devuelve la seleccion actual.
func (w *Workflow) FitTags() []string { return append([]string(nil), w.fitTags...) }

// SetNotes acepta la nota libre truncandola a 280 caracteres en el momento
// del input, no al enviar.
func (w *Workflow) SetNotes(text string) {
	runes := []rune(text)
	if len(runes) > domain.NotesMaxLen {
		runes = runes[:domain.NotesMaxLen]
	}
	w.notes = string(runes)
}

// Notes devuelve la nota aceptada.
func (w *Workflow) Notes() string { return w.notes }

// SetConsent fija ambos flags de consentimiento.
func (w *Workflow) SetConsent(analytics, marketing bool) {
	w.consentAnalytics = analytics
	w.consentMarketing = marketing
}

// Consent devuelve el snapshot actual de consentimiento.
func (w *Workflow) Consent() (analytics, marketing bool) {
	return w.consentAnalytics, w.consentMarketing
}

// State devuelve el estado actual.
func (w *Workflow) State() State { return w.state }

// Mode devuelve el modo actual.
func (w *Workflow) Mode() domain.Mode { return w.mode }

// ErrorMessage devuelve el mensaje visible del ultimo error, si lo hay.
func (w *Workflow) ErrorMessage() string { return w.errMsg }

// Prefilled reporta si el formulario se cargo desde un perfil existente.
func (w *Workflow) Prefilled() bool { return w.prefilled }

// OnSubmitSuccess registra un suscriptor que se notifica exactamente una vez
// por cada envio exitoso.
func (w *Workflow) OnSubmitSuccess(fn func()) {
	if fn != nil {
		w.subscribers = append(w.subscribers, fn)
	}
}

// Submit valida y ejecuta las dos llamadas dependientes: primero el upsert
// del perfil, despues la creacion de la respuesta. Un fallo de cualquiera
// deja el workflow en error preservando todo lo ingresado; el perfil ya
// escrito no se revierte (el upsert es idempotente y un reintento lo repite
// sin dano).
func (w *Workflow) Submit(ctx context.Context) error {
	if w.state == StateSubmitting {
		return ErrSubmissionInFlight
	}

	if err := w.validate(); err != nil {
		w.state = StateError
		w.errMsg = err.Error()
		return err
	}

	w.state = StateSubmitting
	w.errMsg = ""

	if err := w.profiles.Upsert(ctx, w.buildProfile()); err != nil {
		w.fail(err)
		return fmt.Errorf("upsert profile: %w", err)
	}

	if err := w.responses.Create(ctx, w.buildResponse()); err != nil {
		w.fail(err)
		return fmt.Errorf("create response: %w", err)
	}

	w.state = StateSubmitted
	for _, fn := range w.subscribers {
		fn()
	}
	return nil
}

// Reset vuelve a idle para permitir otro envio. Los valores ingresados se
// conservan, igual que el "Submit another response" del widget.
func (w *Workflow) Reset() {
	if w.state == StateSubmitting {
		return
	}
	w.state = StateIdle
	w.errMsg = ""
}

func (w *Workflow) validate() error {
	for _, attr := range domain.Attributes {
		if _, ok := w.ratings[attr]; !ok {
			return &ValidationError{Message: MsgMissingRatings}
		}
	}
	if w.mode == domain.ModeTasted && w.overallLiking == nil {
		return &ValidationError{Message: MsgMissingOverallLiking}
	}
	return nil
}

func (w *Workflow) fail(err error) {
	w.state = StateError
	if reqMsg := err.Error(); reqMsg != "" {
		w.errMsg = reqMsg
	} else {
		w.errMsg = "Something went wrong. Please try again."
	}
	w.logger.Warn("submission failed", zap.Error(err))
}

func (w *Workflow) buildProfile() domain.PreferenceProfile {
	return domain.PreferenceProfile{
		SessionID:        w.sessionID,
		AromaPref:        w.ratings[domain.AttrAroma],
		FlavorPref:       w.ratings[domain.AttrFlavor],
		AftertastePref:   w.ratings[domain.AttrAftertaste],
		AcidityPref:      w.ratings[domain.AttrAcidity],
		SweetnessPref:    w.ratings[domain.AttrSweetness],
		MouthfeelPref:    w.ratings[domain.AttrMouthfeel],
		ConsentAnalytics: w.consentAnalytics,
		ConsentMarketing: w.consentMarketing,
	}
}

func (w *Workflow) buildResponse() domain.TastingResponse {
	resp := domain.TastingResponse{
		SessionID:        w.sessionID,
		ProductID:        w.productID,
		VariantID:        w.variantID,
		Mode:             w.mode,
		Aroma:            intPtr(w.ratings[domain.AttrAroma]),
		Flavor:           intPtr(w.ratings[domain.AttrFlavor]),
		Aftertaste:       intPtr(w.ratings[domain.AttrAftertaste]),
		Acidity:          intPtr(w.ratings[domain.AttrAcidity]),
		Sweetness:        intPtr(w.ratings[domain.AttrSweetness]),
		Mouthfeel:        intPtr(w.ratings[domain.AttrMouthfeel]),
		ConsentAnalytics: w.consentAnalytics,
		ConsentMarketing: w.consentMarketing,
	}
	if w.mode == domain.ModeTasted {
		resp.OverallLiking = w.overallLiking
	}
	if w.notes != "" {
		notes := w.notes
		resp.Notes = &notes
	}
	if len(w.standoutTags) > 0 {
		resp.StandoutTags = append([]string(nil), w.standoutTags...)
		source := "canonical"
		resp.StandoutTagsSource = &source
	}
	if len(w.fitTags) > 0 {
		resp.FitTags = append([]string(nil), w.fitTags...)
	}
	return resp
}

func intPtr(v int) *int {
	return &v
}

func contains(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}

// toggle saca el item si esta, lo agrega si falta y hay lugar. Devuelve la
// lista resultante y si hubo cambio.
func toggle(list []string, item string, max int) ([]string, bool) {
	for i, v := range list {
		if v == item {
			return append(list[:i:i], list[i+1:]...), true
		}
	}
	if len(list) >= max {
		return list, false
	}
	return append(list, item), true
}
