package service

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taste-fit/internal/domain"
	"taste-fit/internal/repository"
)

// Nombres de eventos que el stub emite por su cuenta.
const (
	eventProfileUpdated = "taste_profile_updated"
	eventConsentUpdated = "consent_updated"
	eventFormSubmitted  = "affective_form_submitted"
	eventDataDeleted    = "data_deleted"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// AffectiveService implementa perfiles, respuestas, eventos y fit score del
// stub de desarrollo, reproduciendo el comportamiento documentado del backend.
type AffectiveService struct {
	logger    *zap.Logger
	profiles  repository.ProfileRepository
	responses repository.ResponseRepository
	events    repository.EventRepository

	profileLimiter  RateLimiter
	responseLimiter RateLimiter
	eventLimiter    RateLimiter
}

func NewAffectiveService(
	logger *zap.Logger,
	profiles repository.ProfileRepository,
	responses repository.ResponseRepository,
	events repository.EventRepository,
) *AffectiveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AffectiveService{
		logger:          logger,
		profiles:        profiles,
		responses:       responses,
		events:          events,
		profileLimiter:  NewRateLimiter(24*time.Hour, 10),
		responseLimiter: NewRateLimiter(24*time.Hour, 10),
		eventLimiter:    NewRateLimiter(24*time.Hour, 50),
	}
}

// GetProfile devuelve el perfil de la sesion o nil si no existe.
func (s *AffectiveService) GetProfile(ctx context.Context, sessionID string) (*domain.PreferenceProfile, error) {
	stored, ok, err := s.profiles.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	p := stored.PreferenceProfile
	return &p, nil
}

// UpsertProfile sobreescribe el perfil completo y emite eventos de cambio:
// taste_profile_updated con los campos que cambiaron, consent_updated si el
// consentimiento cambio.
func (s *AffectiveService) UpsertProfile(ctx context.Context, p domain.PreferenceProfile) (string, error) {
	if !s.profileLimiter.Allow("profile:" + p.SessionID) {
		return "", NewProblem(http.StatusTooManyRequests, "Rate limit exceeded")
	}
	if err := validateProfileRatings(p); err != nil {
		return "", err
	}

	existing, exists, err := s.profiles.GetBySession(ctx, p.SessionID)
	if err != nil {
		return "", err
	}

	profileID := uuid.NewString()
	if exists {
		profileID = existing.ProfileID
	}
	stored := repository.StoredProfile{
		PreferenceProfile: p,
		ProfileID:         profileID,
		UpdatedAt:         time.Now().UTC(),
	}
	if err := s.profiles.Put(ctx, stored); err != nil {
		return "", err
	}

	if exists {
		changed := changedPrefFields(existing.PreferenceProfile, p)
		if len(changed) > 0 {
			s.recordEvent(ctx, eventProfileUpdated, p.SessionID, p.ConsumerID, "", "",
				map[string]any{"fields_changed": changed})
		}
		if existing.ConsentAnalytics != p.ConsentAnalytics || existing.ConsentMarketing != p.ConsentMarketing {
			s.recordEvent(ctx, eventConsentUpdated, p.SessionID, p.ConsumerID, "", "",
				map[string]any{
					"consent_analytics": p.ConsentAnalytics,
					"consent_marketing": p.ConsentMarketing,
				})
		}
	} else {
		s.recordEvent(ctx, eventProfileUpdated, p.SessionID, p.ConsumerID, "", "",
			map[string]any{"fields_changed": []string{"all"}, "is_new": true})
	}

	return profileID, nil
}

// CreateResponse valida y persiste una respuesta de cata. En modo tasted las
// siete calificaciones son obligatorias; las notas se sanitizan y truncan a
// 280; maximo 5 standout tags.
func (s *AffectiveService) CreateResponse(ctx context.Context, r domain.TastingResponse) (string, error) {
	if !s.responseLimiter.Allow("response:" + r.SessionID) {
		return "", NewProblem(http.StatusTooManyRequests, "Rate limit exceeded")
	}
	if !r.Mode.Valid() {
		return "", NewProblem(http.StatusUnprocessableEntity, "mode must be preference_only or tasted")
	}
	if len(r.StandoutTags) > domain.MaxStandoutTags {
		return "", NewProblem(http.StatusUnprocessableEntity, "Max 5 standout tags")
	}
	if err := validateResponseRatings(r); err != nil {
		return "", err
	}
	if r.Notes != nil {
		clean := SanitizeNotes(*r.Notes)
		r.Notes = &clean
	}

	stored := repository.StoredResponse{
		TastingResponse: r,
		ResponseID:      uuid.NewString(),
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.responses.Create(ctx, stored); err != nil {
		return "", err
	}

	var consumerID string
	if r.ConsumerID != nil {
		consumerID = *r.ConsumerID
	}
	s.recordEvent(ctx, eventFormSubmitted, r.SessionID, consumerID, r.ProductID, r.VariantID,
		map[string]any{
			"mode":                string(r.Mode),
			"has_notes":           r.Notes != nil && *r.Notes != "",
			"overall_liking_1to9": r.OverallLiking,
			"response_id":         stored.ResponseID,
		})

	return stored.ResponseID, nil
}

// CreateEvent registra un evento enviado por el cliente.
func (s *AffectiveService) CreateEvent(ctx context.Context, e domain.Event) error {
	if !s.eventLimiter.Allow("event:" + e.SessionID) {
		return NewProblem(http.StatusTooManyRequests, "Rate limit exceeded")
	}
	s.recordEvent(ctx, e.EventName, e.SessionID, "", e.ProductID, e.VariantID, e.Metadata)
	return nil
}

// TasteFit calcula el fit score de la sesion contra un vector sensorial.
func (s *AffectiveService) TasteFit(ctx context.Context, sessionID string, sensory map[domain.Attribute]int) (domain.FitScore, error) {
	stored, ok, err := s.profiles.GetBySession(ctx, sessionID)
	if err != nil {
		return domain.FitScore{}, err
	}
	if !ok {
		return domain.FitScore{ProfileExists: false}, nil
	}
	result := ComputeFitScore(stored.PreferenceProfile, sensory)
	result.ProfileExists = true
	return result, nil
}

// BatchTasteFit calcula el score de varios productos en una pasada.
func (s *AffectiveService) BatchTasteFit(ctx context.Context, sessionID string, products []BatchProduct) (bool, []BatchScore, error) {
	stored, ok, err := s.profiles.GetBySession(ctx, sessionID)
	if err != nil {
		return false, nil, err
	}
	if !ok {
		return false, []BatchScore{}, nil
	}
	scores := make([]BatchScore, 0, len(products))
	for _, product := range products {
		result := ComputeFitScore(stored.PreferenceProfile, product.Sensory)
		scores = append(scores, BatchScore{
			ProductID: product.ProductID,
			Score:     result.Score,
			RawScore:  result.RawScore,
			Label:     result.Label,
			Breakdown: result.Breakdown,
		})
	}
	return true, scores, nil
}

// BatchProduct es una entrada del scoring en lote.
type BatchProduct struct {
	ProductID string                   `json:"product_id"`
	Sensory   map[domain.Attribute]int `json:"sensory"`
}

// BatchScore es el resultado por producto del scoring en lote.
type BatchScore struct {
	ProductID string                                     `json:"product_id"`
	Score     int                                        `json:"score"`
	RawScore  int                                        `json:"raw_score"`
	Label     string                                     `json:"label"`
	Breakdown map[domain.Attribute]domain.AttributeScore `json:"breakdown"`
}

// ComputeFitScore calcula que tan bien un producto ajusta a un perfil:
// match por atributo = 1 - |pref - sensory| / 8, promedio 0-100 con una
// curva leve para evitar que todo caiga en 75-90.
func ComputeFitScore(p domain.PreferenceProfile, sensory map[domain.Attribute]int) domain.FitScore {
	breakdown := make(map[domain.Attribute]domain.AttributeScore)
	total := 0.0
	count := 0
	for _, attr := range domain.Attributes {
		product, ok := sensory[attr]
		if !ok {
			continue
		}
		pref := p.Pref(attr)
		diff := pref - product
		if diff < 0 {
			diff = -diff
		}
		match := 1 - float64(diff)/8
		if match < 0 {
			match = 0
		}
		breakdown[attr] = domain.AttributeScore{
			Match:   int(match*100 + 0.5),
			Delta:   product - pref,
			Pref:    pref,
			Product: product,
		}
		total += match
		count++
	}

	divisor := count
	if divisor == 0 {
		divisor = 1
	}
	overall := int(total/float64(divisor)*100 + 0.5)
	curved := int(float64(overall)*1.1 - 5 + 0.5)
	if curved > 99 {
		curved = 99
	}
	if curved < 0 {
		curved = 0
	}

	return domain.FitScore{
		Score:     curved,
		RawScore:  overall,
		Label:     scoreLabel(curved),
		Breakdown: breakdown,
	}
}

func scoreLabel(score int) string {
	switch {
	case score >= 90:
		return "Perfect Match"
	case score >= 75:
		return "Great Match"
	case score >= 60:
		return "Good Fit"
	case score >= 45:
		return "Decent Fit"
	default:
		return "Different Vibe"
	}
}

// SanitizeNotes replica la sanitizacion del backend: sin tags HTML, escape
// de entidades, maximo 280 caracteres.
func SanitizeNotes(notes string) string {
	clean := htmlTagPattern.ReplaceAllString(notes, "")
	clean = html.EscapeString(strings.TrimSpace(clean))
	runes := []rune(clean)
	if len(runes) > domain.NotesMaxLen {
		runes = runes[:domain.NotesMaxLen]
	}
	return string(runes)
}

func validateProfileRatings(p domain.PreferenceProfile) error {
	for _, attr := range domain.Attributes {
		if !domain.ValidRating(p.Pref(attr)) {
			return NewProblem(http.StatusUnprocessableEntity,
				fmt.Sprintf("%s_pref_1to9 must be between 1 and 9", attr))
		}
	}
	return nil
}

func validateResponseRatings(r domain.TastingResponse) error {
	for field, v := range ratingFields(r) {
		if v != nil && !domain.ValidRating(*v) {
			return NewProblem(http.StatusUnprocessableEntity,
				fmt.Sprintf("Field %s must be between 1 and 9", field))
		}
		if r.Mode == domain.ModeTasted && v == nil {
			return NewProblem(http.StatusUnprocessableEntity,
				fmt.Sprintf("Field %s required in tasted mode", field))
		}
	}
	return nil
}

func changedPrefFields(prev, next domain.PreferenceProfile) []string {
	var changed []string
	for _, attr := range domain.Attributes {
		if prev.Pref(attr) != next.Pref(attr) {
			changed = append(changed, string(attr)+"_pref_1to9")
		}
	}
	return changed
}

func (s *AffectiveService) recordEvent(ctx context.Context, name, sessionID, consumerID, productID, variantID string, metadata map[string]any) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	err := s.events.Create(ctx, repository.StoredEvent{
		EventID:    uuid.NewString(),
		EventName:  name,
		EventTime:  time.Now().UTC(),
		ActorType:  "consumer",
		SessionID:  sessionID,
		ConsumerID: consumerID,
		Source:     "web",
		ProductID:  productID,
		VariantID:  variantID,
		Metadata:   metadata,
	})
	if err != nil {
		s.logger.Warn("record event failed", zap.String("event_name", name), zap.Error(err))
	}
}
