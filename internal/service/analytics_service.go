package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taste-fit/internal/domain"
	"taste-fit/internal/repository"
)

// funnelEvents son los eventos del embudo de conversion, en orden.
var funnelEvents = []string{
	"product_viewed",
	"affective_form_viewed",
	"affective_form_opened",
	"affective_form_submitted",
}

// csvFieldnames son las columnas del export, en el orden documentado.
var csvFieldnames = []string{
	"response_id", "session_id", "consumer_id", "product_id", "variant_id",
	"mode", "aroma_1to9", "flavor_1to9", "aftertaste_1to9", "acidity_1to9",
	"sweetness_1to9", "mouthfeel_1to9", "overall_liking_1to9", "notes",
	"standout_tags", "fit_tags", "consent_analytics", "consent_marketing",
	"created_at",
}

// AnalyticsService agrega respuestas y perfiles para el dashboard admin.
type AnalyticsService struct {
	logger    *zap.Logger
	profiles  repository.ProfileRepository
	responses repository.ResponseRepository
	events    repository.EventRepository
}

func NewAnalyticsService(
	logger *zap.Logger,
	profiles repository.ProfileRepository,
	responses repository.ResponseRepository,
	events repository.EventRepository,
) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{logger: logger, profiles: profiles, responses: responses, events: events}
}

// ProductRow es una fila del listado de productos con respuestas.
type ProductRow struct {
	ProductID     string   `json:"product_id"`
	ResponseCount int      `json:"response_count"`
	LastResponse  string   `json:"last_response"`
	Modes         []string `json:"modes"`
}

// ListProducts agrupa respuestas por producto; search filtra por substring
// del product_id, sin distinguir mayusculas.
func (s *AnalyticsService) ListProducts(ctx context.Context, search string) ([]ProductRow, error) {
	responses, err := s.responses.List(ctx, repository.ResponseFilter{})
	if err != nil {
		return nil, err
	}

	type acc struct {
		count int
		last  time.Time
		modes map[string]bool
	}
	byProduct := make(map[string]*acc)
	for _, r := range responses {
		if search != "" && !strings.Contains(strings.ToLower(r.ProductID), strings.ToLower(search)) {
			continue
		}
		a := byProduct[r.ProductID]
		if a == nil {
			a = &acc{modes: make(map[string]bool)}
			byProduct[r.ProductID] = a
		}
		a.count++
		if r.CreatedAt.After(a.last) {
			a.last = r.CreatedAt
		}
		a.modes[string(r.Mode)] = true
	}

	rows := make([]ProductRow, 0, len(byProduct))
	for productID, a := range byProduct {
		modes := make([]string, 0, len(a.modes))
		for m := range a.modes {
			modes = append(modes, m)
		}
		sort.Strings(modes)
		rows = append(rows, ProductRow{
			ProductID:     productID,
			ResponseCount: a.count,
			LastResponse:  a.last.Format(time.RFC3339),
			Modes:         modes,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].LastResponse > rows[j].LastResponse })
	return rows, nil
}

// ProductSummary agrega las respuestas: promedios a 2 decimales,
// distribuciones "1".."9", conteo de tags, notas y modos.
type ProductSummary struct {
	Count         int                       `json:"count"`
	Averages      map[string]float64        `json:"averages"`
	Distributions map[string]map[string]int `json:"distributions"`
	StandoutTags  map[string]int            `json:"standout_tags"`
	FitTags       map[string]int            `json:"fit_tags"`
	NotesCount    int                       `json:"notes_count"`
	ModeBreakdown map[string]int            `json:"mode_breakdown"`
}

// Summary agrega las respuestas filtradas por producto y rango de fechas.
func (s *AnalyticsService) Summary(ctx context.Context, productID string, from, to time.Time) (ProductSummary, error) {
	responses, err := s.responses.List(ctx, repository.ResponseFilter{ProductID: productID, From: from, To: to})
	if err != nil {
		return ProductSummary{}, err
	}

	summary := ProductSummary{
		Count:         len(responses),
		Averages:      make(map[string]float64),
		Distributions: make(map[string]map[string]int),
		StandoutTags:  make(map[string]int),
		FitTags:       make(map[string]int),
		ModeBreakdown: make(map[string]int),
	}

	sums := make(map[string]int)
	counts := make(map[string]int)
	for _, r := range responses {
		for field, v := range ratingFields(r.TastingResponse) {
			if v == nil {
				continue
			}
			sums[field] += *v
			counts[field]++
			dist := summary.Distributions[field]
			if dist == nil {
				// La distribucion lleva las nueve claves aunque esten en cero.
				dist = make(map[string]int, 9)
				for i := domain.RatingMin; i <= domain.RatingMax; i++ {
					dist[strconv.Itoa(i)] = 0
				}
				summary.Distributions[field] = dist
			}
			dist[strconv.Itoa(*v)]++
		}
		for _, tag := range r.StandoutTags {
			summary.StandoutTags[tag]++
		}
		for _, tag := range r.FitTags {
			summary.FitTags[tag]++
		}
		if r.Notes != nil && *r.Notes != "" {
			summary.NotesCount++
		}
		summary.ModeBreakdown[string(r.Mode)]++
	}
	for field, sum := range sums {
		avg := float64(sum) / float64(counts[field])
		summary.Averages[field] = math.Round(avg*100) / 100
	}
	return summary, nil
}

// SegmentBands cuenta perfiles por banda de preferencia de un atributo.
type SegmentBands struct {
	Low  int `json:"low_1_3"`
	Mid  int `json:"mid_4_6"`
	High int `json:"high_7_9"`
}

// ProfileSegments es el corte de perfiles por bandas de preferencia.
type ProfileSegments struct {
	TotalProfiles int                     `json:"total_profiles"`
	Segments      map[string]SegmentBands `json:"segments"`
}

// Segments corta los perfiles en bandas 1-3 / 4-6 / 7-9 por atributo.
func (s *AnalyticsService) Segments(ctx context.Context, from, to time.Time) (ProfileSegments, error) {
	profiles, err := s.profiles.List(ctx, from, to)
	if err != nil {
		return ProfileSegments{}, err
	}

	result := ProfileSegments{
		TotalProfiles: len(profiles),
		Segments:      make(map[string]SegmentBands),
	}
	for _, attr := range domain.Attributes {
		var bands SegmentBands
		for _, p := range profiles {
			switch v := p.Pref(attr); {
			case v <= 3:
				bands.Low++
			case v <= 6:
				bands.Mid++
			default:
				bands.High++
			}
		}
		result.Segments[string(attr)] = bands
	}
	return result, nil
}

// Funnel cuenta los eventos del embudo de conversion en el rango dado.
func (s *AnalyticsService) Funnel(ctx context.Context, from, to time.Time) (map[string]int, error) {
	funnel := make(map[string]int, len(funnelEvents))
	for _, name := range funnelEvents {
		count, err := s.events.CountByName(ctx, name, from, to)
		if err != nil {
			return nil, err
		}
		funnel[name] = count
	}
	return funnel, nil
}

// ExportCSV serializa las respuestas filtradas como CSV; los tags van
// unidos por pipe dentro de una sola celda.
func (s *AnalyticsService) ExportCSV(ctx context.Context, productID string, from, to time.Time) ([]byte, error) {
	responses, err := s.responses.List(ctx, repository.ResponseFilter{ProductID: productID, From: from, To: to})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvFieldnames); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range responses {
		row := []string{
			r.ResponseID,
			r.SessionID,
			optString(r.ConsumerID),
			r.ProductID,
			r.VariantID,
			string(r.Mode),
			optRating(r.Aroma),
			optRating(r.Flavor),
			optRating(r.Aftertaste),
			optRating(r.Acidity),
			optRating(r.Sweetness),
			optRating(r.Mouthfeel),
			optRating(r.OverallLiking),
			optString(r.Notes),
			strings.Join(r.StandoutTags, "|"),
			strings.Join(r.FitTags, "|"),
			strconv.FormatBool(r.ConsentAnalytics),
			strconv.FormatBool(r.ConsentMarketing),
			r.CreatedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// DeleteCounts reporta cuantos registros borro la operacion de privacidad.
type DeleteCounts struct {
	Profiles  int `json:"profiles"`
	Responses int `json:"responses"`
	Events    int `json:"events"`
}

// DeleteData borra todos los datos de una sesion o consumidor y deja un
// evento de auditoria data_deleted con los conteos.
func (s *AnalyticsService) DeleteData(ctx context.Context, sessionID, consumerID, deletedBy string) (DeleteCounts, error) {
	if sessionID == "" && consumerID == "" {
		return DeleteCounts{}, NewProblem(http.StatusBadRequest, "session_id or consumer_id required")
	}

	var counts DeleteCounts
	var err error
	if counts.Profiles, err = s.profiles.Delete(ctx, sessionID, consumerID); err != nil {
		return counts, err
	}
	if counts.Responses, err = s.responses.Delete(ctx, sessionID, consumerID); err != nil {
		return counts, err
	}
	if counts.Events, err = s.events.Delete(ctx, sessionID, consumerID); err != nil {
		return counts, err
	}

	auditErr := s.events.Create(ctx, repository.StoredEvent{
		EventID:    uuid.NewString(),
		EventName:  eventDataDeleted,
		EventTime:  time.Now().UTC(),
		ActorType:  "internal_ops",
		SessionID:  sessionID,
		ConsumerID: consumerID,
		Source:     "web",
		Metadata: map[string]any{
			"deleted_by":        deletedBy,
			"profiles_deleted":  counts.Profiles,
			"responses_deleted": counts.Responses,
			"events_deleted":    counts.Events,
		},
	})
	if auditErr != nil {
		s.logger.Warn("record data_deleted audit event failed", zap.Error(auditErr))
	}
	return counts, nil
}

func ratingFields(r domain.TastingResponse) map[string]*int {
	return map[string]*int{
		"aroma_1to9":          r.Aroma,
		"flavor_1to9":         r.Flavor,
		"aftertaste_1to9":     r.Aftertaste,
		"acidity_1to9":        r.Acidity,
		"sweetness_1to9":      r.Sweetness,
		"mouthfeel_1to9":      r.Mouthfeel,
		"overall_liking_1to9": r.OverallLiking,
	}
}

func optRating(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func optString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
