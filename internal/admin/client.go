package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"taste-fit/internal/api"
	"taste-fit/internal/domain"
	"taste-fit/internal/localstore"
)

// Claves del store local para las credenciales de admin.
const (
	RoleKey  = "admin_role"
	EmailKey = "admin_email"
)

// Client consume la superficie admin del backend: login, metricas del
// dashboard, export CSV y borrado de privacidad. Todas las llamadas
// autenticadas van sin reintento para que un doble submit no pase en
// silencio.
type Client struct {
	gateway *api.Client
	store   localstore.Store
	logger  *zap.Logger
}

func NewClient(gateway *api.Client, store localstore.Store, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{gateway: gateway, store: store, logger: logger}
}

// LoginResult es la respuesta del endpoint de login.
type LoginResult struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	Email string `json:"email"`
}

// Login autentica con un unico intento (credenciales malas fallan rapido) y
// persiste token, rol y email en el store local.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	data, err := c.gateway.Call(ctx, http.MethodPost, "/api/auth/login", body, nil, 1)
	if err != nil {
		return LoginResult{}, err
	}

	var result LoginResult
	if err := json.Unmarshal(data, &result); err != nil {
		return LoginResult{}, fmt.Errorf("unmarshal login response: %w", err)
	}

	if err := c.store.Set(api.TokenKey, result.Token); err != nil {
		return LoginResult{}, fmt.Errorf("persist token: %w", err)
	}
	if err := c.store.Set(RoleKey, result.Role); err != nil {
		return LoginResult{}, fmt.Errorf("persist role: %w", err)
	}
	if err := c.store.Set(EmailKey, result.Email); err != nil {
		return LoginResult{}, fmt.Errorf("persist email: %w", err)
	}
	return result, nil
}

// Logout borra las credenciales persistidas.
func (c *Client) Logout() {
	_ = c.store.Remove(api.TokenKey)
	_ = c.store.Remove(RoleKey)
	_ = c.store.Remove(EmailKey)
}

// Role devuelve el rol persistido, si hay sesion.
func (c *Client) Role() string {
	role, _ := c.store.Get(RoleKey)
	return role
}

// ProductRow es una fila del listado de productos con respuestas.
type ProductRow struct {
	ProductID     string   `json:"product_id"`
	ResponseCount int      `json:"response_count"`
	LastResponse  string   `json:"last_response"`
	Modes         []string `json:"modes"`
}

// ListProducts lista productos con respuestas, con filtro de busqueda opcional.
func (c *Client) ListProducts(ctx context.Context, search string) ([]ProductRow, error) {
	path := "/api/admin/products"
	if search != "" {
		path += "?search=" + url.QueryEscape(search)
	}
	data, err := c.gateway.AdminCall(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Products []ProductRow `json:"products"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal products: %w", err)
	}
	return payload.Products, nil
}

// Summary agrega las respuestas de un producto: promedios, distribuciones,
// conteo de tags y modos.
type Summary struct {
	Count         int                       `json:"count"`
	Averages      map[string]float64        `json:"averages"`
	Distributions map[string]map[string]int `json:"distributions"`
	StandoutTags  map[string]int            `json:"standout_tags"`
	FitTags       map[string]int            `json:"fit_tags"`
	NotesCount    int                       `json:"notes_count"`
	ModeBreakdown map[string]int            `json:"mode_breakdown"`
}

// ProductSummary trae el resumen agregado, filtrable por producto y rango de fechas.
func (c *Client) ProductSummary(ctx context.Context, productID, from, to string) (Summary, error) {
	var result Summary
	path := "/api/admin/products/summary" + dateRangeQuery(productID, from, to)
	data, err := c.gateway.AdminCall(ctx, http.MethodGet, path, nil)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("unmarshal summary: %w", err)
	}
	return result, nil
}

// Funnel trae los conteos de conversion por evento.
func (c *Client) Funnel(ctx context.Context, from, to string) (map[string]int, error) {
	path := "/api/admin/funnel" + dateRangeQuery("", from, to)
	data, err := c.gateway.AdminCall(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Funnel map[string]int `json:"funnel"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal funnel: %w", err)
	}
	return payload.Funnel, nil
}

// SegmentBands cuenta perfiles por banda de preferencia de un atributo.
type SegmentBands struct {
	Low  int `json:"low_1_3"`
	Mid  int `json:"mid_4_6"`
	High int `json:"high_7_9"`
}

// Segments es el corte de perfiles por bandas de preferencia.
type Segments struct {
	TotalProfiles int                     `json:"total_profiles"`
	Segments      map[string]SegmentBands `json:"segments"`
}

// Segments trae la segmentacion de perfiles por atributo.
func (c *Client) Segments(ctx context.Context, from, to string) (Segments, error) {
	var result Segments
	path := "/api/admin/segments" + dateRangeQuery("", from, to)
	data, err := c.gateway.AdminCall(ctx, http.MethodGet, path, nil)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("unmarshal segments: %w", err)
	}
	return result, nil
}

// ExportCSV descarga el export de respuestas como CSV crudo. Requiere rol admin.
func (c *Client) ExportCSV(ctx context.Context, productID, from, to string) ([]byte, error) {
	path := "/api/admin/export.csv" + dateRangeQuery(productID, from, to)
	return c.gateway.AdminCall(ctx, http.MethodGet, path, nil)
}

// DeleteResult reporta cuantos registros borro la operacion de privacidad.
type DeleteResult struct {
	Profiles  int `json:"profiles"`
	Responses int `json:"responses"`
	Events    int `json:"events"`
}

// DeleteData borra todos los datos de una sesion o consumidor. Requiere rol
// admin; exactamente uno de los identificadores debe venir.
func (c *Client) DeleteData(ctx context.Context, sessionID, consumerID string) (DeleteResult, error) {
	var result DeleteResult
	params := url.Values{}
	if sessionID != "" {
		params.Set("session_id", sessionID)
	}
	if consumerID != "" {
		params.Set("consumer_id", consumerID)
	}
	data, err := c.gateway.AdminCall(ctx, http.MethodDelete, "/api/admin/data?"+params.Encode(), nil)
	if err != nil {
		return result, err
	}
	var payload struct {
		Deleted DeleteResult `json:"deleted"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return result, fmt.Errorf("unmarshal delete result: %w", err)
	}
	return payload.Deleted, nil
}

// BatchScores pide el fit score de varios productos en una llamada. Endpoint
// publico, lo usa el listado interno de productos.
func (c *Client) BatchScores(ctx context.Context, sessionID string, products []BatchProduct) (BatchResult, error) {
	var result BatchResult
	body := map[string]any{"session_id": sessionID, "products": products}
	data, err := c.gateway.Call(ctx, http.MethodPost, "/api/affective/taste-fit/batch", body, nil, api.DefaultAttempts)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("unmarshal batch scores: %w", err)
	}
	return result, nil
}

// BatchProduct es una entrada del scoring en lote.
type BatchProduct struct {
	ProductID string                   `json:"product_id"`
	Sensory   map[domain.Attribute]int `json:"sensory"`
}

// BatchScore es el score de un producto dentro del lote.
type BatchScore struct {
	ProductID string `json:"product_id"`
	Score     int    `json:"score"`
	Label     string `json:"label"`
}

// BatchResult es la respuesta del scoring en lote.
type BatchResult struct {
	ProfileExists bool         `json:"profile_exists"`
	Scores        []BatchScore `json:"scores"`
}

func dateRangeQuery(productID, from, to string) string {
	params := url.Values{}
	if productID != "" {
		params.Set("product_id", productID)
	}
	if from != "" {
		params.Set("from", from)
	}
	if to != "" {
		params.Set("to", to)
	}
	if len(params) == 0 {
		return ""
	}
	return "?" + params.Encode()
}
