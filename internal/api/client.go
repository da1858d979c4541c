package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"taste-fit/internal/localstore"
)

// TokenKey es la clave del token bearer de admin en el store local.
const TokenKey = "admin_token"

// DefaultAttempts es el numero de intentos para llamadas publicas.
const DefaultAttempts = 3

// Client es el gateway HTTP hacia el backend de taste-fit: serializa JSON,
// inyecta el bearer token en la variante admin y reintenta con backoff
// exponencial en la variante publica.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      localstore.Store
	logger     *zap.Logger

	// sleep es inyectable para que los tests no esperen backoffs reales.
	sleep func(time.Duration)
}

// NewClient construye un gateway apuntando a baseURL. store puede ser nil si
// nunca se usan llamadas admin.
func NewClient(baseURL string, store localstore.Store, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		store:      store,
		logger:     logger,
		sleep:      time.Sleep,
	}
}

// SetHTTPClient reemplaza el http.Client subyacente (tests).
func (c *Client) SetHTTPClient(hc *http.Client) {
	if hc != nil {
		c.httpClient = hc
	}
}

// SetSleep reemplaza la funcion de espera entre reintentos (tests).
func (c *Client) SetSleep(sleep func(time.Duration)) {
	if sleep != nil {
		c.sleep = sleep
	}
}

// Call ejecuta una llamada publica con hasta maxAttempts intentos. Cualquier
// fallo (transporte o status no-2xx) se reintenta tras 2^intento segundos;
// el error del ultimo intento se propaga sin modificar.
func (c *Client) Call(ctx context.Context, method, path string, body any, headers map[string]string, maxAttempts int) ([]byte, error) {
	if maxAttempts < 1 {
		maxAttempts = DefaultAttempts
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		data, err := c.do(ctx, method, path, body, headers)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if attempt == maxAttempts-1 {
			break
		}
		backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
		c.logger.Debug("request failed, retrying",
			zap.String("path", path),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		c.sleep(backoff)
	}
	return nil, lastErr
}

// AdminCall ejecuta una llamada autenticada. Sin token falla de inmediato con
// ErrNotAuthenticated; con token fuerza un unico intento para que una
// operacion admin nunca se reenvie sola.
func (c *Client) AdminCall(ctx context.Context, method, path string, body any) ([]byte, error) {
	if c.store == nil {
		return nil, ErrNotAuthenticated
	}
	token, ok := c.store.Get(TokenKey)
	if !ok || strings.TrimSpace(token) == "" {
		return nil, ErrNotAuthenticated
	}
	headers := map[string]string{"Authorization": "Bearer " + token}
	return c.Call(ctx, method, path, body, headers, 1)
}

func (c *Client) do(ctx context.Context, method, path string, body any, headers map[string]string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RequestError{
			StatusCode: resp.StatusCode,
			Message:    errorDetail(respBody, resp.Status),
		}
	}
	return respBody, nil
}

// errorDetail extrae el campo `detail` del body de error; si el body no es
// JSON o no trae detail, cae al status text del transporte.
func errorDetail(body []byte, statusText string) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return statusText
}
