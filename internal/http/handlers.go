package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taste-fit/internal/domain"
	"taste-fit/internal/service"
)

// Handlers mantiene dependencias para los endpoints publicos del widget.
type Handlers struct {
	logger    *zap.Logger
	affective *service.AffectiveService
}

// NewHandlers crea una instancia de Handlers con las dependencias necesarias.
func NewHandlers(logger *zap.Logger, affective *service.AffectiveService) *Handlers {
	return &Handlers{logger: logger, affective: affective}
}

// Health maneja GET /api/health.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "taste-fit-api"})
}

// GetProfile maneja GET /api/affective/profile.
func (h *Handlers) GetProfile(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "session_id required"})
		return
	}

	profile, err := h.affective.GetProfile(c.Request.Context(), sessionID)
	if err != nil {
		h.writeError(c, err, "get profile failed")
		return
	}
	// Sin perfil devuelve {"profile": null}, no 404.
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// UpsertProfile maneja POST /api/affective/profile.
func (h *Handlers) UpsertProfile(c *gin.Context) {
	var req domain.PreferenceProfile
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid profile request", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid request body"})
		return
	}
	if req.SessionID == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "session_id required"})
		return
	}

	profileID, err := h.affective.UpsertProfile(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err, "upsert profile failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "profile_id": profileID})
}

// CreateResponse maneja POST /api/affective/response.
func (h *Handlers) CreateResponse(c *gin.Context) {
	var req domain.TastingResponse
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid response request", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid request body"})
		return
	}
	if req.SessionID == "" || req.ProductID == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "session_id and product_id required"})
		return
	}

	responseID, err := h.affective.CreateResponse(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err, "create response failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "response_id": responseID})
}

// CreateEvent maneja POST /api/events.
func (h *Handlers) CreateEvent(c *gin.Context) {
	var req domain.Event
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid event request", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid request body"})
		return
	}
	if req.EventName == "" || req.SessionID == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "event_name and session_id required"})
		return
	}

	if err := h.affective.CreateEvent(c.Request.Context(), req); err != nil {
		h.writeError(c, err, "create event failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// TasteFit maneja POST /api/affective/taste-fit.
func (h *Handlers) TasteFit(c *gin.Context) {
	var req struct {
		SessionID string                   `json:"session_id"`
		Sensory   map[domain.Attribute]int `json:"product_sensory"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid taste-fit request", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid request body"})
		return
	}
	if req.SessionID == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "session_id required"})
		return
	}

	result, err := h.affective.TasteFit(c.Request.Context(), req.SessionID, req.Sensory)
	if err != nil {
		h.writeError(c, err, "taste fit failed")
		return
	}
	c.JSON(http.StatusOK, result)
}

// BatchTasteFit maneja POST /api/affective/taste-fit/batch.
func (h *Handlers) BatchTasteFit(c *gin.Context) {
	var req struct {
		SessionID string                 `json:"session_id"`
		Products  []service.BatchProduct `json:"products"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid batch taste-fit request", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid request body"})
		return
	}
	if req.SessionID == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "session_id required"})
		return
	}

	exists, scores, err := h.affective.BatchTasteFit(c.Request.Context(), req.SessionID, req.Products)
	if err != nil {
		h.writeError(c, err, "batch taste fit failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile_exists": exists, "scores": scores})
}

// writeError serializa un error como {"detail": ...} con el status del
// Problem, o 500 generico para errores internos.
func (h *Handlers) writeError(c *gin.Context, err error, msg string) {
	var problem *service.Problem
	if errors.As(err, &problem) {
		c.JSON(problem.Status, gin.H{"detail": problem.Detail})
		return
	}
	h.logger.Error(msg, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
}

// parseDateRange lee los filtros from/to en formato YYYY-MM-DD; to es
// inclusivo hasta fin de dia.
func parseDateRange(c *gin.Context) (time.Time, time.Time, error) {
	var from, to time.Time
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return from, to, service.NewProblem(http.StatusUnprocessableEntity, "from must be YYYY-MM-DD")
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return from, to, service.NewProblem(http.StatusUnprocessableEntity, "to must be YYYY-MM-DD")
		}
		to = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	return from, to, nil
}
