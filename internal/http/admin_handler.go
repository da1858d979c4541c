package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taste-fit/internal/service"
)

// AdminHandler expone login y el dashboard de analytics.
type AdminHandler struct {
	logger    *zap.Logger
	auth      *service.AuthService
	analytics *service.AnalyticsService
	handlers  *Handlers
}

func NewAdminHandler(
	logger *zap.Logger,
	auth *service.AuthService,
	analytics *service.AnalyticsService,
	handlers *Handlers,
) *AdminHandler {
	return &AdminHandler{logger: logger, auth: auth, analytics: analytics, handlers: handlers}
}

// Login maneja POST /api/auth/login.
func (h *AdminHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "email and password required"})
		return
	}

	token, user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.handlers.writeError(c, err, "login failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "role": user.Role, "email": user.Email})
}

// ListProducts maneja GET /api/admin/products.
func (h *AdminHandler) ListProducts(c *gin.Context) {
	products, err := h.analytics.ListProducts(c.Request.Context(), c.Query("search"))
	if err != nil {
		h.handlers.writeError(c, err, "list products failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// ProductSummary maneja GET /api/admin/products/summary.
func (h *AdminHandler) ProductSummary(c *gin.Context) {
	from, to, err := parseDateRange(c)
	if err != nil {
		h.handlers.writeError(c, err, "summary failed")
		return
	}
	summary, err := h.analytics.Summary(c.Request.Context(), c.Query("product_id"), from, to)
	if err != nil {
		h.handlers.writeError(c, err, "summary failed")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Segments maneja GET /api/admin/segments.
func (h *AdminHandler) Segments(c *gin.Context) {
	from, to, err := parseDateRange(c)
	if err != nil {
		h.handlers.writeError(c, err, "segments failed")
		return
	}
	segments, err := h.analytics.Segments(c.Request.Context(), from, to)
	if err != nil {
		h.handlers.writeError(c, err, "segments failed")
		return
	}
	c.JSON(http.StatusOK, segments)
}

// Funnel maneja GET /api/admin/funnel.
func (h *AdminHandler) Funnel(c *gin.Context) {
	from, to, err := parseDateRange(c)
	if err != nil {
		h.handlers.writeError(c, err, "funnel failed")
		return
	}
	funnel, err := h.analytics.Funnel(c.Request.Context(), from, to)
	if err != nil {
		h.handlers.writeError(c, err, "funnel failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"funnel": funnel})
}

// ExportCSV maneja GET /api/admin/export.csv. Solo rol admin.
func (h *AdminHandler) ExportCSV(c *gin.Context) {
	from, to, err := parseDateRange(c)
	if err != nil {
		h.handlers.writeError(c, err, "export failed")
		return
	}
	data, err := h.analytics.ExportCSV(c.Request.Context(), c.Query("product_id"), from, to)
	if err != nil {
		h.handlers.writeError(c, err, "export failed")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="affective_responses.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}

// DeleteData maneja DELETE /api/admin/data. Solo rol admin.
func (h *AdminHandler) DeleteData(c *gin.Context) {
	var deletedBy string
	if user, ok := GetAuthUser(c); ok {
		deletedBy = user.Email
	}
	counts, err := h.analytics.DeleteData(c.Request.Context(), c.Query("session_id"), c.Query("consumer_id"), deletedBy)
	if err != nil {
		h.handlers.writeError(c, err, "delete data failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "deleted": counts})
}
