package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taste-fit/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	authSvc *service.AuthService,
	handlers *Handlers,
	adminH *AdminHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging y recovery.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery())

	r.GET("/api/health", handlers.Health)

	affective := r.Group("/api/affective")
	affective.GET("/profile", handlers.GetProfile)
	affective.POST("/profile", handlers.UpsertProfile)
	affective.POST("/response", handlers.CreateResponse)
	affective.POST("/taste-fit", handlers.TasteFit)
	affective.POST("/taste-fit/batch", handlers.BatchTasteFit)

	r.POST("/api/events", handlers.CreateEvent)

	r.POST("/api/auth/login", adminH.Login)

	admin := r.Group("/api/admin", JWTAuthMiddleware(authSvc))
	admin.GET("/products", adminH.ListProducts)
	admin.GET("/products/summary", adminH.ProductSummary)
	admin.GET("/segments", adminH.Segments)
	admin.GET("/funnel", adminH.Funnel)

	// Export y borrado requieren rol admin; los viewers solo leen.
	privileged := admin.Group("", RequireAdminRole())
	privileged.GET("/export.csv", adminH.ExportCSV)
	privileged.DELETE("/data", adminH.DeleteData)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
