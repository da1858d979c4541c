package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taste-fit/internal/repository"
	"taste-fit/internal/service"
)

const authUserKey = "auth_user"

// JWTAuthMiddleware valida el bearer token y guarda el usuario admin en el
// contexto. Viewers pasan; el gate de rol es aparte.
func JWTAuthMiddleware(authSvc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authSvc == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "auth not configured"})
			c.Abort()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Missing auth token"})
			c.Abort()
			return
		}

		token := strings.TrimSpace(header[len("Bearer "):])
		user, err := authSvc.Verify(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token"})
			c.Abort()
			return
		}

		c.Set(authUserKey, user)
		c.Next()
	}
}

// RequireAdminRole rechaza con 403 a cualquier usuario sin rol admin. Los
// viewers solo leen; export y borrado quedan detras de este gate.
func RequireAdminRole() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetAuthUser(c)
		if !ok || user.Role != repository.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"detail": "Admin role required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetAuthUser obtiene el usuario autenticado desde el contexto.
func GetAuthUser(c *gin.Context) (repository.AdminUser, bool) {
	val, ok := c.Get(authUserKey)
	if !ok {
		return repository.AdminUser{}, false
	}
	user, ok := val.(repository.AdminUser)
	return user, ok
}
