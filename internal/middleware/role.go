package middleware

import (
	"net/http"

	"storefront-service/internal/role"
	"storefront-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequireStoreAdmin allows only store_admin and owner callers
func RequireStoreAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		user, ok := UserFromContext(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}

		if !role.IsStoreAdmin(user.Role) {
			log.Warn("Insufficient role for admin route",
				zap.Uint("user_id", user.ID),
				zap.String("role", user.Role))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "store admin access required"})
		}

		return next(c)
	}
}

// RequireOwner allows only the owner
func RequireOwner(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		user, ok := UserFromContext(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}

		if !role.IsOwner(user.Role) {
			log.Warn("Insufficient role for owner route",
				zap.Uint("user_id", user.ID),
				zap.String("role", user.Role))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "owner access required"})
		}

		return next(c)
	}
}
