package middleware

import (
	"net/http"
	"strings"

	"storefront-service/internal/model"
	"storefront-service/pkg/database"
	"storefront-service/pkg/jwtutil"
	"storefront-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthMiddleware validates the JWT token and loads the caller's account.
// The role used for authorization is always re-read from the users table,
// never taken from the token claims.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Warn("Missing Authorization header")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("Invalid Authorization header format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		// Validate the token
		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Error("Invalid JWT token", zap.Error(err))
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		// Re-derive the account and role from the database
		var user model.User
		result := database.GetDB().First(&user, claims.UserID)
		if result.Error != nil {
			log.Error("Token subject no longer exists",
				zap.Uint("user_id", claims.UserID),
				zap.Error(result.Error))
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account not found"})
		}

		if user.IsBanned {
			log.Warn("Banned user rejected",
				zap.Uint("user_id", user.ID),
				zap.String("reason", user.BanReason))
			return c.JSON(http.StatusForbidden, echo.Map{
				"error":  "account is banned",
				"reason": user.BanReason,
			})
		}

		c.Set("user", &user)
		log.Debug("Request authenticated",
			zap.Uint("user_id", user.ID),
			zap.String("email", user.Email),
			zap.String("role", user.Role))

		return next(c)
	}
}

// OptionalAuthMiddleware loads the caller's account when a valid bearer
// token is present but lets anonymous requests through. Used on public
// catalog routes where admins get extended visibility.
func OptionalAuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return next(c)
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return next(c)
		}

		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			return next(c)
		}

		var user model.User
		if result := database.GetDB().First(&user, claims.UserID); result.Error == nil && !user.IsBanned {
			c.Set("user", &user)
		}

		return next(c)
	}
}

// UserFromContext retrieves the authenticated user from the context
func UserFromContext(c echo.Context) (*model.User, bool) {
	user, ok := c.Get("user").(*model.User)
	return user, ok && user != nil
}
