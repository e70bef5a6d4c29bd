package handler

import (
	"net/http"

	"storefront-service/internal/audit"
	"storefront-service/internal/middleware"
	"storefront-service/internal/model"
	"storefront-service/internal/role"
	"storefront-service/pkg/database"
	"storefront-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ListUsers returns all accounts (store admin and above)
func ListUsers(c echo.Context) error {
	log := logger.FromContext(c)

	query := database.GetDB().Order("created_at DESC")
	if r := c.QueryParam("role"); r != "" {
		query = query.Where("role = ?", r)
	}

	var users []model.User
	if err := query.Find(&users).Error; err != nil {
		log.Error("Failed to list users", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve users"})
	}

	log.Info("Users retrieved", zap.Int("count", len(users)))
	return c.JSON(http.StatusOK, users)
}

// BanUser bans a target the actor strictly outranks
func BanUser(c echo.Context) error {
	log := logger.FromContext(c)
	actor, _ := middleware.UserFromContext(c)
	id := c.Param("id")

	var req struct {
		Reason string `json:"reason"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Invalid ban payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if req.Reason == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ban reason is required"})
	}

	var target model.User
	result := database.GetDB().First(&target, id)
	if result.Error != nil {
		log.Error("User not found for ban", zap.String("user_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	if !role.CanManage(actor.Role, target.Role) {
		log.Warn("Actor may not ban target",
			zap.String("actor_role", actor.Role),
			zap.String("target_role", target.Role))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions for this target"})
	}

	updates := map[string]interface{}{
		"is_banned":  true,
		"ban_reason": req.Reason,
	}
	if err := database.GetDB().Model(&target).Updates(updates).Error; err != nil {
		log.Error("Failed to ban user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to ban user"})
	}

	audit.Record(c, audit.Entry{
		Action:     "user.ban",
		Category:   model.LogCategoryUser,
		Severity:   model.LogSeverityWarning,
		TargetType: "user",
		TargetID:   id,
		Before:     echo.Map{"is_banned": false},
		After:      echo.Map{"is_banned": true, "reason": req.Reason},
	})

	log.Info("User banned",
		zap.String("user_id", id),
		zap.String("reason", req.Reason))
	return c.JSON(http.StatusOK, echo.Map{"message": "user banned"})
}

// UnbanUser lifts a ban on a target the actor strictly outranks
func UnbanUser(c echo.Context) error {
	log := logger.FromContext(c)
	actor, _ := middleware.UserFromContext(c)
	id := c.Param("id")

	var target model.User
	result := database.GetDB().First(&target, id)
	if result.Error != nil {
		log.Error("User not found for unban", zap.String("user_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	if !role.CanManage(actor.Role, target.Role) {
		log.Warn("Actor may not unban target",
			zap.String("actor_role", actor.Role),
			zap.String("target_role", target.Role))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions for this target"})
	}

	updates := map[string]interface{}{
		"is_banned":  false,
		"ban_reason": "",
	}
	if err := database.GetDB().Model(&target).Updates(updates).Error; err != nil {
		log.Error("Failed to unban user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to unban user"})
	}

	audit.Record(c, audit.Entry{
		Action:     "user.unban",
		Category:   model.LogCategoryUser,
		TargetType: "user",
		TargetID:   id,
		Before:     echo.Map{"is_banned": true},
		After:      echo.Map{"is_banned": false},
	})

	log.Info("User unbanned", zap.String("user_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "user unbanned"})
}

// PromoteUser raises a plain user to store admin (owner only)
func PromoteUser(c echo.Context) error {
	return changeRole(c, model.RoleUser, model.RoleStoreAdmin, "user.promote")
}

// DemoteUser lowers a store admin back to plain user (owner only)
func DemoteUser(c echo.Context) error {
	return changeRole(c, model.RoleStoreAdmin, model.RoleUser, "user.demote")
}

func changeRole(c echo.Context, fromRole, toRole, action string) error {
	log := logger.FromContext(c)
	actor, _ := middleware.UserFromContext(c)
	id := c.Param("id")

	var target model.User
	result := database.GetDB().First(&target, id)
	if result.Error != nil {
		log.Error("User not found for role change", zap.String("user_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	if !role.CanManage(actor.Role, target.Role) {
		log.Warn("Actor may not change target role",
			zap.String("actor_role", actor.Role),
			zap.String("target_role", target.Role))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions for this target"})
	}

	if target.Role != fromRole {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "user role is " + target.Role + ", expected " + fromRole,
		})
	}

	if err := database.GetDB().Model(&target).Update("role", toRole).Error; err != nil {
		log.Error("Failed to change role", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to change role"})
	}

	audit.Record(c, audit.Entry{
		Action:     action,
		Category:   model.LogCategoryUser,
		Severity:   model.LogSeverityWarning,
		TargetType: "user",
		TargetID:   id,
		Before:     echo.Map{"role": fromRole},
		After:      echo.Map{"role": toRole},
	})

	log.Info("User role changed",
		zap.String("user_id", id),
		zap.String("from", fromRole),
		zap.String("to", toRole))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "role updated",
		"role":    toRole,
	})
}
