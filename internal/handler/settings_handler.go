package handler

import (
	"net/http"
	"strconv"

	"storefront-service/internal/audit"
	"storefront-service/internal/model"
	"storefront-service/pkg/database"
	"storefront-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetSettings returns the owner-tunable store settings (owner only)
func GetSettings(c echo.Context) error {
	log := logger.FromContext(c)

	var rows []model.StoreSetting
	if err := database.GetDB().Find(&rows).Error; err != nil {
		log.Error("Failed to load settings", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve settings"})
	}

	settings := echo.Map{
		model.SettingPlatformFeePercent: appConfig.Checkout.PlatformFeePercent,
		model.SettingMaintenanceMode:    false,
	}
	for _, row := range rows {
		settings[row.Key] = row.Value
	}

	return c.JSON(http.StatusOK, settings)
}

// UpdateSettings upserts store settings (owner only)
func UpdateSettings(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		PlatformFeePercent *float64 `json:"platform_fee_percent,omitempty"`
		MaintenanceMode    *bool    `json:"maintenance_mode,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Invalid settings payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if req.PlatformFeePercent != nil && (*req.PlatformFeePercent < 0 || *req.PlatformFeePercent > 1) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "platform_fee_percent must be between 0 and 1"})
	}

	updates := map[string]string{}
	if req.PlatformFeePercent != nil {
		updates[model.SettingPlatformFeePercent] = strconv.FormatFloat(*req.PlatformFeePercent, 'f', -1, 64)
	}
	if req.MaintenanceMode != nil {
		updates[model.SettingMaintenanceMode] = strconv.FormatBool(*req.MaintenanceMode)
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no settings provided"})
	}

	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		for key, value := range updates {
			row := model.StoreSetting{Key: key, Value: value}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("Failed to update settings", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update settings"})
	}

	audit.Record(c, audit.Entry{
		Action:     "settings.update",
		Category:   model.LogCategoryAdmin,
		Severity:   model.LogSeverityWarning,
		TargetType: "settings",
		After:      updates,
	})

	log.Info("Settings updated", zap.Int("keys", len(updates)))
	return c.JSON(http.StatusOK, echo.Map{"message": "settings updated"})
}
