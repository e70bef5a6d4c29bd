package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"storefront-service/internal/audit"
	"storefront-service/internal/model"
	"storefront-service/pkg/database"
	"storefront-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultLogPageSize = 50
	maxLogPageSize     = 500
)

// ListLogs returns activity logs with pagination and filters (owner only)
func ListLogs(c echo.Context) error {
	log := logger.FromContext(c)

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = defaultLogPageSize
	}
	if limit > maxLogPageSize {
		limit = maxLogPageSize
	}

	query := logQueryFromParams(c)

	var total int64
	if err := query.Model(&model.ActivityLog{}).Count(&total).Error; err != nil {
		log.Error("Failed to count activity logs", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve logs"})
	}

	var logs []model.ActivityLog
	result := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&logs)
	if result.Error != nil {
		log.Error("Failed to list activity logs", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve logs"})
	}

	log.Info("Activity logs retrieved",
		zap.Int("count", len(logs)),
		zap.Int64("total", total))
	return c.JSON(http.StatusOK, echo.Map{
		"logs":  logs,
		"page":  page,
		"limit": limit,
		"total": total,
	})
}

// LogStats returns totals by category and severity (owner only)
func LogStats(c echo.Context) error {
	log := logger.FromContext(c)

	type bucket struct {
		Key   string `json:"key"`
		Count int64  `json:"count"`
	}

	var byCategory []bucket
	if err := logQueryFromParams(c).Model(&model.ActivityLog{}).
		Select("category AS key, COUNT(*) AS count").
		Group("category").
		Scan(&byCategory).Error; err != nil {
		log.Error("Failed to aggregate log categories", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to compute stats"})
	}

	var bySeverity []bucket
	if err := logQueryFromParams(c).Model(&model.ActivityLog{}).
		Select("severity AS key, COUNT(*) AS count").
		Group("severity").
		Scan(&bySeverity).Error; err != nil {
		log.Error("Failed to aggregate log severities", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to compute stats"})
	}

	var total int64
	if err := logQueryFromParams(c).Model(&model.ActivityLog{}).Count(&total).Error; err != nil {
		log.Error("Failed to count logs for stats", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to compute stats"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total":       total,
		"by_category": byCategory,
		"by_severity": bySeverity,
	})
}

// ExportLogs streams the matching logs as CSV or JSON (owner only)
func ExportLogs(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Format    string `json:"format"`
		StartDate string `json:"start_date,omitempty"`
		EndDate   string `json:"end_date,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Invalid export payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if req.Format != "csv" && req.Format != "json" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "format must be csv or json"})
	}

	query := database.GetDB().Model(&model.ActivityLog{})
	query = applyDateRange(query, req.StartDate, req.EndDate)

	var logs []model.ActivityLog
	if err := query.Order("created_at ASC").Find(&logs).Error; err != nil {
		log.Error("Failed to load logs for export", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to export logs"})
	}

	audit.Record(c, audit.Entry{
		Action:     "logs.export",
		Category:   model.LogCategoryAdmin,
		Severity:   model.LogSeverityWarning,
		TargetType: "activity_log",
		After:      echo.Map{"format": req.Format, "count": len(logs)},
	})

	log.Info("Exporting activity logs",
		zap.String("format", req.Format),
		zap.Int("count", len(logs)))

	if req.Format == "json" {
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="activity_logs.json"`)
		return c.JSON(http.StatusOK, logs)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"id", "action", "category", "severity", "actor_id", "actor_email",
		"ip_hash", "user_agent", "target_type", "target_id", "created_at"})
	for _, row := range logs {
		actorID := ""
		if row.ActorID != nil {
			actorID = strconv.FormatUint(uint64(*row.ActorID), 10)
		}
		_ = w.Write([]string{
			strconv.FormatUint(uint64(row.ID), 10),
			row.Action,
			row.Category,
			row.Severity,
			actorID,
			row.ActorEmail,
			row.IPHash,
			row.UserAgent,
			row.TargetType,
			row.TargetID,
			row.CreatedAt.Format(time.RFC3339),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		log.Error("Failed to encode CSV export", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to export logs"})
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="activity_logs.csv"`)
	return c.Blob(http.StatusOK, "text/csv", buf.Bytes())
}

// DeleteLogs bulk-purges logs in a date range, guarded by a typed
// confirmation phrase of the exact form "delete N logs" (owner only).
func DeleteLogs(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		StartDate   string `json:"start_date"`
		EndDate     string `json:"end_date"`
		ConfirmText string `json:"confirm_text"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Invalid log delete payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if req.StartDate == "" || req.EndDate == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_date and end_date are required"})
	}

	query := applyDateRange(database.GetDB().Model(&model.ActivityLog{}), req.StartDate, req.EndDate)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		log.Error("Failed to count logs for deletion", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete logs"})
	}

	expected := fmt.Sprintf("delete %d logs", count)
	if req.ConfirmText != expected {
		log.Warn("Log deletion confirmation mismatch",
			zap.String("expected", expected),
			zap.String("got", req.ConfirmText))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":         "confirmation text does not match",
			"expected_text": expected,
		})
	}

	result := applyDateRange(database.GetDB(), req.StartDate, req.EndDate).
		Delete(&model.ActivityLog{})
	if result.Error != nil {
		log.Error("Failed to delete logs", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete logs"})
	}

	audit.Record(c, audit.Entry{
		Action:     "logs.purge",
		Category:   model.LogCategoryAdmin,
		Severity:   model.LogSeverityCritical,
		TargetType: "activity_log",
		Before:     echo.Map{"start_date": req.StartDate, "end_date": req.EndDate},
		After:      echo.Map{"deleted": result.RowsAffected},
	})

	log.Info("Activity logs purged",
		zap.Int64("deleted", result.RowsAffected),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "logs deleted",
		"deleted": result.RowsAffected,
	})
}

// logQueryFromParams builds the filtered log query from query parameters
func logQueryFromParams(c echo.Context) *gorm.DB {
	query := database.GetDB().Model(&model.ActivityLog{})

	if category := c.QueryParam("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if severity := c.QueryParam("severity"); severity != "" {
		query = query.Where("severity = ?", severity)
	}
	return applyDateRange(query, c.QueryParam("start_date"), c.QueryParam("end_date"))
}

// applyDateRange narrows a log query to [start, end]. Dates parse as
// RFC3339 or as plain YYYY-MM-DD (end-of-day for the upper bound).
func applyDateRange(query *gorm.DB, start, end string) *gorm.DB {
	if t, ok := parseDate(start, false); ok {
		query = query.Where("created_at >= ?", t)
	}
	if t, ok := parseDate(end, true); ok {
		query = query.Where("created_at <= ?", t)
	}
	return query
}

func parseDate(s string, endOfDay bool) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return t, true
	}
	return time.Time{}, false
}
