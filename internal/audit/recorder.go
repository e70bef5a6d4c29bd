package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"storefront-service/internal/model"
	"storefront-service/pkg/database"
	"storefront-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Entry describes one auditable action
type Entry struct {
	Action     string
	Category   string
	Severity   string
	TargetType string
	TargetID   string
	Before     interface{}
	After      interface{}
}

// HashIP returns a truncated SHA-256 digest of the remote IP so the audit
// trail never stores raw addresses.
func HashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])[:16]
}

// Record appends an activity log row for the current request. Logging is
// best-effort: any failure is logged and swallowed so it can never block or
// fail the primary operation.
func Record(c echo.Context, entry Entry) {
	log := logger.FromContext(c)

	if entry.Severity == "" {
		entry.Severity = model.LogSeverityInfo
	}

	row := model.ActivityLog{
		Action:     entry.Action,
		Category:   entry.Category,
		Severity:   entry.Severity,
		IPHash:     HashIP(c.RealIP()),
		UserAgent:  truncate(c.Request().UserAgent(), 255),
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
		BeforeJSON: marshal(entry.Before),
		AfterJSON:  marshal(entry.After),
	}

	if user, ok := c.Get("user").(*model.User); ok && user != nil {
		row.ActorID = &user.ID
		row.ActorEmail = user.Email
	}

	if result := database.GetDB().Create(&row); result.Error != nil {
		log.Warn("Failed to write activity log",
			zap.String("action", entry.Action),
			zap.Error(result.Error))
	}
}

func marshal(v interface{}) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
