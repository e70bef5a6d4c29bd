package model

import "time"

// Activity categories
const (
	LogCategoryAuth    = "auth"
	LogCategoryProduct = "product"
	LogCategoryOrder   = "order"
	LogCategoryPayment = "payment"
	LogCategoryUser    = "user"
	LogCategoryAdmin   = "admin"
)

// Activity severities
const (
	LogSeverityInfo     = "info"
	LogSeverityWarning  = "warning"
	LogSeverityCritical = "critical"
)

// ActivityLog is the append-only audit record of mutating actions.
// Rows are never updated; the only delete path is the owner bulk purge.
type ActivityLog struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	Action     string    `json:"action" gorm:"type:varchar(100);not null;index"`
	Category   string    `json:"category" gorm:"type:varchar(20);not null;index"`
	Severity   string    `json:"severity" gorm:"type:varchar(20);not null;index"`
	ActorID    *uint     `json:"actor_id,omitempty" gorm:"index"`
	ActorEmail string    `json:"actor_email,omitempty" gorm:"type:varchar(100)"`
	IPHash     string    `json:"ip_hash" gorm:"type:varchar(64)"`
	UserAgent  string    `json:"user_agent" gorm:"type:varchar(255)"`
	TargetType string    `json:"target_type,omitempty" gorm:"type:varchar(50);index"`
	TargetID   string    `json:"target_id,omitempty" gorm:"type:varchar(50)"`
	BeforeJSON string    `json:"before_json,omitempty" gorm:"type:text"`
	AfterJSON  string    `json:"after_json,omitempty" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at" gorm:"index"`
}
