package alerts

import (
	"time"

	"gorm.io/datatypes"
)

const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"

	StatusOpen         = "open"
	StatusAcknowledged = "acknowledged"
	StatusResolved     = "resolved"

	CategoryCoverage = "coverage"
	CategoryMismatch = "drug-bug-mismatch"
	CategoryOutbreak = "outbreak-cluster"
)

// Alert is the persisted record the assessment worker creates from an
// INADEQUATE coverage verdict or a non-empty mismatch list. CultureID is
// unique: one culture yields at most one alert per category, which is the
// durable half of the dedupe story (the fast half lives in Redis).
type Alert struct {
	ID          string            `json:"id" gorm:"primaryKey;column:id"`
	PatientID   string            `json:"patient_id" gorm:"column:patient_id;index"`
	PatientName string            `json:"patient_name" gorm:"column:patient_name"`
	Location    string            `json:"location,omitempty" gorm:"column:location"`
	CultureID   string            `json:"culture_id" gorm:"column:culture_id;uniqueIndex:idx_culture_category"`
	Category    string            `json:"category" gorm:"column:category;uniqueIndex:idx_culture_category"`
	Severity    string            `json:"severity" gorm:"column:severity;index"`
	Status      string            `json:"status" gorm:"column:status;index"`
	Summary     string            `json:"summary" gorm:"column:summary"`
	Details     datatypes.JSONMap `json:"details" gorm:"column:details"`
	CreatedAt   time.Time         `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time         `json:"updated_at" gorm:"column:updated_at"`
	AckedBy     string            `json:"acked_by,omitempty" gorm:"column:acked_by"`
	AckedAt     *time.Time        `json:"acked_at,omitempty" gorm:"column:acked_at"`
}

func (Alert) TableName() string {
	return "stewardship_alerts"
}

// AuditEntry records every state change on an alert.
type AuditEntry struct {
	ID        int64             `json:"id" gorm:"primaryKey;autoIncrement;column:id"`
	AlertID   string            `json:"alert_id" gorm:"column:alert_id;index"`
	Actor     string            `json:"actor" gorm:"column:actor"`
	Action    string            `json:"action" gorm:"column:action"`
	Payload   datatypes.JSONMap `json:"payload,omitempty" gorm:"column:payload"`
	CreatedAt time.Time         `json:"created_at" gorm:"column:created_at"`
}

func (AuditEntry) TableName() string {
	return "stewardship_alert_audit"
}

type Summary struct {
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Open     int `json:"open"`
}
