package models

import (
	"time"

	"gorm.io/datatypes"
)

// Job is the metadata record for a batch: one row per job, keyed by the
// time-ordered job id. Counters are only ever moved by atomic increment
// expressions, never by read-modify-write.
type Job struct {
	ID             string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	JobType        string         `gorm:"type:varchar(255);not null" json:"job_type"`
	Status         string         `gorm:"type:varchar(50);not null;default:'RUNNING'" json:"status"`
	ExpectedCount  int            `gorm:"not null" json:"expected_count"`
	CompletedCount int            `gorm:"not null;default:0" json:"completed_count"`
	FailedCount    int            `gorm:"not null;default:0" json:"failed_count"`
	WebhookURL     string         `gorm:"type:text" json:"webhook_url,omitempty"`
	WebhookStatus  string         `gorm:"type:varchar(255)" json:"webhook_status,omitempty"`
	Metadata       datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	ExpiresAt      *time.Time     `gorm:"index" json:"expires_at,omitempty"`
}

func (Job) TableName() string { return "ledger_jobs" }
