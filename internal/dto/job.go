package dto

import "time"

type JobCreateDTO struct {
	JobType        string            `json:"job_type" validate:"required"`
	ExpectedCount  *int              `json:"expected_count" validate:"required,gte=0"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	WebhookURL     string            `json:"webhook_url,omitempty" validate:"omitempty,url"`
	ExpirationDays *int              `json:"expiration_days,omitempty" validate:"omitempty,gte=0,lte=3650"`
}

type JobResponseDTO struct {
	ID             string            `json:"id"`
	JobType        string            `json:"job_type"`
	Status         string            `json:"status"`
	ExpectedCount  int               `json:"expected_count"`
	CompletedCount int               `json:"completed_count"`
	FailedCount    int               `json:"failed_count"`
	WebhookURL     string            `json:"webhook_url,omitempty"`
	WebhookStatus  string            `json:"webhook_status,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
	ExpiresAt      *time.Time        `json:"expires_at,omitempty"`
}
