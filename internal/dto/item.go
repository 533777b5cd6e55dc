package dto

import "time"

type RegisterItemsDTO struct {
	ItemIDs []string `json:"item_ids" validate:"omitempty,dive,max=255"`
}

type RegisterItemsResponseDTO struct {
	Registered     int `json:"registered"`
	AlreadyExisted int `json:"already_existed"`
}

type ClaimResponseDTO struct {
	Status   string `json:"status"`
	Attempts int    `json:"attempts"`
}

type FailItemDTO struct {
	Reason string `json:"reason" validate:"required"`
	Detail string `json:"detail,omitempty"`
}

type ItemResponseDTO struct {
	JobID     string     `json:"job_id"`
	ItemID    string     `json:"item_id"`
	Status    string     `json:"status"`
	Attempts  int        `json:"attempts"`
	LastError string     `json:"last_error,omitempty"`
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type ListItemsResponseDTO struct {
	Items      []ItemResponseDTO `json:"items"`
	TotalCount int64             `json:"total_count"`
	NextToken  string            `json:"next_token,omitempty"`
}
