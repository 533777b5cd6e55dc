package models

import "time"

// Item is one unit of work within a job, keyed by (job id, item id).
// Exactly one row exists per pair; claims and transitions mutate it in
// place behind guarded updates.
type Item struct {
	JobID     string     `gorm:"primaryKey;type:varchar(64)" json:"job_id"`
	ItemID    string     `gorm:"primaryKey;type:varchar(255)" json:"item_id"`
	Status    string     `gorm:"type:varchar(50);not null;default:'PENDING'" json:"status"`
	Attempts  int        `gorm:"not null;default:0" json:"attempts"`
	LastError string     `gorm:"type:text" json:"last_error,omitempty"`
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Item) TableName() string { return "ledger_items" }
