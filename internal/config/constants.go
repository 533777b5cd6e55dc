package config

type JobStatus string

type ItemStatus string

type WebhookStatus string

var (
	JobStatusRunning               JobStatus = "RUNNING"
	JobStatusCompleted             JobStatus = "COMPLETED"
	JobStatusCompletedWithFailures JobStatus = "COMPLETED_WITH_FAILURES"

	ItemStatusPending    ItemStatus = "PENDING"
	ItemStatusProcessing ItemStatus = "PROCESSING"
	ItemStatusCompleted  ItemStatus = "COMPLETED"
	ItemStatusFailed     ItemStatus = "FAILED"

	WebhookStatusSent WebhookStatus = "SENT"

	AllowedItemFilters = []string{
		string(ItemStatusPending),
		string(ItemStatusProcessing),
		string(ItemStatusCompleted),
		string(ItemStatusFailed),
	}

	TerminalJobStatuses = []JobStatus{
		JobStatusCompleted,
		JobStatusCompletedWithFailures,
	}
)

// IsTerminal reports whether s is a terminal job status. Terminal is
// reversible: retrying a failed item moves the job back to RUNNING.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusCompletedWithFailures
}
