package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wind-walker-open-source/forge-ledger/internal/config"
	"github.com/wind-walker-open-source/forge-ledger/internal/dto"
	"github.com/wind-walker-open-source/forge-ledger/internal/models"
)

// Sentinel errors returned by repository implementations. The service maps
// them onto the API error taxonomy; nothing above the repository inspects
// driver errors directly.
var (
	// ErrNotFound means the referenced job or item row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists means a guarded create hit an existing row.
	ErrAlreadyExists = errors.New("record already exists")
)

// LedgerRepoInterface is the conditional-write surface the ledger state
// machine runs on. Guarded transitions return ok=false when the guard
// predicate did not hold; only that outcome is authoritative, any prior
// read is advisory. Counter mutations are atomic increments, never
// read-modify-write.
type LedgerRepoInterface interface {
	// CreateJob inserts a job row guarded by "id must not exist".
	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, jobID string) (*models.Job, error)

	// CreateItem inserts an item row guarded by "(job id, item id) must not
	// exist". Returns ErrAlreadyExists when the pair is already registered.
	CreateItem(ctx context.Context, item *models.Item) error
	GetItem(ctx context.Context, jobID, itemID string) (*models.Item, error)

	// ClaimItem transitions PENDING -> PROCESSING, stamping claimedAt and
	// incrementing attempts, guarded by "status is PENDING".
	ClaimItem(ctx context.Context, jobID, itemID string, now time.Time) (bool, error)
	// CompleteItem transitions PROCESSING -> COMPLETED, clearing lastError,
	// guarded by "status is PROCESSING".
	CompleteItem(ctx context.Context, jobID, itemID string) (bool, error)
	// FailItem transitions PROCESSING -> FAILED, recording lastError,
	// guarded by "status is PROCESSING".
	FailItem(ctx context.Context, jobID, itemID, lastError string) (bool, error)
	// ResetItem transitions FAILED -> PENDING, clearing lastError,
	// guarded by "status is FAILED".
	ResetItem(ctx context.Context, jobID, itemID string) (bool, error)

	AddCompletedCount(ctx context.Context, jobID string, delta int) error
	AddFailedCount(ctx context.Context, jobID string, delta int) error

	// FinalizeJob performs the RUNNING -> terminal transition, guarded by
	// "status is RUNNING". Exactly one concurrent caller observes ok=true.
	FinalizeJob(ctx context.Context, jobID string, status config.JobStatus, completedAt time.Time) (bool, error)
	// ReopenJob reverts a terminal job to RUNNING, guarded by "status is
	// terminal", and clears completedAt.
	ReopenJob(ctx context.Context, jobID string) (bool, error)

	SetWebhookStatus(ctx context.Context, jobID, status string) error

	// ListItems scans a job's items ordered by item id, starting strictly
	// after afterItemID, returning at most limit rows.
	ListItems(ctx context.Context, jobID, statusFilter string, limit int, afterItemID string) ([]models.Item, error)
	CountItems(ctx context.Context, jobID, statusFilter string) (int64, error)
}

// NotifierInterface delivers the one-time completion callback. A nil error
// means the webhook endpoint acknowledged the snapshot; any error carries a
// short failure tag (HTTP status or transport category).
type NotifierInterface interface {
	Deliver(ctx context.Context, job *models.Job) error
}

// LedgerServiceInterface defines the contract for ledger business logic operations.
type LedgerServiceInterface interface {
	CreateJob(ctx context.Context, req *dto.JobCreateDTO) (*dto.JobResponseDTO, error)
	GetJob(ctx context.Context, jobID string) (*dto.JobResponseDTO, error)
	RegisterItems(ctx context.Context, jobID string, itemIDs []string) (*dto.RegisterItemsResponseDTO, error)
	ClaimItem(ctx context.Context, jobID, itemID string) (*dto.ClaimResponseDTO, error)
	CompleteItem(ctx context.Context, jobID, itemID string) (*dto.JobResponseDTO, error)
	FailItem(ctx context.Context, jobID, itemID, reason, detail string) (*dto.JobResponseDTO, error)
	RetryItem(ctx context.Context, jobID, itemID string) (*dto.JobResponseDTO, error)
	GetItems(ctx context.Context, jobID, statusFilter string, limit int, nextToken string) (*dto.ListItemsResponseDTO, error)
}

// LedgerHandlerInterface defines the contract for HTTP request handlers.
type LedgerHandlerInterface interface {
	CreateJob(c *gin.Context)
	GetJob(c *gin.Context)
	RegisterItems(c *gin.Context)
	ClaimItem(c *gin.Context)
	CompleteItem(c *gin.Context)
	FailItem(c *gin.Context)
	RetryItem(c *gin.Context)
	GetItems(c *gin.Context)
}
