package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wind-walker-open-source/forge-ledger/common"
	"github.com/wind-walker-open-source/forge-ledger/internal/config"
	"github.com/wind-walker-open-source/forge-ledger/internal/dto"
	"github.com/wind-walker-open-source/forge-ledger/internal/models"
	"gorm.io/datatypes"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// LedgerService owns the job/item state machine. It is stateless and
// reentrant: every cross-worker race is settled by the repository's guard
// predicates, never by in-process locking. Reads before guarded writes are
// advisory only; a guard that does not hold surfaces as a conflict.
type LedgerService struct {
	repo                  LedgerRepoInterface
	notifier              NotifierInterface
	defaultExpirationDays int
	now                   func() time.Time
}

func NewLedgerService(repo LedgerRepoInterface, notifier NotifierInterface, defaultExpirationDays int) *LedgerService {
	return &LedgerService{
		repo:                  repo,
		notifier:              notifier,
		defaultExpirationDays: defaultExpirationDays,
		now:                   time.Now,
	}
}

var _ LedgerServiceInterface = (*LedgerService)(nil)

// CreateJob validates creation input, assigns a fresh time-ordered
// identifier, and persists the job with status RUNNING and zeroed counters.
// The insert is guarded by "id must not exist"; a collision on a v7 UUID is
// treated as a backend fault rather than retried.
func (s *LedgerService) CreateJob(ctx context.Context, req *dto.JobCreateDTO) (*dto.JobResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request canceled or timed out")
	}

	if strings.TrimSpace(req.JobType) == "" {
		return nil, common.Validationf("job_type must not be empty")
	}

	if req.ExpectedCount == nil || *req.ExpectedCount < 0 {
		return nil, common.Validationf("expected_count must be zero or positive")
	}

	now := s.now().UTC()

	job := models.Job{
		ID:            uuid.Must(uuid.NewV7()).String(),
		JobType:       strings.TrimSpace(req.JobType),
		Status:        string(config.JobStatusRunning),
		ExpectedCount: *req.ExpectedCount,
		WebhookURL:    req.WebhookURL,
		CreatedAt:     now,
	}

	if len(req.Metadata) > 0 {
		b, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, common.Validationf("metadata is not serializable")
		}
		job.Metadata = datatypes.JSON(b)
	}

	days := s.defaultExpirationDays
	if req.ExpirationDays != nil {
		days = *req.ExpirationDays
	}
	// 0 disables expiration entirely.
	if days > 0 {
		expires := now.AddDate(0, 0, days)
		job.ExpiresAt = &expires
	}

	if err := s.repo.CreateJob(ctx, &job); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return nil, common.Backendf("job id collision, retry the request")
		}
		return nil, s.backendError(err, "failed to create job")
	}

	return toJobDTO(&job), nil
}

// GetJob retrieves a job by its identifier.
func (s *LedgerService) GetJob(ctx context.Context, jobID string) (*dto.JobResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request canceled or timed out")
	}

	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, common.NotFoundf("job %s not found", jobID)
		}
		return nil, s.backendError(err, "failed to get job")
	}

	return toJobDTO(job), nil
}

// RegisterItems idempotently creates one PENDING item row per distinct,
// non-empty identifier. Ids already registered, in an earlier call or
// earlier in the same list, are reported as alreadyExisted rather than
// failing the batch.
func (s *LedgerService) RegisterItems(ctx context.Context, jobID string, itemIDs []string) (*dto.RegisterItemsResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request canceled or timed out")
	}

	if len(itemIDs) == 0 {
		return &dto.RegisterItemsResponseDTO{}, nil
	}

	if _, err := s.repo.GetJob(ctx, jobID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, common.NotFoundf("job %s not found", jobID)
		}
		return nil, s.backendError(err, "failed to get job")
	}

	resp := dto.RegisterItemsResponseDTO{}
	seen := make(map[string]struct{}, len(itemIDs))

	for _, raw := range itemIDs {
		itemID := strings.TrimSpace(raw)
		if itemID == "" {
			continue
		}
		if _, dup := seen[itemID]; dup {
			continue
		}
		seen[itemID] = struct{}{}

		item := models.Item{
			JobID:  jobID,
			ItemID: itemID,
			Status: string(config.ItemStatusPending),
		}

		switch err := s.repo.CreateItem(ctx, &item); {
		case err == nil:
			resp.Registered++
		case errors.Is(err, ErrAlreadyExists):
			resp.AlreadyExisted++
		default:
			return nil, s.backendError(err, "failed to register items")
		}
	}

	return &resp, nil
}

// ClaimItem takes exclusive ownership of an item for one worker. An item
// claimed before being registered is lazily created as PENDING. Claiming
// anything other than a PENDING item is a conflict, never a silent success;
// when two workers race on the same PENDING item the guarded update lets
// exactly one through.
func (s *LedgerService) ClaimItem(ctx context.Context, jobID, itemID string) (*dto.ClaimResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request canceled or timed out")
	}

	if strings.TrimSpace(itemID) == "" {
		return nil, common.Validationf("item id must not be empty")
	}

	item, err := s.repo.GetItem(ctx, jobID, itemID)
	if errors.Is(err, ErrNotFound) {
		item, err = s.registerLazily(ctx, jobID, itemID)
	}
	if err != nil {
		return nil, err
	}

	if item.Status != string(config.ItemStatusPending) {
		return nil, s.claimConflict(item.Status)
	}

	ok, err := s.repo.ClaimItem(ctx, jobID, itemID, s.now().UTC())
	if err != nil {
		return nil, s.backendError(err, "failed to claim item")
	}
	if !ok {
		// Another worker won between our read and the guarded write.
		return nil, s.conflictWithCurrentState(ctx, jobID, itemID, "item was claimed concurrently")
	}

	claimed, err := s.repo.GetItem(ctx, jobID, itemID)
	if err != nil {
		return nil, s.backendError(err, "failed to read claimed item")
	}

	return &dto.ClaimResponseDTO{Status: claimed.Status, Attempts: claimed.Attempts}, nil
}

// CompleteItem marks a PROCESSING item COMPLETED, bumps the job's completed
// counter atomically, re-evaluates job completion, and returns the
// refreshed job.
func (s *LedgerService) CompleteItem(ctx context.Context, jobID, itemID string) (*dto.JobResponseDTO, error) {
	return s.settleItem(ctx, jobID, itemID, "")
}

// FailItem marks a PROCESSING item FAILED with the given reason, bumps the
// job's failed counter atomically, re-evaluates job completion, and returns
// the refreshed job.
func (s *LedgerService) FailItem(ctx context.Context, jobID, itemID, reason, detail string) (*dto.JobResponseDTO, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, common.Validationf("reason must not be empty")
	}

	lastError := reason
	if detail != "" {
		lastError = reason + ": " + detail
	}
	return s.settleItem(ctx, jobID, itemID, lastError)
}

// settleItem is the shared PROCESSING -> COMPLETED/FAILED transition.
// A non-empty lastError selects the FAILED branch.
func (s *LedgerService) settleItem(ctx context.Context, jobID, itemID, lastError string) (*dto.JobResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request canceled or timed out")
	}

	item, err := s.repo.GetItem(ctx, jobID, itemID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, common.NotFoundf("item %s not found in job %s", itemID, jobID)
		}
		return nil, s.backendError(err, "failed to get item")
	}

	if item.Status != string(config.ItemStatusProcessing) {
		return nil, settleConflict(item.Status)
	}

	var ok bool
	if lastError == "" {
		ok, err = s.repo.CompleteItem(ctx, jobID, itemID)
	} else {
		ok, err = s.repo.FailItem(ctx, jobID, itemID, lastError)
	}
	if err != nil {
		return nil, s.backendError(err, "failed to transition item")
	}
	if !ok {
		// Someone else already moved the item off PROCESSING.
		return nil, s.conflictWithCurrentState(ctx, jobID, itemID, "item was transitioned concurrently")
	}

	if lastError == "" {
		err = s.repo.AddCompletedCount(ctx, jobID, 1)
	} else {
		err = s.repo.AddFailedCount(ctx, jobID, 1)
	}
	if err != nil {
		return nil, s.backendError(err, "failed to update job counters")
	}

	if err := s.evaluateCompletion(ctx, jobID); err != nil {
		return nil, err
	}

	return s.GetJob(ctx, jobID)
}

// RetryItem moves a FAILED item back to PENDING so it can be claimed again,
// gives its failure back to the job's failed counter, and reopens the job
// when it had already been closed out.
func (s *LedgerService) RetryItem(ctx context.Context, jobID, itemID string) (*dto.JobResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request canceled or timed out")
	}

	item, err := s.repo.GetItem(ctx, jobID, itemID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, common.NotFoundf("item %s not found in job %s", itemID, jobID)
		}
		return nil, s.backendError(err, "failed to get item")
	}

	if item.Status != string(config.ItemStatusFailed) {
		return nil, retryConflict(item.Status)
	}

	ok, err := s.repo.ResetItem(ctx, jobID, itemID)
	if err != nil {
		return nil, s.backendError(err, "failed to reset item")
	}
	if !ok {
		return nil, s.conflictWithCurrentState(ctx, jobID, itemID, "item was transitioned concurrently")
	}

	if err := s.repo.AddFailedCount(ctx, jobID, -1); err != nil {
		return nil, s.backendError(err, "failed to update job counters")
	}

	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, common.NotFoundf("job %s not found", jobID)
		}
		return nil, s.backendError(err, "failed to get job")
	}

	if config.JobStatus(job.Status).IsTerminal() {
		// Guarded by "status is terminal"; a concurrent reopen losing the
		// race here is fine, the job is RUNNING either way.
		if _, err := s.repo.ReopenJob(ctx, jobID); err != nil {
			return nil, s.backendError(err, "failed to reopen job")
		}
	}

	return s.GetJob(ctx, jobID)
}

// GetItems lists a job's items with an optional status filter and opaque
// continuation token. Pages taken in sequence over an unchanging collection
// cover the full item set exactly once regardless of page size.
func (s *LedgerService) GetItems(ctx context.Context, jobID, statusFilter string, limit int, nextToken string) (*dto.ListItemsResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request canceled or timed out")
	}

	if statusFilter != "" && !slices.Contains(config.AllowedItemFilters, statusFilter) {
		return nil, common.NewAPIError(
			http.StatusBadRequest,
			"invalid status filter",
			map[string]any{
				"provided": statusFilter,
				"allowed":  config.AllowedItemFilters,
			},
		)
	}

	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	afterItemID, err := DecodeContinuationToken(nextToken, jobID)
	if err != nil {
		return nil, common.Validationf("invalid continuation token: %v", err)
	}

	if _, err := s.repo.GetJob(ctx, jobID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, common.NotFoundf("job %s not found", jobID)
		}
		return nil, s.backendError(err, "failed to get job")
	}

	// Fetch one extra row to learn whether another page exists.
	items, err := s.repo.ListItems(ctx, jobID, statusFilter, limit+1, afterItemID)
	if err != nil {
		return nil, s.backendError(err, "failed to list items")
	}

	total, err := s.repo.CountItems(ctx, jobID, statusFilter)
	if err != nil {
		return nil, s.backendError(err, "failed to count items")
	}

	resp := dto.ListItemsResponseDTO{TotalCount: total}
	if len(items) > limit {
		items = items[:limit]
		resp.NextToken = EncodeContinuationToken(jobID, items[limit-1].ItemID)
	}

	resp.Items = make([]dto.ItemResponseDTO, len(items))
	for i, item := range items {
		resp.Items[i] = dto.ItemResponseDTO{
			JobID:     item.JobID,
			ItemID:    item.ItemID,
			Status:    item.Status,
			Attempts:  item.Attempts,
			LastError: item.LastError,
			ClaimedAt: item.ClaimedAt,
			UpdatedAt: item.UpdatedAt,
		}
	}

	return &resp, nil
}

// evaluateCompletion runs after every item-count mutation. When the counts
// reach the expected total it attempts the RUNNING -> terminal transition;
// under concurrency many callers may try, exactly one wins the guard, and
// only the winner dispatches the completion notification. Losing the guard
// is an expected no-op, not an error.
func (s *LedgerService) evaluateCompletion(ctx context.Context, jobID string) error {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return s.backendError(err, "failed to evaluate job completion")
	}

	if config.JobStatus(job.Status).IsTerminal() {
		return nil
	}

	if job.CompletedCount+job.FailedCount < job.ExpectedCount {
		return nil
	}

	target := config.JobStatusCompleted
	if job.FailedCount > 0 {
		target = config.JobStatusCompletedWithFailures
	}

	completedAt := s.now().UTC()
	won, err := s.repo.FinalizeJob(ctx, jobID, target, completedAt)
	if err != nil {
		return s.backendError(err, "failed to finalize job")
	}
	if !won {
		// A concurrent evaluator performed the terminal transition.
		return nil
	}

	job.Status = string(target)
	job.CompletedAt = &completedAt
	s.dispatchNotification(ctx, job)
	return nil
}

// dispatchNotification delivers the completion webhook for the evaluator
// that won the terminal transition. Delivery is best-effort and at most
// once: failures are recorded on the job and never retried, and never roll
// back the terminal status. A crash between the terminal write and this
// call leaves the job terminal with no webhook sent; that gap is accepted.
func (s *LedgerService) dispatchNotification(ctx context.Context, job *models.Job) {
	if job.WebhookURL == "" {
		return
	}

	webhookStatus := string(config.WebhookStatusSent)
	if err := s.notifier.Deliver(ctx, job); err != nil {
		webhookStatus = "FAILED:" + err.Error()
		log.Printf("[ledger] webhook delivery for job %s failed: %v", job.ID, err)
	}

	if err := s.repo.SetWebhookStatus(ctx, job.ID, webhookStatus); err != nil {
		log.Printf("[ledger] could not record webhook status for job %s: %v", job.ID, err)
	}
}

// registerLazily creates the PENDING row for an item claimed before any
// explicit registration call, then re-reads it. A concurrent registration
// winning the create is fine, the re-read picks up whatever landed.
func (s *LedgerService) registerLazily(ctx context.Context, jobID, itemID string) (*models.Item, error) {
	if _, err := s.repo.GetJob(ctx, jobID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, common.NotFoundf("job %s not found", jobID)
		}
		return nil, s.backendError(err, "failed to get job")
	}

	item := models.Item{
		JobID:  jobID,
		ItemID: itemID,
		Status: string(config.ItemStatusPending),
	}
	if err := s.repo.CreateItem(ctx, &item); err != nil && !errors.Is(err, ErrAlreadyExists) {
		return nil, s.backendError(err, "failed to register item")
	}

	created, err := s.repo.GetItem(ctx, jobID, itemID)
	if err != nil {
		return nil, s.backendError(err, "failed to read item")
	}
	return created, nil
}

// conflictWithCurrentState builds the conflict for a lost optimistic race,
// re-reading the item so the error names whatever state won.
func (s *LedgerService) conflictWithCurrentState(ctx context.Context, jobID, itemID, message string) error {
	currentState := ""
	if item, err := s.repo.GetItem(ctx, jobID, itemID); err == nil {
		currentState = item.Status
	}
	return common.Conflictf(currentState, "%s", message)
}

func (s *LedgerService) claimConflict(status string) error {
	switch config.ItemStatus(status) {
	case config.ItemStatusProcessing:
		return common.Conflictf(status, "item is already claimed")
	case config.ItemStatusCompleted:
		return common.Conflictf(status, "item is already completed")
	case config.ItemStatusFailed:
		return common.Conflictf(status, "item has failed and must be retried before claiming")
	default:
		return common.Conflictf(status, "item is not claimable")
	}
}

func settleConflict(status string) error {
	switch config.ItemStatus(status) {
	case config.ItemStatusPending:
		return common.Conflictf(status, "item has not been claimed yet")
	case config.ItemStatusCompleted:
		return common.Conflictf(status, "item is already completed")
	case config.ItemStatusFailed:
		return common.Conflictf(status, "item has already failed")
	default:
		return common.Conflictf(status, "item is not in a processable state")
	}
}

func retryConflict(status string) error {
	switch config.ItemStatus(status) {
	case config.ItemStatusPending:
		return common.Conflictf(status, "item is pending and has nothing to retry")
	case config.ItemStatusProcessing:
		return common.Conflictf(status, "item is currently being processed")
	case config.ItemStatusCompleted:
		return common.Conflictf(status, "item is already completed")
	default:
		return common.Conflictf(status, "item cannot be retried")
	}
}

// backendError maps store failures onto the API taxonomy, keeping context
// cancellation distinct from genuine backend faults.
func (s *LedgerService) backendError(err error, message string) error {
	switch {
	case errors.Is(err, context.Canceled):
		return common.Errf(http.StatusRequestTimeout, "request was canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return common.Errf(http.StatusRequestTimeout, "request timeout")
	default:
		return common.Backendf("%s", message)
	}
}

func toJobDTO(job *models.Job) *dto.JobResponseDTO {
	resp := dto.JobResponseDTO{
		ID:             job.ID,
		JobType:        job.JobType,
		Status:         job.Status,
		ExpectedCount:  job.ExpectedCount,
		CompletedCount: job.CompletedCount,
		FailedCount:    job.FailedCount,
		WebhookURL:     job.WebhookURL,
		WebhookStatus:  job.WebhookStatus,
		CreatedAt:      job.CreatedAt,
		CompletedAt:    job.CompletedAt,
		ExpiresAt:      job.ExpiresAt,
	}

	if len(job.Metadata) > 0 {
		_ = json.Unmarshal(job.Metadata, &resp.Metadata)
	}

	return &resp
}
