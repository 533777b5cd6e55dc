package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wind-walker-open-source/forge-ledger/internal/config"
	"github.com/wind-walker-open-source/forge-ledger/internal/ledger"
	"github.com/wind-walker-open-source/forge-ledger/internal/models"
	"gorm.io/gorm"
)

// LedgerRepository implements the ledger's conditional-write surface on a
// relational store. Every guard predicate becomes a WHERE clause on the
// UPDATE itself, checked through RowsAffected, so the compare-and-swap is
// performed by the database at single-row granularity. Counters move only
// through SQL increment expressions.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

var _ ledger.LedgerRepoInterface = (*LedgerRepository)(nil)

// CreateJob inserts the job's metadata row. The primary key enforces the
// "id must not exist" guard; a duplicate surfaces as ErrAlreadyExists.
func (r *LedgerRepository) CreateJob(ctx context.Context, job *models.Job) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("create job %s: %w", job.ID, ledger.ErrAlreadyExists)
		}
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

// Get retrieves a single job record by its ID.
func (r *LedgerRepository) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	var job models.Job
	if err := r.db.WithContext(ctx).First(&job, "id = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("get job %s: %w", jobID, ledger.ErrNotFound)
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

// CreateItem inserts an item row guarded by the composite (job_id, item_id)
// primary key.
func (r *LedgerRepository) CreateItem(ctx context.Context, item *models.Item) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("create item %s/%s: %w", item.JobID, item.ItemID, ledger.ErrAlreadyExists)
		}
		return fmt.Errorf("create item: %w", err)
	}
	return nil
}

func (r *LedgerRepository) GetItem(ctx context.Context, jobID, itemID string) (*models.Item, error) {
	var item models.Item
	err := r.db.WithContext(ctx).
		First(&item, "job_id = ? AND item_id = ?", jobID, itemID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("get item %s/%s: %w", jobID, itemID, ledger.ErrNotFound)
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &item, nil
}

// ClaimItem performs the PENDING -> PROCESSING compare-and-swap. The
// attempts counter is incremented in the same statement via gorm.Expr so
// concurrent claimers can never read-modify-write it.
func (r *LedgerRepository) ClaimItem(ctx context.Context, jobID, itemID string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Item{}).
		Where("job_id = ? AND item_id = ? AND status = ?", jobID, itemID, string(config.ItemStatusPending)).
		Updates(map[string]any{
			"status":     string(config.ItemStatusProcessing),
			"attempts":   gorm.Expr("attempts + ?", 1),
			"claimed_at": now,
			"updated_at": now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("claim item: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// CompleteItem performs the PROCESSING -> COMPLETED compare-and-swap,
// clearing any previous failure.
func (r *LedgerRepository) CompleteItem(ctx context.Context, jobID, itemID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Item{}).
		Where("job_id = ? AND item_id = ? AND status = ?", jobID, itemID, string(config.ItemStatusProcessing)).
		Updates(map[string]any{
			"status":     string(config.ItemStatusCompleted),
			"last_error": "",
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("complete item: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// FailItem performs the PROCESSING -> FAILED compare-and-swap, recording
// the failure reason.
func (r *LedgerRepository) FailItem(ctx context.Context, jobID, itemID, lastError string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Item{}).
		Where("job_id = ? AND item_id = ? AND status = ?", jobID, itemID, string(config.ItemStatusProcessing)).
		Updates(map[string]any{
			"status":     string(config.ItemStatusFailed),
			"last_error": lastError,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("fail item: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ResetItem performs the FAILED -> PENDING compare-and-swap for a retry.
// Attempts are deliberately preserved; they never decrease.
func (r *LedgerRepository) ResetItem(ctx context.Context, jobID, itemID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Item{}).
		Where("job_id = ? AND item_id = ? AND status = ?", jobID, itemID, string(config.ItemStatusFailed)).
		Updates(map[string]any{
			"status":     string(config.ItemStatusPending),
			"last_error": "",
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("reset item: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// AddCompletedCount moves the completed counter by delta atomically at the
// database level, composing safely with concurrent writers.
func (r *LedgerRepository) AddCompletedCount(ctx context.Context, jobID string, delta int) error {
	return r.addCounter(ctx, jobID, "completed_count", delta)
}

// AddFailedCount moves the failed counter by delta atomically at the
// database level.
func (r *LedgerRepository) AddFailedCount(ctx context.Context, jobID string, delta int) error {
	return r.addCounter(ctx, jobID, "failed_count", delta)
}

func (r *LedgerRepository) addCounter(ctx context.Context, jobID, column string, delta int) error {
	res := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ?", jobID).
		Update(column, gorm.Expr(column+" + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("update %s: %w", column, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update %s for job %s: %w", column, jobID, ledger.ErrNotFound)
	}
	return nil
}

// FinalizeJob performs the RUNNING -> terminal compare-and-swap. With many
// concurrent evaluators, the WHERE clause lets exactly one through; the
// rest see RowsAffected == 0.
func (r *LedgerRepository) FinalizeJob(ctx context.Context, jobID string, status config.JobStatus, completedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND status = ?", jobID, string(config.JobStatusRunning)).
		Updates(map[string]any{
			"status":       string(status),
			"completed_at": completedAt,
		})
	if res.Error != nil {
		return false, fmt.Errorf("finalize job: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ReopenJob reverts a terminal job to RUNNING, guarded by "status is
// terminal", so a retried failure can reopen a closed job.
func (r *LedgerRepository) ReopenJob(ctx context.Context, jobID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND status IN ?", jobID, []string{
			string(config.JobStatusCompleted),
			string(config.JobStatusCompletedWithFailures),
		}).
		Updates(map[string]any{
			"status":       string(config.JobStatusRunning),
			"completed_at": nil,
		})
	if res.Error != nil {
		return false, fmt.Errorf("reopen job: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *LedgerRepository) SetWebhookStatus(ctx context.Context, jobID, status string) error {
	res := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ?", jobID).
		Update("webhook_status", status)
	if res.Error != nil {
		return fmt.Errorf("set webhook status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("set webhook status for job %s: %w", jobID, ledger.ErrNotFound)
	}
	return nil
}

// ListItems is the keyset range scan behind pagination: ordered by item id,
// starting strictly after afterItemID. Successive pages over an unchanging
// collection cover every item exactly once.
func (r *LedgerRepository) ListItems(ctx context.Context, jobID, statusFilter string, limit int, afterItemID string) ([]models.Item, error) {
	q := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("item_id ASC").
		Limit(limit)

	if statusFilter != "" {
		q = q.Where("status = ?", statusFilter)
	}
	if afterItemID != "" {
		q = q.Where("item_id > ?", afterItemID)
	}

	var items []models.Item
	if err := q.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

func (r *LedgerRepository) CountItems(ctx context.Context, jobID, statusFilter string) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Item{}).
		Where("job_id = ?", jobID)
	if statusFilter != "" {
		q = q.Where("status = ?", statusFilter)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return count, nil
}

// ListExpiredJobs returns jobs whose expiration timestamp has passed,
// oldest first. Used by the sweeper, not the core.
func (r *LedgerRepository) ListExpiredJobs(ctx context.Context, before time.Time, limit int) ([]models.Job, error) {
	var jobs []models.Job
	err := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", before).
		Order("expires_at ASC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("list expired jobs: %w", err)
	}
	return jobs, nil
}

// PurgeJob deletes a job and its items in one transaction. Used by the
// sweeper, not the core.
func (r *LedgerRepository) PurgeJob(ctx context.Context, jobID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", jobID).Delete(&models.Item{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", jobID).Delete(&models.Job{}).Error
	})
	if err != nil {
		return fmt.Errorf("purge job: %w", err)
	}
	return nil
}

// isDuplicateKey recognizes unique-constraint violations across the
// drivers in play (pgx under the postgres driver, sqlite in tests).
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
