package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/wind-walker-open-source/forge-ledger/internal/config"
	"github.com/wind-walker-open-source/forge-ledger/internal/models"
)

type LedgerRepoMock struct {
	mock.Mock
}

func (m *LedgerRepoMock) CreateJob(ctx context.Context, job *models.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *LedgerRepoMock) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	args := m.Called(ctx, jobID)

	job, _ := args.Get(0).(*models.Job)
	return job, args.Error(1)
}

func (m *LedgerRepoMock) CreateItem(ctx context.Context, item *models.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *LedgerRepoMock) GetItem(ctx context.Context, jobID, itemID string) (*models.Item, error) {
	args := m.Called(ctx, jobID, itemID)

	item, _ := args.Get(0).(*models.Item)
	return item, args.Error(1)
}

func (m *LedgerRepoMock) ClaimItem(ctx context.Context, jobID, itemID string, now time.Time) (bool, error) {
	args := m.Called(ctx, jobID, itemID, now)
	return args.Bool(0), args.Error(1)
}

func (m *LedgerRepoMock) CompleteItem(ctx context.Context, jobID, itemID string) (bool, error) {
	args := m.Called(ctx, jobID, itemID)
	return args.Bool(0), args.Error(1)
}

func (m *LedgerRepoMock) FailItem(ctx context.Context, jobID, itemID, lastError string) (bool, error) {
	args := m.Called(ctx, jobID, itemID, lastError)
	return args.Bool(0), args.Error(1)
}

func (m *LedgerRepoMock) ResetItem(ctx context.Context, jobID, itemID string) (bool, error) {
	args := m.Called(ctx, jobID, itemID)
	return args.Bool(0), args.Error(1)
}

func (m *LedgerRepoMock) AddCompletedCount(ctx context.Context, jobID string, delta int) error {
	args := m.Called(ctx, jobID, delta)
	return args.Error(0)
}

func (m *LedgerRepoMock) AddFailedCount(ctx context.Context, jobID string, delta int) error {
	args := m.Called(ctx, jobID, delta)
	return args.Error(0)
}

func (m *LedgerRepoMock) FinalizeJob(ctx context.Context, jobID string, status config.JobStatus, completedAt time.Time) (bool, error) {
	args := m.Called(ctx, jobID, status, completedAt)
	return args.Bool(0), args.Error(1)
}

func (m *LedgerRepoMock) ReopenJob(ctx context.Context, jobID string) (bool, error) {
	args := m.Called(ctx, jobID)
	return args.Bool(0), args.Error(1)
}

func (m *LedgerRepoMock) SetWebhookStatus(ctx context.Context, jobID, status string) error {
	args := m.Called(ctx, jobID, status)
	return args.Error(0)
}

func (m *LedgerRepoMock) ListItems(ctx context.Context, jobID, statusFilter string, limit int, afterItemID string) ([]models.Item, error) {
	args := m.Called(ctx, jobID, statusFilter, limit, afterItemID)

	items, _ := args.Get(0).([]models.Item)
	return items, args.Error(1)
}

func (m *LedgerRepoMock) CountItems(ctx context.Context, jobID, statusFilter string) (int64, error) {
	args := m.Called(ctx, jobID, statusFilter)
	return args.Get(0).(int64), args.Error(1)
}
