package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/wind-walker-open-source/forge-ledger/internal/dto"
)

type LedgerServiceMock struct {
	mock.Mock
}

func (m *LedgerServiceMock) CreateJob(ctx context.Context, req *dto.JobCreateDTO) (*dto.JobResponseDTO, error) {
	args := m.Called(ctx, req)

	job, _ := args.Get(0).(*dto.JobResponseDTO)
	return job, args.Error(1)
}

func (m *LedgerServiceMock) GetJob(ctx context.Context, jobID string) (*dto.JobResponseDTO, error) {
	args := m.Called(ctx, jobID)

	job, _ := args.Get(0).(*dto.JobResponseDTO)
	return job, args.Error(1)
}

func (m *LedgerServiceMock) RegisterItems(ctx context.Context, jobID string, itemIDs []string) (*dto.RegisterItemsResponseDTO, error) {
	args := m.Called(ctx, jobID, itemIDs)

	resp, _ := args.Get(0).(*dto.RegisterItemsResponseDTO)
	return resp, args.Error(1)
}

func (m *LedgerServiceMock) ClaimItem(ctx context.Context, jobID, itemID string) (*dto.ClaimResponseDTO, error) {
	args := m.Called(ctx, jobID, itemID)

	resp, _ := args.Get(0).(*dto.ClaimResponseDTO)
	return resp, args.Error(1)
}

func (m *LedgerServiceMock) CompleteItem(ctx context.Context, jobID, itemID string) (*dto.JobResponseDTO, error) {
	args := m.Called(ctx, jobID, itemID)

	job, _ := args.Get(0).(*dto.JobResponseDTO)
	return job, args.Error(1)
}

func (m *LedgerServiceMock) FailItem(ctx context.Context, jobID, itemID, reason, detail string) (*dto.JobResponseDTO, error) {
	args := m.Called(ctx, jobID, itemID, reason, detail)

	job, _ := args.Get(0).(*dto.JobResponseDTO)
	return job, args.Error(1)
}

func (m *LedgerServiceMock) RetryItem(ctx context.Context, jobID, itemID string) (*dto.JobResponseDTO, error) {
	args := m.Called(ctx, jobID, itemID)

	job, _ := args.Get(0).(*dto.JobResponseDTO)
	return job, args.Error(1)
}

func (m *LedgerServiceMock) GetItems(ctx context.Context, jobID, statusFilter string, limit int, nextToken string) (*dto.ListItemsResponseDTO, error) {
	args := m.Called(ctx, jobID, statusFilter, limit, nextToken)

	resp, _ := args.Get(0).(*dto.ListItemsResponseDTO)
	return resp, args.Error(1)
}
