package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/wind-walker-open-source/forge-ledger/internal/models"
)

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) Deliver(ctx context.Context, job *models.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}
