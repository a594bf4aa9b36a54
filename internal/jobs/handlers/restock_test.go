package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/vending-machine/internal/fleet"
	"github.com/Proton-105/vending-machine/internal/jobs"
	"github.com/Proton-105/vending-machine/internal/vending"
)

type mockFleet struct {
	mock.Mock
}

func (m *mockFleet) TopUp(ctx context.Context, level int) (int, error) {
	args := m.Called(ctx, level)
	return args.Int(0), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRestockHandler_TopsUpFleet(t *testing.T) {
	ctx := context.Background()
	service := fleet.NewService(fleet.Options{DefaultStock: 1, Log: testLogger()})
	_, err := service.Display(ctx, "chat:1")
	require.NoError(t, err)

	task, err := jobs.NewRestockTask(5)
	require.NoError(t, err)

	require.NoError(t, NewRestockHandler(service, testLogger()).ProcessTask(ctx, task))

	snap, err := service.Snapshot(ctx, "chat:1")
	require.NoError(t, err)
	for _, product := range vending.Products() {
		assert.Equal(t, 5, snap.Inventory[product])
	}
}

func TestRestockHandler_Errors(t *testing.T) {
	ctx := context.Background()

	f := new(mockFleet)
	h := NewRestockHandler(f, testLogger())

	err := h.ProcessTask(ctx, asynq.NewTask(jobs.TaskTypeRestock, []byte("{")))
	require.ErrorIs(t, err, jobs.ErrInvalidPayload)
	f.AssertNotCalled(t, "TopUp", mock.Anything, mock.Anything)

	f.On("TopUp", mock.Anything, 7).Return(0, errors.New("context canceled")).Once()
	task, err := jobs.NewRestockTask(7)
	require.NoError(t, err)

	assert.EqualError(t, h.ProcessTask(ctx, task), "context canceled")
	f.AssertExpectations(t)
}
