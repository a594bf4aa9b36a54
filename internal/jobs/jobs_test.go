package jobs

import (
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestockTask(t *testing.T) {
	task, err := NewRestockTask(12)
	require.NoError(t, err)
	assert.Equal(t, TaskTypeRestock, task.Type())

	payload, err := DecodeRestock(task)
	require.NoError(t, err)
	assert.Equal(t, 12, payload.Level)

	_, err = NewRestockTask(0)
	assert.Error(t, err)
}

func TestDecodeRestock_InvalidPayload(t *testing.T) {
	testCases := []struct {
		name    string
		payload string
	}{
		{name: "not json", payload: "restock please"},
		{name: "zero level", payload: `{"level":0}`},
		{name: "missing level", payload: `{}`},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeRestock(asynq.NewTask(TaskTypeRestock, []byte(tc.payload)))
			require.ErrorIs(t, err, ErrInvalidPayload)
			assert.ErrorIs(t, err, asynq.SkipRetry)
		})
	}
}

func TestValidateSpec(t *testing.T) {
	assert.NoError(t, ValidateSpec("0 */6 * * *"))
	assert.NoError(t, ValidateSpec("@hourly"))
	assert.Error(t, ValidateSpec("every six hours"))
	assert.Error(t, ValidateSpec(""))
}

func TestScheduler_RegisterTasks(t *testing.T) {
	opt := asynq.RedisClientOpt{Addr: "127.0.0.1:0"}

	assert.Error(t, NewScheduler(opt, "whenever", 10, nil).RegisterTasks())
	assert.Error(t, NewScheduler(opt, "@daily", 0, nil).RegisterTasks())
	assert.NoError(t, NewScheduler(opt, "@daily", 10, nil).RegisterTasks())
}
