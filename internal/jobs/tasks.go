// Package jobs runs operator maintenance, such as topping up machine stock, on an asynq queue.
package jobs

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	TaskTypeRestock = "fleet:restock"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// Queues are the queue priorities used by the worker.
var Queues = map[string]int{
	QueueCritical: 6,
	QueueDefault:  3,
	QueueLow:      1,
}

// ErrInvalidPayload marks a task whose payload can never be processed; asynq does not retry it.
var ErrInvalidPayload = fmt.Errorf("invalid task payload: %w", asynq.SkipRetry)

// RestockPayload asks for every machine to hold at least Level units of each product.
type RestockPayload struct {
	Level int `json:"level"`
}

func NewRestockTask(level int) (*asynq.Task, error) {
	if level <= 0 {
		return nil, errors.New("restock level must be positive")
	}

	payload, err := json.Marshal(RestockPayload{Level: level})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeRestock, payload, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

// DecodeRestock parses a restock task payload.
func DecodeRestock(t *asynq.Task) (RestockPayload, error) {
	var payload RestockPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if payload.Level <= 0 {
		return payload, fmt.Errorf("%w: level %d", ErrInvalidPayload, payload.Level)
	}

	return payload, nil
}
