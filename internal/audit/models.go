package audit

import (
	"context"
	"time"
)

// Event is emitted from batch execution to capture key actions. Keep it
// transport-agnostic so memory stores and Kafka sinks can fan out.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	BatchID   string         `json:"batch_id"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
}

// Sink accepts events for delivery. Implementations must be safe for
// concurrent use.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Store is a sink that can also read events back, for tests and the admin
// surface.
type Store interface {
	Sink
	ListByBatch(ctx context.Context, batchID string) ([]Event, error)
}
