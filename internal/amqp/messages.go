package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cashflow/internal/core"

	"github.com/google/uuid"
)

var ErrInvalidJob = errors.New("invalid export job")

// ExportJobMessage asks the worker to dump one kind's transactions to CSV.
// Bounds and category are carried raw and parsed by the same rules as the
// HTTP export.
type ExportJobMessage struct {
	ID          uuid.UUID `json:"id"`
	Kind        core.Kind `json:"kind"`
	From        string    `json:"from,omitempty"`
	To          string    `json:"to,omitempty"`
	CategoryID  string    `json:"category_id,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
	// RequestID correlates worker logs with the HTTP request that queued the job.
	RequestID string `json:"request_id,omitempty"`
}

func NewExportJobMessage(kind core.Kind, from, to, categoryID string) *ExportJobMessage {
	return &ExportJobMessage{
		ID:          uuid.New(),
		Kind:        kind,
		From:        from,
		To:          to,
		CategoryID:  categoryID,
		RequestedAt: time.Now().UTC(),
	}
}

func (m *ExportJobMessage) Validate() error {
	if m.ID == uuid.Nil {
		return fmt.Errorf("%w: missing id", ErrInvalidJob)
	}
	if !m.Kind.IsValid() {
		return fmt.Errorf("%w: kind %q", ErrInvalidJob, m.Kind)
	}
	return nil
}

func (m *ExportJobMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExportJobMessageFromJSON decodes and validates a job body.
func ExportJobMessageFromJSON(data []byte) (*ExportJobMessage, error) {
	var msg ExportJobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
