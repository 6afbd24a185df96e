package amqp

import (
	"encoding/json"
	"time"
)

// ImportEvent announces a merged import batch. Consumers reload the
// collection from storage; the event carries no expense data.
type ImportEvent struct {
	BatchID   string    `json:"batchId"`
	Files     []string  `json:"files"`
	Parsed    int       `json:"parsed"`
	Added     int       `json:"added"`
	Timestamp time.Time `json:"timestamp"`
}

// NewImportEvent creates an event stamped with the current time.
func NewImportEvent(batchID string, files []string, parsed, added int) *ImportEvent {
	return &ImportEvent{
		BatchID:   batchID,
		Files:     files,
		Parsed:    parsed,
		Added:     added,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (m *ImportEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ImportEventFromJSON decodes an event from JSON bytes
func ImportEventFromJSON(data []byte) (*ImportEvent, error) {
	var msg ImportEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
