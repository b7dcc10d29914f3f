package amqp

import (
	"encoding/json"
	"time"
)

// CompletionSyncMessage tells the journal worker that a completion was
// checked or unchecked. It carries the full record because unchecked rows
// no longer exist in the store by the time the worker runs.
type CompletionSyncMessage struct {
	ActionID  string    `json:"actionId"`
	DateKey   string    `json:"dateKey"`
	Removed   bool      `json:"removed"`
	Timestamp time.Time `json:"timestamp"`
}

func NewCompletionSyncMessage(actionID, dateKey string, removed bool) *CompletionSyncMessage {
	return &CompletionSyncMessage{
		ActionID:  actionID,
		DateKey:   dateKey,
		Removed:   removed,
		Timestamp: time.Now(),
	}
}

func (m *CompletionSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func CompletionSyncMessageFromJSON(data []byte) (*CompletionSyncMessage, error) {
	var msg CompletionSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
