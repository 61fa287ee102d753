package amqp

import (
	"encoding/json"
	"time"
)

// BudgetEvent notifies listeners that the budget state changed.
// It carries only the action name and the affected entry; consumers that
// need the full state read it from the presentation API.
type BudgetEvent struct {
	Action    string    `json:"action"`
	EntryID   string    `json:"entry_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBudgetEvent creates an event stamped with the current time
func NewBudgetEvent(action, entryID string) *BudgetEvent {
	return &BudgetEvent{
		Action:    action,
		EntryID:   entryID,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *BudgetEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// BudgetEventFromJSON creates an event from JSON bytes
func BudgetEventFromJSON(data []byte) (*BudgetEvent, error) {
	var ev BudgetEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
