package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// ChangeKind names a mutation of the record store.
type ChangeKind string

const (
	EntryCreated    ChangeKind = "entry.created"
	EntryUpdated    ChangeKind = "entry.updated"
	EntryDeleted    ChangeKind = "entry.deleted"
	CategoryCreated ChangeKind = "category.created"
	CategoryDeleted ChangeKind = "category.deleted"
)

// IsValid reports whether k is one of the known kinds.
func (k ChangeKind) IsValid() bool {
	switch k {
	case EntryCreated, EntryUpdated, EntryDeleted, CategoryCreated, CategoryDeleted:
		return true
	default:
		return false
	}
}

// ChangeMessage is a lightweight notification that a record changed.
// Consumers read the record itself back from the store if they need it.
type ChangeMessage struct {
	Kind      ChangeKind `json:"kind"`
	ID        int64      `json:"id"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewChangeMessage stamps a change with the current time
func NewChangeMessage(kind ChangeKind, id int64) *ChangeMessage {
	return &ChangeMessage{
		Kind:      kind,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON creates a message from JSON bytes
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Kind.IsValid() {
		return nil, fmt.Errorf("unknown change kind %q", msg.Kind)
	}
	return &msg, nil
}
