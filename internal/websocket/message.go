package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type MessageType string

// Server to client
const (
	MessageTypePostCreated MessageType = "POST_CREATED"
	MessageTypePostUpdated MessageType = "POST_UPDATED"
	MessageTypePostDeleted MessageType = "POST_DELETED"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// POST_CREATED and POST_UPDATED carry the full post, author included.

type PostDeletedPayload struct {
	ID uuid.UUID `json:"id"`
}
