package messages

import (
	"encoding/json"
	"fmt"

	"github.com/cbodonnell/hexphase/pkg/events"
)

// Message is a frame streamed to subscribers: one triggered game event.
type Message struct {
	Turn    uint32          `json:"turn"`
	Type    events.Name     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewEventMessage builds a message from an event name and its payload.
func NewEventMessage(turn int, name events.Name, payload any) (*Message, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %v", name, err)
	}
	return &Message{
		Turn:    uint32(turn),
		Type:    name,
		Payload: b,
	}, nil
}
