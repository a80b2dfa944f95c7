package messages

import (
	"testing"

	"github.com/cbodonnell/hexphase/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeDeserializeMessage(t *testing.T) {
	completed, err := NewEventMessage(3, events.NamePlayerInputPhaseComplete, events.PlayerInputPhaseCompletePayload{
		Turn:          3,
		TimedOut:      true,
		AutoCompleted: []string{"p2"},
	})
	require.NoError(t, err)

	tests := []struct {
		name    string
		message *Message
	}{
		{
			name:    "event payload",
			message: completed,
		},
		{
			name: "empty payload",
			message: &Message{
				Turn: 1,
				Type: events.NameGameStarted,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := SerializeMessage(tt.message)
			require.NoError(t, err)

			got, err := DeserializeMessage(b)
			require.NoError(t, err)

			assert.Equal(t, tt.message.Turn, got.Turn)
			assert.Equal(t, tt.message.Type, got.Type)
			if len(tt.message.Payload) == 0 {
				assert.Empty(t, got.Payload)
			} else {
				assert.JSONEq(t, string(tt.message.Payload), string(got.Payload))
			}
		})
	}
}

func TestDeserializeMessage_invalid(t *testing.T) {
	_, err := DeserializeMessage([]byte("not zstd"))
	assert.Error(t, err)

	_, err = DeserializeMessageFlatbuffer([]byte{1})
	assert.Error(t, err)

	_, err = SerializeMessageFlatbuffer(nil)
	assert.Error(t, err)
}

func TestNewEventMessage_unmarshalable(t *testing.T) {
	_, err := NewEventMessage(1, events.NameGameOver, make(chan int))
	assert.Error(t, err)
}
