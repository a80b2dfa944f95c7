package workers

import (
	"context"

	"github.com/cbodonnell/hexphase/pkg/clients"
	"github.com/cbodonnell/hexphase/pkg/events"
	"github.com/cbodonnell/hexphase/pkg/log"
	"github.com/cbodonnell/hexphase/pkg/messages"
)

// BroadcastMessage is one triggered game event to fan out to subscribers.
type BroadcastMessage struct {
	Turn    int
	Name    events.Name
	Payload any
}

type EventBroadcastWorker struct {
	clientManager        *clients.ClientManager
	broadcastMessageChan <-chan BroadcastMessage
}

type NewEventBroadcastWorkerOptions struct {
	ClientManager        *clients.ClientManager
	BroadcastMessageChan <-chan BroadcastMessage
}

// NewEventBroadcastWorker creates a new EventBroadcastWorker.
// The worker encodes events observed on the game loop into frames
// and sends them to every connected client.
func NewEventBroadcastWorker(opts NewEventBroadcastWorkerOptions) *EventBroadcastWorker {
	return &EventBroadcastWorker{
		clientManager:        opts.ClientManager,
		broadcastMessageChan: opts.BroadcastMessageChan,
	}
}

func (w *EventBroadcastWorker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-w.broadcastMessageChan:
			w.broadcast(msg)
		}
	}
}

func (w *EventBroadcastWorker) broadcast(b BroadcastMessage) {
	msg, err := messages.NewEventMessage(b.Turn, b.Name, b.Payload)
	if err != nil {
		log.Error("Failed to build message for %s: %v", b.Name, err)
		return
	}

	frame, err := messages.SerializeMessage(msg)
	if err != nil {
		log.Error("Failed to serialize message for %s: %v", b.Name, err)
		return
	}

	for _, clientID := range w.clientManager.Broadcast(frame) {
		log.Warn("Dropped %s for client %d: send buffer full", b.Name, clientID)
	}
}
