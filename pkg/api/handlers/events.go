package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/cbodonnell/hexphase/pkg/clients"
	"github.com/cbodonnell/hexphase/pkg/log"
	"nhooyr.io/websocket"
)

// WriteTimeout bounds a single frame write to an events subscriber.
const WriteTimeout = 5 * time.Second

// HandleEvents upgrades the request to a websocket and streams every broadcast
// frame to it as a binary message until either side goes away.
func HandleEvents(clientManager *clients.ClientManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			log.Error("failed to accept websocket: %v", err)
			return
		}
		defer conn.Close(websocket.StatusInternalError, "")

		client, err := clientManager.AddClient()
		if err != nil {
			log.Error("failed to add client: %v", err)
			conn.Close(websocket.StatusTryAgainLater, "too many subscribers")
			return
		}
		defer clientManager.RemoveClient(client.ID)
		log.Debug("Client %d subscribed to events from %s", client.ID, r.RemoteAddr)

		// subscribers never send; CloseRead handles control frames and cancels ctx on close
		ctx := conn.CloseRead(r.Context())
		for {
			select {
			case <-ctx.Done():
				log.Debug("Client %d unsubscribed: %v", client.ID, ctx.Err())
				return
			case frame, ok := <-client.Frames():
				if !ok {
					conn.Close(websocket.StatusGoingAway, "removed")
					return
				}
				if err := writeFrame(ctx, conn, frame); err != nil {
					log.Debug("Failed to write to client %d: %v", client.ID, err)
					return
				}
			}
		}
	}
}

func writeFrame(ctx context.Context, conn *websocket.Conn, frame []byte) error {
	ctx, cancel := context.WithTimeout(ctx, WriteTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageBinary, frame)
}
