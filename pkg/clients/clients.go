package clients

import (
	"fmt"
	"sync"
)

const (
	// ClientIDMaxRetries represents the maximum number of retries when generating a unique ID
	ClientIDMaxRetries = 1024
	// ClientSendBufferSize is the number of frames buffered per client before frames are dropped
	ClientSendBufferSize = 256
)

// Client is a subscriber to the game's event stream.
type Client struct {
	ID   uint32
	send chan []byte
}

// Send queues a frame for the client without blocking.
// It reports false when the client's buffer is full and the frame was dropped.
func (c *Client) Send(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Frames returns the channel the client's writer reads from.
// It is closed when the client is removed.
func (c *Client) Frames() <-chan []byte {
	return c.send
}

// ClientManager manages connected clients
type ClientManager struct {
	clients     map[uint32]*Client
	clientsLock sync.RWMutex
	nextID      uint32
}

// NewClientManager creates a new ClientManager
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients: make(map[uint32]*Client),
		nextID:  1,
	}
}

// GetClients returns a list of all connected clients
func (cm *ClientManager) GetClients() []*Client {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	clients := make([]*Client, 0, len(cm.clients))
	for _, client := range cm.clients {
		clients = append(clients, client)
	}
	return clients
}

// AddClient adds a new client to the manager
func (cm *ClientManager) AddClient() (*Client, error) {
	cm.clientsLock.Lock()
	defer cm.clientsLock.Unlock()
	clientID, err := cm.generateUniqueID(ClientIDMaxRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to generate a unique ID: %v", err)
	}
	client := &Client{
		ID:   clientID,
		send: make(chan []byte, ClientSendBufferSize),
	}
	cm.clients[clientID] = client
	return client, nil
}

// RemoveClient removes a client from the manager and closes its frame channel.
func (cm *ClientManager) RemoveClient(clientID uint32) {
	cm.clientsLock.Lock()
	defer cm.clientsLock.Unlock()

	if client, exists := cm.clients[clientID]; exists {
		delete(cm.clients, clientID)
		close(client.send)
	}
}

// Broadcast sends frame to every client and returns the IDs of clients that dropped it.
func (cm *ClientManager) Broadcast(frame []byte) []uint32 {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	var dropped []uint32
	for id, client := range cm.clients {
		if !client.Send(frame) {
			dropped = append(dropped, id)
		}
	}
	return dropped
}

func (cm *ClientManager) Count() int {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	return len(cm.clients)
}

// generateUniqueID generates a unique client ID with a maximum number of retries
// it reads from the clients, so it needs to be locked before calling
func (cm *ClientManager) generateUniqueID(maxRetries int) (uint32, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		id := cm.nextID
		cm.nextID++
		if id == 0 {
			continue
		}
		if _, ok := cm.clients[id]; !ok {
			return id, nil
		}
	}

	return 0, fmt.Errorf("failed to generate a unique ID after %d attempts", maxRetries)
}
