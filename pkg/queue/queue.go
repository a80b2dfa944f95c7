package queue

import "errors"

// ErrQueueFull is returned by Enqueue when the queue is at capacity.
var ErrQueueFull = errors.New("queue is full")

// Queue represents a basic FIFO queue.
type Queue[T any] interface {
	Enqueue(item T) error
	// TryDequeue removes the item at the front of the queue without blocking.
	TryDequeue() (T, bool)
	Size() int
	ReadAllMessages() []T
	ClearQueue()
}
