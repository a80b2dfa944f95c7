package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryQueue_fifo(t *testing.T) {
	q := NewInMemoryQueue[string](4)
	require.NoError(t, q.Enqueue("a"))
	require.NoError(t, q.Enqueue("b"))
	require.NoError(t, q.Enqueue("c"))
	assert.Equal(t, 3, q.Size())

	item, ok := q.TryDequeue()
	assert.True(t, ok)
	assert.Equal(t, "a", item)

	assert.Equal(t, []string{"b", "c"}, q.ReadAllMessages())

	_, ok = q.TryDequeue()
	assert.False(t, ok)
	assert.Nil(t, q.ReadAllMessages())
}

func TestInMemoryQueue_full(t *testing.T) {
	q := NewInMemoryQueue[int](1)
	require.NoError(t, q.Enqueue(1))
	assert.ErrorIs(t, q.Enqueue(2), ErrQueueFull)

	q.ClearQueue()
	assert.Equal(t, 0, q.Size())
	assert.NoError(t, q.Enqueue(3))
}

func TestInMemoryQueue_concurrentEnqueue(t *testing.T) {
	q := NewInMemoryQueue[int](100)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, q.Enqueue(i))
		}(i)
	}
	wg.Wait()

	assert.Len(t, q.ReadAllMessages(), 100)
}
