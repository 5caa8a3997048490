package containers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingQueueFIFO(t *testing.T) {
	rq := NewRingQueue[int](4)
	assert.True(t, rq.IsEmpty())

	for i := 1; i <= 4; i++ {
		require.NoError(t, rq.Enqueue(i))
	}
	assert.True(t, rq.IsFull())
	assert.Equal(t, 4, rq.Len())

	for i := 1; i <= 4; i++ {
		value, err := rq.Dequeue()
		require.NoError(t, err)
		assert.Equal(t, i, value)
	}
	assert.True(t, rq.IsEmpty())
}

func TestRingQueueFullAndEmptyErrors(t *testing.T) {
	rq := NewRingQueue[string](1)

	_, err := rq.Dequeue()
	assert.ErrorIs(t, err, ErrQueueEmpty)

	require.NoError(t, rq.Enqueue("a"))
	assert.ErrorIs(t, rq.Enqueue("b"), ErrQueueFull)
}

func TestRingQueuePeek(t *testing.T) {
	rq := NewRingQueue[int](2)

	_, err := rq.Peek()
	assert.ErrorIs(t, err, ErrQueueEmpty)

	require.NoError(t, rq.Enqueue(7))
	value, err := rq.Peek()
	require.NoError(t, err)
	assert.Equal(t, 7, value)
	assert.Equal(t, 1, rq.Len())
}

func TestRingQueueWrapsAround(t *testing.T) {
	rq := NewRingQueue[int](2)

	require.NoError(t, rq.Enqueue(1))
	require.NoError(t, rq.Enqueue(2))
	value, err := rq.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, 1, value)

	require.NoError(t, rq.Enqueue(3))
	value, _ = rq.Dequeue()
	assert.Equal(t, 2, value)
	value, _ = rq.Dequeue()
	assert.Equal(t, 3, value)
}
