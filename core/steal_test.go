package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStealCount(t *testing.T) {
	tests := []struct {
		n, want int
	}{
		{-1, 0},
		{0, 0},
		{1, 1},
		{2, 1},
		{3, 2},
		{10, 5},
		{64, 32},
		{65, 32},
		{1000, MaxStealBatch},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stealCount(tt.n), "stealCount(%d)", tt.n)
	}
}

func TestSteal_String(t *testing.T) {
	assert.Equal(t, "empty", StealEmpty.String())
	assert.Equal(t, "success", StealSuccess.String())
	assert.Equal(t, "retry", StealRetry.String())
	assert.Equal(t, "unknown", Steal(42).String())
}

func TestNewSchedUnit_FreshIDs(t *testing.T) {
	a := NewSchedUnit("task")
	b := NewSchedUnit("task")

	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.EnqueuedAt.IsZero())
	assert.Equal(t, "task", a.Task)
}

// TestLocalQueue_PushPop verifies FIFO order of a worker's local queue
// Given: A local queue with 1, 2 pushed singly and 3, 4 as a batch
// When: Pop is called until empty
// Then: 1, 2, 3, 4 come out in order
func TestLocalQueue_PushPop(t *testing.T) {
	q := NewLocalQueue[int]()
	q.Push(NewSchedUnit(1))
	q.Push(NewSchedUnit(2))
	q.PushBatch([]SchedUnit[int]{NewSchedUnit(3), NewSchedUnit(4)})
	q.PushBatch(nil)

	require.Equal(t, 4, q.Len())
	for want := 1; want <= 4; want++ {
		unit, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, want, unit.Task)
	}
	_, ok := q.Pop()
	assert.False(t, ok)
	assert.True(t, q.IsEmpty())
}

// TestLocalQueue_StealHalf verifies the older half moves to the thief
// Given: A victim queue holding 0..6
// When: A thief steals half
// Then: The thief gets 0, holds 1..3 locally, and the victim keeps 4..6
func TestLocalQueue_StealHalf(t *testing.T) {
	victim := NewLocalQueue[int]()
	for i := range 7 {
		victim.Push(NewSchedUnit(i))
	}
	thief := NewLocalQueue[int]()

	unit, steal := victim.StealHalf(thief)

	require.Equal(t, StealSuccess, steal)
	assert.Equal(t, 0, unit.Task)
	assert.Equal(t, 3, thief.Len())
	assert.Equal(t, 3, victim.Len())

	next, _ := thief.Pop()
	assert.Equal(t, 1, next.Task)
	kept, _ := victim.Pop()
	assert.Equal(t, 4, kept.Task)
}

func TestLocalQueue_StealHalf_Empty(t *testing.T) {
	_, steal := NewLocalQueue[int]().StealHalf(NewLocalQueue[int]())
	assert.Equal(t, StealEmpty, steal)
}

func TestLocalQueue_StealHalf_Self(t *testing.T) {
	q := NewLocalQueue[int]()
	q.Push(NewSchedUnit(1))

	_, steal := q.StealHalf(q)

	assert.Equal(t, StealEmpty, steal)
	assert.Equal(t, 1, q.Len())
}

func TestLocalQueue_StealHalf_Contended(t *testing.T) {
	victim := NewLocalQueue[int]()
	victim.Push(NewSchedUnit(1))

	victim.mu.Lock()
	_, steal := victim.StealHalf(NewLocalQueue[int]())
	victim.mu.Unlock()

	assert.Equal(t, StealRetry, steal)
	assert.Equal(t, 1, victim.Len())
}

func TestLocalQueue_Clear(t *testing.T) {
	q := NewLocalQueue[int]()
	for i := range 5 {
		q.Push(NewSchedUnit(i))
	}

	assert.Equal(t, 5, q.Clear())
	assert.True(t, q.IsEmpty())
	assert.Equal(t, 0, q.Clear())
}
