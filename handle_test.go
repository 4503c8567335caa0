package sftpsession

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleTableAllocLookupFree(t *testing.T) {
	tbl := newHandleTable()

	h, sl, err := tbl.alloc()
	require.NoError(t, err)
	require.NotNil(t, sl)

	got, err := tbl.lookup(h)
	require.NoError(t, err)
	assert.Same(t, sl, got)

	require.NoError(t, tbl.free(h))

	_, err = tbl.lookup(h)
	assert.ErrorIs(t, err, ErrBadHandle)
}

func TestHandleTableRejectsStaleGeneration(t *testing.T) {
	tbl := newHandleTable()
	tbl.slots = make([]slot, 1) // force immediate reuse of index 0

	h1, _, err := tbl.alloc()
	require.NoError(t, err)
	require.NoError(t, tbl.free(h1))

	h2, _, err := tbl.alloc()
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)

	_, err = tbl.lookup(h1)
	assert.ErrorIs(t, err, ErrBadHandle)

	_, err = tbl.lookup(h2)
	assert.NoError(t, err)
}

func TestHandleTableFull(t *testing.T) {
	tbl := newHandleTable()
	tbl.slots = make([]slot, 2)

	_, _, err := tbl.alloc()
	require.NoError(t, err)
	_, _, err = tbl.alloc()
	require.NoError(t, err)

	_, _, err = tbl.alloc()
	assert.ErrorIs(t, err, ErrHandleTableFull)
}

func TestSlotEnqueueRunsFIFO(t *testing.T) {
	sl := &slot{}

	var order []int
	done := make(chan struct{})

	sl.enqueue(func() {
		order = append(order, 1)
		sl.processNext()
	})
	sl.enqueue(func() {
		order = append(order, 2)
		sl.processNext()
	})
	sl.enqueue(func() {
		order = append(order, 3)
		sl.processNext()
		close(done)
	})

	<-done
	assert.Equal(t, []int{1, 2, 3}, order)
}
