package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackAndDrop(t *testing.T) {
	l := NewLedger()

	l.Track("c1")
	assert.True(t, l.Tracked("c1"))
	assert.False(t, l.Tracked("c2"))

	l.Drop("c1")
	assert.False(t, l.Tracked("c1"))
}

func TestCleanupRunsOnDrop(t *testing.T) {
	l := NewLedger()
	l.Track("c1")

	var order []int
	l.RegisterCleanup("c1", func() { order = append(order, 1) })
	l.RegisterCleanup("c1", func() { order = append(order, 2) })
	assert.Empty(t, order, "cleanups must not run while the connection is alive")

	l.Drop("c1")
	assert.Equal(t, []int{1, 2}, order, "cleanups run in registration order")
}

func TestCleanupAfterDropRunsImmediately(t *testing.T) {
	l := NewLedger()
	l.Track("c1")
	l.Drop("c1")

	ran := false
	l.RegisterCleanup("c1", func() { ran = true })
	assert.True(t, ran, "a cleanup registered after the drop fires at once")
}

func TestCleanupForUntrackedRunsImmediately(t *testing.T) {
	l := NewLedger()

	ran := false
	l.RegisterCleanup("ghost", func() { ran = true })
	assert.True(t, ran)
}

func TestDropIsIdempotent(t *testing.T) {
	l := NewLedger()
	l.Track("c1")

	count := 0
	l.RegisterCleanup("c1", func() { count++ })

	l.Drop("c1")
	l.Drop("c1")
	assert.Equal(t, 1, count, "a second drop must not rerun cleanups")
}

func TestCleanupMayUseLedger(t *testing.T) {
	l := NewLedger()
	l.Track("c1")
	l.Track("c2")

	l.RegisterCleanup("c1", func() { l.Drop("c2") })
	l.Drop("c1")
	assert.False(t, l.Tracked("c2"), "cleanups may drop other connections without deadlocking")
}
