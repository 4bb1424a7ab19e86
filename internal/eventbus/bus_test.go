package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	provider string
	version  int
}

func TestTypedBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewTyped[*snapshot]()
	a, b := bus.Subscribe(), bus.Subscribe()

	s := &snapshot{provider: "yasno", version: 1}
	bus.Publish(s)

	assert.Same(t, s, <-a)
	assert.Same(t, s, <-b)
}

func TestTypedBusKeepsLatestForSlowReader(t *testing.T) {
	bus := NewTyped[*snapshot]()
	ch := bus.Subscribe()

	for i := 1; i <= 5; i++ {
		bus.Publish(&snapshot{version: i})
	}
	got := <-ch
	assert.Equal(t, 5, got.version)

	select {
	case v := <-ch:
		t.Fatalf("unexpected extra value %v", v)
	default:
	}
}

func TestTypedBusUnsubscribe(t *testing.T) {
	bus := NewTyped[*snapshot]()
	ch := bus.Subscribe()
	require.Equal(t, 1, bus.Len())

	bus.Unsubscribe(ch)
	assert.Equal(t, 0, bus.Len())
	_, ok := <-ch
	assert.False(t, ok)

	assert.NotPanics(t, func() { bus.Publish(&snapshot{}) })
}

func TestTypedBusClose(t *testing.T) {
	bus := NewTyped[*snapshot]()
	ch := bus.Subscribe()
	bus.Close()
	bus.Close()

	_, ok := <-ch
	assert.False(t, ok)

	late := bus.Subscribe()
	_, ok = <-late
	assert.False(t, ok, "subscribing to a closed bus yields a closed channel")
	assert.NotPanics(t, func() { bus.Publish(&snapshot{}) })
}
