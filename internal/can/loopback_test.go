package can

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopbackExchange(t *testing.T) {
	bus := NewLoopbackBus()
	defer bus.Close()
	a := bus.Open()
	b := bus.Open()

	sent := Frame{ID: 0x321, Len: 3, Data: [8]byte{1, 2, 3}}
	require.NoError(t, a.Send(sent))

	got, err := b.Receive()
	require.NoError(t, err)
	assert.Equal(t, sent, got)

	// Frames are not echoed back to the sender.
	_, err = a.Receive()
	assert.True(t, errors.Is(err, ErrWouldBlock))
}

func TestLoopbackWouldBlockWhenEmpty(t *testing.T) {
	bus := NewLoopbackBus()
	defer bus.Close()
	ep := bus.Open()

	_, err := ep.Receive()
	assert.True(t, errors.Is(err, ErrWouldBlock))
}

func TestLoopbackClosedEndpoint(t *testing.T) {
	bus := NewLoopbackBus()
	defer bus.Close()
	a := bus.Open()
	b := bus.Open()

	require.NoError(t, b.Close())
	_, err := b.Receive()
	assert.True(t, errors.Is(err, ErrClosed))
	assert.True(t, errors.Is(b.Send(Frame{ID: 1}), ErrClosed))

	// The surviving endpoint keeps working.
	require.NoError(t, a.Send(Frame{ID: 2}))
}

func TestLoopbackBusClose(t *testing.T) {
	bus := NewLoopbackBus()
	ep := bus.Open()
	require.NoError(t, bus.Close())

	_, err := ep.Receive()
	assert.True(t, errors.Is(err, ErrClosed))
	assert.True(t, errors.Is(ep.Send(Frame{ID: 1}), ErrClosed))
}
