package can

import (
	"sync"
)

// LoopbackBus is an in-memory CAN bus. Every endpoint opened from the same
// bus sees the frames sent by all the others. It backs the test suite and
// the simulated-ECU mode; endpoints follow the same nonblocking Receive
// contract as the socket layer.
type LoopbackBus struct {
	mu        sync.RWMutex
	closed    bool
	endpoints map[*LoopbackEndpoint]struct{}
}

// NewLoopbackBus creates an empty bus.
func NewLoopbackBus() *LoopbackBus {
	return &LoopbackBus{endpoints: make(map[*LoopbackEndpoint]struct{})}
}

// Open attaches a new endpoint to the bus.
func (b *LoopbackBus) Open() *LoopbackEndpoint {
	ep := &LoopbackEndpoint{
		bus: b,
		ch:  make(chan Frame, 64),
	}
	b.mu.Lock()
	if b.closed {
		ep.dead = true
		close(ep.ch)
	} else {
		b.endpoints[ep] = struct{}{}
	}
	b.mu.Unlock()
	return ep
}

// Close detaches and closes every endpoint.
func (b *LoopbackBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for ep := range b.endpoints {
		ep.closeLocked()
	}
	b.endpoints = nil
	return nil
}

// LoopbackEndpoint is one attachment point on a LoopbackBus.
type LoopbackEndpoint struct {
	bus *LoopbackBus

	mu   sync.Mutex
	dead bool
	ch   chan Frame
}

// Send broadcasts the frame to every other endpoint on the bus. Frames for
// slow endpoints with a full buffer are dropped, as a saturated bus would.
func (e *LoopbackEndpoint) Send(f Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	dead := e.dead
	e.mu.Unlock()
	if dead {
		return ErrClosed
	}

	e.bus.mu.RLock()
	defer e.bus.mu.RUnlock()
	if e.bus.closed {
		return ErrClosed
	}
	for ep := range e.bus.endpoints {
		if ep == e {
			continue
		}
		select {
		case ep.ch <- f:
		default:
		}
	}
	return nil
}

// Receive returns the next pending frame, ErrWouldBlock when the buffer is
// empty, or ErrClosed once the endpoint is detached and drained.
func (e *LoopbackEndpoint) Receive() (Frame, error) {
	select {
	case f, ok := <-e.ch:
		if !ok {
			return Frame{}, ErrClosed
		}
		return f, nil
	default:
		return Frame{}, ErrWouldBlock
	}
}

// Close detaches the endpoint from the bus.
func (e *LoopbackEndpoint) Close() error {
	e.bus.mu.Lock()
	if e.bus.endpoints != nil {
		delete(e.bus.endpoints, e)
	}
	e.closeLocked()
	e.bus.mu.Unlock()
	return nil
}

func (e *LoopbackEndpoint) closeLocked() {
	e.mu.Lock()
	if !e.dead {
		e.dead = true
		close(e.ch)
	}
	e.mu.Unlock()
}
