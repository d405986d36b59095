package bridge

import (
	"sync"
	"sync/atomic"

	"canbridge/internal/can"
	"canbridge/internal/obd"
	"canbridge/pkg/log"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Per-request failures surfaced to the channel layer. They never change the
// connection state beyond bumping the error counter.
var (
	ErrNotConnected    = errors.New("bridge: not connected")
	ErrInvalidArgument = errors.New("bridge: invalid argument")
	ErrSend            = errors.New("bridge: send failed")
)

// TestFrame is the fixed diagnostic frame sent by the sendCANFrame method.
var TestFrame = can.Frame{
	ID:   0x123,
	Len:  8,
	Data: [8]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
}

// Dialer opens a Bus bound to a named CAN interface.
type Dialer func(iface string) (can.Bus, error)

// connection is one connection generation: the bus, its response cache and
// the reader bound to it. A reconnect replaces the whole generation.
type connection struct {
	bus   can.Bus
	cache *obd.Cache
	stop  chan struct{} // closed to ask the reader to exit
	done  chan struct{} // closed by the reader when it has exited
}

// Bridge owns the CAN connection lifecycle and serves parameter reads. A
// background reader decodes bus traffic into the response cache; the request
// path sends a request frame and answers from that cache. The two meet only
// at the cache lock and the write lock.
type Bridge struct {
	dial Dialer

	// life serializes Connect/Disconnect/Reconnect so two initialize calls
	// cannot interleave their teardown and setup.
	life sync.Mutex

	mu    sync.RWMutex // guards conn and iface
	conn  *connection
	iface string

	writeMu sync.Mutex // serializes socket writes so frames never interleave

	framesSent     atomic.Uint64
	framesReceived atomic.Uint64
	errorCount     atomic.Uint64
}

// New creates a Bridge using the given dialer, typically can.Dial.
func New(dial Dialer) *Bridge {
	return &Bridge{dial: dial}
}

// Connect opens the interface and starts the frame reader. Connecting while
// already connected tears the previous connection down first, reader joined
// before the descriptor is closed.
func (b *Bridge) Connect(iface string) error {
	b.life.Lock()
	defer b.life.Unlock()
	b.disconnect()
	return b.connect(iface)
}

// Disconnect stops the reader, waits for it to exit and closes the socket.
// Safe to call when not connected.
func (b *Bridge) Disconnect() {
	b.life.Lock()
	defer b.life.Unlock()
	b.disconnect()
}

// Reconnect is Disconnect followed by Connect as one serialized step.
func (b *Bridge) Reconnect(iface string) error {
	b.life.Lock()
	defer b.life.Unlock()
	b.disconnect()
	return b.connect(iface)
}

func (b *Bridge) connect(iface string) error {
	bus, err := b.dial(iface)
	if err != nil {
		return err
	}
	c := &connection{
		bus:   bus,
		cache: obd.NewCache(),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	b.mu.Lock()
	b.conn = c
	b.iface = iface
	b.mu.Unlock()

	go b.readLoop(c)
	log.Info("CAN interface connected", zap.String("interface", iface))
	return nil
}

func (b *Bridge) disconnect() {
	b.mu.Lock()
	c := b.conn
	b.conn = nil
	b.mu.Unlock()
	if c == nil {
		return
	}

	close(c.stop)
	// The join must complete before the descriptor is closed, or the reader
	// could read from a stale or reused descriptor.
	<-c.done
	c.bus.Close()
	log.Info("CAN interface disconnected", zap.String("interface", b.iface))
}

// current returns the active connection generation, or nil.
func (b *Bridge) current() *connection {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.conn
}

// Connected reports whether a connection generation is active.
func (b *Bridge) Connected() bool {
	return b.current() != nil
}

// ReadParameter sends a mode-01 request for the PID and returns the value
// currently cached for it. The decoded reply to the request just sent, if
// any, is only observed by a later read; callers rely on this
// eventual-consistency contract.
func (b *Bridge) ReadParameter(pid int) (obd.Value, error) {
	if pid < 0 || pid > 0xFF {
		return obd.Value{}, errors.Wrapf(ErrInvalidArgument, "pid %d out of range", pid)
	}
	c := b.current()
	if c == nil {
		return obd.Value{}, ErrNotConnected
	}
	if err := b.send(c, obd.EncodeRequest(byte(pid))); err != nil {
		return obd.Value{}, err
	}
	log.Debug("OBD-II request sent", zap.Uint8("pid", uint8(pid)))
	return c.cache.Get(byte(pid)), nil
}

// SendFrame writes a raw frame to the bus.
func (b *Bridge) SendFrame(f can.Frame) error {
	c := b.current()
	if c == nil {
		return ErrNotConnected
	}
	if err := b.send(c, f); err != nil {
		return err
	}
	log.Debug("CAN frame sent", zap.String("frame", f.String()))
	return nil
}

func (b *Bridge) send(c *connection, f can.Frame) error {
	b.writeMu.Lock()
	err := c.bus.Send(f)
	b.writeMu.Unlock()
	if err != nil {
		b.errorCount.Add(1)
		return errors.Wrapf(ErrSend, "%v", err)
	}
	b.framesSent.Add(1)
	return nil
}

// Stats is a read-only counter snapshot.
type Stats struct {
	Connected      bool
	Interface      string
	FramesSent     uint64
	FramesReceived uint64
	Errors         uint64
}

// Stats returns the current counters. Before the first connect all values
// are zero and the interface name is blank.
func (b *Bridge) Stats() Stats {
	b.mu.RLock()
	connected := b.conn != nil
	iface := b.iface
	b.mu.RUnlock()
	return Stats{
		Connected:      connected,
		Interface:      iface,
		FramesSent:     b.framesSent.Load(),
		FramesReceived: b.framesReceived.Load(),
		Errors:         b.errorCount.Load(),
	}
}
