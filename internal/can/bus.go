package can

import (
	"github.com/pkg/errors"
)

// Connection establishment failures. Dial wraps the underlying cause so the
// caller can both classify with errors.Is and log the detail.
var (
	ErrSocketCreate      = errors.New("can: cannot create socket")
	ErrInterfaceNotFound = errors.New("can: interface not found")
	ErrBind              = errors.New("can: cannot bind socket")
)

// Per-frame and lifecycle conditions.
var (
	ErrClosed       = errors.New("can: bus closed")
	ErrWouldBlock   = errors.New("can: no frame pending")
	ErrShortFrame   = errors.New("can: short frame")
	ErrInvalidFrame = errors.New("can: invalid frame")
)

// Bus is a connection to a CAN bus that exchanges whole frames.
//
// Receive is nonblocking at the contract level: when no frame is pending it
// returns ErrWouldBlock instead of parking the caller, so a reader loop owns
// its own retry and stop policy. A truncated read surfaces as ErrShortFrame
// and is safe to discard; any other error means the connection is unusable.
//
// Send blocks until the frame is queued. Implementations do not serialize
// concurrent senders; callers that must not interleave writes hold their own
// lock around Send.
type Bus interface {
	Send(Frame) error
	Receive() (Frame, error)
	Close() error
}
