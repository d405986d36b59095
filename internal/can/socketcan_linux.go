//go:build linux

package can

import (
	"net"
	"os"
	"syscall"
	"unsafe"

	"github.com/pkg/errors"
)

// SocketCAN constants not exposed by the syscall package.
const (
	afCAN           = 29 // address family
	canRaw          = 1  // raw protocol
	solCANRaw       = 101
	canRawErrFilter = 2
	canErrMask      = 0x1FFFFFFF
)

// socketBus implements Bus over a raw Linux SocketCAN descriptor.
type socketBus struct {
	fd   int
	file *os.File
}

// Dial opens a raw CAN socket bound to the named interface (e.g. "can0" or
// "vcan0"). Delivery of error message frames is enabled so the reader can
// count bus errors; the descriptor is switched to nonblocking mode to honor
// the Bus.Receive contract.
func Dial(iface string) (Bus, error) {
	fd, err := syscall.Socket(afCAN, syscall.SOCK_RAW, canRaw)
	if err != nil {
		return nil, errors.Wrapf(ErrSocketCreate, "socket: %v", err)
	}

	netIf, err := net.InterfaceByName(iface)
	if err != nil {
		syscall.Close(fd)
		return nil, errors.Wrapf(ErrInterfaceNotFound, "%q: %v", iface, err)
	}

	// Best effort: some kernels reject the option, frames still flow.
	syscall.SetsockoptInt(fd, solCANRaw, canRawErrFilter, canErrMask)

	// struct sockaddr_can: family, pad, ifindex, protocol-specific address.
	type sockaddrCAN struct {
		Family  uint16
		_       uint16
		Ifindex int32
		Addr    [8]byte
	}
	sa := sockaddrCAN{Family: afCAN, Ifindex: int32(netIf.Index)}
	if _, _, errno := syscall.Syscall(syscall.SYS_BIND, uintptr(fd), uintptr(unsafe.Pointer(&sa)), unsafe.Sizeof(sa)); errno != 0 {
		syscall.Close(fd)
		return nil, errors.Wrapf(ErrBind, "%q: %v", iface, errno)
	}

	if err := syscall.SetNonblock(fd, true); err != nil {
		syscall.Close(fd)
		return nil, errors.Wrapf(ErrSocketCreate, "set nonblocking: %v", err)
	}

	return &socketBus{fd: fd, file: os.NewFile(uintptr(fd), "socketcan:"+iface)}, nil
}

// Send writes one frame as a single 16-byte can_frame record. A transient
// EAGAIN is retried after a short wait; a partial write is a send failure.
func (s *socketBus) Send(f Frame) error {
	buf, err := f.MarshalBinary()
	if err != nil {
		return err
	}
	for {
		n, werr := syscall.Write(s.fd, buf)
		switch {
		case werr == nil && n == len(buf):
			return nil
		case werr == nil:
			return errors.Wrapf(ErrShortFrame, "wrote %d of %d bytes", n, len(buf))
		case werr == syscall.EAGAIN || werr == syscall.EWOULDBLOCK:
			syscall.Select(0, nil, nil, nil, &syscall.Timeval{Usec: 1000})
		case werr == syscall.EINTR:
			// retry
		default:
			return werr
		}
	}
}

// Receive reads at most one frame. ErrWouldBlock reports an empty socket,
// ErrShortFrame a truncated record.
func (s *socketBus) Receive() (Frame, error) {
	buf := make([]byte, FrameSize)
	for {
		n, rerr := syscall.Read(s.fd, buf)
		switch {
		case rerr == nil && n == FrameSize:
			var f Frame
			if err := f.UnmarshalBinary(buf); err != nil {
				return Frame{}, errors.Wrapf(ErrShortFrame, "undecodable frame: %v", err)
			}
			return f, nil
		case rerr == nil:
			return Frame{}, errors.Wrapf(ErrShortFrame, "read %d of %d bytes", n, FrameSize)
		case rerr == syscall.EAGAIN || rerr == syscall.EWOULDBLOCK:
			return Frame{}, ErrWouldBlock
		case rerr == syscall.EINTR:
			// retry
		default:
			return Frame{}, rerr
		}
	}
}

// Close releases the descriptor. Callers must have joined any reader first;
// a read racing a close would observe a stale or reused descriptor.
func (s *socketBus) Close() error {
	return s.file.Close()
}
