//go:build !linux

package can

import (
	"github.com/pkg/errors"
)

// Dial is only implemented on Linux, where SocketCAN lives.
func Dial(iface string) (Bus, error) {
	return nil, errors.Wrap(ErrSocketCreate, "socketcan requires linux")
}
