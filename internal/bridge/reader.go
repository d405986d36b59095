package bridge

import (
	"time"

	"canbridge/internal/can"
	"canbridge/internal/obd"
	"canbridge/pkg/log"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// readRetryDelay is the pause before retrying an empty socket.
const readRetryDelay = time.Millisecond

// readLoop drains the bus for one connection generation. Error frames bump
// the error counter and are discarded; decodable ECU responses land in the
// cache. Any read failure other than would-block ends the loop and leaves
// the connection for the caller to re-establish via Reconnect.
func (b *Bridge) readLoop(c *connection) {
	defer close(c.done)
	log.Debug("frame reader started")

	for {
		select {
		case <-c.stop:
			log.Debug("frame reader stopping")
			return
		default:
		}

		f, err := c.bus.Receive()
		if err != nil {
			switch {
			case errors.Is(err, can.ErrWouldBlock):
				time.Sleep(readRetryDelay)
			case errors.Is(err, can.ErrShortFrame):
				log.Warn("discarding truncated CAN frame", zap.Error(err))
			default:
				b.errorCount.Add(1)
				log.Error("CAN read failed, reader exiting", zap.Error(err))
				return
			}
			continue
		}

		b.framesReceived.Add(1)

		if f.Err {
			b.errorCount.Add(1)
			log.Warn("CAN error frame", zap.Uint32("id", f.ID))
			continue
		}
		if f.ID != obd.ResponseID {
			continue
		}
		if v, ok := obd.DecodeResponse(f); ok {
			c.cache.Set(v.PID, v.Value)
			log.Debug("cached OBD-II response",
				zap.String("name", v.Name),
				zap.Float64("value", v.Value))
		}
	}
}
