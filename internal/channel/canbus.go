package channel

import (
	"math"

	"canbridge/internal/bridge"
	"canbridge/pkg/log"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Channel names served by the bridge.
const (
	ChannelCANBus  = "com.automotive/can_bus"
	ChannelSensors = "com.automotive/sensors"
)

// CANBusHandler serves the CAN channel: connection lifecycle, parameter
// reads, raw frame sends and counter snapshots.
type CANBusHandler struct {
	bridge *bridge.Bridge
	iface  string // the well-known interface initialize binds to
}

// NewCANBusHandler creates the handler around a bridge instance.
func NewCANBusHandler(b *bridge.Bridge, iface string) *CANBusHandler {
	return &CANBusHandler{bridge: b, iface: iface}
}

func (h *CANBusHandler) OnMethodCall(call MethodCall) (interface{}, *Error) {
	switch call.Method {
	case "initialize":
		return h.initialize()
	case "readOBD2":
		return h.readOBD2(call.Args)
	case "sendCANFrame":
		return h.sendCANFrame()
	case "getStats":
		return h.getStats()
	default:
		return nil, &Error{Code: CodeNotImplemented, Message: "unknown method " + call.Method}
	}
}

// initialize establishes (or re-establishes) the connection on the fixed
// interface. A prior connection is fully torn down first.
func (h *CANBusHandler) initialize() (interface{}, *Error) {
	if err := h.bridge.Reconnect(h.iface); err != nil {
		log.Error("failed to initialize CAN interface",
			zap.String("interface", h.iface), zap.Error(err))
		return nil, &Error{Code: CodeConnectionFailed, Message: "failed to initialize CAN interface"}
	}
	return true, nil
}

// readOBD2 sends a request frame for the PID and answers with the cached
// value; the reply to the request just sent is only seen by a later call.
func (h *CANBusHandler) readOBD2(args interface{}) (interface{}, *Error) {
	pid, ok := intArg(args)
	if !ok {
		return nil, &Error{Code: CodeInvalidArgument, Message: "PID must be provided as number"}
	}
	v, err := h.bridge.ReadParameter(pid)
	if err != nil {
		return nil, mapBridgeError(err)
	}
	return map[string]interface{}{"name": v.Name, "value": v.Value}, nil
}

func (h *CANBusHandler) sendCANFrame() (interface{}, *Error) {
	if err := h.bridge.SendFrame(bridge.TestFrame); err != nil {
		return nil, mapBridgeError(err)
	}
	return nil, nil
}

func (h *CANBusHandler) getStats() (interface{}, *Error) {
	st := h.bridge.Stats()
	log.Info("CAN stats",
		zap.Bool("connected", st.Connected),
		zap.String("interface", st.Interface),
		zap.Uint64("sent", st.FramesSent),
		zap.Uint64("received", st.FramesReceived),
		zap.Uint64("errors", st.Errors))
	return map[string]interface{}{
		"connected":      st.Connected,
		"interface":      st.Interface,
		"framesSent":     st.FramesSent,
		"framesReceived": st.FramesReceived,
		"errors":         st.Errors,
	}, nil
}

// intArg converts a codec-produced argument to an integer PID. JSON numbers
// arrive as float64; only whole values qualify.
func intArg(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}

func mapBridgeError(err error) *Error {
	switch {
	case errors.Is(err, bridge.ErrNotConnected):
		return &Error{Code: CodeNotConnected, Message: "CAN interface not initialized"}
	case errors.Is(err, bridge.ErrInvalidArgument):
		return &Error{Code: CodeInvalidArgument, Message: err.Error()}
	case errors.Is(err, bridge.ErrSend):
		return &Error{Code: CodeSendFailed, Message: "failed to send CAN frame"}
	default:
		return &Error{Code: CodeConnectionFailed, Message: err.Error()}
	}
}
