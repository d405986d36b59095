package channel

import (
	"canbridge/pkg/log"

	"go.uber.org/zap"
)

// SensorsHandler serves the legacy sensor getters. Callers of this channel
// expect a bare success acknowledgment; live readings come from the CAN
// channel's readOBD2 path.
type SensorsHandler struct{}

func (SensorsHandler) OnMethodCall(call MethodCall) (interface{}, *Error) {
	switch call.Method {
	case "getSpeed", "getRPM", "getEngineTemp":
		log.Debug("sensor getter acknowledged", zap.String("method", call.Method))
		return nil, nil
	default:
		return nil, &Error{Code: CodeNotImplemented, Message: "unknown method " + call.Method}
	}
}
