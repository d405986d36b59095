package channel

import (
	"sync"

	"canbridge/pkg/log"

	"go.uber.org/zap"
)

// Wire-level error codes, kept stable for existing callers.
const (
	CodeMalformedMessage = "malformed-message"
	CodeNotImplemented   = "not-implemented"
	CodeNotConnected     = "NOT_CONNECTED"
	CodeInvalidArgument  = "INVALID_ARGUMENT"
	CodeSendFailed       = "SEND_FAILED"
	CodeConnectionFailed = "CONNECTION_FAILED"
	CodeThreadError      = "THREAD_ERROR"
)

// Handler processes one decoded method call on a channel. It returns the
// result value for a success response, or an *Error for a failure.
type Handler interface {
	OnMethodCall(call MethodCall) (interface{}, *Error)
}

// Registry routes named channels to their handlers and owns the method-call
// codec shared by all of them.
type Registry struct {
	codec Codec

	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty registry around the given codec.
func NewRegistry(codec Codec) *Registry {
	return &Registry{codec: codec, handlers: make(map[string]Handler)}
}

// Register binds a handler to a channel name, replacing any previous one.
func (r *Registry) Register(channel string, h Handler) {
	r.mu.Lock()
	r.handlers[channel] = h
	r.mu.Unlock()
}

// Dispatch decodes a call payload, runs the channel's handler and returns
// the encoded response payload. A payload the codec cannot decode yields a
// malformed-message error with no side effects.
func (r *Registry) Dispatch(channel string, payload []byte) []byte {
	r.mu.RLock()
	h := r.handlers[channel]
	r.mu.RUnlock()
	if h == nil {
		return r.errorResponse(CodeNotImplemented, "no handler for channel "+channel)
	}

	call, err := r.codec.DecodeCall(payload)
	if err != nil {
		log.Warn("malformed channel message", zap.String("channel", channel), zap.Error(err))
		return r.errorResponse(CodeMalformedMessage, "the channel message was malformed")
	}

	log.Debug("method call", zap.String("channel", channel), zap.String("method", call.Method))
	result, callErr := h.OnMethodCall(call)
	if callErr != nil {
		return r.errorResponse(callErr.Code, callErr.Message)
	}

	out, err := r.codec.EncodeSuccess(result)
	if err != nil {
		log.Error("cannot encode method result", zap.Error(err))
		return r.errorResponse(CodeMalformedMessage, "the method result could not be encoded")
	}
	return out
}

func (r *Registry) errorResponse(code, message string) []byte {
	out, err := r.codec.EncodeError(code, message)
	if err != nil {
		// The codec cannot even encode its own error shape; nothing useful
		// can be sent back.
		log.Error("cannot encode error response", zap.Error(err))
		return nil
	}
	return out
}
