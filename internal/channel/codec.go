package channel

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// MethodCall is one decoded inbound request: a method name plus whatever
// argument value the codec produced for it.
type MethodCall struct {
	Method string
	Args   interface{}
}

// Error is a failed method call, carrying the wire-level error code the
// caller switches on alongside a human-readable message.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// Codec is the serialize/deserialize contract for method calls and their
// results. The bridge treats it as opaque: the transport picks an
// implementation and handlers never see payload bytes.
type Codec interface {
	DecodeCall(payload []byte) (MethodCall, error)
	EncodeSuccess(result interface{}) ([]byte, error)
	EncodeError(code, message string) ([]byte, error)
}

// StandardCodec implements Codec with JSON envelopes:
//
//	call:    {"method": "...", "args": ...}
//	success: {"status": "ok", "result": ...}
//	error:   {"status": "error", "code": "...", "message": "..."}
type StandardCodec struct{}

func (StandardCodec) DecodeCall(payload []byte) (MethodCall, error) {
	var env struct {
		Method string      `json:"method"`
		Args   interface{} `json:"args"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return MethodCall{}, errors.Wrap(err, "decode method call")
	}
	if env.Method == "" {
		return MethodCall{}, errors.New("method call without a method name")
	}
	return MethodCall{Method: env.Method, Args: env.Args}, nil
}

func (StandardCodec) EncodeSuccess(result interface{}) ([]byte, error) {
	return json.Marshal(struct {
		Status string      `json:"status"`
		Result interface{} `json:"result"`
	}{Status: "ok", Result: result})
}

func (StandardCodec) EncodeError(code, message string) ([]byte, error) {
	return json.Marshal(struct {
		Status  string `json:"status"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}{Status: "error", Code: code, Message: message})
}
