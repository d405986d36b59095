package obd

import (
	"canbridge/internal/can"
)

// Value is one decoded vehicle parameter reading.
type Value struct {
	PID   byte
	Name  string
	Unit  string
	Value float64
}

// DecodeResponse interprets a frame as an OBD-II mode-01 response. It yields
// no value for anything that is not a well-formed response from the ECU
// address, for PIDs outside the table, and for frames shorter than the PID
// requires. None of these are errors; unknown traffic on the bus is normal.
func DecodeResponse(f can.Frame) (Value, bool) {
	if f.Err || f.ID != ResponseID {
		return Value{}, false
	}
	if f.Len < 3 || f.Data[1] != modeCurrentDataReply {
		return Value{}, false
	}
	p, ok := parameters[f.Data[2]]
	if !ok || f.Len < p.MinLen {
		return Value{}, false
	}
	return Value{PID: p.PID, Name: p.Name, Unit: p.Unit, Value: p.Decode(f.Data[:])}, true
}

// EncodeRequest builds a mode-01 request frame for the given PID, addressed
// to the functional broadcast identifier. The payload is always padded to
// eight bytes.
func EncodeRequest(pid byte) can.Frame {
	f := can.Frame{ID: RequestID, Len: 8}
	f.Data[0] = 0x02 // remaining significant bytes
	f.Data[1] = ModeCurrentData
	f.Data[2] = pid
	return f
}
