package obd

// OBD-II addressing for the mode-01 "current data" service over CAN.
const (
	RequestID  uint32 = 0x7DF // functional broadcast address
	ResponseID uint32 = 0x7E8 // primary ECU response address

	ModeCurrentData      byte = 0x01
	modeCurrentDataReply byte = 0x41
)

// Supported PIDs. Codes 0xA5..0xA7 are vendor specific.
const (
	PIDEngineLoad       byte = 0x04
	PIDCoolantTemp      byte = 0x05
	PIDEngineRPM        byte = 0x0C
	PIDVehicleSpeed     byte = 0x0D
	PIDThrottle         byte = 0x11
	PIDFuelLevel        byte = 0x2F
	PIDCurrentGear      byte = 0xA5
	PIDOdometer         byte = 0xA6
	PIDAcceleratorPedal byte = 0xA7
)

// Parameter describes one supported PID: the minimum data length code a
// response frame must carry and the scaling from raw payload bytes to the
// physical value. Decode receives the full 8-byte payload; data[3] is the
// first value byte of a mode-01 response.
type Parameter struct {
	PID    byte
	Name   string
	Unit   string
	MinLen uint8
	Decode func(data []byte) float64
}

// parameters is the single PID table: both the frame decoder and the cache
// consult it, so the supported set cannot drift between the two.
var parameters = map[byte]Parameter{
	PIDEngineLoad: {
		PID: PIDEngineLoad, Name: "engineLoad", Unit: "%", MinLen: 4,
		Decode: func(data []byte) float64 { return float64(data[3]) * 100.0 / 255.0 },
	},
	PIDCoolantTemp: {
		PID: PIDCoolantTemp, Name: "engineTemp", Unit: "°C", MinLen: 4,
		Decode: func(data []byte) float64 { return float64(data[3]) - 40.0 },
	},
	PIDEngineRPM: {
		PID: PIDEngineRPM, Name: "rpm", Unit: "rpm", MinLen: 5,
		Decode: func(data []byte) float64 { return (float64(data[3])*256.0 + float64(data[4])) / 4.0 },
	},
	PIDVehicleSpeed: {
		PID: PIDVehicleSpeed, Name: "speed", Unit: "km/h", MinLen: 4,
		Decode: func(data []byte) float64 { return float64(data[3]) },
	},
	PIDThrottle: {
		PID: PIDThrottle, Name: "throttle", Unit: "%", MinLen: 4,
		Decode: func(data []byte) float64 { return float64(data[3]) * 100.0 / 255.0 },
	},
	PIDFuelLevel: {
		PID: PIDFuelLevel, Name: "fuelLevel", Unit: "%", MinLen: 4,
		Decode: func(data []byte) float64 { return float64(data[3]) * 100.0 / 255.0 },
	},
	PIDCurrentGear: {
		PID: PIDCurrentGear, Name: "gear", Unit: "", MinLen: 4,
		Decode: func(data []byte) float64 { return float64(data[3]) },
	},
	PIDOdometer: {
		PID: PIDOdometer, Name: "odometer", Unit: "km", MinLen: 6,
		Decode: func(data []byte) float64 {
			return float64(uint32(data[3])<<16 | uint32(data[4])<<8 | uint32(data[5]))
		},
	},
	PIDAcceleratorPedal: {
		PID: PIDAcceleratorPedal, Name: "acceleratorPedal", Unit: "%", MinLen: 4,
		Decode: func(data []byte) float64 { return float64(data[3]) * 100.0 / 255.0 },
	},
}

// Lookup returns the parameter description for a PID.
func Lookup(pid byte) (Parameter, bool) {
	p, ok := parameters[pid]
	return p, ok
}

// Parameters returns the supported set, for callers that iterate the table.
func Parameters() []Parameter {
	out := make([]Parameter, 0, len(parameters))
	for _, p := range parameters {
		out = append(out, p)
	}
	return out
}
