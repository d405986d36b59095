package obd

import (
	"testing"

	"canbridge/internal/can"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// response builds a mode-01 response frame for a PID with the given value
// bytes starting at payload index 3.
func response(pid byte, dlc uint8, value ...byte) can.Frame {
	f := can.Frame{ID: ResponseID, Len: dlc}
	f.Data[0] = dlc - 1
	f.Data[1] = 0x41
	f.Data[2] = pid
	copy(f.Data[3:], value)
	return f
}

func TestDecodeResponseScaling(t *testing.T) {
	cases := []struct {
		name  string
		frame can.Frame
		want  float64
	}{
		{"engine load", response(PIDEngineLoad, 4, 0x80), 128 * 100.0 / 255.0},
		{"coolant temp", response(PIDCoolantTemp, 4, 0x5A), 50.0},
		{"rpm", response(PIDEngineRPM, 5, 0x1A, 0x2C), 1674.0},
		{"speed", response(PIDVehicleSpeed, 4, 0x55), 85.0},
		{"throttle full", response(PIDThrottle, 4, 0xFF), 100.0},
		{"fuel level", response(PIDFuelLevel, 4, 0x33), 20.0},
		{"gear", response(PIDCurrentGear, 4, 0x03), 3.0},
		{"odometer", response(PIDOdometer, 6, 0x01, 0x86, 0xA0), 100000.0},
		{"accelerator pedal", response(PIDAcceleratorPedal, 4, 0x00), 0.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, ok := DecodeResponse(tc.frame)
			require.True(t, ok)
			assert.Equal(t, tc.frame.Data[2], v.PID)
			assert.InDelta(t, tc.want, v.Value, 1e-9)
		})
	}
}

func TestDecodeResponseYieldsNothing(t *testing.T) {
	cases := []struct {
		name  string
		frame can.Frame
	}{
		{"rpm frame shorter than required", response(PIDEngineRPM, 4, 0x1A)},
		{"odometer frame shorter than required", response(PIDOdometer, 5, 0x01, 0x86)},
		{"unknown pid", response(0x42, 4, 0x10)},
		{"wrong mode byte", func() can.Frame {
			f := response(PIDEngineRPM, 5, 0x1A, 0x2C)
			f.Data[1] = ModeCurrentData // request mode, not the reply marker
			return f
		}()},
		{"wrong identifier", func() can.Frame {
			f := response(PIDVehicleSpeed, 4, 0x55)
			f.ID = 0x7E9
			return f
		}()},
		{"error frame with ECU identifier", func() can.Frame {
			f := response(PIDVehicleSpeed, 4, 0x55)
			f.Err = true
			return f
		}()},
		{"payload too short for any response", can.Frame{ID: ResponseID, Len: 2}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := DecodeResponse(tc.frame)
			assert.False(t, ok)
		})
	}
}

func TestEncodeRequestLayout(t *testing.T) {
	f := EncodeRequest(PIDEngineRPM)

	assert.Equal(t, RequestID, f.ID)
	assert.Equal(t, uint8(8), f.Len)
	assert.Equal(t, [8]byte{0x02, 0x01, 0x0C, 0, 0, 0, 0, 0}, f.Data)
	assert.False(t, f.Extended)
	require.NoError(t, f.Validate())
}
