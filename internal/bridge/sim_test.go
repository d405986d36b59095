package bridge

import (
	"testing"
	"time"

	"canbridge/internal/can"
	"canbridge/internal/obd"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedECUAnswersEveryPID(t *testing.T) {
	loop := can.NewLoopbackBus()
	defer loop.Close()

	sim := NewSimulatedECU(loop.Open())
	sim.Start()
	defer sim.Stop()

	tester := loop.Open()
	for _, p := range obd.Parameters() {
		require.NoError(t, tester.Send(obd.EncodeRequest(p.PID)))

		var v obd.Value
		require.Eventually(t, func() bool {
			f, err := tester.Receive()
			if err != nil {
				return false
			}
			got, ok := obd.DecodeResponse(f)
			if ok {
				v = got
			}
			return ok
		}, time.Second, time.Millisecond, "no response for %s", p.Name)

		assert.Equal(t, p.PID, v.PID)
		assert.GreaterOrEqual(t, v.Value, 0.0)
	}
}

func TestSimulatedECUIgnoresOtherTraffic(t *testing.T) {
	loop := can.NewLoopbackBus()
	defer loop.Close()

	sim := NewSimulatedECU(loop.Open())
	sim.Start()
	defer sim.Stop()

	tester := loop.Open()
	require.NoError(t, tester.Send(can.Frame{ID: 0x123, Len: 8}))
	require.NoError(t, tester.Send(obd.EncodeRequest(0x42))) // no decoder

	time.Sleep(20 * time.Millisecond)
	_, err := tester.Receive()
	assert.ErrorIs(t, err, can.ErrWouldBlock)
}

func TestSimulatedECUWithBridge(t *testing.T) {
	loop := can.NewLoopbackBus()
	defer loop.Close()

	sim := NewSimulatedECU(loop.Open())
	sim.Start()
	defer sim.Stop()

	b := New(func(string) (can.Bus, error) { return loop.Open(), nil })
	t.Cleanup(b.Disconnect)
	require.NoError(t, b.Connect("test0"))

	// The first read triggers the request; eventually the simulator's reply
	// lands in the cache and later reads see a live engine.
	require.Eventually(t, func() bool {
		v, err := b.ReadParameter(int(obd.PIDEngineRPM))
		return err == nil && v.Value >= 600
	}, time.Second, 5*time.Millisecond)
}
