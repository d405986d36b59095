package bridge

import (
	"math/rand"
	"sync"
	"time"

	"canbridge/internal/can"
	"canbridge/internal/obd"
	"canbridge/pkg/log"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// SimulatedECU answers OBD-II current-data requests on a bus endpoint with
// values from a drifting vehicle model. It stands in for a real ECU when the
// bridge runs against a loopback bus.
type SimulatedECU struct {
	bus can.Bus

	mu     sync.Mutex
	values map[byte]float64

	stop chan struct{}
	done chan struct{}
}

// NewSimulatedECU creates a simulator attached to the given endpoint. The
// model starts at idle: warm engine, stationary vehicle.
func NewSimulatedECU(bus can.Bus) *SimulatedECU {
	return &SimulatedECU{
		bus: bus,
		values: map[byte]float64{
			obd.PIDEngineLoad:       20,
			obd.PIDCoolantTemp:      75,
			obd.PIDEngineRPM:        800,
			obd.PIDVehicleSpeed:     0,
			obd.PIDThrottle:         12,
			obd.PIDFuelLevel:        64,
			obd.PIDCurrentGear:      1,
			obd.PIDOdometer:         120000,
			obd.PIDAcceleratorPedal: 10,
		},
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Start launches the responder loop.
func (s *SimulatedECU) Start() {
	go s.run()
}

// Stop shuts the responder down and waits for it to exit.
func (s *SimulatedECU) Stop() {
	select {
	case <-s.stop:
		return
	default:
	}
	close(s.stop)
	<-s.done
	s.bus.Close()
}

func (s *SimulatedECU) run() {
	defer close(s.done)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.drift()
		default:
		}

		f, err := s.bus.Receive()
		if err != nil {
			if errors.Is(err, can.ErrWouldBlock) {
				time.Sleep(time.Millisecond)
				continue
			}
			return
		}
		if f.Err || f.ID != obd.RequestID {
			continue
		}
		if f.Len < 3 || f.Data[1] != obd.ModeCurrentData {
			continue
		}
		if resp, ok := s.respond(f.Data[2]); ok {
			if err := s.bus.Send(resp); err != nil {
				log.Warn("simulated ECU send failed", zap.Error(err))
			}
		}
	}
}

// drift random-walks the model with bounded noise around plausible
// operating points.
func (s *SimulatedECU) drift() {
	s.mu.Lock()
	defer s.mu.Unlock()

	walk := func(pid byte, step, min, max float64) {
		v := s.values[pid] + (rand.Float64()*2-1)*step
		if v < min {
			v = min
		}
		if v > max {
			v = max
		}
		s.values[pid] = v
	}
	walk(obd.PIDEngineRPM, 100, 600, 4000)
	walk(obd.PIDCoolantTemp, 1, 60, 110)
	walk(obd.PIDVehicleSpeed, 5, 0, 180)
	walk(obd.PIDThrottle, 3, 0, 100)
	walk(obd.PIDEngineLoad, 3, 0, 100)
	walk(obd.PIDAcceleratorPedal, 3, 0, 100)
	s.values[obd.PIDFuelLevel] -= 0.01
	if s.values[obd.PIDFuelLevel] < 0 {
		s.values[obd.PIDFuelLevel] = 100
	}
	s.values[obd.PIDOdometer] += s.values[obd.PIDVehicleSpeed] / 3600.0
}

// respond builds the mode-01 response frame for a PID, inverting the decode
// scaling so the bridge's codec reproduces the model value.
func (s *SimulatedECU) respond(pid byte) (can.Frame, bool) {
	p, ok := obd.Lookup(pid)
	if !ok {
		return can.Frame{}, false
	}

	s.mu.Lock()
	v := s.values[pid]
	s.mu.Unlock()

	f := can.Frame{ID: obd.ResponseID, Len: 8}
	f.Data[0] = p.MinLen - 1
	f.Data[1] = 0x41
	f.Data[2] = pid

	switch pid {
	case obd.PIDCoolantTemp:
		f.Data[3] = byte(v + 40)
	case obd.PIDEngineRPM:
		raw := uint16(v * 4)
		f.Data[3] = byte(raw >> 8)
		f.Data[4] = byte(raw)
	case obd.PIDVehicleSpeed, obd.PIDCurrentGear:
		f.Data[3] = byte(v)
	case obd.PIDOdometer:
		raw := uint32(v)
		f.Data[3] = byte(raw >> 16)
		f.Data[4] = byte(raw >> 8)
		f.Data[5] = byte(raw)
	default:
		// percentage-scaled PIDs
		f.Data[3] = byte(v * 255.0 / 100.0)
	}
	return f, true
}
