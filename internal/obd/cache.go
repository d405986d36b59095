package obd

import (
	"sync"
)

// Cache holds the last observed value for every supported parameter. All
// access goes through Get and Set, which take the internal lock for just the
// map operation; callers can never hold the lock across I/O or forget to
// release it.
type Cache struct {
	mu     sync.Mutex
	values map[byte]float64
}

// NewCache returns a cache seeded with plausible resting-vehicle defaults so
// reads before the first decoded response return something sensible.
func NewCache() *Cache {
	values := make(map[byte]float64, len(parameters))
	for pid := range parameters {
		values[pid] = 0.0
	}
	values[PIDCoolantTemp] = 20.0
	values[PIDFuelLevel] = 50.0
	return &Cache{values: values}
}

// Get returns the current value for a PID. PIDs without a decoder report the
// name "unknown" and a zero value; the caller treats that as a valid answer,
// not a failure.
func (c *Cache) Get(pid byte) Value {
	c.mu.Lock()
	v := c.values[pid]
	c.mu.Unlock()

	p, ok := parameters[pid]
	if !ok {
		return Value{PID: pid, Name: "unknown"}
	}
	return Value{PID: pid, Name: p.Name, Unit: p.Unit, Value: v}
}

// Set stores a new value for a PID, unconditionally replacing the previous
// one. Last write wins; there is no staleness tracking.
func (c *Cache) Set(pid byte, value float64) {
	c.mu.Lock()
	c.values[pid] = value
	c.mu.Unlock()
}
