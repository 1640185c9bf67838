// Package fake implements an actuator that records every duty it is given.
package fake

import (
	"context"
	"sync"

	"go.viam.com/beaconbot/motor"
)

// Write is one recorded actuation.
type Write struct {
	Channel motor.ChannelID
	Duty    motor.Duty
}

// Actuator records actuations instead of driving hardware. Err, when set, is returned from
// every call after the write is recorded.
type Actuator struct {
	mu     sync.Mutex
	writes []Write
	Err    error
}

// Actuate records the duty.
func (a *Actuator) Actuate(ctx context.Context, id motor.ChannelID, duty motor.Duty) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.writes = append(a.writes, Write{id, duty})
	return a.Err
}

// Writes returns a copy of every recorded actuation in order.
func (a *Actuator) Writes() []Write {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Write(nil), a.writes...)
}

// Last returns the most recent duty applied to the channel.
func (a *Actuator) Last(id motor.ChannelID) (motor.Duty, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := len(a.writes) - 1; i >= 0; i-- {
		if a.writes[i].Channel == id {
			return a.writes[i].Duty, true
		}
	}
	return motor.Duty{}, false
}

// Reset forgets all recorded writes.
func (a *Actuator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.writes = nil
}
