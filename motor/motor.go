// Package motor converts per-channel power and direction into the duty cycle and direction line
// values expected by the drive hardware.
package motor

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// Direction is the rotation sense of a drive channel.
type Direction int

// The two drive directions. Reverse asserts the channel's direction line.
const (
	Forward Direction = iota
	Reverse
)

func (d Direction) String() string {
	if d == Reverse {
		return "reverse"
	}
	return "forward"
}

// ParseDirection parses "forward" or "reverse".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "forward", "fwd", "":
		return Forward, nil
	case "reverse", "rev", "backward":
		return Reverse, nil
	}
	return Forward, errors.Errorf("unknown direction %q", s)
}

// ChannelID names one of the two drive channels.
type ChannelID int

// The drive channels.
const (
	Left ChannelID = iota
	Right
)

func (id ChannelID) String() string {
	if id == Right {
		return "right"
	}
	return "left"
}

// MaxPower is full duty, in percent.
const MaxPower = 100

// DefaultPWMPeriod is the PWM timer period in ticks used by both channels.
const DefaultPWMPeriod = 200

// Duty is a computed actuation value for one channel.
type Duty struct {
	// Value is the duty in PWM ticks, 0 <= Value <= Period.
	Value int
	// Period is the channel's PWM period in ticks.
	Period int
	// DirectionHigh is the level of the channel's direction line.
	DirectionHigh bool
}

// ComputeDuty converts a power percentage and direction into a duty value. In reverse the
// direction line is high and the PWM output is inverted against it, so the duty is the
// complement of the forward duty.
func ComputeDuty(power, period int, dir Direction) Duty {
	duty := power * period / MaxPower
	if dir == Reverse {
		return Duty{Value: period - duty, Period: period, DirectionHigh: true}
	}
	return Duty{Value: duty, Period: period}
}

// Registers splits the duty into the low and high bytes of a 10-bit duty register pair.
func (d Duty) Registers() (low, high byte) {
	return byte(d.Value << 2), byte(d.Value >> 6)
}

// Fraction returns the duty as a fraction of the period.
func (d Duty) Fraction() float64 {
	if d.Period == 0 {
		return 0
	}
	return float64(d.Value) / float64(d.Period)
}

// An Actuator applies duty values to the physical drive channels. There is no feedback path.
type Actuator interface {
	Actuate(ctx context.Context, id ChannelID, duty Duty) error
}

// A Channel is one drive endpoint. Power must be written before the duty is read.
type Channel struct {
	ID     ChannelID
	Period int

	mu        sync.Mutex
	power     int
	direction Direction
	written   bool
}

// NewChannel returns a channel with the given PWM period.
func NewChannel(id ChannelID, period int) *Channel {
	return &Channel{ID: id, Period: period}
}

// Set records the power and direction for the next actuation. Power is clamped to 0-100.
func (c *Channel) Set(power int, dir Direction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.power = clampPower(power)
	c.direction = dir
	c.written = true
}

// SetPower changes only the power, keeping the current direction.
func (c *Channel) SetPower(power int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.power = clampPower(power)
	c.written = true
}

// Power returns the last written power and direction.
func (c *Channel) Power() (int, Direction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.power, c.direction
}

// Duty computes the duty for the last written power and direction.
func (c *Channel) Duty() (Duty, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.written {
		return Duty{}, NewChannelUnsetError(c.ID)
	}
	return ComputeDuty(c.power, c.Period, c.direction), nil
}

// Apply computes the channel's duty and hands it to the actuator.
func (c *Channel) Apply(ctx context.Context, act Actuator) error {
	duty, err := c.Duty()
	if err != nil {
		return err
	}
	return act.Actuate(ctx, c.ID, duty)
}

func clampPower(power int) int {
	if power < 0 {
		return 0
	}
	if power > MaxPower {
		return MaxPower
	}
	return power
}
