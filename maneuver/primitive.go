// Package maneuver is the catalog of two-channel motion primitives and the driver that applies
// them to the drive channels.
package maneuver

import (
	"github.com/pkg/errors"

	"go.viam.com/beaconbot/motor"
)

// Primitive identifies one pre-tuned two-channel motor command.
type Primitive int

// The primitive catalog.
const (
	Stop Primitive = iota
	SpinLeft
	SpinRight
	GentleRightForward
	GentleLeftForward
	GentleRightBackward
	GentleLeftBackward
	StraightForward
	StraightBackward
)

var primitiveNames = []string{
	Stop:                "stop",
	SpinLeft:            "spin_left",
	SpinRight:           "spin_right",
	GentleRightForward:  "gentle_right_forward",
	GentleLeftForward:   "gentle_left_forward",
	GentleRightBackward: "gentle_right_backward",
	GentleLeftBackward:  "gentle_left_backward",
	StraightForward:     "straight_forward",
	StraightBackward:    "straight_backward",
}

func (p Primitive) String() string {
	if p < 0 || int(p) >= len(primitiveNames) {
		return "unknown"
	}
	return primitiveNames[p]
}

// ParsePrimitive looks a primitive up by its snake case name.
func ParsePrimitive(name string) (Primitive, error) {
	for p, n := range primitiveNames {
		if n == name {
			return Primitive(p), nil
		}
	}
	return Stop, errors.Errorf("unknown primitive %q", name)
}

// Primitives returns every primitive in catalog order, Stop first.
func Primitives() []Primitive {
	all := make([]Primitive, len(primitiveNames))
	for i := range all {
		all[i] = Primitive(i)
	}
	return all
}

// Setting is the power and direction for one channel.
type Setting struct {
	Power     int
	Direction motor.Direction
}

// Command is a primitive's per-channel settings and how many dwell units it is held for.
type Command struct {
	Left       Setting
	Right      Setting
	DwellUnits int
}

// Catalog maps every moving primitive to its command. Stop is not in the catalog: it ramps the
// current power down instead of applying fixed settings.
type Catalog map[Primitive]Command

// DefaultCatalog returns the tuned constants for the tracked chassis. The gentle right turn, and
// its inverse, are held three units to compensate for the chassis drifting right.
func DefaultCatalog() Catalog {
	fwd, rev := motor.Forward, motor.Reverse
	return Catalog{
		SpinLeft:            {Setting{69, rev}, Setting{72, fwd}, 1},
		SpinRight:           {Setting{69, fwd}, Setting{64, rev}, 1},
		GentleRightForward:  {Setting{45, fwd}, Setting{75, fwd}, 3},
		GentleLeftForward:   {Setting{85, fwd}, Setting{45, fwd}, 1},
		GentleRightBackward: {Setting{70, rev}, Setting{90, rev}, 1},
		GentleLeftBackward:  {Setting{85, rev}, Setting{70, rev}, 3},
		StraightForward:     {Setting{93, fwd}, Setting{95, fwd}, 1},
		StraightBackward:    {Setting{98, rev}, Setting{95, rev}, 1},
	}
}

// Validate checks that every moving primitive is present with in-range settings.
func (c Catalog) Validate() error {
	for _, p := range Primitives() {
		if p == Stop {
			if _, ok := c[Stop]; ok {
				return errors.New("stop ramps down and cannot be configured with fixed settings")
			}
			continue
		}
		cmd, ok := c[p]
		if !ok {
			return errors.Errorf("primitive %s missing from catalog", p)
		}
		for _, s := range []Setting{cmd.Left, cmd.Right} {
			if s.Power < 0 || s.Power > motor.MaxPower {
				return errors.Errorf("primitive %s power %d out of range 0-%d", p, s.Power, motor.MaxPower)
			}
		}
		if cmd.DwellUnits < 1 {
			return errors.Errorf("primitive %s must dwell for at least one unit", p)
		}
	}
	return nil
}

// DwellUnits returns how many dwell units the primitive is held for. Stop is not held.
func (c Catalog) DwellUnits(p Primitive) int {
	if p == Stop {
		return 0
	}
	return c[p].DwellUnits
}

// Clone returns a copy that can be modified independently.
func (c Catalog) Clone() Catalog {
	out := make(Catalog, len(c))
	for p, cmd := range c {
		out[p] = cmd
	}
	return out
}
