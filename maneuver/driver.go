package maneuver

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/beaconbot/logging"
	"go.viam.com/beaconbot/motor"
	"go.viam.com/beaconbot/utils"
)

// DriverConfig holds the driver's tuning.
type DriverConfig struct {
	Catalog   Catalog
	PWMPeriod int
	// RampTick is the pause between successive power steps of the Stop ramp.
	RampTick time.Duration
}

// A Driver applies primitives to the left and right drive channels. Every primitive except Stop
// switches power instantaneously.
type Driver struct {
	left     *motor.Channel
	right    *motor.Channel
	actuator motor.Actuator
	catalog  Catalog
	rampTick time.Duration
	clock    clock.Clock
	logger   logging.Logger
}

// NewDriver returns a driver for the actuator. Both channels start at zero power, forward.
func NewDriver(act motor.Actuator, conf DriverConfig, clk clock.Clock, logger logging.Logger) (*Driver, error) {
	if conf.Catalog == nil {
		conf.Catalog = DefaultCatalog()
	}
	if err := conf.Catalog.Validate(); err != nil {
		return nil, err
	}
	if conf.PWMPeriod <= 0 {
		conf.PWMPeriod = motor.DefaultPWMPeriod
	}
	if clk == nil {
		clk = clock.New()
	}
	d := &Driver{
		left:     motor.NewChannel(motor.Left, conf.PWMPeriod),
		right:    motor.NewChannel(motor.Right, conf.PWMPeriod),
		actuator: act,
		catalog:  conf.Catalog.Clone(),
		rampTick: conf.RampTick,
		clock:    clk,
		logger:   logger,
	}
	d.left.Set(0, motor.Forward)
	d.right.Set(0, motor.Forward)
	return d, nil
}

// Execute applies the primitive. It does not dwell; the caller holds the primitive for
// DwellUnits(p) units before the next decision.
func (d *Driver) Execute(ctx context.Context, p Primitive) error {
	if p == Stop {
		return d.stop(ctx)
	}
	cmd, ok := d.catalog[p]
	if !ok {
		return errors.Errorf("primitive %s missing from catalog", p)
	}
	d.logger.Debugw("executing primitive", "primitive", p.String(),
		"left", cmd.Left.Power, "right", cmd.Right.Power)
	d.left.Set(cmd.Left.Power, cmd.Left.Direction)
	d.right.Set(cmd.Right.Power, cmd.Right.Direction)
	return d.apply(ctx)
}

// DwellUnits returns how many dwell units the primitive is held for.
func (d *Driver) DwellUnits(p Primitive) int {
	return d.catalog.DwellUnits(p)
}

// Catalog returns a copy of the driver's catalog.
func (d *Driver) Catalog() Catalog {
	return d.catalog.Clone()
}

// Power returns the current power and direction of both channels.
func (d *Driver) Power() (left, right Setting) {
	lp, ld := d.left.Power()
	rp, rd := d.right.Power()
	return Setting{lp, ld}, Setting{rp, rd}
}

// Halt cuts both channels to zero power immediately, without a ramp.
func (d *Driver) Halt(ctx context.Context) error {
	d.left.SetPower(0)
	d.right.SetPower(0)
	return d.apply(ctx)
}

// stop ramps both channels down from the left channel's power to zero, one unit per tick, in
// lockstep. Directions are kept as they were.
func (d *Driver) stop(ctx context.Context) error {
	power, _ := d.left.Power()
	d.logger.Debugw("ramping to stop", "from", power)
	for ; power >= 0; power-- {
		d.left.SetPower(power)
		d.right.SetPower(power)
		if err := d.apply(ctx); err != nil {
			return err
		}
		if power == 0 {
			break
		}
		if err := utils.SelectContextOrWait(ctx, d.clock, d.rampTick); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) apply(ctx context.Context) error {
	return multierr.Combine(
		d.left.Apply(ctx, d.actuator),
		d.right.Apply(ctx, d.actuator),
	)
}
