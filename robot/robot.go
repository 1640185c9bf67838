// Package robot assembles the collaborators named by a config and runs one mission on them.
package robot

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/benbjohnson/clock"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"go.viam.com/beaconbot/board"
	"go.viam.com/beaconbot/config"
	"go.viam.com/beaconbot/display"
	"go.viam.com/beaconbot/frame"
	"go.viam.com/beaconbot/logging"
	"go.viam.com/beaconbot/maneuver"
	"go.viam.com/beaconbot/motor"
	"go.viam.com/beaconbot/motor/fake"
	"go.viam.com/beaconbot/navigation"
	"go.viam.com/beaconbot/pathlog"
	"go.viam.com/beaconbot/sensor"
	"go.viam.com/beaconbot/serial"
	"go.viam.com/beaconbot/sim"
)

// A Robot owns the drive, the producers and the navigator of one mission.
type Robot struct {
	cfg    *config.Config
	logger logging.Logger

	driver *maneuver.Driver
	store  *sensor.Store
	frames *frame.Assembler
	log    *pathlog.Log
	world  *sim.World
	nav    *navigation.Navigator

	// closers run in reverse order on Close
	closers []func(ctx context.Context) error
}

// New returns a new robot with parts sourced from the given config. The config must already be
// validated.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger, opts ...Option) (_ *Robot, err error) {
	var rOpts options
	for _, opt := range opts {
		opt.apply(&rOpts)
	}
	if rOpts.out == nil {
		rOpts.out = os.Stdout
	}
	if rOpts.clock == nil {
		rOpts.clock = clock.New()
	}

	r := &Robot{
		cfg:    cfg,
		logger: logger,
		store:  sensor.NewStore(),
		frames: frame.NewAssembler(),
		log:    pathlog.New(cfg.Mission.PathCapacity),
	}
	defer func() {
		if err != nil {
			err = multierr.Combine(err, r.Close(ctx))
		}
	}()

	act, err := r.newActuator()
	if err != nil {
		return nil, err
	}
	driverConf, err := cfg.DriverConfig()
	if err != nil {
		return nil, err
	}
	r.driver, err = maneuver.NewDriver(act, driverConf, rOpts.clock, logger.Sublogger("drive"))
	if err != nil {
		return nil, err
	}

	var navDriver navigation.Driver = r.driver
	switch cfg.Capture.Model {
	case config.SimModel:
		simConf, err := convertedAttributes[*sim.Config](cfg.Capture)
		if err != nil {
			return nil, err
		}
		conf := *simConf
		conf.CenteredThreshold = cfg.Mission.CenteredThreshold
		r.world, err = sim.NewWorld(conf, r.driver, r.store, r.frames, logger.Sublogger("sim"))
		if err != nil {
			return nil, err
		}
		navDriver = r.world
	case ModelGPIO:
		captureConf, err := convertedAttributes[*board.PulseCaptureConfig](cfg.Capture)
		if err != nil {
			return nil, err
		}
		capture, err := board.NewPulseCapture(*captureConf, r.store, logger.Sublogger("capture"))
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, capture.Close)
	default:
		return nil, errors.Errorf("unsupported capture model %q", cfg.Capture.Model)
	}

	if err := r.openFrames(); err != nil {
		return nil, err
	}

	var disp display.Display
	var console *display.Console
	switch cfg.Display.Model {
	case ModelConsole:
		console = display.NewConsole(rOpts.out)
		disp = console
	default:
		return nil, errors.Errorf("unsupported display model %q", cfg.Display.Model)
	}

	var indicator display.Indicator
	switch cfg.Indicator.Model {
	case ModelConsole:
		if console == nil {
			console = display.NewConsole(rOpts.out)
		}
		indicator = console
	case ModelGPIO:
		ledConf, err := convertedAttributes[*board.LEDIndicatorConfig](cfg.Indicator)
		if err != nil {
			return nil, err
		}
		led, err := board.NewLEDIndicator(*ledConf)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, led.Close)
		indicator = led
	default:
		return nil, errors.Errorf("unsupported indicator model %q", cfg.Indicator.Model)
	}

	r.nav, err = navigation.New(cfg.Navigation(), navigation.Deps{
		Driver:    navDriver,
		Samples:   r.store,
		Frames:    r.frames,
		Log:       r.log,
		Display:   disp,
		Indicator: indicator,
		Clock:     rOpts.clock,
	}, logger.Sublogger("navigation"))
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Robot) newActuator() (motor.Actuator, error) {
	switch r.cfg.Actuator.Model {
	case ModelFake:
		return &fake.Actuator{}, nil
	case ModelGPIO:
		conf, err := convertedAttributes[*board.PWMMotorConfig](r.cfg.Actuator)
		if err != nil {
			return nil, err
		}
		m, err := board.NewPWMMotor(*conf, r.logger.Sublogger("motor"))
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, m.Close)
		return m, nil
	default:
		return nil, errors.Errorf("unsupported actuator model %q", r.cfg.Actuator.Model)
	}
}

// openFrames connects the tag reader to the frame assembler. The sim model writes frames itself.
func (r *Robot) openFrames() error {
	switch r.cfg.Frames.Model {
	case config.SimModel:
		return nil
	case ModelSerial:
		conf, err := convertedAttributes[*serial.ReaderConfig](r.cfg.Frames)
		if err != nil {
			return err
		}
		port, err := serial.Open(conf.Path, conf.Options())
		if err != nil {
			return err
		}
		r.closers = append(r.closers, func(context.Context) error { return port.Close() })
		pump := serial.NewPump(port, r.frames, r.logger.Sublogger("serial"))
		r.closers = append(r.closers, pump.Close)
		return nil
	default:
		return errors.Errorf("unsupported frames model %q", r.cfg.Frames.Model)
	}
}

func convertedAttributes[T any](c config.Component) (T, error) {
	attrs, ok := c.ConvertedAttributes.(T)
	if !ok {
		var zero T
		return zero, errors.Errorf("expected %T attributes for model %q but got %T", zero, c.Model, c.ConvertedAttributes)
	}
	return attrs, nil
}

// Run runs the mission and the heartbeat that follows it.
func (r *Robot) Run(ctx context.Context) error {
	return r.nav.Run(ctx)
}

// RunMission runs the mission until the result is displayed.
func (r *Robot) RunMission(ctx context.Context) error {
	return r.nav.RunMission(ctx)
}

// Navigator returns the mission's navigator.
func (r *Robot) Navigator() *navigation.Navigator {
	return r.nav
}

// Driver returns the maneuver driver.
func (r *Robot) Driver() *maneuver.Driver {
	return r.driver
}

// World returns the simulated world, or nil when driving hardware.
func (r *Robot) World() *sim.World {
	return r.world
}

// Close halts the drive and releases every opened collaborator.
func (r *Robot) Close(ctx context.Context) error {
	var err error
	if r.driver != nil {
		err = multierr.Combine(err, r.driver.Halt(ctx))
	}
	for i := len(r.closers) - 1; i >= 0; i-- {
		err = multierr.Combine(err, r.closers[i](ctx))
	}
	r.closers = nil
	return err
}

// Report renders the mission state as a table.
func (r *Robot) Report() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRow(table.Row{"Phase", r.nav.Phase().String()})
	for i, tr := range r.nav.Transitions() {
		t.AppendRow(table.Row{fmt.Sprintf("Transition %d", i+1), fmt.Sprintf("%s -> %s", tr.From, tr.To)})
	}
	t.AppendRow(table.Row{"Path records", fmt.Sprintf("%d/%d", r.log.Len(), r.log.Cap())})

	summary := r.log.Summary()
	records := lo.Keys(summary)
	slices.Sort(records)
	for _, rec := range records {
		t.AppendRow(table.Row{"  " + rec.String(), summary[rec]})
	}

	if payload, ok := r.nav.Payload(); ok {
		t.AppendRow(table.Row{"Payload", string(payload[:])})
	}
	if r.world != nil {
		pose := r.world.Pose()
		t.AppendRow(table.Row{"Pose", fmt.Sprintf("(%.1f, %.1f) heading %.1f", pose.X, pose.Y, pose.Heading)})
		t.AppendRow(table.Row{"Steps", r.world.Steps()})
	}
	return t.Render()
}
