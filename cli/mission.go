package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/beaconbot/config"
	"go.viam.com/beaconbot/logging"
	"go.viam.com/beaconbot/navigation"
	"go.viam.com/beaconbot/robot"
)

// newLogger is replaced in tests.
var newLogger = logging.NewLogger

// RunAction is the corresponding Action for 'run'. It runs the mission and then the heartbeat
// until interrupted.
func RunAction(c *cli.Context) error {
	cfg, err := config.Read(c.String(generalFlagConfig))
	if err != nil {
		return err
	}
	return runMission(c, cfg, true)
}

// SimulateAction is the corresponding Action for 'simulate'.
func SimulateAction(c *cli.Context) error {
	cfg := config.Default()
	if path := c.String(generalFlagConfig); path != "" {
		var err error
		if cfg, err = config.Read(path); err != nil {
			return err
		}
	}
	cfg.Actuator = config.Component{Model: robot.ModelFake}
	cfg.Frames = config.Component{Model: config.SimModel}
	cfg.Capture = config.Component{
		Model: config.SimModel,
		Attributes: map[string]interface{}{
			"beacon_x": c.Float64(simFlagBeaconX),
			"beacon_y": c.Float64(simFlagBeaconY),
			"tag":      c.String(simFlagTag),
			"start":    map[string]interface{}{"heading": c.Float64(simFlagHeading)},
		},
	}
	cfg.Mission.DwellUnit = c.Duration(simFlagDwellUnit)
	if cfg.Mission.DwellUnit == 0 {
		cfg.Mission.SplashHold = 0
		cfg.Mission.RampTick = 0
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return runMission(c, cfg, false)
}

func runMission(c *cli.Context, cfg *config.Config, heartbeat bool) (err error) {
	logger := newLogger("beaconbot")
	level, err := logging.LevelFromString(cfg.LogLevel)
	if err != nil {
		return err
	}
	if c.Bool(generalFlagDebug) {
		level = logging.DEBUG
	}
	logger.SetLevel(level)

	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	r, err := robot.New(ctx, cfg, logger, robot.WithOutput(c.App.Writer))
	if err != nil {
		return errors.Wrap(err, "could not assemble robot")
	}
	defer func() {
		// a fresh context so the drive is still stopped after an interrupt
		err = multierr.Combine(err, r.Close(context.Background()), logger.Sync())
	}()

	if heartbeat {
		err = r.Run(ctx)
	} else {
		err = r.RunMission(ctx)
	}
	printf(c.App.Writer, "%s", r.Report())

	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		warningf(c.App.ErrWriter, "mission interrupted in the %s phase", r.Navigator().Phase())
		return nil
	case errors.Is(err, navigation.ErrHalted):
		return err
	default:
		return errors.Wrap(err, "mission failed")
	}
	if payload, ok := r.Navigator().Payload(); ok {
		successf(c.App.Writer, "beacon tag %s", payload[:])
	}
	return nil
}
