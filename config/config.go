// Package config defines the mission configuration file and its defaults.
package config

import (
	"time"

	"github.com/pkg/errors"

	"go.viam.com/beaconbot/logging"
	"go.viam.com/beaconbot/maneuver"
	"go.viam.com/beaconbot/motor"
	"go.viam.com/beaconbot/navigation"
	"go.viam.com/beaconbot/pathlog"
	"go.viam.com/beaconbot/sensor"
	"go.viam.com/beaconbot/utils"
)

// Config is a complete mission configuration.
type Config struct {
	ConfigFilePath string `yaml:"-"`

	LogLevel   string                     `yaml:"log_level"`
	Mission    Mission                    `yaml:"mission"`
	Drive      Drive                      `yaml:"drive"`
	Primitives map[string]PrimitiveConfig `yaml:"primitives"`

	Actuator  Component `yaml:"actuator"`
	Capture   Component `yaml:"capture"`
	Frames    Component `yaml:"frames"`
	Display   Component `yaml:"display"`
	Indicator Component `yaml:"indicator"`
}

// Mission tunes the navigation loop.
type Mission struct {
	DwellUnit         time.Duration `yaml:"dwell_unit"`
	CenteredThreshold int           `yaml:"centered_threshold"`
	LostCap1          int           `yaml:"lost_cap1"`
	LostCap2Max       int           `yaml:"lost_cap2_max"`
	PathCapacity      int           `yaml:"path_capacity"`
	RampTick          time.Duration `yaml:"ramp_tick"`
	SplashHold        time.Duration `yaml:"splash_hold"`
	HeartbeatLimit    int           `yaml:"heartbeat_limit"`
}

// Drive holds the drive channel timing shared by both channels.
type Drive struct {
	PWMPeriod int `yaml:"pwm_period"`
}

// Setting is one channel of a primitive override.
type Setting struct {
	Power     int    `yaml:"power"`
	Direction string `yaml:"direction"`
}

// PrimitiveConfig overrides the tuned constants of one primitive.
type PrimitiveConfig struct {
	Left       Setting `yaml:"left"`
	Right      Setting `yaml:"right"`
	DwellUnits int     `yaml:"dwell_units"`
}

// Default returns the historical configuration: the tuned timing, thresholds and catalog, driving
// fake hardware with a console display.
func Default() *Config {
	nav := navigation.DefaultConfig()
	return &Config{
		LogLevel: "info",
		Mission: Mission{
			DwellUnit:         nav.DwellUnit,
			CenteredThreshold: nav.CenteredThreshold,
			LostCap1:          nav.LostCap1,
			LostCap2Max:       nav.LostCap2Max,
			PathCapacity:      pathlog.DefaultCapacity,
			RampTick:          time.Millisecond,
			SplashHold:        nav.SplashHold,
		},
		Drive:      Drive{PWMPeriod: motor.DefaultPWMPeriod},
		Primitives: map[string]PrimitiveConfig{},
		Actuator:   Component{Model: "fake"},
		Capture:    Component{Model: "sim"},
		Frames:     Component{Model: "sim"},
		Display:    Component{Model: "console"},
		Indicator:  Component{Model: "console"},
	}
}

// Validate checks every section. Component attributes are converted and validated as well.
func (c *Config) Validate() error {
	if _, err := logging.LevelFromString(c.LogLevel); err != nil {
		return utils.NewConfigValidationError("log_level", err)
	}
	if err := c.Mission.Validate("mission"); err != nil {
		return err
	}
	if c.Drive.PWMPeriod <= 0 {
		return utils.NewConfigValidationError("drive", errors.New("pwm_period must be positive"))
	}
	if _, err := c.Catalog(); err != nil {
		return utils.NewConfigValidationError("primitives", err)
	}
	for _, sec := range c.sections() {
		if err := sec.component.convert(sec.section); err != nil {
			return err
		}
	}
	if (c.Capture.Model == SimModel) != (c.Frames.Model == SimModel) {
		return utils.NewConfigValidationError("capture",
			errors.New("the sim capture model and the sim frames model must be used together"))
	}
	return nil
}

// Validate checks the mission tuning.
func (m *Mission) Validate(path string) error {
	switch {
	case m.DwellUnit < 0:
		return utils.NewConfigValidationError(path, errors.New("dwell_unit cannot be negative"))
	case m.CenteredThreshold < 1 || m.CenteredThreshold > sensor.MaxSample:
		return utils.NewConfigValidationError(path,
			errors.Errorf("centered_threshold must be within 1-%d", sensor.MaxSample))
	case m.LostCap1 < 0 || m.LostCap2Max < 0:
		return utils.NewConfigValidationError(path, errors.New("lost thresholds cannot be negative"))
	case m.PathCapacity < 1:
		return utils.NewConfigValidationError(path, errors.New("path_capacity must be at least 1"))
	case m.RampTick < 0 || m.SplashHold < 0:
		return utils.NewConfigValidationError(path, errors.New("durations cannot be negative"))
	case m.HeartbeatLimit < 0:
		return utils.NewConfigValidationError(path, errors.New("heartbeat_limit cannot be negative"))
	}
	return nil
}

// Navigation returns the navigation loop tuning.
func (c *Config) Navigation() navigation.Config {
	return navigation.Config{
		DwellUnit:         c.Mission.DwellUnit,
		CenteredThreshold: c.Mission.CenteredThreshold,
		LostCap1:          c.Mission.LostCap1,
		LostCap2Max:       c.Mission.LostCap2Max,
		SplashHold:        c.Mission.SplashHold,
		HeartbeatLimit:    c.Mission.HeartbeatLimit,
	}
}

// Catalog returns the default catalog with the configured overrides applied.
func (c *Config) Catalog() (maneuver.Catalog, error) {
	catalog := maneuver.DefaultCatalog()
	for name, override := range c.Primitives {
		p, err := maneuver.ParsePrimitive(name)
		if err != nil {
			return nil, err
		}
		if p == maneuver.Stop {
			return nil, errors.New("stop ramps down and cannot be overridden")
		}
		left, err := override.Left.setting()
		if err != nil {
			return nil, errors.Wrapf(err, "%s left", name)
		}
		right, err := override.Right.setting()
		if err != nil {
			return nil, errors.Wrapf(err, "%s right", name)
		}
		cmd := maneuver.Command{Left: left, Right: right, DwellUnits: override.DwellUnits}
		if cmd.DwellUnits == 0 {
			cmd.DwellUnits = catalog[p].DwellUnits
		}
		catalog[p] = cmd
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return catalog, nil
}

// DriverConfig returns the maneuver driver tuning.
func (c *Config) DriverConfig() (maneuver.DriverConfig, error) {
	catalog, err := c.Catalog()
	if err != nil {
		return maneuver.DriverConfig{}, err
	}
	return maneuver.DriverConfig{
		Catalog:   catalog,
		PWMPeriod: c.Drive.PWMPeriod,
		RampTick:  c.Mission.RampTick,
	}, nil
}

func (s Setting) setting() (maneuver.Setting, error) {
	dir, err := motor.ParseDirection(s.Direction)
	if err != nil {
		return maneuver.Setting{}, err
	}
	return maneuver.Setting{Power: s.Power, Direction: dir}, nil
}

type namedSection struct {
	section   Section
	component *Component
}

func (c *Config) sections() []namedSection {
	return []namedSection{
		{SectionActuator, &c.Actuator},
		{SectionCapture, &c.Capture},
		{SectionFrames, &c.Frames},
		{SectionDisplay, &c.Display},
		{SectionIndicator, &c.Indicator},
	}
}
