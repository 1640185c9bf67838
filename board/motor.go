package board

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"go.viam.com/beaconbot/logging"
	"go.viam.com/beaconbot/motor"
	"go.viam.com/beaconbot/utils"
)

// DefaultPWMFreqHz is the drive PWM frequency used when none is configured.
const DefaultPWMFreqHz = 10000

// PWMMotorConfig names the pins of both drive channels.
type PWMMotorConfig struct {
	LeftPWM   string `json:"left_pwm"`
	LeftDir   string `json:"left_dir"`
	RightPWM  string `json:"right_pwm"`
	RightDir  string `json:"right_dir"`
	PWMFreqHz uint   `json:"pwm_freq_hz,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (conf *PWMMotorConfig) Validate(path string) error {
	for field, pin := range map[string]string{
		"left_pwm":  conf.LeftPWM,
		"left_dir":  conf.LeftDir,
		"right_pwm": conf.RightPWM,
		"right_dir": conf.RightDir,
	} {
		if pin == "" {
			return utils.NewConfigValidationFieldRequiredError(path, field)
		}
	}
	return nil
}

// channelPins is one drive channel: a PWM output and a direction line.
type channelPins struct {
	pwm PWMPin
	dir OutPin
}

// PWMMotor applies duty values to two PWM + direction pin pairs.
type PWMMotor struct {
	mu       sync.Mutex
	channels map[motor.ChannelID]channelPins
	freq     physic.Frequency
	logger   logging.Logger
}

// NewPWMMotor opens the configured pins.
func NewPWMMotor(conf PWMMotorConfig, logger logging.Logger) (*PWMMotor, error) {
	if err := conf.Validate("actuator"); err != nil {
		return nil, err
	}
	pins := map[string]gpio.PinIO{}
	for _, name := range []string{conf.LeftPWM, conf.LeftDir, conf.RightPWM, conf.RightDir} {
		pin, err := pinByName(name)
		if err != nil {
			return nil, err
		}
		pins[name] = pin
	}
	return newPWMMotor(
		channelPins{pins[conf.LeftPWM], pins[conf.LeftDir]},
		channelPins{pins[conf.RightPWM], pins[conf.RightDir]},
		conf.PWMFreqHz,
		logger,
	), nil
}

func newPWMMotor(left, right channelPins, freqHz uint, logger logging.Logger) *PWMMotor {
	if freqHz == 0 {
		freqHz = DefaultPWMFreqHz
	}
	return &PWMMotor{
		channels: map[motor.ChannelID]channelPins{motor.Left: left, motor.Right: right},
		freq:     physic.Hertz * physic.Frequency(freqHz),
		logger:   logger,
	}
}

// Actuate sets the channel's direction line and PWM duty.
func (m *PWMMotor) Actuate(ctx context.Context, id motor.ChannelID, duty motor.Duty) error {
	ch, ok := m.channels[id]
	if !ok {
		return errors.Errorf("no pins for drive channel %s", id)
	}
	if duty.Period <= 0 {
		return errors.Errorf("drive channel %s has no PWM period", id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	level := gpio.Low
	if duty.DirectionHigh {
		level = gpio.High
	}
	return multierr.Combine(
		ch.dir.Out(level),
		ch.pwm.PWM(dutyToGPIO(duty), m.freq),
	)
}

// Close drives both channels' outputs low.
func (m *PWMMotor) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs error
	for _, ch := range m.channels {
		errs = multierr.Combine(errs, ch.pwm.PWM(0, m.freq), ch.dir.Out(gpio.Low))
	}
	return errs
}

func dutyToGPIO(duty motor.Duty) gpio.Duty {
	return gpio.Duty(int64(duty.Value) * int64(gpio.DutyMax) / int64(duty.Period))
}
