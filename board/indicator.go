package board

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"

	"go.viam.com/beaconbot/utils"
)

// indicatorBits is the number of LEDs on the indicator.
const indicatorBits = 4

// LEDIndicatorConfig lists the LED pins, least significant bit first.
type LEDIndicatorConfig struct {
	Pins []string `json:"pins"`
}

// Validate ensures all parts of the config are valid.
func (conf *LEDIndicatorConfig) Validate(path string) error {
	if len(conf.Pins) == 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "pins")
	}
	if len(conf.Pins) != indicatorBits {
		return utils.NewConfigValidationError(path,
			errors.Errorf("expected %d pins, got %d", indicatorBits, len(conf.Pins)))
	}
	return nil
}

// LEDIndicator renders a 4-bit pattern on four LEDs.
type LEDIndicator struct {
	mu   sync.Mutex
	pins []OutPin
}

// NewLEDIndicator opens the configured pins.
func NewLEDIndicator(conf LEDIndicatorConfig) (*LEDIndicator, error) {
	if err := conf.Validate("indicator"); err != nil {
		return nil, err
	}
	pins := make([]OutPin, 0, len(conf.Pins))
	for _, name := range conf.Pins {
		pin, err := pinByName(name)
		if err != nil {
			return nil, err
		}
		pins = append(pins, pin)
	}
	return &LEDIndicator{pins: pins}, nil
}

// Show sets each LED from the matching bit of pattern.
func (ind *LEDIndicator) Show(ctx context.Context, pattern uint8) error {
	ind.mu.Lock()
	defer ind.mu.Unlock()
	var errs error
	for bit, pin := range ind.pins {
		level := gpio.Low
		if pattern&(1<<bit) != 0 {
			level = gpio.High
		}
		errs = multierr.Combine(errs, pin.Out(level))
	}
	return errs
}

// Close turns all LEDs off.
func (ind *LEDIndicator) Close(ctx context.Context) error {
	return ind.Show(ctx, 0)
}
