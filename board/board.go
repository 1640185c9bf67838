// Package board drives the robot's collaborators on Linux GPIO: the two PWM drive channels, the
// IR receiver pulse capture and the 4-bit LED indicator.
package board

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"go.viam.com/beaconbot/logging"
)

// OutPin is a digital output.
type OutPin interface {
	Out(l gpio.Level) error
}

// PWMPin is a pin with a PWM generator.
type PWMPin interface {
	PWM(duty gpio.Duty, f physic.Frequency) error
}

// EdgePin is an input with edge detection.
type EdgePin interface {
	In(pull gpio.Pull, edge gpio.Edge) error
	WaitForEdge(timeout time.Duration) bool
	Read() gpio.Level
}

var (
	hostOnce sync.Once
	errHost  error
)

// initHost loads the periph host drivers once per process.
func initHost() error {
	hostOnce.Do(func() {
		if _, err := host.Init(); err != nil {
			errHost = err
			logging.Global().Debugw("error initializing host", "error", err)
		}
	})
	return errHost
}

// pinByName resolves a GPIO pin by its host name.
func pinByName(name string) (gpio.PinIO, error) {
	if err := initHost(); err != nil {
		return nil, errors.Wrap(err, "cannot open GPIO")
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, errors.Errorf("no global pin found for %q", name)
	}
	return pin, nil
}
