package robot

import (
	"io"

	"github.com/benbjohnson/clock"
)

// options configures a Robot.
type options struct {
	// out receives the console display and indicator.
	out   io.Writer
	clock clock.Clock
}

// Option configures how we set up the robot.
type Option interface {
	apply(*options)
}

// funcOption wraps a function that modifies options into an
// implementation of the Option interface.
type funcOption struct {
	f func(*options)
}

func (fdo *funcOption) apply(do *options) {
	fdo.f(do)
}

func newFuncOption(f func(*options)) *funcOption {
	return &funcOption{
		f: f,
	}
}

// WithOutput returns an Option which sets where console models render.
func WithOutput(out io.Writer) Option {
	return newFuncOption(func(o *options) {
		o.out = out
	})
}

// WithClock returns an Option which sets the clock pacing dwell and ramps.
func WithClock(clk clock.Clock) Option {
	return newFuncOption(func(o *options) {
		o.clock = clk
	})
}
