// Package serial opens the tag reader's serial port and pumps its bytes into a frame assembler.
package serial

import (
	"io"
	"time"

	"github.com/pkg/errors"
	ser "go.bug.st/serial"

	"go.viam.com/beaconbot/utils"
)

// Options to be passed to Open(), closely mirrors the go.bug.st serial mode.
type Options struct {
	BaudRate    int
	DataBits    int
	StopBits    StopBits
	Parity      Parity
	ReadTimeout time.Duration
}

// Parity describes a serial port parity setting.
type Parity int

const (
	// NoParity disable parity control (default).
	NoParity Parity = iota
	// OddParity enable odd-parity check.
	OddParity
	// EvenParity enable even-parity check.
	EvenParity
	// MarkParity enable mark-parity (always 1) check.
	MarkParity
	// SpaceParity enable space-parity (always 0) check.
	SpaceParity
)

// StopBits describe a serial port stop bits setting.
type StopBits int

const (
	// OneStopBit sets 1 stop bit (default).
	OneStopBit StopBits = iota
	// OnePointFiveStopBits sets 1.5 stop bits.
	OnePointFiveStopBits
	// TwoStopBits sets 2 stop bits.
	TwoStopBits
)

// DefaultOptions are the tag reader's line settings: 9600 8N1.
func DefaultOptions() Options {
	return Options{
		BaudRate:    9600,
		DataBits:    8,
		StopBits:    OneStopBit,
		Parity:      NoParity,
		ReadTimeout: 100 * time.Millisecond,
	}
}

// ReaderConfig is the tag reader port configuration.
type ReaderConfig struct {
	Path          string `json:"path"`
	BaudRate      int    `json:"baud_rate,omitempty"`
	ReadTimeoutMs int    `json:"read_timeout_ms,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (conf *ReaderConfig) Validate(path string) error {
	if conf.Path == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "path")
	}
	if conf.BaudRate != 0 && !utils.ValidateBaudRate(utils.ValidBaudRates, conf.BaudRate) {
		return utils.NewConfigValidationError(path,
			errors.Errorf("baud_rate must be one of %v", utils.ValidBaudRates))
	}
	if conf.ReadTimeoutMs < 0 {
		return utils.NewConfigValidationError(path, errors.New("read_timeout_ms cannot be negative"))
	}
	return nil
}

// Options returns the port options for the config, defaulting unset fields.
func (conf *ReaderConfig) Options() Options {
	opts := DefaultOptions()
	if conf.BaudRate != 0 {
		opts.BaudRate = conf.BaudRate
	}
	if conf.ReadTimeoutMs != 0 {
		opts.ReadTimeout = time.Duration(conf.ReadTimeoutMs) * time.Millisecond
	}
	return opts
}

// Open attempts to open a serial device on the given path. It's a variable
// in case you need to override it during tests.
var Open = func(devicePath string, options Options) (io.ReadWriteCloser, error) {
	mode := &ser.Mode{
		BaudRate: options.BaudRate,
		Parity:   ser.Parity(options.Parity),
		DataBits: options.DataBits,
		StopBits: ser.StopBits(options.StopBits),
	}

	device, err := ser.Open(devicePath, mode)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open serial device %q", devicePath)
	}
	if err := device.SetReadTimeout(options.ReadTimeout); err != nil {
		return nil, multiClose(device, err)
	}
	return device, nil
}

func multiClose(c io.Closer, err error) error {
	if closeErr := c.Close(); closeErr != nil {
		return errors.Wrapf(err, "also failed to close: %v", closeErr)
	}
	return err
}
