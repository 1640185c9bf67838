package board

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"

	"go.viam.com/beaconbot/logging"
	"go.viam.com/beaconbot/sensor"
	"go.viam.com/beaconbot/utils"
)

// defaultEdgeTimeout bounds each edge wait so a capture worker notices cancellation.
const defaultEdgeTimeout = 100 * time.Millisecond

// PulseCaptureConfig names the IR receiver input pins.
type PulseCaptureConfig struct {
	Cap1Pin       string `json:"cap1_pin"`
	Cap2Pin       string `json:"cap2_pin"`
	EdgeTimeoutMs int    `json:"edge_timeout_ms,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (conf *PulseCaptureConfig) Validate(path string) error {
	if conf.Cap1Pin == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "cap1_pin")
	}
	if conf.Cap2Pin == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "cap2_pin")
	}
	if conf.EdgeTimeoutMs < 0 {
		return utils.NewConfigValidationError(path, errors.New("edge_timeout_ms cannot be negative"))
	}
	return nil
}

// PulseCapture measures the low pulse each IR receiver produces per beacon burst and publishes
// the quantized width to a sensor store. Each receiver is watched by its own worker.
type PulseCapture struct {
	store   *sensor.Store
	pins    map[sensor.ChannelID]EdgePin
	timeout time.Duration
	clock   clock.Clock
	logger  logging.Logger
	workers *utils.Workers
}

// NewPulseCapture opens the configured pins and starts capturing into store.
func NewPulseCapture(conf PulseCaptureConfig, store *sensor.Store, logger logging.Logger) (*PulseCapture, error) {
	if err := conf.Validate("capture"); err != nil {
		return nil, err
	}
	cap1, err := pinByName(conf.Cap1Pin)
	if err != nil {
		return nil, err
	}
	cap2, err := pinByName(conf.Cap2Pin)
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(conf.EdgeTimeoutMs) * time.Millisecond
	return newPulseCapture(map[sensor.ChannelID]EdgePin{sensor.Cap1: cap1, sensor.Cap2: cap2},
		store, timeout, clock.New(), logger)
}

func newPulseCapture(
	pins map[sensor.ChannelID]EdgePin,
	store *sensor.Store,
	timeout time.Duration,
	clk clock.Clock,
	logger logging.Logger,
) (*PulseCapture, error) {
	if timeout <= 0 {
		timeout = defaultEdgeTimeout
	}
	for id, pin := range pins {
		if err := pin.In(gpio.PullUp, gpio.BothEdges); err != nil {
			return nil, errors.Wrapf(err, "cannot watch %s for edges", id)
		}
	}
	pc := &PulseCapture{
		store:   store,
		pins:    pins,
		timeout: timeout,
		clock:   clk,
		logger:  logger,
	}
	pc.workers = utils.NewWorkers(logger)
	for id, pin := range pins {
		id, pin := id, pin
		pc.workers.Go(id.String(), func(ctx context.Context) {
			pc.capture(ctx, id, pin)
		})
	}
	return pc, nil
}

// capture times each falling to rising edge pair on the pin.
func (pc *PulseCapture) capture(ctx context.Context, id sensor.ChannelID, pin EdgePin) {
	var fell time.Time
	for {
		if ctx.Err() != nil {
			return
		}
		if !pin.WaitForEdge(pc.timeout) {
			continue
		}
		now := pc.clock.Now()
		if pin.Read() == gpio.Low {
			fell = now
			continue
		}
		if fell.IsZero() {
			continue
		}
		pc.store.UpdateChannel(id, sensor.Quantize(now.Sub(fell)))
		fell = time.Time{}
	}
}

// Close stops the capture workers.
func (pc *PulseCapture) Close(ctx context.Context) error {
	pc.workers.Stop()
	return nil
}
