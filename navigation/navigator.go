// Package navigation implements the mission control loop: it searches for the beacon, tracks it
// until an identification frame is validated, retraces the recorded path and shows the result.
//
// The loop is the single consumer of the sensor store and frame assembler. It reads each sensor
// cell once per cycle, never blocks except to dwell on a primitive, and is the only writer of the
// path log.
package navigation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"go.viam.com/beaconbot/display"
	"go.viam.com/beaconbot/frame"
	"go.viam.com/beaconbot/logging"
	"go.viam.com/beaconbot/maneuver"
	"go.viam.com/beaconbot/pathlog"
	"go.viam.com/beaconbot/sensor"
	"go.viam.com/beaconbot/utils"
)

// Display text.
const (
	SplashText    = "BEACONBOT v1"
	SearchingText = "SEARCHING"
	LocatedText   = "BEACON LOCATED"
	ReadErrorText = "READ ERROR"
	ReversingText = "REVERSING"
	ResultText    = "DISARM CODE:"
	HaltedText    = "HALTED"
)

// Indicator patterns.
const (
	IndicatorOff uint8 = 0
	IndicatorOn  uint8 = 0x0F
)

// Config tunes the control loop.
type Config struct {
	// DwellUnit is how long a primitive is held per dwell unit.
	DwellUnit time.Duration
	// CenteredThreshold is the sample both receivers read when the beacon is dead ahead.
	CenteredThreshold int
	// The signal is lost when cap1 equals LostCap1 and cap2 is at most LostCap2Max.
	LostCap1    int
	LostCap2Max int
	// SplashHold is how long the splash screen is shown before searching.
	SplashHold time.Duration
	// HeartbeatLimit bounds the heartbeat toggles once Displaying; zero toggles forever.
	HeartbeatLimit int
}

// DefaultConfig returns the historical tuning.
func DefaultConfig() Config {
	return Config{
		DwellUnit:         89 * time.Millisecond,
		CenteredThreshold: 195,
		LostCap1:          0,
		LostCap2Max:       5,
		SplashHold:        time.Second,
	}
}

// Driver executes primitives on the drive channels.
type Driver interface {
	Execute(ctx context.Context, p maneuver.Primitive) error
	Halt(ctx context.Context) error
	DwellUnits(p maneuver.Primitive) int
}

// Samples is the sensor store as seen by the loop.
type Samples interface {
	Snapshot() sensor.Snapshot
	Disable()
}

// Frames is the frame assembler as seen by the loop.
type Frames interface {
	Valid() bool
	Payload() ([frame.DataLen]byte, bool)
	Rejections() uint32
	Fault() error
	Disable()
}

// Deps are the collaborators a Navigator drives.
type Deps struct {
	Driver    Driver
	Samples   Samples
	Frames    Frames
	Log       *pathlog.Log
	Display   display.Display
	Indicator display.Indicator
	// Clock paces dwell; defaults to the wall clock.
	Clock clock.Clock
}

// A Navigator runs one mission. It is driven from a single goroutine; Phase, Transitions and
// Payload may be read concurrently.
type Navigator struct {
	conf      Config
	driver    Driver
	samples   Samples
	frames    Frames
	log       *pathlog.Log
	display   display.Display
	indicator display.Indicator
	clock     clock.Clock

	// logger carries the current phase; base does not
	base   logging.Logger
	logger logging.Logger

	// the first sweep is not recorded; cleared once the beacon is first centered
	suppressSweep  bool
	started        bool
	lastRejections uint32
	// a read error on line 1 survives the cycle that reported it
	holdReadout bool
	heartbeatOn bool

	// undoes the path log one record per Returning cycle; set on arrival
	replay *pathlog.Replay

	mu          sync.Mutex
	phase       Phase
	transitions []Transition
	payload     [frame.DataLen]byte
	havePayload bool
	haltErr     error
}

// New returns a navigator in Searching.
func New(conf Config, deps Deps, logger logging.Logger) (*Navigator, error) {
	switch {
	case deps.Driver == nil:
		return nil, errors.New("navigation requires a driver")
	case deps.Samples == nil:
		return nil, errors.New("navigation requires a sensor store")
	case deps.Frames == nil:
		return nil, errors.New("navigation requires a frame source")
	case deps.Display == nil:
		return nil, errors.New("navigation requires a display")
	case deps.Indicator == nil:
		return nil, errors.New("navigation requires an indicator")
	}
	if conf.CenteredThreshold < 0 || conf.CenteredThreshold > sensor.MaxSample {
		return nil, errors.Errorf("centered threshold %d out of range 0-%d", conf.CenteredThreshold, sensor.MaxSample)
	}
	if deps.Log == nil {
		deps.Log = pathlog.New(pathlog.DefaultCapacity)
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	return &Navigator{
		conf:          conf,
		driver:        deps.Driver,
		samples:       deps.Samples,
		frames:        deps.Frames,
		log:           deps.Log,
		display:       deps.Display,
		indicator:     deps.Indicator,
		clock:         deps.Clock,
		base:          logger,
		logger:        logger.With("phase", Searching.String()),
		suppressSweep: true,
		phase:         Searching,
	}, nil
}

// Phase returns the current phase.
func (n *Navigator) Phase() Phase {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.phase
}

// Transitions returns every phase change so far, in order.
func (n *Navigator) Transitions() []Transition {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Transition(nil), n.transitions...)
}

// Payload returns the validated frame data once the mission has arrived.
func (n *Navigator) Payload() ([frame.DataLen]byte, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.payload, n.havePayload
}

// PathLog returns the recorded outbound path.
func (n *Navigator) PathLog() []pathlog.Record {
	return n.log.Records()
}

// Run runs the mission to Displaying and then keeps the heartbeat going until ctx is done or the
// heartbeat limit is reached.
func (n *Navigator) Run(ctx context.Context) error {
	if err := n.RunMission(ctx); err != nil {
		return err
	}
	return n.Heartbeat(ctx)
}

// RunMission shows the splash screen and steps the loop until it reaches Displaying.
func (n *Navigator) RunMission(ctx context.Context) error {
	if err := n.start(ctx); err != nil {
		return err
	}
	for n.Phase() != Displaying {
		if err := n.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Heartbeat toggles the indicator once per dwell unit while Displaying.
func (n *Navigator) Heartbeat(ctx context.Context) error {
	if phase := n.Phase(); phase != Displaying {
		return errors.Errorf("heartbeat requires the %s phase, not %s", Displaying, phase)
	}
	for i := 0; n.conf.HeartbeatLimit == 0 || i < n.conf.HeartbeatLimit; i++ {
		if err := n.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (n *Navigator) start(ctx context.Context) error {
	if n.started {
		return nil
	}
	n.started = true
	if err := n.display.RegisterGlyph(ctx, display.CheckGlyphSlot, display.CheckGlyph); err != nil {
		return err
	}
	if err := n.display.WriteLine(ctx, 1, SplashText); err != nil {
		return err
	}
	if err := utils.SelectContextOrWait(ctx, n.clock, n.conf.SplashHold); err != nil {
		return err
	}
	return n.display.Clear(ctx)
}

// Step runs one control cycle of the current phase.
func (n *Navigator) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch phase := n.Phase(); phase {
	case Searching:
		return n.search(ctx)
	case Tracking:
		return n.track(ctx)
	case Arrived:
		return n.arrive(ctx)
	case Returning:
		return n.retrace(ctx)
	case Displaying:
		return n.heartbeat(ctx)
	case Halted:
		n.mu.Lock()
		defer n.mu.Unlock()
		return n.haltErr
	default:
		return errors.Errorf("unknown phase %s", phase)
	}
}

// checkSignals observes the frame assembler. It reports true when the cycle must not continue.
func (n *Navigator) checkSignals(ctx context.Context) (bool, error) {
	if err := n.frames.Fault(); err != nil {
		return true, n.halt(ctx, err)
	}
	if n.frames.Valid() {
		n.transition(Arrived)
		return true, nil
	}
	if r := n.frames.Rejections(); r != n.lastRejections {
		n.lastRejections = r
		n.logger.Warnw("identification frame rejected", "rejections", r)
		if err := n.display.WriteLine(ctx, 1, ReadErrorText); err != nil {
			return true, err
		}
		n.holdReadout = true
	}
	return false, nil
}

func (n *Navigator) search(ctx context.Context) error {
	if done, err := n.checkSignals(ctx); done || err != nil {
		return err
	}
	if err := n.indicator.Show(ctx, IndicatorOff); err != nil {
		return err
	}
	if n.suppressSweep {
		if err := n.execute(ctx, maneuver.SpinLeft); err != nil {
			return err
		}
	} else if err := n.issue(ctx, pathlog.SpinSearch, maneuver.SpinLeft); err != nil {
		return err
	}
	if err := n.indicator.Show(ctx, IndicatorOn); err != nil {
		return err
	}
	if err := n.display.WriteLine(ctx, 2, SearchingText); err != nil {
		return err
	}
	if !n.centered(n.samples.Snapshot()) {
		return nil
	}
	n.suppressSweep = false
	if err := n.display.WriteLine(ctx, 2, LocatedText); err != nil {
		return err
	}
	if err := n.driver.Execute(ctx, maneuver.Stop); err != nil {
		return err
	}
	n.transition(Tracking)
	return nil
}

func (n *Navigator) track(ctx context.Context) error {
	if done, err := n.checkSignals(ctx); done || err != nil {
		return err
	}
	snap := n.samples.Snapshot()
	if n.holdReadout {
		n.holdReadout = false
	} else if err := n.display.WriteLine(ctx, 1, snap.String()); err != nil {
		return err
	}
	switch {
	case snap.Cap1 == n.conf.LostCap1 && snap.Cap2 <= n.conf.LostCap2Max:
		n.logger.Debugw("beacon signal lost", "cap1", snap.Cap1, "cap2", snap.Cap2)
		n.transition(Searching)
		return nil
	case n.centered(snap):
		return n.issue(ctx, pathlog.StraightForward, maneuver.StraightForward)
	case snap.Cap1 > snap.Cap2:
		return n.issue(ctx, pathlog.AdjustRight, maneuver.GentleRightForward)
	case snap.Cap2 > snap.Cap1:
		return n.issue(ctx, pathlog.AdjustLeft, maneuver.GentleLeftForward)
	default:
		n.logger.Debugw("equal readings off center, advancing", "cap1", snap.Cap1, "cap2", snap.Cap2)
		return n.issue(ctx, pathlog.StraightForward, maneuver.StraightForward)
	}
}

func (n *Navigator) arrive(ctx context.Context) error {
	n.frames.Disable()
	n.samples.Disable()
	payload, ok := n.frames.Payload()
	if !ok {
		return n.halt(ctx, errors.New("arrived without a validated frame"))
	}
	n.mu.Lock()
	n.payload = payload
	n.havePayload = true
	n.mu.Unlock()
	n.logger.Infow("identification frame validated", "payload", string(payload[:]))

	if err := n.display.Clear(ctx); err != nil {
		return err
	}
	if err := n.display.WriteLine(ctx, 1, ReversingText); err != nil {
		return err
	}
	if err := n.driver.Execute(ctx, maneuver.Stop); err != nil {
		return err
	}
	n.replay = n.log.Replay()
	n.logger.Debugw("retracing path", "records", n.replay.Remaining())
	n.transition(Returning)
	return nil
}

// retrace undoes the newest unreplayed record, or finishes the return once none are left.
func (n *Navigator) retrace(ctx context.Context) error {
	if n.replay == nil {
		n.replay = n.log.Replay()
	}
	if r, inverse, ok := n.replay.Peek(); ok {
		if err := n.indicator.Show(ctx, r.Code()); err != nil {
			return err
		}
		units, err := n.apply(ctx, inverse)
		if err != nil {
			return err
		}
		// a dwell cut short by ctx still counts; resuming moves on to the next record
		n.replay.Advance()
		return n.dwell(ctx, units)
	}
	if err := n.driver.Execute(ctx, maneuver.Stop); err != nil {
		return err
	}
	payload, _ := n.Payload()
	if err := n.display.WriteLine(ctx, 1, ResultText); err != nil {
		return err
	}
	result := fmt.Sprintf("%s %cCS", payload[:], rune(display.CheckGlyphSlot))
	if err := n.display.WriteLine(ctx, 2, result); err != nil {
		return err
	}
	n.transition(Displaying)
	return nil
}

func (n *Navigator) heartbeat(ctx context.Context) error {
	pattern := IndicatorOff
	if n.heartbeatOn = !n.heartbeatOn; n.heartbeatOn {
		pattern = IndicatorOn
	}
	if err := n.indicator.Show(ctx, pattern); err != nil {
		return err
	}
	return n.dwell(ctx, 1)
}

// issue records the motion and then executes it. A full path log halts the mission before the
// primitive is applied.
func (n *Navigator) issue(ctx context.Context, r pathlog.Record, p maneuver.Primitive) error {
	if err := n.log.Append(r); err != nil {
		return n.halt(ctx, err)
	}
	return n.execute(ctx, p)
}

// execute applies the primitive and holds it for its dwell.
func (n *Navigator) execute(ctx context.Context, p maneuver.Primitive) error {
	units, err := n.apply(ctx, p)
	if err != nil {
		return err
	}
	return n.dwell(ctx, units)
}

// apply issues the primitive and returns its dwell.
func (n *Navigator) apply(ctx context.Context, p maneuver.Primitive) (int, error) {
	units := n.driver.DwellUnits(p)
	n.logger.Debugw("issuing primitive", "primitive", p.String(), "dwell_units", units)
	return units, n.driver.Execute(ctx, p)
}

func (n *Navigator) dwell(ctx context.Context, units int) error {
	return utils.SelectContextOrWait(ctx, n.clock, time.Duration(units)*n.conf.DwellUnit)
}

func (n *Navigator) centered(snap sensor.Snapshot) bool {
	return snap.Cap1 == n.conf.CenteredThreshold && snap.Cap2 == n.conf.CenteredThreshold
}

// halt cuts actuation, shows the fault and parks the navigator in Halted.
func (n *Navigator) halt(ctx context.Context, cause error) error {
	haltErr := &HaltError{Cause: cause}
	n.logger.Errorw("fatal fault, halting", "error", cause)
	n.frames.Disable()
	n.samples.Disable()
	n.mu.Lock()
	n.haltErr = haltErr
	n.mu.Unlock()
	n.transition(Halted)

	// the halt error is reported even if the collaborators fail while shutting down
	if err := n.driver.Halt(ctx); err != nil {
		n.logger.Errorw("failed to halt drive", "error", err)
	}
	if err := n.display.Clear(ctx); err == nil {
		_ = n.display.WriteLine(ctx, 1, HaltedText)
		_ = n.display.WriteLine(ctx, 2, display.Fit(cause.Error()))
	}
	_ = n.indicator.Show(ctx, IndicatorOff)
	return haltErr
}

func (n *Navigator) transition(to Phase) {
	n.mu.Lock()
	from := n.phase
	n.phase = to
	n.transitions = append(n.transitions, Transition{from, to})
	n.mu.Unlock()
	n.logger.Infow("phase transition", "from", from.String(), "to", to.String())
	n.logger = n.base.With("phase", to.String())
}
