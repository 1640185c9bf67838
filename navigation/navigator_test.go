package navigation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap/zaptest/observer"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"go.viam.com/beaconbot/display"
	"go.viam.com/beaconbot/display/fake"
	"go.viam.com/beaconbot/frame"
	"go.viam.com/beaconbot/logging"
	"go.viam.com/beaconbot/maneuver"
	"go.viam.com/beaconbot/pathlog"
	"go.viam.com/beaconbot/sensor"
)

// recordingDriver records executed primitives without actuating anything.
type recordingDriver struct {
	mu       sync.Mutex
	executed []maneuver.Primitive
	halts    int
	catalog  maneuver.Catalog
	// onExecute runs after each primitive is recorded
	onExecute func(p maneuver.Primitive)
}

func newRecordingDriver() *recordingDriver {
	return &recordingDriver{catalog: maneuver.DefaultCatalog()}
}

func (d *recordingDriver) Execute(ctx context.Context, p maneuver.Primitive) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.executed = append(d.executed, p)
	if d.onExecute != nil {
		d.onExecute(p)
	}
	return nil
}

func (d *recordingDriver) Halt(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.halts++
	return nil
}

func (d *recordingDriver) DwellUnits(p maneuver.Primitive) int {
	return d.catalog.DwellUnits(p)
}

func (d *recordingDriver) Executed() []maneuver.Primitive {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]maneuver.Primitive(nil), d.executed...)
}

// scriptedSamples wraps a real store and plays one snapshot per read. The last snapshot repeats.
// onRead runs after each read with the number of reads so far.
type scriptedSamples struct {
	*sensor.Store
	script []sensor.Snapshot
	reads  int
	onRead func(reads int)
}

func (s *scriptedSamples) Snapshot() sensor.Snapshot {
	snap := s.script[len(s.script)-1]
	if s.reads < len(s.script) {
		snap = s.script[s.reads]
	}
	s.Store.UpdateChannel(sensor.Cap1, snap.Cap1)
	s.Store.UpdateChannel(sensor.Cap2, snap.Cap2)
	s.reads++
	if s.onRead != nil {
		s.onRead(s.reads)
	}
	return s.Store.Snapshot()
}

type harness struct {
	nav       *Navigator
	driver    *recordingDriver
	samples   *scriptedSamples
	frames    *frame.Assembler
	log       *pathlog.Log
	display   *fake.Display
	indicator *fake.Indicator
	logs      *observer.ObservedLogs
}

func newHarness(t *testing.T, capacity int, script ...sensor.Snapshot) *harness {
	t.Helper()
	h := &harness{
		driver:    newRecordingDriver(),
		samples:   &scriptedSamples{Store: sensor.NewStore(), script: script},
		frames:    frame.NewAssembler(),
		log:       pathlog.New(capacity),
		display:   fake.NewDisplay(),
		indicator: &fake.Indicator{},
	}
	conf := DefaultConfig()
	conf.DwellUnit = 0
	conf.SplashHold = 0
	logger, logs := logging.NewObservedTestLogger(t)
	h.logs = logs
	nav, err := New(conf, Deps{
		Driver:    h.driver,
		Samples:   h.samples,
		Frames:    h.frames,
		Log:       h.log,
		Display:   h.display,
		Indicator: h.indicator,
	}, logger)
	test.That(t, err, test.ShouldBeNil)
	h.nav = nav
	return h
}

func (h *harness) feedTag(t *testing.T, tag string) {
	t.Helper()
	data, err := frame.DataFromString(tag)
	test.That(t, err, test.ShouldBeNil)
	_, err = h.frames.Write(frame.Encode(data))
	test.That(t, err, test.ShouldBeNil)
}

func (h *harness) toTracking(t *testing.T) {
	t.Helper()
	test.That(t, h.nav.Step(context.Background()), test.ShouldBeNil)
	test.That(t, h.nav.Phase(), test.ShouldEqual, Tracking)
}

func TestNewRequiresCollaborators(t *testing.T) {
	logger := logging.NewTestLogger(t)
	_, err := New(DefaultConfig(), Deps{}, logger)
	test.That(t, err, test.ShouldNotBeNil)

	conf := DefaultConfig()
	conf.CenteredThreshold = 300
	_, err = New(conf, Deps{
		Driver:    newRecordingDriver(),
		Samples:   sensor.NewStore(),
		Frames:    frame.NewAssembler(),
		Display:   fake.NewDisplay(),
		Indicator: &fake.Indicator{},
	}, logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestTrackingDecisions(t *testing.T) {
	centered := sensor.Snapshot{Cap1: 195, Cap2: 195}
	for _, tc := range []struct {
		name     string
		snap     sensor.Snapshot
		issued   maneuver.Primitive
		recorded pathlog.Record
	}{
		{"centered", centered, maneuver.StraightForward, pathlog.StraightForward},
		{"right stronger", sensor.Snapshot{Cap1: 200, Cap2: 100}, maneuver.GentleRightForward, pathlog.AdjustRight},
		{"left stronger", sensor.Snapshot{Cap1: 40, Cap2: 120}, maneuver.GentleLeftForward, pathlog.AdjustLeft},
		{"equal off center", sensor.Snapshot{Cap1: 90, Cap2: 90}, maneuver.StraightForward, pathlog.StraightForward},
		{"weak but not lost", sensor.Snapshot{Cap1: 0, Cap2: 6}, maneuver.GentleLeftForward, pathlog.AdjustLeft},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, 8, centered, tc.snap)
			h.toTracking(t)
			test.That(t, h.nav.Step(context.Background()), test.ShouldBeNil)
			test.That(t, h.nav.Phase(), test.ShouldEqual, Tracking)
			executed := h.driver.Executed()
			test.That(t, executed[len(executed)-1], test.ShouldEqual, tc.issued)
			test.That(t, h.log.Records(), test.ShouldResemble, []pathlog.Record{tc.recorded})
			test.That(t, h.display.Line(1), test.ShouldEqual, tc.snap.String())
		})
	}
}

func TestSignalLostReturnsToSearching(t *testing.T) {
	centered := sensor.Snapshot{Cap1: 195, Cap2: 195}
	lost := sensor.Snapshot{Cap1: 0, Cap2: 3}
	h := newHarness(t, 8, centered, lost, lost)
	ctx := context.Background()
	h.toTracking(t)

	test.That(t, h.nav.Step(ctx), test.ShouldBeNil)
	test.That(t, h.nav.Phase(), test.ShouldEqual, Searching)
	test.That(t, h.log.Len(), test.ShouldEqual, 0)

	// spins after a lost signal are recorded
	test.That(t, h.nav.Step(ctx), test.ShouldBeNil)
	test.That(t, h.nav.Phase(), test.ShouldEqual, Searching)
	test.That(t, h.log.Records(), test.ShouldResemble, []pathlog.Record{pathlog.SpinSearch})
	test.That(t, h.display.Line(2), test.ShouldEqual, SearchingText)
}

func TestInitialSweepNotRecorded(t *testing.T) {
	none := sensor.Snapshot{}
	h := newHarness(t, 8, none, none, none, sensor.Snapshot{Cap1: 195, Cap2: 195})
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		test.That(t, h.nav.Step(ctx), test.ShouldBeNil)
		test.That(t, h.nav.Phase(), test.ShouldEqual, Searching)
	}
	test.That(t, h.nav.Step(ctx), test.ShouldBeNil)
	test.That(t, h.nav.Phase(), test.ShouldEqual, Tracking)
	test.That(t, h.log.Len(), test.ShouldEqual, 0)
	test.That(t, h.display.Line(2), test.ShouldEqual, LocatedText)
	test.That(t, h.driver.Executed(), test.ShouldResemble, []maneuver.Primitive{
		maneuver.SpinLeft, maneuver.SpinLeft, maneuver.SpinLeft, maneuver.SpinLeft, maneuver.Stop,
	})
	test.That(t, h.indicator.Patterns(), test.ShouldResemble, []uint8{0, 15, 0, 15, 0, 15, 0, 15})
}

func TestFrameValidPreemptsTracking(t *testing.T) {
	centered := sensor.Snapshot{Cap1: 195, Cap2: 195}
	h := newHarness(t, 8, centered, sensor.Snapshot{Cap1: 0, Cap2: 0})
	ctx := context.Background()
	h.toTracking(t)
	h.feedTag(t, "0415AB8C2D")

	// a lost reading would send the loop searching, but the frame wins
	test.That(t, h.nav.Step(ctx), test.ShouldBeNil)
	test.That(t, h.nav.Phase(), test.ShouldEqual, Arrived)
}

func TestReadErrorShown(t *testing.T) {
	centered := sensor.Snapshot{Cap1: 195, Cap2: 195}
	h := newHarness(t, 8, centered)
	ctx := context.Background()
	h.toTracking(t)

	bad := frame.Encode([frame.DataLen]byte{'1', '2', '3', '4', '5', '6', '7', '8', '9', '0'})
	bad[len(bad)-2] = '7'
	_, err := h.frames.Write(bad)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, h.nav.Step(ctx), test.ShouldBeNil)
	test.That(t, h.nav.Phase(), test.ShouldEqual, Tracking)
	test.That(t, h.display.Line(1), test.ShouldEqual, ReadErrorText)
	rejected := h.logs.FilterMessage("identification frame rejected").All()
	test.That(t, rejected, test.ShouldHaveLength, 1)
	test.That(t, rejected[0].ContextMap()["phase"], test.ShouldEqual, Tracking.String())

	// the readout comes back on the following cycle
	test.That(t, h.nav.Step(ctx), test.ShouldBeNil)
	test.That(t, h.display.Line(1), test.ShouldEqual, centered.String())
}

func TestEndToEnd(t *testing.T) {
	none := sensor.Snapshot{}
	centered := sensor.Snapshot{Cap1: 195, Cap2: 195}
	h := newHarness(t, pathlog.DefaultCapacity, none, none, none, centered, centered)
	h.samples.onRead = func(reads int) {
		// the tag comes into range after the first tracking cycle
		if reads == 5 {
			h.feedTag(t, "1234567890")
		}
	}

	ctx := context.Background()
	test.That(t, h.nav.RunMission(ctx), test.ShouldBeNil)
	test.That(t, h.nav.Phase(), test.ShouldEqual, Displaying)
	test.That(t, h.nav.Transitions(), test.ShouldResemble, []Transition{
		{Searching, Tracking},
		{Tracking, Arrived},
		{Arrived, Returning},
		{Returning, Displaying},
	})
	test.That(t, h.nav.PathLog(), test.ShouldResemble, []pathlog.Record{pathlog.StraightForward})

	executed := h.driver.Executed()
	// four spins, the stop on locating, one straight, the stop on arriving, one inverse, the final stop
	test.That(t, executed, test.ShouldResemble, []maneuver.Primitive{
		maneuver.SpinLeft, maneuver.SpinLeft, maneuver.SpinLeft, maneuver.SpinLeft, maneuver.Stop,
		maneuver.StraightForward, maneuver.Stop,
		maneuver.StraightBackward, maneuver.Stop,
	})

	payload, ok := h.nav.Payload()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, string(payload[:]), test.ShouldEqual, "1234567890")
	test.That(t, h.display.Line(1), test.ShouldEqual, ResultText)
	test.That(t, h.display.Line(2), test.ShouldEqual, "1234567890 \x01CS")
	glyph, ok := h.display.Glyph(display.CheckGlyphSlot)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, glyph, test.ShouldResemble, display.CheckGlyph)
	// once after the splash, once on arrival
	test.That(t, h.display.Clears(), test.ShouldEqual, 2)

	// producers are shut off after arrival
	test.That(t, h.frames.Enabled(), test.ShouldBeFalse)
	test.That(t, h.samples.Enabled(), test.ShouldBeFalse)

	patterns := h.indicator.Patterns()
	test.That(t, patterns[len(patterns)-1], test.ShouldEqual, pathlog.StraightForward.Code())
}

func TestReturningResumesAfterCancel(t *testing.T) {
	h := newHarness(t, 8, sensor.Snapshot{})
	for i := 0; i < 3; i++ {
		test.That(t, h.log.Append(pathlog.StraightForward), test.ShouldBeNil)
	}
	h.feedTag(t, "1234567890")
	test.That(t, h.nav.Step(context.Background()), test.ShouldBeNil)
	test.That(t, h.nav.Step(context.Background()), test.ShouldBeNil)
	test.That(t, h.nav.Phase(), test.ShouldEqual, Returning)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	backward := 0
	h.driver.onExecute = func(p maneuver.Primitive) {
		if p != maneuver.StraightBackward {
			return
		}
		if backward++; backward == 2 {
			cancel()
		}
	}
	test.That(t, h.nav.Step(ctx), test.ShouldBeNil)
	err := h.nav.Step(ctx)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
	test.That(t, h.nav.Phase(), test.ShouldEqual, Returning)

	// resuming undoes only the record that was never reached
	test.That(t, h.nav.Step(context.Background()), test.ShouldBeNil)
	test.That(t, h.nav.Phase(), test.ShouldEqual, Returning)
	test.That(t, h.nav.Step(context.Background()), test.ShouldBeNil)
	test.That(t, h.nav.Phase(), test.ShouldEqual, Displaying)
	test.That(t, backward, test.ShouldEqual, 3)

	executed := h.driver.Executed()
	test.That(t, executed[len(executed)-4:], test.ShouldResemble, []maneuver.Primitive{
		maneuver.StraightBackward, maneuver.StraightBackward, maneuver.StraightBackward, maneuver.Stop,
	})
	test.That(t, h.log.Len(), test.ShouldEqual, 3)
}

func TestPathLogOverflowHalts(t *testing.T) {
	centered := sensor.Snapshot{Cap1: 195, Cap2: 195}
	h := newHarness(t, 3, centered)
	ctx := context.Background()
	h.toTracking(t)

	for i := 0; i < 3; i++ {
		test.That(t, h.nav.Step(ctx), test.ShouldBeNil)
	}
	err := h.nav.Step(ctx)
	test.That(t, errors.Is(err, ErrHalted), test.ShouldBeTrue)
	test.That(t, errors.Is(err, pathlog.ErrCapacityExceeded), test.ShouldBeTrue)
	test.That(t, h.nav.Phase(), test.ShouldEqual, Halted)
	test.That(t, h.log.Len(), test.ShouldEqual, 3)
	test.That(t, h.driver.halts, test.ShouldEqual, 1)
	test.That(t, h.display.Line(1), test.ShouldEqual, HaltedText)

	// the primitive that did not fit was never issued
	executed := h.driver.Executed()
	test.That(t, executed[len(executed)-1], test.ShouldEqual, maneuver.StraightForward)
	// the spin and stop that found the beacon, then three straights
	test.That(t, len(executed), test.ShouldEqual, 2+3)

	// halted is sticky
	test.That(t, errors.Is(h.nav.Step(ctx), ErrHalted), test.ShouldBeTrue)
	test.That(t, h.nav.RunMission(ctx), test.ShouldNotBeNil)
}

func TestFrameOverrunHalts(t *testing.T) {
	h := newHarness(t, 8, sensor.Snapshot{})
	h.frames.Feed(frame.STX)
	for i := 0; i <= frame.MaxPayloadLen; i++ {
		h.frames.Feed('7')
	}
	err := h.nav.Step(context.Background())
	test.That(t, errors.Is(err, frame.ErrFrameOverrun), test.ShouldBeTrue)
	test.That(t, h.nav.Phase(), test.ShouldEqual, Halted)
	test.That(t, h.driver.Executed(), test.ShouldBeEmpty)
}

func TestHeartbeat(t *testing.T) {
	centered := sensor.Snapshot{Cap1: 195, Cap2: 195}
	h := newHarness(t, 8, centered)
	h.feedTag(t, "1234567890")
	test.That(t, h.nav.Heartbeat(context.Background()), test.ShouldNotBeNil)
	test.That(t, h.nav.RunMission(context.Background()), test.ShouldBeNil)

	clk := clock.NewMock()
	h.nav.clock = clk
	h.nav.conf.DwellUnit = 89 * time.Millisecond
	h.nav.conf.HeartbeatLimit = 4
	before := len(h.indicator.Patterns())

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.nav.Heartbeat(context.Background())
	}()
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		clk.Add(89 * time.Millisecond)
		test.That(tb, len(h.indicator.Patterns())-before, test.ShouldEqual, 4)
	})
	// release the final dwell
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		clk.Add(89 * time.Millisecond)
		select {
		case err := <-errCh:
			test.That(tb, err, test.ShouldBeNil)
		default:
			tb.Error("heartbeat still running")
		}
	})
	test.That(t, h.indicator.Patterns()[before:], test.ShouldResemble, []uint8{15, 0, 15, 0})
	test.That(t, h.nav.Phase(), test.ShouldEqual, Displaying)
}

func TestHeartbeatCanceled(t *testing.T) {
	h := newHarness(t, 8, sensor.Snapshot{Cap1: 195, Cap2: 195})
	h.feedTag(t, "1234567890")
	test.That(t, h.nav.RunMission(context.Background()), test.ShouldBeNil)
	h.nav.clock = clock.NewMock()
	h.nav.conf.DwellUnit = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- h.nav.Heartbeat(ctx)
	}()
	cancel()
	test.That(t, errors.Is(<-errCh, context.Canceled), test.ShouldBeTrue)
}
