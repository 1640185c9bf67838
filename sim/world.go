// Package sim is a deterministic kinematic world for running missions without hardware. It wraps a
// maneuver driver, moves a simulated chassis for every executed primitive, and plays the IR
// receivers and the tag reader the way the real producers would.
package sim

import (
	"context"
	"io"
	"math"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/beaconbot/frame"
	"go.viam.com/beaconbot/logging"
	"go.viam.com/beaconbot/maneuver"
	"go.viam.com/beaconbot/sensor"
	"go.viam.com/beaconbot/utils"
)

// Per dwell unit motion of each primitive.
const (
	SpinStep     = 5.0 // degrees
	StraightStep = 5.0 // distance
	GentleTurn   = 4.0 // degrees
	GentleStep   = 3.0 // distance
)

// Receiver model.
const (
	// FieldOfView is the largest bearing, in degrees, at which the receivers see the beacon.
	FieldOfView = 60.0
	// CenteredWindow is the largest bearing at which both receivers read the centered value.
	CenteredWindow = 3.0
	strongSample   = 200
	weakFloor      = 6
)

// Pose is the chassis position and heading. Heading is in degrees, counterclockwise from +X.
type Pose struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
}

// Config places the beacon and sets the sample the receivers report when centered.
type Config struct {
	BeaconX       float64 `json:"beacon_x"`
	BeaconY       float64 `json:"beacon_y"`
	ArrivalRadius float64 `json:"arrival_radius"`
	Tag           string  `json:"tag"`
	Start         Pose    `json:"start"`

	// CenteredThreshold follows the mission tuning.
	CenteredThreshold int `json:"-"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	if _, err := frame.DataFromString(conf.Tag); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	if conf.ArrivalRadius <= 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "arrival_radius")
	}
	return nil
}

// DefaultConfig puts the beacon 100 units ahead and 45 degrees left of a chassis at the origin.
func DefaultConfig() Config {
	return Config{
		BeaconX:           70.71,
		BeaconY:           70.71,
		ArrivalRadius:     10,
		Tag:               "0415AB8C2D",
		CenteredThreshold: 195,
	}
}

// Driver is the maneuver driver the world wraps.
type Driver interface {
	Execute(ctx context.Context, p maneuver.Primitive) error
	Halt(ctx context.Context) error
	DwellUnits(p maneuver.Primitive) int
}

// World is a simulated arena. It satisfies the navigation driver contract by delegating to the
// wrapped driver and then integrating the chassis pose.
type World struct {
	mu      sync.Mutex
	conf    Config
	tag     [frame.DataLen]byte
	pose    Pose
	driver  Driver
	store   *sensor.Store
	reader  io.Writer
	tagSent bool
	steps   int
	logger  logging.Logger
}

// NewWorld returns a world that publishes samples to store and writes the framed tag to reader on
// arrival.
func NewWorld(conf Config, driver Driver, store *sensor.Store, reader io.Writer, logger logging.Logger) (*World, error) {
	tag, err := frame.DataFromString(conf.Tag)
	if err != nil {
		return nil, err
	}
	if conf.ArrivalRadius <= 0 {
		return nil, errors.New("arrival radius must be positive")
	}
	if conf.CenteredThreshold <= 0 || conf.CenteredThreshold > sensor.MaxSample {
		return nil, errors.Errorf("centered threshold %d out of range 1-%d", conf.CenteredThreshold, sensor.MaxSample)
	}
	w := &World{
		conf:   conf,
		tag:    tag,
		pose:   conf.Start,
		driver: driver,
		store:  store,
		reader: reader,
		logger: logger,
	}
	w.publish()
	return w, nil
}

// Execute runs the primitive on the wrapped driver and moves the chassis for its full dwell.
func (w *World) Execute(ctx context.Context, p maneuver.Primitive) error {
	if err := w.driver.Execute(ctx, p); err != nil {
		return err
	}
	units := w.driver.DwellUnits(p)
	w.mu.Lock()
	for i := 0; i < units; i++ {
		w.pose = step(w.pose, p)
	}
	w.steps++
	pose := w.pose
	w.mu.Unlock()

	w.logger.Debugw("moved", "primitive", p.String(), "x", pose.X, "y", pose.Y, "heading", pose.Heading)
	w.publish()
	return nil
}

// Halt halts the wrapped driver.
func (w *World) Halt(ctx context.Context) error {
	return w.driver.Halt(ctx)
}

// DwellUnits delegates to the wrapped driver.
func (w *World) DwellUnits(p maneuver.Primitive) int {
	return w.driver.DwellUnits(p)
}

// Pose returns the chassis pose.
func (w *World) Pose() Pose {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pose
}

// Steps returns the number of primitives executed.
func (w *World) Steps() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.steps
}

// DistanceToBeacon returns the distance from the chassis to the beacon.
func (w *World) DistanceToBeacon() float64 {
	pose := w.Pose()
	return math.Hypot(w.conf.BeaconX-pose.X, w.conf.BeaconY-pose.Y)
}

// Bearing returns the beacon direction relative to the heading in degrees, positive to the right,
// in (-180, 180].
func (w *World) Bearing() float64 {
	pose := w.Pose()
	target := degrees(math.Atan2(w.conf.BeaconY-pose.Y, w.conf.BeaconX-pose.X))
	return normalize(pose.Heading - target)
}

// Samples models both receivers for a bearing. Cap1 faces right.
func Samples(bearing float64, centered int) sensor.Snapshot {
	abs := math.Abs(bearing)
	switch {
	case abs > FieldOfView:
		return sensor.Snapshot{}
	case abs <= CenteredWindow:
		return sensor.Snapshot{Cap1: centered, Cap2: centered}
	}
	weak := strongSample - int(math.Round(2*abs))
	if weak < weakFloor {
		weak = weakFloor
	}
	if bearing > 0 {
		return sensor.Snapshot{Cap1: strongSample, Cap2: weak}
	}
	return sensor.Snapshot{Cap1: weak, Cap2: strongSample}
}

// publish updates the receivers and, once within range, sends the tag.
func (w *World) publish() {
	snap := Samples(w.Bearing(), w.conf.CenteredThreshold)
	w.store.UpdateChannel(sensor.Cap1, snap.Cap1)
	w.store.UpdateChannel(sensor.Cap2, snap.Cap2)

	if w.DistanceToBeacon() > w.conf.ArrivalRadius {
		return
	}
	w.mu.Lock()
	sent := w.tagSent
	w.tagSent = true
	w.mu.Unlock()
	if sent {
		return
	}
	w.logger.Infow("tag in range", "tag", w.conf.Tag)
	if _, err := w.reader.Write(frame.Encode(w.tag)); err != nil {
		w.logger.Warnw("failed to deliver tag", "error", err)
	}
}

// step advances the pose by one dwell unit of p. Forward primitives turn then move; their
// backward inverses move then turn, so a primitive followed by its inverse restores the pose.
func step(pose Pose, p maneuver.Primitive) Pose {
	switch p {
	case maneuver.SpinLeft:
		pose.Heading += SpinStep
	case maneuver.SpinRight:
		pose.Heading -= SpinStep
	case maneuver.StraightForward:
		pose = move(pose, StraightStep)
	case maneuver.StraightBackward:
		pose = move(pose, -StraightStep)
	case maneuver.GentleRightForward:
		pose.Heading -= GentleTurn
		pose = move(pose, GentleStep)
	case maneuver.GentleLeftForward:
		pose.Heading += GentleTurn
		pose = move(pose, GentleStep)
	case maneuver.GentleLeftBackward:
		pose = move(pose, -GentleStep)
		pose.Heading += GentleTurn
	case maneuver.GentleRightBackward:
		pose = move(pose, -GentleStep)
		pose.Heading -= GentleTurn
	case maneuver.Stop:
	}
	pose.Heading = normalize(pose.Heading)
	return pose
}

func move(pose Pose, dist float64) Pose {
	rad := radians(pose.Heading)
	pose.X += dist * math.Cos(rad)
	pose.Y += dist * math.Sin(rad)
	return pose
}

func normalize(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg <= -180 {
		deg += 360
	} else if deg > 180 {
		deg -= 360
	}
	return deg
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
