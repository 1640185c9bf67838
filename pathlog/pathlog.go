// Package pathlog records the motion primitives issued on the outbound leg and replays their
// inverses, newest first, to retrace the path.
package pathlog

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/beaconbot/maneuver"
)

// DefaultCapacity is the historical number of records a log can hold.
const DefaultCapacity = 255

// ErrCapacityExceeded is returned by Append once the log is full. It is fatal to a mission.
var ErrCapacityExceeded = errors.New("path log capacity exceeded")

// Record identifies the primitive issued in one outbound control cycle.
type Record uint8

// The recorded motions.
const (
	SpinSearch Record = iota
	StraightForward
	AdjustRight
	AdjustLeft
)

var recordNames = map[Record]string{
	SpinSearch:      "spin_search",
	StraightForward: "straight_forward",
	AdjustRight:     "adjust_right",
	AdjustLeft:      "adjust_left",
}

func (r Record) String() string {
	if name, ok := recordNames[r]; ok {
		return name
	}
	return fmt.Sprintf("record(%d)", uint8(r))
}

// Forward returns the primitive issued when the record was made.
func (r Record) Forward() maneuver.Primitive {
	switch r {
	case SpinSearch:
		return maneuver.SpinLeft
	case StraightForward:
		return maneuver.StraightForward
	case AdjustRight:
		return maneuver.GentleRightForward
	case AdjustLeft:
		return maneuver.GentleLeftForward
	default:
		panic(errors.Errorf("unknown path record %d", uint8(r)))
	}
}

// Code is the 4-bit indicator pattern shown while the record is being undone.
func (r Record) Code() uint8 {
	switch r {
	case AdjustRight:
		return 1
	case AdjustLeft:
		return 2
	case StraightForward:
		return 3
	case SpinSearch:
		return 4
	default:
		return 0
	}
}

// Inverse maps a record to the primitive that undoes it. The mapping is total over the
// defined records.
func Inverse(r Record) maneuver.Primitive {
	switch r {
	case SpinSearch:
		return maneuver.SpinRight
	case StraightForward:
		return maneuver.StraightBackward
	case AdjustRight:
		return maneuver.GentleLeftBackward
	case AdjustLeft:
		return maneuver.GentleRightBackward
	default:
		panic(errors.Errorf("unknown path record %d", uint8(r)))
	}
}

// FromInverse maps an inverse primitive back to the record it undoes.
func FromInverse(p maneuver.Primitive) (Record, error) {
	switch p {
	case maneuver.SpinRight:
		return SpinSearch, nil
	case maneuver.StraightBackward:
		return StraightForward, nil
	case maneuver.GentleLeftBackward:
		return AdjustRight, nil
	case maneuver.GentleRightBackward:
		return AdjustLeft, nil
	default:
		return 0, errors.Errorf("%s is not the inverse of any path record", p)
	}
}

// Log is a bounded, append-only sequence of records. It is owned by the navigation loop and is
// not safe for concurrent use.
type Log struct {
	records []Record
}

// New returns an empty log holding at most capacity records.
func New(capacity int) *Log {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Log{records: make([]Record, 0, capacity)}
}

// Append adds a record. A full log is left unchanged and ErrCapacityExceeded is returned.
func (l *Log) Append(r Record) error {
	if len(l.records) == cap(l.records) {
		return errors.Wrapf(ErrCapacityExceeded, "cannot append %s to %d records", r, cap(l.records))
	}
	l.records = append(l.records, r)
	return nil
}

// Len returns the number of records.
func (l *Log) Len() int {
	return len(l.records)
}

// Cap returns the capacity.
func (l *Log) Cap() int {
	return cap(l.records)
}

// Records returns a copy of the records in append order.
func (l *Log) Records() []Record {
	return append([]Record(nil), l.records...)
}

// ReverseReplay calls emit for every record from the last appended to the first, passing the
// record and its inverse primitive. It stops at the first error emit returns. The log is not
// modified.
func (l *Log) ReverseReplay(emit func(r Record, inverse maneuver.Primitive) error) error {
	replay := l.Replay()
	for r, inverse, ok := replay.Peek(); ok; r, inverse, ok = replay.Peek() {
		if err := emit(r, inverse); err != nil {
			return err
		}
		replay.Advance()
	}
	return nil
}

// A Replay is a cursor over a log's records from the last appended to the first. It lets a
// caller undo one record at a time and pick up where it left off after an interruption.
type Replay struct {
	log  *Log
	next int
}

// Replay returns a cursor positioned at the last record.
func (l *Log) Replay() *Replay {
	return &Replay{log: l, next: len(l.records)}
}

// Peek returns the record under the cursor and its inverse. ok is false once every record has
// been undone.
func (rp *Replay) Peek() (r Record, inverse maneuver.Primitive, ok bool) {
	if rp.next == 0 {
		return 0, 0, false
	}
	r = rp.log.records[rp.next-1]
	return r, Inverse(r), true
}

// Advance moves the cursor to the next older record.
func (rp *Replay) Advance() {
	if rp.next > 0 {
		rp.next--
	}
}

// Remaining returns how many records are left to undo.
func (rp *Replay) Remaining() int {
	return rp.next
}

// Reversed returns the inverse primitives in replay order.
func (l *Log) Reversed() []maneuver.Primitive {
	return lo.Map(lo.Reverse(l.Records()), func(r Record, _ int) maneuver.Primitive {
		return Inverse(r)
	})
}

// Summary counts the records of each kind.
func (l *Log) Summary() map[Record]int {
	return lo.CountValues(l.records)
}
