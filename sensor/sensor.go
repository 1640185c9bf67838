// Package sensor holds the latest quantized pulse-strength sample from each IR receiver.
//
// A Store is written by asynchronous capture producers and read by the navigation loop. Every
// cell is a single atomic word so a producer never blocks and a reader never sees a torn value.
// There is no cross-cell atomicity: a Snapshot reads each cell once, independently.
package sensor

import (
	"fmt"

	"go.uber.org/atomic"
)

// MaxSample is the largest value a channel can hold.
const MaxSample = 255

// ChannelID names one of the two IR receivers.
type ChannelID int

// The receivers. Cap1 sits on the right of the chassis, Cap2 on the left.
const (
	Cap1 ChannelID = iota
	Cap2
)

func (id ChannelID) String() string {
	switch id {
	case Cap1:
		return "cap1"
	case Cap2:
		return "cap2"
	default:
		return fmt.Sprintf("cap(%d)", int(id))
	}
}

// Snapshot is one read of both channels.
type Snapshot struct {
	Cap1 int
	Cap2 int
}

func (s Snapshot) String() string {
	return fmt.Sprintf("C1 %d C2 %d", s.Cap1, s.Cap2)
}

// Store is the pair of sample cells. The zero value is ready to use and enabled.
type Store struct {
	cap1     atomic.Uint32
	cap2     atomic.Uint32
	disabled atomic.Bool
	updates  atomic.Uint32
}

// NewStore returns an empty, enabled store.
func NewStore() *Store {
	return &Store{}
}

// UpdateChannel overwrites the channel's sample with value clamped to 0-255. Updates to an
// unknown channel or to a disabled store are dropped.
func (s *Store) UpdateChannel(id ChannelID, value int) {
	if s.disabled.Load() {
		return
	}
	cell := s.cell(id)
	if cell == nil {
		return
	}
	cell.Store(uint32(Clamp(value)))
	s.updates.Inc()
}

// ReadChannel returns the channel's latest sample, or 0 if it was never written.
func (s *Store) ReadChannel(id ChannelID) int {
	cell := s.cell(id)
	if cell == nil {
		return 0
	}
	return int(cell.Load())
}

// Snapshot reads each channel exactly once.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{Cap1: int(s.cap1.Load()), Cap2: int(s.cap2.Load())}
}

// Disable stops the store from accepting further updates. The last samples remain readable.
func (s *Store) Disable() {
	s.disabled.Store(true)
}

// Enabled reports whether updates are accepted.
func (s *Store) Enabled() bool {
	return !s.disabled.Load()
}

// Updates returns how many updates have been accepted.
func (s *Store) Updates() uint32 {
	return s.updates.Load()
}

func (s *Store) cell(id ChannelID) *atomic.Uint32 {
	switch id {
	case Cap1:
		return &s.cap1
	case Cap2:
		return &s.cap2
	default:
		return nil
	}
}

// Clamp limits a raw value to the 0-255 sample range.
func Clamp(value int) int {
	if value < 0 {
		return 0
	}
	if value > MaxSample {
		return MaxSample
	}
	return value
}
