// Package frame assembles identification frames from a byte stream and validates their checksum.
//
// An Assembler is fed one byte at a time by a single asynchronous producer. The producer's work
// per byte is bounded: it never logs, allocates, or blocks. Results are published to the
// navigation loop through atomic flags; the accepted payload is written before the valid flag is
// raised and never changes afterwards.
package frame

import (
	"go.uber.org/atomic"
)

type state int

const (
	idle state = iota
	collecting
)

// Assembler is the frame state machine. The zero value is ready to use.
type Assembler struct {
	// owned by the feeding producer
	state state
	buf   [MaxPayloadLen]byte
	n     int

	payload    [DataLen]byte
	valid      atomic.Bool
	overrun    atomic.Bool
	disabled   atomic.Bool
	rejections atomic.Uint32
}

// NewAssembler returns an idle assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Feed consumes one byte. Bytes are ignored once a frame has been accepted, after an overrun, or
// after Disable.
func (a *Assembler) Feed(b byte) {
	if a.disabled.Load() || a.valid.Load() || a.overrun.Load() {
		return
	}
	switch a.state {
	case idle:
		if b == STX {
			a.state = collecting
			a.n = 0
		}
	case collecting:
		switch {
		case b == STX:
			// resynchronize on a new start marker
			a.n = 0
		case b == ETX:
			a.state = idle
			a.evaluate()
		case a.n == MaxPayloadLen:
			a.state = idle
			a.n = 0
			a.overrun.Store(true)
		default:
			a.buf[a.n] = b
			a.n++
		}
	}
}

// Write feeds every byte of p. It never fails.
func (a *Assembler) Write(p []byte) (int, error) {
	for _, b := range p {
		a.Feed(b)
	}
	return len(p), nil
}

func (a *Assembler) evaluate() {
	payload := a.buf[:a.n]
	if n := len(payload); n >= 2 && payload[n-2] == '\r' && payload[n-1] == '\n' {
		payload = payload[:n-2]
	}
	if len(payload) != PayloadLen {
		a.rejections.Inc()
		return
	}
	var data [DataLen]byte
	copy(data[:], payload[:DataLen])
	if Checksum(data) != HexPair(payload[DataLen], payload[DataLen+1]) {
		a.rejections.Inc()
		return
	}
	a.payload = data
	a.valid.Store(true)
}

// Valid reports whether a frame has been accepted. Once true it stays true.
func (a *Assembler) Valid() bool {
	return a.valid.Load()
}

// Payload returns the accepted data, or false if no frame has been accepted yet.
func (a *Assembler) Payload() ([DataLen]byte, bool) {
	if !a.valid.Load() {
		return [DataLen]byte{}, false
	}
	return a.payload, true
}

// Rejections returns how many terminated frames failed validation.
func (a *Assembler) Rejections() uint32 {
	return a.rejections.Load()
}

// Fault returns ErrFrameOverrun if a frame overran its bound, else nil.
func (a *Assembler) Fault() error {
	if a.overrun.Load() {
		return ErrFrameOverrun
	}
	return nil
}

// Disable makes the assembler ignore all further bytes.
func (a *Assembler) Disable() {
	a.disabled.Store(true)
}

// Enabled reports whether bytes are being consumed.
func (a *Assembler) Enabled() bool {
	return !a.disabled.Load()
}
