// Package fake implements display collaborators that record what they are asked to show.
package fake

import (
	"context"
	"sync"

	"go.viam.com/beaconbot/display"
)

// Write is one recorded line write.
type Write struct {
	Row  int
	Text string
}

// Display records writes, clears and glyph registrations.
type Display struct {
	mu     sync.Mutex
	lines  [display.Rows]string
	writes []Write
	clears int
	glyphs map[int][8]byte
}

// NewDisplay returns an empty recording display.
func NewDisplay() *Display {
	return &Display{glyphs: map[int][8]byte{}}
}

// WriteLine implements display.Display.
func (d *Display) WriteLine(ctx context.Context, row int, text string) error {
	if err := display.ValidateRow(row); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lines[row-1] = text
	d.writes = append(d.writes, Write{row, text})
	return nil
}

// Clear implements display.Display.
func (d *Display) Clear(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lines = [display.Rows]string{}
	d.clears++
	return nil
}

// RegisterGlyph implements display.Display.
func (d *Display) RegisterGlyph(ctx context.Context, slot int, pattern [8]byte) error {
	if err := display.ValidateSlot(slot); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.glyphs[slot] = pattern
	return nil
}

// Line returns the current text of row 1 or 2.
func (d *Display) Line(row int) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lines[row-1]
}

// Writes returns every line write in order.
func (d *Display) Writes() []Write {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Write(nil), d.writes...)
}

// Clears returns how many times the display was cleared.
func (d *Display) Clears() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clears
}

// Glyph returns the pattern registered in slot.
func (d *Display) Glyph(slot int) ([8]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	g, ok := d.glyphs[slot]
	return g, ok
}

// Indicator records every pattern it is shown.
type Indicator struct {
	mu       sync.Mutex
	patterns []uint8
}

// Show implements display.Indicator.
func (i *Indicator) Show(ctx context.Context, pattern uint8) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.patterns = append(i.patterns, pattern&display.IndicatorMask)
	return nil
}

// Patterns returns every shown pattern in order.
func (i *Indicator) Patterns() []uint8 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]uint8(nil), i.patterns...)
}
