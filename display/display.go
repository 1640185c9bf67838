// Package display defines the character display and visual indicator collaborators and a
// console rendering of both.
package display

import (
	"context"

	"github.com/pkg/errors"
)

// Geometry of the character display.
const (
	Rows    = 2
	Columns = 16
	// GlyphSlots is the number of custom glyphs the display can hold, addressed as bytes 0-7.
	GlyphSlots = 8
)

// CheckGlyphSlot is where the validated-frame check mark is registered.
const CheckGlyphSlot = 1

// CheckGlyph is the 5x8 check mark shown after a validated payload.
var CheckGlyph = [8]byte{0x00, 0x01, 0x03, 0x16, 0x1C, 0x08, 0x00, 0x00}

// A Display shows status text on a two row character display.
type Display interface {
	// WriteLine replaces the contents of row 1 or 2. Bytes below GlyphSlots render the glyph
	// registered in that slot.
	WriteLine(ctx context.Context, row int, text string) error
	Clear(ctx context.Context) error
	RegisterGlyph(ctx context.Context, slot int, pattern [8]byte) error
}

// An Indicator renders a 4-bit on/off pattern.
type Indicator interface {
	Show(ctx context.Context, pattern uint8) error
}

// IndicatorMask is the set of bits an Indicator renders.
const IndicatorMask = 0x0F

// ValidateRow checks that row addresses a display line.
func ValidateRow(row int) error {
	if row < 1 || row > Rows {
		return errors.Errorf("display row %d out of range 1-%d", row, Rows)
	}
	return nil
}

// ValidateSlot checks that slot addresses a glyph.
func ValidateSlot(slot int) error {
	if slot < 0 || slot >= GlyphSlots {
		return errors.Errorf("glyph slot %d out of range 0-%d", slot, GlyphSlots-1)
	}
	return nil
}

// Fit truncates text to the display width.
func Fit(text string) string {
	if len(text) > Columns {
		return text[:Columns]
	}
	return text
}
