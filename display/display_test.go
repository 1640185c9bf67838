package display

import (
	"bytes"
	"context"
	"testing"

	"github.com/fatih/color"
	"go.viam.com/test"
)

func TestValidate(t *testing.T) {
	test.That(t, ValidateRow(1), test.ShouldBeNil)
	test.That(t, ValidateRow(2), test.ShouldBeNil)
	test.That(t, ValidateRow(0), test.ShouldNotBeNil)
	test.That(t, ValidateRow(3), test.ShouldNotBeNil)
	test.That(t, ValidateSlot(CheckGlyphSlot), test.ShouldBeNil)
	test.That(t, ValidateSlot(GlyphSlots), test.ShouldNotBeNil)
	test.That(t, Fit("a line that is far too long"), test.ShouldEqual, "a line that is f")
}

func TestConsole(t *testing.T) {
	color.NoColor = true
	ctx := context.Background()
	var buf bytes.Buffer
	c := NewConsole(&buf)

	test.That(t, c.RegisterGlyph(ctx, CheckGlyphSlot, CheckGlyph), test.ShouldBeNil)
	test.That(t, c.WriteLine(ctx, 1, "DISARM CODE:"), test.ShouldBeNil)
	test.That(t, c.WriteLine(ctx, 2, "1234567890 \x01CS"), test.ShouldBeNil)
	test.That(t, c.Lines(), test.ShouldResemble, [Rows]string{"DISARM CODE:", "1234567890 ✓CS"})
	test.That(t, buf.String(), test.ShouldContainSubstring, "|DISARM CODE:    | 1")
	test.That(t, c.WriteLine(ctx, 3, "nope"), test.ShouldNotBeNil)

	test.That(t, c.Show(ctx, 0b1010), test.ShouldBeNil)
	test.That(t, buf.String(), test.ShouldContainSubstring, "[●○●○] 1010")

	test.That(t, c.Clear(ctx), test.ShouldBeNil)
	test.That(t, c.Lines(), test.ShouldResemble, [Rows]string{})
}
