package display

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Console renders the display and indicator as colored terminal lines. Each update reprints the
// changed element.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	lines  [Rows]string
	glyphs map[byte]string

	frame *color.Color
	text  *color.Color
	on    *color.Color
	off   *color.Color
}

// NewConsole returns a console display writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{
		out:    out,
		glyphs: map[byte]string{},
		frame:  color.New(color.FgHiBlack),
		text:   color.New(color.FgHiGreen, color.Bold),
		on:     color.New(color.FgHiRed, color.Bold),
		off:    color.New(color.FgHiBlack),
	}
}

// WriteLine implements Display.
func (c *Console) WriteLine(ctx context.Context, row int, text string) error {
	if err := ValidateRow(row); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines[row-1] = Fit(text)
	return c.render(row)
}

// Clear implements Display.
func (c *Console) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = [Rows]string{}
	_, err := c.frame.Fprintln(c.out, "|"+strings.Repeat(" ", Columns)+"| cleared")
	return err
}

// RegisterGlyph implements Display. The console draws registered glyphs as a check mark.
func (c *Console) RegisterGlyph(ctx context.Context, slot int, pattern [8]byte) error {
	if err := ValidateSlot(slot); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.glyphs[byte(slot)] = "✓"
	return nil
}

// Show implements Indicator.
func (c *Console) Show(ctx context.Context, pattern uint8) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var sb strings.Builder
	for bit := 3; bit >= 0; bit-- {
		if pattern&(1<<bit) != 0 {
			sb.WriteString(c.on.Sprint("●"))
		} else {
			sb.WriteString(c.off.Sprint("○"))
		}
	}
	_, err := fmt.Fprintf(c.out, "[%s] %04b\n", sb.String(), pattern&IndicatorMask)
	return err
}

// Lines returns the current rows as rendered, with glyphs substituted.
func (c *Console) Lines() [Rows]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out [Rows]string
	for i, l := range c.lines {
		out[i] = c.substitute(l)
	}
	return out
}

func (c *Console) render(row int) error {
	line := c.substitute(c.lines[row-1])
	pad := Columns - len([]rune(line))
	if pad < 0 {
		pad = 0
	}
	_, err := fmt.Fprintf(c.out, "%s%s%s %d\n",
		c.frame.Sprint("|"), c.text.Sprint(line+strings.Repeat(" ", pad)), c.frame.Sprint("|"), row)
	return err
}

func (c *Console) substitute(line string) string {
	var sb strings.Builder
	for i := 0; i < len(line); i++ {
		b := line[i]
		if b < GlyphSlots {
			if g, ok := c.glyphs[b]; ok {
				sb.WriteString(g)
			} else {
				sb.WriteByte('?')
			}
			continue
		}
		sb.WriteByte(b)
	}
	return sb.String()
}
