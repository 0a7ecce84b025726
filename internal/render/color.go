package render

import (
	"fmt"
	"image/color"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// DefaultFill is used when a segment has no explicit fill.
const DefaultFill = "#000000"

// ParseColor parses "#rrggbb" (or "#rgb") into an opaque color.
// An empty string yields DefaultFill.
func ParseColor(hex string) (color.Color, error) {
	s := strings.TrimSpace(hex)
	if s == "" {
		s = DefaultFill
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return nil, fmt.Errorf("%w: fill %q: %v", ErrInvalidArgument, hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}
