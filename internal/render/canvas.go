package render

import (
	"fmt"
)

// Canvas is what a Scene draws on. It is only valid during Renderer.Draw.
type Canvas struct {
	surface  Surface
	width    int
	height   int
	fontSize int
}

func (c *Canvas) Width() int    { return c.width }
func (c *Canvas) Height() int   { return c.height }
func (c *Canvas) FontSize() int { return c.fontSize }

// DrawText draws one string with its top-left corner at (x, y).
// fontSize 0 uses the renderer default; an empty fill draws black.
func (c *Canvas) DrawText(x, y float64, text string, fontSize int, fill string) error {
	if c == nil || c.surface == nil {
		return fmt.Errorf("%w: canvas not allocated", ErrSurface)
	}
	if fontSize == 0 {
		fontSize = c.fontSize
	}
	col, err := ParseColor(fill)
	if err != nil {
		return err
	}
	return c.surface.DrawText(x, y, text, fontSize, col)
}

// DrawTextCenter lays out texts as one line at y and draws them.
//
// sizes and fills follow BuildSegments' broadcast rules. pivot is an index
// into texts whose segment gets centered, or NoPivot to center the whole run.
func (c *Canvas) DrawTextCenter(y float64, texts []string, sizes []int, fills []string, pivot int) error {
	if c == nil || c.surface == nil {
		return fmt.Errorf("%w: canvas not allocated", ErrSurface)
	}
	segs, err := BuildSegments(texts, sizes, fills, c.fontSize)
	if err != nil {
		return err
	}
	pts, err := Layout(LayoutRequest{CanvasWidth: c.width, Y: y, Segments: segs, Pivot: pivot})
	if err != nil {
		return err
	}
	for i, seg := range segs {
		if err := c.surface.DrawText(pts[i].X, pts[i].Y, seg.Text, seg.FontSize, seg.Fill); err != nil {
			return err
		}
	}
	return nil
}
