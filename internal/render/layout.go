package render

import (
	"fmt"
	"image/color"
)

// NoPivot asks Layout to center the whole run instead of anchoring one segment.
const NoPivot = -1

// Segment is one piece of text drawn on a single line.
type Segment struct {
	Text     string
	FontSize int
	Fill     color.Color
}

// Point is a draw origin (top-left of the text box).
type Point struct {
	X float64
	Y float64
}

// LayoutRequest describes one centered line.
type LayoutRequest struct {
	CanvasWidth int
	// Y is the baseline requested by the caller; smaller segments are shifted down from it.
	Y        float64
	Segments []Segment
	// Pivot is an index into Segments or NoPivot.
	Pivot int
}

// cjkFirst..cjkLast is the ideograph block that counts as full width.
const (
	cjkFirst = '\u4e00'
	cjkLast  = '\u9fa5'
)

func charWeight(r rune) float64 {
	if r >= cjkFirst && r <= cjkLast {
		return 1
	}
	return 0.5
}

// EstimateWidth approximates the rendered width of text at fontSize.
//
// Ideographs count as one em and everything else as half an em. Layout always
// uses this estimate, even when real font metrics are available, so output
// stays stable across fonts.
func EstimateWidth(text string, fontSize int) float64 {
	var w float64
	size := float64(fontSize)
	for _, r := range text {
		w += charWeight(r) * size
	}
	return w
}

// Layout computes the start position of every segment so that the run is
// centered on the canvas, or, with a pivot, so that the pivot segment is
// centered and the rest are packed against it on both sides.
//
// The result has the same length and order as req.Segments. On error no
// positions are returned.
func Layout(req LayoutRequest) ([]Point, error) {
	if req.CanvasWidth <= 0 {
		return nil, fmt.Errorf("%w: canvas width must be > 0 (got %d)", ErrInvalidArgument, req.CanvasWidth)
	}
	n := len(req.Segments)
	if req.Pivot != NoPivot && (req.Pivot < 0 || req.Pivot >= n) {
		return nil, fmt.Errorf("%w: pivot %d out of range for %d segments", ErrInvalidArgument, req.Pivot, n)
	}
	if n == 0 {
		return []Point{}, nil
	}

	widths := make([]float64, n)
	maxSize := 0
	for i, seg := range req.Segments {
		if seg.FontSize <= 0 {
			return nil, fmt.Errorf("%w: segment %d font size must be > 0 (got %d)", ErrInvalidArgument, i, seg.FontSize)
		}
		widths[i] = EstimateWidth(seg.Text, seg.FontSize)
		if seg.FontSize > maxSize {
			maxSize = seg.FontSize
		}
	}

	canvas := float64(req.CanvasWidth)
	xs := make([]float64, n)
	if req.Pivot == NoPivot {
		var total float64
		for _, w := range widths {
			total += w
		}
		xs[0] = (canvas - total) / 2
		for i := 1; i < n; i++ {
			xs[i] = xs[i-1] + widths[i-1]
		}
	} else {
		p := req.Pivot
		xs[p] = (canvas - widths[p]) / 2
		for i := p - 1; i >= 0; i-- {
			xs[i] = xs[i+1] - widths[i]
		}
		for i := p + 1; i < n; i++ {
			xs[i] = xs[i-1] + widths[i-1]
		}
	}

	out := make([]Point, n)
	for i, seg := range req.Segments {
		out[i] = Point{X: xs[i], Y: req.Y + float64(maxSize-seg.FontSize)}
	}
	return out, nil
}

// BuildSegments zips texts with per-segment sizes and fills.
//
// An empty sizes (or fills) list means "use the default for every segment";
// a single entry is broadcast to all segments. Any other length that does not
// match len(texts) is rejected as ambiguous.
func BuildSegments(texts []string, sizes []int, fills []string, defaultSize int) ([]Segment, error) {
	n := len(texts)
	if len(sizes) != 0 && len(sizes) != 1 && len(sizes) != n {
		return nil, fmt.Errorf("%w: %d font sizes for %d segments", ErrInvalidArgument, len(sizes), n)
	}
	if len(fills) != 0 && len(fills) != 1 && len(fills) != n {
		return nil, fmt.Errorf("%w: %d fills for %d segments", ErrInvalidArgument, len(fills), n)
	}

	segs := make([]Segment, n)
	for i, text := range texts {
		size := defaultSize
		switch len(sizes) {
		case 0:
		case 1:
			size = sizes[0]
		default:
			size = sizes[i]
		}
		hex := DefaultFill
		switch len(fills) {
		case 0:
		case 1:
			hex = fills[0]
		default:
			hex = fills[i]
		}
		c, err := ParseColor(hex)
		if err != nil {
			return nil, err
		}
		segs[i] = Segment{Text: text, FontSize: size, Fill: c}
	}
	return segs, nil
}
