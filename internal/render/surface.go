package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// maxPixels bounds a single canvas (4096x4096).
const maxPixels = 4096 * 4096

// Surface is a drawable bitmap. Release must be safe to call more than once.
type Surface interface {
	Size() (width, height int)
	// DrawText draws text with its line box's top-left corner at (x, y).
	DrawText(x, y float64, text string, fontSize int, fill color.Color) error
	Export(w io.Writer) error
	Release()
}

// Allocator creates a surface of the given size.
type Allocator func(width, height int) (Surface, error)

// RGBAAllocator returns an Allocator producing white RGBA surfaces that draw
// with faces from fonts.
func RGBAAllocator(fonts FaceResolver) Allocator {
	return func(width, height int) (Surface, error) {
		return newRGBASurface(width, height, fonts)
	}
}

type rgbaSurface struct {
	img   *image.RGBA
	fonts FaceResolver
	w, h  int
}

func newRGBASurface(width, height int, fonts FaceResolver) (*rgbaSurface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: canvas %dx%d", ErrInvalidArgument, width, height)
	}
	if width*height > maxPixels {
		return nil, fmt.Errorf("%w: canvas %dx%d exceeds %d pixels", ErrSurface, width, height, maxPixels)
	}
	if fonts == nil {
		return nil, fmt.Errorf("%w: no font resolver", ErrSurface)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	return &rgbaSurface{img: img, fonts: fonts, w: width, h: height}, nil
}

func (s *rgbaSurface) Size() (int, int) { return s.w, s.h }

func (s *rgbaSurface) DrawText(x, y float64, text string, fontSize int, fill color.Color) error {
	if s.img == nil {
		return fmt.Errorf("%w: draw after release", ErrSurface)
	}
	if text == "" {
		return nil
	}
	face, err := s.fonts.Resolve(fontSize)
	if err != nil {
		return err
	}
	if fill == nil {
		fill = color.Black
	}
	d := &font.Drawer{
		Dst:  s.img,
		Src:  image.NewUniform(fill),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.Int26_6(x * 64),
			Y: fixed.Int26_6(y*64) + face.Metrics().Ascent,
		},
	}
	d.DrawString(text)
	return nil
}

func (s *rgbaSurface) Export(w io.Writer) error {
	if s.img == nil {
		return fmt.Errorf("%w: export after release", ErrSurface)
	}
	if err := png.Encode(w, s.img); err != nil {
		return fmt.Errorf("%w: png encode: %v", ErrSurface, err)
	}
	return nil
}

func (s *rgbaSurface) Release() {
	s.img = nil
}
