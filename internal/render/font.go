package render

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FaceResolver hands out font faces by point size.
type FaceResolver interface {
	Resolve(size int) (font.Face, error)
}

// FontResolver parses one font file and caches a face per size.
// Faces are not safe for concurrent drawing; Renderer serializes its users.
type FontResolver struct {
	mu    sync.Mutex
	font  *opentype.Font
	name  string
	faces map[int]font.Face
}

// NewFontResolver loads the font at path. An empty path uses the embedded Go
// Regular font, which has no CJK glyphs; configure a CJK font for Chinese text.
func NewFontResolver(path string) (*FontResolver, error) {
	data := goregular.TTF
	name := "goregular"
	if p := strings.TrimSpace(path); p != "" {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read font %q: %w", p, err)
		}
		data = b
		name = p
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %q: %w", name, err)
	}
	return &FontResolver{font: f, name: name, faces: map[int]font.Face{}}, nil
}

// Name returns the font path (or "goregular").
func (r *FontResolver) Name() string { return r.name }

func (r *FontResolver) Resolve(size int) (font.Face, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: font size must be > 0 (got %d)", ErrInvalidArgument, size)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.faces[size]; ok {
		return f, nil
	}
	face, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("font face %dpt: %w", size, err)
	}
	r.faces[size] = face
	return face, nil
}

// Close releases every cached face.
func (r *FontResolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var first error
	for size, f := range r.faces {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
		delete(r.faces, size)
	}
	return first
}
