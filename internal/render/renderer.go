package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	logx "csgobot/pkg/logx"
)

// DefaultFontSize matches the size most scenes are designed around.
const DefaultFontSize = 32

// Scene draws one kind of image. Each presentation scenario implements it.
type Scene interface {
	Name() string
	Render(c *Canvas, content any) error
}

// SceneFunc adapts a function to Scene.
type SceneFunc struct {
	ID string
	Fn func(c *Canvas, content any) error
}

func (f SceneFunc) Name() string                        { return f.ID }
func (f SceneFunc) Render(c *Canvas, content any) error { return f.Fn(c, content) }

// Renderer runs scenes against freshly allocated surfaces.
//
// Draw calls are serialized: font faces are shared and not safe for
// concurrent use, and it keeps at most one canvas alive at a time.
type Renderer struct {
	mu       sync.Mutex
	alloc    Allocator
	fontSize int
	log      logx.Logger
}

type Option func(*Renderer)

// WithAllocator replaces the surface allocator (tests use it to observe release).
func WithAllocator(a Allocator) Option { return func(r *Renderer) { r.alloc = a } }

func WithLogger(log logx.Logger) Option { return func(r *Renderer) { r.log = log } }

// WithFontSize sets the default font size used when a scene passes 0.
func WithFontSize(size int) Option {
	return func(r *Renderer) {
		if size > 0 {
			r.fontSize = size
		}
	}
}

// New builds a renderer drawing with faces from fonts.
func New(fonts FaceResolver, opts ...Option) *Renderer {
	r := &Renderer{
		alloc:    RGBAAllocator(fonts),
		fontSize: DefaultFontSize,
		log:      logx.Nop(),
	}
	for _, o := range opts {
		o(r)
	}
	if r.log.IsZero() {
		r.log = logx.Nop()
	}
	return r
}

// DrawPNG allocates a width x height canvas, lets scene draw content on it and
// returns the PNG encoding. The canvas is released on every path.
func (r *Renderer) DrawPNG(ctx context.Context, scene Scene, width, height int, content any) ([]byte, error) {
	if scene == nil {
		return nil, fmt.Errorf("%w: nil scene", ErrInvalidArgument)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	surf, err := r.alloc(width, height)
	if err != nil {
		return nil, fmt.Errorf("allocate %dx%d: %w", width, height, err)
	}
	defer surf.Release()

	c := &Canvas{surface: surf, width: width, height: height, fontSize: r.fontSize}
	if err := scene.Render(c, content); err != nil {
		return nil, fmt.Errorf("scene %s: %w", scene.Name(), err)
	}

	var buf bytes.Buffer
	if err := surf.Export(&buf); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	r.log.Debug("image rendered",
		logx.String("scene", scene.Name()),
		logx.Int("width", width),
		logx.Int("height", height),
		logx.Int("bytes", buf.Len()),
		logx.Duration("took", time.Since(start)),
	)
	return buf.Bytes(), nil
}

// Draw is DrawPNG followed by standard base64 encoding.
func (r *Renderer) Draw(ctx context.Context, scene Scene, width, height int, content any) ([]byte, error) {
	raw, err := r.DrawPNG(ctx, scene, width, height, content)
	if err != nil {
		return nil, err
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(len(raw)))
	base64.StdEncoding.Encode(out, raw)
	return out, nil
}
