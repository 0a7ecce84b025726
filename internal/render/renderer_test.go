package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"
)

type drawCall struct {
	x, y float64
	text string
	size int
}

type fakeSurface struct {
	w, h      int
	calls     []drawCall
	released  int
	exportErr error
}

func (s *fakeSurface) Size() (int, int) { return s.w, s.h }

func (s *fakeSurface) DrawText(x, y float64, text string, size int, _ color.Color) error {
	s.calls = append(s.calls, drawCall{x: x, y: y, text: text, size: size})
	return nil
}

func (s *fakeSurface) Export(w io.Writer) error {
	if s.exportErr != nil {
		return s.exportErr
	}
	_, err := w.Write([]byte("img"))
	return err
}

func (s *fakeSurface) Release() { s.released++ }

func fakeAllocator(out **fakeSurface, exportErr error) Allocator {
	return func(w, h int) (Surface, error) {
		s := &fakeSurface{w: w, h: h, exportErr: exportErr}
		*out = s
		return s, nil
	}
}

func TestRendererReleasesOnSceneError(t *testing.T) {
	t.Parallel()
	var surf *fakeSurface
	r := New(nil, WithAllocator(fakeAllocator(&surf, nil)))
	boom := errors.New("boom")
	scene := SceneFunc{ID: "broken", Fn: func(c *Canvas, _ any) error {
		if err := c.DrawText(1, 2, "x", 0, ""); err != nil {
			return err
		}
		return boom
	}}

	_, err := r.Draw(context.Background(), scene, 10, 10, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if surf == nil || surf.released != 1 {
		t.Fatalf("surface not released exactly once: %+v", surf)
	}
}

func TestRendererReleasesOnExportError(t *testing.T) {
	t.Parallel()
	var surf *fakeSurface
	r := New(nil, WithAllocator(fakeAllocator(&surf, ErrSurface)))
	scene := SceneFunc{ID: "noop", Fn: func(*Canvas, any) error { return nil }}

	_, err := r.DrawPNG(context.Background(), scene, 10, 10, nil)
	if !errors.Is(err, ErrSurface) {
		t.Fatalf("err = %v, want ErrSurface", err)
	}
	if surf.released != 1 {
		t.Fatalf("released = %d, want 1", surf.released)
	}
}

func TestRendererAllocationFailure(t *testing.T) {
	t.Parallel()
	r := New(nil, WithAllocator(func(int, int) (Surface, error) { return nil, ErrSurface }))
	scene := SceneFunc{ID: "noop", Fn: func(*Canvas, any) error { return nil }}
	if _, err := r.Draw(context.Background(), scene, 10, 10, nil); !errors.Is(err, ErrSurface) {
		t.Fatalf("err = %v, want ErrSurface", err)
	}
}

func TestRendererDrawBase64AndCenter(t *testing.T) {
	t.Parallel()
	var surf *fakeSurface
	r := New(nil, WithAllocator(fakeAllocator(&surf, nil)), WithFontSize(10))
	scene := SceneFunc{ID: "center", Fn: func(c *Canvas, _ any) error {
		return c.DrawTextCenter(5, []string{"A", "A"}, nil, nil, NoPivot)
	}}

	out, err := r.Draw(context.Background(), scene, 100, 40, nil)
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if string(out) != base64.StdEncoding.EncodeToString([]byte("img")) {
		t.Fatalf("unexpected base64 output %q", out)
	}
	if len(surf.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(surf.calls))
	}
	if surf.calls[0].x != 45 || surf.calls[1].x != 50 {
		t.Fatalf("xs = %v, %v; want 45, 50", surf.calls[0].x, surf.calls[1].x)
	}
	if surf.calls[0].y != 5 || surf.calls[0].size != 10 {
		t.Fatalf("first call = %+v", surf.calls[0])
	}
	if surf.released != 1 {
		t.Fatalf("released = %d, want 1", surf.released)
	}
}

func TestRendererRejectsBadPivotWithoutDrawing(t *testing.T) {
	t.Parallel()
	var surf *fakeSurface
	r := New(nil, WithAllocator(fakeAllocator(&surf, nil)))
	scene := SceneFunc{ID: "bad", Fn: func(c *Canvas, _ any) error {
		return c.DrawTextCenter(0, []string{"a", "b"}, nil, nil, 5)
	}}
	if _, err := r.Draw(context.Background(), scene, 100, 40, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
	if len(surf.calls) != 0 {
		t.Fatalf("drew %d segments before failing", len(surf.calls))
	}
	if surf.released != 1 {
		t.Fatalf("released = %d, want 1", surf.released)
	}
}

func TestRendererCanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	r := New(nil, WithAllocator(func(int, int) (Surface, error) {
		called = true
		return &fakeSurface{}, nil
	}))
	scene := SceneFunc{ID: "noop", Fn: func(*Canvas, any) error { return nil }}
	if _, err := r.Draw(ctx, scene, 10, 10, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if called {
		t.Fatalf("allocator called with canceled context")
	}
}

func TestRGBASurfaceRendersPNG(t *testing.T) {
	t.Parallel()
	fonts, err := NewFontResolver("")
	if err != nil {
		t.Fatalf("NewFontResolver: %v", err)
	}
	t.Cleanup(func() { _ = fonts.Close() })

	r := New(fonts, WithFontSize(24))
	content := MatchCardContent{Event: "IEM Cologne", Format: "BO3", TeamA: "NAVI", TeamB: "G2", ScoreA: 2, ScoreB: 1}
	raw, err := r.DrawPNG(context.Background(), MatchCard{}, 480, 200, content)
	if err != nil {
		t.Fatalf("DrawPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 480 || b.Dy() != 200 {
		t.Fatalf("bounds = %v", b)
	}

	// Something other than the white background must have been drawn.
	dark := false
	for y := 0; y < 200 && !dark; y++ {
		for x := 0; x < 480; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r < 0x8000 || g < 0x8000 || b < 0x8000 {
				dark = true
				break
			}
		}
	}
	if !dark {
		t.Fatalf("rendered image is blank")
	}
}

func TestRGBASurfaceRejectsBadSize(t *testing.T) {
	t.Parallel()
	fonts, err := NewFontResolver("")
	if err != nil {
		t.Fatalf("NewFontResolver: %v", err)
	}
	if _, err := newRGBASurface(0, 10, fonts); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("zero width: err = %v", err)
	}
	if _, err := newRGBASurface(5000, 5000, fonts); !errors.Is(err, ErrSurface) {
		t.Fatalf("oversized: err = %v", err)
	}
	s, err := newRGBASurface(10, 10, fonts)
	if err != nil {
		t.Fatalf("newRGBASurface: %v", err)
	}
	s.Release()
	s.Release()
	if err := s.Export(io.Discard); !errors.Is(err, ErrSurface) {
		t.Fatalf("export after release: err = %v", err)
	}
}

func TestMatchCardRejectsWrongContent(t *testing.T) {
	t.Parallel()
	var surf *fakeSurface
	r := New(nil, WithAllocator(fakeAllocator(&surf, nil)))
	_, err := r.Draw(context.Background(), MatchCard{}, 100, 100, "nope")
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestMatchCardPinsScoreColon(t *testing.T) {
	t.Parallel()
	var surf *fakeSurface
	r := New(nil, WithAllocator(fakeAllocator(&surf, nil)), WithFontSize(20))
	content := MatchCardContent{TeamA: "Vitality", TeamB: "MOUZ", ScoreA: 13, ScoreB: 9}
	if _, err := r.DrawPNG(context.Background(), MatchCard{}, 400, 100, content); err != nil {
		t.Fatalf("DrawPNG: %v", err)
	}
	var colon *drawCall
	for i := range surf.calls {
		if surf.calls[i].text == " : " {
			colon = &surf.calls[i]
		}
	}
	if colon == nil {
		t.Fatalf("colon segment not drawn: %+v", surf.calls)
	}
	if mid := colon.x + EstimateWidth(" : ", colon.size)/2; mid != 200 {
		t.Fatalf("colon midpoint = %v, want 200", mid)
	}
}

func TestWrapText(t *testing.T) {
	t.Parallel()
	lines := WrapText("one two three four", 10, 50)
	if got := strings.Join(lines, "|"); got != "one two|three four" {
		t.Fatalf("lines = %q", got)
	}
	for _, l := range WrapText("中文新闻标题很长很长", 10, 40) {
		if EstimateWidth(l, 10) > 40 {
			t.Fatalf("line %q too wide", l)
		}
	}
	if WrapText("  ", 10, 40) != nil {
		t.Fatalf("blank text should wrap to nothing")
	}
}
