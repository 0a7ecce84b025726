// Package forward polls the esports feed and forwards new items to chats.
package forward

import (
	"context"

	"csgobot/internal/feed"
	"csgobot/internal/render"
)

// Item is anything a Forwarder fetches. Key must be stable across polls.
type Item interface {
	Key() string
}

// Message is one outgoing chat message. Image, when set, is a PNG sent as a
// photo with Text as its caption.
type Message struct {
	Text      string
	Image     []byte
	ParseMode string
}

// Forwarder is one poll-filter-format pipeline.
type Forwarder interface {
	Name() string
	Fetch(ctx context.Context) ([]Item, error)
	Filter(it Item) bool
	Format(ctx context.Context, it Item) (Message, error)
}

// Source is the part of feed.Client the forwarders use.
type Source interface {
	Results(ctx context.Context, limit int) ([]feed.Match, int, error)
	News(ctx context.Context, limit int) ([]feed.News, int, error)
}

// Drawer renders a scene to PNG bytes. *render.Renderer implements it.
type Drawer interface {
	DrawPNG(ctx context.Context, scene render.Scene, width, height int, content any) ([]byte, error)
}

// ImageOptions controls optional image attachments.
type ImageOptions struct {
	Drawer Drawer // nil disables images
	Width  int
	Height int
}

func (o ImageOptions) enabled() bool { return o.Drawer != nil && o.Width > 0 && o.Height > 0 }

var (
	_ Item   = feed.Match{}
	_ Item   = feed.News{}
	_ Drawer = (*render.Renderer)(nil)
)
