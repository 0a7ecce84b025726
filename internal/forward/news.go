package forward

import (
	"context"
	"fmt"

	"csgobot/internal/feed"
	"csgobot/internal/render"
	logx "csgobot/pkg/logx"
)

const newsHeader = "【新闻速递】"

// NewsForward forwards every new article.
type NewsForward struct {
	Source Source
	Limit  int
	Image  ImageOptions
	Log    logx.Logger
}

func (f *NewsForward) Name() string { return "news" }

func (f *NewsForward) Fetch(ctx context.Context) ([]Item, error) {
	news, skipped, err := f.Source.News(ctx, f.Limit)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		f.Log.Debug("undecodable news dropped", logx.Int("skipped", skipped))
	}
	items := make([]Item, len(news))
	for i, n := range news {
		items[i] = n
	}
	return items, nil
}

func (f *NewsForward) Filter(it Item) bool {
	_, ok := it.(feed.News)
	return ok
}

func (f *NewsForward) Format(ctx context.Context, it Item) (Message, error) {
	n, ok := it.(feed.News)
	if !ok {
		return Message{}, fmt.Errorf("news: unexpected item %T", it)
	}
	msg := Message{Text: NewsText(n)}
	if f.Image.enabled() {
		png, err := f.Image.Drawer.DrawPNG(ctx, render.Headline{}, f.Image.Width, f.Image.Height,
			render.HeadlineContent{Tag: newsHeader, Title: n.Title})
		if err != nil {
			f.Log.Warn("headline render failed", logx.String("key", n.Key()), logx.Err(err))
		} else {
			msg.Image = png
		}
	}
	return msg, nil
}

func NewsText(n feed.News) string {
	return newsHeader + "\n" + n.Title + "\n\n" + n.Description
}
