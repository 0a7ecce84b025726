package app

import (
	"errors"
	"sync"

	"csgobot/internal/config"
	"csgobot/internal/feed"
	"csgobot/internal/forward"
	"csgobot/internal/render"
	logx "csgobot/pkg/logx"
)

// renderState owns the optional renderer. It is swapped on hot reload.
type renderState struct {
	log logx.Logger

	mu sync.Mutex
	d  forward.Drawer
	// every font loaded so far; runs in flight may still hold an older renderer
	fonts []*render.FontResolver
}

func (r *renderState) apply(cfg *config.Config) error {
	if !cfg.Render.Enabled {
		r.mu.Lock()
		r.d = nil
		r.mu.Unlock()
		return nil
	}
	fonts, err := render.NewFontResolver(cfg.Render.FontPath)
	if err != nil {
		return err
	}
	rr := render.New(fonts,
		render.WithFontSize(cfg.Render.BaseFontSize()),
		render.WithLogger(r.log),
	)
	r.mu.Lock()
	r.d = rr
	r.fonts = append(r.fonts, fonts)
	r.mu.Unlock()
	r.log.Info("renderer ready", logx.String("font", fonts.Name()), logx.Int("font_size", cfg.Render.BaseFontSize()))
	return nil
}

// drawer returns the current renderer or nil when rendering is disabled.
func (r *renderState) drawer() forward.Drawer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.d
}

func (r *renderState) close() error {
	r.mu.Lock()
	fonts := r.fonts
	r.fonts, r.d = nil, nil
	r.mu.Unlock()
	var errs []error
	for _, f := range fonts {
		errs = append(errs, f.Close())
	}
	return errors.Join(errs...)
}

type forwarderSpec struct {
	fwd      forward.Forwarder
	enabled  bool
	schedule string
}

// forwarders builds the configured forwarders against a fresh API client.
func (a *App) forwarders(cfg *config.Config) []forwarderSpec {
	client := feed.NewClient(cfg.API.BaseURL, cfg.API.RequestTimeout(), cfg.API.UserAgent)
	w, h := cfg.Render.Size()
	drawer := a.rend.drawer()
	image := func(on bool) forward.ImageOptions {
		if !on || drawer == nil {
			return forward.ImageOptions{}
		}
		return forward.ImageOptions{Drawer: drawer, Width: w, Height: h}
	}
	m, n := cfg.Forward.Matches, cfg.Forward.News
	return []forwarderSpec{
		{
			fwd: &forward.MatchForward{
				Source:   client,
				Teams:    a.teams,
				AllTeams: m.AllTeams,
				Image:    image(m.Image),
				Log:      a.log.With(logx.String("comp", "forward"), logx.String("forwarder", "matches")),
			},
			enabled:  m.Enabled,
			schedule: m.Schedule,
		},
		{
			fwd: &forward.NewsForward{
				Source: client,
				Limit:  n.Limit,
				Image:  image(n.Image),
				Log:    a.log.With(logx.String("comp", "forward"), logx.String("forwarder", "news")),
			},
			enabled:  n.Enabled,
			schedule: n.Schedule,
		},
	}
}

// wireForwarders registers enabled forwarders and drops disabled ones. With
// reschedule false an already registered forwarder keeps its schedule and
// only its implementation is swapped.
func (a *App) wireForwarders(cfg *config.Config, reschedule bool) error {
	var errs []error
	for _, spec := range a.forwarders(cfg) {
		name := spec.fwd.Name()
		if !spec.enabled {
			if a.fwd.Unregister(name) {
				a.log.Info("forwarder disabled", logx.String("forwarder", name))
			}
			continue
		}
		if !reschedule && a.fwd.Replace(spec.fwd) {
			continue
		}
		if err := a.fwd.Register(spec.fwd, spec.schedule); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
