// Package app wires configuration, transport, storage, scheduling and the
// forwarders into one running bot.
package app

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"csgobot/internal/commands"
	"csgobot/internal/config"
	"csgobot/internal/forward"
	"csgobot/internal/runtime/supervisor"
	"csgobot/internal/scheduler"
	"csgobot/internal/storage"
	"csgobot/internal/subscribe"
	kit "csgobot/internal/transport"
	telegram "csgobot/internal/transport/telegram"
	logx "csgobot/pkg/logx"
)

type App struct {
	cfgm *config.ConfigManager
	sup  *supervisor.Supervisor

	log   logx.Logger
	logs  *logx.Service
	store storage.Store

	adapter kit.Adapter

	sched *scheduler.Service
	fwd   *forward.Service
	cmdm  *commands.Manager
	teams *subscribe.Registry

	rend renderState

	updates chan kit.Update
}

func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if err := validateSchedules(cfg); err != nil {
		return nil, err
	}

	bootLog := logx.NewConsole("INFO").With(logx.String("comp", "telegram"))
	pollTimeout, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	ad, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, bootLog)
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logConfig(cfg), ad)
	log = log.With(logx.String("comp", "app"))

	sc, err := storageConfig(cfg)
	if err != nil {
		return nil, err
	}
	store, err := storage.OpenOrMemory(sc, log.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, err
	}
	if sc.Driver == "" {
		log.Warn("storage disabled; seen items are kept in memory and re-primed on restart")
	} else {
		log.Info("storage enabled", logx.String("driver", sc.Driver))
	}

	sched := scheduler.New(schedulerConfig(cfg), log.With(logx.String("comp", "scheduler")))
	a := &App{
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		store:   store,
		adapter: ad,
		sched:   sched,
		fwd:     forward.NewService(ad, store, sched, forwardSettings(cfg), log.With(logx.String("comp", "forward"))),
		cmdm:    commands.NewManager(ad, cfg.Telegram.OwnerUserIDs, log.With(logx.String("comp", "commands"))),
		teams:   subscribe.NewRegistry(cfg.Forward.Matches.Teams...),
		updates: make(chan kit.Update, 256),
	}
	a.rend.log = log.With(logx.String("comp", "render"))

	if err := a.rend.apply(cfg); err != nil {
		_ = store.Close()
		return nil, err
	}
	if err := a.wireForwarders(cfg, true); err != nil {
		_ = store.Close()
		return nil, err
	}
	a.refreshCommands(cfg)
	return a, nil
}

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.NewSupervisor(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))

	// transactional config reload: validate before commit/publish
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		if err := validateSchedules(cfg); err != nil {
			return err
		}
		_, err := storageConfig(cfg)
		return err
	})

	if err := a.adapter.Start(a.sup.Context(), a.updates); err != nil {
		return err
	}
	a.sched.Start(a.sup.Context())

	a.sup.Go("commands.dispatch", func(c context.Context) error {
		return a.cmdm.DispatchLoop(c, a.updates)
	})
	a.sup.Go0("commands.menu", a.publishMenu)

	// First pass right away so priming does not wait for the first tick.
	a.sup.Go0("forward.warmup", func(c context.Context) {
		for _, name := range a.fwd.Names() {
			if c.Err() != nil {
				return
			}
			if _, err := a.fwd.RunOnce(c, name); err != nil {
				a.log.Warn("initial forward run failed", logx.String("forwarder", name), logx.Err(err))
			}
		}
	})

	events, unsub := a.fwd.Events().Subscribe(32)
	a.sup.Go0("forward.events", func(c context.Context) {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				a.logRun(ev)
			}
		}
	})

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		lastApplied := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				// coalesce bursts: keep only the latest config
			drain:
				for {
					select {
					case newer := <-sub:
						if newer != nil {
							newCfg = newer
						}
					default:
						break drain
					}
				}
				a.applyConfig(c, lastApplied, newCfg)
				lastApplied = newCfg
			}
		}
	})

	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	a.log.Info("app started", logx.Strings("forwarders", a.fwd.Names()))
	return nil
}

func (a *App) logRun(ev forward.RunEvent) {
	fields := []logx.Field{
		logx.String("forwarder", ev.Forwarder),
		logx.Int("sent", ev.Report.Sent),
		logx.Int("failed", ev.Report.Failed),
		logx.Duration("took", ev.Report.Duration),
	}
	switch {
	case ev.Err != nil:
		// already logged at warn by the forward service
		a.log.Debug("forward run failed", append(fields, logx.Err(ev.Err))...)
	case ev.Report.Primed:
		a.log.Info("forwarder primed", append(fields, logx.Int("fetched", ev.Report.Fetched))...)
	case ev.Report.Sent > 0 || ev.Report.Failed > 0:
		a.log.Info("forward run", fields...)
	default:
		a.log.Debug("forward run", fields...)
	}
}

func (a *App) publishMenu(ctx context.Context) {
	mu, ok := a.adapter.(kit.CommandMenuUpdater)
	if !ok {
		return
	}
	cctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := mu.UpdateMenuCommands(cctx, a.cmdm.Menu()); err != nil {
		a.log.Warn("command menu update failed", logx.Err(err))
	}
}

// applyConfig pushes a reloaded config into every live component.
func (a *App) applyConfig(ctx context.Context, oldCfg, newCfg *config.Config) {
	sections, attrs := config.SummarizeConfigChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}
	a.log.Debug("config change summary", append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)...)

	if slices.Contains(sections, "storage") {
		a.log.Warn("storage config changed; restart required for changes to take effect")
	}
	if oldCfg != nil && (oldCfg.Telegram.Token != newCfg.Telegram.Token || oldCfg.Telegram.PollTimeout != newCfg.Telegram.PollTimeout) {
		a.log.Warn("telegram connection settings changed; restart required for changes to take effect")
	}

	a.logs.Apply(logConfig(newCfg))
	a.cmdm.SetOwners(newCfg.Telegram.OwnerUserIDs)

	// Chat-side /follow edits survive reloads that leave the configured list alone.
	if oldCfg == nil || !slices.Equal(oldCfg.Forward.Matches.Teams, newCfg.Forward.Matches.Teams) {
		a.teams.Replace(newCfg.Forward.Matches.Teams)
	}

	a.sched.Apply(schedulerConfig(newCfg))
	a.fwd.Apply(forwardSettings(newCfg))

	if slices.Contains(sections, "render") {
		if err := a.rend.apply(newCfg); err != nil {
			a.log.Warn("render config rejected; keeping previous", logx.Err(err))
		}
	}
	if slices.ContainsFunc(sections, func(s string) bool { return s == "api" || s == "render" || s == "forward" || s == "scheduler" }) {
		if err := a.wireForwarders(newCfg, config.ForwardChanged(oldCfg, newCfg)); err != nil {
			a.log.Warn("forwarder update failed", logx.Err(err))
		}
	}
	a.refreshCommands(newCfg)
	if ctx.Err() == nil {
		a.publishMenu(ctx)
	}

	a.log.Info("config reloaded", append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)...)
}

func (a *App) refreshCommands(cfg *config.Config) {
	w, h := cfg.Render.Size()
	hd := &commands.Handlers{
		Teams:      a.teams,
		Forward:    a.fwd,
		Store:      a.store,
		Drawer:     a.rend.drawer(),
		CardWidth:  w,
		CardHeight: h,
	}
	a.cmdm.SetRegistry(hd.Commands())
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))

	// cancel first so background loops start unwinding immediately
	a.sup.Cancel()

	// step bounds one shutdown stage so a stuck component cannot stall the rest.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()
		stepCtx := ctx
		if max > 0 {
			// respect the caller's deadline; never extend it
			if dl, ok := ctx.Deadline(); ok {
				if rem := time.Until(dl); rem < max {
					max = rem
				}
			}
			var cancel context.CancelFunc
			stepCtx, cancel = context.WithTimeout(ctx, max)
			defer cancel()
		}

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
			a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name),
				logx.Err(stepCtx.Err()),
				logx.Duration("elapsed", time.Since(start)),
			)
		}
	}

	step("scheduler", 3*time.Second, func(c context.Context) error { a.sched.Stop(c); return nil })
	step("adapter", 2*time.Second, func(c context.Context) error { return a.adapter.Stop(c) })
	step("supervisor", 2*time.Second, func(c context.Context) error { return a.sup.Wait(c) })
	step("storage", time.Second, func(context.Context) error { return a.store.Close() })
	step("render", time.Second, func(context.Context) error { return a.rend.close() })

	a.log.Info("stopped")
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return nil
}
