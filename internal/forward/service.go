package forward

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"csgobot/internal/eventbus"
	"csgobot/internal/storage"
	kit "csgobot/internal/transport"
	logx "csgobot/pkg/logx"
)

// ErrUnknownForwarder is returned by RunOnce for a name that is not registered.
var ErrUnknownForwarder = errors.New("unknown forwarder")

const (
	schedulePrefix = "forward:"
	primePrefix    = "prime:"
	primeTTL       = 10 * 365 * 24 * time.Hour
	defaultTimeout = 2 * time.Minute
)

// Scheduler is the part of scheduler.Service the forwarding service uses.
type Scheduler interface {
	AddSchedule(name, schedule string, timeout time.Duration, job func(ctx context.Context) error) (string, error)
	Remove(name string) bool
}

// Settings are the live-reloadable knobs shared by every forwarder.
type Settings struct {
	Targets    []kit.ChatTarget
	RatePerSec int
	SeenTTL    time.Duration
	// Prime marks the items present on the first run as seen without sending them.
	Prime bool
}

// Report summarizes one run.
type Report struct {
	Fetched  int
	Matched  int
	New      int
	Sent     int
	Failed   int
	Primed   bool
	Duration time.Duration
}

// RunEvent is published on Events after every run.
type RunEvent struct {
	Forwarder string
	At        time.Time
	Report    Report
	Err       error
}

type entry struct {
	fwd      Forwarder
	schedule string
	run      sync.Mutex
}

// Service runs forwarders on their schedules and on demand.
type Service struct {
	log    logx.Logger
	sender kit.Sender
	store  storage.Store
	sched  Scheduler
	now    func() time.Time
	events *eventbus.Bus[RunEvent]

	mu       sync.RWMutex
	settings Settings
	limiter  *rate.Limiter
	entries  map[string]*entry
}

func NewService(sender kit.Sender, store storage.Store, sched Scheduler, settings Settings, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if store == nil {
		store = storage.NewMemory()
	}
	s := &Service{
		log:     log,
		sender:  sender,
		store:   store,
		sched:   sched,
		now:     time.Now,
		events:  eventbus.New[RunEvent](),
		entries: map[string]*entry{},
	}
	s.Apply(settings)
	return s
}

// Events carries one RunEvent per finished run, scheduled or manual.
func (s *Service) Events() *eventbus.Bus[RunEvent] { return s.events }

// Apply swaps targets, rate, TTL and priming without touching schedules.
func (s *Service) Apply(settings Settings) {
	if settings.RatePerSec <= 0 {
		settings.RatePerSec = 1
	}
	if settings.SeenTTL <= 0 {
		settings.SeenTTL = 7 * 24 * time.Hour
	}
	settings.Targets = append([]kit.ChatTarget(nil), settings.Targets...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	if s.limiter == nil {
		s.limiter = rate.NewLimiter(rate.Limit(settings.RatePerSec), 1)
	} else {
		s.limiter.SetLimit(rate.Limit(settings.RatePerSec))
	}
}

// Register adds or replaces a forwarder. A non-empty schedule also registers
// it with the scheduler as "forward:<name>".
func (s *Service) Register(f Forwarder, schedule string) error {
	if f == nil {
		return errors.New("nil forwarder")
	}
	name := f.Name()
	s.mu.Lock()
	e, ok := s.entries[name]
	if !ok {
		e = &entry{}
		s.entries[name] = e
	}
	e.fwd = f
	e.schedule = schedule
	s.mu.Unlock()

	if schedule == "" || s.sched == nil {
		return nil
	}
	_, err := s.sched.AddSchedule(schedulePrefix+name, schedule, defaultTimeout, func(ctx context.Context) error {
		_, err := s.RunOnce(ctx, name)
		return err
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	s.log.Info("forwarder registered", logx.String("forwarder", name), logx.String("schedule", schedule))
	return nil
}

// Replace swaps the implementation of an already registered forwarder and
// keeps its schedule. It reports false when name is not registered.
func (s *Service) Replace(f Forwarder) bool {
	if f == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[f.Name()]
	if ok {
		e.fwd = f
	}
	return ok
}

// Unregister removes a forwarder and its schedule.
func (s *Service) Unregister(name string) bool {
	s.mu.Lock()
	_, ok := s.entries[name]
	delete(s.entries, name)
	s.mu.Unlock()
	if ok && s.sched != nil {
		s.sched.Remove(schedulePrefix + name)
	}
	return ok
}

func (s *Service) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.entries))
	for n := range s.entries {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// RunOnce polls one forwarder now. Runs of the same forwarder are serialized.
func (s *Service) RunOnce(ctx context.Context, name string) (Report, error) {
	s.mu.RLock()
	e, ok := s.entries[name]
	settings := s.settings
	limiter := s.limiter
	s.mu.RUnlock()
	if !ok {
		return Report{}, fmt.Errorf("%w: %s", ErrUnknownForwarder, name)
	}

	e.run.Lock()
	defer e.run.Unlock()
	s.mu.RLock()
	f := e.fwd
	s.mu.RUnlock()

	log := s.log.With(logx.String("forwarder", name))
	start := s.now()
	rep, err := s.run(ctx, f, settings, limiter, log)
	rep.Duration = time.Since(start)

	audit := storage.AuditEntry{
		At:     start,
		Action: "forward",
		Target: name,
		OK:     rep.Sent,
		Fail:   rep.Failed,
		TookMS: rep.Duration.Milliseconds(),
	}
	if err != nil {
		audit.Error = err.Error()
	}
	if aerr := s.store.AppendAudit(ctx, audit); aerr != nil {
		log.Debug("audit append failed", logx.Err(aerr))
	}
	s.events.Publish(RunEvent{Forwarder: name, At: start, Report: rep, Err: err})

	if err != nil {
		log.Warn("forward run failed", logx.Err(err))
		return rep, err
	}
	log.Debug("forward run done",
		logx.Int("fetched", rep.Fetched),
		logx.Int("matched", rep.Matched),
		logx.Int("new", rep.New),
		logx.Int("sent", rep.Sent),
		logx.Int("failed", rep.Failed),
		logx.Bool("primed", rep.Primed),
	)
	return rep, nil
}

func (s *Service) run(ctx context.Context, f Forwarder, settings Settings, limiter *rate.Limiter, log logx.Logger) (Report, error) {
	var rep Report
	items, err := f.Fetch(ctx)
	if err != nil {
		return rep, fmt.Errorf("fetch: %w", err)
	}
	rep.Fetched = len(items)
	now := s.now()
	until := now.Add(settings.SeenTTL)

	primeKey := primePrefix + f.Name()
	if settings.Prime {
		_, primed, err := s.store.GetSeen(ctx, primeKey)
		if err != nil {
			return rep, fmt.Errorf("seen lookup: %w", err)
		}
		if !primed {
			for _, it := range items {
				if err := s.store.PutSeen(ctx, it.Key(), until); err != nil {
					return rep, fmt.Errorf("seen put: %w", err)
				}
			}
			if err := s.store.PutSeen(ctx, primeKey, now.Add(primeTTL)); err != nil {
				return rep, fmt.Errorf("seen put: %w", err)
			}
			rep.Primed = true
			log.Info("forwarder primed", logx.Int("items", len(items)))
			return rep, nil
		}
	}

	// the feed lists newest first; send oldest first
	for i := len(items) - 1; i >= 0; i-- {
		it := items[i]
		if !f.Filter(it) {
			continue
		}
		rep.Matched++
		seen, err := storage.Seen(ctx, s.store, it.Key(), now)
		if err != nil {
			return rep, fmt.Errorf("seen lookup: %w", err)
		}
		if seen {
			continue
		}
		rep.New++

		msg, err := f.Format(ctx, it)
		if err != nil {
			log.Warn("format failed", logx.String("key", it.Key()), logx.Err(err))
			rep.Failed++
			continue
		}
		ok, fail := s.deliver(ctx, settings.Targets, limiter, msg, log)
		rep.Sent += ok
		rep.Failed += fail
		if ctx.Err() != nil {
			return rep, ctx.Err()
		}
		if ok == 0 && len(settings.Targets) > 0 {
			continue
		}
		if err := s.store.PutSeen(ctx, it.Key(), until); err != nil {
			return rep, fmt.Errorf("seen put: %w", err)
		}
	}
	return rep, nil
}

// deliver sends msg to every target and counts successes and failures.
func (s *Service) deliver(ctx context.Context, targets []kit.ChatTarget, limiter *rate.Limiter, msg Message, log logx.Logger) (ok, fail int) {
	opt := &kit.SendOptions{ParseMode: msg.ParseMode, DisablePreview: true}
	for _, to := range targets {
		if err := limiter.Wait(ctx); err != nil {
			return ok, fail + 1
		}
		var err error
		if len(msg.Image) > 0 {
			_, err = s.sender.SendPhoto(ctx, to, msg.Image, msg.Text, opt)
		} else {
			_, err = s.sender.SendText(ctx, to, msg.Text, opt)
		}
		if err != nil {
			fail++
			log.Warn("send failed", logx.Int64("chat_id", to.ChatID), logx.Int("thread_id", to.ThreadID), logx.Err(err))
			continue
		}
		ok++
	}
	return ok, fail
}
