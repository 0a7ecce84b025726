package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	logx "csgobot/pkg/logx"
)

type Config struct {
	Timezone string // IANA TZ, e.g. "Asia/Shanghai"
}

type Job = func(ctx context.Context) error

type scheduleDef struct {
	name    string
	spec    string // cron spec or "@every <d>"
	every   time.Duration
	timeout time.Duration
	job     Job
	entryID cron.EntryID

	running atomic.Bool
	runs    atomic.Uint64
	skipped atomic.Uint64

	mu      sync.Mutex
	lastRun time.Time
	lastErr string
	lastDur time.Duration
}

// ScheduleInfo is a point-in-time view of one schedule.
type ScheduleInfo struct {
	Name    string
	Spec    string
	Next    time.Time
	LastRun time.Time
	LastDur time.Duration
	LastErr string
	Running bool
	Runs    uint64
	Skipped uint64
}

type Service struct {
	mu sync.Mutex

	log    logx.Logger
	cfg    Config
	loc    *time.Location
	parser cron.Parser
	c      *cron.Cron
	defs   []*scheduleDef

	// runCtx is the parent of every job context; Stop cancels it.
	runCtx    context.Context
	runCancel context.CancelFunc
	inflight  sync.WaitGroup
}
