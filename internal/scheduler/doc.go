// Package scheduler triggers named jobs from cron expressions or fixed
// intervals. Jobs run on cron's goroutines; a job that is still running when
// its next tick fires is skipped.
package scheduler
