package letters

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bryan-buckman/recallfinder/internal/logger"
)

// MinWarmInterval is the shortest allowed refresh interval.
const MinWarmInterval = time.Minute

// warmTimeout bounds one refresh round.
const warmTimeout = 5 * time.Minute

// Warmer refreshes a set of years in the background so the first visitor
// after expiry does not wait on the upstream API. It also prunes stale years.
type Warmer struct {
	svc      *Service
	interval time.Duration
	years    []int
	now      func() time.Time

	ctx      context.Context
	cancel   context.CancelFunc
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewWarmer creates a warmer. An empty years list refreshes the current year.
func NewWarmer(svc *Service, interval time.Duration, years []int) *Warmer {
	if interval < MinWarmInterval {
		interval = MinWarmInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Warmer{
		svc:      svc,
		interval: interval,
		years:    append([]int(nil), years...),
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		stopChan: make(chan struct{}),
	}
}

// Years returns the years refreshed on each round.
func (w *Warmer) Years() []int {
	if len(w.years) > 0 {
		return w.years
	}
	return []int{w.now().Year()}
}

// Start begins the refresh loop.
func (w *Warmer) Start() {
	log := logger.WithModule("warmer")
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			w.RunOnce()
			log.Info("warm round complete", zap.Duration("next_in", w.interval))

			select {
			case <-w.stopChan:
				return
			case <-time.After(w.interval):
			}
		}
	}()
}

// RunOnce prunes stale entries and refreshes every configured year. An
// in-flight fetch is cancelled by Stop.
func (w *Warmer) RunOnce() {
	log := logger.WithModule("warmer")
	if n := w.svc.cache.Prune(); n > 0 {
		log.Info("pruned stale years", zap.Int("count", n))
	}

	ctx, cancel := context.WithTimeout(w.ctx, warmTimeout)
	defer cancel()
	for _, year := range w.Years() {
		select {
		case <-w.stopChan:
			return
		default:
		}
		table := w.svc.Refresh(ctx, year)
		log.Info("warmed year", zap.Int("year", year), zap.Int("records", table.Len()))
	}
}

// Stop cancels any running refresh, ends the loop and waits for it to exit.
func (w *Warmer) Stop() {
	w.cancel()
	close(w.stopChan)
	w.wg.Wait()
}
