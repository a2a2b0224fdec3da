package registry

import (
	"context"
	"sync"
	"time"

	"github.com/relatorlabs/beacon/component"
	"github.com/relatorlabs/beacon/logger"
	"github.com/relatorlabs/beacon/metrics"
)

// Sweeper periodically removes records whose lease deadline has passed.
// It shares only the Store with request handling; discovery correctness does
// not depend on it, it just bounds memory growth from abandoned names.
type Sweeper struct {
	store    *Store
	interval time.Duration
	log      *logger.Logger
	now      func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewSweeper creates a Sweeper over the given store.
func NewSweeper(store *Store, interval time.Duration, log *logger.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		log:      log.WithComponent("sweeper"),
		now:      time.Now,
	}
}

// Name returns the component name.
func (s *Sweeper) Name() string { return "sweeper" }

// Start launches the background sweep loop.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.loop(loopCtx)

	s.log.Info("Eviction sweeper started", map[string]interface{}{
		"interval": s.interval.String(),
	})
	return nil
}

// Stop terminates the sweep loop and waits for it to finish.
func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.cancel()
	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.running = false
	return nil
}

// Health reports whether the sweep loop is running.
func (s *Sweeper) Health(ctx context.Context) component.Health {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	if !running {
		return component.Health{
			Name:    s.Name(),
			Status:  component.StatusUnhealthy,
			Message: "sweep loop not running",
		}
	}
	return component.Health{Name: s.Name(), Status: component.StatusHealthy}
}

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep runs one eviction cycle, removing every record whose lease deadline
// is in the past. It returns the number of records removed.
func (s *Sweeper) Sweep() int {
	now := s.now()
	removed := 0
	for _, rec := range s.store.List() {
		if !rec.Expired(now) {
			continue
		}
		// Re-check under a fresh read: the record may have been renewed
		// between the snapshot and now. A renewal after this check still
		// loses the race, which is acceptable: the collaborator's next
		// heartbeat re-registers it.
		if cur, ok := s.store.Get(rec.Name); ok && cur.Expired(now) {
			if s.store.Delete(rec.Name) {
				removed++
				metrics.EvictionsTotal.Inc()
				s.log.Info("Evicted expired registration", map[string]interface{}{
					logger.FieldName: rec.Name,
					"deadline":       rec.LeaseDeadline.UTC().Format(time.RFC3339),
				})
			}
		}
	}
	if removed > 0 {
		metrics.RegistrySize.Set(float64(s.store.Len()))
	}
	return removed
}

var _ component.Component = (*Sweeper)(nil)
