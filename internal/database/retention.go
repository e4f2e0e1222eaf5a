package database

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// EventPruner deletes history recorded before a cutoff
type EventPruner interface {
	DeleteOldEvents(before time.Time) (int64, error)
}

// Pruner keeps block history within the retention window. The blocker writes
// a row for every tick that discards input, so without it the table grows
// for as long as a blocked program runs.
type Pruner struct {
	repo      EventPruner
	retention time.Duration
	interval  time.Duration
	now       func() time.Time

	running  atomic.Bool
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewPruner creates a pruner that removes history older than retention every
// interval
func NewPruner(repo EventPruner, retention, interval time.Duration) *Pruner {
	return &Pruner{
		repo:      repo,
		retention: retention,
		interval:  interval,
		now:       time.Now,
		stopChan:  make(chan struct{}),
	}
}

// PruneOnce deletes everything older than the retention window
func (p *Pruner) PruneOnce() (int64, error) {
	deleted, err := p.repo.DeleteOldEvents(p.now().Add(-p.retention))
	if err != nil {
		return deleted, err
	}
	if deleted > 0 {
		log.Printf("Pruned %d block events older than %v", deleted, p.retention)
	}
	return deleted, nil
}

// Start prunes immediately, then on every interval until ctx is done or Stop
// is called
func (p *Pruner) Start(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return fmt.Errorf("pruner is already running")
	}
	defer p.running.Store(false)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.pruneTick()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopChan:
			return nil
		case <-ticker.C:
			p.pruneTick()
		}
	}
}

func (p *Pruner) Stop() {
	p.stopOnce.Do(func() { close(p.stopChan) })
}

func (p *Pruner) pruneTick() {
	if _, err := p.PruneOnce(); err != nil {
		log.Printf("Failed to prune block history: %v", err)
	}
}
