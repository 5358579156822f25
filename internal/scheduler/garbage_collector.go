package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/sflens/internal/logger"
)

const (
	// DefaultJanitorInterval is how often per-hub caches are pruned
	DefaultJanitorInterval = 10 * time.Minute
)

// HubCachePruner drops cache entries of DevHubs that are gone.
type HubCachePruner interface {
	PruneHubCaches() int
}

// CacheJanitor periodically drops per-hub cache entries (limits, editions,
// snapshot info) of DevHubs no longer present in the org list
type CacheJanitor struct {
	service  HubCachePruner
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewCacheJanitor creates a new cache janitor
func NewCacheJanitor(service HubCachePruner, log logger.Logger, interval time.Duration) *CacheJanitor {
	if interval <= 0 {
		interval = DefaultJanitorInterval
	}

	return &CacheJanitor{
		service:  service,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic collection process
func (j *CacheJanitor) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				j.Collect()
			case <-j.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the janitor
func (j *CacheJanitor) Stop() {
	close(j.stopCh)
}

// Collect prunes once and returns the number of removed entries
func (j *CacheJanitor) Collect() int {
	removed := j.service.PruneHubCaches()
	if removed > 0 {
		j.logger.Info("pruned caches of removed dev hubs",
			logger.Int("entries", removed))
	} else {
		j.logger.Debug("no dev hub cache entries to prune")
	}
	return removed
}
