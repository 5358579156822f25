package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/sflens/internal/domain"
	"github.com/MrSnakeDoc/sflens/internal/logger"
)

// OrgsRefresher is what the reloader refreshes.
type OrgsRefresher interface {
	RefreshOrgs(ctx context.Context) (domain.AuthorizedOrgs, error)
}

// OrgsReloader handles periodic and manual refreshes of the org list
type OrgsReloader struct {
	service       OrgsRefresher
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
	done          chan struct{}
	started       bool
}

// NewOrgsReloader creates a new org list reloader. An interval of zero
// disables the ticker; manual triggers still work.
func NewOrgsReloader(
	service OrgsRefresher,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *OrgsReloader {
	return &OrgsReloader{
		service:       service,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
		done:          make(chan struct{}),
	}
}

// Start begins the reload loop
func (r *OrgsReloader) Start(ctx context.Context) {
	r.started = true
	var tick <-chan time.Time
	var ticker *time.Ticker
	if r.interval > 0 {
		ticker = time.NewTicker(r.interval)
		tick = ticker.C
	}

	go func() {
		defer close(r.done)
		if ticker != nil {
			defer ticker.Stop()
		}
		for {
			select {
			case <-tick:
				r.Reload(ctx)
			case <-r.manualTrigger:
				r.logger.Info("manual org reload triggered")
				r.Reload(ctx)
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the reloader and waits for the loop to exit
func (r *OrgsReloader) Stop() {
	close(r.stopCh)
	if r.started {
		<-r.done
	}
}

// Reload refreshes the org list once. Failures are logged: the previous
// list stays cached.
func (r *OrgsReloader) Reload(ctx context.Context) {
	start := time.Now()
	orgs, err := r.service.RefreshOrgs(ctx)
	if err != nil {
		r.logger.Error("failed to reload orgs", logger.Error(err))
		return
	}
	r.logger.Info("orgs reloaded",
		logger.Int("devhubs", len(orgs.DevHubs)),
		logger.Int("scratch_orgs", len(orgs.ScratchOrgs)),
		logger.Duration("took", time.Since(start)))
}

// Trigger requests a reload without blocking. Reports false when one is
// already pending.
func Trigger(ch chan struct{}) bool {
	select {
	case ch <- struct{}{}:
		return true
	default:
		return false
	}
}
