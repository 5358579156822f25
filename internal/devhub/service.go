// Package devhub aggregates DevHub, scratch-org and snapshot data from the
// Salesforce CLI. It owns one TTL cache per data category, hydrates the org
// list from a persisted snapshot on cold start and streams partial results to
// consumers as individual fetches resolve.
package devhub

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/MrSnakeDoc/sflens/internal/cache"
	"github.com/MrSnakeDoc/sflens/internal/domain"
	"github.com/MrSnakeDoc/sflens/internal/logger"
	"github.com/MrSnakeDoc/sflens/internal/sfcli"
	"github.com/MrSnakeDoc/sflens/internal/sources/salesforce"
	"github.com/MrSnakeDoc/sflens/internal/store"
)

// Default TTL per data category.
const (
	DefaultOrgsTTL          = 60 * time.Second
	DefaultLimitsTTL        = 30 * time.Second
	DefaultSnapshotsInfoTTL = 60 * time.Second
	DefaultEditionTTL       = 300 * time.Second
)

const orgsKey = "orgs"

// Options configures a Service. Zero values take the defaults.
type Options struct {
	OrgsTTL          time.Duration
	LimitsTTL        time.Duration
	SnapshotsInfoTTL time.Duration
	EditionTTL       time.Duration

	// FanOutLimit caps concurrent per-hub fetches while streaming; <= 0 means no cap.
	FanOutLimit int

	// Store persists the org list; nil disables persistence.
	Store store.SnapshotStore

	// Clock overrides time.Now (tests).
	Clock func() time.Time
}

func (o *Options) setDefaults() {
	if o.OrgsTTL <= 0 {
		o.OrgsTTL = DefaultOrgsTTL
	}
	if o.LimitsTTL <= 0 {
		o.LimitsTTL = DefaultLimitsTTL
	}
	if o.SnapshotsInfoTTL <= 0 {
		o.SnapshotsInfoTTL = DefaultSnapshotsInfoTTL
	}
	if o.EditionTTL <= 0 {
		o.EditionTTL = DefaultEditionTTL
	}
	if o.Store == nil {
		o.Store = store.Nop{}
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
}

// Service is the DevHub data service. Construct one per process with New and
// release it with Close.
type Service struct {
	runner sfcli.Runner
	mapper *salesforce.Mapper
	store  store.SnapshotStore
	logger logger.Logger
	now    func() time.Time
	opts   Options

	orgs          *cache.Cache[domain.AuthorizedOrgs]
	limits        *cache.Cache[domain.ScratchOrgLimits]
	snapshotsInfo *cache.Cache[domain.SnapshotsInfo]
	editions      *cache.Cache[string]

	orgsFetch singleflight.Group

	bgCtx    context.Context
	bgCancel context.CancelFunc
	bg       sync.WaitGroup
}

// New creates a Service running CLI commands through runner.
func New(runner sfcli.Runner, opts Options, log logger.Logger) *Service {
	opts.setDefaults()

	s := &Service{
		runner: runner,
		mapper: salesforce.NewMapper(),
		store:  opts.Store,
		logger: log,
		now:    opts.Clock,
		opts:   opts,

		orgs:          cache.New[domain.AuthorizedOrgs]("orgs", opts.OrgsTTL),
		limits:        cache.New[domain.ScratchOrgLimits]("limits", opts.LimitsTTL),
		snapshotsInfo: cache.New[domain.SnapshotsInfo]("snapshots_info", opts.SnapshotsInfoTTL),
		editions:      cache.New[string]("editions", opts.EditionTTL),
	}
	s.mapper.SetClock(opts.Clock)
	s.orgs.SetClock(opts.Clock)
	s.limits.SetClock(opts.Clock)
	s.snapshotsInfo.SetClock(opts.Clock)
	s.editions.SetClock(opts.Clock)

	s.bgCtx, s.bgCancel = context.WithCancel(context.Background())
	return s
}

// Close cancels background refreshes and waits for them to return.
func (s *Service) Close() {
	s.bgCancel()
	s.bg.Wait()
}

// Wait blocks until every background refresh started so far has finished.
func (s *Service) Wait() {
	s.bg.Wait()
}

// goBackground runs fn on the service context, tracked by Close/Wait.
func (s *Service) goBackground(fn func(ctx context.Context)) {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		fn(s.bgCtx)
	}()
}

// InvalidateCache drops the org list, limits and snapshot-info caches.
// Editions are kept: they practically never change.
func (s *Service) InvalidateCache() {
	s.orgs.InvalidateAll()
	s.limits.InvalidateAll()
	s.snapshotsInfo.InvalidateAll()
}

// HasOrgs reports whether an org list (fresh or stale) is cached.
func (s *Service) HasOrgs() bool {
	_, ok := s.orgs.Get(orgsKey)
	return ok
}

// PruneHubCaches drops per-hub cache entries of DevHubs that are no longer in
// the cached org list. Returns the number of entries removed.
func (s *Service) PruneHubCaches() int {
	e, ok := s.orgs.Get(orgsKey)
	if !ok {
		return 0
	}
	active := make(map[string]bool, len(e.Data.DevHubs))
	for _, hub := range e.Data.DevHubs {
		active[hub.Username] = true
	}

	removed := 0
	removed += pruneCache(s.limits, active)
	removed += pruneCache(s.snapshotsInfo, active)
	removed += pruneCache(s.editions, active)
	return removed
}

func pruneCache[T any](c *cache.Cache[T], active map[string]bool) int {
	n := 0
	for _, key := range c.Keys() {
		if !active[key] {
			c.Invalidate(key)
			n++
		}
	}
	return n
}
