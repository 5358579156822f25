package devhub

import (
	"context"
	"sync"

	"github.com/MrSnakeDoc/sflens/internal/domain"
	"github.com/MrSnakeDoc/sflens/internal/logger"
)

// Callbacks receives the progressive results of StreamDevHubsData. Any field
// may be nil. Calls are never concurrent within one stream, and every field
// callback may fire twice per hub (cached value, then refreshed value), so
// consumers must overwrite rather than accumulate.
type Callbacks struct {
	OnDevHubsLoaded       func(devHubs []domain.OrgRecord)
	OnEditionLoaded       func(username, edition string)
	OnLimitsLoaded        func(username string, limits domain.ScratchOrgLimits, failed bool)
	OnSnapshotsInfoLoaded func(username string, info domain.SnapshotsInfo)
	OnComplete            func()
	OnError               func(err error)
}

// emitter serializes callback invocations of one stream.
type emitter struct {
	mu sync.Mutex
	cb Callbacks
}

func (e *emitter) devHubs(hubs []domain.OrgRecord) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cb.OnDevHubsLoaded != nil {
		e.cb.OnDevHubsLoaded(hubs)
	}
}

func (e *emitter) edition(username, edition string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cb.OnEditionLoaded != nil {
		e.cb.OnEditionLoaded(username, edition)
	}
}

func (e *emitter) limits(username string, limits domain.ScratchOrgLimits, failed bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cb.OnLimitsLoaded != nil {
		e.cb.OnLimitsLoaded(username, limits, failed)
	}
}

func (e *emitter) snapshotsInfo(username string, info domain.SnapshotsInfo) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cb.OnSnapshotsInfoLoaded != nil {
		e.cb.OnSnapshotsInfoLoaded(username, info)
	}
}

func (e *emitter) complete() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cb.OnComplete != nil {
		e.cb.OnComplete()
	}
}

func (e *emitter) fail(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cb.OnError != nil {
		e.cb.OnError(err)
	}
}

// StreamDevHubsData pushes DevHub data to cb as it becomes available.
//
// With a cached org list (fresh or stale) the cached DevHubs and any cached
// per-hub edition, limits and snapshot info are emitted before any CLI call.
// A fresh list then completes; a stale one triggers a background refresh and
// the call returns right away, the refresh emitting again and completing
// later. Without a cache the call fetches the list, fans out the per-hub
// fetches in parallel and returns once OnComplete has fired.
//
// OnDevHubsLoaded always precedes the per-hub callbacks of the same pass, and
// exactly one of OnComplete or OnError ends the stream.
func (s *Service) StreamDevHubsData(ctx context.Context, cb Callbacks) {
	em := &emitter{cb: cb}

	if cached, ok := s.orgs.Get(orgsKey); ok {
		streamsTotal.WithLabelValues("cached").Inc()
		s.emitCached(em, cached.Data.DevHubs)

		if !cached.IsStale {
			em.complete()
			return
		}
		s.goBackground(func(bgCtx context.Context) {
			s.refreshAndStream(bgCtx, em)
		})
		return
	}

	streamsTotal.WithLabelValues("cold").Inc()
	orgs, err := s.GetAuthorizedOrgs(ctx, false)
	if err != nil {
		em.fail(err)
		return
	}
	em.devHubs(orgs.DevHubs)
	s.fanOut(ctx, em, orgs.DevHubs, false)
	em.complete()
}

// RefreshDevHubsData is the forced variant of StreamDevHubsData: the org
// list and every per-hub value are fetched from the CLI, cached values are
// neither emitted nor trusted. Returns once the stream has ended.
func (s *Service) RefreshDevHubsData(ctx context.Context, cb Callbacks) {
	em := &emitter{cb: cb}
	streamsTotal.WithLabelValues("forced").Inc()

	orgs, err := s.fetchAuthorizedOrgs(ctx, "request")
	if err != nil {
		em.fail(err)
		return
	}
	em.devHubs(orgs.DevHubs)
	s.fanOut(ctx, em, orgs.DevHubs, true)
	em.complete()
}

func (s *Service) emitCached(em *emitter, hubs []domain.OrgRecord) {
	em.devHubs(hubs)
	for _, hub := range hubs {
		if e, ok := s.editions.Get(hub.Username); ok {
			em.edition(hub.Username, e.Data)
		}
	}
	for _, hub := range hubs {
		if e, ok := s.limits.Get(hub.Username); ok {
			em.limits(hub.Username, e.Data, false)
		}
		if e, ok := s.snapshotsInfo.Get(hub.Username); ok {
			em.snapshotsInfo(hub.Username, e.Data)
		}
	}
}

// refreshAndStream is the background pass behind a stale cache. Consumers
// already hold cached data, so a failure is logged and the stream completes.
func (s *Service) refreshAndStream(ctx context.Context, em *emitter) {
	orgs, err := s.fetchAuthorizedOrgs(ctx, "stream")
	if err != nil {
		s.logger.Warn("background dev hub refresh failed", logger.Error(err))
		em.complete()
		return
	}
	em.devHubs(orgs.DevHubs)
	s.fanOut(ctx, em, orgs.DevHubs, true)
	em.complete()
}

// fanOut fetches edition, limits and snapshot info of every hub in parallel
// and emits each as it resolves. Returns when all have been emitted.
func (s *Service) fanOut(ctx context.Context, em *emitter, hubs []domain.OrgRecord, force bool) {
	g := s.fanOutGroup()
	for _, hub := range hubs {
		username := hub.Username
		g.Go(func() error {
			em.edition(username, s.GetOrgEdition(ctx, username))
			return nil
		})
		g.Go(func() error {
			limits, err := s.fetchDevHubLimits(ctx, username, force)
			em.limits(username, limits, err != nil)
			return nil
		})
		g.Go(func() error {
			em.snapshotsInfo(username, s.GetSnapshotsInfo(ctx, username, force))
			return nil
		})
	}
	_ = g.Wait()
}

// EventKind tags an Event.
type EventKind string

const (
	EventDevHubsLoaded       EventKind = "devHubsLoaded"
	EventEditionLoaded       EventKind = "editionLoaded"
	EventLimitsLoaded        EventKind = "limitsLoaded"
	EventSnapshotsInfoLoaded EventKind = "snapshotsInfoLoaded"
	EventComplete            EventKind = "complete"
	EventError               EventKind = "error"
)

// Event is one streamed result. Only the fields relevant to Kind are set.
type Event struct {
	Kind          EventKind
	DevHubs       []domain.OrgRecord
	Username      string
	Edition       string
	Limits        domain.ScratchOrgLimits
	LimitsFailed  bool
	SnapshotsInfo domain.SnapshotsInfo
	Err           error
}

// Terminal reports whether e ends the stream.
func (e Event) Terminal() bool {
	return e.Kind == EventComplete || e.Kind == EventError
}

// EventCallbacks adapts emit to Callbacks, one Event per callback.
func EventCallbacks(emit func(Event)) Callbacks {
	return Callbacks{
		OnDevHubsLoaded: func(hubs []domain.OrgRecord) {
			emit(Event{Kind: EventDevHubsLoaded, DevHubs: hubs})
		},
		OnEditionLoaded: func(username, edition string) {
			emit(Event{Kind: EventEditionLoaded, Username: username, Edition: edition})
		},
		OnLimitsLoaded: func(username string, limits domain.ScratchOrgLimits, failed bool) {
			emit(Event{Kind: EventLimitsLoaded, Username: username, Limits: limits, LimitsFailed: failed})
		},
		OnSnapshotsInfoLoaded: func(username string, info domain.SnapshotsInfo) {
			emit(Event{Kind: EventSnapshotsInfoLoaded, Username: username, SnapshotsInfo: info})
		},
		OnComplete: func() { emit(Event{Kind: EventComplete}) },
		OnError:    func(err error) { emit(Event{Kind: EventError, Err: err}) },
	}
}

// Stream is StreamDevHubsData as a channel. The channel is closed right after
// the single terminal event. If ctx ends first, remaining events are dropped
// and the channel is closed.
func (s *Service) Stream(ctx context.Context) <-chan Event {
	return streamChan(ctx, s.StreamDevHubsData)
}

// StreamRefresh is RefreshDevHubsData as a channel, with the same closing
// rules as Stream.
func (s *Service) StreamRefresh(ctx context.Context) <-chan Event {
	return streamChan(ctx, s.RefreshDevHubsData)
}

func streamChan(ctx context.Context, run func(context.Context, Callbacks)) <-chan Event {
	ch := make(chan Event, 16)

	var (
		mu     sync.Mutex
		closed bool
	)
	send := func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- ev:
		case <-ctx.Done():
			closed = true
			close(ch)
			return
		}
		if ev.Terminal() {
			closed = true
			close(ch)
		}
	}

	go run(ctx, EventCallbacks(send))
	return ch
}
