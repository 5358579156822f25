package devhub

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/sflens/internal/domain"
	"github.com/MrSnakeDoc/sflens/internal/logger"
	"github.com/MrSnakeDoc/sflens/internal/sfcli"
	"github.com/MrSnakeDoc/sflens/internal/sources/salesforce"
	"github.com/MrSnakeDoc/sflens/internal/store"
)

// GetAuthorizedOrgs returns every org the CLI is authorized against.
//
// Without forceRefresh a fresh cached list is returned as is. Otherwise the
// persisted snapshot (or the stale in-memory list) is served immediately and,
// when stale, a single background refresh is started. Only when nothing is
// known does the call wait for the CLI.
func (s *Service) GetAuthorizedOrgs(ctx context.Context, forceRefresh bool) (domain.AuthorizedOrgs, error) {
	if !forceRefresh {
		if e, ok := s.orgs.Get(orgsKey); ok && !e.IsStale {
			return e.Data, nil
		}
		if data, ok := s.serveStale(ctx); ok {
			return data, nil
		}
	}
	return s.fetchAuthorizedOrgs(ctx, "request")
}

// serveStale hydrates the org cache from the persisted snapshot when that is
// newer than what memory holds, then returns whatever is cached, scheduling a
// background refresh if it is stale.
func (s *Service) serveStale(ctx context.Context) (domain.AuthorizedOrgs, bool) {
	if snap, ok := s.store.Load(ctx); ok {
		cur, cached := s.orgs.Get(orgsKey)
		if !cached || snap.Time().After(cur.Timestamp) {
			s.orgs.SetAt(orgsKey, snap.Data, snap.Time())
			s.logger.Debug("hydrated org list from persisted snapshot",
				logger.Time("fetched_at", snap.Time()))
		}
	}

	e, ok := s.orgs.Get(orgsKey)
	if !ok {
		return domain.AuthorizedOrgs{}, false
	}
	if e.IsStale {
		s.refreshOrgsInBackground()
	}
	return e.Data, true
}

// refreshOrgsInBackground starts one forced org-list refresh unless another
// is already in flight. Reports whether a refresh was started.
func (s *Service) refreshOrgsInBackground() bool {
	if !s.orgs.MarkRefreshing(orgsKey) {
		return false
	}
	s.goBackground(func(ctx context.Context) {
		if _, err := s.fetchAuthorizedOrgs(ctx, "background"); err != nil {
			s.orgs.ClearRefreshing(orgsKey)
			s.logger.Warn("background org refresh failed", logger.Error(err))
		}
	})
	return true
}

// fetchAuthorizedOrgs runs `sf org list`, caches and persists the result.
// Concurrent callers share one CLI invocation.
func (s *Service) fetchAuthorizedOrgs(ctx context.Context, trigger string) (domain.AuthorizedOrgs, error) {
	v, err, _ := s.orgsFetch.Do(orgsKey, func() (any, error) {
		resp, err := sfcli.Exec[salesforce.OrgListResponse](ctx, s.runner, sfcli.ListOrgs())
		if err != nil {
			orgRefreshesTotal.WithLabelValues(trigger, "error").Inc()
			return nil, err
		}
		orgRefreshesTotal.WithLabelValues(trigger, "ok").Inc()

		data := s.mapper.MapAuthorizedOrgs(resp)
		s.orgs.Set(orgsKey, data)
		s.store.Save(ctx, store.NewSnapshot(data, s.now()))

		s.logger.Info("org list refreshed",
			logger.Int("devhubs", len(data.DevHubs)),
			logger.Int("scratch_orgs", len(data.ScratchOrgs)),
			logger.Int("other_orgs", len(data.OtherOrgs)))
		return data, nil
	})
	if err != nil {
		s.logger.Error("failed to list authorized orgs", logger.Error(err))
		return domain.AuthorizedOrgs{}, fmt.Errorf("list authorized orgs: %w", err)
	}
	return v.(domain.AuthorizedOrgs), nil
}

// RefreshOrgs forces a new org list fetch (scheduler, auth watcher, reload endpoint).
func (s *Service) RefreshOrgs(ctx context.Context) (domain.AuthorizedOrgs, error) {
	return s.fetchAuthorizedOrgs(ctx, "refresh")
}

// GetDevHubsList returns the DevHubs of the org list.
func (s *Service) GetDevHubsList(ctx context.Context) ([]domain.OrgRecord, error) {
	orgs, err := s.GetAuthorizedOrgs(ctx, false)
	if err != nil {
		return nil, err
	}
	return orgs.DevHubs, nil
}

// GetDevHubsWithEdition returns the DevHubs with their edition, fetched in parallel.
func (s *Service) GetDevHubsWithEdition(ctx context.Context) ([]domain.OrgRecord, error) {
	hubs, err := s.GetDevHubsList(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.OrgRecord, len(hubs))
	g := s.fanOutGroup()
	for i, hub := range hubs {
		g.Go(func() error {
			hub.Edition = s.GetOrgEdition(ctx, hub.Username)
			out[i] = hub
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

// GetDevHubsWithLimits returns the DevHubs with their scratch-org limits,
// fetched in parallel.
func (s *Service) GetDevHubsWithLimits(ctx context.Context) ([]domain.DevHubRecord, error) {
	hubs, err := s.GetDevHubsList(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.DevHubRecord, len(hubs))
	g := s.fanOutGroup()
	for i, hub := range hubs {
		g.Go(func() error {
			out[i] = domain.DevHubRecord{
				OrgRecord: hub,
				Limits:    s.GetDevHubLimits(ctx, hub.Username, false),
			}
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

// fanOutGroup returns an errgroup honoring FanOutLimit. Tasks never return
// errors: every per-hub fetch handles its own failure.
func (s *Service) fanOutGroup() *errgroup.Group {
	g := new(errgroup.Group)
	if s.opts.FanOutLimit > 0 {
		g.SetLimit(s.opts.FanOutLimit)
	}
	return g
}
