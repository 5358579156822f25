package devhub

import (
	"context"

	"github.com/MrSnakeDoc/sflens/internal/domain"
	"github.com/MrSnakeDoc/sflens/internal/logger"
	"github.com/MrSnakeDoc/sflens/internal/sfcli"
	"github.com/MrSnakeDoc/sflens/internal/sources/salesforce"
)

// GetOrgEdition returns the edition (OrganizationType) of an org, "" when
// unknown. A failed lookup is cached as "" so it is not retried within the
// edition TTL, unless it failed because ctx ended.
func (s *Service) GetOrgEdition(ctx context.Context, username string) string {
	if e, ok := s.editions.Get(username); ok && !e.IsStale {
		return e.Data
	}

	edition, err := s.queryEdition(ctx, username)
	if err != nil {
		if ctx.Err() != nil {
			return ""
		}
		s.logger.Warn("could not fetch org edition",
			logger.String("username", username),
			logger.Error(err))
	}
	s.editions.Set(username, edition)
	return edition
}

func (s *Service) queryEdition(ctx context.Context, username string) (string, error) {
	if err := sfcli.ValidateOrgRef(username); err != nil {
		return "", err
	}
	resp, err := sfcli.Exec[salesforce.QueryResponse[salesforce.OrganizationRow]](
		ctx, s.runner, sfcli.Query(salesforce.EditionQuery, username))
	if err != nil {
		return "", err
	}
	return s.mapper.MapEdition(resp), nil
}

// GetDevHubLimits returns the scratch-org limits of a DevHub. Failures yield
// all-zero limits and are not cached, so the next call retries.
func (s *Service) GetDevHubLimits(ctx context.Context, username string, forceRefresh bool) domain.ScratchOrgLimits {
	limits, _ := s.fetchDevHubLimits(ctx, username, forceRefresh)
	return limits
}

// fetchDevHubLimits is GetDevHubLimits reporting whether the fallback was used.
func (s *Service) fetchDevHubLimits(ctx context.Context, username string, forceRefresh bool) (domain.ScratchOrgLimits, error) {
	if !forceRefresh {
		if e, ok := s.limits.Get(username); ok && !e.IsStale {
			return e.Data, nil
		}
	}

	if err := sfcli.ValidateOrgRef(username); err != nil {
		return domain.ScratchOrgLimits{}, err
	}
	resp, err := sfcli.Exec[salesforce.LimitsResponse](ctx, s.runner, sfcli.ListLimits(username))
	if err != nil {
		s.logger.Warn("could not fetch dev hub limits",
			logger.String("username", username),
			logger.Error(err))
		return domain.ScratchOrgLimits{}, err
	}

	limits := s.mapper.MapLimits(resp)
	s.limits.Set(username, limits)
	return limits, nil
}

// GetSnapshotsInfo returns the snapshot counters of a DevHub. Any failure is
// cached as the unavailable state; only recognized "not provisioned / no
// access" failures are logged as expected. A lookup cut short by ctx returns
// the unavailable state without caching it.
func (s *Service) GetSnapshotsInfo(ctx context.Context, username string, forceRefresh bool) domain.SnapshotsInfo {
	if !forceRefresh {
		if e, ok := s.snapshotsInfo.Get(username); ok && !e.IsStale {
			return e.Data
		}
	}

	info, err := s.querySnapshotsInfo(ctx, username)
	if err != nil {
		if ctx.Err() != nil {
			return domain.UnavailableSnapshots()
		}
		s.logSnapshotFailure(username, err)
		info = domain.UnavailableSnapshots()
	}
	s.snapshotsInfo.Set(username, info)
	return info
}

func (s *Service) querySnapshotsInfo(ctx context.Context, username string) (domain.SnapshotsInfo, error) {
	if err := sfcli.ValidateOrgRef(username); err != nil {
		return domain.SnapshotsInfo{}, err
	}

	active, err := sfcli.Exec[salesforce.QueryResponse[salesforce.CountRow]](
		ctx, s.runner, sfcli.Query(salesforce.ActiveSnapshotsCountQuery, username))
	if err != nil {
		return domain.SnapshotsInfo{}, err
	}
	total, err := sfcli.Exec[salesforce.QueryResponse[salesforce.CountRow]](
		ctx, s.runner, sfcli.Query(salesforce.TotalSnapshotsCountQuery, username))
	if err != nil {
		return domain.SnapshotsInfo{}, err
	}

	return domain.SnapshotsInfo{
		Status:      domain.SnapshotsAvailable,
		ActiveCount: s.mapper.MapCount(active),
		TotalCount:  s.mapper.MapCount(total),
	}, nil
}

func (s *Service) logSnapshotFailure(username string, err error) {
	if IsUnavailableError(err) {
		s.logger.Warn("snapshots not available for dev hub",
			logger.String("username", username),
			logger.String("reason", sfcli.ErrorMessage(err)))
		return
	}
	s.logger.Error("failed to fetch snapshots",
		logger.String("username", username),
		logger.Error(err))
}
