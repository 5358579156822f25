package devhub

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/sflens/internal/domain"
	"github.com/MrSnakeDoc/sflens/internal/logger"
	"github.com/MrSnakeDoc/sflens/internal/sfcli"
	"github.com/MrSnakeDoc/sflens/internal/sources/salesforce"
)

// GetAllScratchOrgsForDevHub lists every non-deleted scratch org of a DevHub,
// newest first, with the record ids needed for deletion. Errors are returned:
// an empty list would misrepresent the hub's inventory.
func (s *Service) GetAllScratchOrgsForDevHub(ctx context.Context, devHubUsername string) ([]domain.ScratchOrgRecord, error) {
	if err := sfcli.ValidateOrgRef(devHubUsername); err != nil {
		return nil, err
	}

	resp, err := sfcli.Exec[salesforce.QueryResponse[salesforce.ScratchOrgInfoRow]](
		ctx, s.runner, sfcli.Query(salesforce.ScratchOrgsQuery, devHubUsername))
	if err != nil {
		s.logger.Error("failed to fetch scratch orgs",
			logger.String("devhub", devHubUsername),
			logger.Error(err))
		return nil, fmt.Errorf("scratch orgs of %s: %w", devHubUsername, err)
	}
	return s.mapper.MapScratchOrgs(devHubUsername, resp), nil
}

// GetAllSnapshotsForDevHub lists the OrgSnapshots of a DevHub. When the
// feature is not available the listing is empty with the unavailable status.
func (s *Service) GetAllSnapshotsForDevHub(ctx context.Context, devHubUsername string) (domain.SnapshotListing, error) {
	if err := sfcli.ValidateOrgRef(devHubUsername); err != nil {
		return domain.SnapshotListing{}, err
	}

	resp, err := sfcli.Exec[salesforce.QueryResponse[salesforce.OrgSnapshotRow]](
		ctx, s.runner, sfcli.Query(salesforce.SnapshotsQuery, devHubUsername))
	if err != nil {
		s.logSnapshotFailure(devHubUsername, err)
		if IsUnavailableError(err) {
			return domain.SnapshotListing{
				Snapshots: []domain.SnapshotRecord{},
				Status:    domain.SnapshotsUnavailable,
			}, nil
		}
		return domain.SnapshotListing{}, fmt.Errorf("snapshots of %s: %w", devHubUsername, err)
	}

	return domain.SnapshotListing{
		Snapshots: s.mapper.MapSnapshots(resp),
		Status:    domain.SnapshotsAvailable,
	}, nil
}
